package buffer

import (
	"github.com/netchan-dev/go-netchan/pkg/netchan/types"
)

// OverwriteOldest yields a FIFO buffered semantics for a channel
// that always accepts input. When empty, the channel blocks readers.
// When full, a writer will overwrite the oldest item left unread.
//
// State returns Empty or NonEmptyFull, never Full.
type OverwriteOldest struct {
	// The storage for the buffered values.
	buffer []interface{}

	// The number of values currently stored.
	counter int

	// The index of the oldest element (when counter > 0).
	first int

	// The index of the next free element (when counter < capacity).
	last int
}

// NewOverwriteOldest creates a store with the given capacity.
// Panics if size is zero or negative. No action should be taken to
// recover from it, application code generating it is in error and
// needs correcting.
func NewOverwriteOldest(size int) *OverwriteOldest {
	if size <= 0 {
		panic("netchan: attempt to create an overwriting buffered channel with negative or zero capacity")
	}
	return &OverwriteOldest{buffer: make([]interface{}, size)}
}

// Put a new value into the store. If the store is at capacity the
// oldest item left unread is overwritten.
func (o *OverwriteOldest) Put(value interface{}) {
	if o.counter == len(o.buffer) {
		o.first = (o.first + 1) % len(o.buffer)
	} else {
		o.counter++
	}
	o.buffer[o.last] = value
	o.last = (o.last + 1) % len(o.buffer)
}

// Get returns the oldest value from the store and removes it.
// Pre-condition: State must not currently return Empty.
func (o *OverwriteOldest) Get() interface{} {
	if o.counter == 0 {
		panic("netchan: get from an empty overwrite-oldest buffer")
	}
	value := o.buffer[o.first]
	o.buffer[o.first] = nil
	o.first = (o.first + 1) % len(o.buffer)
	o.counter--
	return value
}

// State returns Empty or NonEmptyFull, a writer is never blocked.
func (o *OverwriteOldest) State() types.BufferState {
	if o.counter == 0 {
		return types.Empty
	}
	return types.NonEmptyFull
}

// CloneEmpty returns a new store with the same capacity as this one.
// Only the size and structure is cloned, not any stored data.
func (o *OverwriteOldest) CloneEmpty() types.DataStore {
	return NewOverwriteOldest(len(o.buffer))
}
