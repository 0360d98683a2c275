package buffer

import (
	"github.com/netchan-dev/go-netchan/pkg/netchan/types"
)

// OverwriteNewest always accepts input, replacing the most recently
// written item when at capacity. Survivors are never reordered, the
// oldest values keep flowing out in write order.
//
// State returns Empty or NonEmptyFull, never Full.
type OverwriteNewest struct {
	buffer  []interface{}
	counter int
	first   int
	last    int
}

// NewOverwriteNewest creates a store with the given capacity.
// Panics if size is zero or negative.
func NewOverwriteNewest(size int) *OverwriteNewest {
	if size <= 0 {
		panic("netchan: attempt to create an overwriting buffered channel with negative or zero capacity")
	}
	return &OverwriteNewest{buffer: make([]interface{}, size)}
}

// Put a new value into the store. If the store is at capacity the
// most recently written item is replaced by the incoming one.
func (o *OverwriteNewest) Put(value interface{}) {
	if o.counter == len(o.buffer) {
		newest := (o.last + len(o.buffer) - 1) % len(o.buffer)
		o.buffer[newest] = value
		return
	}
	o.buffer[o.last] = value
	o.last = (o.last + 1) % len(o.buffer)
	o.counter++
}

// Get returns the oldest value from the store and removes it.
// Pre-condition: State must not currently return Empty.
func (o *OverwriteNewest) Get() interface{} {
	if o.counter == 0 {
		panic("netchan: get from an empty overwriting buffer")
	}
	value := o.buffer[o.first]
	o.buffer[o.first] = nil
	o.first = (o.first + 1) % len(o.buffer)
	o.counter--
	return value
}

// State returns Empty or NonEmptyFull, a writer is never blocked.
func (o *OverwriteNewest) State() types.BufferState {
	if o.counter == 0 {
		return types.Empty
	}
	return types.NonEmptyFull
}

// CloneEmpty returns a new store with the same capacity as this one.
func (o *OverwriteNewest) CloneEmpty() types.DataStore {
	return NewOverwriteNewest(len(o.buffer))
}
