package buffer

import (
	"github.com/netchan-dev/go-netchan/pkg/netchan/types"
)

// Overflow always accepts input, silently dropping the incoming
// value when at capacity. Values already buffered are untouched.
//
// State returns Empty or NonEmptyFull, never Full, since a Put is
// always accepted even if its value ends up discarded.
type Overflow struct {
	buffer  []interface{}
	counter int
	first   int
	last    int
}

// NewOverflow creates a store with the given capacity.
// Panics if size is zero or negative.
func NewOverflow(size int) *Overflow {
	if size <= 0 {
		panic("netchan: attempt to create an overflowing buffered channel with negative or zero capacity")
	}
	return &Overflow{buffer: make([]interface{}, size)}
}

// Put a new value into the store. If the store is at capacity the
// value is dropped.
func (o *Overflow) Put(value interface{}) {
	if o.counter == len(o.buffer) {
		return
	}
	o.buffer[o.last] = value
	o.last = (o.last + 1) % len(o.buffer)
	o.counter++
}

// Get returns the oldest value from the store and removes it.
// Pre-condition: State must not currently return Empty.
func (o *Overflow) Get() interface{} {
	if o.counter == 0 {
		panic("netchan: get from an empty overflowing buffer")
	}
	value := o.buffer[o.first]
	o.buffer[o.first] = nil
	o.first = (o.first + 1) % len(o.buffer)
	o.counter--
	return value
}

// State returns Empty or NonEmptyFull, a writer is never blocked.
func (o *Overflow) State() types.BufferState {
	if o.counter == 0 {
		return types.Empty
	}
	return types.NonEmptyFull
}

// CloneEmpty returns a new store with the same capacity as this one.
func (o *Overflow) CloneEmpty() types.DataStore {
	return NewOverflow(len(o.buffer))
}
