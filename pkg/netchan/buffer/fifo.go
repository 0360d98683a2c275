package buffer

import (
	"github.com/netchan-dev/go-netchan/pkg/netchan/types"
)

// Fifo is the plain bounded FIFO buffering policy. When empty, the
// channel blocks readers. When full, the channel blocks writers, the
// store itself only reports Full and never discards anything.
type Fifo struct {
	buffer  []interface{}
	counter int
	first   int
	last    int
}

// NewFifo creates a store with the given capacity.
// Panics if size is zero or negative.
func NewFifo(size int) *Fifo {
	if size <= 0 {
		panic("netchan: attempt to create a buffered channel with negative or zero capacity")
	}
	return &Fifo{buffer: make([]interface{}, size)}
}

// Put a new value into the store.
// Pre-condition: State must not currently return Full, the channel
// runtime blocks the writer before this can happen.
func (f *Fifo) Put(value interface{}) {
	if f.counter == len(f.buffer) {
		panic("netchan: put into a full buffer")
	}
	f.buffer[f.last] = value
	f.last = (f.last + 1) % len(f.buffer)
	f.counter++
}

// Get returns the oldest value from the store and removes it.
// Pre-condition: State must not currently return Empty.
func (f *Fifo) Get() interface{} {
	if f.counter == 0 {
		panic("netchan: get from an empty buffer")
	}
	value := f.buffer[f.first]
	f.buffer[f.first] = nil
	f.first = (f.first + 1) % len(f.buffer)
	f.counter--
	return value
}

// State returns Empty, Full or NonEmptyFull.
func (f *Fifo) State() types.BufferState {
	switch f.counter {
	case 0:
		return types.Empty
	case len(f.buffer):
		return types.Full
	default:
		return types.NonEmptyFull
	}
}

// CloneEmpty returns a new store with the same capacity as this one.
func (f *Fifo) CloneEmpty() types.DataStore {
	return NewFifo(len(f.buffer))
}
