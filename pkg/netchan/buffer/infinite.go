package buffer

import (
	"github.com/netchan-dev/go-netchan/pkg/netchan/types"
)

// Default number of slots an Infinite store grows by.
const defaultInfiniteSize = 8

// Infinite always accepts input, growing its storage as needed.
// Only a reader can ever be blocked, when the store is empty.
//
// State returns Empty or NonEmptyFull, never Full.
type Infinite struct {
	// Initial allocation, kept so CloneEmpty reproduces the same
	// starting structure.
	initial int

	buffer  []interface{}
	counter int
	first   int
	last    int
}

// NewInfinite creates a store with a default initial allocation.
func NewInfinite() *Infinite {
	return NewInfiniteSized(defaultInfiniteSize)
}

// NewInfiniteSized creates a store with the given initial
// allocation. Panics if size is zero or negative.
func NewInfiniteSized(size int) *Infinite {
	if size <= 0 {
		panic("netchan: attempt to create an infinitely buffered channel with negative or zero initial capacity")
	}
	return &Infinite{initial: size, buffer: make([]interface{}, size)}
}

// Put a new value into the store, doubling the storage when the
// current allocation is exhausted.
func (i *Infinite) Put(value interface{}) {
	if i.counter == len(i.buffer) {
		grown := make([]interface{}, len(i.buffer)*2)
		n := copy(grown, i.buffer[i.first:])
		copy(grown[n:], i.buffer[:i.first])
		i.buffer = grown
		i.first = 0
		i.last = i.counter
	}
	i.buffer[i.last] = value
	i.last = (i.last + 1) % len(i.buffer)
	i.counter++
}

// Get returns the oldest value from the store and removes it.
// Pre-condition: State must not currently return Empty.
func (i *Infinite) Get() interface{} {
	if i.counter == 0 {
		panic("netchan: get from an empty infinite buffer")
	}
	value := i.buffer[i.first]
	i.buffer[i.first] = nil
	i.first = (i.first + 1) % len(i.buffer)
	i.counter--
	return value
}

// State returns Empty or NonEmptyFull, a writer is never blocked.
func (i *Infinite) State() types.BufferState {
	if i.counter == 0 {
		return types.Empty
	}
	return types.NonEmptyFull
}

// CloneEmpty returns a new store with the same initial allocation
// as this one.
func (i *Infinite) CloneEmpty() types.DataStore {
	return NewInfiniteSized(i.initial)
}
