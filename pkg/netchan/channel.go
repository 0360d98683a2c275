package netchan

import (
	"context"
	"errors"
	"sync"

	"github.com/netchan-dev/go-netchan/pkg/netchan/types"
)

// Returned once the channel context is cancelled, any blocked reader
// or writer is released with this error.
var ErrChannelClosed = errors.New("channel is closed")

// One2One is a buffered point-to-point channel between exactly one
// writer and one reader at a time. The buffering behaviour is fully
// delegated to the configured DataStore, the channel only consults
// the store State to decide when a reader or writer must block and
// serializes the Put/Get calls the store itself does not guard.
type One2One struct {
	mutex  sync.Mutex
	change *sync.Cond

	store  types.DataStore
	closed bool

	ctx context.Context
}

// NewOne2One creates a buffered channel backed by the given store.
// The channel lifetime is bound to the parent context, cancelling it
// releases any blocked reader or writer.
func NewOne2One(ctx context.Context, store types.DataStore) *One2One {
	c := &One2One{store: store, ctx: ctx}
	c.change = sync.NewCond(&c.mutex)
	go c.watch()
	return c
}

// Unblock waiters when the parent context is cancelled.
func (c *One2One) watch() {
	<-c.ctx.Done()
	c.mutex.Lock()
	c.closed = true
	c.mutex.Unlock()
	c.change.Broadcast()
}

// Write sends a value through the channel, blocking while the store
// reports Full. Policies that never report Full never block the
// writer here, any discard is the policy's own business.
func (c *One2One) Write(value interface{}) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for c.store.State() == types.Full {
		if c.closed {
			return ErrChannelClosed
		}
		c.change.Wait()
	}
	if c.closed {
		return ErrChannelClosed
	}

	c.store.Put(value)
	c.change.Broadcast()
	return nil
}

// Read receives the oldest buffered value, blocking while the store
// reports Empty.
func (c *One2One) Read() (interface{}, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for c.store.State() == types.Empty {
		if c.closed {
			return nil, ErrChannelClosed
		}
		c.change.Wait()
	}

	value := c.store.Get()
	c.change.Broadcast()
	return value, nil
}

// TryRead receives the oldest buffered value without blocking.
// Returns false when the store is empty.
func (c *One2One) TryRead() (interface{}, bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed && c.store.State() == types.Empty {
		return nil, false, ErrChannelClosed
	}
	if c.store.State() == types.Empty {
		return nil, false, nil
	}

	value := c.store.Get()
	c.change.Broadcast()
	return value, true, nil
}

// State exposes the buffer state of the underlying store.
func (c *One2One) State() types.BufferState {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.store.State()
}

// CloneStore returns a fresh empty store with the same structure as
// the one backing this channel, used when a structurally identical
// channel must be created somewhere else.
func (c *One2One) CloneStore() types.DataStore {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.store.CloneEmpty()
}
