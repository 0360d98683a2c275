package netchan

import (
	"github.com/coocood/freecache"
)

var (
	defaultValue    = []byte{0x1}
	entryExpiration = 500
)

type Purgatory interface {
	// Set will add a new entry to the purgatory.
	// Returns true if the value did not exist previously
	// and false otherwise.
	Set(id string) bool

	// Contains verify if the given value exists in purgatory.
	Contains(id string) bool
}

// TtlPurgatory is a structure that implements the Purgatory
// interface. All added entries have a TTL, after which they are
// removed. The registry uses it to recognize a replayed write
// without remembering every sequence ever delivered.
type TtlPurgatory struct {
	// delegate structure that will handle all entries.
	delegate *freecache.Cache
}

func NewPurgatory() Purgatory {
	return &TtlPurgatory{
		delegate: freecache.NewCache(10 * 1024 * 1024),
	}
}

// Set add a new value to the cache.
// If a previous element already exists, nothing changes.
func (t *TtlPurgatory) Set(id string) bool {
	old, err := t.delegate.GetOrSet([]byte(id), defaultValue, entryExpiration)
	return old == nil && err == nil
}

// Contains verify if the given entry already exists on purgatory.
func (t *TtlPurgatory) Contains(id string) bool {
	v, err := t.delegate.Peek([]byte(id))
	return v != nil && err == nil
}
