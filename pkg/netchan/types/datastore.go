package types

// The state of a channel data store, consulted by the channel
// runtime before releasing a blocked reader or writer.
type BufferState uint8

const (
	// No value is buffered, a reader must not proceed.
	Empty BufferState = iota

	// The store is at capacity and will not accept another value,
	// a writer must not proceed.
	Full

	// At least one value is buffered and the store still accepts
	// writes, possibly applying its own overflow policy. Both a
	// reader and a writer may proceed.
	NonEmptyFull
)

func (s BufferState) String() string {
	switch s {
	case Empty:
		return "EMPTY"
	case Full:
		return "FULL"
	case NonEmptyFull:
		return "NONEMPTYFULL"
	default:
		return "UNKNOWN"
	}
}

// DataStore is the buffering strategy behind a buffered channel.
// The channel runtime holds one store per channel and consults only
// the State value when deciding if a pending reader or writer can
// be released, the internal counters are never exposed.
//
// A store is not safe for concurrent use. The channel runtime
// serializes access so at most one Put and one Get is in flight
// at any moment, never two of the same kind.
type DataStore interface {
	// Put accepts a new value. Never blocks. What happens when the
	// store is at capacity depends on the policy, the value may
	// displace the oldest buffered value, replace the newest one or
	// be dropped. A policy that reports Full at capacity will never
	// receive a Put while Full, the runtime blocks the writer first.
	Put(value interface{})

	// Get removes and returns the oldest buffered value.
	// Pre-condition: State must not currently return Empty. Calling
	// Get on an empty store is a caller defect and panics.
	Get() interface{}

	// State reports the current buffer state.
	State() BufferState

	// CloneEmpty returns a new store with the same capacity and
	// policy as this one and no buffered data.
	CloneEmpty() DataStore
}
