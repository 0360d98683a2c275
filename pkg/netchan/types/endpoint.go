package types

import "errors"

var (
	// Returned when writing through an endpoint that is not connected
	// and the endpoint is configured to reject detached writes.
	ErrNotConnected = errors.New("channel output is not connected")

	// Returned for any operation issued on a destroyed endpoint.
	ErrDestroyed = errors.New("channel output was destroyed")

	// Returned when a transition is requested from a state that
	// does not allow it, e.g. a prepare-to-move on an endpoint
	// that is not connected.
	ErrIllegalTransition = errors.New("illegal connection state transition")

	// Returned when the recreate handshake could not reach the
	// requested location. The endpoint falls back to Disconnected
	// and the recreate may be retried.
	ErrUnreachableLocation = errors.New("channel location is unreachable")
)

// Unique identifier for a channel. The identifier is generated once
// when the channel is created and survives any relocation of its ends.
type ChannelID string

// Address a node transport binds to.
type TCPAddress string

// The name for a node hosting channel ends. Not used by the protocol
// itself, kept as a helper when debugging or resolving addresses.
type NodeName string

// The physical binding of a channel end. The identity of the channel
// never changes, the location is expected to change across its life.
type Location struct {
	// Node hosting the channel input end.
	Node NodeName

	// Address at which the node transport is reachable.
	Address TCPAddress
}

// Connection state of a relocatable output endpoint.
type ConnectionState uint8

const (
	// Steady state, writes flow to the bound location.
	Connected ConnectionState = iota

	// The binding is being torn down for a move.
	Preparing

	// No live binding, the channel identity is still valid.
	Disconnected

	// A new binding is being established.
	Reconnecting

	// Terminal. All resources tied to the binding were released.
	Destroyed
)

func (s ConnectionState) String() string {
	switch s {
	case Connected:
		return "CONNECTED"
	case Preparing:
		return "PREPARING"
	case Disconnected:
		return "DISCONNECTED"
	case Reconnecting:
		return "RECONNECTING"
	case Destroyed:
		return "DESTROYED"
	default:
		return "UNKNOWN"
	}
}

// NetChannelOutput is the writing end of a network channel. The
// endpoint is exclusively owned by the process entitled to write
// through it, operations are not reentrant and must never be issued
// concurrently from two call sites.
type NetChannelOutput interface {
	// Write sends the value to the channel input end at the bound
	// location. Depending on configuration, a write issued while the
	// endpoint is not connected is either deferred until the next
	// successful recreate or fails with ErrNotConnected.
	Write(data []byte) error

	// Recreate re-establishes the endpoint at its last known
	// location. Used for fault recovery, not relocation.
	Recreate() error

	// RecreateAt re-establishes the endpoint at a new location,
	// preserving the channel identifier.
	RecreateAt(location Location) error

	// DestroyWriter tears the endpoint down permanently and frees
	// the underlying resources. Not reversible.
	DestroyWriter() error

	// Identity returns the channel identifier and the current
	// physical binding of this endpoint.
	Identity() (ChannelID, Location)

	// State reports the connection state of the endpoint.
	State() ConnectionState
}

// MigratableChannelOutput is a networked channel output end that can
// be moved to another node without losing the channel identity.
type MigratableChannelOutput interface {
	NetChannelOutput

	// PrepareToMove quiesces the endpoint for movement. After it
	// returns no application write is accepted through the old
	// binding. Once started, the teardown always runs to the
	// Disconnected state, only a recreate re-establishes
	// connectivity afterwards.
	PrepareToMove() error
}
