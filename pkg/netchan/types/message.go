package types

// The version of the protocol, that includes RPC messages and the
// implementation specific treatment. Use the ProtocolVersion member
// on the configuration to control the version at which the nodes
// will communicate with each other.
//
// 0: Original and first available implementation.
type ProtocolVersion uint

const LatestProtocolVersion ProtocolVersion = 0

// RPCHeader is a common sub-structure between requests to pass
// common needed information.
type RPCHeader struct {
	// Protocol version at which nodes must communicate.
	ProtocolVersion ProtocolVersion
}

// Exposes the RPC header.
type WithRPCHeader interface {
	GetRPCHeader() RPCHeader
}

func (h RPCHeader) GetRPCHeader() RPCHeader {
	return h
}

// AttachRequest establishes a writer binding for a channel hosted at
// the target node. A successful attach invalidates any previous
// binding for the same channel, keeping at most one live writer-side
// binding per channel identifier.
type AttachRequest struct {
	RPCHeader

	// The channel being attached to.
	Channel ChannelID

	// Binding token generated by the writer for this incarnation.
	// Writes carrying a different token are rejected by the host.
	Token string
}

// Response for the AttachRequest.
type AttachResponse struct {
	RPCHeader

	// The attach was accepted and the binding is now live.
	Success bool

	// Highest write sequence already delivered for this channel.
	// The writer uses it to trim its replay queue before resending.
	LastSequence uint64
}

// WriteRequest carries one sequenced value for a channel input end.
type WriteRequest struct {
	RPCHeader

	// Destination channel.
	Channel ChannelID

	// Binding token of the issuing writer.
	Token string

	// Monotonic per-binding write sequence, used for replay
	// deduplication after a recreate.
	Sequence uint64

	// Opaque payload. Codec concerns belong to the caller.
	Data []byte
}

// Response for the WriteRequest.
type WriteResponse struct {
	RPCHeader

	// Sequence being acknowledged.
	Sequence uint64

	// The write was accepted by the channel host.
	Success bool
}

// ReleaseRequest tears down the writer binding at the host, either
// because the endpoint is preparing to move or was destroyed.
type ReleaseRequest struct {
	RPCHeader

	// Channel whose binding is released.
	Channel ChannelID

	// Token of the binding being released. A stale token releases
	// nothing, the live binding is kept untouched.
	Token string
}

// Response for the ReleaseRequest.
type ReleaseResponse struct {
	RPCHeader

	// The binding existed and was released.
	Success bool
}

// PingRequest verifies that a node transport is reachable.
type PingRequest struct {
	RPCHeader
}

// Response for the PingRequest.
type PingResponse struct {
	RPCHeader

	Success bool
}

// Announcement is the one-way notice published when a channel input
// end is bound at a new location, so writer-side resolvers can learn
// the change without a round trip.
type Announcement struct {
	// Channel whose binding changed.
	Channel ChannelID

	// The new physical binding of the channel input end.
	Location Location
}
