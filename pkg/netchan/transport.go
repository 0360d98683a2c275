package netchan

import (
	"net"
	"time"

	"github.com/netchan-dev/go-netchan/pkg/netchan/types"
)

// Captures a response/error from an RPC call.
type RPCResponse struct {
	Response interface{}
	Error    error
}

// A context for an RPC call with a channel to obtain the response/error.
type RPC struct {
	Command  interface{}
	RespChan chan<- RPCResponse
}

// Sends response back through channel.
func (r *RPC) Respond(resp interface{}, err error) {
	r.RespChan <- RPCResponse{
		Response: resp,
		Error:    err,
	}
}

// Transport is the communication layer between a channel output
// endpoint and the node hosting the channel input end. Only the
// channel-level RPCs live here, wire framing belongs to the
// implementation.
type Transport interface {
	// Returns a channel that can be used to consume incoming RPCs.
	Consumer() <-chan RPC

	// Local transport address.
	LocalAddress() types.TCPAddress

	// Establish a writer binding for the channel at the target node.
	Attach(id types.ChannelID, target types.TCPAddress, req *types.AttachRequest, res *types.AttachResponse) error

	// Send one sequenced write to the channel host.
	Write(id types.ChannelID, target types.TCPAddress, req *types.WriteRequest, res *types.WriteResponse) error

	// Tear down the writer binding at the channel host.
	Release(id types.ChannelID, target types.TCPAddress, req *types.ReleaseRequest, res *types.ReleaseResponse) error

	// Verify the target node is reachable.
	Ping(target types.TCPAddress, req *types.PingRequest, res *types.PingResponse) error

	// Closes the transport.
	Close() error
}

// Resolves a channel identifier into the address currently hosting
// its input end, overriding the fallback target of an RPC.
type AddressResolver interface {
	Resolve(id types.ChannelID) (types.TCPAddress, error)
}

// Provides a low level stream abstraction for the NetworkTransport.
type StreamLayer interface {
	net.Listener
	Dial(address types.TCPAddress, timeout time.Duration) (net.Conn, error)
}
