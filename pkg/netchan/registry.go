package netchan

import (
	"context"
	"fmt"
	"sync"

	"github.com/netchan-dev/go-netchan/pkg/netchan/helper"
	"github.com/netchan-dev/go-netchan/pkg/netchan/types"
)

// One networked channel input end hosted by a registry.
type hostedChannel struct {
	// The channel values are delivered into.
	input *One2One

	// Token of the live writer binding, empty when no writer is
	// attached. At most one binding is live at any instant.
	token string

	// Highest write sequence delivered for the live binding chain.
	lastSequence uint64
}

// Registry is the node side of the protocol. It hosts channel input
// ends, keeps the single live writer binding per channel and answers
// the attach/write/release RPCs arriving on a transport.
type Registry struct {
	mutex sync.Mutex

	// Hosted input ends by channel identifier.
	channels map[types.ChannelID]*hostedChannel

	// Recognizes replayed writes after a recreate.
	purgatory Purgatory

	// Bound lifetime for the serve loop.
	ctx context.Context

	invoker *helper.Invoker

	log types.Logger

	metrics *Metrics
}

func NewRegistry(ctx context.Context, log types.Logger, metrics *Metrics) *Registry {
	return &Registry{
		channels:  make(map[types.ChannelID]*hostedChannel),
		purgatory: NewPurgatory(),
		ctx:       ctx,
		invoker:   helper.NewInvoker(),
		log:       log,
		metrics:   metrics,
	}
}

// Host starts hosting the channel input end at this node. Hosting a
// channel again after it moved here resets the binding, a writer
// must attach before writes are accepted.
func (r *Registry) Host(id types.ChannelID, input *One2One) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.channels[id] = &hostedChannel{input: input}
}

// Unhost stops hosting the channel input end. In-flight writes for
// the channel fail from this point on.
func (r *Registry) Unhost(id types.ChannelID) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	delete(r.channels, id)
}

// Channel returns the hosted input end for the identifier.
func (r *Registry) Channel(id types.ChannelID) (*One2One, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	hosted, ok := r.channels[id]
	if !ok {
		return nil, false
	}
	return hosted.input, true
}

// Serve consumes RPCs from the transport until the registry context
// is cancelled. Commands are handled inline, a write into a full
// blocking-policy channel holds the loop until the reader drains,
// which is the channel backpressure reaching the network.
func (r *Registry) Serve(trans Transport) {
	r.invoker.Spawn(func() {
		for {
			select {
			case <-r.ctx.Done():
				return
			case rpc := <-trans.Consumer():
				r.dispatch(rpc)
			}
		}
	})
}

// Wait for the serve loop to exit.
func (r *Registry) Wait() {
	r.invoker.Wait()
}

func (r *Registry) dispatch(rpc RPC) {
	switch command := rpc.Command.(type) {
	case *types.AttachRequest:
		rpc.Respond(r.handleAttach(command))
	case *types.WriteRequest:
		rpc.Respond(r.handleWrite(command))
	case *types.ReleaseRequest:
		rpc.Respond(r.handleRelease(command))
	case *types.PingRequest:
		rpc.Respond(&types.PingResponse{RPCHeader: command.RPCHeader, Success: true}, nil)
	default:
		r.log.Errorf("unexpected command. %#v", rpc.Command)
		rpc.Respond(nil, fmt.Errorf("unknown command %#v", rpc.Command))
	}
}

// A successful attach rotates the binding token, invalidating any
// previous binding and keeping at most one live writer per channel.
func (r *Registry) handleAttach(req *types.AttachRequest) (*types.AttachResponse, error) {
	res := &types.AttachResponse{RPCHeader: req.RPCHeader}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	hosted, ok := r.channels[req.Channel]
	if !ok {
		return res, fmt.Errorf("channel %s is not hosted here", req.Channel)
	}

	hosted.token = req.Token
	res.Success = true
	res.LastSequence = hosted.lastSequence
	return res, nil
}

func (r *Registry) handleWrite(req *types.WriteRequest) (*types.WriteResponse, error) {
	res := &types.WriteResponse{RPCHeader: req.RPCHeader, Sequence: req.Sequence}

	r.mutex.Lock()
	hosted, ok := r.channels[req.Channel]
	if !ok {
		r.mutex.Unlock()
		return res, fmt.Errorf("channel %s is not hosted here", req.Channel)
	}
	if hosted.token == "" || hosted.token != req.Token {
		r.mutex.Unlock()
		return res, fmt.Errorf("stale binding for channel %s", req.Channel)
	}

	// Replays after a recreate are acknowledged but not delivered
	// twice.
	if !r.purgatory.Set(fmt.Sprintf("%s:%d", req.Channel, req.Sequence)) {
		r.mutex.Unlock()
		r.metrics.incWritesDeduped()
		res.Success = true
		return res, nil
	}

	if req.Sequence > hosted.lastSequence {
		hosted.lastSequence = req.Sequence
	}
	input := hosted.input
	r.mutex.Unlock()

	if err := input.Write(req.Data); err != nil {
		return res, err
	}
	r.metrics.incWritesDelivered()
	res.Success = true
	return res, nil
}

func (r *Registry) handleRelease(req *types.ReleaseRequest) (*types.ReleaseResponse, error) {
	res := &types.ReleaseResponse{RPCHeader: req.RPCHeader}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	hosted, ok := r.channels[req.Channel]
	if !ok || hosted.token == "" || hosted.token != req.Token {
		// A stale release keeps the live binding untouched.
		return res, nil
	}

	hosted.token = ""
	res.Success = true
	return res, nil
}
