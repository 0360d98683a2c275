package netchan

import (
	"fmt"
	"sync"

	"github.com/netchan-dev/go-netchan/pkg/netchan/buffer"
	"github.com/netchan-dev/go-netchan/pkg/netchan/helper"
	"github.com/netchan-dev/go-netchan/pkg/netchan/types"
)

// Configuration for a relocatable channel output endpoint.
type EndpointConfiguration struct {
	// Identifier of the channel. Generated when empty.
	Channel types.ChannelID

	// Location of the channel input end this endpoint writes to.
	Location types.Location

	// Transport used to reach the channel host.
	Transport Transport

	// Store buffering the writes accepted while the endpoint has no
	// live binding. Defaults to an infinite store, so a relocation
	// window shows up as latency instead of failure. Any policy can
	// be plugged, an overwrite-oldest store turns a long window into
	// bounded staleness instead of unbounded memory.
	Deferred types.DataStore

	// Fail detached writes with ErrNotConnected instead of
	// buffering them.
	RejectDetachedWrites bool

	Logger types.Logger

	Metrics *Metrics
}

// MigratableOutput is the writing end of a networked channel that
// can be torn down at one location and re-established at another
// without losing the channel identity.
//
// The endpoint is exclusively owned by the process entitled to write
// through it, the operations are serialized but not reentrant. A
// binding is a (token, location) pair, every attach mints a new
// token so the host can tell a live binding from a stale one.
type MigratableOutput struct {
	mutex sync.Mutex

	// Identity, stable across relocation.
	id types.ChannelID

	// Current physical binding.
	location types.Location

	state types.ConnectionState

	// Token of the current binding, empty when detached.
	token string

	// Monotonic write sequence, never reset across bindings.
	sequence uint64

	trans Transport

	// Writes accepted while detached, flushed on recreate.
	deferred types.DataStore

	// Sent but unacknowledged writes, replayed on recreate.
	replay *replayQueue

	reject bool

	log types.Logger

	metrics *Metrics
}

// NewMigratableOutput creates the endpoint and attaches it at the
// configured location. When the first attach fails the endpoint is
// still returned in the Disconnected state together with the error,
// a Recreate can retry the handshake.
func NewMigratableOutput(conf EndpointConfiguration) (*MigratableOutput, error) {
	if conf.Transport == nil {
		return nil, fmt.Errorf("endpoint requires a transport")
	}
	if conf.Channel == "" {
		conf.Channel = types.ChannelID(helper.GenerateUID())
	}
	if conf.Deferred == nil {
		conf.Deferred = buffer.NewInfinite()
	}
	if conf.Logger == nil {
		conf.Logger = NewDefaultLogger()
	}

	m := &MigratableOutput{
		id:       conf.Channel,
		location: conf.Location,
		state:    types.Disconnected,
		trans:    conf.Transport,
		deferred: conf.Deferred,
		replay:   newReplayQueue(),
		reject:   conf.RejectDetachedWrites,
		log:      conf.Logger,
		metrics:  conf.Metrics,
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	if err := m.recreate(conf.Location); err != nil {
		return m, err
	}
	return m, nil
}

// Implements the NetChannelOutput interface.
func (m *MigratableOutput) Identity() (types.ChannelID, types.Location) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.id, m.location
}

// Implements the NetChannelOutput interface.
func (m *MigratableOutput) State() types.ConnectionState {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.state
}

// Write sends the value to the channel input end. While the endpoint
// has no live binding the value is deferred, or rejected with
// ErrNotConnected when the endpoint was configured that way. A
// transport failure flips the endpoint to Disconnected, the write
// stays tracked and is replayed by the next successful recreate.
func (m *MigratableOutput) Write(data []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	switch m.state {
	case types.Destroyed:
		return types.ErrDestroyed
	case types.Connected:
		return m.send(data)
	default:
		return m.detachedWrite(data)
	}
}

func (m *MigratableOutput) send(data []byte) error {
	m.sequence++
	m.replay.add(m.sequence, data)

	req := &types.WriteRequest{
		RPCHeader: types.RPCHeader{ProtocolVersion: types.LatestProtocolVersion},
		Channel:   m.id,
		Token:     m.token,
		Sequence:  m.sequence,
		Data:      data,
	}
	var res types.WriteResponse
	if err := m.trans.Write(m.id, m.location.Address, req, &res); err != nil {
		// The binding is presumed broken, the write is already
		// tracked for replay.
		m.log.Warnf("write %d lost its binding at %s. %v", m.sequence, m.location.Address, err)
		m.state = types.Disconnected
		m.token = ""
		if m.reject {
			return fmt.Errorf("write failed: %w", types.ErrNotConnected)
		}
		return nil
	}

	m.replay.ackUpTo(res.Sequence)
	m.metrics.incWritesSent()
	return nil
}

func (m *MigratableOutput) detachedWrite(data []byte) error {
	if m.reject {
		return types.ErrNotConnected
	}
	m.deferred.Put(data)
	m.metrics.incWritesDeferred()
	return nil
}

// PrepareToMove quiesces the endpoint for movement. The binding at
// the current location is released so no further application write
// is accepted through it, then the endpoint rests Disconnected until
// a recreate. Once started the teardown always completes.
func (m *MigratableOutput) PrepareToMove() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	switch m.state {
	case types.Destroyed:
		return types.ErrDestroyed
	case types.Connected:
	default:
		return fmt.Errorf("prepare-to-move from %s: %w", m.state, types.ErrIllegalTransition)
	}

	m.state = types.Preparing
	m.release()
	m.token = ""
	m.state = types.Disconnected
	return nil
}

// Best effort release of the current binding at the host. A failure
// is only logged, the host will reject the stale token anyway once a
// new binding is attached.
func (m *MigratableOutput) release() {
	if m.token == "" {
		return
	}
	req := &types.ReleaseRequest{
		RPCHeader: types.RPCHeader{ProtocolVersion: types.LatestProtocolVersion},
		Channel:   m.id,
		Token:     m.token,
	}
	var res types.ReleaseResponse
	if err := m.trans.Release(m.id, m.location.Address, req, &res); err != nil {
		m.log.Warnf("failed releasing binding for %s at %s. %v", m.id, m.location.Address, err)
	}
}

// Recreate re-establishes the endpoint at its last known location.
// Used for fault recovery, not relocation.
func (m *MigratableOutput) Recreate() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.recreate(m.location)
}

// RecreateAt re-establishes the endpoint at a new location,
// preserving the channel identifier.
func (m *MigratableOutput) RecreateAt(location types.Location) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.recreate(location)
}

// The recreate handshake. Must be called with the lock held.
// On any failure the endpoint falls back to Disconnected, never to
// Connected at a stale location, and the recreate can be retried.
func (m *MigratableOutput) recreate(location types.Location) error {
	switch m.state {
	case types.Destroyed:
		return types.ErrDestroyed
	case types.Disconnected:
	default:
		return fmt.Errorf("recreate from %s: %w", m.state, types.ErrIllegalTransition)
	}

	m.state = types.Reconnecting
	token := helper.GenerateUID()

	req := &types.AttachRequest{
		RPCHeader: types.RPCHeader{ProtocolVersion: types.LatestProtocolVersion},
		Channel:   m.id,
		Token:     token,
	}
	var res types.AttachResponse
	if err := m.trans.Attach(m.id, location.Address, req, &res); err != nil {
		m.state = types.Disconnected
		m.metrics.incRelocationFailures()
		m.log.Warnf("failed attaching %s at %s. %v", m.id, location.Address, err)
		return fmt.Errorf("recreate at %s: %w", location.Address, types.ErrUnreachableLocation)
	}
	if !res.Success {
		m.state = types.Disconnected
		m.metrics.incRelocationFailures()
		return fmt.Errorf("recreate at %s: %w", location.Address, types.ErrUnreachableLocation)
	}

	m.token = token
	m.location = location
	m.state = types.Connected

	// Writes the host already delivered need no replay.
	m.replay.ackUpTo(res.LastSequence)

	if err := m.flushReplay(); err != nil {
		return err
	}
	if err := m.flushDeferred(); err != nil {
		return err
	}
	m.metrics.incRelocations()
	return nil
}

// Re-send the unacknowledged suffix in its original order.
// Must be called with the lock held and a live binding.
func (m *MigratableOutput) flushReplay() error {
	for _, pending := range m.replay.pending() {
		req := &types.WriteRequest{
			RPCHeader: types.RPCHeader{ProtocolVersion: types.LatestProtocolVersion},
			Channel:   m.id,
			Token:     m.token,
			Sequence:  pending.sequence,
			Data:      pending.data,
		}
		var res types.WriteResponse
		if err := m.trans.Write(m.id, m.location.Address, req, &res); err != nil {
			m.state = types.Disconnected
			m.token = ""
			return fmt.Errorf("replay of %d at %s: %w", pending.sequence, m.location.Address, types.ErrUnreachableLocation)
		}
		m.replay.ackUpTo(res.Sequence)
		m.metrics.incWritesReplayed()
	}
	return nil
}

// Drain the writes deferred during the relocation window.
// Must be called with the lock held and a live binding. A value
// popped from the store is tracked for replay before being sent, so
// a failure mid-drain loses nothing.
func (m *MigratableOutput) flushDeferred() error {
	for m.deferred.State() != types.Empty {
		data := m.deferred.Get().([]byte)
		if err := m.send(data); err != nil {
			return err
		}
		if m.state != types.Connected {
			return fmt.Errorf("flush at %s: %w", m.location.Address, types.ErrUnreachableLocation)
		}
	}
	return nil
}

// DestroyWriter tears the endpoint down permanently, releasing the
// binding at the host. Not reversible, any later operation fails
// with ErrDestroyed.
func (m *MigratableOutput) DestroyWriter() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.state == types.Destroyed {
		return nil
	}
	if m.state == types.Connected {
		m.release()
	}
	m.token = ""
	m.state = types.Destroyed
	m.replay = newReplayQueue()
	m.deferred = m.deferred.CloneEmpty()
	return nil
}
