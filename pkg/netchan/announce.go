package netchan

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/digital-comrades/proletariat/pkg/proletariat"
	"github.com/netchan-dev/go-netchan/pkg/netchan/helper"
	"github.com/netchan-dev/go-netchan/pkg/netchan/types"
)

// Returned when announcing through an announcer already closed.
var ErrAnnouncerClosed = errors.New("announcer is closed")

// Announcer publishes and consumes one-way notices about channel
// bindings. When a node starts hosting a channel input end it
// announces the new binding, writer-side resolvers listening for the
// notices refresh their cache without a round trip.
//
// Announcements are fire-and-forget datagrams, a lost notice only
// means the stale entry must age out of the resolver cache before
// the writer re-resolves.
type Announcer struct {
	// Hold the configuration for the underlying communication.
	configuration proletariat.Configuration

	// Primitive for sending one-way messages.
	comm proletariat.Communication

	// Resolver refreshed with the received notices.
	resolver Resolver

	// Bound lifetime for the listener.
	ctx context.Context

	// Used to close the announcer.
	cancel context.CancelFunc

	invoker *helper.Invoker

	// Flag that tells if the announcer still available or not.
	closed *helper.Flag

	log types.Logger
}

// NewAnnouncer binds the announcement listener at the given address
// and feeds every received notice into the resolver.
func NewAnnouncer(parent context.Context, address types.TCPAddress, timeout time.Duration, resolver Resolver, log types.Logger) (*Announcer, error) {
	ctx, cancel := context.WithCancel(parent)
	conf := proletariat.Configuration{
		Address: proletariat.Address(address),
		Timeout: timeout,
		Ctx:     ctx,
	}
	comm, err := proletariat.NewCommunication(conf)
	if err != nil {
		cancel()
		return nil, err
	}
	a := &Announcer{
		configuration: conf,
		comm:          comm,
		resolver:      resolver,
		ctx:           ctx,
		cancel:        cancel,
		invoker:       helper.NewInvoker(),
		closed:        &helper.Flag{},
		log:           log,
	}
	a.invoker.Spawn(comm.Start)
	a.invoker.Spawn(a.poll)
	return a, nil
}

// Announce sends the binding notice to a single listener.
func (a *Announcer) Announce(target types.TCPAddress, notice types.Announcement) error {
	if a.closed.IsInactive() {
		return ErrAnnouncerClosed
	}
	data, err := json.Marshal(notice)
	if err != nil {
		a.log.Errorf("failed marshalling announcement %#v. %v", notice, err)
		return err
	}
	return a.comm.Send(proletariat.Address(target), data)
}

// Close the announcer and wait for the listener to stop. Closing
// twice is harmless.
func (a *Announcer) Close() error {
	if !a.closed.Inactivate() {
		return nil
	}
	a.cancel()
	err := a.comm.Close()
	a.invoker.Wait()
	return err
}

func (a *Announcer) poll() {
	for {
		select {
		case <-a.ctx.Done():
			return
		case datagram, ok := <-a.comm.Receive():
			if !ok {
				return
			}
			a.consume(datagram.Data.Bytes(), datagram.Err)
		}
	}
}

func (a *Announcer) consume(data []byte, err error) {
	if err != nil {
		a.log.Errorf("failed consuming announcement. %v", err)
		return
	}

	if data == nil {
		return
	}

	var notice types.Announcement
	if err := json.Unmarshal(data, &notice); err != nil {
		a.log.Errorf("failed unmarshalling announcement. %v", err)
		return
	}
	a.resolver.Update(notice.Channel, notice.Location)
}
