package netchan

import (
	"context"
	"fmt"
	"time"

	"github.com/netchan-dev/go-netchan/pkg/netchan/types"
)

// Relocator drives a full endpoint move as one operation, the
// teardown at the old location followed by the attach at the new one,
// retrying the attach with backoff while the destination warms up.
type Relocator struct {
	// Attempts per relocation before giving up. At least one.
	Attempts int

	// Base delay between attach attempts, doubled per retry.
	Backoff time.Duration

	// Optional resolver consulted by Recover when the caller does
	// not know where the channel went.
	Resolver Resolver

	Logger types.Logger

	Metrics *Metrics
}

const (
	defaultRelocationAttempts = 5
	defaultRelocationBackoff  = 250 * time.Millisecond
)

func NewRelocator() *Relocator {
	return &Relocator{
		Attempts: defaultRelocationAttempts,
		Backoff:  defaultRelocationBackoff,
		Logger:   NewDefaultLogger(),
	}
}

// Relocate moves the endpoint to the given location. The teardown is
// not retried, once the endpoint is quiesced only the attach can
// fail, and a failed relocation leaves the endpoint Disconnected so
// the caller can retry with another destination or recover.
func (r *Relocator) Relocate(ctx context.Context, out types.MigratableChannelOutput, location types.Location) error {
	if err := out.PrepareToMove(); err != nil {
		return err
	}
	return r.attach(ctx, out, location)
}

// Recover re-establishes a Disconnected endpoint. When a resolver is
// configured it is consulted for the current location of the channel,
// otherwise the endpoint retries its last known location.
func (r *Relocator) Recover(ctx context.Context, out types.MigratableChannelOutput) error {
	id, last := out.Identity()
	location := last
	if r.Resolver != nil {
		resolved, err := r.Resolver.Resolve(id)
		if err == nil {
			location = resolved
		} else {
			r.logger().Debugf("no resolution for %s, using %s. %v", id, last.Address, err)
		}
	}
	return r.attach(ctx, out, location)
}

func (r *Relocator) attach(ctx context.Context, out types.MigratableChannelOutput, location types.Location) error {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := r.Backoff

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = out.RecreateAt(location); err == nil {
			if r.Resolver != nil {
				id, _ := out.Identity()
				r.Resolver.Update(id, location)
			}
			return nil
		}
		r.logger().Warnf("attempt %d attaching at %s failed. %v", attempt, location.Address, err)
		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("relocation to %s interrupted: %w", location.Address, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return fmt.Errorf("relocation to %s exhausted %d attempts: %w", location.Address, attempts, err)
}

func (r *Relocator) logger() types.Logger {
	if r.Logger == nil {
		r.Logger = NewDefaultLogger()
	}
	return r.Logger
}
