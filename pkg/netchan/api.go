package netchan

import (
	"context"

	"github.com/netchan-dev/go-netchan/pkg/netchan/buffer"
	"github.com/netchan-dev/go-netchan/pkg/netchan/helper"
	"github.com/netchan-dev/go-netchan/pkg/netchan/types"
)

// Creates a new channel identifier.
func NewChannelID() types.ChannelID {
	return types.ChannelID(helper.GenerateUID())
}

// Creates a channel identifier for the given string value.
func CreateChannelID(name string) types.ChannelID {
	return types.ChannelID(name)
}

// Creates a location for a channel input end hosted by the named
// node at the given transport address.
func NewLocation(node string, address string) types.Location {
	return types.Location{
		Node:    types.NodeName(node),
		Address: types.TCPAddress(address),
	}
}

// Creates an in-process channel with a plain blocking FIFO store of
// the given capacity.
func NewBufferedChannel(ctx context.Context, capacity int) *One2One {
	return NewOne2One(ctx, buffer.NewFifo(capacity))
}

// Creates an in-process channel with the given buffering policy.
func NewChannelWithStore(ctx context.Context, store types.DataStore) *One2One {
	return NewOne2One(ctx, store)
}

// Creates a registry hosting channel input ends, using the default
// logger and no metrics.
func NewChannelRegistry(ctx context.Context) *Registry {
	return NewRegistry(ctx, NewDefaultLogger(), nil)
}

// Bootstraps a TCP transport on the given bind address, using the
// default transport configuration when none is given.
func NewTransport(bind string, configuration *TransportConfiguration, logger types.Logger) (*NetworkTransport, error) {
	if configuration == nil {
		configuration = DefaultTransportConfiguration()
	}
	if err := ValidateTransportConfiguration(configuration); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = NewDefaultLogger()
	}
	return NewTCPTransport(bind, configuration.UseAdvertiseAddress, int(configuration.PoolSize), configuration.Timeout, logger)
}

// Creates a relocatable output endpoint for an existing channel,
// attached at the given location.
func NewWriter(id types.ChannelID, location types.Location, trans Transport) (*MigratableOutput, error) {
	return NewMigratableOutput(EndpointConfiguration{
		Channel:   id,
		Location:  location,
		Transport: trans,
	})
}

// Bootstraps a node from its configuration: the TCP transport, the
// registry serving it and, when an announce address is configured,
// the announcement listener feeding the given resolver. The caller
// owns the shutdown of everything returned.
func Bootstrap(ctx context.Context, configuration *NodeConfiguration, resolver Resolver) (*NetworkTransport, *Registry, *Announcer, error) {
	if err := ValidateNodeConfiguration(configuration); err != nil {
		return nil, nil, nil, err
	}
	logger := NewDefaultLogger()

	trans, err := NewTCPTransport(configuration.Address, nil, int(configuration.PoolSize), configuration.Timeout, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	registry := NewRegistry(ctx, logger, nil)
	registry.Serve(trans)

	var announcer *Announcer
	if len(configuration.AnnounceAddress) != 0 {
		announcer, err = NewAnnouncer(ctx, types.TCPAddress(configuration.AnnounceAddress), configuration.Timeout, resolver, logger)
		if err != nil {
			trans.Close()
			return nil, nil, nil, err
		}
	}
	return trans, registry, announcer, nil
}
