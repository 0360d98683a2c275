package netchan

import (
	"fmt"
	"time"

	"github.com/ReneKroon/ttlcache"
	"github.com/netchan-dev/go-netchan/pkg/netchan/types"
)

// How long a resolved binding stays valid without being refreshed.
const defaultResolveTTL = 10 * time.Minute

// Resolver maps a channel identifier to the current physical binding
// of its input end.
type Resolver interface {
	// Resolve the current location for the channel.
	Resolve(id types.ChannelID) (types.Location, error)

	// Update the known location for the channel.
	Update(id types.ChannelID, location types.Location)

	// Forget the known location for the channel.
	Forget(id types.ChannelID)

	// Close the resolver, releasing the cache resources.
	Close()
}

// CachedResolver keeps resolved bindings in a TTL cache. Entries age
// out so a binding that went quiet is resolved again instead of being
// trusted forever, relocations refresh the entry through Update,
// usually fed by the announcement listener.
type CachedResolver struct {
	cache *ttlcache.Cache
}

func NewResolver() *CachedResolver {
	return NewResolverWithTTL(defaultResolveTTL)
}

func NewResolverWithTTL(ttl time.Duration) *CachedResolver {
	c := ttlcache.NewCache()
	c.SetTTL(ttl)
	return &CachedResolver{cache: c}
}

// Implements the Resolver interface.
func (r *CachedResolver) Resolve(id types.ChannelID) (types.Location, error) {
	value, found := r.cache.Get(string(id))
	if !found {
		return types.Location{}, fmt.Errorf("no known location for channel %s", id)
	}
	return value.(types.Location), nil
}

// Implements the Resolver interface.
func (r *CachedResolver) Update(id types.ChannelID, location types.Location) {
	r.cache.Set(string(id), location)
}

// Implements the Resolver interface.
func (r *CachedResolver) Forget(id types.ChannelID) {
	r.cache.Remove(string(id))
}

// Implements the Resolver interface.
func (r *CachedResolver) Close() {
	r.cache.Close()
}

// LocationAddressResolver adapts a Resolver into the transport-level
// AddressResolver, so an RPC issued for a channel is routed to the
// last announced binding instead of the fallback target.
type LocationAddressResolver struct {
	Resolver Resolver
}

// Implements the AddressResolver interface.
func (l *LocationAddressResolver) Resolve(id types.ChannelID) (types.TCPAddress, error) {
	location, err := l.Resolver.Resolve(id)
	if err != nil {
		return "", err
	}
	return location.Address, nil
}
