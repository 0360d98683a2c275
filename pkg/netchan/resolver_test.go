package netchan

import (
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/netchan-dev/go-netchan/pkg/netchan/types"
)

func TestResolver_UpdateAndResolve(t *testing.T) {
	defer goleak.VerifyNone(t)
	resolver := NewResolver()
	defer resolver.Close()

	id := NewChannelID()
	if _, err := resolver.Resolve(id); err == nil {
		t.Fatal("resolving an unknown channel should fail")
	}

	location := NewLocation("node-a", "127.0.0.1:7000")
	resolver.Update(id, location)

	resolved, err := resolver.Resolve(id)
	if err != nil {
		t.Fatalf("failed resolving. %v", err)
	}
	if resolved != location {
		t.Errorf("expected %v, found %v", location, resolved)
	}

	// A relocation overwrites the previous binding.
	moved := NewLocation("node-b", "127.0.0.1:7001")
	resolver.Update(id, moved)
	resolved, err = resolver.Resolve(id)
	if err != nil {
		t.Fatalf("failed resolving. %v", err)
	}
	if resolved != moved {
		t.Errorf("expected %v, found %v", moved, resolved)
	}
}

func TestResolver_Forget(t *testing.T) {
	defer goleak.VerifyNone(t)
	resolver := NewResolver()
	defer resolver.Close()

	id := NewChannelID()
	resolver.Update(id, NewLocation("node-a", "127.0.0.1:7000"))
	resolver.Forget(id)

	if _, err := resolver.Resolve(id); err == nil {
		t.Error("resolving a forgotten channel should fail")
	}
}

func TestResolver_EntriesAgeOut(t *testing.T) {
	defer goleak.VerifyNone(t)
	resolver := NewResolverWithTTL(50 * time.Millisecond)
	defer resolver.Close()

	id := NewChannelID()
	resolver.Update(id, NewLocation("node-a", "127.0.0.1:7000"))
	time.Sleep(150 * time.Millisecond)

	if _, err := resolver.Resolve(id); err == nil {
		t.Error("stale binding should have aged out")
	}
}

func TestLocationAddressResolver_AdaptsForTransport(t *testing.T) {
	defer goleak.VerifyNone(t)
	resolver := NewResolver()
	defer resolver.Close()

	id := NewChannelID()
	adapter := &LocationAddressResolver{Resolver: resolver}
	if _, err := adapter.Resolve(id); err == nil {
		t.Fatal("adapter should propagate the resolution failure")
	}

	resolver.Update(id, NewLocation("node-a", "127.0.0.1:7000"))
	address, err := adapter.Resolve(id)
	if err != nil {
		t.Fatalf("failed resolving. %v", err)
	}
	if address != types.TCPAddress("127.0.0.1:7000") {
		t.Errorf("expected 127.0.0.1:7000, found %s", address)
	}
}
