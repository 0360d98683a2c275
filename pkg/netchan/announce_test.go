package netchan

import (
	"context"
	"net"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/netchan-dev/go-netchan/pkg/netchan/types"
)

// Reserve a loopback address for a listener that binds on its own.
func reserveAddress(t *testing.T) types.TCPAddress {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed reserving address. %v", err)
	}
	address := lis.Addr().String()
	lis.Close()
	return types.TCPAddress(address)
}

func TestAnnouncer_RefreshesListeningResolver(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx, cancel := context.WithCancel(context.TODO())
	defer cancel()

	resolver := NewResolver()
	defer resolver.Close()

	listenerAddress := reserveAddress(t)
	listener, err := NewAnnouncer(ctx, listenerAddress, time.Second, resolver, NewDefaultLogger())
	if err != nil {
		t.Fatalf("failed creating listener. %v", err)
	}
	defer listener.Close()

	senderResolver := NewResolver()
	defer senderResolver.Close()
	sender, err := NewAnnouncer(ctx, reserveAddress(t), time.Second, senderResolver, NewDefaultLogger())
	if err != nil {
		t.Fatalf("failed creating sender. %v", err)
	}
	defer sender.Close()

	id := NewChannelID()
	moved := NewLocation("node-b", "127.0.0.1:7001")
	notice := types.Announcement{Channel: id, Location: moved}

	// The notice is fire-and-forget, retry until the listener caught
	// one or the deadline expires.
	deadline := time.Now().Add(5 * time.Second)
	for {
		if err = sender.Announce(listenerAddress, notice); err != nil {
			t.Logf("announce not delivered yet. %v", err)
		}

		if location, resolveErr := resolver.Resolve(id); resolveErr == nil {
			if location != moved {
				t.Errorf("expected %v, found %v", moved, location)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("announcement never reached the resolver")
		}
		time.Sleep(50 * time.Millisecond)
	}
}
