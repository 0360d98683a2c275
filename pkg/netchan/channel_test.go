package netchan

import (
	"context"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/netchan-dev/go-netchan/pkg/netchan/buffer"
	"github.com/netchan-dev/go-netchan/pkg/netchan/types"
)

func TestOne2One_DeliversInOrder(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx, cancel := context.WithCancel(context.TODO())
	defer cancel()

	ch := NewOne2One(ctx, buffer.NewFifo(5))
	values := []string{"a", "b", "c", "d", "e"}
	for _, value := range values {
		if err := ch.Write(value); err != nil {
			t.Fatalf("failed writing %s. %v", value, err)
		}
	}

	for _, expected := range values {
		value, err := ch.Read()
		if err != nil {
			t.Fatalf("failed reading. %v", err)
		}
		if value.(string) != expected {
			t.Errorf("expected %s, found %s", expected, value)
		}
	}

	if ch.State() != types.Empty {
		t.Errorf("channel should be empty, found %s", ch.State())
	}
}

func TestOne2One_WriterBlocksWhileFull(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx, cancel := context.WithCancel(context.TODO())
	defer cancel()

	ch := NewOne2One(ctx, buffer.NewFifo(1))
	if err := ch.Write("first"); err != nil {
		t.Fatalf("failed writing. %v", err)
	}
	if ch.State() != types.Full {
		t.Fatalf("channel should be full, found %s", ch.State())
	}

	done := make(chan error)
	go func() {
		done <- ch.Write("second")
	}()

	select {
	case err := <-done:
		t.Fatalf("write to a full channel returned early. %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	value, err := ch.Read()
	if err != nil {
		t.Fatalf("failed reading. %v", err)
	}
	if value.(string) != "first" {
		t.Errorf("expected first, found %s", value)
	}

	if err = <-done; err != nil {
		t.Fatalf("blocked write failed. %v", err)
	}

	value, err = ch.Read()
	if err != nil {
		t.Fatalf("failed reading. %v", err)
	}
	if value.(string) != "second" {
		t.Errorf("expected second, found %s", value)
	}
}

func TestOne2One_ReaderBlocksWhileEmpty(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx, cancel := context.WithCancel(context.TODO())
	defer cancel()

	ch := NewOne2One(ctx, buffer.NewFifo(1))
	received := make(chan interface{})
	go func() {
		value, err := ch.Read()
		if err != nil {
			t.Errorf("failed reading. %v", err)
		}
		received <- value
	}()

	select {
	case value := <-received:
		t.Fatalf("read on an empty channel returned early with %v", value)
	case <-time.After(100 * time.Millisecond):
	}

	if err := ch.Write("hello"); err != nil {
		t.Fatalf("failed writing. %v", err)
	}

	select {
	case value := <-received:
		if value.(string) != "hello" {
			t.Errorf("expected hello, found %s", value)
		}
	case <-time.After(time.Second):
		t.Fatal("reader never released")
	}
}

func TestOne2One_CancelReleasesBlocked(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx, cancel := context.WithCancel(context.TODO())

	ch := NewOne2One(ctx, buffer.NewFifo(1))
	done := make(chan error)
	go func() {
		_, err := ch.Read()
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != ErrChannelClosed {
			t.Errorf("expected %v, found %v", ErrChannelClosed, err)
		}
	case <-time.After(time.Second):
		t.Fatal("blocked reader never released")
	}

	if err := ch.Write("late"); err != ErrChannelClosed {
		t.Errorf("write after close should fail, found %v", err)
	}
}

func TestOne2One_OverwritingStoreNeverBlocksWriter(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx, cancel := context.WithCancel(context.TODO())
	defer cancel()

	ch := NewOne2One(ctx, buffer.NewOverwriteOldest(2))
	for i := 0; i < 10; i++ {
		done := make(chan error, 1)
		go func(v int) {
			done <- ch.Write(v)
		}(i)

		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("failed writing %d. %v", i, err)
			}
		case <-time.After(time.Second):
			t.Fatalf("write %d blocked on an overwriting store", i)
		}
	}

	// Only the two newest survive.
	for _, expected := range []int{8, 9} {
		value, err := ch.Read()
		if err != nil {
			t.Fatalf("failed reading. %v", err)
		}
		if value.(int) != expected {
			t.Errorf("expected %d, found %d", expected, value)
		}
	}
}

func TestOne2One_TryRead(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx, cancel := context.WithCancel(context.TODO())
	defer cancel()

	ch := NewOne2One(ctx, buffer.NewFifo(1))
	if _, ok, err := ch.TryRead(); ok || err != nil {
		t.Fatalf("try read on empty channel should miss. %v %v", ok, err)
	}

	if err := ch.Write("value"); err != nil {
		t.Fatalf("failed writing. %v", err)
	}

	value, ok, err := ch.TryRead()
	if !ok || err != nil {
		t.Fatalf("try read should hit. %v %v", ok, err)
	}
	if value.(string) != "value" {
		t.Errorf("expected value, found %s", value)
	}
}
