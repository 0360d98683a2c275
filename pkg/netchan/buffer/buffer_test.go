package buffer

import (
	"reflect"
	"testing"

	"github.com/netchan-dev/go-netchan/pkg/netchan/types"
)

func TestFifo_ReportsFullAtCapacity(t *testing.T) {
	store := NewFifo(2)
	store.Put(1)
	if store.State() != types.NonEmptyFull {
		t.Errorf("expected NONEMPTYFULL, found %s", store.State())
	}
	store.Put(2)
	if store.State() != types.Full {
		t.Errorf("expected FULL, found %s", store.State())
	}

	if v := store.Get(); v != 1 {
		t.Errorf("expected 1, found %v", v)
	}
	if store.State() != types.NonEmptyFull {
		t.Errorf("expected NONEMPTYFULL after get, found %s", store.State())
	}
}

func TestFifo_PutWhenFullPanics(t *testing.T) {
	store := NewFifo(1)
	store.Put("only")
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected a panic from put on a full fifo")
		}
	}()
	store.Put("one too many")
}

func TestOverwriteNewest_ReplacesNewestWhenFull(t *testing.T) {
	store := NewOverwriteNewest(3)
	for _, v := range []string{"A", "B", "C", "D", "E"} {
		store.Put(v)
	}

	// A and B survive untouched, the newest slot was rewritten.
	for _, expected := range []string{"A", "B", "E"} {
		v := store.Get()
		if v != expected {
			t.Errorf("expected %s, found %v", expected, v)
		}
	}
	if store.State() != types.Empty {
		t.Errorf("expected EMPTY, found %s", store.State())
	}
}

func TestOverflow_DropsIncomingWhenFull(t *testing.T) {
	store := NewOverflow(3)
	for _, v := range []string{"A", "B", "C", "D", "E"} {
		store.Put(v)
		if store.State() == types.Full {
			t.Fatalf("overflow store reported FULL")
		}
	}

	for _, expected := range []string{"A", "B", "C"} {
		v := store.Get()
		if v != expected {
			t.Errorf("expected %s, found %v", expected, v)
		}
	}
	if store.State() != types.Empty {
		t.Errorf("expected EMPTY, found %s", store.State())
	}
}

func TestInfinite_GrowsPastInitialAllocation(t *testing.T) {
	store := NewInfiniteSized(2)
	total := 100
	for i := 0; i < total; i++ {
		store.Put(i)
	}

	for i := 0; i < total; i++ {
		v := store.Get()
		if v != i {
			t.Fatalf("expected %d, found %v", i, v)
		}
	}
	if store.State() != types.Empty {
		t.Errorf("expected EMPTY, found %s", store.State())
	}
}

func TestInfinite_GrowKeepsWrappedOrder(t *testing.T) {
	store := NewInfiniteSized(4)
	// Wrap the ring before forcing a grow.
	for i := 0; i < 3; i++ {
		store.Put(i)
	}
	store.Get()
	store.Get()
	for i := 3; i < 10; i++ {
		store.Put(i)
	}

	for expected := 2; expected < 10; expected++ {
		v := store.Get()
		if v != expected {
			t.Fatalf("expected %d, found %v", expected, v)
		}
	}
}

func TestCloneEmpty_PreservesPolicy(t *testing.T) {
	stores := []types.DataStore{
		NewOverwriteOldest(2),
		NewOverwriteNewest(2),
		NewFifo(2),
		NewOverflow(2),
		NewInfiniteSized(2),
	}

	for _, store := range stores {
		store.Put(1)
		cloned := store.CloneEmpty()
		if cloned.State() != types.Empty {
			t.Errorf("%T clone is not EMPTY", store)
		}
		if reflect.TypeOf(cloned) != reflect.TypeOf(store) {
			t.Errorf("%T cloned into a different policy %T", store, cloned)
		}
	}
}
