package netchan

import (
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/netchan-dev/go-netchan/pkg/netchan/helper"
)

// Will concurrently add values to the cache structure.
// Then will verify that all added values are present and if
// they are added again, will return `false`.
func TestPurgatory_ShouldConcurrentlySet(t *testing.T) {
	defer goleak.VerifyNone(t)
	wg := &sync.WaitGroup{}
	testSize := 50
	var ids []string

	p := NewPurgatory()

	insert := func(id string) {
		defer wg.Done()
		if !p.Set(id) {
			t.Errorf("failed setting %s", id)
		}
	}

	wg.Add(testSize)
	for i := 0; i < testSize; i++ {
		id := helper.GenerateUID()
		ids = append(ids, id)
		go insert(id)
	}

	wg.Wait()

	for _, id := range ids {
		if !p.Contains(id) {
			t.Errorf("should contains %s", id)
		}

		if p.Set(id) {
			t.Errorf("value was added late. %s", id)
		}
	}
}
