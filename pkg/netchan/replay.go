package netchan

import (
	"strconv"
	"sync"

	"github.com/wangjia184/sortedset"
)

// A single write sent through an endpoint binding and not yet
// acknowledged by the channel host.
type pendingWrite struct {
	sequence uint64
	data     []byte
}

// replayQueue keeps the writes sent through a binding until the host
// acknowledges them. Internally a sorted set is used, scored by the
// write sequence, so after a recreate the unacknowledged suffix can
// be replayed in the exact order it was first sent.
type replayQueue struct {
	mutex *sync.Mutex
	set   *sortedset.SortedSet
	count int
}

func newReplayQueue() *replayQueue {
	return &replayQueue{
		mutex: &sync.Mutex{},
		set:   sortedset.New(),
	}
}

// Track a sent write until it is acknowledged.
func (r *replayQueue) add(sequence uint64, data []byte) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	key := strconv.FormatUint(sequence, 10)
	if r.set.AddOrUpdate(key, sortedset.SCORE(sequence), pendingWrite{sequence: sequence, data: data}) {
		r.count++
	}
}

// Drop every tracked write with sequence lower or equal than the
// acknowledged one.
func (r *replayQueue) ackUpTo(sequence uint64) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for {
		head := r.set.PeekMin()
		if head == nil || head.Score() > sortedset.SCORE(sequence) {
			return
		}
		r.set.Remove(head.Key())
		r.count--
	}
}

// The unacknowledged writes, oldest first.
func (r *replayQueue) pending() []pendingWrite {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	min := r.set.PeekMin()
	max := r.set.PeekMax()
	if min == nil || max == nil {
		return nil
	}

	var writes []pendingWrite
	for _, node := range r.set.GetByScoreRange(min.Score(), max.Score(), nil) {
		writes = append(writes, node.Value.(pendingWrite))
	}
	return writes
}

func (r *replayQueue) size() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.count
}
