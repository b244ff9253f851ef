// Package queue implements the unbounded multi-producer/multi-consumer work
// queue the worker pool shares: a FIFO-ish buffer of candidate rules with a
// two-counter quiescence protocol standing in for any "join when empty"
// idiom, since workers are both producers and consumers of the same queue.
package queue

import (
	"log"
	"sync"

	"ruleminer/core/rule"
)

// Terminated is the sentinel error Dequeue returns once it has proven no
// further work can ever arrive.
type Terminated struct{}

func (Terminated) Error() string { return "queue: terminated" }

// ErrTerminated is returned by Dequeue at quiescence.
var ErrTerminated = Terminated{}

// Stats is a point-in-time snapshot of queue diagnostics.
type Stats struct {
	Depth          int
	PeakDepth      int
	TotalEnqueued  int64
	TotalDequeued  int64
	ActiveWorkers  int
	WaitingWorkers int
}

// Queue is the shared work queue. Zero value is not usable; construct with
// New.
type Queue struct {
	mu   sync.Mutex
	cond *sync.Cond

	items []*rule.Rule

	activeWorkers  int
	waitingWorkers int
	quiesced       bool

	peakDepth     int
	totalEnqueued int64
	totalDequeued int64

	verbose bool
}

// New constructs a queue for a pool of poolSize workers; activeWorkers is
// initialized to poolSize per the quiescence protocol.
func New(poolSize int, verbose bool) *Queue {
	q := &Queue{
		activeWorkers: poolSize,
		verbose:       verbose,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// EnqueueAll atomically appends a batch and wakes one waiter per inserted
// rule (a broadcast is simplest and correct: every waiter re-checks its own
// condition on wakeup). Enqueuing after quiescence has been reached is a
// programming error and is fatal, per the core's invariant-violation
// taxonomy.
func (q *Queue) EnqueueAll(rules []*rule.Rule) {
	if len(rules) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.quiesced {
		log.Fatalf("[QUEUE] enqueue after quiescence: %d rules", len(rules))
	}
	q.items = append(q.items, rules...)
	q.totalEnqueued += int64(len(rules))
	if len(q.items) > q.peakDepth {
		q.peakDepth = len(q.items)
	}
	if q.verbose {
		log.Printf("[QUEUE] enqueued %d rules, depth=%d", len(rules), len(q.items))
	}
	q.cond.Broadcast()
}

// Dequeue blocks while the queue is empty and at least one worker is still
// active, returning a candidate as soon as one is available. Once
// quiescence is detected it returns ErrTerminated to every blocked worker;
// callers must invoke DecrementActiveWorkers exactly once after observing
// ErrTerminated.
func (q *Queue) Dequeue() (*rule.Rule, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 {
		if q.quiesced {
			return nil, ErrTerminated
		}
		q.waitingWorkers++
		if q.waitingWorkers == q.activeWorkers && q.activeWorkers > 0 {
			q.quiesced = true
			if q.verbose {
				log.Printf("[QUEUE] quiescence reached: active=%d waiting=%d", q.activeWorkers, q.waitingWorkers)
			}
			q.cond.Broadcast()
			q.waitingWorkers--
			return nil, ErrTerminated
		}
		q.cond.Wait()
		q.waitingWorkers--
		if q.quiesced {
			return nil, ErrTerminated
		}
	}

	item := q.items[0]
	q.items = q.items[1:]
	q.totalDequeued++
	return item, nil
}

// DecrementActiveWorkers is called by a worker exactly once, after it has
// observed ErrTerminated from Dequeue, so the queue's liveness accounting
// reflects the worker's exit.
func (q *Queue) DecrementActiveWorkers() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.activeWorkers--
	if q.verbose {
		log.Printf("[QUEUE] worker exited, active=%d", q.activeWorkers)
	}
}

// Stats returns a snapshot of queue diagnostics.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Depth:          len(q.items),
		PeakDepth:      q.peakDepth,
		TotalEnqueued:  q.totalEnqueued,
		TotalDequeued:  q.totalDequeued,
		ActiveWorkers:  q.activeWorkers,
		WaitingWorkers: q.waitingWorkers,
	}
}
