// Package worker implements the worker loop: dequeue a candidate, decide
// whether to output it, decide whether to refine it, apply operators, and
// publish. Every KB-touching computation is delegated to the assistant;
// the worker itself never queries the KB.
package worker

import (
	"context"
	"log"
	"runtime/debug"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"ruleminer/core/assistant"
	"ruleminer/core/config"
	"ruleminer/core/prune"
	"ruleminer/core/queue"
	"ruleminer/core/rule"
	"ruleminer/core/store"
)

var tracer = otel.Tracer("ruleminer/core/worker")

// Pool runs n identical worker goroutines sharing one queue, one result
// store and one assistant, and blocks until every worker has observed
// quiescence.
type Pool struct {
	Queue     *queue.Queue
	Store     *store.Store
	Assistant assistant.Assistant
	Config    config.Config
}

// Run launches n workers and blocks until all have terminated, i.e. until
// the queue reaches quiescence. Workers never return an error (a panic
// while processing a candidate is recovered and logged, the candidate is
// dropped, and the worker continues with the next one, per the error
// taxonomy's treatment of assistant failures as "log and continue"), so
// the errgroup here is used
// purely for its wait/fan-in, not for error propagation or cancellation.
func (p *Pool) Run(n int) {
	var g errgroup.Group
	for i := 0; i < n; i++ {
		id := i
		g.Go(func() error {
			p.runOne(id)
			return nil
		})
	}
	_ = g.Wait()
}

func (p *Pool) runOne(id int) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[WORKER %d] PANIC: %v\n%s", id, r, debug.Stack())
		}
	}()

	for {
		c, err := p.Queue.Dequeue()
		if err != nil {
			p.Queue.DecrementActiveWorkers()
			return
		}
		p.process(id, c)
	}
}

func (p *Pool) process(id int, c *rule.Rule) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[WORKER %d] PANIC processing %s: %v\n%s", id, c, r, debug.Stack())
		}
	}()

	_, span := tracer.Start(context.Background(), "worker.process")
	defer span.End()

	output := false

	if p.Assistant.ShouldOutput(c) {
		if !p.Config.UpperBoundPrune || p.Assistant.ComputeConfidenceBounds(c) {
			published := p.Store.Lookup(c.AlternativeParentHash())
			p.Assistant.SetAdditionalParents(c, published)

			p.Assistant.ComputeConfidenceMetrics(c)
			c.IsPerfect = prune.IsPerfect(c)

			if p.Assistant.TestConfidenceThresholds(c) {
				if c.IsPerfect && p.Assistant.IsPerfectRulesEnabled() {
					output = true
				} else {
					output = prune.PassesSkyline(p.Config, c, published)
				}
			}
		}
	}

	if prune.ShouldRefine(p.Config, c) {
		p.refine(id, c)
	}

	if output {
		p.Store.Publish(c)
		if p.Config.Verbose {
			log.Printf("[WORKER %d] published %s", id, c)
		}
	}
}

// refine applies the assistant's operator bundle and enqueues children,
// treating a failed operator call as the empty child set rather than
// propagating a null map: the assistant's own error return already covers
// the "print and continue" posture the core's error taxonomy specifies for
// assistant errors.
func (p *Pool) refine(id int, c *rule.Rule) {
	threshold := prune.OperatorCountThreshold(p.Config, c)
	children, err := p.Assistant.ApplyOperators(c, threshold)
	if err != nil {
		log.Printf("[WORKER %d] apply_operators failed for %s: %v", id, c, err)
		return
	}
	if children == nil {
		return
	}

	allowDangling := prune.AllowDangling(p.Config, c)

	for key, rules := range children {
		if key == assistant.DanglingKey {
			if !allowDangling {
				continue
			}
		}
		p.Queue.EnqueueAll(rules)
	}
}
