// Package engine wires seed generation, the work queue, the worker pool,
// the result store, and the rule consumer into the single entry point a
// caller drives: New, then Mine.
package engine

import (
	"context"
	"fmt"
	"log"
	"runtime"

	"go.opentelemetry.io/otel"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/multierr"

	"ruleminer/core/assistant"
	"ruleminer/core/config"
	"ruleminer/core/consumer"
	"ruleminer/core/metrics"
	"ruleminer/core/queue"
	"ruleminer/core/rule"
	"ruleminer/core/seed"
	"ruleminer/core/sink"
	"ruleminer/core/store"
	"ruleminer/core/worker"
)

var tracer = otel.Tracer("ruleminer/core/engine")

func init() {
	// Honor cgroup CPU quotas when resolving the default thread count
	// below; undo() is never called because the process lives for the
	// lifetime of the binary and GOMAXPROCS should stay corrected.
	if _, err := maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {})); err != nil {
		log.Printf("[ENGINE] automaxprocs: %v", err)
	}
}

// Engine runs one mining job end to end.
type Engine struct {
	cfg       config.Config
	assistant assistant.Assistant
	sink      sink.Sink

	store *store.Store
}

// New validates cfg, resolves a zero thread count to GOMAXPROCS, caps a
// larger thread count at GOMAXPROCS, and constructs an Engine bound to the
// given assistant and sink.
func New(cfg config.Config, a assistant.Assistant, sk sink.Sink) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	maxThreads := runtime.GOMAXPROCS(0)
	if maxThreads < 1 {
		maxThreads = 1
	}
	if cfg.NThreads == 0 || cfg.NThreads > maxThreads {
		cfg.NThreads = maxThreads
	}
	return &Engine{
		cfg:       cfg,
		assistant: a,
		sink:      sk,
		store:     store.New(),
	}, nil
}

// Result is the outcome of a Mine call.
type Result struct {
	Rules      []*rule.Rule
	QueueStats queue.Stats
}

// Mine runs seed generation, the worker pool, and (if RealTime is enabled)
// a streaming consumer, to quiescence, then returns every published rule.
// In non-real-time mode the full rule set is written to the sink only
// after quiescence.
func (e *Engine) Mine(seeds []uint32) (*Result, error) {
	ctx, span := tracer.Start(context.Background(), "engine.mine")
	defer span.End()
	_ = ctx

	initial, err := seed.Generate(e.assistant, seeds, e.cfg.MinInitialSupport)
	if err != nil {
		return nil, fmt.Errorf("engine: seed generation: %w", err)
	}

	q := queue.New(e.cfg.NThreads, e.cfg.Verbose)

	var c *consumer.Consumer
	if e.cfg.RealTime {
		c = consumer.New(e.store, e.sink, e.assistant)
		c.Start()
	}

	if len(initial) > 0 {
		q.EnqueueAll(initial)
	}

	pool := &worker.Pool{
		Queue:     q,
		Store:     e.store,
		Assistant: e.assistant,
		Config:    e.cfg,
	}
	pool.Run(e.cfg.NThreads)

	e.store.Terminate()

	var closeErr error
	if e.cfg.RealTime {
		c.Wait()
	} else {
		if err := consumer.DrainAll(e.store, e.sink, e.assistant); err != nil {
			closeErr = multierr.Append(closeErr, fmt.Errorf("engine: drain: %w", err))
		}
	}

	if err := e.sink.Close(); err != nil {
		closeErr = multierr.Append(closeErr, fmt.Errorf("engine: sink close: %w", err))
	}

	rules := e.store.Snapshot()
	stats := q.Stats()
	metrics.ObserveQueue(stats)
	metrics.RecordRulesEmitted(len(rules))

	return &Result{
		Rules:      rules,
		QueueStats: stats,
	}, closeErr
}
