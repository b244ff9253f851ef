// Package consumer implements the Rule Consumer: a single background
// goroutine that drains the result store in publication order to the
// output sink as soon as new rules arrive, when real-time streaming is
// enabled.
package consumer

import (
	"fmt"
	"log"

	"ruleminer/core/assistant"
	"ruleminer/core/rule"
	"ruleminer/core/sink"
	"ruleminer/core/store"
)

// Consumer drains a Store to a Sink in publication order.
type Consumer struct {
	store     *store.Store
	sink      sink.Sink
	assistant assistant.Assistant

	lastIndex int
	headerOut bool
	exited    chan struct{}
}

// New constructs a consumer bound to the given store, sink and assistant
// (the assistant supplies Header/Format).
func New(s *store.Store, sk sink.Sink, a assistant.Assistant) *Consumer {
	return &Consumer{
		store:     s,
		sink:      sk,
		assistant: a,
		lastIndex: -1,
		exited:    make(chan struct{}),
	}
}

// Start launches the draining goroutine, which exits once the store is
// terminated and fully drained.
func (c *Consumer) Start() {
	go c.run()
}

// Wait blocks until the consumer has flushed and exited.
func (c *Consumer) Wait() {
	<-c.exited
}

func (c *Consumer) run() {
	defer close(c.exited)

	c.writeHeader()

	for {
		newRules, newIndex, done := c.store.WaitForNew(c.lastIndex)
		c.lastIndex = newIndex
		for _, r := range newRules {
			c.writeRule(r)
		}
		if done {
			if err := c.sink.Flush(); err != nil {
				log.Printf("[CONSUMER] flush error: %v", err)
			}
			return
		}
	}
}

func (c *Consumer) writeHeader() {
	if c.headerOut {
		return
	}
	c.headerOut = true
	if err := c.sink.WriteLine(c.assistant.Header()); err != nil {
		log.Printf("[CONSUMER] header write error: %v", err)
	}
}

func (c *Consumer) writeRule(r *rule.Rule) {
	if err := c.sink.WriteLine(c.assistant.Format(r)); err != nil {
		log.Printf("[CONSUMER] write error for rule %v: %v", r, err)
	}
}

// DrainAll is used in non-real-time mode: the driver calls this once
// mining has completed, writing the header plus every published rule in
// insertion order in a single pass.
func DrainAll(s *store.Store, sk sink.Sink, a assistant.Assistant) error {
	if err := sk.WriteLine(a.Header()); err != nil {
		return fmt.Errorf("consumer: header: %w", err)
	}
	for _, r := range s.Snapshot() {
		if err := sk.WriteLine(a.Format(r)); err != nil {
			return fmt.Errorf("consumer: write rule: %w", err)
		}
	}
	return sk.Flush()
}
