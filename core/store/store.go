// Package store implements the Result Store: an append-only ordered list
// of published rules plus a secondary index keyed by alternative-parent
// hash, used to suppress duplicates produced by distinct refinement paths
// under parallel search.
package store

import (
	"log"
	"sync"

	"ruleminer/core/rule"
)

// bucket is a set of rules sharing one alternative-parent hash. It is
// always created as a set from the very first insertion: storing a bare
// rule and only later promoting it to a set is the latent bug the source
// had, where a subsequent duplicate slipped past a contains check on an
// uninitialized collection.
type bucket struct {
	rules []*rule.Rule
}

func (b *bucket) contains(r *rule.Rule) bool {
	for _, existing := range b.rules {
		if existing.Equal(r) {
			return true
		}
	}
	return false
}

// Store is the published-rule result store. Zero value is not usable;
// construct with New.
type Store struct {
	mu sync.Mutex

	ordered []*rule.Rule
	byHash  map[[32]byte]*bucket

	done bool
	cond *sync.Cond
}

// New constructs an empty result store.
func New() *Store {
	s := &Store{
		byHash: make(map[[32]byte]*bucket),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Lookup returns every previously published rule sharing r's
// alternative-parent hash, without publishing r. Workers call this before
// computing exact confidence so set_additional_parents can see every
// ancestor published so far.
func (s *Store) Lookup(hash [32]byte) []*rule.Rule {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byHash[hash]
	if !ok {
		return nil
	}
	out := make([]*rule.Rule, len(b.rules))
	copy(out, b.rules)
	return out
}

// Publish appends r to the ordered list and its hash bucket, iff no
// structurally-equal rule is already present in that bucket. It returns
// true if r was newly published. A duplicate structural match is a
// programming error per the core's invariant: the operator bundle produced
// the identical rule twice along different refinement paths without the
// hash colliding on anything else to disambiguate it; this aborts the
// process with a diagnostic rather than silently accepting it.
func (s *Store) Publish(r *rule.Rule) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash := r.AlternativeParentHash()
	b, ok := s.byHash[hash]
	if !ok {
		b = &bucket{}
		s.byHash[hash] = b
	} else if b.contains(r) {
		log.Fatalf("[STORE] duplicate publication detected for rule %s (hash %x)", r, hash)
	}

	b.rules = append(b.rules, r)
	s.ordered = append(s.ordered, r)
	s.cond.Broadcast()
	return true
}

// Len returns the number of published rules.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ordered)
}

// Snapshot returns a copy of every published rule in publication order.
func (s *Store) Snapshot() []*rule.Rule {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*rule.Rule, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// WaitForNew blocks until either the ordered list has grown past
// lastIndex or Terminate has been called, then returns the newly published
// rules (possibly empty, iff terminated with nothing new) and whether the
// store is done.
func (s *Store) WaitForNew(lastIndex int) (newRules []*rule.Rule, newIndex int, done bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for lastIndex == len(s.ordered)-1 && !s.done {
		s.cond.Wait()
	}
	if lastIndex < len(s.ordered)-1 {
		newRules = append(newRules, s.ordered[lastIndex+1:]...)
		lastIndex = len(s.ordered) - 1
	}
	return newRules, lastIndex, s.done
}

// Terminate marks the store done and wakes the consumer for a final drain.
func (s *Store) Terminate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
	s.cond.Broadcast()
}
