package store

import (
	"testing"
	"time"

	"ruleminer/core/atom"
	"ruleminer/core/rule"
)

func ruleWithHead(predicate uint32) *rule.Rule {
	return rule.New(atom.Atom{Predicate: predicate, Subject: atom.Var(0), Object: atom.Var(1)})
}

func TestPublishNewRule(t *testing.T) {
	s := New()
	r := ruleWithHead(1)
	if !s.Publish(r) {
		t.Fatal("Publish of a fresh rule returned false")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

// TestLookupReturnsSetFromFirstInsertion guards the Open-Question bugfix:
// the dedup bucket must already behave like a set immediately after the
// very first Publish for a given hash, not only after a second rule lands
// in the same bucket.
func TestLookupReturnsSetFromFirstInsertion(t *testing.T) {
	s := New()
	r := ruleWithHead(1)
	s.Publish(r)

	found := s.Lookup(r.AlternativeParentHash())
	if len(found) != 1 {
		t.Fatalf("Lookup after first insertion = %v, want exactly [r]", found)
	}
	if found[0] != r {
		t.Error("Lookup returned a different rule than the one published")
	}
}

func TestLookupMissUnknownHash(t *testing.T) {
	s := New()
	var zero [32]byte
	if out := s.Lookup(zero); out != nil {
		t.Errorf("Lookup on empty store = %v, want nil", out)
	}
}

func TestSnapshotIsOrderedAndIndependent(t *testing.T) {
	s := New()
	r1 := ruleWithHead(1)
	r2 := ruleWithHead(2)
	s.Publish(r1)
	s.Publish(r2)

	snap := s.Snapshot()
	if len(snap) != 2 || snap[0] != r1 || snap[1] != r2 {
		t.Fatalf("Snapshot() = %v, want [r1 r2] in publication order", snap)
	}

	// Mutating the returned slice must not affect the store's own ordering.
	snap[0] = r2
	again := s.Snapshot()
	if again[0] != r1 {
		t.Error("Snapshot result aliased the store's internal slice")
	}
}

func TestWaitForNewDeliversNewlyPublishedRules(t *testing.T) {
	s := New()
	s.Publish(ruleWithHead(1))

	done := make(chan struct{})
	var newRules []*rule.Rule
	var newIndex int
	go func() {
		newRules, newIndex, _ = s.WaitForNew(0)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	r2 := ruleWithHead(2)
	s.Publish(r2)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForNew never returned after a new publish")
	}

	if len(newRules) != 1 || newRules[0] != r2 {
		t.Errorf("WaitForNew delivered %v, want [r2]", newRules)
	}
	if newIndex != 1 {
		t.Errorf("WaitForNew newIndex = %d, want 1", newIndex)
	}
}

func TestWaitForNewReturnsDoneOnTerminate(t *testing.T) {
	s := New()
	done := make(chan struct{})
	var finished bool
	go func() {
		_, _, finished = s.WaitForNew(-1)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	s.Terminate()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForNew never woke on Terminate")
	}
	if !finished {
		t.Error("WaitForNew done flag = false after Terminate, want true")
	}
}
