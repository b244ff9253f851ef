package defaultassistant

import (
	"testing"

	"ruleminer/core/assistant"
	"ruleminer/core/atom"
	"ruleminer/core/config"
	"ruleminer/core/kb"
	"ruleminer/core/rule"
)

const grandparentRelation = 2

func chainAndPartialGrandparentKB() *kb.MemoryKB {
	return kb.NewMemoryKB([]atom.Triple{
		{10, parentRelation, 20},
		{20, parentRelation, 30},
		{30, parentRelation, 40},
		{10, grandparentRelation, 30}, // only one of the two two-hop chains is also a recorded grandparent fact
	})
}

func twoHopRule() *rule.Rule {
	head := atom.Atom{Predicate: grandparentRelation, Subject: atom.Var(0), Object: atom.Var(2)}
	r := rule.New(head)
	r = r.WithAtom(atom.Atom{Predicate: parentRelation, Subject: atom.Var(0), Object: atom.Var(1)}, 0)
	r = r.WithAtom(atom.Atom{Predicate: parentRelation, Subject: atom.Var(1), Object: atom.Var(2)}, 0)
	return r
}

func TestComputeConfidenceMetrics(t *testing.T) {
	store := chainAndPartialGrandparentKB()
	a := New(store, config.Default(), 0)
	r := twoHopRule()

	a.ComputeConfidenceMetrics(r)

	if r.BodyCardinality != 2 {
		t.Errorf("BodyCardinality = %d, want 2", r.BodyCardinality)
	}
	if r.SupportCardinality != 1 {
		t.Errorf("SupportCardinality = %d, want 1", r.SupportCardinality)
	}
	if r.HeadCardinality != 1 {
		t.Errorf("HeadCardinality = %d, want 1", r.HeadCardinality)
	}
	if got := r.StdConfidence; got != 0.5 {
		t.Errorf("StdConfidence = %v, want 0.5", got)
	}
	if got := r.PCAConfidence; got != 1.0 {
		t.Errorf("PCAConfidence = %v, want 1.0", got)
	}
}

func TestShouldOutputRejectsShortOrOpenOrDisconnectedRules(t *testing.T) {
	store := chainAndPartialGrandparentKB()
	a := New(store, config.Default(), 0)

	seed := rule.New(atom.Atom{Predicate: grandparentRelation, Subject: atom.Var(0), Object: atom.Var(1)})
	if a.ShouldOutput(seed) {
		t.Error("ShouldOutput true for a length-1 seed rule")
	}

	open := seed.WithAtom(atom.Atom{Predicate: parentRelation, Subject: atom.Var(1), Object: atom.Var(2)}, 0)
	if a.ShouldOutput(open) {
		t.Error("ShouldOutput true for a rule with an open (singleton-occurrence) variable")
	}

	if !a.ShouldOutput(twoHopRule()) {
		t.Error("ShouldOutput false for a closed, connected, length-3 rule")
	}

	disconnected := rule.New(atom.Atom{Predicate: grandparentRelation, Subject: atom.Var(0), Object: atom.Var(1)})
	disconnected = disconnected.WithAtom(atom.Atom{Predicate: parentRelation, Subject: atom.Var(0), Object: atom.Var(1)}, 0)
	disconnected = disconnected.WithAtom(atom.Atom{Predicate: parentRelation, Subject: atom.Var(2), Object: atom.Var(3)}, 0)
	disconnected = disconnected.WithAtom(atom.Atom{Predicate: parentRelation, Subject: atom.Var(3), Object: atom.Var(2)}, 0)
	if a.ShouldOutput(disconnected) {
		t.Error("ShouldOutput true for a closed but disconnected rule")
	}
}

func TestShouldOutputHonorsConstantPolicy(t *testing.T) {
	store := chainAndPartialGrandparentKB()
	cfg := config.Default()
	cfg.AllowConstants = false
	a := New(store, cfg, 0)

	withConst := twoHopRule().WithAtom(atom.Atom{Predicate: parentRelation, Subject: atom.Var(2), Object: atom.Const(99)}, 0)
	if a.ShouldOutput(withConst) {
		t.Error("ShouldOutput true for a constant-bearing atom with AllowConstants=false")
	}
}

func TestApplyOperatorsRejectsNegativeThreshold(t *testing.T) {
	store := chainAndPartialGrandparentKB()
	a := New(store, config.Default(), 0)
	if _, err := a.ApplyOperators(twoHopRule(), -1); err == nil {
		t.Error("ApplyOperators(-1) = nil error, want error")
	}
}

func TestApplyOperatorsProducesDanglingAndClosingWithoutDuplicatingExistingAtoms(t *testing.T) {
	store := chainAndPartialGrandparentKB()
	a := New(store, config.Default(), 0)

	seed := rule.New(atom.Atom{Predicate: grandparentRelation, Subject: atom.Var(0), Object: atom.Var(1)})
	out, err := a.ApplyOperators(seed, 0)
	if err != nil {
		t.Fatalf("ApplyOperators: %v", err)
	}

	if len(out[assistant.DanglingKey]) == 0 {
		t.Error("ApplyOperators produced no dangling children for a fresh seed")
	}
	if len(out[assistant.ClosingKey]) == 0 {
		t.Error("ApplyOperators produced no closing children for a fresh seed")
	}

	for _, child := range append(append([]*rule.Rule{}, out[assistant.DanglingKey]...), out[assistant.ClosingKey]...) {
		if child.Length() != 2 {
			t.Errorf("child length = %d, want 2 (one atom added to a length-1 seed)", child.Length())
		}
		if len(child.Body) == 1 && child.Body[0].Equal(child.Head) {
			t.Errorf("child %s repeats the seed's head atom in its body", child)
		}
	}
}

func TestApplyOperatorsHonorsCountThreshold(t *testing.T) {
	store := chainAndPartialGrandparentKB()
	a := New(store, config.Default(), 0)

	seed := rule.New(atom.Atom{Predicate: grandparentRelation, Subject: atom.Var(0), Object: atom.Var(1)})
	// grandparentRelation has size 1; a threshold above every relation's
	// size should suppress every operator application.
	out, err := a.ApplyOperators(seed, 1000)
	if err != nil {
		t.Fatalf("ApplyOperators: %v", err)
	}
	if len(out[assistant.DanglingKey])+len(out[assistant.ClosingKey]) != 0 {
		t.Errorf("ApplyOperators with an unreachable threshold produced %d+%d children, want 0",
			len(out[assistant.DanglingKey]), len(out[assistant.ClosingKey]))
	}
}
