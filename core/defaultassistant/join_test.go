package defaultassistant

import (
	"testing"

	"ruleminer/core/atom"
	"ruleminer/core/kb"
)

const parentRelation = 1

func chainKB() *kb.MemoryKB {
	// A -parent-> B -parent-> C -parent-> D
	return kb.NewMemoryKB([]atom.Triple{
		{10, parentRelation, 20},
		{20, parentRelation, 30},
		{30, parentRelation, 40},
	})
}

func TestResolveConstantAndVariable(t *testing.T) {
	b := binding{0: 7}
	if v, ok := resolve(atom.Const(5), b); !ok || v != 5 {
		t.Errorf("resolve(const) = (%d,%v), want (5,true)", v, ok)
	}
	if v, ok := resolve(atom.Var(0), b); !ok || v != 7 {
		t.Errorf("resolve(bound var) = (%d,%v), want (7,true)", v, ok)
	}
	if _, ok := resolve(atom.Var(1), b); ok {
		t.Error("resolve(unbound var) reported ok=true")
	}
}

func TestBindTermConsistency(t *testing.T) {
	b := binding{}
	if !bindTerm(b, atom.Var(0), 5) {
		t.Fatal("first bind of a fresh variable failed")
	}
	if !bindTerm(b, atom.Var(0), 5) {
		t.Error("rebinding the same variable to the same value failed")
	}
	if bindTerm(b, atom.Var(0), 6) {
		t.Error("rebinding the same variable to a different value succeeded")
	}
	if !bindTerm(b, atom.Const(9), 9) {
		t.Error("matching constant against equal value failed")
	}
	if bindTerm(b, atom.Const(9), 10) {
		t.Error("matching constant against unequal value succeeded")
	}
}

func TestEvalBodyTwoHopChain(t *testing.T) {
	store := chainKB()
	cache := newStatsCache(store, 16, 3)

	body := []atom.Atom{
		{Predicate: parentRelation, Subject: atom.Var(0), Object: atom.Var(1)},
		{Predicate: parentRelation, Subject: atom.Var(1), Object: atom.Var(2)},
	}
	bindings := evalBody(cache, body)

	pairs := map[[2]uint32]bool{}
	for _, b := range bindings {
		pairs[[2]uint32{b[0], b[2]}] = true
	}
	want := map[[2]uint32]bool{{10, 30}: true, {20, 40}: true}
	if len(pairs) != len(want) {
		t.Fatalf("evalBody produced %d distinct (var0,var2) pairs, want %d: got %v", len(pairs), len(want), pairs)
	}
	for k := range want {
		if !pairs[k] {
			t.Errorf("missing expected binding (var0=%d,var2=%d)", k[0], k[1])
		}
	}
}

func TestEvalBodyEmptyWhenNoJoinSatisfiesAllAtoms(t *testing.T) {
	store := kb.NewMemoryKB([]atom.Triple{{10, parentRelation, 20}})
	cache := newStatsCache(store, 16, 3)

	body := []atom.Atom{
		{Predicate: parentRelation, Subject: atom.Var(0), Object: atom.Var(1)},
		{Predicate: parentRelation, Subject: atom.Var(1), Object: atom.Var(2)},
	}
	if bindings := evalBody(cache, body); len(bindings) != 0 {
		t.Errorf("evalBody = %v, want empty (no two-hop chain exists)", bindings)
	}
}
