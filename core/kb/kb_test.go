package kb

import (
	"testing"

	"ruleminer/core/atom"
)

func TestMemoryKBGroupsByRelation(t *testing.T) {
	const parent, friend = 1, 2
	triples := []atom.Triple{
		{10, parent, 20},
		{20, parent, 30},
		{10, friend, 99},
	}
	m := NewMemoryKB(triples)

	if m.RelationSize(parent) != 2 {
		t.Errorf("RelationSize(parent) = %d, want 2", m.RelationSize(parent))
	}
	if m.RelationSize(friend) != 1 {
		t.Errorf("RelationSize(friend) = %d, want 1", m.RelationSize(friend))
	}
	if m.RelationSize(999) != 0 {
		t.Errorf("RelationSize(unknown) = %d, want 0", m.RelationSize(999))
	}

	relations := m.Relations()
	seen := map[uint32]bool{}
	for _, r := range relations {
		seen[r] = true
	}
	if len(relations) != 2 || !seen[parent] || !seen[friend] {
		t.Errorf("Relations() = %v, want [parent friend] in some order", relations)
	}

	got := m.TriplesForRelation(parent)
	if len(got) != 2 || got[0] != triples[0] || got[1] != triples[1] {
		t.Errorf("TriplesForRelation(parent) = %v, want %v", got, triples[:2])
	}
}

func TestMemoryKBClose(t *testing.T) {
	m := NewMemoryKB(nil)
	if err := m.Close(); err != nil {
		t.Errorf("Close() = %v, want nil", err)
	}
}
