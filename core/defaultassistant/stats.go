package defaultassistant

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"ruleminer/core/atom"
	"ruleminer/core/kb"
)

// relationStats is the per-relation working set the assistant joins
// against: the raw triples plus subject/object membership indexes, built
// once per relation and cached, since a mining run touches the same
// handful of relations repeatedly across thousands of candidates.
type relationStats struct {
	triples   []atom.Triple
	bySubject map[uint32]map[uint32]bool // subject -> set of objects
	subjects  map[uint32]bool
	objects   map[uint32]bool
	// sample is a small, deterministic subset of distinct constants seen
	// in the object position (the first ones met in triple order), used to
	// bound the constant-closing operator's fan-out.
	sample []uint32
}

func buildStats(store kb.KB, relation uint32, sampleSize int) *relationStats {
	triples := store.TriplesForRelation(relation)
	s := &relationStats{
		triples:   triples,
		bySubject: make(map[uint32]map[uint32]bool, len(triples)),
		subjects:  make(map[uint32]bool, len(triples)),
		objects:   make(map[uint32]bool, len(triples)),
	}
	for _, t := range triples {
		subj, obj := t[0], t[2]
		if s.bySubject[subj] == nil {
			s.bySubject[subj] = make(map[uint32]bool)
		}
		s.bySubject[subj][obj] = true
		s.subjects[subj] = true
		s.objects[obj] = true
		if len(s.sample) < sampleSize && !containsUint32(s.sample, obj) {
			s.sample = append(s.sample, obj)
		}
	}
	return s
}

func containsUint32(xs []uint32, v uint32) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func (s *relationStats) hasPair(subj, obj uint32) bool {
	os, ok := s.bySubject[subj]
	if !ok {
		return false
	}
	return os[obj]
}

func (s *relationStats) hasSubject(subj uint32) bool {
	return s.subjects[subj]
}

// statsCache is a thread-safe LRU of per-relation stats, matching the
// "internal caches the assistant maintains thread-safely on its side"
// allowance: the KB itself is read-only after load, but the assistant may
// memoize derived structure.
type statsCache struct {
	kb         kb.KB
	sampleSize int
	cache      *lru.Cache[uint32, *relationStats]
}

func newStatsCache(store kb.KB, size int, sampleSize int) *statsCache {
	c, _ := lru.New[uint32, *relationStats](size)
	return &statsCache{kb: store, sampleSize: sampleSize, cache: c}
}

func (c *statsCache) get(relation uint32) *relationStats {
	if s, ok := c.cache.Get(relation); ok {
		return s
	}
	s := buildStats(c.kb, relation, c.sampleSize)
	c.cache.Add(relation, s)
	return s
}
