package kb

import (
	"math/rand"

	"ruleminer/core/atom"
)

// SyntheticParams controls the shape of a generated KB.
type SyntheticParams struct {
	Seed        int64
	NumEntities int
	Relations   []uint32
	// TriplesPerRelation bounds how many triples each relation gets; the
	// actual count per relation is randomized up to this bound so
	// relation sizes vary, matching the variable-cardinality KBs the
	// pruning thresholds are meant to be exercised against.
	TriplesPerRelation int
}

// Synthetic deterministically generates a triple set from seed, for
// benchmarks and for the parallel-determinism property: mining the same
// KB with n_threads=1 and n_threads=k must produce equal rule sets, so the
// KB itself must be exactly reproducible across runs.
func Synthetic(p SyntheticParams) []atom.Triple {
	rng := rand.New(rand.NewSource(p.Seed))
	var out []atom.Triple
	seen := make(map[atom.Triple]bool)
	for _, relation := range p.Relations {
		n := 1 + rng.Intn(p.TriplesPerRelation)
		for i := 0; i < n; i++ {
			t := atom.Triple{
				uint32(rng.Intn(p.NumEntities)),
				relation,
				uint32(rng.Intn(p.NumEntities)),
			}
			if seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
