package defaultassistant

import "ruleminer/core/atom"

// binding maps a rule-local variable id to an interned entity id.
type binding map[uint32]uint32

func (b binding) clone() binding {
	nb := make(binding, len(b))
	for k, v := range b {
		nb[k] = v
	}
	return nb
}

func resolve(t atom.Term, b binding) (uint32, bool) {
	if !t.Variable {
		return t.ID, true
	}
	v, ok := b[t.ID]
	return v, ok
}

func bindTerm(b binding, t atom.Term, val uint32) bool {
	if !t.Variable {
		return t.ID == val
	}
	if existing, ok := b[t.ID]; ok {
		return existing == val
	}
	b[t.ID] = val
	return true
}

// evalBody performs a nested-loop join of body over the stats cache,
// returning every binding that satisfies every atom. This is a reference
// evaluator, not an optimized one: it is adequate for the toy and
// benchmark-sized KBs this engine is exercised against, and the pruning
// count thresholds keep fan-out bounded in practice.
func evalBody(stats *statsCache, body []atom.Atom) []binding {
	bindings := []binding{{}}
	for _, a := range body {
		rs := stats.get(a.Predicate)
		var next []binding
		for _, b := range bindings {
			for _, t := range rs.triples {
				nb := b.clone()
				if !bindTerm(nb, a.Subject, t[0]) {
					continue
				}
				if !bindTerm(nb, a.Object, t[2]) {
					continue
				}
				next = append(next, nb)
			}
		}
		bindings = next
		if len(bindings) == 0 {
			return nil
		}
	}
	return bindings
}
