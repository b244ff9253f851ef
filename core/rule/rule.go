// Package rule defines the Rule type (used for candidates as well) that the
// refinement search produces, consumes, and publishes, along with the content hash used to
// suppress duplicate lattice-equivalent rules across refinement paths.
package rule

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"lukechampine.com/blake3"

	"ruleminer/core/atom"
)

// Rule is an ordered sequence of atoms: atom 0 is the head, the rest the
// body. A Rule is mutable only while owned by a single worker; once
// published to the result store it must not be mutated again.
type Rule struct {
	ID uuid.UUID

	Head atom.Atom
	Body []atom.Atom

	RealLength int // body atoms used for depth gating, excluding type atoms

	SupportCardinality int
	HeadCardinality    int
	BodyCardinality    int

	StdConfidence float64
	PCAConfidence float64

	StdConfidenceUpperBound float64
	PCAConfidenceUpperBound float64
	BoundsComputed          bool

	// ParentRules are the rules from which this one was derived by a
	// single operator step. Parents are immutable once published, so
	// sharing a reference across rules is safe: the refinement order
	// guarantees no cycles.
	ParentRules []*Rule

	IsFinal   bool
	IsPerfect bool

	alternativeParentHash [32]byte
	hashComputed          bool
	mu                    sync.Mutex
}

// New constructs a length-1 rule (head only, empty body) as produced by
// seed generation.
func New(head atom.Atom) *Rule {
	return &Rule{
		ID:   uuid.New(),
		Head: head,
		Body: nil,
	}
}

// Length is the number of atoms in the rule, head included.
func (r *Rule) Length() int { return 1 + len(r.Body) }

// WithAtom returns a new candidate rule extending r's body by one atom,
// copying the parent's body so the parent itself remains untouched (a
// worker must never mutate a rule once it has been enqueued or published).
func (r *Rule) WithAtom(a atom.Atom, typeRelation uint32) *Rule {
	body := make([]atom.Atom, len(r.Body)+1)
	copy(body, r.Body)
	body[len(r.Body)] = a

	real := r.RealLength
	if !a.IsType(typeRelation) {
		real++
	}

	child := &Rule{
		ID:          uuid.New(),
		Head:        r.Head,
		Body:        body,
		RealLength:  real,
		ParentRules: []*Rule{r},
	}
	return child
}

// AddParent records an additional derivation parent for this rule, used by
// the assistant's set_additional_parents step so skyline comparisons see
// every ancestor that could have produced this candidate.
func (r *Rule) AddParent(p *Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.ParentRules {
		if existing == p {
			return
		}
	}
	r.ParentRules = append(r.ParentRules, p)
}

// Atoms returns head followed by body, the full atom sequence.
func (r *Rule) Atoms() []atom.Atom {
	out := make([]atom.Atom, 0, r.Length())
	out = append(out, r.Head)
	out = append(out, r.Body...)
	return out
}

// Connected reports whether the rule's variable graph forms a single
// component: every atom shares at least one variable with some other atom,
// transitively, across the whole rule.
func (r *Rule) Connected() bool {
	atoms := r.Atoms()
	if len(atoms) <= 1 {
		return true
	}
	parent := map[uint32]uint32{}
	var find func(uint32) uint32
	find = func(x uint32) uint32 {
		for parent[x] != x {
			x = parent[x]
		}
		return x
	}
	union := func(a, b uint32) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}
	for _, a := range atoms {
		for _, v := range a.Variables() {
			if _, ok := parent[v]; !ok {
				parent[v] = v
			}
		}
	}
	if len(parent) == 0 {
		// No variables at all (fully-grounded rule): trivially one
		// component.
		return true
	}
	for _, a := range atoms {
		vars := a.Variables()
		for i := 1; i < len(vars); i++ {
			union(vars[0], vars[i])
		}
	}
	var root uint32
	first := true
	for v := range parent {
		if first {
			root = find(v)
			first = false
			continue
		}
		if find(v) != root {
			return false
		}
	}
	return true
}

// Closed reports whether every variable in the rule occurs in at least two
// atoms.
func (r *Rule) Closed() bool {
	counts := map[uint32]int{}
	for _, a := range r.Atoms() {
		for _, v := range a.Variables() {
			counts[v]++
		}
	}
	for _, c := range counts {
		if c < 2 {
			return false
		}
	}
	return true
}

// VariableIDs returns the distinct variable ids used anywhere in the rule,
// in ascending order.
func (r *Rule) VariableIDs() []uint32 {
	seen := map[uint32]bool{}
	var out []uint32
	for _, a := range r.Atoms() {
		for _, v := range a.Variables() {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NextVariableID returns a variable id not yet used anywhere in the rule,
// suitable for a fresh dangling-atom variable.
func (r *Rule) NextVariableID() uint32 {
	max := uint32(0)
	any := false
	for _, v := range r.VariableIDs() {
		any = true
		if v >= max {
			max = v
		}
	}
	if !any {
		return 0
	}
	return max + 1
}

// HasConstant reports whether any atom in the rule binds a constant.
func (r *Rule) HasConstant() bool {
	for _, a := range r.Atoms() {
		if a.HasConstant() {
			return true
		}
	}
	return false
}

// AlternativeParentHash lazily computes and caches the content hash used
// for publication-time deduplication: a blake3 digest over the rule's
// canonicalized atom multiset, stable regardless of the order in which
// atoms were added or which operator ordering produced the rule.
func (r *Rule) AlternativeParentHash() [32]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hashComputed {
		return r.alternativeParentHash
	}
	r.alternativeParentHash = blake3.Sum256([]byte(r.CanonicalKey()))
	r.hashComputed = true
	return r.alternativeParentHash
}

// CanonicalKey renders the rule as a string identifying its logical
// pattern independent of both variable naming and the order body atoms
// were accumulated in. Numbering variables in first-appearance order over
// the body as stored (then sorting the rendered atoms) is NOT sufficient:
// first-appearance order is itself a function of insertion order, so two
// refinement paths that add the same atoms in a different sequence can
// number variables differently and render to different strings even
// though the sort afterward is stable. Instead this renders the key for
// every permutation of the body and keeps the lexicographically smallest
// one; since the set of permutations of a fixed multiset of atoms does
// not depend on the order they happen to be stored in, the minimum is the
// same for any insertion order. This is a reference canonicalization, not
// an optimized one — it is adequate for the small body lengths max_depth
// bounds this engine to, the same posture as the join evaluator.
func (r *Rule) CanonicalKey() string {
	best := ""
	first := true
	permuteAtoms(r.Body, func(order []atom.Atom) {
		key := canonicalKeyForOrder(r.Head, order)
		if first || key < best {
			best = key
			first = false
		}
	})
	return best
}

// canonicalKeyForOrder renders head followed by body (in the given order)
// with variables renamed to positional indices assigned in order of first
// appearance over that exact sequence.
func canonicalKeyForOrder(head atom.Atom, body []atom.Atom) string {
	varNames := map[uint32]uint32{}
	nextVar := uint32(0)
	canon := func(t atom.Term) atom.Term {
		if !t.Variable {
			return t
		}
		id, ok := varNames[t.ID]
		if !ok {
			id = nextVar
			varNames[t.ID] = id
			nextVar++
		}
		return atom.Var(id)
	}

	renderAtom := func(a atom.Atom) string {
		s := canon(a.Subject)
		o := canon(a.Object)
		return fmt.Sprintf("%d(%s,%s)", a.Predicate, s, o)
	}

	out := renderAtom(head) + "|"
	for i, a := range body {
		if i > 0 {
			out += ","
		}
		out += renderAtom(a)
	}
	return out
}

// permuteAtoms calls fn once for every permutation of atoms, via Heap's
// algorithm, including once with the empty/singleton list as-is.
func permuteAtoms(atoms []atom.Atom, fn func([]atom.Atom)) {
	n := len(atoms)
	if n == 0 {
		fn(nil)
		return
	}
	buf := make([]atom.Atom, n)
	copy(buf, atoms)

	var generate func(k int)
	generate = func(k int) {
		if k == 1 {
			out := make([]atom.Atom, n)
			copy(out, buf)
			fn(out)
			return
		}
		for i := 0; i < k; i++ {
			generate(k - 1)
			if k%2 == 0 {
				buf[i], buf[k-1] = buf[k-1], buf[i]
			} else {
				buf[0], buf[k-1] = buf[k-1], buf[0]
			}
		}
	}
	generate(n)
}

// Equal reports structural equality up to variable renaming: two rules are
// equal iff their canonical keys match.
func (r *Rule) Equal(other *Rule) bool {
	if r == other {
		return true
	}
	if other == nil {
		return false
	}
	return r.CanonicalKey() == other.CanonicalKey()
}

// HeadCoverage is support divided by head cardinality, or zero when the
// head has never been observed.
func (r *Rule) HeadCoverage() float64 {
	if r.HeadCardinality == 0 {
		return 0
	}
	return float64(r.SupportCardinality) / float64(r.HeadCardinality)
}

func (r *Rule) String() string {
	s := r.Head.String() + " <= "
	for i, a := range r.Body {
		if i > 0 {
			s += " ^ "
		}
		s += a.String()
	}
	return s
}
