// Package assistant declares the strategy interface the mining core
// depends on for every KB-touching computation. The core never queries the
// knowledge base directly; it treats the assistant as a pluggable
// capability set, swappable at construction time for a default, an
// order-biased, or a language-biased implementation.
package assistant

import "ruleminer/core/rule"

// DanglingKey is the reserved key in the operator bundle's output map for
// children that introduce a new free variable. The core special-cases only
// this key; every other key (conventionally including "closing") is
// enqueued unconditionally.
const DanglingKey = "dangling"

// ClosingKey is the conventional key for children whose new atom binds
// only to variables or constants already present in the parent.
const ClosingKey = "closing"

// Assistant is the strategy contract §6.1 of the rule-mining engine
// depends on. Any implementation satisfying it is interchangeable; the
// worker pool and result store hold no KB-specific logic at all.
type Assistant interface {
	// InitialAtoms produces one length-1 seed rule per KB relation whose
	// cardinality meets minSupport.
	InitialAtoms(minSupport int) ([]*rule.Rule, error)

	// InitialAtomsFromSeeds restricts seed generation to the given
	// relation ids, still subject to minSupport.
	InitialAtomsFromSeeds(seeds []uint32, minSupport int) ([]*rule.Rule, error)

	// ShouldOutput reports whether r is shape-eligible for output: closed,
	// connected, and matching any configured language bias. It never
	// mutates r and never touches confidence.
	ShouldOutput(r *rule.Rule) bool

	// ComputeConfidenceBounds fills in upper-bound confidence
	// approximations on r and reports whether those bounds leave emission
	// possible. When bounds pruning is disabled the implementation may
	// simply always return true.
	ComputeConfidenceBounds(r *rule.Rule) bool

	// ComputeConfidenceMetrics fills in r's exact std and PCA confidence.
	// The worker calls it after ComputeConfidenceBounds has returned true,
	// or without calling ComputeConfidenceBounds at all when upper-bound
	// pruning is disabled; replay.Verify calls it on a fresh copy of a rule
	// whose support and cardinalities are not populated.
	ComputeConfidenceMetrics(r *rule.Rule)

	// TestConfidenceThresholds reports whether r clears the configured
	// confidence thresholds. Skyline comparison against published
	// ancestors is performed separately by the core (see core/prune); this
	// method covers only the threshold half of the decision.
	TestConfidenceThresholds(r *rule.Rule) bool

	// SetAdditionalParents records any further derivation parents of r
	// discovered while consulting the dedup index, so skyline comparisons
	// see every ancestor already published.
	SetAdditionalParents(r *rule.Rule, published []*rule.Rule)

	// ApplyOperators refines r, returning a keyed map of child rule
	// collections. countThreshold is the count a child must clear to be
	// considered: an absolute support count under the Support metric, or a
	// head-coverage-derived count under the HeadCoverage metric. The key
	// DanglingKey is reserved for children introducing a new free
	// variable; all other keys are enqueued unconditionally by the
	// worker.
	ApplyOperators(r *rule.Rule, countThreshold int) (map[string][]*rule.Rule, error)

	// HeadCardinality returns the cardinality of r's head relation,
	// independent of r's own support.
	HeadCardinality(r *rule.Rule) int

	IsPerfectRulesEnabled() bool
	MaxDepth() int
	Verbose() bool

	// Format renders a published rule as a single output line.
	Format(r *rule.Rule) string
	// Header renders the column header written once before any rule.
	Header() string
}
