// Package defaultassistant is the reference implementation of the
// assistant strategy interface (core/assistant), built against a
// core/kb.KB. It exists so the engine can run end to end without a
// caller-supplied strategy, and to ground the end-to-end scenarios against
// something concrete.
package defaultassistant

import (
	"fmt"
	"log"

	"ruleminer/core/assistant"
	"ruleminer/core/atom"
	"ruleminer/core/config"
	"ruleminer/core/kb"
	"ruleminer/core/prune"
	"ruleminer/core/rule"
)

// defaultStatsCacheSize bounds how many relations' join indexes are kept
// resident at once.
const defaultStatsCacheSize = 256

// defaultConstantSampleSize bounds how many sampled constants the
// constant-closing operator considers per relation, keeping fan-out
// bounded on KBs with many distinct objects.
const defaultConstantSampleSize = 3

// TypeRelation, when non-zero, marks the reserved "is-a"-style relation:
// atoms using it are excluded from real_length depth accounting and, when
// EnforceConstants is unset but AllowConstants is false, are still
// rejected like any other constant-bearing atom.
type Assistant struct {
	kb           kb.KB
	cfg          config.Config
	typeRelation uint32
	stats        *statsCache
}

// New constructs the reference assistant over store, honoring cfg's
// constant-handling and pruning options. typeRelation names the KB's
// type-like relation id (0 if the KB has none).
func New(store kb.KB, cfg config.Config, typeRelation uint32) *Assistant {
	return &Assistant{
		kb:           store,
		cfg:          cfg,
		typeRelation: typeRelation,
		stats:        newStatsCache(store, defaultStatsCacheSize, defaultConstantSampleSize),
	}
}

func (a *Assistant) InitialAtoms(minSupport int) ([]*rule.Rule, error) {
	relations := a.kb.Relations()
	return a.seedsFor(relations, minSupport)
}

func (a *Assistant) InitialAtomsFromSeeds(seeds []uint32, minSupport int) ([]*rule.Rule, error) {
	return a.seedsFor(seeds, minSupport)
}

func (a *Assistant) seedsFor(relations []uint32, minSupport int) ([]*rule.Rule, error) {
	var out []*rule.Rule
	for _, relation := range relations {
		size := a.kb.RelationSize(relation)
		if size < minSupport {
			continue
		}
		head := atom.Atom{Predicate: relation, Subject: atom.Var(0), Object: atom.Var(1)}
		r := rule.New(head)
		r.SupportCardinality = size
		r.HeadCardinality = size
		r.BodyCardinality = size
		out = append(out, r)
	}
	return out, nil
}

func (a *Assistant) ShouldOutput(r *rule.Rule) bool {
	if r.Length() < 2 {
		return false
	}
	if !r.Closed() || !r.Connected() {
		return false
	}
	if a.cfg.EnforceConstants && !r.HasConstant() {
		return false
	}
	if !a.cfg.AllowConstants {
		for _, at := range r.Atoms() {
			if at.HasConstant() {
				return false
			}
		}
	}
	return true
}

// ComputeConfidenceBounds fills in approximate confidence upper bounds
// from the best confidence seen among r's known parents (children can
// never exceed a parent's support, which bounds confidence from above in
// practice for this join-based evaluator). Rules with no scored parent
// get the permissive bound of 1.0, deferring the real decision to the
// exact computation.
func (a *Assistant) ComputeConfidenceBounds(r *rule.Rule) bool {
	r.BoundsComputed = true
	bestStd, bestPCA := 0.0, 0.0
	any := false
	for _, p := range r.ParentRules {
		if p.StdConfidence > 0 || p.PCAConfidence > 0 {
			any = true
		}
		if p.StdConfidence > bestStd {
			bestStd = p.StdConfidence
		}
		if p.PCAConfidence > bestPCA {
			bestPCA = p.PCAConfidence
		}
	}
	if !any {
		bestStd, bestPCA = 1.0, 1.0
	}
	r.StdConfidenceUpperBound = bestStd
	r.PCAConfidenceUpperBound = bestPCA
	if !a.cfg.UpperBoundPrune {
		return true
	}
	return bestStd >= a.cfg.MinStdConfidence || bestPCA >= a.cfg.MinPCAConfidence
}

func (a *Assistant) ComputeConfidenceMetrics(r *rule.Rule) {
	bindings := evalBody(a.stats, r.Body)
	headStats := a.stats.get(r.Head.Predicate)

	type pair struct{ s, o uint32 }
	distinctBody := map[pair]bool{}
	distinctSupport := map[pair]bool{}
	distinctPCA := map[pair]bool{}

	for _, b := range bindings {
		s, sok := resolve(r.Head.Subject, b)
		o, ook := resolve(r.Head.Object, b)
		if !sok || !ook {
			continue
		}
		key := pair{s, o}
		distinctBody[key] = true
		if headStats.hasPair(s, o) {
			distinctSupport[key] = true
		}
		if headStats.hasSubject(s) {
			distinctPCA[key] = true
		}
	}

	r.BodyCardinality = len(distinctBody)
	r.SupportCardinality = len(distinctSupport)
	r.HeadCardinality = a.kb.RelationSize(r.Head.Predicate)

	if len(distinctBody) > 0 {
		r.StdConfidence = float64(len(distinctSupport)) / float64(len(distinctBody))
	}
	if len(distinctPCA) > 0 {
		r.PCAConfidence = float64(len(distinctSupport)) / float64(len(distinctPCA))
	}
}

func (a *Assistant) TestConfidenceThresholds(r *rule.Rule) bool {
	if !prune.PassesSupportGate(a.cfg, r) {
		return false
	}
	if r.HeadCoverage() < a.cfg.MinHeadCoverage {
		return false
	}
	return prune.PassesConfidenceThresholds(a.cfg, r)
}

func (a *Assistant) SetAdditionalParents(r *rule.Rule, published []*rule.Rule) {
	for _, p := range published {
		r.AddParent(p)
	}
}

func (a *Assistant) ApplyOperators(r *rule.Rule, countThreshold int) (map[string][]*rule.Rule, error) {
	if countThreshold < 0 {
		return nil, fmt.Errorf("defaultassistant: negative count threshold %d", countThreshold)
	}

	vars := r.VariableIDs()
	next := r.NextVariableID()
	out := map[string][]*rule.Rule{}

	for _, relation := range a.kb.Relations() {
		if a.kb.RelationSize(relation) < countThreshold {
			continue
		}

		for _, v := range vars {
			a1 := atom.Atom{Predicate: relation, Subject: atom.Var(v), Object: atom.Var(next)}
			if !hasAtom(r, a1) {
				out[assistant.DanglingKey] = append(out[assistant.DanglingKey], r.WithAtom(a1, a.typeRelation))
			}
			a2 := atom.Atom{Predicate: relation, Subject: atom.Var(next), Object: atom.Var(v)}
			if !hasAtom(r, a2) {
				out[assistant.DanglingKey] = append(out[assistant.DanglingKey], r.WithAtom(a2, a.typeRelation))
			}
		}

		for i := range vars {
			for j := range vars {
				if i == j {
					continue
				}
				closing := atom.Atom{Predicate: relation, Subject: atom.Var(vars[i]), Object: atom.Var(vars[j])}
				if hasAtom(r, closing) {
					continue
				}
				out[assistant.ClosingKey] = append(out[assistant.ClosingKey], r.WithAtom(closing, a.typeRelation))
			}
		}

		if a.cfg.AllowConstants {
			rs := a.stats.get(relation)
			for _, v := range vars {
				for _, c := range rs.sample {
					withConst := atom.Atom{Predicate: relation, Subject: atom.Var(v), Object: atom.Const(c)}
					if hasAtom(r, withConst) {
						continue
					}
					out[assistant.ClosingKey] = append(out[assistant.ClosingKey], r.WithAtom(withConst, a.typeRelation))
				}
			}
		}
	}

	if a.cfg.Verbose {
		log.Printf("[ASSISTANT] refined %s into %d dangling, %d closing", r, len(out[assistant.DanglingKey]), len(out[assistant.ClosingKey]))
	}

	return out, nil
}

func hasAtom(r *rule.Rule, a atom.Atom) bool {
	for _, existing := range r.Atoms() {
		if existing.Equal(a) {
			return true
		}
	}
	return false
}

func (a *Assistant) HeadCardinality(r *rule.Rule) int {
	return a.kb.RelationSize(r.Head.Predicate)
}

func (a *Assistant) IsPerfectRulesEnabled() bool { return a.cfg.PerfectRulePrune }
func (a *Assistant) MaxDepth() int               { return a.cfg.MaxDepth }
func (a *Assistant) Verbose() bool               { return a.cfg.Verbose }

func (a *Assistant) Format(r *rule.Rule) string {
	return fmt.Sprintf("%s\tsupport=%d\thead=%d\tbody=%d\tstdConf=%.4f\tpcaConf=%.4f",
		r, r.SupportCardinality, r.HeadCardinality, r.BodyCardinality, r.StdConfidence, r.PCAConfidence)
}

func (a *Assistant) Header() string {
	return "rule\tsupport\thead\tbody\tstdConf\tpcaConf"
}
