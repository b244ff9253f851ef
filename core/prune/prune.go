// Package prune implements the stateless pruning and acceptance
// predicates the worker loop consults: support gating, confidence
// upper-bound gating, perfect-rule and skyline cutoffs, and max-depth
// gating. None of these touch the KB; they operate only on the fields a
// Rule already carries plus configured thresholds.
package prune

import (
	"math"

	"ruleminer/core/config"
	"ruleminer/core/rule"
)

// EffectiveSupportThreshold returns the absolute support count a candidate
// must meet before further consideration, honoring the configured pruning
// metric.
func EffectiveSupportThreshold(cfg config.Config, headCardinality int) int {
	switch cfg.PruningMetric {
	case config.HeadCoverage:
		return int(math.Ceil(cfg.MinHeadCoverage * float64(headCardinality)))
	default:
		return cfg.MinSupport
	}
}

// PassesSupportGate reports whether r's computed support clears the
// effective threshold. A candidate failing this gate is dropped before any
// children are generated.
func PassesSupportGate(cfg config.Config, r *rule.Rule) bool {
	threshold := EffectiveSupportThreshold(cfg, r.HeadCardinality)
	return r.SupportCardinality >= threshold
}

// OperatorCountThreshold computes the count threshold passed to the
// assistant's operator bundle, per the configured pruning metric.
func OperatorCountThreshold(cfg config.Config, r *rule.Rule) int {
	switch cfg.PruningMetric {
	case config.HeadCoverage:
		return int(math.Ceil(cfg.MinHeadCoverage * float64(r.HeadCardinality)))
	default:
		return cfg.MinSupport
	}
}

// PassesConfidenceThresholds reports whether r's exact confidences clear
// the configured minimums. Disabled checks (threshold <= 0) always pass.
func PassesConfidenceThresholds(cfg config.Config, r *rule.Rule) bool {
	if cfg.MinStdConfidence > 0 && r.StdConfidence < cfg.MinStdConfidence {
		return false
	}
	if cfg.MinPCAConfidence > 0 && r.PCAConfidence < cfg.MinPCAConfidence {
		return false
	}
	return true
}

// IsPerfect reports whether r qualifies as a perfect rule: confidence 1 at
// maximal support under the configured metric. Perfect rules are always
// output when shape-eligible and are never refined further once perfect
// rule pruning is enabled, since specializing them cannot improve them.
func IsPerfect(r *rule.Rule) bool {
	return r.StdConfidence >= 1.0-1e-9 && r.SupportCardinality == r.BodyCardinality && r.BodyCardinality == r.HeadCardinality
}

// Dominates reports whether child strictly dominates parent on at least
// one of the two confidences, whatever its value on the other, the
// skyline relation used for output suppression.
func Dominates(child, parent *rule.Rule) bool {
	betterStd := child.StdConfidence > parent.StdConfidence
	betterPCA := child.PCAConfidence > parent.PCAConfidence
	worseStd := child.StdConfidence < parent.StdConfidence
	worsePCA := child.PCAConfidence < parent.PCAConfidence
	if worseStd && worsePCA {
		return false
	}
	return betterStd || betterPCA
}

// PassesSkyline reports whether candidate should be output under the
// skyline test: it must strictly dominate every already-published parent
// on at least one confidence. When skyline is disabled, or there are no
// published parents yet, the candidate always passes.
func PassesSkyline(cfg config.Config, candidate *rule.Rule, publishedParents []*rule.Rule) bool {
	if !cfg.Skyline {
		return true
	}
	for _, p := range publishedParents {
		if !Dominates(candidate, p) {
			return false
		}
	}
	return true
}

// ShouldRefine reports whether r is eligible for further refinement: not
// final, not perfect (when perfect-rule pruning is enabled), and within
// the configured depth.
func ShouldRefine(cfg config.Config, r *rule.Rule) bool {
	if r.IsFinal {
		return false
	}
	if cfg.PerfectRulePrune && r.IsPerfect {
		return false
	}
	return r.RealLength < cfg.MaxDepth
}

// AllowDangling reports whether a candidate at r's depth may still receive
// dangling (new-variable-introducing) children: one depth slot must remain
// for a potential closing atom.
func AllowDangling(cfg config.Config, r *rule.Rule) bool {
	return r.RealLength < cfg.MaxDepth-1
}
