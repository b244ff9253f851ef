// Package replay independently recomputes a previously emitted rule's
// statistics against a KB and reports any mismatch against the values it
// was published with — an offline consistency checker for auditing a rule
// file produced by a previous mining run, or for verifying a rule received
// over the network sink before trusting it.
package replay

import (
	"fmt"

	"ruleminer/core/assistant"
	"ruleminer/core/atom"
	"ruleminer/core/rule"
)

// Mismatch describes one field where the recomputed value diverged from
// the rule's recorded value.
type Mismatch struct {
	Field    string
	Recorded interface{}
	Computed interface{}
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: recorded=%v computed=%v", m.Field, m.Recorded, m.Computed)
}

// Verify recomputes r's support, cardinalities, and both confidences
// independently via a (against the same or a differently-loaded) KB,
// exercised through a, and compares the recomputed values to what r was
// published with.
func Verify(a assistant.Assistant, r *rule.Rule) []Mismatch {
	recomputed := freshCopy(r)
	a.ComputeConfidenceMetrics(recomputed)

	var mismatches []Mismatch
	if recomputed.SupportCardinality != r.SupportCardinality {
		mismatches = append(mismatches, Mismatch{"support_cardinality", r.SupportCardinality, recomputed.SupportCardinality})
	}
	if recomputed.HeadCardinality != r.HeadCardinality {
		mismatches = append(mismatches, Mismatch{"head_cardinality", r.HeadCardinality, recomputed.HeadCardinality})
	}
	if recomputed.BodyCardinality != r.BodyCardinality {
		mismatches = append(mismatches, Mismatch{"body_cardinality", r.BodyCardinality, recomputed.BodyCardinality})
	}
	if !floatsClose(recomputed.StdConfidence, r.StdConfidence) {
		mismatches = append(mismatches, Mismatch{"std_confidence", r.StdConfidence, recomputed.StdConfidence})
	}
	if !floatsClose(recomputed.PCAConfidence, r.PCAConfidence) {
		mismatches = append(mismatches, Mismatch{"pca_confidence", r.PCAConfidence, recomputed.PCAConfidence})
	}
	return mismatches
}

// freshCopy builds a new rule carrying only r's head and body atoms, so
// ComputeConfidenceMetrics recomputes every derived field from scratch
// rather than trusting whatever r already recorded.
func freshCopy(r *rule.Rule) *rule.Rule {
	body := make([]atom.Atom, len(r.Body))
	copy(body, r.Body)
	c := rule.New(r.Head)
	c.Body = body
	c.RealLength = r.RealLength
	return c
}

func floatsClose(a, b float64) bool {
	const eps = 1e-9
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < eps
}
