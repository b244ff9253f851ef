// Package seed builds the initial frontier of length-one candidate rules,
// either from a caller-supplied set of target head relations or from every
// KB relation meeting the initial-support threshold.
package seed

import (
	"fmt"

	"ruleminer/core/assistant"
	"ruleminer/core/rule"
)

// Generate produces the initial frontier. If seeds is non-empty it is
// used to restrict seed generation to those relation ids; otherwise every
// qualifying KB relation becomes a seed.
func Generate(a assistant.Assistant, seeds []uint32, minInitialSupport int) ([]*rule.Rule, error) {
	if len(seeds) > 0 {
		rules, err := a.InitialAtomsFromSeeds(seeds, minInitialSupport)
		if err != nil {
			return nil, fmt.Errorf("seed: initial atoms from seeds: %w", err)
		}
		return rules, nil
	}
	rules, err := a.InitialAtoms(minInitialSupport)
	if err != nil {
		return nil, fmt.Errorf("seed: initial atoms: %w", err)
	}
	return rules, nil
}
