// Package config holds the tunable thresholds and resource knobs for a
// mining run, plus validation for them.
package config

import "fmt"

// PruningMetric selects which statistic gates the operator-application
// count threshold passed to the assistant's operator bundle.
type PruningMetric int

const (
	// Support gates on an absolute instantiation count.
	Support PruningMetric = iota
	// HeadCoverage gates on support relative to head cardinality.
	HeadCoverage
)

func (m PruningMetric) String() string {
	switch m {
	case Support:
		return "support"
	case HeadCoverage:
		return "head-coverage"
	default:
		return fmt.Sprintf("PruningMetric(%d)", int(m))
	}
}

// Config collects every mining-run tunable. Defaults mirror Testnet-0 style
// constants: conservative enough to run against a toy KB out of the box.
type Config struct {
	MinSupport        int
	MinInitialSupport int
	MinHeadCoverage   float64
	MinStdConfidence  float64
	MinPCAConfidence  float64
	MaxDepth          int
	PruningMetric     PruningMetric
	NThreads          int
	RealTime          bool
	Skyline           bool
	PerfectRulePrune  bool
	UpperBoundPrune   bool

	// AllowConstants permits atoms with at least one bound constant
	// position beyond the seed head. EnforceConstants, if set, requires
	// every emitted rule to contain at least one constant atom.
	AllowConstants   bool
	EnforceConstants bool

	// Verbose enables per-candidate diagnostic logging from the assistant
	// and worker loop.
	Verbose bool
}

// Default returns the baseline configuration; callers override fields as
// needed before calling Validate.
func Default() Config {
	return Config{
		MinSupport:        100,
		MinInitialSupport: 100,
		MinHeadCoverage:   0.01,
		MinStdConfidence:  0.1,
		MinPCAConfidence:  0.1,
		MaxDepth:          3,
		PruningMetric:     Support,
		NThreads:          0, // 0 means "resolve at engine construction time"
		RealTime:          true,
		Skyline:           true,
		PerfectRulePrune:  true,
		UpperBoundPrune:   true,
		AllowConstants:    true,
	}
}

// Validate rejects configuration errors before a mining run starts, per the
// error-handling taxonomy: configuration errors are refused up front rather
// than surfacing mid-run.
func (c Config) Validate() error {
	if c.MinSupport < 0 {
		return fmt.Errorf("config: min_support must be >= 0, got %d", c.MinSupport)
	}
	if c.MinInitialSupport < 0 {
		return fmt.Errorf("config: min_initial_support must be >= 0, got %d", c.MinInitialSupport)
	}
	if c.MinHeadCoverage < 0 || c.MinHeadCoverage > 1 {
		return fmt.Errorf("config: min_head_coverage must be in [0,1], got %f", c.MinHeadCoverage)
	}
	if c.MinStdConfidence < 0 || c.MinStdConfidence > 1 {
		return fmt.Errorf("config: min_std_confidence must be in [0,1], got %f", c.MinStdConfidence)
	}
	if c.MinPCAConfidence < 0 || c.MinPCAConfidence > 1 {
		return fmt.Errorf("config: min_pca_confidence must be in [0,1], got %f", c.MinPCAConfidence)
	}
	if c.MaxDepth < 2 {
		return fmt.Errorf("config: max_depth must be >= 2, got %d", c.MaxDepth)
	}
	if c.PruningMetric != Support && c.PruningMetric != HeadCoverage {
		return fmt.Errorf("config: unknown pruning metric %v", c.PruningMetric)
	}
	if c.NThreads < 0 {
		return fmt.Errorf("config: n_threads must be >= 0, got %d", c.NThreads)
	}
	if c.AllowConstants == false && c.EnforceConstants {
		return fmt.Errorf("config: enforce_constants requires allow_constants")
	}
	return nil
}
