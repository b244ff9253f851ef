package config

import "testing"

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v, want nil", err)
	}
}

func TestValidateRejectsNegativeMinSupport(t *testing.T) {
	c := Default()
	c.MinSupport = -1
	if err := c.Validate(); err == nil {
		t.Error("Validate() = nil for negative MinSupport, want error")
	}
}

func TestValidateRejectsOutOfRangeHeadCoverage(t *testing.T) {
	c := Default()
	c.MinHeadCoverage = 1.5
	if err := c.Validate(); err == nil {
		t.Error("Validate() = nil for MinHeadCoverage > 1, want error")
	}
}

func TestValidateRejectsMaxDepthBelowTwo(t *testing.T) {
	c := Default()
	c.MaxDepth = 1
	if err := c.Validate(); err == nil {
		t.Error("Validate() = nil for MaxDepth < 2, want error")
	}
}

func TestValidateRejectsEnforceConstantsWithoutAllowConstants(t *testing.T) {
	c := Default()
	c.AllowConstants = false
	c.EnforceConstants = true
	if err := c.Validate(); err == nil {
		t.Error("Validate() = nil for EnforceConstants without AllowConstants, want error")
	}
}

func TestValidateRejectsUnknownPruningMetric(t *testing.T) {
	c := Default()
	c.PruningMetric = PruningMetric(99)
	if err := c.Validate(); err == nil {
		t.Error("Validate() = nil for unknown PruningMetric, want error")
	}
}

func TestPruningMetricString(t *testing.T) {
	if Support.String() != "support" {
		t.Errorf("Support.String() = %q, want support", Support.String())
	}
	if HeadCoverage.String() != "head-coverage" {
		t.Errorf("HeadCoverage.String() = %q, want head-coverage", HeadCoverage.String())
	}
}
