package engine

import (
	"strings"
	"testing"
)

func TestCategorizeError_TaxonomyPrefixes(t *testing.T) {
	cases := []struct {
		msg  string
		want string
	}{
		{"not_found: iasset: no record found for \"iXYZ\"", "not_found"},
		{"ambiguous: governance: expected a single record, found 2", "ambiguous"},
		{"invalid_selector: invalid owner selector", "invalid_selector"},
		{"precondition_failed: open_cdp: asset iDEAD is delisted", "precondition_failed"},
		{"configuration_error: LAGOON_ASSEMBLER_URL is not set", "configuration_error"},
		{"upstream_timeout: indexer utxos: timed out", "upstream_timeout"},
		{"upstream_error: indexer utxos: status 500", "upstream_error"},
	}
	for _, tc := range cases {
		if got := categorizeError(tc.msg); got != tc.want {
			t.Errorf("categorizeError(%q) = %q, want %q", tc.msg, got, tc.want)
		}
	}
}

// Messages without a taxonomy prefix fall back to keyword heuristics.
func TestCategorizeError_Heuristics(t *testing.T) {
	cases := []struct {
		msg  string
		want string
	}{
		{"record not found", "not_found"},
		{"invalid tool input JSON", "invalid_selector"},
		{"asset iDEAD is delisted", "precondition_failed"},
		{"context deadline exceeded", "upstream_timeout"},
		{"connection refused", "upstream_error"},
		{"", "unknown"},
		{"something unexpected", "unknown"},
	}
	for _, tc := range cases {
		if got := categorizeError(tc.msg); got != tc.want {
			t.Errorf("categorizeError(%q) = %q, want %q", tc.msg, got, tc.want)
		}
	}
}

func TestGeneratePrevention(t *testing.T) {
	// Action-specific hint wins over the generic one.
	got := generatePrevention("open_cdp", "precondition_failed")
	if !strings.Contains(got, "get_asset") {
		t.Errorf("open_cdp hint = %q", got)
	}

	// Unknown action falls back to the per-category hint.
	got = generatePrevention("cancel_redemption_position", "not_found")
	if got == "" || strings.Contains(got, "cancel_redemption_position") {
		t.Errorf("generic hint = %q", got)
	}

	if generatePrevention("anything", "something_else") == "" {
		t.Error("no fallback hint")
	}
}
