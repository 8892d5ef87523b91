package health_test

import (
	"math"
	"testing"

	"github.com/lagoonfi/lagoon-go-sdk/protocol/health"
)

var thresholds = health.Thresholds{MaintenanceRatio: 150, LiquidationRatio: 110}

func TestClassify(t *testing.T) {
	cases := []struct {
		name       string
		collateral float64
		minted     float64
		price      float64
		accrued    float64
		wantRatio  float64
		wantTier   health.Tier
	}{
		{"well collateralized", 300, 100, 1.0, 0, 300, health.TierSafe},
		{"above maintenance below safety", 160, 100, 1.0, 0, 160, health.TierWarning},
		{"below maintenance", 120, 100, 1.0, 0, 120, health.TierAtRisk},
		{"below liquidation", 100, 100, 1.0, 0, 100, health.TierLiquidatable},
		{"accrued interest lowers ratio", 300, 100, 1.0, 200, 100, health.TierLiquidatable},
		{"price scales debt", 300, 100, 2.0, 0, 150, health.TierWarning},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := health.Classify(tc.collateral, tc.minted, tc.price, tc.accrued, thresholds)
			if math.Abs(got.RatioPercent-tc.wantRatio) > 1e-9 {
				t.Errorf("ratio = %v, want %v", got.RatioPercent, tc.wantRatio)
			}
			if got.Tier != tc.wantTier {
				t.Errorf("tier = %s, want %s", got.Tier, tc.wantTier)
			}
		})
	}
}

// Boundary values take the higher tier.
func TestClassify_Boundaries(t *testing.T) {
	cases := []struct {
		ratio float64
		want  health.Tier
	}{
		{225, health.TierSafe}, // maintenance * default multiplier
		{150, health.TierWarning},
		{110, health.TierAtRisk},
		{109.999, health.TierLiquidatable},
	}
	for _, tc := range cases {
		got := health.Classify(tc.ratio, 100, 1.0, 0, thresholds)
		if got.Tier != tc.want {
			t.Errorf("ratio %v: tier = %s, want %s", tc.ratio, got.Tier, tc.want)
		}
	}
}

func TestClassify_DegenerateInputs(t *testing.T) {
	cases := []struct {
		name       string
		collateral float64
		minted     float64
		price      float64
	}{
		{"zero minted", 300, 0, 1.0},
		{"zero price", 300, 100, 0},
		{"negative price", 300, 100, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := health.Classify(tc.collateral, tc.minted, tc.price, 0, thresholds)
			if got.RatioPercent != 0 {
				t.Errorf("ratio = %v, want 0", got.RatioPercent)
			}
			if got.Tier != health.TierLiquidatable {
				t.Errorf("tier = %s, want %s", got.Tier, health.TierLiquidatable)
			}
		})
	}
}

func TestClassify_CustomSafetyMultiplier(t *testing.T) {
	custom := health.Thresholds{MaintenanceRatio: 150, LiquidationRatio: 110, SafetyMultiplier: 2}

	got := health.Classify(250, 100, 1.0, 0, custom)
	if got.Tier != health.TierWarning {
		t.Errorf("tier = %s, want %s (safe requires 300%% with multiplier 2)", got.Tier, health.TierWarning)
	}
}
