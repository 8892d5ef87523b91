// Package health classifies collateralization. Its output is advisory
// analytics only: the ratio reflects the interest snapshot it was given and
// deliberately ignores interest accrued but not yet captured in that
// snapshot; the on-chain settlement is the source of truth.
package health

import "math"

// Tier is the risk tier of a position.
type Tier string

const (
	TierSafe         Tier = "safe"
	TierWarning      Tier = "warning"
	TierAtRisk       Tier = "at-risk"
	TierLiquidatable Tier = "liquidatable"
)

// DefaultSafetyMultiplier is the headroom factor above the maintenance ratio
// that counts as safe. Policy constant, adjustable per deployment.
const DefaultSafetyMultiplier = 1.5

// Thresholds are the asset-specific classification inputs, whole percents.
type Thresholds struct {
	MaintenanceRatio float64
	LiquidationRatio float64
	// SafetyMultiplier defaults to DefaultSafetyMultiplier when zero.
	SafetyMultiplier float64
}

// Result is a classified position.
type Result struct {
	RatioPercent float64 `json:"ratio_percent"`
	Tier         Tier    `json:"tier"`
}

// Classify computes the collateralization ratio and maps it to a tier.
//
//	ratio% = ((collateral − accruedInterest·price) / (minted·price)) · 100
//
// Degenerate inputs (zero or negative price, zero minted amount) classify as
// ratio 0 rather than dividing by zero. Boundary values belong to the higher
// tier: a ratio exactly at a threshold takes that threshold's tier.
func Classify(collateral, minted, price, accruedInterest float64, t Thresholds) Result {
	mult := t.SafetyMultiplier
	if mult == 0 {
		mult = DefaultSafetyMultiplier
	}

	ratio := 0.0
	if price > 0 && minted != 0 {
		ratio = (collateral - accruedInterest*price) / (minted * price) * 100
	}
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		ratio = 0
	}

	var tier Tier
	switch {
	case ratio >= t.MaintenanceRatio*mult:
		tier = TierSafe
	case ratio >= t.MaintenanceRatio:
		tier = TierWarning
	case ratio >= t.LiquidationRatio:
		tier = TierAtRisk
	default:
		tier = TierLiquidatable
	}

	return Result{RatioPercent: ratio, Tier: tier}
}
