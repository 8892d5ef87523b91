// Package interest computes debt interest from the protocol's unitary
// interest index: a monotonically non-decreasing, 1e12-scaled counter of
// cumulative interest-per-unit-debt since protocol genesis, published by a
// per-asset oracle.
package interest

import (
	"math/big"

	"github.com/lagoonfi/lagoon-go-sdk/protocol/datum"
)

// IndexScale is the fixed-point scale of the unitary interest index.
var IndexScale = big.NewInt(1_000_000_000_000) // 1e12

const (
	ppmScale  = 1_000_000
	msPerYear = 365 * 24 * 60 * 60 * 1000
)

// ProjectedIndex returns the unitary interest index at nowMs. The oracle
// publishes the index as of its last update; when nowMs is ahead of that,
// the index is projected forward at the current rate. The oracle's biasTime
// extends the projection window by a bounded lag so a pending rate change
// cannot be front-run.
func ProjectedIndex(nowMs int64, oracle *datum.InterestOracleState) *big.Int {
	elapsed := nowMs + oracle.BiasTimeMs - oracle.LastUpdatedMs
	if elapsed < 0 {
		elapsed = 0
	}

	// deltaIndex = ratePpm/1e6 * elapsed/msPerYear, in 1e12 index units:
	// ratePpm * 1e6 * elapsedMs / msPerYear.
	delta := new(big.Int).Mul(big.NewInt(oracle.RatePpm), big.NewInt(ppmScale))
	delta.Mul(delta, big.NewInt(elapsed))
	delta.Div(delta, big.NewInt(msPerYear))

	return new(big.Int).Add(oracle.UnitaryInterest, delta)
}

// Accrue returns the iAsset amount of interest accrued on mintedAmount since
// the position's snapshot, as of nowMs:
//
//	accrued = mintedAmount * (projectedIndex(now) - snapshotIndex) / 1e12
//
// The index is monotone, so a snapshot ahead of the projection (stale oracle
// relative to the settlement) yields zero, never a negative amount.
func Accrue(nowMs int64, snap datum.InterestSnapshot, mintedAmount *big.Int, oracle *datum.InterestOracleState) *big.Int {
	if oracle == nil || mintedAmount == nil || mintedAmount.Sign() <= 0 {
		return big.NewInt(0)
	}

	deltaIndex := new(big.Int).Sub(ProjectedIndex(nowMs, oracle), snap.UnitaryInterest)
	if deltaIndex.Sign() <= 0 {
		return big.NewInt(0)
	}

	accrued := new(big.Int).Mul(mintedAmount, deltaIndex)
	return accrued.Div(accrued, IndexScale)
}
