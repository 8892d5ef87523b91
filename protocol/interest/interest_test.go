package interest_test

import (
	"math/big"
	"testing"

	"github.com/lagoonfi/lagoon-go-sdk/protocol/datum"
	"github.com/lagoonfi/lagoon-go-sdk/protocol/interest"
)

const msPerYear = 365 * 24 * 60 * 60 * 1000

func oracle(unitary int64, ratePpm, updatedMs, biasMs int64) *datum.InterestOracleState {
	return &datum.InterestOracleState{
		UnitaryInterest: big.NewInt(unitary),
		RatePpm:         ratePpm,
		LastUpdatedMs:   updatedMs,
		BiasTimeMs:      biasMs,
	}
}

func TestProjectedIndex_AtLastUpdate(t *testing.T) {
	o := oracle(1_000_000_000_000, 50_000, 1000, 0)

	got := interest.ProjectedIndex(1000, o)
	if got.Cmp(o.UnitaryInterest) != 0 {
		t.Errorf("index at last update = %s, want %s", got, o.UnitaryInterest)
	}
}

func TestProjectedIndex_OneYearForward(t *testing.T) {
	// 5% annual rate projected one year forward adds 0.05 in index units.
	o := oracle(1_000_000_000_000, 50_000, 0, 0)

	got := interest.ProjectedIndex(msPerYear, o)
	want := big.NewInt(1_050_000_000_000)
	if got.Cmp(want) != 0 {
		t.Errorf("projected = %s, want %s", got, want)
	}
}

func TestProjectedIndex_NegativeElapsedClamps(t *testing.T) {
	// nowMs behind the oracle's update: projection never runs backwards.
	o := oracle(2_000_000_000_000, 50_000, 10_000, 0)

	got := interest.ProjectedIndex(5_000, o)
	if got.Cmp(o.UnitaryInterest) != 0 {
		t.Errorf("projected = %s, want unchanged %s", got, o.UnitaryInterest)
	}
}

func TestProjectedIndex_BiasExtendsWindow(t *testing.T) {
	o := oracle(1_000_000_000_000, 50_000, 0, msPerYear)

	// Zero wall-clock elapsed, one year of bias.
	got := interest.ProjectedIndex(0, o)
	want := big.NewInt(1_050_000_000_000)
	if got.Cmp(want) != 0 {
		t.Errorf("projected = %s, want %s", got, want)
	}
}

func TestAccrue(t *testing.T) {
	snap := datum.InterestSnapshot{
		UnitaryInterest: big.NewInt(1_000_000_000_000),
		LastSettledMs:   0,
	}
	// Index already advanced 0.10 past the snapshot, no further projection.
	o := oracle(1_100_000_000_000, 0, msPerYear, 0)

	got := interest.Accrue(msPerYear, snap, big.NewInt(10_000), o)
	want := big.NewInt(1_000) // 10000 * 0.10
	if got.Cmp(want) != 0 {
		t.Errorf("accrued = %s, want %s", got, want)
	}
}

func TestAccrue_SnapshotAheadYieldsZero(t *testing.T) {
	snap := datum.InterestSnapshot{UnitaryInterest: big.NewInt(2_000_000_000_000)}
	o := oracle(1_000_000_000_000, 0, 0, 0)

	got := interest.Accrue(0, snap, big.NewInt(10_000), o)
	if got.Sign() != 0 {
		t.Errorf("accrued = %s, want 0", got)
	}
}

func TestAccrue_DegenerateInputs(t *testing.T) {
	snap := datum.InterestSnapshot{UnitaryInterest: big.NewInt(0)}
	o := oracle(1_000_000_000_000, 50_000, 0, 0)

	cases := []struct {
		name   string
		minted *big.Int
		oracle *datum.InterestOracleState
	}{
		{"nil oracle", big.NewInt(100), nil},
		{"nil minted", nil, o},
		{"zero minted", big.NewInt(0), o},
		{"negative minted", big.NewInt(-5), o},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := interest.Accrue(msPerYear, snap, tc.minted, tc.oracle)
			if got.Sign() != 0 {
				t.Errorf("accrued = %s, want 0", got)
			}
		})
	}
}
