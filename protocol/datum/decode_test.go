package datum_test

import (
	"encoding/json"
	"fmt"
	"math/big"
	"testing"

	"github.com/lagoonfi/lagoon-go-sdk/protocol/datum"
)

// Plutus JSON builders for test datums.

func constr(tag int, fields ...string) string {
	out := fmt.Sprintf(`{"constructor":%d,"fields":[`, tag)
	for i, f := range fields {
		if i > 0 {
			out += ","
		}
		out += f
	}
	return out + "]}"
}

func intF(n int64) string      { return fmt.Sprintf(`{"int":%d}`, n) }
func bytesF(hex string) string { return fmt.Sprintf(`{"bytes":"%s"}`, hex) }

const (
	ownerHex  = "0a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5"
	iUSDHex   = "69555344" // "iUSD"
	policyHex = "deadbeef"
	nameHex   = "cafe"
)

func tokenClass() string {
	return constr(0, bytesF(policyHex), bytesF(nameHex))
}

func TestDecodeCDP(t *testing.T) {
	raw := constr(1,
		bytesF(ownerHex),
		bytesF(iUSDHex),
		intF(5000),
		constr(0, intF(1_000_000_000_000), intF(1700000000000)),
	)

	cdp, err := datum.DecodeCDP(json.RawMessage(raw))
	if err != nil {
		t.Fatalf("DecodeCDP failed: %v", err)
	}
	if cdp.Owner != ownerHex {
		t.Errorf("owner = %q, want %q", cdp.Owner, ownerHex)
	}
	if cdp.AssetName != "iUSD" {
		t.Errorf("asset = %q, want iUSD", cdp.AssetName)
	}
	if cdp.MintedAmount.Cmp(big.NewInt(5000)) != 0 {
		t.Errorf("minted = %s, want 5000", cdp.MintedAmount)
	}
	if cdp.Snapshot.LastSettledMs != 1700000000000 {
		t.Errorf("settled = %d", cdp.Snapshot.LastSettledMs)
	}
}

func TestDecodeIAsset_Live(t *testing.T) {
	raw := constr(0,
		bytesF(iUSDHex),
		constr(0, tokenClass()), // oracle price source
		tokenClass(),
		tokenClass(),
		intF(150),
		intF(110),
	)

	st, err := datum.DecodeIAsset(json.RawMessage(raw))
	if err != nil {
		t.Fatalf("DecodeIAsset failed: %v", err)
	}
	if st.AssetName != "iUSD" {
		t.Errorf("asset = %q", st.AssetName)
	}
	if st.Price.Kind != datum.PriceOracle {
		t.Errorf("price kind = %v, want PriceOracle", st.Price.Kind)
	}
	if st.Price.Oracle.Unit() != policyHex+nameHex {
		t.Errorf("oracle unit = %q", st.Price.Oracle.Unit())
	}
	if st.MaintenanceRatio != 150 || st.LiquidationRatio != 110 {
		t.Errorf("ratios = %d/%d, want 150/110", st.MaintenanceRatio, st.LiquidationRatio)
	}
}

func TestDecodeIAsset_Delisted(t *testing.T) {
	raw := constr(0,
		bytesF(iUSDHex),
		constr(1, intF(1_250_000)), // frozen price variant
		tokenClass(),
		tokenClass(),
		intF(150),
		intF(110),
	)

	st, err := datum.DecodeIAsset(json.RawMessage(raw))
	if err != nil {
		t.Fatalf("DecodeIAsset failed: %v", err)
	}
	if st.Price.Kind != datum.Delisted {
		t.Fatalf("price kind = %v, want Delisted", st.Price.Kind)
	}
	if st.Price.FrozenPrice.Cmp(big.NewInt(1_250_000)) != 0 {
		t.Errorf("frozen price = %s, want 1250000", st.Price.FrozenPrice)
	}
}

// A CDP datum fed to the iAsset decoder must report a schema mismatch so
// scans skip it, never a hard failure.
func TestDecode_WrongKindIsSchemaMismatch(t *testing.T) {
	cdpRaw := constr(1,
		bytesF(ownerHex),
		bytesF(iUSDHex),
		intF(5000),
		constr(0, intF(0), intF(0)),
	)

	_, err := datum.DecodeIAsset(json.RawMessage(cdpRaw))
	if err == nil {
		t.Fatal("DecodeIAsset on a CDP datum succeeded")
	}
	if !datum.IsSchemaMismatch(err) {
		t.Errorf("error is not a schema mismatch: %v", err)
	}
}

func TestDecode_MalformedInputs(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"not json", "{{"},
		{"wrong field count", constr(1, bytesF(ownerHex))},
		{"int where bytes expected", constr(1, intF(1), bytesF(iUSDHex), intF(1), constr(0, intF(0), intF(0)))},
		{"owner not 28 bytes", constr(1, bytesF("aabb"), bytesF(iUSDHex), intF(1), constr(0, intF(0), intF(0)))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := datum.DecodeCDP(json.RawMessage(tc.raw))
			if err == nil {
				t.Fatal("DecodeCDP succeeded on malformed input")
			}
			if !datum.IsSchemaMismatch(err) {
				t.Errorf("error is not a schema mismatch: %v", err)
			}
		})
	}
}

func TestDecodeInterestOracle(t *testing.T) {
	raw := constr(0, intF(2_000_000_000_000), intF(50_000), intF(1700000000000), intF(120000))

	st, err := datum.DecodeInterestOracle(json.RawMessage(raw))
	if err != nil {
		t.Fatalf("DecodeInterestOracle failed: %v", err)
	}
	if st.UnitaryInterest.Cmp(big.NewInt(2_000_000_000_000)) != 0 {
		t.Errorf("unitary = %s", st.UnitaryInterest)
	}
	if st.RatePpm != 50_000 || st.BiasTimeMs != 120000 {
		t.Errorf("rate/bias = %d/%d", st.RatePpm, st.BiasTimeMs)
	}
}

func TestDecodeStabilityPoolAccount(t *testing.T) {
	raw := constr(1,
		bytesF(ownerHex),
		bytesF(iUSDHex),
		intF(7_500),
		constr(0, intF(1_000_000_000_000), intF(42), intF(3), intF(1)),
	)

	acct, err := datum.DecodeStabilityPoolAccount(json.RawMessage(raw))
	if err != nil {
		t.Fatalf("DecodeStabilityPoolAccount failed: %v", err)
	}
	if acct.Owner != ownerHex || acct.AssetName != "iUSD" {
		t.Errorf("owner/asset = %q/%q", acct.Owner, acct.AssetName)
	}
	if acct.Deposit.Cmp(big.NewInt(7_500)) != 0 {
		t.Errorf("deposit = %s, want 7500", acct.Deposit)
	}
	if acct.Snapshot.Epoch != 3 || acct.Snapshot.Scale != 1 {
		t.Errorf("snapshot epoch/scale = %d/%d", acct.Snapshot.Epoch, acct.Snapshot.Scale)
	}
}
