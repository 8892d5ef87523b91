package protocol_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/lagoonfi/lagoon-go-sdk/protocol"
	"github.com/lagoonfi/lagoon-go-sdk/protocol/indexer"
	"github.com/lagoonfi/lagoon-go-sdk/protocol/locator"
)

const (
	ownerCred = "0a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5"
	otherCred = "ffeeddccbbaa99887766554433221100ffeeddccbbaa998877665544"

	ownerHex = ownerCred
	iUSDHex  = "69555344" // "iUSD"
	iDEADHex = "6944454144"

	priceOracleUnit    = "aa01"
	interestOracleUnit = "bb02"

	chainTimeMs = int64(1_700_000_000_000)
)

var testDeployment = protocol.Deployment{
	CDPAddress:            "addr-cdp",
	OracleAddress:         "addr-oracle",
	InterestOracleAddress: "addr-interest",
	StabilityPoolAddress:  "addr-pool",
	StakingAddress:        "addr-staking",
	GovAddress:            "addr-gov",
	CollectorAddress:      "addr-collector",
	TreasuryAddress:       "addr-treasury",
	RedemptionAddress:     "addr-redemption",

	IAssetAuthUnit:    "unit-iasset",
	CDPAuthUnit:       "unit-cdp",
	StabilityPoolUnit: "unit-pool",
	StakingUnit:       "unit-staking",
	GovUnit:           "unit-gov",
	CollectorUnit:     "unit-collector",
	TreasuryUnit:      "unit-treasury",
	RedemptionUnit:    "unit-redemption",
}

// ─── plutus json builders ───

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

func liveIAssetDatum(assetHex string) string {
	return constr(0,
		bytesF(assetHex),
		constr(0, constr(0, bytesF("aa"), bytesF("01"))), // oracle price source
		constr(0, bytesF("bb"), bytesF("02")),            // interest oracle class
		constr(0, bytesF("cc"), bytesF("03")),            // auth token
		intF(150),
		intF(110),
	)
}

func delistedIAssetDatum(assetHex string) string {
	return constr(0,
		bytesF(assetHex),
		constr(1, intF(1_250_000)), // frozen price
		constr(0, bytesF("bb"), bytesF("02")),
		constr(0, bytesF("cc"), bytesF("03")),
		intF(150),
		intF(110),
	)
}

func cdpDatum(owner, assetHex string, minted int64) string {
	return constr(1,
		bytesF(owner),
		bytesF(assetHex),
		intF(minted),
		constr(0, intF(1_000_000_000_000), intF(chainTimeMs-1000)),
	)
}

func poolSnapshot() string {
	return constr(0, intF(1_000_000_000_000), intF(0), intF(0), intF(0))
}

func record(txID string, index int, datumJSON string, lovelace int64) indexer.Record {
	rec := indexer.Record{
		TxID:        txID,
		OutputIndex: index,
		Assets:      map[string]*big.Int{indexer.Lovelace: big.NewInt(lovelace)},
	}
	if datumJSON != "" {
		rec.StructuredData = json.RawMessage(datumJSON)
	}
	return rec
}

// ─── fakes ───

// fakeChain serves fixed records per address/unit pair.
type fakeChain struct {
	records map[string][]indexer.Record
	// failAddress makes lookups at one address fail, for atomicity tests.
	failAddress string
	paramsCalls int
}

func key(address, unit string) string { return address + "|" + unit }

func (f *fakeChain) UTxOsByUnit(ctx context.Context, address, unit string) ([]indexer.Record, error) {
	if f.failAddress != "" && address == f.failAddress {
		return nil, &indexer.UpstreamError{Status: 500, Message: "boom"}
	}
	return f.records[key(address, unit)], nil
}

func (f *fakeChain) Tip(ctx context.Context) (indexer.Tip, error) {
	return indexer.Tip{Slot: 1, Height: 2, TimeMs: chainTimeMs}, nil
}

func (f *fakeChain) ProtocolParams(ctx context.Context) (*indexer.Params, error) {
	f.paramsCalls++
	return &indexer.Params{MinFee: big.NewInt(155381)}, nil
}

// fakeAssembler records the request it was given.
type fakeAssembler struct {
	got *protocol.AssemblyRequest
	err error
}

func (f *fakeAssembler) Complete(ctx context.Context, req *protocol.AssemblyRequest) (*protocol.Artifact, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &protocol.Artifact{UnsignedTx: "84a300", TxHash: "deadbeef", Fee: big.NewInt(200_000)}, nil
}

// newTestChain populates a chain with a full protocol deployment: a live
// iUSD, a delisted iDEAD, both oracles, singletons, one pool and one
// account, and two iUSD positions for the owner.
func newTestChain() *fakeChain {
	d := testDeployment
	return &fakeChain{records: map[string][]indexer.Record{
		key(d.GovAddress, d.GovUnit): {
			record("gov", 0, constr(0, intF(1), intF(7)), 2_000_000),
		},
		key(d.CollectorAddress, d.CollectorUnit): {
			record("col", 0, "", 50_000_000),
			record("col", 1, "", 70_000_000),
		},
		key(d.CDPAddress, d.IAssetAuthUnit): {
			record("reg", 0, liveIAssetDatum(iUSDHex), 2_000_000),
			record("reg", 1, delistedIAssetDatum(iDEADHex), 2_000_000),
		},
		key(d.OracleAddress, priceOracleUnit): {
			record("price", 0, constr(0, intF(1_000_000), intF(chainTimeMs+60_000)), 2_000_000),
		},
		key(d.InterestOracleAddress, interestOracleUnit): {
			record("interest", 0, constr(0, intF(1_000_000_000_000), intF(50_000), intF(chainTimeMs-1000), intF(0)), 2_000_000),
		},
		key(d.CDPAddress, d.CDPAuthUnit): {
			record("cdp1", 0, cdpDatum(ownerHex, iUSDHex, 5_000), 300_000_000),
			record("cdp2", 0, cdpDatum(ownerHex, iUSDHex, 2_000), 100_000_000),
			record("cdp3", 0, cdpDatum(otherCred, iUSDHex, 9_000), 400_000_000),
		},
		key(d.StabilityPoolAddress, d.StabilityPoolUnit): {
			record("pool", 0, constr(0, bytesF(iUSDHex), intF(100_000), poolSnapshot()), 2_000_000),
			record("acct", 0, constr(1, bytesF(ownerHex), bytesF(iUSDHex), intF(4_000), poolSnapshot()), 2_000_000),
		},
		key(d.StakingAddress, d.StakingUnit): {
			record("mgr", 0, constr(0, intF(1_000_000), intF(0)), 2_000_000),
		},
	}}
}

func newTestClient(t *testing.T, chain protocol.ChainSource, asm protocol.Assembler) *protocol.Client {
	t.Helper()
	opts := []protocol.Option{protocol.WithChainSource(chain)}
	if asm != nil {
		opts = append(opts, protocol.WithAssembler(asm))
	}
	c, err := protocol.New(protocol.Config{Network: "preprod", Deployment: testDeployment}, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

// ─── open / adjust ───

func TestOpenCDP(t *testing.T) {
	asm := &fakeAssembler{}
	c := newTestClient(t, newTestChain(), asm)

	draft, err := c.OpenCDP(context.Background(), protocol.OpenCDPParams{
		OwnerAddress:     ownerCred,
		Asset:            "iUSD",
		CollateralAmount: "500000000",
		MintAmount:       "100",
	})
	if err != nil {
		t.Fatalf("OpenCDP failed: %v", err)
	}

	if draft.UnsignedTx == "" || draft.TxHash == "" {
		t.Error("draft missing artifact fields")
	}
	if draft.Summary.OperationType != "open_cdp" {
		t.Errorf("operation = %q", draft.Summary.OperationType)
	}
	if draft.Summary.NormalizedInputs["owner"] != ownerCred {
		t.Errorf("normalized owner = %q", draft.Summary.NormalizedInputs["owner"])
	}

	req := asm.got
	if req == nil {
		t.Fatal("assembler never called")
	}
	if req.Operation != "open_cdp" {
		t.Errorf("assembled operation = %q", req.Operation)
	}
	if req.ChainTimeMs != chainTimeMs {
		t.Errorf("chain time = %d, want %d", req.ChainTimeMs, chainTimeMs)
	}
	kinds := map[string]bool{}
	for _, r := range req.Records {
		kinds[r.Kind] = true
	}
	for _, want := range []string{"iasset", "price-oracle", "interest-oracle", "governance", "collector"} {
		if !kinds[want] {
			t.Errorf("assembly request missing %s record", want)
		}
	}
}

func TestOpenCDP_DelistedRejected(t *testing.T) {
	asm := &fakeAssembler{}
	c := newTestClient(t, newTestChain(), asm)

	_, err := c.OpenCDP(context.Background(), protocol.OpenCDPParams{
		OwnerAddress:     ownerCred,
		Asset:            "iDEAD",
		CollateralAmount: "500000000",
		MintAmount:       "100",
	})
	var pre *protocol.PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("error type %T, want *PreconditionError: %v", err, err)
	}
	if asm.got != nil {
		t.Error("assembler was called for a delisted asset")
	}
}

func TestOpenCDP_InvalidAmounts(t *testing.T) {
	c := newTestClient(t, newTestChain(), &fakeAssembler{})

	for _, amount := range []string{"abc", "-5", "0", "1.5", ""} {
		_, err := c.OpenCDP(context.Background(), protocol.OpenCDPParams{
			OwnerAddress:     ownerCred,
			Asset:            "iUSD",
			CollateralAmount: amount,
			MintAmount:       "100",
		})
		var pre *protocol.PreconditionError
		if !errors.As(err, &pre) {
			t.Errorf("amount %q: error type %T, want *PreconditionError", amount, err)
		}
	}
}

func TestOpenCDP_UnknownAsset(t *testing.T) {
	c := newTestClient(t, newTestChain(), &fakeAssembler{})

	_, err := c.OpenCDP(context.Background(), protocol.OpenCDPParams{
		OwnerAddress:     ownerCred,
		Asset:            "iXYZ",
		CollateralAmount: "500000000",
		MintAmount:       "100",
	})
	var nf *locator.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error type %T, want *NotFoundError: %v", err, err)
	}
}

func TestOpenCDP_NoAssembler(t *testing.T) {
	c := newTestClient(t, newTestChain(), nil)

	_, err := c.OpenCDP(context.Background(), protocol.OpenCDPParams{
		OwnerAddress:     ownerCred,
		Asset:            "iUSD",
		CollateralAmount: "500000000",
		MintAmount:       "100",
	})
	var cfg *protocol.ConfigError
	if !errors.As(err, &cfg) {
		t.Fatalf("error type %T, want *ConfigError: %v", err, err)
	}
}

// One failing lookup fails the whole draft; no partial assembly happens.
func TestOpenCDP_AtomicLookups(t *testing.T) {
	chain := newTestChain()
	chain.failAddress = testDeployment.OracleAddress
	asm := &fakeAssembler{}
	c := newTestClient(t, chain, asm)

	_, err := c.OpenCDP(context.Background(), protocol.OpenCDPParams{
		OwnerAddress:     ownerCred,
		Asset:            "iUSD",
		CollateralAmount: "500000000",
		MintAmount:       "100",
	})
	var up *indexer.UpstreamError
	if !errors.As(err, &up) {
		t.Fatalf("error type %T, want *UpstreamError: %v", err, err)
	}
	if asm.got != nil {
		t.Error("assembler was called despite a failed lookup")
	}
}

func TestDepositCDP_WrongOwnerRejected(t *testing.T) {
	c := newTestClient(t, newTestChain(), &fakeAssembler{})

	_, err := c.DepositCDP(context.Background(), protocol.AdjustCDPParams{
		OwnerAddress: ownerCred,
		Asset:        "iUSD",
		Ref:          protocol.OutRef{TxHash: "cdp3", OutputIndex: 0},
		Amount:       "1000000",
	})
	var pre *protocol.PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("error type %T, want *PreconditionError: %v", err, err)
	}
}

func TestDepositCDP(t *testing.T) {
	asm := &fakeAssembler{}
	c := newTestClient(t, newTestChain(), asm)

	draft, err := c.DepositCDP(context.Background(), protocol.AdjustCDPParams{
		OwnerAddress: ownerCred,
		Asset:        "iUSD",
		Ref:          protocol.OutRef{TxHash: "cdp1", OutputIndex: 0},
		Amount:       "1000000",
	})
	if err != nil {
		t.Fatalf("DepositCDP failed: %v", err)
	}
	if draft.Summary.OperationType != "deposit_cdp" {
		t.Errorf("operation = %q", draft.Summary.OperationType)
	}

	// The position itself must be a spent input.
	var cdpRole string
	for _, r := range asm.got.Records {
		if r.Kind == "cdp" {
			cdpRole = r.Role
		}
	}
	if cdpRole != protocol.RoleInput {
		t.Errorf("cdp role = %q, want %q", cdpRole, protocol.RoleInput)
	}
}

// ─── merge / redeem ───

func TestMergeCDPs_RequiresTwoRefs(t *testing.T) {
	c := newTestClient(t, newTestChain(), &fakeAssembler{})

	_, err := c.MergeCDPs(context.Background(), protocol.MergeCDPsParams{
		OwnerAddress: ownerCred,
		Asset:        "iUSD",
		Refs:         []protocol.OutRef{{TxHash: "cdp1", OutputIndex: 0}},
	})
	var pre *protocol.PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("error type %T, want *PreconditionError: %v", err, err)
	}
}

func TestMergeCDPs(t *testing.T) {
	asm := &fakeAssembler{}
	c := newTestClient(t, newTestChain(), asm)

	draft, err := c.MergeCDPs(context.Background(), protocol.MergeCDPsParams{
		OwnerAddress: ownerCred,
		Asset:        "iUSD",
		Refs: []protocol.OutRef{
			{TxHash: "cdp1", OutputIndex: 0},
			{TxHash: "cdp2", OutputIndex: 0},
		},
	})
	if err != nil {
		t.Fatalf("MergeCDPs failed: %v", err)
	}
	if draft.Summary.OperationType != "merge_cdps" {
		t.Errorf("operation = %q", draft.Summary.OperationType)
	}

	inputs := 0
	for _, r := range asm.got.Records {
		if r.Kind == "cdp" && r.Role == protocol.RoleInput {
			inputs++
		}
	}
	if inputs != 2 {
		t.Errorf("cdp inputs = %d, want 2", inputs)
	}
}

func TestRedeemCDP_EmptyRefs(t *testing.T) {
	c := newTestClient(t, newTestChain(), &fakeAssembler{})

	_, err := c.RedeemCDP(context.Background(), protocol.RedeemCDPParams{
		OwnerAddress: ownerCred,
		Asset:        "iUSD",
		Amount:       "100",
	})
	var pre *protocol.PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("error type %T, want *PreconditionError: %v", err, err)
	}
}

// ─── stability pool ───

func TestAdjustStabilityPool_Deposit(t *testing.T) {
	asm := &fakeAssembler{}
	c := newTestClient(t, newTestChain(), asm)

	draft, err := c.AdjustStabilityPool(context.Background(), protocol.AdjustStabilityPoolParams{
		OwnerAddress: ownerCred,
		Asset:        "iUSD",
		Amount:       "2500",
	})
	if err != nil {
		t.Fatalf("AdjustStabilityPool failed: %v", err)
	}
	if draft.Summary.NormalizedInputs["amount"] != "2500" {
		t.Errorf("normalized amount = %q", draft.Summary.NormalizedInputs["amount"])
	}
}

func TestAdjustStabilityPool_WithdrawExceedsDeposit(t *testing.T) {
	asm := &fakeAssembler{}
	c := newTestClient(t, newTestChain(), asm)

	// The owner's account holds 4000.
	_, err := c.AdjustStabilityPool(context.Background(), protocol.AdjustStabilityPoolParams{
		OwnerAddress: ownerCred,
		Asset:        "iUSD",
		Amount:       "-5000",
	})
	var pre *protocol.PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("error type %T, want *PreconditionError: %v", err, err)
	}
	if asm.got != nil {
		t.Error("assembler was called for an over-withdrawal")
	}
}

func TestAdjustStabilityPool_WithdrawWithoutAccount(t *testing.T) {
	c := newTestClient(t, newTestChain(), &fakeAssembler{})

	// otherCred has no pool account.
	_, err := c.AdjustStabilityPool(context.Background(), protocol.AdjustStabilityPoolParams{
		OwnerAddress: otherCred,
		Asset:        "iUSD",
		Amount:       "-1000",
	})
	var nf *locator.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error type %T, want *NotFoundError: %v", err, err)
	}
}

// A first deposit has no account record to spend.
func TestAdjustStabilityPool_FirstDeposit(t *testing.T) {
	asm := &fakeAssembler{}
	c := newTestClient(t, newTestChain(), asm)

	_, err := c.AdjustStabilityPool(context.Background(), protocol.AdjustStabilityPoolParams{
		OwnerAddress: otherCred,
		Asset:        "iUSD",
		Amount:       "1000",
	})
	if err != nil {
		t.Fatalf("first deposit failed: %v", err)
	}
	for _, r := range asm.got.Records {
		if r.Kind == "stability-pool-account" {
			t.Error("first deposit must not reference an account record")
		}
	}
}

func TestAdjustStabilityPool_ZeroAmount(t *testing.T) {
	c := newTestClient(t, newTestChain(), &fakeAssembler{})

	_, err := c.AdjustStabilityPool(context.Background(), protocol.AdjustStabilityPoolParams{
		OwnerAddress: ownerCred,
		Asset:        "iUSD",
		Amount:       "0",
	})
	var pre *protocol.PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("error type %T, want *PreconditionError: %v", err, err)
	}
}

// ─── reads ───

func TestListCDPs(t *testing.T) {
	c := newTestClient(t, newTestChain(), nil)

	views, err := c.ListCDPs(context.Background(), ownerCred, "iUSD", 0, 0)
	if err != nil {
		t.Fatalf("ListCDPs failed: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("got %d positions, want 2", len(views))
	}
	// Deterministic ref ordering.
	if views[0].Ref.TxHash != "cdp1" || views[1].Ref.TxHash != "cdp2" {
		t.Errorf("order = %s, %s", views[0].Ref.TxHash, views[1].Ref.TxHash)
	}
}

func TestListCDPs_Paging(t *testing.T) {
	c := newTestClient(t, newTestChain(), nil)

	views, err := c.ListCDPs(context.Background(), ownerCred, "iUSD", 1, 0)
	if err != nil {
		t.Fatalf("ListCDPs failed: %v", err)
	}
	if len(views) != 1 || views[0].Ref.TxHash != "cdp1" {
		t.Fatalf("limit 1: got %d positions", len(views))
	}

	views, err = c.ListCDPs(context.Background(), ownerCred, "iUSD", 1, 1)
	if err != nil {
		t.Fatalf("ListCDPs failed: %v", err)
	}
	if len(views) != 1 || views[0].Ref.TxHash != "cdp2" {
		t.Fatalf("offset 1: got %d positions", len(views))
	}

	views, err = c.ListCDPs(context.Background(), ownerCred, "iUSD", 50, 10)
	if err != nil {
		t.Fatalf("ListCDPs failed: %v", err)
	}
	if len(views) != 0 {
		t.Errorf("offset past end: got %d positions, want none", len(views))
	}

	// Out-of-range paging values clamp rather than fail.
	views, err = c.ListCDPs(context.Background(), ownerCred, "iUSD", -7, -3)
	if err != nil {
		t.Fatalf("ListCDPs failed: %v", err)
	}
	if len(views) != 2 {
		t.Errorf("clamped paging: got %d positions, want 2", len(views))
	}
}

func TestListCDPs_NoPositions(t *testing.T) {
	c := newTestClient(t, newTestChain(), nil)

	views, err := c.ListCDPs(context.Background(), otherCred, "iDEAD", 0, 0)
	if err != nil {
		t.Fatalf("ListCDPs failed: %v", err)
	}
	if len(views) != 0 {
		t.Errorf("got %d positions, want none", len(views))
	}
}

func TestAssetPriceFor_Delisted(t *testing.T) {
	c := newTestClient(t, newTestChain(), nil)

	price, err := c.AssetPriceFor(context.Background(), "iDEAD")
	if err != nil {
		t.Fatalf("AssetPriceFor failed: %v", err)
	}
	if !price.Delisted {
		t.Error("delisted flag not set")
	}
	if price.Price.Cmp(big.NewInt(1_250_000)) != 0 {
		t.Errorf("frozen price = %s, want 1250000", price.Price)
	}
}

func TestParseOutRef(t *testing.T) {
	ref, err := protocol.ParseOutRef("deadbeef#3")
	if err != nil {
		t.Fatalf("ParseOutRef failed: %v", err)
	}
	if ref.TxHash != "deadbeef" || ref.OutputIndex != 3 {
		t.Errorf("ref = %+v", ref)
	}

	for _, bad := range []string{"", "deadbeef", "deadbeef#", "#3", "deadbeef#x", "deadbeef#-1"} {
		_, err := protocol.ParseOutRef(bad)
		var invalid *protocol.InvalidRefError
		if !errors.As(err, &invalid) {
			t.Errorf("ParseOutRef(%q): error type %T, want *InvalidRefError", bad, err)
		}
	}
}

// ─── health ───

func TestHealthByOwner_NoPositions(t *testing.T) {
	c := newTestClient(t, newTestChain(), nil)

	// A credential with no open positions gets an explicit marker, not an
	// empty page.
	idle := "11111111111111111111111111111111111111111111111111111111"
	report, err := c.HealthByOwner(context.Background(), idle)
	if err != nil {
		t.Fatalf("HealthByOwner failed: %v", err)
	}
	if !report.NoPositions {
		t.Error("NoPositions not set")
	}
	if len(report.Positions) != 0 {
		t.Errorf("got %d positions", len(report.Positions))
	}
}

func TestHealthByOwner(t *testing.T) {
	c := newTestClient(t, newTestChain(), nil)

	report, err := c.HealthByOwner(context.Background(), ownerCred)
	if err != nil {
		t.Fatalf("HealthByOwner failed: %v", err)
	}
	if report.NoPositions {
		t.Error("NoPositions set for an owner with positions")
	}
	if len(report.Positions) != 2 {
		t.Fatalf("got %d positions, want 2", len(report.Positions))
	}
	for _, p := range report.Positions {
		if !p.InterestResolved {
			t.Error("interest source did not resolve")
		}
		if p.Result.Tier == "" {
			t.Error("position not classified")
		}
	}
}

// A missing interest source degrades analytics to zero accrual instead of
// failing the query.
func TestHealthByOwner_MissingInterestOracle(t *testing.T) {
	chain := newTestChain()
	delete(chain.records, key(testDeployment.InterestOracleAddress, interestOracleUnit))
	c := newTestClient(t, chain, nil)

	report, err := c.HealthByOwner(context.Background(), ownerCred)
	if err != nil {
		t.Fatalf("HealthByOwner failed: %v", err)
	}
	for _, p := range report.Positions {
		if p.InterestResolved {
			t.Error("InterestResolved set with no oracle record")
		}
		if p.AccruedInterest.Sign() != 0 {
			t.Errorf("accrued = %s, want 0", p.AccruedInterest)
		}
	}
}

// An interest-oracle outage is not the same as an absent oracle: upstream
// failures propagate instead of silently reporting zero accrual.
func TestHealthByOwner_InterestOracleOutage(t *testing.T) {
	chain := newTestChain()
	chain.failAddress = testDeployment.InterestOracleAddress
	c := newTestClient(t, chain, nil)

	_, err := c.HealthByOwner(context.Background(), ownerCred)
	var upstream *indexer.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("error type %T (%v), want *indexer.UpstreamError", err, err)
	}
}

// The analysis covers every open position, not the first listing page.
func TestHealthByOwner_ManyPositions(t *testing.T) {
	chain := newTestChain()
	k := key(testDeployment.CDPAddress, testDeployment.CDPAuthUnit)
	chain.records[k] = nil
	const open = 60
	for i := 0; i < open; i++ {
		chain.records[k] = append(chain.records[k],
			record(fmt.Sprintf("cdp%03d", i), 0, cdpDatum(ownerHex, iUSDHex, 1_000), 50_000_000))
	}
	c := newTestClient(t, chain, nil)

	report, err := c.HealthByOwner(context.Background(), ownerCred)
	if err != nil {
		t.Fatalf("HealthByOwner failed: %v", err)
	}
	if len(report.Positions) != open {
		t.Fatalf("analyzed %d positions, want %d", len(report.Positions), open)
	}
}

// ─── concurrency ───

// slowChain delays every lookup; independent lookups must overlap.
type slowChain struct {
	*fakeChain
	delay time.Duration
}

func (s *slowChain) UTxOsByUnit(ctx context.Context, address, unit string) ([]indexer.Record, error) {
	time.Sleep(s.delay)
	return s.fakeChain.UTxOsByUnit(ctx, address, unit)
}

func (s *slowChain) Tip(ctx context.Context) (indexer.Tip, error) {
	time.Sleep(s.delay)
	return s.fakeChain.Tip(ctx)
}

func TestOpenCDP_SiblingLookupsRunConcurrently(t *testing.T) {
	const delay = 100 * time.Millisecond
	c := newTestClient(t, &slowChain{fakeChain: newTestChain(), delay: delay}, &fakeAssembler{})

	// OpenCDP runs two lookup phases: four independent lookups, then the
	// two oracle derefs. Serial execution would take six delays.
	start := time.Now()
	_, err := c.OpenCDP(context.Background(), protocol.OpenCDPParams{
		OwnerAddress:     ownerCred,
		Asset:            "iUSD",
		CollateralAmount: "500000000",
		MintAmount:       "100",
	})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("OpenCDP failed: %v", err)
	}
	if elapsed >= 4*delay {
		t.Errorf("orchestration took %v; lookups appear to run serially", elapsed)
	}
}

// ─── params cache ───

func TestProtocolParams_Cached(t *testing.T) {
	chain := newTestChain()
	c := newTestClient(t, chain, nil)

	for i := 0; i < 3; i++ {
		if _, err := c.ProtocolParams(context.Background()); err != nil {
			t.Fatalf("ProtocolParams failed: %v", err)
		}
	}
	if chain.paramsCalls != 1 {
		t.Errorf("indexer fetched %d times, want 1", chain.paramsCalls)
	}

	c.ResetParamsCache()
	if _, err := c.ProtocolParams(context.Background()); err != nil {
		t.Fatalf("ProtocolParams after reset failed: %v", err)
	}
	if chain.paramsCalls != 2 {
		t.Errorf("indexer fetched %d times after reset, want 2", chain.paramsCalls)
	}
}
