package protocol

import (
	"context"
	"fmt"
	"math/big"

	"golang.org/x/sync/errgroup"

	"github.com/lagoonfi/lagoon-go-sdk/protocol/address"
	"github.com/lagoonfi/lagoon-go-sdk/protocol/datum"
	"github.com/lagoonfi/lagoon-go-sdk/protocol/indexer"
	"github.com/lagoonfi/lagoon-go-sdk/protocol/locator"
)

// Draft is the result of a mutating operation: the unsigned artifact plus a
// structured summary. The summary is part of the contract (auditability),
// not incidental logging.
type Draft struct {
	UnsignedTx string   `json:"unsigned_tx"`
	TxHash     string   `json:"tx_hash"`
	Fee        *big.Int `json:"fee"`
	Summary    Summary  `json:"summary"`
}

// Summary describes a draft for audit: what was requested, in normalized
// form, and a human-readable line.
type Summary struct {
	OperationType    string            `json:"operation_type"`
	HumanDescription string            `json:"human_description"`
	NormalizedInputs map[string]string `json:"normalized_inputs"`
}

func newDraft(artifact *Artifact, op, description string, inputs map[string]string) *Draft {
	return &Draft{
		UnsignedTx: artifact.UnsignedTx,
		TxHash:     artifact.TxHash,
		Fee:        artifact.Fee,
		Summary: Summary{
			OperationType:    op,
			HumanDescription: description,
			NormalizedInputs: inputs,
		},
	}
}

// parseAmount parses a decimal-string integer in the asset's smallest unit.
// No float path exists: the parsed value is what summaries echo back.
func parseAmount(op, field, s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, &PreconditionError{Op: op, Reason: fmt.Sprintf("%s is not a decimal integer: %q", field, s)}
	}
	return n, nil
}

func parsePositiveAmount(op, field, s string) (*big.Int, error) {
	n, err := parseAmount(op, field, s)
	if err != nil {
		return nil, err
	}
	if n.Sign() <= 0 {
		return nil, &PreconditionError{Op: op, Reason: fmt.Sprintf("%s must be positive, got %s", field, n)}
	}
	return n, nil
}

// commonRecords are the lookups every draft needs: the governance singleton,
// one collector record and the chain tip.
type commonRecords struct {
	gov       indexer.Record
	collector indexer.Record
	tip       indexer.Tip
}

// addCommon registers the common lookups on an errgroup so they run
// concurrently with the operation's own lookups.
func (c *Client) addCommon(g *errgroup.Group, ctx context.Context, out *commonRecords) {
	g.Go(func() error {
		_, rec, err := c.resolveGovernance(ctx)
		out.gov = rec
		return err
	})
	g.Go(func() error {
		rec, err := c.resolveCollector(ctx)
		out.collector = rec
		return err
	})
	g.Go(func() error {
		tip, err := c.chain.Tip(ctx)
		out.tip = tip
		return err
	})
}

// requireLive rejects CDP-mutating drafts on delisted assets before any
// assembly is attempted.
func requireLive(op string, st *datum.IAssetState) error {
	if st.Price.Kind == datum.Delisted {
		return &PreconditionError{
			Op:     op,
			Reason: fmt.Sprintf("asset %s is delisted; CDP operations are disabled", st.AssetName),
		}
	}
	return nil
}

// resolveOracles dereferences both oracle records of an asset concurrently.
// They depend on the registry entry, so this always runs after resolveIAsset.
func (c *Client) resolveOracles(ctx context.Context, st *datum.IAssetState) (priceRec, interestRec indexer.Record, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, rec, err := c.resolvePriceOracle(gctx, st.AssetName, st.Price.Oracle)
		priceRec = rec
		return err
	})
	g.Go(func() error {
		_, rec, err := c.resolveInterestOracle(gctx, st.AssetName, st.InterestOracle)
		interestRec = rec
		return err
	})
	err = g.Wait()
	return priceRec, interestRec, err
}

// OpenCDPParams opens a new position.
type OpenCDPParams struct {
	OwnerAddress     string
	Asset            string
	CollateralAmount string // lovelace, decimal string
	MintAmount       string // smallest iAsset unit, decimal string
}

// OpenCDP drafts a transaction opening a new CDP.
func (c *Client) OpenCDP(ctx context.Context, p OpenCDPParams) (*Draft, error) {
	const op = "open_cdp"

	asm, err := c.requireAssembler()
	if err != nil {
		return nil, err
	}
	cred, err := address.Canonical(p.OwnerAddress)
	if err != nil {
		return nil, err
	}
	collateral, err := parsePositiveAmount(op, "collateral_amount", p.CollateralAmount)
	if err != nil {
		return nil, err
	}
	mint, err := parsePositiveAmount(op, "mint_amount", p.MintAmount)
	if err != nil {
		return nil, err
	}

	var (
		common      commonRecords
		st          *datum.IAssetState
		registryRec indexer.Record
	)
	g, gctx := errgroup.WithContext(ctx)
	c.addCommon(g, gctx, &common)
	g.Go(func() error {
		s, rec, err := c.resolveIAsset(gctx, p.Asset)
		st, registryRec = s, rec
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := requireLive(op, st); err != nil {
		return nil, err
	}
	priceRec, interestRec, err := c.resolveOracles(ctx, st)
	if err != nil {
		return nil, err
	}

	inputs := map[string]string{
		"owner":             cred,
		"asset":             p.Asset,
		"collateral_amount": collateral.String(),
		"mint_amount":       mint.String(),
	}
	artifact, err := asm.Complete(ctx, &AssemblyRequest{
		Operation:    op,
		OwnerAddress: p.OwnerAddress,
		ChainTimeMs:  common.tip.TimeMs,
		Records: []ResolvedRecord{
			{Role: RoleReference, Kind: "iasset", Record: registryRec},
			{Role: RoleReference, Kind: "price-oracle", Record: priceRec},
			{Role: RoleReference, Kind: "interest-oracle", Record: interestRec},
			{Role: RoleReference, Kind: "governance", Record: common.gov},
			{Role: RoleInput, Kind: "collector", Record: common.collector},
		},
		Params: inputs,
	})
	if err != nil {
		return nil, err
	}

	desc := fmt.Sprintf("Open a %s CDP with %s lovelace collateral, minting %s units", p.Asset, collateral, mint)
	return newDraft(artifact, op, desc, inputs), nil
}

// AdjustCDPParams covers deposit, withdraw, mint and burn against an
// existing position.
type AdjustCDPParams struct {
	OwnerAddress string
	Asset        string
	Ref          OutRef
	Amount       string // decimal string, smallest unit
}

// cdpAdjust is the shared orchestration for the four single-amount CDP
// mutations. They resolve the same record set and differ only in the
// assembly parameters and description.
func (c *Client) cdpAdjust(ctx context.Context, op, amountField, descVerb string, p AdjustCDPParams) (*Draft, error) {
	asm, err := c.requireAssembler()
	if err != nil {
		return nil, err
	}
	cred, err := address.Canonical(p.OwnerAddress)
	if err != nil {
		return nil, err
	}
	amount, err := parsePositiveAmount(op, amountField, p.Amount)
	if err != nil {
		return nil, err
	}

	var (
		common      commonRecords
		st          *datum.IAssetState
		registryRec indexer.Record
		cdpRec      indexer.Record
	)
	g, gctx := errgroup.WithContext(ctx)
	c.addCommon(g, gctx, &common)
	g.Go(func() error {
		s, rec, err := c.resolveIAsset(gctx, p.Asset)
		st, registryRec = s, rec
		return err
	})
	g.Go(func() error {
		_, rec, err := c.resolveCDPByRef(gctx, cred, p.Asset, p.Ref)
		cdpRec = rec
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := requireLive(op, st); err != nil {
		return nil, err
	}
	// Adjustments settle interest, so the interest source must resolve;
	// zero is never substituted here.
	priceRec, interestRec, err := c.resolveOracles(ctx, st)
	if err != nil {
		return nil, err
	}

	inputs := map[string]string{
		"owner":     cred,
		"asset":     p.Asset,
		"ref":       p.Ref.String(),
		amountField: amount.String(),
	}
	artifact, err := asm.Complete(ctx, &AssemblyRequest{
		Operation:    op,
		OwnerAddress: p.OwnerAddress,
		ChainTimeMs:  common.tip.TimeMs,
		Records: []ResolvedRecord{
			{Role: RoleInput, Kind: "cdp", Record: cdpRec},
			{Role: RoleReference, Kind: "iasset", Record: registryRec},
			{Role: RoleReference, Kind: "price-oracle", Record: priceRec},
			{Role: RoleReference, Kind: "interest-oracle", Record: interestRec},
			{Role: RoleReference, Kind: "governance", Record: common.gov},
			{Role: RoleInput, Kind: "collector", Record: common.collector},
		},
		Params: inputs,
	})
	if err != nil {
		return nil, err
	}

	desc := fmt.Sprintf("%s %s units on %s CDP %s", descVerb, amount, p.Asset, p.Ref)
	return newDraft(artifact, op, desc, inputs), nil
}

// DepositCDP drafts a collateral deposit.
func (c *Client) DepositCDP(ctx context.Context, p AdjustCDPParams) (*Draft, error) {
	return c.cdpAdjust(ctx, "deposit_cdp", "deposit_amount", "Deposit", p)
}

// WithdrawCDP drafts a collateral withdrawal.
func (c *Client) WithdrawCDP(ctx context.Context, p AdjustCDPParams) (*Draft, error) {
	return c.cdpAdjust(ctx, "withdraw_cdp", "withdraw_amount", "Withdraw", p)
}

// MintCDP drafts minting additional iAsset against the position.
func (c *Client) MintCDP(ctx context.Context, p AdjustCDPParams) (*Draft, error) {
	return c.cdpAdjust(ctx, "mint_cdp", "mint_amount", "Mint", p)
}

// BurnCDP drafts burning iAsset to reduce the position's debt.
func (c *Client) BurnCDP(ctx context.Context, p AdjustCDPParams) (*Draft, error) {
	return c.cdpAdjust(ctx, "burn_cdp", "burn_amount", "Burn", p)
}

// CloseCDPParams closes a position, repaying all debt and reclaiming all
// collateral.
type CloseCDPParams struct {
	OwnerAddress string
	Asset        string
	Ref          OutRef
}

// CloseCDP drafts a full close of the position.
func (c *Client) CloseCDP(ctx context.Context, p CloseCDPParams) (*Draft, error) {
	const op = "close_cdp"

	asm, err := c.requireAssembler()
	if err != nil {
		return nil, err
	}
	cred, err := address.Canonical(p.OwnerAddress)
	if err != nil {
		return nil, err
	}

	var (
		common      commonRecords
		st          *datum.IAssetState
		registryRec indexer.Record
		cdpRec      indexer.Record
	)
	g, gctx := errgroup.WithContext(ctx)
	c.addCommon(g, gctx, &common)
	g.Go(func() error {
		s, rec, err := c.resolveIAsset(gctx, p.Asset)
		st, registryRec = s, rec
		return err
	})
	g.Go(func() error {
		_, rec, err := c.resolveCDPByRef(gctx, cred, p.Asset, p.Ref)
		cdpRec = rec
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := requireLive(op, st); err != nil {
		return nil, err
	}
	_, interestRec, err := c.resolveOracles(ctx, st)
	if err != nil {
		return nil, err
	}

	inputs := map[string]string{"owner": cred, "asset": p.Asset, "ref": p.Ref.String()}
	artifact, err := asm.Complete(ctx, &AssemblyRequest{
		Operation:    op,
		OwnerAddress: p.OwnerAddress,
		ChainTimeMs:  common.tip.TimeMs,
		Records: []ResolvedRecord{
			{Role: RoleInput, Kind: "cdp", Record: cdpRec},
			{Role: RoleReference, Kind: "iasset", Record: registryRec},
			{Role: RoleReference, Kind: "interest-oracle", Record: interestRec},
			{Role: RoleReference, Kind: "governance", Record: common.gov},
			{Role: RoleInput, Kind: "collector", Record: common.collector},
		},
		Params: inputs,
	})
	if err != nil {
		return nil, err
	}

	desc := fmt.Sprintf("Close %s CDP %s, repaying all debt", p.Asset, p.Ref)
	return newDraft(artifact, op, desc, inputs), nil
}

// LiquidateCDPParams liquidates an undercollateralized position through the
// asset's stability pool.
type LiquidateCDPParams struct {
	OwnerAddress string // the liquidator
	Asset        string
	Ref          OutRef // the position to liquidate (any owner)
}

// LiquidateCDP drafts a liquidation.
func (c *Client) LiquidateCDP(ctx context.Context, p LiquidateCDPParams) (*Draft, error) {
	const op = "liquidate_cdp"

	asm, err := c.requireAssembler()
	if err != nil {
		return nil, err
	}
	if _, err := address.Canonical(p.OwnerAddress); err != nil {
		return nil, err
	}

	var (
		common      commonRecords
		st          *datum.IAssetState
		registryRec indexer.Record
		cdpRec      indexer.Record
		poolRec     indexer.Record
	)
	g, gctx := errgroup.WithContext(ctx)
	c.addCommon(g, gctx, &common)
	g.Go(func() error {
		s, rec, err := c.resolveIAsset(gctx, p.Asset)
		st, registryRec = s, rec
		return err
	})
	g.Go(func() error {
		// Liquidation targets any owner's position; only location matters.
		rec, err := c.locateCDPRecord(gctx, p.Asset, p.Ref)
		cdpRec = rec
		return err
	})
	g.Go(func() error {
		_, rec, err := c.resolveStabilityPool(gctx, p.Asset)
		poolRec = rec
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := requireLive(op, st); err != nil {
		return nil, err
	}
	priceRec, interestRec, err := c.resolveOracles(ctx, st)
	if err != nil {
		return nil, err
	}

	inputs := map[string]string{"asset": p.Asset, "ref": p.Ref.String()}
	artifact, err := asm.Complete(ctx, &AssemblyRequest{
		Operation:    op,
		OwnerAddress: p.OwnerAddress,
		ChainTimeMs:  common.tip.TimeMs,
		Records: []ResolvedRecord{
			{Role: RoleInput, Kind: "cdp", Record: cdpRec},
			{Role: RoleInput, Kind: "stability-pool", Record: poolRec},
			{Role: RoleReference, Kind: "iasset", Record: registryRec},
			{Role: RoleReference, Kind: "price-oracle", Record: priceRec},
			{Role: RoleReference, Kind: "interest-oracle", Record: interestRec},
			{Role: RoleReference, Kind: "governance", Record: common.gov},
			{Role: RoleInput, Kind: "collector", Record: common.collector},
		},
		Params: inputs,
	})
	if err != nil {
		return nil, err
	}

	desc := fmt.Sprintf("Liquidate %s CDP %s through the stability pool", p.Asset, p.Ref)
	return newDraft(artifact, op, desc, inputs), nil
}

// RedeemCDPParams redeems iAsset against one or more positions.
type RedeemCDPParams struct {
	OwnerAddress string
	Asset        string
	Amount       string   // iAsset amount to redeem, smallest unit
	Refs         []OutRef // positions to redeem against
}

// RedeemCDP drafts a redemption.
func (c *Client) RedeemCDP(ctx context.Context, p RedeemCDPParams) (*Draft, error) {
	const op = "redeem_cdp"

	asm, err := c.requireAssembler()
	if err != nil {
		return nil, err
	}
	cred, err := address.Canonical(p.OwnerAddress)
	if err != nil {
		return nil, err
	}
	amount, err := parsePositiveAmount(op, "redeem_amount", p.Amount)
	if err != nil {
		return nil, err
	}
	if len(p.Refs) == 0 {
		return nil, &PreconditionError{Op: op, Reason: "empty position reference set"}
	}

	var (
		common      commonRecords
		st          *datum.IAssetState
		registryRec indexer.Record
		cdpRecs     = make([]indexer.Record, len(p.Refs))
	)
	g, gctx := errgroup.WithContext(ctx)
	c.addCommon(g, gctx, &common)
	g.Go(func() error {
		s, rec, err := c.resolveIAsset(gctx, p.Asset)
		st, registryRec = s, rec
		return err
	})
	for i, ref := range p.Refs {
		g.Go(func() error {
			rec, err := c.locateCDPRecord(gctx, p.Asset, ref)
			cdpRecs[i] = rec
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := requireLive(op, st); err != nil {
		return nil, err
	}
	priceRec, interestRec, err := c.resolveOracles(ctx, st)
	if err != nil {
		return nil, err
	}

	records := []ResolvedRecord{
		{Role: RoleReference, Kind: "iasset", Record: registryRec},
		{Role: RoleReference, Kind: "price-oracle", Record: priceRec},
		{Role: RoleReference, Kind: "interest-oracle", Record: interestRec},
		{Role: RoleReference, Kind: "governance", Record: common.gov},
		{Role: RoleInput, Kind: "collector", Record: common.collector},
	}
	for _, rec := range cdpRecs {
		records = append(records, ResolvedRecord{Role: RoleInput, Kind: "cdp", Record: rec})
	}

	inputs := map[string]string{
		"owner":         cred,
		"asset":         p.Asset,
		"redeem_amount": amount.String(),
		"refs":          refsString(p.Refs),
	}
	artifact, err := asm.Complete(ctx, &AssemblyRequest{
		Operation:    op,
		OwnerAddress: p.OwnerAddress,
		ChainTimeMs:  common.tip.TimeMs,
		Records:      records,
		Params:       inputs,
	})
	if err != nil {
		return nil, err
	}

	desc := fmt.Sprintf("Redeem %s %s units against %d position(s)", amount, p.Asset, len(p.Refs))
	return newDraft(artifact, op, desc, inputs), nil
}

// MergeCDPsParams merges several of the owner's positions into one.
type MergeCDPsParams struct {
	OwnerAddress string
	Asset        string
	Refs         []OutRef
}

// MergeCDPs drafts a merge of two or more positions.
func (c *Client) MergeCDPs(ctx context.Context, p MergeCDPsParams) (*Draft, error) {
	const op = "merge_cdps"

	asm, err := c.requireAssembler()
	if err != nil {
		return nil, err
	}
	cred, err := address.Canonical(p.OwnerAddress)
	if err != nil {
		return nil, err
	}
	if len(p.Refs) < 2 {
		return nil, &PreconditionError{Op: op, Reason: fmt.Sprintf("merge needs at least 2 position references, got %d", len(p.Refs))}
	}

	var (
		common      commonRecords
		st          *datum.IAssetState
		registryRec indexer.Record
		cdpRecs     = make([]indexer.Record, len(p.Refs))
	)
	g, gctx := errgroup.WithContext(ctx)
	c.addCommon(g, gctx, &common)
	g.Go(func() error {
		s, rec, err := c.resolveIAsset(gctx, p.Asset)
		st, registryRec = s, rec
		return err
	})
	for i, ref := range p.Refs {
		g.Go(func() error {
			_, rec, err := c.resolveCDPByRef(gctx, cred, p.Asset, ref)
			cdpRecs[i] = rec
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := requireLive(op, st); err != nil {
		return nil, err
	}
	_, interestRec, err := c.resolveOracles(ctx, st)
	if err != nil {
		return nil, err
	}

	records := []ResolvedRecord{
		{Role: RoleReference, Kind: "iasset", Record: registryRec},
		{Role: RoleReference, Kind: "interest-oracle", Record: interestRec},
		{Role: RoleReference, Kind: "governance", Record: common.gov},
		{Role: RoleInput, Kind: "collector", Record: common.collector},
	}
	for _, rec := range cdpRecs {
		records = append(records, ResolvedRecord{Role: RoleInput, Kind: "cdp", Record: rec})
	}

	inputs := map[string]string{"owner": cred, "asset": p.Asset, "refs": refsString(p.Refs)}
	artifact, err := asm.Complete(ctx, &AssemblyRequest{
		Operation:    op,
		OwnerAddress: p.OwnerAddress,
		ChainTimeMs:  common.tip.TimeMs,
		Records:      records,
		Params:       inputs,
	})
	if err != nil {
		return nil, err
	}

	desc := fmt.Sprintf("Merge %d %s CDPs into one position", len(p.Refs), p.Asset)
	return newDraft(artifact, op, desc, inputs), nil
}

// locateCDPRecord finds a CDP by its exact ledger location without an
// ownership check. Liquidations and redemptions act on other owners'
// positions.
func (c *Client) locateCDPRecord(ctx context.Context, asset string, ref OutRef) (indexer.Record, error) {
	var pos *datum.CDPPosition
	rec, err := locator.Locate(ctx, c.chain, locator.Query{
		Kind:     "cdp",
		Selector: ref.String(),
		Address:  c.dep.CDPAddress,
		Unit:     c.dep.CDPAuthUnit,
		Policy:   locator.PerAsset,
		Match: func(rec indexer.Record) (bool, error) {
			if rec.TxID != ref.TxHash || rec.OutputIndex != ref.OutputIndex {
				return false, nil
			}
			p, err := datum.DecodeCDP(rec.StructuredData)
			if err != nil {
				if datum.IsSchemaMismatch(err) {
					return false, nil
				}
				return false, err
			}
			pos = p
			return true, nil
		},
	})
	if err != nil {
		return indexer.Record{}, err
	}
	if asset != "" && pos.AssetName != asset {
		return indexer.Record{}, &PreconditionError{
			Op:     "resolve cdp",
			Reason: fmt.Sprintf("position %s holds %s, not %s", ref, pos.AssetName, asset),
		}
	}
	return rec, nil
}

func refsString(refs []OutRef) string {
	s := ""
	for i, r := range refs {
		if i > 0 {
			s += ","
		}
		s += r.String()
	}
	return s
}
