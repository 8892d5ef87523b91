package protocol

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/sync/errgroup"

	"github.com/lagoonfi/lagoon-go-sdk/protocol/address"
	"github.com/lagoonfi/lagoon-go-sdk/protocol/datum"
	"github.com/lagoonfi/lagoon-go-sdk/protocol/indexer"
	"github.com/lagoonfi/lagoon-go-sdk/protocol/locator"
)

// AdjustStabilityPoolParams deposits into or withdraws from the asset's
// stability pool. Amount is signed: positive deposits, negative withdraws.
type AdjustStabilityPoolParams struct {
	OwnerAddress string
	Asset        string
	Amount       string
}

// AdjustStabilityPool drafts a stability pool deposit or withdrawal. The
// first deposit creates the owner's account; withdrawals need an existing
// account holding at least the requested amount.
func (c *Client) AdjustStabilityPool(ctx context.Context, p AdjustStabilityPoolParams) (*Draft, error) {
	const op = "adjust_stability_pool"

	asm, err := c.requireAssembler()
	if err != nil {
		return nil, err
	}
	cred, err := address.Canonical(p.OwnerAddress)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(op, "amount", p.Amount)
	if err != nil {
		return nil, err
	}
	if amount.Sign() == 0 {
		return nil, &PreconditionError{Op: op, Reason: "amount must be non-zero"}
	}

	var (
		common      commonRecords
		registryRec indexer.Record
		poolRec     indexer.Record
		account     *datum.StabilityPoolAccount
		accountRec  indexer.Record
		haveAccount bool
	)
	g, gctx := errgroup.WithContext(ctx)
	c.addCommon(g, gctx, &common)
	g.Go(func() error {
		_, rec, err := c.resolveIAsset(gctx, p.Asset)
		registryRec = rec
		return err
	})
	g.Go(func() error {
		_, rec, err := c.resolveStabilityPool(gctx, p.Asset)
		poolRec = rec
		return err
	})
	g.Go(func() error {
		acct, rec, err := c.StabilityPoolAccountFor(gctx, p.OwnerAddress, p.Asset)
		if err != nil {
			var nf *locator.NotFoundError
			if errors.As(err, &nf) {
				return nil
			}
			return err
		}
		account, accountRec, haveAccount = acct, rec, true
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if amount.Sign() < 0 {
		if !haveAccount {
			return nil, &locator.NotFoundError{
				Kind:     "stability-pool-account",
				Selector: fmt.Sprintf("%s/%s", cred, p.Asset),
			}
		}
		withdraw := new(big.Int).Neg(amount)
		if account.Deposit.Cmp(withdraw) < 0 {
			return nil, &PreconditionError{
				Op:     op,
				Reason: fmt.Sprintf("withdrawal of %s exceeds pool deposit of %s", withdraw, account.Deposit),
			}
		}
	}

	records := []ResolvedRecord{
		{Role: RoleInput, Kind: "stability-pool", Record: poolRec},
		{Role: RoleReference, Kind: "iasset", Record: registryRec},
		{Role: RoleReference, Kind: "governance", Record: common.gov},
		{Role: RoleInput, Kind: "collector", Record: common.collector},
	}
	if haveAccount {
		records = append(records, ResolvedRecord{Role: RoleInput, Kind: "stability-pool-account", Record: accountRec})
	}

	inputs := map[string]string{"owner": cred, "asset": p.Asset, "amount": amount.String()}
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

	verb := "Deposit"
	shown := amount
	if amount.Sign() < 0 {
		verb = "Withdraw"
		shown = new(big.Int).Neg(amount)
	}
	desc := fmt.Sprintf("%s %s units in the %s stability pool", verb, shown, p.Asset)
	return newDraft(artifact, op, desc, inputs), nil
}

// CloseStabilityPoolAccountParams withdraws everything and retires the
// owner's account.
type CloseStabilityPoolAccountParams struct {
	OwnerAddress string
	Asset        string
}

// CloseStabilityPoolAccount drafts a full withdrawal and account close.
func (c *Client) CloseStabilityPoolAccount(ctx context.Context, p CloseStabilityPoolAccountParams) (*Draft, error) {
	const op = "close_stability_pool_account"

	asm, err := c.requireAssembler()
	if err != nil {
		return nil, err
	}
	cred, err := address.Canonical(p.OwnerAddress)
	if err != nil {
		return nil, err
	}

	var (
		common     commonRecords
		poolRec    indexer.Record
		accountRec indexer.Record
	)
	g, gctx := errgroup.WithContext(ctx)
	c.addCommon(g, gctx, &common)
	g.Go(func() error {
		_, rec, err := c.resolveStabilityPool(gctx, p.Asset)
		poolRec = rec
		return err
	})
	g.Go(func() error {
		_, rec, err := c.StabilityPoolAccountFor(gctx, p.OwnerAddress, p.Asset)
		accountRec = rec
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	inputs := map[string]string{"owner": cred, "asset": p.Asset}
	artifact, err := asm.Complete(ctx, &AssemblyRequest{
		Operation:    op,
		OwnerAddress: p.OwnerAddress,
		ChainTimeMs:  common.tip.TimeMs,
		Records: []ResolvedRecord{
			{Role: RoleInput, Kind: "stability-pool", Record: poolRec},
			{Role: RoleInput, Kind: "stability-pool-account", Record: accountRec},
			{Role: RoleReference, Kind: "governance", Record: common.gov},
			{Role: RoleInput, Kind: "collector", Record: common.collector},
		},
		Params: inputs,
	})
	if err != nil {
		return nil, err
	}

	desc := fmt.Sprintf("Close the %s stability pool account, withdrawing the full deposit", p.Asset)
	return newDraft(artifact, op, desc, inputs), nil
}

// AdjustStakeParams stakes or unstakes governance tokens. Amount is signed:
// positive stakes, negative unstakes.
type AdjustStakeParams struct {
	OwnerAddress string
	Amount       string
}

// AdjustStake drafts a staking adjustment. The first stake creates the
// position; unstaking needs an existing position holding at least the
// requested amount.
func (c *Client) AdjustStake(ctx context.Context, p AdjustStakeParams) (*Draft, error) {
	const op = "adjust_stake"

	asm, err := c.requireAssembler()
	if err != nil {
		return nil, err
	}
	cred, err := address.Canonical(p.OwnerAddress)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(op, "amount", p.Amount)
	if err != nil {
		return nil, err
	}
	if amount.Sign() == 0 {
		return nil, &PreconditionError{Op: op, Reason: "amount must be non-zero"}
	}

	var (
		common       commonRecords
		managerRec   indexer.Record
		position     *datum.StakingPosition
		positionRec  indexer.Record
		havePosition bool
	)
	g, gctx := errgroup.WithContext(ctx)
	c.addCommon(g, gctx, &common)
	g.Go(func() error {
		_, rec, err := c.resolveStakingManager(gctx)
		managerRec = rec
		return err
	})
	g.Go(func() error {
		pos, rec, err := c.StakingPositionFor(gctx, p.OwnerAddress)
		if err != nil {
			var nf *locator.NotFoundError
			if errors.As(err, &nf) {
				return nil
			}
			return err
		}
		position, positionRec, havePosition = pos, rec, true
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if amount.Sign() < 0 {
		if !havePosition {
			return nil, &locator.NotFoundError{Kind: "staking-position", Selector: cred}
		}
		unstake := new(big.Int).Neg(amount)
		if position.Staked.Cmp(unstake) < 0 {
			return nil, &PreconditionError{
				Op:     op,
				Reason: fmt.Sprintf("unstake of %s exceeds staked balance of %s", unstake, position.Staked),
			}
		}
	}

	records := []ResolvedRecord{
		{Role: RoleInput, Kind: "staking-manager", Record: managerRec},
		{Role: RoleReference, Kind: "governance", Record: common.gov},
		{Role: RoleInput, Kind: "collector", Record: common.collector},
	}
	if havePosition {
		records = append(records, ResolvedRecord{Role: RoleInput, Kind: "staking-position", Record: positionRec})
	}

	inputs := map[string]string{"owner": cred, "amount": amount.String()}
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

	verb := "Stake"
	shown := amount
	if amount.Sign() < 0 {
		verb = "Unstake"
		shown = new(big.Int).Neg(amount)
	}
	desc := fmt.Sprintf("%s %s governance tokens", verb, shown)
	return newDraft(artifact, op, desc, inputs), nil
}

// CreateRedemptionPositionParams opens a standing offer to absorb
// redemptions of an asset at a premium.
type CreateRedemptionPositionParams struct {
	OwnerAddress string
	Asset        string
	Deposit      string // collateral units, decimal string
	PremiumBps   int64
}

// CreateRedemptionPosition drafts a new redemption position.
func (c *Client) CreateRedemptionPosition(ctx context.Context, p CreateRedemptionPositionParams) (*Draft, error) {
	const op = "create_redemption_position"

	asm, err := c.requireAssembler()
	if err != nil {
		return nil, err
	}
	cred, err := address.Canonical(p.OwnerAddress)
	if err != nil {
		return nil, err
	}
	deposit, err := parsePositiveAmount(op, "deposit", p.Deposit)
	if err != nil {
		return nil, err
	}
	if p.PremiumBps < 0 {
		return nil, &PreconditionError{Op: op, Reason: fmt.Sprintf("premium must not be negative, got %d bps", p.PremiumBps)}
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

	// A standing redemption offer only absorbs CDP redemptions, so it needs
	// a live asset like the CDP operations do.
	if err := requireLive(op, st); err != nil {
		return nil, err
	}

	inputs := map[string]string{
		"owner":       cred,
		"asset":       p.Asset,
		"deposit":     deposit.String(),
		"premium_bps": fmt.Sprintf("%d", p.PremiumBps),
	}
	artifact, err := asm.Complete(ctx, &AssemblyRequest{
		Operation:    op,
		OwnerAddress: p.OwnerAddress,
		ChainTimeMs:  common.tip.TimeMs,
		Records: []ResolvedRecord{
			{Role: RoleReference, Kind: "iasset", Record: registryRec},
			{Role: RoleReference, Kind: "governance", Record: common.gov},
			{Role: RoleInput, Kind: "collector", Record: common.collector},
		},
		Params: inputs,
	})
	if err != nil {
		return nil, err
	}

	desc := fmt.Sprintf("Offer %s collateral units for %s redemptions at a %d bps premium", deposit, p.Asset, p.PremiumBps)
	return newDraft(artifact, op, desc, inputs), nil
}

// CancelRedemptionPositionParams retires one of the owner's redemption
// positions.
type CancelRedemptionPositionParams struct {
	OwnerAddress string
	Ref          OutRef
}

// CancelRedemptionPosition drafts the cancellation, returning the deposit.
func (c *Client) CancelRedemptionPosition(ctx context.Context, p CancelRedemptionPositionParams) (*Draft, error) {
	const op = "cancel_redemption_position"

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
		positionRec indexer.Record
	)
	g, gctx := errgroup.WithContext(ctx)
	c.addCommon(g, gctx, &common)
	g.Go(func() error {
		rec, err := c.resolveRedemptionByRef(gctx, cred, p.Ref)
		positionRec = rec
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	inputs := map[string]string{"owner": cred, "ref": p.Ref.String()}
	artifact, err := asm.Complete(ctx, &AssemblyRequest{
		Operation:    op,
		OwnerAddress: p.OwnerAddress,
		ChainTimeMs:  common.tip.TimeMs,
		Records: []ResolvedRecord{
			{Role: RoleInput, Kind: "redemption-position", Record: positionRec},
			{Role: RoleReference, Kind: "governance", Record: common.gov},
			{Role: RoleInput, Kind: "collector", Record: common.collector},
		},
		Params: inputs,
	})
	if err != nil {
		return nil, err
	}

	desc := fmt.Sprintf("Cancel redemption position %s and reclaim its deposit", p.Ref)
	return newDraft(artifact, op, desc, inputs), nil
}

// resolveRedemptionByRef locates a redemption position at an exact ledger
// location and checks ownership.
func (c *Client) resolveRedemptionByRef(ctx context.Context, ownerCred string, ref OutRef) (indexer.Record, error) {
	var pos *datum.RedemptionPosition
	rec, err := locator.Locate(ctx, c.chain, locator.Query{
		Kind:     "redemption-position",
		Selector: ref.String(),
		Address:  c.dep.RedemptionAddress,
		Unit:     c.dep.RedemptionUnit,
		Policy:   locator.PerAsset,
		Match: func(rec indexer.Record) (bool, error) {
			if rec.TxID != ref.TxHash || rec.OutputIndex != ref.OutputIndex {
				return false, nil
			}
			p, err := datum.DecodeRedemptionPosition(rec.StructuredData)
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
	if pos.Owner != ownerCred {
		return indexer.Record{}, &PreconditionError{
			Op:     "resolve redemption position",
			Reason: fmt.Sprintf("position %s is not owned by the requested credential", ref),
		}
	}
	return rec, nil
}
