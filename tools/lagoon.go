package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lagoonfi/lagoon-go-sdk/core"
	"github.com/lagoonfi/lagoon-go-sdk/protocol"
	"github.com/lagoonfi/lagoon-go-sdk/protocol/address"
	"github.com/lagoonfi/lagoon-go-sdk/protocol/indexer"
	"github.com/lagoonfi/lagoon-go-sdk/protocol/locator"
)

// LagoonTools returns the full tool catalog wired to the protocol client:
// read tools first, then the draft tools that require confirmation.
func LagoonTools(c *protocol.Client) []core.Tool {
	return append(LagoonReadTools(c), LagoonDraftTools(c)...)
}

// ─── result helpers ───

func okResult(data interface{}) *core.ToolResult {
	return &core.ToolResult{Success: true, Data: data}
}

// errResult converts a protocol error into the uniform failure envelope.
// Tools report bad requests through the envelope, not as Go errors, so the
// model can read the category and adjust.
func errResult(err error) (*core.ToolResult, error) {
	return &core.ToolResult{Success: false, Error: errorMessage(err)}, nil
}

func errorMessage(err error) string {
	var (
		notFound  *locator.NotFoundError
		ambiguous *locator.AmbiguousError
		badAddr   *address.InvalidError
		badRef    *protocol.InvalidRefError
		precond   *protocol.PreconditionError
		config    *protocol.ConfigError
		upstream  *indexer.UpstreamError
		assembly  *protocol.AssemblyError
	)
	switch {
	case errors.As(err, &notFound):
		return "not_found: " + err.Error()
	case errors.As(err, &ambiguous):
		return "ambiguous: " + err.Error()
	case errors.As(err, &badAddr), errors.As(err, &badRef):
		return "invalid_selector: " + err.Error()
	case errors.As(err, &precond):
		return "precondition_failed: " + err.Error()
	case errors.As(err, &config):
		return "configuration_error: " + err.Error()
	case errors.As(err, &upstream):
		if upstream.Timeout {
			return "upstream_timeout: " + err.Error()
		}
		return "upstream_error: " + err.Error()
	case errors.As(err, &assembly):
		if assembly.Timeout {
			return "upstream_timeout: " + err.Error()
		}
		return "upstream_error: " + err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "upstream_timeout: " + err.Error()
	default:
		return err.Error()
	}
}

func decodeInput(params *core.ToolParams, v interface{}) error {
	if len(params.Input) == 0 {
		return nil
	}
	if err := json.Unmarshal(params.Input, v); err != nil {
		return fmt.Errorf("invalid tool input: %w", err)
	}
	return nil
}

func parseRefs(raw []string) ([]protocol.OutRef, error) {
	refs := make([]protocol.OutRef, len(raw))
	for i, s := range raw {
		ref, err := protocol.ParseOutRef(s)
		if err != nil {
			return nil, err
		}
		refs[i] = ref
	}
	return refs, nil
}

// ─── read tools ───

type assetInput struct {
	core.BaseInput
	Asset string `json:"asset"`
}

type ownerInput struct {
	core.BaseInput
	Owner string `json:"owner"`
}

type ownerAssetInput struct {
	core.BaseInput
	Owner string `json:"owner"`
	Asset string `json:"asset"`
}

type listCDPsInput struct {
	core.BaseInput
	Owner  string `json:"owner"`
	Asset  string `json:"asset"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// LagoonReadTools returns the read-only tools. None of them require
// confirmation or the assembler endpoint.
func LagoonReadTools(c *protocol.Client) []core.Tool {
	ownerProp := StringProperty("Owner as a payment credential (56 hex chars), a bech32 address (addr1.../addr_test1...), or a hex-encoded address")
	assetProp := StringProperty("iAsset symbol, e.g. 'iUSD'")

	return []core.Tool{
		New("list_assets").
			Description("List every iAsset the protocol supports, with oracle references and collateral ratio requirements. Delisted assets are included and flagged.").
			Schema(BuildSchemaWithThought(map[string]interface{}{}, false)).
			Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
				assets, err := c.ListAssets(ctx)
				if err != nil {
					return errResult(err)
				}
				return okResult(map[string]interface{}{"assets": assets}), nil
			}).
			Build(),

		New("get_asset").
			Description("Look up one iAsset by symbol.").
			Schema(BuildSchemaWithThought(map[string]interface{}{
				"asset": assetProp,
			}, false, "asset")).
			Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
				var in assetInput
				if err := decodeInput(params, &in); err != nil {
					return errResult(err)
				}
				asset, err := c.GetAsset(ctx, in.Asset)
				if err != nil {
					return errResult(err)
				}
				return okResult(asset), nil
			}).
			Build(),

		New("get_asset_price").
			Description("Get the current oracle price for an iAsset, in 1e6-scaled lovelace per smallest unit. For delisted assets this returns the frozen settlement price.").
			Schema(BuildSchemaWithThought(map[string]interface{}{
				"asset": assetProp,
			}, false, "asset")).
			Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
				var in assetInput
				if err := decodeInput(params, &in); err != nil {
					return errResult(err)
				}
				price, err := c.AssetPriceFor(ctx, in.Asset)
				if err != nil {
					return errResult(err)
				}
				return okResult(price), nil
			}).
			Build(),

		New("get_interest_rate").
			Description("Get the current borrow interest state for an iAsset: annual rate in parts per million and the cumulative interest index.").
			Schema(BuildSchemaWithThought(map[string]interface{}{
				"asset": assetProp,
			}, false, "asset")).
			Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
				var in assetInput
				if err := decodeInput(params, &in); err != nil {
					return errResult(err)
				}
				rate, err := c.InterestRateFor(ctx, in.Asset)
				if err != nil {
					return errResult(err)
				}
				return okResult(rate), nil
			}).
			Build(),

		New("get_cdps").
			Description("List an owner's collateralized debt positions, optionally filtered by asset. Returns each position's ledger reference, minted debt and collateral.").
			Schema(BuildSchemaWithThought(map[string]interface{}{
				"owner":  ownerProp,
				"asset":  StringProperty("Optional: filter by iAsset symbol"),
				"limit":  IntegerProperty("Optional: maximum positions to return"),
				"offset": IntegerProperty("Optional: positions to skip, for paging"),
			}, false, "owner")).
			Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
				var in listCDPsInput
				if err := decodeInput(params, &in); err != nil {
					return errResult(err)
				}
				cdps, err := c.ListCDPs(ctx, in.Owner, in.Asset, in.Limit, in.Offset)
				if err != nil {
					return errResult(err)
				}
				return okResult(map[string]interface{}{"cdps": cdps}), nil
			}).
			Build(),

		New("analyze_cdp_health").
			Description("Analyze the health of every CDP an owner holds: collateral ratio with accrued interest, and a tier of safe, warning, at-risk or liquidatable.").
			Schema(BuildSchemaWithThought(map[string]interface{}{
				"owner": ownerProp,
			}, false, "owner")).
			Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
				var in ownerInput
				if err := decodeInput(params, &in); err != nil {
					return errResult(err)
				}
				report, err := c.HealthByOwner(ctx, in.Owner)
				if err != nil {
					return errResult(err)
				}
				return okResult(report), nil
			}).
			Build(),

		New("get_stability_pool_account").
			Description("Get an owner's account in an asset's stability pool.").
			Schema(BuildSchemaWithThought(map[string]interface{}{
				"owner": ownerProp,
				"asset": assetProp,
			}, false, "owner", "asset")).
			Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
				var in ownerAssetInput
				if err := decodeInput(params, &in); err != nil {
					return errResult(err)
				}
				account, rec, err := c.StabilityPoolAccountFor(ctx, in.Owner, in.Asset)
				if err != nil {
					return errResult(err)
				}
				return okResult(map[string]interface{}{
					"account": account,
					"ref":     protocol.OutRef{TxHash: rec.TxID, OutputIndex: rec.OutputIndex},
				}), nil
			}).
			Build(),

		New("get_staking_position").
			Description("Get an owner's governance-token staking position.").
			Schema(BuildSchemaWithThought(map[string]interface{}{
				"owner": ownerProp,
			}, false, "owner")).
			Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
				var in ownerInput
				if err := decodeInput(params, &in); err != nil {
					return errResult(err)
				}
				position, rec, err := c.StakingPositionFor(ctx, in.Owner)
				if err != nil {
					return errResult(err)
				}
				return okResult(map[string]interface{}{
					"position": position,
					"ref":      protocol.OutRef{TxHash: rec.TxID, OutputIndex: rec.OutputIndex},
				}), nil
			}).
			Build(),

		New("get_redemption_positions").
			Description("List an owner's standing redemption positions.").
			Schema(BuildSchemaWithThought(map[string]interface{}{
				"owner": ownerProp,
			}, false, "owner")).
			Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
				var in ownerInput
				if err := decodeInput(params, &in); err != nil {
					return errResult(err)
				}
				positions, err := c.RedemptionPositionsFor(ctx, in.Owner)
				if err != nil {
					return errResult(err)
				}
				return okResult(map[string]interface{}{"positions": positions}), nil
			}).
			Build(),

		New("get_protocol_params").
			Description("Get the ledger protocol parameters (fees, size limits). Cached for five minutes.").
			Schema(BuildSchemaWithThought(map[string]interface{}{}, false)).
			Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
				p, err := c.ProtocolParams(ctx)
				if err != nil {
					return errResult(err)
				}
				return okResult(p), nil
			}).
			Build(),
	}
}

// ─── draft tools ───

type openCDPInput struct {
	core.BaseInput
	Owner            string `json:"owner"`
	Asset            string `json:"asset"`
	CollateralAmount string `json:"collateral_amount"`
	MintAmount       string `json:"mint_amount"`
}

type adjustCDPInput struct {
	core.BaseInput
	Owner  string `json:"owner"`
	Asset  string `json:"asset"`
	Ref    string `json:"ref"`
	Amount string `json:"amount"`
}

type cdpRefInput struct {
	core.BaseInput
	Owner string `json:"owner"`
	Asset string `json:"asset"`
	Ref   string `json:"ref"`
}

type redeemInput struct {
	core.BaseInput
	Owner  string   `json:"owner"`
	Asset  string   `json:"asset"`
	Amount string   `json:"amount"`
	Refs   []string `json:"refs"`
}

type mergeInput struct {
	core.BaseInput
	Owner string   `json:"owner"`
	Asset string   `json:"asset"`
	Refs  []string `json:"refs"`
}

type poolAdjustInput struct {
	core.BaseInput
	Owner  string `json:"owner"`
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

type stakeInput struct {
	core.BaseInput
	Owner  string `json:"owner"`
	Amount string `json:"amount"`
}

type createRedemptionInput struct {
	core.BaseInput
	Owner      string `json:"owner"`
	Asset      string `json:"asset"`
	Deposit    string `json:"deposit"`
	PremiumBps int64  `json:"premium_bps"`
}

type cancelRedemptionInput struct {
	core.BaseInput
	Owner string `json:"owner"`
	Ref   string `json:"ref"`
}

// LagoonDraftTools returns the transaction-drafting tools. Every one
// requires user confirmation and produces an unsigned transaction; nothing
// here signs or submits.
func LagoonDraftTools(c *protocol.Client) []core.Tool {
	ownerProp := StringProperty("Owner as a payment credential (56 hex chars), a bech32 address, or a hex-encoded address")
	assetProp := StringProperty("iAsset symbol, e.g. 'iUSD'")
	refProp := StringProperty("Position reference as 'txhash#index', from get_cdps")
	refsProp := ArrayProperty("Position references as 'txhash#index'", StringProperty(""))

	// The single-amount CDP adjustments share input shape and handler plumbing.
	adjust := func(name, desc, summary string, call func(context.Context, protocol.AdjustCDPParams) (*protocol.Draft, error)) core.Tool {
		return New(name).
			Description(desc).
			Schema(BuildSchemaWithThought(map[string]interface{}{
				"owner":  ownerProp,
				"asset":  assetProp,
				"ref":    refProp,
				"amount": StringProperty("Amount as a decimal integer in the smallest unit"),
			}, true, "owner", "asset", "ref", "amount")).
			RequiresConfirmation(summary).
			Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
				var in adjustCDPInput
				if err := decodeInput(params, &in); err != nil {
					return errResult(err)
				}
				ref, err := protocol.ParseOutRef(in.Ref)
				if err != nil {
					return errResult(err)
				}
				draft, err := call(ctx, protocol.AdjustCDPParams{
					OwnerAddress: in.Owner,
					Asset:        in.Asset,
					Ref:          ref,
					Amount:       in.Amount,
				})
				if err != nil {
					return errResult(err)
				}
				return okResult(draft), nil
			}).
			Build()
	}

	return []core.Tool{
		New("open_cdp").
			Description("Draft a transaction opening a new CDP: lock collateral and mint iAsset against it. Returns an unsigned transaction. Requires confirmation.").
			Schema(BuildSchemaWithThought(map[string]interface{}{
				"owner":             ownerProp,
				"asset":             assetProp,
				"collateral_amount": StringProperty("Collateral to lock, in lovelace, as a decimal integer"),
				"mint_amount":       StringProperty("iAsset to mint, in the smallest unit, as a decimal integer"),
			}, true, "owner", "asset", "collateral_amount", "mint_amount")).
			RequiresConfirmation("Open a {{.asset}} CDP with {{.collateral_amount}} lovelace collateral, minting {{.mint_amount}}").
			Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
				var in openCDPInput
				if err := decodeInput(params, &in); err != nil {
					return errResult(err)
				}
				draft, err := c.OpenCDP(ctx, protocol.OpenCDPParams{
					OwnerAddress:     in.Owner,
					Asset:            in.Asset,
					CollateralAmount: in.CollateralAmount,
					MintAmount:       in.MintAmount,
				})
				if err != nil {
					return errResult(err)
				}
				return okResult(draft), nil
			}).
			Build(),

		adjust("deposit_cdp",
			"Draft a transaction adding collateral to an existing CDP. Requires confirmation.",
			"Deposit {{.amount}} lovelace into {{.asset}} CDP {{.ref}}",
			c.DepositCDP),
		adjust("withdraw_cdp",
			"Draft a transaction withdrawing collateral from a CDP. Requires confirmation.",
			"Withdraw {{.amount}} lovelace from {{.asset}} CDP {{.ref}}",
			c.WithdrawCDP),
		adjust("mint_cdp",
			"Draft a transaction minting additional iAsset against a CDP. Requires confirmation.",
			"Mint {{.amount}} {{.asset}} against CDP {{.ref}}",
			c.MintCDP),
		adjust("burn_cdp",
			"Draft a transaction burning iAsset to reduce a CDP's debt. Requires confirmation.",
			"Burn {{.amount}} {{.asset}} on CDP {{.ref}}",
			c.BurnCDP),

		New("close_cdp").
			Description("Draft a transaction closing a CDP: repay all debt plus accrued interest and reclaim the collateral. Requires confirmation.").
			Schema(BuildSchemaWithThought(map[string]interface{}{
				"owner": ownerProp,
				"asset": assetProp,
				"ref":   refProp,
			}, true, "owner", "asset", "ref")).
			RequiresConfirmation("Close {{.asset}} CDP {{.ref}}").
			Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
				var in cdpRefInput
				if err := decodeInput(params, &in); err != nil {
					return errResult(err)
				}
				ref, err := protocol.ParseOutRef(in.Ref)
				if err != nil {
					return errResult(err)
				}
				draft, err := c.CloseCDP(ctx, protocol.CloseCDPParams{
					OwnerAddress: in.Owner,
					Asset:        in.Asset,
					Ref:          ref,
				})
				if err != nil {
					return errResult(err)
				}
				return okResult(draft), nil
			}).
			Build(),

		New("liquidate_cdp").
			Description("Draft a transaction liquidating an undercollateralized CDP through the asset's stability pool. The position may belong to any owner. Requires confirmation.").
			Schema(BuildSchemaWithThought(map[string]interface{}{
				"owner": StringProperty("The liquidator's address or credential"),
				"asset": assetProp,
				"ref":   StringProperty("Reference of the position to liquidate, as 'txhash#index'"),
			}, true, "owner", "asset", "ref")).
			RequiresConfirmation("Liquidate {{.asset}} CDP {{.ref}}").
			Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
				var in cdpRefInput
				if err := decodeInput(params, &in); err != nil {
					return errResult(err)
				}
				ref, err := protocol.ParseOutRef(in.Ref)
				if err != nil {
					return errResult(err)
				}
				draft, err := c.LiquidateCDP(ctx, protocol.LiquidateCDPParams{
					OwnerAddress: in.Owner,
					Asset:        in.Asset,
					Ref:          ref,
				})
				if err != nil {
					return errResult(err)
				}
				return okResult(draft), nil
			}).
			Build(),

		New("redeem_cdp").
			Description("Draft a transaction redeeming iAsset for collateral against one or more positions. Requires confirmation.").
			Schema(BuildSchemaWithThought(map[string]interface{}{
				"owner":  ownerProp,
				"asset":  assetProp,
				"amount": StringProperty("iAsset amount to redeem, in the smallest unit, as a decimal integer"),
				"refs":   refsProp,
			}, true, "owner", "asset", "amount", "refs")).
			RequiresConfirmation("Redeem {{.amount}} {{.asset}} against the selected positions").
			Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
				var in redeemInput
				if err := decodeInput(params, &in); err != nil {
					return errResult(err)
				}
				refs, err := parseRefs(in.Refs)
				if err != nil {
					return errResult(err)
				}
				draft, err := c.RedeemCDP(ctx, protocol.RedeemCDPParams{
					OwnerAddress: in.Owner,
					Asset:        in.Asset,
					Amount:       in.Amount,
					Refs:         refs,
				})
				if err != nil {
					return errResult(err)
				}
				return okResult(draft), nil
			}).
			Build(),

		New("merge_cdps").
			Description("Draft a transaction merging two or more of the owner's CDPs in the same asset into a single position. Requires confirmation.").
			Schema(BuildSchemaWithThought(map[string]interface{}{
				"owner": ownerProp,
				"asset": assetProp,
				"refs":  refsProp,
			}, true, "owner", "asset", "refs")).
			RequiresConfirmation("Merge {{len .refs}} {{.asset}} CDPs into one").
			Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
				var in mergeInput
				if err := decodeInput(params, &in); err != nil {
					return errResult(err)
				}
				refs, err := parseRefs(in.Refs)
				if err != nil {
					return errResult(err)
				}
				draft, err := c.MergeCDPs(ctx, protocol.MergeCDPsParams{
					OwnerAddress: in.Owner,
					Asset:        in.Asset,
					Refs:         refs,
				})
				if err != nil {
					return errResult(err)
				}
				return okResult(draft), nil
			}).
			Build(),

		New("adjust_stability_pool").
			Description("Draft a stability pool deposit or withdrawal. Amount is signed: positive deposits iAsset into the pool, negative withdraws. Requires confirmation.").
			Schema(BuildSchemaWithThought(map[string]interface{}{
				"owner":  ownerProp,
				"asset":  assetProp,
				"amount": StringProperty("Signed amount as a decimal integer; positive deposits, negative withdraws"),
			}, true, "owner", "asset", "amount")).
			RequiresConfirmation("Adjust {{.asset}} stability pool deposit by {{.amount}}").
			Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
				var in poolAdjustInput
				if err := decodeInput(params, &in); err != nil {
					return errResult(err)
				}
				draft, err := c.AdjustStabilityPool(ctx, protocol.AdjustStabilityPoolParams{
					OwnerAddress: in.Owner,
					Asset:        in.Asset,
					Amount:       in.Amount,
				})
				if err != nil {
					return errResult(err)
				}
				return okResult(draft), nil
			}).
			Build(),

		New("close_stability_pool_account").
			Description("Draft a transaction withdrawing the full deposit and closing the owner's stability pool account. Requires confirmation.").
			Schema(BuildSchemaWithThought(map[string]interface{}{
				"owner": ownerProp,
				"asset": assetProp,
			}, true, "owner", "asset")).
			RequiresConfirmation("Close the {{.asset}} stability pool account").
			Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
				var in ownerAssetInput
				if err := decodeInput(params, &in); err != nil {
					return errResult(err)
				}
				draft, err := c.CloseStabilityPoolAccount(ctx, protocol.CloseStabilityPoolAccountParams{
					OwnerAddress: in.Owner,
					Asset:        in.Asset,
				})
				if err != nil {
					return errResult(err)
				}
				return okResult(draft), nil
			}).
			Build(),

		New("adjust_stake").
			Description("Draft a governance-token staking adjustment. Amount is signed: positive stakes, negative unstakes. Requires confirmation.").
			Schema(BuildSchemaWithThought(map[string]interface{}{
				"owner":  ownerProp,
				"amount": StringProperty("Signed amount as a decimal integer; positive stakes, negative unstakes"),
			}, true, "owner", "amount")).
			RequiresConfirmation("Adjust stake by {{.amount}} governance tokens").
			Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
				var in stakeInput
				if err := decodeInput(params, &in); err != nil {
					return errResult(err)
				}
				draft, err := c.AdjustStake(ctx, protocol.AdjustStakeParams{
					OwnerAddress: in.Owner,
					Amount:       in.Amount,
				})
				if err != nil {
					return errResult(err)
				}
				return okResult(draft), nil
			}).
			Build(),

		New("create_redemption_position").
			Description("Draft a transaction opening a standing redemption position: deposit collateral to absorb redemptions of an asset at a premium. Requires confirmation.").
			Schema(BuildSchemaWithThought(map[string]interface{}{
				"owner":       ownerProp,
				"asset":       assetProp,
				"deposit":     StringProperty("Collateral to deposit, in lovelace, as a decimal integer"),
				"premium_bps": IntegerProperty("Premium in basis points"),
			}, true, "owner", "asset", "deposit", "premium_bps")).
			RequiresConfirmation("Offer {{.deposit}} lovelace for {{.asset}} redemptions at {{.premium_bps}} bps").
			Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
				var in createRedemptionInput
				if err := decodeInput(params, &in); err != nil {
					return errResult(err)
				}
				draft, err := c.CreateRedemptionPosition(ctx, protocol.CreateRedemptionPositionParams{
					OwnerAddress: in.Owner,
					Asset:        in.Asset,
					Deposit:      in.Deposit,
					PremiumBps:   in.PremiumBps,
				})
				if err != nil {
					return errResult(err)
				}
				return okResult(draft), nil
			}).
			Build(),

		New("cancel_redemption_position").
			Description("Draft a transaction cancelling one of the owner's redemption positions and reclaiming its deposit. Requires confirmation.").
			Schema(BuildSchemaWithThought(map[string]interface{}{
				"owner": ownerProp,
				"ref":   StringProperty("Position reference as 'txhash#index', from get_redemption_positions"),
			}, true, "owner", "ref")).
			RequiresConfirmation("Cancel redemption position {{.ref}}").
			Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
				var in cancelRedemptionInput
				if err := decodeInput(params, &in); err != nil {
					return errResult(err)
				}
				ref, err := protocol.ParseOutRef(in.Ref)
				if err != nil {
					return errResult(err)
				}
				draft, err := c.CancelRedemptionPosition(ctx, protocol.CancelRedemptionPositionParams{
					OwnerAddress: in.Owner,
					Ref:          ref,
				})
				if err != nil {
					return errResult(err)
				}
				return okResult(draft), nil
			}).
			Build(),
	}
}
