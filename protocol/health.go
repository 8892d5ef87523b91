package protocol

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/lagoonfi/lagoon-go-sdk/protocol/address"
	"github.com/lagoonfi/lagoon-go-sdk/protocol/datum"
	"github.com/lagoonfi/lagoon-go-sdk/protocol/health"
	"github.com/lagoonfi/lagoon-go-sdk/protocol/interest"
	"github.com/lagoonfi/lagoon-go-sdk/protocol/locator"
)

// priceScale converts the oracle's 1e6-scaled price to collateral units.
const priceScale = 1_000_000

// PositionHealth is the advisory health analysis of one CDP. The ratio is
// computed from the position's interest snapshot; interest accrued after the
// snapshot but not yet settled on-chain is included via AccruedInterest only
// when the interest source resolved.
type PositionHealth struct {
	CDP             CDPView       `json:"cdp"`
	Price           *big.Int      `json:"price"` // 1e6-scaled
	Delisted        bool          `json:"delisted"`
	AccruedInterest *big.Int      `json:"accrued_interest"`
	// InterestResolved is false when the asset has no interest source on the
	// ledger; the analysis then degrades to zero accrual rather than failing.
	InterestResolved bool          `json:"interest_resolved"`
	Result           health.Result `json:"result"`
}

// HealthReport is the per-owner health analysis, keyed by the canonical
// credential. NoPositions distinguishes "owner has no open positions" from
// an empty page.
type HealthReport struct {
	Owner       string           `json:"owner"`
	NoPositions bool             `json:"no_positions"`
	Positions   []PositionHealth `json:"positions"`
}

// HealthByOwner analyzes every open position of an owner. Per-asset state
// (registry entry, price, interest index) is resolved once per asset, with
// independent asset groups fanned out concurrently.
func (c *Client) HealthByOwner(ctx context.Context, owner string) (*HealthReport, error) {
	cred, err := address.Canonical(owner)
	if err != nil {
		return nil, err
	}

	// Unpaged: the analysis covers every open position, not the first page.
	views, err := c.listCDPs(ctx, cred, "")
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return &HealthReport{Owner: cred, NoPositions: true}, nil
	}

	tip, err := c.chain.Tip(ctx)
	if err != nil {
		return nil, err
	}

	byAsset := make(map[string][]CDPView)
	for _, v := range views {
		byAsset[v.Position.AssetName] = append(byAsset[v.Position.AssetName], v)
	}

	var (
		mu        sync.Mutex
		positions []PositionHealth
	)
	g, gctx := errgroup.WithContext(ctx)

	for asset, group := range byAsset {
		g.Go(func() error {
			st, _, err := c.resolveIAsset(gctx, asset)
			if err != nil {
				return err
			}

			var (
				price    *big.Int
				delisted bool
			)
			if st.Price.Kind == datum.Delisted {
				price = st.Price.FrozenPrice
				delisted = true
			} else {
				oracle, _, err := c.resolvePriceOracle(gctx, asset, st.Price.Oracle)
				if err != nil {
					return err
				}
				price = oracle.Price
			}

			// Analytics degrade gracefully: an asset with no interest source
			// on the ledger means zero accrual, not a failed health query.
			// Anything else, an upstream outage included, still fails the
			// query rather than reporting zero interest. Draft operations
			// that settle interest never degrade at all.
			interestOracle, _, ierr := c.resolveInterestOracle(gctx, asset, st.InterestOracle)
			resolved := ierr == nil
			if ierr != nil {
				var notFound *locator.NotFoundError
				if !errors.As(ierr, &notFound) {
					return ierr
				}
			}

			thresholds := health.Thresholds{
				MaintenanceRatio: float64(st.MaintenanceRatio),
				LiquidationRatio: float64(st.LiquidationRatio),
			}

			var analyzed []PositionHealth
			for _, view := range group {
				accrued := big.NewInt(0)
				if resolved {
					accrued = interest.Accrue(tip.TimeMs, view.Position.Snapshot, view.Position.MintedAmount, interestOracle)
				}

				priceF := float64FromBig(price) / priceScale
				result := health.Classify(
					float64FromBig(view.Collateral),
					float64FromBig(view.Position.MintedAmount),
					priceF,
					float64FromBig(accrued),
					thresholds,
				)

				analyzed = append(analyzed, PositionHealth{
					CDP:              view,
					Price:            price,
					Delisted:         delisted,
					AccruedInterest:  accrued,
					InterestResolved: resolved,
					Result:           result,
				})
			}

			mu.Lock()
			positions = append(positions, analyzed...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &HealthReport{Owner: cred, Positions: positions}, nil
}

func float64FromBig(n *big.Int) float64 {
	if n == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(n).Float64()
	return f
}
