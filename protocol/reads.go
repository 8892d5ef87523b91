package protocol

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/lagoonfi/lagoon-go-sdk/protocol/address"
	"github.com/lagoonfi/lagoon-go-sdk/protocol/datum"
	"github.com/lagoonfi/lagoon-go-sdk/protocol/indexer"
	"github.com/lagoonfi/lagoon-go-sdk/protocol/locator"
)

// Paging bounds for position listings.
const (
	defaultCDPPageSize = 50
	maxCDPPageSize     = 500
)

// OutRef identifies a ledger record by its location.
type OutRef struct {
	TxHash      string `json:"tx_hash"`
	OutputIndex int    `json:"output_index"`
}

func (r OutRef) String() string {
	return fmt.Sprintf("%s#%d", r.TxHash, r.OutputIndex)
}

// ParseOutRef parses a "txhash#index" selector.
func ParseOutRef(s string) (OutRef, error) {
	i := strings.LastIndexByte(s, '#')
	if i <= 0 || i == len(s)-1 {
		return OutRef{}, &InvalidRefError{Input: s}
	}
	idx, err := strconv.Atoi(s[i+1:])
	if err != nil || idx < 0 {
		return OutRef{}, &InvalidRefError{Input: s}
	}
	return OutRef{TxHash: s[:i], OutputIndex: idx}, nil
}

// CDPView is a decoded CDP together with its on-ledger location and the
// collateral held by the record.
type CDPView struct {
	Ref        OutRef              `json:"ref"`
	Position   *datum.CDPPosition  `json:"position"`
	Collateral *big.Int            `json:"collateral"` // lovelace held by the record
}

// AssetPrice is a freshly dereferenced price for one asset.
type AssetPrice struct {
	AssetName    string   `json:"asset_name"`
	Price        *big.Int `json:"price"` // 1e6-scaled collateral units per iAsset unit
	Delisted     bool     `json:"delisted"`
	ExpirationMs int64    `json:"expiration_ms,omitempty"`
}

// ListAssets scans the registry and returns every iAsset entry, sorted by
// symbol.
func (c *Client) ListAssets(ctx context.Context) ([]*datum.IAssetState, error) {
	records, err := c.chain.UTxOsByUnit(ctx, c.dep.CDPAddress, c.dep.IAssetAuthUnit)
	if err != nil {
		return nil, err
	}

	var assets []*datum.IAssetState
	for _, rec := range records {
		st, err := datum.DecodeIAsset(rec.StructuredData)
		if err != nil {
			if datum.IsSchemaMismatch(err) {
				continue
			}
			return nil, err
		}
		assets = append(assets, st)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].AssetName < assets[j].AssetName })
	return assets, nil
}

// GetAsset returns the registry entry for one asset symbol.
func (c *Client) GetAsset(ctx context.Context, asset string) (*datum.IAssetState, error) {
	st, _, err := c.resolveIAsset(ctx, asset)
	return st, err
}

// AssetPriceFor dereferences the asset's price source. Delisted assets
// report their frozen price.
func (c *Client) AssetPriceFor(ctx context.Context, asset string) (*AssetPrice, error) {
	st, _, err := c.resolveIAsset(ctx, asset)
	if err != nil {
		return nil, err
	}
	if st.Price.Kind == datum.Delisted {
		return &AssetPrice{AssetName: asset, Price: st.Price.FrozenPrice, Delisted: true}, nil
	}
	oracle, _, err := c.resolvePriceOracle(ctx, asset, st.Price.Oracle)
	if err != nil {
		return nil, err
	}
	return &AssetPrice{AssetName: asset, Price: oracle.Price, ExpirationMs: oracle.ExpirationMs}, nil
}

// InterestRateFor dereferences the asset's interest oracle.
func (c *Client) InterestRateFor(ctx context.Context, asset string) (*datum.InterestOracleState, error) {
	st, _, err := c.resolveIAsset(ctx, asset)
	if err != nil {
		return nil, err
	}
	oracle, _, err := c.resolveInterestOracle(ctx, asset, st.InterestOracle)
	return oracle, err
}

// ListCDPs returns the owner's positions, optionally filtered by asset,
// paged by limit/offset over a deterministic ref ordering. Zero positions is
// an empty (non-error) result.
func (c *Client) ListCDPs(ctx context.Context, owner, asset string, limit, offset int) ([]CDPView, error) {
	if limit <= 0 {
		limit = defaultCDPPageSize
	} else if limit > maxCDPPageSize {
		limit = maxCDPPageSize
	}
	if offset < 0 {
		offset = 0
	}

	cred, err := address.Canonical(owner)
	if err != nil {
		return nil, err
	}

	views, err := c.listCDPs(ctx, cred, asset)
	if err != nil {
		return nil, err
	}

	if offset >= len(views) {
		return nil, nil
	}
	views = views[offset:]
	if len(views) > limit {
		views = views[:limit]
	}
	return views, nil
}

// listCDPs scans every position of a canonical credential, unpaged. Health
// analysis depends on seeing the full set, so paging happens only at the
// ListCDPs boundary.
func (c *Client) listCDPs(ctx context.Context, cred, asset string) ([]CDPView, error) {
	records, err := c.chain.UTxOsByUnit(ctx, c.dep.CDPAddress, c.dep.CDPAuthUnit)
	if err != nil {
		return nil, err
	}

	var views []CDPView
	for _, rec := range records {
		pos, err := datum.DecodeCDP(rec.StructuredData)
		if err != nil {
			// Registry entries share this address; skip foreign kinds.
			if datum.IsSchemaMismatch(err) {
				continue
			}
			return nil, err
		}
		if pos.Owner != cred {
			continue
		}
		if asset != "" && pos.AssetName != asset {
			continue
		}
		views = append(views, CDPView{
			Ref:        OutRef{TxHash: rec.TxID, OutputIndex: rec.OutputIndex},
			Position:   pos,
			Collateral: rec.Quantity(indexer.Lovelace),
		})
	}

	sort.Slice(views, func(i, j int) bool {
		if views[i].Ref.TxHash != views[j].Ref.TxHash {
			return views[i].Ref.TxHash < views[j].Ref.TxHash
		}
		return views[i].Ref.OutputIndex < views[j].Ref.OutputIndex
	})

	return views, nil
}

// resolveCDPByRef locates a position by its exact ledger location and checks
// it belongs to the owner (and asset, when given).
func (c *Client) resolveCDPByRef(ctx context.Context, ownerCred, asset string, ref OutRef) (*datum.CDPPosition, indexer.Record, error) {
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
		return nil, indexer.Record{}, err
	}
	if pos.Owner != ownerCred {
		return nil, indexer.Record{}, &PreconditionError{
			Op:     "resolve cdp",
			Reason: fmt.Sprintf("position %s is not owned by the requested credential", ref),
		}
	}
	if asset != "" && pos.AssetName != asset {
		return nil, indexer.Record{}, &PreconditionError{
			Op:     "resolve cdp",
			Reason: fmt.Sprintf("position %s holds %s, not %s", ref, pos.AssetName, asset),
		}
	}
	return pos, rec, nil
}

// StabilityPoolAccountFor returns the owner's account in the asset's pool.
func (c *Client) StabilityPoolAccountFor(ctx context.Context, owner, asset string) (*datum.StabilityPoolAccount, indexer.Record, error) {
	cred, err := address.Canonical(owner)
	if err != nil {
		return nil, indexer.Record{}, err
	}

	var account *datum.StabilityPoolAccount
	rec, err := locator.Locate(ctx, c.chain, locator.Query{
		Kind:     "stability-pool-account",
		Selector: fmt.Sprintf("%s/%s", cred, asset),
		Address:  c.dep.StabilityPoolAddress,
		Unit:     c.dep.StabilityPoolUnit,
		Policy:   locator.PerAsset,
		Match: func(rec indexer.Record) (bool, error) {
			acct, err := datum.DecodeStabilityPoolAccount(rec.StructuredData)
			if err != nil {
				if datum.IsSchemaMismatch(err) {
					return false, nil
				}
				return false, err
			}
			if acct.Owner != cred || acct.AssetName != asset {
				return false, nil
			}
			account = acct
			return true, nil
		},
	})
	if err != nil {
		return nil, indexer.Record{}, err
	}
	return account, rec, nil
}

// StakingPositionFor returns the owner's governance-token stake.
func (c *Client) StakingPositionFor(ctx context.Context, owner string) (*datum.StakingPosition, indexer.Record, error) {
	cred, err := address.Canonical(owner)
	if err != nil {
		return nil, indexer.Record{}, err
	}

	var position *datum.StakingPosition
	rec, err := locator.Locate(ctx, c.chain, locator.Query{
		Kind:     "staking-position",
		Selector: cred,
		Address:  c.dep.StakingAddress,
		Unit:     c.dep.StakingUnit,
		Policy:   locator.PerAsset,
		Match: func(rec indexer.Record) (bool, error) {
			pos, err := datum.DecodeStakingPosition(rec.StructuredData)
			if err != nil {
				if datum.IsSchemaMismatch(err) {
					return false, nil
				}
				return false, err
			}
			if pos.Owner != cred {
				return false, nil
			}
			position = pos
			return true, nil
		},
	})
	if err != nil {
		return nil, indexer.Record{}, err
	}
	return position, rec, nil
}

// RedemptionPositionView pairs a redemption position with its location.
type RedemptionPositionView struct {
	Ref      OutRef                    `json:"ref"`
	Position *datum.RedemptionPosition `json:"position"`
}

// RedemptionPositionsFor lists the owner's redemption positions; several may
// coexist, so an empty result is not an error.
func (c *Client) RedemptionPositionsFor(ctx context.Context, owner string) ([]RedemptionPositionView, error) {
	cred, err := address.Canonical(owner)
	if err != nil {
		return nil, err
	}

	records, err := c.chain.UTxOsByUnit(ctx, c.dep.RedemptionAddress, c.dep.RedemptionUnit)
	if err != nil {
		return nil, err
	}

	var views []RedemptionPositionView
	for _, rec := range records {
		pos, err := datum.DecodeRedemptionPosition(rec.StructuredData)
		if err != nil {
			if datum.IsSchemaMismatch(err) {
				continue
			}
			return nil, err
		}
		if pos.Owner != cred {
			continue
		}
		views = append(views, RedemptionPositionView{
			Ref:      OutRef{TxHash: rec.TxID, OutputIndex: rec.OutputIndex},
			Position: pos,
		})
	}
	return views, nil
}
