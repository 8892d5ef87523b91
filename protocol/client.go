// Package protocol resolves Lagoon's on-chain state and drafts unsigned
// transactions against it. All operations are request-scoped; the only
// shared state is the protocol-parameters cache and the lazily-built default
// client handle.
package protocol

import (
	"context"
	"fmt"
	"sync"

	"github.com/lagoonfi/lagoon-go-sdk/protocol/datum"
	"github.com/lagoonfi/lagoon-go-sdk/protocol/indexer"
	"github.com/lagoonfi/lagoon-go-sdk/protocol/locator"
)

// ChainSource is the read capability a Client needs from the indexer.
type ChainSource interface {
	locator.Source
	Tip(ctx context.Context) (indexer.Tip, error)
	ProtocolParams(ctx context.Context) (*indexer.Params, error)
}

// Client exposes the protocol's read, analytics and draft operations.
type Client struct {
	cfg       Config
	dep       Deployment
	chain     ChainSource
	assembler Assembler
	params    *paramsCache
}

// Option customizes a Client, mainly for tests.
type Option func(*Client)

// WithChainSource substitutes the indexer backend.
func WithChainSource(src ChainSource) Option {
	return func(c *Client) { c.chain = src }
}

// WithAssembler substitutes the assembly backend.
func WithAssembler(a Assembler) Option {
	return func(c *Client) { c.assembler = a }
}

// New creates a Client for the configured network. An unknown network with
// no pinned deployment is a configuration error.
func New(cfg Config, opts ...Option) (*Client, error) {
	network := cfg.Network
	if network == "" {
		network = "mainnet"
	}

	dep := cfg.Deployment
	if dep.isZero() {
		d, ok := DefaultDeployment(network)
		if !ok {
			return nil, &ConfigError{Reason: fmt.Sprintf("unknown network %q, want mainnet, preprod or preview", cfg.Network)}
		}
		dep = d
	}

	params, err := newParamsCache(ParamsTTL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:    cfg,
		dep:    dep,
		params: params,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.chain == nil {
		c.chain = indexer.New(indexer.Config{
			BaseURL: cfg.IndexerURL,
			Network: network,
			Key:     cfg.IndexerKey,
		})
	}
	if c.assembler == nil && cfg.AssemblerURL != "" {
		c.assembler = NewHTTPAssembler(cfg.AssemblerURL, cfg.AssemblerKey)
	}
	return c, nil
}

// Deployment returns the deployment the client is pinned to.
func (c *Client) Deployment() Deployment {
	return c.dep
}

// requireAssembler gates draft paths. Reads never need the assembler, so a
// missing endpoint is only an error here, at first mutating use.
func (c *Client) requireAssembler() (Assembler, error) {
	if c.assembler == nil {
		return nil, &ConfigError{Missing: "LAGOON_ASSEMBLER_URL"}
	}
	return c.assembler, nil
}

// Process-wide default handle: built lazily from the environment on first
// use so a missing credential surfaces as a configuration error at first
// use, not at process start.
var defaultHandle struct {
	mu     sync.Mutex
	client *Client
	err    error
	built  bool
}

// Default returns the process-wide client, building it from the environment
// on first call.
func Default() (*Client, error) {
	defaultHandle.mu.Lock()
	defer defaultHandle.mu.Unlock()
	if !defaultHandle.built {
		defaultHandle.client, defaultHandle.err = New(FromEnv())
		defaultHandle.built = true
	}
	return defaultHandle.client, defaultHandle.err
}

// ResetDefault discards the process-wide client. Intended for test isolation.
func ResetDefault() {
	defaultHandle.mu.Lock()
	defer defaultHandle.mu.Unlock()
	defaultHandle.client = nil
	defaultHandle.err = nil
	defaultHandle.built = false
}

// ─── per-kind resolution helpers ────────────────────────────────────────────

// resolveIAsset locates the registry entry for an asset symbol.
func (c *Client) resolveIAsset(ctx context.Context, asset string) (*datum.IAssetState, indexer.Record, error) {
	var state *datum.IAssetState
	rec, err := locator.Locate(ctx, c.chain, locator.Query{
		Kind:     "iasset",
		Selector: asset,
		Address:  c.dep.CDPAddress,
		Unit:     c.dep.IAssetAuthUnit,
		Policy:   locator.PerAsset,
		Match: func(rec indexer.Record) (bool, error) {
			st, err := datum.DecodeIAsset(rec.StructuredData)
			if err != nil {
				if datum.IsSchemaMismatch(err) {
					return false, nil
				}
				return false, err
			}
			if st.AssetName != asset {
				return false, nil
			}
			state = st
			return true, nil
		},
	})
	if err != nil {
		return nil, indexer.Record{}, err
	}
	return state, rec, nil
}

// resolvePriceOracle dereferences a price-source token class to a fresh
// oracle record. Never cached: prices are time-sensitive.
func (c *Client) resolvePriceOracle(ctx context.Context, asset string, oracle datum.TokenClass) (*datum.PriceOracleState, indexer.Record, error) {
	var state *datum.PriceOracleState
	rec, err := locator.Locate(ctx, c.chain, locator.Query{
		Kind:     "price-oracle",
		Selector: asset,
		Address:  c.dep.OracleAddress,
		Unit:     oracle.Unit(),
		Policy:   locator.PerAsset,
		Match: func(rec indexer.Record) (bool, error) {
			st, err := datum.DecodePriceOracle(rec.StructuredData)
			if err != nil {
				if datum.IsSchemaMismatch(err) {
					return false, nil
				}
				return false, err
			}
			state = st
			return true, nil
		},
	})
	if err != nil {
		return nil, indexer.Record{}, err
	}
	return state, rec, nil
}

// resolveInterestOracle dereferences an interest-source token class.
func (c *Client) resolveInterestOracle(ctx context.Context, asset string, oracle datum.TokenClass) (*datum.InterestOracleState, indexer.Record, error) {
	var state *datum.InterestOracleState
	rec, err := locator.Locate(ctx, c.chain, locator.Query{
		Kind:     "interest-oracle",
		Selector: asset,
		Address:  c.dep.InterestOracleAddress,
		Unit:     oracle.Unit(),
		Policy:   locator.PerAsset,
		Match: func(rec indexer.Record) (bool, error) {
			st, err := datum.DecodeInterestOracle(rec.StructuredData)
			if err != nil {
				if datum.IsSchemaMismatch(err) {
					return false, nil
				}
				return false, err
			}
			state = st
			return true, nil
		},
	})
	if err != nil {
		return nil, indexer.Record{}, err
	}
	return state, rec, nil
}

// resolveGovernance locates the strict-singleton governance record.
func (c *Client) resolveGovernance(ctx context.Context) (*datum.Governance, indexer.Record, error) {
	var state *datum.Governance
	rec, err := locator.Locate(ctx, c.chain, locator.Query{
		Kind:    "governance",
		Address: c.dep.GovAddress,
		Unit:    c.dep.GovUnit,
		Policy:  locator.Singleton,
		Match: func(rec indexer.Record) (bool, error) {
			st, err := datum.DecodeGovernance(rec.StructuredData)
			if err != nil {
				if datum.IsSchemaMismatch(err) {
					return false, nil
				}
				return false, err
			}
			state = st
			return true, nil
		},
	})
	if err != nil {
		return nil, indexer.Record{}, err
	}
	return state, rec, nil
}

// resolveTreasury locates the treasury record. Treated as a strict
// singleton: more than one treasury record means indexer divergence.
func (c *Client) resolveTreasury(ctx context.Context) (*datum.Treasury, indexer.Record, error) {
	var state *datum.Treasury
	rec, err := locator.Locate(ctx, c.chain, locator.Query{
		Kind:    "treasury",
		Address: c.dep.TreasuryAddress,
		Unit:    c.dep.TreasuryUnit,
		Policy:  locator.Singleton,
		Match: func(rec indexer.Record) (bool, error) {
			st, err := datum.DecodeTreasury(rec.StructuredData)
			if err != nil {
				if datum.IsSchemaMismatch(err) {
					return false, nil
				}
				return false, err
			}
			state = st
			return true, nil
		},
	})
	if err != nil {
		return nil, indexer.Record{}, err
	}
	return state, rec, nil
}

// resolveCollector returns one collector record. Collector UTxOs accumulate
// fees and many coexist; any one is a valid input, so the first found is
// used and the pick is non-deterministic.
func (c *Client) resolveCollector(ctx context.Context) (indexer.Record, error) {
	return locator.Locate(ctx, c.chain, locator.Query{
		Kind:    "collector",
		Address: c.dep.CollectorAddress,
		Unit:    c.dep.CollectorUnit,
		Policy:  locator.Any,
		Match: func(rec indexer.Record) (bool, error) {
			return true, nil
		},
	})
}

// resolveStakingManager locates the strict-singleton stake tracker.
func (c *Client) resolveStakingManager(ctx context.Context) (*datum.StakingManager, indexer.Record, error) {
	var state *datum.StakingManager
	rec, err := locator.Locate(ctx, c.chain, locator.Query{
		Kind:    "staking-manager",
		Address: c.dep.StakingAddress,
		Unit:    c.dep.StakingUnit,
		Policy:  locator.Singleton,
		Match: func(rec indexer.Record) (bool, error) {
			st, err := datum.DecodeStakingManager(rec.StructuredData)
			if err != nil {
				if datum.IsSchemaMismatch(err) {
					return false, nil
				}
				return false, err
			}
			state = st
			return true, nil
		},
	})
	if err != nil {
		return nil, indexer.Record{}, err
	}
	return state, rec, nil
}

// resolveStabilityPool locates the per-asset pool record.
func (c *Client) resolveStabilityPool(ctx context.Context, asset string) (*datum.StabilityPoolState, indexer.Record, error) {
	var state *datum.StabilityPoolState
	rec, err := locator.Locate(ctx, c.chain, locator.Query{
		Kind:     "stability-pool",
		Selector: asset,
		Address:  c.dep.StabilityPoolAddress,
		Unit:     c.dep.StabilityPoolUnit,
		Policy:   locator.PerAsset,
		Match: func(rec indexer.Record) (bool, error) {
			st, err := datum.DecodeStabilityPool(rec.StructuredData)
			if err != nil {
				if datum.IsSchemaMismatch(err) {
					return false, nil
				}
				return false, err
			}
			if st.AssetName != asset {
				return false, nil
			}
			state = st
			return true, nil
		},
	})
	if err != nil {
		return nil, indexer.Record{}, err
	}
	return state, rec, nil
}
