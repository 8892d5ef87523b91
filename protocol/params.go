package protocol

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/lagoonfi/lagoon-go-sdk/protocol/indexer"
)

// ParamsTTL is the protocol-parameters cache lifetime. Expiry triggers a
// lazy refetch on next use; a duplicate fetch under a race is harmless, so
// no request coalescing is done.
const ParamsTTL = 5 * time.Minute

const paramsKey = "protocol-params"

type paramsCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

func newParamsCache(ttl time.Duration) (*paramsCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 64,
		MaxCost:     16,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &paramsCache{cache: c, ttl: ttl}, nil
}

func (p *paramsCache) get() (*indexer.Params, bool) {
	v, ok := p.cache.Get(paramsKey)
	if !ok {
		return nil, false
	}
	params, ok := v.(*indexer.Params)
	return params, ok
}

func (p *paramsCache) set(params *indexer.Params) {
	p.cache.SetWithTTL(paramsKey, params, 1, p.ttl)
	// Make the entry visible to the next Get; ristretto admits writes
	// asynchronously.
	p.cache.Wait()
}

func (p *paramsCache) reset() {
	p.cache.Clear()
}

// ProtocolParams returns the current protocol parameters, cached process-wide
// for ParamsTTL and refreshed lazily on expiry.
func (c *Client) ProtocolParams(ctx context.Context) (*indexer.Params, error) {
	if params, ok := c.params.get(); ok {
		return params, nil
	}
	params, err := c.chain.ProtocolParams(ctx)
	if err != nil {
		return nil, err
	}
	c.params.set(params)
	return params, nil
}

// ResetParamsCache drops the cached parameters. Intended for test isolation.
func (c *Client) ResetParamsCache() {
	c.params.reset()
}
