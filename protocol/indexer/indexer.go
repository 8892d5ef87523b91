// Package indexer queries the chain indexer over its keyed HTTP interface.
// Every call is a point-in-time snapshot: records are fetched per request and
// never cached here, because price and interest data are time-sensitive.
package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"time"
)

// Network base URLs for the hosted indexer.
const (
	MainnetURL = "https://index.lagoon.fi/api/v1"
	PreprodURL = "https://index-preprod.lagoon.fi/api/v1"
	PreviewURL = "https://index-preview.lagoon.fi/api/v1"
)

// Lovelace is the asset-map key for the ledger's native coin.
const Lovelace = "lovelace"

// requestTimeout bounds every indexer call. A timeout is a normal,
// reportable error, not a fatal condition.
const requestTimeout = 15 * time.Second

// Record is one ledger record (UTxO) as returned by the indexer.
type Record struct {
	// TxID and OutputIndex locate the record on the ledger.
	TxID        string `json:"tx_id"`
	OutputIndex int    `json:"output_index"`

	// Assets maps asset unit (policy hex + name hex, or "lovelace") to the
	// held quantity.
	Assets map[string]*big.Int `json:"assets"`

	// StructuredData is the record's inline datum in Plutus JSON form.
	// Opaque at this layer; the datum package decodes it per schema.
	StructuredData json.RawMessage `json:"structured_data,omitempty"`
}

// Ref renders the record's location as txid#index.
func (r Record) Ref() string {
	return fmt.Sprintf("%s#%d", r.TxID, r.OutputIndex)
}

// Quantity returns the held quantity of unit, zero if absent.
func (r Record) Quantity(unit string) *big.Int {
	if q, ok := r.Assets[unit]; ok && q != nil {
		return q
	}
	return big.NewInt(0)
}

// HoldsUnit reports whether the record holds any amount of unit.
func (r Record) HoldsUnit(unit string) bool {
	return r.Quantity(unit).Sign() > 0
}

// Tip is the latest block the indexer has seen.
type Tip struct {
	Slot   int64 `json:"slot"`
	Height int64 `json:"height"`
	// TimeMs is the block's wall-clock time in Unix milliseconds; drafts use
	// it as the chain-time reference for validity windows.
	TimeMs int64 `json:"time_ms"`
}

// Params is the protocol-parameters record.
type Params struct {
	MinFee             *big.Int `json:"min_fee"`
	CoinsPerUTxOByte   *big.Int `json:"coins_per_utxo_byte"`
	MaxTxSize          int      `json:"max_tx_size"`
	CollateralPercent  int      `json:"collateral_percent"`
	MaxCollateralInput int      `json:"max_collateral_inputs"`
}

// UpstreamError reports an indexer failure with the upstream message
// preserved. This layer performs no automatic retries.
type UpstreamError struct {
	Op      string
	Status  int
	Message string
	Timeout bool
}

func (e *UpstreamError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("indexer %s: timed out after %s", e.Op, requestTimeout)
	}
	if e.Status != 0 {
		return fmt.Sprintf("indexer %s: status %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("indexer %s: %s", e.Op, e.Message)
}

// Client talks to the indexer. Read endpoints work without a key; the hosted
// service rate-limits unkeyed traffic.
type Client struct {
	baseURL    string
	key        string
	httpClient *http.Client
}

// Config configures a Client.
type Config struct {
	// BaseURL overrides the network default.
	BaseURL string
	// Network selects a default base URL: "mainnet", "preprod" or "preview".
	Network string
	// Key is the indexer API key, sent as the project_id header.
	Key string
}

// New creates an indexer client.
func New(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		switch cfg.Network {
		case "preprod":
			base = PreprodURL
		case "preview":
			base = PreviewURL
		default:
			base = MainnetURL
		}
	}
	return &Client{
		baseURL: base,
		key:     cfg.Key,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// UTxOsByUnit returns all records at address holding any amount of unit.
// The unit acts as the coarse filter; callers decode and match further.
// An empty result is not an error at this layer.
func (c *Client) UTxOsByUnit(ctx context.Context, address, unit string) ([]Record, error) {
	const pageSize = 100
	var all []Record

	for page := 1; ; page++ {
		path := fmt.Sprintf("/addresses/%s/utxos/%s?count=%d&page=%d",
			url.PathEscape(address), url.PathEscape(unit), pageSize, page)

		var batch []Record
		if err := c.get(ctx, "utxos", path, &batch); err != nil {
			var ue *UpstreamError
			// The indexer answers 404 when the address has never held the
			// unit; that is an empty collection, not a failure.
			if errors.As(err, &ue) && ue.Status == http.StatusNotFound {
				return all, nil
			}
			return nil, err
		}

		all = append(all, batch...)
		if len(batch) < pageSize {
			return all, nil
		}
	}
}

// Tip returns the latest block reference.
func (c *Client) Tip(ctx context.Context) (Tip, error) {
	var tip Tip
	err := c.get(ctx, "tip", "/blocks/latest", &tip)
	return tip, err
}

// ProtocolParams fetches the current protocol parameters. Callers cache
// these; see the protocol package.
func (c *Client) ProtocolParams(ctx context.Context) (*Params, error) {
	var p Params
	if err := c.get(ctx, "params", "/epochs/latest/parameters", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) get(ctx context.Context, op, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return &UpstreamError{Op: op, Message: err.Error()}
	}
	if c.key != "" {
		req.Header.Set("project_id", c.key)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &UpstreamError{Op: op, Message: err.Error(), Timeout: isTimeout(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &UpstreamError{Op: op, Message: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return &UpstreamError{Op: op, Status: resp.StatusCode, Message: upstreamMessage(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &UpstreamError{Op: op, Message: fmt.Sprintf("unmarshal response: %v", err)}
	}
	return nil
}

// upstreamMessage extracts the indexer's error message, falling back to the
// raw body.
func upstreamMessage(body []byte) string {
	var e struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil {
		if e.Message != "" {
			return e.Message
		}
		if e.Error != "" {
			return e.Error
		}
	}
	const max = 200
	s := string(body)
	if len(s) > max {
		s = s[:max]
	}
	return s
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	if errors.As(err, &t) {
		return t.Timeout()
	}
	return errors.Is(err, context.DeadlineExceeded)
}
