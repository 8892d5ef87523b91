package datum

import (
	"encoding/hex"
	"fmt"
	"math/big"
)

// TokenClass identifies a unique token class on the ledger.
type TokenClass struct {
	PolicyID  string `json:"policy_id"`  // hex currency symbol
	TokenName string `json:"token_name"` // hex asset name
}

// Unit renders the class as the indexer's asset-unit form.
func (t TokenClass) Unit() string {
	return t.PolicyID + t.TokenName
}

// PriceSourceKind tags the two price-source variants of an iAsset.
type PriceSourceKind int

const (
	// PriceOracle means the asset is live and priced by an oracle record.
	PriceOracle PriceSourceKind = iota
	// Delisted means the asset is frozen at its last price; all CDP-mutating
	// operations are forbidden, only redemption against the frozen price
	// remains possible.
	Delisted
)

// PriceSource is the tagged Oracle|Delisted variant. Exactly one of Oracle
// and FrozenPrice is meaningful, selected by Kind.
type PriceSource struct {
	Kind        PriceSourceKind `json:"kind"`
	Oracle      TokenClass      `json:"oracle,omitempty"`       // Kind == PriceOracle
	FrozenPrice *big.Int        `json:"frozen_price,omitempty"` // Kind == Delisted, 1e6-scaled
}

// IAssetState is the per-asset registry record. Exactly one live IAssetState
// exists per asset symbol at any time.
type IAssetState struct {
	// AssetName is the human symbol, e.g. "iUSD".
	AssetName string `json:"asset_name"`

	Price PriceSource `json:"price"`

	// InterestOracle identifies the interest-index record for this asset.
	InterestOracle TokenClass `json:"interest_oracle"`

	// AuthToken authenticates CDP records of this asset.
	AuthToken TokenClass `json:"auth_token"`

	// Risk thresholds, whole percents (e.g. 150 means 150%).
	MaintenanceRatio int64 `json:"maintenance_ratio"`
	LiquidationRatio int64 `json:"liquidation_ratio"`
}

// InterestSnapshot is a CDP's view of the unitary interest index at its last
// settlement.
type InterestSnapshot struct {
	// UnitaryInterest is the 1e12-scaled cumulative interest-per-unit-debt
	// index value captured at settlement.
	UnitaryInterest *big.Int `json:"unitary_interest"`
	// LastSettledMs is the settlement wall-clock time, Unix milliseconds.
	LastSettledMs int64 `json:"last_settled_ms"`
}

// CDPPosition is a collateralized debt position. The locked collateral is
// the record's coin value; the datum carries owner, asset and debt.
type CDPPosition struct {
	Owner        string           `json:"owner"` // canonical 56-hex credential
	AssetName    string           `json:"asset_name"`
	MintedAmount *big.Int         `json:"minted_amount"`
	Snapshot     InterestSnapshot `json:"snapshot"`
}

// PriceOracleState is a dereferenced price oracle record.
type PriceOracleState struct {
	// Price of one iAsset unit in collateral units, 1e6-scaled.
	Price *big.Int `json:"price"`
	// ExpirationMs bounds the price's validity window.
	ExpirationMs int64 `json:"expiration_ms"`
}

// InterestOracleState is a dereferenced interest oracle record publishing the
// monotone unitary interest index.
type InterestOracleState struct {
	// UnitaryInterest is the 1e12-scaled cumulative index at LastUpdatedMs.
	UnitaryInterest *big.Int `json:"unitary_interest"`
	// RatePpm is the current annual rate in parts per million.
	RatePpm int64 `json:"rate_ppm"`
	LastUpdatedMs int64 `json:"last_updated_ms"`
	// BiasTimeMs is the bounded lag applied when projecting the index, so a
	// pending rate change cannot be front-run.
	BiasTimeMs int64 `json:"bias_time_ms"`
}

// PoolSnapshot holds the protocol-owned counters a stability-pool account
// uses to compute its current share of pooled rewards and losses. Clients
// only read these; the protocol advances them.
type PoolSnapshot struct {
	Product *big.Int `json:"product"` // cumulative product P, 1e12-scaled
	Sum     *big.Int `json:"sum"`     // cumulative reward sum S
	Epoch   int64    `json:"epoch"`
	Scale   int64    `json:"scale"`
}

// StabilityPoolState is the per-asset pool record.
type StabilityPoolState struct {
	AssetName    string       `json:"asset_name"`
	TotalDeposit *big.Int     `json:"total_deposit"`
	Snapshot     PoolSnapshot `json:"snapshot"`
}

// StabilityPoolAccount is one depositor's account in a stability pool.
type StabilityPoolAccount struct {
	Owner     string       `json:"owner"`
	AssetName string       `json:"asset_name"`
	Deposit   *big.Int     `json:"deposit"`
	Snapshot  PoolSnapshot `json:"snapshot"`
}

// StakingPosition is one owner's governance-token stake.
type StakingPosition struct {
	Owner  string   `json:"owner"`
	Staked *big.Int `json:"staked"`
	// RewardSnapshot is the 1e12-scaled cumulative reward-per-token value at
	// the position's last touch.
	RewardSnapshot *big.Int `json:"reward_snapshot"`
}

// StakingManager is the singleton record tracking the total stake.
type StakingManager struct {
	TotalStaked *big.Int `json:"total_staked"`
	// RewardPerToken is the 1e12-scaled cumulative reward-per-token index.
	RewardPerToken *big.Int `json:"reward_per_token"`
}

// RedemptionPosition is a standing offer to absorb redemptions at a premium.
type RedemptionPosition struct {
	Owner      string   `json:"owner"`
	AssetName  string   `json:"asset_name"`
	Deposit    *big.Int `json:"deposit"` // collateral units available
	PremiumBps int64    `json:"premium_bps"`
}

// Governance is the singleton protocol-governance record.
type Governance struct {
	Version        int64 `json:"version"`
	LastProposalID int64 `json:"last_proposal_id"`
}

// Treasury is the singleton treasury record.
type Treasury struct {
	Obligations *big.Int `json:"obligations"`
}

// DecodeOwner validates and lowercases a 28-byte owner credential from its
// hex field form.
func decodeOwner(h string) (string, error) {
	b, err := hex.DecodeString(h)
	if err != nil || len(b) != 28 {
		return "", mismatch("owner credential: expected 28 bytes, got %q", h)
	}
	return fmt.Sprintf("%x", b), nil
}
