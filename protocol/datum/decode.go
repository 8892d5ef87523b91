package datum

import (
	"encoding/json"
)

// Datum layouts. Registry entries and CDPs share an address, so their outer
// constructor tags differ and act as the kind discriminant:
//
//	iAsset registry  constr 0 [bytes assetName, priceSource, tokenClass interestOracle,
//	                           tokenClass authToken, int maintenanceRatio, int liquidationRatio]
//	priceSource      constr 0 [tokenClass oracle] | constr 1 [int frozenPrice]
//	CDP              constr 1 [bytes owner, bytes assetName, int minted,
//	                           constr 0 [int unitaryInterest, int lastSettledMs]]
//
// Oracle, pool, staking, redemption and singleton records each live at their
// own address with the layouts documented on the decoders below.

// DecodeIAsset decodes an iAsset registry entry.
func DecodeIAsset(raw json.RawMessage) (*IAssetState, error) {
	v, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	fields, err := v.constr(0, 6)
	if err != nil {
		return nil, err
	}

	name, err := fields[0].utf8Bytes()
	if err != nil {
		return nil, err
	}
	price, err := decodePriceSource(&fields[1])
	if err != nil {
		return nil, err
	}
	interestOracle, err := fields[2].tokenClass()
	if err != nil {
		return nil, err
	}
	authToken, err := fields[3].tokenClass()
	if err != nil {
		return nil, err
	}
	maintenance, err := fields[4].int64Val()
	if err != nil {
		return nil, err
	}
	liquidation, err := fields[5].int64Val()
	if err != nil {
		return nil, err
	}

	return &IAssetState{
		AssetName:        name,
		Price:            price,
		InterestOracle:   interestOracle,
		AuthToken:        authToken,
		MaintenanceRatio: maintenance,
		LiquidationRatio: liquidation,
	}, nil
}

func decodePriceSource(v *Value) (PriceSource, error) {
	tag, err := v.tag()
	if err != nil {
		return PriceSource{}, err
	}
	switch tag {
	case 0:
		fields, err := v.constr(0, 1)
		if err != nil {
			return PriceSource{}, err
		}
		oracle, err := fields[0].tokenClass()
		if err != nil {
			return PriceSource{}, err
		}
		return PriceSource{Kind: PriceOracle, Oracle: oracle}, nil
	case 1:
		fields, err := v.constr(1, 1)
		if err != nil {
			return PriceSource{}, err
		}
		frozen, err := fields[0].bigInt()
		if err != nil {
			return PriceSource{}, err
		}
		return PriceSource{Kind: Delisted, FrozenPrice: frozen}, nil
	default:
		return PriceSource{}, mismatch("price source: unknown variant %d", tag)
	}
}

// DecodeCDP decodes a CDP position.
func DecodeCDP(raw json.RawMessage) (*CDPPosition, error) {
	v, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	fields, err := v.constr(1, 4)
	if err != nil {
		return nil, err
	}

	ownerHex, err := fields[0].hexBytes()
	if err != nil {
		return nil, err
	}
	owner, err := decodeOwner(ownerHex)
	if err != nil {
		return nil, err
	}
	name, err := fields[1].utf8Bytes()
	if err != nil {
		return nil, err
	}
	minted, err := fields[2].bigInt()
	if err != nil {
		return nil, err
	}
	snapFields, err := fields[3].constr(0, 2)
	if err != nil {
		return nil, err
	}
	unitary, err := snapFields[0].bigInt()
	if err != nil {
		return nil, err
	}
	settled, err := snapFields[1].int64Val()
	if err != nil {
		return nil, err
	}

	return &CDPPosition{
		Owner:        owner,
		AssetName:    name,
		MintedAmount: minted,
		Snapshot: InterestSnapshot{
			UnitaryInterest: unitary,
			LastSettledMs:   settled,
		},
	}, nil
}

// DecodePriceOracle decodes a price oracle record:
// constr 0 [int price, int expirationMs].
func DecodePriceOracle(raw json.RawMessage) (*PriceOracleState, error) {
	v, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	fields, err := v.constr(0, 2)
	if err != nil {
		return nil, err
	}
	price, err := fields[0].bigInt()
	if err != nil {
		return nil, err
	}
	exp, err := fields[1].int64Val()
	if err != nil {
		return nil, err
	}
	return &PriceOracleState{Price: price, ExpirationMs: exp}, nil
}

// DecodeInterestOracle decodes an interest oracle record:
// constr 0 [int unitaryInterest, int ratePpm, int lastUpdatedMs, int biasTimeMs].
func DecodeInterestOracle(raw json.RawMessage) (*InterestOracleState, error) {
	v, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	fields, err := v.constr(0, 4)
	if err != nil {
		return nil, err
	}
	unitary, err := fields[0].bigInt()
	if err != nil {
		return nil, err
	}
	rate, err := fields[1].int64Val()
	if err != nil {
		return nil, err
	}
	updated, err := fields[2].int64Val()
	if err != nil {
		return nil, err
	}
	bias, err := fields[3].int64Val()
	if err != nil {
		return nil, err
	}
	return &InterestOracleState{
		UnitaryInterest: unitary,
		RatePpm:         rate,
		LastUpdatedMs:   updated,
		BiasTimeMs:      bias,
	}, nil
}

func decodePoolSnapshot(v *Value) (PoolSnapshot, error) {
	fields, err := v.constr(0, 4)
	if err != nil {
		return PoolSnapshot{}, err
	}
	product, err := fields[0].bigInt()
	if err != nil {
		return PoolSnapshot{}, err
	}
	sum, err := fields[1].bigInt()
	if err != nil {
		return PoolSnapshot{}, err
	}
	epoch, err := fields[2].int64Val()
	if err != nil {
		return PoolSnapshot{}, err
	}
	scale, err := fields[3].int64Val()
	if err != nil {
		return PoolSnapshot{}, err
	}
	return PoolSnapshot{Product: product, Sum: sum, Epoch: epoch, Scale: scale}, nil
}

// DecodeStabilityPool decodes the per-asset pool record:
// constr 0 [bytes assetName, int totalDeposit, snapshot].
func DecodeStabilityPool(raw json.RawMessage) (*StabilityPoolState, error) {
	v, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	fields, err := v.constr(0, 3)
	if err != nil {
		return nil, err
	}
	name, err := fields[0].utf8Bytes()
	if err != nil {
		return nil, err
	}
	total, err := fields[1].bigInt()
	if err != nil {
		return nil, err
	}
	snap, err := decodePoolSnapshot(&fields[2])
	if err != nil {
		return nil, err
	}
	return &StabilityPoolState{AssetName: name, TotalDeposit: total, Snapshot: snap}, nil
}

// DecodeStabilityPoolAccount decodes a depositor account:
// constr 1 [bytes owner, bytes assetName, int deposit, snapshot].
// Accounts share the pool address, hence the distinct tag.
func DecodeStabilityPoolAccount(raw json.RawMessage) (*StabilityPoolAccount, error) {
	v, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	fields, err := v.constr(1, 4)
	if err != nil {
		return nil, err
	}
	ownerHex, err := fields[0].hexBytes()
	if err != nil {
		return nil, err
	}
	owner, err := decodeOwner(ownerHex)
	if err != nil {
		return nil, err
	}
	name, err := fields[1].utf8Bytes()
	if err != nil {
		return nil, err
	}
	deposit, err := fields[2].bigInt()
	if err != nil {
		return nil, err
	}
	snap, err := decodePoolSnapshot(&fields[3])
	if err != nil {
		return nil, err
	}
	return &StabilityPoolAccount{Owner: owner, AssetName: name, Deposit: deposit, Snapshot: snap}, nil
}

// DecodeStakingPosition decodes an owner stake:
// constr 1 [bytes owner, int staked, int rewardSnapshot].
func DecodeStakingPosition(raw json.RawMessage) (*StakingPosition, error) {
	v, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	fields, err := v.constr(1, 3)
	if err != nil {
		return nil, err
	}
	ownerHex, err := fields[0].hexBytes()
	if err != nil {
		return nil, err
	}
	owner, err := decodeOwner(ownerHex)
	if err != nil {
		return nil, err
	}
	staked, err := fields[1].bigInt()
	if err != nil {
		return nil, err
	}
	snapshot, err := fields[2].bigInt()
	if err != nil {
		return nil, err
	}
	return &StakingPosition{Owner: owner, Staked: staked, RewardSnapshot: snapshot}, nil
}

// DecodeStakingManager decodes the singleton stake tracker:
// constr 0 [int totalStaked, int rewardPerToken].
func DecodeStakingManager(raw json.RawMessage) (*StakingManager, error) {
	v, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	fields, err := v.constr(0, 2)
	if err != nil {
		return nil, err
	}
	total, err := fields[0].bigInt()
	if err != nil {
		return nil, err
	}
	rpt, err := fields[1].bigInt()
	if err != nil {
		return nil, err
	}
	return &StakingManager{TotalStaked: total, RewardPerToken: rpt}, nil
}

// DecodeRedemptionPosition decodes a redemption offer:
// constr 0 [bytes owner, bytes assetName, int deposit, int premiumBps].
func DecodeRedemptionPosition(raw json.RawMessage) (*RedemptionPosition, error) {
	v, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	fields, err := v.constr(0, 4)
	if err != nil {
		return nil, err
	}
	ownerHex, err := fields[0].hexBytes()
	if err != nil {
		return nil, err
	}
	owner, err := decodeOwner(ownerHex)
	if err != nil {
		return nil, err
	}
	name, err := fields[1].utf8Bytes()
	if err != nil {
		return nil, err
	}
	deposit, err := fields[2].bigInt()
	if err != nil {
		return nil, err
	}
	premium, err := fields[3].int64Val()
	if err != nil {
		return nil, err
	}
	return &RedemptionPosition{Owner: owner, AssetName: name, Deposit: deposit, PremiumBps: premium}, nil
}

// DecodeGovernance decodes the singleton governance record:
// constr 0 [int version, int lastProposalId].
func DecodeGovernance(raw json.RawMessage) (*Governance, error) {
	v, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	fields, err := v.constr(0, 2)
	if err != nil {
		return nil, err
	}
	version, err := fields[0].int64Val()
	if err != nil {
		return nil, err
	}
	last, err := fields[1].int64Val()
	if err != nil {
		return nil, err
	}
	return &Governance{Version: version, LastProposalID: last}, nil
}

// DecodeTreasury decodes the singleton treasury record:
// constr 0 [int obligations].
func DecodeTreasury(raw json.RawMessage) (*Treasury, error) {
	v, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	fields, err := v.constr(0, 1)
	if err != nil {
		return nil, err
	}
	obligations, err := fields[0].bigInt()
	if err != nil {
		return nil, err
	}
	return &Treasury{Obligations: obligations}, nil
}
