package protocol

import (
	"os"
)

// Config wires a Client to a network deployment.
type Config struct {
	// Network selects defaults: "mainnet", "preprod" or "preview".
	Network string

	// IndexerURL / IndexerKey configure the chain indexer. The key is
	// optional for read operations.
	IndexerURL string
	IndexerKey string

	// AssemblerURL / AssemblerKey configure the transaction-assembly
	// service. Required for draft operations only.
	AssemblerURL string
	AssemblerKey string

	// Deployment pins the protocol's script addresses and filter units.
	// Zero value means the network default.
	Deployment Deployment
}

// Deployment is the set of script addresses and authenticity-token units a
// protocol instance is deployed under. Registry entries and CDPs share
// CDPAddress; pool and account records share StabilityPoolAddress; staking
// manager and positions share StakingAddress.
type Deployment struct {
	CDPAddress            string
	OracleAddress         string
	InterestOracleAddress string
	StabilityPoolAddress  string
	StakingAddress        string
	GovAddress            string
	CollectorAddress      string
	TreasuryAddress       string
	RedemptionAddress     string

	// Coarse filter units: records of a kind hold one of the kind's token.
	IAssetAuthUnit     string
	CDPAuthUnit        string
	StabilityPoolUnit  string
	StakingUnit        string
	GovUnit            string
	CollectorUnit      string
	TreasuryUnit       string
	RedemptionUnit     string
}

func (d Deployment) isZero() bool {
	return d.CDPAddress == ""
}

// deployments per network.
var deployments = map[string]Deployment{
	"mainnet": {
		CDPAddress:            "addr1wy3ll0hgkzjsxfa2lqt4uq96cdnr4jsxd9me2gvvsrk0dage8zy2y",
		OracleAddress:         "addr1w8mcrl2rtyg6p5las8rcsqty2dwpw9ple5vu7wgw6qvqgzgvwnjvc",
		InterestOracleAddress: "addr1wxh5lxc2xqnv0d8c6me3xmwm5str6vzd2kdgwlrqtvhxsmcvyfwp4",
		StabilityPoolAddress:  "addr1w9m2hhrl4kgxs2xptvyl8r0a8sl7sq5f0v4dyfeliduvf2gc9elcy",
		StakingAddress:        "addr1wx47rqn6xkrq3dj93hy0g3vwhz8dkvnu4mne2yqd5dr0s0c35kufv",
		GovAddress:            "addr1wye8vrcrqcy0dn3hq4et3kt5l2que6z5xy4dgzzqywkrc9qk8kdnh",
		CollectorAddress:      "addr1w95dj4ccq6mjyrgtxm2p4y7mdslq0cz7yrevkezhqsmr9lsg2fk9u",
		TreasuryAddress:       "addr1wxz0546kl8m2f8y2jl0ys6vep0dqwyqfcfts5nqkjxlvtks9qkv7c",
		RedemptionAddress:     "addr1w90juu7sghfcqtmlz5w4aqj4mf2kvvn0u07w4z7j0lnxdcgxfzvxn",

		IAssetAuthUnit:    "f66d78b4a3cb3d37afa0ec36461e51ecbde00f26c8f0a68f94b6988069417373657441757468",
		CDPAuthUnit:       "0b4c3bdd8a85500b94ebae0b0d7c4ff9e66ccbcd6bac23ea6c906cd343445041757468",
		StabilityPoolUnit: "1bd5d1c60b5dbcb0dfbbb3c4b0e6b90353cd5c4b3db9cc00f3aebd9e53504175746846",
		StakingUnit:       "dd2e4da33dcb00f2cc057db0932adad38ee54b1c3b611a9c10a54a1e5374616b696e6741757468",
		GovUnit:           "600b6dcbf0a1d73dd00c7bd6618b4bae6b40cb0c64bd919ca846a50b476f7641757468",
		CollectorUnit:     "9e98cd26ab3a9611b8f48becbfdbca0a3fcd1dc0e265de11e65c4ed0436f6c6c6563746f72",
		TreasuryUnit:      "71bb906d2cb6ce8094dfb6c0b531d65e348b7dcd7bd17663beeefcb75472656173757279",
		RedemptionUnit:    "c801b58296cce1bdb60b150b9d60fbe0bbd0049fd683c6e4238b4c8c4c525041757468",
	},
	"preprod": {
		CDPAddress:            "addr_test1wq48z2qq04u5vjgkzwqrwq9csh5rcrlc5zjkfnw4ccsuq9qylyfqy",
		OracleAddress:         "addr_test1wp5df0dqn5cw2tq7wqfnrmk8q5c7wq5rlmc82yqlfnqyrkq54q9q",
		InterestOracleAddress: "addr_test1wre7jd6c6z0qy0cdmqs9wzxw6t7yp37c0qr57ycj2mqpq9qv9kqnj",
		StabilityPoolAddress:  "addr_test1wz4e8lq0m6qr2ss8p6nq4t3mq5rlmc82yqlfnqyrk5xq2qg3k4m4n",
		StakingAddress:        "addr_test1wqn9xq6t6y8rq3djf3hy0g3vwhz8dkvnu4qlne2yqd7q3q5c3a9re",
		GovAddress:            "addr_test1wrxe8vrcrqcy0dn3hq4et3kt5l2que6z5xy4dgzzqkv0pqgwr9uqp",
		CollectorAddress:      "addr_test1wp0dj4ccq6mjyrgtxm2p4y7mdslq0cz7yrevkezhqslz9cs623k9l",
		TreasuryAddress:       "addr_test1wqk0546kl8m2f8y2jl0ys6vep0dqwyqfcfts5nqkjxq8tkslkp47j",
		RedemptionAddress:     "addr_test1wz5juu7sghfcqtmlz5w4aqj4mf2kvvn0u07w4z7j0lqxdcqfypwxw",

		IAssetAuthUnit:    "a11ce5bb40a2b6cfca3e3ca2b90890b4ccc56fbcaa9dc00f94b6988069417373657441757468",
		CDPAuthUnit:       "b24c3bdd8a85500b94ebae0b0d7c4ff9e66ccbcd6bac23ea6c906cd343445041757468",
		StabilityPoolUnit: "c3d5d1c60b5dbcb0dfbbb3c4b0e6b90353cd5c4b3db9cc00f3aebd9e5350417574",
		StakingUnit:       "d42e4da33dcb00f2cc057db0932adad38ee54b1c3b611a9c10a54a1e5374616b696e6741757468",
		GovUnit:           "e50b6dcbf0a1d73dd00c7bd6618b4bae6b40cb0c64bd919ca846a50b476f7641757468",
		CollectorUnit:     "f698cd26ab3a9611b8f48becbfdbca0a3fcd1dc0e265de11e65c4ed0436f6c6c6563746f72",
		TreasuryUnit:      "07bb906d2cb6ce8094dfb6c0b531d65e348b7dcd7bd17663beeefcb75472656173757279",
		RedemptionUnit:    "1801b58296cce1bdb60b150b9d60fbe0bbd0049fd683c6e4238b4c8c4c525041757468",
	},
	"preview": {
		CDPAddress:            "addr_test1wzf3n2qq04u5vjgkzwqrwq9csh5rcrlc5zjkfnw4ccsuq9q8m2vnl",
		OracleAddress:         "addr_test1wq9wf0dqn5cw2tq7wqfnrmk8q5c7wq5rlmc82yqlfnqyrkqc64r7g",
		InterestOracleAddress: "addr_test1wzm7jd6c6z0qy0cdmqs9wzxw6t7yp37c0qr57ycj2mqpq9q2r8q5d",
		StabilityPoolAddress:  "addr_test1wpye8lq0m6qr2ss8p6nq4t3mq5rlmc82yqlfnqyrk5xq2q9jw6e2f",
		StakingAddress:        "addr_test1wz89xq6t6y8rq3djf3hy0g3vwhz8dkvnu4qlne2yqd7q3qw8k3x7l",
		GovAddress:            "addr_test1wqle8vrcrqcy0dn3hq4et3kt5l2que6z5xy4dgzzqkv0pq2hd5m9c",
		CollectorAddress:      "addr_test1wzvdj4ccq6mjyrgtxm2p4y7mdslq0cz7yrevkezhqslz9csrp2w4h",
		TreasuryAddress:       "addr_test1wpc0546kl8m2f8y2jl0ys6vep0dqwyqfcfts5nqkjxq8tksvm8e3j",
		RedemptionAddress:     "addr_test1wq2juu7sghfcqtmlz5w4aqj4mf2kvvn0u07w4z7j0lqxdcq6n9p8w",

		IAssetAuthUnit:    "2e1ce5bb40a2b6cfca3e3ca2b90890b4ccc56fbcaa9dc00f94b6988069417373657441757468",
		CDPAuthUnit:       "3f4c3bdd8a85500b94ebae0b0d7c4ff9e66ccbcd6bac23ea6c906cd343445041757468",
		StabilityPoolUnit: "40d5d1c60b5dbcb0dfbbb3c4b0e6b90353cd5c4b3db9cc00f3aebd9e5350417574",
		StakingUnit:       "512e4da33dcb00f2cc057db0932adad38ee54b1c3b611a9c10a54a1e5374616b696e6741757468",
		GovUnit:           "620b6dcbf0a1d73dd00c7bd6618b4bae6b40cb0c64bd919ca846a50b476f7641757468",
		CollectorUnit:     "7398cd26ab3a9611b8f48becbfdbca0a3fcd1dc0e265de11e65c4ed0436f6c6c6563746f72",
		TreasuryUnit:      "84bb906d2cb6ce8094dfb6c0b531d65e348b7dcd7bd17663beeefcb75472656173757279",
		RedemptionUnit:    "9501b58296cce1bdb60b150b9d60fbe0bbd0049fd683c6e4238b4c8c4c525041757468",
	},
}

// DefaultDeployment returns the pinned deployment for a network. The second
// return is false for networks the protocol is not deployed on; querying an
// indexer with another network's script addresses only yields empty results,
// so that is a configuration error, not a fallback.
func DefaultDeployment(network string) (Deployment, bool) {
	d, ok := deployments[network]
	return d, ok
}

// FromEnv builds a Config from environment variables:
//
//	LAGOON_NETWORK        mainnet (default), preprod, preview
//	LAGOON_INDEXER_URL    optional indexer override
//	LAGOON_INDEXER_KEY    indexer API key (reads work unkeyed, rate-limited)
//	LAGOON_ASSEMBLER_URL  transaction assembly endpoint (drafts only)
//	LAGOON_ASSEMBLER_KEY  assembly credential (drafts only)
func FromEnv() Config {
	network := os.Getenv("LAGOON_NETWORK")
	if network == "" {
		network = "mainnet"
	}
	return Config{
		Network:      network,
		IndexerURL:   os.Getenv("LAGOON_INDEXER_URL"),
		IndexerKey:   os.Getenv("LAGOON_INDEXER_KEY"),
		AssemblerURL: os.Getenv("LAGOON_ASSEMBLER_URL"),
		AssemblerKey: os.Getenv("LAGOON_ASSEMBLER_KEY"),
	}
}
