package config

import "time"

// DefaultMainnet returns the default node configuration for mainnet.
func DefaultMainnet() *Config {
	return &Config{
		Network: Mainnet,
		DataDir: DefaultDataDir(),
		P2P: NetworkConfig{
			ChainID:    86150,
			ListenAddr: "0.0.0.0",
			Port:       30303,
			MaxPeers:   50,
			MinPeers:   4,
			// Real addresses will be filled in when seed servers are
			// provisioned; format is multiaddr, e.g.:
			//   "/dns4/seed1.popc.network/tcp/30303/p2p/12D3KooW..."
			BootstrapNodes: []string{},
			EnableMDNS:     false,
			EnableKad:      true,
			ValidationMode: ValidationStrict,
			IdleTimeout:    60 * time.Second,
			MaxMessageSize: 1 << 20, // 1 MiB
		},
		RPC: RPCConfig{
			Enabled:    true,
			Addr:       "127.0.0.1",
			Port:       8545,
			AllowedIPs: []string{"127.0.0.1"},
		},
		Mempool: MempoolConfig{
			MaxPoolSize:             10000,
			MaxPerAccount:           100,
			MaxNonceGap:             10,
			ReplacementPriceBumpBps: 1000,
		},
		Consensus: ConsensusConfig{
			SampleSize:          1000,
			RedundancyRate:      0.025,
			MinConfidence:       0.99,
			FraudWindow:         time.Hour,
			VRFDelayBlocks:      2,
			FalsePassPenaltyBps: 500,
			MinValidatorStake:   0,
		},
		Validation: ValidationConfig{
			MaxBlockSize:            1 << 20, // 1 MiB
			MaxTransactionsPerBlock: 10000,
			MaxTimestampDrift:       15 * time.Second,
			MinGasPrice:             1_000_000_000, // 1 Gwei
			BlockGasLimit:           30_000_000,
			MinTransactionGas:       21000,
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// DefaultTestnet returns the default node configuration for testnet.
func DefaultTestnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Testnet
	cfg.P2P.ChainID = 86137
	cfg.P2P.Port = 30304
	cfg.RPC.Port = 8645
	return cfg
}

// DefaultDev returns the default node configuration for a local single-node
// development network: no peers expected, permissive validation, a low
// sample size so challenges are cheap to eyeball.
func DefaultDev() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Dev
	cfg.P2P.ChainID = 31337
	cfg.P2P.Port = 30305
	cfg.P2P.MinPeers = 0
	cfg.P2P.EnableKad = false
	cfg.P2P.ValidationMode = ValidationPermissive
	cfg.RPC.Port = 8745
	cfg.Consensus.SampleSize = 10
	cfg.Consensus.MinValidatorStake = 0
	cfg.Log.Level = "debug"
	return cfg
}

// Default returns the default node configuration for the given network.
func Default(network NetworkEnv) *Config {
	switch network {
	case Testnet:
		return DefaultTestnet()
	case Dev:
		return DefaultDev()
	default:
		return DefaultMainnet()
	}
}
