// Package config handles node configuration.
//
// Configuration is split into typed per-subsystem bundles, following the
// same "conf" struct-tag convention used throughout this package, so a
// future file/flag loader can map dotted option names directly onto struct
// fields.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// NetworkEnv identifies which network presets a node is running: mainnet,
// testnet, or a local development network.
type NetworkEnv string

const (
	Mainnet NetworkEnv = "mainnet"
	Testnet NetworkEnv = "testnet"
	Dev     NetworkEnv = "dev"
)

// Config holds the full node configuration.
type Config struct {
	Network    NetworkEnv `conf:"network"`
	DataDir    string     `conf:"datadir"`
	P2P        NetworkConfig
	RPC        RPCConfig
	Mempool    MempoolConfig
	Consensus  ConsensusConfig
	Validation ValidationConfig
	Log        LogConfig

	// ValidatorKeyPath, when non-empty, points at an encrypted keystore
	// file holding the node's validator signing key (see internal/keystore).
	// The decryption password is read from the POPC_VALIDATOR_PASSWORD
	// environment variable.
	ValidatorKeyPath string
}

// ValidationMode controls how strictly the network adapter treats peer
// messages before handing them to the node orchestrator.
type ValidationMode string

const (
	ValidationNone       ValidationMode = "none"
	ValidationPermissive ValidationMode = "permissive"
	ValidationStrict     ValidationMode = "strict"
)

// NetworkConfig holds P2P/gossip transport settings.
type NetworkConfig struct {
	ChainID        uint64         `conf:"network.chain_id"`
	ListenAddr     string         `conf:"network.listen_addr"`
	Port           int            `conf:"network.port"`
	MaxPeers       int            `conf:"network.max_peers"`
	MinPeers       int            `conf:"network.min_peers"`
	BootstrapNodes []string       `conf:"network.bootstrap_nodes"`
	EnableMDNS     bool           `conf:"network.enable_mdns"`
	EnableKad      bool           `conf:"network.enable_kad"`
	ValidationMode ValidationMode `conf:"network.validation_mode"`
	IdleTimeout    time.Duration  `conf:"network.idle_timeout"`
	MaxMessageSize int            `conf:"network.max_message_size"`
}

// RPCConfig holds JSON-RPC HTTP server settings.
type RPCConfig struct {
	Enabled    bool     `conf:"rpc.enabled"`
	Addr       string   `conf:"rpc.addr"`
	Port       int      `conf:"rpc.port"`
	AllowedIPs []string `conf:"rpc.allowed"`
	CORSOrigins []string `conf:"rpc.cors"`
}

// MempoolConfig holds mempool admission/capacity settings.
type MempoolConfig struct {
	MaxPoolSize           int `conf:"mempool.max_pool_size"`
	MaxPerAccount         int `conf:"mempool.max_per_account"`
	MaxNonceGap           int `conf:"mempool.max_nonce_gap"`
	ReplacementPriceBumpBps int `conf:"mempool.replacement_price_bump_bps"`
}

// ConsensusConfig holds PoPC parameters.
type ConsensusConfig struct {
	SampleSize          int           `conf:"consensus.sample_size"`
	RedundancyRate      float64       `conf:"consensus.redundancy_rate"`
	MinConfidence       float64       `conf:"consensus.min_confidence"`
	FraudWindow         time.Duration `conf:"consensus.fraud_window"`
	VRFDelayBlocks       uint64       `conf:"consensus.vrf_delay_blocks"`
	FalsePassPenaltyBps int           `conf:"consensus.false_pass_penalty_bps"`
	MinValidatorStake   uint64        `conf:"consensus.min_validator_stake"`
}

// ValidationConfig holds block/transaction validation thresholds.
type ValidationConfig struct {
	MaxBlockSize             int           `conf:"validation.max_block_size"`
	MaxTransactionsPerBlock  int           `conf:"validation.max_transactions_per_block"`
	MaxTimestampDrift        time.Duration `conf:"validation.max_timestamp_drift"`
	MinGasPrice              uint64        `conf:"validation.min_gas_price"`
	BlockGasLimit            uint64        `conf:"validation.block_gas_limit"`
	MinTransactionGas        uint64        `conf:"validation.min_transaction_gas"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.popc
//	macOS:   ~/Library/Application Support/PoPC
//	Windows: %APPDATA%\PoPC
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".popc"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "PoPC")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "PoPC")
		}
		return filepath.Join(home, "AppData", "Roaming", "PoPC")
	default:
		return filepath.Join(home, ".popc")
	}
}

// ChainDataDir returns the chain-specific data directory.
func (c *Config) ChainDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// StateDir returns the state-store directory.
func (c *Config) StateDir() string {
	return filepath.Join(c.ChainDataDir(), "state")
}

// KeystoreDir returns the validator keystore directory.
func (c *Config) KeystoreDir() string {
	return filepath.Join(c.ChainDataDir(), "keystore")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "popc.conf")
}
