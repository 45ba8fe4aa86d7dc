package config

import "fmt"

// Validate checks runtime node config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	switch cfg.Network {
	case Mainnet, Testnet, Dev:
	default:
		return fmt.Errorf("network must be %q, %q, or %q", Mainnet, Testnet, Dev)
	}
	if cfg.P2P.Port < 0 || cfg.P2P.Port > 65535 {
		return fmt.Errorf("network.port must be in range [0, 65535]")
	}
	if cfg.RPC.Port < 0 || cfg.RPC.Port > 65535 {
		return fmt.Errorf("rpc.port must be in range [0, 65535]")
	}
	if cfg.P2P.MinPeers > cfg.P2P.MaxPeers {
		return fmt.Errorf("network.min_peers (%d) cannot exceed network.max_peers (%d)", cfg.P2P.MinPeers, cfg.P2P.MaxPeers)
	}
	if cfg.P2P.MaxMessageSize <= 0 {
		return fmt.Errorf("network.max_message_size must be positive")
	}
	switch cfg.P2P.ValidationMode {
	case ValidationNone, ValidationPermissive, ValidationStrict:
	default:
		return fmt.Errorf("network.validation_mode must be none, permissive, or strict")
	}
	if cfg.Consensus.SampleSize <= 0 {
		return fmt.Errorf("consensus.sample_size must be positive")
	}
	if cfg.Consensus.RedundancyRate < 0 || cfg.Consensus.RedundancyRate > 1 {
		return fmt.Errorf("consensus.redundancy_rate must be in [0, 1]")
	}
	if cfg.Consensus.MinConfidence < 0 || cfg.Consensus.MinConfidence > 1 {
		return fmt.Errorf("consensus.min_confidence must be in [0, 1]")
	}
	if cfg.Consensus.VRFDelayBlocks < 1 {
		return fmt.Errorf("consensus.vrf_delay_blocks must be at least 1")
	}
	if cfg.Validation.MaxBlockSize <= 0 {
		return fmt.Errorf("validation.max_block_size must be positive")
	}
	if cfg.Validation.MinTransactionGas == 0 {
		return fmt.Errorf("validation.min_transaction_gas must be positive")
	}
	if cfg.Validation.BlockGasLimit < cfg.Validation.MinTransactionGas {
		return fmt.Errorf("validation.block_gas_limit must be at least validation.min_transaction_gas")
	}
	if cfg.Mempool.MaxPoolSize <= 0 {
		return fmt.Errorf("mempool.max_pool_size must be positive")
	}
	if cfg.Mempool.MaxPerAccount <= 0 {
		return fmt.Errorf("mempool.max_per_account must be positive")
	}
	return nil
}
