package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadFile loads node configuration from a .conf file.
// Format: key = value (one per line, # for comments)
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}
		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file configuration to a Config struct.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

// setConfigValue sets a node config value by its dotted "conf" tag name.
func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	case "network":
		cfg.Network = NetworkEnv(value)
	case "datadir":
		cfg.DataDir = value

	case "network.listen_addr":
		cfg.P2P.ListenAddr = value
	case "network.port":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.P2P.Port = n
	case "network.max_peers":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.P2P.MaxPeers = n
	case "network.min_peers":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.P2P.MinPeers = n
	case "network.bootstrap_nodes":
		cfg.P2P.BootstrapNodes = parseStringList(value)
	case "network.enable_mdns":
		cfg.P2P.EnableMDNS = parseBool(value)
	case "network.enable_kad":
		cfg.P2P.EnableKad = parseBool(value)
	case "network.validation_mode":
		cfg.P2P.ValidationMode = ValidationMode(value)

	case "rpc.enabled", "rpc":
		cfg.RPC.Enabled = parseBool(value)
	case "rpc.addr":
		cfg.RPC.Addr = value
	case "rpc.port":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.RPC.Port = n
	case "rpc.allowed":
		cfg.RPC.AllowedIPs = parseStringList(value)
	case "rpc.cors":
		cfg.RPC.CORSOrigins = parseStringList(value)

	case "mempool.max_pool_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Mempool.MaxPoolSize = n
	case "mempool.max_per_account":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Mempool.MaxPerAccount = n

	case "consensus.sample_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Consensus.SampleSize = n
	case "consensus.min_validator_stake":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.Consensus.MinValidatorStake = n

	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		// Unknown keys are ignored; protocol rules live in genesis, not here.
	}
	return nil
}

func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// WriteDefaultConfig writes a default node configuration file.
func WriteDefaultConfig(path string, network NetworkEnv) error {
	d := Default(network)
	content := `# PoPC node configuration
#
# This file contains NODE settings only. Protocol parameters that must
# match across all peers (consensus thresholds, validation limits) are
# set via the typed defaults for this network and can be overridden here,
# but genesis identity (chain_id, alloc) is fixed in the genesis file.

network = ` + string(network) + `

# datadir = ~/.popc

network.listen_addr = 0.0.0.0
network.port = ` + defaultPort(network) + `
network.max_peers = 50
network.min_peers = ` + strconv.Itoa(d.P2P.MinPeers) + `
# network.bootstrap_nodes = /dns4/seed1.popc.network/tcp/30303/p2p/...
network.enable_mdns = false
network.enable_kad = ` + strconv.FormatBool(d.P2P.EnableKad) + `
network.validation_mode = ` + string(d.P2P.ValidationMode) + `

rpc.enabled = true
rpc.addr = 127.0.0.1
rpc.port = ` + defaultRPCPort(network) + `
rpc.allowed = 127.0.0.1
# rpc.cors = http://localhost:3000

mempool.max_pool_size = 10000
mempool.max_per_account = 100

consensus.sample_size = ` + strconv.Itoa(d.Consensus.SampleSize) + `
consensus.min_validator_stake = 0

log.level = ` + d.Log.Level + `
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0644)
}

func defaultPort(network NetworkEnv) string {
	switch network {
	case Testnet:
		return "30304"
	case Dev:
		return "30305"
	default:
		return "30303"
	}
}

func defaultRPCPort(network NetworkEnv) string {
	switch network {
	case Testnet:
		return "8645"
	case Dev:
		return "8745"
	default:
		return "8545"
	}
}
