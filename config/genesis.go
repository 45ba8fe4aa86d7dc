package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/popc-project/popc-node/pkg/crypto"
	"github.com/popc-project/popc-node/pkg/types"
)

// Genesis holds the genesis block parameters and initial account balances.
// This is immutable after chain launch - changes require a hard fork.
type Genesis struct {
	ChainID   uint64            `json:"chain_id"`
	ChainName string            `json:"chain_name"`
	Timestamp uint64            `json:"timestamp"`
	ExtraData string            `json:"extra_data,omitempty"`

	// Alloc maps hex addresses to their genesis balance, in base units.
	Alloc map[string]string `json:"alloc"`

	// Validators lists the hex-encoded Ed25519 public keys registered in
	// the consensus validator set at genesis.
	Validators []string `json:"validators"`
}

// MainnetGenesis returns the mainnet genesis configuration.
func MainnetGenesis() *Genesis {
	return &Genesis{
		ChainID:   86150,
		ChainName: "PoPC Mainnet",
		Timestamp: 1770734103,
		ExtraData: "PoPC Genesis",
		Alloc:     map[string]string{},
		Validators: []string{},
	}
}

// TestnetGenesis returns the testnet genesis configuration.
func TestnetGenesis() *Genesis {
	g := MainnetGenesis()
	g.ChainID = 86137
	g.ChainName = "PoPC Testnet"
	g.ExtraData = "PoPC Testnet Genesis"
	return g
}

// DevGenesis returns the genesis configuration for a local development
// network: a single well-known account is funded so a node can be brought
// up and immediately submit transactions.
func DevGenesis() *Genesis {
	g := MainnetGenesis()
	g.ChainID = 31337
	g.ChainName = "PoPC Dev"
	g.ExtraData = "PoPC Dev Genesis"
	g.Alloc = map[string]string{
		"0x00000000000000000000000000000000000000aa": "0xd3c21bcecceda1000000", // 1,000,000 * 10^18
	}
	return g
}

// GenesisFor returns the genesis config for the given network.
func GenesisFor(network NetworkEnv) *Genesis {
	switch network {
	case Testnet:
		return TestnetGenesis()
	case Dev:
		return DevGenesis()
	default:
		return MainnetGenesis()
	}
}

// LoadGenesis loads a genesis configuration from a file.
func LoadGenesis(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading genesis file: %w", err)
	}
	var g Genesis
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parsing genesis file: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid genesis: %w", err)
	}
	return &g, nil
}

// Save writes the genesis configuration to a file.
func (g *Genesis) Save(path string) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding genesis: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing genesis file: %w", err)
	}
	return nil
}

// Validate checks that the genesis configuration is well-formed.
func (g *Genesis) Validate() error {
	if g.ChainID == 0 {
		return fmt.Errorf("chain_id is required")
	}
	for addrStr, balStr := range g.Alloc {
		if _, err := types.ParseAddress(addrStr); err != nil {
			return fmt.Errorf("invalid alloc address %q: %w", addrStr, err)
		}
		if _, err := types.U128FromHex(balStr); err != nil {
			return fmt.Errorf("invalid alloc balance for %q: %w", addrStr, err)
		}
	}
	for _, pk := range g.Validators {
		if len(pk) != 64 && len(pk) != 66 {
			return fmt.Errorf("invalid validator pubkey %q: expected 32 bytes hex", pk)
		}
	}
	return nil
}

// Hash returns the SHA3-256 hash of the genesis configuration, used to
// detect genesis mismatches between peers during handshake.
func (g *Genesis) Hash() (types.Hash, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return types.Hash{}, err
	}
	return crypto.SHA3256(data), nil
}
