// popcd is the PoPC full node daemon.
//
// Usage:
//
//	popcd [--network=mainnet|testnet|dev]  Run node
//	popcd --help                           Show help
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/popc-project/popc-node/config"
	klog "github.com/popc-project/popc-node/internal/log"
	"github.com/popc-project/popc-node/internal/node"
	"github.com/popc-project/popc-node/internal/rpc"
	"github.com/rs/zerolog"
)

func main() {
	// ── 1. Load config (defaults → file → flags) ────────────────────────
	cfg, _, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to init logging: %v\n", err)
		os.Exit(1)
	}
	logger := klog.WithComponent("node")

	genesis, err := loadOrDefaultGenesis(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load genesis")
	}

	// ── 2. Build the node ────────────────────────────────────────────────
	n, err := node.New(cfg, genesis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize node")
	}

	if err := n.Start(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start node")
	}
	logger.Info().
		Str("network", string(cfg.Network)).
		Uint64("chain_id", genesis.ChainID).
		Uint64("height", n.Height()).
		Msg("node started")

	// ── 3. Start RPC, if enabled ─────────────────────────────────────────
	var rpcServer *rpc.Server
	if cfg.RPC.Enabled {
		addr := fmt.Sprintf("%s:%d", cfg.RPC.Addr, cfg.RPC.Port)
		rpcServer = rpc.New(addr, n, cfg.RPC)
		if err := rpcServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("failed to start RPC server")
		}
		logger.Info().Str("addr", rpcServer.Addr()).Msg("RPC server listening")
	}

	// ── 4. Wait for a shutdown signal ────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	logger.Info().Msg("shutdown signal received")

	shutdown(logger, n, rpcServer)
}

// shutdown tears the node down in the order required by the concurrency
// model: stop accepting new RPC work, then stop the network adapter and
// drop the state store. Every step is best-effort; a failure at one step
// does not prevent the remaining steps from running.
func shutdown(logger zerolog.Logger, n *node.Node, rpcServer *rpc.Server) {
	if rpcServer != nil {
		if err := rpcServer.Stop(); err != nil {
			logger.Error().Err(err).Msg("error stopping RPC server")
		}
	}
	n.Stop()
}

// loadOrDefaultGenesis loads the genesis file from the data directory if
// present, falling back to the network's built-in genesis preset.
func loadOrDefaultGenesis(cfg *config.Config) (*config.Genesis, error) {
	path := cfg.DataDir + "/genesis.json"
	if _, err := os.Stat(path); err == nil {
		return config.LoadGenesis(path)
	}
	genesis := config.GenesisFor(cfg.Network)
	if err := genesis.Save(path); err != nil {
		return nil, fmt.Errorf("writing default genesis: %w", err)
	}
	return genesis, nil
}
