// Package node provides the reusable orchestrator embedded by popcd: it
// owns the state store, mempool, and consensus engine, and drives a sync
// task that consumes decoded messages from the network adapter.
package node

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/popc-project/popc-node/config"
	"github.com/popc-project/popc-node/internal/consensus"
	"github.com/popc-project/popc-node/internal/keystore"
	klog "github.com/popc-project/popc-node/internal/log"
	"github.com/popc-project/popc-node/internal/mempool"
	"github.com/popc-project/popc-node/internal/p2p"
	"github.com/popc-project/popc-node/internal/storage"
	"github.com/popc-project/popc-node/pkg/block"
	"github.com/popc-project/popc-node/pkg/crypto"
	"github.com/popc-project/popc-node/pkg/tx"
	"github.com/popc-project/popc-node/pkg/types"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/rs/zerolog"
)

// validatorKeyPasswordEnv names the environment variable holding the
// decryption password for ValidatorKeyPath.
const validatorKeyPasswordEnv = "POPC_VALIDATOR_PASSWORD"

// txBaseGas and txGasPerDataByte recompute gas_used for a block ingested
// from the network, which per the wire format carries no per-transaction
// receipts of their own.
const (
	txBaseGas        = 21000
	txGasPerDataByte = 68
)

// Stats counts messages and blocks processed since the node started.
type Stats struct {
	BlocksIngested  uint64
	BlocksRejected  uint64
	TxsIngested     uint64
	TxsRejected     uint64
	BlocksPublished uint64
	TxsPublished    uint64
}

// Node owns the state store, mempool, consensus registry, and the network
// adapter handle, and runs the sync task that turns adapter messages into
// store writes.
type Node struct {
	cfg     *config.Config
	genesis *config.Genesis
	logger  zerolog.Logger

	db    storage.DB
	store *storage.ChainStore
	pool  *mempool.Pool

	registry *consensus.Registry
	tracker  *consensus.ValidatorTracker
	verifier consensus.ProofVerifier

	validatorKey *crypto.PrivateKey

	p2pNode *p2p.Node

	blockParams block.Params
	txParams    tx.Params

	statsMu sync.Mutex
	stats   Stats

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a Node from cfg and genesis. It opens the durable store,
// bootstraps the genesis block and validator registry if the chain is
// empty, and wires the network adapter's message and request handlers.
// It does not start any background task; call Start for that.
func New(cfg *config.Config, genesis *config.Genesis) (*Node, error) {
	logger := klog.WithComponent("node")

	db, err := storage.NewBadger(cfg.ChainDataDir())
	if err != nil {
		return nil, fmt.Errorf("open chain store: %w", err)
	}
	store := storage.NewChainStore(db)

	txParams := tx.Params{
		MinTransactionGas: cfg.Validation.MinTransactionGas,
		MinGasPrice:       cfg.Validation.MinGasPrice,
	}
	blockParams := block.Params{
		MaxBlockSize:            cfg.Validation.MaxBlockSize,
		MaxTransactionsPerBlock: cfg.Validation.MaxTransactionsPerBlock,
		MaxTimestampDrift:       int64(cfg.Validation.MaxTimestampDrift.Seconds()),
		BlockGasLimit:           cfg.Validation.BlockGasLimit,
		Tx:                      txParams,
	}

	pool := mempool.New(mempool.Params{
		MaxPoolSize:   cfg.Mempool.MaxPoolSize,
		MaxPerAccount: cfg.Mempool.MaxPerAccount,
		MaxNonceGap:   cfg.Mempool.MaxNonceGap,
		TxParams:      txParams,
	})

	registry := consensus.NewRegistry(types.NewU128FromUint64(cfg.Consensus.MinValidatorStake))
	tracker := consensus.NewValidatorTracker(30 * time.Second)

	n := &Node{
		cfg:         cfg,
		genesis:     genesis,
		logger:      logger,
		db:          db,
		store:       store,
		pool:        pool,
		registry:    registry,
		tracker:     tracker,
		verifier:    consensus.AcceptAllVerifier{},
		blockParams: blockParams,
		txParams:    txParams,
	}

	if err := n.bootstrapGenesis(); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrap genesis: %w", err)
	}
	n.bootstrapValidators()

	if cfg.ValidatorKeyPath != "" {
		key, err := keystore.LoadFromFile(expandHome(cfg.ValidatorKeyPath), []byte(os.Getenv(validatorKeyPasswordEnv)))
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("load validator key: %w", err)
		}
		n.validatorKey = key
		logger.Info().Str("address", crypto.AddressFromPubKey(key.PublicKey()).String()).Msg("validator key loaded")
	}

	genesisHash, err := n.genesisBlockHash()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("compute genesis hash: %w", err)
	}

	n.p2pNode = p2p.New(p2p.Config{
		ListenAddr: cfg.P2P.ListenAddr,
		Port:       cfg.P2P.Port,
		Seeds:      cfg.P2P.BootstrapNodes,
		MaxPeers:   cfg.P2P.MaxPeers,
		NoDiscover: !cfg.P2P.EnableKad && !cfg.P2P.EnableMDNS,
		DB:         db,
		DHTServer:  false,
		NetworkID:  string(cfg.Network),
		DataDir:    cfg.DataDir,
	})
	n.p2pNode.SetGenesisHash(genesisHash)
	n.p2pNode.SetHeightFn(n.Height)
	n.p2pNode.SetMessageHandler(n.handleMessage)
	n.p2pNode.SetRequestHandler(n.handleRequest)

	return n, nil
}

// genesisBlockHash returns the computed hash of the stored genesis block,
// used as the handshake compatibility fingerprint.
func (n *Node) genesisBlockHash() (types.Hash, error) {
	b, err := n.store.GetBlockByNumber(0)
	if err != nil {
		return types.Hash{}, err
	}
	return b.Hash, nil
}

// bootstrapGenesis constructs and stores the genesis block if the chain
// is currently empty. It is a no-op otherwise.
func (n *Node) bootstrapGenesis() error {
	if _, err := n.store.ChainHeight(); err == nil {
		return nil
	}

	b := block.NewBlock(0, types.Hash{}, types.Address{}, nil)
	b.Timestamp = n.genesis.Timestamp
	b.GasLimit = n.cfg.Validation.BlockGasLimit
	b.Hash = b.ComputeHash()

	if err := n.store.StoreBlock(b); err != nil {
		return fmt.Errorf("store genesis block: %w", err)
	}
	n.logger.Info().Str("hash", b.Hash.String()).Uint64("chain_id", n.genesis.ChainID).Msg("genesis block stored")
	return nil
}

// bootstrapValidators registers every genesis validator public key at the
// minimum stake threshold. Genesis carries no per-validator stake
// allocation, so each entry is registered at exactly min_validator_stake.
func (n *Node) bootstrapValidators() {
	minStake := types.NewU128FromUint64(n.cfg.Consensus.MinValidatorStake)
	for _, pkHex := range n.genesis.Validators {
		pkBytes, err := hex.DecodeString(trimHex(pkHex))
		if err != nil {
			n.logger.Warn().Str("pubkey", pkHex).Err(err).Msg("skipping malformed genesis validator pubkey")
			continue
		}
		addr := crypto.AddressFromPubKey(pkBytes)
		v := consensus.Validator{Address: addr, Stake: minStake, IsActive: true}
		if err := n.registry.Register(v); err != nil {
			n.logger.Warn().Str("address", addr.String()).Err(err).Msg("failed to register genesis validator")
		}
	}
}

func trimHex(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// Start launches the network adapter. The adapter drives the sync task by
// invoking the message and request handlers registered in New; there is
// no separate consumer loop to start.
func (n *Node) Start() error {
	n.ctx, n.cancel = context.WithCancel(context.Background())
	if err := n.p2pNode.Start(); err != nil {
		return fmt.Errorf("start network adapter: %w", err)
	}
	n.logger.Info().Str("peer_id", n.p2pNode.ID().String()).Msg("node started")
	return nil
}

// Stop shuts down the node in the documented order: cancel the sync task,
// stop the adapter event loop, then drop the state store reference. The
// RPC server, if any, is stopped by the caller before Stop is invoked.
// Shutdown is best-effort: a failure at one step does not prevent the
// next from being attempted.
func (n *Node) Stop() {
	if n.cancel != nil {
		n.cancel()
	}
	n.wg.Wait()

	if n.p2pNode != nil {
		if err := n.p2pNode.Stop(); err != nil {
			n.logger.Warn().Err(err).Msg("error stopping network adapter")
		}
	}
	if n.db != nil {
		if err := n.db.Close(); err != nil {
			n.logger.Warn().Err(err).Msg("error closing state store")
		}
	}
}

// handleMessage implements the sync task's block- and transaction-message
// ingest rules. It is invoked by the network adapter for every decoded
// message regardless of origin topic.
func (n *Node) handleMessage(from peer.ID, msg p2p.Message) {
	switch msg.Kind {
	case p2p.KindBlock:
		n.handleBlockMessage(msg.Block)
	case p2p.KindTransaction:
		n.handleTransactionMessage(msg.Transaction)
	case p2p.KindConsensus:
		n.handleConsensusMessage(from, msg.Consensus)
	case p2p.KindStatus:
		// Liveness/tip announcements are informational only; no action
		// beyond what the adapter itself already tracks per peer.
	}
}

// handleBlockMessage decodes and ingests a gossiped block. Database
// errors during ingest are logged and the message dropped: the block can
// always be re-fetched from peers.
func (n *Node) handleBlockMessage(payload *p2p.BlockPayload) {
	if payload == nil {
		return
	}
	var b block.Block
	if err := json.Unmarshal(payload.Body, &b); err != nil {
		n.logger.Warn().Err(err).Msg("dropping block message: decode failed")
		n.recordBlockRejected()
		return
	}

	if b.Number == 0 && !b.ParentHash.IsZero() {
		n.logger.Warn().Msg("dropping block message: genesis with non-zero parent hash")
		n.recordBlockRejected()
		return
	}

	// A hash is a function of its other fields: never trust the
	// wire-carried value as content-addressing identity. Each
	// transaction's hash is recomputed first since the block hash itself
	// chains the (now-verified) transaction hashes.
	for _, t := range b.Transactions {
		if t.ComputeHash() != t.Hash {
			n.logger.Warn().Str("tx", t.Hash.String()).Msg("dropping block message: transaction hash does not match its content")
			n.recordBlockRejected()
			return
		}
	}

	// Transaction bodies on the wire may be a subset of what the block
	// actually contains; recompute gas_used from what arrived rather than
	// trusting the sender's figure.
	var gasUsed uint64
	for _, t := range b.Transactions {
		gasUsed += txBaseGas + txGasPerDataByte*uint64(len(t.Data))
	}
	b.GasUsed = gasUsed

	if b.ComputeHash() != b.Hash {
		n.logger.Warn().Uint64("number", b.Number).Msg("dropping block message: block hash does not match its content")
		n.recordBlockRejected()
		return
	}

	if existing, err := n.store.GetBlockByHash(b.Hash); err == nil && existing != nil {
		return // idempotent skip: already stored
	}

	var parent *block.Block
	if b.Number > 0 {
		p, err := n.store.GetBlockByNumber(b.Number - 1)
		if err == nil {
			parent = p
		}
	}

	now := time.Now().Unix()
	if err := b.Validate(parent, now, n.blockParams); err != nil {
		n.logger.Warn().Uint64("number", b.Number).Err(err).Msg("dropping block message: validation failed")
		n.recordBlockRejected()
		return
	}

	if err := n.store.StoreBlock(&b); err != nil {
		n.logger.Error().Uint64("number", b.Number).Err(err).Msg("dropping block message: store failed")
		n.recordBlockRejected()
		return
	}
	for _, t := range b.Transactions {
		if err := n.store.StoreTransaction(t, b.Hash); err != nil {
			n.logger.Error().Str("tx", t.Hash.String()).Err(err).Msg("failed to index transaction for stored block")
		}
		n.pool.UpdateNonce(t.From, t.Nonce+1)
	}

	n.statsMu.Lock()
	n.stats.BlocksIngested++
	n.statsMu.Unlock()
}

// handleTransactionMessage decodes and admits a gossiped transaction to
// the mempool. Admission is unconditional aside from the pool's own
// validation and capacity rules; failures are logged, not propagated.
func (n *Node) handleTransactionMessage(payload *p2p.TransactionPayload) {
	if payload == nil {
		return
	}
	var t tx.Transaction
	if err := json.Unmarshal(payload.Body, &t); err != nil {
		n.logger.Warn().Err(err).Msg("dropping transaction message: decode failed")
		n.recordTxRejected()
		return
	}

	// A hash is a function of its other fields: reject rather than trust
	// a forged wire-carried value, which would otherwise let one logical
	// transaction occupy multiple hash-index slots.
	if t.ComputeHash() != t.Hash {
		n.logger.Warn().Str("tx", t.Hash.String()).Msg("dropping transaction message: hash does not match its content")
		n.recordTxRejected()
		return
	}

	if _, err := n.store.GetTransaction(t.Hash); err == nil {
		return // already confirmed on-chain; idempotent skip
	}

	if err := n.pool.Add(&t); err != nil {
		n.logger.Debug().Str("tx", t.Hash.String()).Err(err).Msg("transaction not admitted to mempool")
		n.recordTxRejected()
		return
	}

	n.statsMu.Lock()
	n.stats.TxsIngested++
	n.statsMu.Unlock()
}

// handleConsensusMessage is the extension point for challenge/proof/vote
// gossip. This node accepts any proof via AcceptAllVerifier; it does not
// itself propose challenges or originate votes, so the sub-kinds are
// currently observational only.
func (n *Node) handleConsensusMessage(from peer.ID, payload *p2p.ConsensusPayload) {
	if payload == nil {
		return
	}
	switch payload.Kind {
	case p2p.ConsensusChallenge, p2p.ConsensusProof, p2p.ConsensusVote:
		// Proof verification and vote tallying are left to the pluggable
		// ProofVerifier and the Registry's vote counters, which a caller
		// with a concrete consensus loop wires up on top of this adapter.
	}
}

func (n *Node) recordBlockRejected() {
	n.statsMu.Lock()
	n.stats.BlocksRejected++
	n.statsMu.Unlock()
}

func (n *Node) recordTxRejected() {
	n.statsMu.Lock()
	n.stats.TxsRejected++
	n.statsMu.Unlock()
}

// handleRequest answers direct Request/Response exchanges over the
// network adapter's request protocol: block range and by-hash sync,
// transaction lookup, peer list, and status.
func (n *Node) handleRequest(req p2p.RequestPayload) p2p.ResponsePayload {
	switch req.Kind {
	case p2p.RequestBlocks:
		max := req.MaxBlocks
		if max == 0 || max > 256 {
			max = 256
		}
		blocks, _ := n.store.GetBlocksRange(req.FromHeight, req.FromHeight+uint64(max)-1)
		var out [][]byte
		for _, b := range blocks {
			data, err := json.Marshal(b)
			if err != nil {
				continue
			}
			out = append(out, data)
		}
		return p2p.ResponsePayload{Kind: req.Kind, Blocks: out}

	case p2p.RequestBlockByHash:
		hash, err := types.HexToHash(req.Hash)
		if err != nil {
			return p2p.ResponsePayload{Kind: req.Kind, Error: "invalid hash"}
		}
		b, err := n.store.GetBlockByHash(hash)
		if err != nil {
			return p2p.ResponsePayload{Kind: req.Kind, Error: "not found"}
		}
		data, err := json.Marshal(b)
		if err != nil {
			return p2p.ResponsePayload{Kind: req.Kind, Error: "encode failed"}
		}
		return p2p.ResponsePayload{Kind: req.Kind, Blocks: [][]byte{data}}

	case p2p.RequestTransaction:
		hash, err := types.HexToHash(req.Hash)
		if err != nil {
			return p2p.ResponsePayload{Kind: req.Kind, Error: "invalid hash"}
		}
		t, err := n.store.GetTransaction(hash)
		if err != nil {
			return p2p.ResponsePayload{Kind: req.Kind, Error: "not found"}
		}
		data, err := json.Marshal(t)
		if err != nil {
			return p2p.ResponsePayload{Kind: req.Kind, Error: "encode failed"}
		}
		return p2p.ResponsePayload{Kind: req.Kind, Transaction: data}

	case p2p.RequestPeers:
		var addrs []string
		for _, p := range n.p2pNode.PeerList() {
			addrs = append(addrs, p.ID.String())
		}
		return p2p.ResponsePayload{Kind: req.Kind, Peers: addrs}

	case p2p.RequestStatus:
		return p2p.ResponsePayload{Kind: req.Kind, Status: &p2p.StatusPayload{
			Height:    n.Height(),
			TipHash:   n.tipHashString(),
			Timestamp: time.Now().Unix(),
			PeerCount: n.p2pNode.PeerCount(),
		}}

	default:
		return p2p.ResponsePayload{Kind: req.Kind, Error: "unknown request kind"}
	}
}

func (n *Node) tipHashString() string {
	b, err := n.store.GetLatestBlock()
	if err != nil {
		return types.Hash{}.String()
	}
	return b.Hash.String()
}

// PublishBlock serializes b to the wire form and hands it to the network
// adapter for gossip.
func (n *Node) PublishBlock(b *block.Block) error {
	if err := n.p2pNode.BroadcastBlock(b); err != nil {
		return err
	}
	n.statsMu.Lock()
	n.stats.BlocksPublished++
	n.statsMu.Unlock()
	return nil
}

// PublishTransaction serializes t to the wire form and hands it to the
// network adapter for gossip.
func (n *Node) PublishTransaction(t *tx.Transaction) error {
	if err := n.p2pNode.BroadcastTransaction(t); err != nil {
		return err
	}
	n.statsMu.Lock()
	n.stats.TxsPublished++
	n.statsMu.Unlock()
	return nil
}

// Height returns the current chain height, or 0 if the chain somehow has
// no blocks (should not happen once New has run, since genesis is always
// bootstrapped).
func (n *Node) Height() uint64 {
	h, err := n.store.ChainHeight()
	if err != nil {
		return 0
	}
	return h
}

// Store returns the node's chain store, for use by the RPC server.
func (n *Node) Store() *storage.ChainStore {
	return n.store
}

// Pool returns the node's mempool, for use by the RPC server.
func (n *Node) Pool() *mempool.Pool {
	return n.pool
}

// Registry returns the node's validator registry.
func (n *Node) Registry() *consensus.Registry {
	return n.registry
}

// Tracker returns the node's validator liveness tracker.
func (n *Node) Tracker() *consensus.ValidatorTracker {
	return n.tracker
}

// P2P returns the node's network adapter handle.
func (n *Node) P2P() *p2p.Node {
	return n.p2pNode
}

// Genesis returns the node's genesis configuration.
func (n *Node) Genesis() *config.Genesis {
	return n.genesis
}

// Config returns the node's configuration.
func (n *Node) Config() *config.Config {
	return n.cfg
}

// TxParams returns the transaction validation parameters in effect for
// this chain.
func (n *Node) TxParams() tx.Params {
	return n.txParams
}

// Stats returns a snapshot of the node's message/block counters.
func (n *Node) Stats() Stats {
	n.statsMu.Lock()
	defer n.statsMu.Unlock()
	return n.stats
}

// ValidatorAddress returns the address derived from the loaded validator
// key, and false if no validator key was configured.
func (n *Node) ValidatorAddress() (types.Address, bool) {
	if n.validatorKey == nil {
		return types.Address{}, false
	}
	return crypto.AddressFromPubKey(n.validatorKey.PublicKey()), true
}
