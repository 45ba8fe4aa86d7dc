package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/popc-project/popc-node/pkg/block"
	"github.com/popc-project/popc-node/pkg/tx"
	"github.com/popc-project/popc-node/pkg/types"
)

// Column-family prefixes within the underlying DB.
var (
	cfBlocks       = []byte("blocks/")
	cfHashToNumber = []byte("block_hash_to_number/")
	cfTransactions = []byte("transactions/")
	cfTxToBlock    = []byte("tx_to_block/")
	cfChainState   = []byte("chain_state/")
	cfAccounts     = []byte("accounts/")
)

const chainHeightKey = "chain_height"

// ErrNotFound is returned when a lookup finds no matching record.
var ErrNotFound = errors.New("not found")

// ChainStore is the durable, crash-consistent store for blocks,
// transactions, and chain metadata, laid out as the column families in
// spec §4.5.
type ChainStore struct {
	blocks       DB
	hashToNumber DB
	txs          DB
	txToBlock    DB
	chainState   DB
	accounts     DB
	raw          DB // underlying DB, used to obtain a cross-family batch
}

// NewChainStore wraps db with the column-family namespaces.
func NewChainStore(db DB) *ChainStore {
	return &ChainStore{
		blocks:       NewPrefixDB(db, cfBlocks),
		hashToNumber: NewPrefixDB(db, cfHashToNumber),
		txs:          NewPrefixDB(db, cfTransactions),
		txToBlock:    NewPrefixDB(db, cfTxToBlock),
		chainState:   NewPrefixDB(db, cfChainState),
		accounts:     NewPrefixDB(db, cfAccounts),
		raw:          db,
	}
}

func blockKey(number uint64) []byte {
	return []byte(fmt.Sprintf("block_%d", number))
}

// StoreBlock persists b under blocks/block_{number}, the hash->number
// index, and advances chain_height if b.Number is greater than the
// current height. When the underlying DB supports Batcher, all three
// writes commit atomically so a crash mid-write cannot advance the
// height past a block that was never durably written.
func (s *ChainStore) StoreBlock(b *block.Block) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal block %d: %w", b.Number, err)
	}

	numBuf := make([]byte, 8)
	binary.BigEndian.PutUint64(numBuf, b.Number)

	current, haveCurrent, err := s.chainHeight()
	if err != nil {
		return err
	}
	advance := !haveCurrent || b.Number > current

	if batcher, ok := s.raw.(Batcher); ok {
		batch := batcher.NewBatch()
		if err := batch.Put(withPrefix(cfBlocks, blockKey(b.Number)), data); err != nil {
			return err
		}
		if err := batch.Put(withPrefix(cfHashToNumber, b.Hash[:]), numBuf); err != nil {
			return err
		}
		if advance {
			if err := batch.Put(withPrefix(cfChainState, []byte(chainHeightKey)), numBuf); err != nil {
				return err
			}
		}
		if err := batch.Commit(); err != nil {
			return fmt.Errorf("commit block %d batch: %w", b.Number, err)
		}
		return nil
	}

	if err := s.blocks.Put(blockKey(b.Number), data); err != nil {
		return fmt.Errorf("store block %d: %w", b.Number, err)
	}
	if err := s.hashToNumber.Put(b.Hash[:], numBuf); err != nil {
		return fmt.Errorf("store block hash index %d: %w", b.Number, err)
	}
	if advance {
		if err := s.chainState.Put([]byte(chainHeightKey), numBuf); err != nil {
			return fmt.Errorf("update chain height: %w", err)
		}
	}
	return nil
}

func withPrefix(prefix, key []byte) []byte {
	out := make([]byte, len(prefix)+len(key))
	copy(out, prefix)
	copy(out[len(prefix):], key)
	return out
}

func (s *ChainStore) chainHeight() (uint64, bool, error) {
	data, err := s.chainState.Get([]byte(chainHeightKey))
	if err != nil {
		return 0, false, nil
	}
	if len(data) != 8 {
		return 0, false, fmt.Errorf("%w: chain_height malformed", ErrNotFound)
	}
	return binary.BigEndian.Uint64(data), true, nil
}

// GetBlockByNumber returns the block at the given height.
func (s *ChainStore) GetBlockByNumber(number uint64) (*block.Block, error) {
	data, err := s.blocks.Get(blockKey(number))
	if err != nil {
		return nil, fmt.Errorf("%w: block %d", ErrNotFound, number)
	}
	var b block.Block
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode block %d: %w", number, err)
	}
	return &b, nil
}

// GetBlockByHash resolves hash to a block number via the hash index, then
// loads the block.
func (s *ChainStore) GetBlockByHash(hash types.Hash) (*block.Block, error) {
	numBuf, err := s.hashToNumber.Get(hash[:])
	if err != nil {
		return nil, fmt.Errorf("%w: block hash %s", ErrNotFound, hash)
	}
	if len(numBuf) != 8 {
		return nil, fmt.Errorf("decode block hash index: malformed entry")
	}
	return s.GetBlockByNumber(binary.BigEndian.Uint64(numBuf))
}

// GetLatestBlock returns the block at the current chain height.
func (s *ChainStore) GetLatestBlock() (*block.Block, error) {
	height, ok, err := s.chainHeight()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: chain is empty", ErrNotFound)
	}
	return s.GetBlockByNumber(height)
}

// GetBlocksRange returns blocks from a to b inclusive, stopping at the
// first missing block.
func (s *ChainStore) GetBlocksRange(a, b uint64) ([]*block.Block, error) {
	var out []*block.Block
	for n := a; n <= b; n++ {
		blk, err := s.GetBlockByNumber(n)
		if err != nil {
			break
		}
		out = append(out, blk)
	}
	return out, nil
}

// StoreTransaction writes the transaction and the tx-hash -> block-hash
// index.
func (s *ChainStore) StoreTransaction(t *tx.Transaction, blockHash types.Hash) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal transaction %s: %w", t.Hash, err)
	}
	if err := s.txs.Put(t.Hash[:], data); err != nil {
		return fmt.Errorf("store transaction %s: %w", t.Hash, err)
	}
	if err := s.txToBlock.Put(t.Hash[:], blockHash[:]); err != nil {
		return fmt.Errorf("store tx->block index %s: %w", t.Hash, err)
	}
	return nil
}

// GetTransaction returns the transaction with the given hash.
func (s *ChainStore) GetTransaction(hash types.Hash) (*tx.Transaction, error) {
	data, err := s.txs.Get(hash[:])
	if err != nil {
		return nil, fmt.Errorf("%w: transaction %s", ErrNotFound, hash)
	}
	var t tx.Transaction
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode transaction %s: %w", hash, err)
	}
	return &t, nil
}

// GetTransactionBlock returns the hash of the block containing the
// transaction with the given hash.
func (s *ChainStore) GetTransactionBlock(hash types.Hash) (types.Hash, error) {
	data, err := s.txToBlock.Get(hash[:])
	if err != nil {
		return types.Hash{}, fmt.Errorf("%w: tx->block index for %s", ErrNotFound, hash)
	}
	var blockHash types.Hash
	if len(data) != types.HashSize {
		return types.Hash{}, fmt.Errorf("decode tx->block index: malformed entry")
	}
	copy(blockHash[:], data)
	return blockHash, nil
}

// StoreStateRoot records the state root for block number n as hex text.
func (s *ChainStore) StoreStateRoot(n uint64, hexRoot string) error {
	key := []byte(fmt.Sprintf("state_root_%d", n))
	if err := s.chainState.Put(key, []byte(hexRoot)); err != nil {
		return fmt.Errorf("store state root %d: %w", n, err)
	}
	return nil
}

// GetStateRoot returns the hex-encoded state root for block number n.
func (s *ChainStore) GetStateRoot(n uint64) (string, error) {
	key := []byte(fmt.Sprintf("state_root_%d", n))
	data, err := s.chainState.Get(key)
	if err != nil {
		return "", fmt.Errorf("%w: state root for block %d", ErrNotFound, n)
	}
	return string(data), nil
}

// ChainHeight returns the current chain height, or ErrNotFound if no
// block has been stored yet.
func (s *ChainStore) ChainHeight() (uint64, error) {
	height, ok, err := s.chainHeight()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: chain is empty", ErrNotFound)
	}
	return height, nil
}
