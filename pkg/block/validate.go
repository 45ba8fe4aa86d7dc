package block

import (
	"errors"
	"fmt"

	"github.com/popc-project/popc-node/pkg/tx"
)

// Validation errors.
var (
	ErrBadParentNumber      = errors.New("block number does not follow parent")
	ErrBadParentHash        = errors.New("parent hash mismatch")
	ErrNonGenesisZero       = errors.New("block without a parent must have number 0")
	ErrTimestampDrift       = errors.New("block timestamp too far in the future")
	ErrZeroTimestamp        = errors.New("block timestamp is zero for a non-genesis block")
	ErrBlockTooLarge        = errors.New("block exceeds max_block_size")
	ErrTooManyTxs           = errors.New("too many transactions in block")
	ErrGasLimitExceedsBlock = errors.New("gas_limit exceeds block_gas_limit")
	ErrGasUsedExceedsLimit  = errors.New("gas_used exceeds gas_limit")
	ErrZeroHash             = errors.New("block hash is zero for a non-genesis block")
)

// Params carries the validation thresholds a Block is checked against.
type Params struct {
	MaxBlockSize            int
	MaxTransactionsPerBlock int
	MaxTimestampDrift       int64 // seconds
	BlockGasLimit           uint64
	Tx                      tx.Params
}

// Validate checks b against the stateless block rules. parent is nil for
// genesis (number must then be 0); now is the validator's current time in
// unix seconds, used for the timestamp-drift check.
func (b *Block) Validate(parent *Block, now int64, p Params) error {
	if parent != nil {
		if b.Number != parent.Number+1 {
			return fmt.Errorf("%w: got %d, want %d", ErrBadParentNumber, b.Number, parent.Number+1)
		}
		if b.ParentHash != parent.Hash {
			return fmt.Errorf("%w: got %s, want %s", ErrBadParentHash, b.ParentHash, parent.Hash)
		}
	} else if b.Number != 0 {
		return fmt.Errorf("%w: got %d", ErrNonGenesisZero, b.Number)
	}

	if int64(b.Timestamp) > now+p.MaxTimestampDrift {
		return fmt.Errorf("%w: timestamp=%d now=%d drift=%d", ErrTimestampDrift, b.Timestamp, now, p.MaxTimestampDrift)
	}
	if b.Timestamp == 0 && b.Number != 0 {
		return ErrZeroTimestamp
	}

	size, err := b.EncodedSize()
	if err != nil {
		return fmt.Errorf("measuring encoded size: %w", err)
	}
	if size > p.MaxBlockSize {
		return fmt.Errorf("%w: %d bytes, max %d", ErrBlockTooLarge, size, p.MaxBlockSize)
	}

	if len(b.Transactions) > p.MaxTransactionsPerBlock {
		return fmt.Errorf("%w: %d txs, max %d", ErrTooManyTxs, len(b.Transactions), p.MaxTransactionsPerBlock)
	}

	for i, t := range b.Transactions {
		if err := t.Validate(p.Tx); err != nil {
			return fmt.Errorf("tx %d: %w", i, err)
		}
	}

	if b.GasLimit > p.BlockGasLimit {
		return fmt.Errorf("%w: %d > %d", ErrGasLimitExceedsBlock, b.GasLimit, p.BlockGasLimit)
	}
	if b.GasUsed > b.GasLimit {
		return fmt.Errorf("%w: %d > %d", ErrGasUsedExceedsLimit, b.GasUsed, b.GasLimit)
	}

	if b.Hash.IsZero() && b.Number != 0 {
		return ErrZeroHash
	}

	return nil
}
