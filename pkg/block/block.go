// Package block defines the block type and its stateless validation.
package block

import (
	"encoding/binary"
	"encoding/json"

	"github.com/popc-project/popc-node/pkg/crypto"
	"github.com/popc-project/popc-node/pkg/tx"
	"github.com/popc-project/popc-node/pkg/types"
)

// Block is the unit of consensus ordering: a single canonical chain with
// no reorganizations, height strictly increasing by one from genesis.
type Block struct {
	Number       uint64            `json:"number"`
	Hash         types.Hash        `json:"hash"`
	ParentHash   types.Hash        `json:"parent_hash"`
	Timestamp    uint64            `json:"timestamp"`
	Proposer     types.Address     `json:"proposer"`
	Transactions []*tx.Transaction `json:"transactions"`
	StateRoot    types.Hash        `json:"state_root"`
	GasUsed      uint64            `json:"gas_used"`
	GasLimit     uint64            `json:"gas_limit"`
}

// NewBlock creates a block with its hash left unset; call ComputeHash
// (or rely on the node orchestrator to do so on ingest) before storing it.
func NewBlock(number uint64, parentHash types.Hash, proposer types.Address, txs []*tx.Transaction) *Block {
	return &Block{
		Number:       number,
		ParentHash:   parentHash,
		Proposer:     proposer,
		Transactions: txs,
	}
}

// SigningBytes returns the canonical preimage hashed to produce Hash:
// number(8) || parent_hash(32) || timestamp(8) || proposer(20) || state_root(32)
// || gas_used(8) || gas_limit(8) || tx_hash_1(32) || ... || tx_hash_n(32).
//
// Transaction bodies are not re-included: each transaction's own hash
// already commits to its content, so chaining the tx hashes is sufficient
// to bind the block to an exact, ordered transaction set.
func (b *Block) SigningBytes() []byte {
	buf := make([]byte, 0, 8+types.HashSize+8+types.AddressSize+types.HashSize+8+8+len(b.Transactions)*types.HashSize)
	buf = binary.LittleEndian.AppendUint64(buf, b.Number)
	buf = append(buf, b.ParentHash[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, b.Timestamp)
	buf = append(buf, b.Proposer[:]...)
	buf = append(buf, b.StateRoot[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, b.GasUsed)
	buf = binary.LittleEndian.AppendUint64(buf, b.GasLimit)
	for _, t := range b.Transactions {
		buf = append(buf, t.Hash[:]...)
	}
	return buf
}

// ComputeHash returns SHA3-256(SigningBytes()).
func (b *Block) ComputeHash() types.Hash {
	return crypto.SHA3256(b.SigningBytes())
}

// EncodedSize returns the exact wire size of the block, measured by
// encoding it, as required to enforce max_block_size precisely rather
// than by estimate.
func (b *Block) EncodedSize() (int, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}
