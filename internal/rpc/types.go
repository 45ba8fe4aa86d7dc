package rpc

import (
	"encoding/hex"

	"github.com/popc-project/popc-node/pkg/block"
	"github.com/popc-project/popc-node/pkg/tx"
)

// JSON-RPC 2.0 error codes. CodeBlockNotFound and CodeTxNotFound are part
// of the documented error surface but are not raised by the getter
// methods themselves: a missing block or transaction resolves to a JSON
// null result there, so these codes stay reserved for future lookups
// that cannot express a not-found outcome as a null value.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeNotFound       = -32000
	CodeBlockNotFound  = -32001
	CodeTxNotFound     = -32002
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      interface{} `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ── Param types ─────────────────────────────────────────────────────────

// BlockNumberParam is used by eth_getBlockByNumber. Number accepts a decimal
// height, a 0x-prefixed hex height, or "latest" (an empty value also means
// the latest block).
type BlockNumberParam struct {
	Number  string `json:"number"`
	FullTx  bool   `json:"full_tx"`
}

// BlockHashParam is used by eth_getBlockByHash.
type BlockHashParam struct {
	Hash   string `json:"hash"`
	FullTx bool   `json:"full_tx"`
}

// TxHashParam is used by eth_getTransactionByHash.
type TxHashParam struct {
	Hash string `json:"hash"`
}

// SendRawTransactionParam is used by eth_sendRawTransaction. The raw
// transaction is trusted as given: this baseline does not pin a signature
// scheme, so the JSON body is taken at face value (see pkg/tx).
type SendRawTransactionParam struct {
	Transaction *tx.Transaction `json:"transaction"`
}

// ── Result types ────────────────────────────────────────────────────────

// BlockResult is the JSON-RPC representation of a block.
type BlockResult struct {
	Number       uint64      `json:"number"`
	Hash         string      `json:"hash"`
	ParentHash   string      `json:"parent_hash"`
	Timestamp    uint64      `json:"timestamp"`
	Proposer     string      `json:"proposer"`
	StateRoot    string      `json:"state_root"`
	GasUsed      uint64      `json:"gas_used"`
	GasLimit     uint64      `json:"gas_limit"`
	Transactions interface{} `json:"transactions"` // []string (hashes) or []*TxResult, per full_tx
}

// TxResult is the JSON-RPC representation of a transaction.
type TxResult struct {
	Hash     string `json:"hash"`
	From     string `json:"from"`
	To       string `json:"to"`
	Value    string `json:"value"`
	GasPrice string `json:"gas_price"`
	GasLimit uint64 `json:"gas_limit"`
	Nonce    uint64 `json:"nonce"`
	Data     string `json:"data"`
}

// NewBlockResult builds a BlockResult from b. When fullTx is false,
// Transactions is the list of transaction hashes; when true it is the
// list of full TxResult objects.
func NewBlockResult(b *block.Block, fullTx bool) *BlockResult {
	r := &BlockResult{
		Number:     b.Number,
		Hash:       b.Hash.String(),
		ParentHash: b.ParentHash.String(),
		Timestamp:  b.Timestamp,
		Proposer:   b.Proposer.String(),
		StateRoot:  b.StateRoot.String(),
		GasUsed:    b.GasUsed,
		GasLimit:   b.GasLimit,
	}
	if fullTx {
		txs := make([]*TxResult, len(b.Transactions))
		for i, t := range b.Transactions {
			txs[i] = NewTxResult(t)
		}
		r.Transactions = txs
	} else {
		hashes := make([]string, len(b.Transactions))
		for i, t := range b.Transactions {
			hashes[i] = t.Hash.String()
		}
		r.Transactions = hashes
	}
	return r
}

// NewTxResult builds a TxResult from a transaction.
func NewTxResult(t *tx.Transaction) *TxResult {
	return &TxResult{
		Hash:     t.Hash.String(),
		From:     t.From.String(),
		To:       t.To.String(),
		Value:    t.Value.String(),
		GasPrice: t.GasPrice.String(),
		GasLimit: t.GasLimit,
		Nonce:    t.Nonce,
		Data:     "0x" + hex.EncodeToString(t.Data),
	}
}

// SendRawTransactionResult is returned by eth_sendRawTransaction.
type SendRawTransactionResult struct {
	Hash string `json:"hash"`
}
