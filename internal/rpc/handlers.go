package rpc

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/popc-project/popc-node/internal/mempool"
	"github.com/popc-project/popc-node/internal/storage"
	"github.com/popc-project/popc-node/pkg/types"
)

// handleBlockNumber implements eth_blockNumber: returns the current chain
// height (the latest stored block number).
func (s *Server) handleBlockNumber(req *Request) (interface{}, *Error) {
	height, err := s.node.Store().ChainHeight()
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "0x0", nil
		}
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	return fmt.Sprintf("0x%x", height), nil
}

// handleGetBlockByNumber implements eth_getBlockByNumber.
func (s *Server) handleGetBlockByNumber(req *Request) (interface{}, *Error) {
	var p BlockNumberParam
	if rpcErr := parseParams(req, &p); rpcErr != nil {
		return nil, rpcErr
	}

	number, rpcErr := resolveBlockNumber(s, p.Number)
	if rpcErr != nil {
		return nil, rpcErr
	}

	b, err := s.node.Store().GetBlockByNumber(number)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return (*BlockResult)(nil), nil
		}
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}

	return NewBlockResult(b, p.FullTx), nil
}

// resolveBlockNumber interprets the "number" string as either "latest" or
// a decimal/hex height.
func resolveBlockNumber(s *Server, raw string) (uint64, *Error) {
	if raw == "" || raw == "latest" {
		height, err := s.node.Store().ChainHeight()
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return 0, nil
			}
			return 0, &Error{Code: CodeInternalError, Message: err.Error()}
		}
		return height, nil
	}

	n, err := strconv.ParseUint(raw, 0, 64)
	if err != nil {
		return 0, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid block number %q", raw)}
	}
	return n, nil
}

// handleGetBlockByHash implements eth_getBlockByHash.
func (s *Server) handleGetBlockByHash(req *Request) (interface{}, *Error) {
	var p BlockHashParam
	if rpcErr := parseParams(req, &p); rpcErr != nil {
		return nil, rpcErr
	}

	hash, err := types.HexToHash(p.Hash)
	if err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid hash: %v", err)}
	}

	b, err := s.node.Store().GetBlockByHash(hash)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return (*BlockResult)(nil), nil
		}
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}

	return NewBlockResult(b, p.FullTx), nil
}

// handleGetTransactionByHash implements eth_getTransactionByHash. Pending
// (mempool-only) transactions are also served so a client can observe a
// transaction it just submitted before it lands in a block.
func (s *Server) handleGetTransactionByHash(req *Request) (interface{}, *Error) {
	var p TxHashParam
	if rpcErr := parseParams(req, &p); rpcErr != nil {
		return nil, rpcErr
	}

	hash, err := types.HexToHash(p.Hash)
	if err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid hash: %v", err)}
	}

	t, err := s.node.Store().GetTransaction(hash)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			if pending := s.node.Pool().Get(hash); pending != nil {
				return NewTxResult(pending), nil
			}
			return (*TxResult)(nil), nil
		}
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}

	return NewTxResult(t), nil
}

// handleChainID implements eth_chainId.
func (s *Server) handleChainID(req *Request) (interface{}, *Error) {
	return fmt.Sprintf("0x%x", s.node.Genesis().ChainID), nil
}

// handleNetVersion implements net_version.
func (s *Server) handleNetVersion(req *Request) (interface{}, *Error) {
	return strconv.FormatUint(s.node.Genesis().ChainID, 10), nil
}

// handleSendRawTransaction implements eth_sendRawTransaction: admits the
// transaction into the local mempool and gossips it to peers.
func (s *Server) handleSendRawTransaction(req *Request) (interface{}, *Error) {
	var p SendRawTransactionParam
	if rpcErr := parseParams(req, &p); rpcErr != nil {
		return nil, rpcErr
	}
	if p.Transaction == nil {
		return nil, &Error{Code: CodeInvalidParams, Message: "transaction required"}
	}

	t := p.Transaction
	computed := t.ComputeHash()
	if t.Hash.IsZero() {
		t.Hash = computed
	} else if t.Hash != computed {
		return nil, &Error{Code: CodeInvalidParams, Message: "transaction hash does not match its content"}
	}
	if err := t.Validate(s.node.TxParams()); err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: err.Error()}
	}

	if err := s.node.Pool().Add(t); err != nil {
		if errors.Is(err, mempool.ErrAlreadyExists) {
			return &SendRawTransactionResult{Hash: t.Hash.String()}, nil
		}
		return nil, &Error{Code: CodeInvalidParams, Message: err.Error()}
	}

	if err := s.node.PublishTransaction(t); err != nil {
		s.logger.Warn().Err(err).Str("hash", t.Hash.String()).Msg("failed to gossip transaction")
	}

	return &SendRawTransactionResult{Hash: t.Hash.String()}, nil
}

// MempoolStatusResult is returned by mempool_status.
type MempoolStatusResult struct {
	Pending  int `json:"pending"`
	Queued   int `json:"queued"`
	Accounts int `json:"accounts"`
}

// handleMempoolStatus implements the supplementary mempool_status method,
// surfacing the node's local mempool occupancy.
func (s *Server) handleMempoolStatus(req *Request) (interface{}, *Error) {
	stats := s.node.Pool().Stats()
	return &MempoolStatusResult{
		Pending:  stats.Pending,
		Queued:   stats.Queued,
		Accounts: stats.Accounts,
	}, nil
}

// handleNetPeerCount implements the supplementary net_peerCount method.
func (s *Server) handleNetPeerCount(req *Request) (interface{}, *Error) {
	return fmt.Sprintf("0x%x", s.node.P2P().PeerCount()), nil
}
