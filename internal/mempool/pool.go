// Package mempool manages pending transactions waiting for block inclusion.
//
// Transactions are indexed per account by nonce using two ordered maps:
// pending (a contiguous run starting at the account's current nonce) and
// queued (everything with a nonce gap ahead of it). Extraction for block
// production flattens every account's pending transactions and orders
// them by descending gas price; removal happens only via Remove or
// UpdateNonce after a block is produced or ingested.
package mempool

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/btree"

	"github.com/popc-project/popc-node/pkg/tx"
	"github.com/popc-project/popc-node/pkg/types"
)

// Mempool errors.
var (
	ErrAlreadyExists    = errors.New("transaction already in mempool")
	ErrPoolFull         = errors.New("mempool is full")
	ErrValidationFailed = errors.New("transaction failed validation")
	ErrNonceTooLow      = errors.New("nonce too low")
	ErrNonceTooHigh     = errors.New("nonce too high")
)

// nonceEntry is a btree item ordered by nonce.
type nonceEntry struct {
	nonce uint64
	tx    *tx.Transaction
}

func nonceLess(a, b nonceEntry) bool { return a.nonce < b.nonce }

// accountQueue holds one account's pending/queued transactions, ordered by
// nonce. pending.keys() is always the contiguous run
// {currentNonce, ..., currentNonce+k-1}; min(queued.keys()) > max(pending.keys())+1
// whenever both are non-empty.
type accountQueue struct {
	pending      *btree.BTreeG[nonceEntry]
	queued       *btree.BTreeG[nonceEntry]
	currentNonce uint64
}

func newAccountQueue(seedNonce uint64) *accountQueue {
	return &accountQueue{
		pending:      btree.NewG(32, nonceLess),
		queued:       btree.NewG(32, nonceLess),
		currentNonce: seedNonce,
	}
}

func (q *accountQueue) size() int { return q.pending.Len() + q.queued.Len() }

// Params carries the thresholds the mempool enforces on admission.
type Params struct {
	MaxPoolSize   int
	MaxPerAccount int
	MaxNonceGap   int
	TxParams      tx.Params
}

// Pool holds unconfirmed transactions, indexed both by hash and by
// per-account nonce order.
type Pool struct {
	mu       sync.RWMutex
	params   Params
	accounts map[types.Address]*accountQueue
	byHash   map[types.Hash]types.Address // tx hash -> owning account, for Remove/Get/Has
	size     int
}

// New creates a mempool with the given admission parameters.
func New(params Params) *Pool {
	if params.MaxPoolSize <= 0 {
		params.MaxPoolSize = 10000
	}
	if params.MaxPerAccount <= 0 {
		params.MaxPerAccount = 100
	}
	return &Pool{
		params:   params,
		accounts: make(map[types.Address]*accountQueue),
		byHash:   make(map[types.Hash]types.Address),
	}
}

// Add runs stateless validation then the nonce-aware admission algorithm
// described in the package doc.
func (p *Pool) Add(transaction *tx.Transaction) error {
	if err := transaction.Validate(p.params.TxParams); err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.byHash[transaction.Hash]; exists {
		return ErrAlreadyExists
	}
	if p.size >= p.params.MaxPoolSize {
		return ErrPoolFull
	}

	q, exists := p.accounts[transaction.From]
	if !exists {
		q = newAccountQueue(transaction.Nonce)
		p.accounts[transaction.From] = q
	}

	expected := q.currentNonce + uint64(q.pending.Len())
	if transaction.Nonce < q.currentNonce {
		return ErrNonceTooLow
	}
	if transaction.Nonce > expected+uint64(p.params.MaxNonceGap) {
		return ErrNonceTooHigh
	}
	if q.size() >= p.params.MaxPerAccount {
		return ErrPoolFull
	}

	entry := nonceEntry{nonce: transaction.Nonce, tx: transaction}
	if transaction.Nonce == expected {
		if _, exists := q.pending.Get(entry); exists {
			return ErrAlreadyExists
		}
		q.pending.ReplaceOrInsert(entry)
		for {
			next := q.currentNonce + uint64(q.pending.Len())
			item, ok := q.queued.Get(nonceEntry{nonce: next})
			if !ok {
				break
			}
			q.queued.Delete(item)
			q.pending.ReplaceOrInsert(item)
		}
	} else {
		if _, exists := q.queued.Get(entry); exists {
			return ErrAlreadyExists
		}
		q.queued.ReplaceOrInsert(entry)
	}

	p.byHash[transaction.Hash] = transaction.From
	p.size++
	return nil
}

// Remove removes a transaction from the mempool by hash and returns it, or
// nil if it was not present.
func (p *Pool) Remove(txHash types.Hash) *tx.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.removeLocked(txHash)
}

func (p *Pool) removeLocked(txHash types.Hash) *tx.Transaction {
	addr, exists := p.byHash[txHash]
	if !exists {
		return nil
	}
	q := p.accounts[addr]
	var removed *tx.Transaction
	q.pending.Ascend(func(e nonceEntry) bool {
		if e.tx.Hash == txHash {
			removed = e.tx
			return false
		}
		return true
	})
	if removed != nil {
		q.pending.Delete(nonceEntry{nonce: removed.Nonce})
	} else {
		q.queued.Ascend(func(e nonceEntry) bool {
			if e.tx.Hash == txHash {
				removed = e.tx
				return false
			}
			return true
		})
		if removed != nil {
			q.queued.Delete(nonceEntry{nonce: removed.Nonce})
		}
	}
	if removed == nil {
		return nil
	}
	delete(p.byHash, txHash)
	p.size--
	if q.size() == 0 {
		delete(p.accounts, addr)
	}
	return removed
}

// UpdateNonce applies the promotion algorithm for account after a block
// advances its nonce: entries below newNonce are dropped from both
// pending and queued, currentNonce is set to newNonce, and then queued
// entries are promoted into pending for as long as the next expected
// nonce is present.
func (p *Pool) UpdateNonce(account types.Address, newNonce uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	q, exists := p.accounts[account]
	if !exists {
		return
	}

	dropBelow := func(tree *btree.BTreeG[nonceEntry]) {
		var stale []nonceEntry
		tree.Ascend(func(e nonceEntry) bool {
			if e.nonce < newNonce {
				stale = append(stale, e)
				return true
			}
			return false
		})
		for _, e := range stale {
			tree.Delete(e)
			delete(p.byHash, e.tx.Hash)
			p.size--
		}
	}
	dropBelow(q.pending)
	dropBelow(q.queued)
	q.currentNonce = newNonce

	for {
		next := q.currentNonce + uint64(q.pending.Len())
		item, ok := q.queued.Get(nonceEntry{nonce: next})
		if !ok {
			break
		}
		q.queued.Delete(item)
		q.pending.ReplaceOrInsert(item)
	}
}

// Has reports whether a transaction hash is present in the mempool.
func (p *Pool) Has(txHash types.Hash) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, exists := p.byHash[txHash]
	return exists
}

// Get retrieves a transaction by hash, or nil if not present.
func (p *Pool) Get(txHash types.Hash) *tx.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()
	addr, exists := p.byHash[txHash]
	if !exists {
		return nil
	}
	q := p.accounts[addr]
	var found *tx.Transaction
	visit := func(e nonceEntry) bool {
		if e.tx.Hash == txHash {
			found = e.tx
			return false
		}
		return true
	}
	q.pending.Ascend(visit)
	if found == nil {
		q.queued.Ascend(visit)
	}
	return found
}

// GetPending flattens every account's pending transactions, orders them by
// descending gas price, and returns the first limit (0 = no limit).
// Extraction does not remove transactions from the pool.
func (p *Pool) GetPending(limit int) []*tx.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var all []*tx.Transaction
	for _, q := range p.accounts {
		q.pending.Ascend(func(e nonceEntry) bool {
			all = append(all, e.tx)
			return true
		})
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].GasPrice.Cmp(all[j].GasPrice) > 0
	})
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all
}

// Clear removes every transaction from the mempool.
func (p *Pool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accounts = make(map[types.Address]*accountQueue)
	p.byHash = make(map[types.Hash]types.Address)
	p.size = 0
}

// Stats summarizes the current mempool contents.
type Stats struct {
	Pending  int
	Queued   int
	Accounts int
}

// Stats returns aggregate counters over the current mempool contents.
func (p *Pool) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var s Stats
	s.Accounts = len(p.accounts)
	for _, q := range p.accounts {
		s.Pending += q.pending.Len()
		s.Queued += q.queued.Len()
	}
	return s
}

// Count returns the total number of transactions in the mempool.
func (p *Pool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.size
}
