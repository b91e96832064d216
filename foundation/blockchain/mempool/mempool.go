// Package mempool maintains the pending/queued transaction sets for the
// blockchain, partitioned by sender and ordered by signer nonce.
package mempool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ardanlabs/forkchain/foundation/blockchain/chain"
	"github.com/ardanlabs/forkchain/foundation/blockchain/mempool/selector"
)

// ErrNonceTooLow is returned by AddTransaction when the transaction's
// nonce is behind the account's current on-chain nonce as reported by
// the account state oracle.
var ErrNonceTooLow = errors.New("nonce too low")

// AccountStateOracle is the external collaborator the mempool consults
// to learn a sender's current on-chain nonce. Any internal failure on
// the oracle's side surfaces to the caller as a mempool-level error.
type AccountStateOracle interface {
	GetNonce(ctx context.Context, address common.Address) (uint64, error)
}

// EventHandler defines a function called with diagnostic narration as
// the mempool admits and promotes transactions.
type EventHandler func(v string, args ...any)

// Mempool partitions pending transactions by sender, keyed on signer
// nonce, and tracks the next executable nonce per sender.
type Mempool struct {
	mu sync.Mutex

	oracle AccountStateOracle

	pending   map[common.Address][]chain.Transaction
	queued    map[common.Address]map[uint64]chain.Transaction
	execNonce map[common.Address]uint64

	selectFn  selector.Func
	evHandler EventHandler
}

// New constructs a Mempool backed by oracle, using the default
// by-address select strategy for GetPendingTransactions.
func New(oracle AccountStateOracle, evHandler EventHandler) (*Mempool, error) {
	return NewWithStrategy(oracle, selector.StrategyByAddress, evHandler)
}

// NewWithStrategy constructs a Mempool with the named select strategy.
func NewWithStrategy(oracle AccountStateOracle, strategy string, evHandler EventHandler) (*Mempool, error) {
	selectFn, err := selector.Retrieve(strategy)
	if err != nil {
		return nil, err
	}

	if evHandler == nil {
		evHandler = func(string, ...any) {}
	}

	mp := Mempool{
		oracle:    oracle,
		pending:   make(map[common.Address][]chain.Transaction),
		queued:    make(map[common.Address]map[uint64]chain.Transaction),
		execNonce: make(map[common.Address]uint64),
		selectFn:  selectFn,
		evHandler: evHandler,
	}

	return &mp, nil
}

// AddTransaction admits tx into the pool. A transaction whose nonce
// equals the sender's next executable nonce becomes immediately pending
// and may promote previously queued transactions that are now
// contiguous; any other (future) nonce is parked in queued.
func (mp *Mempool) AddTransaction(ctx context.Context, tx chain.Transaction) error {
	base, err := mp.oracle.GetNonce(ctx, tx.From)
	if err != nil {
		return fmt.Errorf("get nonce: %w", err)
	}

	if tx.Nonce < base {
		return fmt.Errorf("%w: tx nonce %d, account nonce %d", ErrNonceTooLow, tx.Nonce, base)
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	next, ok := mp.execNonce[tx.From]
	if !ok {
		next = base
	}

	if tx.Nonce != next {
		if mp.queued[tx.From] == nil {
			mp.queued[tx.From] = make(map[uint64]chain.Transaction)
		}
		mp.queued[tx.From][tx.Nonce] = tx

		mp.evHandler("mempool: AddTransaction: queued: sender[%s] nonce[%d] next[%d]", tx.From, tx.Nonce, next)

		return nil
	}

	mp.pending[tx.From] = append(mp.pending[tx.From], tx)
	mp.execNonce[tx.From] = next + 1

	mp.evHandler("mempool: AddTransaction: pending: sender[%s] nonce[%d]", tx.From, tx.Nonce)

	mp.drainQueued(tx.From)

	return nil
}

// drainQueued promotes any queued transactions that have become
// contiguous with the sender's pending run. Must be called with mp.mu
// held.
func (mp *Mempool) drainQueued(sender common.Address) {
	for {
		next := mp.execNonce[sender]

		tx, ok := mp.queued[sender][next]
		if !ok {
			return
		}

		delete(mp.queued[sender], next)
		mp.pending[sender] = append(mp.pending[sender], tx)
		mp.execNonce[sender] = next + 1

		mp.evHandler("mempool: drainQueued: promoted: sender[%s] nonce[%d]", sender, next)
	}
}

// GetPendingTransactions returns every pending transaction, ordered
// nonce-ascending within a sender per the configured select strategy.
func (mp *Mempool) GetPendingTransactions() []chain.Transaction {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	return mp.selectFn(mp.pending)
}

// GetExecutableNonce returns the next nonce the sender can submit to
// become immediately pending, falling back to the account state oracle
// when the sender has never been seen by this mempool.
func (mp *Mempool) GetExecutableNonce(ctx context.Context, sender common.Address) (uint64, error) {
	mp.mu.Lock()
	next, ok := mp.execNonce[sender]
	mp.mu.Unlock()

	if ok {
		return next, nil
	}

	base, err := mp.oracle.GetNonce(ctx, sender)
	if err != nil {
		return 0, fmt.Errorf("get nonce: %w", err)
	}

	return base, nil
}

// Count returns the number of pending transactions currently held.
func (mp *Mempool) Count() int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	var n int
	for _, txs := range mp.pending {
		n += len(txs)
	}

	return n
}
