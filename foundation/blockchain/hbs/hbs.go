// Package hbs implements the Hybrid Block Store: the union view of a
// chain whose immutable prefix [0, forkHeight] is served from an upstream
// archive node on demand, and whose mutable suffix (forkHeight, latest]
// is held only in process memory. It owns four indexes — by number, by
// hash, by transaction hash, and cumulative difficulty by hash — and
// enforces their consistency across appends and reorganizations.
package hbs

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/ardanlabs/forkchain/foundation/blockchain/chain"
	"github.com/ardanlabs/forkchain/foundation/blockchain/rbs"
)

// EventHandler defines a function called with diagnostic narration as the
// store reads, appends, and reorgs blocks.
type EventHandler func(v string, args ...any)

// Source is the subset of rbs.Source the store depends on, so tests can
// substitute a fake without standing up an HTTP server.
type Source interface {
	GetBlockByNumber(ctx context.Context, number uint64, includeTxs bool) (rbs.BlockResult, bool, error)
	GetBlockByHash(ctx context.Context, hash common.Hash, includeTxs bool) (rbs.BlockResult, bool, error)
	GetTransactionByHash(ctx context.Context, hash common.Hash) (chain.Transaction, bool, error)
}

// Store is the hybrid block store.
type Store struct {
	mu sync.Mutex

	forkHeight   uint64
	latestHeight uint64

	byNumber      map[uint64]chain.Block
	byHash        map[common.Hash]chain.Block
	tdByHash      map[common.Hash]*uint256.Int
	txByHash      map[common.Hash]chain.Transaction
	txToBlockHash map[common.Hash]common.Hash

	source    Source
	evHandler EventHandler
}

// New constructs a Store forked at forkHeight, fetching and caching the
// fork base block from source before returning. The fork base is the
// last upstream block and the first parent of any local append.
func New(ctx context.Context, forkHeight uint64, source Source, evHandler EventHandler) (*Store, error) {
	if evHandler == nil {
		evHandler = func(string, ...any) {}
	}

	s := &Store{
		forkHeight:    forkHeight,
		latestHeight:  forkHeight,
		byNumber:      make(map[uint64]chain.Block),
		byHash:        make(map[common.Hash]chain.Block),
		tdByHash:      make(map[common.Hash]*uint256.Int),
		txByHash:      make(map[common.Hash]chain.Transaction),
		txToBlockHash: make(map[common.Hash]common.Hash),
		source:        source,
		evHandler:     evHandler,
	}

	evHandler("hbs: New: fetching fork base: num[%d]", forkHeight)

	result, found, err := source.GetBlockByNumber(ctx, forkHeight, true)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("fork base block %d not found upstream", forkHeight)
	}

	s.ingest(result)

	return s, nil
}

// GetBlock looks up a block by number or hash, per the lookup algorithm
// in the store's contract: check the caches first, then fall back to the
// upstream source, subject to the fork ceiling (I6).
func (s *Store) GetBlock(ctx context.Context, id BlockID) (chain.Block, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getBlockLocked(ctx, id)
}

func (s *Store) getBlockLocked(ctx context.Context, id BlockID) (chain.Block, bool, error) {
	switch id.lookupBy {
	case byHash:
		if b, ok := s.byHash[id.hash]; ok {
			return b, true, nil
		}

	case byNumber:
		if id.number > s.latestHeight {
			return chain.Block{}, false, nil
		}
		if b, ok := s.byNumber[id.number]; ok {
			return b, true, nil
		}
	}

	var (
		result rbs.BlockResult
		found  bool
		err    error
	)

	switch id.lookupBy {
	case byHash:
		result, found, err = s.source.GetBlockByHash(ctx, id.hash, true)
	case byNumber:
		result, found, err = s.source.GetBlockByNumber(ctx, id.number, true)
	}
	if err != nil {
		return chain.Block{}, false, err
	}
	if !found {
		return chain.Block{}, false, nil
	}

	// I6: the store refuses to cache any remote block past the fork.
	if result.Block.Header.Number > s.forkHeight {
		return chain.Block{}, false, nil
	}

	s.ingest(result)

	return result.Block, true, nil
}

// GetLatestBlock returns the block currently at the tip of the local
// view, height L. The fork base is always cached, and every successful
// append installs its block, so this never needs the upstream source.
func (s *Store) GetLatestBlock() chain.Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.byNumber[s.latestHeight]
}

// ingest installs a fetched or appended block into all four indexes as a
// group, satisfying the grouped-visibility guarantee in the concurrency
// model: a reader that observes a block in byHash also observes its TD
// and its transactions' txToBlockHash entries.
func (s *Store) ingest(result rbs.BlockResult) {
	b := result.Block
	h := b.Hash()

	s.byNumber[b.Header.Number] = b
	s.byHash[h] = b

	if result.TotalDifficulty != nil {
		s.tdByHash[h] = result.TotalDifficulty
	}

	for _, tx := range b.Transactions {
		tx.Mined = true
		tx.BlockHash = h
		tx.BlockNumber = b.Header.Number
		s.txByHash[tx.Hash] = tx
		s.txToBlockHash[tx.Hash] = h
	}
}
