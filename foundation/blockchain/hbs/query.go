package hbs

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/ardanlabs/forkchain/foundation/blockchain/chain"
)

// GetTotalDifficulty returns the cumulative difficulty from genesis to
// and including the block with hash h. If the block is not yet cached,
// it is resolved through GetBlock first, which populates the cache on
// ingestion.
func (s *Store) GetTotalDifficulty(ctx context.Context, h common.Hash) (*uint256.Int, error) {
	s.mu.Lock()
	if td, ok := s.tdByHash[h]; ok {
		s.mu.Unlock()
		return td, nil
	}
	s.mu.Unlock()

	if _, found, err := s.GetBlock(ctx, ByHash(h)); err != nil {
		return nil, err
	} else if !found {
		return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, h)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	td, ok := s.tdByHash[h]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, h)
	}

	return td, nil
}

// GetTransaction looks up a transaction by hash, falling back to the
// upstream source. A transaction reported as still pending, or mined at
// a height past the fork, is treated as absent rather than installed.
// The containing block binding (txToBlockHash) is deliberately not
// populated here — the containing block itself may not be ingested yet.
func (s *Store) GetTransaction(ctx context.Context, h common.Hash) (chain.Transaction, bool, error) {
	s.mu.Lock()
	if tx, ok := s.txByHash[h]; ok {
		s.mu.Unlock()
		return tx, true, nil
	}
	s.mu.Unlock()

	tx, found, err := s.source.GetTransactionByHash(ctx, h)
	if err != nil {
		return chain.Transaction{}, false, err
	}
	if !found {
		return chain.Transaction{}, false, nil
	}

	if !tx.Mined || tx.BlockNumber > s.forkHeight {
		return chain.Transaction{}, false, nil
	}

	s.mu.Lock()
	s.txByHash[h] = tx
	s.mu.Unlock()

	return tx, true, nil
}

// GetBlockByTransactionHash resolves the block containing a transaction.
// If the binding isn't known yet, it resolves the transaction (which may
// populate a block hash) and then the block itself, whose ingestion will
// backfill txToBlockHash for every transaction it contains, including h.
func (s *Store) GetBlockByTransactionHash(ctx context.Context, h common.Hash) (chain.Block, bool, error) {
	s.mu.Lock()
	if bh, ok := s.txToBlockHash[h]; ok {
		b := s.byHash[bh]
		s.mu.Unlock()
		return b, true, nil
	}
	s.mu.Unlock()

	tx, found, err := s.GetTransaction(ctx, h)
	if err != nil {
		return chain.Block{}, false, err
	}
	if !found {
		return chain.Block{}, false, nil
	}

	var zero common.Hash
	if tx.BlockHash == zero {
		return chain.Block{}, false, nil
	}

	return s.GetBlock(ctx, ByHash(tx.BlockHash))
}
