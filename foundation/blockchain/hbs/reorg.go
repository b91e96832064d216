package hbs

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ardanlabs/forkchain/foundation/blockchain/chain"
)

// DeleteBlock drops a locally appended block and every block after it up
// to the current latest height, restoring the latest height to one less
// than the deleted block's number. It never touches the immutable
// prefix [0, forkHeight].
func (s *Store) DeleteBlock(h common.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteBlockLocked(h)
}

func (s *Store) deleteBlockLocked(h common.Hash) error {
	b, ok := s.byHash[h]
	if !ok {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, h)
	}

	if b.Header.Number <= s.forkHeight {
		return fmt.Errorf("%w: block %d is at or before the fork height %d", ErrCannotDeleteRemote, b.Header.Number, s.forkHeight)
	}

	n := b.Header.Number
	for i := n; i <= s.latestHeight; i++ {
		blk, ok := s.byNumber[i]
		if !ok {
			continue
		}

		bh := blk.Hash()
		delete(s.byNumber, i)
		delete(s.byHash, bh)
		delete(s.tdByHash, bh)

		for _, tx := range blk.Transactions {
			delete(s.txByHash, tx.Hash)
			delete(s.txToBlockHash, tx.Hash)
		}
	}

	s.evHandler("hbs: DeleteBlock: reorg: from[%d] to-latest[%d]", n, n-1)

	s.latestHeight = n - 1

	return nil
}

// DeleteLaterBlocks drops every block after b, cascading through
// DeleteBlock. b must be the block currently stored at its own height.
// If no block exists at b's successor height, this is a no-op.
func (s *Store) DeleteLaterBlocks(b chain.Block) error {
	s.mu.Lock()

	current, ok := s.byNumber[b.Header.Number]
	if !ok || current.Hash() != b.Hash() {
		s.mu.Unlock()
		return fmt.Errorf("%w: block %d at hash %s is not the current block at that height", ErrInvalidBlock, b.Header.Number, b.Hash())
	}

	nextNumber := b.Header.Number + 1
	if nextNumber <= s.forkHeight {
		s.mu.Unlock()
		return fmt.Errorf("%w: next height %d is at or before the fork height %d", ErrCannotDeleteRemote, nextNumber, s.forkHeight)
	}

	next, exists := s.byNumber[nextNumber]
	s.mu.Unlock()

	if !exists {
		return nil
	}

	return s.DeleteBlock(next.Hash())
}
