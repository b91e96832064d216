package hbs

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/ardanlabs/forkchain/foundation/blockchain/chain"
	"github.com/ardanlabs/forkchain/foundation/blockchain/rbs"
)

// AppendBlock accepts a locally mined block that extends the chain past
// the current latest height. Block assembly and mining policy are the
// caller's responsibility (spec Non-goals); this only validates and
// indexes the result.
func (s *Store) AppendBlock(b chain.Block) (chain.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.Header.Number != s.latestHeight+1 {
		return chain.Block{}, fmt.Errorf("%w: got %d, want %d", ErrInvalidBlockNumber, b.Header.Number, s.latestHeight+1)
	}

	parent, ok := s.byNumber[s.latestHeight]
	if !ok {
		return chain.Block{}, fmt.Errorf("invariant violation: no block cached at latest height %d", s.latestHeight)
	}

	if b.Header.ParentHash != parent.Hash() {
		return chain.Block{}, fmt.Errorf("%w: got %s, want %s", ErrInvalidParentHash, b.Header.ParentHash, parent.Hash())
	}

	parentTD, ok := s.tdByHash[parent.Hash()]
	if !ok {
		return chain.Block{}, fmt.Errorf("invariant violation: missing total difficulty for parent %s", parent.Hash())
	}

	td := new(uint256.Int).Add(parentTD, b.Header.Difficulty)

	s.latestHeight = b.Header.Number
	s.ingest(rbs.BlockResult{Block: b, TotalDifficulty: td})

	s.evHandler("hbs: AppendBlock: num[%d] hash[%s] td[%s]", b.Header.Number, b.Hash(), td)

	return b, nil
}
