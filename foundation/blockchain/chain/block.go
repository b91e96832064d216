// Package chain holds the block and transaction records shared by the
// hybrid block store, the remote block source, and the mempool. These
// types are deliberately thin: the core never constructs, signs, or
// executes them, it only indexes and serves records that already arrived
// fully formed from either an upstream archive node or a local miner.
package chain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Header carries the subset of an Ethereum block header the core cares
// about. Everything else (state root, receipts root, extra data, ...) is
// opaque to this store and is not modeled.
type Header struct {
	Number     uint64
	ParentHash common.Hash
	Difficulty *uint256.Int
	Time       uint64
}

// Block is an immutable header plus its ordered transactions. Once
// constructed a Block is never mutated; the store only ever replaces one
// reference with another in its indexes.
type Block struct {
	Header       Header
	Transactions []Transaction

	// hash caches the result of Hash so repeated lookups of the same
	// block don't re-derive it. Blocks arrive from RBS with a
	// server-reported hash (upstream already computed it); locally
	// mined blocks carry the hash their miner computed. The core never
	// recomputes a block hash itself, consistent with signature/crypto
	// primitives being an external collaborator.
	hash common.Hash
}

// NewBlock constructs a Block with a caller-supplied hash. Both RBS (from
// the upstream JSON payload) and local block assembly (external to this
// core) are expected to provide the hash; the store trusts it.
func NewBlock(header Header, txs []Transaction, hash common.Hash) Block {
	return Block{
		Header:       header,
		Transactions: txs,
		hash:         hash,
	}
}

// Hash returns the block's 32-byte digest.
func (b Block) Hash() common.Hash {
	return b.hash
}
