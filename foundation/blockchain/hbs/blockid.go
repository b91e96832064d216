package hbs

import "github.com/ethereum/go-ethereum/common"

// BlockID identifies a block either by number or by hash, mirroring the
// two lookup shapes eth_getBlockBy{Number,Hash} and this store's own
// getBlock support.
type BlockID struct {
	hash     common.Hash
	number   uint64
	lookupBy lookupKind
}

type lookupKind uint8

const (
	byNumber lookupKind = iota
	byHash
)

// ByNumber constructs a BlockID keyed on block number.
func ByNumber(number uint64) BlockID {
	return BlockID{number: number, lookupBy: byNumber}
}

// ByHash constructs a BlockID keyed on block hash.
func ByHash(hash common.Hash) BlockID {
	return BlockID{hash: hash, lookupBy: byHash}
}
