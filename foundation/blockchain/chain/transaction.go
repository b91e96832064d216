package chain

import "github.com/ethereum/go-ethereum/common"

// Transaction is a signed transaction as seen by the core. The signature
// itself, and its verification, belong to the external signer/crypto
// collaborator (spec Non-goals); by the time a Transaction reaches this
// package its hash and signer have already been resolved, either by the
// upstream archive node (remote region) or by the external component that
// assembled a locally mined block (local suffix).
type Transaction struct {
	Hash  common.Hash
	From  common.Address
	Nonce uint64

	// BlockHash and BlockNumber are populated when the transaction is
	// known to be mined. They are the zero value for a transaction that
	// RBS reported as pending (no containing block yet).
	BlockHash   common.Hash
	BlockNumber uint64
	Mined       bool
}
