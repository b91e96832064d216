// Package selector provides pluggable strategies for ordering the
// transactions returned by the mempool's pending set. The spec only
// requires nonce-ascending order within a sender and "any deterministic
// order" across senders; this keeps that choice swappable the way the
// teacher's own mempool selector table does for its tip-based strategy.
package selector

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ardanlabs/forkchain/foundation/blockchain/chain"
)

// StrategyByAddress orders senders by address and, within a sender, trusts
// the caller-provided slice to already be nonce-ascending (the mempool
// only ever appends to a sender's pending list in nonce order).
const StrategyByAddress = "by-address"

// Func defines a function that takes the pending set grouped by sender
// and returns it flattened in some deterministic order. All selector
// functions MUST preserve nonce ordering within a sender.
type Func func(pending map[common.Address][]chain.Transaction) []chain.Transaction

// Map of the available select strategies.
var strategies = map[string]Func{
	StrategyByAddress: byAddress,
}

// Retrieve returns the named select strategy function.
func Retrieve(strategy string) (Func, error) {
	fn, exists := strategies[strategy]
	if !exists {
		return nil, fmt.Errorf("strategy %q does not exist", strategy)
	}

	return fn, nil
}

// =============================================================================

func byAddress(pending map[common.Address][]chain.Transaction) []chain.Transaction {
	senders := make([]common.Address, 0, len(pending))
	for addr := range pending {
		senders = append(senders, addr)
	}

	sort.Slice(senders, func(i, j int) bool {
		return bytes.Compare(senders[i].Bytes(), senders[j].Bytes()) < 0
	})

	var out []chain.Transaction
	for _, addr := range senders {
		out = append(out, pending[addr]...)
	}

	return out
}
