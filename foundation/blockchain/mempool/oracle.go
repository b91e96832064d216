package mempool

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// MemoryOracle is a minimal in-memory AccountStateOracle, adapted from
// the teacher's own map-backed account nonce tracking. It exists for
// tests and for running the fork node without a connected state/EVM
// layer; a real deployment wires AccountStateOracle to whatever tracks
// account state (out of scope for this core).
type MemoryOracle struct {
	mu     sync.RWMutex
	nonces map[common.Address]uint64
}

// NewMemoryOracle constructs a MemoryOracle seeded with the given
// starting nonces; any address not present reports a nonce of zero.
func NewMemoryOracle(seed map[common.Address]uint64) *MemoryOracle {
	nonces := make(map[common.Address]uint64, len(seed))
	for addr, nonce := range seed {
		nonces[addr] = nonce
	}

	return &MemoryOracle{nonces: nonces}
}

// GetNonce implements AccountStateOracle.
func (o *MemoryOracle) GetNonce(ctx context.Context, address common.Address) (uint64, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.nonces[address], nil
}

// SetNonce updates the tracked nonce for an address, used by tests and
// by whatever component applies mined transactions to account state.
func (o *MemoryOracle) SetNonce(address common.Address, nonce uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.nonces[address] = nonce
}
