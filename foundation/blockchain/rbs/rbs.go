// Package rbs implements the Remote Block Source: a thin, typed adapter
// over an upstream Ethereum JSON-RPC endpoint. It decodes untyped wire
// values into the chain package's strongly-typed records and never
// caches or mutates state of its own — that is the hybrid block store's
// job.
package rbs

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"github.com/ardanlabs/forkchain/foundation/blockchain/chain"
	"github.com/ardanlabs/forkchain/foundation/jsonrpc"
)

// ErrUpstream wraps any transport or parse failure talking to the
// upstream node. Callers should use errors.Is/errors.As against this
// sentinel rather than matching on message text.
var ErrUpstream = errors.New("upstream error")

// EventHandler defines a function called with diagnostic narration as
// the source talks to the upstream node.
type EventHandler func(v string, args ...any)

// BlockResult is a decoded remote block together with the cumulative
// difficulty the upstream node reported for it.
type BlockResult struct {
	Block           chain.Block
	TotalDifficulty *uint256.Int
}

// Source talks to a single upstream Ethereum JSON-RPC endpoint.
type Source struct {
	client    *jsonrpc.Client
	evHandler EventHandler
}

// New constructs a Source against the given upstream endpoint, reusing a
// single HTTP transport for every call (spec §5, "shared resources").
func New(url string, httpClient *http.Client, evHandler EventHandler) *Source {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	return &Source{
		client:    jsonrpc.New(url, httpClient),
		evHandler: evHandler,
	}
}

// GetLatestBlockNumber returns the upstream chain's current block number.
func (s *Source) GetLatestBlockNumber(ctx context.Context) (uint64, error) {
	s.evHandler("rbs: GetLatestBlockNumber: started")
	defer s.evHandler("rbs: GetLatestBlockNumber: completed")

	var raw string
	if err := s.client.Call(ctx, "eth_blockNumber", nil, &raw); err != nil {
		return 0, wrapUpstream(err)
	}

	n, err := hexutil.DecodeUint64(raw)
	if err != nil {
		return 0, wrapUpstream(err)
	}

	return n, nil
}

// GetBlockByNumber fetches a block by its number. A zero BlockResult,
// false, nil return means the upstream explicitly reported no such block (JSON
// null) — this is the "absent" shape, not an error.
func (s *Source) GetBlockByNumber(ctx context.Context, number uint64, includeTxs bool) (BlockResult, bool, error) {
	s.evHandler("rbs: GetBlockByNumber: started: num[%d]", number)
	defer s.evHandler("rbs: GetBlockByNumber: completed: num[%d]", number)

	tag := fmt.Sprintf("0x%x", number)

	var raw *rawBlock
	if err := s.client.Call(ctx, "eth_getBlockByNumber", []any{tag, includeTxs}, &raw); err != nil {
		return BlockResult{}, false, wrapUpstream(err)
	}

	if raw == nil {
		return BlockResult{}, false, nil
	}

	result, err := raw.toBlockResult()
	if err != nil {
		return BlockResult{}, false, wrapUpstream(err)
	}

	return result, true, nil
}

// GetBlockByHash fetches a block by its hash. See GetBlockByNumber for
// the absent-vs-error contract.
func (s *Source) GetBlockByHash(ctx context.Context, hash common.Hash, includeTxs bool) (BlockResult, bool, error) {
	s.evHandler("rbs: GetBlockByHash: started: hash[%s]", hash)
	defer s.evHandler("rbs: GetBlockByHash: completed: hash[%s]", hash)

	var raw *rawBlock
	if err := s.client.Call(ctx, "eth_getBlockByHash", []any{hash.Hex(), includeTxs}, &raw); err != nil {
		return BlockResult{}, false, wrapUpstream(err)
	}

	if raw == nil {
		return BlockResult{}, false, nil
	}

	result, err := raw.toBlockResult()
	if err != nil {
		return BlockResult{}, false, wrapUpstream(err)
	}

	return result, true, nil
}

// GetTransactionByHash fetches a transaction by hash. The returned
// chain.Transaction's Mined field distinguishes a mined tx (BlockHash and
// BlockNumber populated) from a pending one reported by the upstream
// node's own mempool.
func (s *Source) GetTransactionByHash(ctx context.Context, hash common.Hash) (chain.Transaction, bool, error) {
	s.evHandler("rbs: GetTransactionByHash: started: hash[%s]", hash)
	defer s.evHandler("rbs: GetTransactionByHash: completed: hash[%s]", hash)

	var raw *rawTransaction
	if err := s.client.Call(ctx, "eth_getTransactionByHash", []any{hash.Hex()}, &raw); err != nil {
		return chain.Transaction{}, false, wrapUpstream(err)
	}

	if raw == nil {
		return chain.Transaction{}, false, nil
	}

	tx, err := raw.toTransaction()
	if err != nil {
		return chain.Transaction{}, false, wrapUpstream(err)
	}

	return tx, true, nil
}

func wrapUpstream(err error) error {
	return fmt.Errorf("%w: %w", ErrUpstream, err)
}
