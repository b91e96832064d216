package hbs_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/ardanlabs/forkchain/foundation/blockchain/chain"
	"github.com/ardanlabs/forkchain/foundation/blockchain/hbs"
	"github.com/ardanlabs/forkchain/foundation/blockchain/rbs"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// fakeSource is a test double for hbs.Source that serves a fixed set of
// blocks and counts how many times each lookup method is called, so
// tests can assert on cache-hit behavior.
type fakeSource struct {
	byNumber map[uint64]rbs.BlockResult
	byHash   map[common.Hash]rbs.BlockResult

	numberCalls int
	hashCalls   int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		byNumber: make(map[uint64]rbs.BlockResult),
		byHash:   make(map[common.Hash]rbs.BlockResult),
	}
}

func (f *fakeSource) addBlock(number uint64, parentHash common.Hash, difficulty uint64, td uint64) chain.Block {
	header := chain.Header{
		Number:     number,
		ParentHash: parentHash,
		Difficulty: uint256.NewInt(difficulty),
	}

	var hashSeed [32]byte
	hashSeed[31] = byte(number)
	hashSeed[30] = byte(number >> 8)
	hash := common.BytesToHash(hashSeed[:])

	b := chain.NewBlock(header, nil, hash)

	result := rbs.BlockResult{
		Block:           b,
		TotalDifficulty: uint256.NewInt(td),
	}

	f.byNumber[number] = result
	f.byHash[hash] = result

	return b
}

func (f *fakeSource) GetBlockByNumber(ctx context.Context, number uint64, includeTxs bool) (rbs.BlockResult, bool, error) {
	f.numberCalls++
	r, ok := f.byNumber[number]
	return r, ok, nil
}

func (f *fakeSource) GetBlockByHash(ctx context.Context, hash common.Hash, includeTxs bool) (rbs.BlockResult, bool, error) {
	f.hashCalls++
	r, ok := f.byHash[hash]
	return r, ok, nil
}

func (f *fakeSource) GetTransactionByHash(ctx context.Context, hash common.Hash) (chain.Transaction, bool, error) {
	return chain.Transaction{}, false, nil
}

// =============================================================================

func Test_FreshFork(t *testing.T) {
	t.Log("Given the need to construct a store forked at a given height.")
	{
		src := newFakeSource()
		forkBase := src.addBlock(100, common.Hash{}, 10, 1000)

		store, err := hbs.New(context.Background(), 100, src, nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the store: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to construct the store.", success)

		latest := store.GetLatestBlock()
		if latest.Hash() != forkBase.Hash() {
			t.Fatalf("\t%s\tShould report the fork base as the latest block.", failed)
		}
		t.Logf("\t%s\tShould report the fork base as the latest block.", success)
	}
}

func Test_DemandLoadCachesExactlyOnce(t *testing.T) {
	t.Log("Given the need to demand load a remote block.")
	{
		src := newFakeSource()
		src.addBlock(100, common.Hash{}, 10, 1000)
		older := src.addBlock(50, common.Hash{}, 5, 500)

		store, err := hbs.New(context.Background(), 100, src, nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the store: %v", failed, err)
		}

		callsBefore := src.hashCalls

		b1, found, err := store.GetBlock(context.Background(), hbs.ByHash(older.Hash()))
		if err != nil || !found {
			t.Fatalf("\t%s\tShould be able to demand load the block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to demand load the block.", success)

		b2, found, err := store.GetBlock(context.Background(), hbs.ByHash(older.Hash()))
		if err != nil || !found {
			t.Fatalf("\t%s\tShould be able to fetch the cached block: %v", failed, err)
		}

		if src.hashCalls != callsBefore+1 {
			t.Fatalf("\t%s\tShould issue exactly one upstream call, got %d", failed, src.hashCalls-callsBefore)
		}
		t.Logf("\t%s\tShould issue exactly one upstream call.", success)

		if b1.Hash() != b2.Hash() {
			t.Fatalf("\t%s\tShould return the same block on both calls.", failed)
		}
		t.Logf("\t%s\tShould return the same block on both calls.", success)
	}
}

func Test_ForkCeiling(t *testing.T) {
	t.Log("Given a store forked below a remote block's height.")
	{
		src := newFakeSource()
		src.addBlock(100, common.Hash{}, 10, 1000)
		future := src.addBlock(150, common.Hash{}, 10, 1500)

		store, err := hbs.New(context.Background(), 100, src, nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the store: %v", failed, err)
		}

		_, found, err := store.GetBlock(context.Background(), hbs.ByHash(future.Hash()))
		if err != nil {
			t.Fatalf("\t%s\tShould not error looking up a block past the fork: %v", failed, err)
		}
		if found {
			t.Fatalf("\t%s\tShould report a block past the fork height as absent.", failed)
		}
		t.Logf("\t%s\tShould report a block past the fork height as absent.", success)

		_, found, err = store.GetBlock(context.Background(), hbs.ByNumber(150))
		if err != nil {
			t.Fatalf("\t%s\tShould not error looking up a number past L: %v", failed, err)
		}
		if found {
			t.Fatalf("\t%s\tShould report a number past L as absent without contacting upstream.", failed)
		}
		t.Logf("\t%s\tShould report a number past L as absent without contacting upstream.", success)
	}
}

func Test_AppendAndTotalDifficulty(t *testing.T) {
	t.Log("Given the need to append a locally mined block.")
	{
		src := newFakeSource()
		forkBase := src.addBlock(100, common.Hash{}, 10, 1000)

		store, err := hbs.New(context.Background(), 100, src, nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the store: %v", failed, err)
		}

		b1 := chain.NewBlock(
			chain.Header{Number: 101, ParentHash: forkBase.Hash(), Difficulty: uint256.NewInt(1000)},
			nil,
			common.BytesToHash([]byte{1}),
		)

		if _, err := store.AppendBlock(b1); err != nil {
			t.Fatalf("\t%s\tShould be able to append the block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to append the block.", success)

		baseTD, err := store.GetTotalDifficulty(context.Background(), forkBase.Hash())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to fetch the fork base's total difficulty: %v", failed, err)
		}

		gotTD, err := store.GetTotalDifficulty(context.Background(), b1.Hash())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to fetch the appended block's total difficulty: %v", failed, err)
		}

		want := new(uint256.Int).Add(baseTD, uint256.NewInt(1000))
		if !gotTD.Eq(want) {
			t.Fatalf("\t%s\tShould compute the correct total difficulty, got %s want %s", failed, gotTD, want)
		}
		t.Logf("\t%s\tShould compute the correct total difficulty.", success)
	}

	t.Log("Given an append with a mismatched block number.")
	{
		src := newFakeSource()
		src.addBlock(100, common.Hash{}, 10, 1000)
		store, _ := hbs.New(context.Background(), 100, src, nil)

		bad := chain.NewBlock(chain.Header{Number: 102, Difficulty: uint256.NewInt(1)}, nil, common.Hash{})
		_, err := store.AppendBlock(bad)
		if !errors.Is(err, hbs.ErrInvalidBlockNumber) {
			t.Fatalf("\t%s\tShould reject an append with the wrong block number, got %v", failed, err)
		}
		t.Logf("\t%s\tShould reject an append with the wrong block number.", success)
	}
}

func Test_ReorgPreservesRemote(t *testing.T) {
	t.Log("Given a chain with several locally appended blocks.")
	{
		src := newFakeSource()
		forkBase := src.addBlock(100, common.Hash{}, 10, 1000)
		store, _ := hbs.New(context.Background(), 100, src, nil)

		prev := forkBase
		var chainBlocks []chain.Block
		for i := uint64(1); i <= 3; i++ {
			b := chain.NewBlock(
				chain.Header{Number: 100 + i, ParentHash: prev.Hash(), Difficulty: uint256.NewInt(1000)},
				nil,
				common.BytesToHash([]byte{byte(i)}),
			)
			if _, err := store.AppendBlock(b); err != nil {
				t.Fatalf("\t%s\tShould be able to append block %d: %v", failed, i, err)
			}
			chainBlocks = append(chainBlocks, b)
			prev = b
		}
		t.Logf("\t%s\tShould be able to append three blocks.", success)

		if err := store.DeleteBlock(chainBlocks[0].Hash()); err != nil {
			t.Fatalf("\t%s\tShould be able to delete the first appended block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to delete the first appended block.", success)

		for _, b := range chainBlocks {
			_, found, err := store.GetBlock(context.Background(), hbs.ByHash(b.Hash()))
			if err != nil {
				t.Fatalf("\t%s\tShould not error looking up a deleted block: %v", failed, err)
			}
			if found {
				t.Fatalf("\t%s\tShould report deleted block %d as absent.", failed, b.Header.Number)
			}
		}
		t.Logf("\t%s\tShould report all reorged-out blocks as absent.", success)

		latest := store.GetLatestBlock()
		if latest.Header.Number != 100 {
			t.Fatalf("\t%s\tShould restore the latest height to the fork height, got %d", failed, latest.Header.Number)
		}
		t.Logf("\t%s\tShould restore the latest height to the fork height.", success)

		b, found, err := store.GetBlock(context.Background(), hbs.ByHash(forkBase.Hash()))
		if err != nil || !found {
			t.Fatalf("\t%s\tShould still return the fork base: %v", failed, err)
		}
		if b.Hash() != forkBase.Hash() {
			t.Fatalf("\t%s\tShould return the unmodified fork base.", failed)
		}
		t.Logf("\t%s\tShould still return the unmodified fork base.", success)
	}
}

func Test_CannotDeleteRemote(t *testing.T) {
	t.Log("Given a request to delete a block at or before the fork height.")
	{
		src := newFakeSource()
		forkBase := src.addBlock(100, common.Hash{}, 10, 1000)
		store, _ := hbs.New(context.Background(), 100, src, nil)

		err := store.DeleteBlock(forkBase.Hash())
		if !errors.Is(err, hbs.ErrCannotDeleteRemote) {
			t.Fatalf("\t%s\tShould refuse to delete the fork base, got %v", failed, err)
		}
		t.Logf("\t%s\tShould refuse to delete the fork base.", success)
	}
}
