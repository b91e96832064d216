package rbs

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"github.com/ardanlabs/forkchain/foundation/blockchain/chain"
)

// rawBlock is the untyped shape of an eth_getBlockByNumber /
// eth_getBlockByHash result. Transactions may come back either as bare
// hash strings (includeTxs=false) or as full rawTransaction objects
// (includeTxs=true); rawTx handles both.
type rawBlock struct {
	Number          hexutil.Uint64 `json:"number"`
	Hash            common.Hash    `json:"hash"`
	ParentHash      common.Hash    `json:"parentHash"`
	Difficulty      *hexutil.Big   `json:"difficulty"`
	TotalDifficulty *hexutil.Big   `json:"totalDifficulty"`
	Timestamp       hexutil.Uint64 `json:"timestamp"`
	Transactions    []rawTx        `json:"transactions"`
}

// rawTx decodes a transaction embedded in a block, which may be a bare
// hash string or a full object depending on the includeTxs flag on the
// containing call.
type rawTx struct {
	full *rawTransaction
	hash common.Hash
}

func (r *rawTx) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var h common.Hash
		if err := h.UnmarshalText([]byte(strings.Trim(trimmed, `"`))); err != nil {
			return err
		}
		r.hash = h
		return nil
	}

	var full rawTransaction
	if err := json.Unmarshal(data, &full); err != nil {
		return err
	}
	r.full = &full
	return nil
}

// rawTransaction is the untyped shape of an eth_getTransactionByHash
// result and of a fully expanded transaction embedded in a block.
// blockHash/blockNumber are absent (nil) for a pending transaction per
// the spec's parsing contract.
type rawTransaction struct {
	Hash        common.Hash     `json:"hash"`
	From        common.Address `json:"from"`
	Nonce       hexutil.Uint64  `json:"nonce"`
	BlockHash   *common.Hash    `json:"blockHash"`
	BlockNumber *hexutil.Big    `json:"blockNumber"`
}

func (rt rawTransaction) toTransaction() (chain.Transaction, error) {
	tx := chain.Transaction{
		Hash:  rt.Hash,
		From:  rt.From,
		Nonce: uint64(rt.Nonce),
	}

	if rt.BlockHash != nil && rt.BlockNumber != nil {
		tx.Mined = true
		tx.BlockHash = *rt.BlockHash
		tx.BlockNumber = rt.BlockNumber.ToInt().Uint64()
	}

	return tx, nil
}

func (rb rawBlock) toBlockResult() (BlockResult, error) {
	if rb.Difficulty == nil {
		return BlockResult{}, fmt.Errorf("block %d missing difficulty", uint64(rb.Number))
	}

	difficulty, overflow := uint256.FromBig(rb.Difficulty.ToInt())
	if overflow {
		return BlockResult{}, fmt.Errorf("block %d difficulty overflows 256 bits", uint64(rb.Number))
	}

	var td *uint256.Int
	if rb.TotalDifficulty != nil {
		v, overflow := uint256.FromBig(rb.TotalDifficulty.ToInt())
		if overflow {
			return BlockResult{}, fmt.Errorf("block %d total difficulty overflows 256 bits", uint64(rb.Number))
		}
		td = v
	}

	txs := make([]chain.Transaction, 0, len(rb.Transactions))
	for _, raw := range rb.Transactions {
		if raw.full != nil {
			tx, err := raw.full.toTransaction()
			if err != nil {
				return BlockResult{}, err
			}
			// Transactions embedded in a returned block are, by
			// construction, mined in that block.
			tx.Mined = true
			tx.BlockHash = rb.Hash
			tx.BlockNumber = uint64(rb.Number)
			txs = append(txs, tx)
			continue
		}

		txs = append(txs, chain.Transaction{
			Hash:        raw.hash,
			Mined:       true,
			BlockHash:   rb.Hash,
			BlockNumber: uint64(rb.Number),
		})
	}

	header := chain.Header{
		Number:     uint64(rb.Number),
		ParentHash: rb.ParentHash,
		Difficulty: difficulty,
		Time:       uint64(rb.Timestamp),
	}

	return BlockResult{
		Block:           chain.NewBlock(header, txs, rb.Hash),
		TotalDifficulty: td,
	}, nil
}
