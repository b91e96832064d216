package hbs

import "errors"

// Error taxonomy for the hybrid block store, per the node's fork/reorg
// contract. Callers should match against these sentinels with errors.Is
// rather than comparing message text.
var (
	// ErrBlockNotFound is returned by DeleteBlock when the hash is not
	// known locally (the upstream source is not consulted), and by
	// GetTotalDifficulty when the block cannot be resolved locally or
	// upstream.
	ErrBlockNotFound = errors.New("block not found")

	// ErrInvalidBlockNumber is returned when appendBlock is given a block
	// whose number is not exactly one past the current latest height.
	ErrInvalidBlockNumber = errors.New("invalid block number")

	// ErrInvalidParentHash is returned when appendBlock is given a block
	// whose parent hash doesn't match the current latest block's hash.
	ErrInvalidParentHash = errors.New("invalid parent hash")

	// ErrInvalidBlock is returned by deleteLaterBlocks when the supplied
	// block is not the block currently stored at its own height.
	ErrInvalidBlock = errors.New("invalid block")

	// ErrCannotDeleteRemote is returned by any delete that would touch
	// the immutable prefix [0, forkHeight].
	ErrCannotDeleteRemote = errors.New("cannot delete remote block")
)
