// Package event carries chain head notifications from a node to in-process
// consumers such as the balance synchronizer.
package event

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	ErrFeedClosed = errors.New("event: feed closed")
	ErrNilHeader  = errors.New("event: nil header")
)

// Block is a new chain head.
type Block struct {
	Number uint64
	Hash   common.Hash
	Time   uint64
}

func (b Block) String() string {
	return fmt.Sprintf("#%d(%s)", b.Number, b.Hash.TerminalString())
}

// FromHeader converts a go-ethereum header.
func FromHeader(h *types.Header) (Block, error) {
	if h == nil || h.Number == nil {
		return Block{}, ErrNilHeader
	}
	return Block{
		Number: h.Number.Uint64(),
		Hash:   h.Hash(),
		Time:   h.Time,
	}, nil
}

// Iterator walks a stream of blocks.
//
//	for it.Next() {
//		b := it.Block()
//	}
//	if err := it.Error(); err != nil {...}
type Iterator interface {
	// Next blocks until a block is available or the stream ends.
	Next() bool
	Block() *Block
	Error() error
	Close()
}
