// Package model holds the chain-agnostic view of a block consumed by the governance pipeline.
package model

import (
	"github.com/ethereum/go-ethereum/common"
	"google.golang.org/protobuf/types/known/timestamppb"
)

type (
	// Block is a single block together with every log emitted by its transactions, in block order.
	Block struct {
		Number uint64
		Hash   common.Hash
		Header *Header
		Logs   []*Log
	}

	Header struct {
		Number    uint64
		Hash      common.Hash
		Timestamp *timestamppb.Timestamp
	}

	Log struct {
		Address common.Address
		Topics  []common.Hash
		Data    []byte
		// Index is the position of the log within the block, not within its transaction.
		Index            uint32
		TransactionHash  common.Hash
		TransactionIndex uint32
	}
)

// GetHeader returns nil when either the block or its header is missing.
func (b *Block) GetHeader() *Header {
	if b == nil {
		return nil
	}
	return b.Header
}

// GetTimestamp returns nil when either the header or its timestamp is missing.
func (h *Header) GetTimestamp() *timestamppb.Timestamp {
	if h == nil {
		return nil
	}
	return h.Timestamp
}

// Topic returns the topic at index i and whether it exists.
func (l *Log) Topic(i int) (common.Hash, bool) {
	if i < 0 || i >= len(l.Topics) {
		return common.Hash{}, false
	}
	return l.Topics[i], true
}
