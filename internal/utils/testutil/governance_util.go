package testutil

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/coinbase/chaingov/internal/blockchain/model"
)

const wordSize = 32

// Uint256Word returns v encoded as a big-endian 32-byte word.
func Uint256Word(v uint64) []byte {
	return common.LeftPadBytes(new(big.Int).SetUint64(v).Bytes(), wordSize)
}

// AddressWord returns the address left-padded to a 32-byte word.
func AddressWord(addr common.Address) []byte {
	return common.LeftPadBytes(addr.Bytes(), wordSize)
}

// ZeroWords returns n zero-filled words.
func ZeroWords(n int) []byte {
	return make([]byte, n*wordSize)
}

// ABIString encodes s the way a dynamic string is laid out in an ABI tail window:
// an offset word pointing at the length word, the length word, then the padded bytes.
func ABIString(s string) []byte {
	out := Uint256Word(wordSize)
	out = append(out, Uint256Word(uint64(len(s)))...)
	padded := (len(s) + wordSize - 1) / wordSize * wordSize
	body := make([]byte, padded)
	copy(body, s)
	return append(out, body...)
}

// MakeProposalCreatedPayload builds a ProposalCreated payload with the description window at offset 256.
func MakeProposalCreatedPayload(proposer common.Address, description string) []byte {
	data := AddressWord(proposer)
	data = append(data, ZeroWords(7)...)
	return append(data, ABIString(description)...)
}

// MakeVoteCastPayload builds a VoteCast payload with the reason window at offset 96.
func MakeVoteCastPayload(support uint8, votes uint64, reason string) []byte {
	data := Uint256Word(uint64(support))
	data = append(data, Uint256Word(votes)...)
	data = append(data, ZeroWords(1)...)
	return append(data, ABIString(reason)...)
}

// TopicFromUint64 returns a topic holding v as a uint256.
func TopicFromUint64(v uint64) common.Hash {
	return common.BytesToHash(Uint256Word(v))
}

// TopicFromAddress returns a topic holding addr in its low 20 bytes.
func TopicFromAddress(addr common.Address) common.Hash {
	return common.BytesToHash(AddressWord(addr))
}

func MakeLog(address common.Address, index uint32, txHash common.Hash, data []byte, topics ...common.Hash) *model.Log {
	return &model.Log{
		Address:         address,
		Topics:          topics,
		Data:            data,
		Index:           index,
		TransactionHash: txHash,
	}
}

func MakeBlock(number uint64, timestamp int64, logs ...*model.Log) *model.Block {
	hash := common.BytesToHash(Uint256Word(number + 0xb10c))
	return &model.Block{
		Number: number,
		Hash:   hash,
		Header: &model.Header{
			Number:    number,
			Hash:      hash,
			Timestamp: &timestamppb.Timestamp{Seconds: timestamp},
		},
		Logs: logs,
	}
}
