package decoder

import (
	"strconv"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/xerrors"

	"github.com/coinbase/chaingov/internal/blockchain/model"
	"github.com/coinbase/chaingov/internal/governance/layout"
	"github.com/coinbase/chaingov/internal/governance/types"
	"github.com/coinbase/chaingov/internal/utils/numeric"
)

type VoteDecoder struct {
	layout *layout.Layout
}

const (
	FieldSupport = "support"
	FieldVotes   = "votes"
	FieldReason  = "reason"

	voteTopics = 3
	// The support value is the least significant byte of its word.
	supportByte = numeric.WordSize - 1
)

// NewVoteDecoder requires integer fields named support and votes and a string field named reason.
func NewVoteDecoder(l *layout.Layout) (*VoteDecoder, error) {
	if err := l.Require(FieldSupport, abi.UintTy, abi.IntTy); err != nil {
		return nil, xerrors.Errorf("invalid vote layout: %w", err)
	}

	if err := l.Require(FieldVotes, abi.UintTy); err != nil {
		return nil, xerrors.Errorf("invalid vote layout: %w", err)
	}

	if err := l.Require(FieldReason, abi.StringTy); err != nil {
		return nil, xerrors.Errorf("invalid vote layout: %w", err)
	}

	return &VoteDecoder{layout: l}, nil
}

func (d *VoteDecoder) Decode(block *model.Block, log *model.Log) Outcome {
	if len(log.Topics) < voteTopics {
		return newFailure(EventVoteCast, log, xerrors.Errorf("expected %v topics, got %v: %w", voteTopics, len(log.Topics), ErrMissingTopics))
	}

	voter := common.BytesToAddress(log.Topics[1].Bytes())

	proposalId, err := numeric.WordToDecimal(log.Topics[2].Bytes())
	if err != nil {
		return newFailure(EventVoteCast, log, err)
	}

	support, err := d.layout.Byte(log.Data, FieldSupport, supportByte)
	if err != nil {
		return newFailure(EventVoteCast, log, err)
	}

	weight, err := d.layout.Uint256(log.Data, FieldVotes)
	if err != nil {
		return newFailure(EventVoteCast, log, err)
	}

	reason, err := d.layout.String(log.Data, FieldReason)
	if err != nil {
		return newFailure(EventVoteCast, log, err)
	}

	return Outcome{
		Vote: &types.Vote{
			Id:         VoteId(log.TransactionHash, log.Index),
			Voter:      hexutil.Encode(voter.Bytes()),
			ProposalId: proposalId,
			Weight:     numeric.FormatDecimal(weight),
			Choice:     support,
			Reason:     reason,
		},
	}
}

// VoteId is unique within a block: the transaction hash and the block-level log index.
func VoteId(transactionHash common.Hash, logIndex uint32) string {
	return hexutil.Encode(transactionHash.Bytes()) + "-" + formatIndex(logIndex)
}

func formatIndex(i uint32) string {
	return strconv.FormatUint(uint64(i), 10)
}
