package decoder_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/xerrors"

	"github.com/coinbase/chaingov/internal/blockchain/model"
	"github.com/coinbase/chaingov/internal/config"
	"github.com/coinbase/chaingov/internal/governance/decoder"
	"github.com/coinbase/chaingov/internal/governance/layout"
	"github.com/coinbase/chaingov/internal/governance/types"
	"github.com/coinbase/chaingov/internal/utils/testutil"
)

var (
	governor = common.HexToAddress("0x408ED6354d4973f66138C91495F2f2FCbd8724C3")
	txHash   = common.HexToHash("0x1111111111111111111111111111111111111111111111111111111111111111")
	otherTx  = common.HexToHash("0x2222222222222222222222222222222222222222222222222222222222222222")
	voter    = common.HexToAddress("0x00000000000000000000000000000000000000b0")
)

func newDecoders(t *testing.T) (*decoder.ProposalDecoder, *decoder.VoteDecoder, *config.Config) {
	require := testutil.Require(t)

	cfg, err := config.New()
	require.NoError(err)

	proposalLayout, err := layout.New(cfg.Governance.ProposalCreated.PayloadFields())
	require.NoError(err)
	proposalDecoder, err := decoder.NewProposalDecoder(proposalLayout)
	require.NoError(err)

	voteLayout, err := layout.New(cfg.Governance.VoteCast.PayloadFields())
	require.NoError(err)
	voteDecoder, err := decoder.NewVoteDecoder(voteLayout)
	require.NoError(err)

	return proposalDecoder, voteDecoder, cfg
}

func TestProposalDecoder(t *testing.T) {
	require := testutil.Require(t)

	proposalDecoder, _, cfg := newDecoders(t)
	log := testutil.MakeLog(
		governor, 0, txHash,
		testutil.MakeProposalCreatedPayload(common.HexToAddress("0x2a"), "Test"),
		cfg.Governance.ProposalCreated.Signature,
		testutil.TopicFromUint64(42),
	)
	block := testutil.MakeBlock(13000000, 1628611552, log)

	outcome := proposalDecoder.Decode(block, log)
	require.True(outcome.Ok())
	require.Nil(outcome.Vote)
	require.Equal(&types.Proposal{
		Id:           "42",
		Proposer:     "0x000000000000000000000000000000000000002a",
		Description:  "Test",
		CreationTime: 1628611552,
		Values:       []string{},
	}, outcome.Proposal)
}

func TestProposalDecoder_LargeId(t *testing.T) {
	require := testutil.Require(t)

	proposalDecoder, _, _ := newDecoders(t)
	maxWord := common.HexToHash("0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
	log := testutil.MakeLog(governor, 0, txHash, testutil.MakeProposalCreatedPayload(common.HexToAddress("0x2a"), ""), common.Hash{}, maxWord)

	outcome := proposalDecoder.Decode(testutil.MakeBlock(1, 1, log), log)
	require.True(outcome.Ok())
	require.Equal("115792089237316195423570985008687907853269984665640564039457584007913129639935", outcome.Proposal.Id)
	require.Equal("", outcome.Proposal.Description)
}

func TestProposalDecoder_Failures(t *testing.T) {
	proposer := common.HexToAddress("0x2a")
	payload := testutil.MakeProposalCreatedPayload(proposer, "Test")

	tests := []struct {
		name     string
		log      *model.Log
		block    func(log *model.Log) *model.Block
		expected error
		reason   string
	}{
		{
			name:     "missingTopics",
			log:      testutil.MakeLog(governor, 3, txHash, payload, common.Hash{}),
			expected: decoder.ErrMissingTopics,
			reason:   decoder.ReasonMissingTopics,
		},
		{
			name: "missingTimestamp",
			log:  testutil.MakeLog(governor, 3, txHash, payload, common.Hash{}, testutil.TopicFromUint64(1)),
			block: func(log *model.Log) *model.Block {
				block := testutil.MakeBlock(1, 1, log)
				block.Header.Timestamp = nil
				return block
			},
			expected: decoder.ErrMissingTimestamp,
			reason:   decoder.ReasonMissingTimestamp,
		},
		{
			name: "missingHeader",
			log:  testutil.MakeLog(governor, 3, txHash, payload, common.Hash{}, testutil.TopicFromUint64(1)),
			block: func(log *model.Log) *model.Block {
				block := testutil.MakeBlock(1, 1, log)
				block.Header = nil
				return block
			},
			expected: decoder.ErrMissingTimestamp,
			reason:   decoder.ReasonMissingTimestamp,
		},
		{
			name:     "truncatedDescription",
			log:      testutil.MakeLog(governor, 3, txHash, payload[:len(payload)-32], common.Hash{}, testutil.TopicFromUint64(1)),
			expected: decoder.ErrMalformedString,
			reason:   decoder.ReasonMalformedString,
		},
		{
			name:     "shortPayload",
			log:      testutil.MakeLog(governor, 3, txHash, payload[:200], common.Hash{}, testutil.TopicFromUint64(1)),
			expected: decoder.ErrPayloadOutOfRange,
			reason:   decoder.ReasonOutOfRange,
		},
		{
			name:     "emptyPayload",
			log:      testutil.MakeLog(governor, 3, txHash, nil, common.Hash{}, testutil.TopicFromUint64(1)),
			expected: decoder.ErrPayloadOutOfRange,
			reason:   decoder.ReasonOutOfRange,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := testutil.Require(t)

			proposalDecoder, _, _ := newDecoders(t)
			block := testutil.MakeBlock(1, 1, test.log)
			if test.block != nil {
				block = test.block(test.log)
			}

			outcome := proposalDecoder.Decode(block, test.log)
			require.False(outcome.Ok())
			require.Nil(outcome.Proposal)
			require.Equal(decoder.EventProposalCreated, outcome.Failure.Event)
			require.Equal(uint32(3), outcome.Failure.LogIndex)
			require.Equal(txHash, outcome.Failure.TransactionHash)
			require.True(xerrors.Is(outcome.Failure, test.expected), outcome.Failure.Error())
			require.Equal(test.reason, outcome.Failure.ReasonTag())
		})
	}
}

func TestVoteDecoder(t *testing.T) {
	require := testutil.Require(t)

	_, voteDecoder, cfg := newDecoders(t)
	log := testutil.MakeLog(
		governor, 5, otherTx,
		testutil.MakeVoteCastPayload(1, 10, "because"),
		cfg.Governance.VoteCast.Signature,
		testutil.TopicFromAddress(voter),
		testutil.TopicFromUint64(7),
	)

	outcome := voteDecoder.Decode(testutil.MakeBlock(1, 1, log), log)
	require.True(outcome.Ok())
	require.Nil(outcome.Proposal)
	require.Equal(&types.Vote{
		Id:         "0x2222222222222222222222222222222222222222222222222222222222222222-5",
		Voter:      "0x00000000000000000000000000000000000000b0",
		ProposalId: "7",
		Weight:     "10",
		Choice:     1,
		Reason:     "because",
	}, outcome.Vote)
	require.Equal(types.ChoiceFor, outcome.Vote.ChoiceName())
}

func TestVoteDecoder_NoTimestampNeeded(t *testing.T) {
	require := testutil.Require(t)

	_, voteDecoder, _ := newDecoders(t)
	log := testutil.MakeLog(governor, 0, txHash, testutil.MakeVoteCastPayload(9, 1, ""), common.Hash{}, testutil.TopicFromAddress(voter), testutil.TopicFromUint64(1))
	block := testutil.MakeBlock(1, 1, log)
	block.Header = nil

	outcome := voteDecoder.Decode(block, log)
	require.True(outcome.Ok())
	require.Equal(uint8(9), outcome.Vote.Choice)
	require.Equal(types.ChoiceUnknown, outcome.Vote.ChoiceName())
}

func TestVoteDecoder_Failures(t *testing.T) {
	payload := testutil.MakeVoteCastPayload(1, 10, "because")

	tests := []struct {
		name     string
		log      *model.Log
		expected error
	}{
		{
			name:     "missingTopics",
			log:      testutil.MakeLog(governor, 0, txHash, payload, common.Hash{}, testutil.TopicFromAddress(voter)),
			expected: decoder.ErrMissingTopics,
		},
		{
			name:     "shortPayload",
			log:      testutil.MakeLog(governor, 0, txHash, payload[:64], common.Hash{}, testutil.TopicFromAddress(voter), testutil.TopicFromUint64(1)),
			expected: decoder.ErrPayloadOutOfRange,
		},
		{
			name:     "truncatedReason",
			log:      testutil.MakeLog(governor, 0, txHash, payload[:len(payload)-32], common.Hash{}, testutil.TopicFromAddress(voter), testutil.TopicFromUint64(1)),
			expected: decoder.ErrMalformedString,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := testutil.Require(t)

			_, voteDecoder, _ := newDecoders(t)
			outcome := voteDecoder.Decode(testutil.MakeBlock(1, 1, test.log), test.log)
			require.False(outcome.Ok())
			require.Nil(outcome.Vote)
			require.Equal(decoder.EventVoteCast, outcome.Failure.Event)
			require.True(xerrors.Is(outcome.Failure, test.expected), outcome.Failure.Error())
		})
	}
}

func TestVoteId(t *testing.T) {
	require := testutil.Require(t)

	// Same transaction, different log index.
	require.NotEqual(decoder.VoteId(txHash, 1), decoder.VoteId(txHash, 2))
	// Same log index, different transaction.
	require.NotEqual(decoder.VoteId(txHash, 1), decoder.VoteId(otherTx, 1))
	require.Equal("0x1111111111111111111111111111111111111111111111111111111111111111-0", decoder.VoteId(txHash, 0))
}

func TestNewDecoders_InvalidLayout(t *testing.T) {
	require := testutil.Require(t)

	l, err := layout.New([]string{"proposer", "description"}, []string{"uint256", "string"})
	require.NoError(err)
	_, err = decoder.NewProposalDecoder(l)
	require.True(xerrors.Is(err, layout.ErrInvalidLayout))

	l, err = layout.New([]string{"support", "votes"}, []string{"uint8", "uint256"})
	require.NoError(err)
	_, err = decoder.NewVoteDecoder(l)
	require.True(xerrors.Is(err, layout.ErrInvalidLayout))
}

func TestReasonOf(t *testing.T) {
	require := testutil.Require(t)

	require.Equal(decoder.ReasonUnknown, decoder.ReasonOf(xerrors.New("boom")))
	require.Equal(decoder.ReasonOutOfRange, decoder.ReasonOf(xerrors.Errorf("wrapped: %w", layout.ErrPayloadOutOfRange)))
}
