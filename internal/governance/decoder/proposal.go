package decoder

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/xerrors"

	"github.com/coinbase/chaingov/internal/blockchain/model"
	"github.com/coinbase/chaingov/internal/governance/layout"
	"github.com/coinbase/chaingov/internal/governance/types"
	"github.com/coinbase/chaingov/internal/utils/numeric"
)

type ProposalDecoder struct {
	layout *layout.Layout
}

const (
	FieldProposer    = "proposer"
	FieldDescription = "description"

	proposalTopics = 2
)

// NewProposalDecoder requires an address field named proposer and a string field named description.
func NewProposalDecoder(l *layout.Layout) (*ProposalDecoder, error) {
	if err := l.Require(FieldProposer, abi.AddressTy); err != nil {
		return nil, xerrors.Errorf("invalid proposal layout: %w", err)
	}

	if err := l.Require(FieldDescription, abi.StringTy); err != nil {
		return nil, xerrors.Errorf("invalid proposal layout: %w", err)
	}

	return &ProposalDecoder{layout: l}, nil
}

func (d *ProposalDecoder) Decode(block *model.Block, log *model.Log) Outcome {
	if len(log.Topics) < proposalTopics {
		return newFailure(EventProposalCreated, log, xerrors.Errorf("expected %v topics, got %v: %w", proposalTopics, len(log.Topics), ErrMissingTopics))
	}

	timestamp := block.GetHeader().GetTimestamp()
	if timestamp == nil || timestamp.GetSeconds() < 0 {
		return newFailure(EventProposalCreated, log, xerrors.Errorf("block %v: %w", block.Number, ErrMissingTimestamp))
	}

	id, err := numeric.WordToDecimal(log.Topics[1].Bytes())
	if err != nil {
		return newFailure(EventProposalCreated, log, err)
	}

	proposer, err := d.layout.Address(log.Data, FieldProposer)
	if err != nil {
		return newFailure(EventProposalCreated, log, err)
	}

	description, err := d.layout.String(log.Data, FieldDescription)
	if err != nil {
		return newFailure(EventProposalCreated, log, err)
	}

	return Outcome{
		Proposal: &types.Proposal{
			Id:           id,
			Proposer:     hexutil.Encode(proposer.Bytes()),
			Description:  description,
			CreationTime: uint64(timestamp.GetSeconds()),
			Values:       []string{},
		},
	}
}
