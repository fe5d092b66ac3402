// Package projector converts decoded governance records into entity changes.
package projector

import (
	"golang.org/x/xerrors"

	"github.com/coinbase/chaingov/internal/governance/entity"
	"github.com/coinbase/chaingov/internal/governance/types"
)

type (
	Projector struct{}

	// BlockRef identifies the block the changes are derived from.
	BlockRef struct {
		Number uint64
		Hash   string
	}
)

const (
	EntityProposal = "Proposal"
	EntityProposer = "Proposer"
	EntityVote     = "Vote"
	EntityVoter    = "Voter"

	ProposalStatePending = "Pending"
)

var ErrInvalidRecord = xerrors.New("invalid record")

func New() *Projector {
	return &Projector{}
}

// Project emits, for each proposal in order, a Proposal create followed by a Proposer update,
// then, for each vote in order, a Vote create followed by a Voter update.
// Repeated proposers and voters are not deduplicated.
func (p *Projector) Project(ref BlockRef, proposals types.Proposals, votes types.Votes) (*entity.EntityChanges, error) {
	changes := &entity.EntityChanges{
		BlockNumber: ref.Number,
		BlockHash:   ref.Hash,
		Changes:     make([]*entity.EntityChange, 0, 2*(len(proposals)+len(votes))),
	}

	for _, proposal := range proposals {
		if err := p.projectProposal(changes, proposal); err != nil {
			return nil, err
		}
	}

	for _, vote := range votes {
		if err := p.projectVote(changes, vote); err != nil {
			return nil, err
		}
	}

	return changes, nil
}

func (p *Projector) projectProposal(changes *entity.EntityChanges, proposal *types.Proposal) error {
	if proposal == nil {
		return xerrors.Errorf("proposal is nil: %w", ErrInvalidRecord)
	}

	zero := entity.BigIntFromUint64(0)
	changes.Append(entity.NewCreate(EntityProposal, proposal.Id).
		Set("description", entity.StringValue(proposal.Description)).
		Set("proposer", entity.StringValue(proposal.Proposer)).
		Set("creationTime", entity.BigIntFromUint64(proposal.CreationTime)).
		Set("values", entity.StringArrayValue(proposal.Values)).
		Set("state", entity.StringValue(ProposalStatePending)).
		Set("forDelegateVotes", zero).
		Set("againstDelegateVotes", zero).
		Set("abstainDelegateVotes", zero).
		Set("quorumVotes", zero))

	changes.Append(entity.NewUpdate(EntityProposer, proposal.Proposer).
		Set("id", entity.StringValue(proposal.Proposer)).
		Set("delegatedVotesRaw", zero))

	return nil
}

func (p *Projector) projectVote(changes *entity.EntityChanges, vote *types.Vote) error {
	if vote == nil {
		return xerrors.Errorf("vote is nil: %w", ErrInvalidRecord)
	}

	weight, err := entity.BigIntValue(vote.Weight)
	if err != nil {
		return xerrors.Errorf("vote %v has invalid weight: %v: %w", vote.Id, err, ErrInvalidRecord)
	}

	changes.Append(entity.NewCreate(EntityVote, vote.Id).
		Set("voter", entity.StringValue(vote.Voter)).
		Set("proposalId", entity.StringValue(vote.ProposalId)).
		Set("weight", weight).
		Set("choice", entity.StringValue(vote.ChoiceName().String())).
		Set("reason", entity.StringValue(vote.Reason)))

	changes.Append(entity.NewUpdate(EntityVoter, vote.Voter).
		Set("id", entity.StringValue(vote.Voter)).
		Set("delegatedVotesRaw", entity.BigIntFromUint64(0)))

	return nil
}
