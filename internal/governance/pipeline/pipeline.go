// Package pipeline runs the governance stages over one block: match, decode, then project.
// Every call is independent; the pipeline holds no state besides its immutable configuration.
package pipeline

import (
	"context"

	"github.com/uber-go/tally/v4"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/coinbase/chaingov/internal/blockchain/model"
	"github.com/coinbase/chaingov/internal/config"
	"github.com/coinbase/chaingov/internal/governance/decoder"
	"github.com/coinbase/chaingov/internal/governance/entity"
	"github.com/coinbase/chaingov/internal/governance/layout"
	"github.com/coinbase/chaingov/internal/governance/matcher"
	"github.com/coinbase/chaingov/internal/governance/projector"
	"github.com/coinbase/chaingov/internal/governance/types"
	"github.com/coinbase/chaingov/internal/utils/fxparams"
	"github.com/coinbase/chaingov/internal/utils/instrument"
	"github.com/coinbase/chaingov/internal/utils/log"
)

type (
	Pipeline interface {
		// MapProposals decodes every matching ProposalCreated log of the block, in log order.
		MapProposals(ctx context.Context, block *model.Block) (types.Proposals, []*decoder.Failure, error)

		// MapVotes decodes every matching VoteCast log of the block, in log order.
		MapVotes(ctx context.Context, block *model.Block) (types.Votes, []*decoder.Failure, error)

		// ProjectChanges converts the decoded records of the block into entity changes.
		ProjectChanges(ctx context.Context, block *model.Block, proposals types.Proposals, votes types.Votes) (*entity.EntityChanges, error)

		// ProcessBlock runs all the stages.
		ProcessBlock(ctx context.Context, block *model.Block) (*Result, error)
	}

	Params struct {
		fx.In
		fxparams.Params
	}

	Result struct {
		Proposals types.Proposals
		Votes     types.Votes
		Changes   *entity.EntityChanges
		Failures  []*decoder.Failure
	}

	pipelineImpl struct {
		logger          *zap.Logger
		dropped         tally.Scope
		proposalMatcher *matcher.Matcher
		voteMatcher     *matcher.Matcher
		proposalDecoder *decoder.ProposalDecoder
		voteDecoder     *decoder.VoteDecoder
		projector       *projector.Projector

		instrumentMapProposals   *instrument.Instrument
		instrumentMapVotes       *instrument.Instrument
		instrumentProjectChanges *instrument.Instrument
	}
)

const (
	droppedCounter = "dropped"
	eventTag       = "event"
	reasonTag      = "reason"
)

var (
	ErrInvalidParameters = xerrors.New("invalid parameters")
)

func New(params Params) (Pipeline, error) {
	cfg := params.Config.Governance

	proposalLayout, err := newLayout(&cfg.ProposalCreated)
	if err != nil {
		return nil, xerrors.Errorf("failed to create proposal layout: %w", err)
	}

	proposalDecoder, err := decoder.NewProposalDecoder(proposalLayout)
	if err != nil {
		return nil, xerrors.Errorf("failed to create proposal decoder: %w", err)
	}

	voteLayout, err := newLayout(&cfg.VoteCast)
	if err != nil {
		return nil, xerrors.Errorf("failed to create vote layout: %w", err)
	}

	voteDecoder, err := decoder.NewVoteDecoder(voteLayout)
	if err != nil {
		return nil, xerrors.Errorf("failed to create vote decoder: %w", err)
	}

	logger := log.WithPackage(params.Logger)
	scope := params.Metrics.SubScope("governance")
	stageScope := scope.SubScope("pipeline")
	newInstrument := func(method string) *instrument.Instrument {
		return instrument.New(
			stageScope,
			method,
			instrument.WithLogger(logger, "pipeline."+method),
			instrument.WithTracer("pipeline."+method, nil),
		)
	}

	return &pipelineImpl{
		logger:                   logger,
		dropped:                  scope.SubScope("decoder"),
		proposalMatcher:          matcher.New(cfg.Contract, cfg.ProposalCreated.Signature),
		voteMatcher:              matcher.New(cfg.Contract, cfg.VoteCast.Signature),
		proposalDecoder:          proposalDecoder,
		voteDecoder:              voteDecoder,
		projector:                projector.New(),
		instrumentMapProposals:   newInstrument("map_proposals"),
		instrumentMapVotes:       newInstrument("map_votes"),
		instrumentProjectChanges: newInstrument("project_changes"),
	}, nil
}

func newLayout(cfg *config.EventConfig) (*layout.Layout, error) {
	return layout.New(cfg.PayloadFields())
}

func (p *pipelineImpl) MapProposals(ctx context.Context, block *model.Block) (types.Proposals, []*decoder.Failure, error) {
	if block == nil {
		return nil, nil, xerrors.Errorf("block is nil: %w", ErrInvalidParameters)
	}

	var failures []*decoder.Failure
	proposals, err := instrument.WithResult(
		ctx,
		p.instrumentMapProposals,
		func(ctx context.Context) (types.Proposals, error) {
			proposals := types.Proposals{}
			for _, entry := range block.Logs {
				if !p.proposalMatcher.Match(entry) {
					continue
				}

				outcome := p.proposalDecoder.Decode(block, entry)
				if !outcome.Ok() {
					failures = append(failures, p.drop(block, outcome.Failure))
					continue
				}

				proposals = append(proposals, outcome.Proposal)
			}

			return proposals, nil
		},
		zap.Uint64("height", block.Number),
	)
	if err != nil {
		return nil, nil, err
	}

	return proposals, failures, nil
}

func (p *pipelineImpl) MapVotes(ctx context.Context, block *model.Block) (types.Votes, []*decoder.Failure, error) {
	if block == nil {
		return nil, nil, xerrors.Errorf("block is nil: %w", ErrInvalidParameters)
	}

	var failures []*decoder.Failure
	votes, err := instrument.WithResult(
		ctx,
		p.instrumentMapVotes,
		func(ctx context.Context) (types.Votes, error) {
			votes := types.Votes{}
			for _, entry := range block.Logs {
				if !p.voteMatcher.Match(entry) {
					continue
				}

				outcome := p.voteDecoder.Decode(block, entry)
				if !outcome.Ok() {
					failures = append(failures, p.drop(block, outcome.Failure))
					continue
				}

				votes = append(votes, outcome.Vote)
			}

			return votes, nil
		},
		zap.Uint64("height", block.Number),
	)
	if err != nil {
		return nil, nil, err
	}

	return votes, failures, nil
}

func (p *pipelineImpl) ProjectChanges(ctx context.Context, block *model.Block, proposals types.Proposals, votes types.Votes) (*entity.EntityChanges, error) {
	if block == nil {
		return nil, xerrors.Errorf("block is nil: %w", ErrInvalidParameters)
	}

	return instrument.WithResult(
		ctx,
		p.instrumentProjectChanges,
		func(ctx context.Context) (*entity.EntityChanges, error) {
			ref := projector.BlockRef{
				Number: block.Number,
				Hash:   block.Hash.Hex(),
			}

			changes, err := p.projector.Project(ref, proposals, votes)
			if err != nil {
				return nil, xerrors.Errorf("failed to project block %v: %w", block.Number, err)
			}

			return changes, nil
		},
		zap.Uint64("height", block.Number),
		zap.Int("proposals", len(proposals)),
		zap.Int("votes", len(votes)),
	)
}

func (p *pipelineImpl) ProcessBlock(ctx context.Context, block *model.Block) (*Result, error) {
	proposals, proposalFailures, err := p.MapProposals(ctx, block)
	if err != nil {
		return nil, xerrors.Errorf("failed to map proposals: %w", err)
	}

	votes, voteFailures, err := p.MapVotes(ctx, block)
	if err != nil {
		return nil, xerrors.Errorf("failed to map votes: %w", err)
	}

	changes, err := p.ProjectChanges(ctx, block, proposals, votes)
	if err != nil {
		return nil, xerrors.Errorf("failed to project changes: %w", err)
	}

	return &Result{
		Proposals: proposals,
		Votes:     votes,
		Changes:   changes,
		Failures:  append(proposalFailures, voteFailures...),
	}, nil
}

func (p *pipelineImpl) drop(block *model.Block, failure *decoder.Failure) *decoder.Failure {
	p.dropped.Tagged(map[string]string{
		eventTag:  failure.Event.String(),
		reasonTag: failure.ReasonTag(),
	}).Counter(droppedCounter).Inc(1)

	p.logger.Debug(
		"dropped governance log",
		zap.Uint64("height", block.Number),
		zap.String("event", failure.Event.String()),
		zap.Uint32("log_index", failure.LogIndex),
		zap.String("tx_hash", failure.TransactionHash.Hex()),
		zap.String("reason", failure.ReasonTag()),
		zap.Error(failure.Reason),
	)

	return failure
}

// Dropped is the number of matched logs that could not be decoded.
func (r *Result) Dropped() int {
	if r == nil {
		return 0
	}
	return len(r.Failures)
}
