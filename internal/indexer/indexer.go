// Package indexer fetches blocks, runs the governance pipeline over them and applies the result to the sink.
package indexer

import (
	"context"

	"github.com/uber-go/tally/v4"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/coinbase/chaingov/internal/blockchain/client"
	"github.com/coinbase/chaingov/internal/blockchain/parser"
	"github.com/coinbase/chaingov/internal/governance/pipeline"
	"github.com/coinbase/chaingov/internal/sink"
	"github.com/coinbase/chaingov/internal/utils/fxparams"
	"github.com/coinbase/chaingov/internal/utils/instrument"
	"github.com/coinbase/chaingov/internal/utils/log"
	"github.com/coinbase/chaingov/internal/utils/syncgroup"
)

type (
	Indexer struct {
		logger      *zap.Logger
		client      client.Client
		parser      parser.Parser
		pipeline    pipeline.Pipeline
		sink        sink.Sink
		parallelism int
		metrics     *indexerMetrics
	}

	Params struct {
		fx.In
		fxparams.Params
		Client   client.Client
		Parser   parser.Parser
		Pipeline pipeline.Pipeline
		Sink     sink.Sink
	}

	// Report summarizes what was extracted from one block.
	Report struct {
		Height    uint64 `json:"height"`
		Hash      string `json:"hash"`
		Proposals int    `json:"proposals"`
		Votes     int    `json:"votes"`
		Changes   int    `json:"changes"`
		Dropped   int    `json:"dropped"`
	}

	indexerMetrics struct {
		instrumentIndexBlock *instrument.Instrument
		proposals            tally.Counter
		votes                tally.Counter
		changes              tally.Counter
	}
)

var (
	ErrInvalidParameters = xerrors.New("invalid parameters")
)

func New(params Params) *Indexer {
	logger := log.WithPackage(params.Logger)
	return &Indexer{
		logger:      logger,
		client:      params.Client,
		parser:      params.Parser,
		pipeline:    params.Pipeline,
		sink:        params.Sink,
		parallelism: params.Config.Indexer.Parallelism,
		metrics:     newIndexerMetrics(params.Metrics, logger),
	}
}

func newIndexerMetrics(scope tally.Scope, logger *zap.Logger) *indexerMetrics {
	scope = scope.SubScope("indexer")
	return &indexerMetrics{
		instrumentIndexBlock: instrument.New(
			scope,
			"index_block",
			instrument.WithLogger(logger, "indexer.index_block"),
			instrument.WithTracer("indexer.index_block", nil),
			instrument.WithFilter(func(err error) bool {
				return xerrors.Is(err, client.ErrBlockNotFound)
			}),
		),
		proposals: scope.Counter("proposals"),
		votes:     scope.Counter("votes"),
		changes:   scope.Counter("changes"),
	}
}

// IndexBlock fetches the block at the given height and applies its entity changes.
func (i *Indexer) IndexBlock(ctx context.Context, height uint64) (*Report, error) {
	return instrument.WithResult(
		ctx,
		i.metrics.instrumentIndexBlock,
		func(ctx context.Context) (*Report, error) {
			rawBlock, err := i.client.GetBlockByHeight(ctx, height)
			if err != nil {
				return nil, xerrors.Errorf("failed to get block %v: %w", height, err)
			}

			return i.IndexRawBlock(ctx, rawBlock)
		},
		zap.Uint64("height", height),
	)
}

// IndexRawBlock parses a block already fetched and applies its entity changes.
func (i *Indexer) IndexRawBlock(ctx context.Context, rawBlock *parser.RawBlock) (*Report, error) {
	if rawBlock == nil {
		return nil, xerrors.Errorf("raw block is nil: %w", ErrInvalidParameters)
	}

	block, err := i.parser.ParseBlock(ctx, rawBlock)
	if err != nil {
		return nil, xerrors.Errorf("failed to parse block %v: %w", rawBlock.Height, err)
	}

	result, err := i.pipeline.ProcessBlock(ctx, block)
	if err != nil {
		return nil, xerrors.Errorf("failed to process block %v: %w", block.Number, err)
	}

	if err := i.sink.Apply(ctx, result.Changes); err != nil {
		return nil, xerrors.Errorf("failed to apply changes of block %v: %w", block.Number, err)
	}

	report := &Report{
		Height:    block.Number,
		Hash:      block.Hash.Hex(),
		Proposals: len(result.Proposals),
		Votes:     len(result.Votes),
		Changes:   result.Changes.Len(),
		Dropped:   result.Dropped(),
	}

	i.metrics.proposals.Inc(int64(report.Proposals))
	i.metrics.votes.Inc(int64(report.Votes))
	i.metrics.changes.Inc(int64(report.Changes))
	log.WithBlock(i.logger, report.Height, report.Hash).Info(
		"indexed block",
		zap.Int("proposals", report.Proposals),
		zap.Int("votes", report.Votes),
		zap.Int("changes", report.Changes),
		zap.Int("dropped", report.Dropped),
	)

	return report, nil
}

// IndexBlocks indexes every height independently, with at most indexer.parallelism blocks in flight.
// Reports are returned in the order of heights. The first failure cancels the blocks not yet indexed.
func (i *Indexer) IndexBlocks(ctx context.Context, heights []uint64) ([]*Report, error) {
	reports := make([]*Report, len(heights))
	group, ctx := syncgroup.New(ctx, syncgroup.WithThrottling(i.parallelism))
	for idx, height := range heights {
		idx, height := idx, height
		group.Go(func() error {
			report, err := i.IndexBlock(ctx, height)
			if err != nil {
				return err
			}

			reports[idx] = report
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, xerrors.Errorf("failed to index blocks: %w", err)
	}

	return reports, nil
}

// IndexLatest indexes the latest block known to the node.
func (i *Indexer) IndexLatest(ctx context.Context) (*Report, error) {
	height, err := i.client.GetLatestHeight(ctx)
	if err != nil {
		return nil, xerrors.Errorf("failed to get latest height: %w", err)
	}

	return i.IndexBlock(ctx, height)
}
