package parser

import (
	"context"

	"github.com/uber-go/tally/v4"
	"go.uber.org/zap"

	"github.com/coinbase/chaingov/internal/blockchain/model"
	"github.com/coinbase/chaingov/internal/utils/instrument"
)

type (
	instrumentInterceptor struct {
		parser               Parser
		instrumentParseBlock *instrument.Instrument
	}
)

func WithInstrumentInterceptor(parser Parser, scope tally.Scope, logger *zap.Logger) Parser {
	scope = scope.SubScope("parser")

	return &instrumentInterceptor{
		parser: parser,
		instrumentParseBlock: instrument.New(
			scope,
			"parse_block",
			instrument.WithLogger(logger, "parser.parse_block"),
		),
	}
}

func (i *instrumentInterceptor) ParseBlock(ctx context.Context, rawBlock *RawBlock) (*model.Block, error) {
	var height uint64
	if rawBlock != nil {
		height = rawBlock.Height
	}

	return instrument.WithResult(
		ctx,
		i.instrumentParseBlock,
		func(ctx context.Context) (*model.Block, error) {
			return i.parser.ParseBlock(ctx, rawBlock)
		},
		zap.Uint64("height", height),
	)
}
