package client

import (
	"context"

	"github.com/uber-go/tally/v4"
	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/coinbase/chaingov/internal/blockchain/parser"
	"github.com/coinbase/chaingov/internal/utils/instrument"
)

type (
	instrumentInterceptor struct {
		client                     Client
		instrumentGetBlockByHeight *instrument.Instrument
		instrumentGetLatestHeight  *instrument.Instrument
	}
)

func WithInstrumentInterceptor(client Client, scope tally.Scope, logger *zap.Logger) Client {
	scope = scope.SubScope("client")

	newInstrument := func(method string, opts ...instrument.Option) *instrument.Instrument {
		opts = append(opts, instrument.WithLogger(logger, "client."+method))
		return instrument.New(scope, method, opts...)
	}

	return &instrumentInterceptor{
		client: client,
		instrumentGetBlockByHeight: newInstrument(
			"get_block_by_height",
			instrument.WithFilter(func(err error) bool {
				return xerrors.Is(err, ErrBlockNotFound)
			}),
		),
		instrumentGetLatestHeight: newInstrument("get_latest_height"),
	}
}

func (i *instrumentInterceptor) GetBlockByHeight(ctx context.Context, height uint64) (*parser.RawBlock, error) {
	return instrument.WithResult(
		ctx,
		i.instrumentGetBlockByHeight,
		func(ctx context.Context) (*parser.RawBlock, error) {
			return i.client.GetBlockByHeight(ctx, height)
		},
		zap.Uint64("height", height),
	)
}

func (i *instrumentInterceptor) GetLatestHeight(ctx context.Context) (uint64, error) {
	return instrument.WithResult(ctx, i.instrumentGetLatestHeight, i.client.GetLatestHeight)
}
