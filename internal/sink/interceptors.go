package sink

import (
	"context"

	"github.com/uber-go/tally/v4"
	"go.uber.org/zap"

	"github.com/coinbase/chaingov/internal/governance/entity"
	"github.com/coinbase/chaingov/internal/utils/instrument"
)

type instrumentInterceptor struct {
	sink            Sink
	instrumentApply *instrument.Instrument
}

func WithInstrumentInterceptor(sink Sink, scope tally.Scope, logger *zap.Logger) Sink {
	scope = scope.SubScope("sink")
	return &instrumentInterceptor{
		sink: sink,
		instrumentApply: instrument.New(
			scope,
			"apply",
			instrument.WithLogger(logger, "sink.apply"),
			instrument.WithTracer("sink.apply", nil),
		),
	}
}

func (i *instrumentInterceptor) Apply(ctx context.Context, changes *entity.EntityChanges) error {
	return i.instrumentApply.Instrument(
		ctx,
		func(ctx context.Context) error {
			return i.sink.Apply(ctx, changes)
		},
		zap.Int("changes", changes.Len()),
	)
}
