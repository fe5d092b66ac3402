// Package sink hands entity changes to their downstream store.
package sink

import (
	"context"
	"io"
	"os"

	"go.uber.org/fx"
	"golang.org/x/xerrors"

	"github.com/coinbase/chaingov/internal/config"
	"github.com/coinbase/chaingov/internal/governance/entity"
	"github.com/coinbase/chaingov/internal/sink/console"
	"github.com/coinbase/chaingov/internal/sink/sqlsink"
	"github.com/coinbase/chaingov/internal/utils/fxparams"
	"github.com/coinbase/chaingov/internal/utils/log"
)

//go:generate mockgen -destination=mocks/mocks.go -package=sinkmocks github.com/coinbase/chaingov/internal/sink Sink

type (
	Sink interface {
		// Apply stores the changes of one block, in order. It is safe to apply the same block more than once.
		Apply(ctx context.Context, changes *entity.EntityChanges) error
	}

	SinkParams struct {
		fx.In
		fxparams.Params
		Lifecycle fx.Lifecycle
		Writer    io.Writer `name:"sink_writer" optional:"true"`
	}
)

var (
	ErrInvalidParameters = xerrors.New("invalid parameters")
)

func New(params SinkParams) (Sink, error) {
	logger := log.WithPackage(params.Logger)

	var sink Sink
	switch sinkType := params.Config.Sink.Type; sinkType {
	case config.SinkType_CONSOLE:
		writer := params.Writer
		if writer == nil {
			writer = os.Stdout
		}
		sink = console.New(writer)
	case config.SinkType_SQL:
		db, err := sqlsink.Open(&params.Config.Sink.SQL)
		if err != nil {
			return nil, xerrors.Errorf("failed to open sql sink: %w", err)
		}

		sqlSink := sqlsink.New(db, logger)
		params.Lifecycle.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return sqlSink.Close()
			},
		})
		sink = sqlSink
	default:
		return nil, xerrors.Errorf("sink type not supported: %v", sinkType)
	}

	return WithInstrumentInterceptor(&validatingSink{sink: sink}, params.Metrics, logger), nil
}

type validatingSink struct {
	sink Sink
}

func (s *validatingSink) Apply(ctx context.Context, changes *entity.EntityChanges) error {
	if changes == nil {
		return xerrors.Errorf("changes are nil: %w", ErrInvalidParameters)
	}

	for i, change := range changes.Changes {
		if change == nil || change.Entity == "" || change.Id == "" {
			return xerrors.Errorf("change %v has no entity or id: %w", i, ErrInvalidParameters)
		}
	}

	return s.sink.Apply(ctx, changes)
}
