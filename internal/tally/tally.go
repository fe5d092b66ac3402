package tally

import (
	"context"

	"github.com/uber-go/tally/v4"
	"go.uber.org/fx"

	"github.com/coinbase/chaingov/internal/config"
	"github.com/coinbase/chaingov/internal/utils/consts"
)

type (
	MetricParams struct {
		fx.In
		Lifecycle fx.Lifecycle
		Config    *config.Config
		Reporter  tally.StatsReporter
	}
)

var Module = fx.Options(
	fx.Provide(NewStatsReporter),
	fx.Provide(NewRootScope),
)

// NewRootScope prefixes every metric with the service name and tags it with the blockchain and network.
func NewRootScope(params MetricParams) tally.Scope {
	opts := tally.ScopeOptions{
		Prefix:   consts.ServiceName,
		Reporter: params.Reporter,
		Tags:     params.Config.GetCommonTags(),
	}
	// The report interval is owned by the reporter.
	scope, closer := tally.NewRootScope(opts, 0)
	params.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return closer.Close()
		},
	})

	return scope
}
