// Package tracer starts the Datadog tracer whose spans are opened by the instrument package.
package tracer

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/coinbase/chaingov/internal/utils/consts"
	"github.com/coinbase/chaingov/internal/utils/fxparams"
)

type (
	Params struct {
		fx.In
		fxparams.Params
		Lifecycle fx.Lifecycle
	}
)

// Start registers the tracer with the app lifecycle. It is a no-op unless the tracer is configured.
func Start(params Params) {
	cfg := params.Config.Tracer
	if cfg == nil {
		return
	}

	opts := []tracer.StartOption{
		tracer.WithService(consts.ServiceName),
		tracer.WithEnv(string(params.Config.Env())),
		tracer.WithAgentAddr(cfg.AgentAddress),
		tracer.WithAnalyticsRate(cfg.SampleRate),
	}
	for k, v := range params.Config.GetCommonTags() {
		opts = append(opts, tracer.WithGlobalTag(k, v))
	}

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			tracer.Start(opts...)
			params.Logger.Info("started tracer", zap.String("agent_address", cfg.AgentAddress))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			tracer.Stop()
			return nil
		},
	})
}
