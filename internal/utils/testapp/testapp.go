package testapp

import (
	"testing"

	"github.com/uber-go/tally/v4"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/coinbase/chaingov/internal/config"
	"github.com/coinbase/chaingov/internal/services"
	"github.com/coinbase/chaingov/internal/utils/fxparams"
	"github.com/coinbase/chaingov/internal/utils/testutil"
)

type (
	TestApp interface {
		Close()
		Logger() *zap.Logger
		Config() *config.Config
	}

	TestFn func(t *testing.T, cfg *config.Config)

	testAppImpl struct {
		app    *fxtest.App
		logger *zap.Logger
		config *config.Config
	}
)

var EnvsToTest = []config.Env{
	config.EnvLocal,
	config.EnvDevelopment,
	config.EnvProduction,
}

// New starts an fx app with the config, a test logger and a no-op metrics scope.
func New(t testing.TB, opts ...fx.Option) TestApp {
	manager := services.NewMockSystemManager()
	manager.GLogger = zaptest.NewLogger(t)

	var cfg *config.Config
	opts = append(
		opts,
		config.Module,
		fxparams.Module,
		fx.NopLogger,
		fx.Provide(func() testing.TB { return t }),
		fx.Provide(func() *zap.Logger { return manager.Logger() }),
		fx.Provide(func() tally.Scope { return tally.NoopScope }),
		fx.Provide(func() services.SystemManager { return manager }),
		fx.Populate(&cfg),
	)

	app := fxtest.New(t, opts...)
	app.RequireStart()
	return &testAppImpl{
		app:    app,
		logger: manager.Logger(),
		config: cfg,
	}
}

// WithConfig overrides the default config.
func WithConfig(cfg *config.Config) fx.Option {
	return config.WithCustomConfig(cfg)
}

func (a *testAppImpl) Close() {
	a.app.RequireStop()
}

func (a *testAppImpl) Logger() *zap.Logger {
	return a.logger
}

func (a *testAppImpl) Config() *config.Config {
	return a.config
}

// TestAllEnvs runs fn against the default config of every environment.
func TestAllEnvs(t *testing.T, fn TestFn) {
	for _, env := range EnvsToTest {
		t.Run(string(env), func(t *testing.T) {
			require := testutil.Require(t)

			cfg, err := config.New(config.WithEnvironment(env))
			require.NoError(err)
			require.Equal(env, cfg.Env())

			fn(t, cfg)
		})
	}
}
