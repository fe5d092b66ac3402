package tally

import (
	"testing"

	"github.com/uber-go/tally/v4"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/coinbase/chaingov/internal/config"
	"github.com/coinbase/chaingov/internal/utils/testapp"
	"github.com/coinbase/chaingov/internal/utils/testutil"
)

func TestNewReporterDefaultNoStatsD(t *testing.T) {
	testapp.TestAllEnvs(t, func(t *testing.T, cfg *config.Config) {
		require := testutil.Require(t)

		cfg.StatsD = nil
		var reporter tally.StatsReporter
		app := testapp.New(
			t,
			testapp.WithConfig(cfg),
			fx.Provide(NewStatsReporter),
			fx.Populate(&reporter),
		)
		defer app.Close()

		require.Equal(tally.NullStatsReporter, reporter)
		require.False(reporter.Capabilities().Reporting())
		require.False(reporter.Capabilities().Tagging())
	})
}

func TestNewReporterWithStatsD(t *testing.T) {
	testapp.TestAllEnvs(t, func(t *testing.T, cfg *config.Config) {
		require := testutil.Require(t)

		cfg.StatsD = &config.StatsDConfig{
			Address: "localhost:8125",
		}
		var reporter tally.StatsReporter
		app := testapp.New(
			t,
			testapp.WithConfig(cfg),
			fx.Provide(NewStatsReporter),
			fx.Populate(&reporter),
		)
		defer app.Close()

		require.NotEqual(tally.NullStatsReporter, reporter)
		require.True(reporter.Capabilities().Reporting())
		require.True(reporter.Capabilities().Tagging())
	})
}

func TestNewRootScope(t *testing.T) {
	require := testutil.Require(t)

	cfg, err := config.New()
	require.NoError(err)

	lifecycle := fxtest.NewLifecycle(t)
	scope := NewRootScope(MetricParams{
		Lifecycle: lifecycle,
		Config:    cfg,
		Reporter:  tally.NullStatsReporter,
	})
	lifecycle.RequireStart()
	defer lifecycle.RequireStop()

	require.NotNil(scope)
	scope.Counter("blocks").Inc(1)
}
