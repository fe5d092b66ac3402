package main

import (
	"encoding/json"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/coinbase/chaingov/internal/config"
	"github.com/coinbase/chaingov/internal/services"
	"github.com/coinbase/chaingov/internal/tally"
	"github.com/coinbase/chaingov/internal/tracer"
	"github.com/coinbase/chaingov/internal/utils/fxparams"
	"github.com/coinbase/chaingov/internal/utils/log"
)

const (
	envFlagName        = "env"
	blockchainFlagName = "blockchain"
	networkFlagName    = "network"
	sinkFlagName       = "sink"
)

type (
	CmdApp interface {
		Close()
		Manager() services.SystemManager
		Config() *config.Config
	}

	cmdAppImpl struct {
		app     *fx.App
		manager services.SystemManager
		config  *config.Config
	}
)

var (
	commonFlags struct {
		env        string
		blockchain string
		network    string
		sink       string
		out        string
	}

	logger *zap.Logger
)

func init() {
	logger = log.NewDevelopment()
	rootCmd.PersistentFlags().StringVar(&commonFlags.env, envFlagName, "", "one of [local, development, production]")
	rootCmd.PersistentFlags().StringVar(&commonFlags.blockchain, blockchainFlagName, "", "blockchain full name (e.g. ethereum)")
	rootCmd.PersistentFlags().StringVar(&commonFlags.network, networkFlagName, "", "network name (e.g. mainnet)")
	rootCmd.PersistentFlags().StringVar(&commonFlags.sink, sinkFlagName, "", "sink type overriding the config: one of console or sql")
	rootCmd.PersistentFlags().StringVar(&commonFlags.out, "out", "", "output filepath for the json report")

	for _, name := range []string{blockchainFlagName, networkFlagName, envFlagName} {
		if err := rootCmd.MarkPersistentFlagRequired(name); err != nil {
			logger.Fatal("error marking flag required", zap.String("flag", name), zap.Error(err))
		}
	}
}

func newConfig() (*config.Config, error) {
	cfg, err := config.New(
		config.WithBlockchain(commonFlags.blockchain),
		config.WithNetwork(commonFlags.network),
		config.WithEnvironment(config.Env(commonFlags.env)),
	)
	if err != nil {
		return nil, xerrors.Errorf("failed to create service config: %w", err)
	}

	if commonFlags.sink != "" {
		sinkType, err := config.ParseSinkType(commonFlags.sink)
		if err != nil {
			return nil, xerrors.Errorf("failed to parse sink flag: %w", err)
		}

		cfg.Sink.Type = sinkType
		cfg.Sink.DeriveConfig(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, xerrors.Errorf("invalid sink override: %w", err)
		}
	}

	return cfg, nil
}

func startApp(opts ...fx.Option) CmdApp {
	manager := services.NewManager(services.WithLogger(logger))

	cfg, err := newConfig()
	if err != nil {
		logger.Fatal("failed to initialize config from flags", zap.Error(err))
	}

	finalOpts := []fx.Option{
		config.Module,
		config.WithCustomConfig(cfg),
		fxparams.Module,
		tally.Module,
		tracer.Module,
		fx.NopLogger,
		fx.Provide(func() *zap.Logger { return logger }),
		fx.Provide(func() services.SystemManager { return manager }),
	}
	finalOpts = append(finalOpts, opts...)

	app := fx.New(finalOpts...)
	if err := app.Start(manager.Context()); err != nil {
		logger.Fatal("failed to start app", zap.Error(err))
	}

	return &cmdAppImpl{
		app:     app,
		manager: manager,
		config:  cfg,
	}
}

func (a *cmdAppImpl) Close() {
	if err := a.app.Stop(a.manager.Context()); err != nil {
		logger.Error("failed to stop app", zap.Error(err))
	}

	a.manager.Shutdown()
}

func (a *cmdAppImpl) Manager() services.SystemManager {
	return a.manager
}

func (a *cmdAppImpl) Config() *config.Config {
	return a.config
}

// writeOutput logs v, and writes it as indented json when --out is set.
func writeOutput(msg string, v any) error {
	if commonFlags.out == "" {
		logger.Info(msg, zap.Reflect("result", v))
		return nil
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return xerrors.Errorf("failed to marshal output: %w", err)
	}

	if err := os.WriteFile(commonFlags.out, data, 0644); /* #nosec G306 */ err != nil {
		return xerrors.Errorf("failed to write output file: %w", err)
	}

	logger.Info(msg, zap.String("out", commonFlags.out))
	return nil
}
