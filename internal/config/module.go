package config

import (
	"go.uber.org/fx"
)

type (
	Params struct {
		fx.In
		Override *override `optional:"true"`
	}

	override struct {
		config *Config
	}
)

var Module = fx.Options(
	fx.Provide(NewFacade),
)

// NewFacade loads the config for the current environment unless an override was injected.
func NewFacade(params Params) (*Config, error) {
	if params.Override != nil {
		return params.Override.config, nil
	}

	return New()
}

// WithCustomConfig replaces the config that would otherwise be loaded from the config store.
func WithCustomConfig(config *Config) fx.Option {
	return fx.Provide(func() *override {
		return &override{config: config}
	})
}
