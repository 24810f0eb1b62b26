package extension

import (
	tuition "github.com/xraph/tuition"
	"github.com/xraph/tuition/plugin"
	"github.com/xraph/tuition/store"
)

// Option configures the Tuition Forge extension.
type Option func(*Extension)

// WithStore sets the store for the tuition engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithTuitionOption passes a tuition.Option through to the underlying engine.
func WithTuitionOption(opt tuition.Option) Option {
	return func(e *Extension) {
		e.tuitionOpts = append(e.tuitionOpts, opt)
	}
}

// WithPlugin registers a tuition plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.tuitionOpts = append(e.tuitionOpts, tuition.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableRoutes prevents HTTP route registration.
func WithDisableRoutes() Option {
	return func(e *Extension) { e.config.DisableRoutes = true }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithBasePath sets the URL prefix for tuition routes.
func WithBasePath(path string) Option {
	return func(e *Extension) { e.config.BasePath = path }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithCurrency sets the default currency for the engine.
func WithCurrency(currency string) Option {
	return func(e *Extension) { e.config.Currency = currency }
}

// WithMaxRetries bounds the optimistic-concurrency retry loop.
func WithMaxRetries(n int) Option {
	return func(e *Extension) { e.config.MaxRetries = n }
}

// WithGroveDatabase sets the name of the grove.DB to resolve from the DI container.
// The extension will auto-construct the appropriate store backend (postgres/sqlite/mongo)
// based on the grove driver type. Pass an empty string to use the default (unnamed) grove.DB.
func WithGroveDatabase(name string) Option {
	return func(e *Extension) {
		e.config.GroveDatabase = name
		e.useGrove = true
	}
}
