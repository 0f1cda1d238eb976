// Package options configures the evaluators built by the root metajs package.
package options

import (
	"errors"
	"log/slog"
	"maps"

	"github.com/robbyt/go-metajs/engines/metajs/compiler"
	"github.com/robbyt/go-metajs/engines/metajs/vm"
	"github.com/robbyt/go-metajs/platform/data"
	"github.com/robbyt/go-metajs/platform/script/loader"
)

var (
	ErrNoLoader     = errors.New("no loader specified")
	ErrNoProvider   = errors.New("no data provider specified")
	ErrEmptyVersion = errors.New("version ID is empty")
)

// Config holds everything needed to build an evaluator.
type Config struct {
	handler      slog.Handler
	dataProvider data.Provider
	loader       loader.Loader

	// staticData is served ahead of dataProvider on every Eval.
	staticData map[string]any

	// versionID overrides the exec ID; the loader's source URL is used when empty.
	versionID string

	compilerOptions []compiler.FunctionalOption
	machineOptions  []vm.Option
}

// Option is a function that modifies Config
type Option func(*Config) error

// Apply runs opts against a new Config with defaults filled in for anything left unset.
func Apply(opts ...Option) (*Config, error) {
	cfg := &Config{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if err := WithDefaults()(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WithLogHandler sets the log handler shared by the compiler, evaluator and machines.
func WithLogHandler(handler slog.Handler) Option {
	return func(c *Config) error {
		if handler != nil {
			c.handler = handler
		}
		return nil
	}
}

// WithDataProvider replaces the default context provider.
func WithDataProvider(provider data.Provider) Option {
	return func(c *Config) error {
		if provider != nil {
			c.dataProvider = provider
		}
		return nil
	}
}

// WithLoader sets the script loader
func WithLoader(l loader.Loader) Option {
	return func(c *Config) error {
		if l != nil {
			c.loader = l
		}
		return nil
	}
}

// WithStaticData adds values visible to every evaluation. Repeated calls merge, later
// keys winning.
func WithStaticData(d map[string]any) Option {
	return func(c *Config) error {
		if len(d) == 0 {
			return nil
		}
		if c.staticData == nil {
			c.staticData = make(map[string]any, len(d))
		}
		maps.Copy(c.staticData, d)
		return nil
	}
}

// WithVersionID sets the ID reported by GetScriptExeID.
func WithVersionID(id string) Option {
	return func(c *Config) error {
		if id == "" {
			return ErrEmptyVersion
		}
		c.versionID = id
		return nil
	}
}

// WithCompilerOptions appends compiler options, e.g. compiler.WithGlobals.
func WithCompilerOptions(opts ...compiler.FunctionalOption) Option {
	return func(c *Config) error {
		c.compilerOptions = append(c.compilerOptions, opts...)
		return nil
	}
}

// WithMachineOptions appends options applied to every machine the evaluator creates.
func WithMachineOptions(opts ...vm.Option) Option {
	return func(c *Config) error {
		c.machineOptions = append(c.machineOptions, opts...)
		return nil
	}
}

// Validate performs basic validation on the configuration
func (c *Config) Validate() error {
	if c.loader == nil {
		return ErrNoLoader
	}
	if c.dataProvider == nil {
		return ErrNoProvider
	}
	return nil
}

func (c *Config) GetHandler() slog.Handler {
	return c.handler
}

func (c *Config) GetDataProvider() data.Provider {
	return c.dataProvider
}

func (c *Config) GetLoader() loader.Loader {
	return c.loader
}

func (c *Config) GetStaticData() map[string]any {
	return c.staticData
}

// GetVersionID returns the configured ID, falling back to the loader's source URL.
func (c *Config) GetVersionID() string {
	if c.versionID != "" {
		return c.versionID
	}
	if c.loader == nil {
		return ""
	}
	if u := c.loader.GetSourceURL(); u != nil {
		return u.String()
	}
	return ""
}

func (c *Config) GetCompilerOptions() []compiler.FunctionalOption {
	return c.compilerOptions
}

func (c *Config) GetMachineOptions() []vm.Option {
	return c.machineOptions
}
