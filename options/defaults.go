package options

import (
	"log/slog"
	"os"

	"github.com/robbyt/go-metajs/platform/constants"
	"github.com/robbyt/go-metajs/platform/data"
)

// DefaultHandler returns the default logging handler
func DefaultHandler() slog.Handler {
	return slog.NewTextHandler(os.Stderr, nil)
}

// DefaultDataProvider reads runtime data from the context under constants.EvalData.
func DefaultDataProvider() data.Provider {
	return data.NewContextProvider(constants.EvalData)
}

// WithDefaults applies default values to any config properties that are nil
func WithDefaults() Option {
	return func(c *Config) error {
		if c.handler == nil {
			c.handler = DefaultHandler()
		}
		if c.dataProvider == nil {
			c.dataProvider = DefaultDataProvider()
		}
		return nil
	}
}
