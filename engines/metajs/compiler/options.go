package compiler

import (
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/robbyt/go-metajs/engines/metajs/compiler/internal/compile"
	"github.com/robbyt/go-metajs/internal/helpers"
	"github.com/robbyt/go-metajs/platform/constants"
)

// FunctionalOption is a function that configures a Compiler instance
type FunctionalOption func(*Compiler) error

// WithGlobals sets the names the host defines before each evaluation. Scripts may
// read them even when no data is supplied; they start out undefined.
func WithGlobals(globals []string) FunctionalOption {
	return func(c *Compiler) error {
		c.globals = globals
		return nil
	}
}

// WithCtxGlobal is a convenience option adding constants.Ctx to the globals.
func WithCtxGlobal() FunctionalOption {
	return func(c *Compiler) error {
		if !slices.Contains(c.globals, constants.Ctx) {
			c.globals = append(c.globals, constants.Ctx)
		}
		return nil
	}
}

// WithLogHandler sets the log handler for the compiler.
func WithLogHandler(handler slog.Handler) FunctionalOption {
	return func(c *Compiler) error {
		if handler == nil {
			return fmt.Errorf("log handler cannot be nil")
		}
		c.logHandler = handler
		c.logger = nil
		return nil
	}
}

// WithLogger sets a specific logger, keeping whatever groups it already carries.
func WithLogger(logger *slog.Logger) FunctionalOption {
	return func(c *Compiler) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		c.logger = logger
		c.logHandler = nil
		return nil
	}
}

func (c *Compiler) setupLogger() {
	if c.logger != nil {
		c.logHandler = c.logger.Handler()
		return
	}
	c.logHandler, c.logger = helpers.SetupLogger(c.logHandler, "metajs", "Compiler")
}

func (c *Compiler) validate() error {
	if c.logHandler == nil && c.logger == nil {
		return fmt.Errorf("either log handler or logger must be specified")
	}
	seen := make(map[string]bool, len(c.globals))
	for _, g := range c.globals {
		if seen[g] {
			return fmt.Errorf("duplicate global name: %q", g)
		}
		seen[g] = true
	}
	return compile.ValidateGlobals(c.globals)
}

func (c *Compiler) applyDefaults() {
	if c.logHandler == nil && c.logger == nil {
		c.logHandler = slog.NewTextHandler(os.Stderr, nil)
	}
	if c.globals == nil {
		c.globals = []string{}
	}
}
