// Package compiler turns metajs source into executable content for the platform.
package compiler

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/robbyt/go-metajs/engines/metajs/compiler/internal/compile"
	"github.com/robbyt/go-metajs/platform/script"
)

type Compiler struct {
	globals    []string
	logHandler slog.Handler
	logger     *slog.Logger
}

// New creates a Compiler. Globals are the names the evaluator will define before
// running the script, normally just ctx.
func New(opts ...FunctionalOption) (*Compiler, error) {
	c := &Compiler{}
	c.applyDefaults()

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("error applying compiler option: %w", err)
		}
	}

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid compiler configuration: %w", err)
	}

	c.setupLogger()
	return c, nil
}

func (c *Compiler) String() string {
	return "metajs.Compiler"
}

// Compile reads the script, closes the reader and parses the text.
func (c *Compiler) Compile(scriptReader io.ReadCloser) (script.ExecutableContent, error) {
	if scriptReader == nil {
		return nil, ErrContentNil
	}

	body, err := io.ReadAll(scriptReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	if err := scriptReader.Close(); err != nil {
		return nil, fmt.Errorf("failed to close reader: %w", err)
	}

	return c.compile(string(body))
}

func (c *Compiler) compile(source string) (*Executable, error) {
	logger := c.logger.WithGroup("compile")
	if source == "" {
		return nil, ErrContentNil
	}
	if strings.TrimSpace(source) == "" {
		logger.Warn("Empty script content")
		return nil, ErrNoInstructions
	}

	logger.Debug("Starting validation", "bytes", len(source), "globals", c.globals)

	prog, err := compile.CompileWithGlobals(&source, c.globals)
	if err != nil {
		logger.Warn("Compilation failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	if prog == nil {
		logger.Error("Compilation returned nil program")
		return nil, ErrProgramNil
	}

	logger.Debug("Compilation successful", "statements", len(prog.Body))
	if len(prog.Body) == 0 {
		logger.Warn("Script contains only comments")
		return nil, ErrNoInstructions
	}

	exe := newExecutable(source, prog, c.globals)
	if exe == nil {
		return nil, ErrExecCreationFailed
	}
	return exe, nil
}
