package vm

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/robbyt/go-metajs/engines/metajs/ast"
)

// ParseFunc turns program text into a syntax tree. It backs eval and RunString.
type ParseFunc func(text string) (*ast.Program, error)

// Option configures a Machine.
type Option func(*Machine) error

// WithInterceptor installs a hook that observes every evaluation step.
func WithInterceptor(i Interceptor) Option {
	return func(m *Machine) error {
		m.interceptor = i
		return nil
	}
}

// WithName sets the machine name used in logs.
func WithName(name string) Option {
	return func(m *Machine) error {
		if name == "" {
			return fmt.Errorf("machine name cannot be empty")
		}
		m.name = name
		return nil
	}
}

// WithProgramText sets the source text used to recover function source for programs
// that were built without it.
func WithProgramText(text string) Option {
	return func(m *Machine) error {
		m.programText = text
		return nil
	}
}

// WithParser sets the parser used by eval and RunString.
func WithParser(parse ParseFunc) Option {
	return func(m *Machine) error {
		if parse == nil {
			return fmt.Errorf("parser cannot be nil")
		}
		m.parse = parse
		return nil
	}
}

// WithGlobals predefines global bindings.
func WithGlobals(globals map[string]Value) Option {
	return func(m *Machine) error {
		if m.globals == nil {
			m.globals = map[string]Value{}
		}
		for k, v := range globals {
			m.globals[k] = v
		}
		return nil
	}
}

// WithStrictAssignment makes assignment to an undeclared name a ReferenceError instead of
// creating a global.
func WithStrictAssignment(strict bool) Option {
	return func(m *Machine) error {
		m.strict = strict
		return nil
	}
}

// WithStdout sets the writer console output goes to.
func WithStdout(w io.Writer) Option {
	return func(m *Machine) error {
		if w == nil {
			return fmt.Errorf("stdout writer cannot be nil")
		}
		m.stdout = w
		return nil
	}
}

// WithLogHandler sets the slog handler for machine logs.
func WithLogHandler(handler slog.Handler) Option {
	return func(m *Machine) error {
		if handler == nil {
			return fmt.Errorf("log handler cannot be nil")
		}
		m.logHandler = handler
		m.logger = nil
		return nil
	}
}

// WithLogger sets the machine logger directly.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		m.logger = logger
		m.logHandler = nil
		return nil
	}
}

func (m *Machine) applyDefaults() {
	if m.logHandler == nil && m.logger == nil {
		m.logHandler = slog.NewTextHandler(os.Stderr, nil)
	}
	if m.stdout == nil {
		m.stdout = os.Stdout
	}
}

func (m *Machine) validate() error {
	if m.logHandler == nil && m.logger == nil {
		return fmt.Errorf("either log handler or logger must be specified")
	}
	return nil
}
