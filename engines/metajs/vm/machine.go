// Package vm is a tree-walking interpreter for an ECMAScript-like language.
//
// Evaluation is written in continuation-passing style: every node handler receives a
// Continuation and schedules its children as tasks on a LIFO stack owned by the Machine.
// Each step is wrapped in a one-shot gate that an Interceptor may pause; the machine then
// waits until the step is resumed, possibly from another goroutine.
package vm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robbyt/go-metajs/engines/metajs/ast"
	"github.com/robbyt/go-metajs/internal/helpers"
)

var machineCount atomic.Int64

// Machine holds the global environment and the evaluation state of one interpreter.
// A Machine evaluates one program at a time; Run must not be called concurrently.
type Machine struct {
	name        string
	interceptor Interceptor
	parse       ParseFunc
	programText string
	strict      bool
	stdout      io.Writer
	globals     map[string]Value
	logHandler  slog.Handler
	logger      *slog.Logger

	global *Object
	root   *Scope
	intr   intrinsics

	tasks  []func()
	mu     sync.Mutex
	inbox  []func()
	wake   chan struct{}
	paused int
	gen    uint64 // bumped when a run is cancelled; written under mu
	ctx    context.Context
}

// New creates a Machine with the built-in global environment installed.
func New(opts ...Option) (*Machine, error) {
	m := &Machine{
		name: fmt.Sprintf("VM%d", machineCount.Add(1)),
		wake: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("error applying machine option: %w", err)
		}
	}
	m.applyDefaults()
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("invalid machine configuration: %w", err)
	}

	if m.logger != nil {
		m.logHandler = m.logger.Handler()
	} else {
		m.logHandler, m.logger = helpers.SetupLogger(m.logHandler, "metajs", "Machine")
	}
	m.logger = m.logger.With("machine", m.name)

	m.setupGlobals()
	for name, v := range m.globals {
		m.global.defineOwn(name, dataProperty(v))
	}
	return m, nil
}

func (m *Machine) String() string {
	return "metajs.Machine(" + m.name + ")"
}

// Name returns the machine name.
func (m *Machine) Name() string { return m.name }

// Global returns the global object.
func (m *Machine) Global() *Object { return m.global }

// GlobalScope returns the root of the scope chain.
func (m *Machine) GlobalScope() *Scope { return m.root }

// SetGlobal creates or replaces a global binding.
func (m *Machine) SetGlobal(name string, v Value) {
	m.global.defineOwn(name, dataProperty(orUndefined(v)))
}

// Run evaluates program in the global scope and returns its completion value.
// An exception that escapes the program is returned as a *ThrowError.
func (m *Machine) Run(ctx context.Context, program *ast.Program) (result Value, err error) {
	if program == nil {
		return nil, ErrNilProgram
	}
	text := program.Text
	if text == "" {
		text = m.programText
	}
	ast.AttachSource(program, text)

	logger := m.logger.WithGroup("run")
	start := time.Now()
	restore := m.enter(ctx)
	defer restore()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Machine panicked", "panic", r)
			err = fmt.Errorf("machine panic: %v", r)
		}
	}()

	c, err := m.runToCompletion(func(k Continuation) { m.evaluate(program, m.root, k) })
	if err != nil {
		logger.Warn("Evaluation did not complete", "error", err)
		return nil, err
	}
	logger.Debug("Evaluation completed", "completion", c.Kind.String(), "execTime", time.Since(start).String())
	return m.settle(c)
}

// RunString parses text with the configured parser and runs it.
func (m *Machine) RunString(ctx context.Context, text string) (Value, error) {
	if m.parse == nil {
		return nil, ErrNoParser
	}
	program, err := m.parse(text)
	if err != nil {
		return nil, err
	}
	return m.Run(ctx, program)
}

// Call invokes a callable value with the given receiver and arguments.
func (m *Machine) Call(ctx context.Context, fn Value, this Value, args ...Value) (result Value, err error) {
	obj, ok := fn.(*Object)
	if !ok || !obj.Callable() {
		return nil, fmt.Errorf("%w: %s is not a function", ErrType, TypeOf(fn))
	}
	restore := m.enter(ctx)
	defer restore()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("machine panic: %v", r)
		}
	}()
	c, err := m.runToCompletion(func(k Continuation) {
		m.apply(callSite{scope: m.root}, orUndefined(this), obj, args, k)
	})
	if err != nil {
		return nil, err
	}
	return m.settle(c)
}

func (m *Machine) enter(ctx context.Context) func() {
	prev := m.ctx
	m.ctx = ctx
	return func() { m.ctx = prev }
}

func (m *Machine) settle(c Completion) (Value, error) {
	switch c.Kind {
	case Normal, Return:
		return orUndefined(c.Value), nil
	case Throw:
		return nil, &ThrowError{Value: c.Value, cause: c.Err}
	case Fault:
		return nil, c.Err
	case Yield:
		return nil, fmt.Errorf("%w: yield outside of a generator", ErrUnsupported)
	default:
		return nil, fmt.Errorf("%w: %s outside of its enclosing statement", ErrSyntax, c.Kind)
	}
}
