// Package evaluator runs compiled metajs programs for the platform.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robbyt/go-metajs/engines/metajs/ast"
	"github.com/robbyt/go-metajs/engines/metajs/internal"
	"github.com/robbyt/go-metajs/engines/metajs/parser"
	"github.com/robbyt/go-metajs/engines/metajs/vm"
	"github.com/robbyt/go-metajs/internal/helpers"
	"github.com/robbyt/go-metajs/platform"
	"github.com/robbyt/go-metajs/platform/constants"
	"github.com/robbyt/go-metajs/platform/data"
	"github.com/robbyt/go-metajs/platform/script"
)

var (
	ErrExecUnitNil   = errors.New("executable unit is nil")
	ErrContentNil    = errors.New("content is nil")
	ErrProgramNil    = errors.New("program is nil")
	ErrEmptyExeID    = errors.New("exeID is empty")
	ErrWrongProgram  = errors.New("content is not a metajs program")
	ErrScriptError   = errors.New("error returned from script")
	ErrScriptFuncRet = errors.New("function object returned from script")
)

// globalsLister is implemented by content compiled with host global names.
type globalsLister interface {
	GetGlobals() []string
}

// Evaluator runs an ExecutableUnit on a fresh vm.Machine per Eval, so concurrent
// evaluations share only the read-only program.
type Evaluator struct {
	// ctxKey is the global name scripts read input data from.
	ctxKey string

	execUnit *script.ExecutableUnit

	// machineOpts are appended to the defaults for every machine, e.g. vm.WithStdout.
	machineOpts []vm.Option

	logHandler slog.Handler
	logger     *slog.Logger
}

// New creates an Evaluator. machineOpts customize each machine; they are applied after
// the evaluator's own parser, program text and log handler options.
func New(handler slog.Handler, execUnit *script.ExecutableUnit, machineOpts ...vm.Option) *Evaluator {
	handler, logger := helpers.SetupLogger(handler, "metajs", "Evaluator")
	return &Evaluator{
		ctxKey:      constants.Ctx,
		execUnit:    execUnit,
		machineOpts: machineOpts,
		logHandler:  handler,
		logger:      logger,
	}
}

func (be *Evaluator) String() string {
	return "metajs.Evaluator"
}

func (be *Evaluator) loadInputData(ctx context.Context) (map[string]any, error) {
	logger := be.logger.WithGroup("loadInputData")

	if be.execUnit == nil || be.execUnit.GetDataProvider() == nil {
		logger.WarnContext(ctx, "no data provider available, using empty data")
		return make(map[string]any), nil
	}

	inputData, err := be.execUnit.GetDataProvider().GetData(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to get input data from provider", "error", err)
		return nil, err
	}
	logger.DebugContext(ctx, "input data loaded from provider", "keys", len(inputData))
	return inputData, nil
}

// newMachine builds a machine with the host globals defined and ctx bound to inputData.
func (be *Evaluator) newMachine(
	content script.ExecutableContent,
	inputData map[string]any,
) (*vm.Machine, error) {
	opts := append([]vm.Option{
		vm.WithParser(parser.Parse),
		vm.WithProgramText(content.GetSource()),
		vm.WithLogHandler(be.logHandler),
	}, be.machineOpts...)

	m, err := vm.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create machine: %w", err)
	}

	if gl, ok := content.(globalsLister); ok {
		for _, name := range gl.GetGlobals() {
			m.SetGlobal(name, vm.Undefined)
		}
	}

	globals, err := internal.ConvertToMetaJSGlobals(m, be.ctxKey, inputData)
	if err != nil {
		return nil, err
	}
	for name, v := range globals {
		m.SetGlobal(name, v)
	}
	return m, nil
}

func (be *Evaluator) exec(ctx context.Context, m *vm.Machine, program *ast.Program) (*execResult, error) {
	startTime := time.Now()
	result, err := m.Run(ctx, program)
	execTime := time.Since(startTime)

	if err != nil {
		return nil, fmt.Errorf("metajs execution error: %w", err)
	}
	return newEvalResult(be.logHandler, result, execTime, ""), nil
}

// Eval runs the compiled program with the input data found in ctx. Cancelling ctx
// stops an evaluation that is paused by an interceptor. A script that completes with
// an Error object or a function returns both the result and an error.
func (be *Evaluator) Eval(ctx context.Context) (platform.EvaluatorResponse, error) {
	logger := be.logger.WithGroup("Eval")
	if be.execUnit == nil {
		return nil, ErrExecUnitNil
	}

	content := be.execUnit.GetContent()
	if content == nil {
		return nil, ErrContentNil
	}

	compiled := content.GetProgram()
	if compiled == nil {
		return nil, ErrProgramNil
	}

	exeID := be.execUnit.GetID()
	if exeID == "" {
		return nil, ErrEmptyExeID
	}
	logger = logger.With("exeID", exeID)

	// 1. Type assert the compiled form into *ast.Program
	program, ok := compiled.(*ast.Program)
	if !ok {
		return nil, fmt.Errorf("%w: got %T for ID: %s", ErrWrongProgram, compiled, exeID)
	}

	// 2. Get the raw input data
	inputData, err := be.loadInputData(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get input data: %w", err)
	}

	// 3. Build a machine with ctx bound
	m, err := be.newMachine(content, inputData)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare machine: %w", err)
	}

	// 4. Execute the program
	result, err := be.exec(ctx, m, program)
	if err != nil {
		logger.DebugContext(ctx, "exec failed", "error", err)
		return nil, fmt.Errorf("exec error: %w", err)
	}
	logger.DebugContext(ctx, "exec complete", "result", result)

	// 5. Collect results
	result.scriptExeID = exeID

	switch result.Type() {
	case data.ERROR:
		return result, fmt.Errorf("%w: %s", ErrScriptError, result.Inspect())
	case data.FUNCTION:
		return result, fmt.Errorf("%w: %s", ErrScriptFuncRet, result.Inspect())
	}
	return result, nil
}

// AddDataToContext stores d through the unit's data provider for a later Eval.
func (be *Evaluator) AddDataToContext(
	ctx context.Context,
	d ...map[string]any,
) (context.Context, error) {
	logger := be.logger.WithGroup("AddDataToContext")
	if be.execUnit == nil {
		return ctx, data.ErrNoProvider
	}
	return data.PrepareContext(ctx, logger, be.execUnit.GetDataProvider(), d...)
}
