// Package metajs wires the metajs compiler and evaluator to the platform loaders and
// data providers.
package metajs

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/robbyt/go-metajs/engines/metajs/compiler"
	"github.com/robbyt/go-metajs/engines/metajs/evaluator"
	"github.com/robbyt/go-metajs/engines/metajs/vm"
	"github.com/robbyt/go-metajs/platform/constants"
	"github.com/robbyt/go-metajs/platform/data"
	"github.com/robbyt/go-metajs/platform/script"
	"github.com/robbyt/go-metajs/platform/script/loader"
)

// ErrProviderNil is returned by NewEvaluator when no data provider is given.
var ErrProviderNil = errors.New("provider is nil")

// FromMetaJSLoader creates an evaluator that reads input data only from the context,
// as placed there by AddDataToContext.
func FromMetaJSLoader(
	logHandler slog.Handler,
	ldr loader.Loader,
	machineOpts ...vm.Option,
) (*evaluator.Evaluator, error) {
	return NewEvaluator(
		logHandler,
		ldr,
		data.NewContextProvider(constants.EvalData),
		machineOpts...,
	)
}

// FromMetaJSLoaderWithData creates an evaluator with both static and runtime data.
// staticData is visible to every evaluation; values added with AddDataToContext are
// merged over it.
func FromMetaJSLoaderWithData(
	logHandler slog.Handler,
	ldr loader.Loader,
	staticData map[string]any,
	machineOpts ...vm.Option,
) (*evaluator.Evaluator, error) {
	provider := data.NewCompositeProvider(
		data.NewStaticProvider(staticData),
		data.NewContextProvider(constants.EvalData),
	)
	return NewEvaluator(logHandler, ldr, provider, machineOpts...)
}

// NewCompiler creates a metajs compiler using the functional options pattern.
func NewCompiler(opts ...compiler.FunctionalOption) (*compiler.Compiler, error) {
	return compiler.New(opts...)
}

// NewEvaluator compiles the loader's script and returns an evaluator ready for Eval.
// The exec ID of the unit is the loader's source URL.
func NewEvaluator(
	logHandler slog.Handler,
	ldr loader.Loader,
	dataProvider data.Provider,
	machineOpts ...vm.Option,
) (*evaluator.Evaluator, error) {
	if dataProvider == nil {
		return nil, ErrProviderNil
	}
	if ldr == nil {
		return nil, script.ErrLoaderNil
	}

	c, err := NewCompiler(
		compiler.WithLogHandler(logHandler),
		compiler.WithCtxGlobal(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create metajs compiler: %w", err)
	}

	execUnitID := ""
	if sourceURL := ldr.GetSourceURL(); sourceURL != nil {
		execUnitID = sourceURL.String()
	}

	execUnit, err := script.NewExecutableUnit(logHandler, execUnitID, ldr, c, dataProvider, nil)
	if err != nil {
		return nil, err
	}

	return evaluator.New(logHandler, execUnit, machineOpts...), nil
}
