// Package metajs embeds a small ECMAScript interpreter in Go programs. Scripts are
// compiled once and evaluated many times, concurrently, with input data exposed to the
// script as the global ctx object.
package metajs

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/robbyt/go-metajs/engines/metajs/compiler"
	"github.com/robbyt/go-metajs/engines/metajs/evaluator"
	"github.com/robbyt/go-metajs/options"
	"github.com/robbyt/go-metajs/platform"
	"github.com/robbyt/go-metajs/platform/script"
	"github.com/robbyt/go-metajs/platform/script/loader"
)

// NewEvaluator builds an evaluator from options. A loader must be given with
// options.WithLoader.
func NewEvaluator(opts ...options.Option) (platform.Evaluator, error) {
	cfg, err := options.Apply(opts...)
	if err != nil {
		return nil, err
	}
	return createEvaluator(cfg)
}

func createEvaluator(cfg *options.Config) (platform.Evaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	compilerOpts := append([]compiler.FunctionalOption{
		compiler.WithLogHandler(cfg.GetHandler()),
		compiler.WithCtxGlobal(),
	}, cfg.GetCompilerOptions()...)
	c, err := compiler.New(compilerOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create compiler: %w", err)
	}

	execUnit, err := script.NewExecutableUnit(
		cfg.GetHandler(),
		cfg.GetVersionID(),
		cfg.GetLoader(),
		c,
		cfg.GetDataProvider(),
		cfg.GetStaticData(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create executable unit: %w", err)
	}

	return evaluator.New(cfg.GetHandler(), execUnit, cfg.GetMachineOptions()...), nil
}

// FromString compiles script source held in memory.
func FromString(content string, opts ...options.Option) (platform.Evaluator, error) {
	l, err := loader.NewFromString(content)
	if err != nil {
		return nil, fmt.Errorf("failed to create string loader: %w", err)
	}
	return NewEvaluator(append(slices.Clip(opts), options.WithLoader(l))...)
}

// FromFile compiles a script file; relative paths are resolved against the working
// directory.
func FromFile(path string, opts ...options.Option) (platform.Evaluator, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	l, err := loader.NewFromDisk(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to create disk loader: %w", err)
	}
	return NewEvaluator(append(slices.Clip(opts), options.WithLoader(l))...)
}

// FromStringWithData compiles content with staticData visible to every evaluation.
// Runtime data added with AddDataToContext is merged over it.
func FromStringWithData(
	content string,
	staticData map[string]any,
	opts ...options.Option,
) (platform.Evaluator, error) {
	return FromString(content, append(slices.Clip(opts), options.WithStaticData(staticData))...)
}

// Eval compiles content, evaluates it once with input as ctx and returns the result.
// Use FromString to keep the compiled script for repeated evaluations.
func Eval(
	ctx context.Context,
	content string,
	input map[string]any,
	opts ...options.Option,
) (platform.EvaluatorResponse, error) {
	e, err := FromString(content, opts...)
	if err != nil {
		return nil, err
	}
	if len(input) > 0 {
		ctx, err = e.AddDataToContext(ctx, input)
		if err != nil {
			return nil, err
		}
	}
	return e.Eval(ctx)
}
