// Package platform defines the engine-neutral evaluation interfaces.
package platform

import (
	"context"

	"github.com/robbyt/go-metajs/platform/data"
)

// EvalOnly evaluates a pre-compiled script.
type EvalOnly interface {
	// Eval runs the script with the data its ExecutableUnit's provider finds in ctx.
	// Compilation happened when the evaluator was built, so Eval can be called
	// many times, concurrently, with different contexts.
	Eval(ctx context.Context) (EvaluatorResponse, error)
}

// Evaluator combines evaluation with data preparation, letting the two steps run in
// different places: AddDataToContext on the request path, Eval later.
type Evaluator interface {
	EvalOnly
	data.Setter
}
