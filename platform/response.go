package platform

import (
	"github.com/robbyt/go-metajs/platform/data"
)

// EvaluatorResponse is the result of one script evaluation.
type EvaluatorResponse interface {
	// Type reports the kind of the completion value.
	Type() data.Types

	// Inspect renders the value the way the console would print it.
	Inspect() string

	// Interface returns the value converted to plain Go types: nil, bool, float64,
	// string, []any or map[string]any.
	Interface() any

	// GetScriptExeID returns the ID of the ExecutableUnit that produced the result.
	GetScriptExeID() string

	// GetExecTime returns how long the evaluation took.
	GetExecTime() string
}
