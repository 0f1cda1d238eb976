// Package constants holds keys shared by the data providers and the evaluator.
package constants

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// EvalData is the context key under which a ContextProvider stores per-request data.
	EvalData ContextKey = "eval_data"

	// Ctx is the name of the global binding that exposes input data to scripts.
	Ctx = "ctx"
)
