// Package data supplies the input data a script sees through its ctx global.
package data

import (
	"context"
)

// Getter retrieves the data a script will be evaluated with.
type Getter interface {
	GetData(ctx context.Context) (map[string]any, error)
}

// Setter prepares data for script evaluation by enriching a context.
type Setter interface {
	// AddDataToContext returns a context carrying the merged maps. Later maps override
	// earlier ones for duplicate keys; nested maps are merged key by key.
	//
	// Example:
	//
	//	enrichedCtx, err := evaluator.AddDataToContext(ctx, map[string]any{"request": req})
	//	if err != nil {
	//	    return err
	//	}
	//	result, err := evaluator.Eval(enrichedCtx)
	AddDataToContext(ctx context.Context, data ...map[string]any) (context.Context, error)
}

// Provider is both a Getter and a Setter.
type Provider interface {
	Getter
	Setter
}
