package data

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/robbyt/go-metajs/internal/helpers"
	"github.com/robbyt/go-metajs/platform/constants"
)

// ErrEmptyContextKey is returned by a ContextProvider built with an empty key.
var ErrEmptyContextKey = errors.New("context key is empty")

// ContextProvider stores and retrieves per-request data on a context.Context.
type ContextProvider struct {
	contextKey constants.ContextKey
}

// NewContextProvider creates a ContextProvider using contextKey, normally constants.EvalData.
func NewContextProvider(contextKey constants.ContextKey) *ContextProvider {
	return &ContextProvider{contextKey: contextKey}
}

// GetData returns the map stored under the provider's key, or an empty map.
func (p *ContextProvider) GetData(ctx context.Context) (map[string]any, error) {
	if p.contextKey == "" {
		return nil, ErrEmptyContextKey
	}

	value := ctx.Value(p.contextKey)
	if value == nil {
		return make(map[string]any), nil
	}

	d, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid input data type: expected map[string]any, got %T", value)
	}
	return d, nil
}

// AddDataToContext merges data into whatever the context already holds under the key.
// HTTP requests anywhere in the input are flattened to maps so scripts can read them.
// Entries that fail to convert are skipped and reported together; the rest are stored.
func (p *ContextProvider) AddDataToContext(
	ctx context.Context,
	data ...map[string]any,
) (context.Context, error) {
	if p.contextKey == "" {
		return ctx, ErrEmptyContextKey
	}

	stored, _ := ctx.Value(p.contextKey).(map[string]any)

	var errz []error
	incoming := make(map[string]any)
	for _, d := range data {
		for key, value := range d {
			if key == "" {
				errz = append(errz, errors.New("empty keys are not allowed"))
				continue
			}
			normalized, err := normalize(value)
			if err != nil {
				errz = append(errz, fmt.Errorf("processing value for key '%s': %w", key, err))
				continue
			}
			incoming = deepMerge(incoming, map[string]any{key: normalized})
		}
	}

	return context.WithValue(ctx, p.contextKey, deepMerge(stored, incoming)), errors.Join(errz...)
}

func normalize(value any) (any, error) {
	switch v := value.(type) {
	case *http.Request:
		if v == nil {
			return nil, nil
		}
		return helpers.RequestToMap(v)
	case http.Request:
		return helpers.RequestToMap(&v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, inner := range v {
			if k == "" {
				return nil, errors.New("empty keys are not allowed in nested maps")
			}
			n, err := normalize(inner)
			if err != nil {
				return nil, fmt.Errorf("processing nested value for key '%s': %w", k, err)
			}
			out[k] = n
		}
		return out, nil
	default:
		return v, nil
	}
}
