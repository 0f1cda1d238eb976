package data

import (
	"context"
	"errors"
	"maps"
)

// ErrStaticProviderNoRuntimeUpdates is returned when runtime data is offered to a StaticProvider.
var ErrStaticProviderNoRuntimeUpdates = errors.New("static provider does not accept runtime data")

// StaticProvider serves a fixed map, set once at construction. Typical use is
// configuration values that every evaluation of a script should see.
type StaticProvider struct {
	data map[string]any
}

// NewStaticProvider creates a provider that always returns a copy of data.
func NewStaticProvider(data map[string]any) *StaticProvider {
	if data == nil {
		data = make(map[string]any)
	}
	return &StaticProvider{data: maps.Clone(data)}
}

// GetData returns a shallow copy of the static data.
func (p *StaticProvider) GetData(_ context.Context) (map[string]any, error) {
	return maps.Clone(p.data), nil
}

// AddDataToContext rejects runtime data. Calling it with no data is a no-op.
func (p *StaticProvider) AddDataToContext(
	ctx context.Context,
	data ...map[string]any,
) (context.Context, error) {
	for _, d := range data {
		if len(d) > 0 {
			return ctx, ErrStaticProviderNoRuntimeUpdates
		}
	}
	return ctx, nil
}
