package data

import (
	"context"
	"errors"
	"fmt"
)

// CompositeProvider chains providers; later providers override earlier ones.
type CompositeProvider struct {
	providers []Provider
}

// NewCompositeProvider creates a provider that consults providers in order. A common
// combination is static configuration followed by per-request context data:
//
//	NewCompositeProvider(NewStaticProvider(cfg), NewContextProvider(constants.EvalData))
func NewCompositeProvider(providers ...Provider) *CompositeProvider {
	return &CompositeProvider{providers: providers}
}

// GetData deep-merges the data of every provider. The first provider error aborts.
func (p *CompositeProvider) GetData(ctx context.Context) (map[string]any, error) {
	result := make(map[string]any)
	for i, provider := range p.providers {
		if provider == nil {
			continue
		}
		d, err := provider.GetData(ctx)
		if err != nil {
			return nil, fmt.Errorf("error from provider %d: %w", i, err)
		}
		result = deepMerge(result, d)
	}
	return result, nil
}

// AddDataToContext offers data to every provider. Static providers refusing runtime data
// are skipped unless nothing else is in the chain. It fails only when every provider that
// accepts runtime data failed.
func (p *CompositeProvider) AddDataToContext(
	ctx context.Context,
	data ...map[string]any,
) (context.Context, error) {
	out := ctx
	var errs, refused []error
	accepting, succeeded := 0, 0

	for i, provider := range p.providers {
		if provider == nil {
			continue
		}
		next, err := provider.AddDataToContext(out, data...)
		switch {
		case errors.Is(err, ErrStaticProviderNoRuntimeUpdates):
			refused = append(refused, fmt.Errorf("error from provider %d: %w", i, err))
		case err != nil:
			accepting++
			errs = append(errs, fmt.Errorf("error from provider %d: %w", i, err))
		default:
			if _, static := provider.(*StaticProvider); !static {
				accepting++
			}
			out = next
			succeeded++
		}
	}

	if accepting == 0 && len(refused) > 0 {
		return ctx, errors.Join(refused...)
	}
	if accepting > 0 && succeeded == 0 {
		return ctx, errors.Join(errs...)
	}
	return out, nil
}
