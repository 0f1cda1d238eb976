package data

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNoProvider is returned when an evaluator has no data provider to store data with.
var ErrNoProvider = errors.New("no data provider available")

// PrepareContext stores d through provider and returns the enriched context. Engines
// share it so AddDataToContext behaves the same everywhere.
func PrepareContext(
	ctx context.Context,
	logger *slog.Logger,
	provider Provider,
	d ...map[string]any,
) (context.Context, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if provider == nil {
		logger.WarnContext(ctx, "no data provider available for context preparation")
		return ctx, ErrNoProvider
	}

	enriched, err := provider.AddDataToContext(ctx, d...)
	if err != nil {
		logger.DebugContext(ctx, "failed to prepare context", "error", err)
		return ctx, fmt.Errorf("failed to prepare context: %w", err)
	}
	return enriched, nil
}
