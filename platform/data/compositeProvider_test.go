package data

import (
	"errors"
	"testing"

	"github.com/robbyt/go-metajs/platform/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCompositeProvider_GetData(t *testing.T) {
	t.Parallel()

	t.Run("static then context", func(t *testing.T) {
		t.Parallel()
		static := NewStaticProvider(map[string]any{
			"config": map[string]any{"mode": "prod", "debug": false},
		})
		dynamic := NewContextProvider(constants.EvalData)
		ctx, err := dynamic.AddDataToContext(t.Context(), map[string]any{
			"config": map[string]any{"debug": true},
			"user":   "ada",
		})
		require.NoError(t, err)

		got, err := NewCompositeProvider(static, nil, dynamic).GetData(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"config": map[string]any{"mode": "prod", "debug": true},
			"user":   "ada",
		}, got)
	})

	t.Run("provider error aborts", func(t *testing.T) {
		t.Parallel()
		failing := &MockProvider{}
		failing.On("GetData", mock.Anything).Return(nil, errors.New("boom"))

		_, err := NewCompositeProvider(NewStaticProvider(simpleData), failing).GetData(t.Context())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error from provider 1")
		failing.AssertExpectations(t)
	})
}

func TestCompositeProvider_AddDataToContext(t *testing.T) {
	t.Parallel()

	input := map[string]any{"k": "v"}

	t.Run("static providers are skipped", func(t *testing.T) {
		t.Parallel()
		dynamic := NewContextProvider(constants.EvalData)
		composite := NewCompositeProvider(NewStaticProvider(simpleData), dynamic)
		ctx, err := composite.AddDataToContext(t.Context(), input)
		require.NoError(t, err)

		got, err := composite.GetData(ctx)
		require.NoError(t, err)
		assert.Equal(t, "v", got["k"])
		assert.Equal(t, 42, got["int"])
	})

	t.Run("only static providers", func(t *testing.T) {
		t.Parallel()
		composite := NewCompositeProvider(NewStaticProvider(simpleData))
		_, err := composite.AddDataToContext(t.Context(), input)
		require.ErrorIs(t, err, ErrStaticProviderNoRuntimeUpdates)
	})

	t.Run("partial failure keeps going", func(t *testing.T) {
		t.Parallel()
		failing := &MockProvider{}
		failing.On("AddDataToContext", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))
		dynamic := NewContextProvider(constants.EvalData)

		ctx, err := NewCompositeProvider(failing, dynamic).AddDataToContext(t.Context(), input)
		require.NoError(t, err)
		got, err := dynamic.GetData(ctx)
		require.NoError(t, err)
		assert.Equal(t, "v", got["k"])
		failing.AssertExpectations(t)
	})

	t.Run("all failures", func(t *testing.T) {
		t.Parallel()
		failing := &MockProvider{}
		failing.On("AddDataToContext", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

		base := t.Context()
		ctx, err := NewCompositeProvider(failing).AddDataToContext(base, input)
		require.Error(t, err)
		assert.Equal(t, base, ctx)
	})
}

func TestPrepareContext(t *testing.T) {
	t.Parallel()

	t.Run("nil provider", func(t *testing.T) {
		t.Parallel()
		_, err := PrepareContext(t.Context(), nil, nil, simpleData)
		require.ErrorIs(t, err, ErrNoProvider)
	})

	t.Run("provider failure is wrapped", func(t *testing.T) {
		t.Parallel()
		_, err := PrepareContext(t.Context(), nil, NewStaticProvider(nil), simpleData)
		require.ErrorIs(t, err, ErrStaticProviderNoRuntimeUpdates)
		assert.Contains(t, err.Error(), "failed to prepare context")
	})

	t.Run("stores data", func(t *testing.T) {
		t.Parallel()
		p := NewContextProvider(constants.EvalData)
		ctx, err := PrepareContext(t.Context(), nil, p, simpleData)
		require.NoError(t, err)
		assert.Equal(t, simpleData, ctx.Value(constants.EvalData))
	})
}

func TestDeepMerge(t *testing.T) {
	t.Parallel()

	base := map[string]any{"a": map[string]any{"x": 1}, "b": 1}
	got := deepMerge(base, map[string]any{"a": map[string]any{"y": 2}, "b": []int{1}})
	assert.Equal(t, map[string]any{"a": map[string]any{"x": 1, "y": 2}, "b": []int{1}}, got)
	assert.Equal(t, map[string]any{"x": 1}, base["a"], "base is not mutated")
}
