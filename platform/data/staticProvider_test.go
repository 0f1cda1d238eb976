package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticProvider(t *testing.T) {
	t.Parallel()

	t.Run("nil data reads as empty", func(t *testing.T) {
		t.Parallel()
		got, err := NewStaticProvider(nil).GetData(t.Context())
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("returns a copy", func(t *testing.T) {
		t.Parallel()
		p := NewStaticProvider(simpleData)
		got, err := p.GetData(t.Context())
		require.NoError(t, err)
		assert.Equal(t, simpleData, got)

		got["string"] = "changed"
		again, err := p.GetData(t.Context())
		require.NoError(t, err)
		assert.Equal(t, "value", again["string"])
	})

	t.Run("rejects runtime data", func(t *testing.T) {
		t.Parallel()
		p := NewStaticProvider(simpleData)
		ctx := t.Context()
		next, err := p.AddDataToContext(ctx, map[string]any{"k": "v"})
		require.ErrorIs(t, err, ErrStaticProviderNoRuntimeUpdates)
		assert.Equal(t, ctx, next)
	})

	t.Run("empty runtime data is accepted", func(t *testing.T) {
		t.Parallel()
		_, err := NewStaticProvider(nil).AddDataToContext(t.Context(), nil, map[string]any{})
		assert.NoError(t, err)
	})
}
