package script

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/robbyt/go-metajs/engines/types"
	"github.com/robbyt/go-metajs/platform/constants"
	"github.com/robbyt/go-metajs/platform/data"
	"github.com/robbyt/go-metajs/platform/script/loader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var discard = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})

func stringLoader(t *testing.T, src string) loader.Loader {
	t.Helper()
	l, err := loader.NewFromString(src)
	require.NoError(t, err)
	return l
}

func TestNewExecutableUnit(t *testing.T) {
	t.Parallel()

	t.Run("checksum id", func(t *testing.T) {
		t.Parallel()
		exe, err := NewExecutableUnit(discard, "", stringLoader(t, "1 + 1"), readingCompiler{}, nil, nil)
		require.NoError(t, err)
		assert.Len(t, exe.GetID(), checksumLength)
		assert.Equal(t, "1 + 1", exe.GetContent().GetSource())
		assert.Equal(t, types.MetaJS, exe.GetMachineType())
		assert.NotZero(t, exe.GetCreatedAt())
		assert.NotNil(t, exe.GetLoader())
		assert.NotNil(t, exe.GetCompiler())
		assert.Contains(t, exe.String(), exe.GetID())
	})

	t.Run("explicit id", func(t *testing.T) {
		t.Parallel()
		exe, err := NewExecutableUnit(discard, "v1", stringLoader(t, "1"), readingCompiler{}, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "v1", exe.GetID())
	})

	t.Run("nil compiler", func(t *testing.T) {
		t.Parallel()
		_, err := NewExecutableUnit(discard, "", stringLoader(t, "1"), nil, nil, nil)
		require.ErrorIs(t, err, ErrCompilerNil)
	})

	t.Run("nil loader", func(t *testing.T) {
		t.Parallel()
		_, err := NewExecutableUnit(discard, "", nil, readingCompiler{}, nil, nil)
		require.ErrorIs(t, err, ErrLoaderNil)
	})

	t.Run("compile failure", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("unexpected token")
		c := &mockCompiler{}
		c.On("Compile", mock.Anything).Return(nil, boom)
		_, err := NewExecutableUnit(discard, "", stringLoader(t, "1"), c, nil, nil)
		require.ErrorIs(t, err, ErrCompiler)
		require.ErrorIs(t, err, boom)
		c.AssertExpectations(t)
	})

	t.Run("loader failure", func(t *testing.T) {
		t.Parallel()
		l, err := loader.NewFromDisk(filepath.Join(t.TempDir(), "missing.js"))
		require.NoError(t, err)
		_, err = NewExecutableUnit(discard, "", l, readingCompiler{}, nil, nil)
		require.ErrorIs(t, err, loader.ErrScriptNotAvailable)
	})
}

func TestExecutableUnitProviders(t *testing.T) {
	t.Parallel()

	static := map[string]any{"env": "prod", "limit": 10}
	runtime := data.NewContextProvider(constants.EvalData)

	tests := []struct {
		name    string
		static  map[string]any
		runtime data.Provider
		check   func(t *testing.T, p data.Provider)
	}{
		{
			name:    "runtime only",
			runtime: runtime,
			check: func(t *testing.T, p data.Provider) {
				assert.Same(t, runtime, p)
			},
		},
		{
			name:   "static only",
			static: static,
			check: func(t *testing.T, p data.Provider) {
				assert.IsType(t, &data.StaticProvider{}, p)
			},
		},
		{
			name: "neither",
			check: func(t *testing.T, p data.Provider) {
				got, err := p.GetData(t.Context())
				require.NoError(t, err)
				assert.Empty(t, got)
			},
		},
		{
			name:    "both",
			static:  static,
			runtime: runtime,
			check: func(t *testing.T, p data.Provider) {
				ctx, err := p.AddDataToContext(t.Context(), map[string]any{"limit": 20})
				require.NoError(t, err)
				got, err := p.GetData(ctx)
				require.NoError(t, err)
				assert.Equal(t, map[string]any{"env": "prod", "limit": 20}, got)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			exe, err := NewExecutableUnit(discard, "", stringLoader(t, "ctx"), readingCompiler{}, tt.runtime, tt.static)
			require.NoError(t, err)
			tt.check(t, exe.GetDataProvider())
		})
	}
}

func TestExecutableUnitReload(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "main.js")
	require.NoError(t, os.WriteFile(path, []byte("1"), 0o600))
	l, err := loader.NewFromDisk(path)
	require.NoError(t, err)

	exe, err := NewExecutableUnit(discard, "", l, readingCompiler{}, nil, nil)
	require.NoError(t, err)

	require.ErrorIs(t, exe.Reload(), ErrOldContent)

	require.NoError(t, os.WriteFile(path, []byte("2"), 0o600))
	require.NoError(t, exe.Reload())
	assert.Equal(t, "2", exe.GetContent().GetSource())

	require.NoError(t, os.Remove(path))
	require.ErrorIs(t, exe.Reload(), loader.ErrScriptNotAvailable)
	assert.Equal(t, "2", exe.GetContent().GetSource(), "failed reload keeps content")
}
