package metajs

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/robbyt/go-metajs/engines/metajs/vm"
	"github.com/robbyt/go-metajs/platform/constants"
	"github.com/robbyt/go-metajs/platform/data"
	"github.com/robbyt/go-metajs/platform/script"
	"github.com/robbyt/go-metajs/platform/script/loader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = slog.NewTextHandler(io.Discard, nil)

const greet = `
const name = ctx.name ?? "world";
const count = ctx.count ?? 0;
({ greeting: "Hello, " + name + "!", count: count + 1 });
`

func TestFromMetaJSLoader(t *testing.T) {
	t.Parallel()

	l, err := loader.NewFromString(greet)
	require.NoError(t, err)
	e, err := FromMetaJSLoader(quiet, l)
	require.NoError(t, err)

	ctx, err := e.AddDataToContext(t.Context(), map[string]any{"name": "Ada"})
	require.NoError(t, err)

	resp, err := e.Eval(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"greeting": "Hello, Ada!", "count": float64(1)}, resp.Interface())
	assert.Equal(t, l.GetSourceURL().String(), resp.GetScriptExeID())

	// Without data the defaults apply.
	resp, err = e.Eval(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "Hello, world!", resp.Interface().(map[string]any)["greeting"])
}

func TestFromMetaJSLoaderWithData(t *testing.T) {
	t.Parallel()

	l, err := loader.NewFromString(greet)
	require.NoError(t, err)
	e, err := FromMetaJSLoaderWithData(quiet, l, map[string]any{"name": "static", "count": 41})
	require.NoError(t, err)

	resp, err := e.Eval(t.Context())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"greeting": "Hello, static!", "count": float64(42)}, resp.Interface())

	ctx, err := e.AddDataToContext(t.Context(), map[string]any{"name": "runtime"})
	require.NoError(t, err)
	resp, err = e.Eval(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"greeting": "Hello, runtime!", "count": float64(42)}, resp.Interface())
}

func TestFromDiskLoader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sum.js")
	require.NoError(t, os.WriteFile(path, []byte("[1, 2, 3].reduce((a, b) => a + b, 0)"), 0o600))

	l, err := loader.NewFromDisk(path)
	require.NoError(t, err)
	e, err := FromMetaJSLoader(quiet, l)
	require.NoError(t, err)

	resp, err := e.Eval(t.Context())
	require.NoError(t, err)
	assert.Equal(t, float64(6), resp.Interface())
	assert.Equal(t, "file://"+path, resp.GetScriptExeID())
}

func TestNewEvaluator(t *testing.T) {
	t.Parallel()

	t.Run("nil provider", func(t *testing.T) {
		t.Parallel()
		l, err := loader.NewFromString("1")
		require.NoError(t, err)
		_, err = NewEvaluator(quiet, l, nil)
		require.ErrorIs(t, err, ErrProviderNil)
	})

	t.Run("nil loader", func(t *testing.T) {
		t.Parallel()
		_, err := NewEvaluator(quiet, nil, data.NewContextProvider(constants.EvalData))
		require.ErrorIs(t, err, script.ErrLoaderNil)
	})

	t.Run("syntax error", func(t *testing.T) {
		t.Parallel()
		l, err := loader.NewFromString("var = ;")
		require.NoError(t, err)
		_, err = NewEvaluator(quiet, l, data.NewContextProvider(constants.EvalData))
		require.Error(t, err)
	})

	t.Run("machine options", func(t *testing.T) {
		t.Parallel()
		l, err := loader.NewFromString(`console.log("hi", ctx.n); ctx.n * 2`)
		require.NoError(t, err)
		var out bytes.Buffer
		e, err := NewEvaluator(quiet, l, data.NewContextProvider(constants.EvalData), vm.WithStdout(&out))
		require.NoError(t, err)

		ctx, err := e.AddDataToContext(context.Background(), map[string]any{"n": 21})
		require.NoError(t, err)
		resp, err := e.Eval(ctx)
		require.NoError(t, err)
		assert.Equal(t, float64(42), resp.Interface())
		assert.Equal(t, "hi 21\n", out.String())
	})
}

func TestNewCompiler(t *testing.T) {
	t.Parallel()

	c, err := NewCompiler()
	require.NoError(t, err)
	assert.Equal(t, "metajs.Compiler", c.String())
}
