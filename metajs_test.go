package metajs_test

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/robbyt/go-metajs"
	"github.com/robbyt/go-metajs/engines/metajs/compiler"
	"github.com/robbyt/go-metajs/engines/metajs/evaluator"
	"github.com/robbyt/go-metajs/engines/metajs/vm"
	"github.com/robbyt/go-metajs/options"
	"github.com/robbyt/go-metajs/platform/data"
	"github.com/robbyt/go-metajs/platform/script/loader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = options.WithLogHandler(slog.NewTextHandler(io.Discard, nil))

const script = `
var p = ctx.excited ? "!" : ".";
var message = "Hello, " + ctx.name + p;
({ greeting: message, length: message.length });
`

func TestFromString(t *testing.T) {
	t.Parallel()

	e, err := metajs.FromString(script, quiet)
	require.NoError(t, err)

	tests := []struct {
		name  string
		input map[string]any
		want  map[string]any
	}{
		{
			name:  "plain",
			input: map[string]any{"name": "World"},
			want:  map[string]any{"greeting": "Hello, World.", "length": 13.0},
		},
		{
			name:  "excited",
			input: map[string]any{"name": "Go", "excited": true},
			want:  map[string]any{"greeting": "Hello, Go!", "length": 10.0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx, err := e.AddDataToContext(t.Context(), tt.input)
			require.NoError(t, err)
			resp, err := e.Eval(ctx)
			require.NoError(t, err)
			assert.Equal(t, data.MAP, resp.Type())
			assert.Equal(t, tt.want, resp.Interface())
			assert.Contains(t, resp.GetScriptExeID(), "string://inline/")
		})
	}
}

func TestFromStringErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		opts    []options.Option
		wantErr error
		errText string
	}{
		{name: "empty", content: "  ", wantErr: loader.ErrScriptNotAvailable},
		{name: "syntax", content: "if (", wantErr: compiler.ErrValidationFailed},
		{name: "comments only", content: "// nothing here", wantErr: compiler.ErrNoInstructions},
		{
			name:    "bad global",
			content: "1",
			opts:    []options.Option{options.WithCompilerOptions(compiler.WithGlobals([]string{"not valid"}))},
			errText: "invalid global name",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := metajs.FromString(tt.content, append([]options.Option{quiet}, tt.opts...)...)
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
			if tt.errText != "" {
				assert.Contains(t, err.Error(), tt.errText)
			}
		})
	}
}

func TestFromStringWithData(t *testing.T) {
	t.Parallel()

	e, err := metajs.FromStringWithData(script, map[string]any{"name": "static"}, quiet)
	require.NoError(t, err)

	resp, err := e.Eval(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "Hello, static.", resp.Interface().(map[string]any)["greeting"])

	ctx, err := e.AddDataToContext(t.Context(), map[string]any{"excited": true})
	require.NoError(t, err)
	resp, err = e.Eval(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Hello, static!", resp.Interface().(map[string]any)["greeting"])
}

func TestFromFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "greet.js")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o600))

	e, err := metajs.FromFile(path, quiet, options.WithVersionID("greet-v1"))
	require.NoError(t, err)

	ctx, err := e.AddDataToContext(t.Context(), map[string]any{"name": "file"})
	require.NoError(t, err)
	resp, err := e.Eval(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Hello, file.", resp.Interface().(map[string]any)["greeting"])
	assert.Equal(t, "greet-v1", resp.GetScriptExeID())

	_, err = metajs.FromFile(filepath.Join(dir, "missing.js"), quiet)
	require.ErrorIs(t, err, loader.ErrScriptNotAvailable)

	_, err = metajs.FromFile(filepath.Join(dir, "notes.txt"), quiet)
	require.ErrorIs(t, err, loader.ErrScriptNotAvailable)
}

func TestEval(t *testing.T) {
	t.Parallel()

	resp, err := metajs.Eval(t.Context(), "ctx.items.filter(x => x % 2).length", map[string]any{
		"items": []int{1, 2, 3, 4, 5},
	}, quiet)
	require.NoError(t, err)
	assert.Equal(t, data.FLOAT, resp.Type())
	assert.Equal(t, 3.0, resp.Interface())

	resp, err = metajs.Eval(t.Context(), "typeof ctx.anything", nil, quiet)
	require.NoError(t, err)
	assert.Equal(t, "undefined", resp.Interface())

	_, err = metajs.Eval(t.Context(), "throw new Error('boom')", nil, quiet)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	resp, err = metajs.Eval(t.Context(), "new Error('returned')", nil, quiet)
	require.ErrorIs(t, err, evaluator.ErrScriptError)
	assert.Equal(t, data.ERROR, resp.Type())
}

func TestNewEvaluator(t *testing.T) {
	t.Parallel()

	_, err := metajs.NewEvaluator(quiet)
	require.ErrorIs(t, err, options.ErrNoLoader)

	l, err := loader.NewFromString("request.method + ' ' + ctx.path")
	require.NoError(t, err)

	var out bytes.Buffer
	e, err := metajs.NewEvaluator(
		quiet,
		options.WithLoader(l),
		options.WithStaticData(map[string]any{"path": "/"}),
		options.WithCompilerOptions(compiler.WithGlobals([]string{"request"})),
		options.WithMachineOptions(vm.WithStdout(&out)),
	)
	require.NoError(t, err)

	// request is declared but unset, so reading a property of it throws.
	_, err = e.Eval(t.Context())
	require.ErrorIs(t, err, vm.ErrType)
	assert.Empty(t, out.String())
}

func TestConcurrentEvaluations(t *testing.T) {
	t.Parallel()

	e, err := metajs.FromString(`
		function fib(n) { return n < 2 ? n : fib(n - 1) + fib(n - 2); }
		fib(ctx.n)
	`, quiet)
	require.NoError(t, err)

	want := map[int]float64{5: 5, 10: 55, 12: 144, 15: 610}
	var wg sync.WaitGroup
	for n, expected := range want {
		wg.Go(func() {
			ctx, err := e.AddDataToContext(t.Context(), map[string]any{"n": n})
			if !assert.NoError(t, err) {
				return
			}
			resp, err := e.Eval(ctx)
			if assert.NoError(t, err) {
				assert.Equal(t, expected, resp.Interface())
			}
		})
	}
	wg.Wait()
}
