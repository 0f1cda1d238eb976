package evaluator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/robbyt/go-metajs/engines/metajs/compiler"
	"github.com/robbyt/go-metajs/engines/metajs/vm"
	"github.com/robbyt/go-metajs/engines/types"
	"github.com/robbyt/go-metajs/platform/constants"
	"github.com/robbyt/go-metajs/platform/data"
	"github.com/robbyt/go-metajs/platform/script"
	"github.com/robbyt/go-metajs/platform/script/loader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var quiet = slog.NewTextHandler(io.Discard, nil)

func newUnit(
	t *testing.T,
	source string,
	provider data.Provider,
	static map[string]any,
	opts ...compiler.FunctionalOption,
) *script.ExecutableUnit {
	t.Helper()
	l, err := loader.NewFromString(source)
	require.NoError(t, err)
	c, err := compiler.New(append([]compiler.FunctionalOption{
		compiler.WithLogHandler(quiet),
		compiler.WithCtxGlobal(),
	}, opts...)...)
	require.NoError(t, err)
	unit, err := script.NewExecutableUnit(quiet, "", l, c, provider, static)
	require.NoError(t, err)
	return unit
}

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) GetData(ctx context.Context) (map[string]any, error) {
	args := m.Called(ctx)
	d, _ := args.Get(0).(map[string]any)
	return d, args.Error(1)
}

func (m *mockProvider) AddDataToContext(ctx context.Context, d ...map[string]any) (context.Context, error) {
	args := m.Called(ctx, d)
	next, _ := args.Get(0).(context.Context)
	return next, args.Error(1)
}

func TestEval(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		source   string
		static   map[string]any
		wantType data.Types
		want     any
	}{
		{
			name:     "greeting",
			source:   "'Hello, ' + ctx.name + '!'",
			static:   map[string]any{"name": "World"},
			wantType: data.STRING,
			want:     "Hello, World!",
		},
		{
			name:     "empty ctx",
			source:   "Object.keys(ctx).length",
			wantType: data.FLOAT,
			want:     0.0,
		},
		{
			name:     "list",
			source:   "ctx.items.map(function (x) { return x * 2; })",
			static:   map[string]any{"items": []int{1, 2, 3}},
			wantType: data.LIST,
			want:     []any{2.0, 4.0, 6.0},
		},
		{
			name:     "map",
			source:   "var out = {}; for (var k in ctx) { out[k.toUpperCase()] = ctx[k]; } out",
			static:   map[string]any{"a": true},
			wantType: data.MAP,
			want:     map[string]any{"A": true},
		},
		{
			name:     "undefined",
			source:   "var unused = 1;",
			wantType: data.NONE,
			want:     nil,
		},
		{
			name:     "boolean",
			source:   "ctx.n > 3",
			static:   map[string]any{"n": 4},
			wantType: data.BOOL,
			want:     true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := New(quiet, newUnit(t, tt.source, nil, tt.static))
			resp, err := e.Eval(t.Context())
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, resp.Type())
			assert.Equal(t, tt.want, resp.Interface())
			assert.Len(t, resp.GetScriptExeID(), 12)
			assert.NotEmpty(t, resp.GetExecTime())
		})
	}
}

func TestEvalErrors(t *testing.T) {
	t.Parallel()

	t.Run("uncaught exception", func(t *testing.T) {
		t.Parallel()
		e := New(quiet, newUnit(t, "throw new RangeError('too far')", nil, nil))
		_, err := e.Eval(t.Context())
		require.Error(t, err)
		var thrown *vm.ThrowError
		require.ErrorAs(t, err, &thrown)
		assert.Contains(t, err.Error(), "RangeError: too far")
	})

	t.Run("unresolved reference", func(t *testing.T) {
		t.Parallel()
		e := New(quiet, newUnit(t, "missing + 1", nil, nil))
		_, err := e.Eval(t.Context())
		require.ErrorIs(t, err, vm.ErrUnresolvedReference)
	})

	t.Run("error result", func(t *testing.T) {
		t.Parallel()
		e := New(quiet, newUnit(t, "new TypeError('bad')", nil, nil))
		resp, err := e.Eval(t.Context())
		require.ErrorIs(t, err, ErrScriptError)
		require.NotNil(t, resp)
		assert.Equal(t, data.ERROR, resp.Type())
	})

	t.Run("function result", func(t *testing.T) {
		t.Parallel()
		e := New(quiet, newUnit(t, "(function f() { return 1; })", nil, nil))
		resp, err := e.Eval(t.Context())
		require.ErrorIs(t, err, ErrScriptFuncRet)
		assert.Equal(t, data.FUNCTION, resp.Type())
		assert.Nil(t, resp.Interface())
	})

	t.Run("nil unit", func(t *testing.T) {
		t.Parallel()
		_, err := New(quiet, nil).Eval(t.Context())
		require.ErrorIs(t, err, ErrExecUnitNil)
	})

	t.Run("provider failure", func(t *testing.T) {
		t.Parallel()
		p := &mockProvider{}
		p.On("GetData", mock.Anything).Return(nil, errors.New("store offline"))
		e := New(quiet, newUnit(t, "ctx", p, nil))
		_, err := e.Eval(t.Context())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "store offline")
		p.AssertExpectations(t)
	})

	t.Run("unconvertible input", func(t *testing.T) {
		t.Parallel()
		e := New(quiet, newUnit(t, "ctx", nil, map[string]any{"ch": make(chan int)}))
		_, err := e.Eval(t.Context())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to prepare machine")
	})

	t.Run("foreign content", func(t *testing.T) {
		t.Parallel()
		l, err := loader.NewFromString("1")
		require.NoError(t, err)
		unit, err := script.NewExecutableUnit(quiet, "v1", l, foreignCompiler{}, nil, nil)
		require.NoError(t, err)
		_, err = New(quiet, unit).Eval(t.Context())
		require.ErrorIs(t, err, ErrWrongProgram)
	})
}

type foreignContent struct{}

func (foreignContent) GetSource() string          { return "1" }
func (foreignContent) GetProgram() any            { return "bytecode" }
func (foreignContent) GetMachineType() types.Type { return "other" }

type foreignCompiler struct{}

func (foreignCompiler) Compile(r io.ReadCloser) (script.ExecutableContent, error) {
	return foreignContent{}, r.Close()
}

func TestEvalHostGlobals(t *testing.T) {
	t.Parallel()

	unit := newUnit(t, "typeof request + ',' + typeof ctx", nil, nil, compiler.WithGlobals([]string{"request"}))
	resp, err := New(quiet, unit).Eval(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "undefined,object", resp.Interface())
}

func TestEvalMachineOptions(t *testing.T) {
	t.Parallel()

	t.Run("console output", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		e := New(quiet, newUnit(t, "console.log('seen', ctx.n); ctx.n", nil, map[string]any{"n": 2}), vm.WithStdout(&out))
		_, err := e.Eval(t.Context())
		require.NoError(t, err)
		assert.Equal(t, "seen 2\n", out.String())
	})

	t.Run("cancel while paused", func(t *testing.T) {
		t.Parallel()
		hold := vm.WithInterceptor(func(ev vm.Event) {
			if ev.Phase == vm.PhaseApply {
				ev.Pause()
			}
		})
		e := New(quiet, newUnit(t, "function f() { return 1; } f()", nil, nil), hold)
		ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
		defer cancel()
		_, err := e.Eval(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestAddDataToContext(t *testing.T) {
	t.Parallel()

	provider := data.NewContextProvider(constants.EvalData)
	e := New(quiet, newUnit(t, "ctx.user.name + ' from ' + ctx.region", provider, map[string]any{"region": "eu"}))

	ctx, err := e.AddDataToContext(t.Context(), map[string]any{"user": map[string]any{"name": "ada"}})
	require.NoError(t, err)
	resp, err := e.Eval(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ada from eu", resp.Interface())

	_, err = New(quiet, nil).AddDataToContext(t.Context(), map[string]any{"a": 1})
	require.ErrorIs(t, err, data.ErrNoProvider)

	static := New(quiet, newUnit(t, "ctx", nil, map[string]any{"a": 1}))
	_, err = static.AddDataToContext(t.Context(), map[string]any{"b": 2})
	require.ErrorIs(t, err, data.ErrStaticProviderNoRuntimeUpdates)
}

func TestConcurrentEval(t *testing.T) {
	t.Parallel()

	provider := data.NewContextProvider(constants.EvalData)
	e := New(quiet, newUnit(t, `
		function fib(n) { return n < 2 ? n : fib(n - 1) + fib(n - 2); }
		ctx.label + ':' + fib(ctx.n)
	`, provider, nil))

	var wg sync.WaitGroup
	results := make([]string, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, err := e.AddDataToContext(context.Background(), map[string]any{
				"label": fmt.Sprintf("w%d", i),
				"n":     10 + i,
			})
			if err != nil {
				errs[i] = err
				return
			}
			resp, err := e.Eval(ctx)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = resp.Inspect()
		}()
	}
	wg.Wait()

	fib := []int{55, 89, 144, 233, 377, 610, 987, 1597}
	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, fmt.Sprintf("w%d:%d", i, fib[i]), results[i])
	}
}

func TestString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "metajs.Evaluator", New(nil, nil).String())
}
