package internal

import (
	"errors"
	"io"
	"log/slog"
	"net/url"
	"testing"
	"time"

	"github.com/robbyt/go-metajs/engines/metajs/parser"
	"github.com/robbyt/go-metajs/engines/metajs/vm"
	"github.com/robbyt/go-metajs/platform/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMachine(t *testing.T) *vm.Machine {
	t.Helper()
	m, err := vm.New(
		vm.WithParser(parser.Parse),
		vm.WithLogHandler(slog.NewTextHandler(io.Discard, nil)),
	)
	require.NoError(t, err)
	return m
}

// eval runs source with globals bound and returns the inspected completion value.
func eval(t *testing.T, m *vm.Machine, globals map[string]vm.Value, source string) string {
	t.Helper()
	for k, v := range globals {
		m.SetGlobal(k, v)
	}
	v, err := m.RunString(t.Context(), source)
	require.NoError(t, err)
	return vm.Inspect(v)
}

type account struct {
	ID      int       `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email,omitempty"`
	Secret  string    `json:"-"`
	Tags    []string  `json:"tags"`
	Created time.Time `json:"created"`
	Plain   bool
	hidden  int
}

func TestConvertToValue(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		input  any
		source string
		want   string
	}{
		{name: "nil", input: nil, source: "v === null", want: "true"},
		{name: "bool", input: true, source: "typeof v", want: "boolean"},
		{name: "string", input: "hi", source: "v + '!'", want: "hi!"},
		{name: "bytes", input: []byte("raw"), source: "v.length", want: "3"},
		{name: "int", input: 42, source: "v + 1", want: "43"},
		{name: "int64", input: int64(-7), source: "v", want: "-7"},
		{name: "uint8", input: uint8(200), source: "v", want: "200"},
		{name: "float32", input: float32(0.5), source: "v * 2", want: "1"},
		{name: "time", input: created, source: "v", want: "2024-05-01T12:00:00Z"},
		{name: "duration", input: 1500 * time.Millisecond, source: "v", want: "1500"},
		{name: "error", input: errors.New("bad input"), source: "v instanceof Error && v.message", want: "bad input"},
		{name: "url", input: &url.URL{Scheme: "https", Host: "example.com"}, source: "v", want: "https://example.com"},
		{name: "nil pointer", input: (*account)(nil), source: "v", want: "null"},
		{name: "nil slice", input: []int(nil), source: "v", want: "null"},
		{name: "string slice", input: []string{"a", "b"}, source: "v.join('-')", want: "a-b"},
		{name: "array", input: [2]int{1, 2}, source: "v.length", want: "2"},
		{name: "any slice", input: []any{1, "two", nil}, source: "v", want: "[ 1, 'two', null ]"},
		{
			name:   "nested map",
			input:  map[string]any{"b": map[string]any{"c": []any{true}}, "a": 1},
			source: "Object.keys(v).join() + ':' + v.b.c[0]",
			want:   "a,b:true",
		},
		{
			name:   "typed map",
			input:  map[string][]string{"X-Id": {"1", "2"}},
			source: "v['X-Id'][1]",
			want:   "2",
		},
		{
			name: "struct",
			input: account{
				ID: 7, Name: "ada", Secret: "s", Tags: []string{"x"}, Created: created, Plain: true, hidden: 1,
			},
			source: "Object.keys(v).join()",
			want:   "id,name,tags,created,Plain",
		},
		{
			name:   "struct pointer",
			input:  &account{Name: "bob", Email: "b@example.com"},
			source: "v.email",
			want:   "b@example.com",
		},
		{
			name: "host function",
			input: HostFunc(func(args ...any) (any, error) {
				return args[0].(float64) * 2, nil
			}),
			source: "v(21)",
			want:   "42",
		},
		{
			name:   "plain func",
			input:  func(args ...any) (any, error) { return len(args), nil },
			source: "v(1, 'a', [])",
			want:   "3",
		},
		{
			name: "native func",
			input: vm.NativeFunc(func(c *vm.Call) (vm.Value, error) {
				return vm.String("native"), nil
			}),
			source: "v()",
			want:   "native",
		},
		{name: "machine value", input: vm.Number(3), source: "v", want: "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := newMachine(t)
			v, err := ConvertToValue(m, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, eval(t, m, map[string]vm.Value{"v": v}, tt.source))
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		t.Parallel()
		m := newMachine(t)
		for _, in := range []any{make(chan int), map[int]string{1: "a"}, complex(1, 2)} {
			_, err := ConvertToValue(m, in)
			require.ErrorIs(t, err, ErrUnsupportedType)
		}
		_, err := ConvertToValue(m, map[string]any{"deep": []any{make(chan int)}})
		require.ErrorIs(t, err, ErrUnsupportedType)
		assert.Contains(t, err.Error(), `key "deep": index 0`)
	})

	t.Run("host function errors throw", func(t *testing.T) {
		t.Parallel()
		m := newMachine(t)
		fn, err := ConvertToValue(m, HostFunc(func(...any) (any, error) {
			return nil, errors.New("lookup failed")
		}))
		require.NoError(t, err)
		got := eval(t, m, map[string]vm.Value{"f": fn}, "try { f() } catch (e) { e.message }")
		assert.Equal(t, "lookup failed", got)
	})
}

func TestConvertToMetaJSGlobals(t *testing.T) {
	t.Parallel()

	m := newMachine(t)
	globals, err := ConvertToMetaJSGlobals(m, constants.Ctx, map[string]any{"name": "World"})
	require.NoError(t, err)
	require.Contains(t, globals, constants.Ctx)
	assert.Equal(t, "Hello, World", eval(t, m, globals, "'Hello, ' + ctx.name"))

	globals, err = ConvertToMetaJSGlobals(m, constants.Ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", vm.Inspect(globals[constants.Ctx]))

	_, err = ConvertToMetaJSGlobals(m, constants.Ctx, map[string]any{"ch": make(chan int)})
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestConvertValueToInterface(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		want   any
	}{
		{name: "undefined", source: "undefined", want: nil},
		{name: "null", source: "null", want: nil},
		{name: "bool", source: "1 < 2", want: true},
		{name: "number", source: "0.5 + 1", want: 1.5},
		{name: "string", source: "'a' + 'b'", want: "ab"},
		{name: "array", source: "[1, 'x', [true]]", want: []any{1.0, "x", []any{true}}},
		{name: "holes", source: "[1, , 3]", want: []any{1.0, nil, 3.0}},
		{
			name:   "object",
			source: "({ a: 1, b: { c: null }, f: function () {} })",
			want:   map[string]any{"a": 1.0, "b": map[string]any{"c": nil}},
		},
		{name: "function in array", source: "[function () {}]", want: []any{nil}},
		{name: "boxed", source: "new Number(4)", want: 4.0},
		{name: "regexp", source: "/a+/gi", want: "/a+/gi"},
		{
			name:   "error",
			source: "new TypeError('nope')",
			want:   map[string]any{"name": "TypeError", "message": "nope"},
		},
		{
			name:   "shared reference is not a cycle",
			source: "var s = { n: 1 }; ({ a: s, b: s })",
			want:   map[string]any{"a": map[string]any{"n": 1.0}, "b": map[string]any{"n": 1.0}},
		},
		{
			name:   "non-enumerable keys are skipped",
			source: "var o = {}; Object.defineProperty(o, 'h', { value: 1 }); o.v = 2; o",
			want:   map[string]any{"v": 2.0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v, err := newMachine(t).RunString(t.Context(), tt.source)
			require.NoError(t, err)
			got, err := ConvertValueToInterface(v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("top level function", func(t *testing.T) {
		t.Parallel()
		v, err := newMachine(t).RunString(t.Context(), "(function f() {})")
		require.NoError(t, err)
		_, err = ConvertValueToInterface(v)
		require.ErrorIs(t, err, ErrFunction)
	})

	t.Run("cycle", func(t *testing.T) {
		t.Parallel()
		v, err := newMachine(t).RunString(t.Context(), "var a = []; a.push({ back: a }); a")
		require.NoError(t, err)
		_, err = ConvertValueToInterface(v)
		require.ErrorIs(t, err, ErrCycle)
	})

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		in := map[string]any{"list": []any{1.0, "two"}, "flag": false, "nested": map[string]any{"x": nil}}
		m := newMachine(t)
		v, err := ConvertToValue(m, in)
		require.NoError(t, err)
		out, err := ConvertValueToInterface(v)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})
}
