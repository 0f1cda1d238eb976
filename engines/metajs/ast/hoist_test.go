package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robbyt/go-metajs/engines/metajs/ast"
	"github.com/robbyt/go-metajs/engines/metajs/parser"
)

func TestHoist(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		source    string
		vars      []string
		lexical   []string
		functions []string
		nested    []string
	}{
		{
			name:   "var in nested blocks",
			source: `var a; { var b; if (x) { var c; } else { var d; } }`,
			vars:   []string{"a", "b", "c", "d"},
		},
		{
			name:   "loop heads and bodies",
			source: `for (var i = 0; i < 1; i++) { var j; } for (var k in o) {} for (var v of o) {} while (x) { var w; }`,
			vars:   []string{"i", "j", "k", "v", "w"},
		},
		{
			name:   "try catch finally and switch",
			source: `try { var t; } catch (e) { var c; } finally { var f; } switch (x) { case 1: var s; }`,
			vars:   []string{"t", "c", "f", "s"},
		},
		{
			name:   "duplicates are reported once",
			source: `var a; var a; { var a; }`,
			vars:   []string{"a"},
		},
		{
			name:      "nested function bodies are not entered",
			source:    `function f() { var inner; } var g = function () { var alsoInner; }; var outer;`,
			vars:      []string{"g", "outer"},
			functions: []string{"f"},
		},
		{
			name:    "let and const are lexical",
			source:  `let a = 1; const b = 2; var c;`,
			vars:    []string{"c"},
			lexical: []string{"a", "b"},
		},
		{
			name:    "block lexicals belong to the block",
			source:  `{ let inner; } let outer;`,
			lexical: []string{"outer"},
		},
		{
			name:   "labeled loop body",
			source: `outer: for (;;) { var inLoop; }`,
			vars:   []string{"inLoop"},
		},
		{
			name:      "functions in nested blocks",
			source:    `function top() {} if (x) { function a() {} } else { function b() {} } try { function c() {} } catch (e) { { function d() {} } }`,
			functions: []string{"top"},
			nested:    []string{"a", "b", "c", "d"},
		},
		{
			name:      "functions inside nested function bodies stay there",
			source:    `function outer() { { function hidden() {} } } var g = function () { if (x) { function alsoHidden() {} } };`,
			vars:      []string{"g"},
			functions: []string{"outer"},
		},
		{
			name:   "destructuring patterns",
			source: `var { a, b: [c, d = 1], ...rest } = o;`,
			vars:   []string{"a", "c", "d", "rest"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			program, err := parser.Parse(tt.source)
			require.NoError(t, err)

			h := ast.Hoist(program.Body)
			assert.Equal(t, tt.vars, h.Vars)
			assert.Equal(t, tt.lexical, h.Lexical)

			var names []string
			for _, fn := range h.Functions {
				names = append(names, fn.Function.ID.Name)
			}
			assert.Equal(t, tt.functions, names)

			var nested []string
			for _, fn := range h.Nested {
				nested = append(nested, fn.Function.ID.Name)
			}
			assert.Equal(t, tt.nested, nested)
		})
	}
}

func TestBoundNames(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ast.BoundNames(nil))
	assert.Equal(t, []string{"x"}, ast.BoundNames(&ast.Identifier{Name: "x"}))
	assert.Equal(t, []string{"a", "b"}, ast.BoundNames(&ast.ArrayPattern{
		Elements: []ast.Node{
			&ast.Identifier{Name: "a"},
			nil,
			&ast.RestElement{Argument: &ast.Identifier{Name: "b"}},
		},
	}))
}

func TestSlice(t *testing.T) {
	t.Parallel()

	text := "function f() {}"
	assert.Equal(t, "f()", ast.Slice(text, ast.Range{Start: 9, End: 12}))
	assert.Equal(t, text, ast.Slice(text, ast.Range{Start: -4, End: 100}))
	assert.Empty(t, ast.Slice(text, ast.Range{Start: 5, End: 5}))
}
