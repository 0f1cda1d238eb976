package compile

import (
	"testing"

	"github.com/robbyt/go-metajs/engines/metajs/ast"
	"github.com/robbyt/go-metajs/engines/metajs/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		source   string
		wantErr  error
		contains string
	}{
		{name: "expression", source: "1 + 2"},
		{name: "hashbang", source: "#!/usr/bin/env metajs\nvar x = 1;"},
		{name: "syntax error", source: "var = ;", wantErr: parser.ErrSyntax},
		{
			name:     "class",
			source:   "class A {}",
			wantErr:  ErrUnsupportedSyntax,
			contains: "ClassDeclaration at 1:1",
		},
		{
			name:     "tagged template on second line",
			source:   "var x = 1;\n  tag`a`;",
			wantErr:  ErrUnsupportedSyntax,
			contains: "TemplateLiteral at 2:",
		},
		{
			name:     "yield",
			source:   "function* g() { yield 1; }",
			wantErr:  ErrUnsupportedSyntax,
			contains: "YieldExpression at 1:",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			src := tt.source
			prog, err := Compile(&src)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), tt.contains)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, prog)
			assert.NotEmpty(t, prog.Body)
		})
	}

	t.Run("nil content", func(t *testing.T) {
		t.Parallel()
		_, err := Compile(nil)
		require.ErrorIs(t, err, ErrContentNil)
	})

	t.Run("hashbang keeps offsets", func(t *testing.T) {
		t.Parallel()
		src := "#!/bin/metajs\nfunction f() { return 1; }"
		prog, err := Compile(&src)
		require.NoError(t, err)
		fn, ok := prog.Body[0].(*ast.FunctionDeclaration)
		require.True(t, ok)
		assert.Equal(t, "function f() { return 1; }", fn.Function.Source)
	})

	t.Run("many unsupported constructs are summarized", func(t *testing.T) {
		t.Parallel()
		src := "class A{}\nclass B{}\nclass C{}\nclass D{}\nclass E{}\nclass F{}\nclass G{}"
		_, err := Compile(&src)
		require.ErrorIs(t, err, ErrUnsupportedSyntax)
		assert.Contains(t, err.Error(), "and 2 more")
	})
}

func TestValidateGlobals(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateGlobals([]string{"ctx", "$req", "_x1", "données"}))
	require.NoError(t, ValidateGlobals(nil))

	err := ValidateGlobals([]string{"ok", "", "1st", "a-b"})
	require.ErrorIs(t, err, ErrInvalidGlobalName)
	assert.Contains(t, err.Error(), `"1st"`)
	assert.Contains(t, err.Error(), `"a-b"`)

	src := "ctx"
	_, err = CompileWithGlobals(&src, []string{"bad name"})
	require.ErrorIs(t, err, ErrInvalidGlobalName)
}

func TestPosition(t *testing.T) {
	t.Parallel()

	text := "ab\ncd\n"
	assert.Equal(t, "1:1", position(text, 0))
	assert.Equal(t, "1:3", position(text, 2))
	assert.Equal(t, "2:1", position(text, 3))
	assert.Equal(t, "3:1", position(text, 6))
	assert.Equal(t, "offset 99", position(text, 99))
}
