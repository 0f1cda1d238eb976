// Package compile parses script text into a prepared syntax tree.
package compile

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/robbyt/go-metajs/engines/metajs/ast"
	"github.com/robbyt/go-metajs/engines/metajs/parser"
)

// maxReported bounds how many unsupported constructs one error lists.
const maxReported = 5

// Compile parses scriptContent. A leading #! line is blanked so scripts can be made
// executable; byte offsets in the tree still match the original text.
func Compile(scriptContent *string) (*ast.Program, error) {
	if scriptContent == nil {
		return nil, ErrContentNil
	}

	prog, err := parser.Parse(stripHashbang(*scriptContent))
	if err != nil {
		return nil, err
	}
	if err := rejectUnsupported(prog); err != nil {
		return nil, err
	}
	return prog, nil
}

// CompileWithGlobals is Compile plus a check that every name the host will define at
// eval time is a usable identifier.
func CompileWithGlobals(scriptContent *string, globals []string) (*ast.Program, error) {
	if err := ValidateGlobals(globals); err != nil {
		return nil, err
	}
	return Compile(scriptContent)
}

// ValidateGlobals reports every name in globals that is not an identifier.
func ValidateGlobals(globals []string) error {
	var errz []error
	for _, g := range globals {
		if !isIdentifier(g) {
			errz = append(errz, fmt.Errorf("%w: %q", ErrInvalidGlobalName, g))
		}
	}
	return errors.Join(errz...)
}

func stripHashbang(text string) string {
	if !strings.HasPrefix(text, "#!") {
		return text
	}
	return "//" + text[2:]
}

func rejectUnsupported(prog *ast.Program) error {
	var found []string
	ast.Inspect(prog, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.Unsupported:
			found = append(found, fmt.Sprintf("%s at %s", x.Kind, position(prog.Text, x.Range().Start)))
		case *ast.YieldExpression:
			found = append(found, "YieldExpression at "+position(prog.Text, x.Range().Start))
		}
		return true
	})
	if len(found) == 0 {
		return nil
	}
	if len(found) > maxReported {
		found = append(found[:maxReported], fmt.Sprintf("and %d more", len(found)-maxReported))
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedSyntax, strings.Join(found, ", "))
}

// position renders a byte offset as line:column, both 1-based.
func position(text string, offset int) string {
	if offset < 0 || offset > len(text) {
		return fmt.Sprintf("offset %d", offset)
	}
	before := text[:offset]
	line := strings.Count(before, "\n") + 1
	col := offset - strings.LastIndexByte(before, '\n')
	return fmt.Sprintf("%d:%d", line, col)
}

func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}
