package compiler

import (
	"slices"

	"github.com/robbyt/go-metajs/engines/metajs/ast"
	"github.com/robbyt/go-metajs/engines/types"
)

// Executable is a parsed script. Its tree is fully prepared, so one Executable may be
// evaluated by many machines concurrently.
type Executable struct {
	source  string
	program *ast.Program
	globals []string
}

func newExecutable(source string, program *ast.Program, globals []string) *Executable {
	if source == "" || program == nil {
		return nil
	}
	return &Executable{
		source:  source,
		program: program,
		globals: slices.Clone(globals),
	}
}

func (e *Executable) GetSource() string {
	return e.source
}

// GetProgram returns the *ast.Program as an any, for the platform interface.
func (e *Executable) GetProgram() any {
	return e.program
}

func (e *Executable) GetMetaJSProgram() *ast.Program {
	return e.program
}

// GetGlobals returns the host-defined names the script was compiled against.
func (e *Executable) GetGlobals() []string {
	return slices.Clone(e.globals)
}

func (e *Executable) GetMachineType() types.Type {
	return types.MetaJS
}
