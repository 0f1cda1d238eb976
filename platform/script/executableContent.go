package script

import (
	"github.com/robbyt/go-metajs/engines/types"
)

// ExecutableContent is validated script content ready for an engine.
type ExecutableContent interface {
	// GetSource returns the script text the content was compiled from.
	GetSource() string

	// GetProgram returns the engine-specific compiled form of the script. For the
	// metajs engine this is the parsed *ast.Program; an engine that cannot assert
	// it to the type it needs must fail the evaluation.
	GetProgram() any

	// GetMachineType returns the engine this content is intended to run on.
	GetMachineType() types.Type
}
