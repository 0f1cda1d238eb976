package script

import "io"

// Compiler validates script source and turns it into ExecutableContent.
//
//	exe, err := compiler.Compile(reader)
//	if err != nil {
//	    // syntax errors and unsupported constructs land here
//	}
type Compiler interface {
	// Compile reads and closes scriptReader.
	Compile(scriptReader io.ReadCloser) (ExecutableContent, error)
}
