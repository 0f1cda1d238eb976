package script

import "errors"

var (
	ErrCompilerNil = errors.New("compiler is nil")
	ErrLoaderNil   = errors.New("loader is nil")
	ErrCompiler    = errors.New("compiler failed")
	ErrOldContent  = errors.New("script content has not changed")
)
