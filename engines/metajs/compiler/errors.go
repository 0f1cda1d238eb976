package compiler

import "errors"

var (
	ErrContentNil         = errors.New("metajs content is nil")
	ErrExecCreationFailed = errors.New("unable to create metajs executable")
	ErrNoInstructions     = errors.New("metajs program has no statements")
	ErrProgramNil         = errors.New("metajs program is nil")
	ErrValidationFailed   = errors.New("metajs script validation error")
)
