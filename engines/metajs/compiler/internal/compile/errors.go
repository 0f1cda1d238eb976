package compile

import "errors"

var (
	ErrContentNil        = errors.New("metajs content is nil")
	ErrUnsupportedSyntax = errors.New("unsupported syntax")
	ErrInvalidGlobalName = errors.New("invalid global name")
)
