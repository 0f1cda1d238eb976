// Package loader fetches script text for a compiler.
package loader

import (
	"errors"
	"io"
	"net/url"
)

var (
	ErrSchemeUnsupported  = errors.New("unsupported scheme")
	ErrScriptNotAvailable = errors.New("script not available")
	ErrInputEmpty         = errors.New("input is empty")
)

// Loader is an interface used by the compilers to read script source.
type Loader interface {
	// GetReader opens a fresh reader over the script. Callers close it.
	GetReader() (io.ReadCloser, error)

	// GetSourceURL identifies where the script came from.
	GetSourceURL() *url.URL
}
