package loader

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/robbyt/go-metajs/internal/helpers"
)

// ScriptExtensions lists the file extensions FromDisk accepts.
var ScriptExtensions = []string{".js", ".mjs", ".cjs"}

// FromDisk reads a script file each time GetReader is called, so edits are picked up.
type FromDisk struct {
	path      string
	sourceURL *url.URL
}

// NewFromDisk accepts an absolute path, optionally prefixed with file://. The file
// itself is not opened until GetReader.
func NewFromDisk(path string) (*FromDisk, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return nil, fmt.Errorf("%w: %s", ErrSchemeUnsupported, path)
	}
	path = strings.TrimPrefix(path, "file://")

	if !filepath.IsAbs(path) {
		return nil, fmt.Errorf("%w: relative paths are not supported", ErrScriptNotAvailable)
	}
	path = filepath.Clean(path)
	if path == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: path is empty or invalid", ErrScriptNotAvailable)
	}

	if !slices.Contains(ScriptExtensions, strings.ToLower(filepath.Ext(path))) {
		return nil, fmt.Errorf("%w: %q is not a script file", ErrScriptNotAvailable, path)
	}

	return &FromDisk{
		path:      path,
		sourceURL: &url.URL{Scheme: "file", Path: filepath.ToSlash(path)},
	}, nil
}

func (l *FromDisk) String() string {
	r, err := l.GetReader()
	if err != nil {
		return fmt.Sprintf("loader.FromDisk{Path: %s}", l.path)
	}
	defer func() { _ = r.Close() }()

	sum, err := helpers.SHA256Reader(r)
	if err != nil {
		return fmt.Sprintf("loader.FromDisk{Path: %s}", l.path)
	}
	return fmt.Sprintf("loader.FromDisk{Path: %s, SHA256: %s}", l.path, sum[:helpers.FingerprintLen])
}

func (l *FromDisk) GetReader() (io.ReadCloser, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScriptNotAvailable, err)
	}
	return f, nil
}

func (l *FromDisk) GetSourceURL() *url.URL {
	return l.sourceURL
}
