package loader

import (
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"slices"
	"strings"
)

// InferLoader picks a loader for input:
//   - Loader: returned as is
//   - []byte: FromBytes
//   - io.Reader: FromIoReader
//   - string: a file:// URL or a path ending in a script extension reads from disk;
//     anything else is inline source, base64 decoded when it decodes cleanly
func InferLoader(input any) (Loader, error) {
	switch v := input.(type) {
	case Loader:
		return v, nil
	case string:
		return inferFromString(v)
	case []byte:
		return NewFromBytes(v)
	case io.Reader:
		return NewFromIoReader(v, "inferred")
	default:
		return nil, fmt.Errorf("unsupported input type: %T", input)
	}
}

func inferFromString(input string) (Loader, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("%w: empty string input", ErrInputEmpty)
	}

	if u, err := url.Parse(input); err == nil && u.Scheme != "" && !strings.ContainsAny(input, " \n;(") {
		switch u.Scheme {
		case "http", "https":
			return nil, fmt.Errorf("%w: %s", ErrSchemeUnsupported, u.Scheme)
		case "file":
			return diskFromPath(u.Path)
		}
	}

	if !strings.ContainsAny(input, "\n;(){}") &&
		slices.Contains(ScriptExtensions, strings.ToLower(filepath.Ext(input))) {
		return diskFromPath(input)
	}

	return NewFromStringBase64(input)
}

func diskFromPath(path string) (Loader, error) {
	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve relative path %q: %w", path, err)
		}
		path = abs
	}
	return NewFromDisk(path)
}
