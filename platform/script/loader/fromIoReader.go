package loader

import (
	"bytes"
	"fmt"
	"io"
	"net/url"

	"github.com/robbyt/go-metajs/internal/helpers"
)

// FromIoReader drains a reader once, such as stdin, and serves the buffered text.
type FromIoReader struct {
	content   []byte
	sourceURL *url.URL
}

// NewFromIoReader reads everything from reader. sourceName becomes the URL host and
// defaults to "unnamed".
func NewFromIoReader(reader io.Reader, sourceName string) (*FromIoReader, error) {
	if reader == nil {
		return nil, fmt.Errorf("%w: reader is nil", ErrScriptNotAvailable)
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read from reader: %w", err)
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, fmt.Errorf("%w: content is empty or contains only whitespace", ErrScriptNotAvailable)
	}
	if sourceName == "" {
		sourceName = "unnamed"
	}

	u := &url.URL{Scheme: "reader", Host: sourceName, Path: "/" + helpers.Fingerprint(content, helpers.FingerprintLen)}
	return &FromIoReader{content: content, sourceURL: u}, nil
}

func (l *FromIoReader) String() string {
	return fmt.Sprintf("loader.FromIoReader{Source: %s, Bytes: %d}", l.sourceURL.Host, len(l.content))
}

func (l *FromIoReader) GetReader() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(l.content)), nil
}

func (l *FromIoReader) GetSourceURL() *url.URL {
	return l.sourceURL
}
