package loader

import (
	"bytes"
	"fmt"
	"io"
	"net/url"

	"github.com/robbyt/go-metajs/internal/helpers"
)

// FromBytes serves script source from a byte slice, for embedded scripts.
type FromBytes struct {
	content   []byte
	sourceURL *url.URL
}

// NewFromBytes copies content. Whitespace-only input is rejected.
func NewFromBytes(content []byte) (*FromBytes, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, fmt.Errorf("%w: content is empty", ErrScriptNotAvailable)
	}

	u, err := url.Parse("bytes://inline/" + helpers.Fingerprint(content, helpers.FingerprintLen))
	if err != nil {
		return nil, fmt.Errorf("failed to create source URL: %w", err)
	}
	return &FromBytes{content: bytes.Clone(content), sourceURL: u}, nil
}

func (l *FromBytes) String() string {
	return fmt.Sprintf("loader.FromBytes{Bytes: %d}", len(l.content))
}

func (l *FromBytes) GetReader() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(l.content)), nil
}

func (l *FromBytes) GetSourceURL() *url.URL {
	return l.sourceURL
}
