package loader

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/robbyt/go-metajs/internal/helpers"
)

// FromString serves script source held in memory.
type FromString struct {
	content   string
	sourceURL *url.URL
}

// NewFromString creates a loader over content, which is trimmed and must be non-empty.
// The source URL is string://inline/<first 8 hex chars of the SHA256>.
func NewFromString(content string) (*FromString, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is empty", ErrScriptNotAvailable)
	}

	u, err := url.Parse("string://inline/" + helpers.Fingerprint([]byte(content), helpers.FingerprintLen))
	if err != nil {
		return nil, fmt.Errorf("failed to create source URL: %w", err)
	}
	return &FromString{content: content, sourceURL: u}, nil
}

// NewFromStringBase64 decodes content as standard base64 when possible and falls back
// to the raw text otherwise.
func NewFromStringBase64(content string) (Loader, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is empty", ErrScriptNotAvailable)
	}
	if decoded, err := base64.StdEncoding.DecodeString(content); err == nil {
		return NewFromBytes(decoded)
	}
	return NewFromString(content)
}

func (l *FromString) String() string {
	return fmt.Sprintf("loader.FromString{Chars: %d}", len(l.content))
}

func (l *FromString) GetReader() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(l.content)), nil
}

func (l *FromString) GetSourceURL() *url.URL {
	return l.sourceURL
}
