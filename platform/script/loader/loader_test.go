package loader

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const script = "var greeting = 'hi'; greeting + ' ' + ctx.name;"

func readAll(t *testing.T, l Loader) string {
	t.Helper()
	r, err := l.GetReader()
	require.NoError(t, err)
	defer func() { require.NoError(t, r.Close()) }()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(b)
}

func writeScript(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFromString(t *testing.T) {
	t.Parallel()

	l, err := NewFromString("  " + script + "\n")
	require.NoError(t, err)
	assert.Equal(t, script, readAll(t, l))
	assert.Equal(t, script, readAll(t, l), "reader can be reopened")
	assert.Equal(t, "string", l.GetSourceURL().Scheme)
	assert.Equal(t, "inline", l.GetSourceURL().Host)
	assert.Contains(t, l.String(), "Chars")

	_, err = NewFromString(" \n\t")
	require.ErrorIs(t, err, ErrScriptNotAvailable)
}

func TestFromStringBase64(t *testing.T) {
	t.Parallel()

	l, err := NewFromStringBase64("MSArIDI=")
	require.NoError(t, err)
	assert.Equal(t, "1 + 2", readAll(t, l))
	assert.Equal(t, "bytes", l.GetSourceURL().Scheme)

	l, err = NewFromStringBase64(script)
	require.NoError(t, err)
	assert.Equal(t, script, readAll(t, l))

	_, err = NewFromStringBase64("")
	require.ErrorIs(t, err, ErrScriptNotAvailable)
}

func TestFromBytes(t *testing.T) {
	t.Parallel()

	src := []byte(script)
	l, err := NewFromBytes(src)
	require.NoError(t, err)
	src[0] = 'X'
	assert.Equal(t, script, readAll(t, l), "content is copied")
	assert.Contains(t, l.String(), "Bytes")

	_, err = NewFromBytes([]byte("   "))
	require.ErrorIs(t, err, ErrScriptNotAvailable)
}

func TestFromDisk(t *testing.T) {
	t.Parallel()

	path := writeScript(t, "main.js", script)

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{name: "absolute", path: path},
		{name: "file scheme", path: "file://" + path},
		{name: "upper case extension", path: strings.TrimSuffix(path, ".js") + ".JS", wantErr: nil},
		{name: "relative", path: "main.js", wantErr: ErrScriptNotAvailable},
		{name: "root", path: "/", wantErr: ErrScriptNotAvailable},
		{name: "not a script", path: "/etc/passwd", wantErr: ErrScriptNotAvailable},
		{name: "http", path: "https://example.com/a.js", wantErr: ErrSchemeUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			l, err := NewFromDisk(tt.path)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "file", l.GetSourceURL().Scheme)
		})
	}

	t.Run("reads and checksums", func(t *testing.T) {
		t.Parallel()
		l, err := NewFromDisk(path)
		require.NoError(t, err)
		assert.Equal(t, script, readAll(t, l))
		assert.Contains(t, l.String(), "SHA256")
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		l, err := NewFromDisk(filepath.Join(t.TempDir(), "gone.js"))
		require.NoError(t, err)
		_, err = l.GetReader()
		require.ErrorIs(t, err, ErrScriptNotAvailable)
		assert.NotContains(t, l.String(), "SHA256")
	})
}

func TestFromIoReader(t *testing.T) {
	t.Parallel()

	l, err := NewFromIoReader(bytes.NewBufferString(script), "stdin")
	require.NoError(t, err)
	assert.Equal(t, script, readAll(t, l))
	assert.Equal(t, script, readAll(t, l))
	assert.Equal(t, "reader", l.GetSourceURL().Scheme)
	assert.Equal(t, "stdin", l.GetSourceURL().Host)

	l, err = NewFromIoReader(strings.NewReader(script), "")
	require.NoError(t, err)
	assert.Equal(t, "unnamed", l.GetSourceURL().Host)

	_, err = NewFromIoReader(nil, "x")
	require.ErrorIs(t, err, ErrScriptNotAvailable)

	_, err = NewFromIoReader(strings.NewReader(" \n"), "x")
	require.ErrorIs(t, err, ErrScriptNotAvailable)

	boom := errors.New("boom")
	_, err = NewFromIoReader(iotest.ErrReader(boom), "x")
	require.ErrorIs(t, err, boom)
}

func TestInferLoader(t *testing.T) {
	t.Parallel()

	path := writeScript(t, "infer.js", script)
	existing, err := NewFromString(script)
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   any
		want    string
		scheme  string
		wantErr bool
	}{
		{name: "loader passthrough", input: existing, want: script, scheme: "string"},
		{name: "inline source", input: script, want: script, scheme: "string"},
		{name: "base64 source", input: "MSArIDI=", want: "1 + 2", scheme: "bytes"},
		{name: "path", input: path, want: script, scheme: "file"},
		{name: "file url", input: "file://" + path, want: script, scheme: "file"},
		{name: "bytes", input: []byte(script), want: script, scheme: "bytes"},
		{name: "reader", input: strings.NewReader(script), want: script, scheme: "reader"},
		{name: "http", input: "https://example.com/a.js", wantErr: true},
		{name: "empty", input: "  ", wantErr: true},
		{name: "unsupported", input: 42, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			l, err := InferLoader(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.scheme, l.GetSourceURL().Scheme)
			assert.Equal(t, tt.want, readAll(t, l))
		})
	}
}
