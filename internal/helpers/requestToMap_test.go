package helpers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestToMap(t *testing.T) {
	t.Parallel()

	t.Run("with body", func(t *testing.T) {
		t.Parallel()
		body := `{"name":"ada"}`
		req, err := http.NewRequest(
			http.MethodPost,
			"http://localhost:8080/test?query=1",
			bytes.NewBufferString(body),
		)
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "127.0.0.1:12345"

		got, err := RequestToMap(req)
		require.NoError(t, err)
		assert.Equal(t, http.MethodPost, got["method"])
		assert.Equal(t, "http://localhost:8080/test?query=1", got["url"])
		assert.Equal(t, "http", got["scheme"])
		assert.Equal(t, "localhost:8080", got["host"])
		assert.Equal(t, "/test", got["path"])
		assert.Equal(t, "HTTP/1.1", got["proto"])
		assert.Equal(t, map[string][]string{"query": {"1"}}, got["query"])
		assert.Equal(t, map[string][]string{"Content-Type": {"application/json"}}, got["headers"])
		assert.Equal(t, body, got["body"])
		assert.Equal(t, int64(len(body)), got["contentLength"])
		assert.Equal(t, "127.0.0.1:12345", got["remoteAddr"])

		again, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		assert.Equal(t, body, string(again), "body is restored")
	})

	t.Run("no body and no url", func(t *testing.T) {
		t.Parallel()
		got, err := RequestToMap(&http.Request{Method: http.MethodGet})
		require.NoError(t, err)
		assert.Equal(t, "/", got["path"])
		assert.Equal(t, "", got["body"])
		assert.Empty(t, got["headers"])
	})

	t.Run("nil request", func(t *testing.T) {
		t.Parallel()
		_, err := RequestToMap(nil)
		require.ErrorIs(t, err, ErrNilRequest)
	})

	t.Run("body read failure", func(t *testing.T) {
		t.Parallel()
		req, err := http.NewRequest(http.MethodPut, "http://localhost/", io.NopCloser(failingReader{}))
		require.NoError(t, err)
		_, err = RequestToMap(req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading request body")
	})
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("forced read error") }
