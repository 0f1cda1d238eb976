package helpers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
)

// ErrNilRequest is returned by RequestToMap for a nil request.
var ErrNilRequest = errors.New("request is nil")

// RequestToMap flattens an http.Request into a map scripts can read with plain
// property access (ctx.request.method, ctx.request.query.id[0], ...). The body is
// read fully and then restored on the request so later handlers still see it.
func RequestToMap(r *http.Request) (map[string]any, error) {
	if r == nil {
		return nil, ErrNilRequest
	}

	u := r.URL
	if u == nil {
		u = &url.URL{Path: "/"}
	}

	body := ""
	if r.Body != nil {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("reading request body: %w", err)
		}
		r.Body = io.NopCloser(bytes.NewReader(b))
		body = string(b)
	}

	headers := make(map[string][]string, len(r.Header))
	maps.Copy(headers, r.Header)

	return map[string]any{
		"method":        r.Method,
		"url":           u.String(),
		"scheme":        u.Scheme,
		"host":          r.Host,
		"path":          u.Path,
		"proto":         r.Proto,
		"headers":       headers,
		"query":         map[string][]string(u.Query()),
		"body":          body,
		"contentLength": r.ContentLength,
		"remoteAddr":    r.RemoteAddr,
	}, nil
}
