package data

import (
	"context"
	"net/http"
	"net/url"

	"github.com/stretchr/testify/mock"
)

var (
	simpleData = map[string]any{
		"string": "value",
		"int":    42,
		"bool":   true,
	}

	complexData = map[string]any{
		"string": "value",
		"nested": map[string]any{
			"key":   "nested value",
			"inner": map[string]any{"deep": "very deep"},
		},
		"array": []string{"one", "two", "three"},
	}
)

func newTestRequest() *http.Request {
	return &http.Request{
		Method: "GET",
		URL:    &url.URL{Path: "/test", RawQuery: "param=value"},
		Header: http.Header{"Content-Type": []string{"application/json"}},
	}
}

// MockProvider is a testify mock implementation of Provider.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) GetData(ctx context.Context) (map[string]any, error) {
	args := m.Called(ctx)
	d, _ := args.Get(0).(map[string]any)
	return d, args.Error(1)
}

func (m *MockProvider) AddDataToContext(
	ctx context.Context,
	data ...map[string]any,
) (context.Context, error) {
	args := m.Called(ctx, data)
	next, _ := args.Get(0).(context.Context)
	return next, args.Error(1)
}
