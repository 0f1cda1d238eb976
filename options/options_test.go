package options

import (
	"io"
	"log/slog"
	"net/url"
	"testing"

	"github.com/robbyt/go-metajs/engines/metajs/compiler"
	"github.com/robbyt/go-metajs/engines/metajs/vm"
	"github.com/robbyt/go-metajs/platform/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockLoader is a testify mock implementation of loader.Loader for testing
type MockLoader struct {
	mock.Mock
}

func (m *MockLoader) GetReader() (io.ReadCloser, error) {
	args := m.Called()
	reader, _ := args.Get(0).(io.ReadCloser)
	return reader, args.Error(1)
}

func (m *MockLoader) GetSourceURL() *url.URL {
	args := m.Called()
	u, _ := args.Get(0).(*url.URL)
	return u
}

func newMockLoader(t *testing.T, rawURL string) *MockLoader {
	t.Helper()
	l := new(MockLoader)
	if rawURL == "" {
		l.On("GetSourceURL").Return(nil).Maybe()
		return l
	}
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	l.On("GetSourceURL").Return(u).Maybe()
	return l
}

func TestApply(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		cfg, err := Apply()
		require.NoError(t, err)
		assert.NotNil(t, cfg.GetHandler())
		assert.IsType(t, &data.ContextProvider{}, cfg.GetDataProvider())
		require.ErrorIs(t, cfg.Validate(), ErrNoLoader)
	})

	t.Run("explicit values", func(t *testing.T) {
		t.Parallel()
		handler := slog.NewTextHandler(io.Discard, nil)
		provider := data.NewStaticProvider(map[string]any{"a": 1})
		l := newMockLoader(t, "file:///mock.js")

		cfg, err := Apply(
			WithLogHandler(handler),
			WithDataProvider(provider),
			WithLoader(l),
			WithStaticData(map[string]any{"x": 1, "y": 1}),
			WithStaticData(map[string]any{"y": 2}),
			WithCompilerOptions(compiler.WithGlobals([]string{"request"})),
			WithMachineOptions(vm.WithName("test"), vm.WithStrictAssignment(true)),
		)
		require.NoError(t, err)
		require.NoError(t, cfg.Validate())

		assert.Equal(t, handler, cfg.GetHandler())
		assert.Equal(t, provider, cfg.GetDataProvider())
		assert.Equal(t, l, cfg.GetLoader())
		assert.Equal(t, map[string]any{"x": 1, "y": 2}, cfg.GetStaticData())
		assert.Len(t, cfg.GetCompilerOptions(), 1)
		assert.Len(t, cfg.GetMachineOptions(), 2)
		assert.Equal(t, "file:///mock.js", cfg.GetVersionID())
	})

	t.Run("nil values are ignored", func(t *testing.T) {
		t.Parallel()
		cfg, err := Apply(WithLogHandler(nil), WithDataProvider(nil), WithLoader(nil), WithStaticData(nil))
		require.NoError(t, err)
		assert.NotNil(t, cfg.GetHandler())
		assert.NotNil(t, cfg.GetDataProvider())
		assert.Nil(t, cfg.GetLoader())
		assert.Nil(t, cfg.GetStaticData())
	})

	t.Run("option error stops", func(t *testing.T) {
		t.Parallel()
		_, err := Apply(WithVersionID(""))
		require.ErrorIs(t, err, ErrEmptyVersion)
	})
}

func TestGetVersionID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  func(t *testing.T) *Config
		want string
	}{
		{
			name: "no loader",
			cfg:  func(*testing.T) *Config { return &Config{} },
			want: "",
		},
		{
			name: "loader without url",
			cfg: func(t *testing.T) *Config {
				return &Config{loader: newMockLoader(t, "")}
			},
			want: "",
		},
		{
			name: "loader url",
			cfg: func(t *testing.T) *Config {
				return &Config{loader: newMockLoader(t, "string://inline/abcd1234")}
			},
			want: "string://inline/abcd1234",
		},
		{
			name: "explicit id wins",
			cfg: func(t *testing.T) *Config {
				return &Config{loader: newMockLoader(t, "string://inline/abcd1234"), versionID: "v2"}
			},
			want: "v2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.cfg(t).GetVersionID())
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := &Config{loader: newMockLoader(t, "")}
	require.ErrorIs(t, cfg.Validate(), ErrNoProvider)

	require.NoError(t, WithDefaults()(cfg))
	require.NoError(t, cfg.Validate())
}
