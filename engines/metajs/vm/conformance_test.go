package vm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type conformanceCase struct {
	Name    string `yaml:"name"`
	Source  string `yaml:"source"`
	Inspect string `yaml:"inspect"`
	Error   string `yaml:"error"`
}

func loadConformance(t *testing.T) []conformanceCase {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", "conformance.yaml"))
	require.NoError(t, err)
	var doc struct {
		Cases []conformanceCase `yaml:"cases"`
	}
	require.NoError(t, yaml.Unmarshal(raw, &doc))
	require.NotEmpty(t, doc.Cases)
	return doc.Cases
}

func TestConformance(t *testing.T) {
	t.Parallel()

	for _, tc := range loadConformance(t) {
		t.Run(tc.Name, func(t *testing.T) {
			t.Parallel()
			m, _ := newTestMachine(t)
			v, err := m.RunString(t.Context(), tc.Source)
			if tc.Error != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.Error)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.Inspect, Inspect(v))
		})
	}
}

// TestConformanceUnderInterceptor checks that observing every step does not change results.
func TestConformanceUnderInterceptor(t *testing.T) {
	t.Parallel()

	for _, tc := range loadConformance(t) {
		if tc.Error != "" {
			continue
		}
		t.Run(tc.Name, func(t *testing.T) {
			t.Parallel()
			steps := 0
			m, _ := newTestMachine(t, WithInterceptor(func(e Event) {
				steps++
				if e.Phase == PhaseApply && steps%2 == 0 {
					e.Pause().Resume()
				}
			}))
			v, err := m.RunString(t.Context(), tc.Source)
			require.NoError(t, err)
			assert.Equal(t, tc.Inspect, Inspect(v))
			assert.Positive(t, steps)
		})
	}
}
