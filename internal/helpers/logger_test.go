package helpers

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	t.Parallel()

	t.Run("nil handler gets a default", func(t *testing.T) {
		t.Parallel()
		h, l := SetupLogger(nil, "metajs", "Compiler")
		require.NotNil(t, h)
		require.NotNil(t, l)
	})

	t.Run("group is applied", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		h, l := SetupLogger(slog.NewTextHandler(&buf, nil), "metajs", "Evaluator")
		require.NotNil(t, h)
		l.Info("ran", "n", 1)
		assert.Contains(t, buf.String(), "Evaluator.n=1")
	})

	t.Run("no group", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		_, l := SetupLogger(slog.NewTextHandler(&buf, nil), "metajs", "")
		l.Info("ran", "n", 1)
		assert.Contains(t, buf.String(), " n=1")
	})
}
