package helpers

import (
	"log/slog"
	"os"
)

// SetupLogger returns handler and a logger grouped under groupName. A nil handler is
// replaced by a stderr text handler grouped under engine, so script output written to
// stdout stays separate from diagnostics.
func SetupLogger(handler slog.Handler, engine string, groupName string) (slog.Handler, *slog.Logger) {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, nil).WithGroup(engine)
		slog.New(handler).Debug("handler is nil, using the default logger configuration")
	}

	if groupName == "" {
		return handler, slog.New(handler)
	}
	return handler, slog.New(handler.WithGroup(groupName))
}
