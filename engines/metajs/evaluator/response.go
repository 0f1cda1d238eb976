package evaluator

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robbyt/go-metajs/engines/metajs/internal"
	"github.com/robbyt/go-metajs/engines/metajs/vm"
	"github.com/robbyt/go-metajs/internal/helpers"
	"github.com/robbyt/go-metajs/platform/data"
)

// execResult is the completion value of one evaluation.
type execResult struct {
	Value       vm.Value
	execTime    time.Duration
	scriptExeID string
	logHandler  slog.Handler
	logger      *slog.Logger
}

func newEvalResult(handler slog.Handler, value vm.Value, execTime time.Duration, scriptExeID string) *execResult {
	handler, logger := helpers.SetupLogger(handler, "metajs", "execResult")
	if value == nil {
		value = vm.Undefined
	}
	return &execResult{
		Value:       value,
		execTime:    execTime,
		scriptExeID: scriptExeID,
		logHandler:  handler,
		logger:      logger,
	}
}

func (r *execResult) String() string {
	return fmt.Sprintf(
		"execResult{Type: %s, Value: %s, ExecTime: %s, ScriptExeID: %s}",
		r.Type(), r.Inspect(), r.GetExecTime(), r.GetScriptExeID(),
	)
}

func (r *execResult) Type() data.Types {
	switch v := r.Value.(type) {
	case vm.Bool:
		return data.BOOL
	case vm.Number:
		return data.FLOAT
	case vm.String:
		return data.STRING
	case *vm.Object:
		switch {
		case v.Callable():
			return data.FUNCTION
		case v.IsArray():
			return data.LIST
		case v.Class() == "Error":
			return data.ERROR
		}
		if p, ok := v.Primitive(); ok {
			return newEvalResult(r.logHandler, p, 0, "").Type()
		}
		return data.MAP
	}
	return data.NONE
}

func (r *execResult) GetScriptExeID() string {
	return r.scriptExeID
}

func (r *execResult) GetExecTime() string {
	return r.execTime.String()
}

func (r *execResult) Inspect() string {
	return vm.Inspect(r.Value)
}

// Interface returns the value as plain Go data, or nil when it cannot be converted.
func (r *execResult) Interface() any {
	v, err := internal.ConvertValueToInterface(r.Value)
	if err != nil {
		r.logger.Error("Failed to convert metajs value to interface", "error", err)
		return nil
	}
	return v
}
