package script

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robbyt/go-metajs/engines/types"
	"github.com/robbyt/go-metajs/internal/helpers"
	"github.com/robbyt/go-metajs/platform/data"
	"github.com/robbyt/go-metajs/platform/script/loader"
)

const checksumLength = 12

// ExecutableUnit is one compiled version of a script together with the loader it came
// from and the data provider its evaluations read from. It is the "compile once" half
// of compile once, run many times.
type ExecutableUnit struct {
	// ID is the caller-supplied version, or a content checksum prefix.
	ID string

	CreatedAt    time.Time
	ScriptLoader loader.Loader
	Compiler     Compiler
	DataProvider data.Provider

	mu      sync.RWMutex
	content ExecutableContent

	logHandler slog.Handler
	logger     *slog.Logger
}

// NewExecutableUnit loads and compiles a script. When staticData is non-empty it is
// served ahead of dataProvider through a CompositeProvider, so runtime values override
// compile-time ones.
func NewExecutableUnit(
	handler slog.Handler,
	versionID string,
	scriptLoader loader.Loader,
	compiler Compiler,
	dataProvider data.Provider,
	staticData map[string]any,
) (*ExecutableUnit, error) {
	handler, logger := helpers.SetupLogger(handler, "script", "ExecutableUnit")

	if compiler == nil {
		return nil, ErrCompilerNil
	}
	if scriptLoader == nil {
		return nil, ErrLoaderNil
	}

	exe, err := compileFrom(scriptLoader, compiler)
	if err != nil {
		return nil, err
	}

	if versionID == "" {
		versionID = checksum(exe.GetSource())
	}

	return &ExecutableUnit{
		ID:           versionID,
		CreatedAt:    time.Now(),
		ScriptLoader: scriptLoader,
		Compiler:     compiler,
		DataProvider: combineProviders(staticData, dataProvider),
		content:      exe,
		logHandler:   handler,
		logger:       logger.With("ID", versionID),
	}, nil
}

func compileFrom(l loader.Loader, c Compiler) (ExecutableContent, error) {
	reader, err := l.GetReader()
	if err != nil {
		return nil, fmt.Errorf("failed to get reader from loader: %w", err)
	}
	exe, err := c.Compile(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompiler, err)
	}
	return exe, nil
}

func checksum(source string) string {
	return helpers.Fingerprint([]byte(source), checksumLength)
}

func combineProviders(staticData map[string]any, runtime data.Provider) data.Provider {
	switch {
	case len(staticData) == 0 && runtime != nil:
		return runtime
	case runtime == nil:
		return data.NewStaticProvider(staticData)
	default:
		return data.NewCompositeProvider(data.NewStaticProvider(staticData), runtime)
	}
}

func (exe *ExecutableUnit) String() string {
	return fmt.Sprintf("ExecutableUnit{ID: %s, CreatedAt: %s, Compiler: %s, Loader: %s}",
		exe.ID, exe.CreatedAt, exe.Compiler, exe.ScriptLoader)
}

// Reload recompiles the script from its loader. It returns ErrOldContent, leaving the
// unit untouched, when the source checksum is unchanged. A failed compile also leaves
// the previous content in place.
func (exe *ExecutableUnit) Reload() error {
	next, err := compileFrom(exe.ScriptLoader, exe.Compiler)
	if err != nil {
		exe.logger.Warn("reload failed", "error", err)
		return err
	}

	exe.mu.Lock()
	defer exe.mu.Unlock()
	if checksum(next.GetSource()) == checksum(exe.content.GetSource()) {
		return ErrOldContent
	}
	exe.content = next
	exe.logger.Info("script reloaded", "checksum", checksum(next.GetSource()))
	return nil
}

// GetID returns the version identifier of this unit.
func (exe *ExecutableUnit) GetID() string {
	return exe.ID
}

// GetContent returns the current compiled content.
func (exe *ExecutableUnit) GetContent() ExecutableContent {
	exe.mu.RLock()
	defer exe.mu.RUnlock()
	return exe.content
}

func (exe *ExecutableUnit) GetCreatedAt() time.Time {
	return exe.CreatedAt
}

// GetMachineType returns the engine type this script is intended to run on.
func (exe *ExecutableUnit) GetMachineType() types.Type {
	return exe.GetContent().GetMachineType()
}

func (exe *ExecutableUnit) GetCompiler() Compiler {
	return exe.Compiler
}

func (exe *ExecutableUnit) GetLoader() loader.Loader {
	return exe.ScriptLoader
}

// GetDataProvider returns the provider evaluations read their ctx data from.
func (exe *ExecutableUnit) GetDataProvider() data.Provider {
	return exe.DataProvider
}
