package script

import (
	"io"

	"github.com/robbyt/go-metajs/engines/types"
	"github.com/stretchr/testify/mock"
)

type mockCompiler struct {
	mock.Mock
}

func (m *mockCompiler) Compile(r io.ReadCloser) (ExecutableContent, error) {
	args := m.Called(r)
	exe, _ := args.Get(0).(ExecutableContent)
	return exe, args.Error(1)
}

// readingCompiler returns the source it reads as content.
type readingCompiler struct{}

func (readingCompiler) Compile(r io.ReadCloser) (ExecutableContent, error) {
	defer func() { _ = r.Close() }()
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return textContent(b), nil
}

type textContent string

func (c textContent) GetSource() string          { return string(c) }
func (c textContent) GetProgram() any            { return nil }
func (c textContent) GetMachineType() types.Type { return types.MetaJS }
