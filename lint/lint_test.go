package lint

import (
	"bytes"
	"context"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/apigate/internal/types"
)

type mockLintEngine struct {
	mock.Mock
}

func (m *mockLintEngine) Run(filePath string) ([]types.Issue, error) {
	args := m.Called(filePath)
	return args.Get(0).([]types.Issue), args.Error(1)
}

func (m *mockLintEngine) RunSource(source []byte) ([]types.Issue, error) {
	args := m.Called(source)
	return args.Get(0).([]types.Issue), args.Error(1)
}

func (m *mockLintEngine) IgnoreRule(rule string) {
	m.Called(rule)
}

func (m *mockLintEngine) IgnorePath(path string) {
	m.Called(path)
}

func issueAt(rule, filename, message string) types.Issue {
	return types.Issue{
		Rule:     rule,
		Filename: filename,
		Start:    token.Position{Filename: filename, Offset: 0, Line: 1, Column: 1},
		End:      token.Position{Filename: filename, Offset: 10, Line: 1, Column: 11},
		Message:  message,
	}
}

func TestProcessFile(t *testing.T) {
	t.Parallel()
	expectedIssues := []types.Issue{issueAt("api-level", "test.go", "Test issue")}
	mockEngine := new(mockLintEngine)
	mockEngine.On("Run", "test.go").Return(expectedIssues, nil)

	issues, err := ProcessFile(mockEngine, "test.go")

	assert.NoError(t, err)
	assert.Equal(t, expectedIssues, issues)
	mockEngine.AssertExpectations(t)
}

func TestProcessSource(t *testing.T) {
	t.Parallel()
	expectedIssues := []types.Issue{issueAt("api-level", "", "Test issue")}
	mockEngine := new(mockLintEngine)
	mockEngine.On("RunSource", []byte("package main")).Return(expectedIssues, nil)

	issues, err := ProcessSource(mockEngine, []byte("package main"))

	assert.NoError(t, err)
	assert.Equal(t, expectedIssues, issues)
	mockEngine.AssertExpectations(t)
}

func TestProcessPath(t *testing.T) {
	t.Parallel()
	logger := zap.NewNop()
	ctx := context.Background()

	tempDir := t.TempDir()
	paths := createTempFiles(t, tempDir, "test1.go", "test2.go")
	createTempFiles(t, tempDir, "notes.txt")
	require.NoError(t, os.MkdirAll(filepath.Join(tempDir, "testdata"), 0o755))
	createTempFiles(t, filepath.Join(tempDir, "testdata"), "skipped.go")

	expectedIssues := []types.Issue{
		issueAt("rule1", paths[0], "Test issue 1"),
		issueAt("rule2", paths[1], "Test issue 2"),
	}

	mockEngine := new(mockLintEngine)
	mockEngine.On("Run", paths[0]).Return([]types.Issue{expectedIssues[0]}, nil)
	mockEngine.On("Run", paths[1]).Return([]types.Issue{expectedIssues[1]}, nil)

	var progress bytes.Buffer
	issues, err := ProcessPath(ctx, logger, mockEngine, tempDir, ProcessFile, WithProgress(&progress))

	assert.NoError(t, err)
	assert.Equal(t, expectedIssues, issues, "issues keep the walk order")
	assert.NotEmpty(t, progress.String())
	mockEngine.AssertExpectations(t)
}

func TestProcessFiles(t *testing.T) {
	t.Parallel()
	logger := zap.NewNop()
	ctx := context.Background()

	tempDir := t.TempDir()
	paths := createTempFiles(t, tempDir, "test1.go", "test2.go")

	expectedIssues := []types.Issue{
		issueAt("rule1", paths[0], "Test issue 1"),
		issueAt("rule2", paths[1], "Test issue 2"),
	}

	mockEngine := new(mockLintEngine)
	mockEngine.On("Run", paths[0]).Return([]types.Issue{expectedIssues[0]}, nil)
	mockEngine.On("Run", paths[1]).Return([]types.Issue{expectedIssues[1]}, nil)

	issues, err := ProcessFiles(ctx, logger, mockEngine, paths, ProcessFile)

	assert.NoError(t, err)
	assert.Equal(t, expectedIssues, issues)
	mockEngine.AssertExpectations(t)
}

func TestProcessSources(t *testing.T) {
	t.Parallel()
	logger := zap.NewNop()
	ctx := context.Background()

	expectedIssues := []types.Issue{
		issueAt("rule1", "", "Test issue 1"),
		issueAt("rule2", "", "Test issue 2"),
	}

	mockEngine := new(mockLintEngine)
	mockEngine.On("RunSource", []byte("package main1")).Return([]types.Issue{expectedIssues[0]}, nil)
	mockEngine.On("RunSource", []byte("package main2")).Return([]types.Issue{expectedIssues[1]}, nil)

	issues, err := ProcessSources(ctx, logger, mockEngine, [][]byte{[]byte("package main1"), []byte("package main2")}, ProcessSource)

	assert.NoError(t, err)
	assert.Equal(t, expectedIssues, issues)
	mockEngine.AssertExpectations(t)
}

func TestHasDesiredExtension(t *testing.T) {
	t.Parallel()
	assert.True(t, hasDesiredExtension("test.go"))
	assert.True(t, hasDesiredExtension("test_test.go"))
	assert.False(t, hasDesiredExtension("test.go.orig"))
	assert.False(t, hasDesiredExtension("test.txt"))
	assert.False(t, hasDesiredExtension("test"))
}

func TestSkipDir(t *testing.T) {
	t.Parallel()
	for name, want := range map[string]bool{
		"vendor":   true,
		"testdata": true,
		".git":     true,
		"_build":   true,
		"internal": false,
		"cmd":      false,
	} {
		assert.Equal(t, want, skipDir(name), name)
	}
}

func createTempFiles(t *testing.T, dir string, fileNames ...string) []string {
	t.Helper()
	paths := make([]string, 0, len(fileNames))
	for _, fileName := range fileNames {
		filePath := filepath.Join(dir, fileName)
		f, err := os.Create(filePath)
		require.NoError(t, err)
		require.NoError(t, f.Close())
		paths = append(paths, filePath)
	}
	return paths
}
