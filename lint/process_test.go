package lint

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoswap-labs/apigate/internal"
)

const testDatabase = `symbols:
  example.com/platform/camera.Open: "api >= 21"
  example.com/platform/photo.Pick: "api >= 34 || ext(R) >= 4"
checks:
  example.com/compat.IsAtLeastU: {api: "34"}
`

const testConfig = `name: test
api_database: apidb.yaml
rules:
  obsolete-sdk-int:
    severity: WARNING
`

// setupProject writes a configuration, an API database and the given Go
// files to a temporary directory and returns the directory and the
// configuration path.
func setupProject(t *testing.T, files map[string]string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "apidb.yaml"), []byte(testDatabase), 0o644))
	configPath := filepath.Join(dir, DefaultConfigFile)
	require.NoError(t, os.WriteFile(configPath, []byte(testConfig), 0o644))
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir, configPath
}

const cameraSource = `package app

import (
	"example.com/platform/build"
	"example.com/platform/camera"
)

func open() {
	camera.Open()
	if build.SDK_INT >= 21 {
		camera.Open()
	}
}
`

const photoSource = `package app

import (
	"example.com/compat"
	"example.com/platform/photo"
)

func pick() {
	if compat.IsAtLeastU() {
		photo.Pick()
	}
	photo.Pick()
}
`

func TestProcessPathWithEngine(t *testing.T) {
	t.Parallel()

	dir, configPath := setupProject(t, map[string]string{
		"camera.go": cameraSource,
		"photo.go":  photoSource,
	})

	engine, err := New(configPath, Options{})
	require.NoError(t, err)

	issues, err := ProcessPath(context.Background(), nil, engine, dir, ProcessFile)
	require.NoError(t, err)
	require.Len(t, issues, 2)

	assert.Equal(t, filepath.Join(dir, "camera.go"), issues[0].Filename)
	assert.Equal(t, internal.APILevel, issues[0].Rule)
	assert.Equal(t, 9, issues[0].Start.Line)

	assert.Equal(t, filepath.Join(dir, "photo.go"), issues[1].Filename)
	assert.Equal(t, "Call requires API level 34 (current min is 0): photo.Pick", issues[1].Message)
	assert.Equal(t, 12, issues[1].Start.Line)
}

func TestMinSDKOverride(t *testing.T) {
	t.Parallel()

	dir, configPath := setupProject(t, map[string]string{"camera.go": cameraSource})

	engine, err := New(configPath, Options{MinSDK: "21"})
	require.NoError(t, err)

	issues, err := ProcessPath(context.Background(), nil, engine, filepath.Join(dir, "camera.go"), ProcessFile)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, internal.ObsoleteSDKInt, issues[0].Rule)
	assert.Equal(t, 10, issues[0].Start.Line)

	_, err = New(configPath, Options{MinSDK: "api >="})
	assert.Error(t, err)
}

func TestProcessPathWithCache(t *testing.T) {
	t.Parallel()

	dir, configPath := setupProject(t, map[string]string{"camera.go": cameraSource})
	cacheDir := filepath.Join(dir, ".cache")

	engine, err := New(configPath, Options{CacheDir: cacheDir})
	require.NoError(t, err)
	first, err := ProcessPath(context.Background(), nil, engine, dir, ProcessFile)
	require.NoError(t, err)

	fresh, err := New(configPath, Options{CacheDir: cacheDir})
	require.NoError(t, err)
	second, err := ProcessPath(context.Background(), nil, fresh, dir, ProcessFile)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestProcessPathContextCancellation(t *testing.T) {
	t.Parallel()

	files := make(map[string]string)
	for i := 0; i < 10; i++ {
		files[fmt.Sprintf("test%d.go", i)] = fmt.Sprintf("package main\n\nfunc test%d() {}\n", i)
	}
	dir, configPath := setupProject(t, files)

	engine, err := New(configPath, Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = ProcessPath(ctx, nil, engine, dir, ProcessFile)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConcurrentProcessingWithErrors(t *testing.T) {
	t.Parallel()

	files := map[string]string{"invalid.go": "this is not valid go code"}
	for i := 0; i < 3; i++ {
		files[fmt.Sprintf("valid%d.go", i)] = strings.Replace(cameraSource, "func open()", fmt.Sprintf("func open%d()", i), 1)
	}
	dir, configPath := setupProject(t, files)

	engine, err := New(configPath, Options{})
	require.NoError(t, err)

	issues, err := ProcessPath(context.Background(), nil, engine, dir, ProcessFile, WithWorkers(2))
	require.NoError(t, err, "a broken file is logged and skipped")

	byFile := make(map[string]int)
	for _, issue := range issues {
		byFile[filepath.Base(issue.Filename)]++
	}
	assert.Equal(t, map[string]int{"valid0.go": 1, "valid1.go": 1, "valid2.go": 1}, byFile)
}

func TestErrorPropagationSingleFile(t *testing.T) {
	t.Parallel()

	dir, configPath := setupProject(t, map[string]string{"invalid.go": "this is not valid go code"})

	engine, err := New(configPath, Options{})
	require.NoError(t, err)

	issues, err := ProcessPath(context.Background(), nil, engine, filepath.Join(dir, "invalid.go"), ProcessFile)
	assert.Error(t, err)
	assert.Empty(t, issues)

	_, err = ProcessPath(context.Background(), nil, engine, filepath.Join(dir, "missing.go"), ProcessFile)
	assert.Error(t, err)
}
