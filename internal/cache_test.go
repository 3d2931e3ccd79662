package internal

import (
	"go/token"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tt "github.com/gnoswap-labs/apigate/internal/types"
)

func sampleIssues(filename string) []tt.Issue {
	return []tt.Issue{{
		Rule:     APILevel,
		Category: "compatibility",
		Filename: filename,
		Message:  "Call requires API level 21 (current min is 0): camera.Open",
		Note:     "required api >= 21, proven true",
		Start:    token.Position{Filename: filename, Offset: 40, Line: 4, Column: 2},
		End:      token.Position{Filename: filename, Offset: 53, Line: 4, Column: 15},
		Severity: tt.SeverityWarning,
	}}
}

func TestCache(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	cache, err := NewCache(filepath.Join(tmpDir, "cache"))
	require.NoError(t, err)

	t.Run("SaveAndLoad", func(t *testing.T) {
		filename := filepath.Join(tmpDir, "a.go")
		writeTestFile(t, filename, "package main\n\nfunc main() {}\n")

		issues := sampleIssues(filename)
		require.NoError(t, cache.Set(filename, issues))

		got, found := cache.Get(filename)
		assert.True(t, found)
		assert.Equal(t, issues, got)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, found := cache.Get(filepath.Join(tmpDir, "nonexistent.go"))
		assert.False(t, found)
	})

	t.Run("FileModified", func(t *testing.T) {
		filename := filepath.Join(tmpDir, "modified.go")
		writeTestFile(t, filename, "package main\n\nfunc main() {}\n")
		require.NoError(t, cache.Set(filename, sampleIssues(filename)))

		writeTestFile(t, filename, "package main\n\nfunc main() { println(1) }\n")

		_, found := cache.Get(filename)
		assert.False(t, found)
	})

	t.Run("Expired", func(t *testing.T) {
		filename := filepath.Join(tmpDir, "expired.go")
		writeTestFile(t, filename, "package main\n")
		require.NoError(t, cache.Set(filename, nil))

		cache.SetMaxAge(-time.Second)
		defer cache.SetMaxAge(DefaultCacheMaxAge)

		_, found := cache.Get(filename)
		assert.False(t, found)
	})
}

func TestCacheSiblingChange(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cache, err := NewCache(filepath.Join(dir, ".cache"))
	require.NoError(t, err)

	main := filepath.Join(dir, "main.go")
	sibling := filepath.Join(dir, "compat.go")
	writeTestFile(t, main, "package app\n\nfunc main() { open() }\n")
	writeTestFile(t, sibling, "package app\n\nfunc open() {}\n")

	require.NoError(t, cache.Set(main, sampleIssues(main)))
	_, found := cache.Get(main)
	require.True(t, found)

	writeTestFile(t, sibling, "package app\n\nfunc open() { println() }\n")
	_, found = cache.Get(main)
	assert.False(t, found)
}

func TestCachePersistence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cacheDir := filepath.Join(dir, "cache")
	config := filepath.Join(dir, "config.yaml")
	filename := filepath.Join(dir, "a.go")
	writeTestFile(t, config, "min_sdk: \"21\"\n")
	writeTestFile(t, filename, "package main\n")

	first, err := NewCache(cacheDir, config)
	require.NoError(t, err)
	issues := sampleIssues(filename)
	require.NoError(t, first.Set(filename, issues))

	second, err := NewCache(cacheDir, config)
	require.NoError(t, err)
	got, found := second.Get(filename)
	require.True(t, found)
	assert.Equal(t, issues, got)

	writeTestFile(t, config, "min_sdk: \"24\"\n")
	third, err := NewCache(cacheDir, config)
	require.NoError(t, err)
	_, found = third.Get(filename)
	assert.False(t, found, "a changed dependency file drops every entry")
}

func TestCacheInvalidateAll(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cache, err := NewCache(filepath.Join(dir, "cache"))
	require.NoError(t, err)

	filename := filepath.Join(dir, "a.go")
	writeTestFile(t, filename, "package main\n")
	require.NoError(t, cache.Set(filename, sampleIssues(filename)))

	cache.InvalidateAll()
	_, found := cache.Get(filename)
	assert.False(t, found)
}

func TestCacheConcurrency(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cache, err := NewCache(filepath.Join(dir, "cache"))
	require.NoError(t, err)

	testFile := filepath.Join(dir, "test.go")
	writeTestFile(t, testFile, "package main\n\nfunc main() {}\n")
	issues := sampleIssues(testFile)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, cache.Set(testFile, issues))
		}()
		go func() {
			defer wg.Done()
			_, _ = cache.Get(testFile)
		}()
	}
	wg.Wait()

	got, found := cache.Get(testFile)
	assert.True(t, found)
	assert.Equal(t, issues, got)
}

// writeTestFile writes content and pushes the modification time forward,
// so rewrites within one second are still seen as changes.
func writeTestFile(t *testing.T, filename, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filename, []byte(content), 0o644))

	info, err := os.Stat(filename)
	require.NoError(t, err)
	mtime := info.ModTime().Add(time.Second)
	require.NoError(t, os.Chtimes(filename, mtime, mtime))
}
