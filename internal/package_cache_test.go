package internal

import (
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackageKey(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeSource(t, dir, "a.go", "package a\n")
	b := writeSource(t, dir, "b.go", "package a\n\nfunc {\n")
	aTest := writeSource(t, dir, "a_test.go", "package a\n")
	ext := writeSource(t, dir, "x_test.go", "package a_test\n")

	keyA, err := packageKey(a)
	require.NoError(t, err)
	keyB, err := packageKey(b)
	require.NoError(t, err, "only the package clause is parsed")
	keyTest, err := packageKey(aTest)
	require.NoError(t, err)
	keyExt, err := packageKey(ext)
	require.NoError(t, err)

	assert.Equal(t, filepath.Clean(dir)+"#a", keyA)
	assert.Equal(t, keyA, keyB)
	assert.Equal(t, keyA+"#test", keyTest)
	assert.Equal(t, filepath.Clean(dir)+"#a_test#test", keyExt)

	_, err = packageKey(filepath.Join(dir, "missing.go"))
	assert.Error(t, err)
}

func TestPackageCacheLoadsOnce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeSource(t, dir, "a.go", "package a\n")
	b := writeSource(t, dir, "b.go", "package a\n")

	cache := newPackageCache()
	var builds atomic.Int32
	build := func() (*analyzedPackage, error) {
		builds.Add(1)
		return &analyzedPackage{}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := cache.load(a, build)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := cache.load(b, build)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load())
	assert.Equal(t, 1, cache.len())

	cache.invalidate(dir)
	assert.Equal(t, 0, cache.len())
	_, err := cache.load(a, build)
	require.NoError(t, err)
	assert.Equal(t, int32(2), builds.Load())
}

func TestPackageCacheBuildError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeSource(t, dir, "a.go", "package a\n")

	cache := newPackageCache()
	_, err := cache.load(a, func() (*analyzedPackage, error) {
		return nil, errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
	assert.Equal(t, 0, cache.len())
}
