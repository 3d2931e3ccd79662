package internal

import (
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/gnoswap-labs/apigate/internal/tree"
	"github.com/gnoswap-labs/apigate/internal/versioncheck"
)

type analyzedPackage struct {
	pkg *tree.Package
	res *versioncheck.Result
}

// packageCache holds one analysis per package directory, so every file
// of a package shares a single load.
type packageCache struct {
	mu      sync.RWMutex
	entries map[string]*analyzedPackage
	group   singleflight.Group
}

func newPackageCache() *packageCache {
	return &packageCache{entries: make(map[string]*analyzedPackage)}
}

// packageKey identifies the package a file belongs to: its directory, its
// package name and whether test files are included.
func packageKey(filename string) (string, error) {
	f, err := parser.ParseFile(token.NewFileSet(), filename, nil, parser.PackageClauseOnly)
	if err != nil {
		return "", err
	}
	key := filepath.Dir(filepath.Clean(filename)) + "#" + f.Name.Name
	if strings.HasSuffix(filename, "_test.go") {
		key += "#test"
	}
	return key, nil
}

func (c *packageCache) load(filename string, build func() (*analyzedPackage, error)) (*analyzedPackage, error) {
	key, err := packageKey(filename)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	ap, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return ap, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.RLock()
		ap, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return ap, nil
		}

		ap, err := build()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = ap
		c.mu.Unlock()
		return ap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*analyzedPackage), nil
}

func (c *packageCache) invalidate(dir string) {
	prefix := filepath.Clean(dir) + "#"
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
}

func (c *packageCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
