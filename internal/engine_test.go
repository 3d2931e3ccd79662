package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoswap-labs/apigate/internal/apidb"
	"github.com/gnoswap-labs/apigate/internal/apilevel/expr"
	tt "github.com/gnoswap-labs/apigate/internal/types"
	"github.com/gnoswap-labs/apigate/internal/versioncheck"
)

const guardedSource = `package app

import (
	"example.com/platform/build"
	"example.com/platform/camera"
)

func open() {
	camera.Open()
	if build.SDK_INT >= 21 {
		camera.Open()
	}
	if build.SDK_INT >= 21 {
		if build.SDK_INT >= 19 {
		}
	}
	camera.Open() //nolint:api-level
}
`

func newTestEngine(t *testing.T, rules map[string]tt.ConfigRule, opts ...EngineOption) *Engine {
	t.Helper()
	db := apidb.New()
	db.AddRequirement("example.com/platform/camera.Open", expr.MustParse("api >= 21"))
	engine, err := NewEngine(versioncheck.New(db, versioncheck.WithMetadata(db)), rules, opts...)
	require.NoError(t, err)
	return engine
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewEngine(t *testing.T) {
	t.Parallel()

	_, err := NewEngine(nil, nil)
	assert.Error(t, err)

	engine := newTestEngine(t, nil)
	assert.Contains(t, engine.rules, APILevel)
	assert.Contains(t, engine.rules, ObsoleteSDKInt)
	assert.Contains(t, engine.rules, InvalidDirective)
	assert.Equal(t, tt.SeverityError, engine.rules[APILevel].Severity())
	assert.Equal(t, tt.SeverityWarning, engine.rules[ObsoleteSDKInt].Severity())
}

func TestEngine_ConfiguredRules(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, map[string]tt.ConfigRule{
		APILevel:       {Severity: tt.SeverityWarning},
		ObsoleteSDKInt: {Severity: tt.SeverityOff},
		"no-such-rule": {Severity: tt.SeverityError},
	})
	assert.Equal(t, tt.SeverityWarning, engine.rules[APILevel].Severity())
	assert.True(t, engine.ignoredRules[ObsoleteSDKInt])
	assert.NotContains(t, engine.rules, "no-such-rule")
}

func TestEngine_Run(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	filename := writeSource(t, dir, "open.go", guardedSource)

	engine := newTestEngine(t, nil)
	issues, err := engine.Run(filename)
	require.NoError(t, err)
	require.Len(t, issues, 2)

	assert.Equal(t, APILevel, issues[0].Rule)
	assert.Equal(t, 9, issues[0].Start.Line)
	assert.Equal(t, filename, issues[0].Filename)
	assert.Equal(t, "Call requires API level 21 (current min is 0): camera.Open", issues[0].Message)
	assert.Equal(t, tt.SeverityError, issues[0].Severity)

	assert.Equal(t, ObsoleteSDKInt, issues[1].Rule)
	assert.Equal(t, 14, issues[1].Start.Line)
	assert.Equal(t, tt.SeverityWarning, issues[1].Severity)
}

func TestEngine_RunSource(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, nil)
	engine.IgnoreRule(ObsoleteSDKInt)

	issues, err := engine.RunSource([]byte(guardedSource))
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, APILevel, issues[0].Rule)

	_, err = engine.RunSource([]byte("package app\nfunc {"))
	assert.Error(t, err)
}

func TestEngine_RunInvalidDirective(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	filename := writeSource(t, dir, "open.go", `package app

import "example.com/platform/camera"

//apigate:requires api >=
func open() {
	camera.Open()
}
`)

	engine := newTestEngine(t, nil)
	issues, err := engine.Run(filename)
	require.NoError(t, err)
	require.Len(t, issues, 2)

	assert.Equal(t, InvalidDirective, issues[0].Rule)
	assert.Equal(t, 6, issues[0].Start.Line)
	assert.Contains(t, issues[0].Message, "invalid requires directive")
	assert.Equal(t, "directive", issues[0].Category)

	assert.Equal(t, APILevel, issues[1].Rule)
	assert.Equal(t, 7, issues[1].Start.Line)
}

func TestEngine_IgnoreRule(t *testing.T) {
	t.Parallel()
	engine := &Engine{}
	engine.IgnoreRule("test_rule")

	assert.True(t, engine.ignoredRules["test_rule"])
}

func TestEngine_IgnorePath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	filename := writeSource(t, dir, "open.go", guardedSource)

	engine := newTestEngine(t, nil)
	engine.IgnorePath(dir)
	issues, err := engine.Run(filename)
	require.NoError(t, err)
	assert.Empty(t, issues)

	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"testdata", "testdata/a.go", true},
		{"testdata", "testdata2/a.go", false},
		{"*_gen.go", "api_gen.go", true},
		{"*_gen.go", "pkg/api_gen.go", true},
		{"./gen/", "gen/sub/a.go", true},
		{"gen/*.go", "gen/a.go", true},
		{"gen/*.go", "gen/sub/a.go", false},
	}
	for _, tc := range tests {
		e := &Engine{}
		e.IgnorePath(tc.pattern)
		assert.Equal(t, tc.want, e.isIgnoredPath(tc.path), "%s vs %s", tc.pattern, tc.path)
	}
}

func TestEngine_RunWithHelperInSibling(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeSource(t, dir, "compat.go", `package app

import "example.com/platform/build"

func isLollipop() bool { return build.SDK_INT >= 21 }
`)
	filename := writeSource(t, dir, "main.go", `package app

import "example.com/platform/camera"

func main() {
	if isLollipop() {
		camera.Open()
	}
}
`)

	engine := newTestEngine(t, nil)
	issues, err := engine.Run(filename)
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Equal(t, 1, engine.packages.len())
}

func TestEngine_RunParseError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	filename := writeSource(t, dir, "broken.go", "package app\n\nfunc {\n")

	engine := newTestEngine(t, nil)
	_, err := engine.Run(filename)
	assert.Error(t, err)
}

func TestEngine_Invalidate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	filename := writeSource(t, dir, "open.go", guardedSource)

	engine := newTestEngine(t, nil)
	engine.IgnoreRule(ObsoleteSDKInt)

	issues, err := engine.Run(filename)
	require.NoError(t, err)
	assert.Len(t, issues, 1)

	writeSource(t, dir, "open.go", `package app

import "example.com/platform/camera"

func open() {
	camera.Open()
	camera.Open()
}
`)
	issues, err = engine.Run(filename)
	require.NoError(t, err)
	assert.Len(t, issues, 1, "the package analysis is reused until invalidated")

	engine.Invalidate(dir)
	issues, err = engine.Run(filename)
	require.NoError(t, err)
	assert.Len(t, issues, 2)
}

func TestEngine_WithCache(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	filename := writeSource(t, dir, "open.go", guardedSource)

	cache, err := NewCache(filepath.Join(dir, ".cache"))
	require.NoError(t, err)
	engine := newTestEngine(t, nil, WithCache(cache))

	issues, err := engine.Run(filename)
	require.NoError(t, err)

	cached, found := cache.Get(filename)
	require.True(t, found)
	assert.Equal(t, issues, cached)

	again, err := engine.Run(filename)
	require.NoError(t, err)
	assert.Equal(t, issues, again)
}

func TestReadSourceCode(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	filename := writeSource(t, dir, "a.go", "package a\n\nfunc f() {}\n")

	sc, err := ReadSourceCode(filename)
	require.NoError(t, err)
	assert.Equal(t, []string{"package a", "", "func f() {}", ""}, sc.Lines)

	_, err = ReadSourceCode(filepath.Join(dir, "missing.go"))
	assert.Error(t, err)
}
