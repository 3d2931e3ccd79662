package apidb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoswap-labs/apigate/internal/apilevel"
)

const sampleDatabase = `
symbols:
  example.com/platform/camera.Open: "api >= 21"
  example.com/platform/photo.Pick: "api >= 34 || ext(R) >= 4"
checks:
  example.com/compat.IsAtLeastU:
    api: "34"
  example.com/compat.RunOn:
    parameter: 0
    lambda: 1
  example.com/compat.HasAdServices:
    api: "4"
    extension: AD_SERVICES
`

func TestLoad(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "apidb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDatabase), 0o644))

	db, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, db.Len())

	req, ok := db.Requirement("example.com/platform/camera.Open")
	require.True(t, ok)
	assert.Equal(t, "api >= 21", req.String())

	req, ok = db.Requirement("example.com/platform/photo.Pick")
	require.True(t, ok)
	assert.Equal(t, 2, req.Len())

	_, ok = db.Requirement("example.com/platform/camera.Close")
	assert.False(t, ok)

	meta, ok := db.CheckMetadata("example.com/compat.IsAtLeastU")
	require.True(t, ok)
	require.NotNil(t, meta.Version)
	assert.Equal(t, apilevel.Level(34), *meta.Version)
	assert.Equal(t, -1, meta.Param)
	assert.Equal(t, -1, meta.Lambda)

	meta, ok = db.CheckMetadata("example.com/compat.RunOn")
	require.True(t, ok)
	assert.Nil(t, meta.Version)
	assert.Equal(t, 0, meta.Param)
	assert.Equal(t, 1, meta.Lambda)

	meta, ok = db.CheckMetadata("example.com/compat.HasAdServices")
	require.True(t, ok)
	assert.Equal(t, apilevel.AdServices, meta.Namespace)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		data string
		msg  string
	}{
		{"bad requirement", "symbols:\n  a.B: \"api >=\"\n", "symbol a.B"},
		{"unknown key", "symbol:\n  a.B: \"21\"\n", "failed to decode"},
		{"ambiguous check", "checks:\n  a.B:\n    api: \"21\"\n    parameter: 0\n", "exactly one of"},
		{"unknown codename", "checks:\n  a.B:\n    codename: NOUGAT\n", "unknown codename"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestParseCheckFields(t *testing.T) {
	t.Parallel()
	spec, err := ParseCheckFields("parameter=0 lambda=1 extension=R")
	require.NoError(t, err)
	meta, err := spec.Resolve()
	require.NoError(t, err)
	assert.Equal(t, apilevel.Namespace(30), meta.Namespace)
	assert.Equal(t, 0, meta.Param)
	assert.Equal(t, 1, meta.Lambda)

	spec, err = ParseCheckFields("codename=TIRAMISU")
	require.NoError(t, err)
	meta, err = spec.Resolve()
	require.NoError(t, err)
	assert.Equal(t, apilevel.Level(33), *meta.Version)

	_, err = ParseCheckFields("api")
	assert.Error(t, err)
	_, err = ParseCheckFields("flavor=1")
	assert.Error(t, err)
}

func TestNilDatabase(t *testing.T) {
	t.Parallel()
	var db *Database
	_, ok := db.Requirement("x")
	assert.False(t, ok)
	_, ok = db.CheckMetadata("x")
	assert.False(t, ok)
	assert.Zero(t, db.Len())
}
