package lint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoswap-labs/apigate/internal"
	tt "github.com/gnoswap-labs/apigate/internal/types"
	"github.com/gnoswap-labs/apigate/internal/versioncheck"
)

func TestParseConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		check   func(t *testing.T, c Config)
		wantErr string
	}{
		{
			name:  "empty document keeps defaults",
			input: "",
			check: func(t *testing.T, c Config) {
				assert.Equal(t, DefaultConfig(), c)
			},
		},
		{
			name: "full",
			input: `name: app
min_sdk: "21"
api_database: db.yaml
max_helper_depth: 2
accessors:
  sdk_int: [Version]
sync_invokers: [example.com/app/run.Now]
noreturn: [example.com/app/fatal.Die]
ignore_paths: [gen]
rules:
  api-level:
    severity: WARNING
`,
			check: func(t *testing.T, c Config) {
				assert.Equal(t, "app", c.Name)
				assert.Equal(t, "21", c.MinSDK)
				assert.Equal(t, "db.yaml", c.APIDatabase)
				require.NotNil(t, c.MaxHelperDepth)
				assert.Equal(t, 2, *c.MaxHelperDepth)
				assert.Equal(t, []string{"Version"}, c.Accessors.SDKInt)
				assert.Equal(t, versioncheck.DefaultAccessors().Extension, c.Accessors.Extension)
				assert.Equal(t, []string{"example.com/app/run.Now"}, c.SyncInvokers)
				assert.Equal(t, []string{"example.com/app/fatal.Die"}, c.NoReturn)
				assert.Equal(t, []string{"gen"}, c.IgnorePaths)
				assert.Equal(t, tt.SeverityWarning, c.Rules[internal.APILevel].Severity)
				assert.Equal(t, tt.SeverityWarning, c.Rules[internal.ObsoleteSDKInt].Severity, "unset rules keep their default")
			},
		},
		{
			name:  "rule turned off",
			input: "rules:\n  obsolete-sdk-int: {severity: OFF}\n",
			check: func(t *testing.T, c Config) {
				assert.Equal(t, tt.SeverityOff, c.Rules[internal.ObsoleteSDKInt].Severity)
			},
		},
		{name: "unknown key", input: "colour: red\n", wantErr: "colour"},
		{name: "unknown severity", input: "rules:\n  api-level: {severity: LOUD}\n", wantErr: "unknown severity"},
		{name: "bad min sdk", input: "min_sdk: \"api >=\"\n", wantErr: "min_sdk"},
		{name: "negative depth", input: "max_helper_depth: -1\n", wantErr: "max_helper_depth"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c, err := ParseConfig([]byte(tc.input))
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			tc.check(t, c)
		})
	}
}

func TestLoadConfigResolvesDatabase(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFile)
	require.NoError(t, os.WriteFile(path, []byte("api_database: apidb.yaml\n"), 0o644))

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "apidb.yaml"), c.APIDatabase)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestWriteConfigRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	require.NoError(t, WriteConfig(path, DefaultConfig()))

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c)
}

func TestNewWithoutConfig(t *testing.T) {
	t.Parallel()

	engine, err := New("", Options{})
	require.NoError(t, err)

	issues, err := engine.RunSource([]byte(`package app

//apigate:requires api >= 24
func needsN() {}

func f() { needsN() }
`))
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "Call requires API level 24 (current min is 0): needsN", issues[0].Message)
}

func TestBuildMissingDatabase(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()
	config.APIDatabase = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := Build(config, "", Options{})
	assert.Error(t, err)
}
