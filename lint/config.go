package lint

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/gnoswap-labs/apigate/internal"
	"github.com/gnoswap-labs/apigate/internal/apidb"
	"github.com/gnoswap-labs/apigate/internal/apilevel/expr"
	tt "github.com/gnoswap-labs/apigate/internal/types"
	"github.com/gnoswap-labs/apigate/internal/versioncheck"
)

// DefaultConfigFile is the configuration file written by `apigate init`.
const DefaultConfigFile = ".apigate.yaml"

// Config is the content of a configuration file.
type Config struct {
	Name string `yaml:"name"`
	// MinSDK is a requirement expression every function may assume,
	// e.g. "21".
	MinSDK string `yaml:"min_sdk,omitempty"`
	// APIDatabase is a path to the API database, relative to the
	// configuration file.
	APIDatabase    string                   `yaml:"api_database,omitempty"`
	MaxHelperDepth *int                     `yaml:"max_helper_depth,omitempty"`
	Accessors      versioncheck.Accessors   `yaml:"accessors,omitempty"`
	SyncInvokers   []string                 `yaml:"sync_invokers,omitempty"`
	NoReturn       []string                 `yaml:"noreturn,omitempty"`
	IgnorePaths    []string                 `yaml:"ignore_paths,omitempty"`
	Rules          map[string]tt.ConfigRule `yaml:"rules"`
}

// Options are settings that come from the command line rather than the
// configuration file.
type Options struct {
	Logger *zap.Logger
	// MinSDK overrides Config.MinSDK when set.
	MinSDK string
	// CacheDir enables the result cache.
	CacheDir string
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	depth := versioncheck.DefaultMaxHelperDepth
	return Config{
		Name:           "apigate",
		MaxHelperDepth: &depth,
		Accessors:      versioncheck.DefaultAccessors(),
		SyncInvokers:   []string{"sort.Slice", "sort.SliceStable", "slices.SortFunc", "slices.SortStableFunc", "sync.Once.Do"},
		Rules: map[string]tt.ConfigRule{
			internal.APILevel:         {Severity: tt.SeverityError},
			internal.ObsoleteSDKInt:   {Severity: tt.SeverityWarning},
			internal.InvalidDirective: {Severity: tt.SeverityError},
		},
	}
}

// LoadConfig reads a configuration file. Unknown keys are rejected and
// a relative api_database is resolved against the file's directory.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("error reading configuration: %w", err)
	}
	config, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if config.APIDatabase != "" && !filepath.IsAbs(config.APIDatabase) {
		config.APIDatabase = filepath.Join(filepath.Dir(path), config.APIDatabase)
	}
	return config, nil
}

// ParseConfig decodes a configuration. An empty document yields
// DefaultConfig; fields left out keep their default.
func ParseConfig(data []byte) (Config, error) {
	config := DefaultConfig()
	config.Accessors = versioncheck.Accessors{}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("error decoding configuration: %w", err)
	}
	config.Accessors = mergeAccessors(config.Accessors, versioncheck.DefaultAccessors())

	if config.MinSDK != "" {
		if _, err := expr.Parse(config.MinSDK); err != nil {
			return Config{}, fmt.Errorf("min_sdk: %w", err)
		}
	}
	if config.MaxHelperDepth != nil && *config.MaxHelperDepth < 0 {
		return Config{}, fmt.Errorf("max_helper_depth must not be negative")
	}
	return config, nil
}

// mergeAccessors fills the lists left empty in a from defaults.
func mergeAccessors(a, defaults versioncheck.Accessors) versioncheck.Accessors {
	pick := func(list, def []string) []string {
		if len(list) == 0 {
			return def
		}
		return list
	}
	return versioncheck.Accessors{
		SDKInt:        pick(a.SDKInt, defaults.SDKInt),
		SDKIntFull:    pick(a.SDKIntFull, defaults.SDKIntFull),
		Extension:     pick(a.Extension, defaults.Extension),
		RangeHalfOpen: pick(a.RangeHalfOpen, defaults.RangeHalfOpen),
		RangeClosed:   pick(a.RangeClosed, defaults.RangeClosed),
	}
}

// WriteConfig writes config as YAML to path.
func WriteConfig(path string, config Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("error marshalling configuration: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing configuration: %w", err)
	}
	return nil
}

// NewAnalyzer creates the version analyzer described by config. A non-empty
// opts.MinSDK replaces config.MinSDK.
func NewAnalyzer(config Config, opts Options) (*versioncheck.Analyzer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	db := apidb.New()
	if config.APIDatabase != "" {
		var err error
		db, err = apidb.Load(config.APIDatabase)
		if err != nil {
			return nil, err
		}
		logger.Debug("loaded api database", zap.String("path", config.APIDatabase), zap.Int("symbols", db.Len()))
	}

	analyzerOpts := []versioncheck.Option{
		versioncheck.WithMetadata(db),
		versioncheck.WithAccessors(mergeAccessors(config.Accessors, versioncheck.DefaultAccessors())),
		versioncheck.WithSyncInvokers(config.SyncInvokers...),
		versioncheck.WithLogger(logger),
	}
	minSDK := config.MinSDK
	if opts.MinSDK != "" {
		minSDK = opts.MinSDK
	}
	if minSDK != "" {
		floor, err := expr.Parse(minSDK)
		if err != nil {
			return nil, fmt.Errorf("min sdk: %w", err)
		}
		analyzerOpts = append(analyzerOpts, versioncheck.WithMinSDK(floor))
	}
	if config.MaxHelperDepth != nil {
		analyzerOpts = append(analyzerOpts, versioncheck.WithMaxHelperDepth(*config.MaxHelperDepth))
	}
	return versioncheck.New(db, analyzerOpts...), nil
}

// Build creates an engine for config. configPath, when set, is tracked by
// the result cache so that editing the configuration drops stale results.
func Build(config Config, configPath string, opts Options) (*internal.Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	analyzer, err := NewAnalyzer(config, opts)
	if err != nil {
		return nil, err
	}

	engineOpts := []internal.EngineOption{
		internal.WithLogger(logger),
		internal.WithNoReturn(config.NoReturn...),
	}
	if opts.CacheDir != "" {
		cacheDir := opts.CacheDir
		if opts.MinSDK != "" {
			// results depend on the floor, which the tracked files do not record
			sum := sha256.Sum256([]byte(opts.MinSDK))
			cacheDir = filepath.Join(cacheDir, fmt.Sprintf("min-%x", sum[:6]))
		}
		cache, err := internal.NewCache(cacheDir, configPath, config.APIDatabase)
		if err != nil {
			return nil, err
		}
		engineOpts = append(engineOpts, internal.WithCache(cache))
	}

	engine, err := internal.NewEngine(analyzer, config.Rules, engineOpts...)
	if err != nil {
		return nil, err
	}
	for _, p := range config.IgnorePaths {
		engine.IgnorePath(p)
	}
	return engine, nil
}
