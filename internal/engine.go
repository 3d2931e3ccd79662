package internal

import (
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/apigate/internal/frontend"
	"github.com/gnoswap-labs/apigate/internal/nolint"
	"github.com/gnoswap-labs/apigate/internal/tree"
	"github.com/gnoswap-labs/apigate/internal/trie"
	tt "github.com/gnoswap-labs/apigate/internal/types"
	"github.com/gnoswap-labs/apigate/internal/versioncheck"
)

// Engine manages the linting process.
type Engine struct {
	analyzer     *versioncheck.Analyzer
	loadOpts     frontend.Options
	logger       *zap.Logger
	cache        *Cache
	packages     *packageCache
	ignoredRules map[string]bool
	ignoredGlobs []string
	ignoredDirs  *trie.Trie
	rules        map[string]LintRule

	watchMu    sync.Mutex
	watcher    *fsnotify.Watcher
	isWatching bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// WithNoReturn adds ids of functions that never return.
func WithNoReturn(ids ...string) EngineOption {
	return func(e *Engine) { e.loadOpts.NoReturn = append(e.loadOpts.NoReturn, ids...) }
}

// WithCache stores results per file between runs.
func WithCache(cache *Cache) EngineOption {
	return func(e *Engine) { e.cache = cache }
}

// NewEngine creates a new lint engine around a version analyzer.
func NewEngine(analyzer *versioncheck.Analyzer, rules map[string]tt.ConfigRule, opts ...EngineOption) (*Engine, error) {
	if analyzer == nil {
		return nil, fmt.Errorf("engine requires an analyzer")
	}
	engine := &Engine{
		analyzer: analyzer,
		logger:   zap.NewNop(),
		packages: newPackageCache(),
	}
	for _, opt := range opts {
		opt(engine)
	}
	engine.loadOpts.Logger = engine.logger
	engine.applyRules(rules)

	return engine, nil
}

type ruleConstructor func() LintRule

var allRuleConstructors = map[string]ruleConstructor{
	APILevel:         NewAPILevelRule,
	ObsoleteSDKInt:   NewObsoleteSDKIntRule,
	InvalidDirective: NewInvalidDirectiveRule,
}

func (e *Engine) applyRules(rules map[string]tt.ConfigRule) {
	e.rules = make(map[string]LintRule)
	e.registerDefaultRules()

	for key, rule := range rules {
		r := e.findRule(key)
		if r == nil {
			newRuleCstr := allRuleConstructors[key]
			if newRuleCstr == nil {
				e.logger.Warn("unknown rule in configuration", zap.String("rule", key))
				continue
			}
			r = newRuleCstr()
			e.rules[key] = r
		}
		if rule.Severity == tt.SeverityOff {
			e.IgnoreRule(key)
		}
		r.SetSeverity(rule.Severity)
	}
}

func (e *Engine) registerDefaultRules() {
	for key, newRuleCstr := range allRuleConstructors {
		newRule := newRuleCstr()
		if newRule.Severity() != tt.SeverityOff {
			e.rules[key] = newRule
		}
	}
}

func (e *Engine) findRule(name string) LintRule {
	if rule, ok := e.rules[name]; ok {
		return rule
	}
	return nil
}

// Run checks the given file and returns a slice of Issues. The other
// files of its package are loaded as well, and analyzed once per engine.
func (e *Engine) Run(filename string) ([]tt.Issue, error) {
	if e.isIgnoredPath(filename) {
		return nil, nil
	}
	if e.cache != nil {
		if issues, ok := e.cache.Get(filename); ok {
			return issues, nil
		}
	}

	ap, err := e.packages.load(filename, func() (*analyzedPackage, error) {
		pkg, err := frontend.LoadFile(filename, e.loadOpts)
		if pkg == nil {
			return nil, err
		}
		if err != nil {
			e.logger.Debug("package has invalid directives", zap.String("file", filename), zap.Error(err))
		}
		return &analyzedPackage{pkg: pkg, res: e.analyzer.Analyze(pkg)}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("error loading package: %w", err)
	}

	file := frontend.FindFile(ap.pkg, filename)
	if file == nil {
		if _, err := parser.ParseFile(token.NewFileSet(), filename, nil, parser.ParseComments); err != nil {
			return nil, fmt.Errorf("error parsing file: %w", err)
		}
		return nil, fmt.Errorf("%s is not part of package %s", filename, ap.pkg.Path)
	}

	issues := e.runRules(file, ap)
	if e.cache != nil {
		if err := e.cache.Set(filename, issues); err != nil {
			e.logger.Warn("failed to cache issues", zap.String("file", filename), zap.Error(err))
		}
	}
	return issues, nil
}

// RunSource checks a single source file held in memory.
func (e *Engine) RunSource(source []byte) ([]tt.Issue, error) {
	pkg, err := frontend.LoadSource("", source, e.loadOpts)
	if pkg == nil {
		return nil, fmt.Errorf("error parsing content: %w", err)
	}
	ap := &analyzedPackage{pkg: pkg, res: e.analyzer.Analyze(pkg)}
	return e.runRules(pkg.Files[0], ap), nil
}

func (e *Engine) runRules(file *tree.File, ap *analyzedPackage) []tt.Issue {
	nolintMgr := nolint.ParseComments(file.AST, ap.pkg.Fset)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		allIssues []tt.Issue
	)
	for _, rule := range e.rules {
		if e.ignoredRules[rule.Name()] {
			continue
		}
		wg.Add(1)
		go func(r LintRule) {
			defer wg.Done()
			issues, err := r.Check(file, ap.pkg, ap.res)
			if err != nil {
				e.logger.Error("rule failed", zap.String("rule", r.Name()), zap.Error(err))
				return
			}

			nolinted := filterNolintIssues(nolintMgr, issues)

			mu.Lock()
			allIssues = append(allIssues, nolinted...)
			mu.Unlock()
		}(rule)
	}
	wg.Wait()

	sort.SliceStable(allIssues, func(i, j int) bool {
		a, b := allIssues[i].Start, allIssues[j].Start
		if a.Offset != b.Offset {
			return a.Offset < b.Offset
		}
		return allIssues[i].Rule < allIssues[j].Rule
	})
	return allIssues
}

// IgnoreRule disables a rule by name.
func (e *Engine) IgnoreRule(rule string) {
	if e.ignoredRules == nil {
		e.ignoredRules = make(map[string]bool)
	}
	e.ignoredRules[rule] = true
}

// IgnorePath skips files matching a glob pattern or lying under a
// directory. A pattern without a separator is also matched against the
// base name.
func (e *Engine) IgnorePath(path string) {
	if strings.ContainsAny(path, "*?[") {
		e.ignoredGlobs = append(e.ignoredGlobs, filepath.Clean(path))
		return
	}
	if e.ignoredDirs == nil {
		e.ignoredDirs = trie.New()
	}
	e.ignoredDirs.Insert(path)
}

func (e *Engine) isIgnoredPath(filename string) bool {
	clean := filepath.Clean(filename)
	if e.ignoredDirs != nil && e.ignoredDirs.Covers(clean) {
		return true
	}
	for _, p := range e.ignoredGlobs {
		if matched, _ := filepath.Match(p, clean); matched {
			return true
		}
		if !strings.ContainsRune(p, filepath.Separator) {
			if matched, _ := filepath.Match(p, filepath.Base(clean)); matched {
				return true
			}
		}
	}
	return false
}

// Invalidate forgets the analysis of the package in dir.
func (e *Engine) Invalidate(dir string) {
	e.packages.invalidate(dir)
}

// filterNolintIssues filters issues based on nolint comments.
func filterNolintIssues(mgr *nolint.Manager, issues []tt.Issue) []tt.Issue {
	if mgr == nil {
		return issues
	}
	filtered := make([]tt.Issue, 0, len(issues))
	for _, issue := range issues {
		pos := token.Position{
			Filename: issue.Filename,
			Line:     issue.Start.Line,
		}
		if !mgr.IsNolint(pos, issue.Rule) {
			filtered = append(filtered, issue)
		}
	}
	return filtered
}

// SourceCode stores the content of a source code file.
type SourceCode struct {
	Lines []string
}

// ReadSourceCode reads the content of a file and returns it as a `SourceCode` struct.
func ReadSourceCode(filename string) (*SourceCode, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(string(content), "\n")
	return &SourceCode{Lines: lines}, nil
}
