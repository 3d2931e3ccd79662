// Package analyzer exposes the version check as a go/analysis pass, so it
// can run under go vet, gopls or any multichecker.
package analyzer

import (
	"fmt"
	"sync"

	"golang.org/x/tools/go/analysis"

	"github.com/gnoswap-labs/apigate/internal"
	"github.com/gnoswap-labs/apigate/internal/frontend"
	"github.com/gnoswap-labs/apigate/internal/nolint"
	"github.com/gnoswap-labs/apigate/internal/tree"
	tt "github.com/gnoswap-labs/apigate/internal/types"
	"github.com/gnoswap-labs/apigate/internal/versioncheck"
	"github.com/gnoswap-labs/apigate/lint"
)

const doc = `report calls to APIs newer than the proven platform level

The pass reads the same .apigate.yaml as the apigate command. Calls whose
requirement is not implied by min_sdk and the enclosing version checks are
reported under the api-level category; checks whose outcome is already
fixed are reported under obsolete-sdk-int.`

var Analyzer = &analysis.Analyzer{
	Name: "apigate",
	Doc:  doc,
	Run:  run,
}

var (
	configPath string
	minSDK     string

	setupOnce sync.Once
	setup     *checker
	setupErr  error
)

func init() {
	Analyzer.Flags.StringVar(&configPath, "config", "", "path to an .apigate.yaml configuration")
	Analyzer.Flags.StringVar(&minSDK, "min-sdk", "", "override min_sdk with a requirement expression")
}

// checker is the configuration shared by every package of one run.
type checker struct {
	analyzer *versioncheck.Analyzer
	noReturn []string
	enabled  map[string]bool
}

func load() (*checker, error) {
	setupOnce.Do(func() {
		config := lint.DefaultConfig()
		if configPath != "" {
			config, setupErr = lint.LoadConfig(configPath)
			if setupErr != nil {
				return
			}
		}
		var a *versioncheck.Analyzer
		a, setupErr = lint.NewAnalyzer(config, lint.Options{MinSDK: minSDK})
		if setupErr != nil {
			return
		}
		setup = &checker{
			analyzer: a,
			noReturn: config.NoReturn,
			enabled: map[string]bool{
				internal.APILevel:         config.Rules[internal.APILevel].Severity != tt.SeverityOff,
				internal.ObsoleteSDKInt:   config.Rules[internal.ObsoleteSDKInt].Severity != tt.SeverityOff,
				internal.InvalidDirective: config.Rules[internal.InvalidDirective].Severity != tt.SeverityOff,
			},
		}
	})
	return setup, setupErr
}

func run(pass *analysis.Pass) (any, error) {
	c, err := load()
	if err != nil {
		return nil, fmt.Errorf("apigate: %w", err)
	}

	// directive errors leave the package usable and are reported below
	pkg, _ := frontend.Convert(pass.Fset, pass.Files, pass.Pkg, pass.TypesInfo, frontend.Options{NoReturn: c.noReturn})
	res := c.analyzer.Analyze(pkg)

	suppress := make(map[string]*nolint.Manager, len(pass.Files))
	for _, f := range pass.Files {
		suppress[pass.Fset.Position(f.Pos()).Filename] = nolint.ParseComments(f, pass.Fset)
	}
	report := func(category string, site tree.Node, message string) {
		if !c.enabled[category] {
			return
		}
		start := pass.Fset.Position(site.Pos())
		if mgr := suppress[start.Filename]; mgr != nil && mgr.IsNolint(start, category) {
			return
		}
		pass.Report(analysis.Diagnostic{
			Pos:      site.Pos(),
			End:      site.End(),
			Category: category,
			Message:  message,
		})
	}

	for _, v := range res.Failures() {
		report(internal.APILevel, v.Site, v.Message())
	}
	for _, fact := range res.Obsolete {
		report(internal.ObsoleteSDKInt, fact.Site, fact.Message())
	}
	for _, p := range pkg.Problems {
		report(internal.InvalidDirective, p, p.Message)
	}
	return nil, nil
}
