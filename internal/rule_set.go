package internal

import (
	"fmt"

	"github.com/gnoswap-labs/apigate/internal/tree"
	tt "github.com/gnoswap-labs/apigate/internal/types"
	"github.com/gnoswap-labs/apigate/internal/versioncheck"
)

// rule set
const (
	APILevel         = "api-level"
	ObsoleteSDKInt   = "obsolete-sdk-int"
	InvalidDirective = "invalid-directive"
)

// LintRule defines the interface for all lint rules.
type LintRule interface {
	// Check reports the issues of one file of an analyzed package.
	Check(file *tree.File, pkg *tree.Package, res *versioncheck.Result) ([]tt.Issue, error)

	// Name returns the name of the lint rule.
	Name() string

	Severity() tt.Severity
	SetSeverity(tt.Severity)
}

// APILevelRule reports calls and references that are not guarded by a
// sufficient version check.
type APILevelRule struct {
	severity tt.Severity
}

func NewAPILevelRule() LintRule {
	return &APILevelRule{severity: tt.SeverityError}
}

func (r *APILevelRule) Check(file *tree.File, pkg *tree.Package, res *versioncheck.Result) ([]tt.Issue, error) {
	var issues []tt.Issue
	for _, v := range res.Failures() {
		start := pkg.Fset.Position(v.Site.Pos())
		if start.Filename != file.Name {
			continue
		}
		issues = append(issues, tt.Issue{
			Rule:     r.Name(),
			Category: "compatibility",
			Filename: start.Filename,
			Message:  v.Message(),
			Note:     fmt.Sprintf("required %s, proven %s", v.Required, v.Context),
			Start:    start,
			End:      pkg.Fset.Position(v.Site.End()),
			Severity: r.severity,
		})
	}
	return issues, nil
}

func (r *APILevelRule) Name() string                { return APILevel }
func (r *APILevelRule) Severity() tt.Severity       { return r.severity }
func (r *APILevelRule) SetSeverity(sev tt.Severity) { r.severity = sev }

// ObsoleteSDKIntRule reports version checks whose outcome is already
// decided by min_sdk or an enclosing check.
type ObsoleteSDKIntRule struct {
	severity tt.Severity
}

func NewObsoleteSDKIntRule() LintRule {
	return &ObsoleteSDKIntRule{severity: tt.SeverityWarning}
}

func (r *ObsoleteSDKIntRule) Check(file *tree.File, pkg *tree.Package, res *versioncheck.Result) ([]tt.Issue, error) {
	var issues []tt.Issue
	for _, fact := range res.Obsolete {
		start := pkg.Fset.Position(fact.Site.Pos())
		if start.Filename != file.Name {
			continue
		}
		issues = append(issues, tt.Issue{
			Rule:     r.Name(),
			Category: "compatibility",
			Filename: start.Filename,
			Message:  fact.Message(),
			Start:    start,
			End:      pkg.Fset.Position(fact.Site.End()),
			Severity: r.severity,
		})
	}
	return issues, nil
}

func (r *ObsoleteSDKIntRule) Name() string                { return ObsoleteSDKInt }
func (r *ObsoleteSDKIntRule) Severity() tt.Severity       { return r.severity }
func (r *ObsoleteSDKIntRule) SetSeverity(sev tt.Severity) { r.severity = sev }

// InvalidDirectiveRule reports //apigate: directives that were ignored.
type InvalidDirectiveRule struct {
	severity tt.Severity
}

func NewInvalidDirectiveRule() LintRule {
	return &InvalidDirectiveRule{severity: tt.SeverityError}
}

func (r *InvalidDirectiveRule) Check(file *tree.File, pkg *tree.Package, _ *versioncheck.Result) ([]tt.Issue, error) {
	var issues []tt.Issue
	for _, p := range pkg.Problems {
		start := pkg.Fset.Position(p.Pos())
		if start.Filename != file.Name {
			continue
		}
		issues = append(issues, tt.Issue{
			Rule:     r.Name(),
			Category: "directive",
			Filename: start.Filename,
			Message:  p.Message,
			Start:    start,
			End:      pkg.Fset.Position(p.End()),
			Severity: r.severity,
		})
	}
	return issues, nil
}

func (r *InvalidDirectiveRule) Name() string                { return InvalidDirective }
func (r *InvalidDirectiveRule) Severity() tt.Severity       { return r.severity }
func (r *InvalidDirectiveRule) SetSeverity(sev tt.Severity) { r.severity = sev }
