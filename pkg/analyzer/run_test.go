package analyzer

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"

	"golang.org/x/tools/go/analysis"

	"github.com/gnoswap-labs/apigate/internal/frontend"
	tt "github.com/gnoswap-labs/apigate/internal/types"
)

// runAnalyzer runs a single analyzer over one source file and returns its
// diagnostics as issues. Imports are type-checked as empty stubs, and
// the analyzer must not require other analyzers.
func runAnalyzer(filename, code string, analyzer *analysis.Analyzer) ([]tt.Issue, error) {
	if len(analyzer.Requires) > 0 {
		return nil, fmt.Errorf("analyzer %s has prerequisites", analyzer.Name)
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, code, parser.ParseComments)
	if err != nil {
		return nil, err
	}
	files := []*ast.File{file}
	pkg, info := frontend.Check(fset, file.Name.Name, files)

	var issues []tt.Issue
	pass := &analysis.Pass{
		Analyzer:  analyzer,
		Fset:      fset,
		Files:     files,
		Pkg:       pkg,
		TypesInfo: info,
		ResultOf:  map[*analysis.Analyzer]any{},
		Report: func(d analysis.Diagnostic) {
			issues = append(issues, tt.Issue{
				Rule:     analyzer.Name,
				Category: d.Category,
				Filename: filename,
				Message:  d.Message,
				Start:    fset.Position(d.Pos),
				End:      fset.Position(d.End),
			})
		},
	}

	if _, err := analyzer.Run(pass); err != nil {
		return nil, err
	}
	return issues, nil
}
