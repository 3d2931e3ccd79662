package frontend

import (
	"fmt"
	"go/ast"
	"strings"

	"github.com/gnoswap-labs/apigate/internal/apidb"
	"github.com/gnoswap-labs/apigate/internal/apilevel/expr"
	"github.com/gnoswap-labs/apigate/internal/tree"
)

const directivePrefix = "//apigate:"

// parseDirectives reads the //apigate: lines of a doc comment:
//
//	//apigate:requires api >= 24
//	//apigate:checks api=24 lambda=1
//	//apigate:noreturn
func parseDirectives(doc *ast.CommentGroup) (tree.Annotations, []error) {
	var (
		ann  tree.Annotations
		errs []error
	)
	if doc == nil {
		return ann, nil
	}
	for _, c := range doc.List {
		if !strings.HasPrefix(c.Text, directivePrefix) {
			continue
		}
		name, arg, _ := strings.Cut(strings.TrimPrefix(c.Text, directivePrefix), " ")
		arg = strings.TrimSpace(arg)
		switch name {
		case "requires":
			req, err := expr.Parse(arg)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid requires directive: %w", err))
				continue
			}
			ann.Requires = append(ann.Requires, req)
		case "checks":
			spec, err := apidb.ParseCheckFields(arg)
			if err == nil {
				ann.Check, err = spec.Resolve()
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid checks directive: %w", err))
			}
		case "noreturn":
			ann.NoReturn = true
		default:
			errs = append(errs, fmt.Errorf("unknown directive %q", name))
		}
	}
	return ann, errs
}

func mergeAnnotations(dst *tree.Annotations, src tree.Annotations) {
	dst.Requires = append(dst.Requires, src.Requires...)
	if src.Check != nil {
		dst.Check = src.Check
	}
	dst.NoReturn = dst.NoReturn || src.NoReturn
}
