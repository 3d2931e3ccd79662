// Package nolint maps suppression comments to the source ranges they
// cover. Both "//nolint[:rules]" and "//apigate:ignore[ rules]" are
// accepted; text after a further "//" is an explanation and is dropped.
package nolint

import (
	"errors"
	"go/ast"
	"go/token"
	"strings"
)

const (
	nolintPrefix = "//nolint"
	ignorePrefix = "//apigate:ignore"
)

var errNotDirective = errors.New("not a suppression comment")

// Manager answers whether a position is suppressed for a rule.
type Manager struct {
	scopes map[string][]scope
}

// scope is a line range with the rules it suppresses. An empty rule set
// suppresses every rule.
type scope struct {
	rules map[string]struct{}
	start token.Position
	end   token.Position
}

func (s scope) covers(line int) bool {
	return line >= s.start.Line && line <= s.end.Line
}

// ParseComments collects the suppression comments of f.
func ParseComments(f *ast.File, fset *token.FileSet) *Manager {
	m := &Manager{scopes: make(map[string][]scope)}
	stmts := indexStatementsByLine(f, fset)
	packageLine := fset.Position(f.Package).Line

	for _, cg := range f.Comments {
		for _, c := range cg.List {
			rules, err := parseDirective(c.Text)
			if err != nil {
				continue
			}
			s := placeScope(c, f, fset, stmts, packageLine)
			s.rules = rules
			m.scopes[s.start.Filename] = append(m.scopes[s.start.Filename], s)
		}
	}
	return m
}

// parseDirective returns the rules named by a suppression comment.
func parseDirective(text string) (map[string]struct{}, error) {
	if i := strings.Index(text[2:], "//"); i >= 0 {
		text = strings.TrimSpace(text[:i+2])
	}

	switch {
	case strings.HasPrefix(text, nolintPrefix):
		rest := text[len(nolintPrefix):]
		if rest == "" {
			return map[string]struct{}{}, nil
		}
		if rest[0] != ':' {
			return nil, errNotDirective
		}
		rest = strings.TrimSpace(rest[1:])
		if rest == "" {
			return nil, errors.New("no rules specified after colon")
		}
		return parseRuleNames(rest), nil
	case strings.HasPrefix(text, ignorePrefix):
		rest := text[len(ignorePrefix):]
		if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
			return nil, errNotDirective
		}
		return parseRuleNames(strings.TrimSpace(rest)), nil
	}
	return nil, errNotDirective
}

// placeScope decides the range covered by a directive:
//   - before the package clause: the whole file
//   - trailing a statement: that statement
//   - on the line above a statement or declaration: the comment line
//     through the end of it
//   - otherwise: the comment line only
func placeScope(c *ast.Comment, f *ast.File, fset *token.FileSet, stmts map[int]ast.Stmt, packageLine int) scope {
	pos := fset.Position(c.Slash)

	if pos.Line < packageLine {
		return scope{start: fset.Position(f.Pos()), end: fset.Position(f.End())}
	}

	if stmt, ok := stmts[pos.Line]; ok && pos.Offset > fset.Position(stmt.Pos()).Offset {
		return scope{start: fset.Position(stmt.Pos()), end: fset.Position(stmt.End())}
	}

	if stmt, ok := stmts[pos.Line+1]; ok {
		return scope{start: pos, end: fset.Position(stmt.End())}
	}

	if decl := declAtLine(fset, f, pos.Line+1); decl != nil {
		return scope{start: pos, end: fset.Position(decl.End())}
	}

	return scope{start: pos, end: pos}
}

func parseRuleNames(text string) map[string]struct{} {
	rules := make(map[string]struct{})
	for _, rule := range strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == ' ' }) {
		rules[rule] = struct{}{}
	}
	return rules
}

// indexStatementsByLine maps each line to the first statement starting on it.
func indexStatementsByLine(f *ast.File, fset *token.FileSet) map[int]ast.Stmt {
	stmts := make(map[int]ast.Stmt)
	ast.Inspect(f, func(n ast.Node) bool {
		if stmt, ok := n.(ast.Stmt); ok {
			line := fset.Position(stmt.Pos()).Line
			if _, exists := stmts[line]; !exists {
				stmts[line] = stmt
			}
		}
		return true
	})
	return stmts
}

// declAtLine returns the top-level declaration starting on line, if any.
// Doc comments are not part of the range used for the match.
func declAtLine(fset *token.FileSet, f *ast.File, line int) ast.Decl {
	for _, decl := range f.Decls {
		start := decl.Pos()
		if fd, ok := decl.(*ast.FuncDecl); ok {
			start = fd.Type.Func
		}
		if gd, ok := decl.(*ast.GenDecl); ok {
			start = gd.TokPos
		}
		if fset.Position(start).Line == line {
			return decl
		}
	}
	return nil
}

// IsNolint reports whether rule is suppressed at pos.
func (m *Manager) IsNolint(pos token.Position, rule string) bool {
	for _, s := range m.scopes[pos.Filename] {
		if !s.covers(pos.Line) {
			continue
		}
		if len(s.rules) == 0 {
			return true
		}
		if _, ok := s.rules[rule]; ok {
			return true
		}
	}
	return false
}
