// Package expr parses requirement expressions such as
// "api >= 34 || ext(R) >= 4" into apilevel sets.
package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"

	"github.com/gnoswap-labs/apigate/internal/apilevel"
)

// ErrEmpty is returned for blank expressions.
var ErrEmpty = errors.New("empty requirement expression")

var parser = buildParser()

func buildParser() *participle.Parser[Expression] {
	p, err := participle.Build[Expression](
		participle.Lexer(requirementLexer),
		participle.Elide("Whitespace"),
		participle.UseLookahead(2),
	)
	if err != nil {
		panic(fmt.Errorf("failed to build requirement parser: %w", err))
	}
	return p
}

// Parse parses a requirement expression. A plain number is read as a
// minimum API level.
func Parse(src string) (apilevel.Set, error) {
	if strings.TrimSpace(src) == "" {
		return apilevel.False(), ErrEmpty
	}
	ast, err := parser.ParseString("", src)
	if err != nil {
		return apilevel.False(), describe(src, err)
	}
	return ast.eval()
}

// MustParse is like Parse but panics on error.
func MustParse(src string) apilevel.Set {
	s, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return s
}

// describe renders a parse error with a caret under the offending column.
func describe(src string, err error) error {
	var pe participle.Error
	if !errors.As(err, &pe) {
		return fmt.Errorf("invalid requirement %q: %w", src, err)
	}
	pos := pe.Position()
	caret := ""
	if pos.Column > 0 {
		caret = "\n  " + src + "\n  " + strings.Repeat(" ", pos.Column-1) + "^"
	}
	return fmt.Errorf("invalid requirement at column %d: %s%s", pos.Column, pe.Message(), caret)
}

func (e *Expression) eval() (apilevel.Set, error) {
	out := apilevel.False()
	for _, term := range e.Terms {
		s, err := term.eval()
		if err != nil {
			return apilevel.False(), err
		}
		out = out.OrExact(s)
	}
	return out, nil
}

func (c *Conjunction) eval() (apilevel.Set, error) {
	out := apilevel.True()
	for _, atom := range c.Atoms {
		s, err := atom.eval()
		if err != nil {
			return apilevel.False(), err
		}
		out = out.AndExact(s)
	}
	return out, nil
}

func (a *Atom) eval() (apilevel.Set, error) {
	switch {
	case a.Group != nil:
		return a.Group.eval()
	case a.Comparison != nil:
		return a.Comparison.eval()
	case a.Bare != nil:
		v, err := apilevel.ParseVersion(a.Bare.Version)
		if err != nil {
			return apilevel.False(), err
		}
		return apilevel.SetOf(apilevel.AtLeast(apilevel.Platform, v)), nil
	}
	return apilevel.False(), fmt.Errorf("empty atom")
}

func (c *Comparison) eval() (apilevel.Set, error) {
	ns, err := c.Namespace.resolve()
	if err != nil {
		return apilevel.False(), err
	}
	op, ok := apilevel.ParseOp(c.Op)
	if !ok {
		return apilevel.False(), fmt.Errorf("unknown operator %q", c.Op)
	}
	v, err := apilevel.ParseVersion(c.Version)
	if err != nil {
		return apilevel.False(), err
	}
	return apilevel.Condition(ns, op, v, v.Minor != 0), nil
}

func (n *NamespaceRef) resolve() (apilevel.Namespace, error) {
	if n.Extension != nil {
		if n.Extension.ID != "" {
			id, err := strconv.Atoi(n.Extension.ID)
			if err != nil || id <= 0 {
				return 0, fmt.Errorf("invalid extension id %q", n.Extension.ID)
			}
			return apilevel.Namespace(id), nil
		}
		if ns, ok := apilevel.LookupNamespace(n.Extension.Name); ok && !ns.IsPlatform() {
			return ns, nil
		}
		return 0, fmt.Errorf("unknown extension %q", n.Extension.Name)
	}
	if ns, ok := apilevel.LookupNamespace(n.Name); ok {
		return ns, nil
	}
	return 0, fmt.Errorf("unknown namespace %q", n.Name)
}
