package versioncheck

import (
	"fmt"

	"github.com/gnoswap-labs/apigate/internal/apilevel"
	"github.com/gnoswap-labs/apigate/internal/tree"
)

type Kind int

const (
	KindOpaque Kind = iota
	KindTrue
	KindFalse
	KindComparison
	KindAnd
	KindOr
	KindNot
	KindRange
	KindSwitchCase
)

func (k Kind) String() string {
	switch k {
	case KindTrue:
		return "true"
	case KindFalse:
		return "false"
	case KindComparison:
		return "comparison"
	case KindAnd:
		return "and"
	case KindOr:
		return "or"
	case KindNot:
		return "not"
	case KindRange:
		return "range"
	case KindSwitchCase:
		return "case"
	default:
		return "opaque"
	}
}

// Predicate is a classified boolean condition. The set of implementations
// is closed.
type Predicate interface {
	Kind() Kind
	// Site is the expression the predicate was classified from.
	Site() tree.Node
	String() string
	isPredicate()
}

// Bound is a version operand: a fixed version, or the argument at Param
// in a helper template.
type Bound struct {
	Version apilevel.Version
	Param   int
}

// Fixed returns a bound holding v.
func Fixed(v apilevel.Version) Bound { return Bound{Version: v, Param: -1} }

// Param returns a bound on the i-th argument.
func Param(i int) Bound { return Bound{Param: i} }

func (b Bound) IsParam() bool { return b.Param >= 0 }

func (b Bound) String() string {
	if b.IsParam() {
		return fmt.Sprintf("$%d", b.Param)
	}
	return b.Version.String()
}

// Constant is a condition with a known value.
type Constant struct {
	site  tree.Node
	Value bool
}

// Comparison is "accessor op value" with the accessor on the left.
type Comparison struct {
	site       tree.Node
	Namespace  apilevel.Namespace
	Op         apilevel.Op
	Value      Bound
	MinorAware bool
}

// RangeMembership is lo <= accessor < hi, or <= hi when Inclusive.
type RangeMembership struct {
	site       tree.Node
	Namespace  apilevel.Namespace
	Lo, Hi     Bound
	Inclusive  bool
	MinorAware bool
}

// SwitchCase is the label list of a clause in a switch on a version
// accessor.
type SwitchCase struct {
	site tree.Node
	Cond apilevel.Set
}

type LogicalAnd struct {
	site tree.Node
	X, Y Predicate
}

type LogicalOr struct {
	site tree.Node
	X, Y Predicate
}

type LogicalNot struct {
	site tree.Node
	X    Predicate
}

// Opaque is a condition with no version meaning.
type Opaque struct {
	site tree.Node
}

func (p *Constant) Kind() Kind {
	if p.Value {
		return KindTrue
	}
	return KindFalse
}
func (*Comparison) Kind() Kind      { return KindComparison }
func (*RangeMembership) Kind() Kind { return KindRange }
func (*SwitchCase) Kind() Kind      { return KindSwitchCase }
func (*LogicalAnd) Kind() Kind      { return KindAnd }
func (*LogicalOr) Kind() Kind       { return KindOr }
func (*LogicalNot) Kind() Kind      { return KindNot }
func (*Opaque) Kind() Kind          { return KindOpaque }

func (p *Constant) Site() tree.Node        { return p.site }
func (p *Comparison) Site() tree.Node      { return p.site }
func (p *RangeMembership) Site() tree.Node { return p.site }
func (p *SwitchCase) Site() tree.Node      { return p.site }
func (p *LogicalAnd) Site() tree.Node      { return p.site }
func (p *LogicalOr) Site() tree.Node       { return p.site }
func (p *LogicalNot) Site() tree.Node      { return p.site }
func (p *Opaque) Site() tree.Node          { return p.site }

func (*Constant) isPredicate()        {}
func (*Comparison) isPredicate()      {}
func (*RangeMembership) isPredicate() {}
func (*SwitchCase) isPredicate()      {}
func (*LogicalAnd) isPredicate()      {}
func (*LogicalOr) isPredicate()       {}
func (*LogicalNot) isPredicate()      {}
func (*Opaque) isPredicate()          {}

func (p *Constant) String() string { return fmt.Sprint(p.Value) }

func (p *Comparison) String() string {
	return fmt.Sprintf("%s %s %s", p.Namespace, p.Op, p.Value)
}

func (p *RangeMembership) String() string {
	hi := "<"
	if p.Inclusive {
		hi = "<="
	}
	return fmt.Sprintf("%s <= %s %s %s", p.Lo, p.Namespace, hi, p.Hi)
}

func (p *SwitchCase) String() string { return "case " + p.Cond.String() }
func (p *LogicalAnd) String() string { return "(" + p.X.String() + " && " + p.Y.String() + ")" }
func (p *LogicalOr) String() string  { return "(" + p.X.String() + " || " + p.Y.String() + ")" }
func (p *LogicalNot) String() string { return "!" + p.X.String() }
func (p *Opaque) String() string     { return "?" }

// NewAnd combines two predicates. The result is Opaque only when both
// sides are; a single opaque side stays inside and assumes nothing.
func NewAnd(site tree.Node, x, y Predicate) Predicate {
	if isOpaque(x) && isOpaque(y) {
		return &Opaque{site: site}
	}
	return &LogicalAnd{site: site, X: x, Y: y}
}

// NewOr is the disjunctive counterpart of NewAnd.
func NewOr(site tree.Node, x, y Predicate) Predicate {
	if isOpaque(x) && isOpaque(y) {
		return &Opaque{site: site}
	}
	return &LogicalOr{site: site, X: x, Y: y}
}

func NewNot(site tree.Node, x Predicate) Predicate {
	if isOpaque(x) {
		return &Opaque{site: site}
	}
	return &LogicalNot{site: site, X: x}
}

func isOpaque(p Predicate) bool {
	_, ok := p.(*Opaque)
	return ok
}

// Assume returns the platforms on which p evaluates to truth. Opaque
// conditions and unbound template parameters assume nothing.
func Assume(p Predicate, truth bool) apilevel.Set {
	switch p := p.(type) {
	case *Constant:
		if p.Value == truth {
			return apilevel.True()
		}
		return apilevel.False()
	case *Comparison:
		if p.Value.IsParam() {
			return apilevel.True()
		}
		op := p.Op
		if !truth {
			op = op.Negate()
		}
		return apilevel.Condition(p.Namespace, op, p.Value.Version, p.MinorAware)
	case *RangeMembership:
		if p.Lo.IsParam() || p.Hi.IsParam() {
			return apilevel.True()
		}
		in := apilevel.SetOf(apilevel.Range(p.Namespace, p.Lo.Version, p.Hi.Version, p.Inclusive))
		if truth {
			return in
		}
		return in.Negate()
	case *SwitchCase:
		if truth {
			return p.Cond
		}
		return p.Cond.Negate()
	case *LogicalAnd:
		if truth {
			return Assume(p.X, true).And(Assume(p.Y, true))
		}
		return Assume(p.X, false).Or(Assume(p.Y, false))
	case *LogicalOr:
		if truth {
			return Assume(p.X, true).Or(Assume(p.Y, true))
		}
		return Assume(p.X, false).And(Assume(p.Y, false))
	case *LogicalNot:
		return Assume(p.X, !truth)
	}
	return apilevel.True()
}

// binder resolves template parameter i for an operand on the given
// namespace.
type binder func(i int, ns apilevel.Namespace, minorAware bool) (Bound, bool)

// instantiate substitutes template parameters. A parameter the binder
// cannot resolve turns its leaf opaque. site replaces the site of every
// node so facts point at the call.
func instantiate(p Predicate, site tree.Node, bind binder) Predicate {
	subst := func(b Bound, ns apilevel.Namespace, minorAware bool) (Bound, bool) {
		if !b.IsParam() {
			return b, true
		}
		return bind(b.Param, ns, minorAware)
	}

	switch p := p.(type) {
	case *Constant:
		return &Constant{site: site, Value: p.Value}
	case *Comparison:
		v, ok := subst(p.Value, p.Namespace, p.MinorAware)
		if !ok {
			return &Opaque{site: site}
		}
		out := *p
		out.site = site
		out.Value = v
		return &out
	case *RangeMembership:
		lo, okLo := subst(p.Lo, p.Namespace, p.MinorAware)
		hi, okHi := subst(p.Hi, p.Namespace, p.MinorAware)
		if !okLo || !okHi {
			return &Opaque{site: site}
		}
		out := *p
		out.site = site
		out.Lo, out.Hi = lo, hi
		return &out
	case *SwitchCase:
		return &SwitchCase{site: site, Cond: p.Cond}
	case *LogicalAnd:
		return NewAnd(site, instantiate(p.X, site, bind), instantiate(p.Y, site, bind))
	case *LogicalOr:
		return NewOr(site, instantiate(p.X, site, bind), instantiate(p.Y, site, bind))
	case *LogicalNot:
		return NewNot(site, instantiate(p.X, site, bind))
	}
	return &Opaque{site: site}
}

// informative reports whether p says anything about versions.
func informative(p Predicate) bool {
	switch p.(type) {
	case *Opaque, *Constant:
		return false
	}
	return true
}
