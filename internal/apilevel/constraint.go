package apilevel

import (
	"sort"
	"strings"
)

type bound struct {
	ns Namespace
	iv Interval
}

// Constraint is a conjunction of per-namespace intervals. A namespace with
// no entry is unbounded. The zero value is Top (always true).
type Constraint struct {
	bounds []bound // sorted by ns, never universe, never empty
	unsat  bool
}

// Top is the constraint satisfied by every platform.
func Top() Constraint { return Constraint{} }

// Bottom is the unsatisfiable constraint.
func Bottom() Constraint { return Constraint{unsat: true} }

// Of builds a single-namespace constraint. Empty intervals normalize to
// Bottom.
func Of(ns Namespace, iv Interval) Constraint {
	switch {
	case iv.Empty():
		return Bottom()
	case iv.IsUniverse():
		return Top()
	}
	return Constraint{bounds: []bound{{ns: ns, iv: iv}}}
}

// AtLeast is ns >= v.
func AtLeast(ns Namespace, v Version) Constraint { return Of(ns, From(v)) }

// Below is ns < v.
func Below(ns Namespace, v Version) Constraint { return Of(ns, Until(v)) }

// Between is lo <= ns < hi.
func Between(ns Namespace, lo, hi Version) Constraint { return Of(ns, Span(lo, hi)) }

// Exactly is ns == v. Without minorAware every minor of v.Major matches.
func Exactly(ns Namespace, v Version, minorAware bool) Constraint {
	if !minorAware {
		return Between(ns, Level(v.Major), v.NextMajor())
	}
	return Between(ns, v, v.NextMinor())
}

// Range is lo <= ns < hi, or lo <= ns <= hi when inclusive. Bounds are
// compared at major granularity when inclusive.
func Range(ns Namespace, lo, hi Version, inclusive bool) Constraint {
	if inclusive {
		if hi.Minor == 0 {
			return Between(ns, lo, hi.NextMajor())
		}
		return Between(ns, lo, hi.NextMinor())
	}
	return Between(ns, lo, hi)
}

func (c Constraint) IsTop() bool { return !c.unsat && len(c.bounds) == 0 }

func (c Constraint) IsBottom() bool { return c.unsat }

// Interval returns the interval c places on ns.
func (c Constraint) Interval(ns Namespace) Interval {
	if c.unsat {
		return Span(Version{}, Version{})
	}
	for _, b := range c.bounds {
		if b.ns == ns {
			return b.iv
		}
	}
	return Universe()
}

// Namespaces returns the constrained namespaces in ascending order.
func (c Constraint) Namespaces() []Namespace {
	out := make([]Namespace, 0, len(c.bounds))
	for _, b := range c.bounds {
		out = append(out, b.ns)
	}
	return out
}

// Floor is the smallest version allowed on ns.
func (c Constraint) Floor(ns Namespace) Version {
	return c.Interval(ns).Lo
}

// And intersects two constraints namespace by namespace.
func And(a, b Constraint) Constraint {
	if a.unsat || b.unsat {
		return Bottom()
	}
	if len(a.bounds) == 0 {
		return b
	}
	if len(b.bounds) == 0 {
		return a
	}
	out := make([]bound, 0, len(a.bounds)+len(b.bounds))
	i, j := 0, 0
	for i < len(a.bounds) || j < len(b.bounds) {
		switch {
		case j == len(b.bounds) || (i < len(a.bounds) && a.bounds[i].ns < b.bounds[j].ns):
			out = append(out, a.bounds[i])
			i++
		case i == len(a.bounds) || b.bounds[j].ns < a.bounds[i].ns:
			out = append(out, b.bounds[j])
			j++
		default:
			iv := a.bounds[i].iv.Intersect(b.bounds[j].iv)
			if iv.Empty() {
				return Bottom()
			}
			out = append(out, bound{ns: a.bounds[i].ns, iv: iv})
			i++
			j++
		}
	}
	return Constraint{bounds: out}
}

// Or returns the alternatives a or b.
func Or(a, b Constraint) Set {
	return SetOf(a, b)
}

// Negate applies De Morgan: not(a && b) is (not a) || (not b), with each
// per-namespace complement contributing up to two alternatives.
func Negate(c Constraint) Set {
	if c.unsat {
		return True()
	}
	var s Set
	for _, b := range c.bounds {
		for _, part := range b.iv.Complement() {
			s = s.add(Of(b.ns, part))
		}
	}
	return s
}

// Implies reports whether every point satisfying c also satisfies o.
func (c Constraint) Implies(o Constraint) bool {
	if c.unsat {
		return true
	}
	if o.unsat {
		return false
	}
	for _, b := range o.bounds {
		if !b.iv.Contains(c.Interval(b.ns)) {
			return false
		}
	}
	return true
}

func (c Constraint) Equal(o Constraint) bool {
	if c.unsat || o.unsat {
		return c.unsat == o.unsat
	}
	if len(c.bounds) != len(o.bounds) {
		return false
	}
	for i := range c.bounds {
		if c.bounds[i] != o.bounds[i] {
			return false
		}
	}
	return true
}

// Hull is the smallest single constraint implied by both a and b.
// Namespaces unconstrained in either input are dropped.
func Hull(a, b Constraint) Constraint {
	if a.unsat {
		return b
	}
	if b.unsat {
		return a
	}
	var out []bound
	for _, ba := range a.bounds {
		for _, bb := range b.bounds {
			if ba.ns != bb.ns {
				continue
			}
			iv := ba.iv.Hull(bb.iv)
			if !iv.IsUniverse() {
				out = append(out, bound{ns: ba.ns, iv: iv})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ns < out[j].ns })
	return Constraint{bounds: out}
}

func (c Constraint) String() string {
	switch {
	case c.unsat:
		return "false"
	case len(c.bounds) == 0:
		return "true"
	}
	parts := make([]string, 0, len(c.bounds))
	for _, b := range c.bounds {
		parts = append(parts, b.iv.format(b.ns))
	}
	return strings.Join(parts, " && ")
}
