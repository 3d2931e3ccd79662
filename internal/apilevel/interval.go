package apilevel

import "fmt"

// Interval is the half-open range [Lo, Hi). Lo is always finite because
// versions start at zero; Hi is only meaningful when Bounded is set.
type Interval struct {
	Lo      Version
	Hi      Version
	Bounded bool
}

// Universe is the interval containing every version.
func Universe() Interval { return Interval{} }

func From(lo Version) Interval { return Interval{Lo: lo} }

func Until(hi Version) Interval { return Interval{Hi: hi, Bounded: true} }

func Span(lo, hi Version) Interval { return Interval{Lo: lo, Hi: hi, Bounded: true} }

func (i Interval) Empty() bool {
	return i.Bounded && Compare(i.Hi, i.Lo) <= 0
}

func (i Interval) IsUniverse() bool {
	return !i.Bounded && i.Lo.IsZero()
}

func (i Interval) Intersect(o Interval) Interval {
	out := Interval{Lo: maxVersion(i.Lo, o.Lo)}
	switch {
	case !i.Bounded:
		out.Hi, out.Bounded = o.Hi, o.Bounded
	case !o.Bounded:
		out.Hi, out.Bounded = i.Hi, i.Bounded
	default:
		out.Hi, out.Bounded = minVersion(i.Hi, o.Hi), true
	}
	return out
}

// Contains reports whether o is a subset of i. The empty interval is a
// subset of everything.
func (i Interval) Contains(o Interval) bool {
	if o.Empty() {
		return true
	}
	if i.Empty() {
		return false
	}
	if o.Lo.Less(i.Lo) {
		return false
	}
	if !i.Bounded {
		return true
	}
	if !o.Bounded {
		return false
	}
	return Compare(o.Hi, i.Hi) <= 0
}

// Complement returns the parts of the universe outside i.
func (i Interval) Complement() []Interval {
	if i.Empty() {
		return []Interval{Universe()}
	}
	var parts []Interval
	if !i.Lo.IsZero() {
		parts = append(parts, Until(i.Lo))
	}
	if i.Bounded {
		parts = append(parts, From(i.Hi))
	}
	return parts
}

// Hull returns the smallest interval covering both.
func (i Interval) Hull(o Interval) Interval {
	if i.Empty() {
		return o
	}
	if o.Empty() {
		return i
	}
	out := Interval{Lo: minVersion(i.Lo, o.Lo)}
	if i.Bounded && o.Bounded {
		out.Hi, out.Bounded = maxVersion(i.Hi, o.Hi), true
	}
	return out
}

func (i Interval) String() string {
	switch {
	case i.Empty():
		return "[]"
	case !i.Bounded:
		return fmt.Sprintf("[%s, inf)", i.Lo)
	default:
		return fmt.Sprintf("[%s, %s)", i.Lo, i.Hi)
	}
}

// format renders the interval as a condition on ns.
func (i Interval) format(ns Namespace) string {
	switch {
	case i.Empty():
		return "false"
	case i.IsUniverse():
		return "true"
	case !i.Bounded:
		return fmt.Sprintf("%s >= %s", ns, i.Lo)
	case i.Lo.IsZero():
		return fmt.Sprintf("%s < %s", ns, i.Hi)
	case i.Hi == i.Lo.NextMajor() && i.Lo.Minor == 0:
		return fmt.Sprintf("%s == %s", ns, i.Lo)
	default:
		return fmt.Sprintf("%s >= %s && %s < %s", ns, i.Lo, ns, i.Hi)
	}
}
