package apilevel

import "strings"

// MaxAlternatives caps the number of alternatives a Set tracks. Larger
// sets are widened to their hull, except by OrExact and AndExact.
const MaxAlternatives = 8

// Set is a disjunction of constraints. The zero value holds no
// alternatives and is therefore false.
type Set struct {
	alts []Constraint
}

func False() Set { return Set{} }

func True() Set { return Set{alts: []Constraint{Top()}} }

// SetOf returns the disjunction of cs.
func SetOf(cs ...Constraint) Set {
	var s Set
	for _, c := range cs {
		s = s.add(c)
	}
	return s
}

// add returns s || c, keeping only maximal alternatives. s is not modified.
func (s Set) add(c Constraint) Set {
	return s.insert(c, MaxAlternatives)
}

// insert is add with a cap on the alternatives; 0 keeps all of them.
func (s Set) insert(c Constraint, limit int) Set {
	if c.IsBottom() {
		return s
	}
	for _, a := range s.alts {
		if c.Implies(a) {
			return s
		}
	}
	alts := make([]Constraint, 0, len(s.alts)+1)
	for i, a := range s.alts {
		if a.Implies(c) {
			continue
		}
		if merged, ok := merge(a, c); ok {
			return Set{alts: alts}.union(Set{alts: s.alts[i+1:]}, limit).insert(merged, limit)
		}
		alts = append(alts, a)
	}
	alts = append(alts, c)
	if limit > 0 && len(alts) > limit {
		return Set{alts: []Constraint{widen(alts)}}
	}
	return Set{alts: alts}
}

// merge joins two constraints that agree everywhere except on one
// namespace whose intervals overlap or touch.
func merge(a, c Constraint) (Constraint, bool) {
	if len(a.bounds) != len(c.bounds) {
		return Constraint{}, false
	}
	diff := -1
	for i := range a.bounds {
		if a.bounds[i].ns != c.bounds[i].ns {
			return Constraint{}, false
		}
		if a.bounds[i].iv == c.bounds[i].iv {
			continue
		}
		if diff >= 0 {
			return Constraint{}, false
		}
		diff = i
	}
	if diff < 0 {
		return a, true
	}
	x, y := a.bounds[diff].iv, c.bounds[diff].iv
	if (x.Bounded && x.Hi.Less(y.Lo)) || (y.Bounded && y.Hi.Less(x.Lo)) {
		return Constraint{}, false
	}
	bounds := make([]bound, 0, len(a.bounds))
	for i, b := range a.bounds {
		if i == diff {
			iv := x.Hull(y)
			if iv.IsUniverse() {
				continue
			}
			b.iv = iv
		}
		bounds = append(bounds, b)
	}
	return Constraint{bounds: bounds}, true
}

func widen(alts []Constraint) Constraint {
	out := alts[0]
	for _, a := range alts[1:] {
		out = Hull(out, a)
	}
	return out
}

// Alternatives returns a copy of the alternatives.
func (s Set) Alternatives() []Constraint {
	out := make([]Constraint, len(s.alts))
	copy(out, s.alts)
	return out
}

func (s Set) Len() int { return len(s.alts) }

func (s Set) IsFalse() bool { return len(s.alts) == 0 }

func (s Set) IsTrue() bool {
	for _, a := range s.alts {
		if a.IsTop() {
			return true
		}
	}
	return false
}

func (s Set) Or(o Set) Set { return s.union(o, MaxAlternatives) }

// And distributes the conjunction over both sets of alternatives.
func (s Set) And(o Set) Set { return s.product(o, MaxAlternatives) }

// OrExact and AndExact never widen. Requirements are built with them:
// the hull of a requirement accepts contexts the requirement rejects.
func (s Set) OrExact(o Set) Set { return s.union(o, 0) }

func (s Set) AndExact(o Set) Set { return s.product(o, 0) }

func (s Set) union(o Set, limit int) Set {
	out := s
	for _, c := range o.alts {
		out = out.insert(c, limit)
	}
	return out
}

func (s Set) product(o Set, limit int) Set {
	var out Set
	for _, a := range s.alts {
		for _, b := range o.alts {
			out = out.insert(And(a, b), limit)
		}
	}
	return out
}

func (s Set) AndConstraint(c Constraint) Set {
	return s.And(SetOf(c))
}

// Negate returns the complement of s.
func (s Set) Negate() Set {
	out := True()
	for _, a := range s.alts {
		out = out.And(Negate(a))
	}
	return out
}

// Implies reports whether every alternative of s implies c.
func (s Set) Implies(c Constraint) bool {
	for _, a := range s.alts {
		if !a.Implies(c) {
			return false
		}
	}
	return true
}

// ImpliesSet reports whether s entails o, i.e. s && !o is false.
func (s Set) ImpliesSet(o Set) bool {
	if s.IsFalse() || o.IsTrue() {
		return true
	}
	return s.And(o.Negate()).IsFalse()
}

// Disjoint reports whether s && o is false.
func (s Set) Disjoint(o Set) bool {
	return s.And(o).IsFalse()
}

// Equal compares the alternatives without regard to order.
func (s Set) Equal(o Set) bool {
	if len(s.alts) != len(o.alts) {
		return false
	}
	for _, a := range s.alts {
		found := false
		for _, b := range o.alts {
			if a.Equal(b) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Floor is the lowest version any alternative allows on ns. A false set
// has no floor.
func (s Set) Floor(ns Namespace) (Version, bool) {
	if len(s.alts) == 0 {
		return Version{}, false
	}
	floor := s.alts[0].Floor(ns)
	for _, a := range s.alts[1:] {
		floor = minVersion(floor, a.Floor(ns))
	}
	return floor, true
}

func (s Set) String() string {
	switch {
	case len(s.alts) == 0:
		return "false"
	case len(s.alts) == 1:
		return s.alts[0].String()
	}
	parts := make([]string, 0, len(s.alts))
	for _, a := range s.alts {
		str := a.String()
		if len(a.bounds) > 1 || strings.Contains(str, "&&") {
			str = "(" + str + ")"
		}
		parts = append(parts, str)
	}
	return strings.Join(parts, " || ")
}
