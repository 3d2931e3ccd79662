package apilevel

// Op is a comparison operator between a version counter and a constant.
type Op int

const (
	OpLT Op = iota + 1
	OpLE
	OpEQ
	OpNE
	OpGT
	OpGE
)

var opNames = map[Op]string{
	OpLT: "<",
	OpLE: "<=",
	OpEQ: "==",
	OpNE: "!=",
	OpGT: ">",
	OpGE: ">=",
}

func ParseOp(s string) (Op, bool) {
	for op, name := range opNames {
		if name == s {
			return op, true
		}
	}
	return 0, false
}

func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "?"
}

// Flip mirrors the operator for a constant written on the left:
// 24 <= x is x >= 24.
func (op Op) Flip() Op {
	switch op {
	case OpLT:
		return OpGT
	case OpLE:
		return OpGE
	case OpGT:
		return OpLT
	case OpGE:
		return OpLE
	}
	return op
}

// Negate returns the operator of the logical complement.
func (op Op) Negate() Op {
	switch op {
	case OpLT:
		return OpGE
	case OpLE:
		return OpGT
	case OpEQ:
		return OpNE
	case OpNE:
		return OpEQ
	case OpGT:
		return OpLE
	case OpGE:
		return OpLT
	}
	return op
}

// Condition returns the versions of ns for which "ns op v" holds. When
// minorAware is false the counter only reports major levels, so "> 24"
// starts at 25 and "== 24" covers every 24.x.
func Condition(ns Namespace, op Op, v Version, minorAware bool) Set {
	next := v.NextMajor()
	if minorAware {
		next = v.NextMinor()
	} else {
		v = Level(v.Major)
	}
	switch op {
	case OpLT:
		return SetOf(Below(ns, v))
	case OpLE:
		return SetOf(Below(ns, next))
	case OpEQ:
		return SetOf(Between(ns, v, next))
	case OpNE:
		return Negate(Between(ns, v, next))
	case OpGT:
		return SetOf(AtLeast(ns, next))
	case OpGE:
		return SetOf(AtLeast(ns, v))
	}
	return True()
}
