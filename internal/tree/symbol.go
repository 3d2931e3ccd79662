package tree

import "github.com/gnoswap-labs/apigate/internal/apilevel"

type SymbolKind int

const (
	SymUnknown SymbolKind = iota
	SymFunc
	SymMethod
	SymVar
	SymLocal
	SymParam
	SymConst
	SymField
	SymType
)

func (k SymbolKind) String() string {
	switch k {
	case SymFunc:
		return "func"
	case SymMethod:
		return "method"
	case SymVar:
		return "var"
	case SymLocal:
		return "local"
	case SymParam:
		return "param"
	case SymConst:
		return "const"
	case SymField:
		return "field"
	case SymType:
		return "type"
	default:
		return "unknown"
	}
}

// Symbol is a resolved declaration. Symbols are shared by every use site
// and never change after conversion.
type Symbol struct {
	// ID is "importpath.Name" for package members and
	// "importpath.Type.Method" for methods. Locals get a position suffix.
	ID   string
	Name string
	Kind SymbolKind

	// Mutable is set when the binding can change after its declaration.
	// Fields are always mutable.
	Mutable bool

	// Init is the initializer of an immutable binding.
	Init Expr

	// Decl is the declaration of a function or method with source.
	Decl *Func

	// Index is the position of a parameter.
	Index int

	Annotations Annotations
}

func (s *Symbol) String() string {
	if s == nil {
		return "<nil>"
	}
	return s.ID
}

// Inlinable reports whether reads of s may be replaced by its initializer.
func (s *Symbol) Inlinable() bool {
	if s == nil || s.Mutable || s.Init == nil {
		return false
	}
	switch s.Kind {
	case SymLocal, SymVar, SymConst:
		return true
	}
	return false
}

// Annotations are the version directives attached to a declaration.
type Annotations struct {
	// Requires holds one set per directive; they are ANDed.
	Requires []apilevel.Set
	Check    *CheckMetadata
	NoReturn bool
}

// Requirement ANDs every requires directive. ok is false when there are
// none.
func (a Annotations) Requirement() (apilevel.Set, bool) {
	if len(a.Requires) == 0 {
		return apilevel.True(), false
	}
	out := apilevel.True()
	for _, r := range a.Requires {
		out = out.AndExact(r)
	}
	return out, true
}

// CheckMetadata marks a function as a version check whose result (or
// lambda argument) holds when the namespace is at least a fixed version
// or the version passed in a parameter.
type CheckMetadata struct {
	Namespace apilevel.Namespace
	Version   *apilevel.Version
	Param     int // -1 when the version is fixed
	Lambda    int // -1 when the check is returned rather than applied to a lambda
}

// NewCheckMetadata returns metadata with no parameter and no lambda.
func NewCheckMetadata(ns apilevel.Namespace) *CheckMetadata {
	return &CheckMetadata{Namespace: ns, Param: -1, Lambda: -1}
}
