package versioncheck

import (
	"strings"

	"github.com/gnoswap-labs/apigate/internal/apilevel"
	"github.com/gnoswap-labs/apigate/internal/tree"
)

// Accessors names the expressions that read the running platform version.
// Entries match a reference by symbol id, dotted source text or bare name.
type Accessors struct {
	SDKInt        []string `yaml:"sdk_int"`
	SDKIntFull    []string `yaml:"sdk_int_full"`
	Extension     []string `yaml:"extension"`
	RangeHalfOpen []string `yaml:"range_half_open"`
	RangeClosed   []string `yaml:"range_closed"`
}

// DefaultAccessors follows the Android names.
func DefaultAccessors() Accessors {
	return Accessors{
		SDKInt:        []string{"SDK_INT"},
		SDKIntFull:    []string{"SDK_INT_FULL"},
		Extension:     []string{"ExtensionVersion", "GetExtensionVersion"},
		RangeHalfOpen: []string{"In"},
		RangeClosed:   []string{"InClosed"},
	}
}

type nameSet map[string]bool

func newNameSet(names []string) nameSet {
	s := make(nameSet, len(names))
	for _, n := range names {
		s[n] = true
	}
	return s
}

func (s nameSet) matchRef(r *tree.Ref) bool {
	if r == nil {
		return false
	}
	if s[r.Name] || (r.Text != "" && s[r.Text]) {
		return true
	}
	return r.Sym != nil && s[r.Sym.ID]
}

func (s nameSet) matchCall(c *tree.Call) bool {
	if r, ok := c.Fun.(*tree.Ref); ok {
		return s.matchRef(r)
	}
	return c.Callee != nil && s[c.Callee.ID]
}

type accessorSet struct {
	sdkInt, sdkIntFull, extension, rangeHalfOpen, rangeClosed nameSet
}

func newAccessorSet(a Accessors) accessorSet {
	return accessorSet{
		sdkInt:        newNameSet(a.SDKInt),
		sdkIntFull:    newNameSet(a.SDKIntFull),
		extension:     newNameSet(a.Extension),
		rangeHalfOpen: newNameSet(a.RangeHalfOpen),
		rangeClosed:   newNameSet(a.RangeClosed),
	}
}

// access describes a version accessor found in an expression.
type access struct {
	ns         apilevel.Namespace
	minorAware bool
}

// env is the classification environment.
type env struct {
	// fn is the function whose parameters become template parameters
	// when template is set.
	fn       *tree.Func
	template bool
	// depth is the number of body-summarized helpers that may still be
	// expanded.
	depth int
	// inProgress holds the helpers whose summaries are being computed.
	inProgress map[*tree.Symbol]bool
	// inlining guards against initializer cycles.
	inlining map[*tree.Symbol]bool
}

func (e env) nested() bool { return len(e.inProgress) > 0 }

type recognizer struct {
	acc       accessorSet
	summaries *summarizer
}

// classify turns a condition into a predicate. It never fails.
func (r *recognizer) classify(e tree.Expr, en env) Predicate {
	site := e
	e = tree.Unwrap(e)
	switch x := e.(type) {
	case *tree.Literal:
		if x.Kind == tree.LitBool {
			return &Constant{site: site, Value: x.Bool}
		}
	case *tree.Unary:
		if x.Op == tree.UnaryNot {
			return NewNot(site, r.classify(x.X, en))
		}
	case *tree.Binary:
		switch {
		case x.Op == tree.OpLAnd:
			return NewAnd(site, r.classify(x.X, en), r.classify(x.Y, en))
		case x.Op == tree.OpLOr:
			return NewOr(site, r.classify(x.X, en), r.classify(x.Y, en))
		case x.Op.IsComparison():
			return r.comparison(x, en)
		}
	case *tree.Call:
		if p := r.rangeMembership(x, en); p != nil {
			return p
		}
		if x.Callee != nil {
			return r.helper(x.Callee, x, x.Args, en)
		}
	case *tree.Ref:
		if sym := x.Sym; sym != nil {
			if sym.Inlinable() && !en.inlining[sym] {
				return r.classify(sym.Init, en.inline(sym))
			}
			if sym.Kind != tree.SymFunc && sym.Kind != tree.SymMethod {
				if p := r.helper(sym, x, nil, en); informative(p) {
					return p
				}
			}
		}
	}
	return &Opaque{site: site}
}

func (e env) inline(sym *tree.Symbol) env {
	seen := make(map[*tree.Symbol]bool, len(e.inlining)+1)
	for k := range e.inlining {
		seen[k] = true
	}
	seen[sym] = true
	e.inlining = seen
	return e
}

func (r *recognizer) comparison(b *tree.Binary, en env) Predicate {
	op := comparisonOp(b.Op)
	if a, ok := r.accessor(b.X, en); ok {
		if v, ok := r.constant(b.Y, a, en); ok {
			return &Comparison{site: b, Namespace: a.ns, Op: op, Value: v, MinorAware: a.minorAware}
		}
	}
	if a, ok := r.accessor(b.Y, en); ok {
		if v, ok := r.constant(b.X, a, en); ok {
			return &Comparison{site: b, Namespace: a.ns, Op: op.Flip(), Value: v, MinorAware: a.minorAware}
		}
	}
	return &Opaque{site: b}
}

func comparisonOp(op tree.BinaryOp) apilevel.Op {
	switch op {
	case tree.OpLt:
		return apilevel.OpLT
	case tree.OpLe:
		return apilevel.OpLE
	case tree.OpEq:
		return apilevel.OpEQ
	case tree.OpNe:
		return apilevel.OpNE
	case tree.OpGt:
		return apilevel.OpGT
	}
	return apilevel.OpGE
}

// rangeMembership recognizes In(accessor, lo, hi) and InClosed.
func (r *recognizer) rangeMembership(c *tree.Call, en env) Predicate {
	var inclusive bool
	switch {
	case r.acc.rangeHalfOpen.matchCall(c):
	case r.acc.rangeClosed.matchCall(c):
		inclusive = true
	default:
		return nil
	}
	if len(c.Args) != 3 {
		return nil
	}
	a, ok := r.accessor(c.Args[0], en)
	if !ok {
		return nil
	}
	lo, okLo := r.constant(c.Args[1], a, en)
	hi, okHi := r.constant(c.Args[2], a, en)
	if !okLo || !okHi {
		return nil
	}
	return &RangeMembership{site: c, Namespace: a.ns, Lo: lo, Hi: hi, Inclusive: inclusive, MinorAware: a.minorAware}
}

// accessor reports whether e reads a platform version.
func (r *recognizer) accessor(e tree.Expr, en env) (access, bool) {
	switch x := tree.Unwrap(e).(type) {
	case *tree.Ref:
		switch {
		case r.acc.sdkInt.matchRef(x):
			return access{ns: apilevel.Platform}, true
		case r.acc.sdkIntFull.matchRef(x):
			return access{ns: apilevel.Platform, minorAware: true}, true
		}
		if sym := x.Sym; sym.Inlinable() && !en.inlining[sym] {
			return r.accessor(sym.Init, en.inline(sym))
		}
	case *tree.Call:
		if !r.acc.extension.matchCall(x) || len(x.Args) == 0 {
			return access{}, false
		}
		if lit, ok := r.literal(x.Args[0], en); ok && lit.Kind == tree.LitInt && lit.Int > 0 {
			return access{ns: apilevel.Namespace(lit.Int)}, true
		}
	}
	return access{}, false
}

// constant resolves a version operand: an integer, a codename, a template
// parameter or an immutable binding of one.
func (r *recognizer) constant(e tree.Expr, a access, en env) (Bound, bool) {
	switch x := tree.Unwrap(e).(type) {
	case *tree.Literal:
		if x.Kind != tree.LitInt || x.Int < 0 {
			return Bound{}, false
		}
		if a.minorAware {
			return Fixed(apilevel.FromFull(x.Int)), true
		}
		return Fixed(apilevel.Level(int(x.Int))), true
	case *tree.Ref:
		sym := x.Sym
		if en.template && sym != nil && sym.Kind == tree.SymParam && !sym.Mutable && en.fn != nil {
			if i := en.fn.ParamIndex(sym); i >= 0 {
				return Param(i), true
			}
		}
		if sym.Inlinable() && !en.inlining[sym] {
			return r.constant(sym.Init, a, en.inline(sym))
		}
		if sym == nil || sym.Kind == tree.SymUnknown || x.X != nil {
			if v, ok := apilevel.Codename(x.Name); ok {
				return Fixed(v), true
			}
		}
	}
	return Bound{}, false
}

func (r *recognizer) literal(e tree.Expr, en env) (*tree.Literal, bool) {
	switch x := tree.Unwrap(e).(type) {
	case *tree.Literal:
		return x, true
	case *tree.Ref:
		if sym := x.Sym; sym.Inlinable() && !en.inlining[sym] {
			return r.literal(sym.Init, en.inline(sym))
		}
	}
	return nil, false
}

// helper instantiates the summary of sym at a call or read.
func (r *recognizer) helper(sym *tree.Symbol, site tree.Node, args []tree.Expr, en env) Predicate {
	sum := r.summaries.lookup(sym, site, en)
	if sum == nil || sum.Lambda >= 0 {
		return &Opaque{site: site}
	}
	return instantiate(sum.Pred, site, r.argBinder(args, en))
}

// argBinder resolves template parameters against call arguments in the
// caller's environment.
func (r *recognizer) argBinder(args []tree.Expr, en env) binder {
	return func(i int, ns apilevel.Namespace, minorAware bool) (Bound, bool) {
		if i >= len(args) {
			return Bound{}, false
		}
		return r.constant(args[i], access{ns: ns, minorAware: minorAware}, en)
	}
}

// nameHeuristic infers a check from the name of a helper with no source.
func nameHeuristic(sym *tree.Symbol, site tree.Node) (apilevel.Version, bool) {
	if ref := calleeRef(site); ref != nil && strings.Contains(strings.ToLower(ref.Text), "buildcompat") {
		if v, ok := apilevel.FromBuildCompat(sym.Name); ok {
			return v, true
		}
	}
	return apilevel.FromMethodName(sym.Name)
}

func calleeRef(site tree.Node) *tree.Ref {
	switch s := site.(type) {
	case *tree.Call:
		r, _ := s.Fun.(*tree.Ref)
		return r
	case *tree.Ref:
		return s
	}
	return nil
}
