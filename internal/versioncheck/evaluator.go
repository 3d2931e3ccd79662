package versioncheck

import (
	"fmt"

	"github.com/gnoswap-labs/apigate/internal/apilevel"
	"github.com/gnoswap-labs/apigate/internal/tree"
)

// Verdict is the outcome at one call or reference site.
type Verdict struct {
	Site   tree.Node
	Symbol *tree.Symbol
	// Context is the proven context at the site.
	Context  apilevel.Set
	Required apilevel.Set
	Pass     bool
	// Gap is set on failure when some requirement alternative can be
	// met at all.
	Gap *Gap
}

// Gap is the unmet part of a requirement: the namespace, the floor the
// context proves and the floor the requirement needs.
type Gap struct {
	Namespace   apilevel.Namespace
	Have, Need  apilevel.Version
	Requirement apilevel.Constraint
}

// evaluate passes iff some requirement alternative holds on every
// alternative of the context. Dead code passes.
func evaluate(site tree.Node, sym *tree.Symbol, ctx, req apilevel.Set) Verdict {
	v := Verdict{Site: site, Symbol: sym, Context: ctx, Required: req}
	if ctx.IsFalse() {
		v.Pass = true
		return v
	}
	for _, alt := range req.Alternatives() {
		if ctx.Implies(alt) {
			v.Pass = true
			return v
		}
	}
	v.Gap = tightestGap(ctx, req)
	return v
}

// tightestGap picks the unmet namespace with the highest proven floor.
func tightestGap(ctx, req apilevel.Set) *Gap {
	var best *Gap
	for _, alt := range req.Alternatives() {
		for _, ns := range alt.Namespaces() {
			need := alt.Interval(ns)
			if ctx.Implies(apilevel.Of(ns, need)) {
				continue
			}
			have, _ := ctx.Floor(ns)
			if best == nil || best.Have.Less(have) {
				best = &Gap{Namespace: ns, Have: have, Need: need.Lo, Requirement: alt}
			}
		}
	}
	return best
}

// Name is the source form of the site, such as "camera.Open".
func (v Verdict) Name() string {
	switch s := v.Site.(type) {
	case *tree.Call:
		if name := s.CalleeName(); name != "" {
			return name
		}
	case *tree.Ref:
		if s.Text != "" {
			return s.Text
		}
	}
	if v.Symbol != nil {
		return v.Symbol.Name
	}
	return "?"
}

func (v Verdict) noun() string {
	if _, ok := v.Site.(*tree.Call); ok {
		return "Call"
	}
	if v.Symbol != nil {
		switch v.Symbol.Kind {
		case tree.SymType:
			return "Type"
		case tree.SymFunc, tree.SymMethod:
			return "Reference"
		}
	}
	return "Field"
}

// Message describes a failure, e.g.
// "Call requires API level 24 (current min is 21): camera.Open".
func (v Verdict) Message() string {
	if v.Pass {
		return ""
	}
	if v.Gap == nil || v.Gap.Need.IsZero() {
		return fmt.Sprintf("%s requires %s (current context is %s): %s", v.noun(), v.Required, v.Context, v.Name())
	}
	return fmt.Sprintf("%s requires %s %s (current min is %s): %s",
		v.noun(), v.Gap.Namespace.Describe(), v.Gap.Need, v.Gap.Have, v.Name())
}

// Reason classifies an obsolete check.
type Reason int

const (
	AlwaysTrue Reason = iota + 1
	AlwaysFalse
)

func (r Reason) String() string {
	if r == AlwaysTrue {
		return "always true"
	}
	return "always false"
}

// ObsoleteCheckFact reports a version check whose outcome the context
// already decides.
type ObsoleteCheckFact struct {
	Site      tree.Node
	Predicate Predicate
	Reason    Reason
	Context   apilevel.Set
}

func (f ObsoleteCheckFact) Message() string {
	return fmt.Sprintf("Unnecessary version check: %s is %s when %s", f.Predicate, f.Reason, f.Context)
}
