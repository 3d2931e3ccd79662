package versioncheck

import (
	"go/token"

	"github.com/gnoswap-labs/apigate/internal/apilevel"
	"github.com/gnoswap-labs/apigate/internal/branch"
	"github.com/gnoswap-labs/apigate/internal/tree"
)

// walker threads the proven context through a function body.
type walker struct {
	a   *Analyzer
	res *Result

	fn *tree.Func
	// base is where goto targets restart; root is the base of the
	// enclosing declaration, used for function literals that may run
	// anywhere.
	base, root apilevel.Set
	targets    []*target

	// invocation is set while collecting the contexts in which a parameter
	// is invoked. Nothing is recorded in that mode.
	invocation *invocation
}

type target struct {
	label  string
	breaks apilevel.Set
}

type invocation struct {
	param *tree.Symbol
	ctx   apilevel.Set
	found bool
}

func (w *walker) env() env {
	return env{fn: w.fn, depth: w.a.maxDepth}
}

func (w *walker) classify(e tree.Expr) Predicate {
	return w.a.rec.classify(e, w.env())
}

// run walks fn starting from ctx.
func (w *walker) run(fn *tree.Func, ctx apilevel.Set) {
	if fn == nil || fn.Body == nil {
		return
	}
	sub := *w
	sub.fn = fn
	sub.base = ctx
	sub.targets = nil
	sub.block(fn.Body.List, ctx)
}

func (w *walker) block(list []tree.Stmt, ctx apilevel.Set) apilevel.Set {
	for _, s := range list {
		ctx = w.stmt(s, ctx)
	}
	return ctx
}

func (w *walker) stmt(s tree.Stmt, ctx apilevel.Set) apilevel.Set {
	switch s := s.(type) {
	case *tree.Block:
		return w.block(s.List, ctx)
	case *tree.If:
		return w.ifStmt(s, ctx)
	case *tree.Switch:
		return w.switchStmt(s, ctx)
	case *tree.Loop:
		return w.loop(s, ctx)
	case *tree.Labeled:
		if w.fn != nil && w.fn.GotoTargets[s.Label] {
			ctx = w.base
		}
		if s.Stmt == nil {
			return ctx
		}
		return w.stmt(s.Stmt, ctx)
	case *tree.ExprStmt:
		w.expr(s.X, ctx)
	case *tree.Let:
		w.expr(s.Type, ctx)
		w.exprs(s.Values, ctx)
	case *tree.Assign:
		w.exprs(s.Lhs, ctx)
		w.exprs(s.Rhs, ctx)
	case *tree.Return:
		w.exprs(s.Results, ctx)
	case *tree.Branch:
		if s.Tok == token.BREAK {
			w.breakTo(s.Label, ctx)
		}
	case *tree.Defer:
		w.expr(s.Call, ctx)
	case *tree.Go:
		w.expr(s.Call, ctx)
	}

	if branch.StmtBranch(s).Deviates() {
		return apilevel.False()
	}
	return ctx
}

func (w *walker) ifStmt(s *tree.If, ctx apilevel.Set) apilevel.Set {
	if s.Init != nil {
		ctx = w.stmt(s.Init, ctx)
	}
	w.expr(s.Cond, ctx)
	p := w.classify(s.Cond)

	thenOut := w.block(s.Then.List, ctx.And(Assume(p, true)))
	elseOut := ctx.And(Assume(p, false))
	if s.Else != nil {
		elseOut = w.stmt(s.Else, elseOut)
	}
	return join(ctx, thenOut, elseOut)
}

// switchStmt treats the clauses as an if/else-if chain in source order
// with default last. Clauses of opaque switches and of switches on a
// non-version tag run under the incoming context.
func (w *walker) switchStmt(s *tree.Switch, ctx apilevel.Set) apilevel.Set {
	if s.Init != nil {
		ctx = w.stmt(s.Init, ctx)
	}
	if s.Tag != nil {
		w.expr(s.Tag, ctx)
	}

	var (
		tag        access
		versionTag bool
	)
	if s.Tag != nil && !s.Opaque {
		tag, versionTag = w.a.rec.accessor(s.Tag, w.env())
	}
	conditional := !s.Opaque && (s.Tag == nil || versionTag)

	entries := make([]apilevel.Set, len(s.Clauses))
	rest := ctx
	hasDefault := false
	for i, cl := range s.Clauses {
		if cl.Default {
			hasDefault = true
			continue
		}
		if !conditional {
			w.exprs(cl.Exprs, ctx)
			entries[i] = ctx
			continue
		}
		match := apilevel.False()
		for _, e := range cl.Exprs {
			w.expr(e, rest)
			var p Predicate
			if versionTag {
				p = w.caseLabel(e, tag)
				w.checkLeaf(p, rest)
			} else {
				p = w.classify(e)
			}
			match = match.Or(rest.And(Assume(p, true)))
			rest = rest.And(Assume(p, false))
		}
		entries[i] = match
	}
	for i, cl := range s.Clauses {
		if cl.Default {
			entries[i] = rest
		}
	}

	t := w.push(s.Label)
	outs := make([]apilevel.Set, 0, len(s.Clauses)+2)
	carry := apilevel.False()
	for i, cl := range s.Clauses {
		out := w.block(cl.Body, entries[i].Or(carry))
		if cl.Fallthrough {
			carry = out
			continue
		}
		carry = apilevel.False()
		outs = append(outs, out)
	}
	w.pop()

	if !hasDefault {
		outs = append(outs, rest)
	}
	outs = append(outs, t.breaks)
	return join(ctx, outs...)
}

// caseLabel classifies a label of a switch on a version accessor.
func (w *walker) caseLabel(e tree.Expr, tag access) Predicate {
	v, ok := w.a.rec.constant(e, tag, w.env())
	if !ok || v.IsParam() {
		return &Opaque{site: e}
	}
	return &SwitchCase{site: e, Cond: apilevel.Condition(tag.ns, apilevel.OpEQ, v.Version, tag.minorAware)}
}

// loop walks the body once under the loop condition. The loop leaves
// with its incoming context, except for loops without a condition, which
// leave only through break.
func (w *walker) loop(s *tree.Loop, ctx apilevel.Set) apilevel.Set {
	if s.Init != nil {
		ctx = w.stmt(s.Init, ctx)
	}
	if s.Range != nil {
		w.expr(s.Range, ctx)
	}
	body := ctx
	if s.Cond != nil {
		w.expr(s.Cond, ctx)
		body = ctx.And(Assume(w.classify(s.Cond), true))
	}

	t := w.push(s.Label)
	if s.Body != nil {
		w.block(s.Body.List, body)
	}
	if s.Post != nil {
		w.stmt(s.Post, body)
	}
	w.pop()

	if s.Cond == nil && s.Range == nil {
		return t.breaks
	}
	return ctx
}

func (w *walker) push(label string) *target {
	t := &target{label: label, breaks: apilevel.False()}
	w.targets = append(w.targets, t)
	return t
}

func (w *walker) pop() {
	w.targets = w.targets[:len(w.targets)-1]
}

func (w *walker) breakTo(label string, ctx apilevel.Set) {
	for i := len(w.targets) - 1; i >= 0; i-- {
		t := w.targets[i]
		if label == "" || t.label == label {
			t.breaks = t.breaks.Or(ctx)
			return
		}
	}
}

// join merges the outgoing contexts of branches that all started from
// ctx. When they cover ctx again the result is ctx itself.
func join(ctx apilevel.Set, outs ...apilevel.Set) apilevel.Set {
	out := apilevel.False()
	for _, o := range outs {
		out = out.Or(o)
	}
	if ctx.ImpliesSet(out) {
		return ctx
	}
	return out
}

func (w *walker) exprs(list []tree.Expr, ctx apilevel.Set) {
	for _, e := range list {
		w.expr(e, ctx)
	}
}

func (w *walker) expr(e tree.Expr, ctx apilevel.Set) {
	switch x := e.(type) {
	case nil:
	case *tree.Binary:
		if x.Op == tree.OpLAnd || x.Op == tree.OpLOr {
			w.expr(x.X, ctx)
			left := Assume(w.classify(x.X), x.Op == tree.OpLAnd)
			w.expr(x.Y, ctx.And(left))
			return
		}
		w.expr(x.X, ctx)
		w.expr(x.Y, ctx)
		if x.Op.IsComparison() {
			w.checkLeaf(w.classify(x), ctx)
		}
	case *tree.Unary:
		w.expr(x.X, ctx)
	case *tree.Ref:
		w.expr(x.X, ctx)
		w.reference(x, ctx)
	case *tree.Call:
		w.call(x, ctx)
	case *tree.FuncLit:
		w.run(x.Func, w.root)
	case *tree.Other:
		w.exprs(x.Kids, ctx)
	}
}

func (w *walker) call(c *tree.Call, ctx apilevel.Set) {
	switch fun := c.Fun.(type) {
	case *tree.Ref:
		w.expr(fun.X, ctx)
	case *tree.FuncLit:
		w.run(fun.Func, ctx)
	default:
		w.expr(c.Fun, ctx)
	}
	for i, arg := range c.Args {
		if lit, ok := arg.(*tree.FuncLit); ok {
			w.run(lit.Func, w.lambdaContext(c, i, ctx))
			continue
		}
		w.expr(arg, ctx)
	}

	if w.invocation != nil && c.Callee != nil && c.Callee == w.invocation.param {
		w.invocation.ctx = w.invocation.ctx.Or(ctx)
		w.invocation.found = true
	}
	if c.Callee != nil {
		w.checkLeaf(w.classify(c), ctx)
	}
	w.site(c, c.Callee, ctx)
}

// lambdaContext decides the context of a function literal passed as the
// i-th argument of c.
func (w *walker) lambdaContext(c *tree.Call, i int, ctx apilevel.Set) apilevel.Set {
	callee := c.Callee
	if callee == nil {
		return w.root
	}
	en := w.env()
	if sum := w.a.summaries.lookup(callee, c, en); sum != nil && sum.Lambda == i {
		check := instantiate(sum.Pred, c, w.a.rec.argBinder(c.Args, en))
		return ctx.And(Assume(check, true))
	}
	if w.a.syncInvokers.matchCall(c) {
		return ctx
	}
	if callee.Decl != nil && w.invocation == nil {
		if inv, ok := w.invocationContext(callee.Decl, i); ok {
			return ctx.And(inv)
		}
	}
	return w.root
}

// invocationContext returns the join of the contexts in which fn invokes
// its i-th parameter, relative to fn's entry.
func (w *walker) invocationContext(fn *tree.Func, i int) (apilevel.Set, bool) {
	if i >= len(fn.Params) || fn.Params[i].Mutable {
		return apilevel.Set{}, false
	}
	pr := &invocation{param: fn.Params[i], ctx: apilevel.False()}
	sub := &walker{a: w.a, root: apilevel.True(), invocation: pr}
	sub.run(fn, apilevel.True())
	return pr.ctx, pr.found
}

func (w *walker) reference(ref *tree.Ref, ctx apilevel.Set) {
	if ref.Sym == nil || w.res == nil {
		return
	}
	if _, ok := w.a.requirement(ref.Sym); ok {
		w.site(ref, ref.Sym, ctx)
	}
}

func (w *walker) site(n tree.Node, sym *tree.Symbol, ctx apilevel.Set) {
	if w.res == nil {
		return
	}
	w.res.contexts[n] = ctx
	if sym == nil {
		return
	}
	req, ok := w.a.requirement(sym)
	if !ok {
		return
	}
	w.res.Verdicts = append(w.res.Verdicts, evaluate(n, sym, ctx, req))
}

// checkLeaf records a fact when a version check cannot change outcome in
// ctx.
func (w *walker) checkLeaf(p Predicate, ctx apilevel.Set) {
	if w.res == nil || !informative(p) || ctx.IsFalse() {
		return
	}
	var reason Reason
	switch {
	case ctx.And(Assume(p, false)).IsFalse():
		reason = AlwaysTrue
	case ctx.And(Assume(p, true)).IsFalse():
		reason = AlwaysFalse
	default:
		return
	}
	w.res.Obsolete = append(w.res.Obsolete, ObsoleteCheckFact{
		Site:      p.Site(),
		Predicate: p,
		Reason:    reason,
		Context:   ctx,
	})
}
