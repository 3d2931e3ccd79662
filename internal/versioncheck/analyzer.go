// Package versioncheck decides whether the control flow around a call
// proves that the running platform meets the callee's minimum version.
//
// Conditions are classified into predicates, the proven context is
// threaded through each function body as a set of version constraints
// and every site whose symbol carries a requirement gets a verdict.
// Checks the context already decides are reported as obsolete.
package versioncheck

import (
	"sort"

	"go.uber.org/zap"

	"github.com/gnoswap-labs/apigate/internal/apilevel"
	"github.com/gnoswap-labs/apigate/internal/tree"
)

// RequirementSource yields the minimum version of a symbol.
type RequirementSource interface {
	Requirement(symbolID string) (apilevel.Set, bool)
}

// MetadataSource yields the metadata of library version-check helpers.
type MetadataSource interface {
	CheckMetadata(symbolID string) (*tree.CheckMetadata, bool)
}

// DefaultMaxHelperDepth is how many body-summarized helpers may be
// expanded inside one another.
const DefaultMaxHelperDepth = 1

// Analyzer runs the version check. It is safe for concurrent use and
// keeps no state between runs: helper summaries live as long as one call
// to Analyze unless a shared cache is configured.
type Analyzer struct {
	reqs         RequirementSource
	minSDK       apilevel.Set
	maxDepth     int
	syncInvokers nameSet
	acc          accessorSet
	meta         MetadataSource
	shared       *SummaryCache
	logger       *zap.Logger

	// rec and summaries are set on the copy made for each run.
	rec       *recognizer
	summaries *summarizer
}

type config struct {
	minSDK       apilevel.Set
	accessors    Accessors
	syncInvokers []string
	maxDepth     int
	meta         MetadataSource
	cache        *SummaryCache
	logger       *zap.Logger
}

// Option configures an Analyzer.
type Option func(*config)

// WithMinSDK sets the context every function starts from.
func WithMinSDK(min apilevel.Set) Option {
	return func(c *config) { c.minSDK = min }
}

func WithAccessors(a Accessors) Option {
	return func(c *config) { c.accessors = a }
}

// WithSyncInvokers names functions that call their function arguments
// before returning, such as sort.Slice.
func WithSyncInvokers(ids ...string) Option {
	return func(c *config) { c.syncInvokers = append(c.syncInvokers, ids...) }
}

func WithMaxHelperDepth(n int) Option {
	return func(c *config) { c.maxDepth = n }
}

func WithMetadata(m MetadataSource) Option {
	return func(c *config) { c.meta = m }
}

// WithSummaryCache shares helper summaries between runs and analyzers.
// Entries are keyed by symbol, so the caller resets the cache once the
// packages it has seen are reloaded.
func WithSummaryCache(cache *SummaryCache) Option {
	return func(c *config) { c.cache = cache }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}

// New returns an analyzer that looks requirements up in reqs.
func New(reqs RequirementSource, opts ...Option) *Analyzer {
	cfg := config{
		minSDK:    apilevel.True(),
		accessors: DefaultAccessors(),
		maxDepth:  DefaultMaxHelperDepth,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.maxDepth < 0 {
		cfg.maxDepth = 0
	}

	return &Analyzer{
		reqs:         reqs,
		minSDK:       cfg.minSDK,
		maxDepth:     cfg.maxDepth,
		syncInvokers: newNameSet(cfg.syncInvokers),
		acc:          newAccessorSet(cfg.accessors),
		meta:         cfg.meta,
		shared:       cfg.cache,
		logger:       cfg.logger,
	}
}

// fork returns the copy of a that one run works with.
func (a *Analyzer) fork() *Analyzer {
	cache := a.shared
	if cache == nil {
		cache = NewSummaryCache()
	}
	run := *a
	run.rec = &recognizer{acc: a.acc}
	run.summaries = &summarizer{
		cache:    cache,
		meta:     a.meta,
		rec:      run.rec,
		maxDepth: a.maxDepth,
		logger:   a.logger,
	}
	run.rec.summaries = run.summaries
	return &run
}

// Result holds the verdicts and obsolete checks of a package, ordered by
// source position.
type Result struct {
	Verdicts []Verdict
	Obsolete []ObsoleteCheckFact

	contexts  map[tree.Node]apilevel.Set
	calls     map[*tree.Call]Verdict
	summaries *SummaryCache
}

// Context returns the proven context at a call, or at a reference with a
// requirement.
func (r *Result) Context(n tree.Node) (apilevel.Set, bool) {
	ctx, ok := r.contexts[n]
	return ctx, ok
}

// Failures returns the verdicts that did not pass.
func (r *Result) Failures() []Verdict {
	var out []Verdict
	for _, v := range r.Verdicts {
		if !v.Pass {
			out = append(out, v)
		}
	}
	return out
}

// Analyze checks every function of pkg.
func (a *Analyzer) Analyze(pkg *tree.Package) *Result {
	run := a.fork()
	res := &Result{
		contexts:  make(map[tree.Node]apilevel.Set),
		calls:     make(map[*tree.Call]Verdict),
		summaries: run.summaries.cache,
	}
	for _, f := range pkg.Files {
		for _, let := range f.Vars {
			w := &walker{a: run, res: res, base: a.minSDK, root: a.minSDK}
			w.stmt(let, a.minSDK)
		}
		for _, fn := range f.Funcs {
			base := a.baseContext(fn)
			w := &walker{a: run, res: res, root: base}
			w.run(fn, base)
		}
	}

	sort.SliceStable(res.Verdicts, func(i, j int) bool {
		return res.Verdicts[i].Site.Pos() < res.Verdicts[j].Site.Pos()
	})
	sort.SliceStable(res.Obsolete, func(i, j int) bool {
		return res.Obsolete[i].Site.Pos() < res.Obsolete[j].Site.Pos()
	})
	for _, v := range res.Verdicts {
		if call, ok := v.Site.(*tree.Call); ok {
			res.calls[call] = v
		}
	}

	a.logger.Debug("analyzed package",
		zap.String("package", pkg.Path),
		zap.Int("sites", len(res.Verdicts)),
		zap.Int("failures", len(res.Failures())),
		zap.Int("obsolete", len(res.Obsolete)))
	return res
}

// Evaluate returns the verdict of a call of the analyzed package. Calls
// that are not sites pass.
func (r *Result) Evaluate(call *tree.Call) Verdict {
	if v, ok := r.calls[call]; ok {
		return v
	}
	return Verdict{Site: call, Symbol: call.Callee, Pass: true}
}

// baseContext is min_sdk narrowed by the requires directives of the
// declaration and its receiver type.
func (a *Analyzer) baseContext(fn *tree.Func) apilevel.Set {
	ctx := a.minSDK
	if fn.Sym != nil {
		if req, ok := fn.Sym.Annotations.Requirement(); ok {
			ctx = ctx.And(req)
		}
	}
	return ctx
}

// requirement combines the database entry and requires directives of
// sym.
func (a *Analyzer) requirement(sym *tree.Symbol) (apilevel.Set, bool) {
	var (
		req   apilevel.Set
		found bool
	)
	if a.reqs != nil {
		req, found = a.reqs.Requirement(sym.ID)
	}
	if own, ok := sym.Annotations.Requirement(); ok {
		if found {
			req = req.AndExact(own)
		} else {
			req = own
		}
		found = true
	}
	return req, found
}
