package versioncheck

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/gnoswap-labs/apigate/internal/apilevel"
	"github.com/gnoswap-labs/apigate/internal/tree"
)

// Source records how a summary was obtained.
type Source int

const (
	SourceMetadata Source = iota + 1
	SourceBody
	SourceName
)

func (s Source) String() string {
	switch s {
	case SourceMetadata:
		return "metadata"
	case SourceBody:
		return "body"
	case SourceName:
		return "name"
	}
	return "none"
}

// Summary abstracts a version-check helper. Pred is a template whose
// parameter bounds refer to call arguments. When Lambda is not -1 the
// check guards the function argument at that index instead of the
// result.
type Summary struct {
	Pred   Predicate
	Lambda int
	Source Source
}

// SummaryCache memoizes body summaries per symbol. A nil entry records
// that the symbol is not a helper. It is safe for concurrent use.
type SummaryCache struct {
	mu      sync.RWMutex
	entries map[*tree.Symbol]*Summary
	group   singleflight.Group
}

func NewSummaryCache() *SummaryCache {
	return &SummaryCache{entries: make(map[*tree.Symbol]*Summary)}
}

// Get returns the cached summary of sym, running compute at most once.
func (c *SummaryCache) Get(sym *tree.Symbol, compute func() *Summary) *Summary {
	c.mu.RLock()
	sum, ok := c.entries[sym]
	c.mu.RUnlock()
	if ok {
		return sum
	}

	v, _, _ := c.group.Do(fmt.Sprintf("%p", sym), func() (any, error) {
		c.mu.RLock()
		sum, ok := c.entries[sym]
		c.mu.RUnlock()
		if ok {
			return sum, nil
		}
		sum = compute()
		c.mu.Lock()
		c.entries[sym] = sum
		c.mu.Unlock()
		return sum, nil
	})
	return v.(*Summary)
}

// Len returns the number of cached symbols.
func (c *SummaryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Reset drops every entry.
func (c *SummaryCache) Reset() {
	c.mu.Lock()
	c.entries = make(map[*tree.Symbol]*Summary)
	c.mu.Unlock()
}

type summarizer struct {
	cache    *SummaryCache
	meta     MetadataSource
	rec      *recognizer
	maxDepth int
	logger   *zap.Logger
}

// lookup returns the summary of sym as seen from en, or nil.
//
// Body summaries requested from a function context are cached and always
// computed with the full budget. Those requested while another summary is
// being computed depend on the in-progress set, so they are computed
// directly and never cached.
func (s *summarizer) lookup(sym *tree.Symbol, site tree.Node, en env) *Summary {
	if sum := s.metadata(sym); sum != nil {
		return sum
	}
	if sym.Decl != nil && sym.Decl.Body != nil {
		if en.depth <= 0 || en.inProgress[sym] {
			return nil
		}
		if en.nested() {
			return s.body(sym, en.inProgress, en.depth-1)
		}
		return s.cache.Get(sym, func() *Summary {
			return s.body(sym, nil, s.maxDepth-1)
		})
	}
	if _, isCall := site.(*tree.Call); !isCall {
		return nil
	}
	switch sym.Kind {
	case tree.SymFunc, tree.SymMethod, tree.SymUnknown:
	default:
		return nil
	}
	if v, ok := nameHeuristic(sym, site); ok {
		return &Summary{
			Pred:   &Comparison{Namespace: apilevel.Platform, Op: apilevel.OpGE, Value: Fixed(v)},
			Lambda: -1,
			Source: SourceName,
		}
	}
	return nil
}

func (s *summarizer) metadata(sym *tree.Symbol) *Summary {
	meta := sym.Annotations.Check
	if meta == nil && s.meta != nil {
		meta, _ = s.meta.CheckMetadata(sym.ID)
	}
	if meta == nil {
		return nil
	}

	cmp := &Comparison{Namespace: meta.Namespace, Op: apilevel.OpGE, Value: Param(meta.Param)}
	if meta.Version != nil {
		cmp.Value = Fixed(*meta.Version)
		cmp.MinorAware = meta.Version.Minor != 0
	}
	return &Summary{Pred: cmp, Lambda: meta.Lambda, Source: SourceMetadata}
}

// body summarizes a function consisting of a single return statement.
func (s *summarizer) body(sym *tree.Symbol, parent map[*tree.Symbol]bool, depth int) *Summary {
	fn := sym.Decl
	if len(fn.Body.List) != 1 {
		return nil
	}
	ret, ok := fn.Body.List[0].(*tree.Return)
	if !ok || len(ret.Results) != 1 {
		return nil
	}

	inProgress := make(map[*tree.Symbol]bool, len(parent)+1)
	for k := range parent {
		inProgress[k] = true
	}
	inProgress[sym] = true

	pred := s.rec.classify(ret.Results[0], env{fn: fn, template: true, depth: depth, inProgress: inProgress})
	if isOpaque(pred) {
		return nil
	}
	s.logger.Debug("summarized helper",
		zap.String("symbol", sym.ID),
		zap.Stringer("predicate", pred),
		zap.Int("depth", depth))
	return &Summary{Pred: pred, Lambda: -1, Source: SourceBody}
}
