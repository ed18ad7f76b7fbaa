package subsumer

import (
	"log/slog"
	"sync"

	"github.com/botirk38/semsim/metrics"
	"github.com/botirk38/semsim/types"
	"golang.org/x/sync/singleflight"
)

// ClosureCache memoizes the named reflexive subsumers of each term: the
// representatives of every ancestor group plus the term's own group.
//
// Thread Safety:
//
//	ClosureCache is safe for concurrent use. Concurrent misses on the same
//	term are collapsed into one computation.
type ClosureCache struct {
	index   *Index
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu       sync.RWMutex
	closures map[types.Term]types.Set[types.Term]
	flight   singleflight.Group
}

// NewClosureCache creates a ClosureCache over index.
func NewClosureCache(index *Index, logger *slog.Logger, m *metrics.Metrics) *ClosureCache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ClosureCache{
		index:    index,
		logger:   logger,
		metrics:  m,
		closures: make(map[types.Term]types.Set[types.Term]),
	}
}

// Index returns the underlying subsumer index.
func (c *ClosureCache) Index() *Index {
	return c.index
}

// ClosureOf returns a copy of the reflexive subsumer closure of t.
func (c *ClosureCache) ClosureOf(t types.Term) (types.Set[types.Term], error) {
	s, err := c.closure(t)
	if err != nil {
		return nil, err
	}
	return s.Clone(), nil
}

// closure returns the shared cached set; callers must not modify it.
func (c *ClosureCache) closure(t types.Term) (types.Set[types.Term], error) {
	c.mu.RLock()
	s, ok := c.closures[t]
	c.mu.RUnlock()
	if ok {
		c.metrics.Hit(metrics.CacheClosure)
		return s, nil
	}
	c.metrics.Miss(metrics.CacheClosure)

	v, err, _ := c.flight.Do(string(t), func() (any, error) {
		c.mu.RLock()
		s, ok := c.closures[t]
		c.mu.RUnlock()
		if ok {
			return s, nil
		}

		supers, err := c.index.SuperClassesOf(t)
		if err != nil {
			return nil, err
		}
		self, err := c.index.EquivalentsOf(t)
		if err != nil {
			return nil, err
		}
		s = supers.Clone()
		s.Add(self.Representative)

		c.mu.Lock()
		c.closures[t] = s
		c.mu.Unlock()
		c.metrics.Computed(metrics.CacheClosure)
		c.logger.Debug("computed subsumer closure", "term", t, "size", len(s))
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(types.Set[types.Term]), nil
}

// ClosureSize returns |closureOf(t)| without copying.
func (c *ClosureCache) ClosureSize(t types.Term) (int, error) {
	s, err := c.closure(t)
	if err != nil {
		return 0, err
	}
	return len(s), nil
}

// CommonClosure returns closureOf(a) ∩ closureOf(b). Not cached.
func (c *ClosureCache) CommonClosure(a, b types.Term) (types.Set[types.Term], error) {
	sa, sb, err := c.pair(a, b)
	if err != nil {
		return nil, err
	}
	return sa.Intersect(sb), nil
}

// CommonCount returns |closureOf(a) ∩ closureOf(b)|.
func (c *ClosureCache) CommonCount(a, b types.Term) (int, error) {
	sa, sb, err := c.pair(a, b)
	if err != nil {
		return 0, err
	}
	return sa.IntersectionSize(sb), nil
}

// Sizes returns |common|, |union|, |closureOf(a)| and |closureOf(b)| in one pass.
func (c *ClosureCache) Sizes(a, b types.Term) (common, union, sizeA, sizeB int, err error) {
	sa, sb, err := c.pair(a, b)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	common = sa.IntersectionSize(sb)
	return common, len(sa) + len(sb) - common, len(sa), len(sb), nil
}

// Closures returns the shared closure sets of a and b; callers must not modify them.
func (c *ClosureCache) Closures(a, b types.Term) (types.Set[types.Term], types.Set[types.Term], error) {
	return c.pair(a, b)
}

func (c *ClosureCache) pair(a, b types.Term) (types.Set[types.Term], types.Set[types.Term], error) {
	sa, err := c.closure(a)
	if err != nil {
		return nil, nil, err
	}
	sb, err := c.closure(b)
	if err != nil {
		return nil, nil, err
	}
	return sa, sb, nil
}

// InferredOf returns the union of the closures of terms.
func (c *ClosureCache) InferredOf(terms types.Set[types.Term]) (types.Set[types.Term], error) {
	out := make(types.Set[types.Term])
	for t := range terms {
		// a term already present brings every one of its subsumers with it
		if out.Contains(t) {
			continue
		}
		s, err := c.closure(t)
		if err != nil {
			return nil, err
		}
		out.AddAll(s)
	}
	return out, nil
}

// IsStrictAncestor reports whether anc is a strict ancestor of t.
func (c *ClosureCache) IsStrictAncestor(anc, t types.Term) (bool, error) {
	supers, err := c.index.SuperClassesOf(t)
	if err != nil {
		return false, err
	}
	rep, err := c.index.Representative(anc)
	if err != nil {
		return false, err
	}
	return supers.Contains(rep), nil
}

// Len returns the number of memoized closures.
func (c *ClosureCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.closures)
}

// Clear drops every memoized closure.
func (c *ClosureCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closures = make(map[types.Term]types.Set[types.Term])
}
