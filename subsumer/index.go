// Package subsumer wraps reasoner queries with a same-process cache and
// computes the reflexive subsumer closure every set-based metric is built on.
package subsumer

import (
	"log/slog"
	"sync"

	"github.com/botirk38/semsim/metrics"
	"github.com/botirk38/semsim/types"
)

// Index caches superclass and equivalence queries against a Reasoner.
//
// Sets returned by Index are shared with the cache and must not be modified.
type Index struct {
	reasoner types.Reasoner
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu     sync.RWMutex
	supers map[types.Term]types.Set[types.Term]
	equivs map[types.Term]types.Node
}

// NewIndex creates an Index over r.
func NewIndex(r types.Reasoner, logger *slog.Logger, m *metrics.Metrics) (*Index, error) {
	if r == nil {
		return nil, types.ErrNilReasoner
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Index{
		reasoner: r,
		logger:   logger,
		metrics:  m,
		supers:   make(map[types.Term]types.Set[types.Term]),
		equivs:   make(map[types.Term]types.Node),
	}, nil
}

// SuperClassesOf returns the representatives of t's strict ancestor groups.
func (x *Index) SuperClassesOf(t types.Term) (types.Set[types.Term], error) {
	x.mu.RLock()
	s, ok := x.supers[t]
	x.mu.RUnlock()
	if ok {
		x.metrics.Hit(metrics.CacheSuperclasses)
		return s, nil
	}
	x.metrics.Miss(metrics.CacheSuperclasses)

	s, err := x.reasoner.SuperClassesOf(t)
	if err != nil {
		return nil, err
	}
	x.mu.Lock()
	x.supers[t] = s
	x.mu.Unlock()
	return s, nil
}

// EquivalentsOf returns the equivalence group of t.
func (x *Index) EquivalentsOf(t types.Term) (types.Node, error) {
	x.mu.RLock()
	n, ok := x.equivs[t]
	x.mu.RUnlock()
	if ok {
		return n, nil
	}

	n, err := x.reasoner.EquivalentsOf(t)
	if err != nil {
		return types.Node{}, err
	}
	x.mu.Lock()
	x.equivs[t] = n
	x.mu.Unlock()
	return n, nil
}

// Representative returns the canonical term standing for t's equivalence group.
func (x *Index) Representative(t types.Term) (types.Term, error) {
	n, err := x.EquivalentsOf(t)
	if err != nil {
		return "", err
	}
	return n.Representative, nil
}

// TypesOf returns the direct, most specific types of e. Not cached: the
// corpus reads each element once.
func (x *Index) TypesOf(e types.Element) (types.Set[types.Term], error) {
	return x.reasoner.TypesOf(e)
}

// Elements returns every element known to the reasoner.
func (x *Index) Elements() []types.Element {
	return x.reasoner.Elements()
}

// Contains reports whether t is part of the hierarchy.
func (x *Index) Contains(t types.Term) bool {
	return x.reasoner.Contains(t)
}

// Top returns the root term.
func (x *Index) Top() types.Term {
	return x.reasoner.Top()
}

// Clear drops every cached reasoner answer.
func (x *Index) Clear() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.supers = make(map[types.Term]types.Set[types.Term])
	x.equivs = make(map[types.Term]types.Node)
}
