// Package semsim computes semantic similarity between ontology terms and
// between elements annotated with those terms, using subsumer closures,
// information content and lowest common subsumers.
package semsim

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/botirk38/semsim/backends"
	"github.com/botirk38/semsim/corpus"
	"github.com/botirk38/semsim/ic"
	"github.com/botirk38/semsim/lcs"
	"github.com/botirk38/semsim/metrics"
	"github.com/botirk38/semsim/options"
	"github.com/botirk38/semsim/subsumer"
	"github.com/botirk38/semsim/types"
	"golang.org/x/sync/errgroup"
)

// inferredEntry is a memoized inferred attribute set, valid for one corpus generation.
type inferredEntry struct {
	generation uint64
	attrs      types.Set[types.Term]
}

// Engine is the similarity API over a reasoner and its annotation corpus.
//
// Queries are safe for concurrent use. Corpus mutations (AddElement,
// RemoveElement, SetCorpusSize) must not overlap with queries; caches derived
// from the corpus rebuild lazily afterwards.
type Engine struct {
	index    *subsumer.Index
	closures *subsumer.ClosureCache
	corpus   *corpus.Corpus
	ic       *ic.Table
	lcs      *lcs.Resolver
	inferred types.MemoBackend[types.Element, inferredEntry]
	store    types.SnapshotStore

	logger     *slog.Logger
	metrics    *metrics.Metrics
	epsilon    float64
	workers    int
	thresholds options.Thresholds
}

// New creates an Engine with functional options.
func New(opts ...options.Option) (*Engine, error) {
	cfg := options.NewConfig()

	if err := cfg.Apply(opts...); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return NewEngine(cfg)
}

// NewEngine creates an Engine from a validated configuration.
func NewEngine(cfg *options.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	index, err := subsumer.NewIndex(cfg.Reasoner, logger, cfg.Metrics)
	if err != nil {
		return nil, err
	}
	closures := subsumer.NewClosureCache(index, logger, cfg.Metrics)

	c := corpus.New(closures, logger)
	if len(cfg.IgnoreSubClassesOf) > 0 {
		if err := c.SetIgnoreSubClassesOf(cfg.IgnoreSubClassesOf...); err != nil {
			return nil, err
		}
	}
	if cfg.CorpusSize > 0 {
		c.SetCorpusSize(cfg.CorpusSize)
	}

	table := ic.NewTable(c, index, logger, cfg.Metrics)
	resolver, err := lcs.NewResolver(closures, table, cfg.LCSBackend, logger, cfg.Metrics)
	if err != nil {
		return nil, err
	}

	memoType, memoConfig := types.BackendMap, types.BackendConfig{}
	if cfg.InferredCacheSize > 0 {
		memoType, memoConfig = types.BackendLRU, types.BackendConfig{Capacity: cfg.InferredCacheSize}
	}
	factory := &backends.BackendFactory[types.Element, inferredEntry]{}
	inferred, err := factory.NewBackend(memoType, memoConfig)
	if err != nil {
		return nil, err
	}

	return &Engine{
		index:      index,
		closures:   closures,
		corpus:     c,
		ic:         table,
		lcs:        resolver,
		inferred:   inferred,
		store:      cfg.SnapshotStore,
		logger:     logger,
		metrics:    cfg.Metrics,
		epsilon:    cfg.Epsilon,
		workers:    cfg.Workers,
		thresholds: cfg.Thresholds,
	}, nil
}

// AddElement sets the direct annotations of el, replacing any previous ones.
func (e *Engine) AddElement(el types.Element, terms ...types.Term) error {
	return e.corpus.AddElement(el, terms...)
}

// RemoveElement drops el from the corpus.
func (e *Engine) RemoveElement(el types.Element) error {
	return e.corpus.RemoveElement(el)
}

// SetCorpusSize overrides the number of elements used as the IC denominator.
func (e *Engine) SetCorpusSize(n int) {
	e.corpus.SetCorpusSize(n)
}

// CorpusSize returns the IC denominator.
func (e *Engine) CorpusSize() (int, error) {
	return e.corpus.CorpusSize()
}

// AllElements returns every element of the corpus in ascending order.
func (e *Engine) AllElements() ([]types.Element, error) {
	return e.corpus.AllElements()
}

// AttributeClasses returns every term directly asserted for some element.
func (e *Engine) AttributeClasses() (types.Set[types.Term], error) {
	return e.corpus.AttributeClasses()
}

// ElementsOf returns the elements annotated to t or to any subclass of t.
func (e *Engine) ElementsOf(t types.Term) (types.Set[types.Element], error) {
	return e.corpus.ElementsOf(t)
}

// Warm builds the corpus index, every element's inferred attributes and the
// IC of every inferred attribute, so later queries only read shared state.
func (e *Engine) Warm(ctx context.Context) error {
	elements, err := e.corpus.AllElements()
	if err != nil {
		return err
	}

	sets := make([]types.Set[types.Term], len(elements))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, el := range elements {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			attrs, err := e.inferredOf(el)
			if err != nil {
				return err
			}
			sets[i] = attrs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	terms := make(types.Set[types.Term])
	for _, s := range sets {
		terms.AddAll(s)
	}
	if err := e.ic.Populate(terms); err != nil {
		return err
	}
	e.logger.Info("warmed engine", "elements", len(elements), "attributes", len(terms))
	return nil
}

// Clear drops every cache, returning the IC table and LCS memo to Live mode.
func (e *Engine) Clear() {
	e.lcs.Clear()
	e.ic.Clear()
	e.closures.Clear()
	e.index.Clear()
	e.inferred.Purge()
}

// Close releases the snapshot store, if any.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// LCSMode returns the mode of the LCS memo.
func (e *Engine) LCSMode() types.CacheMode {
	return e.lcs.Mode()
}

// ICMode returns the mode of the IC table.
func (e *Engine) ICMode() types.CacheMode {
	return e.ic.Mode()
}

func (e *Engine) requireStore() (types.SnapshotStore, error) {
	if e.store == nil {
		return nil, fmt.Errorf("%w - use WithSnapshotStore, WithFileStore, WithRedisStore or WithBadgerStore", types.ErrNoSnapshotStore)
	}
	return e.store, nil
}
