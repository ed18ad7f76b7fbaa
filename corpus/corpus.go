// Package corpus holds the element to term annotations and the reverse
// term to element index used for frequency and information content.
package corpus

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/botirk38/semsim/subsumer"
	"github.com/botirk38/semsim/types"
)

// Corpus is the annotation corpus: for each element its directly asserted
// terms, and for each term the elements annotated to it or to any of its
// subclasses.
//
// Reads are safe for concurrent use. Mutations (AddElement, RemoveElement,
// SetCorpusSize, SetIgnoreSubClassesOf) must not overlap with reads; they bump
// Generation so dependent caches can rebuild lazily.
type Corpus struct {
	closures *subsumer.ClosureCache
	logger   *slog.Logger

	mu         sync.RWMutex
	direct     map[types.Element]types.Set[types.Term] // nil until populated
	expanded   map[types.Term]types.Set[types.Element] // keyed by representative, nil when stale
	ignore     types.Set[types.Term]
	sizeSet    bool
	size       int
	generation uint64
}

// New creates an empty corpus. Direct annotations are read lazily from the
// reasoner's element types on first use unless AddElement is called first.
func New(closures *subsumer.ClosureCache, logger *slog.Logger) *Corpus {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Corpus{
		closures: closures,
		logger:   logger,
		ignore:   make(types.Set[types.Term]),
	}
}

// Generation increases every time the corpus changes.
func (c *Corpus) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// SetIgnoreSubClassesOf drops, from every element ingested afterwards, any
// type that is a strict subclass of one of terms (e.g. the organism class).
func (c *Corpus) SetIgnoreSubClassesOf(terms ...types.Term) error {
	ignore := make(types.Set[types.Term], len(terms))
	for _, t := range terms {
		rep, err := c.closures.Index().Representative(t)
		if err != nil {
			return err
		}
		ignore.Add(rep)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ignore = ignore
	return nil
}

func (c *Corpus) populate() error {
	c.mu.RLock()
	ready := c.direct != nil
	c.mu.RUnlock()
	if ready {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.direct != nil {
		return nil
	}
	direct := make(map[types.Element]types.Set[types.Term])
	index := c.closures.Index()
	for _, e := range index.Elements() {
		ts, err := index.TypesOf(e)
		if err != nil {
			return err
		}
		kept, err := c.filterLocked(ts)
		if err != nil {
			return err
		}
		direct[e] = kept
	}
	// nothing can have been derived from the corpus before this point, so
	// the generation is left alone
	c.direct = direct
	c.logger.Info("populated corpus from reasoner", "elements", len(direct))
	return nil
}

func (c *Corpus) filterLocked(ts types.Set[types.Term]) (types.Set[types.Term], error) {
	kept := make(types.Set[types.Term], len(ts))
	for t := range ts {
		if len(c.ignore) > 0 {
			supers, err := c.closures.Index().SuperClassesOf(t)
			if err != nil {
				return nil, err
			}
			if supers.IntersectionSize(c.ignore) > 0 {
				continue
			}
		}
		kept.Add(t)
	}
	return kept, nil
}

func (c *Corpus) invalidateLocked() {
	c.expanded = nil
	c.generation++
}

// AddElement sets the direct annotations of e, replacing any previous ones.
func (c *Corpus) AddElement(e types.Element, terms ...types.Term) error {
	if err := c.populate(); err != nil {
		return err
	}
	index := c.closures.Index()
	ts := make(types.Set[types.Term], len(terms))
	for _, t := range terms {
		if !index.Contains(t) {
			return types.UnknownTerm(t)
		}
		ts.Add(t)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	kept, err := c.filterLocked(ts)
	if err != nil {
		return err
	}
	c.direct[e] = kept
	c.invalidateLocked()
	return nil
}

// RemoveElement drops e from the corpus.
func (c *Corpus) RemoveElement(e types.Element) error {
	if err := c.populate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.direct[e]; !ok {
		return types.UnknownElement(e)
	}
	delete(c.direct, e)
	c.invalidateLocked()
	return nil
}

// HasElement reports whether e is part of the corpus.
func (c *Corpus) HasElement(e types.Element) (bool, error) {
	if err := c.populate(); err != nil {
		return false, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.direct[e]
	return ok, nil
}

// DirectAttributesOf returns a copy of the terms directly asserted for e.
func (c *Corpus) DirectAttributesOf(e types.Element) (types.Set[types.Term], error) {
	if err := c.populate(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	ts, ok := c.direct[e]
	if !ok {
		return nil, types.UnknownElement(e)
	}
	return ts.Clone(), nil
}

// AllElements returns every element in ascending order.
func (c *Corpus) AllElements() ([]types.Element, error) {
	if err := c.populate(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]types.Element, 0, len(c.direct))
	for e := range c.direct {
		out = append(out, e)
	}
	slices.Sort(out)
	return out, nil
}

// AttributeClasses returns every term directly asserted for some element.
func (c *Corpus) AttributeClasses() (types.Set[types.Term], error) {
	if err := c.populate(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(types.Set[types.Term])
	for _, ts := range c.direct {
		out.AddAll(ts)
	}
	return out, nil
}

// CorpusSize returns the explicit size if one was set, otherwise the number
// of elements.
func (c *Corpus) CorpusSize() (int, error) {
	if err := c.populate(); err != nil {
		return 0, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.sizeSet {
		return c.size, nil
	}
	return len(c.direct), nil
}

// SetCorpusSize overrides the background population size.
func (c *Corpus) SetCorpusSize(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.size = n
	c.sizeSet = true
	c.generation++
}

// ResetCorpusSize reverts to counting elements.
func (c *Corpus) ResetCorpusSize() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sizeSet = false
	c.generation++
}

// ElementsOf returns the elements annotated to t or to any subclass of t.
func (c *Corpus) ElementsOf(t types.Term) (types.Set[types.Element], error) {
	expanded, rep, err := c.lookup(t)
	if err != nil {
		return nil, err
	}
	return expanded[rep].Clone(), nil
}

// Frequency returns |ElementsOf(t)|.
func (c *Corpus) Frequency(t types.Term) (int, error) {
	expanded, rep, err := c.lookup(t)
	if err != nil {
		return 0, err
	}
	return len(expanded[rep]), nil
}

func (c *Corpus) lookup(t types.Term) (map[types.Term]types.Set[types.Element], types.Term, error) {
	rep, err := c.closures.Index().Representative(t)
	if err != nil {
		return nil, "", err
	}
	expanded, err := c.reverseIndex()
	if err != nil {
		return nil, "", err
	}
	return expanded, rep, nil
}

// reverseIndex builds the expanded term -> elements index in one pass over
// every element.
func (c *Corpus) reverseIndex() (map[types.Term]types.Set[types.Element], error) {
	if err := c.populate(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	expanded := c.expanded
	c.mu.RUnlock()
	if expanded != nil {
		return expanded, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.expanded != nil {
		return c.expanded, nil
	}
	expanded = make(map[types.Term]types.Set[types.Element])
	for e, ts := range c.direct {
		inferred, err := c.closures.InferredOf(ts)
		if err != nil {
			return nil, err
		}
		for rep := range inferred {
			elems, ok := expanded[rep]
			if !ok {
				elems = make(types.Set[types.Element])
				expanded[rep] = elems
			}
			elems.Add(e)
		}
	}
	c.expanded = expanded
	c.logger.Info("built corpus reverse index", "elements", len(c.direct), "attributes", len(expanded))
	return expanded, nil
}
