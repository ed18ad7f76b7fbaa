// Package ic computes and caches the information content of terms:
//
//	IC(t) = -log2(freq(t) / corpusSize)
//
// where freq(t) counts the elements annotated to t or any of its subclasses.
// IC = 0.0 : 100% (1/1); IC = 1.0 : 50% (1/2); IC = 2.0 : 25% (1/4).
package ic

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/botirk38/semsim/corpus"
	"github.com/botirk38/semsim/metrics"
	"github.com/botirk38/semsim/subsumer"
	"github.com/botirk38/semsim/types"
)

type entry struct {
	value   float64
	defined bool
}

// Table caches IC values per term.
//
// In Live mode a miss is computed from the corpus. In Frozen mode (after
// Load) a term absent from the snapshot has no IC: the value was not worth
// persisting and is not recomputed. A Live table notices corpus changes and
// rebuilds lazily.
type Table struct {
	corpus  *corpus.Corpus
	index   *subsumer.Index
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu         sync.RWMutex
	values     map[types.Term]entry
	mode       types.CacheMode
	generation uint64
}

// NewTable creates a Live table over c.
func NewTable(c *corpus.Corpus, index *subsumer.Index, logger *slog.Logger, m *metrics.Metrics) *Table {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Table{
		corpus:     c,
		index:      index,
		logger:     logger,
		metrics:    m,
		values:     make(map[types.Term]entry),
		generation: c.Generation(),
	}
}

// Mode returns the table's cache mode.
func (t *Table) Mode() types.CacheMode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mode
}

// IC returns the information content of term. ok is false when the term has
// no annotated elements, or when a Frozen table has no entry for it.
// Equivalent terms share one entry, keyed by their representative.
func (t *Table) IC(term types.Term) (value float64, ok bool, err error) {
	if !t.index.Contains(term) {
		return 0, false, types.UnknownTerm(term)
	}
	if term, err = t.index.Representative(term); err != nil {
		return 0, false, err
	}
	t.syncGeneration()

	t.mu.RLock()
	e, hit := t.values[term]
	mode := t.mode
	t.mu.RUnlock()
	if hit {
		t.metrics.Hit(metrics.CacheIC)
		return e.value, e.defined, nil
	}
	if mode == types.Frozen {
		t.metrics.FrozenMiss(metrics.CacheIC)
		return 0, false, nil
	}
	t.metrics.Miss(metrics.CacheIC)

	e, err = t.compute(term)
	if err != nil {
		return 0, false, err
	}
	t.mu.Lock()
	t.values[term] = e
	t.mu.Unlock()
	t.metrics.Computed(metrics.CacheIC)
	return e.value, e.defined, nil
}

// ICOrZero returns IC(term), treating an undefined value as 0.
func (t *Table) ICOrZero(term types.Term) (float64, error) {
	v, ok, err := t.IC(term)
	if err != nil || !ok {
		return 0, err
	}
	return v, nil
}

func (t *Table) compute(term types.Term) (entry, error) {
	freq, err := t.corpus.Frequency(term)
	if err != nil {
		return entry{}, err
	}
	size, err := t.corpus.CorpusSize()
	if err != nil {
		return entry{}, err
	}
	if freq == 0 || size == 0 {
		return entry{}, nil
	}
	// An overridden corpus size below the annotated count is raised to it,
	// keeping IC non-negative.
	if size < freq {
		t.logger.Warn("corpus size below term frequency", "term", term, "freq", freq, "corpus_size", size)
		size = freq
	}
	v := -math.Log2(float64(freq) / float64(size))
	t.logger.Debug("computed information content", "term", term, "freq", freq, "corpus_size", size, "ic", v)
	return entry{value: v, defined: true}, nil
}

// syncGeneration clears a Live table when the corpus changed since it was filled.
func (t *Table) syncGeneration() {
	gen := t.corpus.Generation()
	t.mu.RLock()
	stale := t.mode == types.Live && gen != t.generation
	t.mu.RUnlock()
	if !stale {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mode == types.Live && gen != t.generation {
		t.values = make(map[types.Term]entry)
		t.generation = gen
	}
}

// Generation returns the corpus generation the table follows.
func (t *Table) Generation() uint64 {
	return t.corpus.Generation()
}

// SetIC overrides the IC of term and of every term equivalent to it.
func (t *Table) SetIC(term types.Term, value float64) error {
	if !t.index.Contains(term) {
		return types.UnknownTerm(term)
	}
	rep, err := t.index.Representative(term)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.values[rep] = entry{value: value, defined: true}
	return nil
}

// Clear empties the table and returns it to Live mode.
func (t *Table) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.values = make(map[types.Term]entry)
	t.mode = types.Live
	t.generation = t.corpus.Generation()
}

// Len returns the number of cached entries, defined or not.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.values)
}

// Populate computes IC for every term in terms so the table can be shared
// read-mostly across workers.
func (t *Table) Populate(terms types.Set[types.Term]) error {
	for term := range terms {
		if _, _, err := t.IC(term); err != nil {
			return err
		}
	}
	return nil
}

// Records returns every defined entry in ascending term order.
func (t *Table) Records() []types.ICRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	terms := make(types.Set[types.Term], len(t.values))
	for term, e := range t.values {
		if e.defined {
			terms.Add(term)
		}
	}
	out := make([]types.ICRecord, 0, len(terms))
	for _, term := range types.Sorted(terms) {
		out = append(out, types.ICRecord{Term: term, IC: t.values[term].value})
	}
	return out
}

// Save writes every defined entry to store.
func (t *Table) Save(ctx context.Context, store types.SnapshotStore) error {
	records := t.Records()
	if err := store.SaveIC(ctx, records); err != nil {
		return fmt.Errorf("failed to save IC table: %w", err)
	}
	t.metrics.Saved(metrics.CacheIC, len(records))
	t.logger.Info("saved IC table", "records", len(records))
	return nil
}

// Load replaces the table with the snapshot in store and freezes it.
func (t *Table) Load(ctx context.Context, store types.SnapshotStore) error {
	snap, err := t.Prepare(ctx, store)
	if err != nil {
		return err
	}
	t.Commit(snap)
	return nil
}

// Snapshot is a validated IC snapshot that has not been applied yet.
type Snapshot struct {
	values  map[types.Term]entry
	records int
}

// Prepare reads and validates the snapshot in store without touching the
// table. Terms are keyed by their representative.
func (t *Table) Prepare(ctx context.Context, store types.SnapshotStore) (*Snapshot, error) {
	records, err := store.LoadIC(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load IC table: %w", err)
	}
	values := make(map[types.Term]entry, len(records))
	for _, r := range records {
		if !t.index.Contains(r.Term) {
			return nil, fmt.Errorf("IC snapshot: %w", types.UnknownTerm(r.Term))
		}
		rep, err := t.index.Representative(r.Term)
		if err != nil {
			return nil, err
		}
		values[rep] = entry{value: r.IC, defined: true}
	}
	return &Snapshot{values: values, records: len(records)}, nil
}

// Commit replaces the table with snap and freezes it.
func (t *Table) Commit(snap *Snapshot) {
	t.mu.Lock()
	t.values = snap.values
	t.mode = types.Frozen
	t.mu.Unlock()

	t.metrics.Loaded(metrics.CacheIC, snap.records)
	t.logger.Info("loaded IC table", "records", snap.records, "mode", types.Frozen)
}

// Entropy returns -Σ p·log2(p) over terms with non-zero frequency, where
// p = freq/corpusSize.
func (t *Table) Entropy(terms types.Set[types.Term]) (float64, error) {
	size, err := t.corpus.CorpusSize()
	if err != nil {
		return 0, err
	}
	if size == 0 {
		return 0, nil
	}
	var e float64
	for _, term := range types.Sorted(terms) {
		freq, err := t.corpus.Frequency(term)
		if err != nil {
			return 0, err
		}
		if freq == 0 {
			continue
		}
		p := float64(freq) / float64(size)
		e += p * math.Log2(p)
	}
	if e == 0 {
		return 0, nil
	}
	return -e, nil
}
