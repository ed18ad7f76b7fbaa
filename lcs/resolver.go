// Package lcs finds the lowest common subsumer of two terms and scores it by
// information content, memoizing results in a symmetric pair cache that can
// be persisted and bulk-loaded.
package lcs

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/botirk38/semsim/backends/inmemory"
	"github.com/botirk38/semsim/ic"
	"github.com/botirk38/semsim/metrics"
	"github.com/botirk38/semsim/subsumer"
	"github.com/botirk38/semsim/types"
	"golang.org/x/sync/singleflight"
)

// Resolver answers lowest-common-subsumer queries.
//
// Thread Safety:
//
//	Resolver is safe for concurrent use. The pair memo is sharded and
//	concurrent misses on the same pair are collapsed into one computation.
type Resolver struct {
	closures *subsumer.ClosureCache
	table    *ic.Table
	logger   *slog.Logger
	metrics  *metrics.Metrics

	memo   *shardedMemo
	flight singleflight.Group

	mu         sync.RWMutex
	mode       types.CacheMode
	generation uint64
}

// DefaultMemoFactory builds unbounded map shards.
func DefaultMemoFactory() (types.MemoBackend[types.PairKey, types.ScoreAttributePair], error) {
	return inmemory.NewMapBackend[types.PairKey, types.ScoreAttributePair](types.BackendConfig{})
}

// NewResolver creates a Live resolver. A nil factory uses DefaultMemoFactory.
func NewResolver(closures *subsumer.ClosureCache, table *ic.Table, factory MemoFactory, logger *slog.Logger, m *metrics.Metrics) (*Resolver, error) {
	if factory == nil {
		factory = DefaultMemoFactory
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	memo, err := newShardedMemo(factory)
	if err != nil {
		return nil, fmt.Errorf("failed to create LCS memo: %w", err)
	}
	return &Resolver{
		closures:   closures,
		table:      table,
		logger:     logger,
		metrics:    m,
		memo:       memo,
		generation: table.Generation(),
	}, nil
}

// Mode returns the pair cache mode.
func (r *Resolver) Mode() types.CacheMode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mode
}

// Len returns the number of memoized pairs.
func (r *Resolver) Len() int {
	return r.memo.len()
}

// LCSWithIC returns the best lowest common subsumer of a and b with its IC.
// ok is false only when the cache is Frozen and holds no entry for the pair,
// meaning the score was below the threshold used when it was saved.
func (r *Resolver) LCSWithIC(a, b types.Term) (types.ScoreAttributePair, bool, error) {
	return r.lookup(a, b, nil)
}

// LCSWithICThreshold is LCSWithIC, but a freshly computed result scoring
// below minimumIC is returned without being memoized.
func (r *Resolver) LCSWithICThreshold(a, b types.Term, minimumIC float64) (types.ScoreAttributePair, bool, error) {
	return r.lookup(a, b, &minimumIC)
}

func (r *Resolver) lookup(a, b types.Term, minimumIC *float64) (types.ScoreAttributePair, bool, error) {
	key, err := r.canonicalKey(a, b)
	if err != nil {
		return types.ScoreAttributePair{}, false, err
	}

	r.syncGeneration()

	if sap, ok := r.memo.get(key); ok {
		r.metrics.Hit(metrics.CacheLCS)
		return sap, true, nil
	}
	if r.Mode() == types.Frozen {
		r.metrics.FrozenMiss(metrics.CacheLCS)
		return types.ScoreAttributePair{}, false, nil
	}
	r.metrics.Miss(metrics.CacheLCS)

	v, err, _ := r.flight.Do(key.String(), func() (any, error) {
		return r.compute(key)
	})
	if err != nil {
		return types.ScoreAttributePair{}, false, err
	}
	sap := v.(types.ScoreAttributePair)
	if minimumIC == nil || sap.Score >= *minimumIC {
		r.memo.set(key, sap)
	}
	return sap, true, nil
}

// canonicalKey keys a pair by the representatives of its terms, so
// equivalent terms share memo entries.
func (r *Resolver) canonicalKey(a, b types.Term) (types.PairKey, error) {
	index := r.closures.Index()
	reps := [2]types.Term{}
	for i, t := range []types.Term{a, b} {
		if !index.Contains(t) {
			return types.PairKey{}, types.UnknownTerm(t)
		}
		rep, err := index.Representative(t)
		if err != nil {
			return types.PairKey{}, err
		}
		reps[i] = rep
	}
	return types.NewPairKey(reps[0], reps[1]), nil
}

// syncGeneration drops a Live memo computed against an older corpus.
func (r *Resolver) syncGeneration() {
	gen := r.table.Generation()
	r.mu.RLock()
	stale := r.mode == types.Live && gen != r.generation
	r.mu.RUnlock()
	if !stale {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mode == types.Live && gen != r.generation {
		r.memo.purge()
		r.generation = gen
		r.logger.Debug("dropped LCS memo after corpus change", "generation", gen)
	}
}

// compute scores the lowest common subsumers of the pair. Among several
// candidates the highest IC wins; exact IC ties go to the candidate whose
// representative sorts first. Candidates without an IC score 0.
func (r *Resolver) compute(key types.PairKey) (types.ScoreAttributePair, error) {
	lowest, err := r.LowestCommonSubsumers(key.A, key.B)
	if err != nil {
		return types.ScoreAttributePair{}, err
	}
	r.metrics.Computed(metrics.CacheLCS)

	if len(lowest) == 0 {
		top := r.closures.Index().Top()
		r.logger.Warn("no common subsumer", "a", key.A, "b", key.B, "fallback", top)
		return types.ScoreAttributePair{Score: 0, Attribute: top}, nil
	}

	var best types.ScoreAttributePair
	for i, c := range types.Sorted(lowest) {
		score, err := r.table.ICOrZero(c)
		if err != nil {
			return types.ScoreAttributePair{}, err
		}
		if i == 0 || score > best.Score {
			best = types.ScoreAttributePair{Score: score, Attribute: c}
		}
	}
	r.logger.Debug("computed LCS", "a", key.A, "b", key.B, "lcs", best.Attribute, "ic", best.Score)
	return best, nil
}

// LowestCommonSubsumers returns the common subsumers of a and b that are not
// a strict ancestor of another common subsumer.
func (r *Resolver) LowestCommonSubsumers(a, b types.Term) (types.Set[types.Term], error) {
	common, err := r.closures.CommonClosure(a, b)
	if err != nil {
		return nil, err
	}
	index := r.closures.Index()
	redundant := make(types.Set[types.Term])
	for c := range common {
		supers, err := index.SuperClassesOf(c)
		if err != nil {
			return nil, err
		}
		redundant.AddAll(supers)
	}
	for c := range redundant {
		common.Remove(c)
	}
	return common, nil
}

// Records returns the memoized pairs scoring at least threshold (all pairs
// when threshold is nil), ordered by pair.
func (r *Resolver) Records(threshold *float64) []types.LCSRecord {
	var out []types.LCSRecord
	r.memo.each(func(k types.PairKey, sap types.ScoreAttributePair) {
		if threshold != nil && sap.Score < *threshold {
			return
		}
		out = append(out, types.LCSRecord{A: k.A, B: k.B, Score: sap.Score, LCS: sap.Attribute})
	})
	slices.SortFunc(out, func(x, y types.LCSRecord) int {
		return cmp.Or(cmp.Compare(x.A, y.A), cmp.Compare(x.B, y.B))
	})
	return out
}

// Save writes the memoized pairs scoring at least threshold to store.
func (r *Resolver) Save(ctx context.Context, store types.SnapshotStore, threshold *float64) error {
	records := r.Records(threshold)
	if err := store.SaveLCS(ctx, records); err != nil {
		return fmt.Errorf("failed to save LCS cache: %w", err)
	}
	r.metrics.Saved(metrics.CacheLCS, len(records))
	r.logger.Info("saved LCS cache", "records", len(records))
	return nil
}

// Load replaces the memo with the snapshot in store and freezes it: from
// then on a pair absent from the snapshot is reported as below threshold.
func (r *Resolver) Load(ctx context.Context, store types.SnapshotStore) error {
	snap, err := r.Prepare(ctx, store)
	if err != nil {
		return err
	}
	r.Commit(snap)
	return nil
}

// Snapshot is a validated LCS snapshot that has not been applied yet.
type Snapshot struct {
	keys    []types.PairKey
	records []types.LCSRecord
}

// Prepare reads and validates the snapshot in store without touching the
// memo. Pairs are keyed by the representatives of their terms.
func (r *Resolver) Prepare(ctx context.Context, store types.SnapshotStore) (*Snapshot, error) {
	records, err := store.LoadLCS(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load LCS cache: %w", err)
	}
	index := r.closures.Index()
	keys := make([]types.PairKey, 0, len(records))
	for _, rec := range records {
		if !index.Contains(rec.LCS) {
			return nil, fmt.Errorf("LCS snapshot: %w", types.UnknownTerm(rec.LCS))
		}
		key, err := r.canonicalKey(rec.A, rec.B)
		if err != nil {
			return nil, fmt.Errorf("LCS snapshot: %w", err)
		}
		keys = append(keys, key)
	}
	if !r.memo.fits(keys) {
		return nil, fmt.Errorf("%d LCS records, capacity %d: %w", len(records), r.memo.capacity(), types.ErrSnapshotTooLarge)
	}
	return &Snapshot{keys: keys, records: records}, nil
}

// Commit replaces the memo with snap and freezes it.
func (r *Resolver) Commit(snap *Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memo.purge()
	for i, rec := range snap.records {
		r.memo.set(snap.keys[i], types.ScoreAttributePair{Score: rec.Score, Attribute: rec.LCS})
	}
	r.mode = types.Frozen

	r.metrics.Loaded(metrics.CacheLCS, len(snap.records))
	r.logger.Info("loaded LCS cache", "records", len(snap.records), "mode", types.Frozen)
}

// Clear empties the memo and returns it to Live mode.
func (r *Resolver) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memo.purge()
	r.mode = types.Live
	r.generation = r.table.Generation()
}
