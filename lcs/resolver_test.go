package lcs

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/botirk38/semsim/backends/inmemory"
	"github.com/botirk38/semsim/corpus"
	"github.com/botirk38/semsim/ic"
	"github.com/botirk38/semsim/metrics"
	"github.com/botirk38/semsim/reasoner"
	"github.com/botirk38/semsim/subsumer"
	"github.com/botirk38/semsim/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	lcs []types.LCSRecord
}

func (s *memStore) SaveLCS(_ context.Context, r []types.LCSRecord) error {
	s.lcs = r
	return nil
}
func (s *memStore) LoadLCS(context.Context) ([]types.LCSRecord, error) { return s.lcs, nil }
func (s *memStore) SaveIC(context.Context, []types.ICRecord) error     { return nil }
func (s *memStore) LoadIC(context.Context) ([]types.ICRecord, error)   { return nil, nil }
func (s *memStore) Close() error                                        { return nil }

// newResolver builds Thing > Animal > Mammal > Dog, Thing > Animal > Bird,
// plus Pet as a second parent of Dog and Cat, with eight annotated elements.
func newResolver(t *testing.T, factory MemoFactory, m *metrics.Metrics) *Resolver {
	t.Helper()
	h := reasoner.NewHierarchy("Thing")
	require.NoError(t, h.AddSubClassOf("Animal", "Thing"))
	require.NoError(t, h.AddSubClassOf("Mammal", "Animal"))
	require.NoError(t, h.AddSubClassOf("Dog", "Mammal"))
	require.NoError(t, h.AddSubClassOf("Bird", "Animal"))
	require.NoError(t, h.AddSubClassOf("Pet", "Thing"))
	require.NoError(t, h.AddSubClassOf("Dog", "Pet"))
	require.NoError(t, h.AddSubClassOf("Cat", "Mammal"))
	require.NoError(t, h.AddSubClassOf("Cat", "Pet"))
	for i := range 4 {
		h.AddType(types.Element(fmt.Sprintf("dog%d", i)), "Dog")
	}
	for i := range 2 {
		h.AddType(types.Element(fmt.Sprintf("bird%d", i)), "Bird")
		h.AddType(types.Element(fmt.Sprintf("mammal%d", i)), "Mammal")
	}

	index, err := subsumer.NewIndex(h, nil, m)
	require.NoError(t, err)
	closures := subsumer.NewClosureCache(index, nil, m)
	table := ic.NewTable(corpus.New(closures, nil), index, nil, m)
	r, err := NewResolver(closures, table, factory, nil, m)
	require.NoError(t, err)
	return r
}

func TestLCSWithIC(t *testing.T) {
	r := newResolver(t, nil, nil)

	tests := []struct {
		a, b  types.Term
		score float64
		lcs   types.Term
	}{
		{"Dog", "Bird", 0, "Animal"},
		{"Bird", "Dog", 0, "Animal"},
		{"Dog", "Dog", 1, "Dog"},
		{"Dog", "Mammal", 0.4150374992788438, "Mammal"},
		{"Thing", "Dog", 0, "Thing"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s,%s", tt.a, tt.b), func(t *testing.T) {
			got, ok, err := r.LCSWithIC(tt.a, tt.b)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.lcs, got.Attribute)
			assert.InDelta(t, tt.score, got.Score, 1e-12)
		})
	}

	_, _, err := r.LCSWithIC("Dog", "Unicorn")
	assert.ErrorIs(t, err, types.ErrUnknownIdentifier)
}

func TestLowestCommonSubsumersDropAncestors(t *testing.T) {
	r := newResolver(t, nil, nil)

	// Dog and Cat share Mammal and Pet; Animal and Thing are above them.
	got, err := r.LowestCommonSubsumers("Dog", "Cat")
	require.NoError(t, err)
	assert.Equal(t, []types.Term{"Mammal", "Pet"}, types.Sorted(got))

	// Pet only covers the four dogs, so it is more informative than Mammal.
	sap, ok, err := r.LCSWithIC("Dog", "Cat")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, types.ScoreAttributePair{Score: 1, Attribute: "Pet"}, sap)
}

func TestLCSTieGoesToFirstTerm(t *testing.T) {
	r := newResolver(t, nil, nil)
	require.NoError(t, r.table.SetIC("Mammal", 3))
	require.NoError(t, r.table.SetIC("Pet", 3))

	sap, _, err := r.LCSWithIC("Cat", "Dog")
	require.NoError(t, err)
	assert.Equal(t, types.ScoreAttributePair{Score: 3, Attribute: "Mammal"}, sap)
}

func TestLCSMemoIsSymmetric(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	r := newResolver(t, nil, m)

	_, _, err := r.LCSWithIC("Dog", "Bird")
	require.NoError(t, err)
	_, _, err = r.LCSWithIC("Bird", "Dog")
	require.NoError(t, err)

	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Lookups().WithLabelValues(metrics.CacheLCS, "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Computations().WithLabelValues(metrics.CacheLCS)))
}

func TestLCSThresholdSkipsMemo(t *testing.T) {
	r := newResolver(t, nil, nil)

	sap, ok, err := r.LCSWithICThreshold("Dog", "Bird", 0.5)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, types.Term("Animal"), sap.Attribute)
	assert.Equal(t, 0, r.Len())

	_, _, err = r.LCSWithICThreshold("Dog", "Dog", 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())
}

// forest is a reasoner whose terms share no ancestor, not even the root.
type forest struct{}

func (forest) SuperClassesOf(t types.Term) (types.Set[types.Term], error) {
	return types.NewSet[types.Term](), nil
}
func (forest) EquivalentsOf(t types.Term) (types.Node, error) { return types.NewNode(t), nil }
func (forest) TypesOf(e types.Element) (types.Set[types.Term], error) {
	return nil, types.UnknownElement(e)
}
func (forest) Elements() []types.Element  { return nil }
func (forest) Contains(t types.Term) bool { return t == "A" || t == "B" || t == "Root" }
func (forest) Top() types.Term            { return "Root" }

func TestLCSNoCommonSubsumerFallsBackToTop(t *testing.T) {
	index, err := subsumer.NewIndex(forest{}, nil, nil)
	require.NoError(t, err)
	closures := subsumer.NewClosureCache(index, nil, nil)
	table := ic.NewTable(corpus.New(closures, nil), index, nil, nil)
	r, err := NewResolver(closures, table, nil, nil, nil)
	require.NoError(t, err)

	sap, ok, err := r.LCSWithIC("A", "B")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, types.ScoreAttributePair{Score: 0, Attribute: "Root"}, sap)
}

func TestLCSSaveLoad(t *testing.T) {
	ctx := context.Background()
	r := newResolver(t, nil, nil)
	for _, p := range [][2]types.Term{{"Dog", "Bird"}, {"Dog", "Dog"}, {"Bird", "Bird"}} {
		_, _, err := r.LCSWithIC(p[0], p[1])
		require.NoError(t, err)
	}

	store := &memStore{}
	threshold := 0.5
	require.NoError(t, r.Save(ctx, store, &threshold))
	assert.Equal(t, []types.LCSRecord{
		{A: "Bird", B: "Bird", Score: 2, LCS: "Bird"},
		{A: "Dog", B: "Dog", Score: 1, LCS: "Dog"},
	}, store.lcs)

	loaded := newResolver(t, nil, nil)
	require.NoError(t, loaded.Load(ctx, store))
	assert.Equal(t, types.Frozen, loaded.Mode())

	sap, ok, err := loaded.LCSWithIC("Dog", "Dog")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, types.Term("Dog"), sap.Attribute)

	// Below threshold when saved, so absent and not recomputed.
	_, ok, err = loaded.LCSWithIC("Bird", "Dog")
	require.NoError(t, err)
	assert.False(t, ok)

	loaded.Clear()
	assert.Equal(t, types.Live, loaded.Mode())
	_, ok, err = loaded.LCSWithIC("Bird", "Dog")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLCSLoadValidates(t *testing.T) {
	ctx := context.Background()

	r := newResolver(t, nil, nil)
	err := r.Load(ctx, &memStore{lcs: []types.LCSRecord{{A: "Dog", B: "Unicorn", LCS: "Thing"}}})
	assert.ErrorIs(t, err, types.ErrUnknownIdentifier)
	assert.Equal(t, types.Live, r.Mode())

	tiny := func() (types.MemoBackend[types.PairKey, types.ScoreAttributePair], error) {
		return inmemory.NewLRUBackend[types.PairKey, types.ScoreAttributePair](types.BackendConfig{Capacity: 1})
	}
	r = newResolver(t, tiny, nil)
	var records []types.LCSRecord
	for _, a := range []types.Term{"Thing", "Animal", "Mammal", "Dog", "Bird", "Pet", "Cat"} {
		for _, b := range []types.Term{"Thing", "Animal", "Mammal", "Dog", "Bird", "Pet", "Cat"} {
			if a <= b {
				records = append(records, types.LCSRecord{A: a, B: b, LCS: "Thing"})
			}
		}
	}
	err = r.Load(ctx, &memStore{lcs: records})
	assert.ErrorIs(t, err, types.ErrSnapshotTooLarge)
}

func TestLCSConcurrent(t *testing.T) {
	r := newResolver(t, nil, nil)
	terms := []types.Term{"Thing", "Animal", "Mammal", "Dog", "Bird", "Pet", "Cat"}

	var wg sync.WaitGroup
	for _, a := range terms {
		for _, b := range terms {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, ok, err := r.LCSWithIC(a, b)
				assert.NoError(t, err)
				assert.True(t, ok)
			}()
		}
	}
	wg.Wait()
	assert.Equal(t, len(terms)*(len(terms)+1)/2, r.Len())
}
