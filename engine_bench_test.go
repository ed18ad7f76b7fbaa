package semsim

import (
	"context"
	"fmt"
	"testing"

	"github.com/botirk38/semsim/options"
	"github.com/botirk38/semsim/reasoner"
	"github.com/botirk38/semsim/types"
)

// newBenchEngine builds a balanced tree of the given depth and fanout and
// annotates one element to every leaf.
func newBenchEngine(b *testing.B, depth, fanout int, opts ...options.Option) (*Engine, []types.Term) {
	b.Helper()
	h := reasoner.NewHierarchy("root")
	level := []types.Term{"root"}
	for range depth {
		var next []types.Term
		for _, parent := range level {
			for i := range fanout {
				child := types.Term(fmt.Sprintf("%s.%d", parent, i))
				if err := h.AddSubClassOf(child, parent); err != nil {
					b.Fatalf("AddSubClassOf failed: %v", err)
				}
				next = append(next, child)
			}
		}
		level = next
	}
	for i, leaf := range level {
		h.AddType(types.Element(fmt.Sprintf("e%d", i)), leaf)
	}

	e, err := New(append([]options.Option{options.WithReasoner(h)}, opts...)...)
	if err != nil {
		b.Fatalf("Failed to create engine: %v", err)
	}
	return e, level
}

func BenchmarkLCSWithIC(b *testing.B) {
	backends := map[string]options.Option{
		"map": options.WithLCSBackend(types.BackendMap, 0),
		"lru": options.WithLCSBackend(types.BackendLRU, 1024),
	}

	for name, backend := range backends {
		b.Run(name, func(b *testing.B) {
			e, leaves := newBenchEngine(b, 4, 4, backend)

			b.ResetTimer()
			for i := 0; b.Loop(); i++ {
				x := leaves[i%len(leaves)]
				y := leaves[(i*7+3)%len(leaves)]
				if _, _, err := e.LCSWithIC(x, y); err != nil {
					b.Fatalf("LCSWithIC failed: %v", err)
				}
			}
		})
	}
}

func BenchmarkComparePairs(b *testing.B) {
	for _, workers := range []int{1, 4, 8} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			e, _ := newBenchEngine(b, 3, 5, options.WithWorkers(workers))
			ctx := context.Background()
			if err := e.Warm(ctx); err != nil {
				b.Fatalf("Warm failed: %v", err)
			}
			elements, err := e.AllElements()
			if err != nil {
				b.Fatalf("AllElements failed: %v", err)
			}
			pairs := make([]ElementPair, 0, len(elements))
			for i, a := range elements {
				pairs = append(pairs, ElementPair{A: a, B: elements[(i+1)%len(elements)]})
			}

			b.ResetTimer()
			for b.Loop() {
				if _, err := e.ComparePairs(ctx, pairs, types.MetricICMCS); err != nil {
					b.Fatalf("ComparePairs failed: %v", err)
				}
			}
		})
	}
}
