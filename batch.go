package semsim

import (
	"context"

	"github.com/botirk38/semsim/types"
	"golang.org/x/sync/errgroup"
)

// ElementPair is an ordered pair of elements to compare.
type ElementPair struct {
	A types.Element `json:"a"`
	B types.Element `json:"b"`
}

// PairScore is the result of comparing one ElementPair.
type PairScore struct {
	ElementPair
	Score float64 `json:"score"`
}

// ElementPairScores holds every score the engine reports for an element pair.
type ElementPairScores struct {
	A types.Element `json:"a"`
	B types.Element `json:"b"`

	SimJ     float64                     `json:"simj"`
	AsymSimJ float64                     `json:"asym_simj"`
	MaxIC    types.ScoreAttributeSetPair `json:"max_ic"`
	BMAAToB  types.ScoreAttributeSetPair `json:"bma_a_to_b"`
	BMABToA  types.ScoreAttributeSetPair `json:"bma_b_to_a"`
	BMA      types.ScoreAttributeSetPair `json:"bma"`
	GraphIC  float64                     `json:"graph_ic"`

	// PassesThresholds is true when SimJ, AsymSimJ and MaxIC reach the
	// configured minimums.
	PassesThresholds bool `json:"passes_thresholds"`
}

// CompareElements computes the full score profile of i against j.
func (e *Engine) CompareElements(i, j types.Element) (*ElementPairScores, error) {
	var (
		s   = &ElementPairScores{A: i, B: j}
		err error
	)
	if s.SimJ, err = e.ElementJaccard(i, j); err != nil {
		return nil, err
	}
	if s.AsymSimJ, err = e.AsymmetricElementJaccard(i, j); err != nil {
		return nil, err
	}
	if s.MaxIC, err = e.MaxICMatch(i, j); err != nil {
		return nil, err
	}
	if s.BMAAToB, err = e.BestMatchAverage(i, j, types.MetricICMCS, types.AToB); err != nil {
		return nil, err
	}
	if s.BMABToA, err = e.BestMatchAverage(i, j, types.MetricICMCS, types.BToA); err != nil {
		return nil, err
	}
	s.BMA = types.ScoreAttributeSetPair{
		Score:      (s.BMAAToB.Score + s.BMABToA.Score) / 2,
		Attributes: s.BMAAToB.Attributes.Union(s.BMABToA.Attributes),
	}
	if s.GraphIC, err = e.ElementGraphIC(i, j); err != nil {
		return nil, err
	}

	s.PassesThresholds = s.SimJ >= e.thresholds.MinimumSimJ &&
		s.AsymSimJ >= e.thresholds.MinimumAsymSimJ &&
		s.MaxIC.Score >= e.thresholds.MinimumMaxIC
	e.metrics.Compared("profile")
	return s, nil
}

// ComparePairs scores every pair with metric using the configured number of
// workers. Results keep the order of pairs. The first error, or ctx being
// cancelled, stops the batch.
func (e *Engine) ComparePairs(ctx context.Context, pairs []ElementPair, metric types.Metric) ([]PairScore, error) {
	out := make([]PairScore, len(pairs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for n, p := range pairs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			score, err := e.ElementSimilarity(p.A, p.B, metric)
			if err != nil {
				return err
			}
			out[n] = PairScore{ElementPair: p, Score: score}
			e.metrics.Compared(string(metric))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	e.logger.Debug("compared pairs", "pairs", len(pairs), "metric", metric)
	return out, nil
}

// CompareResult holds the result of an async CompareElements operation.
type CompareResult struct {
	Scores *ElementPairScores
	Error  error
}

// CompareElementsAsync runs CompareElements in a goroutine.
// Returns a channel that will receive the result when complete.
func (e *Engine) CompareElementsAsync(ctx context.Context, i, j types.Element) <-chan CompareResult {
	resultCh := make(chan CompareResult, 1)
	go func() {
		defer close(resultCh)
		if err := ctx.Err(); err != nil {
			resultCh <- CompareResult{Error: err}
			return
		}
		scores, err := e.CompareElements(i, j)
		resultCh <- CompareResult{Scores: scores, Error: err}
	}()
	return resultCh
}

// ComparePairsResult holds the result of an async ComparePairs operation.
type ComparePairsResult struct {
	Scores []PairScore
	Error  error
}

// ComparePairsAsync runs ComparePairs in a goroutine.
// Returns a channel that will receive the result when complete.
func (e *Engine) ComparePairsAsync(ctx context.Context, pairs []ElementPair, metric types.Metric) <-chan ComparePairsResult {
	resultCh := make(chan ComparePairsResult, 1)
	go func() {
		defer close(resultCh)
		scores, err := e.ComparePairs(ctx, pairs, metric)
		resultCh <- ComparePairsResult{Scores: scores, Error: err}
	}()
	return resultCh
}
