package semsim

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/botirk38/semsim/metrics"
	"github.com/botirk38/semsim/similarity"
	"github.com/botirk38/semsim/types"
)

// InferredAttributes returns the union of the closures of el's direct attributes.
func (e *Engine) InferredAttributes(el types.Element) (types.Set[types.Term], error) {
	attrs, err := e.inferredOf(el)
	if err != nil {
		return nil, err
	}
	return attrs.Clone(), nil
}

// inferredOf returns the shared memoized set; callers must not modify it.
func (e *Engine) inferredOf(el types.Element) (types.Set[types.Term], error) {
	gen := e.corpus.Generation()
	if v, ok := e.inferred.Get(el); ok && v.generation == gen {
		e.metrics.Hit(metrics.CacheInferred)
		return v.attrs, nil
	}
	e.metrics.Miss(metrics.CacheInferred)

	direct, err := e.corpus.DirectAttributesOf(el)
	if err != nil {
		return nil, err
	}
	attrs, err := e.closures.InferredOf(direct)
	if err != nil {
		return nil, err
	}
	e.inferred.Set(el, inferredEntry{generation: gen, attrs: attrs})
	e.metrics.Computed(metrics.CacheInferred)
	return attrs, nil
}

func (e *Engine) inferredPair(i, j types.Element) (types.Set[types.Term], types.Set[types.Term], error) {
	ai, err := e.inferredOf(i)
	if err != nil {
		return nil, nil, err
	}
	aj, err := e.inferredOf(j)
	if err != nil {
		return nil, nil, err
	}
	return ai, aj, nil
}

// DirectAttributesOf returns the terms directly asserted for el.
func (e *Engine) DirectAttributesOf(el types.Element) (types.Set[types.Term], error) {
	return e.corpus.DirectAttributesOf(el)
}

// CommonSubsumers returns the inferred attributes shared by i and j.
func (e *Engine) CommonSubsumers(i, j types.Element) (types.Set[types.Term], error) {
	ai, aj, err := e.inferredPair(i, j)
	if err != nil {
		return nil, err
	}
	return ai.Intersect(aj), nil
}

// ElementJaccard is the Jaccard index of the inferred attributes of i and j.
func (e *Engine) ElementJaccard(i, j types.Element) (float64, error) {
	ai, aj, err := e.inferredPair(i, j)
	if err != nil {
		return 0, err
	}
	return similarity.Jaccard(ai, aj), nil
}

// AsymmetricElementJaccard is the fraction of j's inferred attributes shared with i.
func (e *Engine) AsymmetricElementJaccard(i, j types.Element) (float64, error) {
	ai, aj, err := e.inferredPair(i, j)
	if err != nil {
		return 0, err
	}
	return similarity.AsymmetricJaccard(ai, aj), nil
}

// ElementGraphIC is the summed IC of the shared inferred attributes over the
// summed IC of all of them. Attributes without an IC are left out of both sums.
func (e *Engine) ElementGraphIC(i, j types.Element) (float64, error) {
	ai, aj, err := e.inferredPair(i, j)
	if err != nil {
		return 0, err
	}
	return similarity.GraphIC(ai, aj, e.ic.IC)
}

// MaxICMatch returns the most informative inferred attribute shared by i and
// j, together with every other shared attribute within epsilon of it.
func (e *Engine) MaxICMatch(i, j types.Element) (types.ScoreAttributeSetPair, error) {
	common, err := e.CommonSubsumers(i, j)
	if err != nil {
		return types.ScoreAttributeSetPair{}, err
	}
	scores := make(map[types.Term]float64, len(common))
	best := math.Inf(-1)
	for t := range common {
		v, err := e.ic.ICOrZero(t)
		if err != nil {
			return types.ScoreAttributeSetPair{}, err
		}
		scores[t] = v
		best = max(best, v)
	}
	out := types.ScoreAttributeSetPair{Attributes: make(types.Set[types.Term])}
	if len(scores) == 0 {
		return out, nil
	}
	out.Score = best
	for t, v := range scores {
		if best-v <= e.epsilon {
			out.AddAttribute(t)
		}
	}
	return out, nil
}

// BestMatchAverage matches each direct attribute of one element with its best
// scoring direct attribute of the other and averages the best scores.
//
// metric is IC_MCS or LCSIC (IC of the lowest common subsumer, reporting the
// subsumer) or JACCARD or SIMJ (term Jaccard, reporting the matched term).
// AToB averages over i's attributes, BToA over j's, Average takes the mean of
// both and reports the attributes of both.
func (e *Engine) BestMatchAverage(i, j types.Element, metric types.Metric, dir types.Direction) (types.ScoreAttributeSetPair, error) {
	switch metric {
	case types.MetricICMCS, types.MetricLCSIC, types.MetricJaccard, types.MetricSimJ:
	default:
		return types.ScoreAttributeSetPair{}, fmt.Errorf("best match average with %s: %w", metric, types.ErrNotImplemented)
	}

	switch dir {
	case types.AToB:
		return e.bestMatchAverage(i, j, metric)
	case types.BToA:
		return e.bestMatchAverage(j, i, metric)
	case types.Average:
		ab, err := e.bestMatchAverage(i, j, metric)
		if err != nil {
			return types.ScoreAttributeSetPair{}, err
		}
		ba, err := e.bestMatchAverage(j, i, metric)
		if err != nil {
			return types.ScoreAttributeSetPair{}, err
		}
		return types.ScoreAttributeSetPair{
			Score:      (ab.Score + ba.Score) / 2,
			Attributes: ab.Attributes.Union(ba.Attributes),
		}, nil
	default:
		return types.ScoreAttributeSetPair{}, fmt.Errorf("direction %s: %w", dir, types.ErrNotImplemented)
	}
}

func (e *Engine) bestMatchAverage(i, j types.Element, metric types.Metric) (types.ScoreAttributeSetPair, error) {
	ai, err := e.corpus.DirectAttributesOf(i)
	if err != nil {
		return types.ScoreAttributeSetPair{}, err
	}
	aj, err := e.corpus.DirectAttributesOf(j)
	if err != nil {
		return types.ScoreAttributeSetPair{}, err
	}

	out := types.ScoreAttributeSetPair{Attributes: make(types.Set[types.Term])}
	if len(ai) == 0 || len(aj) == 0 {
		return out, nil
	}
	candidates := types.Sorted(aj)
	var total float64
	for _, t1 := range types.Sorted(ai) {
		best := math.Inf(-1)
		matches := make([]types.ScoreAttributePair, 0, len(candidates))
		for _, t2 := range candidates {
			sap, err := e.matchScore(t1, t2, metric)
			if err != nil {
				return types.ScoreAttributeSetPair{}, err
			}
			matches = append(matches, sap)
			best = max(best, sap.Score)
		}
		for _, sap := range matches {
			if best-sap.Score <= e.epsilon {
				out.Attributes.Add(sap.Attribute)
			}
		}
		total += best
	}
	out.Score = total / float64(len(ai))
	return out, nil
}

func (e *Engine) matchScore(t1, t2 types.Term, metric types.Metric) (types.ScoreAttributePair, error) {
	switch metric {
	case types.MetricJaccard, types.MetricSimJ:
		s, err := e.Jaccard(t1, t2)
		return types.ScoreAttributePair{Score: s, Attribute: t2}, err
	default:
		sap, ok, err := e.lcs.LCSWithIC(t1, t2)
		if err != nil {
			return types.ScoreAttributePair{}, err
		}
		if !ok {
			// below the saved threshold
			return types.ScoreAttributePair{Score: 0, Attribute: e.index.Top()}, nil
		}
		return sap, nil
	}
}

// ElementSimilarity scores an element pair with metric:
//
//	JACCARD, SIMJ                     ElementJaccard
//	DICE, OVERLAP, NORMALIZED_OVERLAP over the inferred attributes
//	GIC                               ElementGraphIC
//	MAXIC                             MaxICMatch
//	IC_MCS                            BestMatchAverage, both directions averaged
func (e *Engine) ElementSimilarity(i, j types.Element, metric types.Metric) (float64, error) {
	switch metric {
	case types.MetricJaccard, types.MetricSimJ:
		return e.ElementJaccard(i, j)
	case types.MetricDice, types.MetricOverlap, types.MetricNormalizedOverlap:
		ai, aj, err := e.inferredPair(i, j)
		if err != nil {
			return 0, err
		}
		switch metric {
		case types.MetricDice:
			return similarity.Dice(ai, aj), nil
		case types.MetricOverlap:
			return float64(similarity.Overlap(ai, aj)), nil
		default:
			return similarity.NormalizedOverlap(ai, aj), nil
		}
	case types.MetricGIC:
		return e.ElementGraphIC(i, j)
	case types.MetricMaxIC:
		sp, err := e.MaxICMatch(i, j)
		return sp.Score, err
	case types.MetricICMCS:
		sp, err := e.BestMatchAverage(i, j, metric, types.Average)
		return sp.Score, err
	default:
		return 0, fmt.Errorf("element similarity with %s: %w", metric, types.ErrNotImplemented)
	}
}

// ScoredAttributesOf returns el's direct attributes with their IC, most
// informative first. Attributes without an IC score 0.
func (e *Engine) ScoredAttributesOf(el types.Element) ([]types.ScoreAttributePair, error) {
	direct, err := e.corpus.DirectAttributesOf(el)
	if err != nil {
		return nil, err
	}
	out := make([]types.ScoreAttributePair, 0, len(direct))
	for t := range direct {
		v, err := e.ic.ICOrZero(t)
		if err != nil {
			return nil, err
		}
		out = append(out, types.ScoreAttributePair{Score: v, Attribute: t})
	}
	slices.SortFunc(out, func(a, b types.ScoreAttributePair) int {
		return cmp.Or(cmp.Compare(b.Score, a.Score), cmp.Compare(a.Attribute, b.Attribute))
	})
	return out, nil
}

// Entropy returns the entropy of the attribute classes of the corpus.
func (e *Engine) Entropy() (float64, error) {
	terms, err := e.corpus.AttributeClasses()
	if err != nil {
		return 0, err
	}
	return e.ic.Entropy(terms)
}

// EntropyOf returns -Σ p·log2(p) over terms, with p = freq/corpusSize.
func (e *Engine) EntropyOf(terms types.Set[types.Term]) (float64, error) {
	for t := range terms {
		if !e.index.Contains(t) {
			return 0, types.UnknownTerm(t)
		}
	}
	return e.ic.Entropy(terms)
}
