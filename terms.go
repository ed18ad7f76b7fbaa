package semsim

import (
	"fmt"

	"github.com/botirk38/semsim/similarity"
	"github.com/botirk38/semsim/types"
)

// AttributesSimScores compares one term against another in CompareAllAttributes.
type AttributesSimScores struct {
	A           types.Term `json:"a"`
	B           types.Term `json:"b"`
	SimJ        float64    `json:"simj"`
	AsymSimJ    float64    `json:"asym_simj"`
	IsBestMatch bool       `json:"is_best_match"`
}

// ClosureOf returns the reflexive named subsumers of t.
func (e *Engine) ClosureOf(t types.Term) (types.Set[types.Term], error) {
	return e.closures.ClosureOf(t)
}

// Jaccard returns |closure(a) ∩ closure(b)| / |closure(a) ∪ closure(b)|.
func (e *Engine) Jaccard(a, b types.Term) (float64, error) {
	common, union, _, _, err := e.closures.Sizes(a, b)
	if err != nil {
		return 0, err
	}
	return similarity.JaccardFromSizes(common, union), nil
}

// AsymmetricJaccard returns |closure(a) ∩ closure(b)| / |closure(b)|.
func (e *Engine) AsymmetricJaccard(a, b types.Term) (float64, error) {
	common, _, _, sizeB, err := e.closures.Sizes(a, b)
	if err != nil {
		return 0, err
	}
	return similarity.AsymmetricJaccardFromSizes(common, sizeB), nil
}

// Dice returns 2·|common| / (|closure(a)| + |closure(b)|).
func (e *Engine) Dice(a, b types.Term) (float64, error) {
	common, _, sizeA, sizeB, err := e.closures.Sizes(a, b)
	if err != nil {
		return 0, err
	}
	return similarity.DiceFromSizes(common, sizeA, sizeB), nil
}

// Overlap returns the number of common subsumers of a and b.
func (e *Engine) Overlap(a, b types.Term) (int, error) {
	return e.CommonSubsumerCount(a, b)
}

// CommonSubsumerCount returns |closure(a) ∩ closure(b)|.
func (e *Engine) CommonSubsumerCount(a, b types.Term) (int, error) {
	return e.closures.CommonCount(a, b)
}

// NormalizedOverlap returns the overlap divided by the smaller closure.
func (e *Engine) NormalizedOverlap(a, b types.Term) (float64, error) {
	common, _, sizeA, sizeB, err := e.closures.Sizes(a, b)
	if err != nil {
		return 0, err
	}
	return similarity.NormalizedOverlapFromSizes(common, sizeA, sizeB), nil
}

// GraphIC returns Σ IC over closure(a) ∩ closure(b) divided by Σ IC over
// closure(a) ∪ closure(b). Terms without an IC count in neither sum.
func (e *Engine) GraphIC(a, b types.Term) (float64, error) {
	ca, cb, err := e.closures.Closures(a, b)
	if err != nil {
		return 0, err
	}
	return similarity.GraphIC(ca, cb, e.ic.IC)
}

// IC returns the information content of t. ok is false when no element is
// annotated to t or below it, or when a loaded IC snapshot has no entry.
func (e *Engine) IC(t types.Term) (value float64, ok bool, err error) {
	return e.ic.IC(t)
}

// SetIC overrides the information content of t.
func (e *Engine) SetIC(t types.Term, value float64) error {
	return e.ic.SetIC(t, value)
}

// LowestCommonSubsumers returns the common subsumers of a and b that have no
// more specific common subsumer below them.
func (e *Engine) LowestCommonSubsumers(a, b types.Term) (types.Set[types.Term], error) {
	return e.lcs.LowestCommonSubsumers(a, b)
}

// LCSWithIC returns the most informative lowest common subsumer of a and b.
// ok is false when a loaded LCS snapshot has no entry for the pair: its
// score was below the threshold used when saving.
func (e *Engine) LCSWithIC(a, b types.Term) (types.ScoreAttributePair, bool, error) {
	return e.lcs.LCSWithIC(a, b)
}

// LCSWithICThreshold is LCSWithIC without memoizing results below minimumIC.
func (e *Engine) LCSWithICThreshold(a, b types.Term, minimumIC float64) (types.ScoreAttributePair, bool, error) {
	return e.lcs.LCSWithICThreshold(a, b, minimumIC)
}

// LCSWithICSet returns LCSWithIC as a score with a one-term attribute set.
func (e *Engine) LCSWithICSet(a, b types.Term) (types.ScoreAttributeSetPair, bool, error) {
	sap, ok, err := e.lcs.LCSWithIC(a, b)
	if err != nil || !ok {
		return types.ScoreAttributeSetPair{}, ok, err
	}
	return types.NewScoreAttributeSetPair(sap.Score, sap.Attribute), true, nil
}

// LCSIC returns the IC of the lowest common subsumer, or 0 when a loaded
// snapshot has no entry for the pair.
func (e *Engine) LCSIC(a, b types.Term) (float64, error) {
	sap, _, err := e.lcs.LCSWithIC(a, b)
	if err != nil {
		return 0, err
	}
	return sap.Score, nil
}

// AttributeSimilarity scores a term pair with metric. JACCARD and SIMJ are
// the Jaccard index; IC_MCS and LCSIC the IC of the lowest common subsumer;
// GIC the graph IC of the two closures.
func (e *Engine) AttributeSimilarity(a, b types.Term, metric types.Metric) (float64, error) {
	switch metric {
	case types.MetricJaccard, types.MetricSimJ:
		return e.Jaccard(a, b)
	case types.MetricOverlap:
		n, err := e.Overlap(a, b)
		return float64(n), err
	case types.MetricNormalizedOverlap:
		return e.NormalizedOverlap(a, b)
	case types.MetricDice:
		return e.Dice(a, b)
	case types.MetricICMCS, types.MetricLCSIC:
		return e.LCSIC(a, b)
	case types.MetricGIC:
		return e.GraphIC(a, b)
	default:
		return 0, fmt.Errorf("term similarity with %s: %w", metric, types.ErrNotImplemented)
	}
}

// CompareAllAttributes scores c against every term of ds. The entries with
// the highest SimJ are flagged as best matches.
func (e *Engine) CompareAllAttributes(c types.Term, ds []types.Term) ([]AttributesSimScores, error) {
	scores := make([]AttributesSimScores, 0, len(ds))
	best := -1.0
	for _, d := range ds {
		common, union, _, sizeD, err := e.closures.Sizes(c, d)
		if err != nil {
			return nil, err
		}
		s := AttributesSimScores{
			A:        c,
			B:        d,
			SimJ:     similarity.JaccardFromSizes(common, union),
			AsymSimJ: similarity.AsymmetricJaccardFromSizes(common, sizeD),
		}
		best = max(best, s.SimJ)
		scores = append(scores, s)
	}
	for i := range scores {
		scores[i].IsBestMatch = scores[i].SimJ == best
	}
	return scores, nil
}
