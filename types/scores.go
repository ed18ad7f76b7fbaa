package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PairKey is an unordered pair of terms. Use NewPairKey so that both
// orderings produce the same key.
type PairKey struct {
	A Term
	B Term
}

// NewPairKey returns the canonical key for {a, b}.
func NewPairKey(a, b Term) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

func (k PairKey) String() string {
	return string(k.A) + "\t" + string(k.B)
}

// ScoreAttributePair is a score with the single attribute that produced it.
type ScoreAttributePair struct {
	Score     float64 `json:"score"`
	Attribute Term    `json:"attribute"`
}

// ScoreAttributeSetPair is a score with every attribute that tied for it.
type ScoreAttributeSetPair struct {
	Score      float64   `json:"score"`
	Attributes Set[Term] `json:"-"`
}

// NewScoreAttributeSetPair returns a pair holding the given attributes.
func NewScoreAttributeSetPair(score float64, attributes ...Term) ScoreAttributeSetPair {
	return ScoreAttributeSetPair{Score: score, Attributes: NewSet(attributes...)}
}

// AddAttribute records another attribute with the same score.
func (p *ScoreAttributeSetPair) AddAttribute(t Term) {
	if p.Attributes == nil {
		p.Attributes = make(Set[Term])
	}
	p.Attributes.Add(t)
}

// MarshalJSON writes the attributes as a sorted list.
func (p ScoreAttributeSetPair) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Score      float64 `json:"score"`
		Attributes []Term  `json:"attributes"`
	}{p.Score, Sorted(p.Attributes)})
}

func (p ScoreAttributeSetPair) String() string {
	terms := Sorted(p.Attributes)
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = string(t)
	}
	return fmt.Sprintf("%g [%s]", p.Score, strings.Join(parts, ", "))
}

// Metric is a base similarity metric, applied at term or element level.
type Metric string

const (
	MetricJaccard           Metric = "JACCARD"
	MetricOverlap           Metric = "OVERLAP"
	MetricNormalizedOverlap Metric = "NORMALIZED_OVERLAP"
	MetricDice              Metric = "DICE"
	MetricICMCS             Metric = "IC_MCS"
	MetricGIC               Metric = "GIC"
	MetricMaxIC             Metric = "MAXIC"
	MetricSimJ              Metric = "SIMJ"
	MetricLCSIC             Metric = "LCSIC"
)

var metricInfo = map[Metric]struct {
	description string
	ic          bool
	j           bool
}{
	MetricJaccard:           {"Best Match Average using Jaccard scoring", false, true},
	MetricOverlap:           {"Count of common subsumers", false, false},
	MetricNormalizedOverlap: {"Common subsumers over the smaller subsumer set", false, false},
	MetricDice:              {"Dice coefficient over subsumer sets", true, false},
	MetricICMCS:             {"Best Match Average using Information Content", true, false},
	MetricGIC:               {"Graph Information Content", true, false},
	MetricMaxIC:             {"Maximum Information Content", true, false},
	MetricSimJ:              {"Similarity based on Jaccard score", false, true},
	MetricLCSIC:             {"Least Common Subsumer Information Content Score", true, false},
}

// ParseMetric maps a metric name to a Metric.
func ParseMetric(name string) (Metric, error) {
	m := Metric(strings.ToUpper(strings.TrimSpace(name)))
	if _, ok := metricInfo[m]; !ok {
		return "", fmt.Errorf("metric %q: %w", name, ErrNotImplemented)
	}
	return m, nil
}

// Description returns a human readable description of m.
func (m Metric) Description() string {
	return metricInfo[m].description
}

// IsICMetric reports whether m is computed from information content values.
func (m Metric) IsICMetric() bool {
	return metricInfo[m].ic
}

// IsJMetric reports whether m is computed from Jaccard values.
func (m Metric) IsJMetric() bool {
	return metricInfo[m].j
}

// Direction selects how an asymmetric metric is applied to an element pair.
type Direction int

const (
	// AToB matches every annotation of the first element
	AToB Direction = iota
	// BToA matches every annotation of the second element
	BToA
	// Average takes the mean of both directions
	Average
)

func (d Direction) String() string {
	switch d {
	case AToB:
		return "A_TO_B"
	case BToA:
		return "B_TO_A"
	case Average:
		return "AVERAGE"
	default:
		return "UNKNOWN"
	}
}
