// Package similarity provides set-based similarity measures over subsumer
// closures and inferred attribute sets.
//
// Every measure returns 0 when its denominator is 0, so two empty sets are
// never similar and no measure produces NaN.
package similarity

import "github.com/botirk38/semsim/types"

// SimilarityFunc compares two attribute sets.
// It should return a float64 where higher values indicate greater similarity.
type SimilarityFunc[T comparable] func(a, b types.Set[T]) float64

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
