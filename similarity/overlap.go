package similarity

import "github.com/botirk38/semsim/types"

// Overlap returns |a ∩ b|.
func Overlap[T comparable](a, b types.Set[T]) int {
	return a.IntersectionSize(b)
}

// NormalizedOverlap computes |a ∩ b| / min(|a|, |b|).
func NormalizedOverlap[T comparable](a, b types.Set[T]) float64 {
	return NormalizedOverlapFromSizes(a.IntersectionSize(b), len(a), len(b))
}

// NormalizedOverlapFromSizes computes the normalized overlap from precomputed sizes.
func NormalizedOverlapFromSizes(common, sizeA, sizeB int) float64 {
	return ratio(float64(common), float64(min(sizeA, sizeB)))
}
