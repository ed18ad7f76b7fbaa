package similarity

import "github.com/botirk38/semsim/types"

// Jaccard computes |a ∩ b| / |a ∪ b|.
func Jaccard[T comparable](a, b types.Set[T]) float64 {
	common := a.IntersectionSize(b)
	return JaccardFromSizes(common, len(a)+len(b)-common)
}

// JaccardFromSizes computes the Jaccard index from precomputed sizes.
func JaccardFromSizes(common, union int) float64 {
	return ratio(float64(common), float64(union))
}

// AsymmetricJaccard computes |a ∩ b| / |b|: the fraction of b covered by a.
func AsymmetricJaccard[T comparable](a, b types.Set[T]) float64 {
	return AsymmetricJaccardFromSizes(a.IntersectionSize(b), len(b))
}

// AsymmetricJaccardFromSizes computes the asymmetric Jaccard index from
// precomputed sizes, where sizeB is the size of the second set.
func AsymmetricJaccardFromSizes(common, sizeB int) float64 {
	return ratio(float64(common), float64(sizeB))
}
