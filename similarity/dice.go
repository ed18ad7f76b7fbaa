package similarity

import "github.com/botirk38/semsim/types"

// Dice computes 2·|a ∩ b| / (|a| + |b|).
func Dice[T comparable](a, b types.Set[T]) float64 {
	return DiceFromSizes(a.IntersectionSize(b), len(a), len(b))
}

// DiceFromSizes computes the Dice coefficient from precomputed sizes.
func DiceFromSizes(common, sizeA, sizeB int) float64 {
	return ratio(2*float64(common), float64(sizeA+sizeB))
}
