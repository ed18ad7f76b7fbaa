package similarity

import (
	"cmp"

	"github.com/botirk38/semsim/types"
)

// ICFunc returns the information content of t. ok is false when t has none.
type ICFunc[T any] func(t T) (value float64, ok bool, err error)

// GraphIC computes Σ IC(t) over a ∩ b divided by Σ IC(t) over a ∪ b.
// Terms without an IC are left out of both sums. Terms are summed in
// ascending order so the result does not depend on map iteration.
func GraphIC[T cmp.Ordered](a, b types.Set[T], ic ICFunc[T]) (float64, error) {
	var common, union float64
	for _, t := range types.Sorted(a.Union(b)) {
		v, ok, err := ic(t)
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}
		union += v
		if a.Contains(t) && b.Contains(t) {
			common += v
		}
	}
	return ratio(common, union), nil
}
