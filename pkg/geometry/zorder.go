package geometry

import (
	"cmp"
	"slices"

	"github.com/matzehuels/winscope/pkg/trace"
)

// CompareZOrder orders layers top-most first. It returns a negative number
// when a is drawn above b, a positive number when b is above a, and zero only
// when both have the same ID.
//
// The z-order paths are compared component by component up to the length of
// the shorter one; at the first difference the larger component is on top.
// If no compared component differs (one path is a prefix of the other, or
// both are empty) the larger layer ID is on top. Path length itself never
// decides: a layer with an empty path ties on the path and falls straight
// through to the ID comparison.
func CompareZOrder(a, b trace.Layer) int {
	n := min(len(a.ZOrderPath), len(b.ZOrderPath))
	for i := 0; i < n; i++ {
		if c := cmp.Compare(b.ZOrderPath[i], a.ZOrderPath[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(b.ID, a.ID)
}

// SortByZOrder returns a copy of layers sorted top-most first.
//
// The prefix rule makes CompareZOrder intransitive for some mixes of empty
// and nested paths. The copy is put into ID order before the stable sort so
// the result depends only on the set of layers, never on snapshot order.
func SortByZOrder(layers []trace.Layer) []trace.Layer {
	out := slices.Clone(layers)
	slices.SortFunc(out, func(a, b trace.Layer) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortStableFunc(out, CompareZOrder)
	return out
}
