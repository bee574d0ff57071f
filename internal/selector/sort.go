package selector

import (
	"cmp"
	"slices"

	"github.com/agleyzer/hlsselect/internal/variant"
)

// SortByBandwidth sorts vs in place by descending bandwidth. The sort is
// stable: variants with equal bandwidth keep their relative order.
func SortByBandwidth(vs []*variant.Variant) {
	slices.SortStableFunc(vs, func(a, b *variant.Variant) int {
		return cmp.Compare(b.Bandwidth, a.Bandwidth)
	})
}
