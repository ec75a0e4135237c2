// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package reconcile

import (
	"cmp"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

// Diff compares two collections as sets. toRemove holds the elements of
// current missing from desired and toAdd the elements of desired missing
// from current. Duplicates collapse and both results are sorted ascending.
func Diff[T cmp.Ordered](current, desired []T) (toRemove, toAdd []T) {
	cur := mapset.NewThreadUnsafeSet(current...)
	want := mapset.NewThreadUnsafeSet(desired...)
	return sorted(cur.Difference(want)), sorted(want.Difference(cur))
}

func sorted[T cmp.Ordered](s mapset.Set[T]) []T {
	if s.Cardinality() == 0 {
		return nil
	}
	out := s.ToSlice()
	slices.Sort(out)
	return out
}
