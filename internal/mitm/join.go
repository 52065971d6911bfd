package mitm

import (
	"slices"

	"github.com/sebastienfdz/PRESENT24-MitM/internal/present24"
)

// join walks two sorted entry lists and calls fn for every pair of entries
// that share an intermediate value. Runs of equal values are matched as a
// full cross product. join stops early when fn returns false and reports the
// number of pairs it handed to fn.
func join(fwd, bwd []uint64, fn func(k1, k2 present24.Key) bool) (matches int, completed bool) {
	i, j := 0, 0
	for i < len(fwd) && j < len(bwd) {
		vf, vb := entryValue(fwd[i]), entryValue(bwd[j])
		switch {
		case vf < vb:
			i++
		case vf > vb:
			j++
		default:
			iEnd := runEnd(fwd, i)
			jEnd := runEnd(bwd, j)
			for _, ef := range fwd[i:iEnd] {
				for _, eb := range bwd[j:jEnd] {
					matches++
					if !fn(entryKey(ef), entryKey(eb)) {
						return matches, false
					}
				}
			}
			i, j = iEnd, jEnd
		}
	}
	return matches, true
}

// runEnd returns the index just past the run of entries sharing entries[i]'s value.
func runEnd(entries []uint64, i int) int {
	v := entryValue(entries[i])
	for i < len(entries) && entryValue(entries[i]) == v {
		i++
	}
	return i
}

// valueRange returns the sub-slice of sorted entries whose intermediate value
// lies in [lo, hi).
func valueRange(entries []uint64, lo, hi uint64) []uint64 {
	start, _ := slices.BinarySearch(entries, lo<<present24.BlockBits)
	end, _ := slices.BinarySearch(entries, hi<<present24.BlockBits)
	return entries[start:end]
}
