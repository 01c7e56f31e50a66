package sparse

// ScanForSparseMatches merges two ascending index sequences and calls fn with
// the positions of every value present in both, in ascending order.
// It runs in O(len(a)+len(b)).
//
// Both sequences must be sorted ascending. This is not checked: unsorted
// input yields unspecified matches, not an error.
func ScanForSparseMatches(a, b []int64, fn func(ai, bi int)) {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			fn(i, j)
			i++
			j++
		}
	}
}
