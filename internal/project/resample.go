package project

// ResampleIDs returns exactly n ids running from ids[0] to ids[len-1]. Longer sequences are
// thinned evenly with both ends kept; shorter ones are padded by repeating the last id.
// An empty input yields nil.
func ResampleIDs(ids []int, n int) []int {
	if len(ids) == 0 || n <= 0 {
		return nil
	}
	if n == 1 {
		return []int{ids[0]}
	}
	out := make([]int, 0, n)
	switch {
	case len(ids) == n:
		out = append(out, ids...)
	case len(ids) > n:
		last := len(ids) - 1
		for k := 0; k < n; k++ {
			idx := (k*last + (n-1)/2) / (n - 1)
			out = append(out, ids[idx])
		}
	default:
		out = append(out, ids...)
		for len(out) < n {
			out = append(out, ids[len(ids)-1])
		}
	}
	return out
}
