package reconcile

// Levenshtein returns the standard dynamic-programming edit distance between
// s and t: unit-cost insertion, deletion, and substitution. The distance is
// symmetric and zero for identical strings.
func Levenshtein(s, t string) int {
	if s == t {
		return 0
	}
	sr := []rune(s)
	tr := []rune(t)
	if len(sr) == 0 {
		return len(tr)
	}
	if len(tr) == 0 {
		return len(sr)
	}

	prev := make([]int, len(tr)+1)
	curr := make([]int, len(tr)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(sr); i++ {
		curr[0] = i
		for j := 1; j <= len(tr); j++ {
			cost := 1
			if sr[i-1] == tr[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(tr)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
