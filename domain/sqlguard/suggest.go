package sqlguard

import "strings"

// closestName returns the candidate with the smallest edit distance to
// name, or "" when nothing is close enough to be a plausible typo.
func closestName(name string, candidates []string) string {
	best := ""
	bestDist := -1
	lower := strings.ToLower(name)

	for _, c := range candidates {
		d := editDistance(lower, strings.ToLower(c))
		if bestDist == -1 || d < bestDist {
			best, bestDist = c, d
		}
	}

	// further than half the name away is a different word, not a typo
	if best == "" || bestDist > (len(lower)+1)/2 {
		return ""
	}
	return best
}

// editDistance computes the Levenshtein distance between two strings.
func editDistance(a, b string) int {
	if a == b {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
