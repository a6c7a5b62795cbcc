package shell

import "github.com/agnivade/levenshtein"

// suggest returns the registered command closest to the typed name, if any
// is within a plausible edit distance for its length.
func suggest(name string) (string, bool) {
	best := ""
	bestDist := -1
	for _, c := range commands {
		dist := levenshtein.ComputeDistance(name, c.name)
		if dist > levenshteinLimit(len(c.name)) {
			continue
		}
		if bestDist < 0 || dist < bestDist || (dist == bestDist && c.name < best) {
			best = c.name
			bestDist = dist
		}
	}
	return best, bestDist >= 0
}

func levenshteinLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}
