/*
 * @module service/etiqueta/scoring
 * @description Similarity scoring between reference and extracted label text
 * @architecture pure functions - deterministic, unit-testable without DB or OCR
 * @documentReference dev_docs/etiqueta_pipeline.md
 * @stateFlow normalized reference + normalized extraction -> edit distance -> score [0,100]
 * @rules identical inputs score 100; scoring never mutates state
 * @dependencies math
 * @refs service/etiqueta/service.go
 */

package etiqueta

import "math"

// Similarity computes a score in [0,100] from normalized Levenshtein
// distance: score = 100 * (1 - distance/maxLen), rounded to two decimals.
// Character-level edit distance fits label OCR, where failures are mostly
// single-character substitutions. Two empty strings compare as 100.
func Similarity(reference, extracted string) float64 {
	if reference == extracted {
		return 100
	}

	refRunes := []rune(reference)
	extRunes := []rune(extracted)

	maxLen := len(refRunes)
	if len(extRunes) > maxLen {
		maxLen = len(extRunes)
	}
	if maxLen == 0 {
		return 100
	}

	dist := levenshtein(refRunes, extRunes)
	score := 100 * (1 - float64(dist)/float64(maxLen))
	if score < 0 {
		score = 0
	}

	return math.Round(score*100) / 100
}

// levenshtein computes edit distance with two rolling rows.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}

			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost

			min := del
			if ins < min {
				min = ins
			}
			if sub < min {
				min = sub
			}
			curr[j] = min
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
