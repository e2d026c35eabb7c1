/*
 * @module service/etiqueta/scoring_test
 * @description Unit tests for the similarity scoring functions
 * @architecture test layer
 * @documentReference dev_docs/etiqueta_pipeline.md
 * @stateFlow input pair -> score -> assertion
 * @rules scoring is pure; every case is checked without DB or OCR
 * @dependencies testing, stretchr/testify
 */

package etiqueta

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarityIdenticalText(t *testing.T) {
	assert.Equal(t, 100.0, Similarity("classe energetica a", "classe energetica a"))
}

func TestSimilarityBothEmpty(t *testing.T) {
	assert.Equal(t, 100.0, Similarity("", ""))
}

func TestSimilarityOneEmpty(t *testing.T) {
	assert.Equal(t, 0.0, Similarity("classe energetica a", ""))
	assert.Equal(t, 0.0, Similarity("", "classe energetica a"))
}

func TestSimilarityCompletelyDifferent(t *testing.T) {
	// Same length, no common characters: distance equals length, score 0.
	assert.Equal(t, 0.0, Similarity("aaaa", "bbbb"))
}

func TestSimilaritySingleSubstitution(t *testing.T) {
	// One substitution in a 10-rune string: 100 * (1 - 1/10) = 90.
	assert.Equal(t, 90.0, Similarity("1234567890", "1234567891"))
}

func TestSimilarityRoundsToTwoDecimals(t *testing.T) {
	// One substitution in 3 runes: 100 * (1 - 1/3) = 66.666... -> 66.67.
	assert.Equal(t, 66.67, Similarity("abc", "abd"))
}

func TestSimilarityDeterministic(t *testing.T) {
	ref := "modelo xk 500 tensao 220v consumo 38,5 kwh"
	ext := "modelo xk 500 tensao 220v consumo 38.5 kwh"

	first := Similarity(ref, ext)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Similarity(ref, ext))
	}
}

func TestSimilaritySymmetricLengths(t *testing.T) {
	// Insertion against deletion: distance 1 either way, maxLen 5.
	assert.Equal(t, 80.0, Similarity("abcde", "abcd"))
	assert.Equal(t, 80.0, Similarity("abcd", "abcde"))
}

func TestSimilarityUnicodeRunes(t *testing.T) {
	// Rune-level comparison: one multi-byte substitution counts once.
	assert.Equal(t, 75.0, Similarity("caça", "casa"))
}

func TestLevenshteinKnownDistances(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"", "abc", 3},
		{"abc", "", 3},
		{"same", "same", 0},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, levenshtein([]rune(tc.a), []rune(tc.b)), "levenshtein(%q, %q)", tc.a, tc.b)
	}
}
