/*
 * @module service/etiqueta/normalize
 * @description Text normalization applied to OCR output before comparison
 * @architecture pure functions - no state, no IO
 * @documentReference dev_docs/etiqueta_pipeline.md
 * @stateFlow raw OCR text -> fold -> strip -> collapse -> comparable text
 * @rules normalization is deterministic; label-relevant punctuation (digits separators, percent) survives
 * @dependencies golang.org/x/text
 * @refs service/etiqueta/scoring.go
 */

package etiqueta

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks removes combining marks after NFKD decomposition, so that
// "Eficiência" and "Eficiencia" compare equal. OCR engines are unreliable
// about Portuguese diacritics.
var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeText canonicalizes OCR output for comparison:
//  1. NFKD-decompose and drop combining marks
//  2. lower-case fold
//  3. keep letters, digits, '%', ',' and '.'; everything else becomes a space
//     (labels carry values like "38,5 kWh" whose separators are meaningful)
//  4. collapse whitespace runs to single spaces and trim
func NormalizeText(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		// Fall back to the raw input; comparison still works, only
		// diacritic-insensitivity is lost.
		folded = s
	}

	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '%' || r == ',' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
