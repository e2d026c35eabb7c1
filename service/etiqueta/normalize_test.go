/*
 * @module service/etiqueta/normalize_test
 * @description Unit tests for OCR text normalization
 * @architecture test layer
 * @documentReference dev_docs/etiqueta_pipeline.md
 * @stateFlow raw text -> NormalizeText -> assertion
 * @rules normalization must be deterministic and diacritic-insensitive
 * @dependencies testing, stretchr/testify
 */

package etiqueta

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTextLowercases(t *testing.T) {
	assert.Equal(t, "classe energetica a", NormalizeText("CLASSE ENERGETICA A"))
}

func TestNormalizeTextStripsDiacritics(t *testing.T) {
	assert.Equal(t, "eficiencia energetica", NormalizeText("Eficiência Energética"))
}

func TestNormalizeTextKeepsValueSeparators(t *testing.T) {
	// Decimal commas, dots and percent signs carry meaning on labels.
	assert.Equal(t, "consumo 38,5 kwh 75% 1.5a", NormalizeText("Consumo: 38,5 kWh (75%) 1.5A"))
}

func TestNormalizeTextDropsOtherPunctuation(t *testing.T) {
	assert.Equal(t, "modelo xk 500", NormalizeText("Modelo: XK-500!"))
}

func TestNormalizeTextCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", NormalizeText("  a \t b \n\n c  "))
}

func TestNormalizeTextEmptyInput(t *testing.T) {
	assert.Equal(t, "", NormalizeText(""))
	assert.Equal(t, "", NormalizeText(" \n\t "))
	assert.Equal(t, "", NormalizeText("()[]{}!?"))
}

func TestNormalizeTextEquatesOcrVariants(t *testing.T) {
	// The same physical label read twice with diacritic and case differences
	// must normalize identically.
	a := NormalizeText("TENSÃO NOMINAL: 220V")
	b := NormalizeText("tensao nominal 220v")
	assert.Equal(t, a, b)
}

func TestNormalizeTextDeterministic(t *testing.T) {
	input := "Eficiência: 38,5 kWh — Classe A+++"
	first := NormalizeText(input)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, NormalizeText(input))
	}
}
