/*
 * @module service/etiqueta/rules
 * @description Per label-type comparison rule sets, with optional scripted normalization hooks
 * @architecture strategy pattern - tipo_etiqueta selects the rule set
 * @documentReference dev_docs/etiqueta_pipeline.md
 * @stateFlow normalized text -> rule-set transforms -> scripted hook -> comparable text
 * @rules unknown label types fall back to the generic rule set; a failing script falls back to builtin rules
 * @dependencies github.com/traefik/yaegi
 * @refs service/etiqueta/normalize.go
 */

package etiqueta

import (
	"crypto/sha1"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// TipoGenerico is the fallback label type.
const TipoGenerico = "generic"

// RuleSet adjusts normalization for one label type.
type RuleSet struct {
	Tipo string

	// StripSpaces removes all spaces before comparison. Barcode digit rows
	// are segmented unpredictably by OCR.
	StripSpaces bool

	// DropPunctuation removes ',' '.' '%' too; types whose content is
	// purely alphanumeric (CE marks) gain nothing from separators.
	DropPunctuation bool

	// Script is an optional yaegi snippet declaring
	// `func Normalize(text string) string`, applied after the builtin
	// transforms.
	Script string
}

// builtin rule sets for the label types shipped with the platform.
var builtinRuleSets = map[string]RuleSet{
	"energy_label":  {Tipo: "energy_label"},
	"ce_label":      {Tipo: "ce_label", DropPunctuation: true},
	"barcode_label": {Tipo: "barcode_label", StripSpaces: true, DropPunctuation: true},
	TipoGenerico:    {Tipo: TipoGenerico},
}

// RuleSetFor returns the rule set for a label type. Unknown types get the
// generic rules; stations ship new label types ahead of backend releases.
func RuleSetFor(tipo string) RuleSet {
	if rs, ok := builtinRuleSets[tipo]; ok {
		return rs
	}
	return builtinRuleSets[TipoGenerico]
}

// KnownTipos lists the label types with dedicated rule sets.
func KnownTipos() []string {
	tipos := make([]string, 0, len(builtinRuleSets))
	for tipo := range builtinRuleSets {
		tipos = append(tipos, tipo)
	}
	return tipos
}

// Apply runs the rule-set transforms over already-normalized text.
func (rs RuleSet) Apply(text string) string {
	if rs.DropPunctuation {
		text = strings.Map(func(r rune) rune {
			if r == ',' || r == '.' || r == '%' {
				return -1
			}
			return r
		}, text)
	}
	if rs.StripSpaces {
		text = strings.ReplaceAll(text, " ", "")
	}

	if rs.Script != "" {
		out, err := scriptExecutor.Normalize(rs.Script, text)
		if err != nil {
			slog.Warn("label rule script failed, using builtin rules", "tipo", rs.Tipo, "error", err)
			return text
		}
		return out
	}

	return text
}

var scriptExecutor = newRuleScriptExecutor()

// ruleScriptExecutor compiles and caches yaegi normalization scripts.
type ruleScriptExecutor struct {
	mu    sync.RWMutex
	cache map[string]func(string) string
}

func newRuleScriptExecutor() *ruleScriptExecutor {
	return &ruleScriptExecutor{cache: make(map[string]func(string) string)}
}

// Normalize runs a script's Normalize function over text, compiling on first
// use and caching by content hash.
func (e *ruleScriptExecutor) Normalize(script, text string) (string, error) {
	hash := fmt.Sprintf("%x", sha1.Sum([]byte(script)))

	e.mu.RLock()
	fn, ok := e.cache[hash]
	e.mu.RUnlock()

	if !ok {
		var err error
		fn, err = e.compile(script)
		if err != nil {
			return "", fmt.Errorf("script compilation failed: %w", err)
		}

		e.mu.Lock()
		e.cache[hash] = fn
		e.mu.Unlock()
	}

	return fn(text), nil
}

// compile evaluates the script and extracts its Normalize entry point.
func (e *ruleScriptExecutor) compile(script string) (func(string) string, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("loading stdlib symbols: %w", err)
	}

	if _, err := i.Eval(script); err != nil {
		return nil, err
	}

	v, err := i.Eval("Normalize")
	if err != nil {
		return nil, fmt.Errorf("script must declare func Normalize(text string) string: %w", err)
	}

	fn, ok := v.Interface().(func(string) string)
	if !ok {
		return nil, fmt.Errorf("Normalize has the wrong signature")
	}
	return fn, nil
}
