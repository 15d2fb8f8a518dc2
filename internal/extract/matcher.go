package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/landlock/internal/model"
)

// matcher is one entry of an ordered extraction table.
// Every match becomes a fact unless dedupe suppresses a repeated value.
type matcher struct {
	name      string
	pattern   *regexp.Regexp
	group     int                          // submatch holding the value (0 = whole match)
	dedupe    bool                         // suppress repeated identical values within one document
	key       func(n int) string           // fact key; n is the running fact counter
	value     func(raw string) (any, bool) // converts the raw match; nil keeps the raw string
	unit      string                       // fixed unit
	unitGroup int                          // submatch holding the unit, overrides unit when non-empty
}

// routine is an ordered matcher table for one fact type
type routine struct {
	label    string // used in fact ids
	factType model.FactType
	matchers []matcher
}

// run applies the matchers in order, numbering facts from start+1.
// It returns the facts and the last number used.
func (r routine) run(text, regionID, citationID string, start int, opts ...model.FactOption) ([]model.ExtractedFact, int) {
	var facts []model.ExtractedFact
	n := start

	for _, m := range r.matchers {
		seen := make(map[string]bool)

		for _, sub := range m.pattern.FindAllStringSubmatch(text, -1) {
			if m.group >= len(sub) {
				continue
			}
			raw := strings.TrimSpace(sub[m.group])
			if raw == "" {
				continue
			}

			var value any = raw
			if m.value != nil {
				v, ok := m.value(raw)
				if !ok {
					continue
				}
				value = v
			}

			if m.dedupe {
				dk := strings.ToLower(fmt.Sprint(value))
				if seen[dk] {
					continue
				}
				seen[dk] = true
			}

			factOpts := append([]model.FactOption(nil), opts...)
			if unit := m.unitFor(sub); unit != "" {
				factOpts = append(factOpts, model.WithUnit(unit))
			}

			n++
			fact, err := model.NewFact(factID(regionID, citationID, r.label, n), regionID, r.factType,
				m.key(n), value, []string{citationID}, factOpts...)
			if err != nil {
				// Unreachable: every extracted fact carries its source citation
				continue
			}
			facts = append(facts, fact)
		}
	}

	return facts, n
}

func (m matcher) unitFor(sub []string) string {
	if m.unitGroup > 0 && m.unitGroup < len(sub) {
		if u := normalizeUnit(sub[m.unitGroup]); u != "" {
			return u
		}
	}
	return m.unit
}

// factID builds a run-unique fact id from region, citation and a per-routine counter
func factID(regionID, citationID, label string, n int) string {
	return fmt.Sprintf("fact_%s_%s_%s_%04d", regionID, strings.TrimPrefix(citationID, "cite_"), label, n)
}

// keyword builds a case-insensitive whole-word matcher that stores the canonical keyword
func keyword(key, word string) matcher {
	return matcher{
		name:    "keyword:" + word,
		pattern: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`),
		dedupe:  true,
		key:     fixedKey(key),
		value:   constValue(word),
	}
}

// keywords builds one keyword matcher per word, in order
func keywords(key func(word string) string, words ...string) []matcher {
	out := make([]matcher, 0, len(words))
	for _, w := range words {
		out = append(out, keyword(key(w), w))
	}
	return out
}

func fixedKey(key string) func(int) string {
	return func(int) string { return key }
}

func numberedKey(prefix string) func(int) string {
	return func(n int) string { return fmt.Sprintf("%s_%d", prefix, n) }
}

func constValue(v string) func(string) (any, bool) {
	return func(string) (any, bool) { return v, true }
}

// parseInt parses "12,345" style integers
func parseInt(raw string) (any, bool) {
	cleaned := strings.NewReplacer(",", "", " ", "").Replace(raw)
	v, err := strconv.Atoi(cleaned)
	if err != nil {
		return nil, false
	}
	return v, true
}

// parseFloat parses "2.5" or "1,200.5" style decimals
func parseFloat(raw string) (any, bool) {
	cleaned := strings.ReplaceAll(raw, ",", "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil, false
	}
	return v, true
}

func normalizeUnit(u string) string {
	switch strings.ToLower(strings.TrimSpace(u)) {
	case "", "dollar", "dollars":
		return ""
	case "cad", "usd":
		return strings.ToUpper(strings.TrimSpace(u))
	case "m", "metre", "metres", "meter", "meters":
		return "m"
	case "ft", "feet", "foot":
		return "ft"
	case "storey", "storeys", "story", "stories":
		return "storeys"
	case "hectare", "ha":
		return "units/ha"
	case "acre":
		return "units/acre"
	default:
		return strings.ToLower(strings.TrimSpace(u))
	}
}
