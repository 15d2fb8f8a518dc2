package extract

import (
	"regexp"

	"github.com/ppiankov/landlock/internal/model"
)

// Measurement matchers keep every occurrence; codes, keywords and restrictions dedupe.
var zoningRoutine = routine{
	label:    "zoning",
	factType: model.FactZoning,
	matchers: concat(
		[]matcher{{
			name:    "zone_code",
			pattern: regexp.MustCompile(`\b[A-Z]{1,3}[- ]?\d+\b`),
			dedupe:  true,
			key:     numberedKey("zoning_code"),
		}},
		keywords(func(w string) string { return "zoning_keyword_" + w },
			"residential", "commercial", "industrial", "mixed-use", "agricultural", "institutional", "density"),
		[]matcher{
			{
				name:    "restriction",
				pattern: regexp.MustCompile(`(?i)\brestricted\s+to\s+[a-z-]+(?:\s+[a-z-]+)?`),
				dedupe:  true,
				key:     fixedKey("zoning_restriction"),
			},
			{
				name:      "setback",
				pattern:   regexp.MustCompile(`(?i)\bsetbacks?\s*(?:of|:)?\s*(\d+(?:\.\d+)?)\s*(m|metres?|meters?|ft|feet)\b`),
				group:     1,
				key:       fixedKey("setback"),
				value:     parseFloat,
				unitGroup: 2,
			},
			{
				name:      "height",
				pattern:   regexp.MustCompile(`(?i)\bheight\s*(?:limit)?\s*(?:of|:)?\s*(\d+(?:\.\d+)?)\s*(m|metres?|meters?|ft|feet|storeys?|stories)\b`),
				group:     1,
				key:       fixedKey("max_height"),
				value:     parseFloat,
				unitGroup: 2,
			},
			{
				name:    "floor_space_ratio",
				pattern: regexp.MustCompile(`(?i)\b(?:FSR|FAR|floor (?:space|area) ratio)\s*(?:of|:)?\s*(\d+(?:\.\d+)?)`),
				group:   1,
				key:     fixedKey("floor_space_ratio"),
				value:   parseFloat,
			},
			{
				name:      "density_units",
				pattern:   regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*units\s+per\s+(hectare|acre)\b`),
				group:     1,
				key:       fixedKey("density_units"),
				value:     parseFloat,
				unitGroup: 2,
			},
		},
	),
}

// proposalVocabulary marks zoning documents that also describe applications
var proposalVocabulary = regexp.MustCompile(`(?i)\b(?:permits?|applications?)\b`)

// ZoningFacts extracts zone codes, land-use keywords, restrictions and measurements
func ZoningFacts(text, regionID, citationID string, opts ...model.FactOption) []model.ExtractedFact {
	facts, _ := zoningRoutine.run(text, regionID, citationID, 0, opts...)
	return facts
}

// mentionsProposals reports whether a zoning document should also be scanned for proposals
func mentionsProposals(text string) bool {
	return proposalVocabulary.MatchString(text)
}

func concat(groups ...[]matcher) []matcher {
	var out []matcher
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
