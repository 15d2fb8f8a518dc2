package extract

import (
	"regexp"

	"github.com/ppiankov/landlock/internal/model"
)

var demographicRoutine = routine{
	label:    "demographic",
	factType: model.FactDemographic,
	matchers: []matcher{
		{
			name:    "population",
			pattern: regexp.MustCompile(`(?i)\bpopulation\s*(?:of|:)?\s*(\d[\d,]*)`),
			group:   1,
			key:     fixedKey("population"),
			value:   parseInt,
		},
		{
			name:    "residents",
			pattern: regexp.MustCompile(`(?i)\b(\d[\d,]*)\s*residents\b`),
			group:   1,
			key:     fixedKey("population"),
			value:   parseInt,
		},
		{
			name:    "people",
			pattern: regexp.MustCompile(`(?i)\b(\d[\d,]*)\s*people\b`),
			group:   1,
			key:     fixedKey("population"),
			value:   parseInt,
		},
		{
			name:    "growth_rate",
			pattern: regexp.MustCompile(`(?i)\bgrowth(?:\s+rate)?(?:\s+of)?\s*:?\s*(\d+(?:\.\d+)?)\s*%`),
			group:   1,
			key:     fixedKey("growth_rate"),
			value:   parseFloat,
			unit:    "%",
		},
		{
			name:    "median_income",
			pattern: regexp.MustCompile(`(?i)\bmedian\s+(?:household\s+)?income\s*(?:of|:|was|is)?\s*\$?(\d[\d,]*)`),
			group:   1,
			key:     fixedKey("median_income"),
			value:   parseInt,
			unit:    "CAD",
		},
		{
			name:    "households",
			pattern: regexp.MustCompile(`(?i)\b(\d[\d,]*)\s*(?:private\s+)?households\b`),
			group:   1,
			key:     fixedKey("households"),
			value:   parseInt,
		},
	},
}

// DemographicFacts extracts population, growth, income and household figures
func DemographicFacts(text, regionID, citationID string, opts ...model.FactOption) []model.ExtractedFact {
	facts, _ := demographicRoutine.run(text, regionID, citationID, 0, opts...)
	return facts
}
