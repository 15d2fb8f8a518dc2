package extract

import (
	"regexp"

	"github.com/ppiankov/landlock/internal/model"
)

// Application ids must contain a digit so ordinary words after "application" are not captured.
// Ids never dedupe: each mention is evidence of activity.
var proposalRoutine = routine{
	label:    "proposal",
	factType: model.FactProposal,
	matchers: concat(
		[]matcher{
			{
				name:    "application_id",
				pattern: regexp.MustCompile(`(?i)\bapplication\s*(?:no\.?|number|#)?\s*([A-Z]*-?\d[A-Z0-9-]*)`),
				group:   1,
				key:     fixedKey("proposal_id"),
			},
			{
				name:    "proposal_id",
				pattern: regexp.MustCompile(`(?i)\bproposal\s*(?:no\.?|number|#)?\s*([A-Z]*-?\d[A-Z0-9-]*)`),
				group:   1,
				key:     fixedKey("proposal_id"),
			},
			{
				name:    "permit_number",
				pattern: regexp.MustCompile(`\b(?:DP|DA)[- ]?\d[A-Z0-9-]*`),
				key:     fixedKey("proposal_id"),
			},
		},
		keywords(func(string) string { return "proposal_status" },
			"approved", "pending", "under review", "rejected", "withdrawn"),
		keywords(func(string) string { return "permit_type" },
			"building permit", "development permit", "demolition permit", "occupancy permit",
			"rezoning", "variance", "subdivision"),
		keywords(func(string) string { return "project_type" },
			"single-family", "duplex", "townhouse", "apartment", "condominium",
			"laneway", "rental", "affordable housing", "mixed-use"),
		[]matcher{{
			name:    "unit_count",
			pattern: regexp.MustCompile(`(?i)\b(\d{1,5})\s*(?:new\s+)?(?:residential\s+|dwelling\s+|housing\s+|rental\s+)?units\b`),
			group:   1,
			key:     fixedKey("unit_count"),
			value:   parseInt,
			unit:    "units",
		}},
	),
}

// ProposalFacts extracts application ids, statuses, permit and project types and unit counts
func ProposalFacts(text, regionID, citationID string, opts ...model.FactOption) []model.ExtractedFact {
	facts, _ := proposalRoutine.run(text, regionID, citationID, 0, opts...)
	return facts
}
