package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/landlock/internal/model"
)

var budgetYearPattern = regexp.MustCompile(`(?:20\d{2}|FY\s*\d{4})`)

// budgetRoutine matches dollar amounts. Amounts never dedupe: every mention is evidence.
var budgetRoutine = routine{
	label:    "budget",
	factType: model.FactBudget,
	matchers: []matcher{
		{
			name:    "amount:magnitude",
			pattern: regexp.MustCompile(`(?i)\$[\d.,]+\s*(?:billion|million|thousand|B|M|k)\b`),
			key:     numberedKey("budget_mention"),
			unit:    "CAD",
		},
		{
			name:    "amount:dollars",
			pattern: regexp.MustCompile(`\$[\d,]+`),
			key:     numberedKey("budget_mention"),
			unit:    "CAD",
		},
		{
			name:      "amount:currency",
			pattern:   regexp.MustCompile(`(?i)[\d,]*\d\s*(CAD|USD|dollars?)\b`),
			key:       numberedKey("budget_mention"),
			unit:      "CAD",
			unitGroup: 1,
		},
	},
}

// BudgetFacts extracts budget amount mentions and the first fiscal-year mention.
// The raw matched string is stored as the value; ParseAmount gives a numeric estimate.
func BudgetFacts(text, regionID, citationID string, opts ...model.FactOption) []model.ExtractedFact {
	year := budgetYearPattern.FindString(text)

	amountOpts := append([]model.FactOption{model.WithTimeframe(year)}, opts...)
	facts, n := budgetRoutine.run(text, regionID, citationID, 0, amountOpts...)

	if year != "" {
		n++
		fact, err := model.NewFact(factID(regionID, citationID, "budget_year", n), regionID,
			model.FactBudget, "budget_year", year, []string{citationID}, opts...)
		if err == nil {
			facts = append(facts, fact)
		}
	}

	return facts
}

var amountPattern = regexp.MustCompile(`(?i)([\d][\d,]*(?:\.\d+)?)\s*(billion|million|thousand|bn|b|m|k)?\b`)

// ParseAmount resolves "$1.5 million" style strings to a numeric estimate.
// billion=1e9, million=1e6, thousand=1e3. The result is informational only.
func ParseAmount(s string) (float64, bool) {
	m := amountPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0, false
	}

	switch strings.ToLower(m[2]) {
	case "billion", "bn", "b":
		v *= 1e9
	case "million", "m":
		v *= 1e6
	case "thousand", "k":
		v *= 1e3
	}

	return v, true
}
