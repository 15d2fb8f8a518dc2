package extract

import (
	"strings"
	"testing"

	"github.com/ppiankov/landlock/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCite = "cite_0001"

// valuesByKey groups fact values by key, preserving order
func valuesByKey(facts []model.ExtractedFact) map[string][]any {
	out := make(map[string][]any)
	for _, f := range facts {
		out[f.Key] = append(out[f.Key], f.Value)
	}
	return out
}

func requireCited(t *testing.T, facts []model.ExtractedFact, citationID string) {
	t.Helper()
	for _, f := range facts {
		require.NoError(t, f.Validate())
		assert.Equal(t, []string{citationID}, f.CitationIDs, "fact %s", f.ID)
	}
}

func TestBudgetFacts(t *testing.T) {
	text := "The 2024 capital budget allocates $1.5 billion for transit and $250,000 for parks."

	facts := BudgetFacts(text, "vancouver", testCite)
	requireCited(t, facts, testCite)
	require.Len(t, facts, 4)

	assert.Equal(t, "budget_mention_1", facts[0].Key)
	assert.Equal(t, "$1.5 billion", facts[0].Value)
	assert.Equal(t, "$1", facts[1].Value)
	assert.Equal(t, "$250,000", facts[2].Value)

	for _, f := range facts[:3] {
		assert.Equal(t, model.FactBudget, f.FactType)
		require.NotNil(t, f.Unit)
		assert.Equal(t, "CAD", *f.Unit)
		require.NotNil(t, f.Timeframe)
		assert.Equal(t, "2024", *f.Timeframe)
	}

	year := facts[3]
	assert.Equal(t, "budget_year", year.Key)
	assert.Equal(t, "2024", year.Value)
}

func TestBudgetFacts_AmountsNeverDedupe(t *testing.T) {
	facts := BudgetFacts("Grant of $500 approved. Another grant of $500 approved.", "r", testCite)
	assert.Len(t, valuesByKey(facts)["budget_mention_1"], 1)
	assert.Len(t, facts, 2)
	assert.Equal(t, facts[0].Value, facts[1].Value)
}

func TestBudgetFacts_NoYearNoTimeframe(t *testing.T) {
	facts := BudgetFacts("Total spend 1,500 CAD", "r", testCite)
	require.Len(t, facts, 1)
	assert.Equal(t, "1,500 CAD", facts[0].Value)
	assert.Nil(t, facts[0].Timeframe)
}

func TestBudgetFacts_Empty(t *testing.T) {
	assert.Empty(t, BudgetFacts("No figures were published.", "r", testCite))
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"$1.5 billion", 1.5e9, true},
		{"$2.5M", 2.5e6, true},
		{"$250,000", 250000, true},
		{"1,500 CAD", 1500, true},
		{"$10k", 10000, true},
		{"$3 thousand", 3000, true},
		{"none", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseAmount(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestZoningFacts(t *testing.T) {
	text := "Zone RS-1 allows residential uses. RS-1 lots are restricted to single-family dwellings. " +
		"Maximum height of 10.5 m and a front setback of 6 m apply."

	facts := ZoningFacts(text, "vancouver", testCite)
	requireCited(t, facts, testCite)

	byKey := valuesByKey(facts)
	assert.Equal(t, []any{"RS-1"}, byKey["zoning_code_1"])
	assert.Equal(t, []any{"residential"}, byKey["zoning_keyword_residential"])
	assert.Equal(t, []any{"restricted to single-family dwellings"}, byKey["zoning_restriction"])
	assert.Equal(t, []any{10.5}, byKey["max_height"])
	assert.Equal(t, []any{6.0}, byKey["setback"])

	for _, f := range facts {
		assert.Equal(t, model.FactZoning, f.FactType)
		if f.Key == "max_height" || f.Key == "setback" {
			require.NotNil(t, f.Unit)
			assert.Equal(t, "m", *f.Unit)
		}
	}
}

func TestZoningFacts_DedupeOnlyWhereFlagged(t *testing.T) {
	text := "RS-1 and RS-1 again. Setback of 3 m here, setback of 3 m there. Residential, residential."

	byKey := valuesByKey(ZoningFacts(text, "r", testCite))

	codes := 0
	for k, v := range byKey {
		if strings.HasPrefix(k, "zoning_code_") {
			codes += len(v)
		}
	}
	assert.Equal(t, 1, codes)
	assert.Len(t, byKey["zoning_keyword_residential"], 1)
	assert.Len(t, byKey["setback"], 2)
}

func TestZoningFacts_MeasurementPatterns(t *testing.T) {
	text := "Floor space ratio of 2.5 at 45 units per hectare."

	byKey := valuesByKey(ZoningFacts(text, "r", testCite))
	assert.Equal(t, []any{2.5}, byKey["floor_space_ratio"])
	assert.Equal(t, []any{45.0}, byKey["density_units"])
}

func TestProposalFacts(t *testing.T) {
	text := "Development application DP-2024-001 was approved. Application #A-17 is pending. " +
		"The rezoning for 120 units remains pending."

	facts := ProposalFacts(text, "vancouver", testCite)
	requireCited(t, facts, testCite)

	byKey := valuesByKey(facts)
	assert.Contains(t, byKey["proposal_id"], "DP-2024-001")
	assert.Contains(t, byKey["proposal_id"], "A-17")
	assert.Equal(t, []any{"approved", "pending"}, byKey["proposal_status"])
	assert.Equal(t, []any{"rezoning"}, byKey["permit_type"])
	assert.Equal(t, []any{120}, byKey["unit_count"])

	for _, f := range facts {
		assert.Equal(t, model.FactProposal, f.FactType)
	}
}

func TestProposalFacts_IdsNeedDigits(t *testing.T) {
	facts := ProposalFacts("The application for the site was withdrawn.", "r", testCite)

	byKey := valuesByKey(facts)
	assert.Empty(t, byKey["proposal_id"])
	assert.Equal(t, []any{"withdrawn"}, byKey["proposal_status"])
}

func TestProposalFacts_UnitCountsKeepEveryMention(t *testing.T) {
	byKey := valuesByKey(ProposalFacts("Phase one adds 40 units; phase two adds 40 units.", "r", testCite))
	assert.Equal(t, []any{40, 40}, byKey["unit_count"])
}

func TestDemographicFacts(t *testing.T) {
	text := "The city has a population of 662,248 with a growth rate of 4.9%. " +
		"There are 305,000 private households and a median household income of $72,585."

	facts := DemographicFacts(text, "vancouver", testCite)
	requireCited(t, facts, testCite)

	byKey := valuesByKey(facts)
	assert.Equal(t, []any{662248}, byKey["population"])
	assert.Equal(t, []any{4.9}, byKey["growth_rate"])
	assert.Equal(t, []any{305000}, byKey["households"])
	assert.Equal(t, []any{72585}, byKey["median_income"])
}

func TestDemographicFacts_ResidentsAndPeople(t *testing.T) {
	byKey := valuesByKey(DemographicFacts("Home to 12,000 residents, or roughly 12,000 people.", "r", testCite))
	assert.Equal(t, []any{12000, 12000}, byKey["population"])
}

func TestFactsForCategory_ZoningLeaksProposals(t *testing.T) {
	withVocab := "Zone C-2 commercial. Application DP-55 is under review."
	facts := FactsForCategory(withVocab, model.CategoryZoning, "r", testCite)

	assert.NotEmpty(t, model.FilterFacts(facts, model.FactZoning))
	proposals := model.FilterFacts(facts, model.FactProposal)
	require.NotEmpty(t, proposals)
	for _, p := range proposals {
		assert.Equal(t, []string{testCite}, p.CitationIDs)
	}

	withoutVocab := "Zone C-2 commercial. Heights approved by council."
	facts = FactsForCategory(withoutVocab, model.CategoryZoning, "r", testCite)
	assert.Empty(t, model.FilterFacts(facts, model.FactProposal))
}

func TestFactIDsAreUniqueAcrossCitations(t *testing.T) {
	a := BudgetFacts("$100", "r", "cite_0001")
	b := BudgetFacts("$100", "r", "cite_0002")
	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.NotEqual(t, a[0].ID, b[0].ID)
	assert.Equal(t, "fact_r_0001_budget_0001", a[0].ID)
}

func TestStructuredFacts(t *testing.T) {
	payload := `{"budget":{"total_capital":1500000,"notes":"draft",` +
		`"items":[{"amount":250},{"name":"parks","amount":100}]},"year":2024}`

	facts := StructuredFacts(payload, model.CategoryBudget, "r", testCite)
	requireCited(t, facts, testCite)
	require.Len(t, facts, 3)

	assert.Equal(t, "json_budget.total_capital", facts[0].Key)
	assert.Equal(t, 1500000.0, facts[0].Value)
	assert.Equal(t, "json_budget.items.0.amount", facts[1].Key)
	assert.Equal(t, "json_budget.items.1.amount", facts[2].Key)
	assert.Equal(t, model.FactBudget, facts[2].FactType)
}

func TestStructuredFacts_InvalidOrUnknown(t *testing.T) {
	assert.Empty(t, StructuredFacts("{not json", model.CategoryBudget, "r", testCite))
	assert.Empty(t, StructuredFacts(`{"population":5}`, model.SourceCategory("other"), "r", testCite))
}
