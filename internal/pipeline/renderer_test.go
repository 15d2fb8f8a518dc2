package pipeline

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/landlock/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *Result {
	panel := model.NewRegionPanel("springfield",
		model.BudgetAnalystOutput{
			FundingStrengthScore: model.IntPtr(30),
			KeyAllocations: []model.Allocation{
				{Key: "budget_mention_1", Value: "$2.5 million", Unit: "CAD", Timeframe: strPtr("FY 2024"), CitationIDs: []string{"cite_0001"}},
			},
			Confidence:    1,
			EvidenceCount: 3,
			CitationIDs:   []string{"cite_0001"},
		},
		model.PolicyAnalystOutput{
			ApprovalFrictionFactors: []string{"Pending applications outnumber approvals"},
			Constraints:             []string{},
			CitationIDs:             []string{},
		},
		model.UnderwriterOutput{
			FeasibilityScore: model.IntPtr(45),
			Verdict:          model.VerdictCaution,
			PlanVariant:      model.PlanB,
			Pros: []model.EvidenceItem{{
				Description:       "Municipal funding is documented",
				SupportingFactIDs: []string{"f1"},
				CitationIDs:       []string{"cite_0001"},
			}},
			Confidence:    0.8,
			EvidenceCount: 3,
			CitationIDs:   []string{"cite_0001"},
		},
		fixedNow,
	)
	return &Result{
		Panel: panel,
		Citations: []model.Citation{{
			ID: "cite_0001", Title: "Capital Budget", URI: "https://springfield.example/budget",
			RetrievedAt: time.Date(2024, 6, 30, 8, 0, 0, 0, time.UTC),
		}},
		Strategy: "deterministic",
	}
}

func TestRenderer_Markdown(t *testing.T) {
	md := NewRenderer(true).Markdown(sampleResult())

	assert.Contains(t, md, "# Development feasibility: springfield")
	assert.Contains(t, md, "## Verdict: CAUTION (plan B)")
	assert.Contains(t, md, "- Feasibility score: 45/100")
	assert.Contains(t, md, "- Municipal funding is documented [cite_0001]")
	assert.Contains(t, md, "| budget_mention_1 | $2.5 million | $2,500,000 CAD | FY 2024 | cite_0001 |")
	assert.Contains(t, md, "- Zoning flexibility: n/a")
	assert.Contains(t, md, "### Approval friction")
	assert.NotContains(t, md, "### Zoning constraints")
	assert.Contains(t, md, "- [cite_0001] Capital Budget (https://springfield.example/budget), retrieved 2024-06-30")
	assert.Contains(t, md, "_Scores are derived only")

	assert.NotContains(t, NewRenderer(false).Markdown(sampleResult()), "_Scores are derived only")
}

func TestRenderer_Files(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	r := NewRenderer(false)
	result := sampleResult()

	jsonPath := filepath.Join(dir, "panel.json")
	require.NoError(t, r.RenderJSON(result.Panel, jsonPath))
	raw, err := os.ReadFile(jsonPath)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "springfield", decoded["region_id"])
	assert.Contains(t, decoded, "underwriter_analysis")

	mdPath := filepath.Join(dir, "panel.md")
	require.NoError(t, r.RenderMarkdown(result, mdPath))
	_, err = os.Stat(mdPath)
	assert.NoError(t, err)
}

func TestRenderer_Summary(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(false).RenderSummary(&buf, sampleResult())

	out := buf.String()
	assert.Contains(t, out, "Verdict: CAUTION (plan B)")
	assert.Contains(t, out, "Feasibility: 45/100  Funding: 30/100  Zoning: n/a  Momentum: n/a")
}

func TestAmountText(t *testing.T) {
	assert.Equal(t, "$1,200,000,000 CAD", amountText("$1.2 billion", "CAD"))
	assert.Equal(t, "$400,000", amountText("$400,000", ""))
	assert.Equal(t, "$12 units", amountText(12, "units"))
	assert.Equal(t, "-", amountText("no number", "CAD"))
	assert.Equal(t, "-", amountText(true, "CAD"))
}
