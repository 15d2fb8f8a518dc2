package score

import (
	"github.com/ppiankov/landlock/internal/model"
)

// BudgetAnalyst scores municipal funding strength from budget facts
type BudgetAnalyst struct{}

// NewBudgetAnalyst creates a new budget analyst
func NewBudgetAnalyst() *BudgetAnalyst {
	return &BudgetAnalyst{}
}

// Analyze scores the budget facts. Evidence volume is the sole scoring signal:
// min(n*10, 100), less 20 (floored at 0) below three facts, withheld below two.
func (a *BudgetAnalyst) Analyze(facts []model.ExtractedFact, _ []model.Citation, trail *model.Trail) model.BudgetAnalystOutput {
	budgetFacts := model.FilterFacts(facts, model.FactBudget)
	n := len(budgetFacts)

	if n == 0 {
		trail.Append(model.StageBudget, "No budget facts", map[string]any{"budget_facts": 0})
		return model.BudgetAnalystOutput{
			KeyAllocations: []model.Allocation{},
			CitationIDs:    []string{},
		}
	}

	raw := min(n*10, 100)
	score := raw
	if n < 3 {
		score = max(score-20, 0)
	}

	var funding *int
	if n >= 2 {
		funding = model.IntPtr(score)
	}

	allocations := []model.Allocation{}
	var cited [][]string
	for _, f := range budgetFacts {
		alloc, err := model.NewAllocation(f)
		if err != nil {
			continue
		}
		allocations = append(allocations, alloc)
		cited = append(cited, f.CitationIDs)
	}

	out := model.BudgetAnalystOutput{
		FundingStrengthScore: funding,
		KeyAllocations:       allocations,
		Confidence:           citedRatio(budgetFacts),
		EvidenceCount:        n,
		CitationIDs:          unionIDs(cited...),
	}

	trail.Append(model.StageBudget, "Funding strength scored", map[string]any{
		"budget_facts": n,
		"raw_score":    raw,
		"thin_penalty": n < 3,
		"withheld":     funding == nil,
		"allocations":  len(allocations),
		"formula":      "min(n*10, 100); n < 3: max(score-20, 0); n < 2: null",
	})
	trail.RecordScore("funding_strength_score", out.FundingStrengthScore)

	return out
}
