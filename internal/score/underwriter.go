package score

import (
	"fmt"
	"strings"

	"github.com/ppiankov/landlock/internal/model"
)

// Component weights. They are not renormalized when a component is missing,
// so partial evidence yields a lower score.
const (
	weightFunding  = 0.4
	weightZoning   = 0.3
	weightMomentum = 0.3
)

// Underwriter aggregates the analyst outputs into a feasibility verdict
type Underwriter struct{}

// NewUnderwriter creates a new underwriter
func NewUnderwriter() *Underwriter {
	return &Underwriter{}
}

// Analyze combines budget and policy outputs. Every pro, con and constraint
// cites all facts of the relevant type that carry citations.
func (u *Underwriter) Analyze(budget model.BudgetAnalystOutput, policy model.PolicyAnalystOutput, facts []model.ExtractedFact, _ []model.Citation, trail *model.Trail) model.UnderwriterOutput {
	feasibility := u.feasibility(budget, policy, trail)
	verdict := u.verdict(feasibility, budget, policy)
	plan := model.PlanVariantFor(verdict)

	pros := []model.EvidenceItem{}
	cons := []model.EvidenceItem{}
	constraints := []model.EvidenceItem{}

	if s := budget.FundingStrengthScore; s != nil && *s >= 60 {
		pros = appendItem(pros, facts, model.FactBudget,
			fmt.Sprintf("Strong funding environment (score: %d)", *s))
	}
	if s := policy.ZoningFlexibilityScore; s != nil && *s >= 60 {
		pros = appendItem(pros, facts, model.FactZoning,
			fmt.Sprintf("Flexible zoning regulations (score: %d)", *s))
	}
	// A score of exactly 0 is still limited funding
	if s := budget.FundingStrengthScore; s != nil && *s < 40 {
		cons = appendItem(cons, facts, model.FactBudget,
			fmt.Sprintf("Limited funding availability (score: %d)", *s))
	}
	if len(policy.ApprovalFrictionFactors) > 0 {
		cons = appendItem(cons, facts, model.FactProposal,
			"Approval friction: "+strings.Join(policy.ApprovalFrictionFactors, "; "))
	}
	if len(policy.Constraints) > 0 {
		constraints = appendItem(constraints, facts, model.FactZoning,
			strings.Join(policy.Constraints, "; "))
	}

	total := budget.EvidenceCount + policy.EvidenceCount
	confidence := 0.0
	if total > 0 {
		confidence = min(float64(total)/10.0, 1.0)
	}

	cited := [][]string{budget.CitationIDs, policy.CitationIDs}
	for _, group := range [][]model.EvidenceItem{pros, cons, constraints} {
		for _, item := range group {
			cited = append(cited, item.CitationIDs)
		}
	}

	out := model.UnderwriterOutput{
		FeasibilityScore: feasibility,
		Verdict:          verdict,
		PlanVariant:      plan,
		Pros:             pros,
		Cons:             cons,
		Constraints:      constraints,
		Confidence:       confidence,
		EvidenceCount:    total,
		CitationIDs:      unionIDs(cited...),
	}

	trail.Append(model.StageUnderwriter, "Verdict reached", map[string]any{
		"verdict":      string(verdict),
		"plan_variant": string(plan),
		"pros":         len(pros),
		"cons":         len(cons),
		"constraints":  len(constraints),
		"evidence":     total,
	})
	trail.RecordScore("feasibility_score", feasibility)
	trail.AddPlanVariant(plan)

	return out
}

// feasibility is the truncated weighted sum of the present components, nil if none are present
func (u *Underwriter) feasibility(budget model.BudgetAnalystOutput, policy model.PolicyAnalystOutput, trail *model.Trail) *int {
	components := []struct {
		name   string
		score  *int
		weight float64
	}{
		{"funding_strength", budget.FundingStrengthScore, weightFunding},
		{"zoning_flexibility", policy.ZoningFlexibilityScore, weightZoning},
		{"proposal_momentum", policy.ProposalMomentumScore, weightMomentum},
	}

	sum := 0.0
	present := 0
	data := map[string]any{"formula": "int(funding*0.4 + zoning*0.3 + momentum*0.3), missing components contribute 0"}
	for _, c := range components {
		if c.score == nil {
			data[c.name] = nil
			continue
		}
		present++
		sum += float64(*c.score) * c.weight
		data[c.name] = *c.score
	}

	if present == 0 {
		trail.Append(model.StageUnderwriter, "No scored components", data)
		return nil
	}

	score := int(sum)
	data["weighted_sum"] = sum
	trail.Append(model.StageUnderwriter, "Feasibility scored", data)
	return model.IntPtr(score)
}

func (u *Underwriter) verdict(score *int, budget model.BudgetAnalystOutput, policy model.PolicyAnalystOutput) model.Verdict {
	switch {
	case score == nil && budget.EvidenceCount == 0 && policy.EvidenceCount == 0:
		return model.VerdictUnknown
	case score == nil:
		return model.VerdictCaution
	case *score >= 70:
		return model.VerdictGo
	case *score >= 50:
		return model.VerdictCaution
	default:
		return model.VerdictAvoid
	}
}

// appendItem adds an evidence item backed by every cited fact of factType.
// Nothing is added when no such fact exists.
func appendItem(items []model.EvidenceItem, facts []model.ExtractedFact, factType model.FactType, description string) []model.EvidenceItem {
	factIDs, citationIDs := backing(facts, factType)
	item, err := model.NewEvidenceItem(description, factIDs, citationIDs)
	if err != nil {
		return items
	}
	return append(items, item)
}
