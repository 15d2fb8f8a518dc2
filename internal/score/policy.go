package score

import (
	"math"
	"strings"

	"github.com/ppiankov/landlock/internal/model"
)

// FrictionPendingOverApproved is flagged when pending statuses outnumber approvals
const FrictionPendingOverApproved = "More pending than approved proposals"

// PolicyAnalyst scores zoning flexibility and proposal momentum
type PolicyAnalyst struct{}

// NewPolicyAnalyst creates a new policy analyst
func NewPolicyAnalyst() *PolicyAnalyst {
	return &PolicyAnalyst{}
}

// Analyze scores zoning and proposal facts
func (a *PolicyAnalyst) Analyze(facts []model.ExtractedFact, _ []model.Citation, trail *model.Trail) model.PolicyAnalystOutput {
	zoningFacts := model.FilterFacts(facts, model.FactZoning)
	proposalFacts := model.FilterFacts(facts, model.FactProposal)

	zoning := a.zoningFlexibility(zoningFacts, trail)
	momentum, friction := a.proposalMomentum(proposalFacts, trail)
	constraints := a.constraints(zoningFacts, trail)

	all := append(append([]model.ExtractedFact(nil), zoningFacts...), proposalFacts...)
	var cited [][]string
	for _, f := range all {
		cited = append(cited, f.CitationIDs)
	}

	out := model.PolicyAnalystOutput{
		ZoningFlexibilityScore:  zoning,
		ProposalMomentumScore:   momentum,
		ApprovalFrictionFactors: friction,
		Constraints:             constraints,
		Confidence:              citedRatio(all),
		EvidenceCount:           len(all),
		CitationIDs:             unionIDs(cited...),
	}

	trail.RecordScore("zoning_flexibility_score", out.ZoningFlexibilityScore)
	trail.RecordScore("proposal_momentum_score", out.ProposalMomentumScore)

	return out
}

// zoningFlexibility counts distinct zoning values; repeated codes are one signal
func (a *PolicyAnalyst) zoningFlexibility(zoningFacts []model.ExtractedFact, trail *model.Trail) *int {
	if len(zoningFacts) == 0 {
		return nil
	}

	distinct := make(map[string]bool)
	for _, f := range zoningFacts {
		if f.HasValue() {
			distinct[f.StringValue()] = true
		}
	}

	trail.Append(model.StagePolicy, "Zoning flexibility scored", map[string]any{
		"zoning_facts":    len(zoningFacts),
		"distinct_values": len(distinct),
		"formula":         "min(distinct_values * 15, 100)",
	})

	if len(distinct) == 0 {
		return nil
	}
	return model.IntPtr(min(len(distinct)*15, 100))
}

// proposalMomentum uses the approval rate when statuses are known, else an activity proxy
func (a *PolicyAnalyst) proposalMomentum(proposalFacts []model.ExtractedFact, trail *model.Trail) (*int, []string) {
	friction := []string{}
	if len(proposalFacts) == 0 {
		return nil, friction
	}

	var approved, pending, rejected int
	for _, f := range proposalFacts {
		if f.Key != "proposal_status" || !f.HasValue() {
			continue
		}
		status := strings.ToLower(f.StringValue())
		if strings.Contains(status, "approved") {
			approved++
		}
		if strings.Contains(status, "pending") {
			pending++
		}
		if strings.Contains(status, "rejected") {
			rejected++
		}
	}

	total := approved + pending + rejected
	if total > 0 && pending > approved {
		friction = append(friction, FrictionPendingOverApproved)
	}

	if total > 0 {
		rate := float64(approved) / float64(total)
		score := int(math.Round(rate * 100))

		trail.Append(model.StagePolicy, "Proposal momentum from approval rate", map[string]any{
			"approved":      approved,
			"pending":       pending,
			"rejected":      rejected,
			"approval_rate": rate,
			"formula":       "round(approved / (approved + pending + rejected) * 100)",
		})
		return model.IntPtr(score), friction
	}

	activity := 0
	for _, f := range proposalFacts {
		switch f.Key {
		case "permit_type", "project_type", "unit_count":
			activity++
		}
	}

	trail.Append(model.StagePolicy, "Proposal momentum from activity proxy", map[string]any{
		"activity_facts": activity,
		"formula":        "min((permit_type + project_type + unit_count) * 5, 100)",
	})

	if activity == 0 {
		return nil, friction
	}
	return model.IntPtr(min(activity*5, 100)), friction
}

// constraints lists zoning values mentioning restrictions or residential-only use
func (a *PolicyAnalyst) constraints(zoningFacts []model.ExtractedFact, trail *model.Trail) []string {
	out := []string{}
	for _, f := range zoningFacts {
		value, ok := f.Value.(string)
		if !ok || value == "" {
			continue
		}
		lower := strings.ToLower(value)
		if strings.Contains(lower, "restricted") || strings.Contains(lower, "residential") {
			c := "Zoning restriction: " + value
			out = append(out, c)
			trail.AddConstraint(c)
		}
	}
	return out
}
