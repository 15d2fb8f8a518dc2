package model

import "time"

// RegionPanelOutput is the externally visible result of one pipeline run
type RegionPanelOutput struct {
	RegionID            string              `json:"region_id"`
	BudgetAnalysis      BudgetAnalystOutput `json:"budget_analysis"`
	PolicyAnalysis      PolicyAnalystOutput `json:"policy_analysis"`
	UnderwriterAnalysis UnderwriterOutput   `json:"underwriter_analysis"`
	GeneratedAt         string              `json:"generated_at"` // ISO-8601 UTC
}

// NewRegionPanel packages the three analyses with a generation timestamp
func NewRegionPanel(regionID string, budget BudgetAnalystOutput, policy PolicyAnalystOutput, underwriter UnderwriterOutput, generatedAt time.Time) RegionPanelOutput {
	return RegionPanelOutput{
		RegionID:            regionID,
		BudgetAnalysis:      budget,
		PolicyAnalysis:      policy,
		UnderwriterAnalysis: underwriter,
		GeneratedAt:         generatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// Validate validates all three analyses
func (p RegionPanelOutput) Validate() error {
	if err := p.BudgetAnalysis.Validate(); err != nil {
		return err
	}
	if err := p.PolicyAnalysis.Validate(); err != nil {
		return err
	}
	return p.UnderwriterAnalysis.Validate()
}
