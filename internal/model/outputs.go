package model

import (
	"github.com/rotisserie/eris"
)

var (
	// ErrInvalidOutput is returned when an analysis output violates its schema
	ErrInvalidOutput = eris.New("invalid analysis output")

	// ErrUnbackedClaim is returned when an underwriter entry lacks fact or citation ids
	ErrUnbackedClaim = eris.New("underwriter entry must cite facts and sources")
)

// Verdict is the underwriter's final recommendation
type Verdict string

const (
	VerdictGo      Verdict = "go"
	VerdictCaution Verdict = "caution"
	VerdictAvoid   Verdict = "avoid"
	VerdictUnknown Verdict = "unknown"
)

// PlanVariant is the coarse follow-up track determined by the verdict
type PlanVariant string

const (
	PlanA       PlanVariant = "A"
	PlanB       PlanVariant = "B"
	PlanC       PlanVariant = "C"
	PlanUnknown PlanVariant = "unknown"
)

// PlanVariantFor maps a verdict to its plan variant
func PlanVariantFor(v Verdict) PlanVariant {
	switch v {
	case VerdictGo:
		return PlanA
	case VerdictCaution:
		return PlanB
	case VerdictAvoid:
		return PlanC
	default:
		return PlanUnknown
	}
}

// Allocation is a budget line backed by citations
type Allocation struct {
	Key         string   `json:"key"`
	Value       any      `json:"value"`
	Unit        string   `json:"unit"`
	Timeframe   *string  `json:"timeframe"`
	CitationIDs []string `json:"citation_ids"`
}

// NewAllocation builds an allocation from a budget fact. Unit defaults to CAD.
func NewAllocation(f ExtractedFact) (Allocation, error) {
	if f.Value == nil {
		return Allocation{}, eris.Wrapf(ErrInvalidOutput, "allocation %s: nil value", f.Key)
	}
	if len(f.CitationIDs) == 0 {
		return Allocation{}, eris.Wrapf(ErrUncitedFact, "allocation %s", f.Key)
	}
	unit := "CAD"
	if f.Unit != nil && *f.Unit != "" {
		unit = *f.Unit
	}
	return Allocation{
		Key:         f.Key,
		Value:       f.Value,
		Unit:        unit,
		Timeframe:   f.Timeframe,
		CitationIDs: append([]string(nil), f.CitationIDs...),
	}, nil
}

// EvidenceItem is an underwriter pro, con or constraint.
// Both id lists are required: every claim cites facts and sources.
type EvidenceItem struct {
	Description       string   `json:"description"`
	SupportingFactIDs []string `json:"supporting_fact_ids"`
	CitationIDs       []string `json:"citation_ids"`
}

// NewEvidenceItem builds an evidence item and validates it
func NewEvidenceItem(description string, factIDs, citationIDs []string) (EvidenceItem, error) {
	item := EvidenceItem{
		Description:       description,
		SupportingFactIDs: append([]string(nil), factIDs...),
		CitationIDs:       append([]string(nil), citationIDs...),
	}
	if err := item.Validate(); err != nil {
		return EvidenceItem{}, err
	}
	return item, nil
}

// Validate checks that the item has a description and both id lists
func (e EvidenceItem) Validate() error {
	if e.Description == "" {
		return eris.Wrap(ErrUnbackedClaim, "empty description")
	}
	if len(e.SupportingFactIDs) == 0 || len(e.CitationIDs) == 0 {
		return eris.Wrapf(ErrUnbackedClaim, "%q", e.Description)
	}
	return nil
}

// BudgetAnalystOutput is the funding-strength analysis
type BudgetAnalystOutput struct {
	FundingStrengthScore *int         `json:"funding_strength_score"`
	KeyAllocations       []Allocation `json:"key_allocations"`
	Confidence           float64      `json:"confidence"`
	EvidenceCount        int          `json:"evidence_count"`
	CitationIDs          []string     `json:"citation_ids"`
}

// Validate checks score bounds and allocation citations
func (o BudgetAnalystOutput) Validate() error {
	if err := validateScore("funding_strength_score", o.FundingStrengthScore); err != nil {
		return err
	}
	if err := validateCommon(o.Confidence, o.EvidenceCount); err != nil {
		return err
	}
	for _, a := range o.KeyAllocations {
		if len(a.CitationIDs) == 0 {
			return eris.Wrapf(ErrUncitedFact, "allocation %s", a.Key)
		}
	}
	return nil
}

// PolicyAnalystOutput is the zoning flexibility and proposal momentum analysis
type PolicyAnalystOutput struct {
	ZoningFlexibilityScore  *int     `json:"zoning_flexibility_score"`
	ProposalMomentumScore   *int     `json:"proposal_momentum_score"`
	ApprovalFrictionFactors []string `json:"approval_friction_factors"`
	Constraints             []string `json:"constraints"`
	Confidence              float64  `json:"confidence"`
	EvidenceCount           int      `json:"evidence_count"`
	CitationIDs             []string `json:"citation_ids"`
}

// Validate checks score bounds
func (o PolicyAnalystOutput) Validate() error {
	if err := validateScore("zoning_flexibility_score", o.ZoningFlexibilityScore); err != nil {
		return err
	}
	if err := validateScore("proposal_momentum_score", o.ProposalMomentumScore); err != nil {
		return err
	}
	return validateCommon(o.Confidence, o.EvidenceCount)
}

// UnderwriterOutput is the aggregated feasibility verdict
type UnderwriterOutput struct {
	FeasibilityScore *int           `json:"feasibility_score"`
	Verdict          Verdict        `json:"verdict"`
	PlanVariant      PlanVariant    `json:"plan_variant"`
	Pros             []EvidenceItem `json:"pros"`
	Cons             []EvidenceItem `json:"cons"`
	Constraints      []EvidenceItem `json:"constraints"`
	Confidence       float64        `json:"confidence"`
	EvidenceCount    int            `json:"evidence_count"`
	CitationIDs      []string       `json:"citation_ids"`
}

// ValidateEvidence checks that every pro, con and constraint cites facts and sources.
// It is an on-demand check; analysis code does not call it on every read.
func (o UnderwriterOutput) ValidateEvidence() error {
	for _, group := range [][]EvidenceItem{o.Pros, o.Cons, o.Constraints} {
		for _, item := range group {
			if err := item.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Validate checks the whole schema: bounds, enumerations and evidence entries
func (o UnderwriterOutput) Validate() error {
	if err := validateScore("feasibility_score", o.FeasibilityScore); err != nil {
		return err
	}
	if err := validateCommon(o.Confidence, o.EvidenceCount); err != nil {
		return err
	}
	switch o.Verdict {
	case VerdictGo, VerdictCaution, VerdictAvoid, VerdictUnknown:
	default:
		return eris.Wrapf(ErrInvalidOutput, "verdict %q", o.Verdict)
	}
	if o.PlanVariant != PlanVariantFor(o.Verdict) {
		return eris.Wrapf(ErrInvalidOutput, "plan variant %q does not match verdict %q", o.PlanVariant, o.Verdict)
	}
	return o.ValidateEvidence()
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}

func validateScore(name string, score *int) error {
	if score == nil {
		return nil
	}
	if *score < 0 || *score > 100 {
		return eris.Wrapf(ErrInvalidOutput, "%s out of range: %d", name, *score)
	}
	return nil
}

func validateCommon(confidence float64, evidenceCount int) error {
	if confidence < 0 || confidence > 1 {
		return eris.Wrapf(ErrInvalidOutput, "confidence out of range: %v", confidence)
	}
	if evidenceCount < 0 {
		return eris.Wrapf(ErrInvalidOutput, "negative evidence_count: %d", evidenceCount)
	}
	return nil
}
