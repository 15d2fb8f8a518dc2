package model

// Stage names the pipeline step that appended a trail event
type Stage string

const (
	StageExtract     Stage = "extract"
	StageBudget      Stage = "budget_analyst"
	StagePolicy      Stage = "policy_analyst"
	StageUnderwriter Stage = "underwriter"
	StageStrategy    Stage = "strategy"
)

// Event is one diagnostic record with transparent scoring data
type Event struct {
	Stage   Stage          `json:"stage"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// Trail is an append-only audit log threaded through the analysis stages.
// Stages only write to it; no stage reads it back to decide anything.
// All methods are safe on a nil receiver so callers may opt out of auditing.
type Trail struct {
	RegionID     string         `json:"region_id"`
	Events       []Event        `json:"events"`
	Scores       map[string]int `json:"scores"`
	Constraints  []string       `json:"constraints"`
	PlanVariants []string       `json:"plan_variants"`
}

// NewTrail creates an empty trail for a region
func NewTrail(regionID string) *Trail {
	return &Trail{
		RegionID: regionID,
		Events:   []Event{},
		Scores:   map[string]int{},
	}
}

// Append records an event
func (t *Trail) Append(stage Stage, message string, data map[string]any) {
	if t == nil {
		return
	}
	t.Events = append(t.Events, Event{Stage: stage, Message: message, Data: data})
}

// RecordScore records a named score when it is present
func (t *Trail) RecordScore(name string, score *int) {
	if t == nil || score == nil {
		return
	}
	t.Scores[name] = *score
}

// AddConstraint records a constraint once
func (t *Trail) AddConstraint(c string) {
	if t == nil {
		return
	}
	for _, existing := range t.Constraints {
		if existing == c {
			return
		}
	}
	t.Constraints = append(t.Constraints, c)
}

// AddPlanVariant records a plan variant once, ignoring unknown
func (t *Trail) AddPlanVariant(p PlanVariant) {
	if t == nil || p == PlanUnknown {
		return
	}
	for _, existing := range t.PlanVariants {
		if existing == string(p) {
			return
		}
	}
	t.PlanVariants = append(t.PlanVariants, string(p))
}
