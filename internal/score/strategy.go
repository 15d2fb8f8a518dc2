package score

import (
	"context"

	"github.com/ppiankov/landlock/internal/model"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrUnknownCitation is returned when an analysis cites an id outside the run's citations
var ErrUnknownCitation = eris.New("analysis cites an unknown citation")

// Analysis is the output of the three analysis stages
type Analysis struct {
	Budget      model.BudgetAnalystOutput `json:"budget_analysis"`
	Policy      model.PolicyAnalystOutput `json:"policy_analysis"`
	Underwriter model.UnderwriterOutput   `json:"underwriter_analysis"`
}

// Validate checks every output's schema and that each cited id is one of the run's citations
func (a Analysis) Validate(citations []model.Citation) error {
	if err := a.Budget.Validate(); err != nil {
		return eris.Wrap(err, "budget analysis")
	}
	if err := a.Policy.Validate(); err != nil {
		return eris.Wrap(err, "policy analysis")
	}
	if err := a.Underwriter.Validate(); err != nil {
		return eris.Wrap(err, "underwriter analysis")
	}

	allowed := model.CitationIndex(citations)
	check := func(where string, ids []string) error {
		for _, id := range ids {
			if _, ok := allowed[id]; !ok {
				return eris.Wrapf(ErrUnknownCitation, "%s: %s", where, id)
			}
		}
		return nil
	}

	if err := check("budget", a.Budget.CitationIDs); err != nil {
		return err
	}
	for _, alloc := range a.Budget.KeyAllocations {
		if err := check("allocation "+alloc.Key, alloc.CitationIDs); err != nil {
			return err
		}
	}
	if err := check("policy", a.Policy.CitationIDs); err != nil {
		return err
	}
	if err := check("underwriter", a.Underwriter.CitationIDs); err != nil {
		return err
	}
	for _, group := range [][]model.EvidenceItem{a.Underwriter.Pros, a.Underwriter.Cons, a.Underwriter.Constraints} {
		for _, item := range group {
			if err := check(item.Description, item.CitationIDs); err != nil {
				return err
			}
		}
	}
	return nil
}

// Strategy produces the three analyses for one region's facts
type Strategy interface {
	Name() string
	Analyze(ctx context.Context, facts []model.ExtractedFact, citations []model.Citation, trail *model.Trail) (Analysis, error)
}

// Deterministic runs the rule-based analysts. It never fails.
type Deterministic struct {
	budget      *BudgetAnalyst
	policy      *PolicyAnalyst
	underwriter *Underwriter
}

// NewDeterministic creates the rule-based strategy
func NewDeterministic() *Deterministic {
	return &Deterministic{
		budget:      NewBudgetAnalyst(),
		policy:      NewPolicyAnalyst(),
		underwriter: NewUnderwriter(),
	}
}

// Name returns the strategy name
func (d *Deterministic) Name() string { return "deterministic" }

// Analyze runs budget and policy analysis over the same facts, then the underwriter
func (d *Deterministic) Analyze(_ context.Context, facts []model.ExtractedFact, citations []model.Citation, trail *model.Trail) (Analysis, error) {
	budget := d.budget.Analyze(facts, citations, trail)
	policy := d.policy.Analyze(facts, citations, trail)
	underwriter := d.underwriter.Analyze(budget, policy, facts, citations, trail)

	return Analysis{Budget: budget, Policy: policy, Underwriter: underwriter}, nil
}

// Fallback tries an alternate strategy and accepts its result only if it validates.
// Any error or invalid output falls back to the deterministic analysts.
type Fallback struct {
	alternate     Strategy
	deterministic *Deterministic
}

// NewFallback wraps an alternate strategy with the deterministic fallback
func NewFallback(alternate Strategy) *Fallback {
	return &Fallback{alternate: alternate, deterministic: NewDeterministic()}
}

// Name returns the strategy name
func (f *Fallback) Name() string { return f.alternate.Name() + "+fallback" }

// Analyze runs the alternate, then the deterministic path if the alternate is rejected
func (f *Fallback) Analyze(ctx context.Context, facts []model.ExtractedFact, citations []model.Citation, trail *model.Trail) (Analysis, error) {
	analysis, err := f.alternate.Analyze(ctx, facts, citations, trail)
	if err == nil {
		err = analysis.Validate(citations)
	}
	if err == nil {
		trail.Append(model.StageStrategy, "Alternate analysis accepted", map[string]any{"strategy": f.alternate.Name()})
		return analysis, nil
	}

	zap.L().Warn("score: alternate analysis rejected, using deterministic",
		zap.String("strategy", f.alternate.Name()),
		zap.Error(err),
	)
	trail.Append(model.StageStrategy, "Alternate analysis rejected", map[string]any{
		"strategy": f.alternate.Name(),
		"error":    err.Error(),
	})

	return f.deterministic.Analyze(ctx, facts, citations, trail)
}

// Select returns the deterministic strategy unless LLM mode is configured
// and an alternate is available, in which case the alternate is guarded by Fallback.
func Select(cfg model.AnalysisConfig, alternate Strategy) Strategy {
	if cfg.Mode == model.ModeLLM && alternate != nil {
		return NewFallback(alternate)
	}
	return NewDeterministic()
}
