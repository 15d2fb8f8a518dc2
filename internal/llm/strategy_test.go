package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ppiankov/landlock/internal/model"
	"github.com/ppiankov/landlock/internal/score"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	text    string
	err     error
	lastReq CompletionRequest
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) IsAvailable(context.Context) bool { return true }

func (p *stubProvider) Complete(_ context.Context, req CompletionRequest) (*CompletionResponse, error) {
	p.lastReq = req
	if p.err != nil {
		return nil, p.err
	}
	return &CompletionResponse{Text: p.text, Model: "stub-1", TokensUsed: 42}, nil
}

const validAnswer = `{
  "budget_analysis": {"funding_strength_score": 80, "key_allocations": [], "confidence": 0.6, "evidence_count": 1, "citation_ids": ["cite_0001"]},
  "policy_analysis": {"zoning_flexibility_score": null, "proposal_momentum_score": null, "approval_friction_factors": [], "constraints": [], "confidence": 0.0, "evidence_count": 0, "citation_ids": []},
  "underwriter_analysis": {"feasibility_score": 32, "verdict": "avoid", "plan_variant": "C",
    "pros": [{"description": "Funding", "supporting_fact_ids": ["fact_r_0001_budget_0001"], "citation_ids": ["cite_0001"]}],
    "cons": [], "constraints": [], "confidence": 0.6, "evidence_count": 1, "citation_ids": ["cite_0001"]}
}`

func strategyInputs(t *testing.T) ([]model.ExtractedFact, []model.Citation) {
	t.Helper()
	fact, err := model.NewFact("fact_r_0001_budget_0001", "r", model.FactBudget, "budget_mention_1", 5e6, []string{"cite_0001"})
	require.NoError(t, err)
	citations := []model.Citation{{ID: "cite_0001", Title: "Budget", URI: "budget.html", RetrievedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}}
	return []model.ExtractedFact{fact}, citations
}

func TestStrategy_Analyze_Success(t *testing.T) {
	facts, citations := strategyInputs(t)
	provider := &stubProvider{text: "```json\n" + validAnswer + "\n```"}
	trail := model.NewTrail("r")

	got, err := NewStrategy(provider, 900).Analyze(t.Context(), facts, citations, trail)
	require.NoError(t, err)

	assert.Equal(t, model.IntPtr(80), got.Budget.FundingStrengthScore)
	assert.Nil(t, got.Policy.ZoningFlexibilityScore)
	assert.Equal(t, model.VerdictAvoid, got.Underwriter.Verdict)
	require.NoError(t, got.Validate(citations))

	assert.Equal(t, 900, provider.lastReq.MaxTokens)
	assert.Equal(t, systemPrompt, provider.lastReq.System)
	assert.Contains(t, provider.lastReq.Prompt, "- cite_0001")
	assert.Contains(t, provider.lastReq.Prompt, "fact_r_0001_budget_0001")

	require.Len(t, trail.Events, 1)
	assert.Equal(t, 42, trail.Events[0].Data["tokens_used"])
}

func TestStrategy_Analyze_Errors(t *testing.T) {
	facts, citations := strategyInputs(t)

	_, err := NewStrategy(&stubProvider{}, 0).Analyze(t.Context(), nil, citations, nil)
	require.Error(t, err)

	_, err = NewStrategy(&stubProvider{err: errors.New("timeout")}, 0).Analyze(t.Context(), facts, citations, nil)
	require.Error(t, err)

	_, err = NewStrategy(&stubProvider{text: "I cannot help with that."}, 0).Analyze(t.Context(), facts, citations, nil)
	assert.True(t, eris.Is(err, ErrMalformedAnswer))

	unknownFact := `{"budget_analysis": {}, "policy_analysis": {}, "underwriter_analysis": {"pros": [{"description": "x", "supporting_fact_ids": ["fact_made_up"], "citation_ids": ["cite_0001"]}]}}`
	_, err = NewStrategy(&stubProvider{text: unknownFact}, 0).Analyze(t.Context(), facts, citations, nil)
	assert.True(t, eris.Is(err, ErrUnknownFact))
}

func TestParseAnalysis(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"bare object", validAnswer, false},
		{"fenced", "```\n" + validAnswer + "\n```", false},
		{"with prose", "Here is the analysis:\n" + validAnswer + "\nLet me know.", false},
		{"missing section", `{"budget_analysis": {}, "policy_analysis": {}}`, true},
		{"section not an object", `{"budget_analysis": [], "policy_analysis": {}, "underwriter_analysis": {}}`, true},
		{"truncated", validAnswer[:120], true},
		{"wrong types", `{"budget_analysis": {"confidence": "high"}, "policy_analysis": {}, "underwriter_analysis": {}}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAnalysis(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStrategy_BehindFallback(t *testing.T) {
	facts, citations := strategyInputs(t)
	citesUnknown := `{"budget_analysis": {"confidence": 0.5, "citation_ids": ["cite_0099"]}, "policy_analysis": {}, "underwriter_analysis": {"verdict": "unknown", "plan_variant": "unknown"}}`

	strategy := score.NewFallback(NewStrategy(&stubProvider{text: citesUnknown}, 0))
	got, err := strategy.Analyze(t.Context(), facts, citations, nil)
	require.NoError(t, err)

	want, err := score.NewDeterministic().Analyze(t.Context(), facts, citations, nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, "llm:stub+fallback", strategy.Name())
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(Config{})
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = NewProvider(Config{Provider: "Ollama", Model: "mistral"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())

	p, err = NewProvider(Config{Provider: "claude", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.Name())

	_, err = NewProvider(Config{Provider: "gemini"})
	require.Error(t, err)

	s, err := StrategyFromConfig(model.LLMConfig{})
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = StrategyFromConfig(model.LLMConfig{Provider: "openai", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "llm:openai", s.Name())
}
