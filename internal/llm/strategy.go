package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/ppiankov/landlock/internal/model"
	"github.com/ppiankov/landlock/internal/score"
	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
)

// ErrUnknownFact is returned when an answer cites a fact id that was not in the prompt
var ErrUnknownFact = eris.New("llm: answer cites an unknown fact")

// ErrMalformedAnswer is returned when the answer is not the expected JSON object
var ErrMalformedAnswer = eris.New("llm: malformed answer")

// Strategy asks a provider for the three analyses. It is meant to run behind
// score.Fallback, which rejects any answer that does not validate.
type Strategy struct {
	provider  Provider
	maxTokens int
}

// NewStrategy creates an LLM analysis strategy
func NewStrategy(provider Provider, maxTokens int) *Strategy {
	return &Strategy{provider: provider, maxTokens: maxTokens}
}

// Name returns the strategy name
func (s *Strategy) Name() string {
	return "llm:" + s.provider.Name()
}

// Analyze prompts the provider with the region's facts and parses its answer
func (s *Strategy) Analyze(ctx context.Context, facts []model.ExtractedFact, citations []model.Citation, trail *model.Trail) (score.Analysis, error) {
	if len(facts) == 0 {
		return score.Analysis{}, eris.New("llm: no facts to analyze")
	}

	prompt, err := BuildPrompt(facts[0].RegionID, facts, citations)
	if err != nil {
		return score.Analysis{}, eris.Wrap(err, "llm: build prompt")
	}

	resp, err := s.provider.Complete(ctx, CompletionRequest{
		System:    systemPrompt,
		Prompt:    prompt,
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		return score.Analysis{}, err
	}

	trail.Append(model.StageStrategy, "LLM answer received", map[string]any{
		"provider":    s.provider.Name(),
		"model":       resp.Model,
		"tokens_used": resp.TokensUsed,
	})

	analysis, err := ParseAnalysis(resp.Text)
	if err != nil {
		return score.Analysis{}, err
	}
	if err := checkFactIDs(analysis, facts); err != nil {
		return score.Analysis{}, err
	}
	return analysis, nil
}

// ParseAnalysis decodes a model answer, tolerating code fences and surrounding prose
func ParseAnalysis(text string) (score.Analysis, error) {
	payload := jsonObject(text)
	if !gjson.Valid(payload) {
		return score.Analysis{}, eris.Wrap(ErrMalformedAnswer, "not valid JSON")
	}
	for _, key := range []string{"budget_analysis", "policy_analysis", "underwriter_analysis"} {
		if !gjson.Get(payload, key).IsObject() {
			return score.Analysis{}, eris.Wrapf(ErrMalformedAnswer, "missing %s", key)
		}
	}

	var analysis score.Analysis
	if err := json.Unmarshal([]byte(payload), &analysis); err != nil {
		return score.Analysis{}, eris.Wrap(ErrMalformedAnswer, err.Error())
	}
	return analysis, nil
}

func jsonObject(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return text
	}
	return text[start : end+1]
}

func checkFactIDs(a score.Analysis, facts []model.ExtractedFact) error {
	known := make(map[string]struct{}, len(facts))
	for _, f := range facts {
		known[f.ID] = struct{}{}
	}
	for _, group := range [][]model.EvidenceItem{a.Underwriter.Pros, a.Underwriter.Cons, a.Underwriter.Constraints} {
		for _, item := range group {
			for _, id := range item.SupportingFactIDs {
				if _, ok := known[id]; !ok {
					return eris.Wrapf(ErrUnknownFact, "%s: %s", item.Description, id)
				}
			}
		}
	}
	return nil
}
