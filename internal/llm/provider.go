package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/landlock/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one prompt and returns the model's text answer
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest contains the input for one completion
type CompletionRequest struct {
	// System is the system instruction
	System string

	// Prompt is the user message
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// CompletionResponse contains the model's answer
type CompletionResponse struct {
	// Text is the raw answer
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   60,
		MaxTokens: 2000,
	}
}

const systemPrompt = "You are a municipal development analyst. You answer with a single JSON object and cite only the citation and fact ids you are given."

// BuildPrompt asks for the three analyses as JSON, restricted to the run's citation ids
func BuildPrompt(regionID string, facts []model.ExtractedFact, citations []model.Citation) (string, error) {
	factsJSON, err := json.Marshal(facts)
	if err != nil {
		return "", err
	}
	citationsJSON, err := json.Marshal(citations)
	if err != nil {
		return "", err
	}

	var ids []string
	for _, c := range citations {
		ids = append(ids, c.ID)
	}

	return fmt.Sprintf(`Assess development feasibility for region %q from the extracted facts below.

CRITICAL RULES:
1. You MUST ONLY cite citation ids from this allowed list:
%s

2. Every pro, con and constraint MUST list supporting_fact_ids and citation_ids, both non-empty.
3. Scores are integers 0-100 or null when evidence is insufficient. Confidence is 0.0-1.0.
4. verdict is one of go, caution, avoid, unknown. plan_variant is A for go, B for caution, C for avoid, unknown for unknown.
5. Do not invent figures. If evidence is missing, use null and say so.

Answer with exactly one JSON object of this shape:
{"budget_analysis": {"funding_strength_score": int|null, "key_allocations": [{"key", "value", "unit", "timeframe", "citation_ids"}], "confidence", "evidence_count", "citation_ids"},
 "policy_analysis": {"zoning_flexibility_score", "proposal_momentum_score", "approval_friction_factors", "constraints", "confidence", "evidence_count", "citation_ids"},
 "underwriter_analysis": {"feasibility_score", "verdict", "plan_variant", "pros", "cons", "constraints", "confidence", "evidence_count", "citation_ids"}}

Citations:
%s

Facts:
%s
`, regionID, joinIDs(ids), citationsJSON, factsJSON), nil
}

// Helper functions

func joinIDs(ids []string) string {
	if len(ids) == 0 {
		return "(No citations available)"
	}
	var b strings.Builder
	for _, id := range ids {
		b.WriteString("\n- ")
		b.WriteString(id)
	}
	return b.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
