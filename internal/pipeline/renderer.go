package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ppiankov/landlock/internal/extract"
	"github.com/ppiankov/landlock/internal/model"
	"github.com/rotisserie/eris"
)

// Renderer writes results as JSON, Markdown and a terminal summary
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes v as indented JSON, creating parent directories
func (r *Renderer) RenderJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "render: marshal json")
	}
	return writeFile(path, append(data, '\n'))
}

// RenderMarkdown writes a human-readable report
func (r *Renderer) RenderMarkdown(result *Result, path string) error {
	return writeFile(path, []byte(r.Markdown(result)))
}

// Markdown formats a result as a Markdown report
func (r *Renderer) Markdown(result *Result) string {
	p := result.Panel
	uw := p.UnderwriterAnalysis
	var b strings.Builder

	fmt.Fprintf(&b, "# Development feasibility: %s\n\n", p.RegionID)
	fmt.Fprintf(&b, "Generated %s using %s analysis.\n\n", p.GeneratedAt, result.Strategy)

	fmt.Fprintf(&b, "## Verdict: %s (plan %s)\n\n", strings.ToUpper(string(uw.Verdict)), uw.PlanVariant)
	fmt.Fprintf(&b, "- Feasibility score: %s\n", scoreText(uw.FeasibilityScore))
	fmt.Fprintf(&b, "- Confidence: %.2f\n", uw.Confidence)
	fmt.Fprintf(&b, "- Evidence: %d facts\n\n", uw.EvidenceCount)
	writeItems(&b, "Pros", uw.Pros)
	writeItems(&b, "Cons", uw.Cons)
	writeItems(&b, "Constraints", uw.Constraints)

	budget := p.BudgetAnalysis
	b.WriteString("## Budget\n\n")
	fmt.Fprintf(&b, "- Funding strength: %s\n", scoreText(budget.FundingStrengthScore))
	fmt.Fprintf(&b, "- Confidence: %.2f\n\n", budget.Confidence)
	if len(budget.KeyAllocations) > 0 {
		b.WriteString("| Key | Mention | Estimate | Timeframe | Sources |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, a := range budget.KeyAllocations {
			fmt.Fprintf(&b, "| %s | %v | %s | %s | %s |\n",
				a.Key, a.Value, amountText(a.Value, a.Unit), deref(a.Timeframe, "-"), strings.Join(a.CitationIDs, ", "))
		}
		b.WriteString("\n")
	}

	policy := p.PolicyAnalysis
	b.WriteString("## Policy\n\n")
	fmt.Fprintf(&b, "- Zoning flexibility: %s\n", scoreText(policy.ZoningFlexibilityScore))
	fmt.Fprintf(&b, "- Proposal momentum: %s\n", scoreText(policy.ProposalMomentumScore))
	fmt.Fprintf(&b, "- Confidence: %.2f\n\n", policy.Confidence)
	writeList(&b, "Approval friction", policy.ApprovalFrictionFactors)
	writeList(&b, "Zoning constraints", policy.Constraints)

	if len(result.Citations) > 0 {
		b.WriteString("## Sources\n\n")
		for _, c := range result.Citations {
			fmt.Fprintf(&b, "- [%s] %s (%s), retrieved %s\n", c.ID, c.Title, c.URI, c.RetrievedAt.UTC().Format("2006-01-02"))
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\n_Scores are derived only from facts extracted from the cited municipal documents._\n")
	}
	return b.String()
}

// RenderSummary prints a short verdict block
func (r *Renderer) RenderSummary(w io.Writer, result *Result) {
	p := result.Panel
	fmt.Fprintf(w, "\nRegion: %s\n", p.RegionID)
	fmt.Fprintf(w, "Verdict: %s (plan %s)\n", strings.ToUpper(string(p.UnderwriterAnalysis.Verdict)), p.UnderwriterAnalysis.PlanVariant)
	fmt.Fprintf(w, "Feasibility: %s  Funding: %s  Zoning: %s  Momentum: %s\n",
		scoreText(p.UnderwriterAnalysis.FeasibilityScore),
		scoreText(p.BudgetAnalysis.FundingStrengthScore),
		scoreText(p.PolicyAnalysis.ZoningFlexibilityScore),
		scoreText(p.PolicyAnalysis.ProposalMomentumScore),
	)
	fmt.Fprintf(w, "Facts: %d  Citations: %d  Strategy: %s\n", len(result.Facts), len(result.Citations), result.Strategy)
}

func writeItems(b *strings.Builder, title string, items []model.EvidenceItem) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "### %s\n\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "- %s [%s]\n", it.Description, strings.Join(it.CitationIDs, ", "))
	}
	b.WriteString("\n")
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "### %s\n\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}

func scoreText(score *int) string {
	if score == nil {
		return "n/a"
	}
	return fmt.Sprintf("%d/100", *score)
}

// amountText shows the parsed estimate of a budget mention; the stored value stays untouched
func amountText(value any, unit string) string {
	var amount float64
	switch v := value.(type) {
	case string:
		parsed, ok := extract.ParseAmount(v)
		if !ok {
			return "-"
		}
		amount = parsed
	case float64:
		amount = v
	case int:
		amount = float64(v)
	default:
		return "-"
	}
	return strings.TrimSpace("$" + humanize.CommafWithDigits(amount, 0) + " " + unit)
}

func deref(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return eris.Wrapf(err, "render: create %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return eris.Wrapf(err, "render: write %s", path)
	}
	return nil
}
