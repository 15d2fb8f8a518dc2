package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/landlock/internal/model"
	"github.com/ppiankov/landlock/internal/pipeline"
	"github.com/spf13/cobra"
)

// runFlags are shared by the commands that produce panels
type runFlags struct {
	outJSON     string
	outMD       string
	timeout     time.Duration
	noCache     bool
	noFooter    bool
	noStore     bool
	llmProvider string
	llmModel    string
}

func (f *runFlags) register(cmd *cobra.Command, defaultJSON string) {
	cmd.Flags().StringVar(&f.outJSON, "json", defaultJSON, "output JSON path (empty to skip)")
	cmd.Flags().StringVar(&f.outMD, "md", "", "output Markdown path (optional)")
	f.registerAnalysis(cmd)
}

func (f *runFlags) registerAnalysis(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&f.timeout, "timeout", 10*time.Minute, "overall timeout")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the fetch cache")
	cmd.Flags().BoolVar(&f.noFooter, "no-footer", false, "disable footer in Markdown reports")
	cmd.Flags().BoolVar(&f.noStore, "no-store", false, "do not persist panels to the panel store")
	cmd.Flags().StringVar(&f.llmProvider, "llm-provider", "", "analyze with an LLM provider (openai, anthropic, ollama); falls back to deterministic analysis")
	cmd.Flags().StringVar(&f.llmModel, "llm-model", "", "LLM model name")
}

// apply folds the flags into the loaded config
func (f *runFlags) apply(c *model.Config) {
	if f.noCache {
		c.Cache.Enabled = false
	}
	if f.noFooter {
		c.Output.IncludeFooter = false
	}
	if f.noStore {
		c.Data.StorePath = ""
	}
	if f.llmProvider != "" {
		c.Analysis.Mode = model.ModeLLM
		c.LLM.Provider = f.llmProvider
		switch f.llmProvider {
		case "openai":
			if c.LLM.APIKey == "" {
				c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
			}
		case "anthropic", "claude":
			if c.LLM.APIKey == "" {
				c.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
			}
		}
	}
	if f.llmModel != "" {
		c.LLM.Model = f.llmModel
	}
}

// openEnv applies the flags and wires the pipeline with a timeout context
func (f *runFlags) openEnv(cmd *cobra.Command) (context.Context, context.CancelFunc, *pipeline.Env, error) {
	f.apply(cfg)
	ctx, cancel := context.WithTimeout(cmd.Context(), f.timeout)
	env, err := pipeline.NewEnv(ctx, cfg)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	return ctx, cancel, env, nil
}

// render writes the requested outputs and prints the summary
func (f *runFlags) render(cmd *cobra.Command, result *pipeline.Result) error {
	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	if f.outJSON != "" {
		if err := renderer.RenderJSON(result.Panel, f.outJSON); err != nil {
			return err
		}
		progress("✓ Wrote %s", f.outJSON)
	}
	if f.outMD != "" {
		if err := renderer.RenderMarkdown(result, f.outMD); err != nil {
			return err
		}
		progress("✓ Wrote %s", f.outMD)
	}
	renderer.RenderSummary(cmd.OutOrStdout(), result)
	if result.RecordID != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Stored as: %s\n", result.RecordID)
	}
	return nil
}
