package pipeline

import (
	"context"

	"github.com/ppiankov/landlock/internal/extract"
	"github.com/ppiankov/landlock/internal/llm"
	"github.com/ppiankov/landlock/internal/model"
	"github.com/ppiankov/landlock/internal/registry"
	"github.com/ppiankov/landlock/internal/score"
	"github.com/ppiankov/landlock/internal/scrape"
	"github.com/ppiankov/landlock/internal/store"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Env holds the runner and the stores it was wired with, for the
// analyze, replay, batch and serve commands.
type Env struct {
	Runner   *Runner
	Registry *registry.Registry
	Store    *store.SQLiteStore // nil when panel persistence is disabled
}

// Close releases the panel store
func (e *Env) Close() error {
	if e.Store != nil {
		return e.Store.Close()
	}
	return nil
}

// NewEnv wires the extractor, strategy, registry, scraper and optional store from config.
// Callers should defer env.Close().
func NewEnv(ctx context.Context, cfg *model.Config) (*Env, error) {
	env := &Env{Registry: registry.New(cfg.Data.RegistryPath)}

	opts := []Option{
		WithRegistry(env.Registry),
		WithScraper(scrape.NewFromConfig(cfg)),
	}

	if cfg.Data.StorePath != "" {
		st, err := store.NewSQLite(ctx, cfg.Data.StorePath)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: open panel store")
		}
		env.Store = st
		opts = append(opts, WithStore(st))
	}

	env.Runner = NewRunner(extract.NewExtractorFromConfig(cfg), strategyFromConfig(cfg), opts...)
	return env, nil
}

// strategyFromConfig picks the analysis strategy. An unusable LLM setup
// degrades to the deterministic analysts with a warning.
func strategyFromConfig(cfg *model.Config) score.Strategy {
	var alternate score.Strategy
	if cfg.Analysis.Mode == model.ModeLLM {
		s, err := llm.StrategyFromConfig(cfg.LLM)
		switch {
		case err != nil:
			zap.L().Warn("pipeline: LLM provider unavailable, using deterministic analysis", zap.Error(err))
		case s == nil:
			zap.L().Warn("pipeline: analysis mode is llm but no provider is configured")
		default:
			alternate = s
		}
	}
	return score.Select(cfg.Analysis, alternate)
}
