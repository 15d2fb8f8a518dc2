// Package pipeline sequences extraction and analysis into a region panel.
package pipeline

import (
	"context"
	"time"

	"github.com/ppiankov/landlock/internal/model"
	"github.com/ppiankov/landlock/internal/score"
	"github.com/ppiankov/landlock/internal/scrape"
	"github.com/ppiankov/landlock/internal/store"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrNoSources is returned when a region has nothing in the source registry
var ErrNoSources = eris.New("pipeline: no sources found for region")

// Extractor turns stored documents into citations and facts
type Extractor interface {
	Extract(ctx context.Context, sources []model.DiscoveredSource, regionID string) ([]model.Citation, []model.ExtractedFact)
}

// Registry records and looks up discovered sources
type Registry interface {
	AddAll(sources []model.DiscoveredSource) error
	ByRegion(regionID string) ([]model.DiscoveredSource, error)
}

// Scraper discovers and downloads a city's documents
type Scraper interface {
	Scrape(ctx context.Context, regionID, baseURL string, entryPoints scrape.EntryPoints) ([]model.DiscoveredSource, error)
}

// PanelStore persists finished panels
type PanelStore interface {
	Save(ctx context.Context, panel model.RegionPanelOutput) (*store.PanelRecord, error)
}

// Result is the panel plus everything needed to audit it
type Result struct {
	Panel     model.RegionPanelOutput `json:"panel"`
	Trail     *model.Trail            `json:"trail"`
	Citations []model.Citation        `json:"citations"`
	Facts     []model.ExtractedFact   `json:"facts"`
	Strategy  string                  `json:"strategy"`
	RecordID  string                  `json:"record_id,omitempty"`
}

// Runner runs the extractor once per batch of sources and the analysis strategy once per extraction
type Runner struct {
	extractor Extractor
	strategy  score.Strategy
	registry  Registry
	scraper   Scraper
	store     PanelStore
	now       func() time.Time
}

// Option customizes a Runner
type Option func(*Runner)

// WithClock sets the clock used for panel timestamps
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithRegistry enables registry replay and source registration
func WithRegistry(reg Registry) Option {
	return func(r *Runner) { r.registry = reg }
}

// WithScraper enables the full scrape-then-analyze pipeline
func WithScraper(s Scraper) Option {
	return func(r *Runner) { r.scraper = s }
}

// WithStore persists every panel the runner produces
func WithStore(s PanelStore) Option {
	return func(r *Runner) { r.store = s }
}

// NewRunner creates a runner; a nil strategy means the deterministic analysts
func NewRunner(extractor Extractor, strategy score.Strategy, opts ...Option) *Runner {
	if strategy == nil {
		strategy = score.NewDeterministic()
	}
	r := &Runner{extractor: extractor, strategy: strategy, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run extracts facts from sources and analyzes them into a panel
func (r *Runner) Run(ctx context.Context, regionID string, sources []model.DiscoveredSource) (*Result, error) {
	if regionID == "" {
		return nil, eris.New("pipeline: region id is required")
	}
	logger := zap.L().With(zap.String("region", regionID))
	trail := model.NewTrail(regionID)

	citations, facts := r.extractor.Extract(ctx, sources, regionID)
	trail.Append(model.StageExtract, "Facts extracted", map[string]any{
		"sources":   len(sources),
		"citations": len(citations),
		"facts":     len(facts),
	})
	logger.Info("pipeline: facts extracted",
		zap.Int("sources", len(sources)),
		zap.Int("facts", len(facts)),
	)

	analysis, err := r.strategy.Analyze(ctx, facts, citations, trail)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: analyze %s", regionID)
	}

	panel := model.NewRegionPanel(regionID, analysis.Budget, analysis.Policy, analysis.Underwriter, r.now())
	if err := panel.Validate(); err != nil {
		return nil, eris.Wrapf(err, "pipeline: invalid panel for %s", regionID)
	}

	result := &Result{
		Panel:     panel,
		Trail:     trail,
		Citations: citations,
		Facts:     facts,
		Strategy:  r.strategy.Name(),
	}

	if r.store != nil {
		rec, err := r.store.Save(ctx, panel)
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: save panel for %s", regionID)
		}
		result.RecordID = rec.ID
	}

	logger.Info("pipeline: complete",
		zap.String("verdict", string(panel.UnderwriterAnalysis.Verdict)),
		zap.String("strategy", result.Strategy),
	)
	return result, nil
}

// RunFromRegistry replays a region from already downloaded sources
func (r *Runner) RunFromRegistry(ctx context.Context, regionID string) (*Result, error) {
	if r.registry == nil {
		return nil, eris.New("pipeline: no source registry configured")
	}
	sources, err := r.registry.ByRegion(regionID)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: load sources for %s", regionID)
	}
	if len(sources) == 0 {
		return nil, eris.Wrapf(ErrNoSources, "region %s", regionID)
	}
	return r.Run(ctx, regionID, sources)
}

// RunPipeline scrapes a city, registers what it found and runs the analysis
func (r *Runner) RunPipeline(ctx context.Context, regionID, baseURL string, entryPoints scrape.EntryPoints) (*Result, error) {
	if r.scraper == nil {
		return nil, eris.New("pipeline: no scraper configured")
	}

	sources, err := r.scraper.Scrape(ctx, regionID, baseURL, entryPoints)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: scrape %s", regionID)
	}

	if r.registry != nil {
		if err := r.registry.AddAll(sources); err != nil {
			return nil, eris.Wrapf(err, "pipeline: register sources for %s", regionID)
		}
	}
	return r.Run(ctx, regionID, sources)
}
