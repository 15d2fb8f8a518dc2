package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/landlock/internal/extract"
	"github.com/ppiankov/landlock/internal/model"
	"github.com/ppiankov/landlock/internal/registry"
	"github.com/ppiankov/landlock/internal/score"
	"github.com/ppiankov/landlock/internal/scrape"
	"github.com/ppiankov/landlock/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

// cityFixture writes two documents for region "springfield" and returns their sources
func cityFixture(t *testing.T) (string, []model.DiscoveredSource) {
	t.Helper()
	dataDir := t.TempDir()
	files := map[string]string{
		"raw/springfield/budget.html": `<html><body><h1>Capital Budget FY 2024</h1>
<p>Council approved $2.5 million for transit, $400,000 for parks and $1.2 billion for housing.</p></body></html>`,
		"raw/springfield/zoning.html": `<html><body><p>Zone RM-4 permits residential and mixed-use buildings.
Maximum height: 12 m. Application DP-2024-001 is pending.</p></body></html>`,
	}
	for rel, content := range files {
		path := filepath.Join(dataDir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	retrieved := time.Date(2024, 6, 30, 8, 0, 0, 0, time.UTC)
	return dataDir, []model.DiscoveredSource{
		{Title: "Capital Budget", URI: "https://springfield.example/budget", Category: model.CategoryBudget,
			DocumentType: model.DocumentHTML, RetrievedAt: retrieved, FilePath: strPtr("raw/springfield/budget.html")},
		{Title: "Zoning", URI: "https://springfield.example/zoning", Category: model.CategoryZoning,
			DocumentType: model.DocumentHTML, RetrievedAt: retrieved, FilePath: strPtr("raw/springfield/zoning.html")},
	}
}

type failingStrategy struct{}

func (failingStrategy) Name() string { return "failing" }

func (failingStrategy) Analyze(context.Context, []model.ExtractedFact, []model.Citation, *model.Trail) (score.Analysis, error) {
	return score.Analysis{}, errors.New("boom")
}

type memoryStore struct {
	saved []model.RegionPanelOutput
	err   error
}

func (m *memoryStore) Save(_ context.Context, panel model.RegionPanelOutput) (*store.PanelRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.saved = append(m.saved, panel)
	return &store.PanelRecord{ID: "rec-1", RegionID: panel.RegionID, Panel: panel}, nil
}

type fakeScraper struct {
	sources []model.DiscoveredSource
	err     error
	gotURL  string
}

func (f *fakeScraper) Scrape(_ context.Context, _, baseURL string, _ scrape.EntryPoints) ([]model.DiscoveredSource, error) {
	f.gotURL = baseURL
	return f.sources, f.err
}

func TestRunner_Run(t *testing.T) {
	dataDir, sources := cityFixture(t)
	st := &memoryStore{}
	runner := NewRunner(extract.NewExtractor(dataDir), nil,
		WithClock(func() time.Time { return fixedNow }),
		WithStore(st),
	)

	result, err := runner.Run(t.Context(), "springfield", sources)
	require.NoError(t, err)

	panel := result.Panel
	assert.Equal(t, "springfield", panel.RegionID)
	assert.Equal(t, "2024-07-01T12:00:00Z", panel.GeneratedAt)
	require.NoError(t, panel.Validate())
	assert.NotNil(t, panel.BudgetAnalysis.FundingStrengthScore)
	assert.NotNil(t, panel.PolicyAnalysis.ZoningFlexibilityScore)
	assert.NotEqual(t, model.VerdictUnknown, panel.UnderwriterAnalysis.Verdict)

	require.Len(t, result.Citations, 2)
	assert.NotEmpty(t, result.Facts)
	assert.Equal(t, "deterministic", result.Strategy)
	assert.Equal(t, model.StageExtract, result.Trail.Events[0].Stage)

	require.Len(t, st.saved, 1)
	assert.Equal(t, "rec-1", result.RecordID)
}

func TestRunner_RunIsReproducible(t *testing.T) {
	dataDir, sources := cityFixture(t)
	runner := NewRunner(extract.NewExtractor(dataDir), score.NewDeterministic(), WithClock(func() time.Time { return fixedNow }))

	first, err := runner.Run(t.Context(), "springfield", sources)
	require.NoError(t, err)
	second, err := runner.Run(t.Context(), "springfield", sources)
	require.NoError(t, err)

	assert.Equal(t, first.Panel, second.Panel)
}

func TestRunner_NoSourcesStillProducesPanel(t *testing.T) {
	runner := NewRunner(extract.NewExtractor(t.TempDir()), nil, WithClock(func() time.Time { return fixedNow }))

	result, err := runner.Run(t.Context(), "empty", nil)
	require.NoError(t, err)
	assert.Nil(t, result.Panel.BudgetAnalysis.FundingStrengthScore)
	assert.Equal(t, model.VerdictUnknown, result.Panel.UnderwriterAnalysis.Verdict)
}

func TestRunner_Errors(t *testing.T) {
	dataDir, sources := cityFixture(t)

	_, err := NewRunner(extract.NewExtractor(dataDir), nil).Run(t.Context(), "", sources)
	assert.Error(t, err)

	_, err = NewRunner(extract.NewExtractor(dataDir), failingStrategy{}).Run(t.Context(), "springfield", sources)
	assert.ErrorContains(t, err, "boom")

	_, err = NewRunner(extract.NewExtractor(dataDir), nil, WithStore(&memoryStore{err: errors.New("disk full")})).
		Run(t.Context(), "springfield", sources)
	assert.ErrorContains(t, err, "disk full")

	_, err = NewRunner(extract.NewExtractor(dataDir), nil).RunFromRegistry(t.Context(), "springfield")
	assert.Error(t, err)

	_, err = NewRunner(extract.NewExtractor(dataDir), nil).RunPipeline(t.Context(), "springfield", "https://x.example", nil)
	assert.Error(t, err)
}

func TestRunner_RunFromRegistry(t *testing.T) {
	dataDir, sources := cityFixture(t)
	reg := registry.New(filepath.Join(dataDir, "sources.jsonl"))
	require.NoError(t, reg.AddAll(sources))

	runner := NewRunner(extract.NewExtractor(dataDir), nil, WithRegistry(reg), WithClock(func() time.Time { return fixedNow }))

	result, err := runner.RunFromRegistry(t.Context(), "springfield")
	require.NoError(t, err)
	assert.Len(t, result.Citations, 2)

	_, err = runner.RunFromRegistry(t.Context(), "shelbyville")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoSources)
}

func TestRunner_RunPipeline(t *testing.T) {
	dataDir, sources := cityFixture(t)
	reg := registry.New(filepath.Join(dataDir, "sources.jsonl"))
	scraper := &fakeScraper{sources: sources}

	runner := NewRunner(extract.NewExtractor(dataDir), nil, WithRegistry(reg), WithScraper(scraper))

	result, err := runner.RunPipeline(t.Context(), "springfield", "https://springfield.example", scrape.EntryPoints{
		model.CategoryBudget: {"/budget"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://springfield.example", scraper.gotURL)
	assert.Len(t, result.Citations, 2)

	registered, err := reg.ByRegion("springfield")
	require.NoError(t, err)
	assert.Len(t, registered, 2)

	scraper.err = errors.New("site down")
	_, err = runner.RunPipeline(t.Context(), "springfield", "https://springfield.example", nil)
	assert.ErrorContains(t, err, "site down")
}

func TestRunner_RepeatedScrapesReplayOnce(t *testing.T) {
	dataDir, sources := cityFixture(t)
	reg := registry.New(filepath.Join(dataDir, "sources.jsonl"))
	runner := NewRunner(extract.NewExtractor(dataDir), nil,
		WithRegistry(reg), WithScraper(&fakeScraper{sources: sources}))

	first, err := runner.RunPipeline(t.Context(), "springfield", "https://springfield.example", nil)
	require.NoError(t, err)
	_, err = runner.RunPipeline(t.Context(), "springfield", "https://springfield.example", nil)
	require.NoError(t, err)

	replay, err := runner.RunFromRegistry(t.Context(), "springfield")
	require.NoError(t, err)
	assert.Len(t, replay.Citations, len(sources))
	assert.Equal(t, first.Panel.BudgetAnalysis.FundingStrengthScore, replay.Panel.BudgetAnalysis.FundingStrengthScore)
}
