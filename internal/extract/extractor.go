package extract

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/ppiankov/landlock/internal/model"
	"go.uber.org/zap"
)

// Extractor turns downloaded source documents into citations and cited facts
type Extractor struct {
	dataDir  string
	decoders *Registry
	now      func() time.Time
}

// Option customizes an Extractor
type Option func(*extractorOptions)

type extractorOptions struct {
	pdf      PageReader
	maxItems int
	decoders []Decoder
	now      func() time.Time
}

// WithPDFExtractor replaces the pdftotext subprocess
func WithPDFExtractor(pdf PageReader) Option {
	return func(o *extractorOptions) { o.pdf = pdf }
}

// WithMaxFeedItems bounds the feed entries scanned per document
func WithMaxFeedItems(n int) Option {
	return func(o *extractorOptions) { o.maxItems = n }
}

// WithDecoder registers an extra decoder ahead of the built-in ones
func WithDecoder(d Decoder) Option {
	return func(o *extractorOptions) { o.decoders = append(o.decoders, d) }
}

// WithClock sets the clock that stamps facts from sources without a retrieval time
func WithClock(now func() time.Time) Option {
	return func(o *extractorOptions) { o.now = now }
}

// NewExtractor creates an extractor that resolves source file paths against dataDir
func NewExtractor(dataDir string, opts ...Option) *Extractor {
	o := &extractorOptions{maxItems: DefaultMaxFeedItems, now: time.Now}
	for _, opt := range opts {
		opt(o)
	}

	registry := &Registry{}
	for _, d := range o.decoders {
		registry.Register(d)
	}
	builtin := NewRegistry(o.pdf, o.maxItems)
	for _, d := range builtin.decoders {
		registry.Register(d)
	}

	return &Extractor{dataDir: dataDir, decoders: registry, now: o.now}
}

// NewExtractorFromConfig builds an extractor from the data and extract config sections
func NewExtractorFromConfig(cfg *model.Config) *Extractor {
	return NewExtractor(cfg.Data.Dir,
		WithPDFExtractor(NewPoppler(cfg.Extract.PdfToTextPath)),
		WithMaxFeedItems(cfg.Extract.MaxFeedItems),
	)
}

// Extract emits one citation per source, numbered cite_0001 upward in input order,
// and the facts found in each source's stored file. A source whose file is missing
// or unreadable still gets its citation but contributes no facts. Facts are stamped
// with their source's retrieval time, so the same sources always give the same facts.
func (e *Extractor) Extract(ctx context.Context, sources []model.DiscoveredSource, regionID string) ([]model.Citation, []model.ExtractedFact) {
	log := zap.L().With(zap.String("region", regionID))

	citations := make([]model.Citation, 0, len(sources))
	var facts []model.ExtractedFact

	for i, src := range sources {
		cite := model.Citation{
			ID:          model.CitationID(i + 1),
			Title:       src.Title,
			URI:         src.URI,
			RetrievedAt: src.RetrievedAt,
		}
		citations = append(citations, cite)

		sourceFacts, err := e.extractSource(ctx, src, regionID, cite.ID)
		if err != nil {
			log.Warn("extract: source skipped",
				zap.String("citation", cite.ID),
				zap.String("uri", src.URI),
				zap.Error(err),
			)
			continue
		}

		log.Debug("extract: source scanned",
			zap.String("citation", cite.ID),
			zap.String("category", string(src.Category)),
			zap.Int("facts", len(sourceFacts)),
		)
		facts = append(facts, sourceFacts...)
	}

	return citations, facts
}

func (e *Extractor) extractSource(ctx context.Context, src model.DiscoveredSource, regionID, citationID string) ([]model.ExtractedFact, error) {
	if src.FilePath == nil || *src.FilePath == "" {
		return nil, nil
	}

	path := *src.FilePath
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.dataDir, path)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	decoder := e.decoders.FindDecoder(src.DocumentType)
	if decoder == nil {
		zap.L().Debug("extract: no decoder", zap.String("document_type", string(src.DocumentType)))
		return nil, nil
	}

	text, err := decoder.Decode(ctx, path)
	if err != nil {
		return nil, err
	}

	stamp := model.WithExtractedAt(e.stampFor(src))
	facts := FactsForCategory(text, src.Category, regionID, citationID, stamp)
	if src.DocumentType == model.DocumentAPI {
		facts = append(facts, StructuredFacts(text, src.Category, regionID, citationID, stamp)...)
	}
	return facts, nil
}

func (e *Extractor) stampFor(src model.DiscoveredSource) time.Time {
	if !src.RetrievedAt.IsZero() {
		return src.RetrievedAt.UTC()
	}
	return e.now().UTC()
}

// FactsForCategory runs the matcher routine for a category over decoded text.
// Zoning text that mentions permits or applications is also scanned for proposals.
func FactsForCategory(text string, category model.SourceCategory, regionID, citationID string, opts ...model.FactOption) []model.ExtractedFact {
	switch category {
	case model.CategoryBudget:
		return BudgetFacts(text, regionID, citationID, opts...)
	case model.CategoryZoning:
		facts := ZoningFacts(text, regionID, citationID, opts...)
		if mentionsProposals(text) {
			facts = append(facts, ProposalFacts(text, regionID, citationID, opts...)...)
		}
		return facts
	case model.CategoryProposals:
		return ProposalFacts(text, regionID, citationID, opts...)
	case model.CategoryAnalytics:
		return DemographicFacts(text, regionID, citationID, opts...)
	default:
		return nil
	}
}
