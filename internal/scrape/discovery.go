package scrape

import (
	"context"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/ppiankov/landlock/internal/model"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// EntryPoints maps each category to the pages crawling starts from.
// Relative entries are resolved against the city's base URL.
type EntryPoints map[model.SourceCategory][]string

// DefaultEntryPoints returns the conventional municipal site sections per category
func DefaultEntryPoints() EntryPoints {
	return EntryPoints{
		model.CategoryBudget:    {"/budget", "/finance"},
		model.CategoryZoning:    {"/planning", "/zoning"},
		model.CategoryProposals: {"/development", "/applications"},
		model.CategoryAnalytics: {"/statistics", "/demographics"},
	}
}

// Discoverer walks a city site from its entry points and classifies the documents it finds
type Discoverer struct {
	fetcher      *Fetcher
	robots       *Robots
	maxDepth     int
	maxPages     int
	linksPerPage int
	now          func() time.Time
}

// NewDiscoverer creates a discoverer; a nil robots gate allows every URL
func NewDiscoverer(fetcher *Fetcher, robots *Robots, maxDepth, maxPagesPerCategory, linksPerPage int) *Discoverer {
	return &Discoverer{
		fetcher:      fetcher,
		robots:       robots,
		maxDepth:     maxDepth,
		maxPages:     maxPagesPerCategory,
		linksPerPage: linksPerPage,
		now:          time.Now,
	}
}

type crawl struct {
	category model.SourceCategory
	visited  map[string]bool
	found    []model.DiscoveredSource
}

// Discover crawls every entry point, categories in their canonical order.
// Pages that fail to fetch are logged and skipped.
func (d *Discoverer) Discover(ctx context.Context, baseURL string, entryPoints EntryPoints) ([]model.DiscoveredSource, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, eris.Errorf("scrape: invalid base url %q", baseURL)
	}

	visited := make(map[string]bool)
	discovered := []model.DiscoveredSource{}

	for _, category := range model.Categories {
		c := &crawl{category: category, visited: visited}
		for _, entry := range entryPoints[category] {
			target := resolveURL(base, entry)
			if target == "" {
				zap.L().Warn("scrape: skipping unusable entry point", zap.String("entry", entry))
				continue
			}
			d.visit(ctx, c, target, 0)
		}
		discovered = append(discovered, c.found...)
	}
	return discovered, ctx.Err()
}

func (d *Discoverer) visit(ctx context.Context, c *crawl, target string, depth int) {
	if ctx.Err() != nil || depth > d.maxDepth || c.visited[target] {
		return
	}
	if d.maxPages > 0 && len(c.found) >= d.maxPages {
		return
	}
	c.visited[target] = true

	if d.robots != nil {
		allowed, delay := d.robots.Allowed(ctx, target)
		if !allowed {
			zap.L().Debug("scrape: disallowed by robots.txt", zap.String("url", target))
			return
		}
		d.fetcher.Limiter().ApplyCrawlDelay(target, delay)
	}

	page, err := d.fetcher.Fetch(ctx, target)
	if err != nil {
		zap.L().Warn("scrape: discovery fetch failed",
			zap.String("url", target),
			zap.String("category", string(c.category)),
			zap.Error(err),
		)
		return
	}

	docType, ok := classify(page.ContentType, target)
	if !ok {
		return
	}

	source := model.DiscoveredSource{
		Title:        titleFromURL(target),
		URI:          target,
		Category:     c.category,
		DocumentType: docType,
		RetrievedAt:  d.now().UTC(),
	}

	if docType != model.DocumentHTML {
		c.found = append(c.found, source)
		return
	}

	parsed, err := parseHTML(page.Body, page.FinalURL)
	if err != nil {
		zap.L().Warn("scrape: unparseable html", zap.String("url", target), zap.Error(err))
		c.found = append(c.found, source)
		return
	}
	if parsed.Title != "" {
		source.Title = parsed.Title
	} else {
		source.Title = target
	}
	c.found = append(c.found, source)

	for _, link := range relevantLinks(parsed.Links, page.FinalURL, c.category, d.linksPerPage) {
		d.visit(ctx, c, link, depth+1)
	}
}

// classify maps a response to a document type; unsupported content is dropped
func classify(contentType, rawURL string) (model.DocumentType, bool) {
	ct := strings.ToLower(contentType)
	p := strings.ToLower(rawURL)
	if u, err := url.Parse(rawURL); err == nil {
		p = strings.ToLower(u.Path)
	}

	switch {
	case strings.Contains(ct, "pdf") || strings.HasSuffix(p, ".pdf"):
		return model.DocumentPDF, true
	case strings.Contains(ct, "rss") || strings.Contains(ct, "atom") || strings.HasSuffix(p, ".rss"):
		return model.DocumentRSS, true
	case strings.Contains(ct, "json") || strings.HasSuffix(p, ".json"):
		return model.DocumentAPI, true
	case strings.Contains(ct, "html") || strings.HasSuffix(p, ".html") || strings.HasSuffix(p, ".htm"):
		return model.DocumentHTML, true
	case strings.Contains(ct, "xml") || strings.HasSuffix(p, ".xml"):
		return model.DocumentRSS, true
	}
	return "", false
}

// titleFromURL turns /docs/capital_budget_2024.pdf into "Capital Budget 2024"
func titleFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	name, err := url.PathUnescape(path.Base(u.Path))
	if err != nil || name == "" || name == "/" || name == "." {
		return u.Host
	}
	name = strings.TrimSuffix(name, path.Ext(name))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return cases.Title(language.English).String(strings.Join(strings.Fields(name), " "))
}
