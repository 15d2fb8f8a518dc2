// Package scrape discovers and downloads municipal documents for a region.
package scrape

import (
	"context"
	"strings"

	"github.com/ppiankov/landlock/internal/cache"
	"github.com/ppiankov/landlock/internal/model"
	"github.com/ppiankov/landlock/internal/worker"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Scraper discovers a city's documents and stores them locally
type Scraper struct {
	discoverer *Discoverer
	downloader *Downloader
}

// New wires a scraper from its parts
func New(discoverer *Discoverer, downloader *Downloader) *Scraper {
	return &Scraper{discoverer: discoverer, downloader: downloader}
}

// NewFromConfig builds the fetcher, robots gate, discoverer and downloader from configuration
func NewFromConfig(cfg *model.Config) *Scraper {
	sc := cfg.Scrape
	fetcher := NewFetcher(sc.Timeout, sc.UserAgent, sc.MaxBodyBytes,
		WithLimiter(worker.NewLimiter(sc.RequestsPerSecond, sc.BurstSize)),
		WithCache(cache.FromConfig(cfg.Cache)),
	)

	var robots *Robots
	if sc.RespectRobots {
		robots = NewRobots(sc.UserAgent, sc.Timeout)
	}

	return New(
		NewDiscoverer(fetcher, robots, sc.MaxDepth, sc.MaxPagesPerCategory, sc.LinksPerPage),
		NewDownloader(fetcher, cfg.Data.Dir, cfg.Data.RawDir),
	)
}

// Scrape discovers sources from baseURL and stores each one under the region's raw directory
func (s *Scraper) Scrape(ctx context.Context, regionID, baseURL string, entryPoints EntryPoints) ([]model.DiscoveredSource, error) {
	logger := zap.L().With(zap.String("region", regionID))

	discovered, err := s.discoverer.Discover(ctx, baseURL, entryPoints)
	if err != nil {
		return nil, eris.Wrap(err, "scrape: discover")
	}
	logger.Info("scrape: discovery complete", zap.Int("sources", len(discovered)))

	stored := s.downloader.StoreAll(ctx, regionID, discovered)

	saved := 0
	for _, src := range stored {
		if src.FilePath != nil {
			saved++
		}
	}
	logger.Info("scrape: documents stored", zap.Int("stored", saved), zap.Int("failed", len(stored)-saved))
	return stored, nil
}

// ParseEntryPoints reads "category=path[,path...]" specs such as "budget=/budget,/finance"
func ParseEntryPoints(specs []string) (EntryPoints, error) {
	entries := EntryPoints{}
	for _, spec := range specs {
		name, paths, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, eris.Errorf("scrape: entry point %q is not category=path", spec)
		}
		category, ok := model.ParseCategory(strings.TrimSpace(name))
		if !ok {
			return nil, eris.Errorf("scrape: unknown category %q", name)
		}
		for _, p := range strings.Split(paths, ",") {
			if p = strings.TrimSpace(p); p != "" {
				entries[category] = append(entries[category], p)
			}
		}
	}
	return entries, nil
}
