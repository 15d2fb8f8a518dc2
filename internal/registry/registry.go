// Package registry persists discovered sources as an append-only JSON Lines file.
package registry

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ppiankov/landlock/internal/model"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Registry is a JSONL file with one DiscoveredSource per line
type Registry struct {
	path string
	mu   sync.Mutex
}

// New creates a registry backed by path. The file is created on first Add.
func New(path string) *Registry {
	return &Registry{path: path}
}

// Path returns the backing file
func (r *Registry) Path() string {
	return r.path
}

// Add appends one source
func (r *Registry) Add(source model.DiscoveredSource) error {
	return r.AddAll([]model.DiscoveredSource{source})
}

// AddAll appends sources in order
func (r *Registry) AddAll(sources []model.DiscoveredSource) error {
	if len(sources) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return eris.Wrap(err, "registry: create directory")
	}

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return eris.Wrap(err, "registry: open")
	}
	defer func() { _ = f.Close() }()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, s := range sources {
		if err := enc.Encode(s); err != nil {
			return eris.Wrapf(err, "registry: encode %s", s.URI)
		}
	}
	if err := w.Flush(); err != nil {
		return eris.Wrap(err, "registry: write")
	}
	return nil
}

// All returns every source, one per URI, in order of first registration.
// A URI registered again keeps its position but takes the newest entry.
// A missing file is an empty registry.
func (r *Registry) All() ([]model.DiscoveredSource, error) {
	return r.filter(func(model.DiscoveredSource) bool { return true })
}

// ByRegion returns sources whose file sits directly in a directory named after
// the region, as the scraper lays them out (<raw dir>/<region>/<file>)
func (r *Registry) ByRegion(regionID string) ([]model.DiscoveredSource, error) {
	return r.filter(func(s model.DiscoveredSource) bool {
		return storedUnder(s, regionID)
	})
}

// ByCategory returns a region's sources of one category
func (r *Registry) ByCategory(category model.SourceCategory, regionID string) ([]model.DiscoveredSource, error) {
	return r.filter(func(s model.DiscoveredSource) bool {
		return s.Category == category && storedUnder(s, regionID)
	})
}

func storedUnder(s model.DiscoveredSource, regionID string) bool {
	if s.FilePath == nil || regionID == "" {
		return false
	}
	return filepath.Base(filepath.Dir(filepath.FromSlash(*s.FilePath))) == regionID
}

func (r *Registry) filter(keep func(model.DiscoveredSource) bool) ([]model.DiscoveredSource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sources := []model.DiscoveredSource{}
	index := make(map[string]int)

	f, err := os.Open(r.path)
	if os.IsNotExist(err) {
		return sources, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "registry: open")
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var s model.DiscoveredSource
		if err := json.Unmarshal([]byte(line), &s); err != nil {
			zap.L().Warn("registry: skipping malformed line",
				zap.String("path", r.path),
				zap.Int("line", lineNo),
				zap.Error(err),
			)
			continue
		}
		if !keep(s) {
			continue
		}
		if i, seen := index[s.URI]; seen {
			sources[i] = s
			continue
		}
		index[s.URI] = len(sources)
		sources = append(sources, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "registry: read")
	}
	return sources, nil
}
