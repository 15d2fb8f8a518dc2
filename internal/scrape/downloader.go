package scrape

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ppiankov/landlock/internal/model"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const maxFilenameTitle = 100

// Downloader stores discovered documents under rawDir/<region>/
type Downloader struct {
	fetcher *Fetcher
	dataDir string
	rawDir  string
}

// NewDownloader creates a downloader; stored paths are recorded relative to dataDir
func NewDownloader(fetcher *Fetcher, dataDir, rawDir string) *Downloader {
	return &Downloader{fetcher: fetcher, dataDir: dataDir, rawDir: rawDir}
}

// StoreAll stores every source in order. A failed download is logged and the
// source kept without a file path or hash.
func (d *Downloader) StoreAll(ctx context.Context, regionID string, sources []model.DiscoveredSource) []model.DiscoveredSource {
	stored := make([]model.DiscoveredSource, 0, len(sources))
	for _, s := range sources {
		out, err := d.Store(ctx, regionID, s)
		if err != nil {
			zap.L().Warn("scrape: store failed",
				zap.String("region", regionID),
				zap.String("source", s.URI),
				zap.Error(err),
			)
		}
		stored = append(stored, out)
	}
	return stored
}

// Store downloads one source, hashes it and writes it to disk
func (d *Downloader) Store(ctx context.Context, regionID string, source model.DiscoveredSource) (model.DiscoveredSource, error) {
	page, err := d.fetcher.Fetch(ctx, source.URI)
	if err != nil {
		return source, eris.Wrap(err, "download")
	}

	sum := sha256.Sum256(page.Body)
	hash := hex.EncodeToString(sum[:])

	dir := filepath.Join(d.rawDir, regionID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return source, eris.Wrap(err, "create region dir")
	}

	path := filepath.Join(dir, safeFilename(source.Title, hash, source.DocumentType))
	if err := os.WriteFile(path, page.Body, 0644); err != nil {
		return source, eris.Wrap(err, "write document")
	}

	rel, err := filepath.Rel(d.dataDir, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	source.FileHash = &hash
	source.FilePath = &rel
	return source, nil
}

// safeFilename keeps letters, digits, '-' and '_' from the title and appends
// the first eight hash characters and the document type's extension
func safeFilename(title, hash string, docType model.DocumentType) string {
	var b strings.Builder
	n := 0
	for _, r := range title {
		if n == maxFilenameTitle {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
		n++
	}
	return b.String() + "_" + hash[:8] + docType.Extension()
}
