package extract

import (
	"context"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/ppiankov/landlock/internal/model"
	"github.com/rotisserie/eris"
)

// DefaultMaxFeedItems bounds how many feed entries are scanned
const DefaultMaxFeedItems = 20

// FeedItem is a normalized RSS or Atom entry
type FeedItem struct {
	Title     string
	Body      string
	Published time.Time // zero when the date is missing or unparseable
}

// FeedDecoder reads the most recent entries of an RSS or Atom feed
type FeedDecoder struct {
	maxItems int
}

// NewFeedDecoder creates a feed decoder that keeps at most maxItems entries
func NewFeedDecoder(maxItems int) *FeedDecoder {
	if maxItems <= 0 {
		maxItems = DefaultMaxFeedItems
	}
	return &FeedDecoder{maxItems: maxItems}
}

// Name returns the decoder name
func (d *FeedDecoder) Name() string { return "feed" }

// CanHandle checks if this decoder handles the given document type
func (d *FeedDecoder) CanHandle(docType model.DocumentType) bool {
	return docType == model.DocumentRSS
}

// Decode returns "title. body" for each of the most recent entries, one per line
func (d *FeedDecoder) Decode(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrapf(err, "extract: read %s", path)
	}

	items, err := ParseFeed(data)
	if err != nil {
		return "", err
	}

	if len(items) > d.maxItems {
		items = items[:d.maxItems]
	}

	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, strings.TrimSpace(item.Title+". "+item.Body))
	}
	return strings.Join(lines, "\n"), nil
}

// ParseFeed decodes an RSS 0.9x/1.0/2.0, Atom or JSON feed and orders entries newest
// first. Entries use their published date, falling back to the updated date.
// Undated entries keep their document order after the dated ones.
func ParseFeed(data []byte) ([]FeedItem, error) {
	feed, err := gofeed.NewParser().ParseString(string(data))
	if err != nil {
		return nil, eris.Wrap(err, "extract: parse feed")
	}

	items := make([]FeedItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		body := it.Description
		if strings.TrimSpace(stripMarkup(body)) == "" {
			body = it.Content
		}
		items = append(items, FeedItem{
			Title:     strings.TrimSpace(it.Title),
			Body:      stripMarkup(body),
			Published: itemDate(it),
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Published, items[j].Published
		if a.IsZero() || b.IsZero() {
			return !a.IsZero() && b.IsZero()
		}
		return a.After(b)
	})

	return items, nil
}

func itemDate(it *gofeed.Item) time.Time {
	switch {
	case it.PublishedParsed != nil:
		return it.PublishedParsed.UTC()
	case it.UpdatedParsed != nil:
		return it.UpdatedParsed.UTC()
	default:
		return time.Time{}
	}
}
