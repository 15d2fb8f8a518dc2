package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ppiankov/landlock/internal/cache"
	"github.com/ppiankov/landlock/internal/worker"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	maxFetchAttempts    = 3
	defaultMaxBodyBytes = 20 << 20
)

// fetchSleepFunc is swapped out in tests
var fetchSleepFunc = time.Sleep

// Page is one fetched document
type Page struct {
	URL         string    `json:"url"`
	FinalURL    string    `json:"final_url"`
	StatusCode  int       `json:"status_code"`
	ContentType string    `json:"content_type"`
	Body        []byte    `json:"body"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Status)
}

// Retryable reports whether the status is worth another attempt
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Fetcher downloads documents with per-host rate limiting, retries and a cache
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	limiter    *worker.Limiter
	cache      cache.Cache
}

// FetcherOption customizes a Fetcher
type FetcherOption func(*Fetcher)

// WithLimiter spaces requests per host
func WithLimiter(l *worker.Limiter) FetcherOption {
	return func(f *Fetcher) { f.limiter = l }
}

// WithCache serves repeated URLs from c
func WithCache(c cache.Cache) FetcherOption {
	return func(f *Fetcher) { f.cache = c }
}

// NewFetcher creates a Fetcher
func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return eris.New("stopped after 5 redirects")
				}
				return nil
			},
		},
		userAgent: userAgent,
		maxBytes:  maxBytes,
		limiter:   worker.NewLimiter(0, 1),
		cache:     cache.Nop{},
	}
	if f.maxBytes <= 0 {
		f.maxBytes = defaultMaxBodyBytes
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Limiter returns the fetcher's host limiter
func (f *Fetcher) Limiter() *worker.Limiter {
	return f.limiter
}

// Fetch returns a cached page or downloads it, retrying transient failures
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	key := cache.Key(rawURL)
	if raw, ok := f.cache.Get(key); ok {
		var page Page
		if err := json.Unmarshal(raw, &page); err == nil {
			return &page, nil
		}
	}

	var (
		page *Page
		err  error
	)
	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		page, err = f.fetchOnce(ctx, rawURL)
		if err == nil || !isRetryableFetchError(err) || attempt == maxFetchAttempts {
			break
		}
		backoff := time.Duration(attempt) * time.Second
		zap.L().Debug("scrape: retrying fetch",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		fetchSleepFunc(backoff)
	}
	if err != nil {
		return nil, err
	}

	if raw, mErr := json.Marshal(page); mErr == nil {
		if cErr := f.cache.Set(key, raw, 0); cErr != nil {
			zap.L().Warn("scrape: cache write failed", zap.String("url", rawURL), zap.Error(cErr))
		}
	}
	return page, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) (*Page, error) {
	if err := f.limiter.Wait(ctx, rawURL); err != nil {
		return nil, eris.Wrap(err, "rate limit")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &transientError{err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, eris.Wrap(err, "read body")
	}

	return &Page{
		URL:         rawURL,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		FetchedAt:   time.Now().UTC(),
	}, nil
}

// transientError marks transport failures such as refused or reset connections
type transientError struct {
	err error
}

func (e *transientError) Error() string { return "fetch: " + e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	var transient *transientError
	return errors.As(err, &transient)
}
