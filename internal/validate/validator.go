// Package validate audits registered sources: stored file integrity,
// live reachability and freshness, and how official the publishing host is.
package validate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/landlock/internal/model"
	"github.com/ppiankov/landlock/internal/worker"
	"go.uber.org/zap"
)

const validateMaxRetries = 3

// validateSleepFunc is the sleep function used between retries (injectable for tests)
var validateSleepFunc = time.Sleep

const (
	staleAfterDays     = 365
	veryStaleAfterDays = 365 * 3
)

// SourceCheck is the audit outcome for one registered source
type SourceCheck struct {
	URI       string               `json:"uri"`
	Title     string               `json:"title"`
	Category  model.SourceCategory `json:"category"`
	Authority AuthorityTier        `json:"authority"`

	// Stored copy
	FilePresent bool   `json:"file_present"`
	HashMatches *bool  `json:"hash_matches,omitempty"` // nil when no hash was recorded
	FileError   string `json:"file_error,omitempty"`

	// Live copy, only filled by online audits
	Checked      bool       `json:"checked"`
	IsAccessible bool       `json:"is_accessible"`
	StatusCode   int        `json:"status_code,omitempty"`
	IsDead       bool       `json:"is_dead"`
	RedirectURL  string     `json:"redirect_url,omitempty"`
	LastModified *time.Time `json:"last_modified,omitempty"`

	// Age is measured from Last-Modified when known, otherwise from retrieval
	AgeDays     int    `json:"age_days"`
	IsStale     bool   `json:"is_stale"`
	IsVeryStale bool   `json:"is_very_stale"`
	Error       string `json:"error,omitempty"`
}

// Healthy reports whether the stored copy is intact and, when checked, the live copy is reachable
func (c SourceCheck) Healthy() bool {
	if !c.FilePresent || (c.HashMatches != nil && !*c.HashMatches) {
		return false
	}
	return !c.Checked || c.IsAccessible
}

// Validator audits sources concurrently
type Validator struct {
	dataDir    string
	httpClient *http.Client
	userAgent  string
	online     bool
	pool       *worker.Pool
	authority  *AuthorityClassifier
	now        func() time.Time
}

// Option customizes a Validator
type Option func(*Validator)

// WithOnline enables HEAD checks of each source URI
func WithOnline(timeout time.Duration, userAgent string) Option {
	return func(v *Validator) {
		v.online = true
		v.userAgent = userAgent
		v.httpClient = &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		}
	}
}

// WithWorkers sets the number of concurrent checks
func WithWorkers(n int) Option {
	return func(v *Validator) { v.pool = worker.NewPool(n) }
}

// WithAuthority sets the host classifier
func WithAuthority(a *AuthorityClassifier) Option {
	return func(v *Validator) { v.authority = a }
}

// NewValidator creates a validator; stored file paths resolve against dataDir
func NewValidator(dataDir string, opts ...Option) *Validator {
	v := &Validator{
		dataDir:   dataDir,
		pool:      worker.NewPool(8),
		authority: NewAuthorityClassifier(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

type checkJob struct {
	v      *Validator
	source model.DiscoveredSource
}

type checkResult struct {
	check SourceCheck
}

func (r *checkResult) GetError() error { return nil }

func (j *checkJob) Execute(ctx context.Context) worker.Result {
	return &checkResult{check: j.v.check(ctx, j.source)}
}

// Validate audits every source and returns checks in input order.
// Sources skipped by cancellation carry the context error.
func (v *Validator) Validate(ctx context.Context, sources []model.DiscoveredSource) []SourceCheck {
	jobs := make([]worker.Job, len(sources))
	for i, s := range sources {
		jobs[i] = &checkJob{v: v, source: s}
	}

	results := v.pool.Run(ctx, jobs)
	checks := make([]SourceCheck, len(results))
	for i, r := range results {
		if r == nil {
			checks[i] = v.baseCheck(sources[i])
			checks[i].Error = "context cancelled"
			continue
		}
		checks[i] = r.(*checkResult).check
	}
	return checks
}

func (v *Validator) baseCheck(source model.DiscoveredSource) SourceCheck {
	return SourceCheck{
		URI:       source.URI,
		Title:     source.Title,
		Category:  source.Category,
		Authority: v.authority.Classify(source.URI),
	}
}

func (v *Validator) check(ctx context.Context, source model.DiscoveredSource) SourceCheck {
	result := v.baseCheck(source)
	v.checkStored(&result, source)
	result.setAge(v.now(), source.RetrievedAt)

	if v.online {
		v.checkLiveWithRetry(ctx, &result)
	}
	return result
}

// checkStored verifies the downloaded copy against its recorded hash
func (v *Validator) checkStored(result *SourceCheck, source model.DiscoveredSource) {
	if source.FilePath == nil || *source.FilePath == "" {
		return
	}
	data, err := os.ReadFile(filepath.Join(v.dataDir, filepath.FromSlash(*source.FilePath)))
	if err != nil {
		result.FileError = err.Error()
		return
	}
	result.FilePresent = true

	if source.FileHash != nil && *source.FileHash != "" {
		sum := sha256.Sum256(data)
		matches := strings.EqualFold(hex.EncodeToString(sum[:]), *source.FileHash)
		result.HashMatches = &matches
	}
}

// checkLive issues a HEAD request for the source URI
func (v *Validator) checkLive(ctx context.Context, result *SourceCheck) {
	result.Checked = true
	result.IsAccessible = false
	result.IsDead = false
	result.StatusCode = 0

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, result.URI, nil)
	if err != nil {
		result.Error = fmt.Sprintf("create request: %v", err)
		result.IsDead = true
		return
	}
	if v.userAgent != "" {
		req.Header.Set("User-Agent", v.userAgent)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		result.IsDead = true
		return
	}
	defer func() { _ = resp.Body.Close() }()

	result.Error = ""
	result.StatusCode = resp.StatusCode
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		result.IsAccessible = true
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		result.IsDead = true
	}

	if final := resp.Request.URL.String(); final != result.URI {
		result.RedirectURL = final
	}

	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			result.LastModified = &t
			result.setAge(v.now(), t)
		}
	}
}

func (v *Validator) checkLiveWithRetry(ctx context.Context, result *SourceCheck) {
	for attempt := range validateMaxRetries {
		v.checkLive(ctx, result)
		if !isRetryable(result) {
			return
		}
		if attempt < validateMaxRetries-1 {
			zap.L().Debug("validate: retrying source check",
				zap.String("uri", result.URI),
				zap.Int("attempt", attempt+1),
			)
			validateSleepFunc(time.Duration(1<<uint(attempt)) * time.Second)
		}
	}
}

func (c *SourceCheck) setAge(now, since time.Time) {
	if since.IsZero() {
		return
	}
	c.AgeDays = max(int(now.Sub(since).Hours()/24), 0)
	c.IsStale = c.AgeDays > staleAfterDays
	c.IsVeryStale = c.AgeDays > veryStaleAfterDays
}

// isRetryable is true for server errors, rate limiting and transient network failures
func isRetryable(result *SourceCheck) bool {
	if result.StatusCode >= 500 || result.StatusCode == http.StatusTooManyRequests {
		return true
	}
	s := strings.ToLower(result.Error)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}

// Summary counts audit outcomes
type Summary struct {
	Total    int `json:"total"`
	Healthy  int `json:"healthy"`
	Missing  int `json:"missing"`
	Modified int `json:"modified"`
	Dead     int `json:"dead"`
	Stale    int `json:"stale"`
	Primary  int `json:"primary"`
}

// Summarize counts healthy, missing, modified, dead, stale and primary-tier sources
func Summarize(checks []SourceCheck) Summary {
	s := Summary{Total: len(checks)}
	for _, c := range checks {
		if c.Healthy() {
			s.Healthy++
		}
		if !c.FilePresent {
			s.Missing++
		}
		if c.HashMatches != nil && !*c.HashMatches {
			s.Modified++
		}
		if c.IsDead {
			s.Dead++
		}
		if c.IsStale {
			s.Stale++
		}
		if c.Authority == TierPrimary {
			s.Primary++
		}
	}
	return s
}
