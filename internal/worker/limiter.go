package worker

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Limiter spaces requests per host. Each host gets its own token bucket,
// which a robots.txt crawl delay can slow down but never speed up.
type Limiter struct {
	mu      sync.Mutex
	hosts   map[string]*rate.Limiter
	perHost rate.Limit
	burst   int
}

// NewLimiter creates a limiter allowing requestsPerSecond per host.
// A non-positive rate disables limiting.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}
	return &Limiter{
		hosts:   make(map[string]*rate.Limiter),
		perHost: limit,
		burst:   burst,
	}
}

// Wait blocks until a request to rawURL's host is allowed
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	host, err := hostOf(rawURL)
	if err != nil {
		return err
	}
	return l.forHost(host).Wait(ctx)
}

// ApplyCrawlDelay lowers the host's rate to one request per delay when that is slower
func (l *Limiter) ApplyCrawlDelay(rawURL string, delay time.Duration) {
	if delay <= 0 {
		return
	}
	host, err := hostOf(rawURL)
	if err != nil {
		return
	}

	slower := rate.Every(delay)
	lim := l.forHost(host)
	if slower < lim.Limit() {
		lim.SetLimit(slower)
	}
}

// HostRate reports the current rate for a host
func (l *Limiter) HostRate(host string) rate.Limit {
	return l.forHost(host).Limit()
}

func (l *Limiter) forHost(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.hosts[host]
	if !ok {
		lim = rate.NewLimiter(l.perHost, l.burst)
		l.hosts[host] = lim
	}
	return lim
}

func hostOf(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", eris.Wrapf(err, "worker: parse url %q", rawURL)
	}
	if parsed.Host == "" {
		return "", eris.Errorf("worker: url %q has no host", rawURL)
	}
	return parsed.Host, nil
}
