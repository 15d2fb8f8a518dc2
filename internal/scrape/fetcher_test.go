package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/landlock/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSleep(t *testing.T) {
	t.Helper()
	orig := fetchSleepFunc
	fetchSleepFunc = func(time.Duration) {}
	t.Cleanup(func() { fetchSleepFunc = orig })
}

func TestFetcher_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.UserAgent())
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, "<html><body>OK</body></html>")
	}))
	defer server.Close()

	page, err := NewFetcher(5*time.Second, "test-agent", 1<<20).Fetch(t.Context(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "<html><body>OK</body></html>", string(page.Body))
	assert.Equal(t, "text/html", page.ContentType)
	assert.Equal(t, http.StatusOK, page.StatusCode)
}

func TestFetcher_TransientThenSuccess(t *testing.T) {
	noSleep(t)
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprint(w, "OK")
	}))
	defer server.Close()

	page, err := NewFetcher(5*time.Second, "test-agent", 1<<20).Fetch(t.Context(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "OK", string(page.Body))
	assert.Equal(t, int32(3), attempts.Load())
}

func TestFetcher_PermanentFailure(t *testing.T) {
	noSleep(t)
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewFetcher(5*time.Second, "test-agent", 1<<20).Fetch(t.Context(), server.URL)
	require.Error(t, err)
	assert.EqualError(t, err, "unexpected status: 404 Not Found")
	assert.Equal(t, int32(1), attempts.Load())
}

func TestFetcher_AllRetriesExhausted(t *testing.T) {
	noSleep(t)
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewFetcher(5*time.Second, "test-agent", 1<<20).Fetch(t.Context(), server.URL)
	require.Error(t, err)
	assert.Equal(t, int32(maxFetchAttempts), attempts.Load())
}

func TestFetcher_ServesFromCache(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = fmt.Fprint(w, "cached body")
	}))
	defer server.Close()

	f := NewFetcher(5*time.Second, "test-agent", 1<<20, WithCache(cache.NewMemoryCache(time.Minute, time.Minute)))
	for range 3 {
		page, err := f.Fetch(t.Context(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, "cached body", string(page.Body))
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetcher_TruncatesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, "0123456789")
	}))
	defer server.Close()

	page, err := NewFetcher(5*time.Second, "test-agent", 4).Fetch(t.Context(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "0123", string(page.Body))
}

func TestIsRetryableFetchError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"503", &StatusError{Code: 503}, true},
		{"500", &StatusError{Code: 500}, true},
		{"429", &StatusError{Code: 429}, true},
		{"404", &StatusError{Code: 404}, false},
		{"403", &StatusError{Code: 403}, false},
		{"connection refused", &transientError{err: errors.New("connection refused")}, true},
		{"cancelled", &transientError{err: context.Canceled}, false},
		{"plain error", errors.New("read body: unexpected EOF"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, isRetryableFetchError(tt.err))
		})
	}
}
