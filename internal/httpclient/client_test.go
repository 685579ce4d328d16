package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig returns a config with short delays so retry tests run fast.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryDelay = 5 * time.Millisecond
	cfg.RetryMaxDelay = 100 * time.Millisecond
	return cfg
}

func TestClientSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := New(testConfig())
	resp, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestClientDefaultHeaders(t *testing.T) {
	var gotUA, gotAccept, gotEncoding string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		gotEncoding = r.Header.Get("Accept-Encoding")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(testConfig())
	resp, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Contains(t, gotUA, "Mozilla/5.0")
	assert.Equal(t, "*/*", gotAccept)
	assert.Contains(t, gotEncoding, "gzip")
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(testConfig())
	resp, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, int32(3), calls.Load())
}

func TestClientRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(testConfig())
	resp, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, int32(3), calls.Load())
}

// recordedDelays exhausts retries against a server that always returns
// status and captures each backoff delay via the client's sleep hook, so
// the sequence is asserted without wall-clock waits.
func recordedDelays(t *testing.T, status int) []time.Duration {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.MaxAttempts = 4
	cfg.RetryDelay = 1 * time.Second
	cfg.RetryMaxDelay = 30 * time.Second

	client := New(cfg)
	var delays []time.Duration
	client.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	_, err := client.Get(context.Background(), server.URL)
	require.Error(t, err)
	return delays
}

func TestClientBackoffNonDecreasing(t *testing.T) {
	delays := recordedDelays(t, http.StatusServiceUnavailable)

	require.Len(t, delays, 3, "four attempts mean three waits")
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}, delays)
	for i := 1; i < len(delays); i++ {
		assert.GreaterOrEqual(t, delays[i], delays[i-1],
			"backoff must never shrink between attempts")
	}
}

func TestClientBackoffRateLimitDoublesAgain(t *testing.T) {
	serverErrDelays := recordedDelays(t, http.StatusServiceUnavailable)
	rateLimitDelays := recordedDelays(t, http.StatusTooManyRequests)

	// Each 429 advances the backoff a second time, so under identical
	// config every wait is longer than the 5xx wait in the same slot,
	// capped at RetryMaxDelay.
	require.Len(t, rateLimitDelays, 3)
	assert.Equal(t, []time.Duration{2 * time.Second, 8 * time.Second, 30 * time.Second}, rateLimitDelays)
	for i := range rateLimitDelays {
		assert.Greater(t, rateLimitDelays[i], serverErrDelays[i])
	}
}

func TestClientFailsFastOnClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := New(testConfig())
	_, err := client.Get(context.Background(), server.URL)
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load(), "4xx must not be retried")
}

func TestClientExhaustsAttempts(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(testConfig())
	_, err := client.Get(context.Background(), server.URL)
	require.Error(t, err)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	client := New(testConfig())
	_, err := client.Get(ctx, server.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		err != nil)
}

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute, 1)

	for i := 0; i < 3; i++ {
		assert.True(t, cb.Allow())
		cb.RecordFailure()
	}

	assert.Equal(t, CircuitOpen, cb.State())
	assert.False(t, cb.Allow())
}

func TestCircuitBreakerHalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond, 1)

	cb.RecordFailure()
	require.Equal(t, CircuitOpen, cb.State())

	time.Sleep(20 * time.Millisecond)
	assert.True(t, cb.Allow(), "half-open should allow one probe")

	cb.RecordSuccess()
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestObfuscateURL(t *testing.T) {
	u, err := url.Parse("http://host/playlist.m3u?username=bob&password=hunter2")
	require.NoError(t, err)

	s := obfuscateURL(u)
	assert.Contains(t, s, "username=bob")
	assert.Contains(t, s, "password=%2A%2A%2A")
	assert.NotContains(t, s, "hunter2")
}
