package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientRetriesAfterTooManyRequests(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	client := New(Config{
		BaseURL:           server.URL,
		RequestsPerSecond: 1000,
		Burst:             10,
		MaxRetries:        3,
		RetryDelay:        time.Millisecond,
	})

	res, err := client.Get(context.Background(), "/students", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClientGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := New(Config{
		BaseURL:           server.URL,
		RequestsPerSecond: 1000,
		Burst:             10,
		MaxRetries:        2,
		RetryDelay:        time.Millisecond,
	})

	res, err := client.Get(context.Background(), "/students", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusTooManyRequests, res.Status)
	// Initial attempt plus two retries.
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClientSendsAuthAndPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, Token: "token-123"})

	res, err := client.Post(context.Background(), "/students", map[string]string{"full_name": "Ana Cruz"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, res.Status)
}

func TestClientThrottlesRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	// 1 req per 20ms with no burst headroom: the third call cannot complete
	// before ~40ms have passed.
	client := New(Config{BaseURL: server.URL, RequestsPerSecond: 50, Burst: 1})

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.Get(context.Background(), "/ping", nil)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
}

func TestClientHonoursContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := New(Config{
		BaseURL:           server.URL,
		RequestsPerSecond: 1000,
		MaxRetries:        5,
		RetryDelay:        time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Do(ctx, http.MethodGet, "/students", nil)
	require.Error(t, err)
}
