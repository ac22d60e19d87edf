// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	RetryBaseDelay = 1 * time.Millisecond
}

func newRequest(t *testing.T, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	return req
}

// sequenceServer answers with statuses in order, repeating the last one,
// and serves a rules CSV on 200.
func sequenceServer(t *testing.T, statuses ...int) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := int(atomic.AddInt32(&calls, 1))
		if n > len(statuses) {
			n = len(statuses)
		}
		code := statuses[n-1]
		if code == http.StatusTooManyRequests {
			w.Header().Set("Retry-After", "0")
		}
		w.WriteHeader(code)
		if code == http.StatusOK {
			_, _ = io.WriteString(w, "Keyword,Field,Action,Value\n")
		}
	}))
	t.Cleanup(ts.Close)
	return ts, &calls
}

func TestDoWithRetry(t *testing.T) {
	tests := []struct {
		name       string
		statuses   []int
		maxRetries int
		wantStatus int
		wantCalls  int32
	}{
		{"first attempt succeeds", []int{200}, 5, 200, 1},
		{"rate limited then unavailable then ok", []int{429, 503, 200}, 5, 200, 3},
		{"gateway timeout retried", []int{504, 200}, 0, 200, 2},
		{"not found is final", []int{404}, 5, 404, 1},
		{"unauthorized is final", []int{401}, 5, 401, 1},
		{"retries exhausted returns last response", []int{502}, 3, 502, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, calls := sequenceServer(t, tt.statuses...)

			resp, err := DoWithRetry(context.Background(), ts.Client(), newRequest(t, ts.URL), tt.maxRetries)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(calls))
			if tt.wantStatus == http.StatusOK {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				assert.Contains(t, string(body), "Keyword,Field")
			}
		})
	}
}

func TestDoWithRetryTransportError(t *testing.T) {
	ts, _ := sequenceServer(t, http.StatusOK)
	url := ts.URL
	ts.Close()

	resp, err := DoWithRetry(context.Background(), http.DefaultClient, newRequest(t, url), 3)
	assert.Nil(t, resp)
	assert.Error(t, err)
}

func TestDoWithRetryContextCancelled(t *testing.T) {
	ts, _ := sequenceServer(t, http.StatusServiceUnavailable)

	saved := RetryBaseDelay
	RetryBaseDelay = time.Hour
	defer func() { RetryBaseDelay = saved }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	resp, err := DoWithRetry(ctx, ts.Client(), newRequest(t, ts.URL), 3)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"3", 3 * time.Second},
		{"0", 0},
		{"-2", 0},
		{"600", maxRetryAfter},
		{"Wed, 21 Oct 2015 07:28:00 GMT", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, retryAfter(tt.in))
		})
	}
}
