package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRetryAfterSeconds(t *testing.T) {
	d, ok := parseRetryAfter("5")
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, d)
}

func TestParseRetryAfterEmpty(t *testing.T) {
	_, ok := parseRetryAfter("")
	assert.False(t, ok, "expected no value for empty header")
}

func TestShouldRetryOn429HonorsRetryAfter(t *testing.T) {
	p := DefaultRetryPolicy()
	resp := &http.Response{StatusCode: http.StatusTooManyRequests, Header: http.Header{"Retry-After": []string{"2"}}}
	should, wait := p.shouldRetry(resp, nil, 0)
	assert.True(t, should)
	assert.Equal(t, 2*time.Second, wait)
}

func TestShouldRetryOn5xx(t *testing.T) {
	p := DefaultRetryPolicy()
	resp := &http.Response{StatusCode: http.StatusBadGateway, Header: http.Header{}}
	should, _ := p.shouldRetry(resp, nil, 0)
	assert.True(t, should, "expected 5xx to be retried")
}

func TestShouldNotRetryOn4xx(t *testing.T) {
	p := DefaultRetryPolicy()
	resp := &http.Response{StatusCode: http.StatusBadRequest, Header: http.Header{}}
	should, _ := p.shouldRetry(resp, nil, 0)
	assert.False(t, should, "expected 4xx not to be retried")
}

func TestDoWithRetryEventuallySucceeds(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	policy := DefaultRetryPolicy()
	policy.BaseInterval = time.Millisecond
	policy.MaxInterval = 5 * time.Millisecond

	cli := server.Client()
	result := DoWithRetry(cli, policy, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, server.URL, nil)
	})
	require.NoError(t, result.Err)
	defer result.Response.Body.Close()
	assert.Equal(t, http.StatusOK, result.Response.StatusCode)
	assert.Equal(t, 2, result.Retries)
}

func TestDoWithRetryGivesUpAfterMax(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	policy := DefaultRetryPolicy()
	policy.Max = 2
	policy.BaseInterval = time.Millisecond
	policy.MaxInterval = 5 * time.Millisecond

	cli := server.Client()
	result := DoWithRetry(cli, policy, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, server.URL, nil)
	})
	require.NoError(t, result.Err, "unexpected transport error")
	defer result.Response.Body.Close()
	assert.Equal(t, 2, result.Retries, "expected exactly 2 retries (policy.Max)")
	assert.Equal(t, http.StatusServiceUnavailable, result.Response.StatusCode)
}
