package apierr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapHTTPErrorKinds(t *testing.T) {
	cases := []struct {
		status int
		want   Kind
	}{
		{401, KindAuth},
		{429, KindRateLimit},
		{503, KindServer},
		{400, KindClient},
		{408, KindTimeout},
	}
	for _, c := range cases {
		got := MapHTTPError(c.status, nil)
		assert.Equalf(t, c.want, got.Kind, "status %d", c.status)
		assert.Equalf(t, c.status, got.HTTPStatus, "status %d", c.status)
	}
}

func TestMapHTTPErrorExtractsUpstreamMessage(t *testing.T) {
	body := []byte(`{"error":{"message":"quota exceeded"}}`)
	got := MapHTTPError(429, body)
	assert.Equal(t, "quota exceeded", got.Message)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, New(KindServer, "x").IsRetryable(), "server errors should be retryable")
	assert.False(t, New(KindConfig, "x").IsRetryable(), "config errors should not be retryable")
}
