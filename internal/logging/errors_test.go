package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"go-genai-core/internal/apierr"
)

func TestErrorKindPrefersAPIErrorKind(t *testing.T) {
	err := apierr.New(apierr.KindTimeout, "no data received")
	assert.Equal(t, string(apierr.KindTimeout), ErrorKind(0, err))
}

func TestErrorKindFallsBackToStatusForPlainErrors(t *testing.T) {
	assert.Equal(t, string(apierr.KindRateLimit), ErrorKind(429, errors.New("boom")))
	assert.Equal(t, string(apierr.KindServer), ErrorKind(503, errors.New("boom")))
	assert.Equal(t, "ok", ErrorKind(200, nil))
}
