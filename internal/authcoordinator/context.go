package authcoordinator

import (
	"context"
	"net/http"
)

type ctxKey int

const ctxHeaderOverrides ctxKey = iota

// WithHeaderOverrides attaches caller-supplied headers to ctx, to be read
// back with HeaderOverrides and applied with MergeHeaders. The request
// coordinator and the streaming engine do not read them; outgoing upstream
// requests carry only the strategy's own headers.
func WithHeaderOverrides(ctx context.Context, hdr http.Header) context.Context {
	if hdr == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxHeaderOverrides, hdr)
}

// HeaderOverrides reads back headers attached by WithHeaderOverrides, or nil
// if none were set.
func HeaderOverrides(ctx context.Context) http.Header {
	if ctx == nil {
		return nil
	}
	if v := ctx.Value(ctxHeaderOverrides); v != nil {
		if h, ok := v.(http.Header); ok {
			return h
		}
	}
	return nil
}

// MergeHeaders applies overrides onto base, returning base. Overrides win on
// key conflicts; base is mutated in place.
func MergeHeaders(base http.Header, overrides http.Header) http.Header {
	for k, v := range overrides {
		if len(v) > 0 {
			base[k] = v
		}
	}
	return base
}
