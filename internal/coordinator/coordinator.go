// Package coordinator provides a uniform unary API surface over both
// auth strategies: generate, count_tokens, list_models, get_model, and
// stream_generate (which delegates to the streaming engine).
package coordinator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go-genai-core/internal/apierr"
	"go-genai-core/internal/authcoordinator"
	"go-genai-core/internal/authstrategy"
	"go-genai-core/internal/constants"
	"go-genai-core/internal/events"
	"go-genai-core/internal/httpclient"
	"go-genai-core/internal/jsonnorm"
	"go-genai-core/internal/logging"
	"go-genai-core/internal/streaming"
	"go-genai-core/internal/telemetry"

	log "github.com/sirupsen/logrus"
)

// Options are the per-operation parameters a caller may supply, mirroring
// the strategy/identity overrides accepted by the auth coordinator plus
// operation-specific knobs.
type Options struct {
	Auth      authstrategy.Strategy
	Overrides authcoordinator.Overrides
	Timeout   time.Duration

	// Fallback, if set, names an alternate strategy that Generate retries
	// under, once, when it fails with a RateLimitError or QuotaExceeded kind.
	// Not enabled unless the caller supplies it; the other operations ignore it.
	Fallback authstrategy.Strategy

	// ModelFallback, if set, names alternate model names to retry
	// generate/count_tokens under, in order, when the primary model 404s.
	// Off by default: a caller that leaves this nil gets no model
	// substitution and a 404 surfaces as-is.
	ModelFallback []string

	// BaseURLOverride replaces the resolved base URL, primarily for tests
	// and private endpoints.
	BaseURLOverride string

	// SafetySettings, SystemInstruction, and Tools thread the corresponding
	// generateContent wire fields through Generate/StreamGenerate. All are
	// nil/empty unless the caller (or ResolveCallOptions) sets them.
	SafetySettings    []SafetySetting
	SystemInstruction *Content
	Tools             []Tool

	// MaxRetries, if > 0, overrides the Coordinator's default retry policy's
	// Max for this call only.
	MaxRetries int
}

// Coordinator routes generate/count_tokens/list_models/get_model/
// stream_generate operations through the selected auth strategy.
type Coordinator struct {
	auth        *authcoordinator.Coordinator
	httpClient  *http.Client
	retryPolicy httpclient.RetryPolicy
	engine      *streaming.Engine
	defaultAuth authstrategy.Strategy
	events      *events.Hub
}

// SetEvents attaches an event hub that model-fallback and (via the
// streaming engine) idle-timeout notifications publish to. Optional; a
// Coordinator with no hub attached simply skips publishing.
func (c *Coordinator) SetEvents(hub *events.Hub) {
	c.events = hub
	c.engine.SetEvents(hub)
}

// New constructs a Coordinator. defaultAuth is used when an operation's
// Options.Auth is empty.
func New(auth *authcoordinator.Coordinator, httpClient *http.Client, defaultAuth authstrategy.Strategy) *Coordinator {
	return &Coordinator{
		auth:        auth,
		httpClient:  httpClient,
		retryPolicy: httpclient.DefaultRetryPolicy(),
		engine:      streaming.New(auth, httpClient),
		defaultAuth: defaultAuth,
	}
}

func (c *Coordinator) strategyFor(opts Options) authstrategy.Strategy {
	if opts.Auth != "" {
		return opts.Auth
	}
	return c.defaultAuth
}

func (c *Coordinator) timeoutFor(opts Options) time.Duration {
	if opts.Timeout > 0 {
		return opts.Timeout
	}
	return constants.DefaultUnaryTimeout
}

// retryPolicyFor returns the Coordinator's retry policy, with Max overridden
// by opts.MaxRetries when the caller set one.
func (c *Coordinator) retryPolicyFor(opts Options) httpclient.RetryPolicy {
	policy := c.retryPolicy
	if opts.MaxRetries > 0 {
		policy.Max = opts.MaxRetries
	}
	return policy
}

// Generate performs a generateContent call, trying opts.ModelFallback
// candidates in order on a 404 (opt-in, none by default) and stripping
// thinkingConfig for models that reject it.
func (c *Coordinator) Generate(ctx context.Context, content any, model string, genConfig *GenerationConfig, opts Options) (*GenerateResponse, error) {
	contents, err := NormalizeContent(content)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(GenerateRequest{
		Contents:          contents,
		GenerationConfig:  genConfig,
		SafetySettings:    opts.SafetySettings,
		SystemInstruction: opts.SystemInstruction,
		Tools:             opts.Tools,
	})
	if err != nil {
		return nil, apierr.Wrap(apierr.KindClient, err, "failed to encode request")
	}

	var resp GenerateResponse
	_, err = c.doUnary(ctx, opts, model, "generateContent", body, &resp)
	if err == nil {
		return &resp, nil
	}

	fallbackOpts, ok := c.fallbackOptions(opts, err)
	if !ok {
		return nil, err
	}
	return c.Generate(ctx, content, model, genConfig, fallbackOpts)
}

// CountTokens performs a countTokens call.
func (c *Coordinator) CountTokens(ctx context.Context, content any, model string, opts Options) (*CountTokensResponse, error) {
	contents, err := NormalizeContent(content)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(struct {
		Contents []Content `json:"contents"`
	}{Contents: contents})
	if err != nil {
		return nil, apierr.Wrap(apierr.KindClient, err, "failed to encode request")
	}

	var resp CountTokensResponse
	if _, err := c.doUnary(ctx, opts, model, "countTokens", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListModels lists models available to the selected strategy.
func (c *Coordinator) ListModels(ctx context.Context, opts Options) (*ListModelsResponse, error) {
	var resp ListModelsResponse
	if err := c.doGet(ctx, opts, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetModel fetches a single model's metadata by name.
func (c *Coordinator) GetModel(ctx context.Context, name string, opts Options) (*Model, error) {
	var resp Model
	if err := c.doGet(ctx, opts, name, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StreamGenerate opens a streaming session for content, delegating to the
// streaming engine. The returned channel and unsubscribe func are the
// initial subscriber's.
func (c *Coordinator) StreamGenerate(ctx context.Context, content any, model string, genConfig *GenerationConfig, opts Options) (string, <-chan streaming.StreamEvent, func(), error) {
	contents, err := NormalizeContent(content)
	if err != nil {
		return "", nil, nil, err
	}
	body, err := json.Marshal(GenerateRequest{
		Contents:          contents,
		GenerationConfig:  genConfig,
		SafetySettings:    opts.SafetySettings,
		SystemInstruction: opts.SystemInstruction,
		Tools:             opts.Tools,
	})
	if err != nil {
		return "", nil, nil, apierr.Wrap(apierr.KindClient, err, "failed to encode request")
	}
	if disallowsThinking(model) {
		body = stripThinkingConfig(body)
	}

	return c.engine.StartStream(ctx, streaming.StreamRequest{
		Model:           model,
		Body:            body,
		Strategy:        c.strategyFor(opts),
		Overrides:       opts.Overrides,
		BaseURLOverride: opts.BaseURLOverride,
	})
}

// doUnary performs one POST operation against endpoint, trying
// opts.ModelFallback candidates in order on a 404, and decoding the
// normalized response into out.
func (c *Coordinator) doUnary(ctx context.Context, opts Options, model, endpoint string, body []byte, out any) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeoutFor(opts))
	defer cancel()

	candidates := fallbackOrder(model, opts.ModelFallback)
	var lastStatus int
	var lastErr error

	for i, candidate := range candidates {
		trial := body
		if disallowsThinking(candidate) {
			trial = stripThinkingConfig(trial)
		}

		status, raw, err := c.post(ctx, opts, candidate, endpoint, trial)
		if err == nil {
			return status, decodeNormalized(raw, out)
		}
		lastStatus, lastErr = status, err
		if status == http.StatusNotFound && i < len(candidates)-1 {
			telemetry.ModelFallbacksTotal.WithLabelValues(candidate, candidates[i+1]).Inc()
			if c.events != nil {
				c.events.PublishModelFallback(ctx, candidate, candidates[i+1])
			}
			continue
		}
		return status, err
	}
	return lastStatus, lastErr
}

func (c *Coordinator) doGet(ctx context.Context, opts Options, name string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeoutFor(opts))
	defer cancel()

	strategy := c.strategyFor(opts)
	resolved, err := c.auth.Coordinate(ctx, strategy, opts.Overrides)
	if err != nil {
		return err
	}

	baseURL := resolved.BaseURL
	if opts.BaseURLOverride != "" {
		baseURL = opts.BaseURLOverride
	}
	endpoint := "models"
	if name != "" {
		endpoint = "models/" + name
	}
	url := baseURL + "/" + endpoint

	attempt := httpclient.DoWithRetry(c.httpClient, c.retryPolicyFor(opts), func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		for k, v := range resolved.Headers {
			req.Header[k] = v
		}
		return req, nil
	})
	if attempt.Err != nil {
		return apierr.MapNetworkError(attempt.Err)
	}
	defer attempt.Response.Body.Close()

	raw, err := io.ReadAll(attempt.Response.Body)
	if err != nil {
		return apierr.Wrap(apierr.KindNetwork, err, "failed to read response body")
	}
	if attempt.Response.StatusCode >= 300 {
		return apierr.MapHTTPError(attempt.Response.StatusCode, raw)
	}
	return decodeNormalized(raw, out)
}

func (c *Coordinator) post(ctx context.Context, opts Options, model, endpoint string, body []byte) (int, []byte, error) {
	strategy := c.strategyFor(opts)

	ctx, span := telemetry.StartSpan(ctx, "coordinator", "post "+endpoint)
	defer span.End()

	start := time.Now()
	status, raw, err := c.doPost(ctx, opts, strategy, model, endpoint, body)
	elapsed := time.Since(start)

	telemetry.UpstreamRequestDuration.WithLabelValues(string(strategy), endpoint).Observe(elapsed.Seconds())
	telemetry.UpstreamRequestsTotal.WithLabelValues(string(strategy), endpoint, telemetry.StatusClass(status)).Inc()

	log.WithFields(log.Fields{
		"strategy":   strategy,
		"endpoint":   endpoint,
		"model":      model,
		"status":     status,
		"duration_ms": logging.DurationMS(elapsed),
		"kind":       logging.ErrorKind(status, err),
	}).Debug("unary upstream call completed")

	return status, raw, err
}

func (c *Coordinator) doPost(ctx context.Context, opts Options, strategy authstrategy.Strategy, model, endpoint string, body []byte) (int, []byte, error) {
	resolved, err := c.auth.Coordinate(ctx, strategy, opts.Overrides)
	if err != nil {
		return 0, nil, err
	}

	baseURL := resolved.BaseURL
	if opts.BaseURLOverride != "" {
		baseURL = opts.BaseURLOverride
	}
	path := authcoordinator.BuildPath(resolved.Strategy, model, endpoint, resolved.Creds)
	url := fmt.Sprintf("%s/%s", baseURL, path)

	refreshedOn401 := false
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			telemetry.UpstreamRetryAttempts.WithLabelValues(string(strategy), "retry").Inc()
		}
		result := httpclient.DoWithRetry(c.httpClient, c.retryPolicyFor(opts), func() (*http.Request, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				return nil, err
			}
			req.Header.Set("Accept", "application/json")
			for k, v := range resolved.Headers {
				req.Header[k] = v
			}
			return req, nil
		})

		if result.Err != nil {
			return 0, nil, apierr.MapNetworkError(result.Err)
		}

		if result.Response.StatusCode == http.StatusUnauthorized && !refreshedOn401 {
			result.Response.Body.Close()
			refreshedOn401 = true
			creds, refreshErr := c.auth.Refresh(ctx, strategy)
			if refreshErr != nil {
				return http.StatusUnauthorized, nil, refreshErr
			}
			resolved.Creds = creds
			resolved.Headers = authstrategy.Headers(creds)
			continue
		}

		raw, readErr := io.ReadAll(result.Response.Body)
		result.Response.Body.Close()
		if readErr != nil {
			return result.Response.StatusCode, nil, apierr.Wrap(apierr.KindNetwork, readErr, "failed to read response body")
		}
		if result.Response.StatusCode >= 300 {
			return result.Response.StatusCode, raw, apierr.MapHTTPError(result.Response.StatusCode, raw)
		}
		return result.Response.StatusCode, raw, nil
	}
}

func decodeNormalized(raw []byte, out any) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return apierr.Wrap(apierr.KindParse, err, "failed to decode upstream response")
	}
	normalized := jsonnorm.Keys(v)
	reencoded, err := json.Marshal(normalized)
	if err != nil {
		return apierr.Wrap(apierr.KindParse, err, "failed to re-encode normalized response")
	}
	if err := json.Unmarshal(reencoded, out); err != nil {
		return apierr.Wrap(apierr.KindParse, err, "failed to decode normalized response")
	}
	return nil
}

// fallbackOptions reports whether err is a kind eligible for one retry
// under opts.Fallback (RateLimitError only; QuotaExceeded is represented as
// the same apierr.KindRateLimit with a distinguishing message), and if so
// returns the Options to retry under.
func (c *Coordinator) fallbackOptions(opts Options, err error) (Options, bool) {
	if opts.Fallback == "" {
		return Options{}, false
	}
	apiErr, ok := err.(*apierr.Error)
	if !ok || apiErr.Kind != apierr.KindRateLimit {
		return Options{}, false
	}
	fallbackOpts := opts
	fallbackOpts.Auth = opts.Fallback
	fallbackOpts.Fallback = ""
	return fallbackOpts, true
}
