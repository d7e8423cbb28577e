// Package authcoordinator resolves, caches, and refreshes credentials per
// strategy, and derives request headers/URLs for any (strategy, model,
// endpoint) triple. It is the only owner of the credential cache.
package authcoordinator

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"go-genai-core/internal/apierr"
	"go-genai-core/internal/authstrategy"
	"go-genai-core/internal/events"
	"go-genai-core/internal/telemetry"
)

// BaseConfig supplies the process-wide default credentials per strategy,
// resolved once by the config resolver (internal/config).
type BaseConfig struct {
	Gemini   authstrategy.Credentials
	VertexAI authstrategy.Credentials
}

func (b BaseConfig) forStrategy(strategy authstrategy.Strategy) authstrategy.Credentials {
	if strategy == authstrategy.VertexAI {
		return b.VertexAI
	}
	return b.Gemini
}

// Coordinator resolves, caches, and refreshes credentials for both
// strategies concurrently in one process.
type Coordinator struct {
	base  BaseConfig
	cache *cache
	group *inflightGroup[authstrategy.Strategy, authstrategy.Credentials]
	now   func() time.Time

	// events, if set via SetEvents, is notified with TopicCredentialRotated
	// every time a strategy is successfully (re-)authenticated.
	events *events.Hub
}

// New constructs a Coordinator seeded with the process-wide base config.
func New(base BaseConfig) *Coordinator {
	return &Coordinator{
		base:  base,
		cache: newCache(),
		group: newInflightGroup[authstrategy.Strategy, authstrategy.Credentials](),
		now:   time.Now,
	}
}

// SetEvents attaches an event hub that receives a TopicCredentialRotated
// notification after every successful authentication. Passing nil disables
// notifications; it is nil (disabled) by default.
func (c *Coordinator) SetEvents(hub *events.Hub) {
	c.events = hub
}

// Resolved is what Coordinate returns: the strategy actually used, the
// headers to send, and the base URL to build the request path against.
type Resolved struct {
	Strategy authstrategy.Strategy
	Headers  http.Header
	BaseURL  string
	Creds    authstrategy.Credentials
}

// Overrides are per-request fields that replace the corresponding base
// config field for this call only; zero values mean "use the cached/base
// value". A per-request APIKey override never invalidates the shared cache
// entry used by subsequent default-credential calls.
type Overrides struct {
	APIKey    string
	ProjectID string
	Location  string
}

func applyOverrides(creds authstrategy.Credentials, o Overrides) authstrategy.Credentials {
	if o.APIKey != "" {
		creds.APIKey = o.APIKey
	}
	if o.ProjectID != "" {
		creds.ProjectID = o.ProjectID
	}
	if o.Location != "" {
		creds.Location = o.Location
	}
	return creds
}

// Coordinate resolves headers/base URL for strategy, consulting the cache
// first and authenticating on a miss or expiry. Concurrent callers that all
// miss the cache for the same strategy trigger exactly one authentication.
func (c *Coordinator) Coordinate(ctx context.Context, strategy authstrategy.Strategy, overrides Overrides) (Resolved, error) {
	if !strategy.Valid() {
		return Resolved{}, apierr.New(apierr.KindConfig, "unknown auth strategy: "+string(strategy))
	}

	base := c.base.forStrategy(strategy)
	if base.Strategy == "" {
		base.Strategy = strategy
	}
	effective := applyOverrides(base, overrides)

	// A per-request override that changes identity (a different api_key)
	// bypasses the shared cache: it is not the credential other callers
	// expect to find there.
	usesSharedCache := overrides.APIKey == "" && overrides.ProjectID == "" && overrides.Location == ""

	var creds authstrategy.Credentials
	var err error
	if usesSharedCache {
		if cached, ok := c.cache.get(strategy, c.now()); ok {
			telemetry.CredentialCacheHits.WithLabelValues(string(strategy)).Inc()
			creds = cached
		} else {
			creds, err = c.authenticateAndCache(ctx, strategy, effective)
			if err != nil {
				return Resolved{}, err
			}
		}
	} else {
		creds, err = authstrategy.Authenticate(ctx, effective)
		if err != nil {
			return Resolved{}, classifyAuthErr(err)
		}
	}

	return Resolved{
		Strategy: strategy,
		Headers:  authstrategy.Headers(creds),
		BaseURL:  authstrategy.BaseURL(strategy, creds),
		Creds:    creds,
	}, nil
}

// authenticateAndCache performs the single-flight authenticate-then-cache
// step shared by cache misses and explicit Refresh calls.
func (c *Coordinator) authenticateAndCache(ctx context.Context, strategy authstrategy.Strategy, effective authstrategy.Credentials) (authstrategy.Credentials, error) {
	creds, err := c.group.Do(strategy, func() (authstrategy.Credentials, error) {
		// A caller that missed the cache just before an earlier flight for
		// this strategy finished finds that flight's result here instead of
		// authenticating a second time.
		if cached, ok := c.cache.get(strategy, c.now()); ok {
			return cached, nil
		}
		authenticated, err := authstrategy.Authenticate(ctx, effective)
		if err != nil {
			telemetry.CredentialRefreshesTotal.WithLabelValues(string(strategy), "error").Inc()
			return authstrategy.Credentials{}, err
		}
		c.cache.put(strategy, authenticated, expiryFor(strategy, authenticated, c.now()))
		telemetry.CredentialRefreshesTotal.WithLabelValues(string(strategy), "ok").Inc()
		log.WithField("strategy", strategy).Debug("authenticated and cached credentials")
		if c.events != nil {
			c.events.Publish(ctx, events.TopicCredentialRotated, strategy, nil)
		}
		return authenticated, nil
	})
	if err != nil {
		return authstrategy.Credentials{}, classifyAuthErr(err)
	}
	return creds, nil
}

// Refresh forces re-authentication for strategy and updates the cache. It is
// invoked on a 401 response, per the one-refresh-and-retry policy.
func (c *Coordinator) Refresh(ctx context.Context, strategy authstrategy.Strategy) (authstrategy.Credentials, error) {
	if !strategy.Valid() {
		return authstrategy.Credentials{}, apierr.New(apierr.KindConfig, "unknown auth strategy: "+string(strategy))
	}
	c.cache.invalidate(strategy)
	base := c.base.forStrategy(strategy)
	if base.Strategy == "" {
		base.Strategy = strategy
	}
	return c.authenticateAndCache(ctx, strategy, base)
}

// Validate checks that minimal configuration is present for strategy without
// any network I/O.
func (c *Coordinator) Validate(strategy authstrategy.Strategy) error {
	if !strategy.Valid() {
		return apierr.New(apierr.KindConfig, "unknown auth strategy: "+string(strategy))
	}
	return authstrategy.Validate(c.base.forStrategy(strategy))
}

// BaseURL exposes authstrategy.BaseURL for a resolved credential, so callers
// that already hold a Resolved value don't need to import authstrategy.
func BaseURL(strategy authstrategy.Strategy, creds authstrategy.Credentials) string {
	return authstrategy.BaseURL(strategy, creds)
}

// BuildPath exposes authstrategy.BuildPath for a resolved credential.
func BuildPath(strategy authstrategy.Strategy, model, endpoint string, creds authstrategy.Credentials) string {
	return authstrategy.BuildPath(strategy, model, endpoint, creds)
}

func classifyAuthErr(err error) error {
	if _, ok := err.(*apierr.Error); ok {
		return err
	}
	return apierr.Wrap(apierr.KindAuth, err, "credential exchange failed")
}
