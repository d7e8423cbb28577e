package streaming

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"go-genai-core/internal/apierr"
	"go-genai-core/internal/authcoordinator"
	"go-genai-core/internal/authstrategy"
	"go-genai-core/internal/constants"
	"go-genai-core/internal/events"
	"go-genai-core/internal/logging"
	"go-genai-core/internal/sse"
	"go-genai-core/internal/telemetry"
)

const defaultMaxSessions = 1000

// StreamRequest is the already-normalized request body plus routing
// information needed to open the upstream stream.
type StreamRequest struct {
	Model     string
	Body      []byte
	Strategy  authstrategy.Strategy
	Overrides authcoordinator.Overrides

	// BaseURLOverride replaces the strategy's resolved base URL, e.g. to
	// point at a test double or a private endpoint.
	BaseURLOverride string
}

// Engine maintains stream sessions and fans decoded SSE events out to
// subscribers.
type Engine struct {
	coordinator *authcoordinator.Coordinator
	httpClient  *http.Client

	maxSessions int
	maxRetries  int

	mu       sync.Mutex
	sessions map[string]*session

	events *events.Hub
}

// SetEvents attaches an event hub that idle-timeout retries publish to.
func (e *Engine) SetEvents(hub *events.Hub) {
	e.events = hub
}

// New constructs an Engine. httpClient should have no overall timeout; the
// engine enforces its own per-chunk idle deadline.
func New(coordinator *authcoordinator.Coordinator, httpClient *http.Client) *Engine {
	return &Engine{
		coordinator: coordinator,
		httpClient:  httpClient,
		maxSessions: defaultMaxSessions,
		maxRetries:  constants.StreamMaxRetries,
		sessions:    make(map[string]*session),
	}
}

// StartStream opens a new session for req and registers its first
// subscriber, returning the session id and a channel of events.
func (e *Engine) StartStream(ctx context.Context, req StreamRequest) (string, <-chan StreamEvent, func(), error) {
	e.mu.Lock()
	if len(e.sessions) >= e.maxSessions {
		e.mu.Unlock()
		return "", nil, nil, apierr.New(apierr.KindResource, "max_sessions exceeded")
	}
	id := uuid.NewString()
	sess := newSession(id, req.Model, req.Strategy)
	e.sessions[id] = sess
	e.mu.Unlock()

	sub, unsubscribe := e.addSubscriber(sess)

	ingestCtx, cancel := context.WithCancel(ctx)
	sess.mu.Lock()
	sess.cancel = cancel
	sess.mu.Unlock()

	telemetry.StreamSessionsActive.Inc()
	go e.ingest(ingestCtx, sess, req)

	return id, sub.mailbox, unsubscribe, nil
}

// Subscribe attaches an additional subscriber to an existing session. If
// the session is already terminal, the subscriber immediately receives the
// terminal event on its mailbox.
func (e *Engine) Subscribe(sessionID string) (<-chan StreamEvent, func(), error) {
	e.mu.Lock()
	sess, ok := e.sessions[sessionID]
	e.mu.Unlock()
	if !ok {
		return nil, nil, apierr.New(apierr.KindResource, "session not found: "+sessionID)
	}

	sub, unsubscribe := e.addSubscriber(sess)

	sess.mu.Lock()
	state := sess.state
	sess.mu.Unlock()
	if state.terminal() {
		sub.deliver(terminalEvent(state))
	}

	return sub.mailbox, unsubscribe, nil
}

func (e *Engine) addSubscriber(sess *session) (*subscription, func()) {
	sess.mu.Lock()
	id := sess.next
	sess.next++
	var sub *subscription
	sub = newSubscription(id, nil)
	sess.subs[id] = sub
	if sess.graceTimer != nil {
		sess.graceTimer.Stop()
		sess.graceTimer = nil
	}
	sess.mu.Unlock()

	unsubscribe := func() { e.unsubscribe(sess, id) }
	return sub, unsubscribe
}

func (e *Engine) unsubscribe(sess *session, id int64) {
	sess.mu.Lock()
	delete(sess.subs, id)
	empty := len(sess.subs) == 0
	active := !sess.state.terminal()
	if empty && active {
		sess.graceTimer = time.AfterFunc(constants.StreamSubscriberGracePeriod, func() { e.graceExpired(sess) })
	}
	sess.mu.Unlock()
}

func (e *Engine) graceExpired(sess *session) {
	sess.mu.Lock()
	stillEmpty := len(sess.subs) == 0
	sess.mu.Unlock()
	if stillEmpty {
		e.Stop(sess.id)
	}
}

// Stop cancels the ingestion worker, transitions the session to Stopped,
// and notifies remaining subscribers.
func (e *Engine) Stop(sessionID string) error {
	e.mu.Lock()
	sess, ok := e.sessions[sessionID]
	e.mu.Unlock()
	if !ok {
		return apierr.New(apierr.KindResource, "session not found: "+sessionID)
	}

	sess.mu.Lock()
	if sess.state.terminal() {
		sess.mu.Unlock()
		return nil
	}
	sess.state = StateStopped
	cancel := sess.cancel
	sess.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	e.broadcast(sess, StreamEvent{Kind: EventStopped})
	e.scheduleCleanup(sess)
	return nil
}

func (e *Engine) scheduleCleanup(sess *session) {
	time.AfterFunc(constants.StreamSessionCleanupDelay, func() {
		e.mu.Lock()
		delete(e.sessions, sess.id)
		e.mu.Unlock()
		telemetry.StreamSessionsActive.Dec()
	})
}

// Info returns a snapshot of one session.
func (e *Engine) Info(sessionID string) (SessionInfo, bool) {
	e.mu.Lock()
	sess, ok := e.sessions[sessionID]
	e.mu.Unlock()
	if !ok {
		return SessionInfo{}, false
	}
	return sess.snapshot(), true
}

// List returns a snapshot of every tracked session.
func (e *Engine) List() []SessionInfo {
	e.mu.Lock()
	sessions := make([]*session, 0, len(e.sessions))
	for _, sess := range e.sessions {
		sessions = append(sessions, sess)
	}
	e.mu.Unlock()

	out := make([]SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sess.snapshot())
	}
	return out
}

// Stats summarizes all tracked sessions by state.
type Stats struct {
	Total     int
	ByState   map[State]int
}

func (e *Engine) Stats() Stats {
	infos := e.List()
	stats := Stats{Total: len(infos), ByState: make(map[State]int)}
	for _, info := range infos {
		stats.ByState[info.State]++
	}
	return stats
}

func terminalEvent(state State) StreamEvent {
	switch state {
	case StateCompleted:
		return StreamEvent{Kind: EventDone}
	case StateErrored:
		return StreamEvent{Kind: EventErrored}
	default:
		return StreamEvent{Kind: EventStopped}
	}
}

func (e *Engine) broadcast(sess *session, ev StreamEvent) {
	sess.mu.Lock()
	subs := make([]*subscription, 0, len(sess.subs))
	for _, sub := range sess.subs {
		subs = append(subs, sub)
	}
	sess.mu.Unlock()

	for _, sub := range subs {
		if sub.overflowed {
			telemetry.StreamSubscriberOverflowsTotal.Inc()
		}
		sub.drainOverflowMarker()
		sub.deliver(ev)
	}
}

// ingest runs the retry-aware long-lived request loop for sess, feeding
// bytes into a fresh parser each attempt.
func (e *Engine) ingest(ctx context.Context, sess *session, req StreamRequest) {
	attempt := 0
	refreshedOn401 := false

	for {
		resolved, err := e.coordinator.Coordinate(ctx, req.Strategy, req.Overrides)
		if err != nil {
			e.fail(sess, err)
			return
		}

		baseURL := resolved.BaseURL
		if req.BaseURLOverride != "" {
			baseURL = req.BaseURLOverride
		}
		path := authcoordinator.BuildPath(resolved.Strategy, req.Model, "streamGenerateContent", resolved.Creds)
		url := fmt.Sprintf("%s/%s?alt=sse", baseURL, path)

		status, retryAfter, ingestErr := e.runAttempt(ctx, sess, url, resolved, req.Body)
		if ingestErr == nil {
			return // completed or stopped cleanly inside runAttempt
		}

		if status == http.StatusUnauthorized && !refreshedOn401 {
			refreshedOn401 = true
			if _, refreshErr := e.coordinator.Refresh(ctx, req.Strategy); refreshErr != nil {
				e.fail(sess, refreshErr)
				return
			}
			continue
		}
		if status == http.StatusUnauthorized {
			// A 401 that survives the one refresh surfaces as an auth error.
			e.fail(sess, apierr.MapHTTPError(status, nil))
			return
		}

		if !retryableStatus(status, ingestErr) || attempt >= e.maxRetries {
			telemetry.StreamReconnectsTotal.WithLabelValues("exhausted").Inc()
			e.fail(sess, ingestErr)
			return
		}
		telemetry.StreamReconnectsTotal.WithLabelValues("retrying").Inc()
		if apiErr, ok := ingestErr.(*apierr.Error); ok && apiErr.Kind == apierr.KindTimeout && e.events != nil {
			e.events.PublishStreamIdleTimeout(ctx, sess.id, attempt)
		}

		wait := streamBackoff(attempt)
		if retryAfter > wait {
			wait = retryAfter
		}
		sess.mu.Lock()
		sess.retryAttempts++
		sess.mu.Unlock()

		logging.WithSession(sess.id, req.Model, string(req.Strategy), log.Fields{
			"attempt": attempt,
			"wait_ms": logging.DurationMS(wait),
		}).Warn("stream ingestion retrying")

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return
		}
		attempt++
	}
}

// runAttempt performs one HTTP attempt and, if it connects, pumps its body
// until EOF or a fatal error. Returns a non-nil err only when the caller
// should consider retrying or failing; it returns nil once the session has
// already been moved to a terminal state.
func (e *Engine) runAttempt(ctx context.Context, sess *session, url string, resolved authcoordinator.Resolved, body []byte) (int, time.Duration, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, 0, err
	}
	for k, v := range resolved.Headers {
		httpReq.Header[k] = v
	}
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return resp.StatusCode, retryAfter, fmt.Errorf("upstream status %d", resp.StatusCode)
	}

	sess.mu.Lock()
	sess.state = StateActive
	sess.mu.Unlock()

	parser := sse.New()
	buf := make([]byte, 32*1024)
	for {
		n, readErr := readChunkWithIdleTimeout(resp.Body, buf, constants.StreamIdleChunkTimeout)
		if n > 0 {
			events, parseErr := parser.Feed(buf[:n])
			if parseErr != nil {
				log.WithError(parseErr).WithField("session_id", sess.id).Warn("sse decode failure")
			}
			if done := e.deliverAll(sess, events); done {
				return resp.StatusCode, 0, nil
			}
		}
		if readErr == io.EOF {
			events, finalErr := parser.Finalize()
			if finalErr != nil {
				log.WithError(finalErr).WithField("session_id", sess.id).Warn("sse finalize decode failure")
			}
			e.deliverAll(sess, events)
			e.complete(sess)
			return resp.StatusCode, 0, nil
		}
		if readErr != nil {
			return resp.StatusCode, 0, readErr
		}
	}
}

// deliverAll delivers events in order, returning true if a DoneSentinel
// was among them (session already completed, caller should stop).
func (e *Engine) deliverAll(sess *session, events []sse.Event) bool {
	for _, ev := range events {
		sess.mu.Lock()
		sess.eventsCount++
		sess.lastEventAt = time.Now()
		sess.mu.Unlock()

		if ev.Done {
			e.complete(sess)
			return true
		}
		e.broadcast(sess, StreamEvent{Kind: EventData, Data: ev.Data})
	}
	return false
}

func (e *Engine) complete(sess *session) {
	sess.mu.Lock()
	if sess.state.terminal() {
		sess.mu.Unlock()
		return
	}
	sess.state = StateCompleted
	sess.mu.Unlock()
	e.broadcast(sess, StreamEvent{Kind: EventDone})
	e.scheduleCleanup(sess)
}

func (e *Engine) fail(sess *session, cause error) {
	sess.mu.Lock()
	if sess.state.terminal() {
		sess.mu.Unlock()
		return
	}
	sess.state = StateErrored
	sess.mu.Unlock()
	e.broadcast(sess, StreamEvent{Kind: EventErrored, Err: cause})
	e.scheduleCleanup(sess)
}

func retryableStatus(status int, err error) bool {
	if apiErr, ok := err.(*apierr.Error); ok && apiErr.Kind == apierr.KindTimeout {
		return true // idle-chunk timeout: the connection stalled, not a bad response
	}
	if status == 0 {
		return true // transport-level failure
	}
	if status == http.StatusTooManyRequests {
		return true
	}
	if status >= 500 && status <= 599 {
		return true
	}
	return false
}

// readChunkWithIdleTimeout reads one chunk from body, failing with a
// KindTimeout error if no bytes (and no EOF) arrive within timeout. The
// underlying Read keeps running in the background; the caller's deferred
// body.Close unblocks it once runAttempt returns.
func readChunkWithIdleTimeout(body io.Reader, buf []byte, timeout time.Duration) (int, error) {
	type readResult struct {
		n   int
		err error
	}
	resultCh := make(chan readResult, 1)
	go func() {
		n, err := body.Read(buf)
		resultCh <- readResult{n, err}
	}()

	select {
	case res := <-resultCh:
		return res.n, res.err
	case <-time.After(timeout):
		return 0, apierr.New(apierr.KindTimeout, "no data received from upstream within idle timeout")
	}
}

// streamBackoff implements the streaming-specific backoff formula: bounded
// exponential growth plus uniform jitter in [0, 1s), distinct from the
// unary client's multiplicative-jitter formula because streaming retries
// restart a long-lived connection rather than a single short request.
func streamBackoff(attempt int) time.Duration {
	base := constants.StreamBackoffBase
	capped := time.Duration(math.Min(float64(base)*math.Pow(2, float64(attempt)), float64(constants.StreamBackoffCap)))
	return capped + time.Duration(rand.Float64()*float64(constants.StreamBackoffJitter))
}

func parseRetryAfter(v string) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			secs = 0
		}
		return time.Duration(secs) * time.Second, true
	}
	return 0, false
}
