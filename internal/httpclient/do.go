package httpclient

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// Attempt describes the outcome of DoWithRetry, for callers that want to
// log or record metrics about the retry behavior without re-deriving it.
type Attempt struct {
	Response *http.Response
	Err      error
	Duration time.Duration
	Retries  int
}

// DoWithRetry executes req via cli, retrying per policy on retryable
// network errors and status codes. newReq rebuilds the request for each
// attempt since a consumed request body cannot be replayed.
//
// Callers MUST close Attempt.Response.Body when Response is non-nil.
func DoWithRetry(cli *http.Client, policy RetryPolicy, newReq func() (*http.Request, error)) Attempt {
	doOnce := func() (*http.Response, error, time.Duration) {
		req, err := newReq()
		if err != nil {
			return nil, err, 0
		}
		start := time.Now()
		resp, err := cli.Do(req)
		return resp, err, time.Since(start)
	}

	resp, err, dur := doOnce()
	tries := 0
	if policy.Max > 0 {
		for {
			should, wait := policy.shouldRetry(resp, err, tries)
			if !should || tries >= policy.Max {
				break
			}
			if resp != nil {
				_ = resp.Body.Close()
			}
			log.WithFields(log.Fields{
				"attempt": tries + 1,
				"wait_ms": wait.Milliseconds(),
				"status":  statusOf(resp),
			}).Debug("retrying upstream request")
			time.Sleep(wait)
			resp, err, dur = doOnce()
			tries++
		}
	}

	if err != nil {
		log.WithField("class", ClassifyNetworkError(err)).Warn("upstream request failed")
	}

	return Attempt{Response: resp, Err: err, Duration: dur, Retries: tries}
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}
