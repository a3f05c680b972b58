// Package httpx provides the HTTP client used for tool downloads: bounded
// retries for idempotent requests with exponential backoff.
package httpx

import (
	"errors"
	"io"
	"net/http"
	"time"
)

const (
	defaultTimeout  = 5 * time.Minute
	defaultBackoff  = 500 * time.Millisecond
	maxBackoff      = 8 * time.Second
	defaultAgent    = "tunegrab/1.0"
	drainBodyLimit  = 64 << 10
	defaultRetryMax = 2
)

// Transport retries GET/HEAD requests without a body when the round trip
// fails or the server answers 5xx/429. Other requests pass through once.
type Transport struct {
	Base http.RoundTripper

	// RetryMax is the number of retries after the first attempt.
	RetryMax int
	// Backoff is the delay before the first retry; it doubles per attempt.
	Backoff time.Duration

	UserAgent string

	// sleep is swapped in tests.
	sleep func(time.Duration, <-chan struct{}) bool
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) && req.Body == nil
	retries := max(t.RetryMax, 0)
	if !canRetry {
		retries = 0
	}
	delay := t.Backoff
	if delay <= 0 {
		delay = defaultBackoff
	}

	var (
		resp    *http.Response
		lastErr error
	)
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 && !t.wait(delay, req) {
			break
		}
		if attempt > 0 {
			delay = min(delay*2, maxBackoff)
		}

		r := req.Clone(req.Context())
		if r.Header.Get("User-Agent") == "" {
			agent := t.UserAgent
			if agent == "" {
				agent = defaultAgent
			}
			r.Header.Set("User-Agent", agent)
		}

		resp, lastErr = base.RoundTrip(r)
		if lastErr == nil && !retryableStatus(resp.StatusCode) {
			return resp, nil
		}
		if req.Context().Err() != nil {
			break
		}
		if lastErr == nil && attempt < retries {
			drain(resp)
			resp = nil
		}
	}
	if resp != nil {
		return resp, nil
	}
	if lastErr == nil {
		lastErr = req.Context().Err()
	}
	return nil, lastErr
}

func (t *Transport) wait(delay time.Duration, req *http.Request) bool {
	if t.sleep != nil {
		return t.sleep(delay, req.Context().Done())
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-req.Context().Done():
		return false
	}
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.CopyN(io.Discard, resp.Body, drainBodyLimit)
	_ = resp.Body.Close()
}

// NewClient builds a client whose transport retries up to retries times and
// whose overall request deadline is timeout (default five minutes).
func NewClient(timeout time.Duration, retries int) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if retries < 0 {
		retries = defaultRetryMax
	}
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.TLSHandshakeTimeout = 15 * time.Second
	base.ResponseHeaderTimeout = 30 * time.Second
	return &http.Client{
		Transport: &Transport{Base: base, RetryMax: retries, Backoff: defaultBackoff},
		Timeout:   timeout,
	}
}
