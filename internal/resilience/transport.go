package resilience

import (
	"net/http"
	"time"
)

// Transport is an http.RoundTripper that consults a Breaker before each
// request. Server errors and transport failures count against the breaker;
// client errors (4xx) do not, since they say nothing about upstream health.
// It never retries.
type Transport struct {
	Base    http.RoundTripper
	Breaker *Breaker
}

// NewTransport wraps base (http.DefaultTransport when nil) with breaker.
func NewTransport(base http.RoundTripper, breaker *Breaker) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if breaker == nil {
		breaker = NewBreaker(1, 1, time.Second)
	}
	return &Transport{Base: base, Breaker: breaker}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if !t.Breaker.Allow(ctx) {
		if req.Body != nil {
			_ = req.Body.Close()
		}
		return nil, ErrOpenCircuit
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if err != nil && ctx.Err() != nil {
		// the caller gave up; that says nothing about the provider
		t.Breaker.Abort()
		return resp, err
	}
	t.Breaker.Report(ctx, err == nil && resp.StatusCode < http.StatusInternalServerError)
	return resp, err
}
