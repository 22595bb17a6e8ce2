// Package paymentclient calls the storefront payment routes. Every operation
// is a single request: no retries, no caching and no local validation.
package paymentclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// DefaultBaseURL is used when no base URL is supplied.
const DefaultBaseURL = "http://localhost:8080/api"

// HTTPError is returned for any non-2xx response. Body holds the decoded
// error payload as sent by the server.
type HTTPError struct {
	StatusCode int
	Body       ErrorResponse
}

func (e *HTTPError) Error() string {
	if e.Body.Error == "" {
		return fmt.Sprintf("payment api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("payment api: status %d: %s", e.StatusCode, e.Body.Error)
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient makes the client send requests through hc.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithIdempotencyKeys attaches a fresh Idempotency-Key to every create call
// that does not already carry one in its context.
func WithIdempotencyKeys() Option {
	return func(c *Client) { c.autoIdempotency = true }
}

// Client talks to the storefront API.
type Client struct {
	rc              *resty.Client
	httpClient      *http.Client
	timeout         time.Duration
	autoIdempotency bool
}

// New creates a client for baseURL, e.g. "http://localhost:8080/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient != nil {
		c.rc = resty.NewWithClient(c.httpClient)
	} else {
		c.rc = resty.New()
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c.rc.SetBaseURL(baseURL).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	if c.timeout > 0 {
		c.rc.SetTimeout(c.timeout)
	}
	return c
}

type idemKey struct{}

// WithIdempotencyKey returns a context whose create call sends key as the
// Idempotency-Key header.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idemKey{}, key)
}

// CreatePaymentIntent posts req to /stripe/create-payment-intent.
func (c *Client) CreatePaymentIntent(ctx context.Context, req CheckoutRequest) (PaymentIntentResult, error) {
	var out PaymentIntentResult
	r := c.request(ctx).SetBody(req).SetResult(&out)
	key, _ := ctx.Value(idemKey{}).(string)
	if key == "" && c.autoIdempotency {
		key = uuid.NewString()
	}
	if key != "" {
		r.SetHeader("Idempotency-Key", key)
	}
	return out, c.do(r, http.MethodPost, "/stripe/create-payment-intent")
}

// ConfirmPayment posts req to /stripe/confirm-payment.
func (c *Client) ConfirmPayment(ctx context.Context, req ConfirmRequest) (PaymentIntentResult, error) {
	var out PaymentIntentResult
	r := c.request(ctx).SetBody(req).SetResult(&out)
	return out, c.do(r, http.MethodPost, "/stripe/confirm-payment")
}

// GetPaymentIntent fetches /stripe/payment-intent/{id}.
func (c *Client) GetPaymentIntent(ctx context.Context, id string) (PaymentIntentResult, error) {
	var out PaymentIntentResult
	r := c.request(ctx).SetPathParam("id", id).SetResult(&out)
	return out, c.do(r, http.MethodGet, "/stripe/payment-intent/{id}")
}

// CalculateShipping posts addr to /stripe/calculate-shipping.
func (c *Client) CalculateShipping(ctx context.Context, addr Address) (ShippingQuote, error) {
	var out ShippingQuote
	r := c.request(ctx).SetBody(addr).SetResult(&out)
	return out, c.do(r, http.MethodPost, "/stripe/calculate-shipping")
}

// ApplyCoupon posts code and amount to /stripe/apply-coupon.
func (c *Client) ApplyCoupon(ctx context.Context, code string, amount int64) (CouponResult, error) {
	var out CouponResult
	body := struct {
		Code   string `json:"code"`
		Amount int64  `json:"amount"`
	}{code, amount}
	r := c.request(ctx).SetBody(body).SetResult(&out)
	return out, c.do(r, http.MethodPost, "/stripe/apply-coupon")
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.rc.R().SetContext(ctx).SetError(&ErrorResponse{})
}

func (c *Client) do(r *resty.Request, method, path string) error {
	resp, err := r.Execute(method, path)
	if err != nil {
		return err
	}
	if resp.IsSuccess() {
		return nil
	}
	httpErr := &HTTPError{StatusCode: resp.StatusCode()}
	if body, ok := resp.Error().(*ErrorResponse); ok && body != nil {
		httpErr.Body = *body
	}
	return httpErr
}
