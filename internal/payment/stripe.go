package payment

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
)

// StripeConfig configures the Stripe-backed provider.
type StripeConfig struct {
	SecretKey string
	// APIURL overrides the Stripe API host, e.g. for stripe-mock or tests.
	APIURL     string
	HTTPClient *http.Client
	Logger     stripe.LeveledLoggerInterface
}

// Stripe implements Provider on top of the Stripe payment intents API.
// The SDK's own retries are disabled; failures surface on the first attempt.
type Stripe struct {
	client *paymentintent.Client
}

// NewStripe builds a provider with its own backend so the package-level
// stripe.Key is never touched.
func NewStripe(cfg StripeConfig) *Stripe {
	backendCfg := &stripe.BackendConfig{
		HTTPClient:        cfg.HTTPClient,
		MaxNetworkRetries: stripe.Int64(0),
	}
	if cfg.Logger != nil {
		backendCfg.LeveledLogger = cfg.Logger
	}
	if url := strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/"); url != "" {
		backendCfg.URL = stripe.String(url)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg)
	return &Stripe{client: &paymentintent.Client{B: backend, Key: cfg.SecretKey}}
}

// CreateIntent opens a payment intent with automatic payment methods enabled.
func (s *Stripe) CreateIntent(ctx context.Context, req IntentRequest) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for key, value := range req.Metadata {
		params.AddMetadata(key, value)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	pi, err := s.client.New(params)
	if err != nil {
		return Intent{}, translateStripeError(err)
	}
	return toIntent(pi), nil
}

// ConfirmIntent confirms an intent with the given payment method.
func (s *Stripe) ConfirmIntent(ctx context.Context, intentID, paymentMethodID string) (Intent, error) {
	params := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(paymentMethodID),
	}
	params.Context = ctx
	pi, err := s.client.Confirm(intentID, params)
	if err != nil {
		return Intent{}, translateStripeError(err)
	}
	return toIntent(pi), nil
}

// GetIntent retrieves an intent by id.
func (s *Stripe) GetIntent(ctx context.Context, intentID string) (Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := s.client.Get(intentID, params)
	if err != nil {
		return Intent{}, translateStripeError(err)
	}
	return toIntent(pi), nil
}

func toIntent(pi *stripe.PaymentIntent) Intent {
	if pi == nil {
		return Intent{}
	}
	return Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}
}

func translateStripeError(err error) error {
	var se *stripe.Error
	if !errors.As(err, &se) {
		return err
	}
	msg := strings.TrimSpace(se.Msg)
	if msg == "" {
		msg = "stripe request failed"
	}
	return &ProviderError{
		StatusCode: se.HTTPStatusCode,
		Type:       string(se.Type),
		Code:       string(se.Code),
		Message:    msg,
		Err:        err,
	}
}
