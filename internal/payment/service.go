package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/storefront-pay/internal/common"
	"github.com/noah-isme/storefront-pay/internal/obs"
	"github.com/noah-isme/storefront-pay/internal/resilience"
)

// DefaultCurrency is used when the checkout request omits a currency.
const DefaultCurrency = "usd"

// maxAmount keeps rounded amounts exactly representable.
const maxAmount = 1 << 53

var (
	// ErrInvalidAmount is returned for missing, non-positive or unrepresentable amounts.
	ErrInvalidAmount = errors.New("invalid amount")
)

// Service validates storefront payment requests and forwards them to the provider.
// It keeps no state between calls.
type Service struct {
	Provider  Provider
	SecretKey string
}

// Configured reports whether the provider credentials are usable.
func (s *Service) Configured() error {
	if s == nil || s.Provider == nil {
		return ErrNotConfigured
	}
	return CheckSecretKey(s.SecretKey)
}

// RoundAmount converts a wire amount into integer minor units.
func RoundAmount(amount float64) (int64, error) {
	if math.IsNaN(amount) || amount <= 0 {
		return 0, ErrInvalidAmount
	}
	rounded := math.Round(amount)
	if rounded < 1 || rounded > maxAmount {
		return 0, ErrInvalidAmount
	}
	return int64(rounded), nil
}

// BuildMetadata merges caller metadata with JSON snapshots of the cart and
// shipping address. The snapshot keys always win.
func BuildMetadata(req CheckoutRequest) (map[string]string, error) {
	out := make(map[string]string, len(req.Metadata)+2)
	for k, v := range req.Metadata {
		out[k] = v
	}
	items, err := json.Marshal(req.CartItems)
	if err != nil {
		return nil, fmt.Errorf("encode cart items: %w", err)
	}
	address, err := json.Marshal(req.ShippingAddress)
	if err != nil {
		return nil, fmt.Errorf("encode shipping address: %w", err)
	}
	out["cartItems"] = string(items)
	out["shippingAddress"] = string(address)
	return out, nil
}

// CreateIntent opens a payment intent for a checkout attempt.
func (s *Service) CreateIntent(ctx context.Context, req CheckoutRequest, idempotencyKey string) (IntentResult, error) {
	if err := s.Configured(); err != nil {
		return IntentResult{}, classify(ctx, "create", err)
	}
	amount, err := RoundAmount(float64(req.Amount))
	if err != nil {
		return IntentResult{}, classify(ctx, "create", err)
	}
	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	metadata, err := BuildMetadata(req)
	if err != nil {
		return IntentResult{}, classify(ctx, "create", err)
	}

	intent, err := s.call(ctx, "create", func(ctx context.Context) (Intent, error) {
		return s.Provider.CreateIntent(ctx, IntentRequest{
			Amount:         amount,
			Currency:       currency,
			Metadata:       metadata,
			IdempotencyKey: idempotencyKey,
		})
	}, attribute.Int64("payment.amount", amount), attribute.String("payment.currency", currency))
	if err != nil {
		return IntentResult{}, err
	}
	return IntentResult{ClientSecret: intent.ClientSecret, PaymentIntentID: intent.ID}, nil
}

// ConfirmIntent confirms an existing intent with a payment method.
func (s *Service) ConfirmIntent(ctx context.Context, req ConfirmRequest) (IntentResult, error) {
	if err := s.Configured(); err != nil {
		return IntentResult{}, classify(ctx, "confirm", err)
	}
	intent, err := s.call(ctx, "confirm", func(ctx context.Context) (Intent, error) {
		return s.Provider.ConfirmIntent(ctx, req.PaymentIntentID, req.PaymentMethodID)
	}, attribute.String("payment.intent_id", req.PaymentIntentID))
	if err != nil {
		return IntentResult{}, err
	}
	return resultFrom(intent), nil
}

// GetIntent retrieves an intent by id.
func (s *Service) GetIntent(ctx context.Context, intentID string) (IntentResult, error) {
	if err := s.Configured(); err != nil {
		return IntentResult{}, classify(ctx, "get", err)
	}
	intent, err := s.call(ctx, "get", func(ctx context.Context) (Intent, error) {
		return s.Provider.GetIntent(ctx, intentID)
	}, attribute.String("payment.intent_id", intentID))
	if err != nil {
		return IntentResult{}, err
	}
	return resultFrom(intent), nil
}

func (s *Service) call(ctx context.Context, operation string, fn func(context.Context) (Intent, error), attrs ...attribute.KeyValue) (Intent, error) {
	ctx, span := otel.Tracer("payment.Service").Start(ctx, "PaymentService."+operation)
	defer span.End()
	span.SetAttributes(attrs...)

	start := time.Now()
	intent, err := fn(ctx)
	obs.ObserveProvider(operation, obs.DurationMillis(time.Since(start)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Intent{}, classify(ctx, operation, err)
	}
	span.SetAttributes(attribute.String("payment.intent_id", intent.ID), attribute.String("payment.status", intent.Status))
	obs.CountPaymentIntent(operation, "success")
	return intent, nil
}

func resultFrom(intent Intent) IntentResult {
	return IntentResult{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		Status:          intent.Status,
	}
}

// classify maps an error onto the client-facing AppError and records the outcome.
func classify(ctx context.Context, operation string, err error) error {
	var appErr *common.AppError
	result := "error"
	switch {
	case errors.Is(err, ErrNotConfigured):
		result = "not_configured"
		appErr = &common.AppError{
			Message:    "Payment provider is not configured",
			Details:    ConfigHint,
			HTTPStatus: http.StatusInternalServerError,
			Err:        err,
		}
	case errors.Is(err, ErrInvalidAmount):
		result = "invalid"
		appErr = common.NewAppError("Invalid amount", http.StatusBadRequest, err)
	case IsAuthError(err):
		result = "auth_failed"
		appErr = &common.AppError{
			Message:      "Stripe authentication failed",
			Details:      err.Error(),
			HTTPStatus:   http.StatusUnauthorized,
			Err:          err,
			ProviderAuth: true,
		}
	case errors.Is(err, resilience.ErrOpenCircuit):
		result = "unavailable"
		appErr = &common.AppError{
			Message:    "Payment provider unavailable",
			Details:    "the payment provider is failing, retry shortly",
			HTTPStatus: http.StatusServiceUnavailable,
			Err:        err,
		}
	case operation != "create" && IsNotFound(err):
		result = "not_found"
		appErr = &common.AppError{
			Message:    "Payment intent not found",
			Details:    err.Error(),
			HTTPStatus: http.StatusNotFound,
			Err:        err,
		}
	default:
		message := strings.TrimSpace(err.Error())
		if message == "" {
			message = fallbackMessage(operation)
		}
		appErr = common.NewAppError(message, http.StatusInternalServerError, err)
		obs.ReportError(ctx, "payment."+operation, err)
	}
	obs.CountPaymentIntent(operation, result)
	return appErr
}

func fallbackMessage(operation string) string {
	switch operation {
	case "confirm":
		return "Failed to confirm payment"
	case "get":
		return "Failed to retrieve payment intent"
	default:
		return "Failed to create payment intent"
	}
}
