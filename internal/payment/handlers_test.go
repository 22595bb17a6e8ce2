package payment_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-pay/internal/payment"
)

const testKey = "sk_test_51HqLyjWDarjtT1zdp7dc"

type stubProvider struct {
	mu       sync.Mutex
	creates  []payment.IntentRequest
	confirms [][2]string
	gets     []string
	intent   payment.Intent
	err      error
}

func (s *stubProvider) CreateIntent(_ context.Context, req payment.IntentRequest) (payment.Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates = append(s.creates, req)
	return s.intent, s.err
}

func (s *stubProvider) ConfirmIntent(_ context.Context, id, method string) (payment.Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirms = append(s.confirms, [2]string{id, method})
	return s.intent, s.err
}

func (s *stubProvider) GetIntent(_ context.Context, id string) (payment.Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets = append(s.gets, id)
	return s.intent, s.err
}

func (s *stubProvider) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.creates) + len(s.confirms) + len(s.gets)
}

func newRouter(provider payment.Provider, key string) http.Handler {
	h := payment.NewHandler(&payment.Service{Provider: provider, SecretKey: key})
	r := chi.NewRouter()
	r.Route("/api/stripe", func(sr chi.Router) { h.Routes(sr) })
	return r
}

func fakeCheckout(t *testing.T, amount float64) map[string]any {
	t.Helper()
	addr := gofakeit.Address()
	return map[string]any{
		"amount": amount,
		"cartItems": []map[string]any{
			{"productId": gofakeit.UUID(), "quantity": 1, "price": 1275},
			{"productId": gofakeit.UUID(), "quantity": 1, "price": 1275},
		},
		"shippingAddress": map[string]any{
			"name":        gofakeit.Name(),
			"line1":       addr.Street,
			"city":        addr.City,
			"state":       addr.State,
			"postal_code": addr.Zip,
			"country":     "US",
		},
	}
}

func post(t *testing.T, h http.Handler, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestCreateIntentSuccess(t *testing.T) {
	provider := &stubProvider{intent: payment.Intent{ID: "pi_123", ClientSecret: "pi_123_secret_abc", Status: payment.StatusRequiresPaymentMethod}}
	router := newRouter(provider, testKey)

	rr := post(t, router, "/api/stripe/create-payment-intent", fakeCheckout(t, 2550), "Idempotency-Key", "checkout-42")
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"client_secret":"pi_123_secret_abc","payment_intent_id":"pi_123"}`, rr.Body.String())

	require.Len(t, provider.creates, 1)
	sent := provider.creates[0]
	require.Equal(t, int64(2550), sent.Amount)
	require.Equal(t, "usd", sent.Currency)
	require.Equal(t, "checkout-42", sent.IdempotencyKey)

	var items []payment.CartItem
	require.NoError(t, json.Unmarshal([]byte(sent.Metadata["cartItems"]), &items))
	require.Len(t, items, 2)
	var addr payment.Address
	require.NoError(t, json.Unmarshal([]byte(sent.Metadata["shippingAddress"]), &addr))
	require.Equal(t, "US", addr.Country)
}

func TestCreateIntentRoundsFractionalAmount(t *testing.T) {
	provider := &stubProvider{intent: payment.Intent{ID: "pi_1", ClientSecret: "pi_1_secret"}}
	router := newRouter(provider, testKey)

	body := fakeCheckout(t, 19.6)
	body["currency"] = "EUR"
	rr := post(t, router, "/api/stripe/create-payment-intent", body)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, int64(20), provider.creates[0].Amount)
	require.Equal(t, "eur", provider.creates[0].Currency)
}

func TestCreateIntentAcceptsNumericStringAmount(t *testing.T) {
	provider := &stubProvider{intent: payment.Intent{ID: "pi_2", ClientSecret: "pi_2_secret"}}
	router := newRouter(provider, testKey)

	body := fakeCheckout(t, 0)
	body["amount"] = " 2550 "
	rr := post(t, router, "/api/stripe/create-payment-intent", body)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, int64(2550), provider.creates[0].Amount)

	for _, bad := range []string{"abc", "", "-10"} {
		body["amount"] = bad
		rr = post(t, router, "/api/stripe/create-payment-intent", body)
		require.Equal(t, http.StatusBadRequest, rr.Code, "amount %q", bad)
		require.Equal(t, "Invalid amount", decode(t, rr)["error"])
	}
	require.Equal(t, 1, provider.calls())
}

func TestCreateIntentRejectsInvalidAmount(t *testing.T) {
	for _, amount := range []float64{0, -1, -2550} {
		provider := &stubProvider{}
		router := newRouter(provider, testKey)
		rr := post(t, router, "/api/stripe/create-payment-intent", fakeCheckout(t, amount))
		require.Equal(t, http.StatusBadRequest, rr.Code, "amount %v", amount)
		require.JSONEq(t, `{"error":"Invalid amount"}`, rr.Body.String())
		require.Zero(t, provider.calls())
	}

	provider := &stubProvider{}
	rr := post(t, newRouter(provider, testKey), "/api/stripe/create-payment-intent", map[string]any{"currency": "usd"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "Invalid amount", decode(t, rr)["error"])
	require.Zero(t, provider.calls())
}

func TestCreateIntentRequiresCredentials(t *testing.T) {
	for _, key := range []string{"", "sk_test_placeholder", "sk_test_your_secret_key"} {
		provider := &stubProvider{}
		router := newRouter(provider, key)

		for _, body := range []any{fakeCheckout(t, 2550), map[string]any{"amount": -5}} {
			rr := post(t, router, "/api/stripe/create-payment-intent", body)
			require.Equal(t, http.StatusInternalServerError, rr.Code)
			out := decode(t, rr)
			require.Equal(t, "Payment provider is not configured", out["error"])
			require.Contains(t, out["details"], "STRIPE_SECRET_KEY")
		}

		req := httptest.NewRequest(http.MethodPost, "/api/stripe/create-payment-intent", bytes.NewBufferString("{not json"))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusInternalServerError, rr.Code)
		require.Zero(t, provider.calls())
	}
}

func TestCreateIntentAuthFailure(t *testing.T) {
	provider := &stubProvider{err: &payment.ProviderError{StatusCode: http.StatusUnauthorized, Message: "Invalid API Key provided: sk_test_****dc"}}
	rr := post(t, newRouter(provider, testKey), "/api/stripe/create-payment-intent", fakeCheckout(t, 2550))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	out := decode(t, rr)
	require.Equal(t, "Stripe authentication failed", out["error"])
	require.Equal(t, "Invalid API Key provided: sk_test_****dc", out["details"])
	require.Equal(t, true, out["stripeError"])
}

func TestCreateIntentProviderFailure(t *testing.T) {
	provider := &stubProvider{err: &payment.ProviderError{StatusCode: http.StatusBadRequest, Message: "Amount must be at least $0.50 usd"}}
	rr := post(t, newRouter(provider, testKey), "/api/stripe/create-payment-intent", fakeCheckout(t, 10))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	out := decode(t, rr)
	require.Equal(t, "Amount must be at least $0.50 usd", out["error"])
	require.NotContains(t, out, "stripeError")
}

func TestCreateIntentMalformedBody(t *testing.T) {
	provider := &stubProvider{}
	req := httptest.NewRequest(http.MethodPost, "/api/stripe/create-payment-intent", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	newRouter(provider, testKey).ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "Invalid request body", decode(t, rr)["error"])
	require.Zero(t, provider.calls())
}

func TestConfirmPayment(t *testing.T) {
	provider := &stubProvider{intent: payment.Intent{ID: "pi_9", ClientSecret: "pi_9_secret", Status: payment.StatusSucceeded}}
	router := newRouter(provider, testKey)

	rr := post(t, router, "/api/stripe/confirm-payment", map[string]string{"paymentIntentId": "pi_9", "paymentMethodId": "pm_card_visa"})
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"client_secret":"pi_9_secret","payment_intent_id":"pi_9","status":"succeeded"}`, rr.Body.String())
	require.Equal(t, [][2]string{{"pi_9", "pm_card_visa"}}, provider.confirms)

	rr = post(t, router, "/api/stripe/confirm-payment", map[string]string{"paymentIntentId": "pi_9"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Len(t, provider.confirms, 1)
}

func TestGetPaymentIntent(t *testing.T) {
	provider := &stubProvider{intent: payment.Intent{ID: "pi_7", ClientSecret: "pi_7_secret", Status: payment.StatusProcessing}}
	router := newRouter(provider, testKey)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/stripe/payment-intent/pi_7", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "processing", decode(t, rr)["status"])
	require.Equal(t, []string{"pi_7"}, provider.gets)

	provider.err = &payment.ProviderError{StatusCode: http.StatusNotFound, Message: "No such payment_intent: 'pi_missing'"}
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/stripe/payment-intent/pi_missing", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "Payment intent not found", decode(t, rr)["error"])
}
