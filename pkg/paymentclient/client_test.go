package paymentclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-pay/pkg/paymentclient"
)

func TestCreatePaymentIntentSendsPayload(t *testing.T) {
	var got map[string]any
	var idem string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/stripe/create-payment-intent", r.URL.Path)
		idem = r.Header.Get("Idempotency-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"client_secret":"pi_1_secret_x","payment_intent_id":"pi_1"}`))
	}))
	defer srv.Close()

	c := paymentclient.New(srv.URL + "/api/")
	ctx := paymentclient.WithIdempotencyKey(context.Background(), "order-42")
	res, err := c.CreatePaymentIntent(ctx, paymentclient.CheckoutRequest{
		Amount:          2550,
		CartItems:       []paymentclient.CartItem{{ProductID: "p1", Quantity: 2, Price: 12.75}},
		ShippingAddress: &paymentclient.Address{Name: "Ada", Country: "US"},
	})
	require.NoError(t, err)
	require.Equal(t, paymentclient.PaymentIntentResult{ClientSecret: "pi_1_secret_x", PaymentIntentID: "pi_1"}, res)
	require.Equal(t, "order-42", idem)
	require.EqualValues(t, 2550, got["amount"])
	require.NotContains(t, got, "currency")
	require.Len(t, got["cartItems"], 1)
}

func TestAutoIdempotencyKeys(t *testing.T) {
	keys := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys <- r.Header.Get("Idempotency-Key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"client_secret":"s","payment_intent_id":"pi"}`))
	}))
	defer srv.Close()

	c := paymentclient.New(srv.URL, paymentclient.WithIdempotencyKeys())
	for i := 0; i < 2; i++ {
		_, err := c.CreatePaymentIntent(context.Background(), paymentclient.CheckoutRequest{Amount: 100})
		require.NoError(t, err)
	}
	first, second := <-keys, <-keys
	require.NotEmpty(t, first)
	require.NotEqual(t, first, second)
}

func TestErrorResponsesSurfaceAsHTTPError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Stripe authentication failed","details":"Invalid API Key","stripeError":true}`))
	}))
	defer srv.Close()

	c := paymentclient.New(srv.URL)
	_, err := c.CreatePaymentIntent(context.Background(), paymentclient.CheckoutRequest{Amount: 100})
	var httpErr *paymentclient.HTTPError
	require.True(t, errors.As(err, &httpErr))
	require.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	require.Equal(t, paymentclient.ErrorResponse{Error: "Stripe authentication failed", Details: "Invalid API Key", StripeError: true}, httpErr.Body)
	require.EqualValues(t, 1, calls.Load(), "no retries")
}

func TestServerErrorWithoutJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := paymentclient.New(srv.URL).GetPaymentIntent(context.Background(), "pi_1")
	var httpErr *paymentclient.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	require.Empty(t, httpErr.Body.Error)
}

func TestTransportFailureIsReturnedAsIs(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := paymentclient.New(url).ApplyCoupon(context.Background(), "X", 100)
	require.Error(t, err)
	var httpErr *paymentclient.HTTPError
	require.False(t, errors.As(err, &httpErr))
}

func TestSiblingRoutes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/stripe/payment-intent/pi_9", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"client_secret":"s9","payment_intent_id":"pi_9","status":"succeeded"}`))
	})
	mux.HandleFunc("/stripe/confirm-payment", func(w http.ResponseWriter, r *http.Request) {
		var body paymentclient.ConfirmRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "pm_card_visa", body.PaymentMethodID)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"client_secret":"s9","payment_intent_id":"` + body.PaymentIntentID + `","status":"processing"}`))
	})
	mux.HandleFunc("/stripe/calculate-shipping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"cost":599,"methods":[{"id":"standard","name":"Standard","cost":599,"estimated_days":"3-5"}]}`))
	})
	mux.HandleFunc("/stripe/apply-coupon", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Code   string `json:"code"`
			Amount int64  `json:"amount"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(paymentclient.CouponResult{Discount: body.Amount / 10, Valid: true, Code: body.Code})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := paymentclient.New(srv.URL)
	ctx := context.Background()

	got, err := c.GetPaymentIntent(ctx, "pi_9")
	require.NoError(t, err)
	require.Equal(t, "succeeded", got.Status)

	got, err = c.ConfirmPayment(ctx, paymentclient.ConfirmRequest{PaymentIntentID: "pi_9", PaymentMethodID: "pm_card_visa"})
	require.NoError(t, err)
	require.Equal(t, "pi_9", got.PaymentIntentID)
	require.Equal(t, "processing", got.Status)

	quote, err := c.CalculateShipping(ctx, paymentclient.Address{Country: "US"})
	require.NoError(t, err)
	require.Equal(t, int64(599), quote.Cost)
	require.Len(t, quote.Methods, 1)

	coupon, err := c.ApplyCoupon(ctx, "WELCOME10", 2500)
	require.NoError(t, err)
	require.Equal(t, paymentclient.CouponResult{Discount: 250, Valid: true, Code: "WELCOME10"}, coupon)
}
