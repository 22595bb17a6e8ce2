package common

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestIdemRejectsReplay(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	calls := 0
	handler := Idem{R: client, TTL: time.Minute}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRequest(http.MethodPost, "/api/stripe/create-payment-intent", nil)
	first.Header.Set(IdempotencyHeader, "checkout-1")
	rr1 := httptest.NewRecorder()
	handler.ServeHTTP(rr1, first)
	require.Equal(t, http.StatusOK, rr1.Code)

	second := httptest.NewRequest(http.MethodPost, "/api/stripe/create-payment-intent", nil)
	second.Header.Set(IdempotencyHeader, "checkout-1")
	rr2 := httptest.NewRecorder()
	handler.ServeHTTP(rr2, second)
	require.Equal(t, http.StatusConflict, rr2.Code)
	require.Equal(t, 1, calls)

	ttl := mr.TTL(hashKey("/api/stripe/create-payment-intent|checkout-1"))
	require.Equal(t, time.Minute, ttl)
}

func TestIdemReleasesKeyAfterFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	statuses := []int{http.StatusInternalServerError, http.StatusOK, http.StatusOK}
	calls := 0
	handler := Idem{R: client, TTL: time.Minute}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		JSON(w, statuses[calls], map[string]string{"attempt": "x"})
		calls++
	}))

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/stripe/create-payment-intent", nil)
		req.Header.Set(IdempotencyHeader, "checkout-2")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	require.Equal(t, http.StatusInternalServerError, send())
	require.False(t, mr.Exists(hashKey("/api/stripe/create-payment-intent|checkout-2")))
	require.Equal(t, http.StatusOK, send(), "a failed attempt must not block the retry")
	require.Equal(t, http.StatusConflict, send())
	require.Equal(t, 2, calls)
}

func TestIdemReleasesKeyAfterPanic(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	handler := Idem{R: client, TTL: time.Minute}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/stripe/create-payment-intent", nil)
	req.Header.Set(IdempotencyHeader, "checkout-3")
	require.Panics(t, func() { handler.ServeHTTP(httptest.NewRecorder(), req) })
	require.False(t, mr.Exists(hashKey("/api/stripe/create-payment-intent|checkout-3")))
}

func TestIdemPassesThroughWithoutKey(t *testing.T) {
	calls := 0
	handler := Idem{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
		require.Equal(t, http.StatusOK, rr.Code)
	}
	require.Equal(t, 2, calls)
}
