package payment

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront-pay/internal/common"
)

// Handler exposes the storefront payment routes.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// NewHandler wires a handler with a fresh validator.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc, Validate: validator.New()}
}

// Routes mounts the payment routes on r. createMW wraps only the create
// route, which is where idempotency replay protection belongs.
func (h *Handler) Routes(r chi.Router, createMW ...func(http.Handler) http.Handler) {
	r.With(createMW...).Post("/create-payment-intent", h.CreateIntent)
	r.Post("/confirm-payment", h.Confirm)
	r.Get("/payment-intent/{id}", h.Get)
}

// CreateIntent handles POST /api/stripe/create-payment-intent. Credentials are
// checked before the body is read so a misconfigured server never reaches
// the provider.
func (h *Handler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r, "create") {
		return
	}
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := h.validator().Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "Invalid amount", "")
		return
	}
	res, err := h.Svc.CreateIntent(r.Context(), req, strings.TrimSpace(r.Header.Get(common.IdempotencyHeader)))
	if err != nil {
		h.fail(w, r, "create", err, "Failed to create payment intent")
		return
	}
	common.JSON(w, http.StatusOK, res)
}

// Confirm handles POST /api/stripe/confirm-payment.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r, "confirm") {
		return
	}
	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	req.PaymentIntentID = strings.TrimSpace(req.PaymentIntentID)
	req.PaymentMethodID = strings.TrimSpace(req.PaymentMethodID)
	if err := h.validator().Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "paymentIntentId and paymentMethodId are required", "")
		return
	}
	res, err := h.Svc.ConfirmIntent(r.Context(), req)
	if err != nil {
		h.fail(w, r, "confirm", err, "Failed to confirm payment")
		return
	}
	common.JSON(w, http.StatusOK, res)
}

// Get handles GET /api/stripe/payment-intent/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r, "get") {
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		common.JSONError(w, http.StatusBadRequest, "payment intent id is required", "")
		return
	}
	res, err := h.Svc.GetIntent(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get", err, "Failed to retrieve payment intent")
		return
	}
	common.JSON(w, http.StatusOK, res)
}

func (h *Handler) ready(w http.ResponseWriter, r *http.Request, operation string) bool {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "Payment provider is not configured", ConfigHint)
		return false
	}
	if err := h.Svc.Configured(); err != nil {
		common.WriteAppError(w, classify(r.Context(), operation, err), "")
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, operation string, err error, fallback string) {
	logger := zerolog.Ctx(r.Context())
	status := http.StatusInternalServerError
	if appErr, ok := common.AsAppError(err); ok {
		status = appErr.Status()
	}
	evt := logger.Warn()
	if status >= http.StatusInternalServerError {
		evt = logger.Error()
	}
	evt.Err(err).Str("operation", operation).Int("status", status).Msg("payment request failed")
	common.WriteAppError(w, err, fallback)
}

var defaultValidate = validator.New()

func (h *Handler) validator() *validator.Validate {
	if h.Validate == nil {
		return defaultValidate
	}
	return h.Validate
}
