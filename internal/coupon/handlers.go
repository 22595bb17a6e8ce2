package coupon

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront-pay/internal/common"
	"github.com/noah-isme/storefront-pay/internal/obs"
)

// maxAmount matches the largest amount the payment routes accept.
const maxAmount = 1 << 53

// ApplyReq is the apply-coupon request body. Amount is the order total in minor units.
type ApplyReq struct {
	Code   string  `json:"code" validate:"required"`
	Amount float64 `json:"amount" validate:"gte=0"`
}

// Result is the apply-coupon response.
type Result struct {
	Discount int64  `json:"discount"`
	Valid    bool   `json:"valid"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Handler exposes the apply-coupon route.
type Handler struct {
	Store    Store
	Validate *validator.Validate
	Now      func() time.Time
}

// Apply handles POST /api/stripe/apply-coupon. Coupons that exist but cannot
// be applied are a normal outcome and return 200 with valid=false.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "Coupons are not configured", "")
		return
	}
	var req ApplyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	req.Code = strings.TrimSpace(req.Code)
	if err := h.validator().Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "A coupon code and a non-negative amount are required", "")
		return
	}
	if math.IsNaN(req.Amount) || math.Round(req.Amount) > maxAmount {
		common.JSONError(w, http.StatusBadRequest, "A coupon code and a non-negative amount are required", "")
		return
	}
	amount := int64(math.Round(req.Amount))
	code := NormalizeCode(req.Code)

	rule, err := h.Store.Get(r.Context(), code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			obs.CountCoupon("not_found")
			common.JSON(w, http.StatusOK, Result{Code: code, Message: "Coupon code is not valid"})
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Str("code", code).Msg("coupon lookup")
		common.JSONError(w, http.StatusInternalServerError, "Failed to apply coupon", err.Error())
		return
	}

	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	if err := rule.Validate(now, amount); err != nil {
		obs.CountCoupon("rejected")
		common.JSON(w, http.StatusOK, Result{Code: code, Message: rejectionMessage(err)})
		return
	}
	obs.CountCoupon("applied")
	common.JSON(w, http.StatusOK, Result{Discount: Compute(amount, rule), Valid: true, Code: code})
}

func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, ErrExpired):
		return "Coupon has expired"
	case errors.Is(err, ErrMinimumSpendUnmet):
		return "Order total does not meet the coupon minimum"
	default:
		return "Coupon cannot be applied"
	}
}

var defaultValidate = validator.New()

func (h *Handler) validator() *validator.Validate {
	if h.Validate == nil {
		return defaultValidate
	}
	return h.Validate
}
