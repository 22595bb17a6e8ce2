package shipping

import (
	"encoding/json"
	"errors"
	"net/http"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront-pay/internal/common"
	"github.com/noah-isme/storefront-pay/internal/obs"
)

// AddressReq is the shipping address posted by the storefront.
type AddressReq struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country" validate:"required,len=2,alpha"`
}

// Quote is the calculate-shipping response.
type Quote struct {
	Cost    int64  `json:"cost"`
	Methods []Rate `json:"methods"`
}

var defaultValidate = validator.New()

// Handler exposes the calculate-shipping route.
type Handler struct {
	Client   Client
	Origin   string
	Validate *validator.Validate
}

// Calculate handles POST /api/stripe/calculate-shipping.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Client == nil {
		common.JSONError(w, http.StatusInternalServerError, "Shipping is not configured", "")
		return
	}
	var req AddressReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	v := h.Validate
	if v == nil {
		v = defaultValidate
	}
	if err := v.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "A two-letter country code is required", "")
		return
	}
	rates, err := h.Client.Rates(r.Context(), RateReq{
		OriginCountry:      h.Origin,
		DestinationCountry: req.Country,
		State:              req.State,
		PostalCode:         req.PostalCode,
	})
	if err != nil {
		if errors.Is(err, ErrCountryRequired) {
			common.JSONError(w, http.StatusBadRequest, "A two-letter country code is required", "")
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("shipping rates")
		common.JSONError(w, http.StatusInternalServerError, "Failed to calculate shipping", err.Error())
		return
	}
	if len(rates) == 0 {
		common.JSONError(w, http.StatusUnprocessableEntity, "No shipping methods available for this address", "")
		return
	}

	scope := "international"
	if IsDomestic(h.Origin, req.Country) {
		scope = "domestic"
	}
	obs.CountShippingQuote(scope)

	cost := rates[0].Cost
	for _, rate := range rates[1:] {
		if rate.Cost < cost {
			cost = rate.Cost
		}
	}
	common.JSON(w, http.StatusOK, Quote{Cost: cost, Methods: rates})
}
