package payment

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// CartItem is a single cart line as sent by the storefront.
type CartItem struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// Address is a shipping address in the storefront's snake_case shape.
type Address struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Amount is a wire amount in minor units. Storefront clients send it either
// as a JSON number or as a numeric string; a string that does not parse
// decodes to NaN so it fails amount validation instead of body decoding.
type Amount float64

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*a = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			v = math.NaN()
		}
		*a = Amount(v)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = Amount(v)
	return nil
}

// CheckoutRequest is the body of a create-payment-intent call. Amount is in
// minor units and may arrive fractional; it is rounded before forwarding.
type CheckoutRequest struct {
	Amount          Amount            `json:"amount" validate:"gt=0"`
	Currency        string            `json:"currency,omitempty"`
	CartItems       []CartItem        `json:"cartItems"`
	ShippingAddress *Address          `json:"shippingAddress"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// ConfirmRequest is the body of a confirm-payment call.
type ConfirmRequest struct {
	PaymentIntentID string `json:"paymentIntentId" validate:"required"`
	PaymentMethodID string `json:"paymentMethodId" validate:"required"`
}

// IntentResult is returned to the storefront. The client secret is handed to
// the provider's client-side widget to finish payment.
type IntentResult struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
	Status          string `json:"status,omitempty"`
}
