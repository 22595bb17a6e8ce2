package paymentclient

// CartItem is a single cart line.
type CartItem struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// Address is a shipping address.
type Address struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// CheckoutRequest is the create-payment-intent payload. Amount is in minor units.
type CheckoutRequest struct {
	Amount          float64           `json:"amount"`
	Currency        string            `json:"currency,omitempty"`
	CartItems       []CartItem        `json:"cartItems"`
	ShippingAddress *Address          `json:"shippingAddress"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// ConfirmRequest is the confirm-payment payload.
type ConfirmRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
	PaymentMethodID string `json:"paymentMethodId"`
}

// PaymentIntentResult is returned by the intent routes.
type PaymentIntentResult struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
	Status          string `json:"status,omitempty"`
}

// ShippingMethod is one quoted delivery option.
type ShippingMethod struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Cost          int64  `json:"cost"`
	EstimatedDays string `json:"estimated_days"`
}

// ShippingQuote is the calculate-shipping response. Cost is the cheapest method.
type ShippingQuote struct {
	Cost    int64            `json:"cost"`
	Methods []ShippingMethod `json:"methods"`
}

// CouponResult is the apply-coupon response.
type CouponResult struct {
	Discount int64  `json:"discount"`
	Valid    bool   `json:"valid"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message,omitempty"`
}

// ErrorResponse is the error body returned by every route.
type ErrorResponse struct {
	Error       string `json:"error"`
	Details     string `json:"details,omitempty"`
	StripeError bool   `json:"stripeError,omitempty"`
}
