package common

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the error payload returned by the storefront routes. StripeError
// is only set when the payment provider rejected our credentials.
type ErrorBody struct {
	Error       string `json:"error"`
	Details     string `json:"details,omitempty"`
	StripeError bool   `json:"stripeError,omitempty"`
}

// JSON writes the provided value to the response writer as JSON.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError renders an error response using the canonical error shape.
func JSONError(w http.ResponseWriter, status int, message, details string) {
	JSON(w, status, ErrorBody{Error: message, Details: details})
}

// WriteAppError renders err using its attached status when it is an AppError,
// falling back to a 500 with the provided message.
func WriteAppError(w http.ResponseWriter, err error, fallback string) {
	if appErr, ok := AsAppError(err); ok {
		JSON(w, appErr.Status(), ErrorBody{
			Error:       appErr.Message,
			Details:     appErr.Details,
			StripeError: appErr.ProviderAuth,
		})
		return
	}
	message := fallback
	if err != nil && err.Error() != "" {
		message = err.Error()
	}
	JSONError(w, http.StatusInternalServerError, message, "")
}
