package payment

import (
	"errors"
	"strings"
)

// ErrNotConfigured indicates the provider secret key is missing or still a placeholder.
var ErrNotConfigured = errors.New("payment provider is not configured")

// ConfigHint tells operators how to fix a missing credential.
const ConfigHint = "Set STRIPE_SECRET_KEY to your Stripe secret key in the environment or .env file and restart the server."

var placeholderMarkers = []string{
	"placeholder",
	"your_",
	"your-",
	"replace",
	"changeme",
	"xxx",
	"<",
	"...",
}

// CheckSecretKey returns ErrNotConfigured when key is empty or recognisably a template value.
func CheckSecretKey(key string) error {
	trimmed := strings.ToLower(strings.TrimSpace(key))
	if trimmed == "" {
		return ErrNotConfigured
	}
	for _, marker := range placeholderMarkers {
		if strings.Contains(trimmed, marker) {
			return ErrNotConfigured
		}
	}
	return nil
}
