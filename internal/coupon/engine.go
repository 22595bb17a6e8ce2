package coupon

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when no coupon exists for a code.
	ErrNotFound = errors.New("coupon not found")
	// ErrExpired is returned when the coupon has already expired.
	ErrExpired = errors.New("coupon expired")
	// ErrMinimumSpendUnmet indicates the order total did not meet the coupon requirement.
	ErrMinimumSpendUnmet = errors.New("coupon minimum spend not met")
)

// Coupon kinds.
const (
	KindPercent = "percent"
	KindFixed   = "fixed"
)

// Rule captures the runtime constraints of a coupon. For percent coupons
// Value is in basis points; for fixed coupons it is in minor units.
type Rule struct {
	Code      string
	Kind      string
	Value     int64
	MinSpend  int64
	ExpiresAt *time.Time
}

// NormalizeCode canonicalises a coupon code for lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate ensures the rule can be applied at the provided instant and order total.
func (r Rule) Validate(now time.Time, amount int64) error {
	if r.ExpiresAt != nil && now.After(*r.ExpiresAt) {
		return ErrExpired
	}
	if amount < r.MinSpend {
		return ErrMinimumSpendUnmet
	}
	return nil
}

// Compute determines the discount for amount, never exceeding it.
func Compute(amount int64, r Rule) int64 {
	if amount <= 0 || r.Value <= 0 {
		return 0
	}
	discount := r.Value
	if strings.EqualFold(r.Kind, KindPercent) {
		bps := min(r.Value, 10000)
		// split so amount*bps never overflows int64
		discount = amount/10000*bps + amount%10000*bps/10000
	}
	return max(0, min(discount, amount))
}
