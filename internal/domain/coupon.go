package domain

import (
	"errors"
	"time"
)

// Coupon discount type constants.
const (
	CouponTypeFlat       = "flat"
	CouponTypePercentage = "percentage"
)

// Coupon validation errors.
var (
	ErrCouponInactive      = errors.New("coupon is not active")
	ErrCouponExpired       = errors.New("coupon is outside its validity window")
	ErrCouponLimitReached  = errors.New("coupon usage limit reached")
	ErrCouponMinimumNotMet = errors.New("cart total below coupon minimum purchase amount")
)

// Coupon represents a discount coupon.
type Coupon struct {
	ID                string    `json:"id"`
	Code              string    `json:"code"`
	DiscountAmount    float64   `json:"discount_amount"`
	Type              string    `json:"type"`
	StartDate         time.Time `json:"start_date"`
	EndDate           time.Time `json:"end_date"`
	IsActive          bool      `json:"is_active"`
	UsageLimit        int       `json:"usage_limit"`
	UsedCount         int       `json:"used_count"`
	MinPurchaseAmount float64   `json:"min_purchase_amount"`
	CreatedBy         string    `json:"created_by,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ValidCouponTypes returns the set of valid coupon discount types.
func ValidCouponTypes() []string {
	return []string{CouponTypeFlat, CouponTypePercentage}
}

// IsValidCouponType checks whether the given type string is a valid coupon type.
func IsValidCouponType(t string) bool {
	for _, v := range ValidCouponTypes() {
		if v == t {
			return true
		}
	}
	return false
}

// Validate checks whether the coupon can be applied to a cart of the given
// total at the given time and returns the computed discount. The validity
// window is inclusive on both ends.
func (c *Coupon) Validate(now time.Time, cartTotal float64) (float64, error) {
	if !c.IsActive {
		return 0, ErrCouponInactive
	}
	if now.Before(c.StartDate) || now.After(c.EndDate) {
		return 0, ErrCouponExpired
	}
	if c.UsedCount >= c.UsageLimit {
		return 0, ErrCouponLimitReached
	}
	if cartTotal < c.MinPurchaseAmount {
		return 0, ErrCouponMinimumNotMet
	}
	return c.Discount(cartTotal), nil
}

// Discount computes the discount value for the given cart total without
// checking validity.
func (c *Coupon) Discount(cartTotal float64) float64 {
	if c.Type == CouponTypePercentage {
		return cartTotal * c.DiscountAmount / 100
	}
	return c.DiscountAmount
}
