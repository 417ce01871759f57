package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DiscountKind selects how a coupon or discount campaign reduces the order.
type DiscountKind string

// Discount kind constants.
const (
	DiscountKindPercentage   DiscountKind = "percentage"
	DiscountKindFixed        DiscountKind = "fixed"
	DiscountKindFreeShipping DiscountKind = "free_shipping"
)

// ValidDiscountKinds returns the set of valid coupon discount kinds.
func ValidDiscountKinds() []DiscountKind {
	return []DiscountKind{DiscountKindPercentage, DiscountKindFixed, DiscountKindFreeShipping}
}

// IsValidDiscountKind checks whether k is a valid coupon discount kind.
func IsValidDiscountKind(k DiscountKind) bool {
	for _, v := range ValidDiscountKinds() {
		if v == k {
			return true
		}
	}
	return false
}

// Coupon is a customer-entered code. Value is a percentage for percentage
// coupons and an amount in cents for fixed coupons.
type Coupon struct {
	ID                string          `json:"id"`
	Code              string          `json:"code"`
	Kind              DiscountKind    `json:"kind"`
	Value             decimal.Decimal `json:"value"`
	MinPurchase       *int64          `json:"min_purchase,omitempty"`
	MaxDiscount       *int64          `json:"max_discount,omitempty"`
	StartDate         *time.Time      `json:"start_date,omitempty"`
	EndDate           *time.Time      `json:"end_date,omitempty"`
	UsageLimit        *int            `json:"usage_limit,omitempty"`
	UsageCount        int             `json:"usage_count"`
	UsageLimitPerUser *int            `json:"usage_limit_per_user,omitempty"`
	Active            bool            `json:"active"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Discount returns the discount variant the coupon applies.
func (c *Coupon) Discount() Discount {
	switch c.Kind {
	case DiscountKindPercentage:
		return PercentageOff{Percent: c.Value, MaxDiscount: c.MaxDiscount}
	case DiscountKindFixed:
		return FixedOff{Amount: c.Value.IntPart()}
	case DiscountKindFreeShipping:
		return FreeShipping{}
	default:
		return NoDiscount{StoredType: string(c.Kind)}
	}
}

// CouponUsage is one consumption of a coupon by an order.
type CouponUsage struct {
	ID             string    `json:"id"`
	CouponID       string    `json:"coupon_id"`
	UserID         string    `json:"user_id"`
	OrderID        string    `json:"order_id"`
	DiscountAmount int64     `json:"discount_amount"`
	CreatedAt      time.Time `json:"created_at"`
}

// NormalizeCode trims and upper-cases a coupon code. Codes match
// case-insensitively.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
