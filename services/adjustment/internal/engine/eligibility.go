package engine

import (
	"fmt"
	"time"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/services/adjustment/internal/domain"
)

// Ineligibility reasons carried by apperrors.Ineligible.
const (
	ReasonInactive            = "inactive"
	ReasonNotStarted          = "not_started"
	ReasonExpired             = "expired"
	ReasonUsageLimitReached   = "usage_limit_reached"
	ReasonPerUserLimitReached = "per_user_limit_reached"
	ReasonBelowMinPurchase    = "below_min_purchase"
	ReasonNotApproved         = "not_approved"
)

// OrderContext is what eligibility depends on besides the entity itself.
// CouponUsesByUser is the number of prior ledger entries for the coupon
// under evaluation and UserID.
type OrderContext struct {
	UserID           string
	OrderTotal       int64
	Now              time.Time
	CouponUsesByUser int
}

// bounds are the limits coupons and campaigns share. Unset fields are
// unbounded.
type bounds struct {
	label       string
	active      bool
	start       *time.Time
	end         *time.Time
	usageLimit  *int
	usageCount  int
	minPurchase *int64
}

func (b bounds) check(oc OrderContext) error {
	switch {
	case !b.active:
		return apperrors.Ineligible(ReasonInactive, b.label+" is not active")
	case b.start != nil && oc.Now.Before(*b.start):
		return apperrors.Ineligible(ReasonNotStarted,
			fmt.Sprintf("%s is not valid until %s", b.label, b.start.UTC().Format(time.RFC3339)))
	case b.end != nil && oc.Now.After(*b.end):
		return apperrors.Ineligible(ReasonExpired,
			fmt.Sprintf("%s expired on %s", b.label, b.end.UTC().Format(time.RFC3339)))
	case b.usageLimit != nil && b.usageCount >= *b.usageLimit:
		return apperrors.Ineligible(ReasonUsageLimitReached, b.label+" has reached its usage limit")
	case b.minPurchase != nil && oc.OrderTotal < *b.minPurchase:
		return apperrors.Ineligible(ReasonBelowMinPurchase,
			fmt.Sprintf("%s requires a minimum purchase of %d", b.label, *b.minPurchase))
	}
	return nil
}

// CheckCoupon returns nil when c applies to the order, or an Ineligible
// error naming the first rule it fails.
func CheckCoupon(c *domain.Coupon, oc OrderContext) error {
	err := bounds{
		label:       "coupon " + c.Code,
		active:      c.Active,
		start:       c.StartDate,
		end:         c.EndDate,
		usageLimit:  c.UsageLimit,
		usageCount:  c.UsageCount,
		minPurchase: c.MinPurchase,
	}.check(oc)
	if err != nil {
		return err
	}
	if c.UsageLimitPerUser != nil && oc.CouponUsesByUser >= *c.UsageLimitPerUser {
		return apperrors.Ineligible(ReasonPerUserLimitReached,
			fmt.Sprintf("coupon %s may be used %d time(s) per customer", c.Code, *c.UsageLimitPerUser))
	}
	return nil
}

// CheckCampaign returns nil when c applies to the order.
func CheckCampaign(c *domain.Campaign, oc OrderContext) error {
	return bounds{
		label:       "campaign " + c.Name,
		active:      c.Active,
		start:       c.StartDate,
		end:         c.EndDate,
		usageLimit:  c.UsageLimit,
		usageCount:  c.UsageCount,
		minPurchase: c.MinPurchase,
	}.check(oc)
}

// CheckReward returns nil when r is approved. Dates and limits do not apply
// to rewards; the points balance was checked at redemption.
func CheckReward(r *domain.RedeemedReward) error {
	if r.Status != domain.RewardStatusApproved {
		return apperrors.Ineligible(ReasonNotApproved,
			fmt.Sprintf("reward %s is %s, not %s", r.ID, r.Status, domain.RewardStatusApproved))
	}
	return nil
}

// IsEligible reports whether entity qualifies for the order. entity is a
// *domain.Coupon, *domain.Campaign or *domain.RedeemedReward; anything else
// is never eligible.
func IsEligible(entity any, oc OrderContext) bool {
	switch e := entity.(type) {
	case *domain.Coupon:
		return CheckCoupon(e, oc) == nil
	case *domain.Campaign:
		return CheckCampaign(e, oc) == nil
	case *domain.RedeemedReward:
		return CheckReward(e) == nil
	default:
		return false
	}
}
