package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntityKind identifies the source of an applied adjustment.
type EntityKind string

// Entity kind constants.
const (
	EntityCoupon   EntityKind = "coupon"
	EntityCampaign EntityKind = "campaign"
	EntityReward   EntityKind = "reward"
)

// AppliedEntity is one coupon, campaign or reward that contributed to a
// stacked result. Deferred entities are recorded for fulfilment after the
// order and carry no amount.
type AppliedEntity struct {
	Kind             EntityKind      `json:"kind"`
	ID               string          `json:"id"`
	Label            string          `json:"label"`
	Mechanism        string          `json:"mechanism"`
	DiscountAmount   int64           `json:"discount_amount"`
	FreeShipping     bool            `json:"free_shipping,omitempty"`
	PointsMultiplier decimal.Decimal `json:"points_multiplier"`
	Deferred         bool            `json:"deferred,omitempty"`
}

// SkippedEntity is a campaign considered for the order but not applied.
type SkippedEntity struct {
	Kind   EntityKind `json:"kind"`
	ID     string     `json:"id"`
	Reason string     `json:"reason"`
}

// StackResult is the combined effect of every applied adjustment on an order.
type StackResult struct {
	OrderTotal       int64           `json:"order_total"`
	TotalDiscount    int64           `json:"total_discount"`
	PayableAmount    int64           `json:"payable_amount"`
	FreeShipping     bool            `json:"free_shipping"`
	PointsMultiplier decimal.Decimal `json:"points_multiplier"`
	Applied          []AppliedEntity `json:"applied"`
	Skipped          []SkippedEntity `json:"skipped,omitempty"`
}

// AppliedOf returns the applied entities of the given kind.
func (r *StackResult) AppliedOf(kind EntityKind) []AppliedEntity {
	var out []AppliedEntity
	for _, e := range r.Applied {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// ReasonOrderAlreadyCommitted is the conflict reason for a commit of an order
// already committed for a different customer.
const ReasonOrderAlreadyCommitted = "order_already_committed"

// AdjustmentCommit is the immutable record of the result committed for an
// order.
type AdjustmentCommit struct {
	OrderID       string      `json:"order_id"`
	UserID        string      `json:"user_id"`
	Result        StackResult `json:"result"`
	PointsAwarded int64       `json:"points_awarded"`
	CommittedAt   time.Time   `json:"committed_at"`
}
