package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tier is a loyalty level derived from cumulative spend.
type Tier string

// Tier constants.
const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

// Tier thresholds on cumulative spend, in cents.
const (
	SilverThreshold   int64 = 100_000
	GoldThreshold     int64 = 500_000
	PlatinumThreshold int64 = 1_000_000
)

// Points transaction reasons.
const (
	ReasonOrderCompleted = "order_completed"
	ReasonRewardApproval = "reward_approval"
)

// ReasonInsufficientPoints is the error reason for a deduction larger than
// the balance.
const ReasonInsufficientPoints = "insufficient_points"

// TierFor returns the tier earned by totalSpent cents.
func TierFor(totalSpent int64) Tier {
	switch {
	case totalSpent >= PlatinumThreshold:
		return TierPlatinum
	case totalSpent >= GoldThreshold:
		return TierGold
	case totalSpent >= SilverThreshold:
		return TierSilver
	default:
		return TierBronze
	}
}

// PointsForOrder returns the points earned for a payable amount in cents:
// one point per whole currency unit, scaled by multiplier and floored.
func PointsForOrder(payable int64, multiplier decimal.Decimal) int64 {
	if payable <= 0 || !multiplier.IsPositive() {
		return 0
	}
	return decimal.NewFromInt(payable).Div(hundred).Mul(multiplier).Floor().IntPart()
}

// LoyaltyAccount is a customer's points balance and tier.
type LoyaltyAccount struct {
	UserID        string    `json:"user_id"`
	PointsBalance int64     `json:"points_balance"`
	TotalSpent    int64     `json:"total_spent"`
	Tier          Tier      `json:"tier"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PointsTransaction is an immutable entry in a customer's points history.
type PointsTransaction struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Points       int64     `json:"points"`
	Reason       string    `json:"reason"`
	ReferenceID  string    `json:"reference_id"`
	BalanceAfter int64     `json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}

// PointsAward is one change to a loyalty account. Points may be negative;
// Spend adds to cumulative spend and drives the tier.
type PointsAward struct {
	UserID      string
	Points      int64
	Spend       int64
	Reason      string
	ReferenceID string
}
