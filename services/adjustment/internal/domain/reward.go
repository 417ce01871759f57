package domain

import "time"

// RewardType is what a catalog reward grants.
type RewardType string

// Reward type constants.
const (
	RewardTypeDiscount     RewardType = "discount"
	RewardTypeFreeDelivery RewardType = "free_delivery"
	RewardTypeFreeProduct  RewardType = "free_product"
	RewardTypeCashback     RewardType = "cashback"
)

// ValidRewardTypes returns the set of valid reward types.
func ValidRewardTypes() []RewardType {
	return []RewardType{
		RewardTypeDiscount,
		RewardTypeFreeDelivery,
		RewardTypeFreeProduct,
		RewardTypeCashback,
	}
}

// IsValidRewardType checks whether t is a valid reward type.
func IsValidRewardType(t RewardType) bool {
	for _, v := range ValidRewardTypes() {
		if v == t {
			return true
		}
	}
	return false
}

// Reward is a catalog entry a customer can redeem for points.
type Reward struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Type        RewardType `json:"type"`
	Value       int64      `json:"value"`
	PointsCost  int64      `json:"points_cost"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"created_at"`
}

// RewardStatus is the lifecycle state of a redeemed reward.
type RewardStatus string

// Reward status constants.
const (
	RewardStatusPending  RewardStatus = "PENDING"
	RewardStatusApproved RewardStatus = "APPROVED"
	RewardStatusRejected RewardStatus = "REJECTED"
	RewardStatusUsed     RewardStatus = "USED"
)

// AllowedRewardTransitions defines which status transitions are valid.
func AllowedRewardTransitions() map[RewardStatus][]RewardStatus {
	return map[RewardStatus][]RewardStatus{
		RewardStatusPending:  {RewardStatusApproved, RewardStatusRejected},
		RewardStatusApproved: {RewardStatusUsed},
		RewardStatusRejected: {},
		RewardStatusUsed:     {},
	}
}

// CanTransitionTo checks if status s may move to target.
func (s RewardStatus) CanTransitionTo(target RewardStatus) bool {
	for _, next := range AllowedRewardTransitions()[s] {
		if next == target {
			return true
		}
	}
	return false
}

// RedeemedReward is a customer's claim on a catalog reward. The reward's
// type, value and cost are copied at redemption time.
type RedeemedReward struct {
	ID         string       `json:"id"`
	UserID     string       `json:"user_id"`
	RewardID   string       `json:"reward_id"`
	RewardName string       `json:"reward_name"`
	RewardType RewardType   `json:"reward_type"`
	Value      int64        `json:"value"`
	PointsCost int64        `json:"points_cost"`
	Status     RewardStatus `json:"status"`
	OrderID    *string      `json:"order_id,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	ApprovedAt *time.Time   `json:"approved_at,omitempty"`
	RejectedAt *time.Time   `json:"rejected_at,omitempty"`
	UsedAt     *time.Time   `json:"used_at,omitempty"`
}

// CanTransitionTo checks if the redemption can move to target.
func (r *RedeemedReward) CanTransitionTo(target RewardStatus) bool {
	return r.Status.CanTransitionTo(target)
}

// Discount returns the checkout effect of the reward. Cashback and free
// products are fulfilled after the order and contribute nothing here.
func (r *RedeemedReward) Discount() Discount {
	switch r.RewardType {
	case RewardTypeDiscount:
		return FixedOff{Amount: r.Value}
	case RewardTypeFreeDelivery:
		return FreeShipping{}
	case RewardTypeCashback, RewardTypeFreeProduct:
		return Deferred{RewardType: r.RewardType}
	default:
		return NoDiscount{StoredType: string(r.RewardType)}
	}
}
