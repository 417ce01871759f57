package repository

import (
	"context"
	"time"

	"github.com/utafrali/storefront/pkg/pagination"
	"github.com/utafrali/storefront/services/adjustment/internal/domain"
)

// CouponRepository defines persistence operations for coupons.
type CouponRepository interface {
	// Create inserts a new coupon.
	Create(ctx context.Context, coupon *domain.Coupon) error

	// GetByID retrieves a coupon by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Coupon, error)

	// GetByCode retrieves a coupon by its code, case-insensitively.
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)

	// List returns a page of coupons along with the total count.
	List(ctx context.Context, params pagination.Params) ([]domain.Coupon, int, error)

	// Deactivate clears the active flag of a coupon.
	Deactivate(ctx context.Context, id string) error

	// CountUsagesByUser counts ledger entries for the coupon and user.
	CountUsagesByUser(ctx context.Context, couponID, userID string) (int, error)

	// DeactivateExpired clears the active flag of coupons whose end date is
	// before now and returns how many were changed.
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// CampaignRepository defines persistence operations for campaigns.
type CampaignRepository interface {
	// Create inserts a new campaign.
	Create(ctx context.Context, campaign *domain.Campaign) error

	// GetByID retrieves a campaign by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Campaign, error)

	// List returns a page of campaigns along with the total count.
	List(ctx context.Context, params pagination.Params) ([]domain.Campaign, int, error)

	// ListActive returns every campaign with the active flag set.
	// Date windows and limits are left to the eligibility check.
	ListActive(ctx context.Context) ([]domain.Campaign, error)

	// Deactivate clears the active flag of a campaign.
	Deactivate(ctx context.Context, id string) error

	// DeactivateExpired clears the active flag of campaigns whose end date
	// is before now and returns how many were changed.
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// CampaignCache holds the active campaign set between reads.
type CampaignCache interface {
	// GetActive returns the cached set; ok is false on a miss.
	GetActive(ctx context.Context) (campaigns []domain.Campaign, ok bool, err error)

	// SetActive replaces the cached set.
	SetActive(ctx context.Context, campaigns []domain.Campaign) error

	// Invalidate drops the cached set.
	Invalidate(ctx context.Context) error
}

// RewardRepository defines persistence operations for the reward catalog
// and redemptions.
type RewardRepository interface {
	// CreateReward inserts a catalog reward.
	CreateReward(ctx context.Context, reward *domain.Reward) error

	// GetReward retrieves a catalog reward by its identifier.
	GetReward(ctx context.Context, id string) (*domain.Reward, error)

	// ListRewards returns the active catalog.
	ListRewards(ctx context.Context) ([]domain.Reward, error)

	// CreateRedemption inserts a PENDING redemption.
	CreateRedemption(ctx context.Context, redemption *domain.RedeemedReward) error

	// GetRedemption retrieves a redemption by its identifier.
	GetRedemption(ctx context.Context, id string) (*domain.RedeemedReward, error)

	// ListRedemptionsByUser returns a page of a user's redemptions.
	ListRedemptionsByUser(ctx context.Context, userID string, params pagination.Params) ([]domain.RedeemedReward, int, error)

	// ListApprovedByUser returns every APPROVED redemption of a user.
	ListApprovedByUser(ctx context.Context, userID string) ([]domain.RedeemedReward, error)

	// Approve moves a PENDING redemption to APPROVED and deducts its points
	// cost in the same transaction.
	Approve(ctx context.Context, id string, at time.Time) (*domain.RedeemedReward, *domain.LoyaltyAccount, error)

	// Reject moves a PENDING redemption to REJECTED.
	Reject(ctx context.Context, id string, at time.Time) (*domain.RedeemedReward, error)
}

// LoyaltyRepository defines persistence operations for loyalty accounts.
type LoyaltyRepository interface {
	// Award appends a points transaction and updates balance, spend and
	// tier atomically. A repeated (user, reason, reference) is a no-op that
	// returns the current account.
	Award(ctx context.Context, award domain.PointsAward) (*domain.LoyaltyAccount, error)

	// GetAccount retrieves a user's account. Users without activity get a
	// zero bronze account.
	GetAccount(ctx context.Context, userID string) (*domain.LoyaltyAccount, error)

	// ListTransactions returns a page of a user's points history, newest
	// first.
	ListTransactions(ctx context.Context, userID string, params pagination.Params) ([]domain.PointsTransaction, int, error)
}

// Ledger records the consumption of applied adjustments.
type Ledger interface {
	// Commit consumes every applied entity of commit.Result and posts the
	// points award in one transaction. replayed is true when the order was
	// already committed; the stored record is returned unchanged.
	Commit(ctx context.Context, commit *domain.AdjustmentCommit) (stored *domain.AdjustmentCommit, replayed bool, err error)

	// GetCommit retrieves the committed record for an order.
	GetCommit(ctx context.Context, orderID string) (*domain.AdjustmentCommit, error)
}
