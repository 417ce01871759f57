package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
	"github.com/utafrali/storefront/services/adjustment/internal/domain"
	"github.com/utafrali/storefront/services/adjustment/internal/engine"
	"github.com/utafrali/storefront/services/adjustment/internal/event"
	"github.com/utafrali/storefront/services/adjustment/internal/repository"
)

// LoyaltyService implements loyalty accounts, the reward catalog and the
// redemption lifecycle.
type LoyaltyService struct {
	loyalty  repository.LoyaltyRepository
	rewards  repository.RewardRepository
	producer *event.Producer
	logger   *slog.Logger
	now      func() time.Time
}

// NewLoyaltyService creates a new loyalty service.
func NewLoyaltyService(
	loyalty repository.LoyaltyRepository,
	rewards repository.RewardRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *LoyaltyService {
	return &LoyaltyService{
		loyalty:  loyalty,
		rewards:  rewards,
		producer: producer,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// AwardInput holds the parameters for a manual points adjustment.
type AwardInput struct {
	Points      int64
	Reason      string
	ReferenceID string
}

// Award applies a points change to a user's account. A repeated (user,
// reason, reference) returns the current account unchanged.
func (s *LoyaltyService) Award(ctx context.Context, userID string, input *AwardInput) (*domain.LoyaltyAccount, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if input == nil {
		return nil, apperrors.InvalidInput("award input is required")
	}
	if input.Points == 0 {
		return nil, apperrors.InvalidInput("points must not be zero")
	}
	if strings.TrimSpace(input.Reason) == "" || input.ReferenceID == "" {
		return nil, apperrors.InvalidInput("reason and reference id are required")
	}

	award := domain.PointsAward{
		UserID:      userID,
		Points:      input.Points,
		Reason:      input.Reason,
		ReferenceID: input.ReferenceID,
	}
	acc, err := s.loyalty.Award(ctx, award)
	if err != nil {
		return nil, fmt.Errorf("award points: %w", err)
	}

	s.publishPoints(ctx, award, acc)
	s.logger.InfoContext(ctx, "points awarded",
		slog.String("user_id", userID),
		slog.Int64("points", input.Points),
		slog.String("reason", input.Reason),
	)
	return acc, nil
}

// GetAccount retrieves a user's loyalty account.
func (s *LoyaltyService) GetAccount(ctx context.Context, userID string) (*domain.LoyaltyAccount, error) {
	acc, err := s.loyalty.GetAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get loyalty account: %w", err)
	}
	return acc, nil
}

// ListTransactions returns a page of a user's points history.
func (s *LoyaltyService) ListTransactions(ctx context.Context, userID string, params pagination.Params) ([]domain.PointsTransaction, int, error) {
	txns, total, err := s.loyalty.ListTransactions(ctx, userID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list points transactions: %w", err)
	}
	return txns, total, nil
}

// CreateRewardInput holds the parameters for adding a catalog reward.
type CreateRewardInput struct {
	Name        string
	Description string
	Type        domain.RewardType
	Value       int64
	PointsCost  int64
}

// CreateReward adds a reward to the catalog.
func (s *LoyaltyService) CreateReward(ctx context.Context, input *CreateRewardInput) (*domain.Reward, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("reward name is required")
	}
	if !domain.IsValidRewardType(input.Type) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid reward type %q", input.Type))
	}
	if input.PointsCost <= 0 {
		return nil, apperrors.InvalidInput("points cost must be positive")
	}
	if input.Type == domain.RewardTypeDiscount && input.Value <= 0 {
		return nil, apperrors.InvalidInput("discount rewards need a positive value")
	}
	if input.Value < 0 {
		return nil, apperrors.InvalidInput("value must not be negative")
	}

	reward := &domain.Reward{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Description: input.Description,
		Type:        input.Type,
		Value:       input.Value,
		PointsCost:  input.PointsCost,
		Active:      true,
		CreatedAt:   s.now(),
	}
	if err := s.rewards.CreateReward(ctx, reward); err != nil {
		return nil, fmt.Errorf("create reward: %w", err)
	}

	s.logger.InfoContext(ctx, "reward created",
		slog.String("reward_id", reward.ID),
		slog.String("type", string(reward.Type)),
	)
	return reward, nil
}

// ListRewards returns the active catalog.
func (s *LoyaltyService) ListRewards(ctx context.Context) ([]domain.Reward, error) {
	rewards, err := s.rewards.ListRewards(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	return rewards, nil
}

// RedeemReward claims a catalog reward for a user. The balance must cover
// the cost now; points are deducted only on approval.
func (s *LoyaltyService) RedeemReward(ctx context.Context, userID, rewardID string) (*domain.RedeemedReward, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	reward, err := s.rewards.GetReward(ctx, rewardID)
	if err != nil {
		return nil, err
	}
	if !reward.Active {
		return nil, apperrors.Ineligible(engine.ReasonInactive,
			fmt.Sprintf("reward %s is not available", reward.Name))
	}

	acc, err := s.loyalty.GetAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get loyalty account: %w", err)
	}
	if acc.PointsBalance < reward.PointsCost {
		return nil, apperrors.Ineligible(domain.ReasonInsufficientPoints,
			fmt.Sprintf("reward costs %d points, balance is %d", reward.PointsCost, acc.PointsBalance))
	}

	rr := &domain.RedeemedReward{
		ID:         uuid.New().String(),
		UserID:     userID,
		RewardID:   reward.ID,
		RewardName: reward.Name,
		RewardType: reward.Type,
		Value:      reward.Value,
		PointsCost: reward.PointsCost,
		Status:     domain.RewardStatusPending,
		CreatedAt:  s.now(),
	}
	if err := s.rewards.CreateRedemption(ctx, rr); err != nil {
		return nil, fmt.Errorf("create redemption: %w", err)
	}

	s.publishRedemption(ctx, rr)
	s.logger.InfoContext(ctx, "reward redeemed",
		slog.String("redemption_id", rr.ID),
		slog.String("user_id", userID),
		slog.String("reward_id", reward.ID),
	)
	return rr, nil
}

// ApproveRedemption approves a pending redemption and deducts its cost.
func (s *LoyaltyService) ApproveRedemption(ctx context.Context, id string) (*domain.RedeemedReward, error) {
	rr, acc, err := s.rewards.Approve(ctx, id, s.now())
	if err != nil {
		return nil, err
	}

	s.publishRedemption(ctx, rr)
	s.publishPoints(ctx, domain.PointsAward{
		UserID:      rr.UserID,
		Points:      -rr.PointsCost,
		Reason:      domain.ReasonRewardApproval,
		ReferenceID: rr.ID,
	}, acc)
	s.logger.InfoContext(ctx, "redemption approved",
		slog.String("redemption_id", rr.ID),
		slog.Int64("points_balance", acc.PointsBalance),
	)
	return rr, nil
}

// RejectRedemption rejects a pending redemption.
func (s *LoyaltyService) RejectRedemption(ctx context.Context, id string) (*domain.RedeemedReward, error) {
	rr, err := s.rewards.Reject(ctx, id, s.now())
	if err != nil {
		return nil, err
	}

	s.publishRedemption(ctx, rr)
	s.logger.InfoContext(ctx, "redemption rejected", slog.String("redemption_id", rr.ID))
	return rr, nil
}

// ListRedemptions returns a page of a user's redemptions.
func (s *LoyaltyService) ListRedemptions(ctx context.Context, userID string, params pagination.Params) ([]domain.RedeemedReward, int, error) {
	out, total, err := s.rewards.ListRedemptionsByUser(ctx, userID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list redemptions: %w", err)
	}
	return out, total, nil
}

func (s *LoyaltyService) publishRedemption(ctx context.Context, rr *domain.RedeemedReward) {
	if err := s.producer.PublishRedemption(ctx, rr); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish redemption event",
			slog.String("redemption_id", rr.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *LoyaltyService) publishPoints(ctx context.Context, award domain.PointsAward, acc *domain.LoyaltyAccount) {
	if err := s.producer.PublishPointsAwarded(ctx, award, acc); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish loyalty.points_awarded event",
			slog.String("user_id", award.UserID),
			slog.String("error", err.Error()),
		)
	}
}
