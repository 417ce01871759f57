package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/lock"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/services/adjustment/internal/domain"
	"github.com/utafrali/storefront/services/adjustment/internal/engine"
	"github.com/utafrali/storefront/services/adjustment/internal/event"
	"github.com/utafrali/storefront/services/adjustment/internal/repository"
)

// ReasonCommitInProgress is the conflict reason when another commit for the
// same order holds the order lock.
const ReasonCommitInProgress = "commit_in_progress"

// AdjustmentInput holds the parameters for previewing or committing the
// adjustments of one order. A nil RewardIDs selects every approved reward
// of the user.
type AdjustmentInput struct {
	UserID     string
	OrderTotal int64
	CouponCode string
	RewardIDs  []string
}

func (in *AdjustmentInput) validate() error {
	if in == nil {
		return apperrors.InvalidInput("adjustment input is required")
	}
	if in.UserID == "" {
		return apperrors.InvalidInput("user id is required")
	}
	if in.OrderTotal < 0 {
		return apperrors.InvalidInput("order total must not be negative")
	}
	if in.RewardIDs != nil && len(in.RewardIDs) == 0 {
		return apperrors.InvalidInput("reward ids must not be empty when provided")
	}
	return nil
}

// AdjustmentService evaluates and commits order-value adjustments.
type AdjustmentService struct {
	coupons   repository.CouponRepository
	campaigns repository.CampaignRepository
	cache     repository.CampaignCache
	rewards   repository.RewardRepository
	ledger    repository.Ledger
	locker    lock.Locker
	producer  *event.Producer
	logger    *slog.Logger
	now       func() time.Time
}

// NewAdjustmentService creates a new adjustment service. cache may be nil.
// Commits proceed without the order lock when the lock backend is down; the
// ledger's guarded updates still prevent double spending.
func NewAdjustmentService(
	coupons repository.CouponRepository,
	campaigns repository.CampaignRepository,
	cache repository.CampaignCache,
	rewards repository.RewardRepository,
	ledger repository.Ledger,
	locker lock.Locker,
	producer *event.Producer,
	logger *slog.Logger,
) *AdjustmentService {
	s := &AdjustmentService{
		coupons:   coupons,
		campaigns: campaigns,
		cache:     cache,
		rewards:   rewards,
		ledger:    ledger,
		producer:  producer,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	s.locker = lock.FailOpen(locker, func(ctx context.Context, key string, err error) {
		logger.WarnContext(ctx, "commit lock unavailable, continuing unlocked",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	})
	return s
}

// PreviewAdjustment returns what committing the order now would apply. It
// has no side effects.
func (s *AdjustmentService) PreviewAdjustment(ctx context.Context, in *AdjustmentInput) (*domain.StackResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	result, err := s.evaluate(ctx, in, s.now(), s.activeCampaigns)
	if err != nil {
		return nil, err
	}
	adjustmentPreviewsTotal.Inc()
	return result, nil
}

// CommitAdjustment evaluates the order and consumes everything applied,
// exactly once per order. A repeated commit returns the stored record with
// replayed set and changes nothing.
func (s *AdjustmentService) CommitAdjustment(ctx context.Context, orderID string, in *AdjustmentInput) (commit *domain.AdjustmentCommit, replayed bool, err error) {
	if orderID == "" {
		return nil, false, apperrors.InvalidInput("order id is required")
	}
	if err := in.validate(); err != nil {
		return nil, false, err
	}
	ctx = logger.WithOrderID(ctx, orderID)

	err = lock.WithLock(ctx, s.locker, "order:"+orderID, func(ctx context.Context) error {
		// A retry must see the stored result, not a re-evaluation against
		// counters this order already consumed.
		existing, err := s.ledger.GetCommit(ctx, orderID)
		switch {
		case err == nil:
			commit, replayed = existing, true
			return nil
		case !errors.Is(err, apperrors.ErrNotFound):
			return fmt.Errorf("get adjustment commit: %w", err)
		}

		// Campaign usage counts move with every commit, so a commit reads
		// them from the database rather than the cache.
		now := s.now()
		result, err := s.evaluate(ctx, in, now, s.storedCampaigns)
		if err != nil {
			return err
		}

		commit, replayed, err = s.ledger.Commit(ctx, &domain.AdjustmentCommit{
			OrderID:       orderID,
			UserID:        in.UserID,
			Result:        *result,
			PointsAwarded: domain.PointsForOrder(result.PayableAmount, result.PointsMultiplier),
			CommittedAt:   now,
		})
		return err
	})
	if errors.Is(err, lock.ErrNotObtained) {
		err = apperrors.Conflict(ReasonCommitInProgress,
			fmt.Sprintf("another commit for order %s is in progress", orderID))
	}
	if err == nil && commit.UserID != in.UserID {
		err = apperrors.Conflict(domain.ReasonOrderAlreadyCommitted,
			fmt.Sprintf("order %s was committed for another customer", orderID))
	}
	if err != nil {
		adjustmentCommitsTotal.WithLabelValues(commitResult(err)).Inc()
		if errors.Is(err, apperrors.ErrConflict) && apperrors.ReasonOf(err) == engine.ReasonUsageLimitReached {
			s.invalidateCampaigns(ctx)
		}
		return nil, false, err
	}

	if replayed {
		adjustmentCommitsTotal.WithLabelValues("replayed").Inc()
		s.logger.InfoContext(ctx, "adjustment commit replayed",
			slog.String("order_id", orderID),
		)
		return commit, true, nil
	}

	adjustmentCommitsTotal.WithLabelValues(commitResult(nil)).Inc()
	adjustmentDiscountAmount.Observe(float64(commit.Result.TotalDiscount))

	if len(commit.Result.AppliedOf(domain.EntityCampaign)) > 0 {
		s.invalidateCampaigns(ctx)
	}

	if err := s.producer.PublishAdjustmentCommitted(ctx, commit); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish adjustment.committed event",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "adjustment committed",
		slog.String("order_id", orderID),
		slog.String("user_id", in.UserID),
		slog.Int64("total_discount", commit.Result.TotalDiscount),
		slog.Int64("points_awarded", commit.PointsAwarded),
	)

	return commit, false, nil
}

// GetCommittedAdjustment retrieves the committed record for an order.
func (s *AdjustmentService) GetCommittedAdjustment(ctx context.Context, orderID string) (*domain.AdjustmentCommit, error) {
	commit, err := s.ledger.GetCommit(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get committed adjustment: %w", err)
	}
	return commit, nil
}

// evaluate loads the candidates concurrently and stacks them. campaigns
// selects where active campaigns are read from.
func (s *AdjustmentService) evaluate(
	ctx context.Context,
	in *AdjustmentInput,
	now time.Time,
	campaigns func(context.Context) ([]domain.Campaign, error),
) (*domain.StackResult, error) {
	var (
		c          engine.Candidates
		usesByUser int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		c.Rewards, err = s.loadRewards(gctx, in)
		return err
	})
	g.Go(func() error {
		var err error
		c.Coupon, usesByUser, err = s.loadCoupon(gctx, in)
		return err
	})
	g.Go(func() error {
		var err error
		c.Campaigns, err = campaigns(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return engine.ApplyAll(c, engine.OrderContext{
		UserID:           in.UserID,
		OrderTotal:       in.OrderTotal,
		Now:              now,
		CouponUsesByUser: usesByUser,
	})
}

func (s *AdjustmentService) loadRewards(ctx context.Context, in *AdjustmentInput) ([]domain.RedeemedReward, error) {
	if in.RewardIDs == nil {
		rewards, err := s.rewards.ListApprovedByUser(ctx, in.UserID)
		if err != nil {
			return nil, fmt.Errorf("list approved rewards: %w", err)
		}
		return rewards, nil
	}

	seen := make(map[string]bool, len(in.RewardIDs))
	rewards := make([]domain.RedeemedReward, 0, len(in.RewardIDs))
	for _, id := range in.RewardIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		rr, err := s.rewards.GetRedemption(ctx, id)
		if err != nil {
			return nil, err
		}
		// Another customer's reward is reported as missing.
		if rr.UserID != in.UserID {
			return nil, apperrors.NotFound("reward", id)
		}
		rewards = append(rewards, *rr)
	}
	return rewards, nil
}

func (s *AdjustmentService) loadCoupon(ctx context.Context, in *AdjustmentInput) (*domain.Coupon, int, error) {
	code := domain.NormalizeCode(in.CouponCode)
	if code == "" {
		return nil, 0, nil
	}

	coupon, err := s.coupons.GetByCode(ctx, code)
	if err != nil {
		return nil, 0, err
	}
	if coupon.UsageLimitPerUser == nil {
		return coupon, 0, nil
	}

	uses, err := s.coupons.CountUsagesByUser(ctx, coupon.ID, in.UserID)
	if err != nil {
		return nil, 0, fmt.Errorf("count coupon usages: %w", err)
	}
	return coupon, uses, nil
}

// activeCampaigns reads through the cache. Cache failures fall back to the
// database.
func (s *AdjustmentService) activeCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	if s.cache != nil {
		campaigns, ok, err := s.cache.GetActive(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "campaign cache read failed",
				slog.String("error", err.Error()),
			)
		} else if ok {
			return campaigns, nil
		}
	}

	campaigns, err := s.storedCampaigns(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetActive(ctx, campaigns); err != nil {
			s.logger.WarnContext(ctx, "campaign cache write failed",
				slog.String("error", err.Error()),
			)
		}
	}
	return campaigns, nil
}

func (s *AdjustmentService) storedCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	campaigns, err := s.campaigns.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active campaigns: %w", err)
	}
	return campaigns, nil
}

func (s *AdjustmentService) invalidateCampaigns(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "campaign cache invalidation failed",
			slog.String("error", err.Error()),
		)
	}
}
