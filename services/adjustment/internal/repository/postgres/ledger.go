package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/services/adjustment/internal/domain"
	"github.com/utafrali/storefront/services/adjustment/internal/engine"
)

// ReasonRewardAlreadyUsed is the conflict reason for a reward consumed by
// another order between evaluation and commit.
const ReasonRewardAlreadyUsed = "reward_already_used"

// Ledger implements repository.Ledger using PostgreSQL. All consumption for
// one order happens in a single READ COMMITTED transaction; the guarded
// UPDATEs take row locks that serialise racing commits.
type Ledger struct {
	db database.DBTX
}

// NewLedger creates a new PostgreSQL-backed usage ledger.
func NewLedger(db database.DBTX) *Ledger {
	return &Ledger{db: db}
}

// Commit records c and consumes everything it applied. A second commit for
// the same order returns the first one untouched.
func (l *Ledger) Commit(ctx context.Context, c *domain.AdjustmentCommit) (stored *domain.AdjustmentCommit, replayed bool, err error) {
	ctx, end := database.TraceQuery(ctx, "CommitAdjustment", "commit adjustment")
	defer func() { end(err) }()

	result, err := json.Marshal(c.Result)
	if err != nil {
		return nil, false, fmt.Errorf("marshal adjustment result: %w", err)
	}

	err = database.InTx(ctx, l.db, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `
			INSERT INTO adjustment_commits (
				order_id, user_id, order_total, total_discount, payable_amount,
				points_awarded, result, committed_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (order_id) DO NOTHING`,
			c.OrderID, c.UserID, c.Result.OrderTotal, c.Result.TotalDiscount, c.Result.PayableAmount,
			c.PointsAwarded, result, c.CommittedAt,
		)
		if err != nil {
			return fmt.Errorf("insert adjustment commit: %w", err)
		}
		if ct.RowsAffected() == 0 {
			replayed = true
			stored, err = getCommit(ctx, tx, c.OrderID)
			if err != nil {
				return err
			}
			if stored.UserID != c.UserID {
				return apperrors.Conflict(domain.ReasonOrderAlreadyCommitted,
					fmt.Sprintf("order %s was committed for another customer", c.OrderID))
			}
			return nil
		}

		for _, e := range c.Result.Applied {
			var err error
			switch e.Kind {
			case domain.EntityCoupon:
				err = consumeCoupon(ctx, tx, e, c)
			case domain.EntityCampaign:
				err = consumeCampaign(ctx, tx, e)
			case domain.EntityReward:
				err = consumeReward(ctx, tx, e, c)
			}
			if err != nil {
				return err
			}
		}

		if c.PointsAwarded != 0 || c.Result.PayableAmount != 0 {
			if _, err := awardPoints(ctx, tx, domain.PointsAward{
				UserID:      c.UserID,
				Points:      c.PointsAwarded,
				Spend:       c.Result.PayableAmount,
				Reason:      domain.ReasonOrderCompleted,
				ReferenceID: c.OrderID,
			}); err != nil {
				return err
			}
		}

		stored = c
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return stored, replayed, nil
}

// GetCommit retrieves the committed record for an order.
func (l *Ledger) GetCommit(ctx context.Context, orderID string) (*domain.AdjustmentCommit, error) {
	return getCommit(ctx, l.db, orderID)
}

func consumeCoupon(ctx context.Context, q database.Querier, e domain.AppliedEntity, c *domain.AdjustmentCommit) error {
	var perUser *int
	err := q.QueryRow(ctx, `
		UPDATE coupons
		SET usage_count = usage_count + 1, updated_at = NOW()
		WHERE id = $1 AND active AND (usage_limit IS NULL OR usage_count < usage_limit)
		RETURNING usage_limit_per_user`, e.ID,
	).Scan(&perUser)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.Conflict(engine.ReasonUsageLimitReached,
			fmt.Sprintf("coupon %s is no longer available", e.Label))
	}
	if err != nil {
		return fmt.Errorf("increment coupon usage: %w", err)
	}

	if perUser != nil {
		used, err := countCouponUsages(ctx, q, e.ID, c.UserID)
		if err != nil {
			return err
		}
		if used >= *perUser {
			return apperrors.Conflict(engine.ReasonPerUserLimitReached,
				fmt.Sprintf("coupon %s may be used %d time(s) per customer", e.Label, *perUser))
		}
	}

	_, err = q.Exec(ctx, `
		INSERT INTO coupon_usages (id, coupon_id, user_id, order_id, discount_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New().String(), e.ID, c.UserID, c.OrderID, e.DiscountAmount, c.CommittedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict(domain.ReasonOrderAlreadyCommitted,
				fmt.Sprintf("coupon %s is already recorded for order %s", e.Label, c.OrderID))
		}
		return fmt.Errorf("insert coupon usage: %w", err)
	}
	return nil
}

func consumeCampaign(ctx context.Context, q database.Querier, e domain.AppliedEntity) error {
	ct, err := q.Exec(ctx, `
		UPDATE campaigns
		SET usage_count = usage_count + 1, updated_at = NOW()
		WHERE id = $1 AND (usage_limit IS NULL OR usage_count < usage_limit)`, e.ID)
	if err != nil {
		return fmt.Errorf("increment campaign usage: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.Conflict(engine.ReasonUsageLimitReached,
			fmt.Sprintf("campaign %s has reached its usage limit", e.Label))
	}
	return nil
}

func consumeReward(ctx context.Context, q database.Querier, e domain.AppliedEntity, c *domain.AdjustmentCommit) error {
	ct, err := q.Exec(ctx, `
		UPDATE redeemed_rewards
		SET status = $3, used_at = $4, order_id = $5
		WHERE id = $1 AND user_id = $2 AND status = $6`,
		e.ID, c.UserID, domain.RewardStatusUsed, c.CommittedAt, c.OrderID, domain.RewardStatusApproved,
	)
	if err != nil {
		return fmt.Errorf("mark reward used: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.Conflict(ReasonRewardAlreadyUsed,
			fmt.Sprintf("reward %s is no longer available", e.Label))
	}
	return nil
}

func getCommit(ctx context.Context, q database.Querier, orderID string) (*domain.AdjustmentCommit, error) {
	var (
		c      domain.AdjustmentCommit
		result []byte
	)
	err := q.QueryRow(ctx, `
		SELECT order_id, user_id, points_awarded, result, committed_at
		FROM adjustment_commits
		WHERE order_id = $1`, orderID,
	).Scan(&c.OrderID, &c.UserID, &c.PointsAwarded, &result, &c.CommittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("adjustment", orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("get adjustment commit: %w", err)
	}
	if err := json.Unmarshal(result, &c.Result); err != nil {
		return nil, fmt.Errorf("unmarshal adjustment result: %w", err)
	}
	return &c, nil
}
