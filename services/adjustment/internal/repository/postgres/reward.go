package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
	"github.com/utafrali/storefront/services/adjustment/internal/domain"
)

// ReasonInvalidTransition is the conflict reason for a redemption status
// change its current status does not allow.
const ReasonInvalidTransition = "invalid_transition"

const redemptionColumns = `id, user_id, reward_id, reward_name, reward_type, value, points_cost,
	status, order_id, created_at, approved_at, rejected_at, used_at`

// RewardRepository implements repository.RewardRepository using PostgreSQL.
type RewardRepository struct {
	db database.DBTX
}

// NewRewardRepository creates a new PostgreSQL-backed reward repository.
func NewRewardRepository(db database.DBTX) *RewardRepository {
	return &RewardRepository{db: db}
}

// CreateReward inserts a catalog reward.
func (r *RewardRepository) CreateReward(ctx context.Context, rw *domain.Reward) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO rewards (id, name, description, type, value, points_cost, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rw.ID, rw.Name, rw.Description, rw.Type, rw.Value, rw.PointsCost, rw.Active, rw.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert reward: %w", err)
	}
	return nil
}

// GetReward retrieves a catalog reward by its ID.
func (r *RewardRepository) GetReward(ctx context.Context, id string) (*domain.Reward, error) {
	var rw domain.Reward
	err := r.db.QueryRow(ctx, `
		SELECT id, name, description, type, value, points_cost, active, created_at
		FROM rewards
		WHERE id = $1`, id,
	).Scan(&rw.ID, &rw.Name, &rw.Description, &rw.Type, &rw.Value, &rw.PointsCost, &rw.Active, &rw.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("reward", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}
	return &rw, nil
}

// ListRewards returns the active catalog ordered by points cost.
func (r *RewardRepository) ListRewards(ctx context.Context) ([]domain.Reward, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, description, type, value, points_cost, active, created_at
		FROM rewards
		WHERE active
		ORDER BY points_cost, id`)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	var rewards []domain.Reward
	for rows.Next() {
		var rw domain.Reward
		if err := rows.Scan(&rw.ID, &rw.Name, &rw.Description, &rw.Type, &rw.Value, &rw.PointsCost, &rw.Active, &rw.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reward row: %w", err)
		}
		rewards = append(rewards, rw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reward rows: %w", err)
	}
	return rewards, nil
}

// CreateRedemption inserts a redemption.
func (r *RewardRepository) CreateRedemption(ctx context.Context, rr *domain.RedeemedReward) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO redeemed_rewards (`+redemptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		rr.ID, rr.UserID, rr.RewardID, rr.RewardName, rr.RewardType, rr.Value, rr.PointsCost,
		rr.Status, rr.OrderID, rr.CreatedAt, rr.ApprovedAt, rr.RejectedAt, rr.UsedAt,
	)
	if err != nil {
		return fmt.Errorf("insert redemption: %w", err)
	}
	return nil
}

// GetRedemption retrieves a redemption by its ID.
func (r *RewardRepository) GetRedemption(ctx context.Context, id string) (*domain.RedeemedReward, error) {
	return getRedemption(ctx, r.db, id, false)
}

// ListRedemptionsByUser returns a page of a user's redemptions, newest first.
func (r *RewardRepository) ListRedemptionsByUser(ctx context.Context, userID string, params pagination.Params) ([]domain.RedeemedReward, int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+redemptionColumns+`, count(*) OVER() AS total_count
		FROM redeemed_rewards
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`,
		userID, params.Limit(), params.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list redemptions: %w", err)
	}
	defer rows.Close()

	var (
		out        []domain.RedeemedReward
		totalCount int
	)
	for rows.Next() {
		rr, err := scanRedemption(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("scan redemption row: %w", err)
		}
		out = append(out, *rr)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate redemption rows: %w", err)
	}
	return out, totalCount, nil
}

// ListApprovedByUser returns every APPROVED redemption of a user.
func (r *RewardRepository) ListApprovedByUser(ctx context.Context, userID string) (out []domain.RedeemedReward, err error) {
	query := `SELECT ` + redemptionColumns + ` FROM redeemed_rewards WHERE user_id = $1 AND status = $2 ORDER BY id`

	ctx, end := database.TraceQuery(ctx, "ListApprovedRewards", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, userID, domain.RewardStatusApproved)
	if err != nil {
		return nil, fmt.Errorf("list approved redemptions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rr, err := scanRedemption(rows)
		if err != nil {
			return nil, fmt.Errorf("scan redemption row: %w", err)
		}
		out = append(out, *rr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate redemption rows: %w", err)
	}
	return out, nil
}

// Approve moves a PENDING redemption to APPROVED and deducts its points
// cost. An insufficient balance rolls the approval back.
func (r *RewardRepository) Approve(ctx context.Context, id string, at time.Time) (*domain.RedeemedReward, *domain.LoyaltyAccount, error) {
	var (
		rr  *domain.RedeemedReward
		acc *domain.LoyaltyAccount
	)
	err := database.InTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		rr, err = transition(ctx, tx, id, domain.RewardStatusApproved, at)
		if err != nil {
			return err
		}
		acc, err = awardPoints(ctx, tx, domain.PointsAward{
			UserID:      rr.UserID,
			Points:      -rr.PointsCost,
			Reason:      domain.ReasonRewardApproval,
			ReferenceID: rr.ID,
		})
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return rr, acc, nil
}

// Reject moves a PENDING redemption to REJECTED.
func (r *RewardRepository) Reject(ctx context.Context, id string, at time.Time) (*domain.RedeemedReward, error) {
	var rr *domain.RedeemedReward
	err := database.InTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		rr, err = transition(ctx, tx, id, domain.RewardStatusRejected, at)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rr, nil
}

// transition locks the redemption, checks the status change and applies it.
func transition(ctx context.Context, q database.Querier, id string, target domain.RewardStatus, at time.Time) (*domain.RedeemedReward, error) {
	rr, err := getRedemption(ctx, q, id, true)
	if err != nil {
		return nil, err
	}
	if !rr.CanTransitionTo(target) {
		return nil, apperrors.Conflict(ReasonInvalidTransition,
			fmt.Sprintf("redemption %s cannot move from %s to %s", id, rr.Status, target))
	}

	column := "approved_at"
	if target == domain.RewardStatusRejected {
		column = "rejected_at"
	}
	if _, err := q.Exec(ctx,
		`UPDATE redeemed_rewards SET status = $2, `+column+` = $3 WHERE id = $1`,
		id, target, at,
	); err != nil {
		return nil, fmt.Errorf("update redemption status: %w", err)
	}

	rr.Status = target
	if target == domain.RewardStatusRejected {
		rr.RejectedAt = &at
	} else {
		rr.ApprovedAt = &at
	}
	return rr, nil
}

func getRedemption(ctx context.Context, q database.Querier, id string, forUpdate bool) (*domain.RedeemedReward, error) {
	query := `SELECT ` + redemptionColumns + ` FROM redeemed_rewards WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	rr, err := scanRedemption(q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("redemption", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get redemption: %w", err)
	}
	return rr, nil
}

func scanRedemption(row rowScanner, extra ...any) (*domain.RedeemedReward, error) {
	var rr domain.RedeemedReward
	dest := append([]any{
		&rr.ID,
		&rr.UserID,
		&rr.RewardID,
		&rr.RewardName,
		&rr.RewardType,
		&rr.Value,
		&rr.PointsCost,
		&rr.Status,
		&rr.OrderID,
		&rr.CreatedAt,
		&rr.ApprovedAt,
		&rr.RejectedAt,
		&rr.UsedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &rr, nil
}
