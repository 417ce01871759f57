package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
	"github.com/utafrali/storefront/services/adjustment/internal/domain"
)

// LoyaltyRepository implements repository.LoyaltyRepository using PostgreSQL.
type LoyaltyRepository struct {
	db database.DBTX
}

// NewLoyaltyRepository creates a new PostgreSQL-backed loyalty repository.
func NewLoyaltyRepository(db database.DBTX) *LoyaltyRepository {
	return &LoyaltyRepository{db: db}
}

// Award applies one points change in its own transaction.
func (r *LoyaltyRepository) Award(ctx context.Context, a domain.PointsAward) (acc *domain.LoyaltyAccount, err error) {
	ctx, end := database.TraceQuery(ctx, "AwardPoints", "award points")
	defer func() { end(err) }()

	err = database.InTx(ctx, r.db, func(tx pgx.Tx) error {
		acc, err = awardPoints(ctx, tx, a)
		return err
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// GetAccount retrieves a user's loyalty account. A user with no activity
// gets a zero bronze account.
func (r *LoyaltyRepository) GetAccount(ctx context.Context, userID string) (*domain.LoyaltyAccount, error) {
	var acc domain.LoyaltyAccount
	err := r.db.QueryRow(ctx, `
		SELECT user_id, points_balance, total_spent, tier, updated_at
		FROM loyalty_accounts
		WHERE user_id = $1`, userID,
	).Scan(&acc.UserID, &acc.PointsBalance, &acc.TotalSpent, &acc.Tier, &acc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.LoyaltyAccount{UserID: userID, Tier: domain.TierBronze}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get loyalty account: %w", err)
	}
	return &acc, nil
}

// ListTransactions returns a page of a user's points history, newest first.
func (r *LoyaltyRepository) ListTransactions(ctx context.Context, userID string, params pagination.Params) ([]domain.PointsTransaction, int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, points, reason, reference_id, balance_after, created_at,
		       count(*) OVER() AS total_count
		FROM points_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`,
		userID, params.Limit(), params.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list points transactions: %w", err)
	}
	defer rows.Close()

	var (
		txns       []domain.PointsTransaction
		totalCount int
	)
	for rows.Next() {
		var t domain.PointsTransaction
		if err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.Points,
			&t.Reason,
			&t.ReferenceID,
			&t.BalanceAfter,
			&t.CreatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan points transaction row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate points transaction rows: %w", err)
	}

	return txns, totalCount, nil
}

// awardPoints applies a points change inside the caller's transaction. The
// account row is locked first so concurrent awards for one user serialise.
func awardPoints(ctx context.Context, q database.Querier, a domain.PointsAward) (*domain.LoyaltyAccount, error) {
	if _, err := q.Exec(ctx,
		`INSERT INTO loyalty_accounts (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
		a.UserID,
	); err != nil {
		return nil, fmt.Errorf("ensure loyalty account: %w", err)
	}

	var acc domain.LoyaltyAccount
	if err := q.QueryRow(ctx, `
		SELECT user_id, points_balance, total_spent, tier, updated_at
		FROM loyalty_accounts
		WHERE user_id = $1
		FOR UPDATE`, a.UserID,
	).Scan(&acc.UserID, &acc.PointsBalance, &acc.TotalSpent, &acc.Tier, &acc.UpdatedAt); err != nil {
		return nil, fmt.Errorf("lock loyalty account: %w", err)
	}

	var seen bool
	if err := q.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM points_transactions
			WHERE user_id = $1 AND reason = $2 AND reference_id = $3
		)`, a.UserID, a.Reason, a.ReferenceID,
	).Scan(&seen); err != nil {
		return nil, fmt.Errorf("check points transaction: %w", err)
	}
	if seen {
		return &acc, nil
	}

	balance := acc.PointsBalance + a.Points
	if balance < 0 {
		return nil, apperrors.Conflict(domain.ReasonInsufficientPoints,
			fmt.Sprintf("balance of %d points cannot cover %d", acc.PointsBalance, -a.Points))
	}

	now := time.Now().UTC()
	acc.PointsBalance = balance
	acc.TotalSpent += a.Spend
	acc.Tier = domain.TierFor(acc.TotalSpent)
	acc.UpdatedAt = now

	if _, err := q.Exec(ctx, `
		UPDATE loyalty_accounts
		SET points_balance = $2, total_spent = $3, tier = $4, updated_at = $5
		WHERE user_id = $1`,
		acc.UserID, acc.PointsBalance, acc.TotalSpent, acc.Tier, acc.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("update loyalty account: %w", err)
	}

	if _, err := q.Exec(ctx, `
		INSERT INTO points_transactions (id, user_id, points, reason, reference_id, balance_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New().String(), a.UserID, a.Points, a.Reason, a.ReferenceID, acc.PointsBalance, now,
	); err != nil {
		return nil, fmt.Errorf("insert points transaction: %w", err)
	}

	return &acc, nil
}
