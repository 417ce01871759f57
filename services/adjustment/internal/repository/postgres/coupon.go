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

const couponColumns = `id, code, kind, value, min_purchase, max_discount, start_date, end_date,
	usage_limit, usage_count, usage_limit_per_user, active, created_at, updated_at`

// CouponRepository implements repository.CouponRepository using PostgreSQL.
type CouponRepository struct {
	db database.DBTX
}

// NewCouponRepository creates a new PostgreSQL-backed coupon repository.
func NewCouponRepository(db database.DBTX) *CouponRepository {
	return &CouponRepository{db: db}
}

// Create inserts a new coupon into the database.
func (r *CouponRepository) Create(ctx context.Context, c *domain.Coupon) error {
	query := `
		INSERT INTO coupons (` + couponColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.Exec(ctx, query,
		c.ID,
		c.Code,
		c.Kind,
		c.Value,
		c.MinPurchase,
		c.MaxDiscount,
		c.StartDate,
		c.EndDate,
		c.UsageLimit,
		c.UsageCount,
		c.UsageLimitPerUser,
		c.Active,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("coupon", "code", c.Code)
		}
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

// GetByID retrieves a coupon by its ID.
func (r *CouponRepository) GetByID(ctx context.Context, id string) (*domain.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`

	c, err := scanCoupon(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("coupon", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get coupon by id: %w", err)
	}
	return c, nil
}

// GetByCode retrieves a coupon by its code, ignoring case.
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (c *domain.Coupon, err error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE UPPER(code) = UPPER($1)`

	ctx, end := database.TraceQuery(ctx, "GetCouponByCode", query)
	defer func() { end(err) }()

	c, err = scanCoupon(r.db.QueryRow(ctx, query, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("coupon", code)
	}
	if err != nil {
		return nil, fmt.Errorf("get coupon by code: %w", err)
	}
	return c, nil
}

// List returns a page of coupons, newest first, with the total count.
func (r *CouponRepository) List(ctx context.Context, params pagination.Params) ([]domain.Coupon, int, error) {
	query := `
		SELECT ` + couponColumns + `, count(*) OVER() AS total_count
		FROM coupons
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	var (
		coupons    []domain.Coupon
		totalCount int
	)
	for rows.Next() {
		c, err := scanCoupon(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("scan coupon row: %w", err)
		}
		coupons = append(coupons, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate coupon rows: %w", err)
	}

	return coupons, totalCount, nil
}

// Deactivate clears the active flag of a coupon.
func (r *CouponRepository) Deactivate(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `UPDATE coupons SET active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate coupon: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("coupon", id)
	}
	return nil
}

// CountUsagesByUser counts the ledger entries of a coupon for one user.
func (r *CouponRepository) CountUsagesByUser(ctx context.Context, couponID, userID string) (int, error) {
	return countCouponUsages(ctx, r.db, couponID, userID)
}

// DeactivateExpired clears the active flag of coupons past their end date.
func (r *CouponRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	ct, err := r.db.Exec(ctx, `
		UPDATE coupons SET active = FALSE, updated_at = NOW()
		WHERE active AND end_date IS NOT NULL AND end_date < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("deactivate expired coupons: %w", err)
	}
	return ct.RowsAffected(), nil
}

func countCouponUsages(ctx context.Context, q database.Querier, couponID, userID string) (int, error) {
	var n int
	err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM coupon_usages WHERE coupon_id = $1 AND user_id = $2`,
		couponID, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count coupon usages: %w", err)
	}
	return n, nil
}

func scanCoupon(row rowScanner, extra ...any) (*domain.Coupon, error) {
	var c domain.Coupon
	dest := append([]any{
		&c.ID,
		&c.Code,
		&c.Kind,
		&c.Value,
		&c.MinPurchase,
		&c.MaxDiscount,
		&c.StartDate,
		&c.EndDate,
		&c.UsageLimit,
		&c.UsageCount,
		&c.UsageLimitPerUser,
		&c.Active,
		&c.CreatedAt,
		&c.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &c, nil
}
