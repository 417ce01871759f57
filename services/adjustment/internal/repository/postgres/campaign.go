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

const campaignColumns = `id, name, description, type, discount_kind, discount_value, max_discount,
	min_purchase, points_multiplier, start_date, end_date, usage_limit, usage_count, active,
	created_at, updated_at`

// CampaignRepository implements repository.CampaignRepository using PostgreSQL.
type CampaignRepository struct {
	db database.DBTX
}

// NewCampaignRepository creates a new PostgreSQL-backed campaign repository.
func NewCampaignRepository(db database.DBTX) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// Create inserts a new campaign into the database.
func (r *CampaignRepository) Create(ctx context.Context, c *domain.Campaign) error {
	query := `
		INSERT INTO campaigns (` + campaignColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := r.db.Exec(ctx, query,
		c.ID,
		c.Name,
		c.Description,
		c.Type,
		c.DiscountKind,
		c.DiscountValue,
		c.MaxDiscount,
		c.MinPurchase,
		c.PointsMultiplier,
		c.StartDate,
		c.EndDate,
		c.UsageLimit,
		c.UsageCount,
		c.Active,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

// GetByID retrieves a campaign by its ID.
func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`

	c, err := scanCampaign(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("campaign", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign by id: %w", err)
	}
	return c, nil
}

// List returns a page of campaigns, newest first, with the total count.
func (r *CampaignRepository) List(ctx context.Context, params pagination.Params) ([]domain.Campaign, int, error) {
	query := `
		SELECT ` + campaignColumns + `, count(*) OVER() AS total_count
		FROM campaigns
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var (
		campaigns  []domain.Campaign
		totalCount int
	)
	for rows.Next() {
		c, err := scanCampaign(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("scan campaign row: %w", err)
		}
		campaigns = append(campaigns, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate campaign rows: %w", err)
	}

	return campaigns, totalCount, nil
}

// ListActive returns all campaigns with the active flag set, ordered by ID.
func (r *CampaignRepository) ListActive(ctx context.Context) (campaigns []domain.Campaign, err error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE active ORDER BY id`

	ctx, end := database.TraceQuery(ctx, "ListActiveCampaigns", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active campaigns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign row: %w", err)
		}
		campaigns = append(campaigns, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate campaign rows: %w", err)
	}

	return campaigns, nil
}

// Deactivate clears the active flag of a campaign.
func (r *CampaignRepository) Deactivate(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `UPDATE campaigns SET active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate campaign: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("campaign", id)
	}
	return nil
}

// DeactivateExpired clears the active flag of campaigns past their end date.
func (r *CampaignRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	ct, err := r.db.Exec(ctx, `
		UPDATE campaigns SET active = FALSE, updated_at = NOW()
		WHERE active AND end_date IS NOT NULL AND end_date < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("deactivate expired campaigns: %w", err)
	}
	return ct.RowsAffected(), nil
}

func scanCampaign(row rowScanner, extra ...any) (*domain.Campaign, error) {
	var c domain.Campaign
	dest := append([]any{
		&c.ID,
		&c.Name,
		&c.Description,
		&c.Type,
		&c.DiscountKind,
		&c.DiscountValue,
		&c.MaxDiscount,
		&c.MinPurchase,
		&c.PointsMultiplier,
		&c.StartDate,
		&c.EndDate,
		&c.UsageLimit,
		&c.UsageCount,
		&c.Active,
		&c.CreatedAt,
		&c.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &c, nil
}
