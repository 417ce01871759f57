package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/services/adjustment/internal/domain"
)

func sampleCampaign() *domain.Campaign {
	return &domain.Campaign{
		ID:               "camp-001",
		Name:             "Summer Sale",
		Description:      "20% off everything",
		Type:             domain.CampaignTypeDiscount,
		DiscountKind:     domain.DiscountKindPercentage,
		DiscountValue:    decimal.NewFromInt(20),
		MaxDiscount:      int64Ptr(10000),
		MinPurchase:      nil,
		PointsMultiplier: decimal.NewFromInt(1),
		StartDate:        timePtr(fixedNow),
		EndDate:          timePtr(fixedNow.AddDate(0, 0, 30)),
		UsageLimit:       intPtr(1000),
		UsageCount:       42,
		Active:           true,
		CreatedAt:        fixedNow,
		UpdatedAt:        fixedNow,
	}
}

func campaignColumnNames() []string {
	return []string{
		"id", "name", "description", "type", "discount_kind", "discount_value", "max_discount",
		"min_purchase", "points_multiplier", "start_date", "end_date", "usage_limit", "usage_count",
		"active", "created_at", "updated_at",
	}
}

func campaignValues(c *domain.Campaign) []any {
	return []any{
		c.ID, c.Name, c.Description, c.Type, c.DiscountKind, c.DiscountValue, c.MaxDiscount,
		c.MinPurchase, c.PointsMultiplier, c.StartDate, c.EndDate, c.UsageLimit, c.UsageCount,
		c.Active, c.CreatedAt, c.UpdatedAt,
	}
}

func TestCampaignRepository_Create_Success(t *testing.T) {
	mock := setupMock(t)
	defer mock.Close()
	repo := NewCampaignRepository(mock)

	c := sampleCampaign()
	mock.ExpectExec("INSERT INTO campaigns").
		WithArgs(campaignValues(c)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), c))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepository_Create_ExecError(t *testing.T) {
	mock := setupMock(t)
	defer mock.Close()
	repo := NewCampaignRepository(mock)

	c := sampleCampaign()
	mock.ExpectExec("INSERT INTO campaigns").
		WithArgs(campaignValues(c)...).
		WillReturnError(errors.New("connection refused"))

	err := repo.Create(context.Background(), c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert campaign")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepository_GetByID_NotFound(t *testing.T) {
	mock := setupMock(t)
	defer mock.Close()
	repo := NewCampaignRepository(mock)

	mock.ExpectQuery("FROM campaigns WHERE id").
		WithArgs("nonexistent").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetByID(context.Background(), "nonexistent")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepository_ListActive(t *testing.T) {
	mock := setupMock(t)
	defer mock.Close()
	repo := NewCampaignRepository(mock)

	c1 := sampleCampaign()
	c2 := sampleCampaign()
	c2.ID = "camp-002"
	c2.Type = domain.CampaignTypePointsMultiplier
	c2.DiscountKind = ""
	c2.DiscountValue = decimal.Zero
	c2.PointsMultiplier = decimal.NewFromInt(2)
	c2.UsageLimit = nil

	mock.ExpectQuery("FROM campaigns WHERE active ORDER BY id").
		WillReturnRows(pgxmock.NewRows(campaignColumnNames()).
			AddRow(campaignValues(c1)...).
			AddRow(campaignValues(c2)...))

	got, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "camp-001", got[0].ID)
	assert.Equal(t, domain.CampaignTypePointsMultiplier, got[1].Type)
	assert.True(t, decimal.NewFromInt(2).Equal(got[1].PointsMultiplier))
	assert.Nil(t, got[1].UsageLimit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepository_ListActive_QueryError(t *testing.T) {
	mock := setupMock(t)
	defer mock.Close()
	repo := NewCampaignRepository(mock)

	mock.ExpectQuery("FROM campaigns WHERE active").
		WillReturnError(errors.New("connection reset"))

	got, err := repo.ListActive(context.Background())
	assert.Nil(t, got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list active campaigns")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepository_Deactivate(t *testing.T) {
	mock := setupMock(t)
	defer mock.Close()
	repo := NewCampaignRepository(mock)

	mock.ExpectExec("UPDATE campaigns SET active = FALSE").
		WithArgs("camp-001").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.Deactivate(context.Background(), "camp-001"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
