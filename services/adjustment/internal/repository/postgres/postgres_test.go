package postgres

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/services/adjustment/internal/domain"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

var (
	fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	txOpts   = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
)

func setupMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return mock
}

func intPtr(v int) *int { return &v }
func int64Ptr(v int64) *int64 { return &v }
func timePtr(v time.Time) *time.Time { return &v }

func accountColumns() []string {
	return []string{"user_id", "points_balance", "total_spent", "tier", "updated_at"}
}

// pointsExpectation describes the statements awardPoints issues.
type pointsExpectation struct {
	userID      string
	balance     int64
	spent       int64
	points      int64
	spend       int64
	reason      string
	referenceID string
	seen        bool
}

func expectAward(mock pgxmock.PgxPoolIface, p pointsExpectation) {
	mock.ExpectExec("INSERT INTO loyalty_accounts").
		WithArgs(p.userID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("FROM loyalty_accounts").
		WithArgs(p.userID).
		WillReturnRows(pgxmock.NewRows(accountColumns()).
			AddRow(p.userID, p.balance, p.spent, domain.TierFor(p.spent), fixedNow))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(p.userID, p.reason, p.referenceID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(p.seen))
	if p.seen || p.balance+p.points < 0 {
		return
	}

	balance := p.balance + p.points
	spent := p.spent + p.spend
	mock.ExpectExec("UPDATE loyalty_accounts").
		WithArgs(p.userID, balance, spent, domain.TierFor(spent), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO points_transactions").
		WithArgs(pgxmock.AnyArg(), p.userID, p.points, p.reason, p.referenceID, balance, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
}
