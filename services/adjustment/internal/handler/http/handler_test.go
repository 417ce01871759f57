package http

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/lock"
	"github.com/utafrali/storefront/services/adjustment/internal/service"
)

// ============================================================================
// Test fixture
// ============================================================================

type fixture struct {
	coupons   *mockCouponRepository
	campaigns *mockCampaignRepository
	rewards   *mockRewardRepository
	loyalty   *mockLoyaltyRepository
	ledger    *mockLedger
	router    *chi.Mux
}

// newFixture wires real services over mock repositories, without a
// campaign cache, and mounts them the way NewRouter does.
func newFixture() *fixture {
	f := &fixture{
		coupons:   new(mockCouponRepository),
		campaigns: new(mockCampaignRepository),
		rewards:   new(mockRewardRepository),
		loyalty:   new(mockLoyaltyRepository),
		ledger:    new(mockLedger),
	}
	logger := testLogger()
	producer := testEventProducer()

	adjustments := service.NewAdjustmentService(
		f.coupons, f.campaigns, nil, f.rewards, f.ledger,
		lock.NewLocalLocker(), producer, logger,
	)
	loyalty := service.NewLoyaltyService(f.loyalty, f.rewards, producer, logger)
	admin := service.NewAdminService(f.coupons, f.campaigns, nil, producer, logger)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		mountRoutes(r, nil,
			NewAdjustmentHandler(adjustments, logger),
			NewLoyaltyHandler(loyalty, logger),
			NewAdminHandler(admin, logger),
		)
	})
	f.router = r
	return f
}

func (f *fixture) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// decodeResponse reads the response body into the httputil.Response struct.
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

// decodeData decodes the data member of the envelope into dst.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NoError(t, json.Unmarshal(resp.Data, dst))
}

func intPtr(v int) *int { return &v }

func jsonDecode(rec *httptest.ResponseRecorder, dst any) error {
	return json.NewDecoder(rec.Body).Decode(dst)
}
