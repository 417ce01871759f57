package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/pagination"
	"github.com/utafrali/storefront/pkg/validator"
	"github.com/utafrali/storefront/services/adjustment/internal/domain"
	"github.com/utafrali/storefront/services/adjustment/internal/service"
)

// LoyaltyHandler handles HTTP requests for loyalty accounts, the reward
// catalog and redemptions.
type LoyaltyHandler struct {
	service *service.LoyaltyService
	logger  *slog.Logger
}

// NewLoyaltyHandler creates a new loyalty HTTP handler.
func NewLoyaltyHandler(svc *service.LoyaltyService, logger *slog.Logger) *LoyaltyHandler {
	return &LoyaltyHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateRewardRequest is the JSON request body for adding a catalog reward.
type CreateRewardRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=255"`
	Description string `json:"description"`
	Type        string `json:"type" validate:"required,oneof=discount free_delivery free_product cashback"`
	Value       int64  `json:"value" validate:"gte=0"`
	PointsCost  int64  `json:"points_cost" validate:"required,gt=0"`
}

// RedeemRewardRequest is the optional JSON body of a redemption. The user
// falls back to the X-User-ID header.
type RedeemRewardRequest struct {
	UserID string `json:"user_id" validate:"omitempty,max=64"`
}

// AwardPointsRequest is the JSON request body for a manual points adjustment.
type AwardPointsRequest struct {
	Points      int64  `json:"points" validate:"required"`
	Reason      string `json:"reason" validate:"required,max=64"`
	ReferenceID string `json:"reference_id" validate:"required,max=128"`
}

// --- Handlers ---

// CreateReward handles POST /api/v1/rewards
func (h *LoyaltyHandler) CreateReward(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req CreateRewardRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	reward, err := h.service.CreateReward(r.Context(), &service.CreateRewardInput{
		Name:        req.Name,
		Description: req.Description,
		Type:        domain.RewardType(req.Type),
		Value:       req.Value,
		PointsCost:  req.PointsCost,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: reward})
}

// ListRewards handles GET /api/v1/rewards
func (h *LoyaltyHandler) ListRewards(w http.ResponseWriter, r *http.Request) {
	rewards, err := h.service.ListRewards(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if rewards == nil {
		rewards = []domain.Reward{}
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: rewards})
}

// RedeemReward handles POST /api/v1/rewards/{rewardId}/redeem
func (h *LoyaltyHandler) RedeemReward(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req RedeemRewardRequest
	if r.ContentLength != 0 {
		if !decodeBody(w, r, &req) {
			return
		}
		if err := validator.Validate(req); err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
	}
	userID := req.UserID
	if userID == "" {
		userID = r.Header.Get(middleware.HeaderUserID)
	}

	rr, err := h.service.RedeemReward(r.Context(), userID, chi.URLParam(r, "rewardId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: rr})
}

// ApproveRedemption handles POST /api/v1/redemptions/{id}/approve
func (h *LoyaltyHandler) ApproveRedemption(w http.ResponseWriter, r *http.Request) {
	rr, err := h.service.ApproveRedemption(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: rr})
}

// RejectRedemption handles POST /api/v1/redemptions/{id}/reject
func (h *LoyaltyHandler) RejectRedemption(w http.ResponseWriter, r *http.Request) {
	rr, err := h.service.RejectRedemption(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: rr})
}

// ListRedemptions handles GET /api/v1/users/{userId}/redemptions
func (h *LoyaltyHandler) ListRedemptions(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	out, total, err := h.service.ListRedemptions(r.Context(), chi.URLParam(r, "userId"), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(out, total, params))
}

// GetAccount handles GET /api/v1/users/{userId}/loyalty
func (h *LoyaltyHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	acc, err := h.service.GetAccount(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: acc})
}

// ListTransactions handles GET /api/v1/users/{userId}/loyalty/transactions
func (h *LoyaltyHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	txns, total, err := h.service.ListTransactions(r.Context(), chi.URLParam(r, "userId"), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(txns, total, params))
}

// AwardPoints handles POST /api/v1/users/{userId}/loyalty/award
func (h *LoyaltyHandler) AwardPoints(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req AwardPointsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	acc, err := h.service.Award(r.Context(), chi.URLParam(r, "userId"), &service.AwardInput{
		Points:      req.Points,
		Reason:      req.Reason,
		ReferenceID: req.ReferenceID,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: acc})
}
