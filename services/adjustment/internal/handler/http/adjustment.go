package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/validator"
	"github.com/utafrali/storefront/services/adjustment/internal/domain"
	"github.com/utafrali/storefront/services/adjustment/internal/service"
)

// maxBodyBytes caps request bodies at 1 MB.
const maxBodyBytes = 1 << 20

// AdjustmentHandler handles HTTP requests for order adjustments.
type AdjustmentHandler struct {
	service *service.AdjustmentService
	logger  *slog.Logger
}

// NewAdjustmentHandler creates a new adjustment HTTP handler.
func NewAdjustmentHandler(svc *service.AdjustmentService, logger *slog.Logger) *AdjustmentHandler {
	return &AdjustmentHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// PreviewRequest is the JSON request body for pricing an order.
// A missing reward_ids applies every approved reward of the user.
type PreviewRequest struct {
	UserID     string   `json:"user_id" validate:"required,max=64"`
	OrderTotal *int64   `json:"order_total" validate:"required"`
	CouponCode string   `json:"coupon_code" validate:"omitempty,max=64"`
	RewardIDs  []string `json:"reward_ids" validate:"omitempty,dive,required"`
}

// CommitRequest is the JSON request body for confirming an order.
type CommitRequest struct {
	PreviewRequest
	OrderID string `json:"order_id" validate:"required,max=64"`
}

func (p *PreviewRequest) input() *service.AdjustmentInput {
	return &service.AdjustmentInput{
		UserID:     p.UserID,
		OrderTotal: *p.OrderTotal,
		CouponCode: p.CouponCode,
		RewardIDs:  p.RewardIDs,
	}
}

// commitResponse adds the replay flag to a committed adjustment.
type commitResponse struct {
	Commit   *domain.AdjustmentCommit `json:"commit"`
	Replayed bool                     `json:"replayed"`
}

// --- Handlers ---

// Preview handles POST /api/v1/adjustments/preview
func (h *AdjustmentHandler) Preview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req PreviewRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.service.PreviewAdjustment(r.Context(), req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// Commit handles POST /api/v1/adjustments/commit. A replayed commit answers
// 200 with the stored result, a fresh one 201.
func (h *AdjustmentHandler) Commit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req CommitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	ctx := logger.WithOrderID(r.Context(), req.OrderID)
	commit, replayed, err := h.service.CommitAdjustment(ctx, req.OrderID, req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	httputil.WriteJSON(w, status, httputil.Response{Data: commitResponse{Commit: commit, Replayed: replayed}})
}

// GetCommitted handles GET /api/v1/adjustments/{orderId}
func (h *AdjustmentHandler) GetCommitted(w http.ResponseWriter, r *http.Request) {
	commit, err := h.service.GetCommittedAdjustment(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: commit})
}

// decodeBody decodes a JSON request body, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return false
	}
	return true
}
