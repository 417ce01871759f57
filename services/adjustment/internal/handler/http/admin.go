package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/pagination"
	"github.com/utafrali/storefront/pkg/validator"
	"github.com/utafrali/storefront/services/adjustment/internal/domain"
	"github.com/utafrali/storefront/services/adjustment/internal/service"
)

// AdminHandler handles HTTP requests for coupon and campaign administration.
type AdminHandler struct {
	service *service.AdminService
	logger  *slog.Logger
}

// NewAdminHandler creates a new admin HTTP handler.
func NewAdminHandler(svc *service.AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateCouponRequest is the JSON request body for creating a coupon. Codes
// are upper-cased before validation.
type CreateCouponRequest struct {
	Code              string          `json:"code" validate:"required,couponcode"`
	Kind              string          `json:"kind" validate:"required,oneof=percentage fixed free_shipping"`
	Value             decimal.Decimal `json:"value"`
	MinPurchase       *int64          `json:"min_purchase" validate:"omitempty,gte=0"`
	MaxDiscount       *int64          `json:"max_discount" validate:"omitempty,gt=0"`
	StartDate         *time.Time      `json:"start_date"`
	EndDate           *time.Time      `json:"end_date"`
	UsageLimit        *int            `json:"usage_limit" validate:"omitempty,gt=0"`
	UsageLimitPerUser *int            `json:"usage_limit_per_user" validate:"omitempty,gt=0"`
}

// CreateCampaignRequest is the JSON request body for creating a campaign.
type CreateCampaignRequest struct {
	Name             string          `json:"name" validate:"required,min=1,max=255"`
	Description      string          `json:"description"`
	Type             string          `json:"type" validate:"required,oneof=discount free_shipping points_multiplier bogo"`
	DiscountKind     string          `json:"discount_kind" validate:"omitempty,oneof=percentage fixed"`
	DiscountValue    decimal.Decimal `json:"discount_value"`
	MaxDiscount      *int64          `json:"max_discount" validate:"omitempty,gt=0"`
	MinPurchase      *int64          `json:"min_purchase" validate:"omitempty,gte=0"`
	PointsMultiplier decimal.Decimal `json:"points_multiplier"`
	StartDate        *time.Time      `json:"start_date"`
	EndDate          *time.Time      `json:"end_date"`
	UsageLimit       *int            `json:"usage_limit" validate:"omitempty,gt=0"`
}

// --- Coupon handlers ---

// CreateCoupon handles POST /api/v1/coupons
func (h *AdminHandler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req CreateCouponRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Code = domain.NormalizeCode(req.Code)
	if err := validator.Validate(req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	coupon, err := h.service.CreateCoupon(r.Context(), &service.CreateCouponInput{
		Code:              req.Code,
		Kind:              domain.DiscountKind(req.Kind),
		Value:             req.Value,
		MinPurchase:       req.MinPurchase,
		MaxDiscount:       req.MaxDiscount,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		UsageLimit:        req.UsageLimit,
		UsageLimitPerUser: req.UsageLimitPerUser,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: coupon})
}

// ListCoupons handles GET /api/v1/coupons
func (h *AdminHandler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	coupons, total, err := h.service.ListCoupons(r.Context(), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(coupons, total, params))
}

// GetCoupon handles GET /api/v1/coupons/{id}
func (h *AdminHandler) GetCoupon(w http.ResponseWriter, r *http.Request) {
	coupon, err := h.service.GetCoupon(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: coupon})
}

// DeactivateCoupon handles POST /api/v1/coupons/{id}/deactivate
func (h *AdminHandler) DeactivateCoupon(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeactivateCoupon(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Campaign handlers ---

// CreateCampaign handles POST /api/v1/campaigns
func (h *AdminHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req CreateCampaignRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	campaign, err := h.service.CreateCampaign(r.Context(), &service.CreateCampaignInput{
		Name:             req.Name,
		Description:      req.Description,
		Type:             domain.CampaignType(req.Type),
		DiscountKind:     domain.DiscountKind(req.DiscountKind),
		DiscountValue:    req.DiscountValue,
		MaxDiscount:      req.MaxDiscount,
		MinPurchase:      req.MinPurchase,
		PointsMultiplier: req.PointsMultiplier,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		UsageLimit:       req.UsageLimit,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: campaign})
}

// ListCampaigns handles GET /api/v1/campaigns
func (h *AdminHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	campaigns, total, err := h.service.ListCampaigns(r.Context(), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(campaigns, total, params))
}

// GetCampaign handles GET /api/v1/campaigns/{id}
func (h *AdminHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	campaign, err := h.service.GetCampaign(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: campaign})
}

// DeactivateCampaign handles POST /api/v1/campaigns/{id}/deactivate
func (h *AdminHandler) DeactivateCampaign(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeactivateCampaign(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
