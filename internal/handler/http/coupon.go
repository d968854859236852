package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/domain"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/service"
	"github.com/Mdsakib999/cloud-kitchen-server/pkg/httputil"
	"github.com/Mdsakib999/cloud-kitchen-server/pkg/middleware"
	"github.com/Mdsakib999/cloud-kitchen-server/pkg/validator"
)

// CouponHandler handles HTTP requests for coupon endpoints.
type CouponHandler struct {
	service *service.CouponService
	logger  *slog.Logger
}

// NewCouponHandler creates a new coupon HTTP handler.
func NewCouponHandler(svc *service.CouponService, logger *slog.Logger) *CouponHandler {
	return &CouponHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateCouponRequest is the JSON request body for creating a coupon.
type CreateCouponRequest struct {
	Code              string    `json:"code" validate:"required"`
	DiscountAmount    float64   `json:"discount_amount" validate:"required,gt=0"`
	Type              string    `json:"type" validate:"required,oneof=flat percentage"`
	StartDate         time.Time `json:"start_date" validate:"required"`
	EndDate           time.Time `json:"end_date" validate:"required"`
	UsageLimit        int       `json:"usage_limit" validate:"required,gte=1"`
	MinPurchaseAmount float64   `json:"min_purchase_amount" validate:"gte=0"`
}

// UpdateCouponRequest is the JSON request body for a partial coupon update.
type UpdateCouponRequest struct {
	DiscountAmount    *float64   `json:"discount_amount" validate:"omitempty,gt=0"`
	Type              *string    `json:"type" validate:"omitempty,oneof=flat percentage"`
	StartDate         *time.Time `json:"start_date"`
	EndDate           *time.Time `json:"end_date"`
	IsActive          *bool      `json:"is_active"`
	UsageLimit        *int       `json:"usage_limit" validate:"omitempty,gte=1"`
	MinPurchaseAmount *float64   `json:"min_purchase_amount" validate:"omitempty,gte=0"`
}

// ValidateCouponRequest is the JSON request body for checking a coupon
// against a cart total.
type ValidateCouponRequest struct {
	Code      string  `json:"code" validate:"required"`
	CartTotal float64 `json:"cart_total" validate:"gte=0"`
}

// ValidateCouponResponse reports the discount a valid coupon yields.
type ValidateCouponResponse struct {
	Coupon   *domain.Coupon `json:"coupon"`
	Discount float64        `json:"discount"`
}

// --- Handlers ---

// CreateCoupon handles POST /api/v1/coupons
func (h *CouponHandler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	coupon, err := h.service.CreateCoupon(r.Context(), service.CreateCouponInput{
		Code:              req.Code,
		DiscountAmount:    req.DiscountAmount,
		Type:              req.Type,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		UsageLimit:        req.UsageLimit,
		MinPurchaseAmount: req.MinPurchaseAmount,
		CreatedBy:         middleware.UserIDFromContext(r.Context()),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: coupon})
}

// ListCoupons handles GET /api/v1/coupons
func (h *CouponHandler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.service.ListCoupons(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: coupons})
}

// UpdateCoupon handles PUT /api/v1/coupons/{code}
func (h *CouponHandler) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	coupon, err := h.service.UpdateCoupon(r.Context(), code, service.UpdateCouponInput{
		DiscountAmount:    req.DiscountAmount,
		Type:              req.Type,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		IsActive:          req.IsActive,
		UsageLimit:        req.UsageLimit,
		MinPurchaseAmount: req.MinPurchaseAmount,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: coupon})
}

// DeleteCoupon handles DELETE /api/v1/coupons/{id}
func (h *CouponHandler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteCoupon(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ValidateCoupon handles POST /api/v1/coupons/validate
func (h *CouponHandler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req ValidateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	coupon, discount, err := h.service.ValidateCoupon(r.Context(), req.Code, req.CartTotal)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: ValidateCouponResponse{Coupon: coupon, Discount: discount}})
}
