package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/domain"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/repository"
	apperrors "github.com/Mdsakib999/cloud-kitchen-server/pkg/errors"
)

// CouponService implements coupon management and validation.
type CouponService struct {
	repo   repository.CouponRepository
	logger *slog.Logger
}

// NewCouponService creates a new coupon service.
func NewCouponService(repo repository.CouponRepository, logger *slog.Logger) *CouponService {
	return &CouponService{repo: repo, logger: logger}
}

// CreateCouponInput holds the parameters for creating a coupon.
type CreateCouponInput struct {
	Code              string
	DiscountAmount    float64
	Type              string
	StartDate         time.Time
	EndDate           time.Time
	UsageLimit        int
	MinPurchaseAmount float64
	CreatedBy         string
}

// CreateCoupon creates a new coupon. Codes are stored uppercase.
func (s *CouponService) CreateCoupon(ctx context.Context, input CreateCouponInput) (*domain.Coupon, error) {
	if input.Code == "" {
		return nil, apperrors.InvalidInput("code is required")
	}
	if !domain.IsValidCouponType(input.Type) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid coupon type %q, must be one of: %s",
			input.Type, strings.Join(domain.ValidCouponTypes(), ", ")))
	}
	if input.DiscountAmount <= 0 {
		return nil, apperrors.InvalidInput("discount_amount must be positive")
	}
	if input.Type == domain.CouponTypePercentage && input.DiscountAmount > 100 {
		return nil, apperrors.InvalidInput("percentage discount cannot exceed 100")
	}
	if input.UsageLimit <= 0 {
		return nil, apperrors.InvalidInput("usage_limit must be positive")
	}
	if !input.EndDate.After(input.StartDate) {
		return nil, apperrors.InvalidInput("end_date must be after start_date")
	}

	now := time.Now().UTC()
	coupon := &domain.Coupon{
		ID:                uuid.New().String(),
		Code:              strings.ToUpper(strings.TrimSpace(input.Code)),
		DiscountAmount:    input.DiscountAmount,
		Type:              input.Type,
		StartDate:         input.StartDate,
		EndDate:           input.EndDate,
		IsActive:          true,
		UsageLimit:        input.UsageLimit,
		MinPurchaseAmount: input.MinPurchaseAmount,
		CreatedBy:         input.CreatedBy,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Create(ctx, coupon); err != nil {
		return nil, fmt.Errorf("create coupon: %w", err)
	}

	s.logger.InfoContext(ctx, "coupon created",
		slog.String("coupon_id", coupon.ID),
		slog.String("code", coupon.Code),
	)

	return coupon, nil
}

// ListCoupons returns all coupons, most recently created first.
func (s *CouponService) ListCoupons(ctx context.Context) ([]domain.Coupon, error) {
	coupons, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	return coupons, nil
}

// UpdateCouponInput holds the parameters for updating a coupon. Nil fields
// keep their current values.
type UpdateCouponInput struct {
	DiscountAmount    *float64
	Type              *string
	StartDate         *time.Time
	EndDate           *time.Time
	IsActive          *bool
	UsageLimit        *int
	MinPurchaseAmount *float64
}

// UpdateCoupon applies a partial update to the coupon with the given code.
func (s *CouponService) UpdateCoupon(ctx context.Context, code string, input UpdateCouponInput) (*domain.Coupon, error) {
	coupon, err := s.repo.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, fmt.Errorf("get coupon for update: %w", err)
	}

	if input.Type != nil {
		if !domain.IsValidCouponType(*input.Type) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid coupon type %q", *input.Type))
		}
		coupon.Type = *input.Type
	}
	if input.DiscountAmount != nil {
		if *input.DiscountAmount <= 0 {
			return nil, apperrors.InvalidInput("discount_amount must be positive")
		}
		coupon.DiscountAmount = *input.DiscountAmount
	}
	if input.StartDate != nil {
		coupon.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		coupon.EndDate = *input.EndDate
	}
	if input.IsActive != nil {
		coupon.IsActive = *input.IsActive
	}
	if input.UsageLimit != nil {
		if *input.UsageLimit <= 0 {
			return nil, apperrors.InvalidInput("usage_limit must be positive")
		}
		coupon.UsageLimit = *input.UsageLimit
	}
	if input.MinPurchaseAmount != nil {
		coupon.MinPurchaseAmount = *input.MinPurchaseAmount
	}

	if !coupon.EndDate.After(coupon.StartDate) {
		return nil, apperrors.InvalidInput("end_date must be after start_date")
	}

	if err := s.repo.Update(ctx, coupon); err != nil {
		return nil, fmt.Errorf("update coupon: %w", err)
	}

	s.logger.InfoContext(ctx, "coupon updated", slog.String("code", coupon.Code))

	return coupon, nil
}

// DeleteCoupon removes a coupon by its identifier.
func (s *CouponService) DeleteCoupon(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}

	s.logger.InfoContext(ctx, "coupon deleted", slog.String("coupon_id", id))

	return nil
}

// ValidateCoupon checks whether the coupon can be applied to a cart of the
// given total and returns the coupon and the computed discount. The same
// validator serves both the validation endpoint and order placement.
func (s *CouponService) ValidateCoupon(ctx context.Context, code string, cartTotal float64) (*domain.Coupon, float64, error) {
	if code == "" {
		return nil, 0, apperrors.InvalidInput("code is required")
	}
	if cartTotal < 0 {
		return nil, 0, apperrors.InvalidInput("cart_total cannot be negative")
	}

	coupon, err := s.repo.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, 0, fmt.Errorf("get coupon by code: %w", err)
	}

	discount, err := coupon.Validate(time.Now().UTC(), cartTotal)
	if err != nil {
		return nil, 0, couponError(err)
	}

	return coupon, discount, nil
}

// couponError wraps a domain coupon validation error in a 400 AppError while
// keeping the domain sentinel reachable through errors.Is.
func couponError(err error) error {
	code := "COUPON_INVALID"
	switch {
	case errors.Is(err, domain.ErrCouponInactive):
		code = "COUPON_INACTIVE"
	case errors.Is(err, domain.ErrCouponExpired):
		code = "COUPON_EXPIRED"
	case errors.Is(err, domain.ErrCouponLimitReached):
		code = "COUPON_LIMIT_REACHED"
	case errors.Is(err, domain.ErrCouponMinimumNotMet):
		code = "COUPON_MINIMUM_NOT_MET"
	}

	return &apperrors.AppError{
		Code:    code,
		Message: err.Error(),
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}
