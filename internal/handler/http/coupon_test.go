package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/domain"
)

func validCoupon() *domain.Coupon {
	now := time.Now().UTC()
	return &domain.Coupon{
		ID:                "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d",
		Code:              "WELCOME10",
		DiscountAmount:    10,
		Type:              domain.CouponTypePercentage,
		StartDate:         now.AddDate(0, -1, 0),
		EndDate:           now.AddDate(0, 1, 0),
		IsActive:          true,
		UsageLimit:        100,
		UsedCount:         5,
		MinPurchaseAmount: 20,
	}
}

// --- ValidateCoupon Tests ---

func TestValidateCoupon_OK(t *testing.T) {
	env := newTestEnv(t)

	env.coupons.On("GetByCode", mock.Anything, "WELCOME10").Return(validCoupon(), nil)

	req := jsonRequest(t, http.MethodPost, "/api/v1/coupons/validate", map[string]any{
		"code":       "welcome10",
		"cart_total": 200,
	})
	req.Header.Set("Authorization", env.bearer(t, testUserID, domain.RoleUser))

	rec := env.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, 20.0, data["discount"]) // 10% of 200
}

func TestValidateCoupon_BelowMinimum(t *testing.T) {
	env := newTestEnv(t)

	env.coupons.On("GetByCode", mock.Anything, "WELCOME10").Return(validCoupon(), nil)

	req := jsonRequest(t, http.MethodPost, "/api/v1/coupons/validate", map[string]any{
		"code":       "WELCOME10",
		"cart_total": 10,
	})
	req.Header.Set("Authorization", env.bearer(t, testUserID, domain.RoleUser))

	rec := env.do(req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "COUPON_MINIMUM_NOT_MET", resp.Error.Code)
}

func TestValidateCoupon_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	req := jsonRequest(t, http.MethodPost, "/api/v1/coupons/validate", map[string]any{
		"code":       "WELCOME10",
		"cart_total": 200,
	})

	rec := env.do(req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// --- Admin CRUD Tests ---

func TestCreateCoupon_Admin(t *testing.T) {
	env := newTestEnv(t)

	env.coupons.On("Create", mock.Anything, mock.AnythingOfType("*domain.Coupon")).Return(nil)

	now := time.Now().UTC()
	req := jsonRequest(t, http.MethodPost, "/api/v1/coupons/", map[string]any{
		"code":            "SUMMER20",
		"discount_amount": 20,
		"type":            "percentage",
		"start_date":      now.Format(time.RFC3339),
		"end_date":        now.AddDate(0, 1, 0).Format(time.RFC3339),
		"usage_limit":     50,
	})
	req.Header.Set("Authorization", env.adminBearer(t))

	rec := env.do(req)

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	coupon := resp.Data.(map[string]any)
	assert.Equal(t, "SUMMER20", coupon["code"])
}

func TestCreateCoupon_RequiresAdmin(t *testing.T) {
	env := newTestEnv(t)

	req := jsonRequest(t, http.MethodPost, "/api/v1/coupons/", map[string]any{
		"code": "SUMMER20",
	})
	req.Header.Set("Authorization", env.bearer(t, testUserID, domain.RoleUser))

	rec := env.do(req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	env.coupons.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateCoupon_InvalidType(t *testing.T) {
	env := newTestEnv(t)

	now := time.Now().UTC()
	req := jsonRequest(t, http.MethodPost, "/api/v1/coupons/", map[string]any{
		"code":            "SUMMER20",
		"discount_amount": 20,
		"type":            "bogo",
		"start_date":      now.Format(time.RFC3339),
		"end_date":        now.AddDate(0, 1, 0).Format(time.RFC3339),
		"usage_limit":     50,
	})
	req.Header.Set("Authorization", env.adminBearer(t))

	rec := env.do(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateCoupon_Deactivate(t *testing.T) {
	env := newTestEnv(t)

	env.coupons.On("GetByCode", mock.Anything, "WELCOME10").Return(validCoupon(), nil)
	env.coupons.On("Update", mock.Anything, mock.MatchedBy(func(c *domain.Coupon) bool {
		return !c.IsActive
	})).Return(nil)

	req := jsonRequest(t, http.MethodPut, "/api/v1/coupons/WELCOME10", map[string]any{
		"is_active": false,
	})
	req.Header.Set("Authorization", env.adminBearer(t))

	rec := env.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	env.coupons.AssertExpectations(t)
}

func TestListCoupons_Admin(t *testing.T) {
	env := newTestEnv(t)

	env.coupons.On("List", mock.Anything).Return([]domain.Coupon{*validCoupon()}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/coupons/", nil)
	req.Header.Set("Authorization", env.adminBearer(t))

	rec := env.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Len(t, resp.Data.([]any), 1)
}
