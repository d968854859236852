package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/domain"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/repository"
	apperrors "github.com/Mdsakib999/cloud-kitchen-server/pkg/errors"
)

func newTestOrderService(orders *mockOrderRepository, users *mockUserRepository, coupons *mockCouponRepository) *OrderService {
	logger := newTestLogger()
	couponSvc := NewCouponService(coupons, logger)
	return NewOrderService(orders, users, couponSvc, newTestProducer(), logger)
}

func activeCoupon() *domain.Coupon {
	now := time.Now().UTC()
	return &domain.Coupon{
		ID:                "coupon-001",
		Code:              "WELCOME10",
		DiscountAmount:    10,
		Type:              domain.CouponTypePercentage,
		StartDate:         now.AddDate(0, 0, -1),
		EndDate:           now.AddDate(0, 0, 30),
		IsActive:          true,
		UsageLimit:        100,
		UsedCount:         5,
		MinPurchaseAmount: 20,
	}
}

func checkoutInput() PlaceOrderInput {
	return PlaceOrderInput{
		UserID:        "user-001",
		Name:          "Alice",
		Phone:         "+15550100",
		Country:       "US",
		Address:       "1 Main St",
		City:          "Springfield",
		PaymentMethod: domain.PaymentMethodCard,
		Items: []PlaceOrderItemInput{
			{ProductID: "product-001", Name: "Smash Burger", Quantity: 2, UnitPrice: 12.50},
			{ProductID: "product-002", Name: "Fries", Quantity: 1, UnitPrice: 5.00},
		},
	}
}

// --- PlaceOrder Tests ---

func TestPlaceOrder_WithoutCoupon(t *testing.T) {
	orders := new(mockOrderRepository)
	users := new(mockUserRepository)
	coupons := new(mockCouponRepository)
	svc := newTestOrderService(orders, users, coupons)
	ctx := context.Background()

	orders.On("Create", ctx, mock.AnythingOfType("*domain.Order")).Return(nil)
	users.On("GetByID", ctx, "user-001").Return(&domain.User{ID: "user-001"}, nil)
	users.On("Update", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

	order, err := svc.PlaceOrder(ctx, checkoutInput())

	require.NoError(t, err)
	assert.Equal(t, 30.0, order.TotalPrice) // 12.50*2 + 5.00
	assert.Equal(t, 30.0, order.DiscountPrice)
	assert.False(t, order.IsCouponApplied)
	assert.True(t, order.IsPaid) // card pays up front
	assert.Len(t, order.Items, 2)
	for _, item := range order.Items {
		assert.Equal(t, order.ID, item.OrderID)
		assert.NotEmpty(t, item.ID)
	}

	orders.AssertExpectations(t)
	coupons.AssertNotCalled(t, "Redeem", mock.Anything, mock.Anything)
}

func TestPlaceOrder_WithCoupon(t *testing.T) {
	orders := new(mockOrderRepository)
	users := new(mockUserRepository)
	coupons := new(mockCouponRepository)
	svc := newTestOrderService(orders, users, coupons)
	ctx := context.Background()

	coupons.On("GetByCode", ctx, "WELCOME10").Return(activeCoupon(), nil)
	coupons.On("Redeem", ctx, "WELCOME10").Return(nil)
	orders.On("Create", ctx, mock.AnythingOfType("*domain.Order")).Return(nil)
	users.On("GetByID", ctx, "user-001").Return(&domain.User{ID: "user-001"}, nil)
	users.On("Update", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

	input := checkoutInput()
	input.CouponCode = "welcome10" // normalized to uppercase

	order, err := svc.PlaceOrder(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, 30.0, order.TotalPrice)
	assert.Equal(t, 27.0, order.DiscountPrice) // 10% off
	assert.True(t, order.IsCouponApplied)
	assert.Equal(t, "WELCOME10", order.CouponCode)

	coupons.AssertExpectations(t)
	orders.AssertExpectations(t)
}

func TestPlaceOrder_CouponLimitRace(t *testing.T) {
	orders := new(mockOrderRepository)
	users := new(mockUserRepository)
	coupons := new(mockCouponRepository)
	svc := newTestOrderService(orders, users, coupons)
	ctx := context.Background()

	// Validation passes on the stale read, but the conditional redemption
	// loses the race for the last slot.
	coupons.On("GetByCode", ctx, "WELCOME10").Return(activeCoupon(), nil)
	coupons.On("Redeem", ctx, "WELCOME10").Return(domain.ErrCouponLimitReached)

	input := checkoutInput()
	input.CouponCode = "WELCOME10"

	order, err := svc.PlaceOrder(ctx, input)

	assert.Nil(t, order)
	assert.ErrorIs(t, err, domain.ErrCouponLimitReached)
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPlaceOrder_CouponBelowMinimum(t *testing.T) {
	orders := new(mockOrderRepository)
	users := new(mockUserRepository)
	coupons := new(mockCouponRepository)
	svc := newTestOrderService(orders, users, coupons)
	ctx := context.Background()

	coupon := activeCoupon()
	coupon.MinPurchaseAmount = 100
	coupons.On("GetByCode", ctx, "WELCOME10").Return(coupon, nil)

	input := checkoutInput()
	input.CouponCode = "WELCOME10"

	order, err := svc.PlaceOrder(ctx, input)

	assert.Nil(t, order)
	assert.ErrorIs(t, err, domain.ErrCouponMinimumNotMet)
	coupons.AssertNotCalled(t, "Redeem", mock.Anything, mock.Anything)
}

func TestPlaceOrder_CashNotPaidUpFront(t *testing.T) {
	orders := new(mockOrderRepository)
	users := new(mockUserRepository)
	coupons := new(mockCouponRepository)
	svc := newTestOrderService(orders, users, coupons)
	ctx := context.Background()

	orders.On("Create", ctx, mock.AnythingOfType("*domain.Order")).Return(nil)
	users.On("GetByID", ctx, "user-001").Return(&domain.User{ID: "user-001"}, nil)
	users.On("Update", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

	input := checkoutInput()
	input.PaymentMethod = domain.PaymentMethodCash

	order, err := svc.PlaceOrder(ctx, input)

	require.NoError(t, err)
	assert.False(t, order.IsPaid)
}

func TestPlaceOrder_AddonsCountTowardTotal(t *testing.T) {
	orders := new(mockOrderRepository)
	users := new(mockUserRepository)
	coupons := new(mockCouponRepository)
	svc := newTestOrderService(orders, users, coupons)
	ctx := context.Background()

	orders.On("Create", ctx, mock.AnythingOfType("*domain.Order")).Return(nil)
	users.On("GetByID", ctx, "user-001").Return(&domain.User{ID: "user-001"}, nil)
	users.On("Update", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

	input := checkoutInput()
	input.Items[0].Addons = []domain.OrderAddon{
		{Name: "Extra cheese", Price: 1.50, Quantity: 2},
	}

	order, err := svc.PlaceOrder(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, 33.0, order.TotalPrice) // 30 + 1.50*2
}

func TestPlaceOrder_MissingDeliveryFields(t *testing.T) {
	svc := newTestOrderService(new(mockOrderRepository), new(mockUserRepository), new(mockCouponRepository))

	input := checkoutInput()
	input.Address = ""

	order, err := svc.PlaceOrder(context.Background(), input)

	assert.Nil(t, order)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestPlaceOrder_InvalidPaymentMethod(t *testing.T) {
	svc := newTestOrderService(new(mockOrderRepository), new(mockUserRepository), new(mockCouponRepository))

	input := checkoutInput()
	input.PaymentMethod = "bitcoin"

	order, err := svc.PlaceOrder(context.Background(), input)

	assert.Nil(t, order)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestPlaceOrder_EmptyItems(t *testing.T) {
	svc := newTestOrderService(new(mockOrderRepository), new(mockUserRepository), new(mockCouponRepository))

	input := checkoutInput()
	input.Items = nil

	order, err := svc.PlaceOrder(context.Background(), input)

	assert.Nil(t, order)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// --- MarkDelivered Tests ---

func TestMarkDelivered_Success(t *testing.T) {
	orders := new(mockOrderRepository)
	svc := newTestOrderService(orders, new(mockUserRepository), new(mockCouponRepository))
	ctx := context.Background()

	orders.On("GetByID", ctx, "order-001").Return(&domain.Order{ID: "order-001", UserID: "user-001"}, nil)
	orders.On("MarkDelivered", ctx, "order-001", mock.AnythingOfType("time.Time")).Return(nil)

	order, err := svc.MarkDelivered(ctx, "order-001")

	require.NoError(t, err)
	assert.True(t, order.IsDelivered)
	require.NotNil(t, order.DeliveredAt)
	orders.AssertExpectations(t)
}

func TestMarkDelivered_AlreadyDelivered(t *testing.T) {
	orders := new(mockOrderRepository)
	svc := newTestOrderService(orders, new(mockUserRepository), new(mockCouponRepository))
	ctx := context.Background()

	orders.On("GetByID", ctx, "order-001").Return(&domain.Order{ID: "order-001", IsDelivered: true}, nil)

	order, err := svc.MarkDelivered(ctx, "order-001")

	assert.Nil(t, order)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	orders.AssertNotCalled(t, "MarkDelivered", mock.Anything, mock.Anything, mock.Anything)
}

// --- List Tests ---

func TestListUserOrders_ScopesToUser(t *testing.T) {
	orders := new(mockOrderRepository)
	svc := newTestOrderService(orders, new(mockUserRepository), new(mockCouponRepository))
	ctx := context.Background()

	expected := repository.OrderFilter{UserID: strPtr("user-001"), Page: 1, PerPage: 20}
	orders.On("List", ctx, expected).Return([]domain.Order{{ID: "order-001"}}, 1, nil)

	result, total, err := svc.ListUserOrders(ctx, "user-001", 0, 0)

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, result, 1)
	orders.AssertExpectations(t)
}

func TestListOrders_ClampsPerPage(t *testing.T) {
	orders := new(mockOrderRepository)
	svc := newTestOrderService(orders, new(mockUserRepository), new(mockCouponRepository))
	ctx := context.Background()

	expected := repository.OrderFilter{Page: 1, PerPage: 100}
	orders.On("List", ctx, expected).Return([]domain.Order{}, 0, nil)

	_, _, err := svc.ListOrders(ctx, repository.OrderFilter{Page: 1, PerPage: 500})

	require.NoError(t, err)
	orders.AssertExpectations(t)
}
