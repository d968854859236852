package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/domain"
	apperrors "github.com/Mdsakib999/cloud-kitchen-server/pkg/errors"
)

func newTestReviewService(reviews *mockReviewRepository, orders *mockOrderRepository, products *mockProductRepository) *ReviewService {
	return NewReviewService(reviews, orders, products, newTestProducer(), newTestLogger())
}

func purchasedOrder() *domain.Order {
	return &domain.Order{
		ID:     "order-001",
		UserID: "user-001",
		Items: []domain.OrderItem{
			{ID: "item-001", OrderID: "order-001", ProductID: "product-001", Name: "Smash Burger", Quantity: 1, UnitPrice: 12.50},
		},
	}
}

func reviewInput() SubmitReviewInput {
	return SubmitReviewInput{
		UserID:    "user-001",
		ProductID: "product-001",
		OrderID:   "order-001",
		Rating:    5,
		Title:     "Perfect",
		Comment:   "Best in town.",
	}
}

// --- SubmitReview Tests ---

func TestSubmitReview_Success(t *testing.T) {
	reviews := new(mockReviewRepository)
	orders := new(mockOrderRepository)
	products := new(mockProductRepository)
	svc := newTestReviewService(reviews, orders, products)
	ctx := context.Background()

	orders.On("GetByID", ctx, "order-001").Return(purchasedOrder(), nil)
	reviews.On("Upsert", ctx, mock.AnythingOfType("*domain.Review")).Return(nil)
	reviews.On("Aggregate", ctx, "product-001").Return(4.5, 2, nil)
	products.On("UpdateRatingStats", ctx, "product-001", 4.5, 2).Return(nil)

	review, err := svc.SubmitReview(ctx, reviewInput())

	require.NoError(t, err)
	assert.NotEmpty(t, review.ID)
	assert.Equal(t, 5, review.Rating)
	assert.Equal(t, "product-001", review.ProductID)

	reviews.AssertExpectations(t)
	products.AssertExpectations(t)
}

func TestSubmitReview_OrderNotOwned(t *testing.T) {
	reviews := new(mockReviewRepository)
	orders := new(mockOrderRepository)
	products := new(mockProductRepository)
	svc := newTestReviewService(reviews, orders, products)
	ctx := context.Background()

	order := purchasedOrder()
	order.UserID = "someone-else"
	orders.On("GetByID", ctx, "order-001").Return(order, nil)

	review, err := svc.SubmitReview(ctx, reviewInput())

	assert.Nil(t, review)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	reviews.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	products.AssertNotCalled(t, "UpdateRatingStats", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitReview_ProductNotInOrder(t *testing.T) {
	reviews := new(mockReviewRepository)
	orders := new(mockOrderRepository)
	products := new(mockProductRepository)
	svc := newTestReviewService(reviews, orders, products)
	ctx := context.Background()

	orders.On("GetByID", ctx, "order-001").Return(purchasedOrder(), nil)

	input := reviewInput()
	input.ProductID = "product-unbought"

	review, err := svc.SubmitReview(ctx, input)

	assert.Nil(t, review)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	reviews.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestSubmitReview_RatingOutOfRange(t *testing.T) {
	svc := newTestReviewService(new(mockReviewRepository), new(mockOrderRepository), new(mockProductRepository))

	for _, rating := range []int{0, 6, -1} {
		input := reviewInput()
		input.Rating = rating

		review, err := svc.SubmitReview(context.Background(), input)

		assert.Nil(t, review)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	}
}

func TestSubmitReview_OrderNotFound(t *testing.T) {
	reviews := new(mockReviewRepository)
	orders := new(mockOrderRepository)
	svc := newTestReviewService(reviews, orders, new(mockProductRepository))
	ctx := context.Background()

	orders.On("GetByID", ctx, "order-001").Return(nil, apperrors.ErrNotFound)

	review, err := svc.SubmitReview(ctx, reviewInput())

	assert.Nil(t, review)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSubmitReview_ZeroAggregateLeavesStatsUntouched(t *testing.T) {
	reviews := new(mockReviewRepository)
	orders := new(mockOrderRepository)
	products := new(mockProductRepository)
	svc := newTestReviewService(reviews, orders, products)
	ctx := context.Background()

	orders.On("GetByID", ctx, "order-001").Return(purchasedOrder(), nil)
	reviews.On("Upsert", ctx, mock.AnythingOfType("*domain.Review")).Return(nil)
	reviews.On("Aggregate", ctx, "product-001").Return(0.0, 0, nil)

	_, err := svc.SubmitReview(ctx, reviewInput())

	require.NoError(t, err)
	products.AssertNotCalled(t, "UpdateRatingStats", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- ListProductReviews Tests ---

func TestListProductReviews_WithSummary(t *testing.T) {
	reviews := new(mockReviewRepository)
	svc := newTestReviewService(reviews, new(mockOrderRepository), new(mockProductRepository))
	ctx := context.Background()

	reviews.On("ListByProduct", ctx, "product-001", 1, 20).Return([]domain.Review{
		{ID: "review-001", Rating: 5},
		{ID: "review-002", Rating: 4},
	}, 2, nil)
	reviews.On("Aggregate", ctx, "product-001").Return(4.5, 2, nil)

	result, total, summary, err := svc.ListProductReviews(ctx, "product-001", 0, 0)

	require.NoError(t, err)
	assert.Len(t, result, 2)
	assert.Equal(t, 2, total)
	assert.Equal(t, 4.5, summary.Rating)
	assert.Equal(t, 2, summary.ReviewCount)
}
