package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/domain"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/event"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/repository"
	apperrors "github.com/Mdsakib999/cloud-kitchen-server/pkg/errors"
)

// ReviewService implements purchase-checked review submission and aggregation.
type ReviewService struct {
	reviews  repository.ReviewRepository
	orders   repository.OrderRepository
	products repository.ProductRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviews repository.ReviewRepository,
	orders repository.OrderRepository,
	products repository.ProductRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		orders:   orders,
		products: products,
		producer: producer,
		logger:   logger,
	}
}

// SubmitReviewInput holds the parameters for submitting a review.
type SubmitReviewInput struct {
	UserID    string
	ProductID string
	OrderID   string
	Rating    int
	Title     string
	Comment   string
}

// SubmitReview verifies the purchase, upserts the review, and refreshes the
// product's stored rating statistics. Re-submitting for the same (product,
// order) replaces the earlier review.
func (s *ReviewService) SubmitReview(ctx context.Context, input SubmitReviewInput) (*domain.Review, error) {
	if input.ProductID == "" || input.OrderID == "" {
		return nil, apperrors.InvalidInput("product_id and order_id are required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, apperrors.InvalidInput("rating must be between 1 and 5")
	}

	order, err := s.orders.GetByID(ctx, input.OrderID)
	if err != nil {
		return nil, fmt.Errorf("get order for review: %w", err)
	}

	if order.UserID != input.UserID {
		return nil, apperrors.Forbidden("order does not belong to the requester")
	}

	purchased := false
	for _, item := range order.Items {
		if item.ProductID == input.ProductID {
			purchased = true
			break
		}
	}
	if !purchased {
		return nil, apperrors.InvalidInput("product is not part of the referenced order")
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:        uuid.New().String(),
		UserID:    input.UserID,
		ProductID: input.ProductID,
		OrderID:   input.OrderID,
		Rating:    input.Rating,
		Title:     input.Title,
		Comment:   input.Comment,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.reviews.Upsert(ctx, review); err != nil {
		return nil, fmt.Errorf("upsert review: %w", err)
	}

	s.refreshProductStats(ctx, input.ProductID)

	if err := s.producer.PublishReviewSubmitted(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.submitted event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review submitted",
		slog.String("review_id", review.ID),
		slog.String("product_id", review.ProductID),
		slog.Int("rating", review.Rating),
	)

	return review, nil
}

// ListProductReviews returns paginated reviews for a product together with
// its aggregate rating summary.
func (s *ReviewService) ListProductReviews(ctx context.Context, productID string, page, perPage int) ([]domain.Review, int, *domain.ReviewSummary, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	reviews, total, err := s.reviews.ListByProduct(ctx, productID, page, perPage)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("list reviews: %w", err)
	}

	rating, count, err := s.reviews.Aggregate(ctx, productID)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("aggregate reviews: %w", err)
	}

	summary := &domain.ReviewSummary{
		ProductID:   productID,
		Rating:      rating,
		ReviewCount: count,
	}

	return reviews, total, summary, nil
}

// refreshProductStats recomputes and stores the product's rating and review
// count. A zero-count aggregate leaves the stored values untouched. Failures
// are logged; the review itself is already persisted.
func (s *ReviewService) refreshProductStats(ctx context.Context, productID string) {
	rating, count, err := s.reviews.Aggregate(ctx, productID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to aggregate reviews",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
		return
	}
	if count == 0 {
		return
	}

	if err := s.products.UpdateRatingStats(ctx, productID, rating, count); err != nil {
		s.logger.WarnContext(ctx, "failed to update product rating stats",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
	}
}
