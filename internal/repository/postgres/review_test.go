package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/domain"
	"github.com/Mdsakib999/cloud-kitchen-server/pkg/database"
)

func newReviewRepo(t *testing.T) (*ReviewRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return NewReviewRepository(mock), mock
}

func sampleReview() *domain.Review {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Review{
		ID:        "review-001",
		UserID:    "user-001",
		ProductID: "product-001",
		OrderID:   "order-001",
		Rating:    4,
		Title:     "Great burger",
		Comment:   "Arrived hot, would order again.",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// --- Upsert Tests ---

func TestReviewRepository_Upsert_Success(t *testing.T) {
	repo, mock := newReviewRepo(t)

	rv := sampleReview()

	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(
			rv.ID, rv.UserID, rv.ProductID, rv.OrderID,
			rv.Rating, rv.Title, rv.Comment, rv.CreatedAt, pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Upsert(context.Background(), rv)
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Upsert_ExecError(t *testing.T) {
	repo, mock := newReviewRepo(t)

	rv := sampleReview()

	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(
			rv.ID, rv.UserID, rv.ProductID, rv.OrderID,
			rv.Rating, rv.Title, rv.Comment, rv.CreatedAt, pgxmock.AnyArg(),
		).
		WillReturnError(errors.New("connection reset"))

	err := repo.Upsert(context.Background(), rv)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "upsert review")
}

// --- Aggregate Tests ---

func TestReviewRepository_Aggregate_RoundsToOneDecimal(t *testing.T) {
	repo, mock := newReviewRepo(t)

	mock.ExpectQuery("SELECT").
		WithArgs("product-001").
		WillReturnRows(pgxmock.NewRows([]string{"avg", "count"}).AddRow(4.25, 4))

	avg, count, err := repo.Aggregate(context.Background(), "product-001")
	require.NoError(t, err)
	assert.Equal(t, 4.3, avg)
	assert.Equal(t, 4, count)
}

func TestReviewRepository_Aggregate_NoReviews(t *testing.T) {
	repo, mock := newReviewRepo(t)

	mock.ExpectQuery("SELECT").
		WithArgs("product-unrated").
		WillReturnRows(pgxmock.NewRows([]string{"avg", "count"}).AddRow(0.0, 0))

	avg, count, err := repo.Aggregate(context.Background(), "product-unrated")
	require.NoError(t, err)
	assert.Zero(t, avg)
	assert.Zero(t, count)
}

// --- ListByProduct Tests ---

func TestReviewRepository_ListByProduct_Success(t *testing.T) {
	repo, mock := newReviewRepo(t)

	now := time.Now().UTC().Truncate(time.Microsecond)
	rows := pgxmock.NewRows([]string{
		"id", "user_id", "product_id", "order_id", "rating", "title", "comment",
		"user_name", "created_at", "updated_at", "total_count",
	}).
		AddRow("review-001", "user-001", "product-001", "order-001", 5, "Perfect", "Best in town.", "Alice", now, now, 2).
		AddRow("review-002", "user-002", "product-001", "order-002", 3, "Okay", "A bit salty.", "Bob", now.Add(-time.Hour), now.Add(-time.Hour), 2)

	mock.ExpectQuery("SELECT").
		WithArgs("product-001", 20, 0).
		WillReturnRows(rows)

	reviews, total, err := repo.ListByProduct(context.Background(), "product-001", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, reviews, 2)
	assert.Equal(t, "Alice", reviews[0].UserName)
	assert.Equal(t, 3, reviews[1].Rating)
}

func TestReviewRepository_ListByProduct_Pagination(t *testing.T) {
	repo, mock := newReviewRepo(t)

	mock.ExpectQuery("SELECT").
		WithArgs("product-001", 10, 20).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "product_id", "order_id", "rating", "title", "comment",
			"user_name", "created_at", "updated_at", "total_count",
		}))

	reviews, total, err := repo.ListByProduct(context.Background(), "product-001", 3, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, reviews)
	assert.NotNil(t, reviews)

	assert.NoError(t, mock.ExpectationsWereMet())
}
