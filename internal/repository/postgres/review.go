package postgres

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/domain"
	"github.com/Mdsakib999/cloud-kitchen-server/pkg/database"
)

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Upsert inserts the review or replaces the existing one for the same
// (user, product, order) triple. The unique constraint makes the
// replace-on-resubmit contract hold under concurrent submissions.
func (r *ReviewRepository) Upsert(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (id, user_id, product_id, order_id, rating, title, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, product_id, order_id)
		DO UPDATE SET rating = EXCLUDED.rating,
		              title = EXCLUDED.title,
		              comment = EXCLUDED.comment,
		              updated_at = EXCLUDED.updated_at`

	ctx, end := database.TraceQuery(ctx, "UpsertReview", query)
	_, err := r.pool.Exec(ctx, query,
		review.ID,
		review.UserID,
		review.ProductID,
		review.OrderID,
		review.Rating,
		review.Title,
		review.Comment,
		review.CreatedAt,
		time.Now().UTC(),
	)
	end(err)
	if err != nil {
		return fmt.Errorf("upsert review: %w", err)
	}

	return nil
}

// Aggregate computes the mean rating (rounded to one decimal place) and the
// review count for a product. A product with no reviews yields (0, 0, nil).
func (r *ReviewRepository) Aggregate(ctx context.Context, productID string) (float64, int, error) {
	query := `
		SELECT COALESCE(AVG(rating), 0), COUNT(*)
		FROM reviews
		WHERE product_id = $1`

	var (
		avg   float64
		count int
	)

	ctx, end := database.TraceQuery(ctx, "AggregateReviews", query)
	err := r.pool.QueryRow(ctx, query, productID).Scan(&avg, &count)
	end(err)
	if err != nil {
		return 0, 0, fmt.Errorf("aggregate reviews: %w", err)
	}

	avg = math.Round(avg*10) / 10

	return avg, count, nil
}

// ListByProduct returns paginated reviews for a product, most recent first,
// with the reviewer name joined in.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID string, page, perPage int) ([]domain.Review, int, error) {
	limit := perPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * limit
	}

	query := `
		SELECT r.id, r.user_id, r.product_id, r.order_id, r.rating, r.title, r.comment,
		       COALESCE(u.name, ''), r.created_at, r.updated_at,
		       count(*) OVER() AS total_count
		FROM reviews r
		LEFT JOIN users u ON u.id = r.user_id
		WHERE r.product_id = $1
		ORDER BY r.created_at DESC
		LIMIT $2 OFFSET $3`

	ctx, end := database.TraceQuery(ctx, "ListReviews", query)
	rows, err := r.pool.Query(ctx, query, productID, limit, offset)
	if err != nil {
		end(err)
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var totalCount int
	reviews := make([]domain.Review, 0)

	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(
			&rv.ID,
			&rv.UserID,
			&rv.ProductID,
			&rv.OrderID,
			&rv.Rating,
			&rv.Title,
			&rv.Comment,
			&rv.UserName,
			&rv.CreatedAt,
			&rv.UpdatedAt,
			&totalCount,
		); err != nil {
			end(err)
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		end(err)
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	end(nil)
	return reviews, totalCount, nil
}
