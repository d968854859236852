package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/domain"
	"github.com/Mdsakib999/cloud-kitchen-server/pkg/database"
)

// PromotionRepository implements repository.PromotionRepository using
// PostgreSQL. The table holds at most one row, the active banner set.
type PromotionRepository struct {
	pool database.DBTX
}

// NewPromotionRepository creates a new PostgreSQL-backed promotion repository.
func NewPromotionRepository(pool database.DBTX) *PromotionRepository {
	return &PromotionRepository{pool: pool}
}

// Get returns the active promotion set, or nil when none exists.
func (r *PromotionRepository) Get(ctx context.Context) (*domain.Promotion, error) {
	query := `
		SELECT id, images, created_at, updated_at
		FROM promotions
		ORDER BY created_at DESC
		LIMIT 1`

	var (
		p          domain.Promotion
		imagesJSON []byte
	)

	ctx, end := database.TraceQuery(ctx, "GetPromotion", query)
	err := r.pool.QueryRow(ctx, query).Scan(&p.ID, &imagesJSON, &p.CreatedAt, &p.UpdatedAt)
	end(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan promotion: %w", err)
	}

	if imagesJSON != nil {
		if err := json.Unmarshal(imagesJSON, &p.Images); err != nil {
			return nil, fmt.Errorf("unmarshal promotion images: %w", err)
		}
	}
	if p.Images == nil {
		p.Images = []domain.Image{}
	}

	return &p, nil
}

// Replace swaps the active promotion set for the given one atomically.
func (r *PromotionRepository) Replace(ctx context.Context, p *domain.Promotion) error {
	imagesJSON, err := json.Marshal(p.Images)
	if err != nil {
		return fmt.Errorf("marshal promotion images: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM promotions`); err != nil {
		return fmt.Errorf("clear promotions: %w", err)
	}

	insert := `
		INSERT INTO promotions (id, images, created_at, updated_at)
		VALUES ($1, $2, $3, $4)`

	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	if _, err := tx.Exec(ctx, insert, p.ID, imagesJSON, p.CreatedAt, p.UpdatedAt); err != nil {
		return fmt.Errorf("insert promotion: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
