package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/domain"
	"github.com/Mdsakib999/cloud-kitchen-server/pkg/database"
	apperrors "github.com/Mdsakib999/cloud-kitchen-server/pkg/errors"
)

// CouponRepository implements repository.CouponRepository using PostgreSQL.
type CouponRepository struct {
	pool database.DBTX
}

// NewCouponRepository creates a new PostgreSQL-backed coupon repository.
func NewCouponRepository(pool database.DBTX) *CouponRepository {
	return &CouponRepository{pool: pool}
}

const couponColumns = `id, code, discount_amount, type, start_date, end_date,
	   is_active, usage_limit, used_count, min_purchase_amount, created_by,
	   created_at, updated_at`

// Create inserts a new coupon into the database.
func (r *CouponRepository) Create(ctx context.Context, c *domain.Coupon) error {
	query := `
		INSERT INTO coupons (
			id, code, discount_amount, type, start_date, end_date,
			is_active, usage_limit, used_count, min_purchase_amount, created_by,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	ctx, end := database.TraceQuery(ctx, "CreateCoupon", query)
	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.Code,
		c.DiscountAmount,
		c.Type,
		c.StartDate,
		c.EndDate,
		c.IsActive,
		c.UsageLimit,
		c.UsedCount,
		c.MinPurchaseAmount,
		c.CreatedBy,
		c.CreatedAt,
		c.UpdatedAt,
	)
	end(err)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("coupon", "code", c.Code)
		}
		return fmt.Errorf("insert coupon: %w", err)
	}

	return nil
}

// GetByCode retrieves a coupon by its code.
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`

	ctx, end := database.TraceQuery(ctx, "GetCouponByCode", query)
	c, err := r.scanCoupon(r.pool.QueryRow(ctx, query, code))
	end(err)
	return c, err
}

// List returns all coupons, most recently created first.
func (r *CouponRepository) List(ctx context.Context) ([]domain.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC`

	ctx, end := database.TraceQuery(ctx, "ListCoupons", query)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		end(err)
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	coupons := make([]domain.Coupon, 0)
	for rows.Next() {
		var c domain.Coupon
		if err := rows.Scan(
			&c.ID,
			&c.Code,
			&c.DiscountAmount,
			&c.Type,
			&c.StartDate,
			&c.EndDate,
			&c.IsActive,
			&c.UsageLimit,
			&c.UsedCount,
			&c.MinPurchaseAmount,
			&c.CreatedBy,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			end(err)
			return nil, fmt.Errorf("scan coupon row: %w", err)
		}
		coupons = append(coupons, c)
	}

	if err := rows.Err(); err != nil {
		end(err)
		return nil, fmt.Errorf("iterate coupon rows: %w", err)
	}

	end(nil)
	return coupons, nil
}

// Update modifies an existing coupon in the database.
func (r *CouponRepository) Update(ctx context.Context, c *domain.Coupon) error {
	c.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE coupons
		SET code = $1, discount_amount = $2, type = $3, start_date = $4,
		    end_date = $5, is_active = $6, usage_limit = $7,
		    min_purchase_amount = $8, updated_at = $9
		WHERE id = $10`

	ctx, end := database.TraceQuery(ctx, "UpdateCoupon", query)
	ct, err := r.pool.Exec(ctx, query,
		c.Code,
		c.DiscountAmount,
		c.Type,
		c.StartDate,
		c.EndDate,
		c.IsActive,
		c.UsageLimit,
		c.MinPurchaseAmount,
		c.UpdatedAt,
		c.ID,
	)
	end(err)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("coupon", "code", c.Code)
		}
		return fmt.Errorf("update coupon: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("coupon", c.ID)
	}

	return nil
}

// Delete removes a coupon from the database by its identifier.
func (r *CouponRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM coupons WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteCoupon", query)
	ct, err := r.pool.Exec(ctx, query, id)
	end(err)
	if err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("coupon", id)
	}

	return nil
}

// Redeem increments the coupon's used count only while the coupon is active
// and the usage limit has not been reached, and deactivates the coupon on the
// redemption that hits the limit. The guard runs inside the UPDATE itself so
// two concurrent redemptions of the last slot cannot both succeed, and a
// coupon an admin switched off stays off.
func (r *CouponRepository) Redeem(ctx context.Context, code string) error {
	query := `
		UPDATE coupons
		SET used_count = used_count + 1,
		    is_active = (used_count + 1 < usage_limit),
		    updated_at = NOW()
		WHERE code = $1 AND is_active AND used_count < usage_limit`

	ctx, end := database.TraceQuery(ctx, "RedeemCoupon", query)
	ct, err := r.pool.Exec(ctx, query, code)
	end(err)
	if err != nil {
		return fmt.Errorf("redeem coupon: %w", err)
	}

	if ct.RowsAffected() == 0 {
		// The code does not exist, the coupon was deactivated, or its
		// limit is exhausted. The caller validated the coupon just before
		// redeeming, so no slot being left is the useful signal.
		return domain.ErrCouponLimitReached
	}

	return nil
}

func (r *CouponRepository) scanCoupon(row pgx.Row) (*domain.Coupon, error) {
	var c domain.Coupon
	err := row.Scan(
		&c.ID,
		&c.Code,
		&c.DiscountAmount,
		&c.Type,
		&c.StartDate,
		&c.EndDate,
		&c.IsActive,
		&c.UsageLimit,
		&c.UsedCount,
		&c.MinPurchaseAmount,
		&c.CreatedBy,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan coupon: %w", err)
	}
	return &c, nil
}
