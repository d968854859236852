package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/domain"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/repository"
	"github.com/Mdsakib999/cloud-kitchen-server/pkg/database"
	apperrors "github.com/Mdsakib999/cloud-kitchen-server/pkg/errors"
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts a new order and its items atomically within a transaction.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	orderQuery := `
		INSERT INTO orders (
			id, user_id, name, phone, country, address, city, additional_info,
			total_price, discount_price, coupon_code, is_coupon_applied,
			payment_method, is_paid, is_delivered, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err = tx.Exec(ctx, orderQuery,
		o.ID,
		o.UserID,
		o.Name,
		o.Phone,
		o.Country,
		o.Address,
		o.City,
		o.AdditionalInfo,
		o.TotalPrice,
		o.DiscountPrice,
		o.CouponCode,
		o.IsCouponApplied,
		o.PaymentMethod,
		o.IsPaid,
		o.IsDelivered,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, name, quantity, unit_price, addons)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for _, item := range o.Items {
		addonsJSON, err := json.Marshal(item.Addons)
		if err != nil {
			return fmt.Errorf("marshal item addons: %w", err)
		}

		_, err = tx.Exec(ctx, itemQuery,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.Name,
			item.Quantity,
			item.UnitPrice,
			addonsJSON,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves an order by its ID, eagerly loading its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	// Fetch order and items in one query via LEFT JOIN + JSONB_AGG to avoid
	// a second round trip.
	query := `
		SELECT
			o.id, o.user_id, o.name, o.phone, o.country, o.address, o.city,
			o.additional_info, o.total_price, o.discount_price, o.coupon_code,
			o.is_coupon_applied, o.payment_method, o.is_paid, o.is_delivered,
			o.delivered_at, o.created_at, o.updated_at,
			COALESCE(
				JSONB_AGG(
					JSONB_BUILD_OBJECT(
						'id', oi.id,
						'order_id', oi.order_id,
						'product_id', oi.product_id,
						'name', oi.name,
						'quantity', oi.quantity,
						'unit_price', oi.unit_price,
						'addons', oi.addons
					) ORDER BY oi.id
				) FILTER (WHERE oi.id IS NOT NULL),
				'[]'::jsonb
			) AS items
		FROM orders o
		LEFT JOIN order_items oi ON o.id = oi.order_id
		WHERE o.id = $1
		GROUP BY o.id`

	var (
		o         domain.Order
		itemsJSON []byte
	)

	ctx, end := database.TraceQuery(ctx, "GetOrder", query)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&o.ID,
		&o.UserID,
		&o.Name,
		&o.Phone,
		&o.Country,
		&o.Address,
		&o.City,
		&o.AdditionalInfo,
		&o.TotalPrice,
		&o.DiscountPrice,
		&o.CouponCode,
		&o.IsCouponApplied,
		&o.PaymentMethod,
		&o.IsPaid,
		&o.IsDelivered,
		&o.DeliveredAt,
		&o.CreatedAt,
		&o.UpdatedAt,
		&itemsJSON,
	)
	end(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	if len(itemsJSON) > 0 && string(itemsJSON) != "null" {
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			return nil, fmt.Errorf("unmarshal order items: %w", err)
		}
	}
	if o.Items == nil {
		o.Items = []domain.OrderItem{}
	}

	return &o, nil
}

// List returns orders matching the given filter with the total count.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIndex))
		args = append(args, *filter.UserID)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, name, phone, country, address, city, additional_info,
			   total_price, discount_price, coupon_code, is_coupon_applied,
			   payment_method, is_paid, is_delivered, delivered_at, created_at, updated_at,
			   count(*) OVER() AS total_count
		FROM orders
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	ctx, end := database.TraceQuery(ctx, "ListOrders", query)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		end(err)
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var totalCount int
	orders := make([]domain.Order, 0)

	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID,
			&o.UserID,
			&o.Name,
			&o.Phone,
			&o.Country,
			&o.Address,
			&o.City,
			&o.AdditionalInfo,
			&o.TotalPrice,
			&o.DiscountPrice,
			&o.CouponCode,
			&o.IsCouponApplied,
			&o.PaymentMethod,
			&o.IsPaid,
			&o.IsDelivered,
			&o.DeliveredAt,
			&o.CreatedAt,
			&o.UpdatedAt,
			&totalCount,
		); err != nil {
			end(err)
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		end(err)
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}
	end(nil)

	// Batch-load items for all orders in a single query to avoid N+1.
	if len(orders) > 0 {
		orderIDs := make([]string, len(orders))
		for i := range orders {
			orderIDs[i] = orders[i].ID
		}

		itemsQuery := `
			SELECT id, order_id, product_id, name, quantity, unit_price, addons
			FROM order_items
			WHERE order_id = ANY($1)
			ORDER BY id`

		itemRows, err := r.pool.Query(ctx, itemsQuery, orderIDs)
		if err != nil {
			return nil, 0, fmt.Errorf("batch load order items: %w", err)
		}
		defer itemRows.Close()

		itemsByOrderID := make(map[string][]domain.OrderItem, len(orders))
		for itemRows.Next() {
			var (
				item       domain.OrderItem
				addonsJSON []byte
			)
			if err := itemRows.Scan(
				&item.ID,
				&item.OrderID,
				&item.ProductID,
				&item.Name,
				&item.Quantity,
				&item.UnitPrice,
				&addonsJSON,
			); err != nil {
				return nil, 0, fmt.Errorf("scan order item: %w", err)
			}
			if len(addonsJSON) > 0 && string(addonsJSON) != "null" {
				if err := json.Unmarshal(addonsJSON, &item.Addons); err != nil {
					return nil, 0, fmt.Errorf("unmarshal item addons: %w", err)
				}
			}
			itemsByOrderID[item.OrderID] = append(itemsByOrderID[item.OrderID], item)
		}
		if err := itemRows.Err(); err != nil {
			return nil, 0, fmt.Errorf("iterate batch order item rows: %w", err)
		}

		for i := range orders {
			if items, ok := itemsByOrderID[orders[i].ID]; ok {
				orders[i].Items = items
			} else {
				orders[i].Items = []domain.OrderItem{}
			}
		}
	}

	return orders, totalCount, nil
}

// MarkDelivered flags the order as delivered at the given time.
func (r *OrderRepository) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE orders
		SET is_delivered = TRUE, delivered_at = $1, updated_at = $2
		WHERE id = $3`

	ctx, end := database.TraceQuery(ctx, "MarkOrderDelivered", query)
	ct, err := r.pool.Exec(ctx, query, at, time.Now().UTC(), id)
	end(err)
	if err != nil {
		return fmt.Errorf("mark order delivered: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", id)
	}

	return nil
}

// Delete removes an order and its items. Items go first to satisfy the
// foreign key.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}

	ct, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", id)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// SalesByProduct aggregates ordered units and revenue per product over the
// half-open window [from, to).
func (r *OrderRepository) SalesByProduct(ctx context.Context, from, to time.Time) ([]domain.ProductSales, error) {
	query := `
		SELECT oi.product_id,
			   SUM(oi.quantity)::int AS units,
			   SUM(oi.quantity * oi.unit_price) AS revenue
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.created_at >= $1 AND o.created_at < $2
		GROUP BY oi.product_id`

	ctx, end := database.TraceQuery(ctx, "SalesByProduct", query)
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		end(err)
		return nil, fmt.Errorf("aggregate sales: %w", err)
	}
	defer rows.Close()

	sales := make([]domain.ProductSales, 0)
	for rows.Next() {
		var s domain.ProductSales
		if err := rows.Scan(&s.ProductID, &s.Units, &s.Revenue); err != nil {
			end(err)
			return nil, fmt.Errorf("scan sales row: %w", err)
		}
		sales = append(sales, s)
	}

	if err := rows.Err(); err != nil {
		end(err)
		return nil, fmt.Errorf("iterate sales rows: %w", err)
	}

	end(nil)
	return sales, nil
}
