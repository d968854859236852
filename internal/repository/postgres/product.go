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

// ProductRepository implements repository.ProductRepository using PostgreSQL.
// Structured fields (images, sizes, addons, options, ingredients) are stored
// as JSONB.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

const productColumns = `id, title, description, long_description, category_id,
	   images, sizes, addons, options, ingredients, cook_time, servings,
	   rating, review_count, created_at, updated_at`

type productJSON struct {
	images      []byte
	sizes       []byte
	addons      []byte
	options     []byte
	ingredients []byte
}

func marshalProductJSON(p *domain.Product) (*productJSON, error) {
	var (
		pj  productJSON
		err error
	)
	if pj.images, err = json.Marshal(p.Images); err != nil {
		return nil, fmt.Errorf("marshal images: %w", err)
	}
	if pj.sizes, err = json.Marshal(p.Sizes); err != nil {
		return nil, fmt.Errorf("marshal sizes: %w", err)
	}
	if pj.addons, err = json.Marshal(p.Addons); err != nil {
		return nil, fmt.Errorf("marshal addons: %w", err)
	}
	if pj.options, err = json.Marshal(p.Options); err != nil {
		return nil, fmt.Errorf("marshal options: %w", err)
	}
	if pj.ingredients, err = json.Marshal(p.Ingredients); err != nil {
		return nil, fmt.Errorf("marshal ingredients: %w", err)
	}
	return &pj, nil
}

func unmarshalProductJSON(p *domain.Product, pj *productJSON) error {
	if pj.images != nil {
		if err := json.Unmarshal(pj.images, &p.Images); err != nil {
			return fmt.Errorf("unmarshal images: %w", err)
		}
	}
	if p.Images == nil {
		p.Images = []domain.Image{}
	}
	if pj.sizes != nil {
		if err := json.Unmarshal(pj.sizes, &p.Sizes); err != nil {
			return fmt.Errorf("unmarshal sizes: %w", err)
		}
	}
	if pj.addons != nil {
		if err := json.Unmarshal(pj.addons, &p.Addons); err != nil {
			return fmt.Errorf("unmarshal addons: %w", err)
		}
	}
	if pj.options != nil {
		if err := json.Unmarshal(pj.options, &p.Options); err != nil {
			return fmt.Errorf("unmarshal options: %w", err)
		}
	}
	if pj.ingredients != nil {
		if err := json.Unmarshal(pj.ingredients, &p.Ingredients); err != nil {
			return fmt.Errorf("unmarshal ingredients: %w", err)
		}
	}
	return nil
}

// Create inserts a new product into the database.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	pj, err := marshalProductJSON(p)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO products (
			id, title, description, long_description, category_id,
			images, sizes, addons, options, ingredients, cook_time, servings,
			rating, review_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	ctx, end := database.TraceQuery(ctx, "CreateProduct", query)
	_, err = r.pool.Exec(ctx, query,
		p.ID,
		p.Title,
		p.Description,
		p.LongDescription,
		p.CategoryID,
		pj.images,
		pj.sizes,
		pj.addons,
		pj.options,
		pj.ingredients,
		p.CookTime,
		p.Servings,
		p.Rating,
		p.ReviewCount,
		p.CreatedAt,
		p.UpdatedAt,
	)
	end(err)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var (
		p  domain.Product
		pj productJSON
	)

	ctx, end := database.TraceQuery(ctx, "GetProduct", query)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.LongDescription,
		&p.CategoryID,
		&pj.images,
		&pj.sizes,
		&pj.addons,
		&pj.options,
		&pj.ingredients,
		&p.CookTime,
		&p.Servings,
		&p.Rating,
		&p.ReviewCount,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	end(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}

	if err := unmarshalProductJSON(&p, &pj); err != nil {
		return nil, err
	}

	return &p, nil
}

// List returns products matching the given filter with the total count.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", argIndex))
		args = append(args, *filter.CategoryID)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM products
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		productColumns, whereClause, argIndex, argIndex+1,
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

	ctx, end := database.TraceQuery(ctx, "ListProducts", query)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		end(err)
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var totalCount int
	products := make([]domain.Product, 0)

	for rows.Next() {
		var (
			p  domain.Product
			pj productJSON
		)
		if err := rows.Scan(
			&p.ID,
			&p.Title,
			&p.Description,
			&p.LongDescription,
			&p.CategoryID,
			&pj.images,
			&pj.sizes,
			&pj.addons,
			&pj.options,
			&pj.ingredients,
			&p.CookTime,
			&p.Servings,
			&p.Rating,
			&p.ReviewCount,
			&p.CreatedAt,
			&p.UpdatedAt,
			&totalCount,
		); err != nil {
			end(err)
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		if err := unmarshalProductJSON(&p, &pj); err != nil {
			end(err)
			return nil, 0, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		end(err)
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	end(nil)
	return products, totalCount, nil
}

// Update modifies an existing product in the database.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	pj, err := marshalProductJSON(p)
	if err != nil {
		return err
	}

	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE products
		SET title = $1, description = $2, long_description = $3, category_id = $4,
		    images = $5, sizes = $6, addons = $7, options = $8, ingredients = $9,
		    cook_time = $10, servings = $11, updated_at = $12
		WHERE id = $13`

	ctx, end := database.TraceQuery(ctx, "UpdateProduct", query)
	ct, err := r.pool.Exec(ctx, query,
		p.Title,
		p.Description,
		p.LongDescription,
		p.CategoryID,
		pj.images,
		pj.sizes,
		pj.addons,
		pj.options,
		pj.ingredients,
		p.CookTime,
		p.Servings,
		p.UpdatedAt,
		p.ID,
	)
	end(err)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ID)
	}

	return nil
}

// Delete removes a product from the database by its identifier.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM products WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteProduct", query)
	ct, err := r.pool.Exec(ctx, query, id)
	end(err)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}

	return nil
}

// UpdateRatingStats writes the derived rating and review count.
func (r *ProductRepository) UpdateRatingStats(ctx context.Context, productID string, rating float64, reviewCount int) error {
	query := `
		UPDATE products
		SET rating = $1, review_count = $2, updated_at = $3
		WHERE id = $4`

	ctx, end := database.TraceQuery(ctx, "UpdateProductRating", query)
	ct, err := r.pool.Exec(ctx, query, rating, reviewCount, time.Now().UTC(), productID)
	end(err)
	if err != nil {
		return fmt.Errorf("update product rating stats: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", productID)
	}

	return nil
}

// GetCards returns live display data for the given product IDs. Missing
// products are simply absent from the result.
func (r *ProductRepository) GetCards(ctx context.Context, ids []string) (map[string]repository.ProductCard, error) {
	if len(ids) == 0 {
		return map[string]repository.ProductCard{}, nil
	}

	query := `
		SELECT p.id, p.title, COALESCE(c.name, ''), p.images, p.rating
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = ANY($1)`

	ctx, end := database.TraceQuery(ctx, "GetProductCards", query)
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		end(err)
		return nil, fmt.Errorf("get product cards: %w", err)
	}
	defer rows.Close()

	cards := make(map[string]repository.ProductCard, len(ids))
	for rows.Next() {
		var (
			card       repository.ProductCard
			imagesJSON []byte
		)
		if err := rows.Scan(&card.ProductID, &card.Title, &card.CategoryName, &imagesJSON, &card.Rating); err != nil {
			end(err)
			return nil, fmt.Errorf("scan product card: %w", err)
		}
		if imagesJSON != nil {
			var images []domain.Image
			if err := json.Unmarshal(imagesJSON, &images); err != nil {
				end(err)
				return nil, fmt.Errorf("unmarshal card images: %w", err)
			}
			if len(images) > 0 {
				card.Image = &images[0]
			}
		}
		cards[card.ProductID] = card
	}

	if err := rows.Err(); err != nil {
		end(err)
		return nil, fmt.Errorf("iterate product card rows: %w", err)
	}

	end(nil)
	return cards, nil
}
