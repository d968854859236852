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
	apperrors "github.com/Mdsakib999/cloud-kitchen-server/pkg/errors"
)

// CategoryRepository implements repository.CategoryRepository using PostgreSQL.
type CategoryRepository struct {
	pool database.DBTX
}

// NewCategoryRepository creates a new PostgreSQL-backed category repository.
func NewCategoryRepository(pool database.DBTX) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// Create inserts a new category into the database.
func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) error {
	imageJSON, err := marshalImage(c.Image)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO categories (id, name, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	ctx, end := database.TraceQuery(ctx, "CreateCategory", query)
	_, err = r.pool.Exec(ctx, query, c.ID, c.Name, imageJSON, c.CreatedAt, c.UpdatedAt)
	end(err)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("category", "name", c.Name)
		}
		return fmt.Errorf("insert category: %w", err)
	}

	return nil
}

// GetByID retrieves a category by its ID.
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	query := `SELECT id, name, image, created_at, updated_at FROM categories WHERE id = $1`

	var (
		c         domain.Category
		imageJSON []byte
	)

	ctx, end := database.TraceQuery(ctx, "GetCategory", query)
	err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &imageJSON, &c.CreatedAt, &c.UpdatedAt)
	end(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan category: %w", err)
	}

	if c.Image, err = unmarshalImage(imageJSON); err != nil {
		return nil, err
	}

	return &c, nil
}

// List returns all categories ordered by name.
func (r *CategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	query := `SELECT id, name, image, created_at, updated_at FROM categories ORDER BY name`

	ctx, end := database.TraceQuery(ctx, "ListCategories", query)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		end(err)
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0)
	for rows.Next() {
		var (
			c         domain.Category
			imageJSON []byte
		)
		if err := rows.Scan(&c.ID, &c.Name, &imageJSON, &c.CreatedAt, &c.UpdatedAt); err != nil {
			end(err)
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		if c.Image, err = unmarshalImage(imageJSON); err != nil {
			end(err)
			return nil, err
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		end(err)
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}

	end(nil)
	return categories, nil
}

// Update modifies an existing category in the database.
func (r *CategoryRepository) Update(ctx context.Context, c *domain.Category) error {
	imageJSON, err := marshalImage(c.Image)
	if err != nil {
		return err
	}

	c.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE categories
		SET name = $1, image = $2, updated_at = $3
		WHERE id = $4`

	ctx, end := database.TraceQuery(ctx, "UpdateCategory", query)
	ct, err := r.pool.Exec(ctx, query, c.Name, imageJSON, c.UpdatedAt, c.ID)
	end(err)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("category", "name", c.Name)
		}
		return fmt.Errorf("update category: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("category", c.ID)
	}

	return nil
}

// Delete removes a category from the database by its identifier.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM categories WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteCategory", query)
	ct, err := r.pool.Exec(ctx, query, id)
	end(err)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("category", id)
	}

	return nil
}

func marshalImage(img *domain.Image) ([]byte, error) {
	if img == nil {
		return nil, nil
	}
	b, err := json.Marshal(img)
	if err != nil {
		return nil, fmt.Errorf("marshal image: %w", err)
	}
	return b, nil
}

func unmarshalImage(b []byte) (*domain.Image, error) {
	if len(b) == 0 || string(b) == "null" {
		return nil, nil
	}
	var img domain.Image
	if err := json.Unmarshal(b, &img); err != nil {
		return nil, fmt.Errorf("unmarshal image: %w", err)
	}
	return &img, nil
}
