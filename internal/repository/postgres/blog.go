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

// BlogRepository implements repository.BlogRepository using PostgreSQL.
type BlogRepository struct {
	pool database.DBTX
}

// NewBlogRepository creates a new PostgreSQL-backed blog repository.
func NewBlogRepository(pool database.DBTX) *BlogRepository {
	return &BlogRepository{pool: pool}
}

// Create inserts a new blog post into the database.
func (r *BlogRepository) Create(ctx context.Context, b *domain.Blog) error {
	imageJSON, err := marshalImage(b.Image)
	if err != nil {
		return err
	}
	tagsJSON, err := json.Marshal(b.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	query := `
		INSERT INTO blogs (id, title, content, category, image, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	ctx, end := database.TraceQuery(ctx, "CreateBlog", query)
	_, err = r.pool.Exec(ctx, query, b.ID, b.Title, b.Content, b.Category, imageJSON, tagsJSON, b.CreatedAt, b.UpdatedAt)
	end(err)
	if err != nil {
		return fmt.Errorf("insert blog: %w", err)
	}

	return nil
}

// GetByID retrieves a blog post by its ID.
func (r *BlogRepository) GetByID(ctx context.Context, id string) (*domain.Blog, error) {
	query := `SELECT id, title, content, category, image, tags, created_at, updated_at FROM blogs WHERE id = $1`

	var (
		b         domain.Blog
		imageJSON []byte
		tagsJSON  []byte
	)

	ctx, end := database.TraceQuery(ctx, "GetBlog", query)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.Title, &b.Content, &b.Category, &imageJSON, &tagsJSON, &b.CreatedAt, &b.UpdatedAt,
	)
	end(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan blog: %w", err)
	}

	if b.Image, err = unmarshalImage(imageJSON); err != nil {
		return nil, err
	}
	if tagsJSON != nil {
		if err := json.Unmarshal(tagsJSON, &b.Tags); err != nil {
			return nil, fmt.Errorf("unmarshal tags: %w", err)
		}
	}

	return &b, nil
}

// List returns blog posts, most recent first, with the total count.
func (r *BlogRepository) List(ctx context.Context, page, perPage int) ([]domain.Blog, int, error) {
	limit := perPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * limit
	}

	query := `
		SELECT id, title, content, category, image, tags, created_at, updated_at,
		       count(*) OVER() AS total_count
		FROM blogs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	ctx, end := database.TraceQuery(ctx, "ListBlogs", query)
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		end(err)
		return nil, 0, fmt.Errorf("list blogs: %w", err)
	}
	defer rows.Close()

	var totalCount int
	blogs := make([]domain.Blog, 0)

	for rows.Next() {
		var (
			b         domain.Blog
			imageJSON []byte
			tagsJSON  []byte
		)
		if err := rows.Scan(
			&b.ID, &b.Title, &b.Content, &b.Category, &imageJSON, &tagsJSON, &b.CreatedAt, &b.UpdatedAt, &totalCount,
		); err != nil {
			end(err)
			return nil, 0, fmt.Errorf("scan blog row: %w", err)
		}
		if b.Image, err = unmarshalImage(imageJSON); err != nil {
			end(err)
			return nil, 0, err
		}
		if tagsJSON != nil {
			if err := json.Unmarshal(tagsJSON, &b.Tags); err != nil {
				end(err)
				return nil, 0, fmt.Errorf("unmarshal tags: %w", err)
			}
		}
		blogs = append(blogs, b)
	}

	if err := rows.Err(); err != nil {
		end(err)
		return nil, 0, fmt.Errorf("iterate blog rows: %w", err)
	}

	end(nil)
	return blogs, totalCount, nil
}

// Update modifies an existing blog post in the database.
func (r *BlogRepository) Update(ctx context.Context, b *domain.Blog) error {
	imageJSON, err := marshalImage(b.Image)
	if err != nil {
		return err
	}
	tagsJSON, err := json.Marshal(b.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	b.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE blogs
		SET title = $1, content = $2, category = $3, image = $4, tags = $5, updated_at = $6
		WHERE id = $7`

	ctx, end := database.TraceQuery(ctx, "UpdateBlog", query)
	ct, err := r.pool.Exec(ctx, query, b.Title, b.Content, b.Category, imageJSON, tagsJSON, b.UpdatedAt, b.ID)
	end(err)
	if err != nil {
		return fmt.Errorf("update blog: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("blog", b.ID)
	}

	return nil
}

// Delete removes a blog post from the database by its identifier.
func (r *BlogRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM blogs WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteBlog", query)
	ct, err := r.pool.Exec(ctx, query, id)
	end(err)
	if err != nil {
		return fmt.Errorf("delete blog: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("blog", id)
	}

	return nil
}
