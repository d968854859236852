package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/assets"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/domain"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/repository"
	apperrors "github.com/Mdsakib999/cloud-kitchen-server/pkg/errors"
)

// BlogService implements blog article management.
type BlogService struct {
	repo   repository.BlogRepository
	store  assets.Store
	logger *slog.Logger
}

// NewBlogService creates a new blog service.
func NewBlogService(repo repository.BlogRepository, store assets.Store, logger *slog.Logger) *BlogService {
	return &BlogService{repo: repo, store: store, logger: logger}
}

// CreateBlogInput holds the parameters for creating a blog post.
type CreateBlogInput struct {
	Title    string
	Content  string
	Category string
	Tags     []string
	Image    *ImageUpload
}

// CreateBlog creates a new blog post, uploading its cover image when given.
func (s *BlogService) CreateBlog(ctx context.Context, input CreateBlogInput) (*domain.Blog, error) {
	if input.Title == "" || input.Content == "" {
		return nil, apperrors.InvalidInput("title and content are required")
	}

	now := time.Now().UTC()
	blog := &domain.Blog{
		ID:        uuid.New().String(),
		Title:     input.Title,
		Content:   input.Content,
		Category:  input.Category,
		Tags:      input.Tags,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if input.Image != nil {
		uploaded, err := s.store.Upload(ctx, input.Image.Filename, input.Image.Content)
		if err != nil {
			return nil, fmt.Errorf("upload blog image: %w", err)
		}
		blog.Image = uploaded
	}

	if err := s.repo.Create(ctx, blog); err != nil {
		s.releaseImage(ctx, blog.Image)
		return nil, fmt.Errorf("create blog: %w", err)
	}

	s.logger.InfoContext(ctx, "blog created",
		slog.String("blog_id", blog.ID),
		slog.String("title", blog.Title),
	)

	return blog, nil
}

// GetBlog retrieves a blog post by its ID.
func (s *BlogService) GetBlog(ctx context.Context, id string) (*domain.Blog, error) {
	blog, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get blog: %w", err)
	}
	return blog, nil
}

// ListBlogs returns blog posts, most recent first, paginated.
func (s *BlogService) ListBlogs(ctx context.Context, page, perPage int) ([]domain.Blog, int, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	blogs, total, err := s.repo.List(ctx, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list blogs: %w", err)
	}

	return blogs, total, nil
}

// UpdateBlogInput holds the parameters for updating a blog post. Empty fields
// keep their current values.
type UpdateBlogInput struct {
	Title    string
	Content  string
	Category string
	Tags     []string
	Image    *ImageUpload
}

// UpdateBlog applies a partial update, replacing and releasing the old cover
// image when a new one is given.
func (s *BlogService) UpdateBlog(ctx context.Context, id string, input UpdateBlogInput) (*domain.Blog, error) {
	blog, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get blog for update: %w", err)
	}

	if input.Title != "" {
		blog.Title = input.Title
	}
	if input.Content != "" {
		blog.Content = input.Content
	}
	if input.Category != "" {
		blog.Category = input.Category
	}
	if input.Tags != nil {
		blog.Tags = input.Tags
	}

	oldImage := blog.Image
	if input.Image != nil {
		uploaded, err := s.store.Upload(ctx, input.Image.Filename, input.Image.Content)
		if err != nil {
			return nil, fmt.Errorf("upload blog image: %w", err)
		}
		blog.Image = uploaded
	}

	if err := s.repo.Update(ctx, blog); err != nil {
		if input.Image != nil {
			s.releaseImage(ctx, blog.Image)
		}
		return nil, fmt.Errorf("update blog: %w", err)
	}

	if input.Image != nil {
		s.releaseImage(ctx, oldImage)
	}

	s.logger.InfoContext(ctx, "blog updated", slog.String("blog_id", blog.ID))

	return blog, nil
}

// DeleteBlog removes a blog post and releases its cover image.
func (s *BlogService) DeleteBlog(ctx context.Context, id string) error {
	blog, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get blog for delete: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete blog: %w", err)
	}

	s.releaseImage(ctx, blog.Image)

	s.logger.InfoContext(ctx, "blog deleted", slog.String("blog_id", id))

	return nil
}

func (s *BlogService) releaseImage(ctx context.Context, image *domain.Image) {
	if image == nil || image.AssetID == "" {
		return
	}
	if err := s.store.Delete(ctx, image.AssetID); err != nil {
		s.logger.WarnContext(ctx, "failed to release blog image",
			slog.String("asset_id", image.AssetID),
			slog.String("error", err.Error()),
		)
	}
}
