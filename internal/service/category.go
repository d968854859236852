package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/assets"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/domain"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/repository"
	apperrors "github.com/Mdsakib999/cloud-kitchen-server/pkg/errors"
)

// ImageUpload is one incoming image file.
type ImageUpload struct {
	Filename string
	Content  io.Reader
}

// CategoryService implements menu category management.
type CategoryService struct {
	repo   repository.CategoryRepository
	store  assets.Store
	logger *slog.Logger
}

// NewCategoryService creates a new category service.
func NewCategoryService(repo repository.CategoryRepository, store assets.Store, logger *slog.Logger) *CategoryService {
	return &CategoryService{repo: repo, store: store, logger: logger}
}

// CreateCategory creates a new category, uploading its image when given.
func (s *CategoryService) CreateCategory(ctx context.Context, name string, image *ImageUpload) (*domain.Category, error) {
	if name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}

	now := time.Now().UTC()
	category := &domain.Category{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if image != nil {
		uploaded, err := s.store.Upload(ctx, image.Filename, image.Content)
		if err != nil {
			return nil, fmt.Errorf("upload category image: %w", err)
		}
		category.Image = uploaded
	}

	if err := s.repo.Create(ctx, category); err != nil {
		if category.Image != nil {
			s.releaseImage(ctx, category.Image)
		}
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.logger.InfoContext(ctx, "category created",
		slog.String("category_id", category.ID),
		slog.String("name", category.Name),
	)

	return category, nil
}

// GetCategory retrieves a category by its ID.
func (s *CategoryService) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return category, nil
}

// ListCategories returns all categories ordered by name.
func (s *CategoryService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// UpdateCategory renames a category and, when a new image is given, replaces
// the old one and releases its asset.
func (s *CategoryService) UpdateCategory(ctx context.Context, id, name string, image *ImageUpload) (*domain.Category, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category for update: %w", err)
	}

	if name != "" {
		category.Name = name
	}

	oldImage := category.Image
	if image != nil {
		uploaded, err := s.store.Upload(ctx, image.Filename, image.Content)
		if err != nil {
			return nil, fmt.Errorf("upload category image: %w", err)
		}
		category.Image = uploaded
	}

	if err := s.repo.Update(ctx, category); err != nil {
		if image != nil {
			s.releaseImage(ctx, category.Image)
		}
		return nil, fmt.Errorf("update category: %w", err)
	}

	if image != nil && oldImage != nil {
		s.releaseImage(ctx, oldImage)
	}

	s.logger.InfoContext(ctx, "category updated", slog.String("category_id", category.ID))

	return category, nil
}

// DeleteCategory removes a category and releases its image asset.
func (s *CategoryService) DeleteCategory(ctx context.Context, id string) error {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get category for delete: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	if category.Image != nil {
		s.releaseImage(ctx, category.Image)
	}

	s.logger.InfoContext(ctx, "category deleted", slog.String("category_id", id))

	return nil
}

func (s *CategoryService) releaseImage(ctx context.Context, image *domain.Image) {
	if image == nil || image.AssetID == "" {
		return
	}
	if err := s.store.Delete(ctx, image.AssetID); err != nil {
		s.logger.WarnContext(ctx, "failed to release category image",
			slog.String("asset_id", image.AssetID),
			slog.String("error", err.Error()),
		)
	}
}
