package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/assets"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/domain"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/event"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/repository"
	apperrors "github.com/Mdsakib999/cloud-kitchen-server/pkg/errors"
)

// ProductService implements catalog product management.
type ProductService struct {
	repo       repository.ProductRepository
	categories repository.CategoryRepository
	store      assets.Store
	producer   *event.Producer
	logger     *slog.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	repo repository.ProductRepository,
	categories repository.CategoryRepository,
	store assets.Store,
	producer *event.Producer,
	logger *slog.Logger,
) *ProductService {
	return &ProductService{
		repo:       repo,
		categories: categories,
		store:      store,
		producer:   producer,
		logger:     logger,
	}
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Title           string
	Description     string
	LongDescription string
	CategoryID      string
	Images          []ImageUpload
	Sizes           []domain.Choice
	Addons          []domain.Choice
	Options         []domain.OptionGroup
	Ingredients     []string
	CookTime        string
	Servings        int
}

// CreateProduct verifies the category, uploads the images and persists the
// product. If any step fails, already-uploaded images are released.
func (s *ProductService) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	if input.Title == "" {
		return nil, apperrors.InvalidInput("title is required")
	}
	if input.CategoryID == "" {
		return nil, apperrors.InvalidInput("category_id is required")
	}
	for _, group := range input.Options {
		if !domain.IsValidOptionType(group.Type) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid option type %q", group.Type))
		}
	}

	if _, err := s.categories.GetByID(ctx, input.CategoryID); err != nil {
		return nil, fmt.Errorf("verify category: %w", err)
	}

	cleanup := assets.NewCleanup(s.store, s.logger)
	images, err := s.uploadImages(ctx, input.Images, cleanup)
	if err != nil {
		cleanup.Run(ctx)
		return nil, err
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:              uuid.New().String(),
		Title:           input.Title,
		Description:     input.Description,
		LongDescription: input.LongDescription,
		CategoryID:      input.CategoryID,
		Images:          images,
		Sizes:           input.Sizes,
		Addons:          input.Addons,
		Options:         input.Options,
		Ingredients:     input.Ingredients,
		CookTime:        input.CookTime,
		Servings:        input.Servings,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		cleanup.Run(ctx)
		return nil, fmt.Errorf("create product: %w", err)
	}

	if err := s.producer.PublishProductCreated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.created event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("title", product.Title),
	)

	return product, nil
}

// GetProduct retrieves a product by its ID.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

// ListProducts returns a filtered, paginated product list.
func (s *ProductService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}

	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	return products, total, nil
}

// UpdateProductInput holds the parameters for updating a product. A non-empty
// Images slice replaces the full image set.
type UpdateProductInput struct {
	Title           string
	Description     string
	LongDescription string
	CategoryID      string
	Images          []ImageUpload
	Sizes           []domain.Choice
	Addons          []domain.Choice
	Options         []domain.OptionGroup
	Ingredients     []string
	CookTime        string
	Servings        int
}

// UpdateProduct applies the update. When new images are given the whole set
// is replaced and the previous assets are released after the write succeeds.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, input UpdateProductInput) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for update: %w", err)
	}

	if input.CategoryID != "" && input.CategoryID != product.CategoryID {
		if _, err := s.categories.GetByID(ctx, input.CategoryID); err != nil {
			return nil, fmt.Errorf("verify category: %w", err)
		}
		product.CategoryID = input.CategoryID
	}

	if input.Title != "" {
		product.Title = input.Title
	}
	if input.Description != "" {
		product.Description = input.Description
	}
	if input.LongDescription != "" {
		product.LongDescription = input.LongDescription
	}
	if input.Sizes != nil {
		product.Sizes = input.Sizes
	}
	if input.Addons != nil {
		product.Addons = input.Addons
	}
	if input.Options != nil {
		for _, group := range input.Options {
			if !domain.IsValidOptionType(group.Type) {
				return nil, apperrors.InvalidInput(fmt.Sprintf("invalid option type %q", group.Type))
			}
		}
		product.Options = input.Options
	}
	if input.Ingredients != nil {
		product.Ingredients = input.Ingredients
	}
	if input.CookTime != "" {
		product.CookTime = input.CookTime
	}
	if input.Servings > 0 {
		product.Servings = input.Servings
	}

	oldImages := product.Images
	replacingImages := len(input.Images) > 0

	cleanup := assets.NewCleanup(s.store, s.logger)
	if replacingImages {
		images, err := s.uploadImages(ctx, input.Images, cleanup)
		if err != nil {
			cleanup.Run(ctx)
			return nil, err
		}
		product.Images = images
	}

	if err := s.repo.Update(ctx, product); err != nil {
		cleanup.Run(ctx)
		return nil, fmt.Errorf("update product: %w", err)
	}

	if replacingImages {
		for _, img := range oldImages {
			s.releaseAsset(ctx, img.AssetID)
		}
	}

	if err := s.producer.PublishProductUpdated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.updated event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product updated", slog.String("product_id", product.ID))

	return product, nil
}

// DeleteProduct removes the product and releases its image assets.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get product for delete: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	for _, img := range product.Images {
		s.releaseAsset(ctx, img.AssetID)
	}

	if err := s.producer.PublishProductDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.deleted event",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id))

	return nil
}

// uploadImages uploads all files, registering each success with the cleanup
// list so a later failure can roll the uploads back.
func (s *ProductService) uploadImages(ctx context.Context, uploads []ImageUpload, cleanup *assets.Cleanup) ([]domain.Image, error) {
	images := make([]domain.Image, 0, len(uploads))
	for _, upload := range uploads {
		img, err := s.store.Upload(ctx, upload.Filename, upload.Content)
		if err != nil {
			return nil, fmt.Errorf("upload product image %q: %w", upload.Filename, err)
		}
		cleanup.Add(img.AssetID)
		images = append(images, *img)
	}
	return images, nil
}

func (s *ProductService) releaseAsset(ctx context.Context, assetID string) {
	if assetID == "" {
		return
	}
	if err := s.store.Delete(ctx, assetID); err != nil {
		s.logger.WarnContext(ctx, "failed to release product image",
			slog.String("asset_id", assetID),
			slog.String("error", err.Error()),
		)
	}
}
