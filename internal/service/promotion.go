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

// PromotionService implements the promotional banner set.
type PromotionService struct {
	repo   repository.PromotionRepository
	store  assets.Store
	logger *slog.Logger
}

// NewPromotionService creates a new promotion service.
func NewPromotionService(repo repository.PromotionRepository, store assets.Store, logger *slog.Logger) *PromotionService {
	return &PromotionService{repo: repo, store: store, logger: logger}
}

// GetPromotion returns the active banner set. When none exists, an empty set
// is returned rather than an error.
func (s *PromotionService) GetPromotion(ctx context.Context) (*domain.Promotion, error) {
	promotion, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get promotion: %w", err)
	}
	if promotion == nil {
		return &domain.Promotion{Images: []domain.Image{}}, nil
	}
	return promotion, nil
}

// ReplacePromotion uploads the new banner images and swaps them in for the
// previous set, releasing the old assets afterwards.
func (s *PromotionService) ReplacePromotion(ctx context.Context, uploads []ImageUpload) (*domain.Promotion, error) {
	if len(uploads) == 0 {
		return nil, apperrors.InvalidInput("at least one image is required")
	}
	if len(uploads) > domain.MaxPromotionImages {
		return nil, apperrors.InvalidInput(fmt.Sprintf("at most %d images are allowed", domain.MaxPromotionImages))
	}

	previous, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get current promotion: %w", err)
	}

	cleanup := assets.NewCleanup(s.store, s.logger)
	images := make([]domain.Image, 0, len(uploads))
	for _, upload := range uploads {
		img, err := s.store.Upload(ctx, upload.Filename, upload.Content)
		if err != nil {
			cleanup.Run(ctx)
			return nil, fmt.Errorf("upload promotion image %q: %w", upload.Filename, err)
		}
		cleanup.Add(img.AssetID)
		images = append(images, *img)
	}

	promotion := &domain.Promotion{
		ID:        uuid.New().String(),
		Images:    images,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Replace(ctx, promotion); err != nil {
		cleanup.Run(ctx)
		return nil, fmt.Errorf("replace promotion: %w", err)
	}

	if previous != nil {
		for _, img := range previous.Images {
			if img.AssetID == "" {
				continue
			}
			if err := s.store.Delete(ctx, img.AssetID); err != nil {
				s.logger.WarnContext(ctx, "failed to release old promotion image",
					slog.String("asset_id", img.AssetID),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	s.logger.InfoContext(ctx, "promotion replaced",
		slog.String("promotion_id", promotion.ID),
		slog.Int("images", len(images)),
	)

	return promotion, nil
}
