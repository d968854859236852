package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/assets"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/domain"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/repository"
	apperrors "github.com/Mdsakib999/cloud-kitchen-server/pkg/errors"
)

// UserService implements user account management: profile updates, the admin
// user directory, account deletion and role assignment.
type UserService struct {
	users  repository.UserRepository
	store  assets.Store
	logger *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(users repository.UserRepository, store assets.Store, logger *slog.Logger) *UserService {
	return &UserService{users: users, store: store, logger: logger}
}

// ListUsers returns all registered users, most recent first.
func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateProfileInput holds the parameters for a profile update. Empty fields
// keep their current values.
type UpdateProfileInput struct {
	Name    string
	Phone   string
	Address string
	Picture *ImageUpload
}

// UpdateProfile applies a partial update to the user's profile, replacing and
// releasing the old profile picture when a new one is given.
func (s *UserService) UpdateProfile(ctx context.Context, id string, input UpdateProfileInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user for update: %w", err)
	}

	if input.Name != "" {
		user.Name = input.Name
	}
	if input.Phone != "" {
		user.Phone = input.Phone
	}
	if input.Address != "" {
		user.Address = input.Address
	}

	oldPicture := user.ProfilePicture
	if input.Picture != nil {
		uploaded, err := s.store.Upload(ctx, input.Picture.Filename, input.Picture.Content)
		if err != nil {
			return nil, fmt.Errorf("upload profile picture: %w", err)
		}
		user.ProfilePicture = uploaded
	}

	if err := s.users.Update(ctx, user); err != nil {
		if input.Picture != nil {
			s.releasePicture(ctx, user.ProfilePicture)
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	if input.Picture != nil {
		s.releasePicture(ctx, oldPicture)
	}

	s.logger.InfoContext(ctx, "profile updated", slog.String("user_id", user.ID))

	return user, nil
}

// DeleteUser removes a user account and releases their profile picture.
// Refresh tokens, orders and reviews cascade in the store.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get user for delete: %w", err)
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.releasePicture(ctx, user.ProfilePicture)

	s.logger.InfoContext(ctx, "user deleted", slog.String("user_id", id))

	return nil
}

// SetRole assigns the given role to the user and returns the updated record.
func (s *UserService) SetRole(ctx context.Context, id, role string) (*domain.User, error) {
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown role %q", role))
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user for role change: %w", err)
	}

	if user.Role == role {
		return user, nil
	}

	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user role: %w", err)
	}

	s.logger.InfoContext(ctx, "user role changed",
		slog.String("user_id", user.ID),
		slog.String("role", role),
	)

	return user, nil
}

func (s *UserService) releasePicture(ctx context.Context, picture *domain.Image) {
	if picture == nil || picture.AssetID == "" {
		return
	}
	if err := s.store.Delete(ctx, picture.AssetID); err != nil {
		s.logger.WarnContext(ctx, "failed to release profile picture",
			slog.String("asset_id", picture.AssetID),
			slog.String("error", err.Error()),
		)
	}
}
