package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/auth"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/domain"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/event"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/repository"
	apperrors "github.com/Mdsakib999/cloud-kitchen-server/pkg/errors"
)

const bcryptCost = 12

// AuthService implements registration, login, federated sign-in and refresh
// token rotation.
type AuthService struct {
	users    repository.UserRepository
	tokens   repository.RefreshTokenRepository
	jwt      *auth.JWTManager
	verifier auth.Verifier
	producer *event.Producer
	logger   *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	users repository.UserRepository,
	tokens repository.RefreshTokenRepository,
	jwtManager *auth.JWTManager,
	verifier auth.Verifier,
	producer *event.Producer,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		jwt:      jwtManager,
		verifier: verifier,
		producer: producer,
		logger:   logger,
	}
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Address  string
}

// Register creates a password-based account and issues a token pair.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, *domain.TokenPair, error) {
	if input.Name == "" || input.Email == "" || input.Password == "" {
		return nil, nil, apperrors.InvalidInput("name, email and password are required")
	}
	if len(input.Password) < 8 {
		return nil, nil, apperrors.InvalidInput("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Name:         input.Name,
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: string(hash),
		Phone:        input.Phone,
		Address:      input.Address,
		Provider:     domain.ProviderPassword,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("provider", user.Provider),
	)

	return user, pair, nil
}

// Login verifies email and password and issues a token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *domain.TokenPair, error) {
	if email == "" || password == "" {
		return nil, nil, apperrors.InvalidInput("email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.Unauthorized("invalid credentials")
		}
		return nil, nil, fmt.Errorf("get user by email: %w", err)
	}

	if user.PasswordHash == "" {
		// Federated accounts have no password to check.
		return nil, nil, apperrors.Unauthorized("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, apperrors.Unauthorized("invalid credentials")
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))

	return user, pair, nil
}

// FederatedLogin verifies an external ID token, provisioning the account on
// first sight, and issues the self-signed token pair.
func (s *AuthService) FederatedLogin(ctx context.Context, idToken string) (*domain.User, *domain.TokenPair, error) {
	if idToken == "" {
		return nil, nil, apperrors.InvalidInput("id_token is required")
	}

	identity, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, nil, apperrors.Unauthorized("invalid federated token")
	}

	user, err := s.users.GetByUID(ctx, identity.Subject)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, fmt.Errorf("get user by uid: %w", err)
		}
		user, err = s.provisionFederatedUser(ctx, identity)
		if err != nil {
			return nil, nil, err
		}
	} else if identity.EmailVerified && !user.IsEmailVerified {
		user.IsEmailVerified = true
		if err := s.users.Update(ctx, user); err != nil {
			s.logger.WarnContext(ctx, "failed to sync email verification",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "federated login", slog.String("user_id", user.ID))

	return user, pair, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued. Revoked, expired or unknown tokens are rejected.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token")
	}

	hash := hashToken(refreshToken)

	stored, err := s.tokens.GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid refresh token")
		}
		return nil, fmt.Errorf("get refresh token: %w", err)
	}

	now := time.Now().UTC()
	if stored.RevokedAt != nil || now.After(stored.ExpiresAt) {
		return nil, apperrors.Unauthorized("refresh token expired or revoked")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid refresh token")
		}
		return nil, fmt.Errorf("get user for refresh: %w", err)
	}

	if err := s.tokens.Revoke(ctx, hash); err != nil {
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "refresh token rotated", slog.String("user_id", user.ID))

	return pair, nil
}

// Logout revokes all refresh tokens for the user.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.tokens.RevokeByUserID(ctx, userID); err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged out", slog.String("user_id", userID))

	return nil
}

// Me returns the current principal's user record.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *AuthService) provisionFederatedUser(ctx context.Context, identity *auth.Identity) (*domain.User, error) {
	now := time.Now().UTC()
	user := &domain.User{
		ID:              uuid.New().String(),
		Name:            identity.Name,
		Email:           strings.ToLower(identity.Email),
		Provider:        domain.ProviderFederated,
		Role:            domain.RoleUser,
		UID:             identity.Subject,
		IsEmailVerified: identity.EmailVerified,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if identity.Picture != "" {
		user.ProfilePicture = &domain.Image{URL: identity.Picture}
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("provision federated user: %w", err)
	}

	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	return user, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	access, err := s.jwt.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refresh, err := s.jwt.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	claims, err := s.jwt.ValidateRefreshToken(refresh)
	if err != nil {
		return nil, fmt.Errorf("validate issued refresh token: %w", err)
	}

	if err := s.tokens.Create(ctx, user.ID, hashToken(refresh), claims.ExpiresAt.Time); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// hashToken hashes the raw refresh token so only a digest hits the database.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
