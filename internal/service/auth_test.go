package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/auth"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/domain"
	apperrors "github.com/Mdsakib999/cloud-kitchen-server/pkg/errors"
)

type stubVerifier struct {
	identity *auth.Identity
	err      error
}

func (v *stubVerifier) Verify(_ context.Context, _ string) (*auth.Identity, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.identity, nil
}

func newTestAuthService(users *mockUserRepository, tokens *mockRefreshTokenRepository, verifier auth.Verifier) *AuthService {
	jwtManager := auth.NewJWTManager("test-secret", 15*time.Minute, 24*time.Hour)
	return NewAuthService(users, tokens, jwtManager, verifier, newTestProducer(), newTestLogger())
}

// --- Register Tests ---

func TestRegister_Success(t *testing.T) {
	users := new(mockUserRepository)
	tokens := new(mockRefreshTokenRepository)
	svc := newTestAuthService(users, tokens, nil)
	ctx := context.Background()

	users.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)
	tokens.On("Create", ctx, mock.AnythingOfType("string"), mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)

	user, pair, err := svc.Register(ctx, RegisterInput{
		Name:     "Alice",
		Email:    "Alice@Example.com",
		Password: "supersecret",
	})

	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email) // normalized
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.Equal(t, domain.ProviderPassword, user.Provider)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	// Password is stored hashed, never in the clear.
	assert.NotEqual(t, "supersecret", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("supersecret")))

	users.AssertExpectations(t)
	tokens.AssertExpectations(t)
}

func TestRegister_ShortPassword(t *testing.T) {
	svc := newTestAuthService(new(mockUserRepository), new(mockRefreshTokenRepository), nil)

	user, pair, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "short",
	})

	assert.Nil(t, user)
	assert.Nil(t, pair)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// --- Login Tests ---

func TestLogin_Success(t *testing.T) {
	users := new(mockUserRepository)
	tokens := new(mockRefreshTokenRepository)
	svc := newTestAuthService(users, tokens, nil)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.MinCost)
	require.NoError(t, err)

	users.On("GetByEmail", ctx, "alice@example.com").Return(&domain.User{
		ID:           "user-001",
		Email:        "alice@example.com",
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
	}, nil)
	tokens.On("Create", ctx, "user-001", mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)

	user, pair, err := svc.Login(ctx, "alice@example.com", "supersecret")

	require.NoError(t, err)
	assert.Equal(t, "user-001", user.ID)
	assert.NotEmpty(t, pair.AccessToken)
}

func TestLogin_WrongPassword(t *testing.T) {
	users := new(mockUserRepository)
	svc := newTestAuthService(users, new(mockRefreshTokenRepository), nil)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.MinCost)
	require.NoError(t, err)

	users.On("GetByEmail", ctx, "alice@example.com").Return(&domain.User{
		ID:           "user-001",
		PasswordHash: string(hash),
	}, nil)

	user, pair, err := svc.Login(ctx, "alice@example.com", "wrong")

	assert.Nil(t, user)
	assert.Nil(t, pair)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestLogin_UnknownEmailMapsToUnauthorized(t *testing.T) {
	users := new(mockUserRepository)
	svc := newTestAuthService(users, new(mockRefreshTokenRepository), nil)
	ctx := context.Background()

	users.On("GetByEmail", ctx, "nobody@example.com").Return(nil, apperrors.ErrNotFound)

	_, _, err := svc.Login(ctx, "nobody@example.com", "whatever")

	// Do not leak which emails exist.
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestLogin_FederatedAccountHasNoPassword(t *testing.T) {
	users := new(mockUserRepository)
	svc := newTestAuthService(users, new(mockRefreshTokenRepository), nil)
	ctx := context.Background()

	users.On("GetByEmail", ctx, "alice@example.com").Return(&domain.User{
		ID:       "user-001",
		Provider: domain.ProviderFederated,
	}, nil)

	_, _, err := svc.Login(ctx, "alice@example.com", "anything")

	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

// --- FederatedLogin Tests ---

func TestFederatedLogin_ProvisionsOnFirstSight(t *testing.T) {
	users := new(mockUserRepository)
	tokens := new(mockRefreshTokenRepository)
	verifier := &stubVerifier{identity: &auth.Identity{
		Subject:       "federated-uid-001",
		Email:         "alice@example.com",
		Name:          "Alice",
		EmailVerified: true,
	}}
	svc := newTestAuthService(users, tokens, verifier)
	ctx := context.Background()

	users.On("GetByUID", ctx, "federated-uid-001").Return(nil, apperrors.ErrNotFound)
	users.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)
	tokens.On("Create", ctx, mock.AnythingOfType("string"), mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)

	user, pair, err := svc.FederatedLogin(ctx, "some-id-token")

	require.NoError(t, err)
	assert.Equal(t, domain.ProviderFederated, user.Provider)
	assert.Equal(t, "federated-uid-001", user.UID)
	assert.True(t, user.IsEmailVerified)
	assert.NotEmpty(t, pair.AccessToken)

	users.AssertExpectations(t)
}

func TestFederatedLogin_SyncsEmailVerification(t *testing.T) {
	users := new(mockUserRepository)
	tokens := new(mockRefreshTokenRepository)
	verifier := &stubVerifier{identity: &auth.Identity{
		Subject:       "federated-uid-001",
		EmailVerified: true,
	}}
	svc := newTestAuthService(users, tokens, verifier)
	ctx := context.Background()

	existing := &domain.User{
		ID:              "user-001",
		UID:             "federated-uid-001",
		IsEmailVerified: false,
	}
	users.On("GetByUID", ctx, "federated-uid-001").Return(existing, nil)
	users.On("Update", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return u.IsEmailVerified
	})).Return(nil)
	tokens.On("Create", ctx, "user-001", mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)

	user, _, err := svc.FederatedLogin(ctx, "some-id-token")

	require.NoError(t, err)
	assert.True(t, user.IsEmailVerified)
	users.AssertExpectations(t)
}

func TestFederatedLogin_BadToken(t *testing.T) {
	verifier := &stubVerifier{err: assert.AnError}
	svc := newTestAuthService(new(mockUserRepository), new(mockRefreshTokenRepository), verifier)

	user, pair, err := svc.FederatedLogin(context.Background(), "garbage")

	assert.Nil(t, user)
	assert.Nil(t, pair)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

// --- Refresh Tests ---

func TestRefresh_RotatesToken(t *testing.T) {
	users := new(mockUserRepository)
	tokens := new(mockRefreshTokenRepository)
	svc := newTestAuthService(users, tokens, nil)
	ctx := context.Background()

	user := &domain.User{ID: "user-001", Email: "alice@example.com", Role: domain.RoleUser}

	// Obtain a real refresh token via login.
	hash, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.MinCost)
	require.NoError(t, err)
	loginUser := *user
	loginUser.PasswordHash = string(hash)
	users.On("GetByEmail", ctx, "alice@example.com").Return(&loginUser, nil)
	tokens.On("Create", ctx, "user-001", mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)

	_, pair, err := svc.Login(ctx, "alice@example.com", "supersecret")
	require.NoError(t, err)

	storedHash := hashToken(pair.RefreshToken)
	tokens.On("GetByHash", ctx, storedHash).Return(&domain.RefreshToken{
		ID:        "token-001",
		UserID:    "user-001",
		TokenHash: storedHash,
		ExpiresAt: time.Now().UTC().Add(24 * time.Hour),
	}, nil)
	users.On("GetByID", ctx, "user-001").Return(user, nil)
	tokens.On("Revoke", ctx, storedHash).Return(nil)

	newPair, err := svc.Refresh(ctx, pair.RefreshToken)

	require.NoError(t, err)
	assert.NotEmpty(t, newPair.AccessToken)
	assert.NotEmpty(t, newPair.RefreshToken)
	tokens.AssertCalled(t, "Revoke", ctx, storedHash)
}

func TestRefresh_RevokedToken(t *testing.T) {
	users := new(mockUserRepository)
	tokens := new(mockRefreshTokenRepository)
	svc := newTestAuthService(users, tokens, nil)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.MinCost)
	require.NoError(t, err)
	users.On("GetByEmail", ctx, "alice@example.com").Return(&domain.User{
		ID: "user-001", Email: "alice@example.com", PasswordHash: string(hash),
	}, nil)
	tokens.On("Create", ctx, "user-001", mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)

	_, pair, err := svc.Login(ctx, "alice@example.com", "supersecret")
	require.NoError(t, err)

	revokedAt := time.Now().UTC()
	tokens.On("GetByHash", ctx, hashToken(pair.RefreshToken)).Return(&domain.RefreshToken{
		UserID:    "user-001",
		ExpiresAt: time.Now().UTC().Add(24 * time.Hour),
		RevokedAt: &revokedAt,
	}, nil)

	newPair, err := svc.Refresh(ctx, pair.RefreshToken)

	assert.Nil(t, newPair)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestRefresh_GarbageToken(t *testing.T) {
	svc := newTestAuthService(new(mockUserRepository), new(mockRefreshTokenRepository), nil)

	pair, err := svc.Refresh(context.Background(), "not-a-jwt")

	assert.Nil(t, pair)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

// --- Logout Tests ---

func TestLogout_RevokesAllTokens(t *testing.T) {
	tokens := new(mockRefreshTokenRepository)
	svc := newTestAuthService(new(mockUserRepository), tokens, nil)
	ctx := context.Background()

	tokens.On("RevokeByUserID", ctx, "user-001").Return(nil)

	err := svc.Logout(ctx, "user-001")

	require.NoError(t, err)
	tokens.AssertExpectations(t)
}
