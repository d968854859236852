package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/domain"
	apperrors "github.com/Mdsakib999/cloud-kitchen-server/pkg/errors"
)

// --- Register Tests ---

func TestRegister_Created(t *testing.T) {
	env := newTestEnv(t)

	env.users.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)
	env.tokens.On("Create", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)

	req := jsonRequest(t, http.MethodPost, "/api/v1/auth/register", map[string]any{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "supersecret",
	})

	rec := env.do(req)

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Data)

	data := resp.Data.(map[string]any)
	user := data["user"].(map[string]any)
	tokens := data["tokens"].(map[string]any)
	assert.Equal(t, "alice@example.com", user["email"])
	assert.NotEmpty(t, tokens["access_token"])
	assert.NotEmpty(t, tokens["refresh_token"])

	// The password hash must never appear in the response.
	_, leaked := user["password_hash"]
	assert.False(t, leaked)
}

func TestRegister_ValidationError(t *testing.T) {
	env := newTestEnv(t)

	req := jsonRequest(t, http.MethodPost, "/api/v1/auth/register", map[string]any{
		"name":     "Alice",
		"email":    "not-an-email",
		"password": "supersecret",
	})

	rec := env.do(req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Contains(t, resp.Error.Fields, "Email")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)

	env.users.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).
		Return(apperrors.AlreadyExists("user", "email", "alice@example.com"))

	req := jsonRequest(t, http.MethodPost, "/api/v1/auth/register", map[string]any{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "supersecret",
	})

	rec := env.do(req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

// --- Login Tests ---

func TestLogin_OK(t *testing.T) {
	env := newTestEnv(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.MinCost)
	require.NoError(t, err)

	env.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{
		ID:           testUserID,
		Email:        "alice@example.com",
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
	}, nil)
	env.tokens.On("Create", mock.Anything, testUserID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)

	req := jsonRequest(t, http.MethodPost, "/api/v1/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": "supersecret",
	})

	rec := env.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.MinCost)
	require.NoError(t, err)

	env.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{
		ID:           testUserID,
		PasswordHash: string(hash),
	}, nil)

	req := jsonRequest(t, http.MethodPost, "/api/v1/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": "wrong",
	})

	rec := env.do(req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
}

// --- Refresh Tests ---

func TestRefresh_GarbageToken(t *testing.T) {
	env := newTestEnv(t)

	req := jsonRequest(t, http.MethodPost, "/api/v1/auth/refresh", map[string]any{
		"refresh_token": "not-a-jwt",
	})

	rec := env.do(req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// --- Me Tests ---

func TestMe_ReturnsCaller(t *testing.T) {
	env := newTestEnv(t)

	env.users.On("GetByID", mock.Anything, testUserID).Return(&domain.User{
		ID:    testUserID,
		Email: "alice@example.com",
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", env.bearer(t, testUserID, domain.RoleUser))

	rec := env.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	user := resp.Data.(map[string]any)
	assert.Equal(t, testUserID, user["id"])
}

func TestMe_MissingToken(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)

	rec := env.do(req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// --- Admin Gate Tests ---

func TestAdminGate_StoredRoleDemoted(t *testing.T) {
	env := newTestEnv(t)

	// The token still claims admin but the stored record was demoted.
	env.users.On("GetByID", mock.Anything, testAdminID).Return(&domain.User{
		ID:   testAdminID,
		Role: domain.RoleUser,
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/coupons/", nil)
	req.Header.Set("Authorization", env.bearer(t, testAdminID, domain.RoleAdmin))

	rec := env.do(req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	env.coupons.AssertNotCalled(t, "List", mock.Anything)
}

// --- Logout Tests ---

func TestLogout_RevokesSessions(t *testing.T) {
	env := newTestEnv(t)

	env.tokens.On("RevokeByUserID", mock.Anything, testUserID).Return(nil)

	req := jsonRequest(t, http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", env.bearer(t, testUserID, domain.RoleUser))

	rec := env.do(req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	env.tokens.AssertExpectations(t)
}
