package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/domain"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/service"
	apperrors "github.com/Mdsakib999/cloud-kitchen-server/pkg/errors"
	"github.com/Mdsakib999/cloud-kitchen-server/pkg/httputil"
	"github.com/Mdsakib999/cloud-kitchen-server/pkg/middleware"
)

// UserHandler handles HTTP requests for user management endpoints.
type UserHandler struct {
	service *service.UserService
	logger  *slog.Logger
}

// NewUserHandler creates a new user HTTP handler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		service: svc,
		logger:  logger,
	}
}

// ListUsers handles GET /api/v1/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: users})
}

// UpdateProfile handles PUT /api/v1/users/{id} (multipart/form-data).
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	// Customers may only edit their own profile.
	ctx := r.Context()
	if middleware.RoleFromContext(ctx) != domain.RoleAdmin && id.String() != middleware.UserIDFromContext(ctx) {
		httputil.WriteError(w, r, apperrors.Forbidden("profile belongs to another user"), h.logger)
		return
	}

	if !parseMultipart(w, r) {
		return
	}

	picture, closePicture, err := formImage(r, "profile_picture")
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()},
		})
		return
	}
	defer closePicture()

	user, err := h.service.UpdateProfile(ctx, id.String(), service.UpdateProfileInput{
		Name:    r.FormValue("name"),
		Phone:   r.FormValue("phone"),
		Address: r.FormValue("address"),
		Picture: picture,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}

// DeleteUser handles DELETE /api/v1/users/{id}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	ctx := r.Context()
	if middleware.RoleFromContext(ctx) != domain.RoleAdmin && id.String() != middleware.UserIDFromContext(ctx) {
		httputil.WriteError(w, r, apperrors.Forbidden("account belongs to another user"), h.logger)
		return
	}

	if err := h.service.DeleteUser(ctx, id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MakeAdmin handles PUT /api/v1/users/{id}/make-admin
func (h *UserHandler) MakeAdmin(w http.ResponseWriter, r *http.Request) {
	h.setRole(w, r, domain.RoleAdmin)
}

// RemoveAdmin handles PUT /api/v1/users/{id}/remove-admin
func (h *UserHandler) RemoveAdmin(w http.ResponseWriter, r *http.Request) {
	h.setRole(w, r, domain.RoleUser)
}

func (h *UserHandler) setRole(w http.ResponseWriter, r *http.Request, role string) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	user, err := h.service.SetRole(r.Context(), id.String(), role)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}
