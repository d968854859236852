package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/domain"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/service"
	apperrors "github.com/Mdsakib999/cloud-kitchen-server/pkg/errors"
	"github.com/Mdsakib999/cloud-kitchen-server/pkg/httputil"
	"github.com/Mdsakib999/cloud-kitchen-server/pkg/middleware"
)

// ContentTypeJSON enforces that requests with a body have Content-Type
// application/json. Multipart requests are exempt since the catalog and
// content endpoints accept file uploads.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") && !strings.HasPrefix(ct, "multipart/form-data") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnsupportedMediaType)
				_, _ = w.Write([]byte(`{"error":{"code":"UNSUPPORTED_MEDIA_TYPE","message":"Content-Type must be application/json or multipart/form-data"}}`))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// requireStoredAdmin re-checks the admin role against the stored user record,
// not just the token claim, so a demoted admin loses access before the
// access token expires. Runs after the claim-based role gate.
func requireStoredAdmin(svc *service.AuthService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := svc.Me(r.Context(), middleware.UserIDFromContext(r.Context()))
			if err != nil || user.Role != domain.RoleAdmin {
				httputil.WriteError(w, r, apperrors.Forbidden("admin role required"), logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
