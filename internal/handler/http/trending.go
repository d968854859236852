package http

import (
	"log/slog"
	"net/http"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/service"
	"github.com/Mdsakib999/cloud-kitchen-server/pkg/httputil"
)

// TrendingHandler handles HTTP requests for the trending ranking.
type TrendingHandler struct {
	service *service.TrendingService
	logger  *slog.Logger
}

// NewTrendingHandler creates a new trending HTTP handler.
func NewTrendingHandler(svc *service.TrendingService, logger *slog.Logger) *TrendingHandler {
	return &TrendingHandler{
		service: svc,
		logger:  logger,
	}
}

// Trending handles GET /api/v1/products/trending
func (h *TrendingHandler) Trending(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Trending(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}
