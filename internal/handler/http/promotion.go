package http

import (
	"log/slog"
	"net/http"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/service"
	"github.com/Mdsakib999/cloud-kitchen-server/pkg/httputil"
)

// PromotionHandler handles HTTP requests for the promotional banner set.
type PromotionHandler struct {
	service *service.PromotionService
	logger  *slog.Logger
}

// NewPromotionHandler creates a new promotion HTTP handler.
func NewPromotionHandler(svc *service.PromotionService, logger *slog.Logger) *PromotionHandler {
	return &PromotionHandler{
		service: svc,
		logger:  logger,
	}
}

// GetPromotion handles GET /api/v1/promotions
func (h *PromotionHandler) GetPromotion(w http.ResponseWriter, r *http.Request) {
	promotion, err := h.service.GetPromotion(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: promotion})
}

// ReplacePromotion handles PUT /api/v1/promotions (multipart/form-data).
// The uploaded images replace the whole active banner set.
func (h *PromotionHandler) ReplacePromotion(w http.ResponseWriter, r *http.Request) {
	if !parseMultipart(w, r) {
		return
	}

	images, closeImages, err := formImages(r, "images")
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()},
		})
		return
	}
	defer closeImages()

	promotion, err := h.service.ReplacePromotion(r.Context(), images)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: promotion})
}
