package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/domain"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/repository"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/service"
	apperrors "github.com/Mdsakib999/cloud-kitchen-server/pkg/errors"
	"github.com/Mdsakib999/cloud-kitchen-server/pkg/httputil"
	"github.com/Mdsakib999/cloud-kitchen-server/pkg/middleware"
	"github.com/Mdsakib999/cloud-kitchen-server/pkg/validator"
)

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	service *service.OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(svc *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// OrderAddonRequest is the JSON request body for an extra on a line item.
type OrderAddonRequest struct {
	Name     string  `json:"name" validate:"required"`
	Price    float64 `json:"price" validate:"gte=0"`
	Quantity int     `json:"quantity" validate:"required,gte=1"`
}

// PlaceOrderItemRequest is the JSON request body for an order line item.
type PlaceOrderItemRequest struct {
	ProductID string              `json:"product_id" validate:"required,uuid"`
	Name      string              `json:"name" validate:"required"`
	Quantity  int                 `json:"quantity" validate:"required,gte=1"`
	UnitPrice float64             `json:"unit_price" validate:"gte=0"`
	Addons    []OrderAddonRequest `json:"addons" validate:"omitempty,dive"`
}

// PlaceOrderRequest is the JSON request body for placing an order.
type PlaceOrderRequest struct {
	Name           string                  `json:"name" validate:"required"`
	Phone          string                  `json:"phone" validate:"required"`
	Country        string                  `json:"country"`
	Address        string                  `json:"address" validate:"required"`
	City           string                  `json:"city" validate:"required"`
	AdditionalInfo string                  `json:"additional_info"`
	Items          []PlaceOrderItemRequest `json:"items" validate:"required,min=1,dive"`
	CouponCode     string                  `json:"coupon_code"`
	PaymentMethod  string                  `json:"payment_method" validate:"required,oneof=cash card"`
}

// --- Handlers ---

// PlaceOrder handles POST /api/v1/orders
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	items := make([]service.PlaceOrderItemInput, len(req.Items))
	for i, item := range req.Items {
		addons := make([]domain.OrderAddon, len(item.Addons))
		for j, addon := range item.Addons {
			addons[j] = domain.OrderAddon{
				Name:     addon.Name,
				Price:    addon.Price,
				Quantity: addon.Quantity,
			}
		}
		items[i] = service.PlaceOrderItemInput{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Addons:    addons,
		}
	}

	order, err := h.service.PlaceOrder(r.Context(), service.PlaceOrderInput{
		UserID:         middleware.UserIDFromContext(r.Context()),
		Name:           req.Name,
		Phone:          req.Phone,
		Country:        req.Country,
		Address:        req.Address,
		City:           req.City,
		AdditionalInfo: req.AdditionalInfo,
		Items:          items,
		CouponCode:     req.CouponCode,
		PaymentMethod:  req.PaymentMethod,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: order})
}

// ListOrders handles GET /api/v1/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, perPage, ok := parsePagination(w, r)
	if !ok {
		return
	}

	filter := repository.OrderFilter{Page: page, PerPage: perPage}
	if v := r.URL.Query().Get("user_id"); v != "" {
		filter.UserID = &v
	}

	orders, total, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(orders, total, filter.Page, filter.PerPage))
}

// ListMyOrders handles GET /api/v1/orders/mine
func (h *OrderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	page, perPage, ok := parsePagination(w, r)
	if !ok {
		return
	}

	userID := middleware.UserIDFromContext(r.Context())

	orders, total, err := h.service.ListUserOrders(r.Context(), userID, page, perPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(orders, total, page, perPage))
}

// GetOrder handles GET /api/v1/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.service.GetOrder(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	// Customers may only read their own orders.
	ctx := r.Context()
	if middleware.RoleFromContext(ctx) != domain.RoleAdmin && order.UserID != middleware.UserIDFromContext(ctx) {
		httputil.WriteError(w, r, apperrors.Forbidden("order belongs to another user"), h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// DeliverOrder handles PUT /api/v1/orders/{id}/deliver
func (h *OrderHandler) DeliverOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.service.MarkDelivered(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// DeleteOrder handles DELETE /api/v1/orders/{id}
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteOrder(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
