package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/repository"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/service"
	"github.com/Mdsakib999/cloud-kitchen-server/pkg/httputil"
)

var errInvalidServings = errors.New("servings must be a non-negative integer")

// ProductHandler handles HTTP requests for catalog product endpoints.
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(svc *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: svc,
		logger:  logger,
	}
}

// productForm extracts the shared multipart fields of create and update.
// Structured fields (sizes, addons, options, ingredients) arrive as
// JSON-encoded form values alongside the image files.
func productForm(r *http.Request) (service.CreateProductInput, error) {
	input := service.CreateProductInput{
		Title:           r.FormValue("title"),
		Description:     r.FormValue("description"),
		LongDescription: r.FormValue("long_description"),
		CategoryID:      r.FormValue("category_id"),
		CookTime:        r.FormValue("cook_time"),
	}

	if v := r.FormValue("servings"); v != "" {
		servings, err := strconv.Atoi(v)
		if err != nil || servings < 0 {
			return input, errInvalidServings
		}
		input.Servings = servings
	}

	if err := formJSON(r, "sizes", &input.Sizes); err != nil {
		return input, err
	}
	if err := formJSON(r, "addons", &input.Addons); err != nil {
		return input, err
	}
	if err := formJSON(r, "options", &input.Options); err != nil {
		return input, err
	}
	if err := formJSON(r, "ingredients", &input.Ingredients); err != nil {
		return input, err
	}

	return input, nil
}

// CreateProduct handles POST /api/v1/products (multipart/form-data).
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	if !parseMultipart(w, r) {
		return
	}

	input, err := productForm(r)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()},
		})
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
	input.Images = images

	product, err := h.service.CreateProduct(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: product})
}

// ListProducts handles GET /api/v1/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, perPage, ok := parsePagination(w, r)
	if !ok {
		return
	}

	filter := repository.ProductFilter{Page: page, PerPage: perPage}
	if v := r.URL.Query().Get("category_id"); v != "" {
		filter.CategoryID = &v
	}

	products, total, err := h.service.ListProducts(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(products, total, filter.Page, filter.PerPage))
}

// GetProduct handles GET /api/v1/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	product, err := h.service.GetProduct(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// UpdateProduct handles PUT /api/v1/products/{id} (multipart/form-data).
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if !parseMultipart(w, r) {
		return
	}

	form, err := productForm(r)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()},
		})
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

	product, err := h.service.UpdateProduct(r.Context(), id.String(), service.UpdateProductInput{
		Title:           form.Title,
		Description:     form.Description,
		LongDescription: form.LongDescription,
		CategoryID:      form.CategoryID,
		Images:          images,
		Sizes:           form.Sizes,
		Addons:          form.Addons,
		Options:         form.Options,
		Ingredients:     form.Ingredients,
		CookTime:        form.CookTime,
		Servings:        form.Servings,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// DeleteProduct handles DELETE /api/v1/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
