package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/service"
	"github.com/Mdsakib999/cloud-kitchen-server/pkg/httputil"
)

// BlogHandler handles HTTP requests for blog endpoints.
type BlogHandler struct {
	service *service.BlogService
	logger  *slog.Logger
}

// NewBlogHandler creates a new blog HTTP handler.
func NewBlogHandler(svc *service.BlogService, logger *slog.Logger) *BlogHandler {
	return &BlogHandler{
		service: svc,
		logger:  logger,
	}
}

// blogForm extracts the multipart fields shared by create and update. Tags
// arrive as a JSON-encoded form value alongside the cover image file.
func blogForm(r *http.Request) (service.CreateBlogInput, error) {
	input := service.CreateBlogInput{
		Title:    r.FormValue("title"),
		Content:  r.FormValue("content"),
		Category: r.FormValue("category"),
	}
	if err := formJSON(r, "tags", &input.Tags); err != nil {
		return input, err
	}
	return input, nil
}

// CreateBlog handles POST /api/v1/blogs (multipart/form-data).
func (h *BlogHandler) CreateBlog(w http.ResponseWriter, r *http.Request) {
	if !parseMultipart(w, r) {
		return
	}

	input, err := blogForm(r)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()},
		})
		return
	}

	image, closeImage, err := formImage(r, "image")
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()},
		})
		return
	}
	defer closeImage()
	input.Image = image

	blog, err := h.service.CreateBlog(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: blog})
}

// ListBlogs handles GET /api/v1/blogs
func (h *BlogHandler) ListBlogs(w http.ResponseWriter, r *http.Request) {
	page, perPage, ok := parsePagination(w, r)
	if !ok {
		return
	}

	blogs, total, err := h.service.ListBlogs(r.Context(), page, perPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(blogs, total, page, perPage))
}

// GetBlog handles GET /api/v1/blogs/{id}
func (h *BlogHandler) GetBlog(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	blog, err := h.service.GetBlog(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: blog})
}

// UpdateBlog handles PUT /api/v1/blogs/{id} (multipart/form-data).
func (h *BlogHandler) UpdateBlog(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if !parseMultipart(w, r) {
		return
	}

	form, err := blogForm(r)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()},
		})
		return
	}

	image, closeImage, err := formImage(r, "image")
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()},
		})
		return
	}
	defer closeImage()

	blog, err := h.service.UpdateBlog(r.Context(), id.String(), service.UpdateBlogInput{
		Title:    form.Title,
		Content:  form.Content,
		Category: form.Category,
		Tags:     form.Tags,
		Image:    image,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: blog})
}

// DeleteBlog handles DELETE /api/v1/blogs/{id}
func (h *BlogHandler) DeleteBlog(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteBlog(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
