package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/service"
	"github.com/Mdsakib999/cloud-kitchen-server/pkg/httputil"
)

// maxUploadSize bounds multipart request bodies. Banner and dish photos are
// small; anything past this is a client error.
const maxUploadSize = 16 << 20

// parseMultipart parses the request as a multipart form with the standard
// size limit, writing a 400 response on failure.
func parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "failed to parse multipart form: " + err.Error()},
		})
		return false
	}
	return true
}

// formImage extracts a single optional file upload from the named form field.
// Returns (nil, noop, nil) when the field is absent. The returned closer must
// be called after the upload has been consumed.
func formImage(r *http.Request, field string) (*service.ImageUpload, func(), error) {
	file, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, fmt.Errorf("read form file %q: %w", field, err)
	}
	upload := &service.ImageUpload{Filename: header.Filename, Content: file}
	return upload, func() { _ = file.Close() }, nil
}

// formImages extracts all file uploads from the named form field. The
// returned closer must be called after the uploads have been consumed.
func formImages(r *http.Request, field string) ([]service.ImageUpload, func(), error) {
	if r.MultipartForm == nil {
		return nil, func() {}, nil
	}

	headers := r.MultipartForm.File[field]
	uploads := make([]service.ImageUpload, 0, len(headers))
	closers := make([]func() error, 0, len(headers))
	closeAll := func() {
		for _, c := range closers {
			_ = c()
		}
	}

	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("open form file %q: %w", field, err)
		}
		closers = append(closers, file.Close)
		uploads = append(uploads, service.ImageUpload{Filename: header.Filename, Content: file})
	}

	return uploads, closeAll, nil
}

// formJSON unmarshals a JSON-encoded form value into dst. Empty values are
// ignored so optional structured fields can be omitted.
func formJSON(r *http.Request, field string, dst any) error {
	v := r.FormValue(field)
	if v == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(v), dst); err != nil {
		return fmt.Errorf("field %q is not valid JSON: %w", field, err)
	}
	return nil
}

// parsePagination reads the page and per_page query parameters, writing a 400
// response and returning ok=false on invalid values.
func parsePagination(w http.ResponseWriter, r *http.Request) (page, perPage int, ok bool) {
	page, perPage = 1, 20

	if v := r.URL.Query().Get("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 1 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "page must be a valid positive integer"},
			})
			return 0, 0, false
		}
		page = p
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		pp, err := strconv.Atoi(v)
		if err != nil || pp < 1 || pp > 100 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "per_page must be a valid integer between 1 and 100"},
			})
			return 0, 0, false
		}
		perPage = pp
	}

	return page, perPage, true
}
