package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/domain"
	"github.com/Mdsakib999/cloud-kitchen-server/pkg/httpclient"
)

// HTTPStore is a Store backed by the asset host's REST API. All calls go
// through a circuit breaker so a degraded host fails fast instead of tying
// up request handlers.
type HTTPStore struct {
	baseURL string
	apiKey  string
	client  *httpclient.CircuitBreakerClient
	logger  *slog.Logger
}

// NewHTTPStore creates a store talking to the asset host at baseURL.
func NewHTTPStore(baseURL, apiKey string, logger *slog.Logger) *HTTPStore {
	client := httpclient.New(httpclient.DefaultConfig())
	cb := httpclient.NewCircuitBreakerClient(client, httpclient.DefaultCircuitBreakerConfig("asset-host"), logger)

	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  cb,
		logger:  logger,
	}
}

type uploadResponse struct {
	AssetID string `json:"asset_id"`
	URL     string `json:"url"`
}

// Upload sends the file to the asset host as a multipart form and returns
// the hosted image reference.
func (s *HTTPStore) Upload(ctx context.Context, filename string, content io.Reader) (*domain.Image, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("copy file content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/assets", &buf)
	if err != nil {
		return nil, fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-API-Key", s.apiKey)

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("upload asset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, httpclient.ParseResponseError(resp, "asset-host")
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	if out.URL == "" {
		return nil, fmt.Errorf("asset host returned empty url")
	}

	return &domain.Image{URL: out.URL, AssetID: out.AssetID}, nil
}

// Delete releases the asset on the host. A 404 means the asset is already
// gone and is treated as success.
func (s *HTTPStore) Delete(ctx context.Context, assetID string) error {
	if assetID == "" {
		return nil
	}

	endpoint := s.baseURL + "/v1/assets/" + url.PathEscape(assetID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("create delete request: %w", err)
	}
	req.Header.Set("X-API-Key", s.apiKey)

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK, resp.StatusCode == http.StatusNoContent:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return nil
	default:
		return httpclient.ParseResponseError(resp, "asset-host")
	}
}
