package assets

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/domain"
)

// MemoryStore is an in-process Store used in tests and local development.
// Uploaded content is held in memory and never leaves the process.
type MemoryStore struct {
	mu     sync.Mutex
	assets map[string][]byte
}

// NewMemoryStore creates an empty in-memory asset store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{assets: make(map[string][]byte)}
}

// Upload stores the content in memory under a generated asset ID.
func (s *MemoryStore) Upload(_ context.Context, filename string, content io.Reader) (*domain.Image, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return nil, fmt.Errorf("read upload content: %w", err)
	}

	assetID := uuid.New().String()

	s.mu.Lock()
	s.assets[assetID] = data
	s.mu.Unlock()

	return &domain.Image{
		URL:     fmt.Sprintf("memory://%s/%s", assetID, filename),
		AssetID: assetID,
	}, nil
}

// Delete removes the asset. Unknown IDs are ignored.
func (s *MemoryStore) Delete(_ context.Context, assetID string) error {
	s.mu.Lock()
	delete(s.assets, assetID)
	s.mu.Unlock()
	return nil
}

// Len reports how many assets are currently stored.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.assets)
}
