// Package assets talks to the external asset host that stores product,
// promotion and profile images. Uploads return a hosted URL plus an asset
// identifier used for later release.
package assets

import (
	"context"
	"io"
	"log/slog"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/domain"
)

// Store uploads and releases hosted images.
type Store interface {
	// Upload stores the file content under the given name and returns the
	// hosted image reference.
	Upload(ctx context.Context, filename string, content io.Reader) (*domain.Image, error)

	// Delete releases a previously uploaded asset. Releasing an unknown
	// asset is not an error.
	Delete(ctx context.Context, assetID string) error
}

// Cleanup collects compensating delete actions for uploads performed during a
// multi-step operation. If the operation fails partway, Run releases the
// uploads in reverse order so no orphaned assets remain on the host.
type Cleanup struct {
	store    Store
	logger   *slog.Logger
	assetIDs []string
}

// NewCleanup creates a cleanup list backed by the given store.
func NewCleanup(store Store, logger *slog.Logger) *Cleanup {
	return &Cleanup{store: store, logger: logger}
}

// Add registers an uploaded asset for potential release.
func (c *Cleanup) Add(assetID string) {
	if assetID == "" {
		return
	}
	c.assetIDs = append(c.assetIDs, assetID)
}

// Run releases all registered assets in reverse order. Failures are logged
// and do not stop the remaining releases.
func (c *Cleanup) Run(ctx context.Context) {
	for i := len(c.assetIDs) - 1; i >= 0; i-- {
		if err := c.store.Delete(ctx, c.assetIDs[i]); err != nil {
			c.logger.WarnContext(ctx, "failed to release asset",
				slog.String("asset_id", c.assetIDs[i]),
				slog.String("error", err.Error()),
			)
		}
	}
	c.assetIDs = nil
}
