// Package engine adapts the external media extraction engine (yt-dlp) to a
// typed configuration contract used by the download orchestrator.
package engine

import (
	"context"

	"github.com/Belphemur/MediaFetch/internal/models"
)

// Engine resolves a URL into media metadata and, unless told otherwise, downloads it.
// Extract blocks until the engine finished every download and post-processing step.
type Engine interface {
	Extract(ctx context.Context, url string, opts Options) (*models.ExtractionOutcome, error)
}
