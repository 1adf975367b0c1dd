package services

import (
	"context"

	"github.com/Belphemur/MediaFetch/internal/models"
)

// Downloader defines the interface for fetching media through the extraction engine
type Downloader interface {
	// DownloadVideo downloads a video into req.OutputDir, optionally keeping its subtitle track
	DownloadVideo(ctx context.Context, req models.VideoDownloadRequest) (*models.VideoDownloadResult, error)
	// DownloadSubtitle fetches only the subtitle track; a missing track is reported, not returned as an error
	DownloadSubtitle(ctx context.Context, req models.SubtitleDownloadRequest) (*models.SubtitleDownloadResult, error)
}
