package models

import (
	"strings"

	"github.com/Belphemur/MediaFetch/internal/apperrors"
)

// VideoDownloadRequest asks for a video and, optionally, its subtitle track
type VideoDownloadRequest struct {
	URL          string // Page URL understood by the extraction engine
	OutputDir    string // Directory receiving the final files; must already exist
	KeepSubtitle bool   // Also write the subtitle track next to the video
	// SubtitleOptions is ignored when KeepSubtitle is false.
	SubtitleOptions *SubtitleOptions
}

// Validate checks the fields the orchestrator relies on.
// Subtitle options are only checked when they will be used.
func (r VideoDownloadRequest) Validate() error {
	if err := validateTarget(r.URL, r.OutputDir); err != nil {
		return err
	}
	if r.KeepSubtitle {
		return validateSubtitleOptions(r.SubtitleOptions)
	}
	return nil
}

// SubtitleDownloadRequest asks for the subtitle track only
type SubtitleDownloadRequest struct {
	URL             string
	OutputDir       string
	SubtitleOptions *SubtitleOptions
}

// Validate checks the fields the orchestrator relies on
func (r SubtitleDownloadRequest) Validate() error {
	if err := validateTarget(r.URL, r.OutputDir); err != nil {
		return err
	}
	return validateSubtitleOptions(r.SubtitleOptions)
}

func validateTarget(url, outputDir string) error {
	if strings.TrimSpace(url) == "" {
		return apperrors.NewInvalidRequestError("url", "must not be empty")
	}
	if strings.TrimSpace(outputDir) == "" {
		return apperrors.NewInvalidRequestError("output_dir", "must not be empty")
	}
	return nil
}

func validateSubtitleOptions(opts *SubtitleOptions) error {
	if opts == nil {
		return nil
	}
	if opts.Format != "" && !opts.Format.Valid() {
		return apperrors.NewInvalidRequestError("subtitle_options.format", "unknown subtitle format "+string(opts.Format))
	}
	if !opts.Language.Valid() {
		return apperrors.NewInvalidRequestError("subtitle_options.language", "malformed language tag "+string(opts.Language))
	}
	return nil
}
