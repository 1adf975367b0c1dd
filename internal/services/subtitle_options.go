package services

import "github.com/Belphemur/MediaFetch/internal/models"

// ResolveSubtitleOptions returns fully populated subtitle options, filling
// whatever the caller left empty with the defaults.
func ResolveSubtitleOptions(opts *models.SubtitleOptions) models.SubtitleOptions {
	resolved := models.DefaultSubtitleOptions()
	if opts == nil {
		return resolved
	}
	if opts.Format != "" {
		resolved.Format = opts.Format
	}
	if opts.Language != "" {
		resolved.Language = opts.Language
	}
	return resolved
}
