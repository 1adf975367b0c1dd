package engine

import (
	"path/filepath"
	"slices"

	"github.com/Belphemur/MediaFetch/internal/apperrors"
	"github.com/Belphemur/MediaFetch/internal/models"
)

// TitleTemplate is the output template naming files after the engine-resolved title.
const TitleTemplate = "%(title)s.%(ext)s"

// BestSubtitleFormat lets the engine choose the subtitle container.
const BestSubtitleFormat = "best"

// MergeFormats are the containers the engine can merge separate streams into.
var MergeFormats = []string{"avi", "flv", "mkv", "mov", "mp4", "webm"}

// Options is the typed configuration handed to the engine for one extraction.
type Options struct {
	FormatExpression  string // e.g. "bestvideo+bestaudio/best"; empty when no payload is fetched
	OutputTemplate    string // absolute template such as "/out/%(title)s.%(ext)s"
	WriteSubtitles    bool
	SubtitleFormat    string // a models.SubtitleFormat or BestSubtitleFormat
	SubtitleLanguage  models.SubtitleLanguage
	MergeFormat       string // final container, empty when no payload is fetched
	KeepIntermediates bool   // keep pre-merge streams; the orchestrator cleans them up
	SkipDownload      bool   // metadata and subtitles only
	RestrictFilenames bool
}

// OutputDir returns the directory component of the output template.
func (o Options) OutputDir() string {
	return filepath.Dir(o.OutputTemplate)
}

// Validate rejects option combinations the engine would silently misinterpret.
func (o Options) Validate() error {
	if o.OutputTemplate == "" {
		return apperrors.NewInvalidRequestError("engine.output_template", "must not be empty")
	}

	if o.WriteSubtitles {
		if o.SubtitleFormat == "" {
			return apperrors.NewInvalidRequestError("engine.subtitle_format", "required when writing subtitles")
		}
		if o.SubtitleFormat != BestSubtitleFormat && !models.SubtitleFormat(o.SubtitleFormat).Valid() {
			return apperrors.NewInvalidRequestError("engine.subtitle_format", "unknown format "+o.SubtitleFormat)
		}
		if !o.SubtitleLanguage.Valid() {
			return apperrors.NewInvalidRequestError("engine.subtitle_language", "malformed language tag "+string(o.SubtitleLanguage))
		}
	} else if o.SubtitleFormat != "" {
		return apperrors.NewInvalidRequestError("engine.subtitle_format", "set without writing subtitles")
	}

	if o.SkipDownload {
		if !o.WriteSubtitles {
			return apperrors.NewInvalidRequestError("engine.skip_download", "nothing to fetch without subtitles")
		}
		if o.FormatExpression != "" || o.MergeFormat != "" || o.KeepIntermediates {
			return apperrors.NewInvalidRequestError("engine.skip_download", "payload options set while skipping the download")
		}
		return nil
	}

	if o.FormatExpression == "" {
		return apperrors.NewInvalidRequestError("engine.format", "required when downloading a payload")
	}
	if o.MergeFormat != "" && !slices.Contains(MergeFormats, o.MergeFormat) {
		return apperrors.NewInvalidRequestError("engine.merge_format", "unsupported container "+o.MergeFormat)
	}
	return nil
}

// VideoRequest carries what the orchestrator wants from a full video download.
type VideoRequest struct {
	OutputDir         string
	FormatExpression  string
	MergeFormat       string
	RestrictFilenames bool
	// Subtitle is nil when no subtitle track should be written.
	Subtitle *models.SubtitleOptions
}

// NewVideoOptions builds the engine configuration for a video download.
// Pre-merge streams are kept so the orchestrator decides what to remove.
func NewVideoOptions(req VideoRequest) Options {
	opts := Options{
		FormatExpression:  req.FormatExpression,
		OutputTemplate:    filepath.Join(req.OutputDir, TitleTemplate),
		MergeFormat:       req.MergeFormat,
		KeepIntermediates: true,
		RestrictFilenames: req.RestrictFilenames,
	}
	if req.Subtitle != nil {
		opts.WriteSubtitles = true
		opts.SubtitleFormat = string(req.Subtitle.Format)
		opts.SubtitleLanguage = req.Subtitle.Language
		if opts.SubtitleFormat == "" {
			opts.SubtitleFormat = BestSubtitleFormat
		}
	}
	return opts
}

// NewSubtitleOptions builds the engine configuration for a subtitle-only fetch.
// No media payload is transferred.
func NewSubtitleOptions(outputDir string, subtitle models.SubtitleOptions, restrictFilenames bool) Options {
	format := string(subtitle.Format)
	if format == "" {
		format = BestSubtitleFormat
	}
	return Options{
		OutputTemplate:    filepath.Join(outputDir, TitleTemplate),
		WriteSubtitles:    true,
		SubtitleFormat:    format,
		SubtitleLanguage:  subtitle.Language,
		SkipDownload:      true,
		RestrictFilenames: restrictFilenames,
	}
}
