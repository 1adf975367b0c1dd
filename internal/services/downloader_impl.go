package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Belphemur/MediaFetch/internal/apperrors"
	"github.com/Belphemur/MediaFetch/internal/config"
	"github.com/Belphemur/MediaFetch/internal/engine"
	"github.com/Belphemur/MediaFetch/internal/models"
)

// Settings configures how the orchestrator drives the engine
type Settings struct {
	FormatExpression      string
	MergeFormat           string
	IntermediateFormats   []string
	RestrictFilenames     bool
	MissingSubtitlePolicy string // config.MissingSubtitleFail or config.MissingSubtitleDegrade
}

// DefaultSettings mirrors the configuration defaults
func DefaultSettings() Settings {
	return Settings{
		FormatExpression:      "bestvideo+bestaudio/best",
		MergeFormat:           "mp4",
		IntermediateFormats:   []string{"webm", "mkv", "m4a", "mp4", "opus"},
		MissingSubtitlePolicy: config.MissingSubtitleFail,
	}
}

// SettingsFromConfig reads the engine and download sections of cfg
func SettingsFromConfig(cfg *config.Config) Settings {
	s := DefaultSettings()
	if cfg == nil {
		return s
	}
	if cfg.Engine.Format != "" {
		s.FormatExpression = cfg.Engine.Format
	}
	if cfg.Engine.MergeFormat != "" {
		s.MergeFormat = cfg.Engine.MergeFormat
	}
	if cfg.Engine.IntermediateFormats != nil {
		s.IntermediateFormats = cfg.Engine.IntermediateFormats
	}
	s.RestrictFilenames = cfg.Engine.RestrictFilenames
	if cfg.Downloads.MissingSubtitlePolicy != "" {
		s.MissingSubtitlePolicy = cfg.Downloads.MissingSubtitlePolicy
	}
	return s
}

// DefaultDownloader implements Downloader on top of an engine.Engine.
// It holds no per-request state and is safe for concurrent use.
type DefaultDownloader struct {
	engine     engine.Engine
	reconciler *ArtifactReconciler
	settings   Settings
	logger     zerolog.Logger
}

// NewDownloader creates a new downloader driving e
func NewDownloader(e engine.Engine, settings Settings) Downloader {
	return &DefaultDownloader{
		engine:     e,
		reconciler: NewArtifactReconciler(settings.IntermediateFormats),
		settings:   settings,
		logger:     config.GetLogger(),
	}
}

// DownloadVideo downloads a video and, when asked, its subtitle track
func (d *DefaultDownloader) DownloadVideo(ctx context.Context, req models.VideoDownloadRequest) (*models.VideoDownloadResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var subtitle *models.SubtitleOptions
	if req.KeepSubtitle {
		resolved := ResolveSubtitleOptions(req.SubtitleOptions)
		subtitle = &resolved
	}

	d.logger.Info().
		Str("url", req.URL).
		Str("outputDir", req.OutputDir).
		Bool("keepSubtitle", req.KeepSubtitle).
		Msg("Downloading video")

	opts := engine.NewVideoOptions(engine.VideoRequest{
		OutputDir:         req.OutputDir,
		FormatExpression:  d.settings.FormatExpression,
		MergeFormat:       d.settings.MergeFormat,
		RestrictFilenames: d.settings.RestrictFilenames,
		Subtitle:          subtitle,
	})
	before := SnapshotDir(req.OutputDir)
	outcome, err := d.extract(ctx, req.URL, opts)
	if err != nil {
		return nil, err
	}

	var subtitleFormat *models.SubtitleFormat
	if subtitle != nil {
		subtitleFormat = &subtitle.Format
	}
	paths, err := DeriveOutputPaths(req.OutputDir, outcome.Title, d.settings.MergeFormat, subtitleFormat)
	if err != nil {
		return nil, err
	}

	report := d.reconciler.Reconcile(ReconcileInput{
		OutputDir:  req.OutputDir,
		EngineStem: engineStem(outcome),
		EngineFile: outcome.Filename,
		Paths:      paths,
		VideoExt:   d.settings.MergeFormat,
		Subtitle:   subtitle,
		Before:     before,
	})

	if subtitle != nil && report.SubtitleFile == "" {
		if d.settings.MissingSubtitlePolicy != config.MissingSubtitleDegrade {
			return nil, apperrors.NewSubtitleUnavailableError(req.URL, string(subtitle.Language), string(subtitle.Format))
		}
		d.logger.Warn().
			Str("url", req.URL).
			Str("language", string(subtitle.Language)).
			Str("format", string(subtitle.Format)).
			Msg("Subtitle not available, returning video only")
	}

	d.logger.Info().
		Str("title", outcome.Title).
		Str("videoFile", report.VideoFile).
		Int("removedIntermediates", len(report.Removed)).
		Msg("Successfully downloaded video")

	return buildVideoResult(report.VideoFile, report.SubtitleFile), nil
}

// DownloadSubtitle fetches only the subtitle track of a video
func (d *DefaultDownloader) DownloadSubtitle(ctx context.Context, req models.SubtitleDownloadRequest) (*models.SubtitleDownloadResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	subtitle := ResolveSubtitleOptions(req.SubtitleOptions)

	d.logger.Info().
		Str("url", req.URL).
		Str("outputDir", req.OutputDir).
		Str("format", string(subtitle.Format)).
		Str("language", string(subtitle.Language)).
		Msg("Downloading subtitle")

	opts := engine.NewSubtitleOptions(req.OutputDir, subtitle, d.settings.RestrictFilenames)
	before := SnapshotDir(req.OutputDir)
	outcome, err := d.extract(ctx, req.URL, opts)
	if errors.Is(err, &apperrors.ErrSubtitleUnavailable{}) {
		d.logger.Info().Str("url", req.URL).Msg("No matching subtitle track")
		return buildSubtitleResult(""), nil
	}
	if err != nil {
		return nil, err
	}

	paths, err := DeriveOutputPaths(req.OutputDir, outcome.Title, "", &subtitle.Format)
	if err != nil {
		return nil, err
	}

	report := d.reconciler.Reconcile(ReconcileInput{
		OutputDir:  req.OutputDir,
		EngineStem: engineStem(outcome),
		Paths:      paths,
		Subtitle:   &subtitle,
		Before:     before,
	})

	d.logger.Info().
		Str("title", outcome.Title).
		Bool("subtitleAvailable", report.SubtitleFile != "").
		Msg("Successfully downloaded subtitle")

	return buildSubtitleResult(report.SubtitleFile), nil
}

// extract validates opts and invokes the engine exactly once. Engine errors are
// returned as *apperrors.ErrExtraction unless they already carry a typed error.
func (d *DefaultDownloader) extract(ctx context.Context, url string, opts engine.Options) (*models.ExtractionOutcome, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	outcome, err := d.engine.Extract(ctx, url, opts)
	if err != nil {
		d.logger.Error().Err(err).Str("url", url).Msg("Extraction failed")
		if errors.Is(err, &apperrors.ErrExtraction{}) ||
			errors.Is(err, &apperrors.ErrSubtitleUnavailable{}) ||
			errors.Is(err, &apperrors.ErrInvalidRequest{}) {
			return nil, err
		}
		return nil, apperrors.NewExtractionError(url, err)
	}
	if outcome == nil || outcome.Title == "" {
		return nil, apperrors.NewExtractionError(url, errors.New("engine returned no title"))
	}
	return outcome, nil
}

// engineStem is the file stem the engine wrote under: the reported filename
// without extension, or the raw title when no filename was reported.
func engineStem(outcome *models.ExtractionOutcome) string {
	if outcome.Filename == "" {
		return outcome.Title
	}
	base := filepath.Base(outcome.Filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
