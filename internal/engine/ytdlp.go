package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lrstanley/go-ytdlp"
	"github.com/rs/zerolog"

	"github.com/Belphemur/MediaFetch/internal/apperrors"
	"github.com/Belphemur/MediaFetch/internal/config"
	"github.com/Belphemur/MediaFetch/internal/models"
)

// subtitleMissingMarkers are stderr fragments yt-dlp prints when a requested
// track does not exist. Failures fetching an existing track ("Unable to
// download video subtitles") are transport errors and stay extraction failures.
var subtitleMissingMarkers = []string{
	"there are no subtitles for the requested languages",
	"has no subtitles",
}

// ytdlpEngine drives the yt-dlp executable through go-ytdlp.
type ytdlpEngine struct {
	binary string
	logger zerolog.Logger
}

// NewYtdlpEngine creates an Engine backed by yt-dlp. An empty binary resolves yt-dlp from PATH.
func NewYtdlpEngine(binary string) Engine {
	return &ytdlpEngine{
		binary: binary,
		logger: config.GetLogger().With().Str("component", "ytdlp").Logger(),
	}
}

func (e *ytdlpEngine) command(opts Options) *ytdlp.Command {
	// Overwriting lets the reconciler tell this run's files from leftovers by mtime.
	cmd := ytdlp.New().
		PrintJSON().
		NoProgress().
		ForceOverwrites().
		Output(opts.OutputTemplate)

	if e.binary != "" {
		cmd.SetExecutable(e.binary)
	}
	if opts.FormatExpression != "" {
		cmd.Format(opts.FormatExpression)
	}
	if opts.WriteSubtitles {
		cmd.WriteSubs().SubFormat(opts.SubtitleFormat)
		if !opts.SubtitleLanguage.IsBest() {
			cmd.SubLangs(string(opts.SubtitleLanguage))
		}
	}
	if opts.MergeFormat != "" {
		cmd.MergeOutputFormat(opts.MergeFormat)
	}
	if opts.KeepIntermediates {
		cmd.KeepVideo()
	}
	if opts.SkipDownload {
		cmd.SkipDownload()
	}
	if opts.RestrictFilenames {
		cmd.RestrictFilenames()
	}
	return cmd
}

// Extract runs yt-dlp once for url and returns the resolved title and output filename.
func (e *ytdlpEngine) Extract(ctx context.Context, url string, opts Options) (*models.ExtractionOutcome, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	e.logger.Debug().
		Str("url", url).
		Str("template", opts.OutputTemplate).
		Bool("write_subtitles", opts.WriteSubtitles).
		Bool("skip_download", opts.SkipDownload).
		Msg("Running extraction")

	result, err := e.command(opts).Run(ctx, url)
	if err != nil {
		stderr := ""
		if result != nil {
			stderr = result.Stderr
		}
		return nil, classifyFailure(url, opts, stderr, err)
	}

	infos, err := result.GetExtractedInfo()
	if err != nil {
		return nil, apperrors.NewExtractionError(url, fmt.Errorf("failed to parse engine output: %w", err))
	}
	return outcomeFromInfo(url, infos)
}

func outcomeFromInfo(url string, infos []*ytdlp.ExtractedInfo) (*models.ExtractionOutcome, error) {
	if len(infos) == 0 || infos[0] == nil {
		return nil, apperrors.NewExtractionError(url, errors.New("engine returned no metadata"))
	}
	info := infos[0]
	if info.Title == nil || *info.Title == "" {
		return nil, apperrors.NewExtractionError(url, errors.New("engine metadata has no title"))
	}

	outcome := &models.ExtractionOutcome{Title: *info.Title}
	if info.Filename != nil {
		outcome.Filename = *info.Filename
	}
	return outcome, nil
}

// classifyFailure turns a failed yt-dlp run into the orchestrator's error taxonomy.
func classifyFailure(url string, opts Options, stderr string, runErr error) error {
	if ctxErr := contextError(runErr); ctxErr != nil {
		return apperrors.NewExtractionError(url, ctxErr)
	}

	lower := strings.ToLower(stderr)
	if opts.WriteSubtitles {
		for _, marker := range subtitleMissingMarkers {
			if strings.Contains(lower, marker) {
				language := string(opts.SubtitleLanguage)
				if opts.SubtitleLanguage.IsBest() {
					language = string(models.SubtitleLanguageBest)
				}
				return apperrors.NewSubtitleUnavailableError(url, language, opts.SubtitleFormat)
			}
		}
	}

	if line := lastErrorLine(stderr); line != "" {
		return apperrors.NewExtractionError(url, fmt.Errorf("%s: %w", line, runErr))
	}
	return apperrors.NewExtractionError(url, runErr)
}

func contextError(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return context.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return context.DeadlineExceeded
	}
	return nil
}

// lastErrorLine returns the last "ERROR:" line yt-dlp printed, without the prefix.
func lastErrorLine(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if rest, ok := strings.CutPrefix(line, "ERROR:"); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}
