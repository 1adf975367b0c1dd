package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/Belphemur/MediaFetch/internal/apperrors"
	"github.com/Belphemur/MediaFetch/internal/config"
	"github.com/Belphemur/MediaFetch/internal/models"
	"github.com/Belphemur/MediaFetch/internal/testutil"
)

func newTestDownloader(fake *testutil.FakeEngine, mutate ...func(*Settings)) Downloader {
	settings := DefaultSettings()
	for _, m := range mutate {
		m(&settings)
	}
	return NewDownloader(fake, settings)
}

func TestDownloadVideo_ScenarioA(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	fake := &testutil.FakeEngine{
		Title: "Demo Clip",
		Files: []string{"Demo Clip.mp4", "Demo Clip.f137.mp4", "Demo Clip.webm"},
	}

	result, err := newTestDownloader(fake).DownloadVideo(context.Background(), models.VideoDownloadRequest{
		URL:       "https://www.youtube.com/watch?v=demo",
		OutputDir: dir,
	})
	if err != nil {
		t.Fatalf("DownloadVideo: %v", err)
	}

	if result.VideoFile != filepath.Join(dir, "Demo Clip.mp4") {
		t.Errorf("VideoFile = %q", result.VideoFile)
	}
	if result.SubtitleFile != nil {
		t.Errorf("Expected no subtitle file, got %q", *result.SubtitleFile)
	}
	if got := testutil.ListFiles(t, dir); !slices.Equal(got, []string{"Demo Clip.mp4"}) {
		t.Errorf("Expected only the final video to remain, got %v", got)
	}

	calls := fake.Calls()
	if len(calls) != 1 {
		t.Fatalf("Expected exactly one engine call, got %d", len(calls))
	}
	opts := calls[0].Options
	if opts.FormatExpression != "bestvideo+bestaudio/best" || opts.MergeFormat != "mp4" {
		t.Errorf("Unexpected format options: %+v", opts)
	}
	if !opts.KeepIntermediates || opts.SkipDownload || opts.WriteSubtitles {
		t.Errorf("Unexpected engine flags: %+v", opts)
	}
	if opts.OutputTemplate != filepath.Join(dir, "%(title)s.%(ext)s") {
		t.Errorf("OutputTemplate = %q", opts.OutputTemplate)
	}
}

func TestDownloadVideo_ScenarioB(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	fake := &testutil.FakeEngine{
		Title: "Demo Clip",
		Files: []string{"Demo Clip.mp4", "Demo Clip.f251.webm", "Demo Clip.en.srv3"},
	}

	result, err := newTestDownloader(fake).DownloadVideo(context.Background(), models.VideoDownloadRequest{
		URL:             "https://www.youtube.com/watch?v=demo",
		OutputDir:       dir,
		KeepSubtitle:    true,
		SubtitleOptions: &models.SubtitleOptions{Format: models.SubtitleFormatSRV3, Language: "en"},
	})
	if err != nil {
		t.Fatalf("DownloadVideo: %v", err)
	}

	if result.VideoFile != filepath.Join(dir, "Demo Clip.mp4") {
		t.Errorf("VideoFile = %q", result.VideoFile)
	}
	if result.SubtitleFile == nil || *result.SubtitleFile != filepath.Join(dir, "Demo Clip.srv3") {
		t.Errorf("SubtitleFile = %v", result.SubtitleFile)
	}

	opts := fake.Calls()[0].Options
	if !opts.WriteSubtitles || opts.SubtitleFormat != "srv3" || opts.SubtitleLanguage != "en" {
		t.Errorf("Unexpected subtitle options: %+v", opts)
	}
}

func TestDownloadVideo_KeepSubtitleFalseIgnoresOptions(t *testing.T) {
	t.Parallel()
	options := []*models.SubtitleOptions{
		nil,
		{Format: models.SubtitleFormatSRV3, Language: "en"},
		{Format: "not-a-format", Language: "%%%"},
	}

	for _, opt := range options {
		dir := t.TempDir()
		fake := &testutil.FakeEngine{Title: "Demo Clip", Files: []string{"Demo Clip.mp4", "Demo Clip.en.srv3"}}

		result, err := newTestDownloader(fake).DownloadVideo(context.Background(), models.VideoDownloadRequest{
			URL:             "https://v",
			OutputDir:       dir,
			SubtitleOptions: opt,
		})
		if err != nil {
			t.Fatalf("DownloadVideo(%+v): %v", opt, err)
		}
		if result.SubtitleFile != nil {
			t.Errorf("Expected nil subtitle for options %+v, got %q", opt, *result.SubtitleFile)
		}
		if fake.Calls()[0].Options.WriteSubtitles {
			t.Errorf("Expected no subtitle request for options %+v", opt)
		}
	}
}

func TestDownloadVideo_DefaultSubtitleOptions(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	fake := &testutil.FakeEngine{Title: "Demo Clip", Files: []string{"Demo Clip.mp4", "Demo Clip.en.vtt"}}

	result, err := newTestDownloader(fake).DownloadVideo(context.Background(), models.VideoDownloadRequest{
		URL:          "https://v",
		OutputDir:    dir,
		KeepSubtitle: true,
	})
	if err != nil {
		t.Fatalf("DownloadVideo: %v", err)
	}
	if result.SubtitleFile == nil || *result.SubtitleFile != filepath.Join(dir, "Demo Clip.vtt") {
		t.Errorf("SubtitleFile = %v", result.SubtitleFile)
	}
	if opts := fake.Calls()[0].Options; opts.SubtitleFormat != "vtt" || !opts.SubtitleLanguage.IsBest() {
		t.Errorf("Expected default subtitle options, got %+v", opts)
	}
}

func TestDownloadVideo_MissingSubtitle_FailPolicy(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	fake := &testutil.FakeEngine{Title: "Demo Clip", Files: []string{"Demo Clip.mp4"}}

	_, err := newTestDownloader(fake).DownloadVideo(context.Background(), models.VideoDownloadRequest{
		URL:             "https://v",
		OutputDir:       dir,
		KeepSubtitle:    true,
		SubtitleOptions: &models.SubtitleOptions{Format: models.SubtitleFormatVTT, Language: "en"},
	})
	if !errors.Is(err, &apperrors.ErrSubtitleUnavailable{}) {
		t.Fatalf("Expected *ErrSubtitleUnavailable, got %v", err)
	}
	if got := testutil.ListFiles(t, dir); !slices.Equal(got, []string{"Demo Clip.mp4"}) {
		t.Errorf("Expected the video to stay on disk, got %v", got)
	}
}

func TestDownloadVideo_MissingSubtitle_DegradePolicy(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	fake := &testutil.FakeEngine{Title: "Demo Clip", Files: []string{"Demo Clip.mp4"}}
	d := newTestDownloader(fake, func(s *Settings) { s.MissingSubtitlePolicy = config.MissingSubtitleDegrade })

	result, err := d.DownloadVideo(context.Background(), models.VideoDownloadRequest{
		URL:          "https://v",
		OutputDir:    dir,
		KeepSubtitle: true,
	})
	if err != nil {
		t.Fatalf("DownloadVideo: %v", err)
	}
	if result.SubtitleFile != nil {
		t.Errorf("Expected degraded result without subtitle, got %q", *result.SubtitleFile)
	}
	if result.VideoFile != filepath.Join(dir, "Demo Clip.mp4") {
		t.Errorf("VideoFile = %q", result.VideoFile)
	}
}

func TestDownloadVideo_EngineFailure(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, "Demo Clip.webm")
	cause := errors.New("HTTP Error 403: Forbidden")
	fake := &testutil.FakeEngine{Err: cause}

	result, err := newTestDownloader(fake).DownloadVideo(context.Background(), models.VideoDownloadRequest{
		URL:       "https://v",
		OutputDir: dir,
	})
	if result != nil {
		t.Errorf("Expected no result, got %+v", result)
	}
	if !errors.Is(err, &apperrors.ErrExtraction{}) || !errors.Is(err, cause) {
		t.Fatalf("Expected *ErrExtraction wrapping the cause, got %v", err)
	}
	if got := testutil.ListFiles(t, dir); !slices.Equal(got, []string{"Demo Clip.webm"}) {
		t.Errorf("Expected no cleanup after a failure, got %v", got)
	}
	if len(fake.Calls()) != 1 {
		t.Errorf("Expected no retry, got %d calls", len(fake.Calls()))
	}
}

func TestDownloadVideo_TypedEngineErrorPassesThrough(t *testing.T) {
	t.Parallel()
	engineErr := apperrors.NewExtractionError("https://v", errors.New("Video unavailable"))
	fake := &testutil.FakeEngine{Err: engineErr}

	_, err := newTestDownloader(fake).DownloadVideo(context.Background(), models.VideoDownloadRequest{
		URL:       "https://v",
		OutputDir: t.TempDir(),
	})
	if err != engineErr {
		t.Errorf("Expected the engine error unmodified, got %v", err)
	}
}

func TestDownloadVideo_EngineSuccessButFileAbsent(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	fake := &testutil.FakeEngine{Title: "Demo Clip"}

	result, err := newTestDownloader(fake).DownloadVideo(context.Background(), models.VideoDownloadRequest{
		URL:       "https://v",
		OutputDir: dir,
	})
	if err != nil {
		t.Fatalf("Expected engine success to be trusted, got %v", err)
	}
	if result.VideoFile != filepath.Join(dir, "Demo Clip.mp4") {
		t.Errorf("VideoFile = %q", result.VideoFile)
	}
}

func TestDownloadVideo_ScenarioD_TitleWithSeparator(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	dir := filepath.Join(root, "out")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	fake := &testutil.FakeEngine{
		Title:          "../../Demo/Clip",
		Files:          []string{"..⧸..⧸Demo⧸Clip.mp4"},
		ReportFilename: "..⧸..⧸Demo⧸Clip.mp4",
	}

	result, err := newTestDownloader(fake).DownloadVideo(context.Background(), models.VideoDownloadRequest{
		URL:       "https://v",
		OutputDir: dir,
	})
	if err != nil {
		t.Fatalf("DownloadVideo: %v", err)
	}
	if filepath.Dir(result.VideoFile) != dir {
		t.Errorf("VideoFile %q escaped %q", result.VideoFile, dir)
	}
	if got := testutil.ListFiles(t, dir); !slices.Equal(got, []string{filepath.Base(result.VideoFile)}) {
		t.Errorf("Files = %v, want the canonical video", got)
	}
	if got := testutil.ListFiles(t, root); !slices.Equal(got, []string{"out"}) {
		t.Errorf("Expected nothing written outside the output dir, got %v", got)
	}
}

func TestDownloadVideo_SingleStreamWithoutMerge(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	// The format expression fell back to one "best" stream, so nothing was merged.
	fake := &testutil.FakeEngine{
		Title:          "Demo Clip",
		Files:          []string{"Demo Clip.webm"},
		ReportFilename: "Demo Clip.webm",
	}

	result, err := newTestDownloader(fake).DownloadVideo(context.Background(), models.VideoDownloadRequest{
		URL:       "https://v",
		OutputDir: dir,
	})
	if err != nil {
		t.Fatalf("DownloadVideo: %v", err)
	}
	if result.VideoFile != filepath.Join(dir, "Demo Clip.webm") {
		t.Errorf("VideoFile = %q", result.VideoFile)
	}
	if _, err := os.Stat(result.VideoFile); err != nil {
		t.Errorf("Expected the reported video on disk: %v", err)
	}
	if got := testutil.ListFiles(t, dir); !slices.Equal(got, []string{"Demo Clip.webm"}) {
		t.Errorf("Files = %v", got)
	}
}

func TestDownloadVideo_LeftoverSubtitleDoesNotCount(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, "Demo Clip.vtt")
	fake := &testutil.FakeEngine{Title: "Demo Clip", Files: []string{"Demo Clip.mp4"}}

	_, err := newTestDownloader(fake).DownloadVideo(context.Background(), models.VideoDownloadRequest{
		URL:          "https://v",
		OutputDir:    dir,
		KeepSubtitle: true,
	})
	if !errors.Is(err, &apperrors.ErrSubtitleUnavailable{}) {
		t.Fatalf("Expected *ErrSubtitleUnavailable, got %v", err)
	}
}

func TestDownloadVideo_InvalidRequest(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		req  models.VideoDownloadRequest
	}{
		{"empty url", models.VideoDownloadRequest{OutputDir: "/o"}},
		{"empty output dir", models.VideoDownloadRequest{URL: "https://v"}},
		{"unknown subtitle format", models.VideoDownloadRequest{
			URL: "https://v", OutputDir: "/o", KeepSubtitle: true,
			SubtitleOptions: &models.SubtitleOptions{Format: "sami"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fake := &testutil.FakeEngine{Title: "x"}
			_, err := newTestDownloader(fake).DownloadVideo(context.Background(), tt.req)
			if !errors.Is(err, &apperrors.ErrInvalidRequest{}) {
				t.Errorf("Expected *ErrInvalidRequest, got %v", err)
			}
			if len(fake.Calls()) != 0 {
				t.Error("Expected the engine not to be invoked")
			}
		})
	}
}

func TestDownloadSubtitle_Available(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	fake := &testutil.FakeEngine{Title: "Demo Clip", Files: []string{"Demo Clip.en.vtt"}}

	result, err := newTestDownloader(fake).DownloadSubtitle(context.Background(), models.SubtitleDownloadRequest{
		URL:       "https://v",
		OutputDir: dir,
	})
	if err != nil {
		t.Fatalf("DownloadSubtitle: %v", err)
	}
	if !result.SubtitleAvailable || result.SubtitleFile == nil {
		t.Fatalf("Expected an available subtitle, got %+v", result)
	}
	if *result.SubtitleFile != filepath.Join(dir, "Demo Clip.vtt") {
		t.Errorf("SubtitleFile = %q", *result.SubtitleFile)
	}

	opts := fake.Calls()[0].Options
	if !opts.SkipDownload || !opts.WriteSubtitles {
		t.Errorf("Expected a subtitle-only engine run, got %+v", opts)
	}
	if opts.FormatExpression != "" || opts.MergeFormat != "" {
		t.Errorf("Expected no payload options, got %+v", opts)
	}
}

func TestDownloadSubtitle_ScenarioC(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	// Only a Japanese track exists; the engine writes nothing for "en".
	fake := &testutil.FakeEngine{Title: "Demo Clip"}

	result, err := newTestDownloader(fake).DownloadSubtitle(context.Background(), models.SubtitleDownloadRequest{
		URL:             "https://v",
		OutputDir:       dir,
		SubtitleOptions: &models.SubtitleOptions{Format: models.SubtitleFormatVTT, Language: "en"},
	})
	if err != nil {
		t.Fatalf("DownloadSubtitle: %v", err)
	}
	if result.SubtitleAvailable || result.SubtitleFile != nil {
		t.Errorf("Expected no subtitle, got %+v", result)
	}
	if got := testutil.ListFiles(t, dir); len(got) != 0 {
		t.Errorf("Expected no files written, got %v", got)
	}
}

func TestDownloadSubtitle_OnlyOtherLanguageWritten(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	fake := &testutil.FakeEngine{Title: "Demo Clip", Files: []string{"Demo Clip.de.vtt"}}

	result, err := newTestDownloader(fake).DownloadSubtitle(context.Background(), models.SubtitleDownloadRequest{
		URL:             "https://v",
		OutputDir:       dir,
		SubtitleOptions: &models.SubtitleOptions{Format: models.SubtitleFormatVTT, Language: "en"},
	})
	if err != nil {
		t.Fatalf("DownloadSubtitle: %v", err)
	}
	if result.SubtitleAvailable || result.SubtitleFile != nil {
		t.Errorf("Expected no en subtitle, got %+v", result)
	}
}

func TestDownloadSubtitle_LeftoverCanonicalFile(t *testing.T) {
	t.Parallel()
	for _, language := range []models.SubtitleLanguage{"fr", models.SubtitleLanguageBest} {
		dir := t.TempDir()
		testutil.WriteFiles(t, dir, "Demo Clip.vtt")
		fake := &testutil.FakeEngine{Title: "Demo Clip"}

		result, err := newTestDownloader(fake).DownloadSubtitle(context.Background(), models.SubtitleDownloadRequest{
			URL:             "https://v",
			OutputDir:       dir,
			SubtitleOptions: &models.SubtitleOptions{Format: models.SubtitleFormatVTT, Language: language},
		})
		if err != nil {
			t.Fatalf("DownloadSubtitle(%s): %v", language, err)
		}
		if result.SubtitleAvailable || result.SubtitleFile != nil {
			t.Errorf("Expected the leftover file not to count for %s, got %+v", language, result)
		}
	}
}

func TestDownloadSubtitle_EngineReportsMissingTrack(t *testing.T) {
	t.Parallel()
	fake := &testutil.FakeEngine{
		Err: apperrors.NewExtractionError("https://v", apperrors.NewSubtitleUnavailableError("https://v", "en", "vtt")),
	}

	result, err := newTestDownloader(fake).DownloadSubtitle(context.Background(), models.SubtitleDownloadRequest{
		URL:       "https://v",
		OutputDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Expected a missing track not to be an error, got %v", err)
	}
	if result.SubtitleAvailable || result.SubtitleFile != nil {
		t.Errorf("Expected no subtitle, got %+v", result)
	}
}

func TestDownloadSubtitle_EngineFailure(t *testing.T) {
	t.Parallel()
	fake := &testutil.FakeEngine{Err: errors.New("Unsupported URL")}

	_, err := newTestDownloader(fake).DownloadSubtitle(context.Background(), models.SubtitleDownloadRequest{
		URL:       "https://v",
		OutputDir: t.TempDir(),
	})
	if !errors.Is(err, &apperrors.ErrExtraction{}) {
		t.Errorf("Expected *ErrExtraction, got %v", err)
	}
}

func TestDownloadSubtitle_AvailabilityInvariant(t *testing.T) {
	t.Parallel()
	cases := map[string]*testutil.FakeEngine{
		"track written":     {Title: "T", Files: []string{"T.en.vtt"}},
		"already canonical": {Title: "T", Files: []string{"T.vtt"}},
		"no track":          {Title: "T"},
		"other format":      {Title: "T", Files: []string{"T.en.ttml"}},
		"engine says none":  {Err: apperrors.NewSubtitleUnavailableError("u", "best", "vtt")},
	}
	for name, fake := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			result, err := newTestDownloader(fake).DownloadSubtitle(context.Background(), models.SubtitleDownloadRequest{
				URL:       "u",
				OutputDir: t.TempDir(),
			})
			if err != nil {
				t.Fatalf("DownloadSubtitle: %v", err)
			}
			if result.SubtitleAvailable != (result.SubtitleFile != nil) {
				t.Errorf("Invariant broken: %+v", result)
			}
		})
	}
}

func TestDownloadVideo_Canceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fake := &testutil.FakeEngine{Title: "Demo Clip"}

	_, err := newTestDownloader(fake).DownloadVideo(ctx, models.VideoDownloadRequest{URL: "u", OutputDir: t.TempDir()})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestEngineStem(t *testing.T) {
	t.Parallel()
	if got := engineStem(&models.ExtractionOutcome{Title: "A", Filename: "/o/B.mp4"}); got != "B" {
		t.Errorf("engineStem() = %q, want B", got)
	}
	if got := engineStem(&models.ExtractionOutcome{Title: "A"}); got != "A" {
		t.Errorf("engineStem() = %q, want A", got)
	}
}
