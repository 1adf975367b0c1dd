package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Belphemur/MediaFetch/internal/engine"
	"github.com/Belphemur/MediaFetch/internal/models"
)

// EngineCall records one invocation of FakeEngine.Extract.
type EngineCall struct {
	URL     string
	Options engine.Options
}

// FakeEngine is an engine.Engine that writes canned files into the output directory
// of the options it receives, the way yt-dlp would.
// This is a test helper and should not be used in production code.
type FakeEngine struct {
	// Title is returned in the outcome.
	Title string
	// Files are names relative to the output directory, written with placeholder content.
	Files []string
	// ReportFilename makes the outcome carry the path of the merged video.
	ReportFilename string
	// Err is returned instead of writing anything.
	Err error

	mu    sync.Mutex
	calls []EngineCall
}

// Extract implements engine.Engine.
func (f *FakeEngine) Extract(ctx context.Context, url string, opts engine.Options) (*models.ExtractionOutcome, error) {
	f.mu.Lock()
	f.calls = append(f.calls, EngineCall{URL: url, Options: opts})
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Err != nil {
		return nil, f.Err
	}

	dir := opts.OutputDir()
	for _, name := range f.Files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("data"), 0o644); err != nil {
			return nil, err
		}
	}

	outcome := &models.ExtractionOutcome{Title: f.Title}
	if f.ReportFilename != "" {
		outcome.Filename = filepath.Join(dir, f.ReportFilename)
	}
	return outcome, nil
}

// Calls returns a copy of the recorded invocations.
func (f *FakeEngine) Calls() []EngineCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]EngineCall(nil), f.calls...)
}

// WriteFiles creates empty placeholder files in dir.
func WriteFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("data"), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
}

// ListFiles returns the sorted file names in dir.
func ListFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}
