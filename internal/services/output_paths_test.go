package services

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Belphemur/MediaFetch/internal/apperrors"
	"github.com/Belphemur/MediaFetch/internal/models"
)

func TestSanitizeTitle(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"plain title is kept", "Demo Clip", "Demo Clip"},
		{"unicode is kept", "Démo – Clip 日本", "Démo – Clip 日本"},
		{"slash replaced", "AC/DC Live", "AC_DC Live"},
		{"backslash replaced", `a\b`, "a_b"},
		{"reserved characters replaced", `What? "Yes": <no>|*`, "What_ _Yes__ _no___"},
		{"control characters dropped", "line\nbreak\ttab", "linebreaktab"},
		{"traversal neutralized", "../../etc/passwd", "_.._etc_passwd"},
		{"leading and trailing dots trimmed", "..hidden..", "hidden"},
		{"empty becomes untitled", "", "untitled"},
		{"only dots becomes untitled", "...", "untitled"},
		{"reserved device name", "con", "con_"},
		{"decomposed accent normalized", "Cafe\u0301", "Caf\u00e9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeTitle(tt.title); got != tt.want {
				t.Errorf("SanitizeTitle(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestSanitizeTitle_LongTitleKeepsRunes(t *testing.T) {
	t.Parallel()
	title := strings.Repeat("é", 300)
	got := SanitizeTitle(title)
	if len(got) > maxStemBytes {
		t.Errorf("Expected at most %d bytes, got %d", maxStemBytes, len(got))
	}
	if strings.ContainsRune(got, '\uFFFD') || !strings.HasPrefix(title, got) {
		t.Errorf("Expected truncation on a rune boundary, got %q", got)
	}
}

func TestDeriveOutputPaths_ScenarioA(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	paths, err := DeriveOutputPaths(dir, "Demo Clip", "mp4", nil)
	if err != nil {
		t.Fatalf("DeriveOutputPaths: %v", err)
	}
	if paths.VideoFile != filepath.Join(dir, "Demo Clip.mp4") {
		t.Errorf("VideoFile = %q", paths.VideoFile)
	}
	if paths.SubtitleFile != "" {
		t.Errorf("Expected no subtitle path, got %q", paths.SubtitleFile)
	}
}

func TestDeriveOutputPaths_WithSubtitle(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	format := models.SubtitleFormatSRV3

	paths, err := DeriveOutputPaths(dir, "Demo Clip", "mp4", &format)
	if err != nil {
		t.Fatalf("DeriveOutputPaths: %v", err)
	}
	if paths.SubtitleFile != filepath.Join(dir, "Demo Clip.srv3") {
		t.Errorf("SubtitleFile = %q", paths.SubtitleFile)
	}
}

func TestDeriveOutputPaths_SubtitleOnly(t *testing.T) {
	t.Parallel()
	format := models.SubtitleFormatVTT
	paths, err := DeriveOutputPaths("/out", "Demo Clip", "", &format)
	if err != nil {
		t.Fatalf("DeriveOutputPaths: %v", err)
	}
	if paths.VideoFile != "" {
		t.Errorf("Expected no video path, got %q", paths.VideoFile)
	}
	if paths.SubtitleFile != filepath.Join("/out", "Demo Clip.vtt") {
		t.Errorf("SubtitleFile = %q", paths.SubtitleFile)
	}
}

func TestDeriveOutputPaths_Deterministic(t *testing.T) {
	t.Parallel()
	format := models.SubtitleFormatJSON3
	first, err := DeriveOutputPaths("/out/videos", "Same: Title / Part 2", "mp4", &format)
	if err != nil {
		t.Fatalf("DeriveOutputPaths: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := DeriveOutputPaths("/out/videos", "Same: Title / Part 2", "mp4", &format)
		if err != nil {
			t.Fatalf("DeriveOutputPaths: %v", err)
		}
		if again != first {
			t.Fatalf("Expected identical paths, got %+v and %+v", first, again)
		}
	}
}

func TestDeriveOutputPaths_StaysInsideOutputDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	format := models.SubtitleFormatVTT

	for _, title := range []string{"../escape", "../../../../etc/passwd", "/absolute/path", `..\windows`, ".."} {
		paths, err := DeriveOutputPaths(dir, title, "mp4", &format)
		if err != nil {
			t.Fatalf("DeriveOutputPaths(%q): %v", title, err)
		}
		for _, p := range []string{paths.VideoFile, paths.SubtitleFile} {
			if filepath.Dir(p) != filepath.Clean(dir) {
				t.Errorf("Title %q produced %q outside %q", title, p, dir)
			}
		}
	}
}

func TestEnsureWithin(t *testing.T) {
	t.Parallel()
	if err := ensureWithin("/out", "/out/a.mp4"); err != nil {
		t.Errorf("Expected direct child to be accepted, got %v", err)
	}
	for _, p := range []string{"/a.mp4", "/out/sub/a.mp4", "/other/a.mp4"} {
		err := ensureWithin("/out", p)
		if !errors.Is(err, &apperrors.ErrInvalidRequest{}) {
			t.Errorf("ensureWithin(%q) = %v, want *ErrInvalidRequest", p, err)
		}
	}
}

func TestResolveOutputDir(t *testing.T) {
	t.Parallel()
	tests := []struct {
		requested string
		want      string
	}{
		{"", "/downloads"},
		{"  ", "/downloads"},
		{"shows", "/downloads/shows"},
		{"shows/season 1/", "/downloads/shows/season 1"},
		{"shows/../films", "/downloads/films"},
		{".", "/downloads"},
	}
	for _, tt := range tests {
		got, err := ResolveOutputDir("/downloads/", tt.requested)
		if err != nil {
			t.Errorf("ResolveOutputDir(%q) unexpected error: %v", tt.requested, err)
			continue
		}
		if got != filepath.FromSlash(tt.want) {
			t.Errorf("ResolveOutputDir(%q) = %q, want %q", tt.requested, got, tt.want)
		}
	}

	for _, requested := range []string{"/etc", "..", "../downloads-other", "shows/../../x"} {
		_, err := ResolveOutputDir("/downloads", requested)
		var invalid *apperrors.ErrInvalidRequest
		if !errors.As(err, &invalid) || invalid.Field != "output_dir" {
			t.Errorf("ResolveOutputDir(%q) = %v, want invalid output_dir", requested, err)
		}
	}
}
