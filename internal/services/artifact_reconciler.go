package services

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Belphemur/MediaFetch/internal/apperrors"
	"github.com/Belphemur/MediaFetch/internal/config"
	"github.com/Belphemur/MediaFetch/internal/metrics"
	"github.com/Belphemur/MediaFetch/internal/models"
)

// ReconcileInput describes what the engine produced and where it has to end up.
type ReconcileInput struct {
	OutputDir string
	// EngineStem is the file stem the engine wrote under; it may differ from Paths.Stem.
	EngineStem string
	// EngineFile is the final file the engine reported, empty when unknown.
	EngineFile string
	Paths      OutputPaths
	// VideoExt is the merge container extension; empty for subtitle-only downloads.
	VideoExt string
	// Subtitle is nil when no subtitle was requested.
	Subtitle *models.SubtitleOptions
	// Before lists the directory as it was before the engine ran.
	Before DirSnapshot
}

// ReconcileReport is what the reconciler found after tidying the directory.
type ReconcileReport struct {
	Removed []string
	// VideoFile is the canonical video path. Its extension is the container
	// the engine actually produced, which differs from VideoExt when no merge happened.
	VideoFile    string
	VideoPresent bool
	// SubtitleFile is the canonical subtitle path, empty when this run wrote no subtitle.
	SubtitleFile string
}

// ArtifactReconciler moves engine outputs to their canonical paths and removes
// the intermediate files a merge leaves behind. It never fails: problems are logged.
type ArtifactReconciler struct {
	intermediateExts []string
	logger           zerolog.Logger
}

// NewArtifactReconciler creates a reconciler that treats the given container
// extensions as possible intermediates.
func NewArtifactReconciler(intermediateExts []string) *ArtifactReconciler {
	exts := make([]string, 0, len(intermediateExts))
	for _, ext := range intermediateExts {
		ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
		if ext != "" {
			exts = append(exts, ext)
		}
	}
	return &ArtifactReconciler{
		intermediateExts: exts,
		logger:           config.GetLogger().With().Str("component", "reconciler").Logger(),
	}
}

// Reconcile is idempotent: running it again on the resulting directory changes nothing.
func (r *ArtifactReconciler) Reconcile(in ReconcileInput) ReconcileReport {
	var report ReconcileReport
	engineStem := in.EngineStem
	if engineStem == "" {
		engineStem = in.Paths.Stem
	}

	// Engine outputs that could not be moved must survive the cleanup below.
	keep := make(map[string]struct{})
	merged := false

	if in.Paths.VideoFile != "" {
		report.VideoFile = in.Paths.VideoFile
		if src := r.findVideo(in, engineStem); src != "" {
			dst := withExt(in.Paths.VideoFile, in.VideoExt, fileExt(src))
			keep[filepath.Clean(src)] = struct{}{}
			keep[filepath.Clean(dst)] = struct{}{}
			r.place(src, dst)
			report.VideoFile = dst
		}
		keep[filepath.Clean(report.VideoFile)] = struct{}{}
		report.VideoPresent = fileExists(report.VideoFile)
		merged = report.VideoPresent && fileExt(report.VideoFile) == in.VideoExt
		if !report.VideoPresent {
			r.logger.Warn().
				Str("expected", report.VideoFile).
				Msg("Engine reported success but the final video is missing")
		}
	}

	if in.Subtitle != nil && in.Paths.SubtitleFile != "" {
		keep[filepath.Clean(in.Paths.SubtitleFile)] = struct{}{}
		if src := r.findSubtitle(in.OutputDir, engineStem, *in.Subtitle, in.Before); src != "" {
			keep[filepath.Clean(src)] = struct{}{}
			if r.place(src, in.Paths.SubtitleFile) {
				report.SubtitleFile = in.Paths.SubtitleFile
			}
		}
	}

	// Intermediates only exist when a payload was downloaded.
	if in.Paths.VideoFile != "" {
		stems := []string{engineStem}
		if in.Paths.Stem != engineStem {
			stems = append(stems, in.Paths.Stem)
		}
		report.Removed = r.removeIntermediates(in.OutputDir, stems, keep, merged)
	}

	return report
}

// findVideo locates the engine's final video: the file it reported, the
// merged container, a single stream that was never merged, or an already
// canonical file, in that order.
func (r *ArtifactReconciler) findVideo(in ReconcileInput, engineStem string) string {
	candidates := make([]string, 0, len(r.intermediateExts)+3)
	if in.EngineFile != "" {
		candidates = append(candidates, filepath.Join(in.OutputDir, filepath.Base(in.EngineFile)))
	}
	candidates = append(candidates, filepath.Join(in.OutputDir, filepath.Base(engineStem+"."+in.VideoExt)))
	for _, ext := range r.intermediateExts {
		candidates = append(candidates, filepath.Join(in.OutputDir, filepath.Base(engineStem+"."+ext)))
	}
	candidates = append(candidates, in.Paths.VideoFile)

	for _, candidate := range candidates {
		if fileExists(candidate) {
			return candidate
		}
	}
	return ""
}

// intermediatePattern matches pre-merge streams ("t.f137.mp4"), bare containers
// ("t.webm"), temp files ("t.temp.mp4") and partial downloads ("t.f251.webm.part").
func (r *ArtifactReconciler) intermediatePattern(stem string) *regexp.Regexp {
	exts := make([]string, len(r.intermediateExts))
	for i, ext := range r.intermediateExts {
		exts[i] = regexp.QuoteMeta(ext)
	}
	return regexp.MustCompile(`^` + regexp.QuoteMeta(stem) +
		`(\.f[0-9]+(-[0-9]+)?)?(\.temp)?\.(` + strings.Join(exts, "|") + `)(\.part|\.ytdl)?$`)
}

// removeIntermediates deletes files matching the intermediate pattern. A bare
// "{stem}.{container}" is only superseded when a merge produced the final video.
func (r *ArtifactReconciler) removeIntermediates(dir string, stems []string, keep map[string]struct{}, merged bool) []string {
	if len(r.intermediateExts) == 0 {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		r.logger.Warn().Err(err).Str("dir", dir).Msg("Failed to list output directory for cleanup")
		return nil
	}

	patterns := make([]*regexp.Regexp, len(stems))
	bare := make(map[string]struct{})
	for i, stem := range stems {
		patterns[i] = r.intermediatePattern(stem)
		for _, ext := range r.intermediateExts {
			bare[stem+"."+ext] = struct{}{}
		}
	}

	var removed []string
	for _, entry := range entries {
		if entry.IsDir() || !matchesAny(patterns, entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if _, kept := keep[filepath.Clean(path)]; kept {
			continue
		}
		if _, isBare := bare[entry.Name()]; isBare && !merged {
			continue
		}
		if err := os.Remove(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			r.cleanupFailed(&apperrors.ErrCleanup{Path: path, Cause: err})
			continue
		}
		metrics.ArtifactCleanupTotal.WithLabelValues("removed").Inc()
		r.logger.Debug().Str("path", path).Msg("Removed intermediate file")
		removed = append(removed, path)
	}
	return removed
}

// findSubtitle locates the subtitle this run wrote, which yt-dlp names
// "{stem}.{lang}.{ext}". A specific language only matches its own track;
// "best" takes any track in name order, then a canonical "{stem}.{ext}".
// Files left over from earlier downloads are ignored.
func (r *ArtifactReconciler) findSubtitle(dir, stem string, opts models.SubtitleOptions, before DirSnapshot) string {
	ext := opts.Format.Extension()
	if !opts.Language.IsBest() {
		track := filepath.Join(dir, filepath.Base(stem+"."+string(opts.Language)+"."+ext))
		if before.Written(track) {
			return track
		}
		return ""
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		r.logger.Warn().Err(err).Str("dir", dir).Msg("Failed to list output directory for subtitles")
		return ""
	}
	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(stem) + `\.[A-Za-z0-9_-]+\.` + regexp.QuoteMeta(ext) + `$`)
	var candidates []string
	for _, entry := range entries {
		if !entry.IsDir() && pattern.MatchString(entry.Name()) && before.Written(filepath.Join(dir, entry.Name())) {
			candidates = append(candidates, entry.Name())
		}
	}
	if len(candidates) > 0 {
		sort.Strings(candidates)
		return filepath.Join(dir, candidates[0])
	}

	canonical := filepath.Join(dir, filepath.Base(stem+"."+ext))
	if before.Written(canonical) {
		return canonical
	}
	return ""
}

// place moves src to dst unless they are the same file. It reports whether
// dst holds src's content afterwards.
func (r *ArtifactReconciler) place(src, dst string) bool {
	if filepath.Clean(src) == filepath.Clean(dst) {
		return fileExists(dst)
	}
	if !fileExists(src) {
		return false
	}
	if err := os.Rename(src, dst); err != nil {
		r.cleanupFailed(&apperrors.ErrCleanup{Path: src, Cause: err})
		return false
	}
	metrics.ArtifactCleanupTotal.WithLabelValues("moved").Inc()
	r.logger.Debug().Str("from", src).Str("to", dst).Msg("Moved artifact to canonical path")
	return true
}

func (r *ArtifactReconciler) cleanupFailed(err *apperrors.ErrCleanup) {
	metrics.ArtifactCleanupTotal.WithLabelValues("failed").Inc()
	r.logger.Warn().Err(err).Str("path", err.Path).Msg("Artifact cleanup failed")
}

func matchesAny(patterns []*regexp.Regexp, name string) bool {
	for _, p := range patterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// fileExt returns the lower-cased extension of path without the dot.
func fileExt(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// withExt swaps the ext suffix of path for newExt.
func withExt(path, ext, newExt string) string {
	if newExt == "" || newExt == ext {
		return path
	}
	return strings.TrimSuffix(path, "."+ext) + "." + newExt
}
