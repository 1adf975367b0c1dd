package services

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/Belphemur/MediaFetch/internal/apperrors"
	"github.com/Belphemur/MediaFetch/internal/models"
)

const (
	// maxStemBytes keeps "{stem}.{ext}" under the common 255 byte name limit.
	maxStemBytes  = 200
	untitledStem  = "untitled"
	reservedChars = `<>:"|?*`
)

// Device names Windows refuses as file stems.
var reservedStems = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {}, "COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {}, "LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// OutputPaths are the canonical locations of the final artifacts.
// SubtitleFile is empty when no subtitle was requested.
type OutputPaths struct {
	Stem         string
	VideoFile    string
	SubtitleFile string
}

// SanitizeTitle turns an engine-reported title into a single safe path element.
// The same title always yields the same stem.
func SanitizeTitle(title string) string {
	title = norm.NFC.String(title)

	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		switch {
		case r == '/' || r == '\\' || strings.ContainsRune(reservedChars, r):
			b.WriteRune('_')
		case r == utf8.RuneError, unicode.IsControl(r):
			// dropped
		default:
			b.WriteRune(r)
		}
	}

	stem := strings.Trim(b.String(), " .")
	stem = truncateUTF8(stem, maxStemBytes)
	stem = strings.TrimRight(stem, " .")

	if stem == "" {
		return untitledStem
	}
	if _, reserved := reservedStems[strings.ToUpper(stem)]; reserved {
		return stem + "_"
	}
	return stem
}

func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// DeriveOutputPaths computes where the final video and subtitle belong for title.
// subtitleFormat is nil when no subtitle was requested; videoExt is empty for
// subtitle-only downloads.
func DeriveOutputPaths(outputDir, title, videoExt string, subtitleFormat *models.SubtitleFormat) (OutputPaths, error) {
	dir := filepath.Clean(outputDir)
	stem := SanitizeTitle(title)
	paths := OutputPaths{Stem: stem}

	if videoExt != "" {
		paths.VideoFile = filepath.Join(dir, stem+"."+videoExt)
		if err := ensureWithin(dir, paths.VideoFile); err != nil {
			return OutputPaths{}, err
		}
	}
	if subtitleFormat != nil {
		paths.SubtitleFile = filepath.Join(dir, stem+"."+subtitleFormat.Extension())
		if err := ensureWithin(dir, paths.SubtitleFile); err != nil {
			return OutputPaths{}, err
		}
	}
	return paths, nil
}

// ResolveOutputDir places a caller-supplied directory under base. An empty
// request yields base; absolute paths and paths climbing out of base are rejected.
func ResolveOutputDir(base, requested string) (string, error) {
	base = filepath.Clean(base)
	if strings.TrimSpace(requested) == "" {
		return base, nil
	}
	if filepath.IsAbs(requested) || filepath.VolumeName(requested) != "" {
		return "", apperrors.NewInvalidRequestError("output_dir", "must be relative to the download directory")
	}
	dir := filepath.Join(base, requested)
	rel, err := filepath.Rel(base, dir)
	if err != nil || escapes(rel) {
		return "", apperrors.NewInvalidRequestError("output_dir", "escapes the download directory")
	}
	return dir, nil
}

func escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ensureWithin fails when path is not a direct child of dir.
func ensureWithin(dir, path string) error {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel != filepath.Base(path) || escapes(rel) {
		return apperrors.NewInvalidRequestError("title", "derived path "+path+" escapes "+dir)
	}
	return nil
}
