package models

import (
	"strings"

	"golang.org/x/text/language"
)

// SubtitleFormat is the caption container requested from the extraction engine
type SubtitleFormat string

const (
	SubtitleFormatJSON3 SubtitleFormat = "json3"
	SubtitleFormatSRV1  SubtitleFormat = "srv1"
	SubtitleFormatSRV2  SubtitleFormat = "srv2"
	SubtitleFormatSRV3  SubtitleFormat = "srv3"
	SubtitleFormatTTML  SubtitleFormat = "ttml"
	SubtitleFormatVTT   SubtitleFormat = "vtt"
)

// KnownSubtitleFormats lists every format the engine is allowed to write.
var KnownSubtitleFormats = []SubtitleFormat{
	SubtitleFormatJSON3,
	SubtitleFormatSRV1,
	SubtitleFormatSRV2,
	SubtitleFormatSRV3,
	SubtitleFormatTTML,
	SubtitleFormatVTT,
}

// Valid reports whether f is one of the known subtitle formats
func (f SubtitleFormat) Valid() bool {
	for _, known := range KnownSubtitleFormats {
		if f == known {
			return true
		}
	}
	return false
}

// Extension returns the file extension (without the dot) used for this format
func (f SubtitleFormat) Extension() string {
	return string(f)
}

// ParseSubtitleFormat converts a user supplied string to a SubtitleFormat.
// The second return value is false when the format is unknown.
func ParseSubtitleFormat(s string) (SubtitleFormat, bool) {
	f := SubtitleFormat(strings.ToLower(strings.TrimSpace(s)))
	return f, f.Valid()
}

// SubtitleLanguage is a BCP 47-ish language tag, or "best" to let the engine choose
type SubtitleLanguage string

// SubtitleLanguageBest lets the engine pick whichever track it considers best.
const SubtitleLanguageBest SubtitleLanguage = "best"

// KnownSubtitleLanguages are the tags offered to users as suggestions.
// Any valid language tag is accepted.
var KnownSubtitleLanguages = []SubtitleLanguage{
	"fr-FR", // French
	"ko",    // Korean
	"en",    // English
	"es",    // Spanish
	"de",    // German
	"ja",    // Japanese
	"zh-CN", // Simplified Chinese
	"zh-TW", // Traditional Chinese
	"ru",    // Russian
	"pt",    // Portuguese
	"it",    // Italian
	"hi",    // Hindi
}

// IsBest reports whether the engine is free to choose the language
func (l SubtitleLanguage) IsBest() bool {
	return l == "" || strings.EqualFold(string(l), string(SubtitleLanguageBest))
}

// Valid reports whether l is "best" or a well-formed language tag
func (l SubtitleLanguage) Valid() bool {
	if l.IsBest() {
		return true
	}
	_, err := language.Parse(string(l))
	return err == nil
}

// SubtitleOptions selects the subtitle container and language.
// It is a value type: copies never share state.
type SubtitleOptions struct {
	Format   SubtitleFormat   `json:"format"`
	Language SubtitleLanguage `json:"language"`
}

// DefaultSubtitleOptions returns the options used when a request carries none
func DefaultSubtitleOptions() SubtitleOptions {
	return SubtitleOptions{
		Format:   SubtitleFormatVTT,
		Language: SubtitleLanguageBest,
	}
}
