package models

// VideoDownloadResult describes the files produced by a video download.
// SubtitleFile is nil when no subtitle was kept.
type VideoDownloadResult struct {
	VideoFile    string  `json:"video_file"`
	SubtitleFile *string `json:"subtitle_file,omitempty"`
}

// SubtitleDownloadResult describes the outcome of a subtitle-only download.
// SubtitleFile is non-nil exactly when SubtitleAvailable is true.
type SubtitleDownloadResult struct {
	SubtitleAvailable bool    `json:"subtitle_available"`
	SubtitleFile      *string `json:"subtitle_file,omitempty"`
}

// ExtractionOutcome is the part of the engine's metadata record the orchestrator uses
type ExtractionOutcome struct {
	// Title is the human readable title resolved by the engine.
	Title string
	// Filename is the path the engine wrote the main artifact to, when known.
	Filename string
}
