package services

import "github.com/Belphemur/MediaFetch/internal/models"

// buildVideoResult assembles the video result; subtitleFile is empty when none is reported.
func buildVideoResult(videoFile, subtitleFile string) *models.VideoDownloadResult {
	result := &models.VideoDownloadResult{VideoFile: videoFile}
	if subtitleFile != "" {
		result.SubtitleFile = &subtitleFile
	}
	return result
}

// buildSubtitleResult keeps SubtitleAvailable and SubtitleFile in agreement.
func buildSubtitleResult(subtitleFile string) *models.SubtitleDownloadResult {
	if subtitleFile == "" {
		return &models.SubtitleDownloadResult{SubtitleAvailable: false}
	}
	return &models.SubtitleDownloadResult{
		SubtitleAvailable: true,
		SubtitleFile:      &subtitleFile,
	}
}
