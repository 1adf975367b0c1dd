package grpc

import (
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Belphemur/MediaFetch/internal/apperrors"
	"github.com/Belphemur/MediaFetch/internal/models"
	"github.com/Belphemur/MediaFetch/internal/services"
)

// Request documents:
//
//	video:    {"url", "output_dir", "keep_subtitle", "subtitle_options": {"format", "language"}}
//	subtitle: {"url", "output_dir", "subtitle_options": {"format", "language"}}
//	job:      {"id"}
//
// output_dir is relative to the server's configured directory and defaults to it.

func stringField(s *structpb.Struct, name string) (string, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return "", nil
	}
	switch v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return v.GetStringValue(), nil
	case *structpb.Value_NullValue:
		return "", nil
	}
	return "", apperrors.NewInvalidRequestError(name, "must be a string")
}

func boolField(s *structpb.Struct, name string) (bool, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return false, nil
	}
	switch v.GetKind().(type) {
	case *structpb.Value_BoolValue:
		return v.GetBoolValue(), nil
	case *structpb.Value_NullValue:
		return false, nil
	}
	return false, apperrors.NewInvalidRequestError(name, "must be a boolean")
}

func subtitleOptionsField(s *structpb.Struct) (*models.SubtitleOptions, error) {
	v, ok := s.GetFields()["subtitle_options"]
	if !ok {
		return nil, nil
	}
	switch v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return nil, nil
	case *structpb.Value_StructValue:
	default:
		return nil, apperrors.NewInvalidRequestError("subtitle_options", "must be an object")
	}

	inner := v.GetStructValue()
	format, err := stringField(inner, "format")
	if err != nil {
		return nil, apperrors.NewInvalidRequestError("subtitle_options.format", "must be a string")
	}
	language, err := stringField(inner, "language")
	if err != nil {
		return nil, apperrors.NewInvalidRequestError("subtitle_options.language", "must be a string")
	}
	return &models.SubtitleOptions{
		Format:   models.SubtitleFormat(format),
		Language: models.SubtitleLanguage(language),
	}, nil
}

func targetFields(s *structpb.Struct, defaultOutputDir string) (url, outputDir string, err error) {
	if url, err = stringField(s, "url"); err != nil {
		return "", "", err
	}
	if outputDir, err = stringField(s, "output_dir"); err != nil {
		return "", "", err
	}
	if outputDir, err = services.ResolveOutputDir(defaultOutputDir, outputDir); err != nil {
		return "", "", err
	}
	return url, outputDir, nil
}

func videoRequestFromStruct(s *structpb.Struct, defaultOutputDir string) (models.VideoDownloadRequest, error) {
	url, outputDir, err := targetFields(s, defaultOutputDir)
	if err != nil {
		return models.VideoDownloadRequest{}, err
	}
	keep, err := boolField(s, "keep_subtitle")
	if err != nil {
		return models.VideoDownloadRequest{}, err
	}
	opts, err := subtitleOptionsField(s)
	if err != nil {
		return models.VideoDownloadRequest{}, err
	}
	return models.VideoDownloadRequest{
		URL:             url,
		OutputDir:       outputDir,
		KeepSubtitle:    keep,
		SubtitleOptions: opts,
	}, nil
}

func subtitleRequestFromStruct(s *structpb.Struct, defaultOutputDir string) (models.SubtitleDownloadRequest, error) {
	url, outputDir, err := targetFields(s, defaultOutputDir)
	if err != nil {
		return models.SubtitleDownloadRequest{}, err
	}
	opts, err := subtitleOptionsField(s)
	if err != nil {
		return models.SubtitleDownloadRequest{}, err
	}
	return models.SubtitleDownloadRequest{
		URL:             url,
		OutputDir:       outputDir,
		SubtitleOptions: opts,
	}, nil
}

func optionalString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func videoResultMap(r *models.VideoDownloadResult) map[string]any {
	return map[string]any{
		"video_file":    r.VideoFile,
		"subtitle_file": optionalString(r.SubtitleFile),
	}
}

func subtitleResultMap(r *models.SubtitleDownloadResult) map[string]any {
	return map[string]any{
		"subtitle_available": r.SubtitleAvailable,
		"subtitle_file":      optionalString(r.SubtitleFile),
	}
}

// timestampValue leaves unset times out instead of sending year 0001.
func timestampValue(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func convertVideoResultToStruct(r *models.VideoDownloadResult) (*structpb.Struct, error) {
	return structpb.NewStruct(videoResultMap(r))
}

func convertSubtitleResultToStruct(r *models.SubtitleDownloadResult) (*structpb.Struct, error) {
	return structpb.NewStruct(subtitleResultMap(r))
}

func convertJobToStruct(job *models.Job) (*structpb.Struct, error) {
	m := map[string]any{
		"id":          job.ID,
		"kind":        string(job.Kind),
		"url":         job.URL,
		"output_dir":  job.OutputDir,
		"status":      string(job.Status),
		"created_at":  timestampValue(job.CreatedAt),
		"started_at":  timestampValue(job.StartedAt),
		"finished_at": timestampValue(job.FinishedAt),
	}
	if job.Error != "" {
		m["error"] = job.Error
	}
	if job.Video != nil {
		m["video"] = videoResultMap(job.Video)
	}
	if job.Subtitle != nil {
		m["subtitle"] = subtitleResultMap(job.Subtitle)
	}
	return structpb.NewStruct(m)
}
