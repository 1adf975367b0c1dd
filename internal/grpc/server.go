package grpc

import (
	"context"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Belphemur/MediaFetch/internal/apperrors"
	"github.com/Belphemur/MediaFetch/internal/config"
	"github.com/Belphemur/MediaFetch/internal/models"
)

// Downloads is what the service needs from the job runner.
type Downloads interface {
	DownloadVideo(ctx context.Context, req models.VideoDownloadRequest) (*models.VideoDownloadResult, error)
	DownloadSubtitle(ctx context.Context, req models.SubtitleDownloadRequest) (*models.SubtitleDownloadResult, error)
	SubmitVideo(ctx context.Context, req models.VideoDownloadRequest) (*models.Job, error)
	SubmitSubtitle(ctx context.Context, req models.SubtitleDownloadRequest) (*models.Job, error)
	Job(ctx context.Context, id string) (*models.Job, error)
}

// server implements MediaServiceServer
type server struct {
	downloads        Downloads
	defaultOutputDir string
	logger           zerolog.Logger
}

// NewServer creates a new media service backed by d. Requests without an
// output_dir download into defaultOutputDir.
func NewServer(d Downloads, defaultOutputDir string) MediaServiceServer {
	return &server{
		downloads:        d,
		defaultOutputDir: defaultOutputDir,
		logger:           config.GetLogger(),
	}
}

// DownloadVideo implements MediaServiceServer.DownloadVideo
func (s *server) DownloadVideo(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := videoRequestFromStruct(in, s.defaultOutputDir)
	if err != nil {
		return nil, toStatus(err)
	}
	s.logger.Debug().Str("url", req.URL).Bool("keep_subtitle", req.KeepSubtitle).Msg("DownloadVideo called")

	result, err := s.downloads.DownloadVideo(ctx, req)
	if err != nil {
		s.logger.Error().Err(err).Str("url", req.URL).Msg("Failed to download video")
		return nil, toStatus(err)
	}
	return s.encode(convertVideoResultToStruct(result))
}

// DownloadSubtitle implements MediaServiceServer.DownloadSubtitle
func (s *server) DownloadSubtitle(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := subtitleRequestFromStruct(in, s.defaultOutputDir)
	if err != nil {
		return nil, toStatus(err)
	}
	s.logger.Debug().Str("url", req.URL).Msg("DownloadSubtitle called")

	result, err := s.downloads.DownloadSubtitle(ctx, req)
	if err != nil {
		s.logger.Error().Err(err).Str("url", req.URL).Msg("Failed to download subtitle")
		return nil, toStatus(err)
	}
	return s.encode(convertSubtitleResultToStruct(result))
}

// SubmitVideo implements MediaServiceServer.SubmitVideo
func (s *server) SubmitVideo(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := videoRequestFromStruct(in, s.defaultOutputDir)
	if err != nil {
		return nil, toStatus(err)
	}

	job, err := s.downloads.SubmitVideo(ctx, req)
	if err != nil {
		s.logger.Error().Err(err).Str("url", req.URL).Msg("Failed to submit video job")
		return nil, toStatus(err)
	}
	s.logger.Debug().Str("job_id", job.ID).Msg("SubmitVideo completed")
	return s.encode(convertJobToStruct(job))
}

// SubmitSubtitle implements MediaServiceServer.SubmitSubtitle
func (s *server) SubmitSubtitle(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := subtitleRequestFromStruct(in, s.defaultOutputDir)
	if err != nil {
		return nil, toStatus(err)
	}

	job, err := s.downloads.SubmitSubtitle(ctx, req)
	if err != nil {
		s.logger.Error().Err(err).Str("url", req.URL).Msg("Failed to submit subtitle job")
		return nil, toStatus(err)
	}
	s.logger.Debug().Str("job_id", job.ID).Msg("SubmitSubtitle completed")
	return s.encode(convertJobToStruct(job))
}

// GetJob implements MediaServiceServer.GetJob
func (s *server) GetJob(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := stringField(in, "id")
	if err != nil {
		return nil, toStatus(err)
	}
	if id == "" {
		return nil, toStatus(apperrors.NewInvalidRequestError("id", "must not be empty"))
	}

	job, err := s.downloads.Job(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return s.encode(convertJobToStruct(job))
}

func (s *server) encode(out *structpb.Struct, err error) (*structpb.Struct, error) {
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}
