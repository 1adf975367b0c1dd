package grpc

import (
	"context"
	"errors"

	"github.com/failsafe-go/failsafe-go/bulkhead"
	"github.com/failsafe-go/failsafe-go/timeout"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Belphemur/MediaFetch/internal/apperrors"
)

// errorDomain is the ErrorInfo domain of every error this service returns.
const errorDomain = "mediafetch"

// toStatus maps an application error to a gRPC status carrying an
// errdetails.ErrorInfo with a stable reason.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	code, reason, metadata := classify(err)

	st := status.New(code, err.Error())
	detailed, derr := st.WithDetails(&errdetails.ErrorInfo{
		Reason:   reason,
		Domain:   errorDomain,
		Metadata: metadata,
	})
	if derr != nil {
		return st.Err()
	}
	return detailed.Err()
}

func classify(err error) (codes.Code, string, map[string]string) {
	var (
		invalid  *apperrors.ErrInvalidRequest
		notFound *apperrors.ErrNotFound
		subtitle *apperrors.ErrSubtitleUnavailable
		extract  *apperrors.ErrExtraction
	)
	switch {
	case errors.As(err, &invalid):
		return codes.InvalidArgument, "INVALID_REQUEST", map[string]string{"field": invalid.Field}
	case errors.As(err, &notFound):
		return codes.NotFound, "NOT_FOUND", map[string]string{"resource": notFound.Resource}
	case errors.As(err, &subtitle):
		return codes.FailedPrecondition, "SUBTITLE_UNAVAILABLE", map[string]string{
			"language": subtitle.Language,
			"format":   subtitle.Format,
		}
	case errors.Is(err, bulkhead.ErrFull):
		return codes.ResourceExhausted, "DOWNLOAD_SLOTS_EXHAUSTED", nil
	case errors.Is(err, timeout.ErrExceeded), errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded, "DOWNLOAD_TIMEOUT", nil
	case errors.Is(err, context.Canceled):
		return codes.Canceled, "CANCELED", nil
	case errors.As(err, &extract):
		return codes.Internal, "EXTRACTION_FAILED", map[string]string{"url": extract.URL}
	}
	return codes.Internal, "INTERNAL", nil
}
