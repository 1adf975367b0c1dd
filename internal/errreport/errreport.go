// Package errreport forwards unexpected download failures to Sentry.
package errreport

import (
	"context"
	"errors"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/Belphemur/MediaFetch/internal/apperrors"
	"github.com/Belphemur/MediaFetch/internal/config"
)

// Init configures the Sentry client. An empty DSN leaves reporting disabled.
func Init(dsn, environment, release string) error {
	if dsn == "" {
		return nil
	}
	return initWith(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
		Release:     release,
	})
}

// InitFromConfig calls Init with the sentry section of cfg.
func InitFromConfig(cfg *config.Config, release string) error {
	return Init(cfg.Sentry.DSN, cfg.Sentry.Environment, release)
}

func initWith(opts sentry.ClientOptions) error {
	if err := sentry.Init(opts); err != nil {
		return err
	}
	logger := config.GetLogger()
	logger.Info().Str("environment", opts.Environment).Msg("Sentry error reporting enabled")
	return nil
}

// Enabled reports whether a Sentry client is configured.
func Enabled() bool {
	return sentry.CurrentHub().Client() != nil
}

// Reportable tells apart failures worth an alert from outcomes the caller
// caused or expects: bad requests, unknown jobs, missing subtitle tracks and
// cancellations.
func Reportable(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, &apperrors.ErrInvalidRequest{}),
		errors.Is(err, &apperrors.ErrNotFound{}),
		errors.Is(err, &apperrors.ErrSubtitleUnavailable{}),
		errors.Is(err, context.Canceled):
		return false
	}
	return true
}

// Capture sends err to Sentry with the given tags when reporting is enabled
// and the error is reportable.
func Capture(err error, tags map[string]string) {
	if !Enabled() || !Reportable(err) {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}

// Flush waits up to timeout for buffered events to be delivered.
func Flush(timeout time.Duration) {
	if Enabled() {
		sentry.Flush(timeout)
	}
}
