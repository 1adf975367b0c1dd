package errreport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/getsentry/sentry-go"

	"github.com/Belphemur/MediaFetch/internal/apperrors"
)

func TestReportable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"invalid request", apperrors.NewInvalidRequestError("url", "must not be empty"), false},
		{"unknown job", apperrors.NewJobNotFoundError("x"), false},
		{"missing subtitle", apperrors.NewSubtitleUnavailableError("u", "en", "vtt"), false},
		{"canceled", fmt.Errorf("download: %w", context.Canceled), false},
		{"extraction", apperrors.NewExtractionError("u", errors.New("HTTP Error 403")), true},
		{"deadline", context.DeadlineExceeded, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Reportable(tt.err); got != tt.want {
				t.Errorf("Reportable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestInit_EmptyDSN(t *testing.T) {
	if err := Init("", "test", "dev"); err != nil {
		t.Fatalf("Init with empty DSN: %v", err)
	}
	// Must be a no-op without a client.
	Capture(errors.New("boom"), nil)
	Flush(0)
}

func TestCapture_SendsTaggedEvent(t *testing.T) {
	var (
		mu     sync.Mutex
		events []*sentry.Event
	)
	err := initWith(sentry.ClientOptions{
		Dsn:        "https://public@sentry.example.com/1",
		SampleRate: 1.0,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			mu.Lock()
			events = append(events, event)
			mu.Unlock()
			return nil
		},
	})
	if err != nil {
		t.Fatalf("initWith: %v", err)
	}
	t.Cleanup(func() { sentry.CurrentHub().BindClient(nil) })

	Capture(apperrors.NewInvalidRequestError("url", "empty"), nil)
	Capture(apperrors.NewExtractionError("https://v", errors.New("Video unavailable")), map[string]string{"kind": "video"})

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 1 {
		t.Fatalf("Expected exactly one reported event, got %d", len(events))
	}
	if events[0].Tags["kind"] != "video" {
		t.Errorf("Expected kind tag, got %v", events[0].Tags)
	}
}
