package observability

import (
	"context"
	"errors"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
)

// FlushTimeout bounds how long shutdown waits for queued Sentry events.
const FlushTimeout = 2 * time.Second

// SentryOptions configures InitSentry.
type SentryOptions struct {
	DSN              string
	Environment      string
	Release          string
	TracesSampleRate float64
}

// InitSentry initialises the global Sentry client. It reports false without
// error when no DSN is configured.
func InitSentry(opts SentryOptions) (bool, error) {
	if opts.DSN == "" {
		return false, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              opts.DSN,
		Environment:      opts.Environment,
		Release:          opts.Release,
		EnableTracing:    opts.TracesSampleRate > 0,
		TracesSampleRate: opts.TracesSampleRate,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			if event.Request != nil {
				delete(event.Request.Headers, "Authorization")
				delete(event.Request.Headers, "Cookie")
			}
			return event
		},
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Flush waits for buffered events to be sent.
func Flush() {
	sentry.Flush(FlushTimeout)
}

// expected kinds describe bad input or empty results, not faults worth an alert.
var expectedKinds = []error{
	domain.ErrInvalidGenreSelection,
	domain.ErrInvalidInput,
	domain.ErrUnauthenticated,
	domain.ErrNoCandidates,
	domain.ErrCanceled,
}

// Reportable reports whether err should be sent to Sentry.
func Reportable(err error) bool {
	if err == nil {
		return false
	}
	for _, k := range expectedKinds {
		if errors.Is(err, k) {
			return false
		}
	}
	return true
}

// CaptureStageError sends err to Sentry tagged with its pipeline stage and kind.
func CaptureStageError(hub *sentry.Hub, runID string, err error) {
	if hub == nil || !Reportable(err) {
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("stage", domain.StageOf(err).String())
		scope.SetTag("kind", domain.KindName(err))
		if runID != "" {
			scope.SetTag("recommendation_id", runID)
		}
		hub.CaptureException(err)
	})
}

// HubFromContext returns the hub stored on ctx, or the current global hub.
func HubFromContext(ctx context.Context) *sentry.Hub {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}
