package observability

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
)

// PipelineRecorder turns pipeline notifications into metrics and Sentry events.
type PipelineRecorder struct {
	hub *sentry.Hub
}

// NewPipelineRecorder returns a recorder reporting to hub. A nil hub disables Sentry.
func NewPipelineRecorder(hub *sentry.Hub) *PipelineRecorder {
	return &PipelineRecorder{hub: hub}
}

func (r *PipelineRecorder) Transition(_ string, from, _ domain.State, elapsed time.Duration) {
	if from == domain.StateIdle {
		return
	}
	PipelineStageDuration.WithLabelValues(from.String()).Observe(elapsed.Seconds())
}

func (r *PipelineRecorder) Finished(runID string, err error) {
	if err == nil {
		PipelineRuns.WithLabelValues("success", "", "").Inc()
		return
	}
	PipelineRuns.WithLabelValues("failure", domain.StageOf(err).String(), domain.KindName(err)).Inc()
	CaptureStageError(r.hub, runID, err)
}

func (r *PipelineRecorder) PersistenceFailed(runID string, err error) {
	PersistenceFailures.Inc()
	CaptureStageError(r.hub, runID, err)
}
