package services

import (
	"time"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
)

// Observer is notified of pipeline progress. Implementations must be safe for
// concurrent use since runs execute in parallel.
type Observer interface {
	// Transition is called on every state change; elapsed is the time spent in from.
	Transition(runID string, from, to domain.State, elapsed time.Duration)
	// Finished is called once per run with the terminal error, nil on success.
	Finished(runID string, err error)
	// PersistenceFailed is called when the sink rejects a finished recommendation.
	PersistenceFailed(runID string, err error)
}

type nopObserver struct{}

func (nopObserver) Transition(string, domain.State, domain.State, time.Duration) {}
func (nopObserver) Finished(string, error)                                      {}
func (nopObserver) PersistenceFailed(string, error)                             {}

// MultiObserver fans notifications out to several observers in order.
type MultiObserver []Observer

func (m MultiObserver) Transition(runID string, from, to domain.State, elapsed time.Duration) {
	for _, o := range m {
		o.Transition(runID, from, to, elapsed)
	}
}

func (m MultiObserver) Finished(runID string, err error) {
	for _, o := range m {
		o.Finished(runID, err)
	}
}

func (m MultiObserver) PersistenceFailed(runID string, err error) {
	for _, o := range m {
		o.PersistenceFailed(runID, err)
	}
}
