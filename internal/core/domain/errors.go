package domain

import (
	"errors"
	"fmt"
)

// Failure kinds. Every pipeline failure matches exactly one of these via errors.Is.
var (
	ErrExtraction            = errors.New("extraction failed")
	ErrExtractionTimeout     = errors.New("extraction timed out")
	ErrInvalidGenreSelection = errors.New("invalid genre selection")
	ErrNoCandidates          = errors.New("no candidate tracks")
	ErrProvider              = errors.New("catalog provider failed")
	ErrProviderAuth          = errors.New("catalog provider authentication failed")
	ErrPersistence           = errors.New("persistence failed")
	ErrInvalidInput          = errors.New("invalid input")
	ErrUnauthenticated       = errors.New("unauthenticated")
	ErrCanceled              = errors.New("canceled")
)

// ErrNotFound is returned by storage lookups that match nothing.
var ErrNotFound = errors.New("not found")

// ordered so that the more specific provider kind wins over the generic one.
var kinds = []struct {
	err  error
	name string
}{
	{ErrExtractionTimeout, "extraction_timeout"},
	{ErrExtraction, "extraction"},
	{ErrInvalidGenreSelection, "invalid_genre_selection"},
	{ErrNoCandidates, "no_candidates"},
	{ErrProviderAuth, "provider_auth"},
	{ErrProvider, "provider"},
	{ErrPersistence, "persistence"},
	{ErrInvalidInput, "invalid_input"},
	{ErrUnauthenticated, "unauthenticated"},
	{ErrCanceled, "canceled"},
	{ErrNotFound, "not_found"},
}

// StageError records which pipeline stage failed, with which kind, and why.
type StageError struct {
	Stage State
	Kind  error
	Err   error
}

// NewStageError builds a StageError. A nil kind is recovered from err.
func NewStageError(stage State, kind, err error) *StageError {
	if kind == nil {
		kind = KindOf(err)
	}
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

func (e *StageError) Error() string {
	if e.Err == nil || e.Err == e.Kind {
		return fmt.Sprintf("%s: %v", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Stage, e.Kind, e.Err)
}

// Is matches the failure kind, so errors.Is(err, ErrNoCandidates) works on a StageError.
func (e *StageError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind carried by err, or nil when err matches none.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) && se.Kind != nil {
		return se.Kind
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.err
		}
	}
	return nil
}

// KindName returns a stable snake_case name for the kind of err, used in logs and metrics.
func KindName(err error) string {
	kind := KindOf(err)
	if kind == nil {
		if err == nil {
			return ""
		}
		return "unknown"
	}
	for _, k := range kinds {
		if k.err == kind {
			return k.name
		}
	}
	return "unknown"
}

// StageOf returns the stage recorded on err, or StateIdle when err carries none.
func StageOf(err error) State {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return StateIdle
}
