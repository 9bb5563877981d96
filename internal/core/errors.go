package core

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable means a raw-text provider failed. The run aborts.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrSnapshotNotReady is returned by readers before the first publish.
	ErrSnapshotNotReady = errors.New("snapshot not ready")

	// ErrSnapshotAlreadyPublished is returned when publishing twice to a store.
	ErrSnapshotAlreadyPublished = errors.New("snapshot already published")

	// ErrInvalidScoreTable is returned when a scoring table cannot be read.
	ErrInvalidScoreTable = errors.New("invalid score table")

	// ErrUnknownChart is returned for a chart name with no builder.
	ErrUnknownChart = errors.New("unknown chart")

	// ErrCountryNotFound is returned when a trend series does not exist.
	ErrCountryNotFound = errors.New("country not found")
)

// SourceError records which source failed and why.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return fmt.Sprintf("source %s: timeout: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

// Unwrap exposes the cause.
func (e *SourceError) Unwrap() error {
	return e.Err
}

// Is makes every SourceError match ErrSourceUnavailable.
func (e *SourceError) Is(target error) bool {
	return target == ErrSourceUnavailable
}

func sourceErr(name string, err error) error {
	return &SourceError{Source: name, Err: err}
}
