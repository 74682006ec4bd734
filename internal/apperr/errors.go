package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// ErrDailyNotesDisabled is returned when the daily-notes facility is
	// switched off; both the startup and manual paths short-circuit on it.
	ErrDailyNotesDisabled = errors.New("daily notes are disabled")

	// ErrPlanClosed is returned when an event is applied to a confirmation
	// flow that already reached a terminal state.
	ErrPlanClosed = errors.New("plan already closed")
)
