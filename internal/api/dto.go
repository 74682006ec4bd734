package api

import (
	"time"

	"github.com/example/daygap/internal/confirm"
	"github.com/example/daygap/internal/dailynotes"
	"github.com/example/daygap/internal/date"
	"github.com/example/daygap/internal/history"
	"github.com/example/daygap/internal/settings"
)

// Settings is the preference record (aliased from the domain layer).
type Settings = settings.Record

// Run is a recorded backfill run (aliased from the domain layer).
type Run = history.Run

// StatusResponse describes the daily notes facility as scanned right now.
type StatusResponse struct {
	Enabled   bool      `json:"enabled" example:"true"`
	Pattern   string    `json:"pattern" example:"YYYY-MM-DD"`
	Notes     int       `json:"notes" example:"42"`
	First     date.Date `json:"first"`
	Last      date.Date `json:"last"`
	Today     date.Date `json:"today"`
	TodayNote bool      `json:"today_note"`
	Malformed int       `json:"malformed" example:"0"`
}

// MissingResponse is the result of an ad-hoc gap scan.
type MissingResponse struct {
	Start   date.Date   `json:"start"`
	End     date.Date   `json:"end"`
	Missing []date.Date `json:"missing"`
	Count   int         `json:"count" example:"3"`
}

// SettingsResponse wraps the preferences with their checksum for
// optimistic concurrency.
type SettingsResponse struct {
	Settings
	Checksum string `json:"checksum" example:"abc123..."`
}

// CreatePlanRequest optionally pins the range of a new confirmation flow.
// Both fields empty means the default range from the last observed note
// through today.
type CreatePlanRequest struct {
	Start string `json:"start" example:"2024-01-01"`
	End   string `json:"end" example:"2024-01-20"`
}

// PatchPlanRequest edits the date fields of an open flow. Raw text is
// accepted as typed; nil means the field is untouched.
type PatchPlanRequest struct {
	Start *string `json:"start" example:"2024-01-01"`
	End   *string `json:"end" example:"2024-01-20"`
}

// PlanResponse is one confirmation flow with its rendered prompt.
type PlanResponse struct {
	ID       string        `json:"id" validate:"required"`
	OpenedAt time.Time     `json:"opened_at"`
	State    confirm.State `json:"state"`
	Label    string        `json:"label" example:"Create 3 missing daily notes?"`
}

func planResponse(p confirm.Plan) PlanResponse {
	return PlanResponse{ID: p.ID, OpenedAt: p.OpenedAt, State: p.State, Label: p.State.Label()}
}

// PlanListResponse wraps the open flows.
type PlanListResponse struct {
	Plans []PlanResponse `json:"plans" validate:"required"`
	Total int            `json:"total" example:"1"`
}

// FailureDTO is one date a run could not create.
type FailureDTO struct {
	Date  date.Date `json:"date"`
	Error string    `json:"error" example:"already exists"`
}

// ConfirmResponse reports the creation run a confirmed flow produced.
type ConfirmResponse struct {
	Plan    PlanResponse      `json:"plan"`
	RunID   string            `json:"run_id,omitempty"`
	Message string            `json:"message" example:"Created 3 daily notes"`
	Created []dailynotes.Note `json:"created"`
	Failed  []FailureDTO      `json:"failed,omitempty"`
}

// HistoryResponse wraps paginated run listings.
type HistoryResponse struct {
	Runs  []Run `json:"runs" validate:"required"`
	Total int   `json:"total" example:"7"`
}
