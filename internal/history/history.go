// Package history keeps a SQLite audit log of backfill runs.
package history

import (
	"time"

	"github.com/example/daygap/internal/date"
)

// Trigger identifies what started a backfill run.
type Trigger string

const (
	TriggerStartup Trigger = "startup"
	TriggerManual  Trigger = "manual"
	TriggerAPI     Trigger = "api"
	TriggerMCP     Trigger = "mcp"
)

// NoteOutcome is the per-day result of a run.
type NoteOutcome struct {
	Date    date.Date `json:"date"`
	Path    string    `json:"path,omitempty"`
	Created bool      `json:"created"`
	Error   string    `json:"error,omitempty"`
}

// Run is one recorded backfill run.
type Run struct {
	ID         string        `json:"id"`
	Trigger    Trigger       `json:"trigger"`
	Start      date.Date     `json:"start"`
	End        date.Date     `json:"end"`
	Attempted  int           `json:"attempted"`
	Created    int           `json:"created"`
	Failed     int           `json:"failed"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Notes      []NoteOutcome `json:"notes,omitempty"`
}

// History records and lists backfill runs.
// Consumers should depend on this interface rather than the concrete *DB
// type to facilitate testing with stubs.
type History interface {
	Record(run Run) error
	ListRuns(limit, offset int) ([]Run, int, error)
	GetRun(id string) (*Run, error)
	Close() error
}

// Verify *DB satisfies History at compile time.
var _ History = (*DB)(nil)
