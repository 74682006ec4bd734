// Package backfill creates the daily notes a vault is missing.
package backfill

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/example/daygap/internal/dailynotes"
	"github.com/example/daygap/internal/date"
	"github.com/example/daygap/internal/history"
)

// DisabledMessage is the single notification surfaced when daily notes are
// turned off, for both the startup path and the manual command.
const DisabledMessage = "Daily notes are disabled. Enable the daily notes feature first."

// Notify delivers a user-visible notification. The server wires this to
// the SSE broker, the CLI prints to the terminal.
type Notify func(msg string)

// Failure is one date that could not be created.
type Failure struct {
	Date date.Date
	Err  error
}

// Result summarizes one bulk creation.
type Result struct {
	RunID   string
	Start   date.Date
	End     date.Date
	Created []dailynotes.Note
	Failed  []Failure
}

// Message renders the user-visible summary. Counts reflect actual
// successes, not attempts, so a partial failure never overstates what
// happened.
func (r Result) Message() string {
	msg := fmt.Sprintf("Created %d daily notes", len(r.Created))
	if len(r.Created) == 1 {
		msg = "Created 1 daily note"
	}
	if len(r.Failed) > 0 {
		msg += fmt.Sprintf(" (%d failed)", len(r.Failed))
	}
	return msg
}

// Service performs bulk note creation and reports every run.
type Service struct {
	notes  dailynotes.Provider
	hist   history.History
	notify Notify
	log    *slog.Logger

	// OnCompleted, when set, runs after every non-empty bulk creation.
	// The server uses it to publish the run over SSE.
	OnCompleted func(Result)
}

// NewService builds a Service. notify must not be nil.
func NewService(notes dailynotes.Provider, hist history.History, notify Notify, logger *slog.Logger) *Service {
	return &Service{notes: notes, hist: hist, notify: notify, log: logger}
}

// CreateAll creates the notes for the given dates, which are expected in
// ascending order as the scanner returns them. All creations are
// initiated together and awaited collectively; one date failing does not
// stop the others. An empty input is a no-op: no notification, no run
// recorded. The returned error is non-nil only when ctx was canceled.
func (s *Service) CreateAll(ctx context.Context, trigger history.Trigger, dates []date.Date) (Result, error) {
	if len(dates) == 0 {
		return Result{}, nil
	}
	startedAt := time.Now()

	type slot struct {
		note dailynotes.Note
		err  error
	}
	slots := make([]slot, len(dates))

	g, gctx := errgroup.WithContext(ctx)
	for i, d := range dates {
		g.Go(func() error {
			n, err := s.notes.Create(gctx, d)
			slots[i] = slot{note: n, err: err}
			return gctx.Err()
		})
	}
	waitErr := g.Wait()

	res := Result{
		RunID: uuid.NewString(),
		Start: dates[0],
		End:   dates[len(dates)-1],
	}
	outcomes := make([]history.NoteOutcome, 0, len(dates))
	for i, d := range dates {
		if err := slots[i].err; err != nil {
			res.Failed = append(res.Failed, Failure{Date: d, Err: err})
			outcomes = append(outcomes, history.NoteOutcome{Date: d, Error: err.Error()})
			continue
		}
		res.Created = append(res.Created, slots[i].note)
		outcomes = append(outcomes, history.NoteOutcome{Date: d, Path: slots[i].note.Path, Created: true})
	}

	run := history.Run{
		ID:         res.RunID,
		Trigger:    trigger,
		Start:      res.Start,
		End:        res.End,
		Attempted:  len(dates),
		Created:    len(res.Created),
		Failed:     len(res.Failed),
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
		Notes:      outcomes,
	}
	// The notes are already on disk at this point; a failed audit write is
	// logged rather than turned into a run failure.
	if err := s.hist.Record(run); err != nil {
		s.log.Error("recording backfill run failed",
			slog.String("run_id", res.RunID),
			slog.String("error", err.Error()))
	}

	s.log.Info("backfill run finished",
		slog.String("run_id", res.RunID),
		slog.String("trigger", string(trigger)),
		slog.Int("created", len(res.Created)),
		slog.Int("failed", len(res.Failed)))

	s.notify(res.Message())
	if s.OnCompleted != nil {
		s.OnCompleted(res)
	}
	return res, waitErr
}
