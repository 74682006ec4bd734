// Package confirm models the dialog that asks before a large backfill.
// The flow itself is a pure state machine; the Manager owns the open
// flows and performs the creation once one is confirmed.
package confirm

import (
	"fmt"
	"strings"

	"github.com/example/daygap/internal/dailynotes"
	"github.com/example/daygap/internal/date"
	"github.com/example/daygap/internal/scan"
)

// Outcome is the terminal disposition of a flow. There are exactly two
// ways out: confirmed or canceled.
type Outcome string

const (
	OutcomePending   Outcome = "pending"
	OutcomeConfirmed Outcome = "confirmed"
	OutcomeCanceled  Outcome = "canceled"
)

// State is the full visible state of one confirmation flow. The raw
// fields hold the text as typed; the parsed dates and invalid flags are
// derived from them on every edit.
type State struct {
	StartRaw     string      `json:"start_raw"`
	EndRaw       string      `json:"end_raw"`
	Start        date.Date   `json:"start"`
	End          date.Date   `json:"end"`
	StartInvalid bool        `json:"start_invalid"`
	EndInvalid   bool        `json:"end_invalid"`
	Missing      []date.Date `json:"missing"`
	Outcome      Outcome     `json:"outcome"`
}

// EventKind enumerates the inputs a flow reacts to.
type EventKind int

const (
	EventSetStart EventKind = iota
	EventSetEnd
	EventConfirm
	EventCancel
)

// Event is one user input to the flow.
type Event struct {
	Kind  EventKind
	Value string // raw date text for the set events
}

// SetStart edits the start field.
func SetStart(raw string) Event { return Event{Kind: EventSetStart, Value: raw} }

// SetEnd edits the end field.
func SetEnd(raw string) Event { return Event{Kind: EventSetEnd, Value: raw} }

// Confirm accepts the flow's current missing set for creation.
func Confirm() Event { return Event{Kind: EventConfirm} }

// Cancel dismisses the flow without side effects.
func Cancel() Event { return Event{Kind: EventCancel} }

// NewState builds the pre-populated state of a fresh flow over reg.
func NewState(start, end date.Date, reg *dailynotes.Registry) State {
	return recompute(State{
		StartRaw: start.String(),
		EndRaw:   end.String(),
		Outcome:  OutcomePending,
	}, reg)
}

// Apply is the transition function of the flow: it returns the state
// after ev. Terminal states absorb every further event. Edits re-validate
// both bounds and recompute the missing set against reg; Confirm and
// Cancel never touch reg, so the confirmed snapshot is exactly what the
// dialog last showed.
func Apply(s State, ev Event, reg *dailynotes.Registry) State {
	if s.Outcome != OutcomePending {
		return s
	}
	switch ev.Kind {
	case EventSetStart:
		s.StartRaw = ev.Value
	case EventSetEnd:
		s.EndRaw = ev.Value
	case EventConfirm:
		s.Outcome = OutcomeConfirmed
		return s
	case EventCancel:
		s.Outcome = OutcomeCanceled
		return s
	}
	return recompute(s, reg)
}

// Label renders the dialog prompt for the current missing count.
func (s State) Label() string {
	if len(s.Missing) == 1 {
		return "Create 1 missing daily note?"
	}
	return fmt.Sprintf("Create %d missing daily notes?", len(s.Missing))
}

func recompute(s State, reg *dailynotes.Registry) State {
	s.Start, s.StartInvalid = parseField(s.StartRaw)
	s.End, s.EndInvalid = parseField(s.EndRaw)
	if s.StartInvalid || s.EndInvalid {
		s.Missing = nil
		return s
	}
	s.Missing = scan.FindMissingDates(reg, s.Start, s.End)
	return s
}

func parseField(raw string) (date.Date, bool) {
	d, err := date.Parse(strings.TrimSpace(raw))
	if err != nil {
		return date.Date{}, true
	}
	return d, false
}
