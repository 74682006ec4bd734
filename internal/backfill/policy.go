package backfill

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/daygap/internal/dailynotes"
	"github.com/example/daygap/internal/date"
	"github.com/example/daygap/internal/history"
	"github.com/example/daygap/internal/scan"
	"github.com/example/daygap/internal/settings"
)

// Escalate opens a confirmation flow over the given range and returns its
// id. The policy calls it instead of creating anything when too many days
// are missing.
type Escalate func(ctx context.Context, start, end date.Date) (string, error)

// Policy applies the startup rules: create today's note, catch up on
// missed days, or hand the decision to the user when the gap is large.
type Policy struct {
	notes    dailynotes.Provider
	settings *settings.Store
	svc      *Service
	escalate Escalate
	notify   Notify
	log      *slog.Logger

	// Today is overridable for tests and defaults to the local calendar day.
	Today func() date.Date
}

// NewPolicy builds a Policy.
func NewPolicy(notes dailynotes.Provider, st *settings.Store, svc *Service, escalate Escalate, notify Notify, logger *slog.Logger) *Policy {
	return &Policy{
		notes:    notes,
		settings: st,
		svc:      svc,
		escalate: escalate,
		notify:   notify,
		log:      logger,
		Today:    date.Today,
	}
}

// RunStartup applies the startup rules once.
//
// Gate one: the create-today preference off means no startup action at
// all. With the gate on but the daily notes feature disabled, the single
// disabled notification is raised and nothing else happens.
//
// Gate two: the backfill-missed preference off reduces startup to
// ensuring today's note exists. With it on, the days after the last
// observed note through today are scanned; a gap within the confirmation
// threshold is created silently, a larger one opens a confirmation flow
// instead. An empty vault has nothing missed, so nothing is created.
func (p *Policy) RunStartup(ctx context.Context) error {
	rec := p.settings.Get()
	if !rec.CreateToday {
		p.log.Debug("startup creation disabled by preference")
		return nil
	}
	if !p.notes.Enabled() {
		p.notify(DisabledMessage)
		return nil
	}

	reg, err := p.notes.All(ctx)
	if err != nil {
		return fmt.Errorf("backfill: scan vault: %w", err)
	}
	today := p.Today()

	if !rec.BackfillMissed {
		missing := scan.FindMissingDates(reg, today, today)
		_, err := p.svc.CreateAll(ctx, history.TriggerStartup, missing)
		return err
	}

	_, last := scan.FirstAndLast(reg, today)
	missing := scan.FindMissingDates(reg, last.Next(), today)
	switch {
	case len(missing) == 0:
		p.log.Debug("no missed days", slog.String("last", last.String()))
		return nil
	case len(missing) <= rec.ConfirmThreshold:
		_, err := p.svc.CreateAll(ctx, history.TriggerStartup, missing)
		return err
	default:
		id, err := p.escalate(ctx, last, today)
		if err != nil {
			return fmt.Errorf("backfill: open confirmation: %w", err)
		}
		p.notify(fmt.Sprintf("%d daily notes are missing. Review the dates to create them.", len(missing)))
		p.log.Info("backfill needs confirmation",
			slog.String("plan_id", id),
			slog.Int("missing", len(missing)))
		return nil
	}
}
