package confirm

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/daygap/internal/apperr"
	"github.com/example/daygap/internal/backfill"
	"github.com/example/daygap/internal/dailynotes"
	"github.com/example/daygap/internal/date"
	"github.com/example/daygap/internal/history"
	"github.com/example/daygap/internal/scan"
)

// Plan pairs an open flow with its id.
type Plan struct {
	ID       string    `json:"id"`
	State    State     `json:"state"`
	OpenedAt time.Time `json:"opened_at"`
}

type flowEntry struct {
	state   State
	opened  time.Time
	touched time.Time
}

// Manager owns the open confirmation flows. Flows live in memory only; an
// abandoned one silently expires, which is the same outcome as a
// dismissal.
type Manager struct {
	notes  dailynotes.Provider
	svc    *backfill.Service
	notify backfill.Notify
	log    *slog.Logger

	mu    sync.Mutex
	flows map[string]*flowEntry

	// OnChange, when set, runs after every state change of a flow. The
	// server uses it to publish plan updates over SSE.
	OnChange func(id string, s State)

	// TTL bounds how long an untouched flow stays open. Now and Today are
	// overridable for tests.
	TTL   time.Duration
	Now   func() time.Time
	Today func() date.Date
}

// NewManager builds a Manager. notify must not be nil.
func NewManager(notes dailynotes.Provider, svc *backfill.Service, notify backfill.Notify, logger *slog.Logger) *Manager {
	return &Manager{
		notes:  notes,
		svc:    svc,
		notify: notify,
		log:    logger,
		flows:  make(map[string]*flowEntry),
		TTL:    time.Hour,
		Now:    time.Now,
		Today:  date.Today,
	}
}

// Open starts a flow for the manual command path, pre-populated from the
// last observed note (or today for an empty vault) through today. When
// daily notes are disabled it raises the single disabled notification and
// refuses.
func (m *Manager) Open(ctx context.Context) (string, State, error) {
	if !m.notes.Enabled() {
		m.notify(backfill.DisabledMessage)
		return "", State{}, apperr.ErrDailyNotesDisabled
	}
	reg, err := m.notes.All(ctx)
	if err != nil {
		return "", State{}, fmt.Errorf("confirm: scan vault: %w", err)
	}
	today := m.Today()
	_, last := scan.FirstAndLast(reg, today)
	return m.open(last, today, reg)
}

// OpenRange starts a flow over an explicit range; the startup policy uses
// it when a gap needs confirmation.
func (m *Manager) OpenRange(ctx context.Context, start, end date.Date) (string, error) {
	if !m.notes.Enabled() {
		m.notify(backfill.DisabledMessage)
		return "", apperr.ErrDailyNotesDisabled
	}
	reg, err := m.notes.All(ctx)
	if err != nil {
		return "", fmt.Errorf("confirm: scan vault: %w", err)
	}
	id, _, err := m.open(start, end, reg)
	return id, err
}

func (m *Manager) open(start, end date.Date, reg *dailynotes.Registry) (string, State, error) {
	st := NewState(start, end, reg)
	id := uuid.NewString()
	now := m.Now()

	m.mu.Lock()
	m.expireLocked()
	m.flows[id] = &flowEntry{state: st, opened: now, touched: now}
	m.mu.Unlock()

	m.log.Info("confirmation flow opened",
		slog.String("plan_id", id),
		slog.Int("missing", len(st.Missing)))
	m.changed(id, st)
	return id, st, nil
}

// Get returns one flow.
func (m *Manager) Get(id string) (Plan, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expireLocked()
	e, ok := m.flows[id]
	if !ok {
		return Plan{}, false
	}
	return Plan{ID: id, State: e.state, OpenedAt: e.opened}, true
}

// List returns the flows still tracked, oldest first.
func (m *Manager) List() []Plan {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expireLocked()
	out := make([]Plan, 0, len(m.flows))
	for id, e := range m.flows {
		out = append(out, Plan{ID: id, State: e.state, OpenedAt: e.opened})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.Before(out[j].OpenedAt) })
	return out
}

// Apply feeds one event to a flow. Unknown or expired ids fail with
// apperr.ErrNotFound, closed flows with apperr.ErrPlanClosed. Confirming
// creates the flow's current missing snapshot before the new state is
// announced.
func (m *Manager) Apply(ctx context.Context, id string, ev Event) (State, error) {
	s, _, err := m.apply(ctx, id, ev)
	return s, err
}

// Confirm closes the flow and creates its missing snapshot, returning the
// resulting run alongside the final state.
func (m *Manager) Confirm(ctx context.Context, id string) (State, backfill.Result, error) {
	return m.apply(ctx, id, Confirm())
}

func (m *Manager) apply(ctx context.Context, id string, ev Event) (State, backfill.Result, error) {
	var reg *dailynotes.Registry
	if ev.Kind == EventSetStart || ev.Kind == EventSetEnd {
		var err error
		if reg, err = m.notes.All(ctx); err != nil {
			return State{}, backfill.Result{}, fmt.Errorf("confirm: scan vault: %w", err)
		}
	}

	m.mu.Lock()
	m.expireLocked()
	e, ok := m.flows[id]
	if !ok {
		m.mu.Unlock()
		return State{}, backfill.Result{}, apperr.ErrNotFound
	}
	if e.state.Outcome != OutcomePending {
		s := e.state
		m.mu.Unlock()
		return s, backfill.Result{}, apperr.ErrPlanClosed
	}
	next := Apply(e.state, ev, reg)
	e.state = next
	e.touched = m.Now()
	m.mu.Unlock()

	if next.Outcome != OutcomePending {
		m.log.Info("confirmation flow closed",
			slog.String("plan_id", id),
			slog.String("outcome", string(next.Outcome)))
	}
	var res backfill.Result
	if next.Outcome == OutcomeConfirmed {
		var err error
		if res, err = m.svc.CreateAll(ctx, history.TriggerAPI, next.Missing); err != nil {
			return next, res, err
		}
	}
	m.changed(id, next)
	return next, res, nil
}

func (m *Manager) changed(id string, s State) {
	if m.OnChange != nil {
		m.OnChange(id, s)
	}
}

// expireLocked drops flows untouched for longer than TTL. Expiry is lazy:
// it runs on access rather than on a timer.
func (m *Manager) expireLocked() {
	cutoff := m.Now().Add(-m.TTL)
	for id, e := range m.flows {
		if e.touched.Before(cutoff) {
			delete(m.flows, id)
		}
	}
}
