package confirm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/daygap/internal/apperr"
	"github.com/example/daygap/internal/backfill"
	"github.com/example/daygap/internal/dailynotes"
	"github.com/example/daygap/internal/date"
	"github.com/example/daygap/internal/storage"
	"github.com/example/daygap/internal/testutil"
)

type managerEnv struct {
	mgr     *Manager
	store   storage.Provider
	notices []string
	changes []string
	now     time.Time
}

func newManagerEnv(t *testing.T, enabled bool, today date.Date) *managerEnv {
	t.Helper()
	env := &managerEnv{now: time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC)}

	_, store := testutil.TestVault(t)
	env.store = store
	vault, err := dailynotes.NewVault(store, dailynotes.VaultConfig{
		Enabled: enabled,
		Dir:     "daily",
		Pattern: "YYYY-MM-DD",
	}, testutil.Logger())
	if err != nil {
		t.Fatalf("NewVault: %v", err)
	}

	notify := func(msg string) { env.notices = append(env.notices, msg) }
	svc := backfill.NewService(vault, testutil.TestHistory(t), notify, testutil.Logger())

	env.mgr = NewManager(vault, svc, notify, testutil.Logger())
	env.mgr.Now = func() time.Time { return env.now }
	env.mgr.Today = func() date.Date { return today }
	env.mgr.OnChange = func(id string, s State) {
		env.changes = append(env.changes, string(s.Outcome))
	}
	return env
}

func TestOpen_RefusesWhenDisabled(t *testing.T) {
	env := newManagerEnv(t, false, jan(20))

	_, _, err := env.mgr.Open(context.Background())
	if !errors.Is(err, apperr.ErrDailyNotesDisabled) {
		t.Fatalf("err = %v, want ErrDailyNotesDisabled", err)
	}
	if len(env.notices) != 1 || env.notices[0] != backfill.DisabledMessage {
		t.Errorf("notices = %v, want exactly the disabled message", env.notices)
	}
	if len(env.mgr.List()) != 0 {
		t.Error("a flow was opened anyway")
	}
}

func TestOpen_PrePopulatesFromLastObserved(t *testing.T) {
	env := newManagerEnv(t, true, jan(20))
	_ = env.store.Write("daily/2024-01-01.md", []byte("last"))

	id, s, err := env.mgr.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if id == "" {
		t.Fatal("empty plan id")
	}
	if s.StartRaw != "2024-01-01" || s.EndRaw != "2024-01-20" {
		t.Errorf("range = %q..%q", s.StartRaw, s.EndRaw)
	}
	if len(s.Missing) != 19 {
		t.Errorf("len(Missing) = %d, want 19", len(s.Missing))
	}
}

func TestOpen_EmptyVaultOffersToday(t *testing.T) {
	env := newManagerEnv(t, true, date.New(2024, time.March, 10))

	_, s, err := env.mgr.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.StartRaw != "2024-03-10" || s.EndRaw != "2024-03-10" {
		t.Errorf("range = %q..%q, want today twice", s.StartRaw, s.EndRaw)
	}
	if len(s.Missing) != 1 {
		t.Errorf("len(Missing) = %d, want 1", len(s.Missing))
	}
	if got := s.Label(); got != "Create 1 missing daily note?" {
		t.Errorf("Label = %q", got)
	}
}

func TestApply_ConfirmCreatesSnapshot(t *testing.T) {
	env := newManagerEnv(t, true, jan(5))
	_ = env.store.Write("daily/2024-01-01.md", []byte("last"))

	id, s, err := env.mgr.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(s.Missing) != 4 {
		t.Fatalf("len(Missing) = %d, want 4", len(s.Missing))
	}

	s, err = env.mgr.Apply(context.Background(), id, Confirm())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if s.Outcome != OutcomeConfirmed {
		t.Errorf("Outcome = %q", s.Outcome)
	}
	for day := 2; day <= 5; day++ {
		ok, _ := env.store.Exists("daily/" + jan(day).String() + ".md")
		if !ok {
			t.Errorf("note for day %d not created", day)
		}
	}
	want := "Created 4 daily notes"
	if len(env.notices) != 1 || env.notices[0] != want {
		t.Errorf("notices = %v, want [%q]", env.notices, want)
	}

	if _, err := env.mgr.Apply(context.Background(), id, Cancel()); !errors.Is(err, apperr.ErrPlanClosed) {
		t.Errorf("event after confirm: %v, want ErrPlanClosed", err)
	}
}

func TestApply_EditNarrowsThenConfirm(t *testing.T) {
	env := newManagerEnv(t, true, jan(10))
	_ = env.store.Write("daily/2024-01-01.md", []byte("last"))

	id, _, err := env.mgr.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s, err := env.mgr.Apply(context.Background(), id, SetEnd("2024-01-03"))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(s.Missing) != 2 {
		t.Fatalf("len(Missing) = %d, want 2", len(s.Missing))
	}
	if _, err := env.mgr.Apply(context.Background(), id, Confirm()); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	ok, _ := env.store.Exists("daily/2024-01-03.md")
	if !ok {
		t.Error("note inside the narrowed range not created")
	}
	ok, _ = env.store.Exists("daily/2024-01-04.md")
	if ok {
		t.Error("note outside the narrowed range created")
	}
}

func TestApply_CancelHasNoSideEffects(t *testing.T) {
	env := newManagerEnv(t, true, jan(5))
	_ = env.store.Write("daily/2024-01-01.md", []byte("last"))

	id, _, err := env.mgr.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s, err := env.mgr.Apply(context.Background(), id, Cancel())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if s.Outcome != OutcomeCanceled {
		t.Errorf("Outcome = %q", s.Outcome)
	}
	if len(env.notices) != 0 {
		t.Errorf("notices = %v, want none on cancel", env.notices)
	}
	ok, _ := env.store.Exists("daily/2024-01-02.md")
	if ok {
		t.Error("cancel created a note")
	}
}

func TestApply_UnknownPlan(t *testing.T) {
	env := newManagerEnv(t, true, jan(5))
	if _, err := env.mgr.Apply(context.Background(), "no-such-plan", Confirm()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAbandonedFlowsExpire(t *testing.T) {
	env := newManagerEnv(t, true, jan(5))

	id, _, err := env.mgr.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := env.mgr.Get(id); !ok {
		t.Fatal("flow missing right after open")
	}

	env.now = env.now.Add(env.mgr.TTL + time.Minute)
	if _, ok := env.mgr.Get(id); ok {
		t.Error("expired flow still retrievable")
	}
	if _, err := env.mgr.Apply(context.Background(), id, Confirm()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after expiry", err)
	}
}

func TestOnChangeFires(t *testing.T) {
	env := newManagerEnv(t, true, jan(5))

	id, _, err := env.mgr.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := env.mgr.Apply(context.Background(), id, SetEnd("2024-01-04")); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, err := env.mgr.Apply(context.Background(), id, Cancel()); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	want := []string{"pending", "pending", "canceled"}
	if len(env.changes) != len(want) {
		t.Fatalf("changes = %v, want %v", env.changes, want)
	}
	for i := range want {
		if env.changes[i] != want[i] {
			t.Errorf("changes[%d] = %q, want %q", i, env.changes[i], want[i])
		}
	}
}

func TestList_OldestFirst(t *testing.T) {
	env := newManagerEnv(t, true, jan(5))

	first, _, err := env.mgr.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	env.now = env.now.Add(time.Minute)
	second, _, err := env.mgr.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	plans := env.mgr.List()
	if len(plans) != 2 {
		t.Fatalf("len = %d, want 2", len(plans))
	}
	if plans[0].ID != first || plans[1].ID != second {
		t.Errorf("order = %s, %s", plans[0].ID, plans[1].ID)
	}
}
