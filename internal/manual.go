package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/example/daygap/internal/apperr"
	"github.com/example/daygap/internal/backfill"
	"github.com/example/daygap/internal/date"
	"github.com/example/daygap/internal/history"
	"github.com/example/daygap/internal/scan"
	"github.com/example/daygap/internal/settings"
)

// cliLogger returns a stderr logger for the one-shot commands, keeping
// stdout free for their own output.
func cliLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// BackfillReport is what the backfill command renders: the inspected
// range, the dates found missing, and the creation result when the run
// actually created notes.
type BackfillReport struct {
	Start   date.Date
	End     date.Date
	Missing []date.Date
	Result  *backfill.Result
}

// RunBackfill scans the vault for missing daily notes and, when apply
// is set, creates them. With empty bounds the range runs from the most
// recent note through today; explicit bounds must be given as an
// ISO 8601 pair. A dry run leaves Result nil.
func RunBackfill(ctx context.Context, cfg *Config, startRaw, endRaw string, apply bool) (*BackfillReport, error) {
	logger := cliLogger(slog.LevelWarn)

	core, err := openCore(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer core.Close()

	if !core.vault.Enabled() {
		return nil, apperr.ErrDailyNotesDisabled
	}

	reg, err := core.vault.All(ctx)
	if err != nil {
		return nil, err
	}

	today := date.Today()
	var start, end date.Date
	switch {
	case startRaw == "" && endRaw == "":
		_, last := scan.FirstAndLast(reg, today)
		start, end = last, today
	case startRaw != "" && endRaw != "":
		if start, err = date.Parse(startRaw); err != nil {
			return nil, fmt.Errorf("invalid start date %q, want YYYY-MM-DD", startRaw)
		}
		if end, err = date.Parse(endRaw); err != nil {
			return nil, fmt.Errorf("invalid end date %q, want YYYY-MM-DD", endRaw)
		}
	default:
		return nil, fmt.Errorf("start and end must be given together")
	}

	rep := &BackfillReport{
		Start:   start,
		End:     end,
		Missing: scan.FindMissingDates(reg, start, end),
	}
	if !apply || len(rep.Missing) == 0 {
		return rep, nil
	}

	svc := backfill.NewService(core.vault, core.hist, func(string) {}, logger)
	res, err := svc.CreateAll(ctx, history.TriggerManual, rep.Missing)
	if err != nil {
		return nil, err
	}
	rep.Result = &res
	return rep, nil
}

// StatusReport is the snapshot the status command renders.
type StatusReport struct {
	Enabled   bool
	Folder    string
	Pattern   string
	Notes     int
	First     date.Date
	Last      date.Date
	Today     date.Date
	TodayNote bool
	Missing   []date.Date
	Malformed []string
	Settings  settings.Record
}

// RunStatus scans the vault once and reports where the daily note
// sequence stands.
func RunStatus(ctx context.Context, cfg *Config) (*StatusReport, error) {
	logger := cliLogger(slog.LevelWarn)

	core, err := openCore(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer core.Close()

	st, err := settings.Open(cfg.Settings.Path)
	if err != nil {
		return nil, fmt.Errorf("open settings: %w", err)
	}

	reg, err := core.vault.All(ctx)
	if err != nil {
		return nil, err
	}

	today := date.Today()
	first, last := scan.FirstAndLast(reg, today)
	return &StatusReport{
		Enabled:   core.vault.Enabled(),
		Folder:    cfg.Daily.Folder,
		Pattern:   core.vault.Pattern().String(),
		Notes:     reg.Len(),
		First:     first,
		Last:      last,
		Today:     today,
		TodayNote: reg.Has(today),
		Missing:   scan.FindMissingDates(reg, last, today),
		Malformed: reg.Malformed(),
		Settings:  st.Get(),
	}, nil
}
