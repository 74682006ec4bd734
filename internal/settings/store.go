// Package settings persists the user-tunable backfill preferences.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/example/daygap/internal/checksum"
)

// AutoCreateSilentThreshold is the default number of missed days the
// backfill may create without asking first.
const AutoCreateSilentThreshold = 7

// Record holds the user preferences that drive the backfill.
type Record struct {
	// CreateToday turns on creating today's note at startup.
	CreateToday bool `json:"create_today"`
	// BackfillMissed turns on catching up on days missed while the
	// application was not running.
	BackfillMissed bool `json:"backfill_missed"`
	// ConfirmThreshold is the largest number of missed days created
	// without asking; above it a confirmation flow opens instead.
	ConfirmThreshold int `json:"confirm_threshold"`
}

// Defaults returns the out of the box preferences: create today's note,
// leave past days alone, ask above a week of missed days.
func Defaults() Record {
	return Record{
		CreateToday:      true,
		BackfillMissed:   false,
		ConfirmThreshold: AutoCreateSilentThreshold,
	}
}

// Validate validates the record.
func (r Record) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ConfirmThreshold, validation.Required, validation.Min(1), validation.Max(365)),
	)
}

// Store owns the settings file. It loads once at startup and rewrites the
// whole file on every change, so the file always reflects the last
// accepted record.
type Store struct {
	path string

	mu  sync.RWMutex
	rec Record
}

// Open reads the settings file at path. A missing file is not an error:
// the store starts from defaults and creates the file on the first
// change. Unknown keys in the file are ignored and missing keys keep
// their default, so records written by older or newer builds load
// cleanly.
func Open(path string) (*Store, error) {
	s := &Store{path: path, rec: Defaults()}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("settings: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &s.rec); err != nil {
		return nil, fmt.Errorf("settings: parse %s: %w", path, err)
	}
	if err := s.rec.Validate(); err != nil {
		return nil, fmt.Errorf("settings: %s: %w", path, err)
	}
	return s, nil
}

// Get returns the current preferences.
func (s *Store) Get() Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec
}

// Update applies mutate to a copy of the current record, validates it,
// and persists it. The stored record changes only if both steps succeed.
func (s *Store) Update(mutate func(*Record)) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.rec
	mutate(&next)
	if err := next.Validate(); err != nil {
		return s.rec, fmt.Errorf("settings: %w", err)
	}
	if err := s.save(next); err != nil {
		return s.rec, err
	}
	s.rec = next
	return next, nil
}

// Checksum fingerprints the current record for optimistic concurrency on
// the preference surface.
func (s *Store) Checksum() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, _ := json.Marshal(s.rec)
	return checksum.Sum(data)
}

// save writes the record with the same temp-then-rename dance the vault
// uses, so a crash cannot leave a half-written settings file behind.
func (s *Store) save(rec Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("settings: encode: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("settings: create dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".daygap-settings-*")
	if err != nil {
		return fmt.Errorf("settings: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("settings: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("settings: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("settings: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("settings: rename into place: %w", err)
	}
	return nil
}
