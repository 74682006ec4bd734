package dailynotes

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/example/daygap/internal/apperr"
	"github.com/example/daygap/internal/date"
	"github.com/example/daygap/internal/storage"
)

// Ext is the filename extension of every note in the vault.
const Ext = ".md"

// MalformedPolicy controls how Vault treats files in the daily notes
// folder whose names do not parse as dates.
type MalformedPolicy string

const (
	// MalformedIgnore skips undated files silently.
	MalformedIgnore MalformedPolicy = "ignore"
	// MalformedWarn skips undated files but logs and reports each one.
	MalformedWarn MalformedPolicy = "warn"
	// MalformedError fails the scan on the first undated file.
	MalformedError MalformedPolicy = "error"
)

// VaultConfig carries the vault-level daily note settings.
type VaultConfig struct {
	Enabled      bool
	Dir          string // vault-relative notes folder, "" for the vault root
	Pattern      string
	TemplatePath string // vault-relative template file, "" for the built-in
	Malformed    MalformedPolicy
}

// Vault is the filesystem-backed Provider.
type Vault struct {
	store     storage.Provider
	dir       string
	pattern   *Pattern
	enabled   bool
	template  string
	malformed MalformedPolicy
	log       *slog.Logger
}

var _ Provider = (*Vault)(nil)

// NewVault builds a Vault over the given store. The pattern is compiled
// here so a bad one surfaces at startup, not at the first scan.
func NewVault(store storage.Provider, cfg VaultConfig, logger *slog.Logger) (*Vault, error) {
	p, err := CompilePattern(cfg.Pattern)
	if err != nil {
		return nil, err
	}
	pol := cfg.Malformed
	if pol == "" {
		pol = MalformedWarn
	}
	switch pol {
	case MalformedIgnore, MalformedWarn, MalformedError:
	default:
		return nil, fmt.Errorf("dailynotes: unknown malformed policy %q", cfg.Malformed)
	}
	return &Vault{
		store:     store,
		dir:       strings.Trim(cfg.Dir, "/"),
		pattern:   p,
		enabled:   cfg.Enabled,
		template:  cfg.TemplatePath,
		malformed: pol,
		log:       logger,
	}, nil
}

// Enabled implements Provider.
func (v *Vault) Enabled() bool { return v.enabled }

// Pattern implements Provider.
func (v *Vault) Pattern() *Pattern { return v.pattern }

// ParsePath reports whether the vault-relative path rel names a daily
// note, and if so for which date.
func (v *Vault) ParsePath(rel string) (date.Date, bool) {
	rel = strings.Trim(rel, "/")
	if !strings.HasSuffix(rel, Ext) {
		return date.Date{}, false
	}
	if v.dir != "" && !strings.HasPrefix(rel, v.dir+"/") {
		return date.Date{}, false
	}
	d, err := v.pattern.Parse(strings.TrimSuffix(v.relName(rel), Ext))
	if err != nil {
		return date.Date{}, false
	}
	return d, true
}

// All walks the daily notes folder and parses every markdown file name.
// Two distinct names can never parse to the same date because Parse
// requires Format to reproduce the name, so the snapshot needs no
// duplicate handling.
func (v *Vault) All(ctx context.Context) (*Registry, error) {
	files, err := v.store.List(v.dir)
	if err != nil {
		return nil, fmt.Errorf("dailynotes: list %q: %w", v.dir, err)
	}
	var notes []Note
	var malformed []string
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(v.relName(f.Path), Ext)
		d, err := v.pattern.Parse(name)
		if err != nil {
			switch v.malformed {
			case MalformedError:
				return nil, fmt.Errorf("dailynotes: undated file %q: %w", f.Path, err)
			case MalformedWarn:
				v.log.Warn("skipping undated file in daily notes folder",
					slog.String("path", f.Path))
				malformed = append(malformed, f.Path)
			}
			continue
		}
		notes = append(notes, Note{Date: d, Path: f.Path})
	}
	return NewRegistry(notes, malformed), nil
}

// Create implements Provider. Nested patterns get their folders created on
// demand by the store.
func (v *Vault) Create(ctx context.Context, d date.Date) (Note, error) {
	if err := ctx.Err(); err != nil {
		return Note{}, err
	}
	rel := v.notePath(d)
	ok, err := v.store.Exists(rel)
	if err != nil {
		return Note{}, fmt.Errorf("dailynotes: stat %q: %w", rel, err)
	}
	if ok {
		return Note{}, fmt.Errorf("dailynotes: %q: %w", rel, apperr.ErrAlreadyExists)
	}
	if err := v.store.Write(rel, v.render(d)); err != nil {
		return Note{}, fmt.Errorf("dailynotes: write %q: %w", rel, err)
	}
	return Note{Date: d, Path: rel}, nil
}

// notePath returns the vault-relative path of the note for d.
func (v *Vault) notePath(d date.Date) string {
	rel := v.pattern.Format(d) + Ext
	if v.dir != "" {
		rel = path.Join(v.dir, rel)
	}
	return rel
}

// relName strips the notes folder prefix from a listed path.
func (v *Vault) relName(p string) string {
	if v.dir == "" {
		return p
	}
	return strings.TrimPrefix(p, v.dir+"/")
}

// render produces the new note's content, preferring the configured
// template file over the built-in one. A configured but unreadable
// template degrades to the default with a warning rather than blocking
// note creation.
func (v *Vault) render(d date.Date) []byte {
	if v.template != "" {
		body, err := v.store.Read(v.template)
		if err == nil {
			return RenderTemplate(string(body), d, v.pattern)
		}
		v.log.Warn("daily note template not readable, using default",
			slog.String("path", v.template),
			slog.String("error", err.Error()))
	}
	return RenderTemplate(DefaultTemplate, d, v.pattern)
}
