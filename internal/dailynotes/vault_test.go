package dailynotes

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/example/daygap/internal/apperr"
	"github.com/example/daygap/internal/date"
	"github.com/example/daygap/internal/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestVault(t *testing.T, cfg VaultConfig) (*Vault, storage.Provider) {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	v, err := NewVault(store, cfg, discardLogger())
	if err != nil {
		t.Fatalf("NewVault: %v", err)
	}
	return v, store
}

func TestVaultAll_ScansAndParses(t *testing.T) {
	v, store := newTestVault(t, VaultConfig{
		Enabled:   true,
		Dir:       "daily",
		Pattern:   "YYYY-MM-DD",
		Malformed: MalformedWarn,
	})
	_ = store.Write("daily/2024-01-01.md", []byte("a"))
	_ = store.Write("daily/2024-01-02.md", []byte("b"))
	_ = store.Write("daily/scratch.md", []byte("not a date"))
	_ = store.Write("elsewhere/2024-01-03.md", []byte("outside the folder"))

	reg, err := v.All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if reg.Len() != 2 {
		t.Errorf("Len = %d, want 2", reg.Len())
	}
	n, ok := reg.Get(date.New(2024, time.January, 2))
	if !ok || n.Path != "daily/2024-01-02.md" {
		t.Errorf("Get = %+v, %v", n, ok)
	}
	first, _ := reg.First()
	last, _ := reg.Last()
	if first != date.New(2024, time.January, 1) || last != date.New(2024, time.January, 2) {
		t.Errorf("First/Last = %v/%v", first, last)
	}
	if len(reg.Malformed()) != 1 || reg.Malformed()[0] != "daily/scratch.md" {
		t.Errorf("Malformed = %v", reg.Malformed())
	}
}

func TestVaultAll_MalformedIgnore(t *testing.T) {
	v, store := newTestVault(t, VaultConfig{
		Enabled:   true,
		Dir:       "daily",
		Pattern:   "YYYY-MM-DD",
		Malformed: MalformedIgnore,
	})
	_ = store.Write("daily/scratch.md", []byte("x"))

	reg, err := v.All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(reg.Malformed()) != 0 {
		t.Errorf("Malformed = %v, want none recorded", reg.Malformed())
	}
}

func TestVaultAll_MalformedError(t *testing.T) {
	v, store := newTestVault(t, VaultConfig{
		Enabled:   true,
		Dir:       "daily",
		Pattern:   "YYYY-MM-DD",
		Malformed: MalformedError,
	})
	_ = store.Write("daily/scratch.md", []byte("x"))

	if _, err := v.All(context.Background()); err == nil {
		t.Error("expected error for undated file")
	}
}

func TestVaultAll_MissingFolderIsEmpty(t *testing.T) {
	v, _ := newTestVault(t, VaultConfig{
		Enabled: true,
		Dir:     "daily",
		Pattern: "YYYY-MM-DD",
	})
	reg, err := v.All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if reg.Len() != 0 {
		t.Errorf("Len = %d, want 0", reg.Len())
	}
	if _, ok := reg.Last(); ok {
		t.Error("Last ok = true for empty vault")
	}
}

func TestVaultCreate(t *testing.T) {
	v, store := newTestVault(t, VaultConfig{
		Enabled: true,
		Dir:     "daily",
		Pattern: "YYYY-MM-DD",
	})
	d := date.New(2024, time.March, 7)

	n, err := v.Create(context.Background(), d)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n.Path != "daily/2024-03-07.md" {
		t.Errorf("Path = %q", n.Path)
	}
	body, err := store.Read(n.Path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(body) != "# 2024-03-07\n" {
		t.Errorf("content = %q", body)
	}

	if _, err := v.Create(context.Background(), d); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("second Create: %v, want ErrAlreadyExists", err)
	}
}

func TestVaultCreate_Template(t *testing.T) {
	v, store := newTestVault(t, VaultConfig{
		Enabled:      true,
		Dir:          "daily",
		Pattern:      "YYYY-MM-DD",
		TemplatePath: "templates/daily.md",
	})
	_ = store.Write("templates/daily.md", []byte("# {{title}}\n\nCreated {{isodate}}\n"))

	n, err := v.Create(context.Background(), date.New(2024, time.March, 7))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	body, _ := store.Read(n.Path)
	want := "# 2024-03-07\n\nCreated 2024-03-07\n"
	if string(body) != want {
		t.Errorf("content = %q, want %q", body, want)
	}
}

func TestVaultCreate_NestedPattern(t *testing.T) {
	v, _ := newTestVault(t, VaultConfig{
		Enabled: true,
		Dir:     "daily",
		Pattern: "YYYY/MM/YYYY-MM-DD",
	})
	d := date.New(2024, time.March, 7)

	n, err := v.Create(context.Background(), d)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n.Path != "daily/2024/03/2024-03-07.md" {
		t.Errorf("Path = %q", n.Path)
	}

	reg, err := v.All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if !reg.Has(d) {
		t.Error("created note missing from rescan")
	}
}

func TestVaultParsePath(t *testing.T) {
	v, _ := newTestVault(t, VaultConfig{
		Enabled: true,
		Dir:     "daily",
		Pattern: "YYYY-MM-DD",
	})

	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"daily/2024-01-05.md", "2024-01-05", true},
		{"daily/scratch.md", "", false},
		{"2024-01-05.md", "", false},
		{"daily/2024-01-05.txt", "", false},
		{"daily/2024-02-30.md", "", false},
	}
	for _, tt := range tests {
		d, ok := v.ParsePath(tt.path)
		if ok != tt.ok {
			t.Errorf("ParsePath(%q) ok = %v, want %v", tt.path, ok, tt.ok)
			continue
		}
		if ok && d.String() != tt.want {
			t.Errorf("ParsePath(%q) = %s, want %s", tt.path, d, tt.want)
		}
	}
}

func TestNewVault_Invalid(t *testing.T) {
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	if _, err := NewVault(store, VaultConfig{Pattern: "MM-DD"}, discardLogger()); err == nil {
		t.Error("expected error for pattern without year")
	}
	if _, err := NewVault(store, VaultConfig{Pattern: "YYYY-MM-DD", Malformed: "loud"}, discardLogger()); err == nil {
		t.Error("expected error for unknown malformed policy")
	}
}
