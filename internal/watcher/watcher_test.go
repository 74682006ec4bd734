package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/example/daygap/internal/dailynotes"
	"github.com/example/daygap/internal/date"
	"github.com/example/daygap/internal/storage"
	"github.com/example/daygap/internal/testutil"
)

// watcherTestEnv sets up a vault dir and a daily notes vault for watcher
// tests.
func watcherTestEnv(t *testing.T, pattern string) (string, *dailynotes.Vault) {
	t.Helper()
	vaultDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(vaultDir, "daily"), 0o755); err != nil {
		t.Fatal(err)
	}
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	vault, err := dailynotes.NewVault(store, dailynotes.VaultConfig{
		Enabled: true,
		Dir:     "daily",
		Pattern: pattern,
	}, testutil.Logger())
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, vault
}

// recorder collects watcher callbacks for assertions.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) callback(kind, path string, day date.Date) {
	r.mu.Lock()
	r.events = append(r.events, kind+":"+path+":"+day.String())
	r.mu.Unlock()
}

func (r *recorder) has(ev string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == ev {
			return true
		}
	}
	return false
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatcher_NewNoteReported(t *testing.T) {
	vaultDir, vault := watcherTestEnv(t, "YYYY-MM-DD")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &recorder{}
	go Watch(ctx, vault, vaultDir, testutil.Logger(), rec.callback)

	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(vaultDir, "daily", "2024-01-05.md"), []byte("# 2024-01-05"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("created:daily/2024-01-05.md:2024-01-05")
	}, "expected created callback for new daily note")
}

func TestWatcher_UndatedAndOutsideFilesIgnored(t *testing.T) {
	vaultDir, vault := watcherTestEnv(t, "YYYY-MM-DD")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &recorder{}
	go Watch(ctx, vault, vaultDir, testutil.Logger(), rec.callback)

	time.Sleep(100 * time.Millisecond)

	// Undated file inside the folder, dated name outside it, and a
	// content-only write to an existing daily note.
	_ = os.WriteFile(filepath.Join(vaultDir, "daily", "scratch.md"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(vaultDir, "2024-01-05.md"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(vaultDir, "daily", "2024-01-06.md"), []byte("# 2024-01-06"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("created:daily/2024-01-06.md:2024-01-06")
	}, "expected created callback for the dated note")

	_ = os.WriteFile(filepath.Join(vaultDir, "daily", "2024-01-06.md"), []byte("# 2024-01-06\nedited"), 0o644)
	time.Sleep(300 * time.Millisecond)

	if got := rec.len(); got != 1 {
		t.Errorf("events = %d, want 1 (undated files and edits ignored)", got)
	}
}

func TestWatcher_NewDirWatched(t *testing.T) {
	vaultDir, vault := watcherTestEnv(t, "YYYY/MM/YYYY-MM-DD")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &recorder{}
	go Watch(ctx, vault, vaultDir, testutil.Logger(), rec.callback)

	time.Sleep(100 * time.Millisecond)

	subDir := filepath.Join(vaultDir, "daily", "2024", "03")
	_ = os.MkdirAll(subDir, 0o755)

	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(subDir, "2024-03-07.md"), []byte("# 2024-03-07"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("created:daily/2024/03/2024-03-07.md:2024-03-07")
	}, "note in new subdir not reported by watcher")
}

func TestWatcher_DeleteReported(t *testing.T) {
	vaultDir, vault := watcherTestEnv(t, "YYYY-MM-DD")

	// Present before the watcher starts, so it lands in the seed snapshot.
	_ = os.WriteFile(filepath.Join(vaultDir, "daily", "2024-01-05.md"), []byte("# 2024-01-05"), 0o644)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &recorder{}
	go Watch(ctx, vault, vaultDir, testutil.Logger(), rec.callback)
	time.Sleep(100 * time.Millisecond)

	_ = os.Remove(filepath.Join(vaultDir, "daily", "2024-01-05.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("deleted:daily/2024-01-05.md:2024-01-05")
	}, "expected deleted callback for removed daily note")
}

func TestWatcher_RenameReconciles(t *testing.T) {
	vaultDir, vault := watcherTestEnv(t, "YYYY-MM-DD")

	_ = os.WriteFile(filepath.Join(vaultDir, "daily", "2024-01-05.md"), []byte("# 2024-01-05"), 0o644)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &recorder{}
	go Watch(ctx, vault, vaultDir, testutil.Logger(), rec.callback)
	time.Sleep(100 * time.Millisecond)

	_ = os.Rename(
		filepath.Join(vaultDir, "daily", "2024-01-05.md"),
		filepath.Join(vaultDir, "daily", "2024-01-06.md"),
	)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("deleted:daily/2024-01-05.md:2024-01-05") &&
			rec.has("created:daily/2024-01-06.md:2024-01-06")
	}, "rename should report old date deleted and new date created")
}
