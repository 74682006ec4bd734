// Package watcher mirrors daily note file activity into change events.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/example/daygap/internal/dailynotes"
	"github.com/example/daygap/internal/date"
)

// EventCallback is called for each observed daily note change.
// kind is "created" or "deleted".
type EventCallback func(kind string, path string, day date.Date)

// Watch starts an fsnotify watcher on the vault root and reports daily
// note changes until ctx is cancelled. Files whose names do not match
// the daily note pattern are ignored, as are content-only writes.
//
// New directories created at runtime are automatically added to the watch
// list. Rename events trigger a reconciliation pass that compares the
// watcher's view against a fresh vault scan.
func Watch(ctx context.Context, vault *dailynotes.Vault, vaultRoot string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Dirs are watched before the seed snapshot is taken, so a note
	// created in between still arrives as an event.
	if err := addDirsRecursive(w, vaultRoot); err != nil {
		return err
	}
	known, err := snapshot(ctx, vault)
	if err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", vaultRoot))

	emit := func(kind, path string, day date.Date) {
		logger.Debug("watcher: "+kind,
			slog.String("path", path),
			slog.String("date", day.String()))
		if cb != nil {
			cb(kind, path, day)
		}
	}

	// reconcileTimer is used to debounce rename reconciliation.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			known = reconcile(ctx, vault, known, logger, emit)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			// --- Handle new directories: add to watcher ---
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					// Report any daily notes already in the new directory.
					scanNewDir(vault, vaultRoot, absPath, known, emit)
					continue
				}
			}

			// Only process .md files from here on.
			if !strings.HasSuffix(absPath, dailynotes.Ext) {
				continue
			}

			rel, relErr := filepath.Rel(vaultRoot, absPath)
			if relErr != nil {
				continue
			}

			switch {
			case ev.Op&fsnotify.Create != 0:
				day, isDaily := vault.ParsePath(rel)
				if !isDaily {
					continue
				}
				if _, seen := known[rel]; seen {
					continue
				}
				known[rel] = day
				emit("created", rel, day)

			case ev.Op&fsnotify.Remove != 0:
				day, seen := known[rel]
				if !seen {
					continue
				}
				delete(known, rel)
				emit("deleted", rel, day)

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the OLD path only. The new
				// path will arrive as a separate Create event (if it
				// stays within a watched dir). We drop the old entry
				// immediately and schedule a short reconciliation pass
				// to catch any stragglers.
				if day, seen := known[rel]; seen {
					delete(known, rel)
					emit("deleted", rel, day)
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcile replaces the watcher's view with a fresh vault scan and emits
// events for the differences.
func reconcile(ctx context.Context, vault *dailynotes.Vault, known map[string]date.Date, logger *slog.Logger, emit EventCallback) map[string]date.Date {
	fresh, err := snapshot(ctx, vault)
	if err != nil {
		logger.Warn("reconcile: scan failed", slog.String("error", err.Error()))
		return known
	}

	for p, day := range known {
		if _, ok := fresh[p]; !ok {
			logger.Debug("reconcile: removed stale", slog.String("path", p))
			emit("deleted", p, day)
		}
	}
	for p, day := range fresh {
		if _, ok := known[p]; !ok {
			logger.Debug("reconcile: found new", slog.String("path", p))
			emit("created", p, day)
		}
	}
	return fresh
}

// scanNewDir reports daily notes already present in a newly created
// directory.
func scanNewDir(vault *dailynotes.Vault, vaultRoot, dirPath string, known map[string]date.Date, emit EventCallback) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, dailynotes.Ext) {
			return nil
		}
		rel, relErr := filepath.Rel(vaultRoot, path)
		if relErr != nil {
			return nil
		}
		day, isDaily := vault.ParsePath(rel)
		if !isDaily {
			return nil
		}
		if _, seen := known[rel]; seen {
			return nil
		}
		known[rel] = day
		emit("created", rel, day)
		return nil
	})
}

// snapshot builds the path to date view of the daily notes on disk.
func snapshot(ctx context.Context, vault *dailynotes.Vault) (map[string]date.Date, error) {
	reg, err := vault.All(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[string]date.Date, reg.Len())
	for _, n := range reg.Notes() {
		m[n.Path] = n.Date
	}
	return m, nil
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
