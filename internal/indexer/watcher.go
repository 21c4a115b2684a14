package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/wlfogle/OmnioSearch/internal/apperr"
	"github.com/wlfogle/OmnioSearch/internal/discover"
	"github.com/wlfogle/OmnioSearch/internal/fingerprint"
)

// EventCallback is called after a watcher-driven index change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, path string)

// Watch starts an fsnotify watcher on roots and keeps the index current
// until ctx is cancelled. It calls cb (if non-nil) after each successful
// index mutation.
//
// Missing or unreadable roots are logged and skipped; Watch fails only
// when no directory at all could be watched. New directories created at
// runtime are automatically added to the watch list. Rename events
// trigger a reconciliation pass that removes stale index entries whose
// files no longer exist on disk.
func (ix *Indexer) Watch(ctx context.Context, roots []string, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	watched := 0
	for _, root := range roots {
		n, addErr := addDirsRecursive(w, root)
		if addErr != nil {
			ix.logger.Warn("watcher: root unavailable, skipping",
				slog.String("root", root),
				slog.String("error", addErr.Error()))
		}
		watched += n
	}
	if watched == 0 {
		return fmt.Errorf("watcher: no roots could be watched: %w", apperr.ErrDiscovery)
	}

	ix.logger.Info("watcher: started", slog.Int("roots", len(roots)), slog.Int("dirs", watched))

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
			ix.logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			ix.reconcile(ctx, roots, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			path := ev.Name

			// --- Handle new directories: add to watcher ---
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
					if _, addErr := addDirsRecursive(w, path); addErr != nil {
						ix.logger.Warn("watcher: add new dir failed",
							slog.String("path", path),
							slog.String("error", addErr.Error()))
					} else {
						ix.logger.Debug("watcher: watching new dir", slog.String("path", path))
					}
					// Index any files already present in the new directory.
					ix.indexNewDir(ctx, path, cb)
					continue
				}
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				if !ix.upsertPath(path) {
					continue
				}
				kind := "updated"
				if ev.Op&fsnotify.Create != 0 {
					kind = "created"
				}
				ix.logger.Debug("watcher: indexed", slog.String("path", path), slog.String("op", kind))
				if cb != nil {
					cb(kind, path)
				}

			case ev.Op&fsnotify.Remove != 0:
				if !ix.deletePath(path) {
					continue
				}
				ix.logger.Debug("watcher: deleted", slog.String("path", path))
				if cb != nil {
					cb("deleted", path)
				}

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the OLD path only. The new
				// path will arrive as a separate Create event (if it
				// stays within a watched dir). We delete the old entry
				// immediately and schedule a short reconciliation pass
				// to catch any stragglers.
				if ix.deletePath(path) {
					ix.logger.Debug("watcher: rename old deleted", slog.String("path", path))
					if cb != nil {
						cb("deleted", path)
					}
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			ix.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// upsertPath indexes a single file immediately, with an immediate full-text
// commit so watcher changes become searchable without waiting for a bulk
// run. Directories and policy-excluded files report false.
func (ix *Indexer) upsertPath(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if !ix.opts.Policy.Allows(path, info) {
		return false
	}

	rec := ix.buildRecord(discover.Candidate{Path: path, Info: info})
	id, err := ix.db.Upsert(rec)
	if err != nil {
		ix.logger.Warn("watcher: upsert failed", slog.String("path", path), slog.String("error", err.Error()))
		return false
	}
	rec.ID = id
	if err := ix.ft.AddOrReplace(documentFor(rec, "")); err != nil {
		ix.logger.Warn("watcher: fulltext add failed", slog.String("path", path), slog.String("error", err.Error()))
	}
	if err := ix.ft.Commit(); err != nil {
		ix.logger.Warn("watcher: fulltext commit failed", slog.String("error", err.Error()))
	}
	return true
}

// deletePath removes a single file from both indexes. Absent paths report
// false without an error.
func (ix *Indexer) deletePath(path string) bool {
	rec, err := ix.db.GetByPath(path)
	if err != nil || rec == nil {
		return false
	}
	if err := ix.db.Delete(rec.Path); err != nil {
		ix.logger.Warn("watcher: delete failed", slog.String("path", path), slog.String("error", err.Error()))
		return false
	}
	ix.ft.DeleteByID(rec.ID)
	if err := ix.ft.Commit(); err != nil {
		ix.logger.Warn("watcher: fulltext commit failed", slog.String("error", err.Error()))
	}
	return true
}

// reconcile does a lightweight sync using batch lookups: removes index
// entries without a corresponding file on disk and indexes on-disk files
// whose fingerprint changed or that are missing from the index.
func (ix *Indexer) reconcile(ctx context.Context, roots []string, cb EventCallback) {
	known, err := ix.db.AllFingerprints()
	if err != nil {
		ix.logger.Warn("reconcile: all fingerprints failed", slog.String("error", err.Error()))
		return
	}

	candidates, err := ix.disc.Discover(ctx, roots, ix.opts.Policy)
	if err != nil {
		ix.logger.Warn("reconcile: walk failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(candidates))
	for _, cand := range candidates {
		fp, fpErr := fingerprint.File(cand.Path, cand.Info)
		if fpErr != nil {
			continue
		}
		disk[cand.Path] = fp
	}

	for p := range known {
		if !underAny(p, roots) {
			continue
		}
		if _, ok := disk[p]; !ok {
			if ix.deletePath(p) {
				ix.logger.Debug("reconcile: removed stale", slog.String("path", p))
				if cb != nil {
					cb("deleted", p)
				}
			}
		}
	}

	for p, fp := range disk {
		if known[p] == fp {
			continue
		}
		if ix.upsertPath(p) {
			ix.logger.Debug("reconcile: indexed new", slog.String("path", p))
			if cb != nil {
				cb("created", p)
			}
		}
	}
}

// indexNewDir indexes any allowed files found in a newly created directory.
func (ix *Indexer) indexNewDir(ctx context.Context, dirPath string, cb EventCallback) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil || d.IsDir() {
			return nil
		}
		if ix.upsertPath(path) {
			ix.logger.Debug("watcher: indexed from new dir", slog.String("path", path))
			if cb != nil {
				cb("created", path)
			}
		}
		return nil
	})
}

func underAny(path string, roots []string) bool {
	for _, root := range roots {
		rel, err := filepath.Rel(root, path)
		if err == nil && (rel == "." || filepath.IsLocal(rel)) {
			return true
		}
	}
	return false
}

// addDirsRecursive adds root and all its subdirectories to the watcher,
// reporting how many directories were added. Unreadable subdirectories
// are skipped; the error is non-nil only when root itself is unreadable.
func addDirsRecursive(w *fsnotify.Watcher, root string) (int, error) {
	added := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if addErr := w.Add(path); addErr != nil {
				return nil
			}
			added++
		}
		return nil
	})
	return added, err
}
