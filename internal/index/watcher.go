package index

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/aoyagi/manabi/internal/checksum"
	"github.com/aoyagi/manabi/internal/store"
)

// SyncedCallback is called after a watcher-driven re-sync of the index.
type SyncedCallback func()

// Watch starts an fsnotify watcher on the data directory and re-syncs the
// index whenever the learning-log file changes on disk (external editors,
// backup restores) until ctx is cancelled. Events are debounced because an
// atomic save surfaces as a create+rename burst, and no-op rewrites are
// skipped by comparing the file checksum against the last one seen. It
// calls cb (if non-nil) after each completed re-sync.
func Watch(ctx context.Context, db *DB, st store.Provider, logger *slog.Logger, cb SyncedCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	logsPath := st.LogsPath()
	dataDir := filepath.Dir(logsPath)
	if err := w.Add(dataDir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("dir", dataDir))

	lastSum := fileChecksum(logsPath)

	// syncTimer debounces bursts of events from atomic file replacement.
	var syncTimer *time.Timer
	var syncCh <-chan time.Time

	scheduleSync := func() {
		if syncTimer == nil {
			syncTimer = time.NewTimer(200 * time.Millisecond)
			syncCh = syncTimer.C
		} else {
			syncTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if syncTimer != nil {
				syncTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-syncCh:
			sum := fileChecksum(logsPath)
			if sum == lastSum {
				logger.Debug("watcher: no content change, skipping sync")
				continue
			}
			lastSum = sum
			if err := Sync(db, st, logger); err != nil {
				logger.Warn("watcher: sync failed", slog.String("error", err.Error()))
				continue
			}
			logger.Debug("watcher: re-synced")
			if cb != nil {
				cb()
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			// Only the learning-log collection matters; profile and chat
			// files have no derived index.
			if filepath.Base(ev.Name) != store.LogsFile {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0 {
				scheduleSync()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// fileChecksum returns the checksum of the file, or "" if it is unreadable.
func fileChecksum(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return checksum.Sum(data)
}
