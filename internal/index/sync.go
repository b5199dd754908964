package index

import (
	"log/slog"

	"github.com/aoyagi/manabi/internal/store"
)

// Sync reconciles the index against the learning-log collection:
//   - new/changed logs (by row checksum) are upserted
//   - logs removed from the collection are deleted from the index
func Sync(db *DB, st store.Provider, logger *slog.Logger) error {
	logs, err := st.LoadLogs()
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	present := make(map[string]struct{}, len(logs))
	for _, l := range logs {
		row := RowFromLog(l)
		present[row.ID] = struct{}{}

		if checksums[row.ID] == row.Checksum {
			continue
		}
		if err := db.UpsertLog(row); err != nil {
			logger.Warn("sync: upsert failed", slog.String("id", row.ID), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("id", row.ID))
		}
	}

	// Remove stale entries.
	for id := range checksums {
		if _, ok := present[id]; !ok {
			if err := db.DeleteLog(id); err != nil {
				logger.Warn("sync: delete failed", slog.String("id", id), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("id", id))
			}
		}
	}

	return nil
}
