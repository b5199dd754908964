package index

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aoyagi/manabi/internal/checksum"
	"github.com/aoyagi/manabi/internal/models"
)

// LogRow represents a row in the logs table.
type LogRow struct {
	ID          string
	Title       string
	Description string
	Category    string
	Skills      []string
	IsPublic    bool
	Checksum    string
	CreatedAt   time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Snippet  string `json:"snippet"`
	IsPublic bool   `json:"is_public"`
}

// RowFromLog flattens a learning log into its index row. The checksum
// covers the full serialized record so Sync can detect any field change.
func RowFromLog(l models.LearningLog) LogRow {
	names := make([]string, len(l.Skills))
	for i, s := range l.Skills {
		names[i] = s.Name
	}
	data, _ := json.Marshal(l)
	return LogRow{
		ID:          l.ID.String(),
		Title:       l.Title,
		Description: l.Description,
		Category:    string(l.Category),
		Skills:      names,
		IsPublic:    l.IsPublic,
		Checksum:    checksum.Sum(data),
		CreatedAt:   l.CreatedAt,
	}
}

// UpsertLog inserts or replaces a log row and its FTS entry within a transaction.
func (db *DB) UpsertLog(r LogRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	skillsJSON, _ := json.Marshal(r.Skills)

	_, err = tx.Exec(`
		INSERT INTO logs (id, title, description, category, skills, is_public, checksum, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title       = excluded.title,
			description = excluded.description,
			category    = excluded.category,
			skills      = excluded.skills,
			is_public   = excluded.is_public,
			checksum    = excluded.checksum,
			created_at  = excluded.created_at
	`, r.ID, r.Title, r.Description, r.Category, string(skillsJSON), r.IsPublic, r.Checksum, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert log: %w", err)
	}

	// FTS upsert (no-op when the FTS5 tag is absent).
	if err := ftsUpsert(tx, r.ID, r.Title, r.Description, strings.Join(r.Skills, " ")); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteLog removes a log row and its FTS entry.
func (db *DB) DeleteLog(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, id)
	_, _ = tx.Exec(`DELETE FROM logs WHERE id = ?`, id)

	return tx.Commit()
}

// AllChecksums returns the stored checksum for every indexed log.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT id, checksum FROM logs`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var id, cs string
		if err := rows.Scan(&id, &cs); err != nil {
			return nil, err
		}
		out[id] = cs
	}
	return out, rows.Err()
}

// Count returns the number of indexed logs.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM logs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}
