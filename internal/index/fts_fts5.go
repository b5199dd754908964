//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS logs_fts USING fts5(
			id UNINDEXED,
			title,
			description,
			skills,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, id, title, description, skills string) error {
	_, _ = tx.Exec(`DELETE FROM logs_fts WHERE id = ?`, id)
	_, err := tx.Exec(`INSERT INTO logs_fts (id, title, description, skills) VALUES (?, ?, ?, ?)`,
		id, title, description, skills)
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, id string) {
	_, _ = tx.Exec(`DELETE FROM logs_fts WHERE id = ?`, id)
}

// Search performs an FTS5 full-text search and returns matching results with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT f.id,
		       f.title,
		       l.category,
		       snippet(logs_fts, 2, '<b>', '</b>', '...', 64),
		       l.is_public
		FROM logs_fts f
		JOIN logs l ON l.id = f.id
		WHERE logs_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Title, &r.Category, &r.Snippet, &r.IsPublic); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
