package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists records to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS session_events (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        ts INTEGER NOT NULL,
        type TEXT NOT NULL,
        session_id TEXT,
        pod_id INTEGER,
        stage TEXT,
        data TEXT
    );`
	index := `CREATE INDEX IF NOT EXISTS session_events_ts ON session_events (ts);`
	for _, stmt := range []string{schema, index} {
		if _, err := db.Exec(stmt); err != nil {
			if cerr := db.Close(); cerr != nil {
				return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
			}
			return nil, err
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the record to the database.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_events (ts, type, session_id, pod_id, stage, data) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Time.UnixNano(), rec.Type, rec.SessionID, rec.PodID, rec.Stage, string(rec.Data))
	return err
}

// Query returns records matching q.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]Record, error) {
	var args []any
	query := `SELECT ts, type, session_id, pod_id, stage, data FROM session_events WHERE 1=1`
	if !q.Start.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, q.End.UnixNano())
	}
	if q.SessionID != "" {
		query += ` AND session_id = ?`
		args = append(args, q.SessionID)
	}
	if q.PodID != 0 {
		query += ` AND pod_id = ?`
		args = append(args, q.PodID)
	}
	if len(q.Types) > 0 {
		query += ` AND type IN (?` + strings.Repeat(`, ?`, len(q.Types)-1) + `)`
		for _, t := range q.Types {
			args = append(args, t)
		}
	}
	query += ` ORDER BY ts, id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []Record
	for rows.Next() {
		var (
			ts                     int64
			typ, session, stage, d sql.NullString
			pod                    sql.NullInt64
		)
		if err := rows.Scan(&ts, &typ, &session, &pod, &stage, &d); err != nil {
			return nil, err
		}
		res = append(res, Record{
			Time:      time.Unix(0, ts).UTC(),
			Type:      typ.String,
			SessionID: session.String,
			PodID:     int(pod.Int64),
			Stage:     stage.String,
			Data:      []byte(d.String),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if q.Limit > 0 && len(res) > q.Limit {
		res = res[len(res)-q.Limit:]
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
