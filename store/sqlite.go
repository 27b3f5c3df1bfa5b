package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/tailored-agentic-units/intake/session"
	"github.com/tailored-agentic-units/intake/store/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite-backed Store at path and applies the embedded
// migrations. Each session is stored as a JSON document alongside an indexed
// status column.
func OpenSQLite(ctx context.Context, path string) (Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite store path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Create(ctx context.Context, sess *session.Session) error {
	if err := checkRecord(sess); err != nil {
		return err
	}
	doc, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, sess.ID, err)
	}

	now := toMillis(time.Now())
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, status, created_at, updated_at, document)
		 VALUES (?, ?, ?, ?, ?)`,
		sess.ID, string(sess.Status), toMillis(sess.CreatedAt), now, string(doc),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, sess.ID)
		}
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, sess.ID, err)
	}
	return nil
}

func (s *sqliteStore) Get(ctx context.Context, id string) (*session.Session, bool, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM sessions WHERE session_id = ?`, id,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s: %v", ErrLoadFailed, id, err)
	}

	sess, err := decodeDocument(doc)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s: %v", ErrLoadFailed, id, err)
	}
	return sess, true, nil
}

func (s *sqliteStore) Update(ctx context.Context, sess *session.Session) error {
	if err := checkRecord(sess); err != nil {
		return err
	}
	doc, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, sess.ID, err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status = ?, updated_at = ?, document = ? WHERE session_id = ?`,
		string(sess.Status), toMillis(time.Now()), string(doc), sess.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, sess.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, sess.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, sess.ID)
	}
	return nil
}

func (s *sqliteStore) List(ctx context.Context) ([]*session.Session, error) {
	return s.query(ctx,
		`SELECT document FROM sessions ORDER BY created_at, session_id`)
}

func (s *sqliteStore) ListByStatus(ctx context.Context, status session.Status) ([]*session.Session, error) {
	return s.query(ctx,
		`SELECT document FROM sessions WHERE status = ? ORDER BY created_at, session_id`,
		string(status))
}

func (s *sqliteStore) CountByStatus(ctx context.Context) (map[session.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM sessions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("%w: count by status: %v", ErrLoadFailed, err)
	}
	defer rows.Close()

	counts := emptyCounts()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("%w: count by status: %v", ErrLoadFailed, err)
		}
		counts[session.Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: count by status: %v", ErrLoadFailed, err)
	}
	return counts, nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) query(ctx context.Context, query string, args ...any) ([]*session.Session, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	defer rows.Close()

	var out []*session.Session
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
		}
		sess, err := decodeDocument(doc)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	return out, nil
}

func decodeDocument(doc string) (*session.Session, error) {
	var sess session.Session
	if err := json.Unmarshal([]byte(doc), &sess); err != nil {
		return nil, err
	}
	if sess.Responses == nil {
		sess.Responses = []session.PatientResponse{}
	}
	return &sess, nil
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
