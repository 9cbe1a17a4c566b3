package replay

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/eringen/routeweb/gateway"
)

// SQLiteStore keeps slots in a SQLite table so they survive a restart.
type SQLiteStore struct {
	db     *sql.DB
	closed atomic.Bool
}

// NewSQLiteStore opens (or creates) the database at path and ensures the
// slot table exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &SQLiteStore{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS replay_slots (
    tab TEXT PRIMARY KEY,
    payload BLOB NOT NULL,
    published_at INTEGER NOT NULL
);
`)
	return err
}

func (s *SQLiteStore) Publish(ctx context.Context, tab string, result *gateway.RouteResult) error {
	if s.closed.Load() {
		return ErrClosed
	}
	data, err := encode(result)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO replay_slots (tab, payload, published_at) VALUES (?, ?, ?)
		ON CONFLICT(tab) DO UPDATE SET payload = excluded.payload, published_at = excluded.published_at`,
		tab, data, time.Now().Unix())
	return s.wrap(err)
}

func (s *SQLiteStore) Consume(ctx context.Context, tab string) (*gateway.RouteResult, bool, error) {
	if s.closed.Load() {
		return nil, false, ErrClosed
	}
	var data []byte
	err := s.db.QueryRowContext(ctx, `DELETE FROM replay_slots WHERE tab = ? RETURNING payload`, tab).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, s.wrap(err)
	}
	r, ok := decode(data)
	return r, ok, nil
}

func (s *SQLiteStore) Purge(ctx context.Context, live func(tab string) bool) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `SELECT tab FROM replay_slots`)
	if err != nil {
		return 0, s.wrap(err)
	}
	var stale []string
	for rows.Next() {
		var tab string
		if err := rows.Scan(&tab); err != nil {
			rows.Close()
			return 0, s.wrap(err)
		}
		if !live(tab) {
			stale = append(stale, tab)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, s.wrap(err)
	}

	n := 0
	for _, tab := range stale {
		res, err := s.db.ExecContext(ctx, `DELETE FROM replay_slots WHERE tab = ?`, tab)
		if err != nil {
			return n, s.wrap(err)
		}
		if affected, _ := res.RowsAffected(); affected > 0 {
			n++
		}
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// wrap maps failures that raced with Close to ErrClosed.
func (s *SQLiteStore) wrap(err error) error {
	if err != nil && s.closed.Load() {
		return ErrClosed
	}
	return err
}
