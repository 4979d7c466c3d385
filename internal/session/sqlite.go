package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// consumedTTL is how long a consumed session row lingers before purge.
const consumedTTL = 60 * time.Second

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "session: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "session: exec %s", pragma)
		}
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// WithNow sets a fixed clock for testing.
func (s *SQLiteStore) WithNow(now func() time.Time) *SQLiteStore {
	s.now = now
	return s
}

const sessionMigration = `
CREATE TABLE IF NOT EXISTS chat_sessions (
	key        TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	processed  INTEGER NOT NULL DEFAULT 0,
	expires_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS run_locks (
	name       TEXT PRIMARY KEY,
	expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chat_sessions_expires_at ON chat_sessions(expires_at);
`

func (s *SQLiteStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sessionMigration)
	return eris.Wrap(err, "session: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// purge removes rows that expired more than consumedTTL ago. Recently
// expired rows are kept so TTL can still report a negative remainder,
// mirroring a cache that has not evicted yet.
func (s *SQLiteStore) purge(ctx context.Context) error {
	cutoff := s.now().Add(-consumedTTL).Unix()
	_, err := s.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE expires_at < ?`, cutoff)
	return eris.Wrap(err, "session: purge expired")
}

func (s *SQLiteStore) ScanKeys(ctx context.Context) ([]string, error) {
	if err := s.purge(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM chat_sessions WHERE processed = 0 AND key LIKE ? ORDER BY key`,
		KeyPrefix+"%",
	)
	if err != nil {
		return nil, eris.Wrap(err, "session: scan keys")
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, eris.Wrap(err, "session: scan key row")
		}
		keys = append(keys, k)
	}
	return keys, eris.Wrap(rows.Err(), "session: scan keys")
}

func (s *SQLiteStore) TTL(ctx context.Context, key string) (int, error) {
	var expiresAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT expires_at FROM chat_sessions WHERE key = ?`, key,
	).Scan(&expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, eris.Wrapf(err, "session: ttl %s", key)
	}
	return int(expiresAt - s.now().Unix()), nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM chat_sessions WHERE key = ?`, key,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", eris.Wrapf(err, "session: get %s", key)
	}
	return payload, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key, payload string, ttl time.Duration) error {
	expiresAt := s.now().Add(ttl).Unix()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (key, payload, processed, expires_at) VALUES (?, ?, 0, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, processed = 0, expires_at = excluded.expires_at`,
		key, payload, expiresAt,
	)
	return eris.Wrapf(err, "session: put %s", key)
}

func (s *SQLiteStore) MarkProcessed(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE chat_sessions SET processed = 1, expires_at = ? WHERE key = ?`,
		s.now().Add(consumedTTL).Unix(), key,
	)
	if err != nil {
		return eris.Wrapf(err, "session: mark processed %s", key)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "session: mark processed %s", key)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) AcquireRunLock(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	now := s.now().Unix()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO run_locks (name, expires_at) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET expires_at = excluded.expires_at
		 WHERE run_locks.expires_at <= ?`,
		name, s.now().Add(ttl).Unix(), now,
	)
	if err != nil {
		return false, eris.Wrapf(err, "session: acquire run lock %s", name)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrapf(err, "session: acquire run lock %s", name)
	}
	return n > 0, nil
}

func (s *SQLiteStore) ReleaseRunLock(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM run_locks WHERE name = ?`, name)
	return eris.Wrapf(err, "session: release run lock %s", name)
}
