package leadstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/chatlead/internal/model"
)

// Pool is the subset of pgxpool.Pool used by the store; pgxmock satisfies
// it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "leadstore: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "leadstore: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "leadstore: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id          TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL UNIQUE,
	data        JSONB NOT NULL,
	lead_score  INTEGER NOT NULL DEFAULT 0,
	is_hot_lead BOOLEAN NOT NULL DEFAULT false,
	status      TEXT NOT NULL DEFAULT 'new',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS webhook_subscriptions (
	id      TEXT PRIMARY KEY,
	url     TEXT NOT NULL,
	headers JSONB NOT NULL DEFAULT '{}',
	events  JSONB NOT NULL DEFAULT '{}',
	active  BOOLEAN NOT NULL DEFAULT true
);

CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at);
CREATE INDEX IF NOT EXISTS idx_leads_lead_score ON leads(lead_score);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "leadstore: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) IsDuplicate(ctx context.Context, fp string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM leads WHERE fingerprint = $1)`, fp,
	).Scan(&exists)
	if err != nil {
		return false, eris.Wrap(err, "leadstore: duplicate check")
	}
	return exists, nil
}

func (s *PostgresStore) Insert(ctx context.Context, lead *model.Lead) error {
	data, err := json.Marshal(lead)
	if err != nil {
		return eris.Wrap(err, "leadstore: marshal lead")
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO leads (id, fingerprint, data, lead_score, is_hot_lead, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (fingerprint) DO NOTHING`,
		lead.ID, lead.Fingerprint, data, lead.LeadScore, lead.HotLead, lead.Status,
		lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "leadstore: insert lead %s", lead.ID)
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicateLead
	}
	return nil
}

func (s *PostgresStore) ListActiveWebhooks(ctx context.Context) ([]model.WebhookSubscription, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, url, headers, events, active FROM webhook_subscriptions WHERE active = true`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "leadstore: list webhooks")
	}
	defer rows.Close()

	var subs []model.WebhookSubscription
	for rows.Next() {
		var (
			sub         model.WebhookSubscription
			headersJSON []byte
			eventsJSON  []byte
		)
		if err := rows.Scan(&sub.ID, &sub.URL, &headersJSON, &eventsJSON, &sub.Active); err != nil {
			return nil, eris.Wrap(err, "leadstore: scan webhook row")
		}
		if len(headersJSON) > 0 {
			if err := json.Unmarshal(headersJSON, &sub.Headers); err != nil {
				return nil, eris.Wrapf(err, "leadstore: decode headers for webhook %s", sub.ID)
			}
		}
		if len(eventsJSON) > 0 {
			if err := json.Unmarshal(eventsJSON, &sub.Events); err != nil {
				return nil, eris.Wrapf(err, "leadstore: decode events for webhook %s", sub.ID)
			}
		}
		subs = append(subs, sub)
	}
	return subs, eris.Wrap(rows.Err(), "leadstore: list webhooks")
}
