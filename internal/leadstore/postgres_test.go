package leadstore

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/chatlead/internal/model"
)

// newMockStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return &PostgresStore{pool: mock}, mock
}

func testLead() *model.Lead {
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	return &model.Lead{
		ID:          "lead-1",
		Fingerprint: "abc123",
		Name:        "Acme",
		LeadScore:   85,
		HotLead:     true,
		Status:      model.StatusNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestIsDuplicate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM leads WHERE fingerprint = \$1\)`).
		WithArgs("abc123").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	dup, err := s.IsDuplicate(context.Background(), "abc123")
	require.NoError(t, err)
	assert.True(t, dup)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsDuplicateMiss(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("fresh").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	dup, err := s.IsDuplicate(context.Background(), "fresh")
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestInsertLead(t *testing.T) {
	s, mock := newMockStore(t)
	lead := testLead()

	mock.ExpectExec(`INSERT INTO leads`).
		WithArgs(lead.ID, lead.Fingerprint, pgxmock.AnyArg(), lead.LeadScore,
			lead.HotLead, lead.Status, lead.CreatedAt, lead.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.Insert(context.Background(), lead))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertLeadConflictReturnsDuplicate(t *testing.T) {
	s, mock := newMockStore(t)
	lead := testLead()

	mock.ExpectExec(`INSERT INTO leads`).
		WithArgs(lead.ID, lead.Fingerprint, pgxmock.AnyArg(), lead.LeadScore,
			lead.HotLead, lead.Status, lead.CreatedAt, lead.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	err := s.Insert(context.Background(), lead)
	assert.ErrorIs(t, err, ErrDuplicateLead)
}

func TestListActiveWebhooks(t *testing.T) {
	s, mock := newMockStore(t)

	rows := pgxmock.NewRows([]string{"id", "url", "headers", "events", "active"}).
		AddRow("wh-1", "https://example.com/hook",
			[]byte(`{"X-Token":"t"}`),
			[]byte(`{"newLead":true,"hotLead":true}`),
			true)

	mock.ExpectQuery(`SELECT id, url, headers, events, active FROM webhook_subscriptions`).
		WillReturnRows(rows)

	subs, err := s.ListActiveWebhooks(context.Background())
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "wh-1", subs[0].ID)
	assert.Equal(t, "t", subs[0].Headers["X-Token"])
	assert.True(t, subs[0].Events.NewLead)
	assert.True(t, subs[0].Events.HotLead)
	assert.False(t, subs[0].Events.EnterpriseLead)
}

func TestListActiveWebhooksEmpty(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, url, headers, events, active FROM webhook_subscriptions`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "url", "headers", "events", "active"}))

	subs, err := s.ListActiveWebhooks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, subs)
}
