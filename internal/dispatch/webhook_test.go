package dispatch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/chatlead/internal/model"
	"github.com/sells-group/chatlead/internal/settings"
)

func TestDelivererQueryParams(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	lead := testLead()
	lead.Phone = "+15551234567"
	lead.Email = "jane@acme.test"
	lead.Product = "widgets"
	lead.Summary = "wants a quote"
	lead.SessionID = "sess-9"

	sub := model.WebhookSubscription{
		ID:      "sub-1",
		URL:     srv.URL + "/hook?source=crm",
		Headers: map[string]string{"X-Api-Key": "secret"},
	}

	err := NewDeliverer().Deliver(context.Background(), sub, lead, model.EventHotLead)
	require.NoError(t, err)
	require.NotNil(t, got)

	q := got.URL.Query()
	assert.Equal(t, "crm", q.Get("source"))
	assert.Equal(t, "hot_lead", q.Get("event"))
	assert.Equal(t, "lead-1", q.Get("lead_id"))
	assert.Equal(t, "Jane Doe", q.Get("name"))
	assert.Equal(t, "Acme", q.Get("company_name"))
	assert.Equal(t, "+15551234567", q.Get("phone"))
	assert.Equal(t, "jane@acme.test", q.Get("email"))
	assert.Equal(t, "85", q.Get("lead_score"))
	assert.Equal(t, "true", q.Get("is_hot_lead"))
	assert.Equal(t, "false", q.Get("is_enterprise"))
	assert.NotEmpty(t, q.Get("timestamp"))
	assert.Equal(t, "secret", got.Header.Get("X-Api-Key"))
}

func TestDelivererNon2xxIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewDeliverer().Deliver(context.Background(), model.WebhookSubscription{ID: "sub-1", URL: srv.URL}, testLead(), model.EventNewLead)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestDispatchWebhooksEventIntersection(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Query().Get("event"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	// Lead fires new_lead, hot_lead, high_score_lead. The subscription only
	// wants hot_lead and urgent_followup, so exactly one delivery happens.
	registry := &fakeRegistry{subs: []model.WebhookSubscription{
		{
			ID:     "sub-1",
			URL:    srv.URL,
			Events: model.EventFlags{HotLead: true, UrgentFollowup: true},
			Active: true,
		},
	}}

	d := New(nil, registry, NewDeliverer())
	report := d.Dispatch(context.Background(), testLead(), &settings.Settings{})

	require.Len(t, report.Webhooks, 1)
	assert.Equal(t, model.EventHotLead, report.Webhooks[0].Event)
	assert.Empty(t, report.Webhooks[0].Error)
	assert.Equal(t, []string{"hot_lead"}, paths)
}

func TestDispatchWebhookFailureIsolated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("event") == "new_lead" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	registry := &fakeRegistry{subs: []model.WebhookSubscription{
		{
			ID:     "sub-1",
			URL:    srv.URL,
			Events: model.EventFlags{NewLead: true, HotLead: true},
			Active: true,
		},
	}}

	d := New(nil, registry, NewDeliverer())
	report := d.Dispatch(context.Background(), testLead(), &settings.Settings{})

	require.Len(t, report.Webhooks, 2)
	assert.NotEmpty(t, report.Webhooks[0].Error)
	assert.Empty(t, report.Webhooks[1].Error)
}
