package dispatch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/chatlead/internal/model"
)

// Deliverer issues webhook callbacks: one HTTP GET per (subscription,
// event) pair with the lead's public fields as query parameters.
type Deliverer struct {
	http *http.Client
	now  func() time.Time
}

// DelivererOption configures a Deliverer.
type DelivererOption func(*Deliverer)

// WithHTTPClient overrides the HTTP client used for deliveries.
func WithHTTPClient(hc *http.Client) DelivererOption {
	return func(d *Deliverer) {
		d.http = hc
	}
}

// NewDeliverer creates a webhook Deliverer.
func NewDeliverer(opts ...DelivererOption) *Deliverer {
	d := &Deliverer{
		http: &http.Client{Timeout: 10 * time.Second},
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Deliver issues one callback. Non-2xx responses are failures.
func (d *Deliverer) Deliver(ctx context.Context, sub model.WebhookSubscription, lead *model.Lead, event model.EventType) error {
	target, err := buildURL(sub.URL, lead, event, d.now())
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return eris.Wrapf(err, "dispatch: build webhook request for %s", sub.ID)
	}
	for k, v := range sub.Headers {
		req.Header.Set(k, v)
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return eris.Wrapf(err, "dispatch: deliver webhook %s", sub.ID)
	}
	defer resp.Body.Close() //nolint:errcheck
	io.Copy(io.Discard, resp.Body) //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return eris.New(fmt.Sprintf("dispatch: webhook %s returned status %d", sub.ID, resp.StatusCode))
	}
	return nil
}

// buildURL serializes the lead's public fields plus event name and
// timestamp as query parameters on the subscription URL.
func buildURL(base string, lead *model.Lead, event model.EventType, now time.Time) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", eris.Wrapf(err, "dispatch: parse webhook url %s", base)
	}

	q := u.Query()
	q.Set("event", string(event))
	q.Set("timestamp", now.UTC().Format(time.RFC3339))
	q.Set("lead_id", lead.ID)
	q.Set("name", lead.Name)
	q.Set("company_name", lead.Company)
	q.Set("phone", lead.Phone)
	q.Set("email", lead.Email)
	q.Set("product", lead.Product)
	q.Set("summary", lead.Summary)
	q.Set("lead_score", strconv.Itoa(lead.LeadScore))
	q.Set("is_hot_lead", strconv.FormatBool(lead.HotLead))
	q.Set("is_enterprise", strconv.FormatBool(lead.Enterprise))
	q.Set("needs_immediate_followup", strconv.FormatBool(lead.ImmediateFollowup))
	q.Set("status", lead.Status)
	q.Set("session_id", lead.SessionID)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
