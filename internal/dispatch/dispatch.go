// Package dispatch fans a persisted lead out to sync adapters and webhook
// subscriptions. Every outbound call is isolated: a failing or panicking
// target is logged and never prevents the remaining targets from running.
// Fan-out is fire-and-forget; there are no retries.
package dispatch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/chatlead/internal/model"
	"github.com/sells-group/chatlead/internal/settings"
)

// SyncAdapter is one outbound integration (spreadsheet, CRM).
type SyncAdapter interface {
	Name() string
	// LiveSyncEnabled reports whether this adapter should fire for the
	// current run's settings snapshot.
	LiveSyncEnabled(s *settings.Settings) bool
	Sync(ctx context.Context, lead *model.Lead) error
}

// WebhookRegistry lists the active webhook subscriptions; the lead store
// implements it.
type WebhookRegistry interface {
	ListActiveWebhooks(ctx context.Context) ([]model.WebhookSubscription, error)
}

// SyncOutcome records one adapter attempt.
type SyncOutcome struct {
	Adapter string `json:"adapter"`
	Enabled bool   `json:"enabled"`
	Error   string `json:"error,omitempty"`
}

// WebhookOutcome records one webhook delivery attempt.
type WebhookOutcome struct {
	SubscriptionID string          `json:"subscription_id"`
	Event          model.EventType `json:"event"`
	Error          string          `json:"error,omitempty"`
}

// Report aggregates all fan-out outcomes for one lead.
type Report struct {
	Syncs    []SyncOutcome    `json:"syncs"`
	Webhooks []WebhookOutcome `json:"webhooks"`
}

// Dispatcher drives fan-out for persisted leads.
type Dispatcher struct {
	adapters  []SyncAdapter
	registry  WebhookRegistry
	deliverer *Deliverer
}

// New creates a Dispatcher. registry may be nil when no webhook storage is
// configured.
func New(adapters []SyncAdapter, registry WebhookRegistry, deliverer *Deliverer) *Dispatcher {
	return &Dispatcher{adapters: adapters, registry: registry, deliverer: deliverer}
}

// Dispatch runs all enabled adapters, then all subscribed webhooks, for one
// lead. It always returns a complete report; failures are recorded, never
// propagated.
func (d *Dispatcher) Dispatch(ctx context.Context, lead *model.Lead, s *settings.Settings) Report {
	var report Report
	log := zap.L().With(zap.String("lead_id", lead.ID))

	for _, adapter := range d.adapters {
		outcome := SyncOutcome{Adapter: adapter.Name(), Enabled: adapter.LiveSyncEnabled(s)}
		if !outcome.Enabled {
			report.Syncs = append(report.Syncs, outcome)
			continue
		}

		if err := safeSync(ctx, adapter, lead); err != nil {
			outcome.Error = err.Error()
			log.Warn("sync adapter failed",
				zap.String("adapter", adapter.Name()),
				zap.Error(err),
			)
		} else {
			log.Info("sync adapter delivered", zap.String("adapter", adapter.Name()))
		}
		report.Syncs = append(report.Syncs, outcome)
	}

	report.Webhooks = d.dispatchWebhooks(ctx, lead, log)
	return report
}

// safeSync converts adapter panics into errors so one misbehaving
// integration cannot take down the run.
func safeSync(ctx context.Context, adapter SyncAdapter, lead *model.Lead) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("adapter %s panicked: %v", adapter.Name(), r)
		}
	}()
	return adapter.Sync(ctx, lead)
}

func (d *Dispatcher) dispatchWebhooks(ctx context.Context, lead *model.Lead, log *zap.Logger) []WebhookOutcome {
	if d.registry == nil || d.deliverer == nil {
		return nil
	}

	subs, err := d.registry.ListActiveWebhooks(ctx)
	if err != nil {
		// The lead is already durable; failing to list subscriptions is
		// a delivery loss, not a pipeline error.
		log.Warn("webhook registry unavailable", zap.Error(err))
		return nil
	}

	events := model.LeadEvents(lead)

	var outcomes []WebhookOutcome
	for _, sub := range subs {
		for _, event := range events {
			if !sub.Wants(event) {
				continue
			}
			outcome := WebhookOutcome{SubscriptionID: sub.ID, Event: event}
			if err := d.deliverer.Deliver(ctx, sub, lead, event); err != nil {
				outcome.Error = err.Error()
				log.Warn("webhook delivery failed",
					zap.String("subscription_id", sub.ID),
					zap.String("event", string(event)),
					zap.Error(err),
				)
			} else {
				log.Info("webhook delivered",
					zap.String("subscription_id", sub.ID),
					zap.String("event", string(event)),
				)
			}
			outcomes = append(outcomes, outcome)
		}
	}
	return outcomes
}
