// Package leadstore persists scored leads and serves the conversation
// fingerprint index used for deduplication. It also reads the webhook
// subscription registry, which lives alongside the leads.
package leadstore

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/chatlead/internal/model"
)

// ErrDuplicateLead is returned by Insert when a lead with the same
// conversation fingerprint already exists. The duplicate check runs before
// analysis, but concurrent runs can still race to the insert; the unique
// fingerprint constraint is the final arbiter.
var ErrDuplicateLead = eris.New("leadstore: duplicate fingerprint")

// Store is the durable lead storage interface consumed by the pipeline.
type Store interface {
	// IsDuplicate reports whether a lead with this conversation
	// fingerprint has already been persisted.
	IsDuplicate(ctx context.Context, fp string) (bool, error)

	// Insert writes a lead. Returns ErrDuplicateLead when the fingerprint
	// is already present.
	Insert(ctx context.Context, lead *model.Lead) error

	// ListActiveWebhooks returns all active webhook subscriptions.
	ListActiveWebhooks(ctx context.Context) ([]model.WebhookSubscription, error)

	Migrate(ctx context.Context) error
	Close() error
}
