package dispatch

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/chatlead/internal/model"
	"github.com/sells-group/chatlead/internal/settings"
	"github.com/sells-group/chatlead/pkg/salesforce"
)

// SalesforceAdapter creates a Salesforce Lead record per pipeline lead.
type SalesforceAdapter struct {
	client salesforce.Client
}

// NewSalesforceAdapter creates the Salesforce sync adapter.
func NewSalesforceAdapter(client salesforce.Client) *SalesforceAdapter {
	return &SalesforceAdapter{client: client}
}

func (a *SalesforceAdapter) Name() string { return "salesforce" }

func (a *SalesforceAdapter) LiveSyncEnabled(s *settings.Settings) bool {
	return s != nil && s.Sync.Salesforce
}

func (a *SalesforceAdapter) Sync(ctx context.Context, lead *model.Lead) error {
	first, last := splitName(lead.Name)

	record := map[string]any{
		"FirstName":   first,
		"LastName":    last,
		"Company":     orUnknown(lead.Company),
		"Phone":       lead.Phone,
		"Email":       lead.Email,
		"LeadSource":  lead.Source,
		"Description": lead.Summary,
		"Rating":      rating(lead),
	}

	id, err := a.client.InsertOne(ctx, "Lead", record)
	if err != nil {
		return eris.Wrapf(err, "dispatch: salesforce sync for lead %s", lead.ID)
	}
	zap.L().Debug("salesforce lead created",
		zap.String("lead_id", lead.ID),
		zap.String("salesforce_id", id),
	)
	return nil
}

// splitName maps a display name onto Salesforce's FirstName/LastName split.
// LastName is required by the API.
func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", "Unknown"
	case 1:
		return "", parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
	}
}

func rating(lead *model.Lead) string {
	switch {
	case lead.HotLead:
		return "Hot"
	case lead.LeadScore >= 50:
		return "Warm"
	default:
		return "Cold"
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
