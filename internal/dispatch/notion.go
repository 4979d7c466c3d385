package dispatch

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"

	"github.com/sells-group/chatlead/internal/model"
	"github.com/sells-group/chatlead/internal/settings"
	"github.com/sells-group/chatlead/pkg/notion"
)

// NotionAdapter creates a page in the lead database per pipeline lead.
type NotionAdapter struct {
	client notion.Client
	dbID   string
}

// NewNotionAdapter creates the Notion sync adapter targeting the given
// database.
func NewNotionAdapter(client notion.Client, dbID string) *NotionAdapter {
	return &NotionAdapter{client: client, dbID: dbID}
}

func (a *NotionAdapter) Name() string { return "notion" }

func (a *NotionAdapter) LiveSyncEnabled(s *settings.Settings) bool {
	return s != nil && s.Sync.Notion
}

func (a *NotionAdapter) Sync(ctx context.Context, lead *model.Lead) error {
	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(a.dbID),
		},
		Properties: leadProperties(lead),
	}

	if _, err := a.client.CreatePage(ctx, req); err != nil {
		return eris.Wrapf(err, "dispatch: notion sync for lead %s", lead.ID)
	}
	return nil
}

// leadProperties maps a lead onto the lead database's columns. "Name" is the
// title property; free-form fields are rich_text.
func leadProperties(lead *model.Lead) notionapi.Properties {
	props := notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Type:  notionapi.PropertyTypeTitle,
			Title: richText(lead.Name),
		},
		"Company": notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(lead.Company),
		},
		"Summary": notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(lead.Summary),
		},
		"Product": notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(lead.Product),
		},
		"Score": notionapi.NumberProperty{
			Type:   notionapi.PropertyTypeNumber,
			Number: float64(lead.LeadScore),
		},
		"Hot Lead": notionapi.CheckboxProperty{
			Type:     notionapi.PropertyTypeCheckbox,
			Checkbox: lead.HotLead,
		},
		"Enterprise": notionapi.CheckboxProperty{
			Type:     notionapi.PropertyTypeCheckbox,
			Checkbox: lead.Enterprise,
		},
		"Needs Followup": notionapi.CheckboxProperty{
			Type:     notionapi.PropertyTypeCheckbox,
			Checkbox: lead.ImmediateFollowup,
		},
	}

	if lead.Phone != "" {
		props["Phone"] = notionapi.PhoneNumberProperty{
			Type:        notionapi.PropertyTypePhoneNumber,
			PhoneNumber: lead.Phone,
		}
	}
	if lead.Email != "" {
		props["Email"] = notionapi.EmailProperty{
			Type:  notionapi.PropertyTypeEmail,
			Email: lead.Email,
		}
	}

	return props
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{
		{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}},
	}
}
