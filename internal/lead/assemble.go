// Package lead assembles immutable Lead records from session metadata,
// normalized analysis output, and derived enrichment.
package lead

import (
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/chatlead/internal/model"
)

// defaultName is used when neither session metadata nor the provider
// yields a prospect name.
const defaultName = "Unknown Lead"

// Timing holds facts computed from the message timestamp sequence. They are
// derived independently of the analyzer so a hallucinating provider cannot
// corrupt them.
type Timing struct {
	ConversationDate  string
	StartTime         string
	EndTime           string
	DurationSeconds   int
	TotalMessages     int
	UserMessages      int
	AssistantMessages int
}

// ComputeTiming derives timing facts from a message sequence. Messages with
// zero timestamps still count toward totals but are ignored for start/end.
func ComputeTiming(msgs []model.Message) Timing {
	t := Timing{TotalMessages: len(msgs)}

	var first, last time.Time
	for _, m := range msgs {
		switch m.Role {
		case "user":
			t.UserMessages++
		default:
			t.AssistantMessages++
		}
		if m.Timestamp.IsZero() {
			continue
		}
		if first.IsZero() || m.Timestamp.Before(first) {
			first = m.Timestamp
		}
		if last.IsZero() || m.Timestamp.After(last) {
			last = m.Timestamp
		}
	}

	if !first.IsZero() {
		t.ConversationDate = first.UTC().Format("2006-01-02")
		t.StartTime = first.UTC().Format(time.RFC3339)
		t.EndTime = last.UTC().Format(time.RFC3339)
		t.DurationSeconds = int(last.Sub(first).Seconds())
	}
	return t
}

// Assemble merges session metadata, analysis output, enrichment, and timing
// into one Lead. Session-supplied metadata wins over provider-inferred
// values. Pure; the caller owns persistence.
func Assemble(
	session *model.ChatSession,
	key model.SessionKey,
	email string,
	ar *model.AnalysisResult,
	enr model.Enrichment,
	timing Timing,
	fp string,
) *model.Lead {
	now := time.Now().UTC()

	name := firstNonEmpty(session.Meta(model.MetaBusinessInfo), session.Meta(model.MetaUsername), ar.Name, defaultName)
	company := firstNonEmpty(session.Meta(model.MetaBusinessInfo), ar.Company)

	return &model.Lead{
		ID:          uuid.New().String(),
		Fingerprint: fp,

		Name:    name,
		Company: company,
		Phone:   firstNonEmpty(session.Meta(model.MetaPhone), key.Phone),
		Email:   email,
		Product: firstNonEmpty(session.Meta(model.MetaProduct), key.Product),
		Region:  ar.Region,

		Category:   ar.Category,
		Topic:      ar.Topic,
		Sentiment:  ar.Sentiment,
		Intent:     ar.Intent,
		Urgency:    ar.Urgency,
		Stage:      ar.Stage,
		Summary:    ar.Summary,
		Questions:  ar.Questions,
		Objections: ar.Objections,
		Links:      ar.Links,
		Timeline:   enr.Timeline,

		LeadScore:         enr.LeadScore,
		HotLead:           enr.HotLead,
		Enterprise:        enr.Enterprise,
		ImmediateFollowup: enr.ImmediateFollowup,
		Validation:        enr.Validation,

		ConversationDate:  timing.ConversationDate,
		StartTime:         timing.StartTime,
		EndTime:           timing.EndTime,
		DurationSeconds:   timing.DurationSeconds,
		TotalMessages:     timing.TotalMessages,
		UserMessages:      timing.UserMessages,
		AssistantMessages: timing.AssistantMessages,

		Source:    model.LeadSource,
		Channel:   model.LeadChannel,
		Status:    model.StatusNew,
		SessionID: firstNonEmpty(session.Meta(model.MetaSessionID), key.SessionID),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
