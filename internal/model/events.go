package model

// EventType identifies a webhook-visible lead event.
type EventType string

const (
	EventNewLead        EventType = "new_lead"
	EventHotLead        EventType = "hot_lead"
	EventUrgentFollowup EventType = "urgent_followup"
	EventEnterpriseLead EventType = "enterprise_lead"
	EventHighScoreLead  EventType = "high_score_lead"
)

// HighScoreThreshold is the minimum lead score that triggers the
// high_score_lead event.
const HighScoreThreshold = 80

// LeadEvents derives the event set for a lead. Every lead carries new_lead;
// the remaining events follow from the derived flags and score.
func LeadEvents(l *Lead) []EventType {
	events := []EventType{EventNewLead}
	if l.HotLead {
		events = append(events, EventHotLead)
	}
	if l.ImmediateFollowup {
		events = append(events, EventUrgentFollowup)
	}
	if l.Enterprise {
		events = append(events, EventEnterpriseLead)
	}
	if l.LeadScore >= HighScoreThreshold {
		events = append(events, EventHighScoreLead)
	}
	return events
}
