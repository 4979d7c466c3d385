package model

// EventFlags marks which lead events a subscription wants.
type EventFlags struct {
	NewLead        bool `json:"newLead"`
	HotLead        bool `json:"hotLead"`
	UrgentFollowup bool `json:"urgentFollowup"`
	EnterpriseLead bool `json:"enterpriseLead"`
	HighScoreLead  bool `json:"highScoreLead"`
}

// WebhookSubscription is a user-configured HTTP callback target. The
// pipeline treats subscriptions as read-only input; their lifecycle is
// owned by external configuration storage.
type WebhookSubscription struct {
	ID      string            `json:"id"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Events  EventFlags        `json:"events"`
	Active  bool              `json:"active"`
}

// Wants reports whether the subscription is enabled for the given event.
func (s *WebhookSubscription) Wants(event EventType) bool {
	switch event {
	case EventNewLead:
		return s.Events.NewLead
	case EventHotLead:
		return s.Events.HotLead
	case EventUrgentFollowup:
		return s.Events.UrgentFollowup
	case EventEnterpriseLead:
		return s.Events.EnterpriseLead
	case EventHighScoreLead:
		return s.Events.HighScoreLead
	default:
		return false
	}
}
