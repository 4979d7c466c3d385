package model

import "time"

// Lead provenance and status values.
const (
	LeadSource  = "chat"
	LeadChannel = "whatsapp"
	StatusNew   = "new"
)

// Lead is the durable, immutable record produced by one successful pipeline
// pass over a conversation fingerprint. Status transitions after creation
// belong to the dashboard, not this pipeline.
type Lead struct {
	ID          string `json:"id"`
	Fingerprint string `json:"fingerprint"`

	// Identity, resolved from session metadata with provider fallback.
	Name    string `json:"name"`
	Company string `json:"company_name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Product string `json:"product"`
	Region  string `json:"region"`

	// Analysis fields.
	Category   string   `json:"category"`
	Topic      string   `json:"topic"`
	Sentiment  string   `json:"sentiment"`
	Intent     string   `json:"intent"`
	Urgency    string   `json:"urgency"`
	Stage      string   `json:"stage"`
	Summary    string   `json:"summary"`
	Questions  []string `json:"questions"`
	Objections []string `json:"objections"`
	Links      []string `json:"links"`
	Timeline   []string `json:"timeline"`

	// Derived signals.
	LeadScore         int        `json:"lead_score"`
	HotLead           bool       `json:"is_hot_lead"`
	Enterprise        bool       `json:"is_enterprise"`
	ImmediateFollowup bool       `json:"needs_immediate_followup"`
	Validation        Validation `json:"validation"`

	// Timing facts, computed from message timestamps only.
	ConversationDate  string `json:"conversation_date"`
	StartTime         string `json:"start_time"`
	EndTime           string `json:"end_time"`
	DurationSeconds   int    `json:"duration_seconds"`
	TotalMessages     int    `json:"total_messages"`
	UserMessages      int    `json:"user_messages"`
	AssistantMessages int    `json:"assistant_messages"`

	// Provenance.
	Source    string    `json:"source"`
	Channel   string    `json:"channel"`
	Status    string    `json:"status"`
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
