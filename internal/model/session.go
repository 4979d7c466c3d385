package model

import "time"

// Message is a single entry in a stored chat transcript.
type Message struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatSession is a TTL-bounded chat transcript read from the session store.
// Metadata values, when present, override the values parsed from the key.
type ChatSession struct {
	Key        string            `json:"key"`
	Metadata   map[string]string `json:"metadata"`
	Messages   []Message         `json:"messages"`
	TTLSeconds int               `json:"ttl_seconds"`
}

// Metadata keys written by the inbound chat webhook.
const (
	MetaPhone        = "phone"
	MetaProduct      = "product"
	MetaSessionID    = "sessionId"
	MetaBusinessInfo = "businessInfo"
	MetaUsername     = "username"
	MetaEmail        = "email"
)

// Meta returns the metadata value for key, or "" when absent.
func (s *ChatSession) Meta(key string) string {
	if s.Metadata == nil {
		return ""
	}
	return s.Metadata[key]
}

// SessionKey holds the identifying parts encoded in a session store key.
type SessionKey struct {
	Phone     string `json:"phone"`
	Product   string `json:"product"`
	SessionID string `json:"session_id"`
}
