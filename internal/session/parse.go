package session

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/chatlead/internal/model"
)

// ParseKey splits a session key of the form
// "chat:<phone>:<product>:<sessionID>" into its parts. Session IDs may
// themselves contain colons.
func ParseKey(key string) (model.SessionKey, error) {
	parts := strings.Split(key, ":")
	if len(parts) < 4 || parts[0]+":" != KeyPrefix {
		return model.SessionKey{}, eris.Errorf("session: malformed key %q", key)
	}
	return model.SessionKey{
		Phone:     parts[1],
		Product:   parts[2],
		SessionID: strings.Join(parts[3:], ":"),
	}, nil
}

// wireTime accepts RFC3339 strings or unix-millisecond numbers; the inbound
// webhook has emitted both formats over time.
type wireTime struct {
	time.Time
}

func (t *wireTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339, s); err == nil {
		t.Time = parsed
		return nil
	}
	var ms int64
	if err := json.Unmarshal(data, &ms); err != nil {
		return eris.Errorf("session: unparseable timestamp %q", s)
	}
	t.Time = time.UnixMilli(ms).UTC()
	return nil
}

type wireMessage struct {
	Role      string   `json:"role"`
	Text      string   `json:"text"`
	Message   string   `json:"message"` // legacy field name
	Timestamp wireTime `json:"timestamp"`
}

type wirePayload struct {
	Metadata map[string]string `json:"metadata"`
	Messages []wireMessage     `json:"messages"`
}

// ParseChatData decodes a raw stored payload into a ChatSession. Malformed
// payloads produce an error that the orchestrator records against the key.
func ParseChatData(key, raw string) (*model.ChatSession, error) {
	var p wirePayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, eris.Wrapf(err, "session: decode payload for %s", key)
	}

	msgs := make([]model.Message, 0, len(p.Messages))
	for _, m := range p.Messages {
		text := m.Text
		if text == "" {
			text = m.Message
		}
		role := m.Role
		if role == "" {
			role = "user"
		}
		msgs = append(msgs, model.Message{
			Role:      role,
			Text:      text,
			Timestamp: m.Timestamp.Time,
		})
	}

	return &model.ChatSession{
		Key:      key,
		Metadata: p.Metadata,
		Messages: msgs,
	}, nil
}
