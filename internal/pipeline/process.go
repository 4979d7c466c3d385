package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/chatlead/internal/analyzer"
	"github.com/sells-group/chatlead/internal/enrich"
	"github.com/sells-group/chatlead/internal/fingerprint"
	"github.com/sells-group/chatlead/internal/lead"
	"github.com/sells-group/chatlead/internal/leadstore"
	"github.com/sells-group/chatlead/internal/model"
	"github.com/sells-group/chatlead/internal/resilience"
	"github.com/sells-group/chatlead/internal/session"
	"github.com/sells-group/chatlead/internal/settings"
)

type keyState int

const (
	stateErrored keyState = iota
	stateSkipped
	stateProcessed
)

type keyOutcome struct {
	state  keyState
	reason string
}

func skipped(reason string) keyOutcome   { return keyOutcome{state: stateSkipped, reason: reason} }
func errored(err error) keyOutcome       { return keyOutcome{state: stateErrored, reason: err.Error()} }
func processed(reason string) keyOutcome { return keyOutcome{state: stateProcessed, reason: reason} }

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// processKey moves one session key through selection, dedup, analysis,
// assembly, persistence, and fan-out. Every terminal state is reported in
// the returned outcome; nothing escapes as an error.
func (p *Pipeline) processKey(ctx context.Context, key string, runSettings *settings.Settings) keyOutcome {
	log := zap.L().With(zap.String("key", key))

	ttl, err := p.sessions.TTL(ctx, key)
	if err != nil {
		if eris.Is(err, session.ErrNotFound) {
			return skipped("session expired before processing")
		}
		return errored(eris.Wrap(err, "read ttl"))
	}
	if ttl < TTLMin || ttl > TTLMax {
		return skipped(fmt.Sprintf("ttl %d outside processing window", ttl))
	}

	raw, err := p.sessions.Get(ctx, key)
	if err != nil {
		if eris.Is(err, session.ErrNotFound) {
			return skipped("session expired before processing")
		}
		return errored(eris.Wrap(err, "read session"))
	}

	sessionKey, err := session.ParseKey(key)
	if err != nil {
		return errored(err)
	}

	chat, err := session.ParseChatData(key, raw)
	if err != nil {
		return errored(err)
	}
	chat.TTLSeconds = ttl
	chat.Messages = truncate(chat.Messages, MaxMessages)

	if len(chat.Messages) == 0 {
		return skipped("no messages")
	}

	conversation := flatten(chat.Messages)
	identity := resolveIdentity(chat, sessionKey)
	email := resolveEmail(chat, conversation)
	fp := fingerprint.Fingerprint(conversation)

	// Identical conversations under different keys must not both reach the
	// insert in the same run.
	unlock := p.fpLocks.Lock(fp)
	defer unlock()

	dup, err := p.leads.IsDuplicate(ctx, fp)
	if err != nil {
		return errored(eris.Wrap(err, "duplicate check"))
	}
	if dup {
		return skipped("duplicate conversation")
	}

	analysis, err := p.analyzer.Analyze(ctx, analyzer.Request{
		Phone:        identity.Phone,
		Product:      identity.Product,
		SessionID:    identity.SessionID,
		Conversation: conversation,
	})
	if err != nil {
		return errored(err)
	}

	enrichment := enrich.Enrich(analysis)
	timing := lead.ComputeTiming(chat.Messages)
	newLead := lead.Assemble(chat, identity, email, analysis, enrichment, timing, fp)

	// Safe to retry: the insert is idempotent on the fingerprint.
	insertCfg := resilience.DefaultRetryConfig()
	insertCfg.OnRetry = resilience.RetryLogger("leadstore", "insert")
	err = resilience.Do(ctx, insertCfg, func(ctx context.Context) error {
		return p.leads.Insert(ctx, newLead)
	})
	if err != nil {
		if eris.Is(err, leadstore.ErrDuplicateLead) {
			return skipped("duplicate conversation")
		}
		return errored(eris.Wrap(err, "persist lead"))
	}

	// The fingerprint row already prevents reprocessing; a failed mark only
	// costs one redundant duplicate-skip next run.
	if err := p.sessions.MarkProcessed(ctx, key); err != nil {
		log.Warn("failed to mark session processed", zap.Error(err))
	}

	report := p.dispatcher.Dispatch(ctx, newLead, runSettings)
	log.Info("lead processed",
		zap.String("lead_id", newLead.ID),
		zap.Int("lead_score", newLead.LeadScore),
		zap.Bool("hot_lead", newLead.HotLead),
		zap.Int("sync_targets", len(report.Syncs)),
		zap.Int("webhook_deliveries", len(report.Webhooks)),
	)

	return processed(fmt.Sprintf("lead %s", newLead.ID))
}

// truncate keeps the most recent n messages.
func truncate(msgs []model.Message, n int) []model.Message {
	if len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}

// flatten renders the transcript as alternating speaker-prefixed lines.
// This text is both the analysis input and the fingerprint source.
func flatten(msgs []model.Message) string {
	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteByte('\n')
		}
		if m.Role == "user" {
			b.WriteString("User: ")
		} else {
			b.WriteString("Assistant: ")
		}
		b.WriteString(m.Text)
	}
	return b.String()
}

// resolveIdentity prefers webhook-supplied metadata over the values parsed
// from the key; both the analyzer and the assembler see the same resolution.
func resolveIdentity(chat *model.ChatSession, key model.SessionKey) model.SessionKey {
	out := key
	if v := chat.Meta(model.MetaPhone); v != "" {
		out.Phone = v
	}
	if v := chat.Meta(model.MetaProduct); v != "" {
		out.Product = v
	}
	if v := chat.Meta(model.MetaSessionID); v != "" {
		out.SessionID = v
	}
	return out
}

// resolveEmail prefers webhook-supplied metadata; otherwise the first
// address mentioned anywhere in the transcript.
func resolveEmail(chat *model.ChatSession, conversation string) string {
	if email := chat.Meta(model.MetaEmail); email != "" {
		return email
	}
	return emailPattern.FindString(conversation)
}
