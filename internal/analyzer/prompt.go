package analyzer

import (
	"fmt"
	"strings"
)

// systemPrompt instructs providers to emit the closed result schema as bare
// JSON. Both providers get the same prompt so their outputs normalize the
// same way.
const systemPrompt = `You are a sales conversation analyst. Given a chat transcript between a prospect and an assistant, extract a structured lead profile.

Respond with ONLY a JSON object, no prose and no markdown fences, using exactly these keys:
{
  "name": "prospect's name or empty string",
  "company": "prospect's company or empty string",
  "region": "geographic region if mentioned",
  "category": "product category discussed",
  "topic": "main topic of the conversation",
  "sentiment": "positive | neutral | negative",
  "intent": "purchase | evaluation | support | other",
  "urgency": "high | medium | low",
  "stage": "awareness | consideration | decision",
  "summary": "2-3 sentence summary",
  "questions": ["questions the prospect asked"],
  "objections": ["objections raised"],
  "links": ["urls mentioned"],
  "lead_score": 0,
  "is_hot_lead": false,
  "is_enterprise": false,
  "needs_immediate_followup": false,
  "timeline": "step 1 | step 2 | step 3",
  "validation": {
    "completeness": "0-100",
    "is_valid": true,
    "missing_fields": ["fields that could not be determined"]
  }
}

lead_score is 0-100. is_hot_lead means strong buying signals. is_enterprise means the prospect represents a large organization.`

// buildUserContent assembles the user message for an analysis request.
func buildUserContent(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Phone: %s\n", req.Phone)
	fmt.Fprintf(&b, "Product: %s\n", req.Product)
	fmt.Fprintf(&b, "Session: %s\n\n", req.SessionID)
	b.WriteString("Transcript:\n")
	b.WriteString(req.Conversation)
	return b.String()
}
