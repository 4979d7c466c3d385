package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFullPayload(t *testing.T) {
	raw := `{
		"name": "Jane Doe",
		"company": "Acme Corp",
		"region": "APAC",
		"category": "crm",
		"topic": "pricing",
		"sentiment": "positive",
		"intent": "purchase",
		"urgency": "high",
		"stage": "decision",
		"summary": "Wants a quote.",
		"questions": ["What does it cost?"],
		"objections": [],
		"links": ["https://acme.example"],
		"lead_score": 91,
		"is_hot_lead": true,
		"is_enterprise": true,
		"needs_immediate_followup": false,
		"timeline": "demo | trial | close",
		"validation": {"completeness": "85", "is_valid": true, "missing_fields": ["email"]}
	}`

	res, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", res.Name)
	assert.Equal(t, "Acme Corp", res.Company)
	assert.Equal(t, 91.0, res.LeadScore)
	assert.True(t, res.HotLead)
	assert.True(t, res.Enterprise)
	assert.False(t, res.ImmediateFollowup)
	assert.Equal(t, "demo | trial | close", res.Timeline)
	assert.Equal(t, "85", res.Completeness)
	assert.True(t, res.IsValid)
	assert.Equal(t, []string{"email"}, res.MissingFields)
}

func TestNormalizeMarkdownFenced(t *testing.T) {
	raw := "```json\n{\"name\": \"Jane\", \"lead_score\": \"60\"}\n```"
	res, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "Jane", res.Name)
	assert.Equal(t, 60.0, res.LeadScore)
}

func TestNormalizeAlternateKeysAndTypes(t *testing.T) {
	// Fallback provider drift: prospect_name, score, string booleans,
	// scalar where an array belongs.
	raw := `{
		"prospect_name": "Ravi",
		"company_name": "BigCo",
		"score": "78",
		"is_hot_lead": "yes",
		"questions": "what about SSO?"
	}`

	res, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "Ravi", res.Name)
	assert.Equal(t, "BigCo", res.Company)
	assert.Equal(t, 78.0, res.LeadScore)
	assert.True(t, res.HotLead)
	assert.Equal(t, []string{"what about SSO?"}, res.Questions)
}

func TestNormalizeMissingFieldsDefault(t *testing.T) {
	res, err := Normalize(`{}`)
	require.NoError(t, err)
	assert.Equal(t, "", res.Name)
	assert.Equal(t, 0.0, res.LeadScore)
	assert.False(t, res.HotLead)
	assert.NotNil(t, res.Questions)
	assert.Empty(t, res.Questions)
	assert.NotNil(t, res.MissingFields)
}

func TestNormalizeRejectsNonJSON(t *testing.T) {
	_, err := Normalize("Sorry, I can't analyze this conversation.")
	assert.Error(t, err)

	_, err = Normalize("")
	assert.Error(t, err)
}

func TestNormalizeSurroundingProse(t *testing.T) {
	res, err := Normalize(`Here is the analysis: {"name": "Kim"} Hope that helps!`)
	require.NoError(t, err)
	assert.Equal(t, "Kim", res.Name)
}
