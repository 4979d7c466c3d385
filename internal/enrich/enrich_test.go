package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/chatlead/internal/model"
)

func TestEnrichDerivesSignals(t *testing.T) {
	e := Enrich(&model.AnalysisResult{
		LeadScore:         85,
		HotLead:           true,
		Timeline:          "demo | trial | close",
		Completeness:      "70%",
		IsValid:           true,
		MissingFields:     []string{"email"},
		ImmediateFollowup: true,
	})

	assert.Equal(t, 85, e.LeadScore)
	assert.True(t, e.HotLead)
	assert.True(t, e.ImmediateFollowup)
	assert.False(t, e.Enterprise)
	assert.Equal(t, []string{"demo", "trial", "close"}, e.Timeline)
	assert.Equal(t, 70, e.Validation.Completeness)
	assert.True(t, e.Validation.IsValid)
	assert.Equal(t, []string{"email"}, e.Validation.MissingFields)
}

func TestEnrichClampsScore(t *testing.T) {
	assert.Equal(t, 100, Enrich(&model.AnalysisResult{LeadScore: 250}).LeadScore)
	assert.Equal(t, 0, Enrich(&model.AnalysisResult{LeadScore: -5}).LeadScore)
}

func TestEnrichEmptyTimeline(t *testing.T) {
	e := Enrich(&model.AnalysisResult{Timeline: ""})
	assert.NotNil(t, e.Timeline)
	assert.Empty(t, e.Timeline)

	e = Enrich(&model.AnalysisResult{Timeline: " | | "})
	assert.Empty(t, e.Timeline)
}

func TestParseCompleteness(t *testing.T) {
	cases := map[string]int{
		"85":    85,
		"85%":   85,
		" 42 ":  42,
		"87.5":  87,
		"":      0,
		"high":  0,
		"120":   100,
		"-3":    0,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseCompleteness(in), "input %q", in)
	}
}

func TestEnrichDefaultsNeverNil(t *testing.T) {
	e := Enrich(&model.AnalysisResult{})
	assert.NotNil(t, e.Timeline)
	assert.NotNil(t, e.Validation.MissingFields)
}
