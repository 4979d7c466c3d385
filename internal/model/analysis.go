package model

// AnalysisResult is the normalized output of an analysis provider.
// Both providers are prompted for the same JSON schema but are not guaranteed
// to emit identical shapes, so raw provider output always passes through
// analyzer.Normalize before it reaches this type. String fields default to
// "", slices to empty, numbers to 0.
type AnalysisResult struct {
	Name       string   `json:"name"`
	Company    string   `json:"company"`
	Region     string   `json:"region"`
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

	LeadScore         float64 `json:"lead_score"`
	HotLead           bool    `json:"is_hot_lead"`
	Enterprise        bool    `json:"is_enterprise"`
	ImmediateFollowup bool    `json:"needs_immediate_followup"`

	// Timeline is the provider's raw delimited string ("step 1 | step 2");
	// the enricher splits it into a sequence.
	Timeline string `json:"timeline"`

	// Validation block as emitted by the provider. Completeness may arrive
	// as "85", "85%", or a bare number depending on the provider.
	Completeness  string   `json:"completeness"`
	IsValid       bool     `json:"is_valid"`
	MissingFields []string `json:"missing_fields"`
}

// Validation is the parsed validation block carried on a Lead.
type Validation struct {
	Completeness  int      `json:"completeness"`
	IsValid       bool     `json:"is_valid"`
	MissingFields []string `json:"missing_fields"`
}

// Enrichment holds the signals derived from a normalized AnalysisResult.
type Enrichment struct {
	LeadScore         int        `json:"lead_score"`
	HotLead           bool       `json:"is_hot_lead"`
	Enterprise        bool       `json:"is_enterprise"`
	ImmediateFollowup bool       `json:"needs_immediate_followup"`
	Timeline          []string   `json:"timeline"`
	Validation        Validation `json:"validation"`
}
