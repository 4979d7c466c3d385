package analyzer

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/chatlead/internal/model"
)

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}
	*f = ""
	return nil
}

// flexBool accepts a JSON bool, "true"/"yes"/"1" strings, or 0/1 numbers.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "yes", "1":
			*f = true
		default:
			*f = false
		}
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = n != 0
		return nil
	}
	*f = false
	return nil
}

// flexStrings accepts a JSON array of strings or a single string.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*f = arr
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			*f = nil
		} else {
			*f = []string{s}
		}
		return nil
	}
	*f = nil
	return nil
}

type rawValidation struct {
	Completeness  flexString  `json:"completeness"`
	IsValid       flexBool    `json:"is_valid"`
	MissingFields flexStrings `json:"missing_fields"`
}

// rawPayload tolerates the schema drift observed between providers:
// alternate key names, numbers as strings, scalars where arrays belong.
type rawPayload struct {
	Name         flexString `json:"name"`
	ProspectName flexString `json:"prospect_name"`
	Company      flexString `json:"company"`
	CompanyName  flexString `json:"company_name"`
	Region       flexString `json:"region"`
	Category     flexString `json:"category"`
	Topic        flexString `json:"topic"`
	Sentiment    flexString `json:"sentiment"`
	Intent       flexString `json:"intent"`
	Urgency      flexString `json:"urgency"`
	Stage        flexString `json:"stage"`
	Summary      flexString `json:"summary"`

	Questions  flexStrings `json:"questions"`
	Objections flexStrings `json:"objections"`
	Links      flexStrings `json:"links"`

	LeadScore flexString `json:"lead_score"`
	Score     flexString `json:"score"`

	IsHotLead         flexBool `json:"is_hot_lead"`
	IsEnterprise      flexBool `json:"is_enterprise"`
	ImmediateFollowup flexBool `json:"needs_immediate_followup"`

	Timeline   flexString    `json:"timeline"`
	Validation rawValidation `json:"validation"`
}

// Normalize parses raw provider output into an AnalysisResult. It strips
// markdown fences, tolerates schema drift between providers, and resolves
// absent fields to zero values so nothing downstream sees null.
func Normalize(raw string) (*model.AnalysisResult, error) {
	cleaned := stripFences(raw)
	if cleaned == "" {
		return nil, eris.New("normalize: empty provider output")
	}

	var p rawPayload
	if err := json.Unmarshal([]byte(cleaned), &p); err != nil {
		return nil, eris.Wrap(err, "normalize: decode provider output")
	}

	score, _ := strconv.ParseFloat(strings.TrimSuffix(string(coalesce(p.LeadScore, p.Score)), "%"), 64)

	return &model.AnalysisResult{
		Name:              string(coalesce(p.Name, p.ProspectName)),
		Company:           string(coalesce(p.Company, p.CompanyName)),
		Region:            string(p.Region),
		Category:          string(p.Category),
		Topic:             string(p.Topic),
		Sentiment:         string(p.Sentiment),
		Intent:            string(p.Intent),
		Urgency:           string(p.Urgency),
		Stage:             string(p.Stage),
		Summary:           string(p.Summary),
		Questions:         orEmpty(p.Questions),
		Objections:        orEmpty(p.Objections),
		Links:             orEmpty(p.Links),
		LeadScore:         score,
		HotLead:           bool(p.IsHotLead),
		Enterprise:        bool(p.IsEnterprise),
		ImmediateFollowup: bool(p.ImmediateFollowup),
		Timeline:          string(p.Timeline),
		Completeness:      string(p.Validation.Completeness),
		IsValid:           bool(p.Validation.IsValid),
		MissingFields:     orEmpty(p.Validation.MissingFields),
	}, nil
}

// stripFences removes a surrounding markdown code fence if present and
// trims to the outermost JSON object.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func coalesce(vals ...flexString) flexString {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func orEmpty(s flexStrings) []string {
	if s == nil {
		return []string{}
	}
	return s
}
