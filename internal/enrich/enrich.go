// Package enrich derives scoring signals from a normalized analysis result.
// Everything here is pure: no I/O, no failure modes beyond missing-field
// defaults.
package enrich

import (
	"strconv"
	"strings"

	"github.com/sells-group/chatlead/internal/model"
)

// timelineDelimiter separates steps in the provider's timeline string.
const timelineDelimiter = "|"

// Enrich derives the lead's numeric and boolean signals from a normalized
// analysis result. Absent fields resolve to zero values, never nil.
func Enrich(ar *model.AnalysisResult) model.Enrichment {
	return model.Enrichment{
		LeadScore:         clampScore(ar.LeadScore),
		HotLead:           ar.HotLead,
		Enterprise:        ar.Enterprise,
		ImmediateFollowup: ar.ImmediateFollowup,
		Timeline:          splitTimeline(ar.Timeline),
		Validation: model.Validation{
			Completeness:  parseCompleteness(ar.Completeness),
			IsValid:       ar.IsValid,
			MissingFields: orEmpty(ar.MissingFields),
		},
	}
}

func clampScore(score float64) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return int(score)
	}
}

// splitTimeline splits a delimited provider string into trimmed steps.
// A missing or undelimited-but-empty value yields an empty sequence.
func splitTimeline(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, timelineDelimiter)
	steps := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			steps = append(steps, trimmed)
		}
	}
	return steps
}

// parseCompleteness parses an integer percentage from "85", "85%", or a
// stringified float. Unparseable values resolve to 0.
func parseCompleteness(raw string) int {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return clampScore(float64(n))
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return clampScore(f)
	}
	return 0
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
