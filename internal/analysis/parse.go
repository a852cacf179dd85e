package analysis

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSONObject is returned when no balanced JSON object exists in a payload.
var ErrNoJSONObject = errors.New("no JSON object found in payload")

const maxFallbackKeyPoints = 5

// LocateJSONObject returns the first well-formed JSON object substring of raw.
// Providers frequently wrap their JSON in prose or markdown fences.
func LocateJSONObject(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	for start != -1 {
		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(raw); i++ {
			ch := raw[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case ch == '\\':
					escaped = true
				case ch == '"':
					inString = false
				}
				continue
			}
			switch ch {
			case '"':
				inString = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					candidate := raw[start : i+1]
					if json.Valid([]byte(candidate)) {
						return candidate, true
					}
					// Balanced but invalid; try the next opening brace.
					i = len(raw)
				}
			}
		}
		next := strings.IndexByte(raw[start+1:], '{')
		if next == -1 {
			return "", false
		}
		start = start + 1 + next
	}
	return "", false
}

// ParsePayload extracts and decodes an Analysis from a provider's raw output.
func ParsePayload(raw string) (Analysis, error) {
	obj, ok := LocateJSONObject(raw)
	if !ok {
		return Analysis{}, ErrNoJSONObject
	}
	var result Analysis
	if err := json.Unmarshal([]byte(obj), &result); err != nil {
		return Analysis{}, err
	}
	return result, nil
}

// MinimalFallback builds a low-confidence Analysis from an unparseable payload.
// The first few non-empty lines become key points and a manual-review action is attached.
func MinimalFallback(raw string) Analysis {
	var keyPoints []string
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		keyPoints = append(keyPoints, trimmed)
		if len(keyPoints) == maxFallbackKeyPoints {
			break
		}
	}
	if len(keyPoints) == 0 {
		keyPoints = []string{"Provider response could not be interpreted"}
	}

	return Analysis{
		DocumentType: "unknown",
		Summary:      "Automated analysis could not be parsed; manual review required.",
		KeyPoints:    keyPoints,
		RiskAssessment: RiskAssessment{
			Level:   "medium",
			Factors: []string{"analysis output unparseable"},
		},
		SuggestedActions: []SuggestedAction{
			{
				Type:        ActionCreateNote,
				Priority:    PriorityHigh,
				Description: "Review document manually; automated analysis was inconclusive.",
				Data: map[string]any{
					"title":  "Manual review required",
					"reason": "unparseable provider output",
				},
			},
		},
	}
}
