package analysis

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// Keyword groups driving the deterministic classifier.
var (
	accountKeywords    = []string{"account", "iban", "deposit", "withdrawal", "transfer", "balance"}
	complianceKeywords = []string{"compliance", "kyc", "aml", "regulation", "signature", "consent"}
	portfolioKeywords  = []string{"portfolio", "investment", "equity", "bond", "fund", "allocation"}
	meetingKeywords    = []string{"meeting", "call", "appointment", "discuss", "follow-up", "follow up"}
)

// MockAnalyzer derives a plausible Analysis from lightweight text heuristics.
// It never fails, which makes it the guaranteed terminal link of the chain.
type MockAnalyzer struct{}

// Name implements Analyzer.
func (MockAnalyzer) Name() string { return "mock" }

// Analyze implements Analyzer. The error result is always nil.
func (MockAnalyzer) Analyze(ctx context.Context, text string) (Analysis, error) {
	_ = ctx
	lower := strings.ToLower(text)
	words := strings.Fields(text)
	hasDigits := strings.ContainsFunc(text, unicode.IsDigit)

	docType := classify(lower)
	riskLevel, riskFactors := assessRisk(lower, hasDigits)

	result := Analysis{
		DocumentType:  docType,
		ExtractedText: text,
		Summary:       fmt.Sprintf("Heuristic review of a %s containing %d words.", docType, len(words)),
		KeyPoints:     keyPointsFor(docType, lower, hasDigits),
		ClientNeeds:   clientNeedsFor(docType),
		RiskAssessment: RiskAssessment{
			Level:   riskLevel,
			Factors: riskFactors,
		},
		ComplianceFlags:  complianceFlagsFor(lower, hasDigits),
		SuggestedActions: suggestedActionsFor(docType, riskLevel),
	}
	return result, nil
}

func classify(lower string) string {
	switch {
	case containsAny(lower, complianceKeywords):
		return "compliance document"
	case containsAny(lower, portfolioKeywords):
		return "portfolio statement"
	case containsAny(lower, accountKeywords):
		return "account document"
	case containsAny(lower, meetingKeywords):
		return "meeting note"
	default:
		return "general correspondence"
	}
}

func assessRisk(lower string, hasDigits bool) (string, []string) {
	var factors []string
	if containsAny(lower, complianceKeywords) {
		factors = append(factors, "compliance-sensitive terms present")
	}
	if hasDigits && containsAny(lower, accountKeywords) {
		factors = append(factors, "account or transaction identifiers present")
	}
	switch len(factors) {
	case 0:
		return "low", []string{"no sensitive indicators detected"}
	case 1:
		return "medium", factors
	default:
		return "high", factors
	}
}

func keyPointsFor(docType, lower string, hasDigits bool) []string {
	points := []string{fmt.Sprintf("Document classified as %s", docType)}
	if hasDigits {
		points = append(points, "Numeric identifiers detected in the document")
	}
	if containsAny(lower, meetingKeywords) {
		points = append(points, "References a client meeting or follow-up")
	}
	return points
}

func clientNeedsFor(docType string) []string {
	switch docType {
	case "compliance document":
		return []string{"Confirmation that regulatory requirements are met"}
	case "portfolio statement":
		return []string{"Review of current investment allocation"}
	case "account document":
		return []string{"Verification of account details"}
	case "meeting note":
		return []string{"Timely follow-up on discussed topics"}
	default:
		return []string{"Acknowledgement of received correspondence"}
	}
}

func complianceFlagsFor(lower string, hasDigits bool) []string {
	var flags []string
	if containsAny(lower, complianceKeywords) {
		flags = append(flags, "regulatory-review")
	}
	if hasDigits && containsAny(lower, accountKeywords) {
		flags = append(flags, "contains-account-data")
	}
	return flags
}

func suggestedActionsFor(docType, riskLevel string) []SuggestedAction {
	actions := []SuggestedAction{
		{
			Type:        ActionCreateNote,
			Priority:    PriorityMedium,
			Description: fmt.Sprintf("Record a review note for this %s.", docType),
			Data: map[string]any{
				"title": fmt.Sprintf("Reviewed %s", docType),
			},
		},
	}
	if riskLevel != "low" {
		actions = append(actions, SuggestedAction{
			Type:        ActionFillComplianceForm,
			Priority:    PriorityHigh,
			Description: "Complete a compliance check for the flagged content.",
			Data: map[string]any{
				"formType": "standard-review",
				"risk":     riskLevel,
			},
		})
	}
	if docType == "meeting note" {
		actions = append(actions, SuggestedAction{
			Type:        ActionScheduleFollowUp,
			Priority:    PriorityMedium,
			Description: "Schedule the follow-up referenced in the document.",
			Data: map[string]any{
				"topic": "document follow-up",
			},
		})
	}
	return actions
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
