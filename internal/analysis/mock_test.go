package analysis

import (
	"context"
	"testing"
)

func TestMockAnalyzerClassification(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantType string
		wantRisk string
	}{
		{
			name:     "compliance",
			text:     "KYC paperwork requires the client's signature and consent.",
			wantType: "compliance document",
			wantRisk: "medium",
		},
		{
			name:     "portfolio",
			text:     "The portfolio allocation shifts 20% from bond funds to equity.",
			wantType: "portfolio statement",
			wantRisk: "low",
		},
		{
			name:     "account with identifiers",
			text:     "Transfer 5000 from account IBAN DE44500105175407324931.",
			wantType: "account document",
			wantRisk: "medium",
		},
		{
			name:     "meeting",
			text:     "Meeting with the client to discuss retirement goals. Follow up next week.",
			wantType: "meeting note",
			wantRisk: "low",
		},
		{
			name:     "general",
			text:     "Thank you for your letter. We appreciate the update.",
			wantType: "general correspondence",
			wantRisk: "low",
		},
		{
			name:     "compliance and account identifiers",
			text:     "AML review of account 12345 deposit records per regulation.",
			wantType: "compliance document",
			wantRisk: "high",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MockAnalyzer{}.Analyze(context.Background(), tt.text)
			if err != nil {
				t.Fatalf("Analyze: %v", err)
			}
			if result.DocumentType != tt.wantType {
				t.Fatalf("documentType = %q, want %q", result.DocumentType, tt.wantType)
			}
			if result.RiskAssessment.Level != tt.wantRisk {
				t.Fatalf("risk = %q, want %q", result.RiskAssessment.Level, tt.wantRisk)
			}
			if result.ExtractedText != tt.text {
				t.Fatalf("extractedText not carried through")
			}
			if len(result.SuggestedActions) == 0 {
				t.Fatalf("expected at least one suggested action")
			}
			if result.SuggestedActions[0].Type != ActionCreateNote {
				t.Fatalf("first action = %q, want create-note", result.SuggestedActions[0].Type)
			}
		})
	}
}

func TestMockAnalyzerActionSelection(t *testing.T) {
	elevated, _ := MockAnalyzer{}.Analyze(context.Background(), "Compliance regulation review required.")
	if !hasActionType(elevated.SuggestedActions, ActionFillComplianceForm) {
		t.Fatalf("expected compliance form action for elevated risk, got %+v", elevated.SuggestedActions)
	}

	meeting, _ := MockAnalyzer{}.Analyze(context.Background(), "Call scheduled to discuss the estate plan.")
	if !hasActionType(meeting.SuggestedActions, ActionScheduleFollowUp) {
		t.Fatalf("expected follow-up action for meeting note, got %+v", meeting.SuggestedActions)
	}

	calm, _ := MockAnalyzer{}.Analyze(context.Background(), "General greetings and well wishes.")
	if hasActionType(calm.SuggestedActions, ActionFillComplianceForm) {
		t.Fatalf("did not expect compliance form action for low risk")
	}
}

func hasActionType(actions []SuggestedAction, actionType string) bool {
	for _, a := range actions {
		if a.Type == actionType {
			return true
		}
	}
	return false
}
