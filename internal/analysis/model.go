package analysis

// Action type tags understood by the action execution engine.
const (
	ActionCreateNote          = "create-note"
	ActionFillComplianceForm  = "fill-compliance-form"
	ActionUpdateClientProfile = "update-client-profile"
	ActionScheduleFollowUp    = "schedule-follow-up"
)

// Priority levels for suggested actions.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Analysis is the structured output of the document pipeline.
type Analysis struct {
	DocumentType     string            `json:"documentType"`
	ExtractedText    string            `json:"extractedText"`
	Summary          string            `json:"summary"`
	KeyPoints        []string          `json:"keyPoints"`
	ClientNeeds      []string          `json:"clientNeeds"`
	RiskAssessment   RiskAssessment    `json:"riskAssessment"`
	ComplianceFlags  []string          `json:"complianceFlags"`
	SuggestedActions []SuggestedAction `json:"suggestedActions"`
}

// RiskAssessment describes a coarse risk level and its contributing factors.
type RiskAssessment struct {
	Level   string   `json:"level"`
	Factors []string `json:"factors"`
}

// SuggestedAction is a derived next step that can be executed individually.
type SuggestedAction struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Priority    string         `json:"priority"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data,omitempty"`
}
