package analysis

import (
	"context"
	"errors"
	"testing"
)

type stubAnalyzer struct {
	name   string
	result Analysis
	err    error
	calls  int
}

func (s *stubAnalyzer) Name() string { return s.name }

func (s *stubAnalyzer) Analyze(_ context.Context, _ string) (Analysis, error) {
	s.calls++
	if s.err != nil {
		return Analysis{}, s.err
	}
	return s.result, nil
}

func TestChainFirstSuccessWins(t *testing.T) {
	primary := &stubAnalyzer{name: "primary", result: Analysis{DocumentType: "meeting note"}}
	secondary := &stubAnalyzer{name: "secondary", result: Analysis{DocumentType: "other"}}

	chain := NewChain(primary, secondary)
	result, provider, err := chain.Analyze(context.Background(), "some text")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if provider != "primary" {
		t.Fatalf("provider = %q, want primary", provider)
	}
	if result.DocumentType != "meeting note" {
		t.Fatalf("documentType = %q", result.DocumentType)
	}
	if secondary.calls != 0 {
		t.Fatalf("secondary should not have been tried")
	}
}

func TestChainFallsBackInOrder(t *testing.T) {
	primary := &stubAnalyzer{name: "primary", err: errors.New("timeout")}
	secondary := &stubAnalyzer{name: "secondary", err: errors.New("quota")}

	chain := NewChain(primary, secondary)
	result, provider, err := chain.Analyze(context.Background(), "Meeting to discuss goals.")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if provider != "mock" {
		t.Fatalf("provider = %q, want mock terminal", provider)
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Fatalf("expected both providers tried once, got %d/%d", primary.calls, secondary.calls)
	}
	if result.DocumentType == "" {
		t.Fatalf("expected terminal analysis")
	}
}

func TestChainAlwaysTerminates(t *testing.T) {
	// Even an empty chain gets the terminal analyzer appended.
	chain := NewChain()
	result, provider, err := chain.Analyze(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if provider != "mock" {
		t.Fatalf("provider = %q", provider)
	}
	if result.ExtractedText != "hello" {
		t.Fatalf("extractedText = %q", result.ExtractedText)
	}
}

func TestChainAssignsUniqueActionIDs(t *testing.T) {
	primary := &stubAnalyzer{name: "primary", result: Analysis{
		SuggestedActions: []SuggestedAction{
			{Type: ActionCreateNote},
			{ID: "preset", Type: ActionScheduleFollowUp},
			{Type: ActionFillComplianceForm},
		},
	}}

	chain := NewChain(primary)
	result, _, err := chain.Analyze(context.Background(), "text")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	seen := map[string]bool{}
	for _, a := range result.SuggestedActions {
		if a.ID == "" {
			t.Fatalf("action without id: %+v", a)
		}
		if seen[a.ID] {
			t.Fatalf("duplicate action id %q", a.ID)
		}
		seen[a.ID] = true
	}
	if result.SuggestedActions[1].ID != "preset" {
		t.Fatalf("preset id overwritten: %q", result.SuggestedActions[1].ID)
	}
}

func TestChainBackfillsExtractedText(t *testing.T) {
	primary := &stubAnalyzer{name: "primary", result: Analysis{Summary: "ok"}}
	chain := NewChain(primary)

	result, _, err := chain.Analyze(context.Background(), "raw document text")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.ExtractedText != "raw document text" {
		t.Fatalf("extractedText = %q", result.ExtractedText)
	}
}
