package openai

import (
	"strings"
	"testing"
	"time"
)

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient("", "gpt-4o-mini", time.Second); err == nil {
		t.Fatalf("expected error for missing api key")
	}
	if _, err := NewClient("sk-test", "  ", time.Second); err == nil {
		t.Fatalf("expected error for missing model")
	}

	client, err := NewClient("sk-test", "gpt-4o-mini", 0)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.httpClient.Timeout != 45*time.Second {
		t.Fatalf("expected default timeout, got %s", client.httpClient.Timeout)
	}
	if client.Name() != "openai" {
		t.Fatalf("Name = %q", client.Name())
	}
}

func TestBuildTextPromptEmbedsDocument(t *testing.T) {
	prompt := buildTextPrompt("quarterly portfolio statement")
	if !strings.Contains(prompt, "quarterly portfolio statement") {
		t.Fatalf("prompt missing document text: %q", prompt)
	}
}

func TestSystemPromptNamesActionTypes(t *testing.T) {
	for _, actionType := range []string{
		"create-note",
		"fill-compliance-form",
		"update-client-profile",
		"schedule-follow-up",
	} {
		if !strings.Contains(systemPrompt, actionType) {
			t.Fatalf("system prompt missing action type %s", actionType)
		}
	}
}
