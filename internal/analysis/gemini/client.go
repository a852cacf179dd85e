package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"advisor-backend/internal/analysis"
)

// Client implements analysis.Analyzer using Google Gemini.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewClient constructs a Gemini-backed analyzer.
func NewClient(ctx context.Context, apiKey, modelName string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(modelName) == "" {
		modelName = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.2)

	return &Client{
		client: client,
		model:  model,
	}, nil
}

// Name implements analysis.Analyzer.
func (c *Client) Name() string { return "gemini" }

// Analyze runs the analysis prompt and parses the structured result. An
// unparseable payload degrades to the minimal fallback analysis.
func (c *Client) Analyze(ctx context.Context, text string) (analysis.Analysis, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(buildPrompt(text)))
	if err != nil {
		return analysis.Analysis{}, fmt.Errorf("gemini request failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return analysis.Analysis{}, fmt.Errorf("gemini returned empty candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	content := strings.TrimSpace(sb.String())
	if content == "" {
		return analysis.Analysis{}, fmt.Errorf("gemini response empty content")
	}

	result, err := analysis.ParsePayload(content)
	if err != nil {
		return analysis.MinimalFallback(content), nil
	}
	return result, nil
}

// Close releases the underlying API client.
func (c *Client) Close() error {
	return c.client.Close()
}

func buildPrompt(text string) string {
	return fmt.Sprintf(`You are an assistant reviewing documents for a financial advisor.
Respond with a single JSON object using exactly these keys:
documentType, extractedText, summary, keyPoints, clientNeeds,
riskAssessment {level, factors}, complianceFlags,
suggestedActions [{type, priority, description, data}] where type is one of
create-note, fill-compliance-form, update-client-profile, schedule-follow-up.

Analyze the following document text.

---
%s
---`, text)
}

var _ analysis.Analyzer = (*Client)(nil)
