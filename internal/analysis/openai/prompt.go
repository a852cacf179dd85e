package openai

import "fmt"

const systemPrompt = `You are an assistant reviewing documents for a financial advisor.
Respond with a single JSON object using exactly these keys:
documentType (string), extractedText (string), summary (string),
keyPoints (array of strings), clientNeeds (array of strings),
riskAssessment (object with level one of low|medium|high and factors array of strings),
complianceFlags (array of strings),
suggestedActions (array of objects with type one of
create-note|fill-compliance-form|update-client-profile|schedule-follow-up,
priority one of low|medium|high, description string, data object).`

const visionPrompt = `Read the attached document image. Transcribe its full text into
extractedText and analyze it for the advisor as instructed.`

func buildTextPrompt(text string) string {
	return fmt.Sprintf("Analyze the following document text.\n\n---\n%s\n---", text)
}
