package pipeline

import (
	"context"

	"advisor-backend/internal/analysis"
	"advisor-backend/internal/extract"
	"advisor-backend/internal/sessions"
	"advisor-backend/internal/shared/telemetry"
)

// VisionAnalyzer performs whole-document analysis directly from image bytes.
type VisionAnalyzer interface {
	AnalyzeImage(ctx context.Context, data []byte, mimeType string) (analysis.Analysis, error)
}

// Extraction is the outcome of the classification stage: the raw text plus,
// for the vision path, the analysis that came with it.
type Extraction struct {
	Text     string
	Strategy string
	Analysis *analysis.Analysis
}

// ClassifyAndExtract picks the extraction strategy for a document and runs it.
//
// Images go through vision analysis, which reads the text and analyzes it in
// one call; if vision is unavailable or fails, the OCR fallback produces text
// only and the regular analysis chain runs afterward. Everything else goes
// through plain text extraction, where a failure is fatal for the upload.
func ClassifyAndExtract(ctx context.Context, vision VisionAnalyzer, sessionID string, data []byte, contentType string) (Extraction, error) {
	if !extract.IsImage(contentType) {
		text, err := extract.Text(ctx, data, contentType)
		if err != nil {
			return Extraction{}, err
		}
		return Extraction{Text: text, Strategy: sessions.StrategyTextExtraction}, nil
	}

	if vision != nil {
		result, err := vision.AnalyzeImage(ctx, data, contentType)
		if err == nil {
			return Extraction{
				Text:     result.ExtractedText,
				Strategy: sessions.StrategyVision,
				Analysis: &result,
			}, nil
		}
		telemetry.Warn("pipeline.vision.failed", map[string]any{
			"session_id":   sessionID,
			"content_type": contentType,
			"err":          err.Error(),
		})
	}

	text, err := extract.ImageText(ctx, data, contentType)
	if err != nil {
		return Extraction{}, err
	}
	return Extraction{Text: text, Strategy: sessions.StrategyOCRFallback}, nil
}
