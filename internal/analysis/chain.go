package analysis

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"advisor-backend/internal/shared/metrics"
	"advisor-backend/internal/shared/telemetry"
)

// Analyzer produces a structured Analysis from extracted document text.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, text string) (Analysis, error)
}

// Chain tries analyzers in order until one succeeds. The last analyzer must be
// guaranteed to succeed so the pipeline always terminates with some analysis.
type Chain struct {
	analyzers []Analyzer
}

// NewChain constructs a Chain, appending MockAnalyzer as the terminal link if
// the caller did not already provide one.
func NewChain(analyzers ...Analyzer) *Chain {
	terminated := false
	for _, a := range analyzers {
		if _, ok := a.(MockAnalyzer); ok {
			terminated = true
		}
	}
	if !terminated {
		analyzers = append(analyzers, MockAnalyzer{})
	}
	return &Chain{analyzers: analyzers}
}

// Analyze runs the provider chain over rawText and returns the first successful
// Analysis with every suggested action carrying a fresh unique id.
func (c *Chain) Analyze(ctx context.Context, rawText string) (Analysis, string, error) {
	var lastErr error
	for i, a := range c.analyzers {
		if i > 0 {
			metrics.IncProviderFallback()
		}
		result, err := a.Analyze(ctx, rawText)
		if err != nil {
			lastErr = err
			telemetry.Warn("analysis.provider.failed", map[string]any{
				"provider": a.Name(),
				"err":      err.Error(),
			})
			continue
		}
		if strings.TrimSpace(result.ExtractedText) == "" {
			result.ExtractedText = rawText
		}
		AssignActionIDs(&result)
		return result, a.Name(), nil
	}
	if lastErr == nil {
		lastErr = errors.New("no analyzers configured")
	}
	return Analysis{}, "", lastErr
}

// AssignActionIDs gives every suggested action without an id a fresh unique one.
// Assignment happens once per analysis, not again on retries.
func AssignActionIDs(a *Analysis) {
	for i := range a.SuggestedActions {
		if a.SuggestedActions[i].ID == "" {
			a.SuggestedActions[i].ID = uuid.NewString()
		}
	}
}
