package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"advisor-backend/internal/analysis"
	"advisor-backend/internal/progress"
	"advisor-backend/internal/sessions"
	"advisor-backend/internal/shared/metrics"
	"advisor-backend/internal/shared/storage/object"
	"advisor-backend/internal/shared/telemetry"
	"advisor-backend/internal/shared/util"
)

// Pipeline stage identifiers and the percentage each stage reports.
const (
	stageReceived    = "received"
	stageClassifying = "classifying"
	stageExtracting  = "extracting"
	stageAnalyzing   = "analyzing"
	stageSaving      = "saving"

	pctReceived    = 5
	pctClassifying = 15
	pctExtracting  = 35
	pctAnalyzing   = 55
	pctSaving      = 85
)

// Orchestrator runs the upload pipeline: classify, extract, analyze, persist,
// with progress broadcast at every stage transition.
type Orchestrator struct {
	Store       *sessions.Store
	Objects     object.ObjectStore
	Chain       *analysis.Chain
	Vision      VisionAnalyzer
	Broadcaster *progress.Broadcaster
}

func NewOrchestrator(store *sessions.Store, objects object.ObjectStore, chain *analysis.Chain, vision VisionAnalyzer, broadcaster *progress.Broadcaster) *Orchestrator {
	return &Orchestrator{
		Store:       store,
		Objects:     objects,
		Chain:       chain,
		Vision:      vision,
		Broadcaster: broadcaster,
	}
}

// Run processes one uploaded document end to end and returns the stored
// document. Extraction failures abort the upload; analysis never does, because
// the chain terminates in a provider that cannot fail.
func (o *Orchestrator) Run(ctx context.Context, sessionID, fileName, contentType string, data []byte) (sessions.Document, error) {
	start := time.Now()
	metrics.IncPipelineStarted()

	sess, err := o.Store.GetSession(ctx, sessionID)
	if err != nil {
		return sessions.Document{}, err
	}
	if sess.Status == sessions.StatusClosed {
		return sessions.Document{}, sessions.ErrSessionClosed
	}

	o.Broadcaster.Emit(sessionID, stageReceived, "Document received", pctReceived)
	o.Broadcaster.Emit(sessionID, stageClassifying, "Classifying document", pctClassifying)
	o.Broadcaster.Emit(sessionID, stageExtracting, "Extracting text", pctExtracting)

	extraction, err := ClassifyAndExtract(ctx, o.Vision, sessionID, data, contentType)
	if err != nil {
		return sessions.Document{}, o.fail(sessionID, fmt.Errorf("extract: %w", err), start)
	}

	o.Broadcaster.Emit(sessionID, stageAnalyzing, "Analyzing content", pctAnalyzing)

	result := extraction.Analysis
	provider := "openai-vision"
	if result == nil {
		chained, providerName, err := o.Chain.Analyze(ctx, extraction.Text)
		if err != nil {
			return sessions.Document{}, o.fail(sessionID, fmt.Errorf("analyze: %w", err), start)
		}
		result = &chained
		provider = providerName
	} else {
		analysis.AssignActionIDs(result)
	}

	o.Broadcaster.Emit(sessionID, stageSaving, "Saving document", pctSaving)

	safeName, err := util.SanitizeFileName(fileName)
	if err != nil {
		return sessions.Document{}, o.fail(sessionID, fmt.Errorf("file name: %w", err), start)
	}
	storageKey, sizeBytes, _, err := o.Objects.Save(ctx, sessionID, safeName, bytes.NewReader(data))
	if err != nil {
		return sessions.Document{}, o.fail(sessionID, fmt.Errorf("object save: %w", err), start)
	}

	doc := sessions.Document{
		FileName:           fileName,
		StorageKey:         storageKey,
		ContentType:        contentType,
		SizeBytes:          sizeBytes,
		ExtractedText:      extraction.Text,
		Analysis:           result,
		ExtractionStrategy: extraction.Strategy,
	}
	stored, err := o.Store.AddDocument(ctx, sessionID, doc)
	if err != nil {
		return sessions.Document{}, o.fail(sessionID, fmt.Errorf("store document: %w", err), start)
	}

	o.Broadcaster.Complete(sessionID, "Analysis complete")
	metrics.IncPipelineCompleted()
	metrics.ObservePipelineDurationMs(float64(time.Since(start).Milliseconds()))
	telemetry.Info("pipeline.completed", map[string]any{
		"session_id":          sessionID,
		"document_id":         stored.ID,
		"extraction_strategy": stored.ExtractionStrategy,
		"provider":            provider,
		"duration_ms":         time.Since(start).Milliseconds(),
	})
	return stored, nil
}

// Reanalyze re-runs analysis for an already stored document by replaying its
// stored bytes through the strategy selector and the provider chain.
func (o *Orchestrator) Reanalyze(ctx context.Context, sessionID, documentID string) (sessions.Document, error) {
	doc, err := o.Store.GetDocument(ctx, sessionID, documentID)
	if err != nil {
		return sessions.Document{}, err
	}

	rc, err := o.Objects.Open(ctx, doc.StorageKey)
	if err != nil {
		return sessions.Document{}, fmt.Errorf("object open: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return sessions.Document{}, fmt.Errorf("object read: %w", err)
	}

	extraction, err := ClassifyAndExtract(ctx, o.Vision, sessionID, data, doc.ContentType)
	if err != nil {
		return sessions.Document{}, fmt.Errorf("extract: %w", err)
	}

	result := extraction.Analysis
	if result == nil {
		chained, _, err := o.Chain.Analyze(ctx, extraction.Text)
		if err != nil {
			return sessions.Document{}, fmt.Errorf("analyze: %w", err)
		}
		result = &chained
	} else {
		analysis.AssignActionIDs(result)
	}

	return o.Store.AddAnalysisToDocument(ctx, sessionID, documentID, *result)
}

func (o *Orchestrator) fail(sessionID string, err error, start time.Time) error {
	o.Broadcaster.EmitError(sessionID, err.Error())
	o.Broadcaster.Close(sessionID)
	metrics.IncPipelineFailed()
	telemetry.Error("pipeline.failed", map[string]any{
		"session_id":  sessionID,
		"err":         err.Error(),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return err
}
