package services

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/Lllllllleong/studyflow/internal/models"
	"github.com/google/uuid"
)

// Per-stage progress. Progress is set on stage entry and only reaches 100
// when the whole pipeline completes.
const (
	progressExtracting  = 25
	progressPersisting  = 50
	progressSummarizing = 75
	progressCompleted   = 100
)

// stageExecutor runs the ordered stage sequence for one task:
// extract -> persist document -> summarize -> narrate. Stages never run out
// of order and a failed stage is terminal for its task; no stage is retried.
type stageExecutor struct {
	extractor TextExtractor
	model     LanguageModel
	narrator  Narrator
	store     ContentStore
}

func (e *stageExecutor) run(ctx context.Context, t *task) {
	logCtx := slog.With("taskId", t.id, "filename", t.file.Filename)
	logCtx.Info("Pipeline started.")

	// --- Stage 1: extract text from the raw file ---
	t.advance(models.StatusExtracting, progressExtracting)
	text, err := e.extractor.Extract(ctx, t.file.Filename, t.file.Data)
	if err != nil {
		logCtx.Error("Extraction failed", "error", err)
		t.fail(ExtractionFailed, err)
		return
	}

	// --- Stage 2: persist the document ---
	t.advance(models.StatusPersisting, progressPersisting)
	doc := &models.Document{
		ID:             uuid.NewString(),
		OwnerID:        t.ownerID,
		Title:          titleFromFilename(t.file.Filename),
		SourceFilename: t.file.Filename,
		ExtractedText:  text,
		ByteSize:       int64(len(t.file.Data)),
		CreatedAt:      time.Now(),
	}
	if err := e.store.CreateDocument(ctx, doc); err != nil {
		logCtx.Error("Failed to persist document", "error", err)
		t.fail(StorageFailed, err)
		return
	}
	t.setDocumentID(doc.ID)
	logCtx = logCtx.With("documentId", doc.ID)
	logCtx.Info("Document persisted.", "byteSize", doc.ByteSize)

	// --- Stage 3: summarize ---
	// The document above is retained even if this or a later stage fails.
	t.advance(models.StatusSummarizing, progressSummarizing)
	summaryText, err := e.model.Summarize(ctx, text)
	if err != nil {
		logCtx.Error("Summarization failed", "error", err)
		t.fail(SummarizationFailed, err)
		return
	}

	// --- Stage 4: narrate and persist the summary ---
	// The summary row is written only after narration succeeds, so it always
	// carries its narration ref; a narration failure leaves the document
	// with no summary row at all.
	t.advance(models.StatusNarrating, progressSummarizing)
	narrationRef, err := e.narrator.Narrate(ctx, doc.ID, summaryText)
	if err != nil {
		logCtx.Error("Narration failed", "error", err)
		t.fail(NarrationFailed, err)
		return
	}
	summary := &models.Summary{
		ID:           uuid.NewString(),
		DocumentID:   doc.ID,
		Text:         summaryText,
		NarrationRef: narrationRef,
		CreatedAt:    time.Now(),
	}
	if err := e.store.CreateSummary(ctx, summary); err != nil {
		logCtx.Error("Failed to persist summary", "error", err)
		t.fail(NarrationFailed, err)
		return
	}

	t.advance(models.StatusCompleted, progressCompleted)
	logCtx.Info("Pipeline completed.", "summaryId", summary.ID, "narrationRef", narrationRef)
}

// titleFromFilename strips the extension from the source filename.
func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
