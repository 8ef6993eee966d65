package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/Lllllllleong/studyflow/internal/gcp"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// GeminiExtractor implements TextExtractor. PDF input is validated and
// optimized locally with pdfcpu before the file is handed to Gemini for
// text extraction; plain-text files pass through untouched.
type GeminiExtractor struct {
	vertexClient *gcp.VertexClient
}

func NewGeminiExtractor(vertexClient *gcp.VertexClient) *GeminiExtractor {
	return &GeminiExtractor{vertexClient: vertexClient}
}

// Extract returns the plain-text content of one source file. Any failure
// here means no Document is created for the task.
func (e *GeminiExtractor) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	logCtx := slog.With("filename", filename, "byteSize", len(data))

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md":
		return string(data), nil
	case ".pdf":
		// Fall through to the PDF path below.
	default:
		return "", fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}

	optimized, pageCount, err := validateAndOptimizePDF(data)
	if err != nil {
		logCtx.Error("PDF validation failed", "error", err)
		return "", fmt.Errorf("malformed PDF: %w", err)
	}
	logCtx.Info("PDF validated and optimized.", "pageCount", pageCount)

	prompt := genai.Text(gcp.ExtractorUserPrompt)
	filePart := genai.Blob{
		MIMEType: "application/pdf",
		Data:     optimized,
	}

	geminiResp, err := e.vertexClient.ExtractorModel.GenerateContent(ctx, filePart, prompt)
	if err != nil {
		logCtx.Error("Call to Vertex AI for extraction failed", "error", err)
		return "", fmt.Errorf("failed to extract text from gemini: %w", err)
	}

	text := extractResponseText(geminiResp)

	// Sanity check for LLM refusal. If the model refuses to answer, we must fail fast.
	refusalPhrases := []string{
		"i am unable to",
		"i cannot fulfill",
		"i cannot answer",
		"i cannot provide",
		"as a large language model",
	}
	lowerText := strings.ToLower(text)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lowerText, phrase) {
			err := fmt.Errorf("gemini response indicates refusal for file %s", filename)
			logCtx.Error("Refusal detected in extraction response", "error", err)
			return "", err
		}
	}

	if text == "" {
		return "", fmt.Errorf("no text content extracted from %s", filename)
	}
	return text, nil
}

// validateAndOptimizePDF round-trips the bytes through pdfcpu with relaxed
// validation. A file pdfcpu cannot optimize is treated as malformed input.
func validateAndOptimizePDF(data []byte) ([]byte, int, error) {
	tempDir, err := os.MkdirTemp("", "studyflow-extract-*")
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	sourcePath := filepath.Join(tempDir, "source.pdf")
	if err := os.WriteFile(sourcePath, data, 0o600); err != nil {
		return nil, 0, fmt.Errorf("failed to write temp PDF: %w", err)
	}

	optimizedPath := filepath.Join(tempDir, "optimized.pdf")
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	if err := api.OptimizeFile(sourcePath, optimizedPath, cfg); err != nil {
		return nil, 0, fmt.Errorf("failed to validate/optimize PDF: %w", err)
	}

	pageCount, err := api.PageCountFile(optimizedPath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get page count: %w", err)
	}

	optimized, err := os.ReadFile(optimizedPath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read optimized PDF: %w", err)
	}
	return optimized, pageCount, nil
}

// extractResponseText parses a model response and robustly extracts its text
// content, trimming any markdown fences the model added despite instructions.
func extractResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return ""
	}

	var content strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			content.WriteString(string(txt))
		}
	}

	contentStr := strings.TrimSpace(content.String())
	contentStr = strings.TrimPrefix(contentStr, "```markdown")
	contentStr = strings.TrimPrefix(contentStr, "```json")
	contentStr = strings.TrimPrefix(contentStr, "```")
	contentStr = strings.TrimSuffix(contentStr, "```")
	return strings.TrimSpace(contentStr)
}
