package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/vertexai/genai"
)

// --- Extractor Model Prompts ---
const ExtractorSystemPrompt = "You are a document parser. Your task is to extract the complete plain-text content of an uploaded document. Accuracy and information preservation are of utmost importance."
const ExtractorUserPrompt = `You will be provided with a document file.

Extract its full text content as plain text:

Text: Reproduce all text content in reading order.
Lists and tables: Flatten into plain text lines, preserving the original order of items and rows.
Images: Skip images entirely.
Headers and Footers: Ignore repeated page headers, footers, and page numbers.

Return ONLY the extracted text. Do not add commentary, headings of your own, or markdown fences.`

// --- Summarizer Model Prompts ---
const SummarizerSystemPrompt = "You are an expert educational tutor. Create a comprehensive yet concise summary of the following academic content. Focus on key concepts, main ideas, and important details that would help a student understand and remember the material."
const SummarizerUserPrompt = "Please summarize this academic content:"

// --- Quiz Generator Model Prompts ---
const QuizSystemPrompt = `You are an educational quiz generator. Create multiple-choice questions based on the provided content. Return ONLY a valid JSON array with questions in this exact format: [{"id": "1", "question": "Question text?", "options": ["A", "B", "C", "D"], "correct_answer": 0, "explanation": "Why this is correct"}]`

// --- Tutor Model Prompts ---
const TutorSystemPrompt = "You are an AI tutor helping students understand their academic materials. Use the following document content to answer questions accurately and helpfully."

// VertexClient holds all pre-configured generative models for our app.
type VertexClient struct {
	ExtractorModel  *genai.GenerativeModel
	SummarizerModel *genai.GenerativeModel
	QuizModel       *genai.GenerativeModel
	baseClient      *genai.Client
}

// NewVertexClient creates a new client holding all necessary models.
func NewVertexClient(ctx context.Context, projectID, region string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	// --- Configure the extractor model ---
	extractorModel := baseClient.GenerativeModel("gemini-1.5-pro")
	extractorModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(ExtractorSystemPrompt)},
	}
	extractorModel.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr[float32](0.0),
	}

	// --- Configure the summarizer model ---
	summarizerModel := baseClient.GenerativeModel("gemini-1.5-pro")
	summarizerModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(SummarizerSystemPrompt)},
	}
	summarizerModel.GenerationConfig = genai.GenerationConfig{
		Temperature:     genai.Ptr[float32](0.3),
		MaxOutputTokens: genai.Ptr[int32](1000),
	}

	// --- Configure the quiz generator model ---
	quizModel := baseClient.GenerativeModel("gemini-1.5-pro")
	quizModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(QuizSystemPrompt)},
	}
	quizModel.GenerationConfig = genai.GenerationConfig{
		// Force JSON output. This is a critical setting for this model.
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.3),
		MaxOutputTokens:  genai.Ptr[int32](1500),
	}
	quizModel.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
	}

	return &VertexClient{
		ExtractorModel:  extractorModel,
		SummarizerModel: summarizerModel,
		QuizModel:       quizModel,
		baseClient:      baseClient,
	}, nil
}

// TutorModel builds a chat model whose system instruction carries the
// (already truncated) document context for one conversational exchange.
func (c *VertexClient) TutorModel(contextText string) *genai.GenerativeModel {
	model := c.baseClient.GenerativeModel("gemini-1.5-pro")
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(fmt.Sprintf("%s Document content: %s", TutorSystemPrompt, contextText))},
	}
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:     genai.Ptr[float32](0.7),
		MaxOutputTokens: genai.Ptr[int32](800),
	}
	return model
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
