package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"cloud.google.com/go/vertexai/genai"
	"github.com/Lllllllleong/studyflow/internal/gcp"
	"github.com/Lllllllleong/studyflow/internal/models"
)

// VertexLanguageModel implements LanguageModel on the pre-configured Gemini
// models held by the shared VertexClient.
type VertexLanguageModel struct {
	vertexClient *gcp.VertexClient
}

func NewVertexLanguageModel(vertexClient *gcp.VertexClient) *VertexLanguageModel {
	return &VertexLanguageModel{vertexClient: vertexClient}
}

func (m *VertexLanguageModel) Summarize(ctx context.Context, content string) (string, error) {
	prompt := genai.Text(fmt.Sprintf("%s\n\n%s", gcp.SummarizerUserPrompt, content))
	resp, err := m.vertexClient.SummarizerModel.GenerateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate summary from gemini: %w", err)
	}
	summary := extractResponseText(resp)
	if summary == "" {
		return "", fmt.Errorf("gemini returned an empty summary")
	}
	return summary, nil
}

// parsedQuestion is the JSON shape the quiz model is instructed to emit.
type parsedQuestion struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// GenerateQuiz asks the quiz model for count questions. Output that is not a
// parseable JSON array yields zero questions rather than an error; the quiz
// engine decides what an empty result means.
func (m *VertexLanguageModel) GenerateQuiz(ctx context.Context, content string, count int) ([]models.QuizQuestion, error) {
	prompt := genai.Text(fmt.Sprintf("Create a quiz with %d multiple-choice questions from this content:\n\n%s", count, content))
	resp, err := m.vertexClient.QuizModel.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate quiz from gemini: %w", err)
	}

	jsonString := extractResponseText(resp)
	if jsonString == "" {
		slog.Warn("Quiz model returned an empty response.")
		return nil, nil
	}

	var parsed []parsedQuestion
	if err := json.Unmarshal([]byte(jsonString), &parsed); err != nil {
		slog.Warn("Failed to unmarshal quiz JSON from model, treating as zero questions.", "error", err)
		return nil, nil
	}

	questions := make([]models.QuizQuestion, 0, len(parsed))
	for i, q := range parsed {
		id := q.ID
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		questions = append(questions, models.QuizQuestion{
			ID:           id,
			Text:         q.Question,
			Options:      q.Options,
			CorrectIndex: q.CorrectAnswer,
			Explanation:  q.Explanation,
		})
	}
	return questions, nil
}

// Converse runs one tutoring exchange. The last history entry must be the
// pending user message; everything before it becomes chat history.
func (m *VertexLanguageModel) Converse(ctx context.Context, history []models.ChatMessage, contextText string) (string, error) {
	if len(history) == 0 || history[len(history)-1].Role != models.RoleUser {
		return "", fmt.Errorf("conversation history must end with a user message")
	}

	model := m.vertexClient.TutorModel(contextText)
	chat := model.StartChat()
	chat.History = toGenaiContents(history[:len(history)-1])

	resp, err := chat.SendMessage(ctx, genai.Text(history[len(history)-1].Text))
	if err != nil {
		return "", fmt.Errorf("failed to generate chat reply from gemini: %w", err)
	}

	reply := extractResponseText(resp)
	if reply == "" {
		return "", fmt.Errorf("gemini returned an empty chat reply")
	}
	return reply, nil
}

func toGenaiContents(messages []models.ChatMessage) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		role := "user"
		if msg.Role == models.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Text)},
		})
	}
	return contents
}
