package services

import (
	"context"
	"time"

	"github.com/Lllllllleong/studyflow/internal/models"
)

// The core engines depend on these collaborator contracts only; the GCP
// implementations live alongside in this package, fakes live in the tests.

// TextExtractor turns one raw source file into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, filename string, data []byte) (string, error)
}

// LanguageModel is the stateless request/response surface of the LLM.
// GenerateQuiz returns the questions exactly as the model produced them;
// unparseable output is reported as zero questions, never a partial list.
// Converse receives the full prior message sequence with the pending user
// message last, plus the bounded document context.
type LanguageModel interface {
	Summarize(ctx context.Context, content string) (string, error)
	GenerateQuiz(ctx context.Context, content string, count int) ([]models.QuizQuestion, error)
	Converse(ctx context.Context, history []models.ChatMessage, contextText string) (string, error)
}

// Narrator synthesizes speech for a summary and stores the audio, returning
// a durable reference to it.
type Narrator interface {
	Narrate(ctx context.Context, documentID, text string) (string, error)
}

// ContentStore is the durable keyed storage for all persisted entities.
// Lookups that find nothing return (nil, nil); errors are reserved for the
// store itself misbehaving.
type ContentStore interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	RecentDocuments(ctx context.Context, ownerID string, limit int) ([]*models.Document, error)

	CreateSummary(ctx context.Context, summary *models.Summary) error

	QuizByDocument(ctx context.Context, documentID string) (*models.Quiz, error)
	CreateQuiz(ctx context.Context, quiz *models.Quiz) error

	CreateAttempt(ctx context.Context, attempt *models.QuizAttempt) error
	RecentAttempts(ctx context.Context, userID string, limit int) ([]*models.QuizAttempt, error)

	ConversationFor(ctx context.Context, documentID, userID string) (*models.Conversation, error)
	CreateConversation(ctx context.Context, conv *models.Conversation) error
	UpdateConversationMessages(ctx context.Context, id string, messages []models.ChatMessage, updatedAt time.Time) error
}
