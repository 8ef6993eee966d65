package services_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Lllllllleong/studyflow/internal/models"
)

// In-memory fakes for the collaborator contracts. Error fields, when set,
// make the corresponding call fail.

type fakeExtractor struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
}

func (f *fakeExtractor) Extract(_ context.Context, _ string, _ []byte) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *fakeExtractor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeModel struct {
	mu sync.Mutex

	summary    string
	summaryErr error

	questions []models.QuizQuestion
	quizErr   error
	quizCalls int

	reply        string
	converseErr  error
	lastContext  string
	lastHistory  []models.ChatMessage
	converseCall int
}

func (f *fakeModel) Summarize(_ context.Context, _ string) (string, error) {
	if f.summaryErr != nil {
		return "", f.summaryErr
	}
	return f.summary, nil
}

func (f *fakeModel) GenerateQuiz(_ context.Context, _ string, _ int) ([]models.QuizQuestion, error) {
	f.mu.Lock()
	f.quizCalls++
	f.mu.Unlock()
	if f.quizErr != nil {
		return nil, f.quizErr
	}
	return f.questions, nil
}

func (f *fakeModel) Converse(_ context.Context, history []models.ChatMessage, contextText string) (string, error) {
	f.mu.Lock()
	f.converseCall++
	f.lastContext = contextText
	f.lastHistory = append([]models.ChatMessage(nil), history...)
	f.mu.Unlock()
	if f.converseErr != nil {
		return "", f.converseErr
	}
	if f.reply != "" {
		return f.reply, nil
	}
	return fmt.Sprintf("reply %d", f.converseCall), nil
}

type fakeNarrator struct {
	err   error
	calls int
}

func (f *fakeNarrator) Narrate(_ context.Context, documentID, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("gs://narration/%s/summary.mp3", documentID), nil
}

type fakeStore struct {
	mu sync.Mutex

	documents     map[string]*models.Document
	summaries     map[string]*models.Summary
	quizzes       map[string]*models.Quiz
	attempts      map[string]*models.QuizAttempt
	conversations map[string]*models.Conversation

	conversationCreates int

	createDocumentErr error
	createSummaryErr  error
	createQuizErr     error
	createAttemptErr  error
	updateConvErr     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		documents:     make(map[string]*models.Document),
		summaries:     make(map[string]*models.Summary),
		quizzes:       make(map[string]*models.Quiz),
		attempts:      make(map[string]*models.QuizAttempt),
		conversations: make(map[string]*models.Conversation),
	}
}

func (f *fakeStore) CreateDocument(_ context.Context, doc *models.Document) error {
	if f.createDocumentErr != nil {
		return f.createDocumentErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *doc
	f.documents[doc.ID] = &cp
	return nil
}

func (f *fakeStore) GetDocument(_ context.Context, id string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.documents[id]
	if !ok {
		return nil, nil
	}
	cp := *doc
	return &cp, nil
}

func (f *fakeStore) RecentDocuments(_ context.Context, ownerID string, limit int) ([]*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var docs []*models.Document
	for _, doc := range f.documents {
		if doc.OwnerID == ownerID && len(docs) < limit {
			cp := *doc
			docs = append(docs, &cp)
		}
	}
	return docs, nil
}

func (f *fakeStore) CreateSummary(_ context.Context, summary *models.Summary) error {
	if f.createSummaryErr != nil {
		return f.createSummaryErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *summary
	f.summaries[summary.ID] = &cp
	return nil
}

func (f *fakeStore) QuizByDocument(_ context.Context, documentID string) (*models.Quiz, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, quiz := range f.quizzes {
		if quiz.DocumentID == documentID {
			cp := *quiz
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateQuiz(_ context.Context, quiz *models.Quiz) error {
	if f.createQuizErr != nil {
		return f.createQuizErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *quiz
	f.quizzes[quiz.ID] = &cp
	return nil
}

func (f *fakeStore) CreateAttempt(_ context.Context, attempt *models.QuizAttempt) error {
	if f.createAttemptErr != nil {
		return f.createAttemptErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *attempt
	f.attempts[attempt.ID] = &cp
	return nil
}

func (f *fakeStore) RecentAttempts(_ context.Context, userID string, limit int) ([]*models.QuizAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var attempts []*models.QuizAttempt
	for _, attempt := range f.attempts {
		if attempt.UserID == userID && len(attempts) < limit {
			cp := *attempt
			attempts = append(attempts, &cp)
		}
	}
	return attempts, nil
}

func (f *fakeStore) ConversationFor(_ context.Context, documentID, userID string) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, conv := range f.conversations {
		if conv.DocumentID == documentID && conv.UserID == userID {
			cp := *conv
			cp.Messages = append([]models.ChatMessage(nil), conv.Messages...)
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateConversation(_ context.Context, conv *models.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conversationCreates++
	cp := *conv
	cp.Messages = append([]models.ChatMessage(nil), conv.Messages...)
	f.conversations[conv.ID] = &cp
	return nil
}

func (f *fakeStore) UpdateConversationMessages(_ context.Context, id string, messages []models.ChatMessage, updatedAt time.Time) error {
	if f.updateConvErr != nil {
		return f.updateConvErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[id]
	if !ok {
		return fmt.Errorf("conversation %s not found", id)
	}
	conv.Messages = append([]models.ChatMessage(nil), messages...)
	conv.UpdatedAt = updatedAt
	return nil
}

func (f *fakeStore) documentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.documents)
}

func (f *fakeStore) summaryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.summaries)
}

func (f *fakeStore) quizCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.quizzes)
}

func (f *fakeStore) attemptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.attempts)
}

func (f *fakeStore) persistedMessages(id string) []models.ChatMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[id]
	if !ok {
		return nil
	}
	return append([]models.ChatMessage(nil), conv.Messages...)
}

func (f *fakeStore) anySummary() *models.Summary {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, summary := range f.summaries {
		cp := *summary
		return &cp
	}
	return nil
}

func (f *fakeStore) seedDocument(doc *models.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *doc
	f.documents[doc.ID] = &cp
}
