package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Lllllllleong/studyflow/internal/models"
	"github.com/google/uuid"
)

// defaultContextBudget caps how much document text accompanies each model
// call, in characters.
const defaultContextBudget = 3000

// ConversationEngine loads or creates per-(document,user) conversations and
// opens single-writer sessions on them.
type ConversationEngine struct {
	store         ContentStore
	model         LanguageModel
	contextBudget int
}

func NewConversationEngine(store ContentStore, model LanguageModel) *ConversationEngine {
	return &ConversationEngine{
		store:         store,
		model:         model,
		contextBudget: defaultContextBudget,
	}
}

// LoadOrCreate returns a session for the user's conversation about a
// document, creating and persisting an empty conversation on first contact.
func (e *ConversationEngine) LoadOrCreate(ctx context.Context, documentID, userID string) (*ConversationSession, error) {
	doc, err := e.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, &Failure{Kind: StorageFailed, Err: err}
	}
	if doc == nil {
		return nil, failf(ValidationFailed, "document %s not found", documentID)
	}

	conv, err := e.store.ConversationFor(ctx, documentID, userID)
	if err != nil {
		return nil, &Failure{Kind: StorageFailed, Err: err}
	}
	if conv == nil {
		now := time.Now()
		conv = &models.Conversation{
			ID:         uuid.NewString(),
			DocumentID: documentID,
			UserID:     userID,
			Messages:   []models.ChatMessage{},
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := e.store.CreateConversation(ctx, conv); err != nil {
			return nil, &Failure{Kind: StorageFailed, Err: err}
		}
		slog.Info("Conversation created.", "conversationId", conv.ID, "documentId", documentID, "userId", userID)
	}

	return &ConversationSession{
		store:         e.store,
		model:         e.model,
		conversation:  conv,
		documentText:  doc.ExtractedText,
		contextBudget: e.contextBudget,
	}, nil
}

// ConversationSession is the single writer for one conversation. Messages
// only ever grow; the persisted record is rewritten as one update after each
// completed turn, so a failed model call leaves the stored history untouched.
type ConversationSession struct {
	store         ContentStore
	model         LanguageModel
	documentText  string
	contextBudget int

	mu           sync.Mutex
	conversation *models.Conversation
	pending      *models.ChatMessage
}

// ID returns the conversation id.
func (s *ConversationSession) ID() string {
	return s.conversation.ID
}

// Messages returns a snapshot of the in-memory message sequence, including a
// pending user message awaiting a reply.
func (s *ConversationSession) Messages() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := make([]models.ChatMessage, len(s.conversation.Messages))
	copy(msgs, s.conversation.Messages)
	if s.pending != nil {
		msgs = append(msgs, *s.pending)
	}
	return msgs
}

// SendMessage runs one turn: append the user message, call the model with
// the bounded document context plus the full prior history, append the
// reply, and persist the whole sequence as one write. On model failure the
// user message stays pending in memory only and the same text may be
// retried without duplicating it.
func (s *ConversationSession) SendMessage(ctx context.Context, text string) (models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if text == "" {
		return models.ChatMessage{}, failf(ValidationFailed, "message text must not be empty")
	}

	if s.pending == nil || s.pending.Text != text {
		s.pending = &models.ChatMessage{
			ID:        uuid.NewString(),
			Role:      models.RoleUser,
			Text:      text,
			Timestamp: time.Now(),
		}
	}

	history := make([]models.ChatMessage, 0, len(s.conversation.Messages)+1)
	history = append(history, s.conversation.Messages...)
	history = append(history, *s.pending)

	reply, err := s.model.Converse(ctx, history, s.boundedContext())
	if err != nil {
		slog.Warn("Model call failed; user message kept pending.", "conversationId", s.conversation.ID, "error", err)
		return models.ChatMessage{}, &Failure{Kind: ConversationFailed, Err: err}
	}

	assistant := models.ChatMessage{
		ID:        uuid.NewString(),
		Role:      models.RoleAssistant,
		Text:      reply,
		Timestamp: time.Now(),
	}
	updated := append(history, assistant)
	now := time.Now()

	if err := s.store.UpdateConversationMessages(ctx, s.conversation.ID, updated, now); err != nil {
		slog.Error("Failed to persist conversation turn.", "conversationId", s.conversation.ID, "error", err)
		return models.ChatMessage{}, &Failure{Kind: ConversationFailed, Err: err}
	}

	s.conversation.Messages = updated
	s.conversation.UpdatedAt = now
	s.pending = nil
	return assistant, nil
}

func (s *ConversationSession) boundedContext() string {
	if len(s.documentText) <= s.contextBudget {
		return s.documentText
	}
	return s.documentText[:s.contextBudget]
}
