package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/Lllllllleong/studyflow/internal/models"
	"github.com/google/uuid"
)

const defaultQuestionCount = 5

// QuizEngine creates and reuses quizzes and opens scoring sessions on them.
type QuizEngine struct {
	store ContentStore
	model LanguageModel
}

func NewQuizEngine(store ContentStore, model LanguageModel) *QuizEngine {
	return &QuizEngine{store: store, model: model}
}

// GetOrCreateQuiz returns the existing quiz for a document, or generates,
// validates, and persists a new one. Generation is all-or-nothing: malformed
// model output persists nothing and fails with QuizGenerationFailed.
func (e *QuizEngine) GetOrCreateQuiz(ctx context.Context, documentID string) (*models.Quiz, error) {
	logCtx := slog.With("documentId", documentID)

	existing, err := e.store.QuizByDocument(ctx, documentID)
	if err != nil {
		return nil, &Failure{Kind: StorageFailed, Err: err}
	}
	if existing != nil {
		logCtx.Info("Reusing existing quiz.", "quizId", existing.ID)
		return existing, nil
	}

	doc, err := e.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, &Failure{Kind: StorageFailed, Err: err}
	}
	if doc == nil {
		return nil, failf(ValidationFailed, "document %s not found", documentID)
	}

	questions, err := e.model.GenerateQuiz(ctx, doc.ExtractedText, defaultQuestionCount)
	if err != nil {
		return nil, &Failure{Kind: QuizGenerationFailed, Err: err}
	}
	if err := validateQuestions(questions); err != nil {
		logCtx.Warn("Generated quiz rejected.", "error", err)
		return nil, &Failure{Kind: QuizGenerationFailed, Err: err}
	}

	quiz := &models.Quiz{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		Title:      fmt.Sprintf("Quiz: %s", doc.Title),
		Questions:  questions,
		CreatedAt:  time.Now(),
	}
	if err := e.store.CreateQuiz(ctx, quiz); err != nil {
		return nil, &Failure{Kind: StorageFailed, Err: err}
	}
	logCtx.Info("Quiz generated and persisted.", "quizId", quiz.ID, "questionCount", len(quiz.Questions))
	return quiz, nil
}

// validateQuestions checks the generated payload against the quiz schema.
// Any shape mismatch rejects the whole quiz; the payload is never partially
// trusted.
func validateQuestions(questions []models.QuizQuestion) error {
	if len(questions) == 0 {
		return fmt.Errorf("model produced zero usable questions")
	}
	seen := make(map[string]struct{}, len(questions))
	for i, q := range questions {
		if q.ID == "" {
			return fmt.Errorf("question %d has no id", i)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("duplicate question id %q", q.ID)
		}
		seen[q.ID] = struct{}{}
		if q.Text == "" {
			return fmt.Errorf("question %q has no text", q.ID)
		}
		if len(q.Options) != 4 {
			return fmt.Errorf("question %q has %d options, want 4", q.ID, len(q.Options))
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= 4 {
			return fmt.Errorf("question %q has correct index %d out of range", q.ID, q.CorrectIndex)
		}
	}
	return nil
}

// StartSession opens an in-memory attempt on a quiz for one user.
func (e *QuizEngine) StartSession(quiz *models.Quiz, userID string) (*QuizSession, error) {
	if quiz == nil || len(quiz.Questions) == 0 {
		return nil, failf(ValidationFailed, "cannot start a session on an empty quiz")
	}
	return &QuizSession{
		store:   e.store,
		quiz:    quiz,
		userID:  userID,
		answers: make(map[string]int),
	}, nil
}

// PreviousResults lists the user's most recent attempts, newest first.
func (e *QuizEngine) PreviousResults(ctx context.Context, userID string, limit int) ([]*models.QuizAttempt, error) {
	attempts, err := e.store.RecentAttempts(ctx, userID, limit)
	if err != nil {
		return nil, &Failure{Kind: StorageFailed, Err: err}
	}
	return attempts, nil
}

// QuizSession is one pass through a quiz. Answers accumulate in memory only;
// a single QuizAttempt is persisted when Complete is called.
type QuizSession struct {
	store  ContentStore
	quiz   *models.Quiz
	userID string

	mu      sync.Mutex
	index   int
	answers map[string]int
	result  *models.QuizAttempt
}

// Current returns the question under the cursor and its index.
func (s *QuizSession) Current() (models.QuizQuestion, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quiz.Questions[s.index], s.index
}

// SelectAnswer records the chosen option for a question in memory.
func (s *QuizSession) SelectAnswer(questionID string, optionIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result != nil {
		return failf(ValidationFailed, "session is already completed")
	}
	for _, q := range s.quiz.Questions {
		if q.ID == questionID {
			if optionIndex < 0 || optionIndex >= len(q.Options) {
				return failf(ValidationFailed, "option index %d out of range for question %s", optionIndex, questionID)
			}
			s.answers[questionID] = optionIndex
			return nil
		}
	}
	return failf(ValidationFailed, "question %s is not part of this quiz", questionID)
}

// Next moves the cursor forward. Moving past the last question is rejected;
// the caller must Complete instead.
func (s *QuizSession) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result != nil {
		return failf(ValidationFailed, "session is already completed")
	}
	if s.index >= len(s.quiz.Questions)-1 {
		return failf(ValidationFailed, "already at the last question; complete the session instead")
	}
	s.index++
	return nil
}

// Previous moves the cursor back.
func (s *QuizSession) Previous() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result != nil {
		return failf(ValidationFailed, "session is already completed")
	}
	if s.index <= 0 {
		return failf(ValidationFailed, "already at the first question")
	}
	s.index--
	return nil
}

// Complete scores the attempt and persists it exactly once. Unanswered
// questions count as incorrect. Calling Complete again returns the attempt
// persisted by the first call.
func (s *QuizSession) Complete(ctx context.Context) (*models.QuizAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result != nil {
		return s.result, nil
	}

	correct := 0
	for _, q := range s.quiz.Questions {
		if selected, ok := s.answers[q.ID]; ok && selected == q.CorrectIndex {
			correct++
		}
	}
	score := int(math.Round(float64(correct) / float64(len(s.quiz.Questions)) * 100))

	answers := make(map[string]int, len(s.answers))
	for id, selected := range s.answers {
		answers[id] = selected
	}
	attempt := &models.QuizAttempt{
		ID:          uuid.NewString(),
		QuizID:      s.quiz.ID,
		UserID:      s.userID,
		Score:       score,
		Answers:     answers,
		CompletedAt: time.Now(),
	}
	if err := s.store.CreateAttempt(ctx, attempt); err != nil {
		return nil, &Failure{Kind: StorageFailed, Err: err}
	}

	s.result = attempt
	slog.Info("Quiz attempt completed.", "quizId", s.quiz.ID, "userId", s.userID, "score", score, "correct", correct)
	return attempt, nil
}
