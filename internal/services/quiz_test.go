package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Lllllllleong/studyflow/internal/models"
	"github.com/Lllllllleong/studyflow/internal/services"
	"github.com/stretchr/testify/require"
)

func validQuestions(n int) []models.QuizQuestion {
	questions := make([]models.QuizQuestion, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, models.QuizQuestion{
			ID:           fmt.Sprintf("q%d", i+1),
			Text:         fmt.Sprintf("Question %d?", i+1),
			Options:      []string{"A", "B", "C", "D"},
			CorrectIndex: i % 4,
			Explanation:  "because",
		})
	}
	return questions
}

func seedDoc(store *fakeStore) *models.Document {
	doc := &models.Document{
		ID:            "doc-1",
		OwnerID:       "user-1",
		Title:         "Cell Biology",
		ExtractedText: "mitochondria are the powerhouse of the cell",
		CreatedAt:     time.Now(),
	}
	store.seedDocument(doc)
	return doc
}

func TestQuizEngine_GeneratesAndPersists(t *testing.T) {
	// given
	store := newFakeStore()
	doc := seedDoc(store)
	model := &fakeModel{questions: validQuestions(5)}
	engine := services.NewQuizEngine(store, model)

	// when
	quiz, err := engine.GetOrCreateQuiz(context.Background(), doc.ID)

	// then
	require.NoError(t, err)
	require.Equal(t, "Quiz: Cell Biology", quiz.Title)
	require.Equal(t, doc.ID, quiz.DocumentID)
	require.Len(t, quiz.Questions, 5)
	for _, q := range quiz.Questions {
		require.Len(t, q.Options, 4)
		require.GreaterOrEqual(t, q.CorrectIndex, 0)
		require.Less(t, q.CorrectIndex, 4)
	}
	require.Equal(t, 1, store.quizCount())
}

func TestQuizEngine_ReusesExistingQuiz(t *testing.T) {
	// given
	store := newFakeStore()
	doc := seedDoc(store)
	model := &fakeModel{questions: validQuestions(5)}
	engine := services.NewQuizEngine(store, model)
	first, err := engine.GetOrCreateQuiz(context.Background(), doc.ID)
	require.NoError(t, err)

	// when
	second, err := engine.GetOrCreateQuiz(context.Background(), doc.ID)

	// then: no second generation, no second row
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 1, model.quizCalls)
	require.Equal(t, 1, store.quizCount())
}

func TestQuizEngine_MalformedOutputPersistsNothing(t *testing.T) {
	// given: unparseable model output surfaces as zero questions
	store := newFakeStore()
	doc := seedDoc(store)
	engine := services.NewQuizEngine(store, &fakeModel{questions: nil})

	// when
	_, err := engine.GetOrCreateQuiz(context.Background(), doc.ID)

	// then
	require.Error(t, err)
	require.Equal(t, services.QuizGenerationFailed, services.KindOf(err))
	require.Equal(t, 0, store.quizCount())
}

func TestQuizEngine_RejectsInvalidQuestionShape(t *testing.T) {
	store := newFakeStore()
	doc := seedDoc(store)

	tests := []struct {
		name   string
		mutate func(q *models.QuizQuestion)
	}{
		{"three options", func(q *models.QuizQuestion) { q.Options = []string{"A", "B", "C"} }},
		{"five options", func(q *models.QuizQuestion) { q.Options = append(q.Options, "E") }},
		{"correct index too large", func(q *models.QuizQuestion) { q.CorrectIndex = 4 }},
		{"correct index negative", func(q *models.QuizQuestion) { q.CorrectIndex = -1 }},
		{"empty question text", func(q *models.QuizQuestion) { q.Text = "" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// given
			questions := validQuestions(5)
			tc.mutate(&questions[2])
			engine := services.NewQuizEngine(store, &fakeModel{questions: questions})

			// when
			_, err := engine.GetOrCreateQuiz(context.Background(), doc.ID)

			// then
			require.Error(t, err)
			require.Equal(t, services.QuizGenerationFailed, services.KindOf(err))
			require.Equal(t, 0, store.quizCount())
		})
	}
}

func TestQuizEngine_UnknownDocument(t *testing.T) {
	engine := services.NewQuizEngine(newFakeStore(), &fakeModel{questions: validQuestions(5)})

	_, err := engine.GetOrCreateQuiz(context.Background(), "missing")

	require.Error(t, err)
	require.Equal(t, services.ValidationFailed, services.KindOf(err))
}

func TestQuizSession_ScoringCountsUnansweredAsWrong(t *testing.T) {
	// given: 5 questions, 3 answered correctly, 1 answered wrong, 1 unanswered
	store := newFakeStore()
	doc := seedDoc(store)
	engine := services.NewQuizEngine(store, &fakeModel{questions: validQuestions(5)})
	quiz, err := engine.GetOrCreateQuiz(context.Background(), doc.ID)
	require.NoError(t, err)
	session, err := engine.StartSession(quiz, "user-1")
	require.NoError(t, err)

	require.NoError(t, session.SelectAnswer("q1", quiz.Questions[0].CorrectIndex))
	require.NoError(t, session.SelectAnswer("q2", quiz.Questions[1].CorrectIndex))
	require.NoError(t, session.SelectAnswer("q3", quiz.Questions[2].CorrectIndex))
	wrong := (quiz.Questions[3].CorrectIndex + 1) % 4
	require.NoError(t, session.SelectAnswer("q4", wrong))
	// q5 left unanswered

	// when
	attempt, err := session.Complete(context.Background())

	// then
	require.NoError(t, err)
	require.Equal(t, 60, attempt.Score)
	require.Equal(t, quiz.ID, attempt.QuizID)
	require.Equal(t, "user-1", attempt.UserID)
	require.Len(t, attempt.Answers, 4)
	require.Equal(t, 1, store.attemptCount())
}

func TestQuizSession_CompleteIsIdempotent(t *testing.T) {
	// given
	store := newFakeStore()
	doc := seedDoc(store)
	engine := services.NewQuizEngine(store, &fakeModel{questions: validQuestions(5)})
	quiz, err := engine.GetOrCreateQuiz(context.Background(), doc.ID)
	require.NoError(t, err)
	session, err := engine.StartSession(quiz, "user-1")
	require.NoError(t, err)
	require.NoError(t, session.SelectAnswer("q1", quiz.Questions[0].CorrectIndex))

	// when
	first, err := session.Complete(context.Background())
	require.NoError(t, err)
	second, err := session.Complete(context.Background())
	require.NoError(t, err)

	// then: same result, still a single persisted attempt
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.Score, second.Score)
	require.Equal(t, 1, store.attemptCount())
}

func TestQuizSession_Navigation(t *testing.T) {
	// given
	store := newFakeStore()
	doc := seedDoc(store)
	engine := services.NewQuizEngine(store, &fakeModel{questions: validQuestions(3)})
	quiz, err := engine.GetOrCreateQuiz(context.Background(), doc.ID)
	require.NoError(t, err)
	session, err := engine.StartSession(quiz, "user-1")
	require.NoError(t, err)

	// then: backward at the first question is rejected
	require.Error(t, session.Previous())

	// forward navigation does not require answers
	require.NoError(t, session.Next())
	require.NoError(t, session.Next())
	_, index := session.Current()
	require.Equal(t, 2, index)

	// forward past the last question is rejected; Complete is the way out
	err = session.Next()
	require.Error(t, err)
	require.Equal(t, services.ValidationFailed, services.KindOf(err))

	require.NoError(t, session.Previous())
	_, index = session.Current()
	require.Equal(t, 1, index)
}

func TestQuizSession_RejectsUnknownQuestionAndBadOption(t *testing.T) {
	store := newFakeStore()
	doc := seedDoc(store)
	engine := services.NewQuizEngine(store, &fakeModel{questions: validQuestions(3)})
	quiz, err := engine.GetOrCreateQuiz(context.Background(), doc.ID)
	require.NoError(t, err)
	session, err := engine.StartSession(quiz, "user-1")
	require.NoError(t, err)

	require.Error(t, session.SelectAnswer("nope", 0))
	require.Error(t, session.SelectAnswer("q1", 4))
	require.Error(t, session.SelectAnswer("q1", -1))
}

func TestQuizSession_CompletedSessionIsSealed(t *testing.T) {
	// given
	store := newFakeStore()
	doc := seedDoc(store)
	engine := services.NewQuizEngine(store, &fakeModel{questions: validQuestions(3)})
	quiz, err := engine.GetOrCreateQuiz(context.Background(), doc.ID)
	require.NoError(t, err)
	session, err := engine.StartSession(quiz, "user-1")
	require.NoError(t, err)
	_, err = session.Complete(context.Background())
	require.NoError(t, err)

	// then
	require.Error(t, session.SelectAnswer("q1", 0))
	require.Error(t, session.Next())
	require.Error(t, session.Previous())
}

func TestQuizSession_StorageFailureSurfaces(t *testing.T) {
	// given
	store := newFakeStore()
	doc := seedDoc(store)
	engine := services.NewQuizEngine(store, &fakeModel{questions: validQuestions(3)})
	quiz, err := engine.GetOrCreateQuiz(context.Background(), doc.ID)
	require.NoError(t, err)
	session, err := engine.StartSession(quiz, "user-1")
	require.NoError(t, err)
	store.createAttemptErr = errors.New("store unavailable")

	// when
	_, err = session.Complete(context.Background())

	// then: not marked completed, a later retry may still persist
	require.Error(t, err)
	require.Equal(t, services.StorageFailed, services.KindOf(err))
	store.createAttemptErr = nil
	attempt, err := session.Complete(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, store.attemptCount())
	require.NotNil(t, attempt)
}

func TestQuizEngine_PreviousResults(t *testing.T) {
	// given
	store := newFakeStore()
	engine := services.NewQuizEngine(store, &fakeModel{})
	for i := 0; i < 3; i++ {
		require.NoError(t, store.CreateAttempt(context.Background(), &models.QuizAttempt{
			ID:          fmt.Sprintf("attempt-%d", i),
			QuizID:      "quiz-1",
			UserID:      "user-1",
			Score:       i * 10,
			CompletedAt: time.Now(),
		}))
	}

	// when
	attempts, err := engine.PreviousResults(context.Background(), "user-1", 10)

	// then
	require.NoError(t, err)
	require.Len(t, attempts, 3)
}
