package models

import "time"

// Quiz is a generated multiple-choice quiz for a document. Quizzes are
// looked up by document and created lazily; there is no uniqueness
// constraint, so a retry after a lost write may produce a second row.
type Quiz struct {
	ID         string         `firestore:"id" json:"id"`
	DocumentID string         `firestore:"documentId" json:"documentId"`
	Title      string         `firestore:"title" json:"title"`
	Questions  []QuizQuestion `firestore:"questions" json:"questions"`
	CreatedAt  time.Time      `firestore:"createdAt" json:"createdAt"`
}

// QuizQuestion is a single validated question. Options always has exactly
// four entries and CorrectIndex is within [0,4).
type QuizQuestion struct {
	ID           string   `firestore:"id" json:"id"`
	Text         string   `firestore:"text" json:"question"`
	Options      []string `firestore:"options" json:"options"`
	CorrectIndex int      `firestore:"correctIndex" json:"correct_answer"`
	Explanation  string   `firestore:"explanation,omitempty" json:"explanation,omitempty"`
}

// QuizAttempt records one completed pass through a quiz session. Answers maps
// question id to the selected option index; unanswered questions are absent
// from the map and scored as incorrect. Immutable once written.
type QuizAttempt struct {
	ID          string         `firestore:"id" json:"id"`
	QuizID      string         `firestore:"quizId" json:"quizId"`
	UserID      string         `firestore:"userId" json:"userId"`
	Score       int            `firestore:"score" json:"score"`
	Answers     map[string]int `firestore:"answers" json:"answers"`
	CompletedAt time.Time      `firestore:"completedAt" json:"completedAt"`
}
