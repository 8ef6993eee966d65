package services

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/studyflow/internal/gcp"
	"github.com/Lllllllleong/studyflow/internal/models"
	"google.golang.org/api/iterator"
)

// Firestore collection names, one per persisted entity type.
const (
	collectionDocuments     = "documents"
	collectionSummaries     = "summaries"
	collectionQuizzes       = "quizzes"
	collectionQuizResults   = "quiz_results"
	collectionConversations = "conversations"
)

// FirestoreStore implements ContentStore on Firestore. Entities are keyed by
// their own id; "not found" lookups return (nil, nil). The store performs no
// locking — the engines guarantee a single writer per entity.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(ctx context.Context) (*FirestoreStore, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	client, err := gcp.NewFirestoreClient(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &FirestoreStore{client: client}, nil
}

func (s *FirestoreStore) CreateDocument(ctx context.Context, doc *models.Document) error {
	if _, err := s.client.Collection(collectionDocuments).Doc(doc.ID).Create(ctx, doc); err != nil {
		return fmt.Errorf("failed to create document record: %w", err)
	}
	return nil
}

func (s *FirestoreStore) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	snap, err := firstMatch(ctx, s.client.Collection(collectionDocuments).Where("id", "==", id))
	if err != nil {
		return nil, fmt.Errorf("failed to look up document %s: %w", id, err)
	}
	if snap == nil {
		return nil, nil
	}
	var doc models.Document
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	return &doc, nil
}

func (s *FirestoreStore) RecentDocuments(ctx context.Context, ownerID string, limit int) ([]*models.Document, error) {
	iter := s.client.Collection(collectionDocuments).
		Where("ownerId", "==", ownerID).
		OrderBy("createdAt", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var docs []*models.Document
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list documents for owner %s: %w", ownerID, err)
		}
		var doc models.Document
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode document %s: %w", snap.Ref.ID, err)
		}
		docs = append(docs, &doc)
	}
	return docs, nil
}

func (s *FirestoreStore) CreateSummary(ctx context.Context, summary *models.Summary) error {
	if _, err := s.client.Collection(collectionSummaries).Doc(summary.ID).Create(ctx, summary); err != nil {
		return fmt.Errorf("failed to create summary record: %w", err)
	}
	return nil
}

func (s *FirestoreStore) QuizByDocument(ctx context.Context, documentID string) (*models.Quiz, error) {
	snap, err := firstMatch(ctx, s.client.Collection(collectionQuizzes).Where("documentId", "==", documentID))
	if err != nil {
		return nil, fmt.Errorf("failed to look up quiz for document %s: %w", documentID, err)
	}
	if snap == nil {
		return nil, nil
	}
	var quiz models.Quiz
	if err := snap.DataTo(&quiz); err != nil {
		return nil, fmt.Errorf("failed to decode quiz %s: %w", snap.Ref.ID, err)
	}
	return &quiz, nil
}

func (s *FirestoreStore) CreateQuiz(ctx context.Context, quiz *models.Quiz) error {
	if _, err := s.client.Collection(collectionQuizzes).Doc(quiz.ID).Create(ctx, quiz); err != nil {
		return fmt.Errorf("failed to create quiz record: %w", err)
	}
	return nil
}

func (s *FirestoreStore) CreateAttempt(ctx context.Context, attempt *models.QuizAttempt) error {
	if _, err := s.client.Collection(collectionQuizResults).Doc(attempt.ID).Create(ctx, attempt); err != nil {
		return fmt.Errorf("failed to create quiz attempt record: %w", err)
	}
	return nil
}

func (s *FirestoreStore) RecentAttempts(ctx context.Context, userID string, limit int) ([]*models.QuizAttempt, error) {
	iter := s.client.Collection(collectionQuizResults).
		Where("userId", "==", userID).
		OrderBy("completedAt", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var attempts []*models.QuizAttempt
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list attempts for user %s: %w", userID, err)
		}
		var attempt models.QuizAttempt
		if err := snap.DataTo(&attempt); err != nil {
			return nil, fmt.Errorf("failed to decode attempt %s: %w", snap.Ref.ID, err)
		}
		attempts = append(attempts, &attempt)
	}
	return attempts, nil
}

func (s *FirestoreStore) ConversationFor(ctx context.Context, documentID, userID string) (*models.Conversation, error) {
	snap, err := firstMatch(ctx, s.client.Collection(collectionConversations).
		Where("documentId", "==", documentID).
		Where("userId", "==", userID))
	if err != nil {
		return nil, fmt.Errorf("failed to look up conversation for document %s: %w", documentID, err)
	}
	if snap == nil {
		return nil, nil
	}
	var conv models.Conversation
	if err := snap.DataTo(&conv); err != nil {
		return nil, fmt.Errorf("failed to decode conversation %s: %w", snap.Ref.ID, err)
	}
	return &conv, nil
}

func (s *FirestoreStore) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	if _, err := s.client.Collection(collectionConversations).Doc(conv.ID).Create(ctx, conv); err != nil {
		return fmt.Errorf("failed to create conversation record: %w", err)
	}
	return nil
}

func (s *FirestoreStore) UpdateConversationMessages(ctx context.Context, id string, messages []models.ChatMessage, updatedAt time.Time) error {
	updates := []firestore.Update{
		{Path: "messages", Value: messages},
		{Path: "updatedAt", Value: updatedAt},
	}
	if _, err := s.client.Collection(collectionConversations).Doc(id).Update(ctx, updates); err != nil {
		return fmt.Errorf("failed to update conversation %s: %w", id, err)
	}
	return nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

// firstMatch runs a query limited to one result and returns the snapshot, or
// nil when nothing matched.
func firstMatch(ctx context.Context, q firestore.Query) (*firestore.DocumentSnapshot, error) {
	iter := q.Limit(1).Documents(ctx)
	defer iter.Stop()
	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return snap, nil
}
