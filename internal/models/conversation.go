package models

import "time"

// Message roles. The sequence index within Conversation.Messages is the
// authoritative ordering; timestamps are display metadata only.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry in a conversation. Immutable once appended.
type ChatMessage struct {
	ID        string    `firestore:"id" json:"id"`
	Role      string    `firestore:"role" json:"role"`
	Text      string    `firestore:"text" json:"text"`
	Timestamp time.Time `firestore:"timestamp" json:"timestamp"`
}

// Conversation is the dialogue history between one user and one document.
// Messages only ever grows; the whole sequence is rewritten as a single
// store update after each completed turn.
type Conversation struct {
	ID         string        `firestore:"id" json:"id"`
	DocumentID string        `firestore:"documentId" json:"documentId"`
	UserID     string        `firestore:"userId" json:"userId"`
	Messages   []ChatMessage `firestore:"messages" json:"messages"`
	CreatedAt  time.Time     `firestore:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time     `firestore:"updatedAt" json:"updatedAt"`
}
