package models

import "time"

// Document is the master record for one uploaded source file in Firestore.
// It is created once extraction succeeds and never mutated afterwards.
type Document struct {
	ID             string    `firestore:"id" json:"id"`
	OwnerID        string    `firestore:"ownerId" json:"ownerId"`
	Title          string    `firestore:"title" json:"title"`
	SourceFilename string    `firestore:"sourceFilename" json:"sourceFilename"`
	ExtractedText  string    `firestore:"extractedText" json:"extractedText"`
	ByteSize       int64     `firestore:"byteSize" json:"byteSize"`
	CreatedAt      time.Time `firestore:"createdAt" json:"createdAt"`
}

// Summary holds the generated summary text for a document. NarrationRef is
// the gs:// URI of the synthesized audio. A document may end up with no
// Summary when a late pipeline stage fails; duplicates on resubmission are
// accepted.
type Summary struct {
	ID           string    `firestore:"id" json:"id"`
	DocumentID   string    `firestore:"documentId" json:"documentId"`
	Text         string    `firestore:"text" json:"text"`
	NarrationRef string    `firestore:"narrationRef,omitempty" json:"narrationRef,omitempty"`
	CreatedAt    time.Time `firestore:"createdAt" json:"createdAt"`
}
