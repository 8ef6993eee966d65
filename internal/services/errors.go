package services

import (
	"errors"
	"fmt"
)

// FailureKind classifies an error so callers can decide whether resubmitting
// or retrying makes sense. Every failure the core reports carries exactly one
// kind; failures are always scoped to a single task or session.
type FailureKind string

const (
	ValidationFailed     FailureKind = "ValidationFailed"
	ExtractionFailed     FailureKind = "ExtractionFailed"
	StorageFailed        FailureKind = "StorageFailed"
	SummarizationFailed  FailureKind = "SummarizationFailed"
	NarrationFailed      FailureKind = "NarrationFailed"
	QuizGenerationFailed FailureKind = "QuizGenerationFailed"
	ConversationFailed   FailureKind = "ConversationFailed"
)

// Failure wraps an underlying error with its kind.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func failf(kind FailureKind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the FailureKind from err, or "" when err carries none.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}
