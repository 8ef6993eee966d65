package gcp

import (
	"context"
	"fmt"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
)

// NewTextToSpeechClient creates and returns a new Cloud Text-to-Speech
// client. Credentials are resolved from the environment like the other
// clients in this package.
func NewTextToSpeechClient(ctx context.Context) (*texttospeech.Client, error) {
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Text-to-Speech client: %w", err)
	}
	return client, nil
}
