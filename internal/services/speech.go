package services

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/storage"
	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/Lllllllleong/studyflow/internal/gcp"
)

// NarratorConfig holds configuration for the speech narrator.
type NarratorConfig struct {
	NarrationBucket string
	LanguageCode    string
	VoiceName       string
}

// GCSNarrator implements Narrator: it synthesizes MP3 audio with Cloud
// Text-to-Speech and stores it in GCS, returning the gs:// URI.
type GCSNarrator struct {
	ttsClient     *texttospeech.Client
	storageClient *storage.Client
	config        NarratorConfig
}

func NewGCSNarrator(ctx context.Context) (*GCSNarrator, error) {
	config := NarratorConfig{
		NarrationBucket: gcp.GetEnv("NARRATION_AUDIO_BUCKET", ""),
		LanguageCode:    gcp.GetEnv("NARRATION_LANGUAGE_CODE", "en-US"),
		VoiceName:       gcp.GetEnv("NARRATION_VOICE_NAME", "en-US-Neural2-C"),
	}
	if config.NarrationBucket == "" {
		return nil, fmt.Errorf("NARRATION_AUDIO_BUCKET environment variable must be set")
	}

	ttsClient, err := gcp.NewTextToSpeechClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Text-to-Speech client: %w", err)
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &GCSNarrator{
		ttsClient:     ttsClient,
		storageClient: storageClient,
		config:        config,
	}, nil
}

// Narrate synthesizes text and writes the audio under the document's prefix.
// The object name is deterministic per document so a retried narration
// overwrite attempt hits the atomic does-not-exist skip instead of
// duplicating audio.
func (n *GCSNarrator) Narrate(ctx context.Context, documentID, text string) (string, error) {
	logCtx := slog.With("documentId", documentID)

	req := &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: n.config.LanguageCode,
			Name:         n.config.VoiceName,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
		},
	}

	resp, err := n.ttsClient.SynthesizeSpeech(ctx, req)
	if err != nil {
		logCtx.Error("Call to Text-to-Speech failed", "error", err)
		return "", fmt.Errorf("failed to synthesize speech: %w", err)
	}
	if len(resp.AudioContent) == 0 {
		return "", fmt.Errorf("text-to-speech returned empty audio for document %s", documentID)
	}

	objectName := fmt.Sprintf("%s/summary.mp3", documentID)
	bucketHandle := n.storageClient.Bucket(n.config.NarrationBucket)
	if err := gcp.SaveBytesToGCSAtomically(ctx, bucketHandle, objectName, "audio/mpeg", resp.AudioContent); err != nil {
		logCtx.Error("Failed to save narration audio to GCS", "error", err)
		return "", err
	}

	narrationRef := fmt.Sprintf("gs://%s/%s", n.config.NarrationBucket, objectName)
	logCtx.Info("Narration complete.", "narrationRef", narrationRef, "audioBytes", len(resp.AudioContent))
	return narrationRef, nil
}
