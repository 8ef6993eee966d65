package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/studyflow/internal/gcp"
	"github.com/Lllllllleong/studyflow/internal/models"
	"github.com/Lllllllleong/studyflow/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// gcsEvent is the storage object payload carried by a GCS finalize event.
type gcsEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

// deps are the long-lived clients shared across invocations; each event gets
// its own coordinator so the trigger can wait for just its pipeline.
type deps struct {
	storageClient *storage.Client
	extractor     services.TextExtractor
	model         services.LanguageModel
	narrator      services.Narrator
	store         services.ContentStore
}

var (
	depsInstance *deps
	once         sync.Once
	initErr      error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Register the CloudEvent function. The framework will handle routing the event here.
	functions.CloudEvent("HandleUploadedObject", handleUploadedObject)
}

// main is required by the Go Functions Framework.
func main() {}

func newDeps(ctx context.Context) (*deps, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	region := gcp.GetEnv("VERTEX_AI_REGION", "us-central1")

	vertexClient, err := gcp.NewVertexClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	store, err := services.NewFirestoreStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore store: %w", err)
	}
	narrator, err := services.NewGCSNarrator(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create narrator: %w", err)
	}

	return &deps{
		storageClient: storageClient,
		extractor:     services.NewGeminiExtractor(vertexClient),
		model:         services.NewVertexLanguageModel(vertexClient),
		narrator:      narrator,
		store:         store,
	}, nil
}

// handleUploadedObject runs one ingestion pipeline for a finalized GCS
// object. Objects are expected under "<userId>/<filename>"; anything else is
// skipped.
func handleUploadedObject(ctx context.Context, e cloudevents.Event) error {
	// Use sync.Once for robust, one-time initialization of clients.
	once.Do(func() {
		depsInstance, initErr = newDeps(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var event gcsEvent
	if err := json.Unmarshal(e.Data(), &event); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}
	logCtx := slog.With("gcsBucket", event.Bucket, "gcsObject", event.Name)

	ownerID, _, ok := strings.Cut(event.Name, "/")
	if !ok || ownerID == "" {
		logCtx.Warn("Object name carries no owner prefix. Skipping.")
		return nil
	}

	data, err := downloadObject(ctx, depsInstance.storageClient, event.Bucket, event.Name)
	if err != nil {
		logCtx.Error("Failed to download source object", "error", err)
		return err
	}

	coordinator := services.NewCoordinator(
		services.LoadCoordinatorConfig(),
		depsInstance.extractor,
		depsInstance.model,
		depsInstance.narrator,
		depsInstance.store,
	)
	taskIDs, err := coordinator.Submit(ctx, ownerID, []models.SourceFile{{
		Filename: path.Base(event.Name),
		Data:     data,
	}})
	if err != nil {
		logCtx.Error("Submission rejected", "error", err)
		return err
	}
	coordinator.Wait()

	snapshot, _ := coordinator.Status(taskIDs[0])
	if snapshot.Status == models.StatusFailed {
		// The failure is task-scoped and already recorded; returning an
		// error here would only make the event get redelivered.
		logCtx.Error("Pipeline failed", "errorKind", snapshot.ErrorKind, "errorDetails", snapshot.ErrorDetails)
		return nil
	}
	logCtx.Info("Pipeline completed.", "documentId", snapshot.DocumentID)
	return nil
}

func downloadObject(ctx context.Context, client *storage.Client, bucket, object string) ([]byte, error) {
	reader, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", bucket, object, err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read GCS object: %w", err)
	}
	return data, nil
}
