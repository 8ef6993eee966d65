package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/studyflow/internal/gcp"
	"github.com/Lllllllleong/studyflow/internal/models"
	"github.com/Lllllllleong/studyflow/internal/services"
)

var (
	coordinatorInstance *services.Coordinator
	once                sync.Once
	initErr             error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Register the HTTP function with the framework.
	functions.HTTP("HandleIngest", handleIngest)
}

// main is required by the Go Functions Framework.
func main() {}

// newCoordinator wires the GCP-backed collaborators into an ingestion
// coordinator. All configuration comes from the environment.
func newCoordinator(ctx context.Context) (*services.Coordinator, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	region := gcp.GetEnv("VERTEX_AI_REGION", "us-central1")

	vertexClient, err := gcp.NewVertexClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}
	store, err := services.NewFirestoreStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore store: %w", err)
	}
	narrator, err := services.NewGCSNarrator(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create narrator: %w", err)
	}

	return services.NewCoordinator(
		services.LoadCoordinatorConfig(),
		services.NewGeminiExtractor(vertexClient),
		services.NewVertexLanguageModel(vertexClient),
		narrator,
		store,
	), nil
}

// handleIngest accepts batch submissions (POST) and task polling (GET).
func handleIngest(w http.ResponseWriter, r *http.Request) {
	// Use sync.Once for robust, one-time initialization of clients.
	once.Do(func() {
		coordinatorInstance, initErr = newCoordinator(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	switch r.Method {
	case http.MethodPost:
		handleSubmit(w, r)
	case http.MethodGet:
		handleStatus(w, r)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Could not decode request body", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	files := make([]models.SourceFile, 0, len(req.Files))
	for _, f := range req.Files {
		data, err := base64.StdEncoding.DecodeString(f.Content)
		if err != nil {
			slog.Error("Could not decode file content", "filename", f.Filename, "error", err)
			http.Error(w, "Bad Request: file content is not valid base64", http.StatusBadRequest)
			return
		}
		files = append(files, models.SourceFile{Filename: f.Filename, Data: data})
	}

	taskIDs, err := coordinatorInstance.Submit(r.Context(), req.UserID, files)
	if err != nil {
		if services.KindOf(err) == services.ValidationFailed {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Internal Server Error: submission failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, models.SubmitResponse{TaskIDs: taskIDs})
}

func handleStatus(w http.ResponseWriter, r *http.Request) {
	if taskID := r.URL.Query().Get("task"); taskID != "" {
		snapshot, ok := coordinatorInstance.Status(taskID)
		if !ok {
			http.Error(w, "Not Found: unknown task", http.StatusNotFound)
			return
		}
		writeJSON(w, models.StatusResponse{Tasks: []models.UploadTask{snapshot}})
		return
	}
	writeJSON(w, models.StatusResponse{Tasks: coordinatorInstance.Tasks()})
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to write response", "error", err)
		http.Error(w, "Internal Server Error: failed to encode response", http.StatusInternalServerError)
	}
}
