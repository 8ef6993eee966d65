package services

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/Lllllllleong/studyflow/internal/gcp"
	"github.com/Lllllllleong/studyflow/internal/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// CoordinatorConfig bounds a batch submission. Both limits are checked
// before any pipeline stage runs.
type CoordinatorConfig struct {
	MaxBatchSize  int
	MaxFileBytes  int64
	MaxConcurrent int
}

// LoadCoordinatorConfig reads the coordinator limits from the environment.
func LoadCoordinatorConfig() CoordinatorConfig {
	maxBatch, err := strconv.Atoi(gcp.GetEnv("MAX_BATCH_SIZE", "5"))
	if err != nil || maxBatch <= 0 {
		maxBatch = 5
	}
	maxBytes, err := strconv.ParseInt(gcp.GetEnv("MAX_FILE_BYTES", "10485760"), 10, 64)
	if err != nil || maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	maxConcurrent, err := strconv.Atoi(gcp.GetEnv("MAX_CONCURRENT_PIPELINES", "5"))
	if err != nil || maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	return CoordinatorConfig{
		MaxBatchSize:  maxBatch,
		MaxFileBytes:  maxBytes,
		MaxConcurrent: maxConcurrent,
	}
}

// Coordinator accepts batches of source files and runs one independent
// pipeline per file. Tasks are held in memory for the lifetime of the
// coordinator instance and share no mutable state with each other.
type Coordinator struct {
	config   CoordinatorConfig
	executor *stageExecutor

	mu    sync.Mutex
	tasks map[string]*task
	order []string

	group errgroup.Group
}

func NewCoordinator(config CoordinatorConfig, extractor TextExtractor, model LanguageModel, narrator Narrator, store ContentStore) *Coordinator {
	c := &Coordinator{
		config: config,
		executor: &stageExecutor{
			extractor: extractor,
			model:     model,
			narrator:  narrator,
			store:     store,
		},
		tasks: make(map[string]*task),
	}
	c.group.SetLimit(config.MaxConcurrent)
	return c
}

// Submit validates the batch and starts one pipeline per file, returning the
// task handles in file order. Validation failures reject the whole batch
// before any task is created.
func (c *Coordinator) Submit(ctx context.Context, ownerID string, files []models.SourceFile) ([]string, error) {
	if ownerID == "" {
		return nil, failf(ValidationFailed, "ownerID must not be empty")
	}
	if len(files) == 0 {
		return nil, failf(ValidationFailed, "batch contains no files")
	}
	if len(files) > c.config.MaxBatchSize {
		return nil, failf(ValidationFailed, "batch of %d files exceeds the maximum of %d", len(files), c.config.MaxBatchSize)
	}
	for _, file := range files {
		if int64(len(file.Data)) > c.config.MaxFileBytes {
			return nil, failf(ValidationFailed, "file %s (%d bytes) exceeds the maximum of %d bytes", file.Filename, len(file.Data), c.config.MaxFileBytes)
		}
	}

	handles := make([]string, 0, len(files))
	c.mu.Lock()
	started := make([]*task, 0, len(files))
	for _, file := range files {
		t := newTask(ownerID, file)
		c.tasks[t.id] = t
		c.order = append(c.order, t.id)
		handles = append(handles, t.id)
		started = append(started, t)
	}
	c.mu.Unlock()

	// Pipelines outlive the submitting call; a closed UI session must not
	// cancel work already in flight.
	runCtx := context.WithoutCancel(ctx)
	for _, t := range started {
		t := t
		c.group.Go(func() error {
			c.executor.run(runCtx, t)
			return nil // a task failure never cascades to its siblings
		})
	}

	slog.Info("Batch submitted.", "ownerId", ownerID, "fileCount", len(files))
	return handles, nil
}

// Status returns a snapshot of one task.
func (c *Coordinator) Status(taskID string) (models.UploadTask, bool) {
	c.mu.Lock()
	t, ok := c.tasks[taskID]
	c.mu.Unlock()
	if !ok {
		return models.UploadTask{}, false
	}
	return t.view(), true
}

// Tasks returns snapshots of every task in submission order.
func (c *Coordinator) Tasks() []models.UploadTask {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshots := make([]models.UploadTask, 0, len(c.order))
	for _, id := range c.order {
		snapshots = append(snapshots, c.tasks[id].view())
	}
	return snapshots
}

// Wait blocks until every submitted pipeline has reached a terminal state.
func (c *Coordinator) Wait() {
	_ = c.group.Wait()
}

// task is the mutable pipeline state for one file. Only the stage executor
// mutates it; everyone else reads snapshots through view().
type task struct {
	mu       sync.Mutex
	snapshot models.UploadTask
	ownerID  string
	file     models.SourceFile

	id string
}

func newTask(ownerID string, file models.SourceFile) *task {
	id := uuid.NewString()
	return &task{
		id:      id,
		ownerID: ownerID,
		file:    file,
		snapshot: models.UploadTask{
			ID:             id,
			SourceFilename: file.Filename,
			Status:         models.StatusQueued,
		},
	}
}

func (t *task) advance(status models.TaskStatus, progress int) {
	t.mu.Lock()
	t.snapshot.Status = status
	t.snapshot.ProgressPercent = progress
	t.mu.Unlock()
}

func (t *task) setDocumentID(id string) {
	t.mu.Lock()
	t.snapshot.DocumentID = id
	t.mu.Unlock()
}

// fail freezes the task in the Failed state; progress keeps its last value.
func (t *task) fail(kind FailureKind, err error) {
	t.mu.Lock()
	t.snapshot.Status = models.StatusFailed
	t.snapshot.ErrorKind = string(kind)
	t.snapshot.ErrorDetails = err.Error()
	t.mu.Unlock()
}

func (t *task) view() models.UploadTask {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot
}
