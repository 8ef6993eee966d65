package models

// TaskStatus is the pipeline state of one upload task.
type TaskStatus string

const (
	StatusQueued      TaskStatus = "QUEUED"
	StatusExtracting  TaskStatus = "EXTRACTING"
	StatusPersisting  TaskStatus = "PERSISTING"
	StatusSummarizing TaskStatus = "SUMMARIZING"
	StatusNarrating   TaskStatus = "NARRATING"
	StatusCompleted   TaskStatus = "COMPLETED"
	StatusFailed      TaskStatus = "FAILED"
)

// Terminal reports whether the status is an end state.
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// SourceFile is one raw uploaded file entering the ingestion pipeline.
type SourceFile struct {
	Filename string `json:"filename"`
	Data     []byte `json:"-"`
}

// UploadTask is a point-in-time snapshot of one task's pipeline progress.
// Tasks live only for the lifetime of the coordinator instance and are never
// persisted; DocumentID and ErrorKind are filled in as the pipeline advances.
type UploadTask struct {
	ID              string     `json:"id"`
	SourceFilename  string     `json:"sourceFilename"`
	Status          TaskStatus `json:"status"`
	ProgressPercent int        `json:"progressPercent"`
	DocumentID      string     `json:"documentId,omitempty"`
	ErrorKind       string     `json:"errorKind,omitempty"`
	ErrorDetails    string     `json:"errorDetails,omitempty"`
}
