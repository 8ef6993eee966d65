package models

// These structs define the JSON payloads exchanged between the cmd/ worker
// entry points and their callers.

// SubmitFile is one file in a batch submission; Content is base64-encoded
// by the HTTP layer.
type SubmitFile struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// SubmitRequest is the input for the ingest worker.
type SubmitRequest struct {
	UserID string       `json:"userId"`
	Files  []SubmitFile `json:"files"`
}

// SubmitResponse returns one task handle per submitted file.
type SubmitResponse struct {
	TaskIDs []string `json:"taskIds"`
}

// StatusResponse is the polling output of the ingest worker.
type StatusResponse struct {
	Tasks []UploadTask `json:"tasks"`
}
