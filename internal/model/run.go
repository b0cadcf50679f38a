package model

import "time"

// RunStatus represents the current state of an extraction run.
type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusExtracting RunStatus = "extracting"
	RunStatusComplete   RunStatus = "complete"
	RunStatusFailed     RunStatus = "failed"
)

// Run records one extraction run for the surrounding application. The core
// pipeline never touches runs; cmd and the store own this lifecycle.
type Run struct {
	ID        string            `json:"id"`
	Filenames []string          `json:"filenames"`
	Status    RunStatus         `json:"status"`
	Result    *ExtractedDataSet `json:"result,omitempty"`
	Error     string            `json:"error,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
