package domain

import "time"

// JobType enumerates supported asynchronous job categories.
type JobType string

const (
	JobTypeSketchBatch JobType = "SKETCH_BATCH"
)

// JobStatus enumerates the persisted job lifecycle states. A batch whose
// items partially failed still ends as SUCCEEDED; per-item outcomes live in
// the result JSON.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "QUEUED"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusSucceeded JobStatus = "SUCCEEDED"
	JobStatusFailed    JobStatus = "FAILED"
)

// Job is the persisted record of an asynchronous sketch batch.
type Job struct {
	ID           string
	UserID       string
	Type         JobType
	Status       JobStatus
	Style        string
	PayloadJSON  []byte
	ResultJSON   []byte
	ItemCount    int
	Concurrency  int
	BaseSeed     int64
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
