package domain

import "time"

// JobStatus enumerates job lifecycle states. Transitions are one-way:
// pending moves to done or failed and never back.
type JobStatus string

const (
	JobStatusPending JobStatus = "pending"
	JobStatusDone    JobStatus = "done"
	JobStatusFailed  JobStatus = "failed"
)

// RenderParams is the configuration forwarded opaquely to the video provider.
type RenderParams struct {
	AspectRatio     string
	DurationSeconds int
}

// Job encapsulates the lifecycle of a single video render request.
// OperationRef is assigned at creation and immutable afterwards;
// ArtifactRef is set exactly when Status is done.
type Job struct {
	ID            string
	OwnerID       string
	Prompt        string
	Params        RenderParams
	OperationRef  string
	Status        JobStatus
	ArtifactRef   string
	FailureDetail string
	CreatedAt     time.Time
	CompletedAt   *time.Time
}

// IsTerminal reports whether the job has reached done or failed.
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusDone || j.Status == JobStatusFailed
}
