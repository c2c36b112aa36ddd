package domain

import (
	"encoding/json"
	"time"
)

type JobStatus string

const (
	JobStatusPending  JobStatus = "pending"
	JobStatusRunning  JobStatus = "running"
	JobStatusComplete JobStatus = "complete"
	JobStatusError    JobStatus = "error"
)

// Terminal reports whether no further progress can be observed for the job.
// Unknown statuses (the backend also emits "in_progress") count as running.
func (s JobStatus) Terminal() bool {
	return s == JobStatusComplete || s == JobStatusError
}

// JobSnapshot is one server-reported view of a job, as returned by a poll.
// Result is only set when Status is complete; when Status is error, Step
// carries the error text.
type JobSnapshot struct {
	Progress int       `json:"progress"`
	Step     string    `json:"step"`
	Status   JobStatus `json:"status"`
	Result   *Dossier  `json:"result,omitempty"`
}

// Job is the backend-side record kept by the local dev server.
type Job struct {
	ID        string
	URL       string
	Status    JobStatus
	Progress  int
	Step      string
	Result    json.RawMessage
	Attempts  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot projects the job onto the polling wire shape.
func (j *Job) Snapshot() (JobSnapshot, error) {
	snapshot := JobSnapshot{
		Progress: j.Progress,
		Step:     j.Step,
		Status:   j.Status,
	}
	if j.Status == JobStatusComplete && len(j.Result) > 0 {
		var dossier Dossier
		if err := json.Unmarshal(j.Result, &dossier); err != nil {
			return JobSnapshot{}, err
		}
		snapshot.Result = &dossier
	}
	return snapshot, nil
}

// QueueMessage is the transport format sent to queue backends.
type QueueMessage struct {
	JobID       string    `json:"job_id"`
	URL         string    `json:"url"`
	Attempt     int       `json:"attempt"`
	RequestedAt time.Time `json:"requested_at"`
}
