package lifecycle

import (
	"github.com/iago/briefcase/internal/domain"
)

type View string

const (
	ViewForm     View = "form"
	ViewProgress View = "progress"
	ViewDossier  View = "dossier"
)

const submittingStep = "Submitting..."

// ProgressSnapshot is the last {progress, step, status} triple shown to the user.
type ProgressSnapshot struct {
	Progress int
	Step     string
	Status   domain.JobStatus
}

// State is the single view-state record. Only Reduce produces new values.
//
// View == ViewProgress implies JobID != "", View == ViewDossier implies
// Dossier != nil, and Error and Dossier are never both set.
type State struct {
	View     View
	JobID    string
	Progress ProgressSnapshot
	Dossier  *domain.Dossier
	Error    string

	// Submitting is true while a submission request is outstanding.
	Submitting bool
	// Notice is a transient message about the last export attempt.
	Notice    string
	ExportURL string

	submitToken string
	lastPollSeq uint64
}

// Initial is the state at start-up and after a reset.
func Initial() State {
	return State{
		View:     ViewForm,
		Progress: ProgressSnapshot{Status: domain.JobStatusPending},
	}
}

// Event is anything that can move the state machine.
type Event interface {
	isEvent()
}

type SubmitRequested struct {
	URL   string
	Token string
}

type SubmitSucceeded struct {
	Token string
	JobID string
}

type SubmitFailed struct {
	Token   string
	Message string
}

type PollSucceeded struct {
	JobID    string
	Seq      uint64
	Snapshot domain.JobSnapshot
}

// PollFailed reports a poll with no usable snapshot. Transient failures are
// absorbed: retry on the next tick, no backoff, nothing surfaced.
type PollFailed struct {
	JobID     string
	Seq       uint64
	Message   string
	Transient bool
}

type ExportFinished struct {
	JobID   string
	URL     string
	Message string
}

type ResetRequested struct{}

func (SubmitRequested) isEvent() {}
func (SubmitSucceeded) isEvent() {}
func (SubmitFailed) isEvent()    {}
func (PollSucceeded) isEvent()   {}
func (PollFailed) isEvent()      {}
func (ExportFinished) isEvent()  {}
func (ResetRequested) isEvent()  {}

// Reduce applies one event. It never mutates its input and has no side
// effects; poll loop and ticker ownership are derived from the result.
func Reduce(state State, event Event) State {
	switch e := event.(type) {
	case SubmitRequested:
		if state.View != ViewForm || state.Submitting {
			return state
		}
		next := Initial()
		next.Submitting = true
		next.submitToken = e.Token
		next.Progress.Step = submittingStep
		return next

	case SubmitSucceeded:
		if !state.Submitting || e.Token != state.submitToken {
			return state
		}
		next := Initial()
		next.View = ViewProgress
		next.JobID = e.JobID
		return next

	case SubmitFailed:
		if !state.Submitting || e.Token != state.submitToken {
			return state
		}
		next := Initial()
		next.Error = e.Message
		return next

	case PollSucceeded:
		if !acceptsPoll(state, e.JobID, e.Seq) {
			return state
		}
		return applySnapshot(state, e.Seq, e.Snapshot)

	case PollFailed:
		if !acceptsPoll(state, e.JobID, e.Seq) {
			return state
		}
		if e.Transient {
			next := state
			next.lastPollSeq = e.Seq
			return next
		}
		next := Initial()
		next.Error = e.Message
		return next

	case ExportFinished:
		if state.View != ViewDossier || state.JobID != e.JobID {
			return state
		}
		next := state
		next.ExportURL = e.URL
		if e.Message != "" {
			next.Notice = e.Message
		} else {
			next.Notice = "Exported to " + e.URL
		}
		return next

	case ResetRequested:
		return Initial()
	}
	return state
}

func acceptsPoll(state State, jobID string, seq uint64) bool {
	return state.View == ViewProgress && state.JobID == jobID && seq > state.lastPollSeq
}

func applySnapshot(state State, seq uint64, snapshot domain.JobSnapshot) State {
	next := state
	next.lastPollSeq = seq
	next.Notice = ""
	next.Progress = ProgressSnapshot{
		Progress: snapshot.Progress,
		Step:     snapshot.Step,
		Status:   snapshot.Status,
	}

	switch snapshot.Status {
	case domain.JobStatusComplete:
		if snapshot.Result == nil {
			failed := Initial()
			failed.Error = "Job completed without a dossier"
			return failed
		}
		next.View = ViewDossier
		next.Dossier = snapshot.Result
	case domain.JobStatusError:
		failed := Initial()
		failed.Error = snapshot.Step
		return failed
	}
	return next
}

// Polling reports whether the state owns a live poll loop.
func (s State) Polling() bool {
	return s.View == ViewProgress && s.JobID != ""
}
