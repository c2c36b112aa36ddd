package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iago/briefcase/internal/domain"
)

func progressState(t *testing.T, jobID string) State {
	t.Helper()
	state := Reduce(Initial(), SubmitRequested{URL: "https://acme.com/team", Token: "tok"})
	state = Reduce(state, SubmitSucceeded{Token: "tok", JobID: jobID})
	require.Equal(t, ViewProgress, state.View)
	require.Equal(t, jobID, state.JobID)
	return state
}

func TestReduceSubmitLifecycle(t *testing.T) {
	state := Initial()
	state.Error = "previous failure"

	state = Reduce(state, SubmitRequested{URL: "https://acme.com/team", Token: "tok"})
	assert.True(t, state.Submitting)
	assert.Empty(t, state.Error)
	assert.Equal(t, ViewForm, state.View)
	assert.Equal(t, "Submitting...", state.Progress.Step)

	state = Reduce(state, SubmitSucceeded{Token: "tok", JobID: "abc"})
	assert.False(t, state.Submitting)
	assert.Equal(t, ViewProgress, state.View)
	assert.Equal(t, "abc", state.JobID)
	assert.True(t, state.Polling())
}

func TestReduceSubmitFailureStaysOnForm(t *testing.T) {
	state := Reduce(Initial(), SubmitRequested{URL: "https://acme.com/team", Token: "tok"})
	state = Reduce(state, SubmitFailed{Token: "tok", Message: "Invalid URL"})

	assert.Equal(t, ViewForm, state.View)
	assert.Equal(t, "Invalid URL", state.Error)
	assert.False(t, state.Submitting)
	assert.Empty(t, state.JobID)
}

func TestReduceIgnoresSupersededSubmission(t *testing.T) {
	state := Reduce(Initial(), SubmitRequested{URL: "https://acme.com/team", Token: "old"})
	state = Reduce(state, ResetRequested{})
	state = Reduce(state, SubmitSucceeded{Token: "old", JobID: "abc"})

	assert.Equal(t, Initial(), state)
}

func TestReduceIgnoresSecondSubmitWhileBusy(t *testing.T) {
	state := Reduce(Initial(), SubmitRequested{URL: "https://acme.com/team", Token: "first"})
	again := Reduce(state, SubmitRequested{URL: "https://other.com/team", Token: "second"})
	assert.Equal(t, state, again)

	polling := progressState(t, "abc")
	assert.Equal(t, polling, Reduce(polling, SubmitRequested{URL: "https://other.com", Token: "x"}))
}

func TestReducePollUpdatesSnapshot(t *testing.T) {
	state := progressState(t, "abc")
	state = Reduce(state, PollSucceeded{JobID: "abc", Seq: 1, Snapshot: domain.JobSnapshot{
		Progress: 10, Step: "Fetching profiles (1/5)...", Status: domain.JobStatusRunning,
	}})

	assert.Equal(t, ViewProgress, state.View)
	assert.Equal(t, ProgressSnapshot{Progress: 10, Step: "Fetching profiles (1/5)...", Status: domain.JobStatusRunning}, state.Progress)
}

func TestReduceCompleteShowsDossier(t *testing.T) {
	dossier := &domain.Dossier{Company: "Acme", TeamCount: 3}
	state := progressState(t, "abc")
	state = Reduce(state, PollSucceeded{JobID: "abc", Seq: 1, Snapshot: domain.JobSnapshot{
		Progress: 100, Step: "Done", Status: domain.JobStatusComplete, Result: dossier,
	}})

	assert.Equal(t, ViewDossier, state.View)
	assert.Same(t, dossier, state.Dossier)
	assert.Empty(t, state.Error)
	assert.False(t, state.Polling())
}

func TestReduceCompleteWithoutResultIsAnError(t *testing.T) {
	state := progressState(t, "abc")
	state = Reduce(state, PollSucceeded{JobID: "abc", Seq: 1, Snapshot: domain.JobSnapshot{
		Progress: 100, Status: domain.JobStatusComplete,
	}})

	assert.Equal(t, ViewForm, state.View)
	assert.NotEmpty(t, state.Error)
	assert.Nil(t, state.Dossier)
}

func TestReduceErrorStatusReturnsToForm(t *testing.T) {
	state := progressState(t, "abc")
	state = Reduce(state, PollSucceeded{JobID: "abc", Seq: 1, Snapshot: domain.JobSnapshot{
		Progress: 0, Step: "Error: could not reach acme.com", Status: domain.JobStatusError,
	}})

	assert.Equal(t, ViewForm, state.View)
	assert.Equal(t, "Error: could not reach acme.com", state.Error)
	assert.Empty(t, state.JobID)
	assert.Nil(t, state.Dossier)
	assert.Equal(t, 0, state.Progress.Progress)
}

func TestReduceIgnoresStalePolls(t *testing.T) {
	state := progressState(t, "abc")
	state = Reduce(state, PollSucceeded{JobID: "abc", Seq: 2, Snapshot: domain.JobSnapshot{
		Progress: 40, Status: domain.JobStatusRunning,
	}})

	tests := []struct {
		name  string
		event Event
	}{
		{"older sequence", PollSucceeded{JobID: "abc", Seq: 1, Snapshot: domain.JobSnapshot{Progress: 20, Status: domain.JobStatusRunning}}},
		{"same sequence", PollSucceeded{JobID: "abc", Seq: 2, Snapshot: domain.JobSnapshot{Progress: 20, Status: domain.JobStatusRunning}}},
		{"other job", PollSucceeded{JobID: "zzz", Seq: 9, Snapshot: domain.JobSnapshot{Status: domain.JobStatusError, Step: "boom"}}},
		{"older failure", PollFailed{JobID: "abc", Seq: 1, Message: "gone"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, state, Reduce(state, tt.event))
		})
	}
}

func TestReduceIgnoresPollAfterReset(t *testing.T) {
	state := progressState(t, "abc")
	state = Reduce(state, ResetRequested{})
	state = Reduce(state, PollSucceeded{JobID: "abc", Seq: 1, Snapshot: domain.JobSnapshot{
		Progress: 100, Status: domain.JobStatusComplete, Result: &domain.Dossier{Company: "Acme"},
	}})

	assert.Equal(t, Initial(), state)
}

func TestReducePollFailures(t *testing.T) {
	state := progressState(t, "abc")

	transient := Reduce(state, PollFailed{JobID: "abc", Seq: 1, Message: "connection refused", Transient: true})
	assert.Equal(t, ViewProgress, transient.View)
	assert.Empty(t, transient.Error)
	assert.Equal(t, "abc", transient.JobID)

	fatal := Reduce(transient, PollFailed{JobID: "abc", Seq: 2, Message: "Job not found"})
	assert.Equal(t, ViewForm, fatal.View)
	assert.Equal(t, "Job not found", fatal.Error)
}

func TestReduceResetIsIdempotent(t *testing.T) {
	states := []State{
		Initial(),
		progressState(t, "abc"),
		Reduce(progressState(t, "abc"), PollSucceeded{JobID: "abc", Seq: 1, Snapshot: domain.JobSnapshot{
			Progress: 100, Status: domain.JobStatusComplete, Result: &domain.Dossier{Company: "Acme"},
		}}),
		{View: ViewForm, Error: "boom"},
	}
	for _, state := range states {
		once := Reduce(state, ResetRequested{})
		twice := Reduce(once, ResetRequested{})
		assert.Equal(t, Initial(), once)
		assert.Equal(t, once, twice)
		assert.Equal(t, ViewForm, once.View)
		assert.Empty(t, once.JobID)
		assert.Nil(t, once.Dossier)
		assert.Empty(t, once.Error)
		assert.Equal(t, 0, once.Progress.Progress)
	}
}

func TestReduceExportNotice(t *testing.T) {
	state := progressState(t, "abc")
	state = Reduce(state, PollSucceeded{JobID: "abc", Seq: 1, Snapshot: domain.JobSnapshot{
		Progress: 100, Status: domain.JobStatusComplete, Result: &domain.Dossier{Company: "Acme"},
	}})

	failed := Reduce(state, ExportFinished{JobID: "abc", Message: "Notion API key not configured"})
	assert.Equal(t, ViewDossier, failed.View)
	assert.Equal(t, "Notion API key not configured", failed.Notice)
	assert.NotNil(t, failed.Dossier)

	ok := Reduce(failed, ExportFinished{JobID: "abc", URL: "https://www.notion.so/page"})
	assert.Equal(t, "Exported to https://www.notion.so/page", ok.Notice)
	assert.Equal(t, "https://www.notion.so/page", ok.ExportURL)

	assert.Equal(t, Initial(), Reduce(Initial(), ExportFinished{JobID: "abc", URL: "https://x"}))
}
