package progress

import (
	"fmt"
	"time"

	"github.com/iago/briefcase/internal/clock"
)

const elapsedTickPeriod = time.Second

// ElapsedTracker is a stopwatch scoped to phase 2 of one job. It owns a one
// second ticker while running; the owner must drain C() and call Tick, and
// must call Stop when the progress view goes away.
//
// ElapsedTracker is not safe for concurrent use; the lifecycle loop owns it.
type ElapsedTracker struct {
	clock     clock.Clock
	ticker    clock.Ticker
	jobID     string
	startedAt time.Time
	seconds   int
}

func NewElapsedTracker(c clock.Clock) *ElapsedTracker {
	if c == nil {
		c = clock.Real()
	}
	return &ElapsedTracker{clock: c}
}

// Observe feeds the phase seen for jobID. The first phase-2 reading of a job
// starts the stopwatch from zero; a phase-1 reading or a different job resets
// and stops it.
func (t *ElapsedTracker) Observe(jobID string, phase Phase) {
	if t.Running() && t.jobID != jobID {
		t.Stop()
	}
	if phase != PhaseInsights {
		t.Stop()
		return
	}
	if t.Running() {
		return
	}
	t.jobID = jobID
	t.startedAt = t.clock.Now()
	t.seconds = 0
	t.ticker = t.clock.NewTicker(elapsedTickPeriod)
}

// Tick refreshes the elapsed value from the clock. Missed ticks are harmless.
func (t *ElapsedTracker) Tick() {
	if !t.Running() {
		return
	}
	t.seconds = int(t.clock.Now().Sub(t.startedAt) / time.Second)
}

// Stop releases the ticker and resets the value to zero.
func (t *ElapsedTracker) Stop() {
	if t.ticker != nil {
		t.ticker.Stop()
		t.ticker = nil
	}
	t.jobID = ""
	t.seconds = 0
	t.startedAt = time.Time{}
}

// C is nil while the tracker is stopped, so a select on it blocks.
func (t *ElapsedTracker) C() <-chan time.Time {
	if t.ticker == nil {
		return nil
	}
	return t.ticker.C()
}

func (t *ElapsedTracker) Running() bool {
	return t.ticker != nil
}

func (t *ElapsedTracker) Seconds() int {
	return t.seconds
}

// FormatElapsed renders "42s" or "3m 5s".
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	minutes := seconds / 60
	if minutes == 0 {
		return fmt.Sprintf("%ds", seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds%60)
}
