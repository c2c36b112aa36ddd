package lifecycle

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iago/briefcase/internal/clock"
	"github.com/iago/briefcase/internal/domain"
	"github.com/iago/briefcase/internal/jobapi"
	"github.com/iago/briefcase/internal/progress"
)

// DefaultPollInterval is the fixed cadence of status polls.
const DefaultPollInterval = 2 * time.Second

var (
	ErrEmptyURL  = errors.New("team page url is required")
	ErrBusy      = errors.New("a job is already in flight")
	ErrNoDossier = errors.New("no dossier to export")
	ErrStopped   = errors.New("lifecycle controller stopped")
)

// API is the job backend as seen by the controller. *jobapi.Client
// satisfies it.
type API interface {
	Submit(ctx context.Context, teamURL string) (string, error)
	Poll(ctx context.Context, jobID string) (domain.JobSnapshot, error)
	Export(ctx context.Context, jobID string) (string, error)
}

// Frame is what a renderer needs after every state change.
type Frame struct {
	State          State
	Display        progress.Display
	Elapsed        int
	ElapsedRunning bool
}

type Options struct {
	API    API
	Clock  clock.Clock
	Logger *log.Logger
	// PollInterval overrides DefaultPollInterval. Tests only.
	PollInterval time.Duration
	// OnChange is called from the controller goroutine after every
	// visible change. It must not call back into the controller.
	OnChange func(Frame)
}

// Controller owns the view state and every timer derived from it. All state
// transitions happen on the goroutine running Run; network calls run on
// their own goroutines and report back as events.
type Controller struct {
	api      API
	clock    clock.Clock
	logger   *log.Logger
	interval time.Duration
	onChange func(Frame)

	commands chan command
	events   chan Event
	done     chan struct{}
	once     sync.Once

	mu    sync.RWMutex
	frame Frame
}

type command struct {
	submit string
	reset  bool
	export *exportRequest
	reply  chan error
}

type exportRequest struct {
	ctx    context.Context
	result chan exportResult
}

type exportResult struct {
	url string
	err error
}

// pollLoop is the resource acquired on entering the progress view.
type pollLoop struct {
	jobID  string
	ticker clock.Ticker
	ctx    context.Context
	cancel context.CancelFunc
	seq    uint64
}

func NewController(opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	c := &Controller{
		api:      opts.API,
		clock:    opts.Clock,
		logger:   opts.Logger,
		interval: opts.PollInterval,
		onChange: opts.OnChange,
		commands: make(chan command),
		events:   make(chan Event, 16),
		done:     make(chan struct{}),
	}
	c.frame = buildFrame(Initial(), nil)
	return c
}

// Run drives the state machine until ctx is cancelled. Every ticker and
// in-flight request it started is released before it returns.
func (c *Controller) Run(ctx context.Context) error {
	defer c.once.Do(func() { close(c.done) })

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	state := Initial()
	tracker := progress.NewElapsedTracker(c.clock)
	var loop *pollLoop

	defer func() {
		c.stopPolling(loop)
		tracker.Stop()
	}()

	apply := func(event Event) {
		previous := state
		state = Reduce(state, event)
		loop = c.reconcile(runCtx, state, loop)

		if !state.Polling() {
			tracker.Stop()
		} else if state.lastPollSeq != previous.lastPollSeq {
			tracker.Observe(state.JobID, progress.PhaseOf(state.Progress.Progress))
		}
		c.publish(state, tracker)
	}

	for {
		var pollTick <-chan time.Time
		if loop != nil {
			pollTick = loop.ticker.C()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case cmd := <-c.commands:
			switch {
			case cmd.reset:
				apply(ResetRequested{})
				cmd.reply <- nil
			case cmd.export != nil:
				if state.View != ViewDossier {
					cmd.reply <- ErrNoDossier
					continue
				}
				c.startExport(state.JobID, cmd.export)
				cmd.reply <- nil
			default:
				if state.View != ViewForm || state.Submitting {
					cmd.reply <- ErrBusy
					continue
				}
				token := uuid.NewString()
				apply(SubmitRequested{URL: cmd.submit, Token: token})
				c.startSubmit(runCtx, cmd.submit, token)
				cmd.reply <- nil
			}

		case event := <-c.events:
			apply(event)

		case <-pollTick:
			c.issuePoll(loop)

		case <-tracker.C():
			tracker.Tick()
			c.publish(state, tracker)
		}
	}
}

// Submit starts a job for teamURL. It returns once the submission is under
// way; the outcome arrives as a state change.
func (c *Controller) Submit(ctx context.Context, teamURL string) error {
	teamURL = strings.TrimSpace(teamURL)
	if teamURL == "" {
		return ErrEmptyURL
	}
	return c.send(ctx, command{submit: teamURL})
}

// Reset returns to the form from any view. Calling it twice is harmless.
func (c *Controller) Reset(ctx context.Context) error {
	return c.send(ctx, command{reset: true})
}

// Export asks the backend to materialize the current dossier externally.
// A failure is recorded as a notice and never changes the view.
func (c *Controller) Export(ctx context.Context) (string, error) {
	req := &exportRequest{ctx: ctx, result: make(chan exportResult, 1)}
	if err := c.send(ctx, command{export: req}); err != nil {
		return "", err
	}
	select {
	case res := <-req.result:
		return res.url, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-c.done:
		return "", ErrStopped
	}
}

// Frame returns the most recently published frame.
func (c *Controller) Frame() Frame {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frame
}

func (c *Controller) State() State {
	return c.Frame().State
}

func (c *Controller) send(ctx context.Context, cmd command) error {
	cmd.reply = make(chan error, 1)
	select {
	case c.commands <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrStopped
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrStopped
	}
}

func (c *Controller) post(event Event) {
	select {
	case c.events <- event:
	case <-c.done:
	}
}

// reconcile makes the poll loop match the state: one loop per active job,
// none outside the progress view.
func (c *Controller) reconcile(ctx context.Context, state State, loop *pollLoop) *pollLoop {
	if loop != nil && (!state.Polling() || loop.jobID != state.JobID) {
		c.stopPolling(loop)
		loop = nil
	}
	if loop == nil && state.Polling() {
		loop = c.startPolling(ctx, state.JobID)
	}
	return loop
}

func (c *Controller) startPolling(ctx context.Context, jobID string) *pollLoop {
	loopCtx, cancel := context.WithCancel(ctx)
	loop := &pollLoop{
		jobID:  jobID,
		ticker: c.clock.NewTicker(c.interval),
		ctx:    loopCtx,
		cancel: cancel,
	}
	c.logf("lifecycle poll loop started job_id=%s interval=%s", jobID, c.interval)
	c.issuePoll(loop)
	return loop
}

func (c *Controller) stopPolling(loop *pollLoop) {
	if loop == nil {
		return
	}
	loop.ticker.Stop()
	loop.cancel()
	c.logf("lifecycle poll loop stopped job_id=%s polls=%d", loop.jobID, loop.seq)
}

func (c *Controller) issuePoll(loop *pollLoop) {
	loop.seq++
	seq := loop.seq
	ctx := loop.ctx
	jobID := loop.jobID

	go func() {
		snapshot, err := c.api.Poll(ctx, jobID)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			transient := jobapi.IsTransient(err)
			if transient {
				c.logf("lifecycle poll transient failure job_id=%s seq=%d err=%v (retry next tick)", jobID, seq, err)
			} else {
				c.logf("lifecycle poll failed job_id=%s seq=%d err=%v", jobID, seq, err)
			}
			c.post(PollFailed{JobID: jobID, Seq: seq, Message: pollErrorMessage(err), Transient: transient})
			return
		}
		c.post(PollSucceeded{JobID: jobID, Seq: seq, Snapshot: snapshot})
	}()
}

func (c *Controller) startSubmit(ctx context.Context, teamURL, token string) {
	go func() {
		jobID, err := c.api.Submit(ctx, teamURL)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			c.logf("lifecycle submit failed url=%s err=%v", teamURL, err)
			c.post(SubmitFailed{Token: token, Message: err.Error()})
			return
		}
		c.logf("lifecycle submit accepted url=%s job_id=%s", teamURL, jobID)
		c.post(SubmitSucceeded{Token: token, JobID: jobID})
	}()
}

func (c *Controller) startExport(jobID string, req *exportRequest) {
	go func() {
		url, err := c.api.Export(req.ctx, jobID)
		finished := ExportFinished{JobID: jobID, URL: url}
		if err != nil {
			c.logf("lifecycle export failed job_id=%s err=%v", jobID, err)
			finished.Message = err.Error()
		}
		c.post(finished)
		req.result <- exportResult{url: url, err: err}
	}()
}

func (c *Controller) publish(state State, tracker *progress.ElapsedTracker) {
	frame := buildFrame(state, tracker)

	c.mu.Lock()
	c.frame = frame
	c.mu.Unlock()

	if c.onChange != nil {
		c.onChange(frame)
	}
}

func buildFrame(state State, tracker *progress.ElapsedTracker) Frame {
	frame := Frame{
		State:   state,
		Display: progress.MapDisplay(state.Progress.Progress, state.Progress.Step),
	}
	if tracker != nil {
		frame.Elapsed = tracker.Seconds()
		frame.ElapsedRunning = tracker.Running()
	}
	return frame
}

func pollErrorMessage(err error) string {
	var statusErr *jobapi.StatusError
	if errors.As(err, &statusErr) && statusErr.Message != "" {
		return statusErr.Message
	}
	return err.Error()
}

func (c *Controller) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}
