package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/iago/briefcase/internal/domain"
	"github.com/iago/briefcase/internal/policy"
	"github.com/iago/briefcase/internal/quality"
	"github.com/iago/briefcase/internal/queue"
	"github.com/iago/briefcase/internal/repository"
)

// Processor consumes queued dossier jobs and plays the pipeline against the
// job store, one progress update per step.
type Processor struct {
	consumer  queue.Consumer
	repo      repository.JobsRepository
	stepDelay time.Duration
	validator *quality.DossierValidator
	logger    *log.Logger
}

func NewProcessor(
	consumer queue.Consumer,
	repo repository.JobsRepository,
	stepDelay time.Duration,
	logger *log.Logger,
) *Processor {
	return &Processor{
		consumer:  consumer,
		repo:      repo,
		stepDelay: stepDelay,
		validator: quality.NewDossierValidator(),
		logger:    logger,
	}
}

// Start blocks until ctx is done, restarting the consume loop after errors.
func (p *Processor) Start(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		err := p.consumer.Consume(ctx, p.processMessage)
		if err == nil || ctx.Err() != nil {
			return
		}
		p.logf("worker consume loop error: %v", err)

		timer := time.NewTimer(2 * time.Second)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (p *Processor) processMessage(ctx context.Context, message domain.QueueMessage) error {
	job, err := p.repo.GetJob(ctx, message.JobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", message.JobID, err)
	}
	if job.Status.Terminal() {
		return nil
	}

	job.Status = domain.JobStatusRunning
	job.Attempts = message.Attempt + 1

	dossier, buildErr := p.run(ctx, job)
	if buildErr != nil {
		var pipelineErr *PipelineError
		if !errors.As(buildErr, &pipelineErr) {
			return buildErr
		}
		job.Status = domain.JobStatusError
		job.Progress = 0
		job.Step = "Error: " + pipelineErr.Reason
		job.Result = nil
		if err := p.save(ctx, job); err != nil {
			return fmt.Errorf("mark error: %w", err)
		}
		p.logf("job failed job_id=%s reason=%q", job.ID, pipelineErr.Reason)
		return nil
	}

	if redacted := policy.MaskDossier(dossier); redacted > 0 {
		p.logf("contact details redacted job_id=%s fields=%d", job.ID, redacted)
	}
	result, err := json.Marshal(dossier)
	if err != nil {
		return fmt.Errorf("encode dossier: %w", err)
	}
	job.Status = domain.JobStatusComplete
	job.Progress = 100
	job.Step = "Done"
	job.Result = result
	if err := p.save(ctx, job); err != nil {
		return fmt.Errorf("mark complete: %w", err)
	}

	p.logf("job processed job_id=%s company=%q members=%d", job.ID, dossier.Company, dossier.TeamCount)
	return nil
}

// run walks the progress script. Only a *PipelineError ends the job; other
// errors are storage failures and leave the message to be retried.
func (p *Processor) run(ctx context.Context, job *domain.Job) (*domain.Dossier, error) {
	if err := p.step(ctx, job, 5, "Fetching team page..."); err != nil {
		return nil, err
	}
	team, err := SyntheticTeam(job.URL)
	if err != nil {
		return nil, err
	}
	if err := p.step(ctx, job, 10, "Analyzing page structure with AI..."); err != nil {
		return nil, err
	}

	total := team.TeamCount
	if err := p.step(ctx, job, 20, fmt.Sprintf("Found %d team members. Fetching individual profiles...", total)); err != nil {
		return nil, err
	}
	for completed := 1; completed <= total; completed++ {
		pct := 20 + completed*50/total
		if err := p.step(ctx, job, pct, fmt.Sprintf("Fetching profiles (%d/%d)...", completed, total)); err != nil {
			return nil, err
		}
	}

	if err := p.step(ctx, job, 75, "Generating deep insights with AI (this may take a minute)..."); err != nil {
		return nil, err
	}
	team.Insights = syntheticInsights(team)
	checked, err := p.validator.Validate(team)
	if err != nil {
		return nil, &PipelineError{Reason: err.Error()}
	}
	if checked.Corrected {
		p.logf("dossier corrected job_id=%s dropped=%d", job.ID, checked.Dropped)
	}
	if err := p.step(ctx, job, 95, "Finalizing dossier..."); err != nil {
		return nil, err
	}
	return team, nil
}

func (p *Processor) step(ctx context.Context, job *domain.Job, progress int, step string) error {
	job.Progress = progress
	job.Step = step
	if err := p.save(ctx, job); err != nil {
		return fmt.Errorf("save progress %d: %w", progress, err)
	}
	return sleepContext(ctx, p.stepDelay)
}

func (p *Processor) save(ctx context.Context, job *domain.Job) error {
	job.UpdatedAt = time.Now().UTC()
	return p.repo.UpdateJob(ctx, job)
}

func (p *Processor) logf(format string, args ...any) {
	if p.logger != nil {
		p.logger.Printf(format, args...)
	}
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
