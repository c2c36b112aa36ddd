package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iago/briefcase/internal/cache"
	"github.com/iago/briefcase/internal/domain"
	"github.com/iago/briefcase/internal/queue"
	"github.com/iago/briefcase/internal/repository"
)

var (
	ErrInvalidURL  = errors.New("URL must be an absolute http or https address")
	ErrMissingURL  = errors.New("URL is required")
	ErrNotComplete = errors.New("Dossier not yet complete")
	ErrEnqueue     = errors.New("failed to enqueue job")
)

type JobsService struct {
	repo          repository.JobsRepository
	producer      queue.Producer
	snapshots     *cache.SnapshotCache
	exportBaseURL string
}

func NewJobsService(repo repository.JobsRepository, producer queue.Producer, exportBaseURL string) *JobsService {
	return &JobsService{
		repo:          repo,
		producer:      producer,
		snapshots:     cache.NewSnapshotCache(cache.Config{TTL: 10 * time.Minute}),
		exportBaseURL: exportBaseURL,
	}
}

// CreateDossierJob stores a pending job for teamURL and queues it. A job
// whose message never reached the queue is marked as failed.
func (s *JobsService) CreateDossierJob(ctx context.Context, teamURL string) (*domain.Job, error) {
	teamURL = strings.TrimSpace(teamURL)
	if teamURL == "" {
		return nil, ErrMissingURL
	}
	if !validTeamURL(teamURL) {
		return nil, ErrInvalidURL
	}

	now := time.Now().UTC()
	job := &domain.Job{
		ID:        uuid.NewString(),
		URL:       teamURL,
		Status:    domain.JobStatusPending,
		Progress:  0,
		Step:      "Queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	message := domain.QueueMessage{
		JobID:       job.ID,
		URL:         job.URL,
		Attempt:     0,
		RequestedAt: now,
	}
	if err := s.producer.Enqueue(ctx, message); err != nil {
		job.Status = domain.JobStatusError
		job.Step = "Error: job queue unavailable"
		job.UpdatedAt = time.Now().UTC()
		_ = s.repo.UpdateJob(ctx, job)
		return nil, fmt.Errorf("%w: %v", ErrEnqueue, err)
	}
	return job, nil
}

// Snapshot returns the polling view of a job. Finished jobs are served from
// the snapshot cache once they have been read.
func (s *JobsService) Snapshot(ctx context.Context, jobID string) (domain.JobSnapshot, error) {
	if cached, ok := s.snapshots.Get(jobID); ok {
		var snapshot domain.JobSnapshot
		if err := json.Unmarshal(cached, &snapshot); err == nil {
			return snapshot, nil
		}
	}

	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return domain.JobSnapshot{}, err
	}
	snapshot, err := job.Snapshot()
	if err != nil {
		return domain.JobSnapshot{}, fmt.Errorf("decode dossier: %w", err)
	}
	if snapshot.Status.Terminal() {
		if encoded, err := json.Marshal(snapshot); err == nil {
			s.snapshots.Set(jobID, encoded)
		}
	}
	return snapshot, nil
}

// ExportDossier returns the page link for a completed dossier, shaped like a
// Notion URL: <base>/<Company>-Team-Dossier-<id without dashes>.
func (s *JobsService) ExportDossier(ctx context.Context, jobID string) (string, error) {
	snapshot, err := s.Snapshot(ctx, jobID)
	if err != nil {
		return "", err
	}
	if snapshot.Status != domain.JobStatusComplete {
		return "", ErrNotComplete
	}
	if snapshot.Result == nil {
		return "", fmt.Errorf("decode dossier: empty result")
	}

	slug := strings.Join(strings.Fields(snapshot.Result.Company), "-")
	if slug == "" {
		slug = "Unknown"
	}
	return strings.TrimSuffix(s.exportBaseURL, "/") + "/" + url.PathEscape(slug) +
		"-Team-Dossier-" + strings.ReplaceAll(jobID, "-", ""), nil
}

func validTeamURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
