package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/iago/briefcase/internal/domain"
	"github.com/iago/briefcase/internal/repository"
)

type stubProducer struct {
	messages []domain.QueueMessage
	err      error
}

func (p *stubProducer) Enqueue(_ context.Context, message domain.QueueMessage) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, message)
	return nil
}

func TestCreateDossierJob(t *testing.T) {
	repo := repository.NewMemoryJobsRepository()
	producer := &stubProducer{}
	service := NewJobsService(repo, producer, "")

	job, err := service.CreateDossierJob(context.Background(), "  https://acme.com/team ")
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	if job.URL != "https://acme.com/team" || job.Step != "Queued" || job.Status != domain.JobStatusPending {
		t.Fatalf("unexpected job: %+v", job)
	}
	if len(producer.messages) != 1 || producer.messages[0].URL != job.URL {
		t.Fatalf("expected queued message, got %+v", producer.messages)
	}
}

func TestCreateDossierJobValidation(t *testing.T) {
	service := NewJobsService(repository.NewMemoryJobsRepository(), &stubProducer{}, "")

	tests := map[string]error{
		"":                  ErrMissingURL,
		"acme.com":          ErrInvalidURL,
		"mailto:a@acme.com": ErrInvalidURL,
		"https://":          ErrInvalidURL,
	}
	for input, want := range tests {
		if _, err := service.CreateDossierJob(context.Background(), input); !errors.Is(err, want) {
			t.Fatalf("input %q: expected %v, got %v", input, want, err)
		}
	}
}

func TestCreateDossierJobMarksQueueFailure(t *testing.T) {
	repo := repository.NewMemoryJobsRepository()
	service := NewJobsService(repo, &stubProducer{err: errors.New("redis down")}, "")

	_, err := service.CreateDossierJob(context.Background(), "https://acme.com")
	if !errors.Is(err, ErrEnqueue) {
		t.Fatalf("expected ErrEnqueue, got %v", err)
	}
}

func TestExportDossier(t *testing.T) {
	repo := repository.NewMemoryJobsRepository()
	service := NewJobsService(repo, &stubProducer{}, "https://www.notion.so/")

	_ = repo.CreateJob(context.Background(), &domain.Job{ID: "run-1", Status: domain.JobStatusRunning})
	_ = repo.CreateJob(context.Background(), &domain.Job{
		ID:     "ab-12",
		Status: domain.JobStatusComplete,
		Result: json.RawMessage(`{"company":"Acme Labs","team_count":0,"groups":[],"insights":[]}`),
	})

	if _, err := service.ExportDossier(context.Background(), "run-1"); !errors.Is(err, ErrNotComplete) {
		t.Fatalf("expected ErrNotComplete, got %v", err)
	}
	if _, err := service.ExportDossier(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	got, err := service.ExportDossier(context.Background(), "ab-12")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if got != "https://www.notion.so/Acme-Labs-Team-Dossier-ab12" {
		t.Fatalf("unexpected export url: %q", got)
	}
}

func TestSnapshotCachesFinishedJobs(t *testing.T) {
	repo := repository.NewMemoryJobsRepository()
	service := NewJobsService(repo, &stubProducer{}, "")

	_ = repo.CreateJob(context.Background(), &domain.Job{ID: "run-1", Status: domain.JobStatusRunning, Progress: 30})
	_ = repo.CreateJob(context.Background(), &domain.Job{ID: "err-1", Status: domain.JobStatusError, Step: "Error: boom"})

	if _, err := service.Snapshot(context.Background(), "run-1"); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if service.snapshots.Len() != 0 {
		t.Fatalf("expected running job to stay uncached")
	}

	first, err := service.Snapshot(context.Background(), "err-1")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if service.snapshots.Len() != 1 {
		t.Fatalf("expected finished job to be cached")
	}
	second, _ := service.Snapshot(context.Background(), "err-1")
	if first.Step != "Error: boom" || second != first {
		t.Fatalf("unexpected cached snapshot: %+v vs %+v", second, first)
	}
}
