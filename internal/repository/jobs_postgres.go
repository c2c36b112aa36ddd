package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iago/briefcase/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dossierJobsSchema = `
CREATE TABLE IF NOT EXISTS dossier_jobs (
	id          TEXT PRIMARY KEY,
	url         TEXT NOT NULL,
	status      TEXT NOT NULL,
	progress    INTEGER NOT NULL DEFAULT 0,
	step        TEXT NOT NULL DEFAULT '',
	result      JSONB,
	attempts    INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
)`

type PostgresJobsRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresJobsRepository(ctx context.Context, databaseURL string) (*PostgresJobsRepository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pg pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping pg: %w", err)
	}
	return &PostgresJobsRepository{pool: pool}, nil
}

func (r *PostgresJobsRepository) Close() {
	r.pool.Close()
}

// EnsureSchema creates the dossier_jobs table when it does not exist yet.
func (r *PostgresJobsRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, dossierJobsSchema); err != nil {
		return fmt.Errorf("ensure dossier_jobs schema: %w", err)
	}
	return nil
}

func (r *PostgresJobsRepository) CreateJob(ctx context.Context, job *domain.Job) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO dossier_jobs (
			id,
			url,
			status,
			progress,
			step,
			result,
			attempts,
			created_at,
			updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		job.ID,
		job.URL,
		string(job.Status),
		job.Progress,
		job.Step,
		nullableJSON(job.Result),
		job.Attempts,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert dossier job: %w", err)
	}
	return nil
}

// UpdateJob only touches rows that are not terminal, or that keep their
// terminal status.
func (r *PostgresJobsRepository) UpdateJob(ctx context.Context, job *domain.Job) error {
	command, err := r.pool.Exec(ctx, `
		UPDATE dossier_jobs
		SET status = $2,
			progress = $3,
			step = $4,
			result = $5,
			attempts = $6,
			updated_at = $7
		WHERE id = $1
		  AND (status NOT IN ('complete', 'error') OR status = $2)
	`, job.ID, string(job.Status), job.Progress, job.Step, nullableJSON(job.Result), job.Attempts, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update dossier job: %w", err)
	}
	if command.RowsAffected() > 0 {
		return nil
	}

	if _, err := r.GetJob(ctx, job.ID); err != nil {
		return err
	}
	return ErrTerminal
}

func (r *PostgresJobsRepository) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	var (
		job    domain.Job
		status string
		result []byte
	)

	err := r.pool.QueryRow(ctx, `
		SELECT id, url, status, progress, step, result, attempts, created_at, updated_at
		FROM dossier_jobs
		WHERE id = $1
	`, jobID).Scan(
		&job.ID,
		&job.URL,
		&status,
		&job.Progress,
		&job.Step,
		&result,
		&job.Attempts,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query dossier job: %w", err)
	}

	job.Status = domain.JobStatus(status)
	job.Result = json.RawMessage(result)
	return &job, nil
}

func nullableJSON(value json.RawMessage) any {
	if len(value) == 0 {
		return nil
	}
	return []byte(value)
}
