package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/ekaya-ingest/pkg/database"
	"github.com/ekaya-inc/ekaya-ingest/pkg/models"
)

// LinkedInJobRepository caches scraped job postings by job id.
type LinkedInJobRepository interface {
	// GetByJobID returns nil, nil when the job has not been scraped yet.
	GetByJobID(ctx context.Context, jobID string) (*models.LinkedInJob, error)
	Upsert(ctx context.Context, job *models.LinkedInJob) error
}

type linkedInJobRepository struct {
	db *database.DB
}

// NewLinkedInJobRepository creates a new LinkedInJobRepository.
func NewLinkedInJobRepository(db *database.DB) LinkedInJobRepository {
	return &linkedInJobRepository{db: db}
}

var _ LinkedInJobRepository = (*linkedInJobRepository)(nil)

func (r *linkedInJobRepository) GetByJobID(ctx context.Context, jobID string) (*models.LinkedInJob, error) {
	query := `
		SELECT id, job_id, raw_content, created_at, updated_at
		FROM linkedin_jobs
		WHERE job_id = $1`

	var job models.LinkedInJob
	err := r.db.QueryRow(ctx, query, jobID).Scan(
		&job.ID, &job.JobID, &job.RawContent, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get linkedin job: %w", err)
	}

	return &job, nil
}

func (r *linkedInJobRepository) Upsert(ctx context.Context, job *models.LinkedInJob) error {
	now := time.Now()
	job.UpdatedAt = now
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
		job.CreatedAt = now
	}

	query := `
		INSERT INTO linkedin_jobs (id, job_id, raw_content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (job_id)
		DO UPDATE SET
			raw_content = EXCLUDED.raw_content,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		job.ID, job.JobID, job.RawContent, job.CreatedAt, job.UpdatedAt,
	).Scan(&job.ID, &job.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert linkedin job: %w", err)
	}

	return nil
}
