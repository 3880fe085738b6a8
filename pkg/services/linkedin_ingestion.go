package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-ingest/pkg/logging"
	"github.com/ekaya-inc/ekaya-ingest/pkg/metrics"
	"github.com/ekaya-inc/ekaya-ingest/pkg/models"
	"github.com/ekaya-inc/ekaya-ingest/pkg/processing"
	"github.com/ekaya-inc/ekaya-ingest/pkg/repositories"
	"github.com/ekaya-inc/ekaya-ingest/pkg/sources/linkedin"
)

// LinkedInIngestionService ingests public job postings.
type LinkedInIngestionService interface {
	// IngestLinkedInJob returns the posting as Markdown in the outcome message.
	IngestLinkedInJob(ctx context.Context, userID uuid.UUID, jobID string) (*models.LinkedInOutcome, error)
}

type linkedInIngestionService struct {
	users   repositories.UserRepository
	jobs    repositories.LinkedInJobRepository
	kb      KnowledgeBaseService
	client  linkedin.Client
	trigger processing.Trigger
	logger  *zap.Logger
}

// NewLinkedInIngestionService creates a new LinkedIn ingestion coordinator.
func NewLinkedInIngestionService(
	users repositories.UserRepository,
	jobs repositories.LinkedInJobRepository,
	kb KnowledgeBaseService,
	client linkedin.Client,
	trigger processing.Trigger,
	logger *zap.Logger,
) LinkedInIngestionService {
	return &linkedInIngestionService{
		users:   users,
		jobs:    jobs,
		kb:      kb,
		client:  client,
		trigger: trigger,
		logger:  logger.Named("linkedin-ingestion"),
	}
}

var _ LinkedInIngestionService = (*linkedInIngestionService)(nil)

func (s *linkedInIngestionService) IngestLinkedInJob(ctx context.Context, userID uuid.UUID, jobID string) (out *models.LinkedInOutcome, err error) {
	started := time.Now()
	defer func() {
		metrics.ObserveRun(string(models.SourceLinkedIn), metrics.RunStatus(out != nil && out.Success, err), started)
	}()

	s.logger.Info("Starting job ingestion",
		zap.String("user_id", userID.String()),
		zap.String("job_id", jobID))

	user, err := resolveUser(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return &models.LinkedInOutcome{Message: UserNotFoundMessage(userID)}, nil
	}

	if !linkedin.ValidJobID(jobID) {
		s.logger.Warn("Invalid job id format", zap.String("job_id", jobID))
		return &models.LinkedInOutcome{Message: msgJobNotFound + jobID}, nil
	}

	content, err := s.jobContent(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return &models.LinkedInOutcome{Message: msgJobNotFound + jobID}, nil
	}
	if content.upstreamErr != nil {
		return &models.LinkedInOutcome{Message: upstreamMessage("LinkedIn", content.upstreamErr)}, nil
	}

	entry, err := s.kb.Upsert(ctx, userID, models.SourceLinkedIn, s.client.JobURL(jobID), content.markdown, map[string]any{
		"jobId": jobID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store job posting: %w", err)
	}

	triggerProcessing(ctx, s.trigger, s.logger, userID, models.SourceLinkedIn, []*models.KnowledgeBaseEntry{entry})

	s.logger.Info("Job ingestion completed",
		zap.String("user_id", userID.String()),
		zap.String("job_id", jobID),
		zap.Bool("cached", content.cached))

	return &models.LinkedInOutcome{Success: true, Message: content.markdown}, nil
}

type jobPosting struct {
	markdown    string
	cached      bool
	upstreamErr error
}

// jobContent returns the stored posting, or scrapes and stores it. It returns
// nil when the posting or its content region does not exist.
func (s *linkedInIngestionService) jobContent(ctx context.Context, jobID string) (*jobPosting, error) {
	existing, err := s.jobs.GetByJobID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		metrics.SourceCache.WithLabelValues(string(models.SourceLinkedIn), metrics.CacheHit).Inc()
		return &jobPosting{markdown: existing.RawContent, cached: true}, nil
	}
	metrics.SourceCache.WithLabelValues(string(models.SourceLinkedIn), metrics.CacheMiss).Inc()

	markdown, found, err := s.client.FetchJob(ctx, jobID)
	if err != nil {
		s.logger.Warn("Job page fetch failed",
			zap.String("job_id", jobID),
			zap.String("error", logging.SanitizeError(err)),
			errorKind(err))
		return &jobPosting{upstreamErr: err}, nil
	}
	if !found {
		s.logger.Warn("Job or job content not found", zap.String("job_id", jobID))
		return nil, nil
	}

	if err := s.jobs.Upsert(ctx, &models.LinkedInJob{JobID: jobID, RawContent: markdown}); err != nil {
		return nil, fmt.Errorf("failed to cache job posting: %w", err)
	}

	return &jobPosting{markdown: markdown}, nil
}
