package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-ingest/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-ingest/pkg/metrics"
	"github.com/ekaya-inc/ekaya-ingest/pkg/models"
	"github.com/ekaya-inc/ekaya-ingest/pkg/processing"
	"github.com/ekaya-inc/ekaya-ingest/pkg/repositories"
	"github.com/ekaya-inc/ekaya-ingest/pkg/resume"
)

// ResumeSourceURL is the synthetic locator for a résumé upload.
func ResumeSourceURL(userID uuid.UUID, fingerprint string) string {
	return "resume://" + userID.String() + "/" + fingerprint
}

// ResumeUpload is one uploaded document.
type ResumeUpload struct {
	Filename    string
	ContentType string // as declared by the client, may be empty
	Content     []byte
}

// ResumeIngestionService ingests uploaded résumés.
type ResumeIngestionService interface {
	IngestResume(ctx context.Context, userID uuid.UUID, upload ResumeUpload) (*models.ResumeOutcome, error)
}

type resumeIngestionService struct {
	users     repositories.UserRepository
	userInfo  repositories.UserInfoRepository
	kb        KnowledgeBaseService
	processor *resume.Processor
	trigger   processing.Trigger
	logger    *zap.Logger
}

// NewResumeIngestionService creates a new résumé ingestion coordinator.
func NewResumeIngestionService(
	users repositories.UserRepository,
	userInfo repositories.UserInfoRepository,
	kb KnowledgeBaseService,
	processor *resume.Processor,
	trigger processing.Trigger,
	logger *zap.Logger,
) ResumeIngestionService {
	return &resumeIngestionService{
		users:     users,
		userInfo:  userInfo,
		kb:        kb,
		processor: processor,
		trigger:   trigger,
		logger:    logger.Named("resume-ingestion"),
	}
}

var _ ResumeIngestionService = (*resumeIngestionService)(nil)

func (s *resumeIngestionService) IngestResume(ctx context.Context, userID uuid.UUID, upload ResumeUpload) (out *models.ResumeOutcome, err error) {
	started := time.Now()
	defer func() {
		metrics.ObserveRun(string(models.SourceResume), metrics.RunStatus(out != nil && out.Success, err), started)
	}()

	s.logger.Info("Starting resume processing",
		zap.String("user_id", userID.String()),
		zap.String("file_name", upload.Filename),
		zap.Int("bytes", len(upload.Content)))

	user, err := resolveUser(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return &models.ResumeOutcome{Message: UserNotFoundMessage(userID)}, nil
	}

	doc, err := s.processor.Process(upload.Content, upload.Filename, upload.ContentType)
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		s.logger.Warn("Rejected non-PDF upload",
			zap.String("file_name", upload.Filename),
			zap.String("content_type", upload.ContentType))
		return &models.ResumeOutcome{Message: MsgInvalidFileType}, nil
	case errors.Is(err, apperrors.ErrExtractionEmpty):
		s.logger.Warn("No text extracted from resume",
			zap.String("file_name", upload.Filename),
			zap.Error(err))
		return &models.ResumeOutcome{Message: MsgNoResumeText}, nil
	case err != nil:
		return nil, fmt.Errorf("failed to process resume: %w", err)
	}

	s.logger.Info("Extracted resume text",
		zap.Int("word_count", doc.WordCount),
		zap.Int("word_cap", s.processor.WordCap()))

	processedAt := time.Now().UTC()
	summary := &models.ResumeSummary{
		FileName:    upload.Filename,
		FileHash:    doc.Fingerprint,
		WordCount:   doc.WordCount,
		ProcessedAt: processedAt,
		RawText:     doc.Text,
		Skills:      doc.Sections.Skills,
		Experiences: doc.Sections.Experiences,
		Education:   doc.Sections.Education,
		Summary:     doc.Sections.Summary,
	}

	entry, err := s.kb.Upsert(ctx, userID, models.SourceResume, ResumeSourceURL(userID, doc.Fingerprint), doc.Text, map[string]any{
		"fileName":    upload.Filename,
		"fileHash":    doc.Fingerprint,
		"wordCount":   doc.WordCount,
		"processedAt": processedAt.Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store resume: %w", err)
	}

	if err := s.userInfo.UpsertResumeSummary(ctx, userID, summary); err != nil {
		return nil, fmt.Errorf("failed to store resume summary: %w", err)
	}

	triggerProcessing(ctx, s.trigger, s.logger, userID, models.SourceResume, []*models.KnowledgeBaseEntry{entry})

	s.logger.Info("Resume processing completed",
		zap.String("user_id", userID.String()),
		zap.Int("word_count", doc.WordCount))

	return &models.ResumeOutcome{
		Success:   true,
		Message:   MsgResumeSuccess,
		WordCount: doc.WordCount,
	}, nil
}
