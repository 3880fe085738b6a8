package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-ingest/pkg/metrics"
	"github.com/ekaya-inc/ekaya-ingest/pkg/models"
	"github.com/ekaya-inc/ekaya-ingest/pkg/repositories"
)

// KnowledgeBaseService writes normalized knowledge-base entries.
type KnowledgeBaseService interface {
	// Upsert creates the entry for (userID, sourceType, sourceURL) or replaces
	// its content and metadata, preserving id and creation time.
	Upsert(ctx context.Context, userID uuid.UUID, sourceType models.SourceType, sourceURL, content string, metadata map[string]any) (*models.KnowledgeBaseEntry, error)
}

type knowledgeBaseService struct {
	repo   repositories.KnowledgeBaseRepository
	logger *zap.Logger
}

// NewKnowledgeBaseService creates a new knowledge base service.
func NewKnowledgeBaseService(repo repositories.KnowledgeBaseRepository, logger *zap.Logger) KnowledgeBaseService {
	return &knowledgeBaseService{
		repo:   repo,
		logger: logger.Named("knowledge-base"),
	}
}

var _ KnowledgeBaseService = (*knowledgeBaseService)(nil)

func (s *knowledgeBaseService) Upsert(ctx context.Context, userID uuid.UUID, sourceType models.SourceType, sourceURL, content string, metadata map[string]any) (*models.KnowledgeBaseEntry, error) {
	if sourceURL == "" {
		return nil, fmt.Errorf("source URL is required")
	}

	entry := &models.KnowledgeBaseEntry{
		UserID:     userID,
		SourceType: sourceType,
		SourceURL:  sourceURL,
		Content:    content,
		Metadata:   metadata,
	}

	if err := s.repo.Upsert(ctx, entry); err != nil {
		s.logger.Error("Failed to upsert knowledge base entry",
			zap.String("user_id", userID.String()),
			zap.String("source_type", string(sourceType)),
			zap.String("source_url", sourceURL),
			zap.Error(err))
		return nil, err
	}

	metrics.KnowledgeBaseUpserts.WithLabelValues(string(sourceType)).Inc()
	s.logger.Debug("Knowledge base entry stored",
		zap.String("user_id", userID.String()),
		zap.String("source_type", string(sourceType)),
		zap.String("source_url", sourceURL),
		zap.String("entry_id", entry.ID.String()))

	return entry, nil
}
