package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-ingest/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-ingest/pkg/logging"
	"github.com/ekaya-inc/ekaya-ingest/pkg/models"
	"github.com/ekaya-inc/ekaya-ingest/pkg/processing"
	"github.com/ekaya-inc/ekaya-ingest/pkg/repositories"
)

// Outcome messages shared by the per-source coordinators.
const (
	MsgNoGitHubData     = "No GitHub data found"
	MsgGitHubSuccess    = "Successfully ingested GitHub data"
	MsgLeetCodeSuccess  = "Successfully ingested LeetCode data"
	MsgInvalidFileType  = "Invalid file type. Only PDF files are supported."
	MsgNoResumeText     = "Could not extract text from PDF"
	MsgResumeSuccess    = "Successfully processed resume"
	msgUserNotFound     = "User not found: "
	msgNoGitHubLogin    = "User has no GitHub username: "
	msgLeetCodeNotFound = "LeetCode user not found: "
	msgLeetCodeNoHandle = "LeetCode username is required"
	msgJobNotFound      = "Job or Job content not found for: "
)

// UserNotFoundMessage is the failure message for an unknown user id.
func UserNotFoundMessage(userID uuid.UUID) string {
	return msgUserNotFound + userID.String()
}

// errorKind tags a log entry with the error's taxonomy kind.
func errorKind(err error) zap.Field {
	return zap.String("error_kind", string(apperrors.KindOf(err)))
}

// upstreamMessage describes a source outage without leaking credentials.
func upstreamMessage(source string, err error) string {
	return fmt.Sprintf("%s unavailable: %s", source, logging.SanitizeError(err))
}

// resolveUser loads the user. A missing user is reported as (nil, nil) so the
// caller can turn it into a failure outcome.
func resolveUser(ctx context.Context, users repositories.UserRepository, userID uuid.UUID) (*models.User, error) {
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return user, nil
}

// triggerProcessing asks the processing service to embed new entries. Failures
// are logged and never change the ingestion outcome.
func triggerProcessing(ctx context.Context, trigger processing.Trigger, logger *zap.Logger, userID uuid.UUID, sourceType models.SourceType, entries []*models.KnowledgeBaseEntry) {
	if trigger == nil || len(entries) == 0 {
		return
	}
	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	resp, err := trigger.TriggerEmbeddingGeneration(ctx, userID, sourceType, ids)
	if err != nil {
		logger.Warn("Embedding trigger failed",
			zap.String("user_id", userID.String()),
			zap.String("source_type", string(sourceType)),
			zap.String("error", logging.SanitizeError(err)))
		return
	}
	if resp != nil && !resp.Success {
		logger.Warn("Processing service rejected embedding trigger",
			zap.String("user_id", userID.String()),
			zap.String("source_type", string(sourceType)),
			zap.String("message", resp.Message))
	}
}
