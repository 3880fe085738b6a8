package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/ekaya-ingest/pkg/database"
	"github.com/ekaya-inc/ekaya-ingest/pkg/models"
)

// UserInfoRepository stores the per-user aggregate profile in user_info.
// Each source replaces only its own blob; the other blobs are preserved.
type UserInfoRepository interface {
	// Get returns nil, nil when the user has no aggregate row yet.
	Get(ctx context.Context, userID uuid.UUID) (*models.AggregateProfile, error)
	UpsertGitHubStats(ctx context.Context, userID uuid.UUID, stats *models.GitHubStats) error
	UpsertLeetCodeStats(ctx context.Context, userID uuid.UUID, stats *models.LeetCodeStats) error
	UpsertResumeSummary(ctx context.Context, userID uuid.UUID, summary *models.ResumeSummary) error
}

type userInfoRepository struct {
	db *database.DB
}

// NewUserInfoRepository creates a new UserInfoRepository.
func NewUserInfoRepository(db *database.DB) UserInfoRepository {
	return &userInfoRepository{db: db}
}

var _ UserInfoRepository = (*userInfoRepository)(nil)

// blobColumns whitelists the columns upsertBlob may interpolate.
var blobColumns = map[string]struct{}{
	"github_stats":   {},
	"leetcode_stats": {},
	"resume_summary": {},
}

func (r *userInfoRepository) UpsertGitHubStats(ctx context.Context, userID uuid.UUID, stats *models.GitHubStats) error {
	return r.upsertBlob(ctx, userID, "github_stats", stats)
}

func (r *userInfoRepository) UpsertLeetCodeStats(ctx context.Context, userID uuid.UUID, stats *models.LeetCodeStats) error {
	return r.upsertBlob(ctx, userID, "leetcode_stats", stats)
}

func (r *userInfoRepository) UpsertResumeSummary(ctx context.Context, userID uuid.UUID, summary *models.ResumeSummary) error {
	return r.upsertBlob(ctx, userID, "resume_summary", summary)
}

// upsertBlob replaces one blob column and stamps last_ingested_at.
func (r *userInfoRepository) upsertBlob(ctx context.Context, userID uuid.UUID, column string, blob any) error {
	if _, ok := blobColumns[column]; !ok {
		return fmt.Errorf("unknown aggregate column %q", column)
	}

	data, err := json.Marshal(blob)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", column, err)
	}

	now := time.Now()
	query := fmt.Sprintf(`
		INSERT INTO user_info (user_id, %[1]s, last_ingested_at, created_at, updated_at)
		VALUES ($1, $2, $3, $3, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET
			%[1]s = EXCLUDED.%[1]s,
			last_ingested_at = EXCLUDED.last_ingested_at,
			updated_at = EXCLUDED.updated_at`, column)

	if _, err := r.db.Exec(ctx, query, userID, data, now); err != nil {
		return fmt.Errorf("failed to upsert %s: %w", column, err)
	}

	return nil
}

func (r *userInfoRepository) Get(ctx context.Context, userID uuid.UUID) (*models.AggregateProfile, error) {
	query := `
		SELECT user_id, github_stats, leetcode_stats, resume_summary, last_ingested_at, created_at, updated_at
		FROM user_info
		WHERE user_id = $1`

	var p models.AggregateProfile
	var github, leetcode, resume []byte
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &github, &leetcode, &resume, &p.LastIngestedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get aggregate profile: %w", err)
	}

	if github != nil {
		p.GitHubStats = &models.GitHubStats{}
		if err := json.Unmarshal(github, p.GitHubStats); err != nil {
			return nil, fmt.Errorf("failed to unmarshal github_stats: %w", err)
		}
	}
	if leetcode != nil {
		p.LeetCodeStats = &models.LeetCodeStats{}
		if err := json.Unmarshal(leetcode, p.LeetCodeStats); err != nil {
			return nil, fmt.Errorf("failed to unmarshal leetcode_stats: %w", err)
		}
	}
	if resume != nil {
		p.ResumeSummary = &models.ResumeSummary{}
		if err := json.Unmarshal(resume, p.ResumeSummary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal resume_summary: %w", err)
		}
	}

	return &p, nil
}
