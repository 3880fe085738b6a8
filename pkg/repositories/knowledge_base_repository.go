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

// KnowledgeBaseRepository provides data access for user_knowledge_base.
type KnowledgeBaseRepository interface {
	// Upsert inserts the entry or replaces content and metadata of the row with
	// the same (user, source type, source URL). The stored id and created_at
	// are written back into entry.
	Upsert(ctx context.Context, entry *models.KnowledgeBaseEntry) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.KnowledgeBaseEntry, error)
	// GetBySource returns nil, nil when no entry exists for the triple.
	GetBySource(ctx context.Context, userID uuid.UUID, sourceType models.SourceType, sourceURL string) (*models.KnowledgeBaseEntry, error)
	DeleteByUserAndSourceType(ctx context.Context, userID uuid.UUID, sourceType models.SourceType) (int64, error)
}

type knowledgeBaseRepository struct {
	db *database.DB
}

// NewKnowledgeBaseRepository creates a new KnowledgeBaseRepository.
func NewKnowledgeBaseRepository(db *database.DB) KnowledgeBaseRepository {
	return &knowledgeBaseRepository{db: db}
}

var _ KnowledgeBaseRepository = (*knowledgeBaseRepository)(nil)

func (r *knowledgeBaseRepository) Upsert(ctx context.Context, entry *models.KnowledgeBaseEntry) error {
	if !entry.SourceType.IsValid() {
		return fmt.Errorf("invalid source type %q", entry.SourceType)
	}

	now := time.Now()
	entry.UpdatedAt = now
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
		entry.CreatedAt = now
	}

	metadata, err := encodeMetadata(entry.Metadata)
	if err != nil {
		return err
	}

	// The embedding column is left alone so a refreshed entry keeps its vector
	// until the downstream processor replaces it.
	query := `
		INSERT INTO user_knowledge_base (
			id, user_id, content, source_type, source_url, metadata, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT ON CONSTRAINT user_knowledge_base_source_key
		DO UPDATE SET
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`

	err = r.db.QueryRow(ctx, query,
		entry.ID, entry.UserID, entry.Content, string(entry.SourceType), entry.SourceURL, metadata,
		entry.CreatedAt, entry.UpdatedAt,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert knowledge base entry: %w", err)
	}

	return nil
}

func (r *knowledgeBaseRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.KnowledgeBaseEntry, error) {
	query := `
		SELECT id, user_id, content, source_type, source_url, metadata, created_at, updated_at
		FROM user_knowledge_base
		WHERE user_id = $1
		ORDER BY source_type, source_url`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list knowledge base entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.KnowledgeBaseEntry, 0)
	for rows.Next() {
		e, err := scanKnowledgeBaseEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating knowledge base entries: %w", err)
	}

	return entries, nil
}

func (r *knowledgeBaseRepository) GetBySource(ctx context.Context, userID uuid.UUID, sourceType models.SourceType, sourceURL string) (*models.KnowledgeBaseEntry, error) {
	query := `
		SELECT id, user_id, content, source_type, source_url, metadata, created_at, updated_at
		FROM user_knowledge_base
		WHERE user_id = $1 AND source_type = $2 AND source_url = $3`

	entry, err := scanKnowledgeBaseEntry(r.db.QueryRow(ctx, query, userID, string(sourceType), sourceURL))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return entry, nil
}

func (r *knowledgeBaseRepository) DeleteByUserAndSourceType(ctx context.Context, userID uuid.UUID, sourceType models.SourceType) (int64, error) {
	query := `DELETE FROM user_knowledge_base WHERE user_id = $1 AND source_type = $2`

	result, err := r.db.Exec(ctx, query, userID, string(sourceType))
	if err != nil {
		return 0, fmt.Errorf("failed to delete knowledge base entries: %w", err)
	}

	return result.RowsAffected(), nil
}

func encodeMetadata(metadata map[string]any) ([]byte, error) {
	if metadata == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return b, nil
}

func scanKnowledgeBaseEntry(row pgx.Row) (*models.KnowledgeBaseEntry, error) {
	var e models.KnowledgeBaseEntry
	var sourceType string
	var metadata []byte

	err := row.Scan(
		&e.ID, &e.UserID, &e.Content, &sourceType, &e.SourceURL, &metadata,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan knowledge base entry: %w", err)
	}

	e.SourceType = models.SourceType(sourceType)
	e.Metadata = make(map[string]any)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &e, nil
}
