package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/ekaya-ingest/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-ingest/pkg/database"
	"github.com/ekaya-inc/ekaya-ingest/pkg/models"
)

// UserRepository reads identity records. Users are owned by another service,
// so ingestion never writes them.
type UserRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

type userRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *database.DB) UserRepository {
	return &userRepository{db: db}
}

var _ UserRepository = (*userRepository)(nil)

// GetByID returns the user or an error wrapping apperrors.ErrNotFound.
func (r *userRepository) GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	query := `
		SELECT id, email, github_username, github_token, leetcode_username, created_at, updated_at
		FROM users
		WHERE id = $1`

	var user models.User
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&user.ID,
		&user.Email,
		&user.GitHubUsername,
		&user.GitHubToken,
		&user.LeetCodeUsername,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", userID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}
