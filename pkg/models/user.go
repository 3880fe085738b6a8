package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the identity record owned by the user-management service.
// Ingestion reads it to find source handles and credentials and never writes it.
type User struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	GitHubUsername   *string   `json:"github_username,omitempty"`
	GitHubToken      *string   `json:"-"` // Credential - never serialized
	LeetCodeUsername *string   `json:"leetcode_username,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// GitHubLogin returns the GitHub handle or "" when none is linked.
func (u *User) GitHubLogin() string {
	if u.GitHubUsername == nil {
		return ""
	}
	return *u.GitHubUsername
}

// GitHubCredential returns the GitHub bearer token or "" when none is stored.
func (u *User) GitHubCredential() string {
	if u.GitHubToken == nil {
		return ""
	}
	return *u.GitHubToken
}
