package models

import (
	"time"

	"github.com/google/uuid"
)

// SourceType identifies where a knowledge base entry came from.
type SourceType string

const (
	SourceGitHub   SourceType = "github"
	SourceLeetCode SourceType = "leetcode"
	SourceResume   SourceType = "resume"
	SourceLinkedIn SourceType = "linkedin"
)

// ValidSourceTypes contains all valid source type values.
var ValidSourceTypes = []SourceType{SourceGitHub, SourceLeetCode, SourceResume, SourceLinkedIn}

// IsValid reports whether s is one of the known source types.
func (s SourceType) IsValid() bool {
	for _, v := range ValidSourceTypes {
		if v == s {
			return true
		}
	}
	return false
}

// KnowledgeBaseEntry is one normalized unit of ingested content.
// Stored in user_knowledge_base; (UserID, SourceType, SourceURL) is unique.
// The embedding column belongs to the downstream processor and is not mapped here.
type KnowledgeBaseEntry struct {
	ID         uuid.UUID      `json:"id"`
	UserID     uuid.UUID      `json:"user_id"`
	Content    string         `json:"content"`
	SourceType SourceType     `json:"source_type"`
	SourceURL  string         `json:"source_url"` // Repo URL, profile URL, job URL or resume://<user>/<hash>
	Metadata   map[string]any `json:"metadata"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
