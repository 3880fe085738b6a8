package models

import (
	"time"

	"github.com/google/uuid"
)

// LinkedInJob is a scraped public job posting, cached globally by job id
// in linkedin_jobs so a repeat ingestion skips the scrape.
type LinkedInJob struct {
	ID         uuid.UUID `json:"id"`
	JobID      string    `json:"job_id"`
	RawContent string    `json:"raw_content"` // Markdown
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
