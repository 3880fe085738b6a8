package models

import (
	"time"

	"github.com/google/uuid"
)

// AggregateProfile is the per-user rollup stored in user_info.
// Each source owns one blob and replaces it wholesale; a nil blob means that
// source has never been ingested for the user.
type AggregateProfile struct {
	UserID         uuid.UUID      `json:"user_id"`
	GitHubStats    *GitHubStats   `json:"github_stats,omitempty"`
	LeetCodeStats  *LeetCodeStats `json:"leetcode_stats,omitempty"`
	ResumeSummary  *ResumeSummary `json:"resume_summary,omitempty"`
	LastIngestedAt *time.Time     `json:"last_ingested_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// GitHubStats is the github_stats blob. Keys follow the camelCase shape
// the profile summarizer reads.
type GitHubStats struct {
	TotalStars           int              `json:"totalStars"`
	TotalForks           int              `json:"totalForks"`
	TotalPinnedRepos     int              `json:"totalPinnedRepos"`
	PinnedRepos          []PinnedRepoStat `json:"pinnedRepos"`
	LanguageDistribution map[string]int   `json:"languageDistribution"`
	TopTopics            []string         `json:"topTopics"`
	LastSynced           time.Time        `json:"lastSynced"`
}

// PinnedRepoStat is the per-repository slice of GitHubStats.
type PinnedRepoStat struct {
	Name            string `json:"name"`
	URL             string `json:"url"`
	Stars           int    `json:"stars"`
	Forks           int    `json:"forks"`
	PrimaryLanguage string `json:"primaryLanguage,omitempty"`
}

// LeetCodeStats is the leetcode_stats blob.
type LeetCodeStats struct {
	Username          string             `json:"username"`
	Ranking           int                `json:"ranking"`
	Reputation        int                `json:"reputation"`
	StarRating        float64            `json:"starRating"`
	AboutMe           string             `json:"aboutMe,omitempty"`
	TotalSolved       int                `json:"totalSolved"`
	EasySolved        int                `json:"easySolved"`
	MediumSolved      int                `json:"mediumSolved"`
	HardSolved        int                `json:"hardSolved"`
	ContestsAttended  int                `json:"contestsAttended"`
	ContestRating     float64            `json:"contestRating"`
	GlobalRanking     int                `json:"globalRanking"`
	TopPercentage     float64            `json:"topPercentage"`
	LanguageStats     map[string]int     `json:"languageStats"`
	Badges            []string           `json:"badges"`
	ActiveBadge       string             `json:"activeBadge,omitempty"`
	RecentSubmissions []RecentSubmission `json:"recentSubmissions"`
}

// RecentSubmission is one accepted submission in LeetCodeStats.
type RecentSubmission struct {
	Title     string    `json:"title"`
	TitleSlug string    `json:"titleSlug"`
	Language  string    `json:"language"`
	Timestamp time.Time `json:"timestamp"`
}

// ResumeSummary is the resume_summary blob.
type ResumeSummary struct {
	FileName    string    `json:"fileName"`
	FileHash    string    `json:"fileHash"`
	WordCount   int       `json:"wordCount"`
	ProcessedAt time.Time `json:"processedAt"`
	RawText     string    `json:"rawText"`
	Skills      []string  `json:"skills"`
	Experiences []string  `json:"experiences"`
	Education   []string  `json:"education"`
	Summary     string    `json:"summary,omitempty"`
}
