// Package leetcode fetches a public LeetCode profile through its GraphQL API.
package leetcode

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-ingest/pkg/logging"
	"github.com/ekaya-inc/ekaya-ingest/pkg/metrics"
	"github.com/ekaya-inc/ekaya-ingest/pkg/sources"
)

// RecentSubmissionsLimit is the number of accepted submissions requested.
const RecentSubmissionsLimit = 20

// Call names used in Snapshot.Failures and metrics labels.
const (
	CallProfile     = "profile"
	CallSubmissions = "recent_submissions"
	CallContest     = "contest_ranking"
	CallLanguages   = "language_stats"
)

// DefaultReferer is sent on every request; the API rejects requests without one.
const DefaultReferer = "https://leetcode.com"

// Profile is the matchedUser part of the profile query.
type Profile struct {
	Username    string   `json:"username"`
	RealName    string   `json:"realName,omitempty"`
	AboutMe     string   `json:"aboutMe,omitempty"`
	Ranking     int      `json:"ranking"`
	Reputation  int      `json:"reputation"`
	StarRating  float64  `json:"starRating"`
	TotalSolved int      `json:"totalSolved"`
	Easy        int      `json:"easy"`
	Medium      int      `json:"medium"`
	Hard        int      `json:"hard"`
	Badges      []string `json:"badges"`
	ActiveBadge string   `json:"activeBadge,omitempty"`
}

// Submission is one recently accepted submission.
type Submission struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	TitleSlug string    `json:"titleSlug"`
	Language  string    `json:"lang"`
	Timestamp time.Time `json:"timestamp"`
}

// ContestRanking summarizes contest participation.
type ContestRanking struct {
	AttendedContests int     `json:"attendedContests"`
	Rating           float64 `json:"rating"`
	GlobalRanking    int     `json:"globalRanking"`
	TopPercentage    float64 `json:"topPercentage"`
}

// Snapshot is the combined result of the four queries. Profile is nil when
// the handle does not exist. Each other part is empty when its query failed
// or returned nothing; Failures records which calls failed and why.
type Snapshot struct {
	Profile     *Profile          `json:"profile"`
	Submissions []Submission      `json:"submissions"`
	Contest     *ContestRanking   `json:"contest,omitempty"`
	Languages   map[string]int    `json:"languages"`
	Failures    map[string]string `json:"-"`
}

// Complete reports whether every query succeeded.
func (s *Snapshot) Complete() bool {
	return len(s.Failures) == 0
}

// Client fetches LeetCode data for a handle.
type Client interface {
	// Fetch runs the four independent queries. It returns an error only when
	// the profile query itself failed; the other three degrade to empty parts.
	Fetch(ctx context.Context, username string) (*Snapshot, error)
}

type client struct {
	graphql *sources.GraphQLClient
	logger  *zap.Logger
}

// NewClient creates a LeetCode client for the GraphQL endpoint.
func NewClient(endpoint string, httpClient *http.Client, timeout time.Duration, logger *zap.Logger) Client {
	headers := http.Header{}
	headers.Set("Referer", DefaultReferer)
	return &client{
		graphql: sources.NewGraphQLClient(endpoint, httpClient, timeout, headers),
		logger:  logger.Named("leetcode-client"),
	}
}

var _ Client = (*client)(nil)

func (c *client) Fetch(ctx context.Context, username string) (*Snapshot, error) {
	snap := &Snapshot{
		Submissions: make([]Submission, 0),
		Languages:   make(map[string]int),
		Failures:    make(map[string]string),
	}

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		profileErr error
	)
	record := func(call string, err error) {
		metrics.SourceFetchFailures.WithLabelValues("leetcode", call).Inc()
		c.logger.Warn("LeetCode query failed",
			zap.String("username", username),
			zap.String("call", call),
			zap.String("error", logging.SanitizeError(err)))
		mu.Lock()
		snap.Failures[call] = err.Error()
		mu.Unlock()
	}

	wg.Add(4)
	go func() {
		defer wg.Done()
		p, err := c.fetchProfile(ctx, username)
		if err != nil {
			record(CallProfile, err)
			profileErr = err
			return
		}
		snap.Profile = p
	}()
	go func() {
		defer wg.Done()
		subs, err := c.fetchRecentSubmissions(ctx, username, RecentSubmissionsLimit)
		if err != nil {
			record(CallSubmissions, err)
			return
		}
		snap.Submissions = subs
	}()
	go func() {
		defer wg.Done()
		cr, err := c.fetchContestRanking(ctx, username)
		if err != nil {
			record(CallContest, err)
			return
		}
		snap.Contest = cr
	}()
	go func() {
		defer wg.Done()
		langs, err := c.fetchLanguageStats(ctx, username)
		if err != nil {
			record(CallLanguages, err)
			return
		}
		snap.Languages = langs
	}()
	wg.Wait()

	if profileErr != nil {
		return snap, fmt.Errorf("failed to fetch LeetCode profile for %s: %w", username, profileErr)
	}
	return snap, nil
}
