package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ekaya-inc/ekaya-ingest/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-ingest/pkg/models"
	"github.com/ekaya-inc/ekaya-ingest/pkg/processing"
	"github.com/ekaya-inc/ekaya-ingest/pkg/sources/github"
	"github.com/ekaya-inc/ekaya-ingest/pkg/sources/leetcode"
)

// mockUserRepository serves users from a map.
type mockUserRepository struct {
	users  map[uuid.UUID]*models.User
	getErr error
}

func newMockUsers(users ...*models.User) *mockUserRepository {
	m := &mockUserRepository{users: make(map[uuid.UUID]*models.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, ok := m.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, apperrors.ErrNotFound)
	}
	return u, nil
}

// memoryKnowledgeBase is an in-memory KnowledgeBaseRepository keyed by the unique triple.
type memoryKnowledgeBase struct {
	mu        sync.Mutex
	entries   map[string]*models.KnowledgeBaseEntry
	upsertErr error
	upserts   int
}

func newMemoryKnowledgeBase() *memoryKnowledgeBase {
	return &memoryKnowledgeBase{entries: make(map[string]*models.KnowledgeBaseEntry)}
}

func kbKey(userID uuid.UUID, sourceType models.SourceType, sourceURL string) string {
	return userID.String() + "|" + string(sourceType) + "|" + sourceURL
}

func (m *memoryKnowledgeBase) Upsert(ctx context.Context, entry *models.KnowledgeBaseEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserts++
	key := kbKey(entry.UserID, entry.SourceType, entry.SourceURL)
	now := time.Now()
	if existing, ok := m.entries[key]; ok {
		entry.ID = existing.ID
		entry.CreatedAt = existing.CreatedAt
	} else {
		entry.ID = uuid.New()
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	stored := *entry
	m.entries[key] = &stored
	return nil
}

func (m *memoryKnowledgeBase) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.KnowledgeBaseEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.KnowledgeBaseEntry, 0)
	for _, e := range m.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryKnowledgeBase) GetBySource(ctx context.Context, userID uuid.UUID, sourceType models.SourceType, sourceURL string) (*models.KnowledgeBaseEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[kbKey(userID, sourceType, sourceURL)], nil
}

func (m *memoryKnowledgeBase) DeleteByUserAndSourceType(ctx context.Context, userID uuid.UUID, sourceType models.SourceType) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, e := range m.entries {
		if e.UserID == userID && e.SourceType == sourceType {
			delete(m.entries, k)
			n++
		}
	}
	return n, nil
}

func (m *memoryKnowledgeBase) count(sourceType models.SourceType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.SourceType == sourceType {
			n++
		}
	}
	return n
}

// mockUserInfoRepository records the last blob written per source.
type mockUserInfoRepository struct {
	mu        sync.Mutex
	github    *models.GitHubStats
	leetcode  *models.LeetCodeStats
	resume    *models.ResumeSummary
	writes    int
	upsertErr error
}

func (m *mockUserInfoRepository) Get(ctx context.Context, userID uuid.UUID) (*models.AggregateProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &models.AggregateProfile{UserID: userID, GitHubStats: m.github, LeetCodeStats: m.leetcode, ResumeSummary: m.resume}, nil
}

func (m *mockUserInfoRepository) UpsertGitHubStats(ctx context.Context, userID uuid.UUID, stats *models.GitHubStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.writes++
	m.github = stats
	return nil
}

func (m *mockUserInfoRepository) UpsertLeetCodeStats(ctx context.Context, userID uuid.UUID, stats *models.LeetCodeStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.writes++
	m.leetcode = stats
	return nil
}

func (m *mockUserInfoRepository) UpsertResumeSummary(ctx context.Context, userID uuid.UUID, summary *models.ResumeSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.writes++
	m.resume = summary
	return nil
}

// mockLinkedInJobRepository is an in-memory job cache.
type mockLinkedInJobRepository struct {
	jobs map[string]*models.LinkedInJob
}

func (m *mockLinkedInJobRepository) GetByJobID(ctx context.Context, jobID string) (*models.LinkedInJob, error) {
	return m.jobs[jobID], nil
}

func (m *mockLinkedInJobRepository) Upsert(ctx context.Context, job *models.LinkedInJob) error {
	if m.jobs == nil {
		m.jobs = make(map[string]*models.LinkedInJob)
	}
	m.jobs[job.JobID] = job
	return nil
}

// mockGitHubClient returns canned repositories.
type mockGitHubClient struct {
	fetchPinnedFunc func(ctx context.Context, login, token string) ([]github.Repository, bool, error)
	readmes         map[string]string
	capturedLogin   string
	capturedToken   string
}

func (m *mockGitHubClient) FetchPinnedRepositories(ctx context.Context, login, token string) ([]github.Repository, bool, error) {
	m.capturedLogin = login
	m.capturedToken = token
	return m.fetchPinnedFunc(ctx, login, token)
}

func (m *mockGitHubClient) FetchReadme(ctx context.Context, repoURL, token string) string {
	return m.readmes[repoURL]
}

// mockLeetCodeClient returns a canned snapshot.
type mockLeetCodeClient struct {
	fetchFunc func(ctx context.Context, username string) (*leetcode.Snapshot, error)
}

func (m *mockLeetCodeClient) Fetch(ctx context.Context, username string) (*leetcode.Snapshot, error) {
	return m.fetchFunc(ctx, username)
}

// mockLinkedInClient returns canned postings.
type mockLinkedInClient struct {
	fetchFunc func(ctx context.Context, jobID string) (string, bool, error)
	calls     int
}

func (m *mockLinkedInClient) FetchJob(ctx context.Context, jobID string) (string, bool, error) {
	m.calls++
	return m.fetchFunc(ctx, jobID)
}

func (m *mockLinkedInClient) JobURL(jobID string) string {
	return "https://www.linkedin.com/jobs/view/" + jobID
}

// mockTrigger records embedding trigger calls.
type mockTrigger struct {
	mu    sync.Mutex
	calls []triggerCall
	err   error
}

type triggerCall struct {
	userID     uuid.UUID
	sourceType models.SourceType
	ids        []uuid.UUID
}

var _ processing.Trigger = (*mockTrigger)(nil)

func (m *mockTrigger) TriggerEmbeddingGeneration(ctx context.Context, userID uuid.UUID, sourceType models.SourceType, kbIDs []uuid.UUID) (*processing.TriggerResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, triggerCall{userID: userID, sourceType: sourceType, ids: kbIDs})
	if m.err != nil {
		return nil, m.err
	}
	return &processing.TriggerResponse{Success: true, EntriesQueued: len(kbIDs)}, nil
}

// fakeExtractor returns fixed text for any document.
type fakeExtractor struct {
	text string
	err  error
}

func (f fakeExtractor) ExtractText([]byte) (string, error) {
	return f.text, f.err
}

func strPtr(s string) *string { return &s }
