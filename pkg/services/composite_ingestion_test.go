package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ekaya-inc/ekaya-ingest/pkg/apperrors"

	"github.com/ekaya-inc/ekaya-ingest/pkg/models"
)

type stubGitHub struct {
	fn    func(ctx context.Context, userID uuid.UUID) (*models.GitHubOutcome, error)
	calls atomic.Int32
}

func (s *stubGitHub) IngestGitHub(ctx context.Context, userID uuid.UUID) (*models.GitHubOutcome, error) {
	s.calls.Add(1)
	return s.fn(ctx, userID)
}

type stubLeetCode struct {
	fn    func(ctx context.Context, userID uuid.UUID, username string) (*models.LeetCodeOutcome, error)
	calls atomic.Int32
}

func (s *stubLeetCode) IngestLeetCode(ctx context.Context, userID uuid.UUID, username string) (*models.LeetCodeOutcome, error) {
	s.calls.Add(1)
	return s.fn(ctx, userID, username)
}

type stubResume struct {
	fn    func(ctx context.Context, userID uuid.UUID, upload ResumeUpload) (*models.ResumeOutcome, error)
	calls atomic.Int32
}

func (s *stubResume) IngestResume(ctx context.Context, userID uuid.UUID, upload ResumeUpload) (*models.ResumeOutcome, error) {
	s.calls.Add(1)
	return s.fn(ctx, userID, upload)
}

func okGitHub(ctx context.Context, userID uuid.UUID) (*models.GitHubOutcome, error) {
	return &models.GitHubOutcome{Success: true, Message: MsgGitHubSuccess, ReposProcessed: 2, RepoNames: []string{"a", "b"}}, nil
}

func okLeetCode(ctx context.Context, userID uuid.UUID, username string) (*models.LeetCodeOutcome, error) {
	return &models.LeetCodeOutcome{Success: true, Message: MsgLeetCodeSuccess, ProblemsSolved: 7}, nil
}

func okResume(ctx context.Context, userID uuid.UUID, upload ResumeUpload) (*models.ResumeOutcome, error) {
	return &models.ResumeOutcome{Success: true, Message: MsgResumeSuccess, WordCount: 42}, nil
}

type compositeTestContext struct {
	github   *stubGitHub
	leetcode *stubLeetCode
	resume   *stubResume
}

func (tc *compositeTestContext) service(timeout time.Duration, parallel bool) CompositeIngestionService {
	return NewCompositeIngestionService(tc.github, tc.leetcode, tc.resume, timeout, parallel, zap.NewNop())
}

func newCompositeTest() *compositeTestContext {
	return &compositeTestContext{
		github:   &stubGitHub{fn: okGitHub},
		leetcode: &stubLeetCode{fn: okLeetCode},
		resume:   &stubResume{fn: okResume},
	}
}

func fullRequest() IngestAllRequest {
	return IngestAllRequest{
		UserID:           uuid.New(),
		LeetCodeUsername: "coder",
		Resume:           &ResumeUpload{Filename: "cv.pdf", ContentType: "application/pdf", Content: []byte("pdf")},
	}
}

func TestIngestAll_OnlyGitHubWhenNothingElseSupplied(t *testing.T) {
	tc := newCompositeTest()

	out := tc.service(time.Second, true).IngestAll(context.Background(), IngestAllRequest{
		UserID:           uuid.New(),
		LeetCodeUsername: "   ",
		Resume:           &ResumeUpload{Filename: "cv.pdf"},
	})

	assert.True(t, out.Success)
	assert.Equal(t, "GitHub: "+MsgGitHubSuccess, out.Message)
	assert.NotNil(t, out.GitHub)
	assert.Nil(t, out.LeetCode)
	assert.Nil(t, out.Resume)
	assert.EqualValues(t, 0, tc.leetcode.calls.Load())
	assert.EqualValues(t, 0, tc.resume.calls.Load())
}

func TestIngestAll_ResumeNeedsFilename(t *testing.T) {
	tc := newCompositeTest()

	out := tc.service(time.Second, true).IngestAll(context.Background(), IngestAllRequest{
		UserID: uuid.New(),
		Resume: &ResumeUpload{Content: []byte("pdf")},
	})

	assert.Nil(t, out.Resume)
	assert.EqualValues(t, 0, tc.resume.calls.Load())
}

func TestIngestAll_MessageOrderIsFixed(t *testing.T) {
	for _, parallel := range []bool{true, false} {
		tc := newCompositeTest()
		tc.github.fn = func(ctx context.Context, userID uuid.UUID) (*models.GitHubOutcome, error) {
			time.Sleep(30 * time.Millisecond)
			return okGitHub(ctx, userID)
		}

		out := tc.service(time.Second, parallel).IngestAll(context.Background(), fullRequest())

		assert.True(t, out.Success)
		assert.Equal(t,
			"GitHub: "+MsgGitHubSuccess+" | LeetCode: "+MsgLeetCodeSuccess+" | Resume: "+MsgResumeSuccess,
			out.Message, "parallel=%v", parallel)
		assert.Equal(t, 7, out.LeetCode.ProblemsSolved)
		assert.Equal(t, 42, out.Resume.WordCount)
	}
}

func TestIngestAll_ParallelBranchesOverlap(t *testing.T) {
	tc := newCompositeTest()
	var running, peak atomic.Int32
	track := func() {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(40 * time.Millisecond)
		running.Add(-1)
	}
	tc.github.fn = func(ctx context.Context, userID uuid.UUID) (*models.GitHubOutcome, error) {
		track()
		return okGitHub(ctx, userID)
	}
	tc.leetcode.fn = func(ctx context.Context, userID uuid.UUID, username string) (*models.LeetCodeOutcome, error) {
		track()
		return okLeetCode(ctx, userID, username)
	}

	tc.service(time.Second, true).IngestAll(context.Background(), IngestAllRequest{UserID: uuid.New(), LeetCodeUsername: "coder"})

	assert.EqualValues(t, 2, peak.Load())
}

func TestIngestAll_PartialFailure(t *testing.T) {
	tc := newCompositeTest()
	tc.leetcode.fn = func(ctx context.Context, userID uuid.UUID, username string) (*models.LeetCodeOutcome, error) {
		return leetCodeFailure(msgLeetCodeNotFound + username), nil
	}

	out := tc.service(time.Second, true).IngestAll(context.Background(), fullRequest())

	assert.False(t, out.Success)
	assert.Equal(t,
		"GitHub: "+MsgGitHubSuccess+" | LeetCode: LeetCode user not found: coder | Resume: "+MsgResumeSuccess,
		out.Message)
	assert.True(t, out.GitHub.Success)
	assert.Equal(t, []string{"a", "b"}, out.GitHub.RepoNames)
	assert.True(t, out.Resume.Success)
}

func TestIngestAll_BranchErrorBecomesOutcome(t *testing.T) {
	tc := newCompositeTest()
	tc.resume.fn = func(ctx context.Context, userID uuid.UUID, upload ResumeUpload) (*models.ResumeOutcome, error) {
		return nil, errors.New("failed to store resume: password=hunter2 refused")
	}

	out := tc.service(time.Second, false).IngestAll(context.Background(), fullRequest())

	require.NotNil(t, out.Resume)
	assert.False(t, out.Resume.Success)
	assert.Contains(t, out.Resume.Message, "Error: failed to store resume")
	assert.NotContains(t, out.Message, "hunter2")
	assert.False(t, out.Success)
}

func TestIngestAll_BranchErrorLoggedWithKind(t *testing.T) {
	tc := newCompositeTest()
	tc.github.fn = func(ctx context.Context, userID uuid.UUID) (*models.GitHubOutcome, error) {
		return nil, fmt.Errorf("github: %w", apperrors.ErrUpstreamUnavailable)
	}
	core, logs := observer.New(zap.ErrorLevel)
	svc := NewCompositeIngestionService(tc.github, tc.leetcode, tc.resume, time.Second, false, zap.New(core))

	out := svc.IngestAll(context.Background(), fullRequest())

	assert.False(t, out.GitHub.Success)
	entries := logs.FilterMessage("Ingestion branch failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GitHub", fields["source"])
	assert.Equal(t, string(apperrors.KindUpstreamUnavailable), fields["error_kind"])
}

func TestIngestAll_PanicBecomesOutcome(t *testing.T) {
	tc := newCompositeTest()
	tc.github.fn = func(ctx context.Context, userID uuid.UUID) (*models.GitHubOutcome, error) {
		panic("boom")
	}

	out := tc.service(time.Second, true).IngestAll(context.Background(), fullRequest())

	require.NotNil(t, out.GitHub)
	assert.False(t, out.GitHub.Success)
	assert.Equal(t, "Error: boom", out.GitHub.Message)
	assert.NotNil(t, out.GitHub.RepoNames)
	assert.True(t, out.LeetCode.Success)
	assert.True(t, out.Resume.Success)
}

func TestIngestAll_NilOutcomeBecomesFailure(t *testing.T) {
	tc := newCompositeTest()
	tc.leetcode.fn = func(ctx context.Context, userID uuid.UUID, username string) (*models.LeetCodeOutcome, error) {
		return nil, nil
	}

	out := tc.service(time.Second, true).IngestAll(context.Background(), fullRequest())

	assert.Equal(t, "Error: no result", out.LeetCode.Message)
}

func TestIngestAll_SourceTimeoutIsPerBranch(t *testing.T) {
	tc := newCompositeTest()
	tc.github.fn = func(ctx context.Context, userID uuid.UUID) (*models.GitHubOutcome, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	started := time.Now()
	out := tc.service(50*time.Millisecond, true).IngestAll(context.Background(), fullRequest())

	assert.Less(t, time.Since(started), time.Second)
	assert.Equal(t, "Error: context deadline exceeded", out.GitHub.Message)
	assert.True(t, out.LeetCode.Success)
}

func TestNewCompositeIngestionService_DefaultTimeout(t *testing.T) {
	tc := newCompositeTest()

	s := tc.service(0, true).(*compositeIngestionService)

	assert.Equal(t, DefaultSourceTimeout, s.sourceTimeout)
}
