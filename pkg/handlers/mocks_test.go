package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/ekaya-inc/ekaya-ingest/pkg/models"
	"github.com/ekaya-inc/ekaya-ingest/pkg/services"
)

type mockGitHubService struct {
	out        *models.GitHubOutcome
	err        error
	panicWith  any
	capturedID uuid.UUID
}

func (m *mockGitHubService) IngestGitHub(ctx context.Context, userID uuid.UUID) (*models.GitHubOutcome, error) {
	m.capturedID = userID
	if m.panicWith != nil {
		panic(m.panicWith)
	}
	return m.out, m.err
}

type mockLeetCodeService struct {
	out              *models.LeetCodeOutcome
	err              error
	capturedUsername string
}

func (m *mockLeetCodeService) IngestLeetCode(ctx context.Context, userID uuid.UUID, username string) (*models.LeetCodeOutcome, error) {
	m.capturedUsername = username
	return m.out, m.err
}

type mockResumeService struct {
	out            *models.ResumeOutcome
	err            error
	capturedUpload services.ResumeUpload
	calls          int
}

func (m *mockResumeService) IngestResume(ctx context.Context, userID uuid.UUID, upload services.ResumeUpload) (*models.ResumeOutcome, error) {
	m.calls++
	m.capturedUpload = upload
	return m.out, m.err
}

type mockLinkedInService struct {
	out         *models.LinkedInOutcome
	err         error
	capturedJob string
}

func (m *mockLinkedInService) IngestLinkedInJob(ctx context.Context, userID uuid.UUID, jobID string) (*models.LinkedInOutcome, error) {
	m.capturedJob = jobID
	return m.out, m.err
}

type mockCompositeService struct {
	out         *models.CompositeOutcome
	capturedReq services.IngestAllRequest
}

func (m *mockCompositeService) IngestAll(ctx context.Context, req services.IngestAllRequest) *models.CompositeOutcome {
	m.capturedReq = req
	return m.out
}
