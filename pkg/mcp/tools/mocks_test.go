package tools

import (
	"context"

	"github.com/google/uuid"

	"github.com/ekaya-inc/ekaya-ingest/pkg/models"
	"github.com/ekaya-inc/ekaya-ingest/pkg/services"
)

type mockGitHubService struct {
	out *models.GitHubOutcome
	err error
}

func (m *mockGitHubService) IngestGitHub(ctx context.Context, userID uuid.UUID) (*models.GitHubOutcome, error) {
	return m.out, m.err
}

type mockLeetCodeService struct {
	out              *models.LeetCodeOutcome
	capturedUsername string
}

func (m *mockLeetCodeService) IngestLeetCode(ctx context.Context, userID uuid.UUID, username string) (*models.LeetCodeOutcome, error) {
	m.capturedUsername = username
	return m.out, nil
}

type mockResumeService struct {
	out            *models.ResumeOutcome
	capturedUpload services.ResumeUpload
}

func (m *mockResumeService) IngestResume(ctx context.Context, userID uuid.UUID, upload services.ResumeUpload) (*models.ResumeOutcome, error) {
	m.capturedUpload = upload
	return m.out, nil
}

type mockLinkedInService struct {
	out         *models.LinkedInOutcome
	capturedJob string
}

func (m *mockLinkedInService) IngestLinkedInJob(ctx context.Context, userID uuid.UUID, jobID string) (*models.LinkedInOutcome, error) {
	m.capturedJob = jobID
	return m.out, nil
}
