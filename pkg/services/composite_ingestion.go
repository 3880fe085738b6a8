package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-ingest/pkg/logging"
	"github.com/ekaya-inc/ekaya-ingest/pkg/models"
)

// DefaultSourceTimeout bounds one branch of IngestAll when none is configured.
const DefaultSourceTimeout = 2 * time.Minute

// IngestAllRequest selects the sources for one composite run. LeetCode runs
// only with a non-blank handle and résumé only with both content and a filename.
type IngestAllRequest struct {
	UserID           uuid.UUID
	LeetCodeUsername string
	Resume           *ResumeUpload
}

// CompositeIngestionService runs several per-source ingestions for one user.
type CompositeIngestionService interface {
	// IngestAll never fails as a whole: every branch failure, returned error
	// or panic is folded into that branch's outcome.
	IngestAll(ctx context.Context, req IngestAllRequest) *models.CompositeOutcome
}

type compositeIngestionService struct {
	github        GitHubIngestionService
	leetcode      LeetCodeIngestionService
	resume        ResumeIngestionService
	sourceTimeout time.Duration
	parallel      bool
	logger        *zap.Logger
}

// NewCompositeIngestionService creates the IngestAll coordinator. With parallel
// set, branches run concurrently; the folded result is identical either way.
func NewCompositeIngestionService(
	github GitHubIngestionService,
	leetcode LeetCodeIngestionService,
	resume ResumeIngestionService,
	sourceTimeout time.Duration,
	parallel bool,
	logger *zap.Logger,
) CompositeIngestionService {
	if sourceTimeout <= 0 {
		sourceTimeout = DefaultSourceTimeout
	}
	return &compositeIngestionService{
		github:        github,
		leetcode:      leetcode,
		resume:        resume,
		sourceTimeout: sourceTimeout,
		parallel:      parallel,
		logger:        logger.Named("composite-ingestion"),
	}
}

var _ CompositeIngestionService = (*compositeIngestionService)(nil)

func (s *compositeIngestionService) IngestAll(ctx context.Context, req IngestAllRequest) *models.CompositeOutcome {
	s.logger.Info("Starting full ingestion", zap.String("user_id", req.UserID.String()))

	var (
		gh *models.GitHubOutcome
		lc *models.LeetCodeOutcome
		rs *models.ResumeOutcome
	)

	// Each branch writes only its own result slot.
	branches := []func(){
		func() {
			gh = runBranch(ctx, s, "GitHub", func(m string) *models.GitHubOutcome { return gitHubFailure(m) },
				func(ctx context.Context) (*models.GitHubOutcome, error) {
					return s.github.IngestGitHub(ctx, req.UserID)
				})
		},
	}
	if handle := strings.TrimSpace(req.LeetCodeUsername); handle != "" {
		branches = append(branches, func() {
			lc = runBranch(ctx, s, "LeetCode", leetCodeFailure,
				func(ctx context.Context) (*models.LeetCodeOutcome, error) {
					return s.leetcode.IngestLeetCode(ctx, req.UserID, handle)
				})
		})
	}
	if up := req.Resume; up != nil && len(up.Content) > 0 && up.Filename != "" {
		branches = append(branches, func() {
			rs = runBranch(ctx, s, "Resume", func(m string) *models.ResumeOutcome { return &models.ResumeOutcome{Message: m} },
				func(ctx context.Context) (*models.ResumeOutcome, error) {
					return s.resume.IngestResume(ctx, req.UserID, *up)
				})
		})
	}

	if s.parallel {
		var wg sync.WaitGroup
		for _, run := range branches {
			wg.Add(1)
			go func(run func()) {
				defer wg.Done()
				run()
			}(run)
		}
		wg.Wait()
	} else {
		for _, run := range branches {
			run()
		}
	}

	out := models.NewCompositeOutcome(gh, lc, rs)
	s.logger.Info("Full ingestion completed",
		zap.String("user_id", req.UserID.String()),
		zap.Bool("success", out.Success),
		zap.Int("branches", len(branches)))
	return out
}

// runBranch runs one source under its own deadline and converts a returned
// error, a nil outcome or a panic into a failure outcome built by fail.
func runBranch[T models.Outcome](
	ctx context.Context,
	s *compositeIngestionService,
	label string,
	fail func(message string) T,
	run func(ctx context.Context) (T, error),
) (out T) {
	ctx, cancel := context.WithTimeout(ctx, s.sourceTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Ingestion branch panicked",
				zap.String("source", label),
				zap.Any("panic", r))
			out = fail(fmt.Sprintf("Error: %v", r))
		}
	}()

	res, err := run(ctx)
	if err != nil {
		s.logger.Error("Ingestion branch failed",
			zap.String("source", label),
			zap.String("error", logging.SanitizeError(err)),
			errorKind(err))
		return fail("Error: " + logging.SanitizeError(err))
	}
	if isNilOutcome(res) {
		return fail("Error: no result")
	}
	return res
}

func isNilOutcome(o models.Outcome) bool {
	switch v := o.(type) {
	case nil:
		return true
	case *models.GitHubOutcome:
		return v == nil
	case *models.LeetCodeOutcome:
		return v == nil
	case *models.ResumeOutcome:
		return v == nil
	case *models.LinkedInOutcome:
		return v == nil
	}
	return false
}
