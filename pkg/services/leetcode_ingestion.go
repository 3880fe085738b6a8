package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-ingest/pkg/logging"
	"github.com/ekaya-inc/ekaya-ingest/pkg/metrics"
	"github.com/ekaya-inc/ekaya-ingest/pkg/models"
	"github.com/ekaya-inc/ekaya-ingest/pkg/processing"
	"github.com/ekaya-inc/ekaya-ingest/pkg/repositories"
	"github.com/ekaya-inc/ekaya-ingest/pkg/sources/leetcode"
)

const (
	// LeetCodeProfileURL prefixes the handle to form the entry's source URL.
	LeetCodeProfileURL = "https://leetcode.com/u/"
	topLanguagesShown  = 5
	recentShown        = 10
)

// LeetCodeIngestionService ingests a LeetCode profile.
type LeetCodeIngestionService interface {
	// IngestLeetCode uses the supplied handle, or the user's stored handle
	// when none is supplied.
	IngestLeetCode(ctx context.Context, userID uuid.UUID, username string) (*models.LeetCodeOutcome, error)
}

type leetCodeIngestionService struct {
	users    repositories.UserRepository
	userInfo repositories.UserInfoRepository
	kb       KnowledgeBaseService
	client   leetcode.Client
	trigger  processing.Trigger
	logger   *zap.Logger
}

// NewLeetCodeIngestionService creates a new LeetCode ingestion coordinator.
func NewLeetCodeIngestionService(
	users repositories.UserRepository,
	userInfo repositories.UserInfoRepository,
	kb KnowledgeBaseService,
	client leetcode.Client,
	trigger processing.Trigger,
	logger *zap.Logger,
) LeetCodeIngestionService {
	return &leetCodeIngestionService{
		users:    users,
		userInfo: userInfo,
		kb:       kb,
		client:   client,
		trigger:  trigger,
		logger:   logger.Named("leetcode-ingestion"),
	}
}

var _ LeetCodeIngestionService = (*leetCodeIngestionService)(nil)

func (s *leetCodeIngestionService) IngestLeetCode(ctx context.Context, userID uuid.UUID, username string) (out *models.LeetCodeOutcome, err error) {
	started := time.Now()
	defer func() {
		metrics.ObserveRun(string(models.SourceLeetCode), metrics.RunStatus(out != nil && out.Success, err), started)
	}()

	s.logger.Info("Starting LeetCode ingestion",
		zap.String("user_id", userID.String()),
		zap.String("leetcode_username", username))

	user, err := resolveUser(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return leetCodeFailure(UserNotFoundMessage(userID)), nil
	}

	handle := strings.TrimSpace(username)
	if handle == "" && user.LeetCodeUsername != nil {
		handle = strings.TrimSpace(*user.LeetCodeUsername)
	}
	if handle == "" {
		return leetCodeFailure(msgLeetCodeNoHandle), nil
	}

	snap, err := s.client.Fetch(ctx, handle)
	if err != nil {
		s.logger.Warn("LeetCode profile fetch failed",
			zap.String("leetcode_username", handle),
			zap.String("error", logging.SanitizeError(err)),
			errorKind(err))
		return leetCodeFailure(upstreamMessage("LeetCode", err)), nil
	}
	if snap.Profile == nil {
		s.logger.Warn("No LeetCode profile found", zap.String("leetcode_username", handle))
		return leetCodeFailure(msgLeetCodeNotFound + handle), nil
	}
	for call, reason := range snap.Failures {
		s.logger.Warn("LeetCode query degraded",
			zap.String("leetcode_username", handle),
			zap.String("call", call),
			zap.String("reason", reason))
	}

	stats := BuildLeetCodeStats(snap)

	entry, err := s.kb.Upsert(ctx, userID, models.SourceLeetCode, LeetCodeProfileURL+handle, BuildLeetCodeContent(stats), map[string]any{
		"username":      handle,
		"totalSolved":   stats.TotalSolved,
		"contestRating": stats.ContestRating,
		"ranking":       stats.Ranking,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store LeetCode profile: %w", err)
	}

	if err := s.userInfo.UpsertLeetCodeStats(ctx, userID, stats); err != nil {
		return nil, fmt.Errorf("failed to store LeetCode stats: %w", err)
	}

	triggerProcessing(ctx, s.trigger, s.logger, userID, models.SourceLeetCode, []*models.KnowledgeBaseEntry{entry})

	s.logger.Info("LeetCode ingestion completed",
		zap.String("user_id", userID.String()),
		zap.Int("problems_solved", stats.TotalSolved))

	return &models.LeetCodeOutcome{
		Success:        true,
		Message:        MsgLeetCodeSuccess,
		ProblemsSolved: stats.TotalSolved,
	}, nil
}

func leetCodeFailure(message string) *models.LeetCodeOutcome {
	return &models.LeetCodeOutcome{Success: false, Message: message}
}

// BuildLeetCodeStats converts a snapshot with a profile into the leetcode_stats blob.
// Missing contest data leaves the contest fields zero.
func BuildLeetCodeStats(snap *leetcode.Snapshot) *models.LeetCodeStats {
	p := snap.Profile
	stats := &models.LeetCodeStats{
		Username:          p.Username,
		Ranking:           p.Ranking,
		Reputation:        p.Reputation,
		StarRating:        p.StarRating,
		AboutMe:           p.AboutMe,
		TotalSolved:       p.TotalSolved,
		EasySolved:        p.Easy,
		MediumSolved:      p.Medium,
		HardSolved:        p.Hard,
		LanguageStats:     make(map[string]int, len(snap.Languages)),
		Badges:            make([]string, 0, len(p.Badges)),
		ActiveBadge:       p.ActiveBadge,
		RecentSubmissions: make([]models.RecentSubmission, 0, len(snap.Submissions)),
	}
	stats.Badges = append(stats.Badges, p.Badges...)
	for lang, n := range snap.Languages {
		stats.LanguageStats[lang] = n
	}
	if c := snap.Contest; c != nil {
		stats.ContestsAttended = c.AttendedContests
		stats.ContestRating = c.Rating
		stats.GlobalRanking = c.GlobalRanking
		stats.TopPercentage = c.TopPercentage
	}
	for _, sub := range snap.Submissions {
		stats.RecentSubmissions = append(stats.RecentSubmissions, models.RecentSubmission{
			Title:     sub.Title,
			TitleSlug: sub.TitleSlug,
			Language:  sub.Language,
			Timestamp: sub.Timestamp,
		})
	}
	return stats
}

type languageCount struct {
	name  string
	count int
}

// topLanguages orders languages by solve count, then name.
func topLanguages(stats map[string]int, limit int) []languageCount {
	langs := make([]languageCount, 0, len(stats))
	for name, n := range stats {
		langs = append(langs, languageCount{name, n})
	}
	sort.Slice(langs, func(i, j int) bool {
		if langs[i].count != langs[j].count {
			return langs[i].count > langs[j].count
		}
		return langs[i].name < langs[j].name
	})
	if len(langs) > limit {
		langs = langs[:limit]
	}
	return langs
}

// BuildLeetCodeContent renders a LeetCode profile as knowledge-base text.
func BuildLeetCodeContent(stats *models.LeetCodeStats) string {
	var b strings.Builder
	b.WriteString("LeetCode Profile: " + stats.Username + "\n\n")

	b.WriteString("=== Problem Statistics ===\n")
	b.WriteString("Total Problems Solved: " + strconv.Itoa(stats.TotalSolved) + "\n")
	b.WriteString("Easy: " + strconv.Itoa(stats.EasySolved) + "\n")
	b.WriteString("Medium: " + strconv.Itoa(stats.MediumSolved) + "\n")
	b.WriteString("Hard: " + strconv.Itoa(stats.HardSolved) + "\n\n")

	if stats.ContestRating > 0 {
		b.WriteString("=== Contest Statistics ===\n")
		fmt.Fprintf(&b, "Contest Rating: %.0f\n", stats.ContestRating)
		b.WriteString("Contests Attended: " + strconv.Itoa(stats.ContestsAttended) + "\n")
		b.WriteString("Global Ranking: " + strconv.Itoa(stats.GlobalRanking) + "\n")
		fmt.Fprintf(&b, "Top Percentage: %.2f%%\n\n", stats.TopPercentage)
	}

	if len(stats.LanguageStats) > 0 {
		b.WriteString("=== Programming Languages ===\n")
		for _, l := range topLanguages(stats.LanguageStats, topLanguagesShown) {
			fmt.Fprintf(&b, "%s: %d problems\n", l.name, l.count)
		}
		b.WriteString("\n")
	}

	if len(stats.Badges) > 0 {
		b.WriteString("=== Badges ===\n")
		b.WriteString(strings.Join(stats.Badges, ", ") + "\n\n")
	}

	if len(stats.RecentSubmissions) > 0 {
		b.WriteString("=== Recent Submissions ===\n")
		for i, sub := range stats.RecentSubmissions {
			if i == recentShown {
				break
			}
			b.WriteString("- " + sub.Title + " (" + sub.Language + ")\n")
		}
	}

	return b.String()
}
