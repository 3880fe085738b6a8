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
	"github.com/ekaya-inc/ekaya-ingest/pkg/sources/github"
)

// UnknownLanguage buckets repositories without a detected primary language.
const UnknownLanguage = "Unknown"

// GitHubIngestionService ingests a user's pinned repositories.
type GitHubIngestionService interface {
	// IngestGitHub returns a failure outcome for domain failures (unknown user,
	// no pinned-item data, upstream outage) and an error only for store faults.
	IngestGitHub(ctx context.Context, userID uuid.UUID) (*models.GitHubOutcome, error)
}

type gitHubIngestionService struct {
	users             repositories.UserRepository
	userInfo          repositories.UserInfoRepository
	kb                KnowledgeBaseService
	client            github.Client
	trigger           processing.Trigger
	readmeConcurrency int
	logger            *zap.Logger
}

// NewGitHubIngestionService creates a new GitHub ingestion coordinator.
func NewGitHubIngestionService(
	users repositories.UserRepository,
	userInfo repositories.UserInfoRepository,
	kb KnowledgeBaseService,
	client github.Client,
	trigger processing.Trigger,
	readmeConcurrency int,
	logger *zap.Logger,
) GitHubIngestionService {
	return &gitHubIngestionService{
		users:             users,
		userInfo:          userInfo,
		kb:                kb,
		client:            client,
		trigger:           trigger,
		readmeConcurrency: readmeConcurrency,
		logger:            logger.Named("github-ingestion"),
	}
}

var _ GitHubIngestionService = (*gitHubIngestionService)(nil)

func (s *gitHubIngestionService) IngestGitHub(ctx context.Context, userID uuid.UUID) (out *models.GitHubOutcome, err error) {
	started := time.Now()
	defer func() {
		metrics.ObserveRun(string(models.SourceGitHub), metrics.RunStatus(out != nil && out.Success, err), started)
	}()

	s.logger.Info("Starting GitHub ingestion", zap.String("user_id", userID.String()))

	user, err := resolveUser(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return gitHubFailure(UserNotFoundMessage(userID)), nil
	}

	login := strings.TrimSpace(user.GitHubLogin())
	if login == "" {
		return gitHubFailure(msgNoGitHubLogin + userID.String()), nil
	}
	token := user.GitHubCredential()

	repos, found, err := s.client.FetchPinnedRepositories(ctx, login, token)
	if err != nil {
		s.logger.Warn("GitHub fetch failed",
			zap.String("user_id", userID.String()),
			zap.String("login", login),
			zap.String("error", logging.SanitizeError(err)),
			errorKind(err))
		return gitHubFailure(upstreamMessage("GitHub", err)), nil
	}
	if !found {
		s.logger.Warn("No GitHub data found", zap.String("login", login))
		return gitHubFailure(MsgNoGitHubData), nil
	}
	s.logger.Info("Found pinned repositories", zap.String("login", login), zap.Int("count", len(repos)))

	if err := github.FetchReadmes(ctx, s.client, repos, token, s.readmeConcurrency); err != nil {
		s.logger.Warn("README fan-out failed", zap.String("login", login), zap.Error(err))
	}

	entries := make([]*models.KnowledgeBaseEntry, 0, len(repos))
	names := make([]string, 0, len(repos))
	for _, repo := range repos {
		entry, err := s.kb.Upsert(ctx, userID, models.SourceGitHub, repo.URL, BuildRepoContent(repo), repoMetadata(repo))
		if err != nil {
			return nil, fmt.Errorf("failed to store repository %s: %w", repo.Name, err)
		}
		entries = append(entries, entry)
		names = append(names, repo.Name)
	}

	stats := BuildGitHubStats(repos, time.Now().UTC())
	if err := s.userInfo.UpsertGitHubStats(ctx, userID, stats); err != nil {
		return nil, fmt.Errorf("failed to store GitHub stats: %w", err)
	}

	triggerProcessing(ctx, s.trigger, s.logger, userID, models.SourceGitHub, entries)

	s.logger.Info("GitHub ingestion completed",
		zap.String("user_id", userID.String()),
		zap.Int("repos_processed", len(repos)))

	return &models.GitHubOutcome{
		Success:        true,
		Message:        MsgGitHubSuccess,
		ReposProcessed: len(repos),
		RepoNames:      names,
	}, nil
}

func gitHubFailure(message string) *models.GitHubOutcome {
	return &models.GitHubOutcome{Success: false, Message: message, RepoNames: []string{}}
}

func languageOrUnknown(repo github.Repository) string {
	if repo.PrimaryLanguage == "" {
		return UnknownLanguage
	}
	return repo.PrimaryLanguage
}

// BuildGitHubStats aggregates pinned repositories into the github_stats blob.
// The language histogram counts repositories by primary language and
// TopTopics is the sorted union of every repository's topics.
func BuildGitHubStats(repos []github.Repository, syncedAt time.Time) *models.GitHubStats {
	stats := &models.GitHubStats{
		TotalPinnedRepos:     len(repos),
		PinnedRepos:          make([]models.PinnedRepoStat, 0, len(repos)),
		LanguageDistribution: make(map[string]int),
		TopTopics:            make([]string, 0),
		LastSynced:           syncedAt,
	}

	topics := make(map[string]struct{})
	for _, repo := range repos {
		lang := languageOrUnknown(repo)
		stats.TotalStars += repo.Stars
		stats.TotalForks += repo.Forks
		stats.LanguageDistribution[lang]++
		for _, t := range repo.Topics {
			topics[t] = struct{}{}
		}
		stats.PinnedRepos = append(stats.PinnedRepos, models.PinnedRepoStat{
			Name:            repo.Name,
			URL:             repo.URL,
			Stars:           repo.Stars,
			Forks:           repo.Forks,
			PrimaryLanguage: lang,
		})
	}

	for t := range topics {
		stats.TopTopics = append(stats.TopTopics, t)
	}
	sort.Strings(stats.TopTopics)

	return stats
}

// BuildRepoContent renders one repository as knowledge-base text.
func BuildRepoContent(repo github.Repository) string {
	var b strings.Builder
	b.WriteString("Repository: " + repo.Name + "\n")
	b.WriteString("URL: " + repo.URL + "\n")
	if strings.TrimSpace(repo.Description) != "" {
		b.WriteString("Description: " + repo.Description + "\n")
	}
	if repo.PrimaryLanguage != "" {
		b.WriteString("Primary Language: " + repo.PrimaryLanguage + "\n")
	}
	if len(repo.Topics) > 0 {
		b.WriteString("Topics: " + strings.Join(repo.Topics, ", ") + "\n")
	}
	b.WriteString("Stars: " + strconv.Itoa(repo.Stars) + "\n")
	b.WriteString("Forks: " + strconv.Itoa(repo.Forks) + "\n")
	if strings.TrimSpace(repo.Readme) != "" {
		b.WriteString("\n--- README ---\n" + repo.Readme)
	}
	return b.String()
}

func repoMetadata(repo github.Repository) map[string]any {
	topics := repo.Topics
	if topics == nil {
		topics = []string{}
	}
	return map[string]any{
		"repoName":        repo.Name,
		"repoUrl":         repo.URL,
		"primaryLanguage": languageOrUnknown(repo),
		"stars":           repo.Stars,
		"forks":           repo.Forks,
		"topics":          topics,
	}
}
