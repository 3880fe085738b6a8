package main

import (
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-ingest/pkg/cache"
	"github.com/ekaya-inc/ekaya-ingest/pkg/config"
	"github.com/ekaya-inc/ekaya-ingest/pkg/database"
	"github.com/ekaya-inc/ekaya-ingest/pkg/handlers"
	"github.com/ekaya-inc/ekaya-ingest/pkg/mcp/tools"
	"github.com/ekaya-inc/ekaya-ingest/pkg/processing"
	"github.com/ekaya-inc/ekaya-ingest/pkg/repositories"
	"github.com/ekaya-inc/ekaya-ingest/pkg/resume"
	"github.com/ekaya-inc/ekaya-ingest/pkg/services"
	"github.com/ekaya-inc/ekaya-ingest/pkg/sources/github"
	"github.com/ekaya-inc/ekaya-ingest/pkg/sources/leetcode"
	"github.com/ekaya-inc/ekaya-ingest/pkg/sources/linkedin"
)

// leetCodeCachePrefix namespaces cached LeetCode snapshots in Redis.
const leetCodeCachePrefix = "ingest:leetcode"

// buildIngestion wires clients, repositories and coordinators. A nil redis
// client disables the LeetCode response cache.
func buildIngestion(cfg *config.Config, db *database.DB, redisClient *redis.Client, logger *zap.Logger) (*handlers.IngestionHandler, *tools.IngestionToolDeps) {
	httpClient := &http.Client{}
	callTimeout := cfg.Sources.CallTimeout()

	users := repositories.NewUserRepository(db)
	userInfo := repositories.NewUserInfoRepository(db)
	jobs := repositories.NewLinkedInJobRepository(db)
	kb := services.NewKnowledgeBaseService(repositories.NewKnowledgeBaseRepository(db), logger)

	trigger := processing.NewClient(cfg.Processing.BaseURL, cfg.Processing.Timeout(), logger)

	githubClient := github.NewClient(cfg.Sources.GitHubGraphQLURL, cfg.Sources.GitHubRESTURL, httpClient, callTimeout, logger)
	leetCodeClient := leetcode.NewCachedClient(
		leetcode.NewClient(cfg.Sources.LeetCodeURL, httpClient, callTimeout, logger),
		cache.NewRedisCache(redisClient, leetCodeCachePrefix, cfg.Redis.TTL(), logger),
		logger,
	)
	linkedInClient := linkedin.NewClient(cfg.Sources.LinkedInJobsURL, cfg.Sources.LinkedInUserAgent, httpClient, callTimeout, logger)

	githubSvc := services.NewGitHubIngestionService(users, userInfo, kb, githubClient, trigger, cfg.Sources.ReadmeConcurrency, logger)
	leetCodeSvc := services.NewLeetCodeIngestionService(users, userInfo, kb, leetCodeClient, trigger, logger)
	resumeSvc := services.NewResumeIngestionService(users, userInfo, kb, resume.NewProcessor(resume.NewPDFExtractor(), cfg.Resume.WordCap), trigger, logger)
	linkedInSvc := services.NewLinkedInIngestionService(users, jobs, kb, linkedInClient, trigger, logger)
	compositeSvc := services.NewCompositeIngestionService(githubSvc, leetCodeSvc, resumeSvc, cfg.Ingestion.SourceTimeout(), cfg.Ingestion.ParallelComposite, logger)

	handler := handlers.NewIngestionHandler(githubSvc, leetCodeSvc, resumeSvc, linkedInSvc, compositeSvc, cfg.Resume.MaxUploadBytes, logger)
	toolDeps := &tools.IngestionToolDeps{
		GitHub:   githubSvc,
		LeetCode: leetCodeSvc,
		Resume:   resumeSvc,
		LinkedIn: linkedInSvc,
		Logger:   logger.Named("mcp-tools"),
	}
	return handler, toolDeps
}
