package leetcode

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-ingest/pkg/cache"
	"github.com/ekaya-inc/ekaya-ingest/pkg/logging"
	"github.com/ekaya-inc/ekaya-ingest/pkg/metrics"
)

type cachedClient struct {
	inner  Client
	cache  cache.ResponseCache
	logger *zap.Logger
}

// NewCachedClient serves complete snapshots from c and stores new complete
// snapshots of existing handles. Cache errors fall through to inner.
func NewCachedClient(inner Client, c cache.ResponseCache, logger *zap.Logger) Client {
	return &cachedClient{
		inner:  inner,
		cache:  c,
		logger: logger.Named("leetcode-cache"),
	}
}

var _ Client = (*cachedClient)(nil)

func cacheKey(username string) string {
	return "snapshot:" + strings.ToLower(username)
}

func (c *cachedClient) Fetch(ctx context.Context, username string) (*Snapshot, error) {
	var cached Snapshot
	hit, err := c.cache.Get(ctx, cacheKey(username), &cached)
	if err != nil {
		c.logger.Warn("Cache lookup failed", zap.String("error", logging.SanitizeError(err)))
	}
	if hit && cached.Profile != nil {
		metrics.SourceCache.WithLabelValues("leetcode", metrics.CacheHit).Inc()
		if cached.Languages == nil {
			cached.Languages = make(map[string]int)
		}
		if cached.Submissions == nil {
			cached.Submissions = make([]Submission, 0)
		}
		cached.Failures = make(map[string]string)
		return &cached, nil
	}
	metrics.SourceCache.WithLabelValues("leetcode", metrics.CacheMiss).Inc()

	snap, err := c.inner.Fetch(ctx, username)
	if err != nil {
		return snap, err
	}
	if snap.Profile != nil && snap.Complete() {
		if err := c.cache.Set(ctx, cacheKey(username), snap); err != nil {
			c.logger.Warn("Failed to cache LeetCode snapshot", zap.String("error", logging.SanitizeError(err)))
		}
	}
	return snap, nil
}
