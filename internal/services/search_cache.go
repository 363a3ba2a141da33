// internal/services/search_cache.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/farmlink/discovery/internal/config"
	"github.com/farmlink/discovery/internal/metrics"
	"github.com/farmlink/discovery/internal/utils"
)

// SearchCache holds recent anonymous search results. Failures are never
// fatal: a broken cache behaves like an empty one.
type SearchCache interface {
	Get(ctx context.Context, key string) (*SearchResult, bool)
	Set(ctx context.Context, key string, result *SearchResult)
}

const searchCachePrefix = "discovery:search:"

type RedisSearchCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSearchCache(client *redis.Client, ttl time.Duration) *RedisSearchCache {
	return &RedisSearchCache{client: client, ttl: ttl}
}

// NewRedisClient builds a client from configuration. It does not dial.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func (c *RedisSearchCache) Get(ctx context.Context, key string) (*SearchResult, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			metrics.SearchCacheErrors.Inc()
			logrus.WithError(err).Warn("Search cache read failed")
		}
		metrics.SearchCacheMisses.Inc()
		return nil, false
	}

	var result SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		metrics.SearchCacheErrors.Inc()
		logrus.WithError(err).WithField("key", key).Warn("Discarding unreadable search cache entry")
		return nil, false
	}

	metrics.SearchCacheHits.Inc()
	return &result, true
}

func (c *RedisSearchCache) Set(ctx context.Context, key string, result *SearchResult) {
	data, err := json.Marshal(result)
	if err != nil {
		metrics.SearchCacheErrors.Inc()
		logrus.WithError(err).Warn("Failed to encode search result for cache")
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		metrics.SearchCacheErrors.Inc()
		logrus.WithError(err).Warn("Failed to cache search result")
	}
}

type noopSearchCache struct{}

func NewNoopSearchCache() SearchCache {
	return noopSearchCache{}
}

func (noopSearchCache) Get(context.Context, string) (*SearchResult, bool) { return nil, false }

func (noopSearchCache) Set(context.Context, string, *SearchResult) {}

// searchCacheKey is stable for equivalent requests. Text filters are
// case-folded and geo numbers are rendered canonically.
func searchCacheKey(req SearchRequest, geo *geoParams, notice string) string {
	parts := []string{
		strings.ToLower(strings.TrimSpace(req.Category)),
		strings.ToLower(strings.TrimSpace(req.Brand)),
		strings.ToLower(strings.TrimSpace(req.SearchTerm)),
		strconv.Itoa(req.Pagination.Page),
		strconv.Itoa(req.Pagination.Limit),
		req.Pagination.Sort,
		req.Pagination.Order,
	}
	if geo != nil {
		parts = append(parts,
			strconv.FormatFloat(geo.center.Longitude, 'g', -1, 64),
			strconv.FormatFloat(geo.center.Latitude, 'g', -1, 64),
			strconv.FormatFloat(geo.radiusKm, 'g', -1, 64),
		)
	} else {
		parts = append(parts, "flat", notice)
	}
	return searchCachePrefix + utils.HashKey(parts...)
}
