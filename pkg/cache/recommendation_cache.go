package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/pitchside/cricket-xi/internal/engine"
)

// RecommendationCacheService handles caching for squad recommendations
type RecommendationCacheService struct {
	client *redis.Client
	logger *logrus.Logger
}

// NewRecommendationCacheService creates a new recommendation cache service
func NewRecommendationCacheService(client *redis.Client, logger *logrus.Logger) *RecommendationCacheService {
	return &RecommendationCacheService{
		client: client,
		logger: logger,
	}
}

// SetRecommendation stores a recommendation in cache
func (c *RecommendationCacheService) SetRecommendation(ctx context.Context, key string, rec *engine.Recommendation, expiration time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendation: %w", err)
	}

	fullKey := fmt.Sprintf("recommendation:%s", key)
	if err := c.client.Set(ctx, fullKey, data, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set recommendation in cache: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"cache_key":  fullKey,
		"expiration": expiration,
		"request_id": rec.ID,
	}).Debug("Cached recommendation")

	return nil
}

// GetRecommendation retrieves a recommendation from cache
func (c *RecommendationCacheService) GetRecommendation(ctx context.Context, key string) (*engine.Recommendation, error) {
	fullKey := fmt.Sprintf("recommendation:%s", key)
	data, err := c.client.Get(ctx, fullKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("recommendation not found in cache")
		}
		return nil, fmt.Errorf("failed to get recommendation from cache: %w", err)
	}

	var rec engine.Recommendation
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recommendation: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"cache_key":  fullKey,
		"request_id": rec.ID,
	}).Debug("Retrieved recommendation from cache")

	return &rec, nil
}

// SetRequestIndex maps a request ID to its cache key, so rationale lookups
// can find the recommendation without the original request body.
func (c *RecommendationCacheService) SetRequestIndex(ctx context.Context, requestID, cacheKey string, expiration time.Duration) error {
	fullKey := fmt.Sprintf("recommendation-request:%s", requestID)
	if err := c.client.Set(ctx, fullKey, cacheKey, expiration).Err(); err != nil {
		return fmt.Errorf("failed to index recommendation request: %w", err)
	}
	return nil
}

// GetRequestIndex resolves a request ID back to its cache key.
func (c *RecommendationCacheService) GetRequestIndex(ctx context.Context, requestID string) (string, error) {
	fullKey := fmt.Sprintf("recommendation-request:%s", requestID)
	cacheKey, err := c.client.Get(ctx, fullKey).Result()
	if err != nil {
		if err == redis.Nil {
			return "", fmt.Errorf("request %s not found in cache", requestID)
		}
		return "", fmt.Errorf("failed to resolve recommendation request: %w", err)
	}
	return cacheKey, nil
}

// DeleteRecommendation removes a recommendation from cache
func (c *RecommendationCacheService) DeleteRecommendation(ctx context.Context, key string) error {
	fullKey := fmt.Sprintf("recommendation:%s", key)
	if err := c.client.Del(ctx, fullKey).Err(); err != nil {
		return fmt.Errorf("failed to delete recommendation from cache: %w", err)
	}
	return nil
}

// GetStatus returns cache health and key counts
func (c *RecommendationCacheService) GetStatus(ctx context.Context) map[string]interface{} {
	status := map[string]interface{}{
		"healthy": true,
	}

	if err := c.client.Ping(ctx).Err(); err != nil {
		status["healthy"] = false
		status["error"] = err.Error()
		return status
	}

	if keys, err := c.client.Keys(ctx, "recommendation:*").Result(); err == nil {
		status["cached_recommendations"] = len(keys)
	}

	return status
}
