package service

import (
	"context"
	"encoding/json"
	"time"

	"terminfinder/internal/domain"
	"terminfinder/pkg/redis"

	"go.uber.org/zap"
)

// CacheService caches display reads in Redis. Every method is best-effort
// and nil-safe: a missing or failing Redis never fails the caller.
type CacheService struct {
	redis  *redis.Client
	logger *zap.Logger
}

func NewCacheService(redisClient *redis.Client, logger *zap.Logger) *CacheService {
	return &CacheService{redis: redisClient, logger: logger}
}

// GetPollView returns the cached poll view, if any
func (c *CacheService) GetPollView(ctx context.Context, publicID string) (*domain.PollView, bool) {
	if c == nil || c.redis == nil {
		return nil, false
	}

	raw, err := c.redis.Get(ctx, c.redis.KeyBuilder.KeyPollView(publicID))
	if err != nil {
		return nil, false
	}

	var view domain.PollView
	if err := json.Unmarshal([]byte(raw), &view); err != nil {
		c.logger.Warn("failed to decode cached poll view",
			zap.String("public_id", publicID),
			zap.Error(err))
		return nil, false
	}
	return &view, true
}

// SetPollView caches the poll view
func (c *CacheService) SetPollView(ctx context.Context, publicID string, view *domain.PollView) {
	if c == nil || c.redis == nil {
		return
	}

	data, err := json.Marshal(view)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, c.redis.KeyBuilder.KeyPollView(publicID), data, redis.TTLPollView); err != nil {
		c.logger.Warn("failed to cache poll view",
			zap.String("public_id", publicID),
			zap.Error(err))
	}
}

// GetPollResults returns the cached results, if any
func (c *CacheService) GetPollResults(ctx context.Context, publicID string) (*domain.PollResults, bool) {
	if c == nil || c.redis == nil {
		return nil, false
	}

	raw, err := c.redis.Get(ctx, c.redis.KeyBuilder.KeyPollResults(publicID))
	if err != nil {
		return nil, false
	}

	var results domain.PollResults
	if err := json.Unmarshal([]byte(raw), &results); err != nil {
		c.logger.Warn("failed to decode cached results",
			zap.String("public_id", publicID),
			zap.Error(err))
		return nil, false
	}
	return &results, true
}

// SetPollResults caches the results
func (c *CacheService) SetPollResults(ctx context.Context, publicID string, results *domain.PollResults) {
	if c == nil || c.redis == nil {
		return
	}

	data, err := json.Marshal(results)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, c.redis.KeyBuilder.KeyPollResults(publicID), data, redis.TTLPollResults); err != nil {
		c.logger.Warn("failed to cache results",
			zap.String("public_id", publicID),
			zap.Error(err))
	}
}

// GetActivePolls returns the cached active poll listing, if any
func (c *CacheService) GetActivePolls(ctx context.Context) ([]domain.Poll, bool) {
	if c == nil || c.redis == nil {
		return nil, false
	}

	raw, err := c.redis.Get(ctx, c.redis.KeyBuilder.KeyActivePolls())
	if err != nil {
		return nil, false
	}

	var polls []domain.Poll
	if err := json.Unmarshal([]byte(raw), &polls); err != nil {
		return nil, false
	}
	return polls, true
}

// SetActivePolls caches the active poll listing
func (c *CacheService) SetActivePolls(ctx context.Context, polls []domain.Poll) {
	if c == nil || c.redis == nil {
		return
	}

	data, err := json.Marshal(polls)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, c.redis.KeyBuilder.KeyActivePolls(), data, redis.TTLActivePolls); err != nil {
		c.logger.Warn("failed to cache active polls", zap.Error(err))
	}
}

// MarkSubmission records the time of a successful submission. The poll view
// surfaces it as last activity.
func (c *CacheService) MarkSubmission(ctx context.Context, publicID string) {
	if c == nil || c.redis == nil {
		return
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if err := c.redis.Set(ctx, c.redis.KeyBuilder.KeyPollLastSeen(publicID), now, redis.TTLPollLastSeen); err != nil {
		c.logger.Warn("failed to record submission time",
			zap.String("public_id", publicID),
			zap.Error(err))
	}
}

// LastSubmission returns the recorded time of the poll's most recent
// successful submission, if any
func (c *CacheService) LastSubmission(ctx context.Context, publicID string) (*time.Time, bool) {
	if c == nil || c.redis == nil {
		return nil, false
	}

	raw, err := c.redis.Get(ctx, c.redis.KeyBuilder.KeyPollLastSeen(publicID))
	if err != nil {
		return nil, false
	}

	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, false
	}
	return &ts, true
}

// InvalidatePoll drops every cached view of a poll. Called after each
// successful submission or admin edit.
func (c *CacheService) InvalidatePoll(ctx context.Context, publicID string) {
	if c == nil || c.redis == nil {
		return
	}

	err := c.redis.Delete(ctx,
		c.redis.KeyBuilder.KeyPollView(publicID),
		c.redis.KeyBuilder.KeyPollResults(publicID),
		c.redis.KeyBuilder.KeyActivePolls(),
	)
	if err != nil {
		c.logger.Warn("failed to invalidate poll cache",
			zap.String("public_id", publicID),
			zap.Error(err))
	}
}
