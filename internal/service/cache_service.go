package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"leaguevote/internal/domain"
	"leaguevote/pkg/redis"

	"go.uber.org/zap"
)

// TallySnapshot is the cached per-player tally of a match
type TallySnapshot struct {
	TotalVotes int                  `json:"total_votes"`
	Tally      []domain.PlayerTally `json:"tally"`
	CountedAt  time.Time            `json:"counted_at"`
}

// CacheService wraps Redis for voting. Every method is a no-op on a nil service or
// when Redis is not configured; callers always fall back to the database.
type CacheService struct {
	redis  *redis.Client
	logger *zap.Logger
}

// NewCacheService creates a new cache service
func NewCacheService(redisClient *redis.Client, logger *zap.Logger) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{
		redis:  redisClient,
		logger: logger,
	}
}

func (c *CacheService) enabled() bool {
	return c != nil && c.redis != nil
}

// HasVoted reports a cached "has voted" flag. A miss says nothing; check the store.
func (c *CacheService) HasVoted(ctx context.Context, matchID, voterID string) bool {
	if !c.enabled() {
		return false
	}
	n, err := c.redis.Exists(ctx, c.redis.KeyBuilder.KeyMatchVoter(matchID, voterID))
	if err != nil {
		c.logger.Warn("Voter flag lookup failed, falling back to database",
			zap.String("match_id", matchID),
			zap.Error(err))
		return false
	}
	return n > 0
}

// MarkVoted caches the voter's ballot id for the match
func (c *CacheService) MarkVoted(ctx context.Context, matchID, voterID, voteID string) {
	if !c.enabled() {
		return
	}
	key := c.redis.KeyBuilder.KeyMatchVoter(matchID, voterID)
	if err := c.redis.Set(ctx, key, voteID, redis.TTLVoterFlag); err != nil {
		c.logger.Warn("Failed to cache voter flag",
			zap.String("match_id", matchID),
			zap.Error(err))
	}
}

// GetTally returns the cached tally for a match
func (c *CacheService) GetTally(ctx context.Context, matchID string) (*TallySnapshot, bool) {
	if !c.enabled() {
		return nil, false
	}
	data, err := c.redis.Get(ctx, c.redis.KeyBuilder.KeyMatchTally(matchID))
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Tally cache error, falling back to database",
				zap.String("match_id", matchID),
				zap.Error(err))
		}
		return nil, false
	}

	var snapshot TallySnapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		c.logger.Warn("Tally cache corrupted, falling back to database",
			zap.String("match_id", matchID),
			zap.Error(err))
		return nil, false
	}
	return &snapshot, true
}

// SetTally caches a tally snapshot
func (c *CacheService) SetTally(ctx context.Context, matchID string, snapshot *TallySnapshot) {
	if !c.enabled() || snapshot == nil {
		return
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		c.logger.Error("Failed to marshal tally for caching", zap.String("match_id", matchID), zap.Error(err))
		return
	}
	if err := c.redis.Set(ctx, c.redis.KeyBuilder.KeyMatchTally(matchID), string(data), redis.TTLTally); err != nil {
		c.logger.Warn("Failed to cache tally", zap.String("match_id", matchID), zap.Error(err))
	}
}

// InvalidateTally drops the cached tally after a write
func (c *CacheService) InvalidateTally(ctx context.Context, matchID string) {
	if !c.enabled() {
		return
	}
	if err := c.redis.Delete(ctx, c.redis.KeyBuilder.KeyMatchTally(matchID)); err != nil {
		c.logger.Warn("Failed to invalidate tally cache", zap.String("match_id", matchID), zap.Error(err))
	}
}

// AcquireRunLock takes the award run lock. Without Redis the lock is always granted.
// If Redis errors the run proceeds unlocked; the unique award constraint still holds.
func (c *CacheService) AcquireRunLock(ctx context.Context) (release func(), acquired bool) {
	noop := func() {}
	if !c.enabled() {
		return noop, true
	}

	key := c.redis.KeyBuilder.KeyAwardRunLock()
	ok, err := c.redis.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), redis.TTLAwardRunLock)
	if err != nil {
		c.logger.Warn("Award run lock unavailable, continuing without it", zap.Error(err))
		return noop, true
	}
	if !ok {
		return noop, false
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.redis.Delete(releaseCtx, key); err != nil {
			c.logger.Warn("Failed to release award run lock", zap.Error(err))
		}
	}, true
}

// HealthCheck performs a health check on the cache system
func (c *CacheService) HealthCheck(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	start := time.Now()
	err := c.redis.Health(ctx)
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("Cache health check failed",
			zap.Duration("duration", duration),
			zap.Error(err))
		return err
	}

	c.logger.Debug("Cache health check passed", zap.Duration("duration", duration))
	return nil
}
