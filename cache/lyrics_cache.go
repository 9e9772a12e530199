package cache

import (
	"context"
	"errors"
	"time"

	"SpectraFM/logger"

	"github.com/go-redis/redis/v8"
)

// LyricsCache keeps fetched lyrics in Redis for a TTL.
type LyricsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLyricsCache(client *redis.Client, ttl time.Duration) *LyricsCache {
	return &LyricsCache{client: client, ttl: ttl}
}

func LyricsKey(trackID string) string {
	return "lyrics:" + trackID
}

// Get retries once on transport errors. A missing key is a miss, not an error.
func (c *LyricsCache) Get(ctx context.Context, trackID string) (string, bool, error) {
	key := LyricsKey(trackID)
	retryDelay := 100 * time.Millisecond

	var err error
	for attempt := 0; attempt < 2; attempt++ {
		var text string
		text, err = c.client.Get(ctx, key).Result()
		if err == nil {
			return text, true, nil
		}
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		logger.Warn("Lyrics cache read failed",
			logger.String("key", key),
			logger.Int("attempt", attempt+1),
			logger.ErrorField(err))

		select {
		case <-ctx.Done():
			return "", false, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return "", false, err
}

func (c *LyricsCache) Set(ctx context.Context, trackID, text string) error {
	if err := c.client.Set(ctx, LyricsKey(trackID), text, c.ttl).Err(); err != nil {
		return err
	}
	logger.Debug("Lyrics cached",
		logger.String("trackId", trackID),
		logger.Int("size", len(text)),
		logger.Duration("ttl", c.ttl))
	return nil
}
