package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"SpectraFM/model"

	"github.com/go-redis/redis/v8"
)

// VibeCache keeps vibe readings per track.
type VibeCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewVibeCache(client *redis.Client, ttl time.Duration) *VibeCache {
	return &VibeCache{client: client, ttl: ttl}
}

func VibeKey(trackID string) string {
	return "vibe:" + trackID
}

func (c *VibeCache) Get(ctx context.Context, trackID string) (model.Vibe, bool, error) {
	data, err := c.client.Get(ctx, VibeKey(trackID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Vibe{}, false, nil
	}
	if err != nil {
		return model.Vibe{}, false, err
	}
	var v model.Vibe
	if err := json.Unmarshal(data, &v); err != nil {
		return model.Vibe{}, false, fmt.Errorf("failed to decode cached vibe: %w", err)
	}
	return v, true, nil
}

func (c *VibeCache) Set(ctx context.Context, trackID string, v model.Vibe) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, VibeKey(trackID), data, c.ttl).Err()
}
