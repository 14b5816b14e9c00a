package redis

import (
	"context"
	"encoding/json"
	"time"

	"carpet-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const leaderboardKey = "leaderboard:document"

// LeaderboardCache implements leaderboard.Cache on Redis, so multiple
// service instances share one short-TTL copy of the remote scoreboard.
// Every operation is best-effort: a Redis hiccup reads as a cache miss.
type LeaderboardCache struct {
	client *redis.Client
}

func NewLeaderboardCache(client *redis.Client) *LeaderboardCache {
	return &LeaderboardCache{client: client}
}

func (c *LeaderboardCache) Get(ctx context.Context) (domain.LeaderboardDocument, bool) {
	raw, err := c.client.Get(ctx, leaderboardKey).Bytes()
	if err != nil {
		return nil, false
	}
	var doc domain.LeaderboardDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false
	}
	if doc == nil {
		doc = domain.LeaderboardDocument{}
	}
	return doc, true
}

func (c *LeaderboardCache) Set(ctx context.Context, doc domain.LeaderboardDocument, ttl time.Duration) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, leaderboardKey, raw, ttl).Err()
}

func (c *LeaderboardCache) Invalidate(ctx context.Context) {
	_ = c.client.Del(ctx, leaderboardKey).Err()
}
