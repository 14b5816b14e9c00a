package leaderboard

import (
	"context"
	"sync"
	"time"

	"carpet-quiz-service/internal/domain"
)

// MemoryCache is the default in-process Cache implementation.
type MemoryCache struct {
	clock func() time.Time

	mu        sync.RWMutex
	doc       domain.LeaderboardDocument
	expiresAt time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{clock: time.Now}
}

func (c *MemoryCache) Get(_ context.Context) (domain.LeaderboardDocument, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.doc == nil || !c.expiresAt.After(c.clock()) {
		return nil, false
	}
	return c.doc.Clone(), true
}

func (c *MemoryCache) Set(_ context.Context, doc domain.LeaderboardDocument, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.doc = doc.Clone()
	c.expiresAt = c.clock().Add(ttl)
}

func (c *MemoryCache) Invalidate(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.doc = nil
	c.expiresAt = time.Time{}
}
