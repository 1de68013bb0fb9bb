package service

import (
	"context"
	"time"

	"github.com/yourorg/jobtracker/internal/domain"
	"github.com/yourorg/jobtracker/pkg/cache"
)

// MemoryUserCache is the in-process fallback UserCache used when no Redis
// instance is configured.
type MemoryUserCache struct {
	cache *cache.Cache[*domain.User]
	ttl   time.Duration
}

// NewMemoryUserCache creates a TTL-bounded in-memory user cache.
func NewMemoryUserCache(ttl time.Duration) *MemoryUserCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &MemoryUserCache{
		cache: cache.New[*domain.User](),
		ttl:   ttl,
	}
}

func (m *MemoryUserCache) GetUser(_ context.Context, email string) (*domain.User, bool) {
	return m.cache.Get(email)
}

func (m *MemoryUserCache) SetUser(_ context.Context, email string, user *domain.User) {
	m.cache.Set(email, user, m.ttl)
}
