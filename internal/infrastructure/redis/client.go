package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yourorg/jobtracker/internal/domain"
)

// Client wraps the Redis client used as a distributed read-through cache
// for user lookups.
type Client struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewClient creates a new Redis client
func NewClient(url string, ttl time.Duration, logger *slog.Logger) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &Client{rdb: rdb, ttl: ttl, logger: logger}, nil
}

func userKey(email string) string {
	return "user:" + email
}

// GetUser retrieves a cached user by email. Cache errors are treated as
// misses; the caller falls through to the store.
func (c *Client) GetUser(ctx context.Context, email string) (*domain.User, bool) {
	data, err := c.rdb.Get(ctx, userKey(email)).Bytes()
	if err != nil {
		return nil, false
	}

	user := &domain.User{}
	if err := json.Unmarshal(data, user); err != nil {
		c.logger.Warn("corrupt cached user, dropping",
			slog.String("key", userKey(email)),
			slog.String("error", err.Error()),
		)
		c.rdb.Del(ctx, userKey(email))
		return nil, false
	}
	return user, true
}

// SetUser caches a user by email. Users are immutable after registration,
// so a TTL-bounded copy can never serve a stale identity.
func (c *Client) SetUser(ctx context.Context, email string, user *domain.User) {
	data, err := json.Marshal(user)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, userKey(email), data, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to cache user", slog.String("error", err.Error()))
	}
}

// Ping checks connectivity
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}
