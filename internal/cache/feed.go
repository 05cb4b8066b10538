package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"nutrisnap/internal/model"
)

const (
	// SessionFeedPrefix is the key prefix for per-user session feed caches
	SessionFeedPrefix = "sessionfeed:"

	// SessionFeedCap is the maximum number of posts kept per user
	SessionFeedCap = 200

	// SessionFeedTTL bounds how long a degraded-mode feed survives
	SessionFeedTTL = 7 * 24 * time.Hour
)

// SessionFeedCache holds the community feed while the remote collection is
// unavailable. Posts shared in degraded mode land here so the session feed
// survives a process restart; it is never consulted when the remote
// collection exists.
type SessionFeedCache interface {
	// SavePost stores (or overwrites) one post, keyed by its id.
	SavePost(ctx context.Context, userID string, post model.Post) error

	// RemovePost drops a post from the cache.
	RemovePost(ctx context.Context, userID, postID string) error

	// Load returns all cached posts newest-first. An absent key is an
	// empty feed, not an error.
	Load(ctx context.Context, userID string) ([]model.Post, error)
}

// RedisSessionFeedCache implements SessionFeedCache on a Redis sorted set
// (ordering index) plus a hash (post payloads).
type RedisSessionFeedCache struct {
	client *redis.Client
}

// NewSessionFeedCache creates a SessionFeedCache backed by Redis.
func NewSessionFeedCache(client *redis.Client) SessionFeedCache {
	return &RedisSessionFeedCache{client: client}
}

func indexKey(userID string) string {
	return fmt.Sprintf("%sindex:%s", SessionFeedPrefix, userID)
}

func dataKey(userID string) string {
	return fmt.Sprintf("%sdata:%s", SessionFeedPrefix, userID)
}

// SavePost writes the post payload and its ordering entry in one pipeline:
// HSET + ZADD + ZREMRANGEBYRANK (trim to cap) + EXPIRE on both keys.
func (c *RedisSessionFeedCache) SavePost(ctx context.Context, userID string, post model.Post) error {
	payload, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("marshal cached post: %w", err)
	}

	idx, data := indexKey(userID), dataKey(userID)
	pipe := c.client.Pipeline()

	pipe.HSet(ctx, data, post.ID, payload)
	pipe.ZAdd(ctx, idx, redis.Z{
		Score:  float64(post.CreatedAt.UnixMilli()),
		Member: post.ID,
	})
	// Keep the newest SessionFeedCap entries; 0 is the oldest rank
	pipe.ZRemRangeByRank(ctx, idx, 0, int64(-SessionFeedCap-1))
	pipe.Expire(ctx, idx, SessionFeedTTL)
	pipe.Expire(ctx, data, SessionFeedTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[SessionFeed] SavePost FAILED: user=%s post=%s err=%v", userID, post.ID, err)
		return fmt.Errorf("save cached post: %w", err)
	}

	log.Printf("[SessionFeed] SavePost OK: user=%s post=%s", userID, post.ID)
	return nil
}

// RemovePost drops the ordering entry and the payload.
func (c *RedisSessionFeedCache) RemovePost(ctx context.Context, userID, postID string) error {
	pipe := c.client.Pipeline()
	pipe.ZRem(ctx, indexKey(userID), postID)
	pipe.HDel(ctx, dataKey(userID), postID)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[SessionFeed] RemovePost FAILED: user=%s post=%s err=%v", userID, postID, err)
		return fmt.Errorf("remove cached post: %w", err)
	}
	return nil
}

// Load reads ids newest-first from the index, then resolves payloads.
// Entries whose payload is missing or unparsable are skipped, not fatal.
func (c *RedisSessionFeedCache) Load(ctx context.Context, userID string) ([]model.Post, error) {
	ids, err := c.client.ZRevRange(ctx, indexKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read cached feed index: %w", err)
	}
	if len(ids) == 0 {
		return []model.Post{}, nil
	}

	payloads, err := c.client.HMGet(ctx, dataKey(userID), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("read cached feed payloads: %w", err)
	}

	posts := make([]model.Post, 0, len(ids))
	for i, raw := range payloads {
		str, ok := raw.(string)
		if !ok {
			continue
		}
		var post model.Post
		if err := json.Unmarshal([]byte(str), &post); err != nil {
			log.Printf("[SessionFeed] Load skip unparsable post: user=%s id=%s err=%v", userID, ids[i], err)
			continue
		}
		posts = append(posts, post)
	}

	log.Printf("[SessionFeed] Load OK: user=%s posts=%d", userID, len(posts))
	return posts, nil
}
