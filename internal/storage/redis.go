package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"flowmapper/internal/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStore handles Redis interactions: crawl dedup markers and the
// computed-flow cache.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string) *RedisStore {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return &RedisStore{client: rdb}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// MarkAsCrawled sets a key with a TTL to prevent re-crawling a URL.
func (s *RedisStore) MarkAsCrawled(ctx context.Context, url string, ttl time.Duration) error {
	key := fmt.Sprintf("crawled:%s", url)
	return s.client.Set(ctx, key, "1", ttl).Err()
}

// IsRecentlyCrawled checks if a URL has been crawled within the TTL.
func (s *RedisStore) IsRecentlyCrawled(ctx context.Context, url string) (bool, error) {
	key := fmt.Sprintf("crawled:%s", url)
	val, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return val == 1, nil
}

// CacheFlow stores a computed flow under its crawl id.
func (s *RedisStore) CacheFlow(ctx context.Context, crawlID int64, flow *domain.UserFlow, ttl time.Duration) error {
	payload, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("marshal flow: %w", err)
	}
	return s.client.Set(ctx, flowKey(crawlID), payload, ttl).Err()
}

// GetCachedFlow returns the cached flow for a crawl, or nil on a miss.
func (s *RedisStore) GetCachedFlow(ctx context.Context, crawlID int64) (*domain.UserFlow, error) {
	payload, err := s.client.Get(ctx, flowKey(crawlID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var flow domain.UserFlow
	if err := json.Unmarshal(payload, &flow); err != nil {
		return nil, fmt.Errorf("unmarshal cached flow: %w", err)
	}
	return &flow, nil
}

// InvalidateFlow drops the cached flow for a crawl.
func (s *RedisStore) InvalidateFlow(ctx context.Context, crawlID int64) error {
	return s.client.Del(ctx, flowKey(crawlID)).Err()
}

func flowKey(crawlID int64) string {
	return fmt.Sprintf("flow:%d", crawlID)
}
