package presence

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces presence records. The path and session segments are
// query-escaped so neither can contain ":" and the key splits unambiguously.
const keyPrefix = "online:v1:"

// scanBatch is the COUNT hint for SCAN during aggregation.
const scanBatch = 512

// RedisStore keeps presence records as Redis keys with native TTLs, so
// expiry is enforced by the store itself and counts are correct across
// service instances sharing the same Redis.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func recordKey(sessionID, path string) string {
	return keyPrefix + url.QueryEscape(path) + ":" + url.QueryEscape(sessionID)
}

// pathFromKey recovers the path segment from a record key. Returns ok=false
// for keys that do not match the expected shape.
func pathFromKey(key string) (string, bool) {
	rest, found := strings.CutPrefix(key, keyPrefix)
	if !found {
		return "", false
	}
	escaped, _, found := strings.Cut(rest, ":")
	if !found {
		return "", false
	}
	path, err := url.QueryUnescape(escaped)
	if err != nil {
		return "", false
	}
	return path, true
}

func (s *RedisStore) Upsert(ctx context.Context, sessionID, path string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, recordKey(sessionID, path), "1", ttl).Err(); err != nil {
		return unavailable("upsert", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID, path string) error {
	if err := s.rdb.Del(ctx, recordKey(sessionID, path)).Err(); err != nil {
		return unavailable("delete", err)
	}
	return nil
}

func (s *RedisStore) CountAll(ctx context.Context) (int, error) {
	total := 0
	iter := s.rdb.Scan(ctx, 0, keyPrefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		total++
	}
	if err := iter.Err(); err != nil {
		return 0, unavailable("count", err)
	}
	return total, nil
}

func (s *RedisStore) CountByPath(ctx context.Context) (map[string]int, error) {
	byPath := make(map[string]int)
	iter := s.rdb.Scan(ctx, 0, keyPrefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		if path, ok := pathFromKey(iter.Val()); ok {
			byPath[path]++
		}
	}
	if err := iter.Err(); err != nil {
		return nil, unavailable("count", err)
	}
	return byPath, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}
