package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store remembers processed keys in redis for a bounded window. SetNX makes
// the check-and-claim a single round trip.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// MessageKey identifies a kafka message for consumer dedup.
func (s *Store) MessageKey(topic string, partition int, offset int64) string {
	return fmt.Sprintf("idem:%s:%d:%d", topic, partition, offset)
}

// RequestKey identifies a client-supplied Idempotency-Key scoped to a user.
func (s *Store) RequestKey(userID int64, key string) string {
	return fmt.Sprintf("idem:req:%d:%s", userID, key)
}

// Seen claims the key and reports whether it had been claimed before.
func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// Release drops a claimed key so the caller may retry, used when a request
// fails after the key was claimed.
func (s *Store) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
