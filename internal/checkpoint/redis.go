package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "loader:checkpoint:"
	defaultTTL = 7 * 24 * time.Hour
)

// Store keeps the number of CSV records the loader has committed per file,
// so an interrupted import can continue where it stopped.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func buildKey(file string) string {
	return keyPrefix + file
}

// Get committed offset for a file, 0 when none is recorded
func (s *Store) Get(ctx context.Context, file string) (int64, error) {
	key := buildKey(file)
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get checkpoint %s: %w", key, err)
	}

	offset, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse checkpoint %s=%q: %w", key, val, err)
	}
	return offset, nil
}

func (s *Store) Set(ctx context.Context, file string, offset int64) error {
	key := buildKey(file)
	if err := s.client.Set(ctx, key, offset, defaultTTL).Err(); err != nil {
		return fmt.Errorf("failed to set checkpoint %s: %w", key, err)
	}
	return nil
}

// Clear every loader checkpoint: used when tables are truncated
func (s *Store) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("checkpoint delete %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
