package redisStore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

func (s *Store) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return s.client.Set(ctx, key, value, expiration).Err()
}

// SetNX sets key only when it is absent and reports whether it did.
func (s *Store) SetNX(ctx context.Context, key string, value interface{}) (bool, error) {
	return s.client.SetNX(ctx, key, value, 0).Result()
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	return s.client.Get(ctx, key).Result()
}

func (s *Store) Del(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

func (s *Store) IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	count, err := s.client.Exists(ctx, key).Result()
	return count > 0, err
}

// SortedAdd stores member under key ordered by score.
func (s *Store) SortedAdd(ctx context.Context, key string, score float64, member string) error {
	return s.client.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err()
}

// SortedGetAll returns every member ascending by score, ties ordered
// lexicographically by member.
func (s *Store) SortedGetAll(ctx context.Context, key string) ([]string, error) {
	return s.client.ZRange(ctx, key, 0, -1).Result()
}

// CompareAndSwap sets key to next only while it still holds prev, inside a
// WATCH transaction. It reports false when another client got there first.
func (s *Store) CompareAndSwap(ctx context.Context, key, prev string, next interface{}) (bool, error) {
	swapped := false
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != prev {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		if err == nil {
			swapped = true
		}
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return swapped, err
}
