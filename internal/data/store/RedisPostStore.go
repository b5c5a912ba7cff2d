package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/akolanti/studyfellow/internal/config"
	"github.com/akolanti/studyfellow/internal/data/redisStore"
	"github.com/akolanti/studyfellow/internal/domain/chatModel"
	"github.com/akolanti/studyfellow/pkg/logger_i"
)

const postKeyPrefix = "post:"

type RedisPostStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

// GetRedisPostStore shares the message DB; posts and their threads live side
// by side.
func GetRedisPostStore(ctx context.Context, opts redisStore.Options) *RedisPostStore {
	s := redisStore.GetRedisStore(ctx, opts, config.RedisMessageStore)
	if s == nil {
		return nil
	}
	return NewRedisPostStore(s)
}

func NewRedisPostStore(s *redisStore.Store) *RedisPostStore {
	return &RedisPostStore{
		store:  s,
		logger: logger_i.NewLogger("PostStore"),
	}
}

func (s *RedisPostStore) GetPost(ctx context.Context, id string) (chatModel.Post, bool, error) {
	var post chatModel.Post
	val, err := s.store.Get(ctx, postKeyPrefix+id)
	if s.store.IsNil(err) {
		return post, false, nil
	} else if err != nil {
		return post, false, fmt.Errorf("read post %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(val), &post); err != nil {
		s.logger.WithTrace(ctx).Error("Corrupt post record", "postId", id, "error", err)
		return post, false, nil
	}
	return post, true, nil
}

func (s *RedisPostStore) SavePost(ctx context.Context, post chatModel.Post) error {
	data, err := json.Marshal(post)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, postKeyPrefix+post.ID, data, 0)
}
