package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/akolanti/studyfellow/internal/adapter/utils"
	"github.com/akolanti/studyfellow/internal/config"
	"github.com/akolanti/studyfellow/internal/data/redisStore"
	"github.com/akolanti/studyfellow/internal/domain/chatModel"
	"github.com/akolanti/studyfellow/pkg/logger_i"
)

const messageKeyPrefix = "messages:"

// RedisMessageStore keeps each conversation in a sorted set scored by the
// message creation time in milliseconds. Members are the message JSON, which
// leads with the message id, so equal timestamps still read back in a stable
// order.
type RedisMessageStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetRedisMessageStore(ctx context.Context, opts redisStore.Options) *RedisMessageStore {
	s := redisStore.GetRedisStore(ctx, opts, config.RedisMessageStore)
	if s == nil {
		return nil
	}
	return NewRedisMessageStore(s)
}

func NewRedisMessageStore(s *redisStore.Store) *RedisMessageStore {
	return &RedisMessageStore{
		store:  s,
		logger: logger_i.NewLogger("MessageStore"),
	}
}

func (s *RedisMessageStore) ListMessages(ctx context.Context, conv chatModel.Conversation) ([]chatModel.Message, error) {
	log := s.logger.WithTrace(ctx).With("conversation", conv.Key())

	members, err := s.store.SortedGetAll(ctx, messageKeyPrefix+conv.Key())
	if err != nil {
		return nil, fmt.Errorf("list messages for %s: %w", conv.Key(), err)
	}

	messages := make([]chatModel.Message, 0, len(members))
	for _, member := range members {
		var msg chatModel.Message
		if err := json.Unmarshal([]byte(member), &msg); err != nil {
			log.Warn("Skipping unreadable message", "error", err)
			continue
		}
		messages = append(messages, msg)
	}
	log.Debug("Loaded message history", "count", len(messages))
	return messages, nil
}

func (s *RedisMessageStore) AppendMessage(ctx context.Context, conv chatModel.Conversation, msg chatModel.Message) error {
	if msg.ID == "" {
		msg.ID = utils.GetNewUUID()
	}
	msg.ConversationID = conv.ID

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	score := float64(msg.CreatedAt.UnixMilli())
	if err := s.store.SortedAdd(ctx, messageKeyPrefix+conv.Key(), score, string(data)); err != nil {
		return fmt.Errorf("append message to %s: %w", conv.Key(), err)
	}
	s.logger.WithTrace(ctx).Debug("Saved message", "conversation", conv.Key(), "role", msg.Role, "type", msg.Type)
	return nil
}
