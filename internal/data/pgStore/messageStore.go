package pgStore

import (
	"context"

	"github.com/akolanti/studyfellow/internal/adapter/utils"
	"github.com/akolanti/studyfellow/internal/domain/chatModel"
	"gorm.io/gorm"
)

type MessageStore struct {
	db *gorm.DB
}

func NewMessageStore(db *gorm.DB) *MessageStore {
	return &MessageStore{db: db}
}

func (s *MessageStore) ListMessages(ctx context.Context, conv chatModel.Conversation) ([]chatModel.Message, error) {
	var rows []messageRow
	err := s.db.WithContext(ctx).
		Where("conversation_kind = ? AND conversation_id = ?", string(conv.Kind), conv.ID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	messages := make([]chatModel.Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, row.toModel())
	}
	return messages, nil
}

func (s *MessageStore) AppendMessage(ctx context.Context, conv chatModel.Conversation, msg chatModel.Message) error {
	if msg.ID == "" {
		msg.ID = utils.GetNewUUID()
	}
	row := toMessageRow(conv, msg)
	return s.db.WithContext(ctx).Create(&row).Error
}

type PostStore struct {
	db *gorm.DB
}

func NewPostStore(db *gorm.DB) *PostStore {
	return &PostStore{db: db}
}

func (s *PostStore) GetPost(ctx context.Context, id string) (chatModel.Post, bool, error) {
	var row postRow
	err := s.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&row).Error
	if err != nil {
		return chatModel.Post{}, false, err
	}
	if row.ID == "" {
		return chatModel.Post{}, false, nil
	}
	return row.toModel(), true, nil
}

func (s *PostStore) SavePost(ctx context.Context, post chatModel.Post) error {
	row := toPostRow(post)
	return s.db.WithContext(ctx).Save(&row).Error
}
