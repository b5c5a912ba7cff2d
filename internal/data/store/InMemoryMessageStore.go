package store

import (
	"context"
	"sort"
	"sync"

	"github.com/akolanti/studyfellow/internal/adapter/utils"
	"github.com/akolanti/studyfellow/internal/domain/chatModel"
)

type InMemoryMessageStore struct {
	chatLock *sync.RWMutex
	chatMap  map[string][]chatModel.Message
}

func InitMessageStore() *InMemoryMessageStore {
	return &InMemoryMessageStore{
		chatLock: new(sync.RWMutex),
		chatMap:  make(map[string][]chatModel.Message),
	}
}

func (store *InMemoryMessageStore) ListMessages(ctx context.Context, conv chatModel.Conversation) ([]chatModel.Message, error) {
	store.chatLock.RLock()
	defer store.chatLock.RUnlock()

	messages := append([]chatModel.Message(nil), store.chatMap[conv.Key()]...)
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}

func (store *InMemoryMessageStore) AppendMessage(ctx context.Context, conv chatModel.Conversation, msg chatModel.Message) error {
	if msg.ID == "" {
		msg.ID = utils.GetNewUUID()
	}
	msg.ConversationID = conv.ID

	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	store.chatMap[conv.Key()] = append(store.chatMap[conv.Key()], msg)
	return nil
}
