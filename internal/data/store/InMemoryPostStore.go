package store

import (
	"context"
	"sync"

	"github.com/akolanti/studyfellow/internal/domain/chatModel"
)

type InMemoryPostStore struct {
	mu    sync.RWMutex
	posts map[string]chatModel.Post
}

func InitInMemoryPostStore() *InMemoryPostStore {
	return &InMemoryPostStore{posts: make(map[string]chatModel.Post)}
}

func (s *InMemoryPostStore) GetPost(ctx context.Context, id string) (chatModel.Post, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	post, found := s.posts[id]
	return post, found, nil
}

func (s *InMemoryPostStore) SavePost(ctx context.Context, post chatModel.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[post.ID] = post
	return nil
}
