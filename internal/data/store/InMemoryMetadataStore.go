package store

import (
	"context"
	"sync"

	"github.com/akolanti/studyfellow/internal/adapter/utils"
	"github.com/akolanti/studyfellow/internal/domain/documentModel"
)

type InMemoryMetadataStore struct {
	mu     sync.RWMutex
	byID   map[string]documentModel.DocumentMetadata
	byPath map[string]string
}

func InitInMemoryMetadataStore() *InMemoryMetadataStore {
	return &InMemoryMetadataStore{
		byID:   make(map[string]documentModel.DocumentMetadata),
		byPath: make(map[string]string),
	}
}

func (s *InMemoryMetadataStore) UpsertByPath(ctx context.Context, meta documentModel.DocumentMetadata) (documentModel.DocumentMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta.ID = utils.GetNewUUID()
	if id, ok := s.byPath[meta.Path]; ok {
		if existing, found := s.byID[id]; found && existing.Status != documentModel.StatusDeleted {
			meta.ID = existing.ID
		}
	}
	if meta.Status == "" {
		meta.Status = documentModel.StatusUnprocessed
	}
	s.byID[meta.ID] = meta
	s.byPath[meta.Path] = meta.ID
	return meta, nil
}

func (s *InMemoryMetadataStore) FindByPath(ctx context.Context, path string) (documentModel.DocumentMetadata, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byPath[path]
	if !ok {
		return documentModel.DocumentMetadata{}, false, nil
	}
	meta, found := s.byID[id]
	return meta, found, nil
}

func (s *InMemoryMetadataStore) GetByID(ctx context.Context, id string) (documentModel.DocumentMetadata, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, found := s.byID[id]
	return meta, found, nil
}

func (s *InMemoryMetadataStore) MarkDeleted(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	meta, found := s.byID[id]
	if !found {
		return nil
	}
	meta.Status = documentModel.StatusDeleted
	s.byID[id] = meta
	return nil
}

// Count is the number of records ever written, deleted ones included.
func (s *InMemoryMetadataStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
