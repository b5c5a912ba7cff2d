package store

import (
	"context"
	"time"

	"github.com/akolanti/studyfellow/internal/domain/documentModel"
	"github.com/patrickmn/go-cache"
)

// CachedMetadataStore keeps recently resolved metadata records in process so
// that a conversation citing the same document many times costs one lookup.
// Writes go straight through and evict the cached entry.
type CachedMetadataStore struct {
	next  documentModel.MetadataStore
	cache *cache.Cache
}

func NewCachedMetadataStore(next documentModel.MetadataStore, ttl, cleanup time.Duration) *CachedMetadataStore {
	return &CachedMetadataStore{
		next:  next,
		cache: cache.New(ttl, cleanup),
	}
}

func (s *CachedMetadataStore) UpsertByPath(ctx context.Context, meta documentModel.DocumentMetadata) (documentModel.DocumentMetadata, error) {
	stored, err := s.next.UpsertByPath(ctx, meta)
	if err == nil {
		s.cache.Delete(stored.ID)
	}
	return stored, err
}

func (s *CachedMetadataStore) FindByPath(ctx context.Context, path string) (documentModel.DocumentMetadata, bool, error) {
	return s.next.FindByPath(ctx, path)
}

func (s *CachedMetadataStore) GetByID(ctx context.Context, id string) (documentModel.DocumentMetadata, bool, error) {
	if x, found := s.cache.Get(id); found {
		return x.(documentModel.DocumentMetadata), true, nil
	}
	meta, found, err := s.next.GetByID(ctx, id)
	if err != nil || !found {
		return meta, found, err
	}
	s.cache.Set(id, meta, cache.DefaultExpiration)
	return meta, true, nil
}

func (s *CachedMetadataStore) MarkDeleted(ctx context.Context, id string) error {
	s.cache.Delete(id)
	return s.next.MarkDeleted(ctx, id)
}
