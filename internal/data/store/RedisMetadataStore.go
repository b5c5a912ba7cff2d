package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/akolanti/studyfellow/internal/adapter/utils"
	"github.com/akolanti/studyfellow/internal/config"
	"github.com/akolanti/studyfellow/internal/data/redisStore"
	"github.com/akolanti/studyfellow/internal/domain/documentModel"
	"github.com/akolanti/studyfellow/pkg/logger_i"
)

const (
	metadataKeyPrefix  = "document_metadata:"
	metadataPathPrefix = "document_metadata:path:"

	maxPathClaimAttempts = 5
)

type RedisMetadataStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetRedisMetadataStore(ctx context.Context, opts redisStore.Options) *RedisMetadataStore {
	s := redisStore.GetRedisStore(ctx, opts, config.RedisDocumentDB)
	if s == nil {
		return nil
	}
	return NewRedisMetadataStore(s)
}

func NewRedisMetadataStore(s *redisStore.Store) *RedisMetadataStore {
	return &RedisMetadataStore{
		store:  s,
		logger: logger_i.NewLogger("MetadataStore"),
	}
}

func metadataKey(id string) string {
	return metadataKeyPrefix + id
}

func metadataPathKey(path string) string {
	return metadataPathPrefix + path
}

// UpsertByPath writes the candidate record before claiming the path index, so
// a concurrent delivery that loses the claim always finds a readable record.
func (s *RedisMetadataStore) UpsertByPath(ctx context.Context, meta documentModel.DocumentMetadata) (documentModel.DocumentMetadata, error) {
	log := s.logger.WithTrace(ctx).With("path", meta.Path)

	if meta.Status == "" {
		meta.Status = documentModel.StatusUnprocessed
	}
	candidate := utils.GetNewUUID()
	meta.ID = candidate
	if err := s.put(ctx, meta); err != nil {
		return meta, err
	}

	for range maxPathClaimAttempts {
		claimed, err := s.store.SetNX(ctx, metadataPathKey(meta.Path), candidate)
		if err != nil {
			return meta, fmt.Errorf("claim metadata path index: %w", err)
		}
		if claimed {
			log.Debug("Saved metadata", "id", meta.ID)
			return meta, nil
		}

		existingID, err := s.store.Get(ctx, metadataPathKey(meta.Path))
		if s.store.IsNil(err) {
			continue
		} else if err != nil {
			return meta, fmt.Errorf("read metadata path index: %w", err)
		}

		existing, found, err := s.GetByID(ctx, existingID)
		if err != nil {
			return meta, err
		}
		if found && existing.Status != documentModel.StatusDeleted {
			log.Info("Reusing live metadata record for redelivered upload", "id", existing.ID)
			if err := s.store.Del(ctx, metadataKey(candidate)); err != nil {
				log.Warn("Failed to drop unused metadata candidate", "id", candidate, "error", err)
			}
			meta.ID = existing.ID
			return meta, s.put(ctx, meta)
		}

		swapped, err := s.store.CompareAndSwap(ctx, metadataPathKey(meta.Path), existingID, candidate)
		if err != nil {
			return meta, fmt.Errorf("repoint metadata path index: %w", err)
		}
		if swapped {
			log.Debug("Saved metadata", "id", meta.ID)
			return meta, nil
		}
	}
	_ = s.store.Del(ctx, metadataKey(candidate))
	return meta, fmt.Errorf("metadata path index for %s is contended", meta.Path)
}

func (s *RedisMetadataStore) put(ctx context.Context, meta documentModel.DocumentMetadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, metadataKey(meta.ID), data, 0); err != nil {
		return fmt.Errorf("write metadata %s: %w", meta.ID, err)
	}
	return nil
}

func (s *RedisMetadataStore) FindByPath(ctx context.Context, path string) (documentModel.DocumentMetadata, bool, error) {
	id, err := s.store.Get(ctx, metadataPathKey(path))
	if s.store.IsNil(err) {
		return documentModel.DocumentMetadata{}, false, nil
	} else if err != nil {
		return documentModel.DocumentMetadata{}, false, fmt.Errorf("read metadata path index: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *RedisMetadataStore) GetByID(ctx context.Context, id string) (documentModel.DocumentMetadata, bool, error) {
	var meta documentModel.DocumentMetadata
	if id == "" {
		return meta, false, nil
	}
	val, err := s.store.Get(ctx, metadataKey(id))
	if s.store.IsNil(err) {
		return meta, false, nil
	} else if err != nil {
		return meta, false, fmt.Errorf("read metadata %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(val), &meta); err != nil {
		s.logger.WithTrace(ctx).Error("Corrupt metadata record", "id", id, "error", err)
		return meta, false, nil
	}
	return meta, true, nil
}

func (s *RedisMetadataStore) MarkDeleted(ctx context.Context, id string) error {
	meta, found, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	meta.Status = documentModel.StatusDeleted
	return s.put(ctx, meta)
}
