package pgStore

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/studyfellow/internal/adapter/utils"
	"github.com/akolanti/studyfellow/internal/domain/documentModel"
	"gorm.io/gorm"
)

type MetadataStore struct {
	db *gorm.DB
}

func NewMetadataStore(db *gorm.DB) *MetadataStore {
	return &MetadataStore{db: db}
}

func (s *MetadataStore) UpsertByPath(ctx context.Context, meta documentModel.DocumentMetadata) (documentModel.DocumentMetadata, error) {
	if meta.Status == "" {
		meta.Status = documentModel.StatusUnprocessed
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var live documentRow
		err := tx.Where("path = ? AND status <> ?", meta.Path, documentModel.StatusDeleted).First(&live).Error
		switch {
		case err == nil:
			meta.ID = live.ID
			row := toDocumentRow(meta)
			return tx.Save(&row).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			meta.ID = utils.GetNewUUID()
			row := toDocumentRow(meta)
			return tx.Create(&row).Error
		default:
			return err
		}
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// a concurrent delivery of the same upload won the insert
		existing, found, findErr := s.FindByPath(ctx, meta.Path)
		if findErr == nil && found && existing.Status != documentModel.StatusDeleted {
			return existing, nil
		}
	}
	if err != nil {
		return meta, fmt.Errorf("upsert metadata for %s: %w", meta.Path, err)
	}
	return meta, nil
}

// FindByPath returns the most recently written record for path.
func (s *MetadataStore) FindByPath(ctx context.Context, path string) (documentModel.DocumentMetadata, bool, error) {
	var row documentRow
	err := s.db.WithContext(ctx).Where("path = ?", path).Order("updated_at DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return documentModel.DocumentMetadata{}, false, nil
	} else if err != nil {
		return documentModel.DocumentMetadata{}, false, err
	}
	return row.toModel(), true, nil
}

func (s *MetadataStore) GetByID(ctx context.Context, id string) (documentModel.DocumentMetadata, bool, error) {
	var row documentRow
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return documentModel.DocumentMetadata{}, false, nil
	} else if err != nil {
		return documentModel.DocumentMetadata{}, false, err
	}
	return row.toModel(), true, nil
}

func (s *MetadataStore) MarkDeleted(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).
		Model(&documentRow{}).
		Where("id = ?", id).
		Update("status", string(documentModel.StatusDeleted)).Error
}
