package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/akolanti/studyfellow/internal/blob"
	"github.com/akolanti/studyfellow/internal/config"
	"github.com/akolanti/studyfellow/internal/domain/documentModel"
	"github.com/akolanti/studyfellow/internal/domain/jobModel"
	"github.com/akolanti/studyfellow/internal/layout"
	"github.com/akolanti/studyfellow/pkg/logger_i"
	"golang.org/x/sync/errgroup"
)

type CascadeResult struct {
	Skipped    bool
	SkipReason string
	DocumentID string
	Removed    int
}

// Cascade cleans up after a source upload is deleted: the metadata record is
// flagged and every split page is removed.
type Cascade struct {
	blobs    blob.Store
	metadata documentModel.MetadataStore
	logger   *logger_i.Logger
}

func NewCascade(blobs blob.Store, metadata documentModel.MetadataStore) *Cascade {
	return &Cascade{
		blobs:    blobs,
		metadata: metadata,
		logger:   logger_i.NewLogger("Deletion Cascade"),
	}
}

// HandleDelete always attempts both steps. Errors from either are joined and
// returned so the event is redelivered; both steps are safe to repeat.
func (c *Cascade) HandleDelete(ctx context.Context, event jobModel.StorageEvent) (CascadeResult, error) {
	log := c.logger.WithTrace(ctx).With("path", event.Name)

	if !layout.AcceptsDeletion(event.Name, event.ContentType) {
		log.Debug("Skipping deletion outside source uploads", "contentType", event.ContentType)
		return CascadeResult{Skipped: true, SkipReason: "not a source pdf"}, nil
	}

	var result CascadeResult
	metaErr := c.markDeleted(ctx, log, event.Name, &result)

	removed, blobErr := c.removeSplitPages(ctx, layout.SplitDir(event.Name))
	result.Removed = removed

	if err := errors.Join(metaErr, blobErr); err != nil {
		log.Error("Deletion cascade incomplete", "error", err, "removed", removed)
		return result, err
	}
	log.Info("Deletion cascade complete", "documentId", result.DocumentID, "removed", removed)
	return result, nil
}

func (c *Cascade) markDeleted(ctx context.Context, log *logger_i.Logger, path string, result *CascadeResult) error {
	meta, found, err := c.metadata.FindByPath(ctx, path)
	if err != nil {
		return fmt.Errorf("find metadata for %s: %w", path, err)
	}
	if !found {
		log.Info("No metadata recorded for deleted document")
		return nil
	}
	result.DocumentID = meta.ID
	if err := c.metadata.MarkDeleted(ctx, meta.ID); err != nil {
		return fmt.Errorf("mark %s deleted: %w", meta.ID, err)
	}
	return nil
}

func (c *Cascade) removeSplitPages(ctx context.Context, prefix string) (int, error) {
	names, err := c.blobs.List(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", prefix, err)
	}
	if len(names) == 0 {
		return 0, nil
	}

	var (
		removed int64
		mu      sync.Mutex
		errs    []error
	)
	// every delete is attempted even when some fail
	var g errgroup.Group
	g.SetLimit(config.CascadeDeleteConcurrency)
	for _, name := range names {
		g.Go(func() error {
			if err := c.blobs.Delete(ctx, name); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("delete %s: %w", name, err))
				mu.Unlock()
				return nil
			}
			atomic.AddInt64(&removed, 1)
			return nil
		})
	}
	_ = g.Wait()
	return int(removed), errors.Join(errs...)
}
