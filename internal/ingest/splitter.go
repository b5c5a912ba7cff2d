package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/studyfellow/internal/blob"
	"github.com/akolanti/studyfellow/internal/config"
	"github.com/akolanti/studyfellow/internal/domain/documentModel"
	"github.com/akolanti/studyfellow/internal/domain/jobModel"
	"github.com/akolanti/studyfellow/internal/layout"
	"github.com/akolanti/studyfellow/internal/metrics"
	"github.com/akolanti/studyfellow/pkg/logger_i"
)

type SplitResult struct {
	Skipped    bool
	SkipReason string
	Metadata   documentModel.DocumentMetadata
	PagePaths  []string
}

// Splitter turns a finalized source upload into one single page PDF per page
// plus a metadata record.
type Splitter struct {
	blobs    blob.Store
	metadata documentModel.MetadataStore
	engine   PageEngine
	logger   *logger_i.Logger
}

func NewSplitter(blobs blob.Store, metadata documentModel.MetadataStore, engine PageEngine) *Splitter {
	return &Splitter{
		blobs:    blobs,
		metadata: metadata,
		engine:   engine,
		logger:   logger_i.NewLogger("Document Splitter"),
	}
}

// HandleFinalize returns an error only for storage failures; the event should
// be redelivered in that case. Unreadable documents still get a metadata
// record with zero pages.
func (s *Splitter) HandleFinalize(ctx context.Context, event jobModel.StorageEvent) (SplitResult, error) {
	log := s.logger.WithTrace(ctx).With("path", event.Name)

	if event.Metageneration > 1 {
		log.Info("Skipping metadata-only update", "metageneration", int64(event.Metageneration))
		return SplitResult{Skipped: true, SkipReason: "metadata update"}, nil
	}
	if !layout.AcceptsUpload(event.Name, event.ContentType) {
		log.Debug("Skipping object outside source uploads", "contentType", event.ContentType)
		return SplitResult{Skipped: true, SkipReason: "not a source pdf"}, nil
	}

	start := time.Now()
	data, err := s.blobs.Get(ctx, event.Name)
	metrics.CaptureExecutionMetrics("blob_get", time.Since(start))
	if err != nil {
		return SplitResult{}, fmt.Errorf("download %s: %w", event.Name, err)
	}

	info, err := s.engine.Inspect(ctx, data)
	if err != nil {
		log.Warn("Could not read page count, recording zero pages", "error", err)
		info = PDFInfo{}
	}
	log.Debug("Inspected source", "pages", info.Pages, "bytes", len(data))

	created := event.TimeCreated
	if created.IsZero() {
		created = time.Now().UTC()
	}
	meta, err := s.metadata.UpsertByPath(ctx, documentModel.DocumentMetadata{
		Path:       event.Name,
		FileName:   layout.FileName(event.Name),
		FileSize:   int64(event.Size),
		Subject:    layout.Subject(event.Name),
		Title:      info.Title,
		TotalPages: info.Pages,
		Status:     documentModel.StatusUnprocessed,
		CreatedAt:  created,
	})
	if err != nil {
		return SplitResult{}, fmt.Errorf("write metadata for %s: %w", event.Name, err)
	}

	// metadata exists before any page so a page write that never succeeds
	// still leaves the upload recorded; redelivery reuses the same record
	pagePaths, err := s.writePages(ctx, log, event.Name, data, info.Pages)
	if err != nil {
		return SplitResult{Metadata: meta, PagePaths: pagePaths}, err
	}

	log.Info("Split document", "documentId", meta.ID, "pages", info.Pages, "written", len(pagePaths))
	return SplitResult{Metadata: meta, PagePaths: pagePaths}, nil
}

// writePages runs page by page so at most one extracted page is held at a
// time.
func (s *Splitter) writePages(ctx context.Context, log *logger_i.Logger, sourcePath string, data []byte, total int) ([]string, error) {
	var written []string
	for page := 1; page <= total; page++ {
		single, err := s.engine.ExtractPage(ctx, data, page)
		if err != nil {
			if ctx.Err() != nil {
				return written, ctx.Err()
			}
			log.Warn("Skipping page that could not be extracted", "page", page, "error", err)
			continue
		}

		target := layout.SplitPagePath(sourcePath, page)
		start := time.Now()
		err = s.blobs.Put(ctx, target, single, config.PDFContentType)
		metrics.CaptureExecutionMetrics("blob_put", time.Since(start))
		if err != nil {
			return written, fmt.Errorf("write page %d of %s: %w", page, sourcePath, err)
		}
		written = append(written, target)
	}
	metrics.AddSplitPages(len(written))
	return written, nil
}
