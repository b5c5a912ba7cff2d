package ingest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/akolanti/studyfellow/internal/domain/jobModel"
	"github.com/akolanti/studyfellow/internal/metrics"
	"github.com/akolanti/studyfellow/pkg/logger_i"
)

// Service is what the worker pool sees of the ingestion pipeline. The
// splitter and cascade stay private so tests can swap storage underneath
// without touching the worker.
type Service interface {
	ProcessJob(ctx context.Context, job jobModel.Job) jobModel.Job
}

type service struct {
	splitter *Splitter
	cascade  *Cascade
	logger   *logger_i.Logger
}

func NewService(splitter *Splitter, cascade *Cascade) Service {
	return &service{
		splitter: splitter,
		cascade:  cascade,
		logger:   logger_i.NewLogger("Ingest Service"),
	}
}

func (s *service) ProcessJob(ctx context.Context, job jobModel.Job) jobModel.Job {
	log := s.logger.WithTrace(ctx).With("jobId", job.Id, "jobType", job.JobType)

	switch job.JobType {
	case jobModel.JobTypeSplit:
		return s.split(ctx, log, job)
	case jobModel.JobTypeCascade:
		return s.deleteCascade(ctx, log, job)
	default:
		return s.jobError(log, job, fmt.Errorf("unknown job type %q", job.JobType), http.StatusBadRequest, false)
	}
}

func (s *service) split(ctx context.Context, log *logger_i.Logger, job jobModel.Job) jobModel.Job {
	job = logStep(job, jobModel.BlobDownload, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("split_document", time.Since(start)) }()

	result, err := s.splitter.HandleFinalize(ctx, job.Event)
	if err != nil {
		job.Result.PagePaths = result.PagePaths
		return s.jobError(log, job, err, http.StatusServiceUnavailable, true)
	}
	if result.Skipped {
		return skipped(job, result.SkipReason)
	}

	job.Result = jobModel.JobResult{
		DocumentID: result.Metadata.ID,
		TotalPages: result.Metadata.TotalPages,
		PagePaths:  result.PagePaths,
	}
	return complete(job)
}

func (s *service) deleteCascade(ctx context.Context, log *logger_i.Logger, job jobModel.Job) jobModel.Job {
	job = logStep(job, jobModel.MetadataMark, log)

	result, err := s.cascade.HandleDelete(ctx, job.Event)
	job.Result = jobModel.JobResult{DocumentID: result.DocumentID, Removed: result.Removed}
	if err != nil {
		return s.jobError(log, job, err, http.StatusServiceUnavailable, true)
	}
	if result.Skipped {
		return skipped(job, result.SkipReason)
	}
	return complete(job)
}

func logStep(job jobModel.Job, step jobModel.InternalStatus, log *logger_i.Logger) jobModel.Job {
	job.CurrentStep = step
	log.Debug("ProcessJob", "Current Status", job.CurrentStep)
	return job
}

func complete(job jobModel.Job) jobModel.Job {
	job.CurrentStep = jobModel.Complete
	job.Status = jobModel.JobStatusComplete
	job.Error = jobModel.JobError{}
	return job
}

func skipped(job jobModel.Job, reason string) jobModel.Job {
	job.CurrentStep = jobModel.Complete
	job.Status = jobModel.JobStatusSkipped
	job.Result.SkipReason = reason
	job.Error = jobModel.JobError{}
	return job
}

func (s *service) jobError(log *logger_i.Logger, job jobModel.Job, err error, code int, canRetry bool) jobModel.Job {
	log.Error("Job failed", "error", err, "step", job.CurrentStep, "retry", canRetry)

	job.Error = jobModel.JobError{
		Code:    code,
		Message: err.Error(),
		Retry:   canRetry,
	}
	job.Status = jobModel.JobStatusError
	return job
}
