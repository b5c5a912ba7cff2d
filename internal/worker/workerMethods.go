package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/akolanti/studyfellow/internal/config"
	jobmodel "github.com/akolanti/studyfellow/internal/domain/jobModel"
	"github.com/akolanti/studyfellow/internal/metrics"
)

func executeJob(job jobmodel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureJobMetrics(string(job.JobType)+"_"+string(job.Status), time.Since(start))
	}()
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, config.JobTimeout)
	defer cancel()
	log := logger.WithTrace(ctxTrace).With("jobId", job.Id, "jobType", job.JobType, "attempt", job.Attempt)
	log.Debug("Processing job")

	job.Status = jobmodel.JobStatusRunning
	saveJobState(ctx, job)

	job = _ingestService.ProcessJob(ctx, job)

	if shouldRetry(job) {
		saveJobState(ctxTrace, job)
		scheduleRetry(job)
		return
	}

	job.EndTime = time.Now()
	saveJobState(ctxTrace, job)
	log.Info("Job finished", "status", job.Status, "step", job.CurrentStep)
}

func shouldRetry(job jobmodel.Job) bool {
	return job.Status == jobmodel.JobStatusError && job.Error.Retry && job.Attempt < config.MaxJobAttempts
}

// scheduleRetry re-queues a failed job after a backoff that grows with each
// attempt. Storage events are redelivered this way because every step of the
// pipeline is idempotent.
func scheduleRetry(job jobmodel.Job) {
	delay := retryBackoff * time.Duration(job.Attempt)
	job.Attempt++
	metrics.CountJobRetry(string(job.JobType))
	logger.Warn("Retrying job", "jobId", job.Id, "attempt", job.Attempt, "delay", delay, "error", job.Error.Message)

	time.AfterFunc(delay, func() {
		ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
		ctx, cancel := context.WithTimeout(ctx, config.JobTimeout)
		defer cancel()
		if err := _jobService.Enqueue(ctx, job); err != nil {
			logger.Error("Failed to re-queue job", "jobId", job.Id, "error", err)
		}
	})
}

func removeWorker(reason string) {
	atomic.AddInt64(&currentWorkerCount, -1)
	retireWorker(reason)
}

// retireWorker releases a worker whose slot has already been taken off
// currentWorkerCount.
func retireWorker(reason string) {
	metrics.DecrementActiveWorkerCount()
	logger.Info("Removed worker", "reason", reason, "workerCount", atomic.LoadInt64(&currentWorkerCount))
	workerWaitGroup.Done()
}

func saveJobState(ctx context.Context, job jobmodel.Job) {
	if err := _jobService.JobStore.SaveJob(ctx, job); err != nil {
		logger.Error("Failed to update job state", "jobId", job.Id, "status", job.Status, "error", err)
	}
}
