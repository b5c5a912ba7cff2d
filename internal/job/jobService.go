package job

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/akolanti/studyfellow/internal/config"
	"github.com/akolanti/studyfellow/internal/domain/jobModel"
	"github.com/akolanti/studyfellow/internal/metrics"
	"github.com/akolanti/studyfellow/pkg/logger_i"
)

type Service struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
}

type ServiceConfig struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
}

func InitJobService(cfg ServiceConfig) *Service {
	return &Service{
		JobChannel:        cfg.JobChannel,
		RequestCount:      cfg.RequestCount,
		DispatcherChannel: cfg.DispatcherChannel,
		JobStore:          cfg.JobStore,
	}
}

// Enqueue records the job as queued and hands it to the worker pool. The
// send blocks while the buffer is full so a burst of events cannot overwhelm
// the pool; ctx bounds that wait.
func (s *Service) Enqueue(ctx context.Context, job jobModel.Job) error {
	log := logger_i.NewLogger("JobService").WithTrace(ctx).With("jobId", job.Id, "jobType", job.JobType)

	job.Status = jobModel.JobStatusQueued
	if err := s.JobStore.SaveJob(ctx, job); err != nil {
		log.Error("Failed to save queued job", "error", err)
		return fmt.Errorf("save job %s: %w", job.Id, err)
	}

	select {
	case s.JobChannel <- job:
	case <-ctx.Done():
		return fmt.Errorf("enqueue job %s: %w", job.Id, ctx.Err())
	}
	metrics.IncrementJobsInQueue()
	log.Info("Queued job", "attempt", job.Attempt)

	//a split reads a whole PDF from the blob store, so it always asks for
	//another worker; the dispatcher caps the pool at MaxWorkerCount
	accurateCount := atomic.AddInt64(&s.RequestCount, 1)
	if accurateCount%config.RequestsPerNewWorkerCount == 0 || job.JobType == jobModel.JobTypeSplit {
		select {
		case s.DispatcherChannel <- true:
			metrics.StartDispatcherSignalCount()
		default:
			log.Debug("Dispatcher busy, skipping worker signal", "requestCount", accurateCount)
		}
	}
	return nil
}

// GetJob reads the latest recorded state of a job.
func (s *Service) GetJob(ctx context.Context, id string) (jobModel.Job, bool) {
	if id == "" {
		return jobModel.Job{}, false
	}
	return s.JobStore.GetJob(ctx, id)
}
