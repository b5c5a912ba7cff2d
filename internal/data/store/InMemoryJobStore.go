package store

import (
	"context"

	"github.com/akolanti/studyfellow/internal/config"
	"github.com/akolanti/studyfellow/internal/domain/jobModel"
	"github.com/akolanti/studyfellow/pkg/logger_i"
	"github.com/patrickmn/go-cache"
)

// InMemoryJobStore keeps job state for the same TTL the redis store uses, so
// a long running process without redis does not grow without bound.
type InMemoryJobStore struct {
	jobs   *cache.Cache
	logger *logger_i.Logger
}

func InitInMemoryJobStore() *InMemoryJobStore {
	return &InMemoryJobStore{
		jobs:   cache.New(config.RedisJobStoreTTL, config.RedisJobStoreTTL/4),
		logger: logger_i.NewLogger("InMem JobStore"),
	}
}

func (store *InMemoryJobStore) SaveJob(ctx context.Context, job jobModel.Job) error {
	store.jobs.Set(job.Id, job, cache.DefaultExpiration)
	store.logger.WithTrace(ctx).Debug("Saved job to store", "jobId", job.Id, "status", job.Status, "step", job.CurrentStep)
	return nil
}

func (store *InMemoryJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	x, found := store.jobs.Get(jobId)
	if !found {
		return jobModel.Job{}, false
	}
	return x.(jobModel.Job), true
}

func (store *InMemoryJobStore) DeleteJob(ctx context.Context, jobID string) {
	store.jobs.Delete(jobID)
}
