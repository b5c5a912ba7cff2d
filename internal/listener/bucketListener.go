// Package listener subscribes to bucket notifications and turns object
// created/removed records into the same jobs the HTTP event routes queue.
package listener

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/akolanti/studyfellow/internal/adapter"
	"github.com/akolanti/studyfellow/internal/adapter/utils"
	"github.com/akolanti/studyfellow/internal/config"
	"github.com/akolanti/studyfellow/internal/domain/jobModel"
	"github.com/akolanti/studyfellow/pkg/logger_i"
	"github.com/minio/minio-go/v7/pkg/notification"
)

const (
	createdPrefix   = "s3:ObjectCreated:"
	removedPrefix   = "s3:ObjectRemoved:"
	reconnectDelay  = 5 * time.Second
	enqueueDeadline = 30 * time.Second
)

// Source is the notification half of *minio.Client.
type Source interface {
	ListenBucketNotification(ctx context.Context, bucketName, prefix, suffix string, events []string) <-chan notification.Info
}

type Enqueuer interface {
	Enqueue(ctx context.Context, job jobModel.Job) error
}

type BucketListener struct {
	source Source
	bucket string
	jobs   Enqueuer
	logger *logger_i.Logger
	delay  time.Duration
}

func NewBucketListener(source Source, bucket string, jobs Enqueuer) *BucketListener {
	return &BucketListener{
		source: source,
		bucket: bucket,
		jobs:   jobs,
		logger: logger_i.NewLogger("BucketListener"),
		delay:  reconnectDelay,
	}
}

// Run blocks until ctx is cancelled, re-subscribing whenever the
// notification stream ends.
func (l *BucketListener) Run(ctx context.Context) {
	events := []string{string(notification.ObjectCreatedAll), string(notification.ObjectRemovedAll)}
	l.logger.Info("Listening for bucket notifications", "bucket", l.bucket, "prefix", config.SourcePrefix)

	for {
		for info := range l.source.ListenBucketNotification(ctx, l.bucket, config.SourcePrefix, "", events) {
			if info.Err != nil {
				l.logger.Error("Bucket notification error", "error", info.Err)
				continue
			}
			l.dispatch(ctx, info)
		}

		select {
		case <-ctx.Done():
			l.logger.Info("Bucket listener stopped")
			return
		case <-time.After(l.delay):
			l.logger.Warn("Bucket notification stream closed, reconnecting")
		}
	}
}

func (l *BucketListener) dispatch(ctx context.Context, info notification.Info) {
	for _, j := range ToJobs(info) {
		enqueueCtx, cancel := context.WithTimeout(context.WithValue(ctx, config.TRACE_ID_KEY, j.TraceId), enqueueDeadline)
		if err := l.jobs.Enqueue(enqueueCtx, j); err != nil {
			l.logger.WithTrace(enqueueCtx).Error("Could not queue bucket event", "error", err, "name", j.Event.Name)
		}
		cancel()
	}
}

// ToJobs converts the records of one notification into queued jobs. Records
// for other event kinds are ignored. Keys arrive URL encoded.
func ToJobs(info notification.Info) []jobModel.Job {
	jobs := make([]jobModel.Job, 0, len(info.Records))
	for _, record := range info.Records {
		var jobType jobModel.JobType
		switch {
		case strings.HasPrefix(record.EventName, createdPrefix):
			jobType = jobModel.JobTypeSplit
		case strings.HasPrefix(record.EventName, removedPrefix):
			jobType = jobModel.JobTypeCascade
		default:
			continue
		}

		key, err := url.QueryUnescape(record.S3.Object.Key)
		if err != nil {
			key = record.S3.Object.Key
		}

		created, err := time.Parse(time.RFC3339, record.EventTime)
		if err != nil {
			created = time.Time{}
		}

		event := jobModel.StorageEvent{
			Name:           key,
			Bucket:         record.S3.Bucket.Name,
			ContentType:    record.S3.Object.ContentType,
			Size:           jobModel.FlexInt(record.S3.Object.Size),
			TimeCreated:    created,
			Metageneration: 1,
		}
		jobs = append(jobs, adapter.ToNewJob(utils.GetNewUUID(), utils.GetNewUUID(), jobType, event))
	}
	return jobs
}
