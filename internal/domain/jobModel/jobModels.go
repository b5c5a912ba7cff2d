package jobModel

import (
	"context"
	"encoding/json"
	"strconv"
	"time"
)

type JobStatus string
type InternalStatus string

type JobType string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusSkipped  JobStatus = "SKIPPED"
	JobStatusError    JobStatus = "Error"

	EventReceived InternalStatus = "EventReceived"
	BlobDownload  InternalStatus = "BlobDownload"
	PageSplit     InternalStatus = "PageSplit"
	MetadataWrite InternalStatus = "MetadataWrite"
	MetadataMark  InternalStatus = "MetadataMark"
	BlobCleanup   InternalStatus = "BlobCleanup"
	Complete      InternalStatus = "Complete"

	JobTypeSplit   JobType = "Split"
	JobTypeCascade JobType = "Cascade"
)

type Job struct {
	Id          string         `json:"id"`
	TraceId     string         `json:"trace_id"`
	JobType     JobType        `json:"job_type"`
	Event       StorageEvent   `json:"event"`
	Result      JobResult      `json:"result,omitempty"`
	Error       JobError       `json:"error,omitempty"`
	Attempt     int            `json:"attempt"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type JobResult struct {
	DocumentID string   `json:"document_id,omitempty"`
	TotalPages int      `json:"total_pages,omitempty"`
	PagePaths  []string `json:"page_paths,omitempty"`
	Removed    int      `json:"removed,omitempty"`
	SkipReason string   `json:"skip_reason,omitempty"`
}

// StorageEvent is the object resource delivered with finalize and delete
// notifications. Size and metageneration arrive as JSON strings from some
// senders and as numbers from others.
type StorageEvent struct {
	Name           string    `json:"name"`
	Bucket         string    `json:"bucket"`
	ContentType    string    `json:"contentType"`
	Size           FlexInt   `json:"size"`
	TimeCreated    time.Time `json:"timeCreated"`
	Metageneration FlexInt   `json:"metageneration"`
}

type FlexInt int64

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexInt(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*f = FlexInt(n)
	return nil
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}
