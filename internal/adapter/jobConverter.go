package adapter

import (
	"fmt"
	"time"

	"github.com/akolanti/studyfellow/internal/api"
	"github.com/akolanti/studyfellow/internal/domain/jobModel"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("status/%s", id), //pass "status/job.Id"
	}
}

func ToStorageEvent(req api.StorageEventRequest) jobModel.StorageEvent {
	return jobModel.StorageEvent{
		Name:           req.Name,
		Bucket:         req.Bucket,
		ContentType:    req.ContentType,
		Size:           req.Size,
		TimeCreated:    req.TimeCreated,
		Metageneration: req.Metageneration,
	}
}

// ToNewJob builds a queued job for a storage event.
func ToNewJob(id, traceID string, jobType jobModel.JobType, event jobModel.StorageEvent) jobModel.Job {
	return jobModel.Job{
		Id:          id,
		TraceId:     traceID,
		JobType:     jobType,
		Event:       event,
		Attempt:     1,
		CreatedTime: time.Now(),
		Status:      jobModel.JobStatusQueued,
		CurrentStep: jobModel.EventReceived,
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {

	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	result := api.Result{
		Status:   string(job.Status),
		Step:     string(job.CurrentStep),
		Document: ToDocumentResult(job.Result),
	}

	return api.JobResponse{
		Id:        job.Id,
		JobType:   string(job.JobType),
		Attempt:   job.Attempt,
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
		Error:     errorPtr,
		Result:    result,
	}
}

func ToDocumentResult(r jobModel.JobResult) *api.DocumentResult {
	if r.DocumentID == "" && r.SkipReason == "" && len(r.PagePaths) == 0 && r.Removed == 0 {
		return nil
	}

	return &api.DocumentResult{
		DocumentID: r.DocumentID,
		TotalPages: r.TotalPages,
		PagePaths:  r.PagePaths,
		Removed:    r.Removed,
		SkipReason: r.SkipReason,
	}
}

func BadRequest(id string, error string, code int) api.JobResponse {
	return api.JobResponse{
		Id:        id,
		StartTime: time.Time{},
		EndTime:   time.Time{},
		Result: api.Result{
			Status: string(api.JobStatusError),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: error,
			Retry:   false,
		},
	}
}

func ToChatResponse(reply string) api.ChatResponse {
	return api.ChatResponse{Success: true, AIResponse: reply}
}

func ToChatError(message string) api.ChatResponse {
	return api.ChatResponse{Success: false, Error: message}
}
