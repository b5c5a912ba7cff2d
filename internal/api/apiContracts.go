package api

import (
	"time"

	"github.com/akolanti/studyfellow/internal/domain/jobModel"
)

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	JobType   string            `json:"job_type,omitempty" example:"Split"`
	Result    Result            `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	Attempt   int               `json:"attempt,omitempty" example:"1"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type DocumentResult struct {
	DocumentID string   `json:"document_id,omitempty" example:"7f0c1f8e-8d2b-4a51-9f62-0b4f2f1d9a10"`
	TotalPages int      `json:"total_pages,omitempty" example:"12"`
	PagePaths  []string `json:"page_paths,omitempty"`
	Removed    int      `json:"removed,omitempty"`
	SkipReason string   `json:"skip_reason,omitempty"`
}

type Result struct {
	Status   string          `json:"status"`
	Step     string          `json:"step,omitempty"`
	Document *DocumentResult `json:"document,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

// requests---------------------

// StorageEventRequest is the object resource of a finalize or delete
// notification. Size and metageneration may be sent as strings.
type StorageEventRequest struct {
	Name           string           `json:"name" validate:"required" example:"raw_documents/physics/intro.pdf"`
	Bucket         string           `json:"bucket" example:"studyfellow-documents"`
	ContentType    string           `json:"contentType" example:"application/pdf"`
	Size           jobModel.FlexInt `json:"size,omitempty" swaggertype:"string" example:"52311"`
	TimeCreated    time.Time        `json:"timeCreated"`
	Metageneration jobModel.FlexInt `json:"metageneration,omitempty" swaggertype:"string" example:"1"`
}

type ChatRequest struct {
	RoomID string `json:"room_id,omitempty" validate:"required_without=PostID" example:"room_42"`
	PostID string `json:"post_id,omitempty" validate:"required_without=RoomID" example:"post_7"`
	UserID string `json:"user_id,omitempty" example:"user_1"`
}

type ChatResponse struct {
	Success    bool   `json:"success" example:"true"`
	AIResponse string `json:"ai_response,omitempty" example:"Newton's second law relates force to acceleration."`
	Error      string `json:"error,omitempty"`
}
