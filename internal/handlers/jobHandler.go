package handlers

import (
	"net/http"

	"github.com/akolanti/studyfellow/internal/adapter"
	"github.com/akolanti/studyfellow/internal/adapter/utils"
	"github.com/akolanti/studyfellow/internal/api"
	"github.com/akolanti/studyfellow/internal/domain/jobModel"
	"github.com/akolanti/studyfellow/internal/job"
	"github.com/akolanti/studyfellow/pkg/logger_i"
)

// JobHandler turns storage notifications into queued jobs and reports their
// state.
type JobHandler struct {
	service *job.Service
	logger  *logger_i.Logger
}

func NewJobHandler(jobService *job.Service) *JobHandler {
	return &JobHandler{
		service: jobService,
		logger:  logger_i.NewLogger("JobHandler"),
	}
}

// FinalizeEventHandler godoc
// @Summary      Storage object finalized
// @Description  Queues a split job for an uploaded object. Non PDF objects and metadata updates are recorded as SKIPPED.
// @Tags         Storage Events
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      api.StorageEventRequest  true  "Storage object resource"
// @Success      202      {object}  api.InitJobResponse      "Job successfully created"
// @Failure      400      {object}  api.JobResponse          "Malformed event"
// @Failure      503      {object}  api.JobResponse          "Job could not be queued"
// @Router       /events/storage/finalize [post]
func (h *JobHandler) FinalizeEventHandler(w http.ResponseWriter, r *http.Request) {
	h.createEventJob(w, r, jobModel.JobTypeSplit)
}

// DeleteEventHandler godoc
// @Summary      Storage object deleted
// @Description  Queues a cascade job that marks the document deleted and removes its split pages.
// @Tags         Storage Events
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      api.StorageEventRequest  true  "Storage object resource"
// @Success      202      {object}  api.InitJobResponse      "Job successfully created"
// @Failure      400      {object}  api.JobResponse          "Malformed event"
// @Failure      503      {object}  api.JobResponse          "Job could not be queued"
// @Router       /events/storage/delete [post]
func (h *JobHandler) DeleteEventHandler(w http.ResponseWriter, r *http.Request) {
	h.createEventJob(w, r, jobModel.JobTypeCascade)
}

func (h *JobHandler) createEventJob(w http.ResponseWriter, r *http.Request, jobType jobModel.JobType) {
	if !validateContext(r.Context(), h.logger) {
		return
	}
	log := h.logger.WithTrace(r.Context())

	var requestData api.StorageEventRequest
	if err := decodeJSON(r, &requestData); err != nil {
		log.Warn("Bad storage event", "error", err, "jobType", jobType)
		WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
		return
	}

	newJob := adapter.ToNewJob(utils.GetNewUUID(), traceID(r.Context()), jobType, adapter.ToStorageEvent(requestData))
	if err := h.service.Enqueue(r.Context(), newJob); err != nil {
		log.Error("Could not queue storage event", "error", err, "name", requestData.Name)
		WriteErrorResponse(w, http.StatusServiceUnavailable, newJob.Id, "Job could not be queued")
		return
	}

	log.Info("Created storage event job", "jobId", newJob.Id, "jobType", jobType, "name", requestData.Name)
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.Id))
}

// GetStatusHandler godoc
// @Summary      Get job status
// @Description  Retrieves the current status of a specific job using its ID.
// @Tags         Job Status
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Job ID "
// @Success      200  {object}  api.JobResponse   "Successful retrieval of job status"
// @Failure      404  {object}  api.JobResponse   "Job not found (returns Error object within JobResponse)"
// @Router       /status/{id} [get]
func (h *JobHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context(), h.logger) {
		return
	}
	//use chi get the url id
	idString := utils.GetChiURLParam(r, "id")
	h.logger.WithTrace(r.Context()).Debug("Get Status Request", "URL path", r.URL.Path)

	result, isFound := h.service.GetJob(r.Context(), idString)
	if !isFound {
		WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
		return
	}

	writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
}

func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
