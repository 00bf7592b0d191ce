package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/devbrief/devbrief/internal/store/model"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type JobResponse struct {
	JobID      string          `json:"jobId"`
	Type       string          `json:"type"`
	EntityID   string          `json:"entityId"`
	EntityType string          `json:"entityType"`
	Status     string          `json:"status"`
	Progress   int             `json:"progress"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func newJobResponse(job *model.Job) JobResponse {
	resp := JobResponse{
		JobID:      job.ID,
		Type:       job.Type,
		EntityID:   job.EntityID,
		EntityType: job.EntityType,
		Status:     job.Status,
		Progress:   job.Progress,
		Error:      job.Error,
		CreatedAt:  job.CreatedAt,
		UpdatedAt:  job.UpdatedAt,
	}
	if job.Result != nil {
		resp.Result = job.Result.Data
	}
	return resp
}

func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	h.respondJob(w, r, chi.URLParam(r, "jobId"))
}

func (h *Handler) GetTaskStatus(w http.ResponseWriter, r *http.Request) {
	h.respondJob(w, r, chi.URLParam(r, "taskId"))
}

func (h *Handler) respondJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.jobs.GetJob(r.Context(), jobID)
	if err != nil {
		respondResourceError(w, r, err)
		return
	}

	render.JSON(w, r, newJobResponse(job))
}
