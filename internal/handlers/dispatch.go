package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/devbrief/devbrief/internal/service"
	"github.com/devbrief/devbrief/internal/store/model"
	"github.com/go-chi/render"
	"go.uber.org/zap"
)

// DispatchRequest is the body accepted by the three process endpoints. Which
// entity field is required depends on the endpoint.
type DispatchRequest struct {
	RepositoryID string          `json:"repositoryId,omitempty"`
	QuestionID   string          `json:"questionId,omitempty"`
	MeetingID    string          `json:"meetingId,omitempty"`
	UserID       string          `json:"userId"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

type DispatchResponse struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) ProcessRepository(w http.ResponseWriter, r *http.Request) {
	h.process(w, r, model.JobTypeRepository, func(req *DispatchRequest) string { return req.RepositoryID })
}

func (h *Handler) ProcessQuestion(w http.ResponseWriter, r *http.Request) {
	h.process(w, r, model.JobTypeQuestion, func(req *DispatchRequest) string { return req.QuestionID })
}

func (h *Handler) ProcessMeeting(w http.ResponseWriter, r *http.Request) {
	h.process(w, r, model.JobTypeMeeting, func(req *DispatchRequest) string { return req.MeetingID })
}

func (h *Handler) process(w http.ResponseWriter, r *http.Request, jobType string, entityID func(*DispatchRequest) string) {
	var req DispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "invalid request body"})
		return
	}

	id := entityID(&req)
	if id == "" || req.UserID == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: jobType + " id and userId are required"})
		return
	}

	job, err := h.dispatcher.Submit(r.Context(), jobType, id, req.UserID, req.Payload)
	if err != nil {
		var invalidType *service.ErrInvalidJobType
		if errors.As(err, &invalidType) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Error: invalidType.Error()})
			return
		}
		zap.S().Named("handlers").Errorw("failed to dispatch job", "type", jobType, "entity_id", id, "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{Error: "failed to dispatch job"})
		return
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, DispatchResponse{JobID: job.ID, Status: job.Status})
}
