package handlers

import (
	"github.com/devbrief/devbrief/internal/dispatch"
	"github.com/devbrief/devbrief/internal/service"
	"github.com/go-chi/chi/v5"
)

// Handler is the thin HTTP surface: validate, dispatch, poll. All logic
// lives in the dispatcher and the processors.
type Handler struct {
	dispatcher   *dispatch.Dispatcher
	jobs         *service.JobService
	repositories *service.RepositoryService
	meetings     *service.MeetingService
}

func New(dispatcher *dispatch.Dispatcher, jobs *service.JobService, repositories *service.RepositoryService, meetings *service.MeetingService) *Handler {
	return &Handler{
		dispatcher:   dispatcher,
		jobs:         jobs,
		repositories: repositories,
		meetings:     meetings,
	}
}

func (h *Handler) Routes(router chi.Router) {
	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/process-repository", h.ProcessRepository)
		r.Post("/process-question", h.ProcessQuestion)
		r.Post("/process-meeting", h.ProcessMeeting)
		r.Get("/job/{jobId}", h.GetJob)
		// legacy alias kept for older clients
		r.Get("/task-status/{taskId}", h.GetTaskStatus)
		r.Get("/repository/{repositoryId}", h.GetRepositoryStatus)
		r.Get("/repository/{repositoryId}/files", h.ListRepositoryFiles)
		r.Get("/meeting/{meetingId}", h.GetMeetingStatus)
		r.Get("/meeting/{meetingId}/segments", h.ListMeetingSegments)
	})
	router.Get("/health", h.Health)
}
