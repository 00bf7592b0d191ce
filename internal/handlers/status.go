package handlers

import (
	"errors"
	"net/http"

	"github.com/devbrief/devbrief/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type RepositoryStatusResponse struct {
	RepositoryID string `json:"repositoryId"`
	Status       string `json:"status"`
	Processed    bool   `json:"processed"`
	Summary      string `json:"summary,omitempty"`
	FileCount    int    `json:"fileCount"`
	TotalSize    int64  `json:"totalSize"`
}

type MeetingStatusResponse struct {
	MeetingID   string  `json:"meetingId"`
	Status      string  `json:"status"`
	Title       string  `json:"title,omitempty"`
	Summary     string  `json:"summary,omitempty"`
	NumSegments int     `json:"numSegments"`
	Length      float64 `json:"length,omitempty"`
}

func (h *Handler) GetRepositoryStatus(w http.ResponseWriter, r *http.Request) {
	repository, err := h.repositories.GetRepository(r.Context(), chi.URLParam(r, "repositoryId"))
	if err != nil {
		respondResourceError(w, r, err)
		return
	}

	render.JSON(w, r, RepositoryStatusResponse{
		RepositoryID: repository.ID,
		Status:       repository.EmbeddingStatus,
		Processed:    repository.Processed,
		Summary:      repository.Summary,
		FileCount:    repository.FileCount,
		TotalSize:    repository.TotalSize,
	})
}

func (h *Handler) GetMeetingStatus(w http.ResponseWriter, r *http.Request) {
	meeting, err := h.meetings.GetMeeting(r.Context(), chi.URLParam(r, "meetingId"))
	if err != nil {
		respondResourceError(w, r, err)
		return
	}

	render.JSON(w, r, MeetingStatusResponse{
		MeetingID:   meeting.ID,
		Status:      meeting.Status,
		Title:       meeting.Title,
		Summary:     meeting.Summary,
		NumSegments: meeting.NumSegments,
		Length:      meeting.Length,
	})
}

type RepositoryFileResponse struct {
	Path     string `json:"path"`
	Summary  string `json:"summary,omitempty"`
	Language string `json:"language,omitempty"`
	Size     int64  `json:"size"`
}

func (h *Handler) ListRepositoryFiles(w http.ResponseWriter, r *http.Request) {
	repositoryID := chi.URLParam(r, "repositoryId")
	if _, err := h.repositories.GetRepository(r.Context(), repositoryID); err != nil {
		respondResourceError(w, r, err)
		return
	}

	files, err := h.repositories.ListFiles(r.Context(), repositoryID)
	if err != nil {
		respondResourceError(w, r, err)
		return
	}

	resp := make([]RepositoryFileResponse, 0, len(files))
	for _, file := range files {
		resp = append(resp, RepositoryFileResponse{
			Path:     file.Path,
			Summary:  file.Summary,
			Language: file.Language,
			Size:     file.Size,
		})
	}
	render.JSON(w, r, resp)
}

type MeetingSegmentResponse struct {
	SegmentIndex int     `json:"segmentIndex"`
	Title        string  `json:"title,omitempty"`
	Summary      string  `json:"summary,omitempty"`
	StartTime    float64 `json:"startTime"`
	EndTime      float64 `json:"endTime"`
}

func (h *Handler) ListMeetingSegments(w http.ResponseWriter, r *http.Request) {
	meetingID := chi.URLParam(r, "meetingId")
	if _, err := h.meetings.GetMeeting(r.Context(), meetingID); err != nil {
		respondResourceError(w, r, err)
		return
	}

	segments, err := h.meetings.ListSegments(r.Context(), meetingID)
	if err != nil {
		respondResourceError(w, r, err)
		return
	}

	resp := make([]MeetingSegmentResponse, 0, len(segments))
	for _, segment := range segments {
		resp = append(resp, MeetingSegmentResponse{
			SegmentIndex: segment.SegmentIndex,
			Title:        segment.Title,
			Summary:      segment.Summary,
			StartTime:    segment.StartTime,
			EndTime:      segment.EndTime,
		})
	}
	render.JSON(w, r, resp)
}

func respondResourceError(w http.ResponseWriter, r *http.Request, err error) {
	var notFound *service.ErrResourceNotFound
	if errors.As(err, &notFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, ErrorResponse{Error: notFound.Error()})
		return
	}
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, ErrorResponse{Error: "failed to load resource"})
}
