package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/devbrief/devbrief/internal/config"
	"github.com/devbrief/devbrief/internal/dispatch"
	"github.com/devbrief/devbrief/internal/queue"
	"github.com/devbrief/devbrief/internal/service"
	"github.com/devbrief/devbrief/internal/store"
	"github.com/devbrief/devbrief/internal/store/model"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

var testDBCounter atomic.Int64

func newTestRouter(t *testing.T) (chi.Router, store.Store) {
	cfg := config.NewDefault()
	cfg.Database.Type = "sqlite"
	cfg.Database.Name = fmt.Sprintf("file:handlers%d?mode=memory&cache=shared", testDBCounter.Add(1))

	db, err := store.InitDB(cfg)
	require.NoError(t, err)

	s := store.NewStore(db)
	require.NoError(t, s.InitialMigration(context.TODO()))
	t.Cleanup(func() { _ = s.Close() })

	dispatcher := dispatch.NewDispatcher(s, &noopQueue{}, &noopNotifier{}, nil)
	handler := New(dispatcher, service.NewJobService(s), service.NewRepositoryService(s), service.NewMeetingService(s))

	router := chi.NewRouter()
	handler.Routes(router)
	return router, s
}

type noopQueue struct{}

var _ queue.Queue = (*noopQueue)(nil)

func (q *noopQueue) Name() string                           { return "queue:work" }
func (q *noopQueue) Push(_ context.Context, _ []byte) error { return nil }
func (q *noopQueue) Len(_ context.Context) (int64, error)   { return 0, nil }

func (q *noopQueue) BPop(_ context.Context, _ time.Duration) ([]byte, error) {
	return nil, nil
}

type noopNotifier struct{}

var _ queue.Notifier = (*noopNotifier)(nil)

func (n *noopNotifier) Publish(_ context.Context, _ string, _ []byte) error { return nil }
func (n *noopNotifier) Subscribe(ctx context.Context, _ string) <-chan []byte {
	out := make(chan []byte)
	go func() {
		<-ctx.Done()
		close(out)
	}()
	return out
}

func TestProcessRepositoryAccepted(t *testing.T) {
	router, _ := newTestRouter(t)

	body := bytes.NewBufferString(`{"repositoryId":"repo-1","userId":"user-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/process-repository", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp DispatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.JobID)
	require.Equal(t, model.JobStatusQueued, resp.Status)
}

func TestProcessQuestionRequiresEntityAndUser(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, body := range []string{
		`{"userId":"user-1"}`,
		`{"questionId":"q-1"}`,
		`not json`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/process-question", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
	}
}

func TestGetJobRoundTrip(t *testing.T) {
	router, s := newTestRouter(t)

	body := bytes.NewBufferString(`{"meetingId":"meeting-1","userId":"user-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/process-meeting", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var dispatched DispatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dispatched))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/job/"+dispatched.JobID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var job JobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	require.Equal(t, dispatched.JobID, job.JobID)
	require.Equal(t, model.JobTypeMeeting, job.Type)
	require.Equal(t, "meeting-1", job.EntityID)
	require.Equal(t, model.JobStatusQueued, job.Status)

	// stored row matches what the API returned
	stored, err := s.Job().Get(context.TODO(), dispatched.JobID)
	require.NoError(t, err)
	require.Equal(t, job.Status, stored.Status)
}

func TestGetJobNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/job/ghost", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTaskStatusAliasServesJobs(t *testing.T) {
	router, _ := newTestRouter(t)

	body := bytes.NewBufferString(`{"questionId":"q-1","userId":"user-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/process-question", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var dispatched DispatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dispatched))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/task-status/"+dispatched.JobID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var job JobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	require.Equal(t, dispatched.JobID, job.JobID)
}

func TestGetRepositoryStatus(t *testing.T) {
	router, s := newTestRouter(t)

	_, err := s.User().Ensure(context.TODO(), model.User{ID: "user-1"})
	require.NoError(t, err)
	_, err = s.Repository().Create(context.TODO(), model.Repository{
		ID:              "repo-1",
		UserID:          "user-1",
		Name:            "repo-1",
		EmbeddingStatus: model.RepositoryStatusCompleted,
		Processed:       true,
		Summary:         "a small CLI tool",
		FileCount:       12,
		TotalSize:       4096,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/repository/repo-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RepositoryStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "repo-1", resp.RepositoryID)
	require.Equal(t, model.RepositoryStatusCompleted, resp.Status)
	require.True(t, resp.Processed)
	require.Equal(t, "a small CLI tool", resp.Summary)
	require.Equal(t, 12, resp.FileCount)
	require.Equal(t, int64(4096), resp.TotalSize)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/repository/ghost", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListRepositoryFiles(t *testing.T) {
	router, s := newTestRouter(t)

	_, err := s.User().Ensure(context.TODO(), model.User{ID: "user-1"})
	require.NoError(t, err)
	_, err = s.Repository().Create(context.TODO(), model.Repository{ID: "repo-1", UserID: "user-1", Name: "repo-1"})
	require.NoError(t, err)
	_, err = s.RepositoryFile().Upsert(context.TODO(), model.RepositoryFile{
		RepositoryID: "repo-1",
		Path:         "cmd/main.go",
		Summary:      "entry point",
		Language:     "go",
		Size:         240,
	})
	require.NoError(t, err)
	_, err = s.RepositoryFile().Upsert(context.TODO(), model.RepositoryFile{
		RepositoryID: "repo-1",
		Path:         "README.md",
		Language:     "markdown",
		Size:         80,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/repository/repo-1/files", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var files []RepositoryFileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &files))
	require.Len(t, files, 2)
	require.Equal(t, "README.md", files[0].Path)
	require.Equal(t, "cmd/main.go", files[1].Path)
	require.Equal(t, "entry point", files[1].Summary)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/repository/ghost/files", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetMeetingStatus(t *testing.T) {
	router, s := newTestRouter(t)

	_, err := s.User().Ensure(context.TODO(), model.User{ID: "user-1"})
	require.NoError(t, err)
	_, err = s.Meeting().Create(context.TODO(), model.Meeting{
		ID:          "meeting-1",
		UserID:      "user-1",
		Title:       "weekly sync",
		Status:      model.MeetingStatusCompleted,
		Summary:     "action items assigned",
		NumSegments: 3,
		Length:      1800.5,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/meeting/meeting-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp MeetingStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "meeting-1", resp.MeetingID)
	require.Equal(t, model.MeetingStatusCompleted, resp.Status)
	require.Equal(t, "weekly sync", resp.Title)
	require.Equal(t, 3, resp.NumSegments)
	require.InDelta(t, 1800.5, resp.Length, 1e-9)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/meeting/ghost", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListMeetingSegments(t *testing.T) {
	router, s := newTestRouter(t)

	_, err := s.User().Ensure(context.TODO(), model.User{ID: "user-1"})
	require.NoError(t, err)
	_, err = s.Meeting().Create(context.TODO(), model.Meeting{ID: "meeting-1", UserID: "user-1", Status: model.MeetingStatusCompleted})
	require.NoError(t, err)

	for _, segment := range []model.MeetingSegment{
		{MeetingID: "meeting-1", SegmentIndex: 1, Title: "discussion", StartTime: 60, EndTime: 120},
		{MeetingID: "meeting-1", SegmentIndex: 0, Title: "intro", StartTime: 0, EndTime: 60},
	} {
		require.NoError(t, s.MeetingSegment().Upsert(context.TODO(), segment))
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/meeting/meeting-1/segments", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var segments []MeetingSegmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &segments))
	require.Len(t, segments, 2)
	require.Equal(t, 0, segments[0].SegmentIndex)
	require.Equal(t, "intro", segments[0].Title)
	require.Equal(t, 1, segments[1].SegmentIndex)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/meeting/ghost/segments", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
