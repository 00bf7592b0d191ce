package processors

import (
	"time"
)

// Result message shapes are queue-specific and produced by the external
// worker. Fields are parsed defensively: absent fields stay zero/nil and are
// never written over existing data.

const answerTypeQnA = "qna"

// AnswerMessage arrives on queue:answers.
type AnswerMessage struct {
	Type            string   `json:"type"`
	JobID           string   `json:"jobId"`
	QuestionID      string   `json:"questionId"`
	UserID          string   `json:"userId"`
	RepositoryID    string   `json:"repositoryId,omitempty"`
	Query           string   `json:"query"`
	Answer          string   `json:"answer"`
	ConfidenceScore *float64 `json:"confidenceScore,omitempty"`
	RelevantFiles   []string `json:"relevantFiles,omitempty"`
	Category        string   `json:"category,omitempty"`
	Tags            []string `json:"tags,omitempty"`
}

// FileMetadataMessage arrives on queue:file_metadata, one per indexed file.
type FileMetadataMessage struct {
	RepositoryID string `json:"repositoryId"`
	Path         string `json:"path"`
	FileURL      string `json:"fileUrl,omitempty"`
	FileKey      string `json:"fileKey,omitempty"`
	Language     string `json:"language,omitempty"`
	Size         int64  `json:"size,omitempty"`
}

// FileSummaryMessage arrives on queue:file_summaries.
type FileSummaryMessage struct {
	RepositoryID string `json:"repositoryId"`
	Path         string `json:"path"`
	Summary      string `json:"summary"`
}

// CompletionMessage is carried by all three completion triggers: the
// repository_status channel, the completion marker payload and
// queue:repo_completions.
type CompletionMessage struct {
	RepositoryID string         `json:"repositoryId"`
	JobID        string         `json:"jobId,omitempty"`
	Status       string         `json:"status"`
	Summary      string         `json:"summary,omitempty"`
	Commits      []CommitRecord `json:"commits,omitempty"`
}

// CommitRecord is the commit history captured during indexing.
type CommitRecord struct {
	SHA         string    `json:"sha"`
	Message     string    `json:"message,omitempty"`
	Author      string    `json:"author,omitempty"`
	CommittedAt time.Time `json:"committedAt,omitempty"`
}

// MeetingUpdateMessage arrives on queue:meeting_updates. meetingId is the
// preferred owner reference; jobId is kept for workers that only echo the
// dispatched job, resolved through the job registry.
type MeetingUpdateMessage struct {
	JobID      string          `json:"jobId,omitempty"`
	MeetingID  string          `json:"meetingId,omitempty"`
	Status     string          `json:"status,omitempty"`
	Title      *string         `json:"title,omitempty"`
	Summary    *string         `json:"summary,omitempty"`
	Transcript *string         `json:"transcript,omitempty"`
	Length     *float64        `json:"length,omitempty"`
	Error      string          `json:"error,omitempty"`
	Segments   []SegmentUpdate `json:"segments,omitempty"`
}

// SegmentUpdate is one entry of a segments array. The whole array is
// re-upserted on every delivery.
type SegmentUpdate struct {
	Index     int     `json:"index"`
	Title     string  `json:"title,omitempty"`
	Summary   string  `json:"summary,omitempty"`
	Excerpt   string  `json:"excerpt,omitempty"`
	Text      string  `json:"text,omitempty"`
	StartTime float64 `json:"startTime,omitempty"`
	EndTime   float64 `json:"endTime,omitempty"`
}

// MeetingStatusNotification is published on the meeting_status channel after
// each applied update.
type MeetingStatusNotification struct {
	MeetingID   string `json:"meetingId"`
	Status      string `json:"status"`
	NumSegments int    `json:"numSegments"`
}
