package model

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Job statuses tracked by the registry. A job is immutable once terminal.
const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// Job entity types.
const (
	JobTypeRepository = "repository"
	JobTypeQuestion   = "question"
	JobTypeMeeting    = "meeting"
)

// Job is one registry row per dispatched unit of work. The id keeps the
// historical "{type}_{entityId}_{unixms}" format but is treated as an opaque
// key; the owning entity is always resolved through the explicit columns.
type Job struct {
	gorm.Model
	ID         string `gorm:"primaryKey"`
	Type       string `gorm:"index:jobs_type_idx;not null"`
	EntityID   string `gorm:"index:jobs_entity_id_idx;not null"`
	EntityType string
	UserID     string
	Status     string `gorm:"not null"`
	Progress   int
	Result     *JSONField[json.RawMessage] `gorm:"type:jsonb"`
	Error      string
}

type JobList []Job

func (j Job) String() string {
	val, _ := json.Marshal(j)
	return string(val)
}

// NewJobID allocates the registry key for a dispatched job.
func NewJobID(jobType, entityID string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%d", jobType, entityID, now.UnixMilli())
}

// IsTerminalJobStatus reports whether the registry row may no longer be mutated.
func IsTerminalJobStatus(status string) bool {
	return status == JobStatusCompleted || status == JobStatusFailed
}
