package model

import (
	"encoding/json"

	"gorm.io/gorm"
)

// Meeting pipeline statuses reported by the external transcription worker.
// FAILED is reachable from any non-terminal status.
const (
	MeetingStatusProcessing   = "PROCESSING"
	MeetingStatusTranscribing = "TRANSCRIBING"
	MeetingStatusSummarizing  = "SUMMARIZING"
	MeetingStatusCompleted    = "COMPLETED"
	MeetingStatusFailed       = "FAILED"
)

type Meeting struct {
	gorm.Model
	ID          string `gorm:"primaryKey"`
	UserID      string `gorm:"index:meetings_user_id_idx"`
	Title       string
	Status      string
	Summary     string
	Transcript  string
	NumSegments int
	Length      float64
	Segments    []MeetingSegment `gorm:"constraint:OnDelete:CASCADE;"`
}

type MeetingList []Meeting

func (m Meeting) String() string {
	val, _ := json.Marshal(m)
	return string(val)
}

// IsTerminalMeetingStatus reports whether no further pipeline updates are
// expected for the given status.
func IsTerminalMeetingStatus(status string) bool {
	return status == MeetingStatusCompleted || status == MeetingStatusFailed
}
