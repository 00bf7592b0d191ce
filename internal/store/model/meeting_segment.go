package model

import (
	"encoding/json"

	"gorm.io/gorm"
)

type MeetingSegment struct {
	gorm.Model
	MeetingID    string `gorm:"uniqueIndex:meeting_segments_meeting_index;not null"`
	SegmentIndex int    `gorm:"uniqueIndex:meeting_segments_meeting_index;not null"`
	Title        string
	Summary      string
	Excerpt      string
	Text         string
	StartTime    float64
	EndTime      float64
}

type MeetingSegmentList []MeetingSegment

func (s MeetingSegment) String() string {
	val, _ := json.Marshal(s)
	return string(val)
}
