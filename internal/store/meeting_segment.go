package store

import (
	"context"

	"github.com/devbrief/devbrief/internal/store/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MeetingSegment interface {
	List(ctx context.Context, meetingID string) (model.MeetingSegmentList, error)
	Count(ctx context.Context, meetingID string) (int, error)
	Upsert(ctx context.Context, segment model.MeetingSegment) error
	InitialMigration(ctx context.Context) error
}

type MeetingSegmentStore struct {
	db *gorm.DB
}

// Make sure we conform to MeetingSegment interface
var _ MeetingSegment = (*MeetingSegmentStore)(nil)

func NewMeetingSegmentStore(db *gorm.DB) MeetingSegment {
	return &MeetingSegmentStore{db: db}
}

func (s *MeetingSegmentStore) InitialMigration(ctx context.Context) error {
	return s.getDB(ctx).AutoMigrate(&model.MeetingSegment{})
}

func (s *MeetingSegmentStore) List(ctx context.Context, meetingID string) (model.MeetingSegmentList, error) {
	var segments model.MeetingSegmentList
	err := s.getDB(ctx).WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("segment_index").
		Find(&segments).Error
	if err != nil {
		return nil, err
	}
	return segments, nil
}

func (s *MeetingSegmentStore) Count(ctx context.Context, meetingID string) (int, error) {
	var count int64
	err := s.getDB(ctx).WithContext(ctx).
		Model(&model.MeetingSegment{}).
		Where("meeting_id = ?", meetingID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// Upsert writes a segment keyed on (meeting_id, segment_index), so repeated
// or out-of-order delivery of the same segment converges to one row.
func (s *MeetingSegmentStore) Upsert(ctx context.Context, segment model.MeetingSegment) error {
	return s.getDB(ctx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "meeting_id"}, {Name: "segment_index"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "summary", "excerpt", "text", "start_time", "end_time", "updated_at"}),
		}).
		Create(&segment).Error
}

func (s *MeetingSegmentStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
