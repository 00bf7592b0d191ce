package store

import (
	"context"
	"errors"

	"github.com/devbrief/devbrief/internal/store/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MeetingUpdate carries the fields a pipeline update may merge. Nil fields
// are left untouched, never nulled out, which keeps updates commutative
// regardless of arrival order.
type MeetingUpdate struct {
	Status      *string
	Title       *string
	Summary     *string
	Transcript  *string
	NumSegments *int
	Length      *float64
}

type Meeting interface {
	Get(ctx context.Context, id string) (*model.Meeting, error)
	List(ctx context.Context, userID string) (model.MeetingList, error)
	Create(ctx context.Context, meeting model.Meeting) (*model.Meeting, error)
	Ensure(ctx context.Context, meeting model.Meeting) (*model.Meeting, error)
	Update(ctx context.Context, id string, update MeetingUpdate) (*model.Meeting, error)
	InitialMigration(ctx context.Context) error
}

type MeetingStore struct {
	db *gorm.DB
}

// Make sure we conform to Meeting interface
var _ Meeting = (*MeetingStore)(nil)

func NewMeetingStore(db *gorm.DB) Meeting {
	return &MeetingStore{db: db}
}

func (s *MeetingStore) InitialMigration(ctx context.Context) error {
	return s.getDB(ctx).AutoMigrate(&model.Meeting{})
}

func (s *MeetingStore) Get(ctx context.Context, id string) (*model.Meeting, error) {
	meeting := &model.Meeting{ID: id}

	if err := s.getDB(ctx).WithContext(ctx).First(meeting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return meeting, nil
}

func (s *MeetingStore) List(ctx context.Context, userID string) (model.MeetingList, error) {
	var meetings model.MeetingList
	err := s.getDB(ctx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&meetings).Error
	if err != nil {
		return nil, err
	}
	return meetings, nil
}

func (s *MeetingStore) Create(ctx context.Context, meeting model.Meeting) (*model.Meeting, error) {
	if err := s.getDB(ctx).WithContext(ctx).Create(&meeting).Error; err != nil {
		return nil, err
	}
	return &meeting, nil
}

// Ensure creates the meeting if it does not exist yet, leaving existing rows
// untouched.
func (s *MeetingStore) Ensure(ctx context.Context, meeting model.Meeting) (*model.Meeting, error) {
	err := s.getDB(ctx).WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&meeting).Error
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, meeting.ID)
}

func (s *MeetingStore) Update(ctx context.Context, id string, update MeetingUpdate) (*model.Meeting, error) {
	meeting := &model.Meeting{ID: id}

	selectFields := []string{}
	if update.Status != nil {
		meeting.Status = *update.Status
		selectFields = append(selectFields, "status")
	}
	if update.Title != nil {
		meeting.Title = *update.Title
		selectFields = append(selectFields, "title")
	}
	if update.Summary != nil {
		meeting.Summary = *update.Summary
		selectFields = append(selectFields, "summary")
	}
	if update.Transcript != nil {
		meeting.Transcript = *update.Transcript
		selectFields = append(selectFields, "transcript")
	}
	if update.NumSegments != nil {
		meeting.NumSegments = *update.NumSegments
		selectFields = append(selectFields, "num_segments")
	}
	if update.Length != nil {
		meeting.Length = *update.Length
		selectFields = append(selectFields, "length")
	}

	if len(selectFields) == 0 {
		return s.Get(ctx, id)
	}

	result := s.getDB(ctx).WithContext(ctx).Model(meeting).Clauses(clause.Returning{}).Select(selectFields).Updates(meeting)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}

	return meeting, nil
}

func (s *MeetingStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
