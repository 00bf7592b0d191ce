package service

import (
	"context"
	"errors"

	"github.com/devbrief/devbrief/internal/store"
	"github.com/devbrief/devbrief/internal/store/model"
)

type MeetingService struct {
	store store.Store
}

func NewMeetingService(store store.Store) *MeetingService {
	return &MeetingService{store: store}
}

func (s *MeetingService) GetMeeting(ctx context.Context, id string) (*model.Meeting, error) {
	meeting, err := s.store.Meeting().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrMeetingNotFound(id)
		}
		return nil, err
	}
	return meeting, nil
}

// ListSegments returns the meeting's segments ordered by index.
func (s *MeetingService) ListSegments(ctx context.Context, meetingID string) (model.MeetingSegmentList, error) {
	return s.store.MeetingSegment().List(ctx, meetingID)
}
