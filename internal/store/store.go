package store

import (
	"context"

	"gorm.io/gorm"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	Job() Job
	User() User
	Repository() Repository
	RepositoryFile() RepositoryFile
	Commit() Commits
	Question() Question
	Meeting() Meeting
	MeetingSegment() MeetingSegment
	InitialMigration(ctx context.Context) error
	Close() error
}

type DataStore struct {
	db             *gorm.DB
	job            Job
	user           User
	repository     Repository
	repositoryFile RepositoryFile
	commit         Commits
	question       Question
	meeting        Meeting
	meetingSegment MeetingSegment
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		db:             db,
		job:            NewJobStore(db),
		user:           NewUserStore(db),
		repository:     NewRepositoryStore(db),
		repositoryFile: NewRepositoryFileStore(db),
		commit:         NewCommitStore(db),
		question:       NewQuestionStore(db),
		meeting:        NewMeetingStore(db),
		meetingSegment: NewMeetingSegmentStore(db),
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db)
}

func (s *DataStore) Job() Job {
	return s.job
}

func (s *DataStore) User() User {
	return s.user
}

func (s *DataStore) Repository() Repository {
	return s.repository
}

func (s *DataStore) RepositoryFile() RepositoryFile {
	return s.repositoryFile
}

func (s *DataStore) Commit() Commits {
	return s.commit
}

func (s *DataStore) Question() Question {
	return s.question
}

func (s *DataStore) Meeting() Meeting {
	return s.meeting
}

func (s *DataStore) MeetingSegment() MeetingSegment {
	return s.meetingSegment
}

func (s *DataStore) InitialMigration(ctx context.Context) error {
	migrations := []func(context.Context) error{
		s.user.InitialMigration,
		s.repository.InitialMigration,
		s.repositoryFile.InitialMigration,
		s.commit.InitialMigration,
		s.question.InitialMigration,
		s.meeting.InitialMigration,
		s.meetingSegment.InitialMigration,
		s.job.InitialMigration,
	}
	for _, migrate := range migrations {
		if err := migrate(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
